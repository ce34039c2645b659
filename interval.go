package sprig

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

const durationEpsilon = 1.192092896e-07

// intervalBase advances over a fixed duration and maps elapsed time to a
// normalized Update(t).
type intervalBase struct {
	actionBase
	duration  float32
	elapsed   float32
	firstTick bool
}

func (b *intervalBase) initInterval(duration float32) {
	if duration <= durationEpsilon {
		duration = 0
	}
	b.duration = duration
	b.firstTick = true
}

// Duration returns the action length in seconds.
func (b *intervalBase) Duration() float32 { return b.duration }

// Elapsed returns the seconds run since the action started.
func (b *intervalBase) Elapsed() float32 { return b.elapsed }

// IsDone reports whether the full duration has elapsed.
func (b *intervalBase) IsDone() bool { return b.elapsed >= b.duration }

// StartWithTarget binds the target and rewinds the clock.
func (b *intervalBase) StartWithTarget(target *Node) {
	b.actionBase.StartWithTarget(target)
	b.elapsed = 0
	b.firstTick = true
}

// Step advances the clock by dt. The first step after a start applies t=0,
// or t=1 for a zero-length action.
func (b *intervalBase) Step(dt float32) {
	if b.firstTick {
		b.firstTick = false
		b.elapsed = 0
	} else {
		b.elapsed += dt
	}
	t := float32(1)
	if b.duration > 0 {
		t = min(1, max(0, b.elapsed/b.duration))
	}
	b.self.(Action).Update(t)
}

// easedProgress maps normalized time through an easing curve via a gween
// tween running from 0 to 1.
type easedProgress struct {
	easing ease.TweenFunc
	tween  *gween.Tween
}

func newEasedProgress(duration float32, easing ease.TweenFunc) easedProgress {
	if easing == nil {
		easing = ease.Linear
	}
	p := easedProgress{easing: easing}
	if duration > 0 {
		p.tween = gween.New(0, 1, duration, easing)
	}
	return p
}

func (p easedProgress) at(t, duration float32) float32 {
	if p.tween == nil {
		if t >= 1 {
			return 1
		}
		return 0
	}
	v, _ := p.tween.Set(t * duration)
	return v
}

// --- MoveBy ---

// MoveBy moves its target by a fixed offset over its duration.
type MoveBy struct {
	intervalBase
	delta    Vec2
	start    Vec2
	progress easedProgress
}

// NewMoveBy returns an autoreleased MoveBy. A nil easing is linear.
func NewMoveBy(rt *Runtime, duration float32, delta Vec2, easing ease.TweenFunc) *MoveBy {
	a := &MoveBy{delta: delta}
	a.init(rt, a, nil)
	a.initInterval(duration)
	a.progress = newEasedProgress(a.duration, easing)
	return Autorelease(a)
}

// Delta returns the offset applied over the action.
func (a *MoveBy) Delta() Vec2 { return a.delta }

// StartWithTarget records the target's starting position.
func (a *MoveBy) StartWithTarget(target *Node) {
	a.intervalBase.StartWithTarget(target)
	a.start = target.Position()
}

// Update places the target at the eased fraction t of the offset.
func (a *MoveBy) Update(t float32) {
	if a.target == nil {
		return
	}
	p := float64(a.progress.at(t, a.duration))
	a.target.SetPosition(a.start.X+a.delta.X*p, a.start.Y+a.delta.Y*p)
}

// Reverse returns a MoveBy with the opposite offset and the same easing.
func (a *MoveBy) Reverse() FiniteTimeAction {
	return NewMoveBy(a.rt, a.duration, Vec2{X: -a.delta.X, Y: -a.delta.Y}, a.progress.easing)
}

func (a *MoveBy) cloneWithZone(z *Zone) Action {
	return cloneInto(z, a, func() *MoveBy {
		return NewMoveBy(a.rt, a.duration, a.delta, a.progress.easing)
	}, nil)
}

// --- FadeTo ---

// FadeTo changes its target's alpha to a fixed value. The starting alpha is
// only known once started, so FadeTo has no inverse.
type FadeTo struct {
	intervalBase
	to       float64
	from     float64
	progress easedProgress
}

// NewFadeTo returns an autoreleased FadeTo towards alpha in [0, 1].
func NewFadeTo(rt *Runtime, duration float32, alpha float64, easing ease.TweenFunc) *FadeTo {
	a := &FadeTo{to: alpha}
	a.init(rt, a, nil)
	a.initInterval(duration)
	a.progress = newEasedProgress(a.duration, easing)
	return Autorelease(a)
}

// StartWithTarget records the target's starting alpha.
func (a *FadeTo) StartWithTarget(target *Node) {
	a.intervalBase.StartWithTarget(target)
	a.from = target.Alpha
}

// Update sets the interpolated alpha.
func (a *FadeTo) Update(t float32) {
	if a.target == nil {
		return
	}
	p := float64(a.progress.at(t, a.duration))
	a.target.SetAlpha(a.from + (a.to-a.from)*p)
}

func (a *FadeTo) cloneWithZone(z *Zone) Action {
	return cloneInto(z, a, func() *FadeTo {
		return NewFadeTo(a.rt, a.duration, a.to, a.progress.easing)
	}, nil)
}

// --- DelayTime ---

// DelayTime does nothing for its duration.
type DelayTime struct {
	intervalBase
}

// NewDelayTime returns an autoreleased DelayTime.
func NewDelayTime(rt *Runtime, duration float32) *DelayTime {
	a := &DelayTime{}
	a.init(rt, a, nil)
	a.initInterval(duration)
	return Autorelease(a)
}

// Update does nothing.
func (a *DelayTime) Update(float32) {}

// Reverse returns an equal delay.
func (a *DelayTime) Reverse() FiniteTimeAction {
	return NewDelayTime(a.rt, a.duration)
}

func (a *DelayTime) cloneWithZone(z *Zone) Action {
	return cloneInto(z, a, func() *DelayTime { return NewDelayTime(a.rt, a.duration) }, nil)
}

// --- Sequence ---

// Sequence runs its children one after another. Instant children that fall
// due in the same step all run in that step.
type Sequence struct {
	intervalBase
	actions []FiniteTimeAction
	offsets []float32
	current int
	running bool
}

// NewSequence returns an autoreleased Sequence retaining every child, or nil
// when actions is empty or holds a nil child.
func NewSequence(rt *Runtime, actions ...FiniteTimeAction) *Sequence {
	if len(actions) == 0 {
		rt.assert(false, "sequence needs at least one action")
		return nil
	}
	for _, a := range actions {
		if a == nil {
			rt.assert(false, "sequence child is nil")
			return nil
		}
	}
	s := newSequence(rt)
	s.setActions(actions)
	return Autorelease(s)
}

func newSequence(rt *Runtime) *Sequence {
	s := &Sequence{}
	s.init(rt, s, s.finalizeSequence)
	s.initInterval(0)
	return s
}

func (s *Sequence) setActions(actions []FiniteTimeAction) {
	s.actions = make([]FiniteTimeAction, len(actions))
	s.offsets = make([]float32, len(actions))
	var total float32
	for i, a := range actions {
		a.Retain()
		s.actions[i] = a
		s.offsets[i] = total
		total += a.Duration()
	}
	s.initInterval(total)
}

func (s *Sequence) finalizeSequence() {
	for _, a := range s.actions {
		a.Release()
	}
	s.actions = nil
}

// Actions returns the children in run order. The slice MUST NOT be mutated.
func (s *Sequence) Actions() []FiniteTimeAction { return s.actions }

// StartWithTarget rewinds to the first child.
func (s *Sequence) StartWithTarget(target *Node) {
	s.intervalBase.StartWithTarget(target)
	s.current = 0
	s.running = false
}

// Stop stops the child in progress.
func (s *Sequence) Stop() {
	if s.running && s.current < len(s.actions) {
		s.actions[s.current].Stop()
	}
	s.running = false
	s.intervalBase.Stop()
}

// Update runs every child due by t and advances the one in progress.
func (s *Sequence) Update(t float32) {
	if s.target == nil {
		return
	}
	now := t * s.duration
	for s.current < len(s.actions) {
		a := s.actions[s.current]
		if !s.running {
			a.StartWithTarget(s.target)
			s.running = true
		}
		d := a.Duration()
		start := s.offsets[s.current]
		if t < 1 && now < start+d {
			if d > 0 {
				a.Update((now - start) / d)
			}
			return
		}
		a.Update(1)
		a.Stop()
		s.running = false
		s.current++
		if s.target == nil {
			return
		}
	}
}

// Reverse returns a Sequence of the reversed children in reverse order, or
// nil when a child has no inverse.
func (s *Sequence) Reverse() FiniteTimeAction {
	reversed := make([]FiniteTimeAction, len(s.actions))
	for i, a := range s.actions {
		r, ok := a.(Reversible)
		if !ok {
			s.rt.assert(false, "sequence child is not reversible")
			return nil
		}
		rev := r.Reverse()
		if rev == nil {
			return nil
		}
		reversed[len(s.actions)-1-i] = rev
	}
	if seq := NewSequence(s.rt, reversed...); seq != nil {
		return seq
	}
	return nil
}

func (s *Sequence) cloneWithZone(z *Zone) Action {
	if z == nil {
		z = NewZone()
	}
	return cloneInto(z, s, func() *Sequence {
		return Autorelease(newSequence(s.rt))
	}, func(c *Sequence) {
		children := make([]FiniteTimeAction, len(s.actions))
		for i, a := range s.actions {
			children[i] = a.cloneWithZone(z).(FiniteTimeAction)
		}
		c.setActions(children)
	})
}
