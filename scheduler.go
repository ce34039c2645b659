package sprig

import "go.uber.org/zap"

// Timer fires a callback after an optional delay and then every interval
// seconds. The first Update only primes the timer.
//
// A timer with repeat n fires n+1 times; RepeatForever never finishes.
type Timer struct {
	fire       func(dt float32)
	interval   float32
	delay      float32
	elapsed    float32
	repeat     uint32
	executed   uint32
	primed     bool
	useDelay   bool
	runForever bool
	done       bool
}

// NewTimer returns a timer calling fire.
func NewTimer(interval float32, repeat uint32, delay float32, fire func(dt float32)) *Timer {
	return &Timer{
		fire:       fire,
		interval:   interval,
		delay:      delay,
		repeat:     repeat,
		useDelay:   delay > 0,
		runForever: repeat == RepeatForever,
	}
}

// Interval returns the firing interval in seconds.
func (t *Timer) Interval() float32 { return t.interval }

// SetInterval changes the firing interval.
func (t *Timer) SetInterval(interval float32) { t.interval = interval }

// Executed returns how many times the timer has fired after its first shot
// counting began.
func (t *Timer) Executed() uint32 { return t.executed }

// Done reports whether the timer has used up its repeats.
func (t *Timer) Done() bool { return t.done }

// Update advances the timer by dt seconds, firing when due.
func (t *Timer) Update(dt float32) {
	if t.done {
		return
	}
	if !t.primed {
		t.primed = true
		t.elapsed = 0
		t.executed = 0
		return
	}
	t.elapsed += dt
	if t.runForever && !t.useDelay {
		if t.elapsed >= t.interval {
			t.fire(t.elapsed)
			t.elapsed = 0
		}
		return
	}
	if t.useDelay {
		if t.elapsed >= t.delay {
			t.fire(t.elapsed)
			t.elapsed -= t.delay
			t.executed++
			t.useDelay = false
		}
	} else if t.elapsed >= t.interval {
		t.fire(t.elapsed)
		t.elapsed = 0
		t.executed++
	}
	if !t.runForever && t.executed > t.repeat {
		t.done = true
	}
}

type timerEntry struct {
	key     string
	timer   *Timer
	removed bool
}

type targetTimers struct {
	target Object
	timers []*timerEntry
	paused bool
}

// Scheduler runs keyed timers for targets and script schedule entries. It is
// updated once per frame by the Director.
//
// Targets are retained while they have timers. Removal requested during
// Update takes effect when the pass ends.
type Scheduler struct {
	rt        *Runtime
	targets   []*targetTimers
	byTarget  map[Object]*targetTimers
	scripts   []*SchedulerScriptHandlerEntry
	timeScale float32
	updating  bool
}

func newScheduler(rt *Runtime) *Scheduler {
	return &Scheduler{
		rt:        rt,
		byTarget:  make(map[Object]*targetTimers),
		timeScale: 1,
	}
}

// TimeScale returns the factor applied to dt.
func (s *Scheduler) TimeScale() float32 { return s.timeScale }

// SetTimeScale sets the factor applied to dt. Values below 1 slow time down.
func (s *Scheduler) SetTimeScale(scale float32) { s.timeScale = scale }

// Schedule registers fn under key for target. Scheduling an existing key
// only updates its interval.
func (s *Scheduler) Schedule(target Object, key string, fn func(dt float32), interval float32, repeat uint32, delay float32, paused bool) {
	if target == nil || fn == nil {
		panic("sprig: schedule requires a target and a callback")
	}
	tt := s.byTarget[target]
	if tt == nil {
		target.Retain()
		tt = &targetTimers{target: target, paused: paused}
		s.byTarget[target] = tt
		s.targets = append(s.targets, tt)
	}
	for _, e := range tt.timers {
		if e.key == key && !e.removed {
			s.rt.log.Debug("timer already scheduled, updating interval",
				zap.String("key", key),
				zap.Float32("interval", interval),
			)
			e.timer.SetInterval(interval)
			return
		}
	}
	tt.timers = append(tt.timers, &timerEntry{
		key:   key,
		timer: NewTimer(interval, repeat, delay, fn),
	})
}

// Unschedule removes the timer registered under key for target.
func (s *Scheduler) Unschedule(target Object, key string) {
	tt := s.byTarget[target]
	if tt == nil {
		return
	}
	for _, e := range tt.timers {
		if e.key == key {
			e.removed = true
		}
	}
	if !s.updating {
		s.sweep()
	}
}

// UnscheduleAllForTarget removes every timer of target.
func (s *Scheduler) UnscheduleAllForTarget(target Object) {
	tt := s.byTarget[target]
	if tt == nil {
		return
	}
	for _, e := range tt.timers {
		e.removed = true
	}
	if !s.updating {
		s.sweep()
	}
}

// IsScheduled reports whether target has a live timer under key.
func (s *Scheduler) IsScheduled(target Object, key string) bool {
	tt := s.byTarget[target]
	if tt == nil {
		return false
	}
	for _, e := range tt.timers {
		if e.key == key && !e.removed {
			return true
		}
	}
	return false
}

// PauseTarget suspends the timers of target.
func (s *Scheduler) PauseTarget(target Object) {
	if tt := s.byTarget[target]; tt != nil {
		tt.paused = true
	}
}

// ResumeTarget resumes the timers of target.
func (s *Scheduler) ResumeTarget(target Object) {
	if tt := s.byTarget[target]; tt != nil {
		tt.paused = false
	}
}

// IsTargetPaused reports whether target's timers are suspended.
func (s *Scheduler) IsTargetPaused(target Object) bool {
	tt := s.byTarget[target]
	return tt != nil && tt.paused
}

// ScheduleScriptFunc registers a script handler fired every interval
// seconds and returns its entry id. The scheduler owns the handler from now
// on.
func (s *Scheduler) ScheduleScriptFunc(handler int, interval float32, paused bool) int {
	e := NewSchedulerScriptHandlerEntry(s.rt, ScriptFunction{Handler: handler}, interval, RepeatForever, 0, paused)
	e.Retain()
	s.scripts = append(s.scripts, e)
	return e.EntryID()
}

// UnscheduleScriptEntry marks the entry with the given id for deletion. It
// stops firing immediately and is released on the next sweep.
func (s *Scheduler) UnscheduleScriptEntry(entryID int) {
	for _, e := range s.scripts {
		if e.EntryID() == entryID {
			e.MarkForDeletion()
			return
		}
	}
}

// ScriptEntry returns the live entry with the given id, or nil.
func (s *Scheduler) ScriptEntry(entryID int) *SchedulerScriptHandlerEntry {
	for _, e := range s.scripts {
		if e.EntryID() == entryID && !e.IsMarkedForDeletion() {
			return e
		}
	}
	return nil
}

// Update ticks native timers, then script entries, then sweeps removed
// timers and entries marked for deletion.
func (s *Scheduler) Update(dt float32) {
	if s.timeScale != 1 {
		dt *= s.timeScale
	}
	s.updating = true
	for i := 0; i < len(s.targets); i++ {
		tt := s.targets[i]
		if tt.paused {
			continue
		}
		for j := 0; j < len(tt.timers); j++ {
			e := tt.timers[j]
			if e.removed {
				continue
			}
			e.timer.Update(dt)
			if e.timer.Done() {
				e.removed = true
			}
		}
	}
	for i := 0; i < len(s.scripts); i++ {
		e := s.scripts[i]
		if e.IsPaused() || e.IsMarkedForDeletion() {
			continue
		}
		e.timer.Update(dt)
		if e.timer.Done() {
			e.MarkForDeletion()
		}
	}
	s.updating = false
	s.sweep()
}

// sweep drops removed timers and marked script entries. Releases happen
// after the bookkeeping is consistent since they may re-enter the scheduler.
func (s *Scheduler) sweep() {
	var released []Object
	targets := s.targets[:0]
	for _, tt := range s.targets {
		timers := tt.timers[:0]
		for _, e := range tt.timers {
			if !e.removed {
				timers = append(timers, e)
			}
		}
		clear(tt.timers[len(timers):])
		tt.timers = timers
		if len(timers) == 0 {
			delete(s.byTarget, tt.target)
			released = append(released, tt.target)
			continue
		}
		targets = append(targets, tt)
	}
	clear(s.targets[len(targets):])
	s.targets = targets

	scripts := s.scripts[:0]
	for _, e := range s.scripts {
		if e.IsMarkedForDeletion() {
			released = append(released, e)
			continue
		}
		scripts = append(scripts, e)
	}
	clear(s.scripts[len(scripts):])
	s.scripts = scripts

	for _, obj := range released {
		obj.Release()
	}
}

