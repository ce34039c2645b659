package sprig

// Action is a unit of work run against a target node by the ActionManager.
//
// The target is a non-owning back reference set by StartWithTarget; the
// manager keeps the node alive while the action runs.
type Action interface {
	Object
	Target() *Node
	OriginalTarget() *Node
	StartWithTarget(target *Node)
	Stop()
	IsDone() bool
	// Step advances the action by dt seconds.
	Step(dt float32)
	// Update applies the action at normalized time t in [0, 1].
	Update(t float32)
	Tag() int
	SetTag(tag int)

	state() *actionBase
	cloneWithZone(z *Zone) Action
}

// FiniteTimeAction is an action with a known duration. Instant actions have
// duration zero.
type FiniteTimeAction interface {
	Action
	Duration() float32
}

// Reversible is implemented by actions with a logical inverse.
type Reversible interface {
	FiniteTimeAction
	Reverse() FiniteTimeAction
}

// actionBase holds the state every action shares.
type actionBase struct {
	Ref
	target         *Node
	originalTarget *Node
	tag            int
}

func (a *actionBase) state() *actionBase { return a }

// Target returns the node the action is running on, or nil when stopped.
func (a *actionBase) Target() *Node { return a.target }

// OriginalTarget returns the node passed to the last StartWithTarget.
func (a *actionBase) OriginalTarget() *Node { return a.originalTarget }

// StartWithTarget binds the action to target.
func (a *actionBase) StartWithTarget(target *Node) {
	a.originalTarget = target
	a.target = target
}

// Stop unbinds the action from its target.
func (a *actionBase) Stop() { a.target = nil }

// Tag returns the user tag.
func (a *actionBase) Tag() int { return a.tag }

// SetTag sets the user tag.
func (a *actionBase) SetTag(tag int) { a.tag = tag }

// Zone maps source objects to the clones already built for them during one
// duplication pass. Passing the same Zone through a graph of actions makes
// every shared reference clone exactly once.
type Zone struct {
	clones map[Object]Object
}

// NewZone returns an empty zone.
func NewZone() *Zone {
	return &Zone{clones: make(map[Object]Object)}
}

// Lookup returns the clone registered for src, or nil.
func (z *Zone) Lookup(src Object) Object {
	return z.clones[src]
}

// Len returns the number of clones registered in the zone.
func (z *Zone) Len() int {
	return len(z.clones)
}

// cloneInto returns the clone of src registered in z, or allocates one with
// alloc, registers it before fill runs (so self references resolve to it),
// copies the shared action state and fills the variant fields.
func cloneInto[T Action](z *Zone, src T, alloc func() T, fill func(dst T)) T {
	if z == nil {
		z = NewZone()
	}
	if c, ok := z.clones[src]; ok {
		return c.(T)
	}
	dst := alloc()
	z.clones[src] = dst
	dst.state().tag = src.state().tag
	if fill != nil {
		fill(dst)
	}
	return dst
}

// Clone duplicates action through z. A nil zone starts a fresh duplication
// pass. Clones are returned autoreleased.
func Clone(action Action, z *Zone) Action {
	return action.cloneWithZone(z)
}

// CloneAs is Clone with the concrete type preserved.
func CloneAs[T Action](action T, z *Zone) T {
	return action.cloneWithZone(z).(T)
}

// Copy duplicates action with a fresh zone.
func Copy(action Action) Action {
	return action.cloneWithZone(nil)
}

// instantBase makes an action complete within a single Step.
type instantBase struct {
	actionBase
}

// IsDone always reports true.
func (b *instantBase) IsDone() bool { return true }

// Step ignores dt and runs Update(1).
func (b *instantBase) Step(dt float32) {
	b.self.(Action).Update(1)
}

// Duration is always zero.
func (b *instantBase) Duration() float32 { return 0 }

func (b *instantBase) instant() {}

// instantAction is satisfied by every action built on instantBase.
type instantAction interface {
	FiniteTimeAction
	instant()
}
