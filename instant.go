package sprig

// --- Show / Hide ---

// Show makes its target visible.
type Show struct {
	instantBase
}

// NewShow returns an autoreleased Show.
func NewShow(rt *Runtime) *Show {
	a := &Show{}
	a.init(rt, a, nil)
	return Autorelease(a)
}

// Update sets the target visible.
func (a *Show) Update(float32) {
	if a.target != nil {
		a.target.SetVisible(true)
	}
}

// Reverse returns a Hide.
func (a *Show) Reverse() FiniteTimeAction {
	return NewHide(a.rt)
}

func (a *Show) cloneWithZone(z *Zone) Action {
	return cloneInto(z, a, func() *Show { return NewShow(a.rt) }, nil)
}

// Hide makes its target invisible.
type Hide struct {
	instantBase
}

// NewHide returns an autoreleased Hide.
func NewHide(rt *Runtime) *Hide {
	a := &Hide{}
	a.init(rt, a, nil)
	return Autorelease(a)
}

// Update sets the target invisible.
func (a *Hide) Update(float32) {
	if a.target != nil {
		a.target.SetVisible(false)
	}
}

// Reverse returns a Show.
func (a *Hide) Reverse() FiniteTimeAction {
	return NewShow(a.rt)
}

func (a *Hide) cloneWithZone(z *Zone) Action {
	return cloneInto(z, a, func() *Hide { return NewHide(a.rt) }, nil)
}

// --- ToggleVisibility ---

// ToggleVisibility flips its target's visibility. It has no inverse.
type ToggleVisibility struct {
	instantBase
}

// NewToggleVisibility returns an autoreleased ToggleVisibility.
func NewToggleVisibility(rt *Runtime) *ToggleVisibility {
	a := &ToggleVisibility{}
	a.init(rt, a, nil)
	return Autorelease(a)
}

// Update flips the target's visibility.
func (a *ToggleVisibility) Update(float32) {
	if a.target != nil {
		a.target.SetVisible(!a.target.IsVisible())
	}
}

func (a *ToggleVisibility) cloneWithZone(z *Zone) Action {
	return cloneInto(z, a, func() *ToggleVisibility { return NewToggleVisibility(a.rt) }, nil)
}

// --- RemoveSelf ---

// RemoveSelf detaches its target from the target's parent.
type RemoveSelf struct {
	instantBase
	cleanup bool
}

// NewRemoveSelf returns an autoreleased RemoveSelf. With cleanup the
// target's actions and scheduled callbacks are stopped as it is removed.
func NewRemoveSelf(rt *Runtime, cleanup bool) *RemoveSelf {
	a := &RemoveSelf{cleanup: cleanup}
	a.init(rt, a, nil)
	return Autorelease(a)
}

// Cleanup reports whether removal also cleans the target up.
func (a *RemoveSelf) Cleanup() bool { return a.cleanup }

// Update removes the target from its parent.
func (a *RemoveSelf) Update(float32) {
	if a.target != nil {
		a.target.RemoveFromParentAndCleanup(a.cleanup)
	}
}

// Reverse returns another RemoveSelf with the same cleanup flag. Removal has
// no re-insertion inverse; the target's old parent is not tracked.
func (a *RemoveSelf) Reverse() FiniteTimeAction {
	return NewRemoveSelf(a.rt, a.cleanup)
}

func (a *RemoveSelf) cloneWithZone(z *Zone) Action {
	return cloneInto(z, a, func() *RemoveSelf { return NewRemoveSelf(a.rt, a.cleanup) }, nil)
}

// --- FlipX / FlipY ---

// FlipX sets the target's horizontal flip flag.
type FlipX struct {
	instantBase
	flip bool
}

// NewFlipX returns an autoreleased FlipX.
func NewFlipX(rt *Runtime, flip bool) *FlipX {
	a := &FlipX{flip: flip}
	a.init(rt, a, nil)
	return Autorelease(a)
}

// Flip returns the flag the action applies.
func (a *FlipX) Flip() bool { return a.flip }

// Update applies the flag.
func (a *FlipX) Update(float32) {
	if a.target != nil {
		a.target.SetFlipX(a.flip)
	}
}

// Reverse returns a FlipX with the opposite flag.
func (a *FlipX) Reverse() FiniteTimeAction {
	return NewFlipX(a.rt, !a.flip)
}

func (a *FlipX) cloneWithZone(z *Zone) Action {
	return cloneInto(z, a, func() *FlipX { return NewFlipX(a.rt, a.flip) }, nil)
}

// FlipY sets the target's vertical flip flag.
type FlipY struct {
	instantBase
	flip bool
}

// NewFlipY returns an autoreleased FlipY.
func NewFlipY(rt *Runtime, flip bool) *FlipY {
	a := &FlipY{flip: flip}
	a.init(rt, a, nil)
	return Autorelease(a)
}

// Flip returns the flag the action applies.
func (a *FlipY) Flip() bool { return a.flip }

// Update applies the flag.
func (a *FlipY) Update(float32) {
	if a.target != nil {
		a.target.SetFlipY(a.flip)
	}
}

// Reverse returns a FlipY with the opposite flag.
func (a *FlipY) Reverse() FiniteTimeAction {
	return NewFlipY(a.rt, !a.flip)
}

func (a *FlipY) cloneWithZone(z *Zone) Action {
	return cloneInto(z, a, func() *FlipY { return NewFlipY(a.rt, a.flip) }, nil)
}

// --- Place ---

// Place moves its target to a fixed point. The previous position is not
// recorded, so Place has no inverse.
type Place struct {
	instantBase
	pos Vec2
}

// NewPlace returns an autoreleased Place.
func NewPlace(rt *Runtime, pos Vec2) *Place {
	a := &Place{pos: pos}
	a.init(rt, a, nil)
	return Autorelease(a)
}

// Position returns the point the action moves to.
func (a *Place) Position() Vec2 { return a.pos }

// Update moves the target.
func (a *Place) Update(float32) {
	if a.target != nil {
		a.target.SetPosition(a.pos.X, a.pos.Y)
	}
}

func (a *Place) cloneWithZone(z *Zone) Action {
	return cloneInto(z, a, func() *Place { return NewPlace(a.rt, a.pos) }, nil)
}
