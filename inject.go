package sprig

// syntheticPointerEvent is one queued pointer event in screen coordinates.
type syntheticPointerEvent struct {
	x, y  float64
	event string // "began", "moved" or "ended"
}

// InjectPress queues a pointer press at the given screen coordinates. The
// event is consumed by the next frame in place of real mouse input.
func (d *Director) InjectPress(x, y float64) {
	d.injectQueue = append(d.injectQueue, syntheticPointerEvent{x: x, y: y, event: "began"})
}

// InjectMove queues a pointer move with the button held down.
func (d *Director) InjectMove(x, y float64) {
	d.injectQueue = append(d.injectQueue, syntheticPointerEvent{x: x, y: y, event: "moved"})
}

// InjectRelease queues a pointer release.
func (d *Director) InjectRelease(x, y float64) {
	d.injectQueue = append(d.injectQueue, syntheticPointerEvent{x: x, y: y, event: "ended"})
}

// InjectClick queues a press followed by a release at the same point.
// Consumes two frames.
func (d *Director) InjectClick(x, y float64) {
	d.InjectPress(x, y)
	d.InjectRelease(x, y)
}

// InjectDrag queues a press at (fromX, fromY), frames-2 interpolated moves
// and a release at (toX, toY). Minimum frames is 2.
func (d *Director) InjectDrag(fromX, fromY, toX, toY float64, frames int) {
	if frames < 2 {
		frames = 2
	}
	d.InjectPress(fromX, fromY)
	steps := frames - 2
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps+1)
		d.InjectMove(fromX+(toX-fromX)*t, fromY+(toY-fromY)*t)
	}
	d.InjectRelease(toX, toY)
}

// PendingInjections returns the number of queued synthetic events.
func (d *Director) PendingInjections() int { return len(d.injectQueue) }

// processInjectedInput pops one queued event and dispatches it. Returns
// true if an event was consumed (real mouse input should be skipped).
func (d *Director) processInjectedInput() bool {
	if len(d.injectQueue) == 0 {
		return false
	}
	evt := d.injectQueue[0]
	copy(d.injectQueue, d.injectQueue[1:])
	d.injectQueue = d.injectQueue[:len(d.injectQueue)-1]

	if evt.event == "began" {
		d.DispatchClick(evt.x, evt.y)
	} else {
		d.DispatchTouch(evt.event, evt.x, evt.y)
	}
	return true
}
