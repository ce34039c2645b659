package sprig

import "go.uber.org/zap"

// ScriptHandlerEntry owns one foreign handler registration. Destroying the
// entry removes the handler from the active engine exactly once.
type ScriptHandlerEntry struct {
	Ref
	fn      ScriptFunction
	entryID int
}

// NewScriptHandlerEntry returns an autoreleased entry owning fn.Handler.
func NewScriptHandlerEntry(rt *Runtime, fn ScriptFunction) *ScriptHandlerEntry {
	e := &ScriptHandlerEntry{}
	e.initEntry(rt, e, fn)
	return Autorelease(e)
}

func (e *ScriptHandlerEntry) initEntry(rt *Runtime, self Object, fn ScriptFunction) {
	e.init(rt, self, e.removeHandler)
	e.fn = fn
	e.entryID = rt.nextEntryID()
}

// Handler returns the wrapped script function. Its Handler is 0 once the
// entry has been destroyed.
func (e *ScriptHandlerEntry) Handler() ScriptFunction { return e.fn }

// EntryID returns the runtime-unique entry id.
func (e *ScriptHandlerEntry) EntryID() int { return e.entryID }

func (e *ScriptHandlerEntry) removeHandler() {
	if e.fn.Handler == 0 {
		return
	}
	if engine := e.rt.scripts.ScriptEngine(); engine != nil {
		engine.RemoveScriptHandler(e.fn.Handler)
	}
	e.fn.Handler = 0
}

// SchedulerScriptHandlerEntry is a script handler fired by the Scheduler.
//
// Unscheduling only marks the entry; the scheduler stops firing it at once
// and releases it on its next sweep.
type SchedulerScriptHandlerEntry struct {
	ScriptHandlerEntry
	timer             *Timer
	paused            bool
	markedForDeletion bool
}

// NewSchedulerScriptHandlerEntry returns an autoreleased entry whose timer
// calls the engine's ExecuteSchedule.
func NewSchedulerScriptHandlerEntry(rt *Runtime, fn ScriptFunction, interval float32, repeat uint32, delay float32, paused bool) *SchedulerScriptHandlerEntry {
	e := &SchedulerScriptHandlerEntry{paused: paused}
	e.initEntry(rt, e, fn)
	e.timer = NewTimer(interval, repeat, delay, e.fire)
	rt.log.Debug("script schedule entry added",
		zap.Int("entry", e.entryID),
		zap.Int("handler", fn.Handler),
		zap.Float32("interval", interval),
	)
	e.finalize = func() {
		rt.log.Debug("script schedule entry removed", zap.Int("entry", e.entryID))
		e.removeHandler()
	}
	return Autorelease(e)
}

func (e *SchedulerScriptHandlerEntry) fire(dt float32) {
	engine := e.rt.scripts.ScriptEngine()
	if engine == nil {
		e.rt.log.Debug("schedule fired without script engine", zap.Int("entry", e.entryID))
		return
	}
	if err := engine.ExecuteSchedule(e.fn, dt); err != nil {
		e.rt.log.Warn("script schedule failed", zap.Int("entry", e.entryID), zap.Error(err))
	}
}

// Timer returns the entry's timer.
func (e *SchedulerScriptHandlerEntry) Timer() *Timer { return e.timer }

// IsPaused reports whether the scheduler skips this entry.
func (e *SchedulerScriptHandlerEntry) IsPaused() bool { return e.paused }

// SetPaused pauses or resumes the entry. The deletion mark is unaffected.
func (e *SchedulerScriptHandlerEntry) SetPaused(paused bool) { e.paused = paused }

// MarkForDeletion stops the entry from firing again.
func (e *SchedulerScriptHandlerEntry) MarkForDeletion() { e.markedForDeletion = true }

// IsMarkedForDeletion reports whether the entry awaits the scheduler sweep.
func (e *SchedulerScriptHandlerEntry) IsMarkedForDeletion() bool { return e.markedForDeletion }

// TouchScriptHandlerEntry is a script handler registered for pointer
// dispatch, ordered by priority.
type TouchScriptHandlerEntry struct {
	ScriptHandlerEntry
	multiTouches    bool
	priority        int
	swallowsTouches bool
}

// NewTouchScriptHandlerEntry returns an autoreleased touch entry.
func NewTouchScriptHandlerEntry(rt *Runtime, fn ScriptFunction, multiTouches bool, priority int, swallowsTouches bool) *TouchScriptHandlerEntry {
	e := &TouchScriptHandlerEntry{
		multiTouches:    multiTouches,
		priority:        priority,
		swallowsTouches: swallowsTouches,
	}
	e.initEntry(rt, e, fn)
	return Autorelease(e)
}

// IsMultiTouches reports whether the handler wants all touches at once.
func (e *TouchScriptHandlerEntry) IsMultiTouches() bool { return e.multiTouches }

// Priority returns the dispatch priority; lower runs first.
func (e *TouchScriptHandlerEntry) Priority() int { return e.priority }

// SwallowsTouches reports whether a handled touch stops propagating.
func (e *TouchScriptHandlerEntry) SwallowsTouches() bool { return e.swallowsTouches }

// Dispatch sends event ("began", "moved", "ended", "cancelled") and the
// pointer position to the handler. Errors are logged and reported as false.
func (e *TouchScriptHandlerEntry) Dispatch(event string, x, y float64) bool {
	if e.fn.Handler == 0 {
		return false
	}
	engine := e.rt.scripts.ScriptEngine()
	if engine == nil {
		return false
	}
	if err := engine.ExecuteEventWithArgs(e.fn, event, x, y); err != nil {
		e.rt.log.Warn("touch handler failed", zap.String("event", event), zap.Error(err))
		return false
	}
	return true
}
