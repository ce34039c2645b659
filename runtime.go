package sprig

import "go.uber.org/zap"

// Runtime is the process-scoped context every engine object is created
// against. It replaces the engine's ambient singletons: the autorelease pool
// stack, the script engine manager, the scheduler and the action manager all
// hang off it, and it is passed explicitly to every constructor.
//
// A Runtime is not safe for concurrent use; it belongs to the frame-loop
// goroutine.
type Runtime struct {
	log       *zap.Logger
	pools     *PoolManager
	scripts   *ScriptEngineManager
	scheduler *Scheduler
	actions   *ActionManager
	debug     bool

	objectIDs uint32
	entryIDs  int
}

// RuntimeOption customizes NewRuntime.
type RuntimeOption func(*Runtime)

// WithLogger sets the runtime logger. The default is a no-op logger.
func WithLogger(log *zap.Logger) RuntimeOption {
	return func(rt *Runtime) {
		if log != nil {
			rt.log = log
		}
	}
}

// WithScriptManager shares an existing script engine manager instead of
// creating a private one.
func WithScriptManager(m *ScriptEngineManager) RuntimeOption {
	return func(rt *Runtime) {
		if m != nil {
			rt.scripts = m
		}
	}
}

// WithDebug enables debug assertions: unsupported operations panic and tree
// depth/child count warnings are logged.
func WithDebug(enabled bool) RuntimeOption {
	return func(rt *Runtime) { rt.debug = enabled }
}

// NewRuntime creates a runtime with one autorelease pool, an empty scheduler
// and action manager, and no script engine.
func NewRuntime(opts ...RuntimeOption) *Runtime {
	rt := &Runtime{log: zap.NewNop()}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.scripts == nil {
		rt.scripts = NewScriptEngineManager(rt.log)
	}
	rt.pools = newPoolManager()
	rt.scheduler = newScheduler(rt)
	rt.actions = newActionManager(rt)
	return rt
}

var defaultRuntime *Runtime

// DefaultRuntime returns a lazily created runtime bound to the shared script
// engine manager. Programs that construct their own Runtime never need it.
func DefaultRuntime() *Runtime {
	if defaultRuntime == nil {
		defaultRuntime = NewRuntime(WithScriptManager(SharedScriptEngineManager()))
	}
	return defaultRuntime
}

// Logger returns the runtime logger.
func (rt *Runtime) Logger() *zap.Logger { return rt.log }

// Pools returns the autorelease pool stack.
func (rt *Runtime) Pools() *PoolManager { return rt.pools }

// Scripts returns the script engine manager.
func (rt *Runtime) Scripts() *ScriptEngineManager { return rt.scripts }

// Scheduler returns the timer scheduler.
func (rt *Runtime) Scheduler() *Scheduler { return rt.scheduler }

// Actions returns the action manager.
func (rt *Runtime) Actions() *ActionManager { return rt.actions }

// Debug reports whether debug assertions are enabled.
func (rt *Runtime) Debug() bool { return rt.debug }

// SetDebug toggles debug assertions.
func (rt *Runtime) SetDebug(enabled bool) { rt.debug = enabled }

// assert panics in debug mode and logs at Error otherwise.
func (rt *Runtime) assert(ok bool, msg string, fields ...zap.Field) {
	if ok {
		return
	}
	if e := rt.scripts.ScriptEngine(); e != nil && e.HandleAssert(msg) {
		return
	}
	if rt.debug {
		panic("sprig: " + msg)
	}
	rt.log.Error(msg, fields...)
}

func (rt *Runtime) nextObjectID() uint32 {
	rt.objectIDs++
	return rt.objectIDs
}

func (rt *Runtime) nextEntryID() int {
	rt.entryIDs++
	return rt.entryIDs
}
