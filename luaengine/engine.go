// Package luaengine implements sprig.ScriptEngine on a sandboxed GopherLua
// state.
//
// Lua functions handed to the engine are stored in a handler table and
// addressed by integer handler ids. Engine objects are exposed to Lua as
// userdata proxies which are invalidated when the native object is
// destroyed.
package luaengine

import (
	"bytes"
	"context"
	"fmt"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/phanxgames/sprig"
)

const objectTypeName = "sprig.object"

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. The default is the runtime's logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithInstructionLimit caps every call into Lua at limit opcodes. Zero
// disables the cap.
func WithInstructionLimit(limit int) Option {
	return func(e *Engine) { e.instLimit = limit }
}

// Engine is a sprig.ScriptEngine backed by one Lua state. Not safe for
// concurrent use.
type Engine struct {
	L         *lua.LState
	rt        *sprig.Runtime
	log       *zap.Logger
	instLimit int

	handlers    map[int]*lua.LFunction
	nextHandler int
	proxies     map[sprig.Object]*lua.LUserData
	nextProxy   int
	userData    map[int]lua.LValue
	nextData    int
	closed      bool
}

// New creates an engine whose script API acts on rt.
func New(rt *sprig.Runtime, opts ...Option) *Engine {
	e := &Engine{
		rt:       rt,
		log:      rt.Logger(),
		handlers: make(map[int]*lua.LFunction),
		proxies:  make(map[sprig.Object]*lua.LUserData),
		userData: make(map[int]lua.LValue),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.Named("lua")
	e.L = newSandboxedState()
	e.registerModule()
	return e
}

// newSandboxedState opens only base, table, string and math, and strips the
// globals that reach the file system or the module loader.
func newSandboxedState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range []string{"dofile", "loadfile", "load", "collectgarbage", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

// countingContext cancels itself after Done has been called limit times.
// GopherLua calls Done once per opcode when a context is set.
type countingContext struct {
	context.Context
	cancel    context.CancelFunc
	remaining *atomic.Int64
}

func (c *countingContext) Done() <-chan struct{} {
	if c.remaining.Add(-1) <= 0 {
		c.cancel()
	}
	return c.Context.Done()
}

func newCountingContext(limit int) (context.Context, context.CancelFunc) {
	base, cancel := context.WithCancel(context.Background())
	rem := &atomic.Int64{}
	rem.Store(int64(limit))
	return &countingContext{Context: base, cancel: cancel, remaining: rem}, cancel
}

// limited runs fn with the instruction cap applied.
func (e *Engine) limited(fn func() error) error {
	if e.closed {
		return fmt.Errorf("lua engine closed")
	}
	if e.instLimit > 0 {
		ctx, cancel := newCountingContext(e.instLimit)
		e.L.SetContext(ctx)
		defer func() {
			e.L.RemoveContext()
			cancel()
		}()
	}
	return fn()
}

// ScriptType reports ScriptTypeLua.
func (e *Engine) ScriptType() sprig.ScriptType { return sprig.ScriptTypeLua }

// --- Handlers ---

// RegisterHandler stores fn and returns a new handler id.
func (e *Engine) RegisterHandler(fn *lua.LFunction) int {
	e.nextHandler++
	e.handlers[e.nextHandler] = fn
	return e.nextHandler
}

// RegisterGlobalHandler registers the global function name.
func (e *Engine) RegisterGlobalHandler(name string) (int, error) {
	fn, ok := e.L.GetGlobal(name).(*lua.LFunction)
	if !ok {
		return 0, fmt.Errorf("lua global %q is not a function", name)
	}
	return e.RegisterHandler(fn), nil
}

// HandlerCount returns the number of live handler ids.
func (e *Engine) HandlerCount() int { return len(e.handlers) }

// HasHandler reports whether id is live.
func (e *Engine) HasHandler(id int) bool {
	_, ok := e.handlers[id]
	return ok
}

// RemoveScriptHandler forgets handler.
func (e *Engine) RemoveScriptHandler(handler int) {
	if _, ok := e.handlers[handler]; !ok {
		e.log.Debug("removing unknown handler", zap.Int("handler", handler))
		return
	}
	delete(e.handlers, handler)
}

// ReallocateScriptHandler binds a new id to handler's function.
func (e *Engine) ReallocateScriptHandler(handler int) int {
	fn, ok := e.handlers[handler]
	if !ok {
		return 0
	}
	return e.RegisterHandler(fn)
}

// IsScriptFunctionSame reports whether both ids name the same function.
func (e *Engine) IsScriptFunctionSame(h1, h2 int) bool {
	f1, ok1 := e.handlers[h1]
	f2, ok2 := e.handlers[h2]
	return ok1 && ok2 && f1 == f2
}

// --- Objects ---

// Push returns the proxy for obj, creating and binding it on first use.
func (e *Engine) Push(obj sprig.Object) lua.LValue {
	if obj == nil || obj.IsDestroyed() {
		return lua.LNil
	}
	obj = obj.Self()
	if ud, ok := e.proxies[obj]; ok {
		return ud
	}
	ud := e.L.NewUserData()
	ud.Value = obj
	e.L.SetMetatable(ud, e.L.GetTypeMetatable(objectTypeName))
	e.proxies[obj] = ud
	e.nextProxy++
	obj.BindScriptRef(e.nextProxy)
	return ud
}

// SetGlobalObject exposes obj to scripts as a global.
func (e *Engine) SetGlobalObject(name string, obj sprig.Object) {
	e.L.SetGlobal(name, e.Push(obj))
}

// RemoveScriptObject invalidates and forgets obj's proxy.
func (e *Engine) RemoveScriptObject(obj sprig.Object) {
	obj = obj.Self()
	if ud, ok := e.proxies[obj]; ok {
		ud.Value = nil
		delete(e.proxies, obj)
	}
}

// ExecuteObjectDestructor calls the optional global on_destroy(proxy) hook.
func (e *Engine) ExecuteObjectDestructor(obj sprig.Object) {
	obj = obj.Self()
	ud, ok := e.proxies[obj]
	if !ok || e.closed {
		return
	}
	fn, ok := e.L.GetGlobal("on_destroy").(*lua.LFunction)
	if !ok {
		return
	}
	if err := e.call(fn, 0, ud); err != nil {
		e.log.Warn("on_destroy failed", zap.Uint32("object", obj.ID()), zap.Error(err))
	}
}

// RemoveScriptUserData drops the value stored under id.
func (e *Engine) RemoveScriptUserData(id int) {
	delete(e.userData, id)
}

// UserData returns the value stored under id, or LNil.
func (e *Engine) UserData(id int) lua.LValue {
	if v, ok := e.userData[id]; ok {
		return v
	}
	return lua.LNil
}

// --- Execution ---

func (e *Engine) call(fn *lua.LFunction, nret int, args ...lua.LValue) error {
	return e.limited(func() error {
		return e.L.CallByParam(lua.P{Fn: fn, NRet: nret, Protect: true}, args...)
	})
}

func (e *Engine) callHandler(handler int, args ...lua.LValue) error {
	fn, ok := e.handlers[handler]
	if !ok {
		return fmt.Errorf("unknown lua handler %d", handler)
	}
	return e.call(fn, 0, args...)
}

// ExecuteString runs a chunk of Lua code.
func (e *Engine) ExecuteString(code string) error {
	return e.limited(func() error {
		if err := e.L.DoString(code); err != nil {
			return fmt.Errorf("lua: %w", err)
		}
		return nil
	})
}

// ExecuteScriptFile runs an already loaded script.
func (e *Engine) ExecuteScriptFile(name string, code []byte) error {
	fn, err := e.L.Load(bytes.NewReader(code), name)
	if err != nil {
		return fmt.Errorf("lua: loading %s: %w", name, err)
	}
	return e.limited(func() error {
		e.L.Push(fn)
		if err := e.L.PCall(0, lua.MultRet, nil); err != nil {
			return fmt.Errorf("lua: running %s: %w", name, err)
		}
		return nil
	})
}

// ExecuteGlobalFunction calls a global function with no arguments and
// returns its integer result.
func (e *Engine) ExecuteGlobalFunction(name string) (int, error) {
	fn, ok := e.L.GetGlobal(name).(*lua.LFunction)
	if !ok {
		return 0, fmt.Errorf("lua global %q is not a function", name)
	}
	if err := e.call(fn, 1); err != nil {
		return 0, err
	}
	ret := e.L.Get(-1)
	e.L.Pop(1)
	if n, ok := ret.(lua.LNumber); ok {
		return int(n), nil
	}
	return 0, nil
}

// ExecuteCallFuncActionEvent calls the action's handler with the handler's
// target as self (when set), the action proxy and, when present, the
// target or payload.
func (e *Engine) ExecuteCallFuncActionEvent(action *sprig.CallFunc, target sprig.Object) error {
	fn := action.ScriptHandler()
	args := make([]lua.LValue, 0, 3)
	if fn.Target != nil {
		args = append(args, e.Push(fn.Target))
	}
	args = append(args, e.Push(action))
	if target != nil {
		args = append(args, e.toValue(target))
	}
	return e.callHandler(fn.Handler, args...)
}

// ExecuteSchedule calls fn's handler with dt.
func (e *Engine) ExecuteSchedule(fn sprig.ScriptFunction, dt float32) error {
	return e.callHandler(fn.Handler, lua.LNumber(dt))
}

// ExecuteEvent calls fn's handler with the event name and target proxy.
func (e *Engine) ExecuteEvent(fn sprig.ScriptFunction, event string) error {
	return e.callHandler(fn.Handler, lua.LString(event), e.Push(fn.Target))
}

// ExecuteEventWithArgs calls fn's handler with converted args.
func (e *Engine) ExecuteEventWithArgs(fn sprig.ScriptFunction, args ...any) error {
	values := make([]lua.LValue, 0, len(args))
	for _, a := range args {
		values = append(values, e.toValue(a))
	}
	return e.callHandler(fn.Handler, values...)
}

func (e *Engine) toValue(v any) lua.LValue {
	switch v := v.(type) {
	case nil:
		return lua.LNil
	case lua.LValue:
		return v
	case sprig.Unboxer:
		return e.toValue(v.Unbox())
	case string:
		return lua.LString(v)
	case bool:
		return lua.LBool(v)
	case int:
		return lua.LNumber(v)
	case float32:
		return lua.LNumber(v)
	case float64:
		return lua.LNumber(v)
	case sprig.Object:
		return e.Push(v)
	default:
		return lua.LString(fmt.Sprint(v))
	}
}

// HandleAssert logs the assertion; native handling continues.
func (e *Engine) HandleAssert(msg string) bool {
	e.log.Error("assertion failed", zap.String("msg", msg))
	return false
}

// Close invalidates every proxy and closes the Lua state.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	for obj, ud := range e.proxies {
		ud.Value = nil
		obj.BindScriptRef(0)
		delete(e.proxies, obj)
	}
	clear(e.handlers)
	clear(e.userData)
	e.L.Close()
	e.closed = true
	return nil
}
