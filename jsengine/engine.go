// Package jsengine implements sprig.ScriptEngine on a goja JavaScript
// runtime.
//
// The script API mirrors the Lua engine: a global sprig object with log,
// schedule, unschedule, callFunc, setUserData and userData, and proxy
// objects for engine values that stop working once the native object is
// destroyed.
package jsengine

import (
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/phanxgames/sprig"
)

var errClosed = errors.New("js engine closed")

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

// WithTimeout interrupts any single call into JavaScript running longer
// than d. Zero disables the limit.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

type handler struct {
	fn    goja.Callable
	value goja.Value
}

// proxy is the script-side face of one engine object. obj is nil once the
// object has been destroyed.
type proxy struct {
	obj   sprig.Object
	value *goja.Object
}

// Engine is a sprig.ScriptEngine backed by one goja runtime. Not safe for
// concurrent use.
type Engine struct {
	vm      *goja.Runtime
	rt      *sprig.Runtime
	log     *zap.Logger
	timeout time.Duration

	handlers    map[int]handler
	nextHandler int
	proto       *goja.Object
	proxies     map[sprig.Object]*proxy
	byValue     map[*goja.Object]*proxy
	nextProxy   int
	userData    map[int]goja.Value
	nextData    int
	closed      bool
}

// New creates an engine whose script API acts on rt.
func New(rt *sprig.Runtime, opts ...Option) *Engine {
	e := &Engine{
		vm:       goja.New(),
		rt:       rt,
		log:      rt.Logger(),
		handlers: make(map[int]handler),
		proxies:  make(map[sprig.Object]*proxy),
		byValue:  make(map[*goja.Object]*proxy),
		userData: make(map[int]goja.Value),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.Named("js")
	e.registerModule()
	return e
}

// Runtime returns the underlying goja runtime.
func (e *Engine) Runtime() *goja.Runtime { return e.vm }

// guarded runs fn under the optional timeout.
func (e *Engine) guarded(fn func() error) error {
	if e.closed {
		return errClosed
	}
	if e.timeout > 0 {
		t := time.AfterFunc(e.timeout, func() { e.vm.Interrupt("timeout") })
		defer func() {
			t.Stop()
			e.vm.ClearInterrupt()
		}()
	}
	return fn()
}

// ScriptType reports ScriptTypeJavaScript.
func (e *Engine) ScriptType() sprig.ScriptType { return sprig.ScriptTypeJavaScript }

// --- Handlers ---

// RegisterHandler stores a JavaScript function and returns its handler id.
func (e *Engine) RegisterHandler(v goja.Value) (int, error) {
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return 0, fmt.Errorf("js value is not a function")
	}
	e.nextHandler++
	e.handlers[e.nextHandler] = handler{fn: fn, value: v}
	return e.nextHandler, nil
}

// RegisterGlobalHandler registers the global function name.
func (e *Engine) RegisterGlobalHandler(name string) (int, error) {
	id, err := e.RegisterHandler(e.vm.Get(name))
	if err != nil {
		return 0, fmt.Errorf("js global %q: %w", name, err)
	}
	return id, nil
}

// HandlerCount returns the number of live handler ids.
func (e *Engine) HandlerCount() int { return len(e.handlers) }

// HasHandler reports whether id is live.
func (e *Engine) HasHandler(id int) bool {
	_, ok := e.handlers[id]
	return ok
}

// RemoveScriptHandler forgets handler.
func (e *Engine) RemoveScriptHandler(id int) {
	if _, ok := e.handlers[id]; !ok {
		e.log.Debug("removing unknown handler", zap.Int("handler", id))
		return
	}
	delete(e.handlers, id)
}

// ReallocateScriptHandler binds a new id to handler's function.
func (e *Engine) ReallocateScriptHandler(id int) int {
	h, ok := e.handlers[id]
	if !ok {
		return 0
	}
	e.nextHandler++
	e.handlers[e.nextHandler] = h
	return e.nextHandler
}

// IsScriptFunctionSame reports whether both ids name the same function.
func (e *Engine) IsScriptFunctionSame(h1, h2 int) bool {
	a, ok1 := e.handlers[h1]
	b, ok2 := e.handlers[h2]
	return ok1 && ok2 && a.value.SameAs(b.value)
}

// --- Objects ---

// Push returns the proxy for obj, creating and binding it on first use.
func (e *Engine) Push(obj sprig.Object) goja.Value {
	if obj == nil || obj.IsDestroyed() {
		return goja.Null()
	}
	obj = obj.Self()
	if p, ok := e.proxies[obj]; ok {
		return p.value
	}
	o := e.vm.NewObject()
	if err := o.SetPrototype(e.proto); err != nil {
		e.log.Warn("setting proxy prototype", zap.Error(err))
	}
	p := &proxy{obj: obj, value: o}
	e.proxies[obj] = p
	e.byValue[o] = p
	e.nextProxy++
	obj.BindScriptRef(e.nextProxy)
	return o
}

// SetGlobalObject exposes obj to scripts as a global.
func (e *Engine) SetGlobalObject(name string, obj sprig.Object) error {
	return e.vm.Set(name, e.Push(obj))
}

// RemoveScriptObject invalidates and forgets obj's proxy.
func (e *Engine) RemoveScriptObject(obj sprig.Object) {
	obj = obj.Self()
	p, ok := e.proxies[obj]
	if !ok {
		return
	}
	p.obj = nil
	delete(e.proxies, obj)
	delete(e.byValue, p.value)
}

// ExecuteObjectDestructor calls the optional global onDestroy(proxy) hook.
func (e *Engine) ExecuteObjectDestructor(obj sprig.Object) {
	obj = obj.Self()
	p, ok := e.proxies[obj]
	if !ok || e.closed {
		return
	}
	fn, ok := goja.AssertFunction(e.vm.Get("onDestroy"))
	if !ok {
		return
	}
	err := e.guarded(func() error {
		_, err := fn(goja.Undefined(), p.value)
		return err
	})
	if err != nil {
		e.log.Warn("onDestroy failed", zap.Uint32("object", obj.ID()), zap.Error(err))
	}
}

// RemoveScriptUserData drops the value stored under id.
func (e *Engine) RemoveScriptUserData(id int) {
	delete(e.userData, id)
}

// UserData returns the value stored under id, or undefined.
func (e *Engine) UserData(id int) goja.Value {
	if v, ok := e.userData[id]; ok {
		return v
	}
	return goja.Undefined()
}

// --- Execution ---

func (e *Engine) callHandler(id int, args ...goja.Value) error {
	return e.callHandlerWithThis(id, goja.Undefined(), args...)
}

func (e *Engine) callHandlerWithThis(id int, this goja.Value, args ...goja.Value) error {
	h, ok := e.handlers[id]
	if !ok {
		return fmt.Errorf("unknown js handler %d", id)
	}
	return e.guarded(func() error {
		_, err := h.fn(this, args...)
		return err
	})
}

// ExecuteString runs a chunk of JavaScript.
func (e *Engine) ExecuteString(code string) error {
	return e.guarded(func() error {
		if _, err := e.vm.RunString(code); err != nil {
			return fmt.Errorf("js: %w", err)
		}
		return nil
	})
}

// ExecuteScriptFile runs an already loaded script.
func (e *Engine) ExecuteScriptFile(name string, code []byte) error {
	return e.guarded(func() error {
		if _, err := e.vm.RunScript(name, string(code)); err != nil {
			return fmt.Errorf("js: running %s: %w", name, err)
		}
		return nil
	})
}

// ExecuteGlobalFunction calls a global function with no arguments and
// returns its integer result.
func (e *Engine) ExecuteGlobalFunction(name string) (int, error) {
	fn, ok := goja.AssertFunction(e.vm.Get(name))
	if !ok {
		return 0, fmt.Errorf("js global %q is not a function", name)
	}
	var ret goja.Value
	err := e.guarded(func() error {
		var err error
		ret, err = fn(goja.Undefined())
		return err
	})
	if err != nil {
		return 0, err
	}
	if ret == nil || goja.IsUndefined(ret) || goja.IsNull(ret) {
		return 0, nil
	}
	return int(ret.ToInteger()), nil
}

// ExecuteCallFuncActionEvent calls the action's handler with the action
// proxy and, when present, the target or payload. The handler's target,
// when set, is bound as this.
func (e *Engine) ExecuteCallFuncActionEvent(action *sprig.CallFunc, target sprig.Object) error {
	fn := action.ScriptHandler()
	args := []goja.Value{e.Push(action)}
	if target != nil {
		args = append(args, e.toValue(target))
	}
	if fn.Target != nil {
		return e.callHandlerWithThis(fn.Handler, e.Push(fn.Target), args...)
	}
	return e.callHandler(fn.Handler, args...)
}

// ExecuteSchedule calls fn's handler with dt.
func (e *Engine) ExecuteSchedule(fn sprig.ScriptFunction, dt float32) error {
	return e.callHandler(fn.Handler, e.vm.ToValue(float64(dt)))
}

// ExecuteEvent calls fn's handler with the event name and target proxy.
func (e *Engine) ExecuteEvent(fn sprig.ScriptFunction, event string) error {
	return e.callHandler(fn.Handler, e.vm.ToValue(event), e.Push(fn.Target))
}

// ExecuteEventWithArgs calls fn's handler with converted args.
func (e *Engine) ExecuteEventWithArgs(fn sprig.ScriptFunction, args ...any) error {
	values := make([]goja.Value, 0, len(args))
	for _, a := range args {
		values = append(values, e.toValue(a))
	}
	return e.callHandler(fn.Handler, values...)
}

func (e *Engine) toValue(v any) goja.Value {
	switch v := v.(type) {
	case nil:
		return goja.Null()
	case goja.Value:
		return v
	case sprig.Unboxer:
		return e.toValue(v.Unbox())
	case sprig.Object:
		return e.Push(v)
	default:
		return e.vm.ToValue(v)
	}
}

// HandleAssert logs the assertion; native handling continues.
func (e *Engine) HandleAssert(msg string) bool {
	e.log.Error("assertion failed", zap.String("msg", msg))
	return false
}

// Close invalidates every proxy and drops all handlers. The engine must not
// be used afterwards.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	for obj, p := range e.proxies {
		p.obj = nil
		obj.BindScriptRef(0)
	}
	clear(e.proxies)
	clear(e.byValue)
	clear(e.handlers)
	clear(e.userData)
	e.vm.Interrupt("closed")
	e.closed = true
	return nil
}
