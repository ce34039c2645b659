package sprig

import "go.uber.org/zap"

// CallbackKind tags which shape a Callback holds.
type CallbackKind uint8

const (
	CallbackNone     CallbackKind = iota
	CallbackFunc                  // func()
	CallbackNode                  // func(*Node)
	CallbackNodeData              // func(*Node, any)
	CallbackObject                // func(Object)
)

// Callback is a native callback in one of four shapes. The zero value holds
// nothing.
type Callback struct {
	kind     CallbackKind
	fn       func()
	nodeFn   func(*Node)
	dataFn   func(*Node, any)
	objectFn func(Object)
}

// Func wraps a no-argument callback.
func Func(fn func()) Callback {
	if fn == nil {
		return Callback{}
	}
	return Callback{kind: CallbackFunc, fn: fn}
}

// NodeFunc wraps a callback receiving the action's target.
func NodeFunc(fn func(*Node)) Callback {
	if fn == nil {
		return Callback{}
	}
	return Callback{kind: CallbackNode, nodeFn: fn}
}

// NodeDataFunc wraps a callback receiving the target and an opaque value.
func NodeDataFunc(fn func(*Node, any)) Callback {
	if fn == nil {
		return Callback{}
	}
	return Callback{kind: CallbackNodeData, dataFn: fn}
}

// ObjectFunc wraps a callback receiving a payload object.
func ObjectFunc(fn func(Object)) Callback {
	if fn == nil {
		return Callback{}
	}
	return Callback{kind: CallbackObject, objectFn: fn}
}

// Kind returns the callback shape.
func (c Callback) Kind() CallbackKind { return c.kind }

// IsSet reports whether a callback is held.
func (c Callback) IsSet() bool { return c.kind != CallbackNone }

func (c Callback) call(target *Node, data any, payload Object) {
	switch c.kind {
	case CallbackFunc:
		c.fn()
	case CallbackNode:
		c.nodeFn(target)
	case CallbackNodeData:
		c.dataFn(target, data)
	case CallbackObject:
		c.objectFn(payload)
	}
}

// CallFuncKind identifies the call-function variant.
type CallFuncKind uint8

const (
	KindFunc     CallFuncKind = iota // CallFunc
	KindNode                         // CallFuncN
	KindNodeData                     // CallFuncND
	KindObject                       // CallFuncO
)

// CallFunc is an instant action that invokes a native callback, a script
// handler, or both.
//
// The selector target, when set, is retained for the life of the action.
// A KindObject action also retains its payload until ReleaseLoopRetain or
// destruction releases it, whichever comes first.
type CallFunc struct {
	instantBase
	kind           CallFuncKind
	selectorTarget Object
	callback       Callback
	data           any
	payload        Object
	needRelease    bool
	scriptFn       ScriptFunction
}

func newCallFunc(rt *Runtime, kind CallFuncKind, selectorTarget Object, cb Callback) *CallFunc {
	a := &CallFunc{kind: kind, callback: cb}
	a.init(rt, a, a.finalizeCallFunc)
	if selectorTarget != nil {
		selectorTarget.Retain()
		a.selectorTarget = selectorTarget
	}
	return a
}

// NewCallFunc returns an autoreleased CallFunc running fn.
func NewCallFunc(rt *Runtime, selectorTarget Object, fn func()) *CallFunc {
	return Autorelease(newCallFunc(rt, KindFunc, selectorTarget, Func(fn)))
}

// NewCallFuncN returns an autoreleased CallFuncN passing the target to fn.
func NewCallFuncN(rt *Runtime, selectorTarget Object, fn func(*Node)) *CallFunc {
	return Autorelease(newCallFunc(rt, KindNode, selectorTarget, NodeFunc(fn)))
}

// NewCallFuncND returns an autoreleased CallFuncND passing the target and
// data to fn. data is not owned.
func NewCallFuncND(rt *Runtime, selectorTarget Object, fn func(*Node, any), data any) *CallFunc {
	a := newCallFunc(rt, KindNodeData, selectorTarget, NodeDataFunc(fn))
	a.data = data
	return Autorelease(a)
}

// NewCallFuncO returns an autoreleased CallFuncO passing payload to fn.
// The payload is retained.
func NewCallFuncO(rt *Runtime, selectorTarget Object, fn func(Object), payload Object) *CallFunc {
	a := newCallFunc(rt, KindObject, selectorTarget, ObjectFunc(fn))
	a.SetPayload(payload)
	return Autorelease(a)
}

// NewCallFuncOValue wraps v in a Boxed payload. It covers the string, bool,
// int and float payload helpers.
func NewCallFuncOValue[T any](rt *Runtime, selectorTarget Object, fn func(Object), v T) *CallFunc {
	return NewCallFuncO(rt, selectorTarget, fn, NewBoxed(rt, v))
}

// NewScriptCallFunc returns an autoreleased action of the given kind that
// dispatches only to a script handler. The action owns fn.Handler and
// removes it from the engine when destroyed; fn.Target is retained.
func NewScriptCallFunc(rt *Runtime, kind CallFuncKind, fn ScriptFunction) *CallFunc {
	a := newCallFunc(rt, kind, nil, Callback{})
	a.SetScriptHandler(fn)
	return Autorelease(a)
}

// NewScriptCallFuncO is NewScriptCallFunc for a KindObject action whose
// handler receives payload.
func NewScriptCallFuncO(rt *Runtime, fn ScriptFunction, payload Object) *CallFunc {
	a := newCallFunc(rt, KindObject, nil, Callback{})
	a.SetScriptHandler(fn)
	a.SetPayload(payload)
	return Autorelease(a)
}

// Kind returns the call-function variant.
func (a *CallFunc) Kind() CallFuncKind { return a.kind }

// Callback returns the native callback.
func (a *CallFunc) Callback() Callback { return a.callback }

// SelectorTarget returns the retained selector target, or nil.
func (a *CallFunc) SelectorTarget() Object { return a.selectorTarget }

// SetSelectorTarget retains target and releases the previous one.
func (a *CallFunc) SetSelectorTarget(target Object) {
	if target != nil {
		target.Retain()
	}
	if a.selectorTarget != nil {
		a.selectorTarget.Release()
	}
	a.selectorTarget = target
}

// Data returns the CallFuncND data.
func (a *CallFunc) Data() any { return a.data }

// Payload returns the CallFuncO payload, or nil.
func (a *CallFunc) Payload() Object { return a.payload }

// SetPayload retains obj as the payload, releasing the previous one if it
// is still owed a release.
func (a *CallFunc) SetPayload(obj Object) {
	if obj != nil {
		obj.Retain()
	}
	if a.needRelease && a.payload != nil {
		a.payload.Release()
	}
	a.payload = obj
	a.needRelease = obj != nil
}

// ScriptHandler returns the owned script handler. Handler is 0 when none
// is set.
func (a *CallFunc) ScriptHandler() ScriptFunction { return a.scriptFn }

// SetScriptHandler gives the action fn, in addition to any native callback.
// A previously owned handler is removed from the engine and its target
// released.
func (a *CallFunc) SetScriptHandler(fn ScriptFunction) {
	if fn.Target != nil {
		fn.Target.Retain()
	}
	if a.scriptFn.Handler == fn.Handler {
		a.scriptFn.Handler = 0
	}
	a.dropScriptHandler()
	a.scriptFn = fn
}

func (a *CallFunc) dropScriptHandler() {
	if a.scriptFn.Handler != 0 {
		if engine := a.rt.scripts.ScriptEngine(); engine != nil {
			engine.RemoveScriptHandler(a.scriptFn.Handler)
		}
	}
	if a.scriptFn.Target != nil {
		a.scriptFn.Target.Release()
	}
	a.scriptFn = ScriptFunction{}
}

// Update executes the callback.
func (a *CallFunc) Update(float32) {
	a.Execute()
}

// Execute runs the native callback, then the script handler. Script errors
// are logged and dropped.
func (a *CallFunc) Execute() {
	if a.callback.IsSet() {
		a.callback.call(a.target, a.data, a.payload)
	}
	if a.scriptFn.Handler == 0 {
		return
	}
	engine := a.rt.scripts.ScriptEngine()
	if engine == nil {
		a.rt.log.Debug("callfunc script handler without engine", zap.Int("handler", a.scriptFn.Handler))
		return
	}
	if err := engine.ExecuteCallFuncActionEvent(a, a.scriptArg()); err != nil {
		a.rt.log.Warn("callfunc script handler failed",
			zap.Int("handler", a.scriptFn.Handler),
			zap.Error(err),
		)
	}
}

// Reverse returns a copy; calling a function has no inverse of its own.
func (a *CallFunc) Reverse() FiniteTimeAction {
	return Copy(a).(*CallFunc)
}

// scriptArg returns the implicit argument script handlers receive.
func (a *CallFunc) scriptArg() Object {
	switch a.kind {
	case KindNode, KindNodeData:
		if a.target != nil {
			return a.target
		}
	case KindObject:
		return a.payload
	}
	return nil
}

// ReleaseLoopRetain releases the payload once when it is src, breaking the
// cycle formed when the payload also owns this action. Later destruction
// does not release it again.
func (a *CallFunc) ReleaseLoopRetain(src Object) {
	if a.kind != KindObject || !a.needRelease || a.payload == nil || src == nil {
		return
	}
	if a.payload.base() != src.base() {
		return
	}
	a.needRelease = false
	a.payload.Release()
}

func (a *CallFunc) finalizeCallFunc() {
	a.dropScriptHandler()
	if a.selectorTarget != nil {
		a.selectorTarget.Release()
		a.selectorTarget = nil
	}
	if a.needRelease && a.payload != nil {
		a.needRelease = false
		a.payload.Release()
	}
	a.payload = nil
}

func (a *CallFunc) cloneWithZone(z *Zone) Action {
	return cloneInto(z, a, func() *CallFunc {
		return Autorelease(newCallFunc(a.rt, a.kind, a.selectorTarget, a.callback))
	}, func(c *CallFunc) {
		c.data = a.data
		if a.kind == KindObject {
			c.SetPayload(a.payload)
		}
		if a.scriptFn.Handler == 0 {
			return
		}
		engine := a.rt.scripts.ScriptEngine()
		if engine == nil {
			a.rt.log.Warn("cannot reallocate script handler without engine", zap.Int("handler", a.scriptFn.Handler))
			return
		}
		c.SetScriptHandler(ScriptFunction{
			Target:  a.scriptFn.Target,
			Handler: engine.ReallocateScriptHandler(a.scriptFn.Handler),
		})
	})
}
