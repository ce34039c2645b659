package jsengine

import (
	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/phanxgames/sprig"
)

type jsFunc = func(goja.FunctionCall) goja.Value

// registerModule installs the sprig global and the proxy prototype.
//
//	sprig.log(msg)
//	sprig.schedule(fn, interval [, paused]) -> entry id
//	sprig.unschedule(id)
//	sprig.callFunc(fn [, self]) -> action
//	sprig.callFuncO(fn, payload [, self]) -> action
//	sprig.setUserData(obj, value)
//	sprig.userData(obj) -> value
func (e *Engine) registerModule() {
	mod := e.vm.NewObject()
	e.setFuncs(mod, map[string]jsFunc{
		"log":         e.jsLog,
		"schedule":    e.jsSchedule,
		"unschedule":  e.jsUnschedule,
		"callFunc":    e.jsCallFunc,
		"callFuncO":   e.jsCallFuncO,
		"setUserData": e.jsSetUserData,
		"userData":    e.jsUserData,
	})
	if err := e.vm.Set("sprig", mod); err != nil {
		e.log.Error("installing sprig global", zap.Error(err))
	}

	e.proto = e.vm.NewObject()
	e.setFuncs(e.proto, map[string]jsFunc{
		"id":             e.objID,
		"retainCount":    e.objRetainCount,
		"name":           e.nodeName,
		"isVisible":      e.nodeIsVisible,
		"setVisible":     e.nodeSetVisible,
		"position":       e.nodePosition,
		"setPosition":    e.nodeSetPosition,
		"runAction":      e.nodeRunAction,
		"stopAllActions": e.nodeStopAllActions,
		"childByTag":     e.nodeChildByTag,
		"string":         e.labelString,
		"setString":      e.labelSetString,
	})
}

func (e *Engine) setFuncs(o *goja.Object, funcs map[string]jsFunc) {
	for name, fn := range funcs {
		if err := o.Set(name, fn); err != nil {
			e.log.Error("installing script function", zap.String("name", name), zap.Error(err))
		}
	}
}

// throw raises a TypeError in the calling script.
func (e *Engine) throw(msg string) {
	panic(e.vm.NewTypeError(msg))
}

func (e *Engine) jsLog(call goja.FunctionCall) goja.Value {
	e.log.Info(call.Argument(0).String())
	return goja.Undefined()
}

func (e *Engine) jsSchedule(call goja.FunctionCall) goja.Value {
	id, err := e.RegisterHandler(call.Argument(0))
	if err != nil {
		e.throw("schedule: function expected")
	}
	interval := float32(call.Argument(1).ToFloat())
	paused := call.Argument(2).ToBoolean()
	return e.vm.ToValue(e.rt.Scheduler().ScheduleScriptFunc(id, interval, paused))
}

func (e *Engine) jsUnschedule(call goja.FunctionCall) goja.Value {
	e.rt.Scheduler().UnscheduleScriptEntry(int(call.Argument(0).ToInteger()))
	return goja.Undefined()
}

// jsCallFunc builds a CallFuncN action owning a new handler for fn. The
// optional object is bound as this.
func (e *Engine) jsCallFunc(call goja.FunctionCall) goja.Value {
	self := e.optObject(call.Argument(1))
	id, err := e.RegisterHandler(call.Argument(0))
	if err != nil {
		e.throw("callFunc: function expected")
	}
	return e.Push(sprig.NewScriptCallFunc(e.rt, sprig.KindNode, sprig.ScriptFunction{Target: self, Handler: id}))
}

// jsCallFuncO builds a CallFuncO action. Object proxies are passed as is;
// any other value is boxed and handed back to fn unchanged.
func (e *Engine) jsCallFuncO(call goja.FunctionCall) goja.Value {
	self := e.optObject(call.Argument(2))
	arg := call.Argument(1)
	var payload sprig.Object
	if o, ok := arg.(*goja.Object); ok && e.byValue[o] != nil {
		payload = e.objectArg(arg)
	} else {
		payload = sprig.NewBoxed(e.rt, arg)
	}
	id, err := e.RegisterHandler(call.Argument(0))
	if err != nil {
		e.throw("callFuncO: function expected")
	}
	return e.Push(sprig.NewScriptCallFuncO(e.rt, sprig.ScriptFunction{Target: self, Handler: id}, payload))
}

func (e *Engine) optObject(v goja.Value) sprig.Object {
	if goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	return e.objectArg(v)
}

func (e *Engine) jsSetUserData(call goja.FunctionCall) goja.Value {
	obj := e.objectArg(call.Argument(0))
	e.nextData++
	e.userData[e.nextData] = call.Argument(1)
	obj.SetScriptUserData(e.nextData)
	return goja.Undefined()
}

func (e *Engine) jsUserData(call goja.FunctionCall) goja.Value {
	return e.UserData(e.objectArg(call.Argument(0)).ScriptUserData())
}

// --- proxy methods ---

func (e *Engine) objectArg(v goja.Value) sprig.Object {
	o, ok := v.(*goja.Object)
	if !ok {
		e.throw("object expected")
	}
	p := e.byValue[o]
	if p == nil || p.obj == nil {
		e.throw("object has been destroyed")
	}
	return p.obj
}

func (e *Engine) node(call goja.FunctionCall) *sprig.Node {
	switch v := e.objectArg(call.This).(type) {
	case *sprig.Node:
		return v
	case *sprig.Label:
		return &v.Node
	}
	e.throw("node expected")
	return nil
}

func (e *Engine) label(call goja.FunctionCall) *sprig.Label {
	l, ok := e.objectArg(call.This).(*sprig.Label)
	if !ok {
		e.throw("label expected")
	}
	return l
}

func (e *Engine) objID(call goja.FunctionCall) goja.Value {
	return e.vm.ToValue(e.objectArg(call.This).ID())
}

func (e *Engine) objRetainCount(call goja.FunctionCall) goja.Value {
	return e.vm.ToValue(e.objectArg(call.This).RetainCount())
}

func (e *Engine) nodeName(call goja.FunctionCall) goja.Value {
	return e.vm.ToValue(e.node(call).Name)
}

func (e *Engine) nodeIsVisible(call goja.FunctionCall) goja.Value {
	return e.vm.ToValue(e.node(call).IsVisible())
}

func (e *Engine) nodeSetVisible(call goja.FunctionCall) goja.Value {
	e.node(call).SetVisible(call.Argument(0).ToBoolean())
	return goja.Undefined()
}

func (e *Engine) nodePosition(call goja.FunctionCall) goja.Value {
	p := e.node(call).Position()
	o := e.vm.NewObject()
	_ = o.Set("x", p.X)
	_ = o.Set("y", p.Y)
	return o
}

func (e *Engine) nodeSetPosition(call goja.FunctionCall) goja.Value {
	e.node(call).SetPosition(call.Argument(0).ToFloat(), call.Argument(1).ToFloat())
	return goja.Undefined()
}

func (e *Engine) nodeRunAction(call goja.FunctionCall) goja.Value {
	n := e.node(call)
	action, ok := e.objectArg(call.Argument(0)).(sprig.Action)
	if !ok {
		e.throw("action expected")
	}
	n.RunAction(action)
	e.log.Debug("action started from js", zap.String("node", n.Name), zap.Uint32("action", action.ID()))
	return goja.Undefined()
}

func (e *Engine) nodeStopAllActions(call goja.FunctionCall) goja.Value {
	e.node(call).StopAllActions()
	return goja.Undefined()
}

func (e *Engine) nodeChildByTag(call goja.FunctionCall) goja.Value {
	c := e.node(call).ChildByTag(int(call.Argument(0).ToInteger()))
	if c == nil {
		return goja.Null()
	}
	return e.Push(c.Self())
}

func (e *Engine) labelString(call goja.FunctionCall) goja.Value {
	return e.vm.ToValue(e.label(call).String())
}

func (e *Engine) labelSetString(call goja.FunctionCall) goja.Value {
	e.label(call).SetString(call.Argument(0).String())
	return goja.Undefined()
}
