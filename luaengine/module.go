package luaengine

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/phanxgames/sprig"
)

// registerModule installs the sprig global table and the proxy metatable.
//
//	sprig.log(msg)
//	sprig.schedule(fn, interval [, paused]) -> entry id
//	sprig.unschedule(id)
//	sprig.call_func(fn [, self]) -> action
//	sprig.call_func_o(fn, payload [, self]) -> action
//	sprig.set_user_data(obj, value)
//	sprig.user_data(obj) -> value
func (e *Engine) registerModule() {
	L := e.L

	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"log":           e.luaLog,
		"schedule":      e.luaSchedule,
		"unschedule":    e.luaUnschedule,
		"call_func":     e.luaCallFunc,
		"call_func_o":   e.luaCallFuncO,
		"set_user_data": e.luaSetUserData,
		"user_data":     e.luaUserData,
	})
	L.SetGlobal("sprig", mod)

	mt := L.NewTypeMetatable(objectTypeName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"id":               e.objID,
		"retain_count":     e.objRetainCount,
		"name":             e.nodeName,
		"is_visible":       e.nodeIsVisible,
		"set_visible":      e.nodeSetVisible,
		"position":         e.nodePosition,
		"set_position":     e.nodeSetPosition,
		"run_action":       e.nodeRunAction,
		"stop_all_actions": e.nodeStopAllActions,
		"child_by_tag":     e.nodeChildByTag,
		"string":           e.labelString,
		"set_string":       e.labelSetString,
	}))
}

func (e *Engine) luaLog(L *lua.LState) int {
	e.log.Info(L.CheckString(1))
	return 0
}

func (e *Engine) luaSchedule(L *lua.LState) int {
	fn := L.CheckFunction(1)
	interval := float32(L.CheckNumber(2))
	paused := L.OptBool(3, false)
	id := e.rt.Scheduler().ScheduleScriptFunc(e.RegisterHandler(fn), interval, paused)
	L.Push(lua.LNumber(id))
	return 1
}

func (e *Engine) luaUnschedule(L *lua.LState) int {
	e.rt.Scheduler().UnscheduleScriptEntry(L.CheckInt(1))
	return 0
}

// luaCallFunc builds a CallFuncN action owning a new handler for fn. The
// optional object is passed to fn as its first argument.
func (e *Engine) luaCallFunc(L *lua.LState) int {
	fn := L.CheckFunction(1)
	self := e.optObject(L, 2)
	action := sprig.NewScriptCallFunc(e.rt, sprig.KindNode, sprig.ScriptFunction{
		Target:  self,
		Handler: e.RegisterHandler(fn),
	})
	L.Push(e.Push(action))
	return 1
}

// luaCallFuncO builds a CallFuncO action. An object payload is passed as
// is; any other value is boxed and handed back to fn unchanged.
func (e *Engine) luaCallFuncO(L *lua.LState) int {
	fn := L.CheckFunction(1)
	var payload sprig.Object
	switch v := L.CheckAny(2).(type) {
	case *lua.LUserData:
		payload = e.checkObject(L, 2)
	default:
		payload = sprig.NewBoxed(e.rt, lua.LValue(v))
	}
	self := e.optObject(L, 3)
	action := sprig.NewScriptCallFuncO(e.rt, sprig.ScriptFunction{
		Target:  self,
		Handler: e.RegisterHandler(fn),
	}, payload)
	L.Push(e.Push(action))
	return 1
}

func (e *Engine) optObject(L *lua.LState, n int) sprig.Object {
	if L.Get(n) == lua.LNil {
		return nil
	}
	return e.checkObject(L, n)
}

func (e *Engine) luaSetUserData(L *lua.LState) int {
	obj := e.checkObject(L, 1)
	e.nextData++
	e.userData[e.nextData] = L.CheckAny(2)
	obj.SetScriptUserData(e.nextData)
	return 0
}

func (e *Engine) luaUserData(L *lua.LState) int {
	obj := e.checkObject(L, 1)
	L.Push(e.UserData(obj.ScriptUserData()))
	return 1
}

// --- proxy methods ---

func (e *Engine) checkObject(L *lua.LState, n int) sprig.Object {
	ud := L.CheckUserData(n)
	obj, ok := ud.Value.(sprig.Object)
	if !ok {
		L.ArgError(n, "object has been destroyed")
		return nil
	}
	return obj
}

func (e *Engine) checkNode(L *lua.LState, n int) *sprig.Node {
	switch v := e.checkObject(L, n).(type) {
	case *sprig.Node:
		return v
	case *sprig.Label:
		return &v.Node
	}
	L.ArgError(n, "node expected")
	return nil
}

func (e *Engine) checkLabel(L *lua.LState, n int) *sprig.Label {
	l, ok := e.checkObject(L, n).(*sprig.Label)
	if !ok {
		L.ArgError(n, "label expected")
	}
	return l
}

func (e *Engine) objID(L *lua.LState) int {
	L.Push(lua.LNumber(e.checkObject(L, 1).ID()))
	return 1
}

func (e *Engine) objRetainCount(L *lua.LState) int {
	L.Push(lua.LNumber(e.checkObject(L, 1).RetainCount()))
	return 1
}

func (e *Engine) nodeName(L *lua.LState) int {
	L.Push(lua.LString(e.checkNode(L, 1).Name))
	return 1
}

func (e *Engine) nodeIsVisible(L *lua.LState) int {
	L.Push(lua.LBool(e.checkNode(L, 1).IsVisible()))
	return 1
}

func (e *Engine) nodeSetVisible(L *lua.LState) int {
	e.checkNode(L, 1).SetVisible(L.CheckBool(2))
	return 0
}

func (e *Engine) nodePosition(L *lua.LState) int {
	p := e.checkNode(L, 1).Position()
	L.Push(lua.LNumber(p.X))
	L.Push(lua.LNumber(p.Y))
	return 2
}

func (e *Engine) nodeSetPosition(L *lua.LState) int {
	e.checkNode(L, 1).SetPosition(float64(L.CheckNumber(2)), float64(L.CheckNumber(3)))
	return 0
}

func (e *Engine) nodeRunAction(L *lua.LState) int {
	n := e.checkNode(L, 1)
	action, ok := e.checkObject(L, 2).(sprig.Action)
	if !ok {
		L.ArgError(2, "action expected")
		return 0
	}
	n.RunAction(action)
	e.log.Debug("action started from lua", zap.String("node", n.Name), zap.Uint32("action", action.ID()))
	return 0
}

func (e *Engine) nodeStopAllActions(L *lua.LState) int {
	e.checkNode(L, 1).StopAllActions()
	return 0
}

func (e *Engine) nodeChildByTag(L *lua.LState) int {
	c := e.checkNode(L, 1).ChildByTag(L.CheckInt(2))
	if c == nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(e.Push(c.Self()))
	return 1
}

func (e *Engine) labelString(L *lua.LState) int {
	L.Push(lua.LString(e.checkLabel(L, 1).String()))
	return 1
}

func (e *Engine) labelSetString(L *lua.LState) int {
	e.checkLabel(L, 1).SetString(L.CheckString(2))
	return 0
}
