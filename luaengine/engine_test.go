package luaengine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap/zaptest"

	"github.com/phanxgames/sprig"
)

func newTestEngine(t *testing.T, opts ...Option) (*sprig.Runtime, *Engine) {
	t.Helper()
	rt := sprig.NewRuntime(sprig.WithLogger(zaptest.NewLogger(t)))
	e := New(rt, opts...)
	rt.Scripts().SetScriptEngine(e)
	t.Cleanup(rt.Scripts().RemoveScriptEngine)
	return rt, e
}

func TestExecuteString(t *testing.T) {
	_, e := newTestEngine(t)

	require.NoError(t, e.ExecuteString(`function answer() return 6 * 7 end`))
	n, err := e.ExecuteGlobalFunction("answer")
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	_, err = e.ExecuteGlobalFunction("missing")
	assert.Error(t, err)

	assert.ErrorContains(t, e.ExecuteString(`error("boom")`), "boom")
	assert.Error(t, e.ExecuteString(`this is not lua`))
}

func TestExecuteScriptFile(t *testing.T) {
	_, e := newTestEngine(t)
	require.NoError(t, e.ExecuteScriptFile("main.lua", []byte(`loaded = true`)))
	assert.Equal(t, lua.LTrue, e.L.GetGlobal("loaded"))

	assert.ErrorContains(t, e.ExecuteScriptFile("bad.lua", []byte(`loaded =`)), "bad.lua")
}

func TestSandbox(t *testing.T) {
	_, e := newTestEngine(t)
	require.NoError(t, e.ExecuteString(`
		assert(dofile == nil and loadfile == nil and load == nil and require == nil)
		assert(io == nil and os == nil)
		assert(string.upper("x") == "X" and math.floor(1.5) == 1 and table.concat({"a", "b"}) == "ab")
	`))
}

func TestInstructionLimit(t *testing.T) {
	_, e := newTestEngine(t, WithInstructionLimit(10000))
	assert.Error(t, e.ExecuteString(`while true do end`))
	assert.NoError(t, e.ExecuteString(`x = 1`), "state stays usable")
}

func TestCallFuncLifecycle(t *testing.T) {
	rt, e := newTestEngine(t)
	hero := sprig.NewSprite(rt, "hero")
	hero.Retain()
	e.SetGlobalObject("hero", hero)

	require.NoError(t, e.ExecuteString(`
		hero:run_action(sprig.call_func(function(action, target)
			hits = (hits or 0) + 1
			last = target:name()
		end))
	`))
	assert.Equal(t, 1, e.HandlerCount())
	assert.Equal(t, 1, hero.NumberOfRunningActions())

	rt.Actions().Update(0)
	assert.Equal(t, lua.LNumber(1), e.L.GetGlobal("hits"))
	assert.Equal(t, lua.LString("hero"), e.L.GetGlobal("last"))

	rt.Pools().Drain()
	assert.Equal(t, 0, e.HandlerCount())
}

func TestCallFuncSelfAndPayload(t *testing.T) {
	rt, e := newTestEngine(t)
	hero := sprig.NewSprite(rt, "hero")
	hero.Retain()
	owner := sprig.NewContainer(rt, "owner")
	owner.Retain()
	e.SetGlobalObject("hero", hero)
	e.SetGlobalObject("owner", owner)

	require.NoError(t, e.ExecuteString(`
		hero:run_action(sprig.call_func(function(self, action, target)
			self_name = self:name()
			target_name = target:name()
		end, owner))
		hero:run_action(sprig.call_func_o(function(action, payload) gold = payload end, 25))
		hero:run_action(sprig.call_func_o(function(action, payload) holder = payload:name() end, owner))
	`))
	assert.Equal(t, 3, e.HandlerCount())

	rt.Actions().Update(0)
	assert.Equal(t, lua.LString("owner"), e.L.GetGlobal("self_name"))
	assert.Equal(t, lua.LString("hero"), e.L.GetGlobal("target_name"))
	assert.Equal(t, lua.LNumber(25), e.L.GetGlobal("gold"))
	assert.Equal(t, lua.LString("owner"), e.L.GetGlobal("holder"))

	rt.Pools().Drain()
	assert.Equal(t, 0, e.HandlerCount())
	assert.Equal(t, uint32(1), owner.RetainCount())

	assert.Error(t, e.ExecuteString(`sprig.call_func(function() end, 42)`))
}

func TestScheduleFromLua(t *testing.T) {
	rt, e := newTestEngine(t)
	require.NoError(t, e.ExecuteString(`
		ticks = 0
		id = sprig.schedule(function(dt) ticks = ticks + 1; last_dt = dt end, 0.5)
	`))
	rt.Scheduler().Update(0)
	rt.Scheduler().Update(0.5)
	assert.Equal(t, lua.LNumber(1), e.L.GetGlobal("ticks"))
	assert.InDelta(t, 0.5, float64(e.L.GetGlobal("last_dt").(lua.LNumber)), 1e-6)

	require.NoError(t, e.ExecuteString(`sprig.unschedule(id)`))
	rt.Scheduler().Update(0.5)
	rt.Pools().Drain()
	assert.Equal(t, lua.LNumber(1), e.L.GetGlobal("ticks"))
	assert.Equal(t, 0, e.HandlerCount())
}

func TestOnDestroyHook(t *testing.T) {
	rt, e := newTestEngine(t)
	require.NoError(t, e.ExecuteString(`
		destroyed = {}
		function on_destroy(obj) destroyed[#destroyed + 1] = obj:id() end
	`))
	n := sprig.NewSprite(rt, "n")
	e.Push(n)
	assert.NotZero(t, n.ScriptRef())

	untracked := sprig.NewSprite(rt, "untracked")
	rt.Pools().Drain()
	require.True(t, untracked.IsDestroyed())

	require.NoError(t, e.ExecuteString(fmt.Sprintf(`assert(#destroyed == 1 and destroyed[1] == %d)`, n.ID())))
}

func TestProxyUseAfterDestroy(t *testing.T) {
	rt, e := newTestEngine(t)
	e.SetGlobalObject("ghost", sprig.NewSprite(rt, "ghost"))
	require.NoError(t, e.ExecuteString(`assert(ghost:name() == "ghost")`))

	rt.Pools().Drain()
	assert.ErrorContains(t, e.ExecuteString(`ghost:name()`), "destroyed")
}

func TestPushReturnsSameProxy(t *testing.T) {
	rt, e := newTestEngine(t)
	parent := sprig.NewContainer(rt, "parent")
	parent.Retain()
	child := sprig.NewSprite(rt, "child")
	child.Tag = 7
	parent.AddChild(child)
	e.SetGlobalObject("parent", parent)

	assert.Same(t, e.Push(child), e.Push(child))
	assert.Equal(t, lua.LNil, e.Push(nil))
	require.NoError(t, e.ExecuteString(`
		local c = parent:child_by_tag(7)
		assert(c == parent:child_by_tag(7))
		assert(c:name() == "child")
		assert(parent:child_by_tag(8) == nil)
	`))
}

func TestNodeMethods(t *testing.T) {
	rt, e := newTestEngine(t)
	n := sprig.NewSprite(rt, "n")
	n.Retain()
	e.SetGlobalObject("n", n)

	require.NoError(t, e.ExecuteString(`
		n:set_position(3, 4)
		local x, y = n:position()
		assert(x == 3 and y == 4)
		n:set_visible(false)
		assert(not n:is_visible())
		assert(n:retain_count() >= 1)
	`))
	assert.Equal(t, sprig.Vec2{X: 3, Y: 4}, n.Position())
	assert.False(t, n.IsVisible())

	assert.Error(t, e.ExecuteString(`n:string()`), "a plain node is not a label")
}

func TestLabelMethods(t *testing.T) {
	rt, e := newTestEngine(t)
	l := sprig.NewLabel(rt, sprig.NewBasicTextRenderer(), "hi", "basic", 13)
	require.NotNil(t, l)
	l.Retain()
	e.SetGlobalObject("label", l)

	require.NoError(t, e.ExecuteString(`
		assert(label:string() == "hi")
		label:set_string("bye")
		label:set_visible(false)
	`))
	assert.Equal(t, "bye", l.String())
	assert.False(t, l.IsVisible())
}

func TestUserData(t *testing.T) {
	rt, e := newTestEngine(t)
	n := sprig.NewSprite(rt, "n")
	e.SetGlobalObject("n", n)

	require.NoError(t, e.ExecuteString(`
		sprig.set_user_data(n, {hp = 3})
		assert(sprig.user_data(n).hp == 3)
	`))
	id := n.ScriptUserData()
	require.NotZero(t, id)
	assert.NotEqual(t, lua.LNil, e.UserData(id))

	rt.Pools().Drain()
	assert.Equal(t, lua.LNil, e.UserData(id))
}

func TestReallocateHandler(t *testing.T) {
	_, e := newTestEngine(t)
	require.NoError(t, e.ExecuteString(`function f() end; function g() end`))
	h, err := e.RegisterGlobalHandler("f")
	require.NoError(t, err)
	other, err := e.RegisterGlobalHandler("g")
	require.NoError(t, err)

	h2 := e.ReallocateScriptHandler(h)
	assert.NotEqual(t, h, h2)
	assert.True(t, e.IsScriptFunctionSame(h, h2))
	assert.False(t, e.IsScriptFunctionSame(h, other))

	e.RemoveScriptHandler(h)
	assert.False(t, e.HasHandler(h))
	assert.True(t, e.HasHandler(h2))
	assert.False(t, e.IsScriptFunctionSame(h, h2))
	assert.Zero(t, e.ReallocateScriptHandler(h))

	_, err = e.RegisterGlobalHandler("nope")
	assert.Error(t, err)
}

func TestClonedCallFuncGetsOwnHandler(t *testing.T) {
	rt, e := newTestEngine(t)
	require.NoError(t, e.ExecuteString(`act = sprig.call_func(function() end)`))
	ud := e.L.GetGlobal("act").(*lua.LUserData)
	orig := ud.Value.(*sprig.CallFunc)

	c := sprig.CloneAs(orig, nil)
	assert.NotEqual(t, orig.ScriptHandler().Handler, c.ScriptHandler().Handler)
	assert.True(t, e.IsScriptFunctionSame(orig.ScriptHandler().Handler, c.ScriptHandler().Handler))
	assert.Equal(t, 2, e.HandlerCount())

	rt.Pools().Drain()
	assert.Equal(t, 0, e.HandlerCount())
}

func TestTouchEventArgs(t *testing.T) {
	rt, e := newTestEngine(t)
	require.NoError(t, e.ExecuteString(`function on_touch(ev, x, y) last_ev = ev; last_x = x end`))
	h, err := e.RegisterGlobalHandler("on_touch")
	require.NoError(t, err)

	entry := sprig.NewTouchScriptHandlerEntry(rt, sprig.ScriptFunction{Handler: h}, false, 0, true)
	assert.True(t, entry.Dispatch("began", 12, 5))
	assert.Equal(t, lua.LString("began"), e.L.GetGlobal("last_ev"))
	assert.Equal(t, lua.LNumber(12), e.L.GetGlobal("last_x"))
}

func TestClose(t *testing.T) {
	rt, e := newTestEngine(t)
	n := sprig.NewSprite(rt, "n")
	n.Retain()
	e.Push(n)
	require.NotZero(t, n.ScriptRef())

	rt.Scripts().RemoveScriptEngine()
	assert.Zero(t, n.ScriptRef())
	assert.Error(t, e.ExecuteString(`x = 1`))
	assert.NoError(t, e.Close())

	rt.Pools().Drain()
	n.Release()
	assert.True(t, n.IsDestroyed())
}
