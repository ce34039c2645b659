package sprig

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallFuncVariants(t *testing.T) {
	rt := newTestRuntime(t)
	n := NewSprite(rt, "n")
	n.Retain()

	t.Run("func", func(t *testing.T) {
		calls := 0
		a := NewCallFunc(rt, nil, func() { calls++ })
		assert.Equal(t, KindFunc, a.Kind())
		runOnce(rt, n, a)
		assert.Equal(t, 1, calls)
	})
	t.Run("node", func(t *testing.T) {
		var got *Node
		runOnce(rt, n, NewCallFuncN(rt, nil, func(target *Node) { got = target }))
		assert.Same(t, n, got)
	})
	t.Run("node data", func(t *testing.T) {
		var gotData any
		a := NewCallFuncND(rt, nil, func(target *Node, data any) { gotData = data }, "payload")
		assert.Equal(t, "payload", a.Data())
		runOnce(rt, n, a)
		assert.Equal(t, "payload", gotData)
	})
	t.Run("object", func(t *testing.T) {
		var got Object
		p := NewBoxed(rt, 42)
		runOnce(rt, n, NewCallFuncO(rt, nil, func(o Object) { got = o }, p))
		require.NotNil(t, got)
		assert.Equal(t, 42, got.(*Boxed[int]).Value)
	})
	t.Run("object value", func(t *testing.T) {
		a := NewCallFuncOValue(rt, nil, func(Object) {}, "hi")
		assert.Equal(t, "hi", a.Payload().(*Boxed[string]).Value)
	})
}

func TestCallbackKinds(t *testing.T) {
	assert.False(t, Callback{}.IsSet())
	assert.False(t, Func(nil).IsSet())
	assert.Equal(t, CallbackFunc, Func(func() {}).Kind())
	assert.Equal(t, CallbackNode, NodeFunc(func(*Node) {}).Kind())
	assert.Equal(t, CallbackNodeData, NodeDataFunc(func(*Node, any) {}).Kind())
	assert.Equal(t, CallbackObject, ObjectFunc(func(Object) {}).Kind())
}

func TestCallFuncRetainsSelectorTarget(t *testing.T) {
	rt := newTestRuntime(t)
	s := NewContainer(rt, "selector")
	a := NewCallFunc(rt, s, func() {})
	assert.Equal(t, uint32(2), s.RetainCount())
	assert.Same(t, s, a.SelectorTarget().(*Node))

	other := NewContainer(rt, "other")
	a.SetSelectorTarget(other)
	assert.Equal(t, uint32(1), s.RetainCount())
	assert.Equal(t, uint32(2), other.RetainCount())

	rt.Pools().Drain()
	assert.True(t, a.IsDestroyed())
	assert.True(t, s.IsDestroyed())
	assert.True(t, other.IsDestroyed())
}

func TestCallFuncOReleasesPayloadOnDestroy(t *testing.T) {
	rt := newTestRuntime(t)
	p := NewBoxed(rt, 0)
	a := NewCallFuncO(rt, nil, func(Object) {}, p)
	assert.Equal(t, uint32(2), p.RetainCount())

	rt.Pools().Drain()
	assert.True(t, a.IsDestroyed())
	assert.True(t, p.IsDestroyed())
}

func TestReleaseLoopRetain(t *testing.T) {
	rt := newTestRuntime(t)
	p := NewBoxed(rt, 0)
	p.Retain()
	a := NewCallFuncO(rt, nil, func(Object) {}, p)
	a.Retain()
	require.Equal(t, uint32(3), p.RetainCount())

	a.ReleaseLoopRetain(NewBoxed(rt, 1))
	assert.Equal(t, uint32(3), p.RetainCount(), "other objects are ignored")

	a.ReleaseLoopRetain(p)
	assert.Equal(t, uint32(2), p.RetainCount())
	a.ReleaseLoopRetain(p)
	assert.Equal(t, uint32(2), p.RetainCount(), "released only once")

	rt.Pools().Drain()
	a.Release()
	assert.True(t, a.IsDestroyed())
	assert.Equal(t, uint32(1), p.RetainCount(), "destruction does not release again")
}

func TestSetPayloadReplaces(t *testing.T) {
	rt := newTestRuntime(t)
	p1 := NewBoxed(rt, 1)
	p2 := NewBoxed(rt, 2)
	a := NewCallFuncO(rt, nil, func(Object) {}, p1)

	a.SetPayload(p2)
	assert.Equal(t, uint32(1), p1.RetainCount())
	assert.Equal(t, uint32(2), p2.RetainCount())
	assert.Same(t, p2, a.Payload().(*Boxed[int]))
}

func TestCallFuncScriptHandler(t *testing.T) {
	rt := newTestRuntime(t)
	eng := newFakeEngine(ScriptTypeLua)
	rt.Scripts().SetScriptEngine(eng)
	n := NewSprite(rt, "n")
	n.Retain()

	a := NewScriptCallFunc(rt, KindNode, ScriptFunction{Handler: 42})
	assert.Equal(t, 42, a.ScriptHandler().Handler)
	runOnce(rt, n, a)

	require.Len(t, eng.callFuncs, 1)
	assert.Equal(t, 42, eng.callFuncs[0].handler)
	assert.Same(t, n, eng.callFuncs[0].target.(*Node))

	rt.Pools().Drain()
	assert.True(t, a.IsDestroyed())
	assert.Equal(t, []int{42}, eng.removedHandlers)
}

func TestCallFuncScriptArgument(t *testing.T) {
	rt := newTestRuntime(t)
	eng := newFakeEngine(ScriptTypeLua)
	rt.Scripts().SetScriptEngine(eng)
	n := NewSprite(rt, "n")
	n.Retain()

	a := NewScriptCallFunc(rt, KindFunc, ScriptFunction{Handler: 1})
	runOnce(rt, n, a)
	assert.Nil(t, eng.callFuncs[0].target)

	p := NewBoxed(rt, "p")
	o := NewScriptCallFunc(rt, KindObject, ScriptFunction{Handler: 2})
	o.SetPayload(p)
	runOnce(rt, n, o)
	assert.Same(t, p, eng.callFuncs[1].target.(*Boxed[string]))

	nd := NewScriptCallFunc(rt, KindNodeData, ScriptFunction{Handler: 3})
	runOnce(rt, n, nd)
	assert.Same(t, n, eng.callFuncs[2].target.(*Node))
}

func TestCallFuncNativeRunsBeforeScript(t *testing.T) {
	rt := newTestRuntime(t)
	eng := newFakeEngine(ScriptTypeLua)
	rt.Scripts().SetScriptEngine(eng)
	n := NewSprite(rt, "n")
	n.Retain()

	a := NewCallFuncN(rt, nil, func(*Node) { eng.calls = append(eng.calls, "native") })
	a.Retain()
	a.SetScriptHandler(ScriptFunction{Handler: 9})
	runOnce(rt, n, a)
	assert.Equal(t, []string{"native", "ExecuteCallFuncActionEvent"}, eng.calls)
	assert.Equal(t, 9, eng.callFuncs[0].handler)

	a.SetScriptHandler(ScriptFunction{Handler: 9})
	assert.Empty(t, eng.removedHandlers, "setting the same handler keeps it")

	a.SetScriptHandler(ScriptFunction{Handler: 10})
	assert.Equal(t, []int{9}, eng.removedHandlers)

	rt.Pools().Drain()
	a.Release()
	assert.Equal(t, []int{9, 10}, eng.removedHandlers)
}

func TestCallFuncScriptTarget(t *testing.T) {
	rt := newTestRuntime(t)
	eng := newFakeEngine(ScriptTypeLua)
	rt.Scripts().SetScriptEngine(eng)
	self := NewContainer(rt, "self")
	self.Retain()

	a := NewScriptCallFunc(rt, KindFunc, ScriptFunction{Target: self, Handler: 5})
	assert.Same(t, self, a.ScriptHandler().Target.(*Node))
	assert.Equal(t, uint32(3), self.RetainCount())

	c := CloneAs(a, nil)
	assert.Same(t, self, c.ScriptHandler().Target.(*Node), "clone keeps the target")
	assert.NotEqual(t, 5, c.ScriptHandler().Handler, "clone owns a new handler")
	assert.NotZero(t, c.ScriptHandler().Handler)
	assert.Equal(t, uint32(4), self.RetainCount())

	rt.Pools().Drain()
	assert.True(t, a.IsDestroyed())
	assert.True(t, c.IsDestroyed())
	assert.Equal(t, uint32(1), self.RetainCount())
}

func TestScriptCallFuncO(t *testing.T) {
	rt := newTestRuntime(t)
	eng := newFakeEngine(ScriptTypeJavaScript)
	rt.Scripts().SetScriptEngine(eng)
	n := NewSprite(rt, "n")
	n.Retain()

	p := NewBoxed(rt, "hello")
	a := NewScriptCallFuncO(rt, ScriptFunction{Handler: 6}, p)
	assert.Equal(t, KindObject, a.Kind())
	runOnce(rt, n, a)
	require.Len(t, eng.callFuncs, 1)
	assert.Same(t, p, eng.callFuncs[0].target.(*Boxed[string]))
}

func TestCallFuncReverseIsCopy(t *testing.T) {
	rt := newTestRuntime(t)
	eng := newFakeEngine(ScriptTypeLua)
	rt.Scripts().SetScriptEngine(eng)
	n := NewSprite(rt, "n")
	n.Retain()

	hits := 0
	a := NewCallFunc(rt, nil, func() { hits++ })
	a.SetScriptHandler(ScriptFunction{Handler: 11})
	r, ok := a.Reverse().(*CallFunc)
	require.True(t, ok)
	assert.NotSame(t, a, r)
	assert.NotEqual(t, 11, r.ScriptHandler().Handler)

	runOnce(rt, n, r)
	assert.Equal(t, 1, hits)

	seq := NewSequence(rt, NewShow(rt), a)
	assert.NotNil(t, seq.Reverse(), "a sequence with a call-function reverses")
}

func TestCallFuncScriptErrorIsLogged(t *testing.T) {
	rt, logs := newObservedRuntime(t)
	eng := newFakeEngine(ScriptTypeLua)
	eng.err = errors.New("boom")
	rt.Scripts().SetScriptEngine(eng)
	n := NewSprite(rt, "n")
	n.Retain()

	assert.NotPanics(t, func() { runOnce(rt, n, NewScriptCallFunc(rt, KindNode, ScriptFunction{Handler: 4})) })
	assert.Equal(t, 1, logs.FilterMessage("callfunc script handler failed").Len())
}

func TestCallFuncScriptWithoutEngine(t *testing.T) {
	rt, logs := newObservedRuntime(t)
	n := NewSprite(rt, "n")
	n.Retain()

	assert.NotPanics(t, func() { runOnce(rt, n, NewScriptCallFunc(rt, KindNode, ScriptFunction{Handler: 4})) })
	assert.Equal(t, 1, logs.FilterMessage("callfunc script handler without engine").Len())
}

func TestCallFuncCloneReallocatesHandler(t *testing.T) {
	rt := newTestRuntime(t)
	eng := newFakeEngine(ScriptTypeLua)
	rt.Scripts().SetScriptEngine(eng)

	p := NewBoxed(rt, 0)
	a := NewScriptCallFunc(rt, KindObject, ScriptFunction{Handler: 7})
	a.SetPayload(p)
	a.SetTag(3)

	c := CloneAs(a, nil)
	assert.NotEqual(t, 7, c.ScriptHandler().Handler)
	assert.NotZero(t, c.ScriptHandler().Handler)
	assert.Equal(t, 3, c.Tag())
	assert.Same(t, p, c.Payload().(*Boxed[int]))
	assert.Equal(t, uint32(3), p.RetainCount())

	cloned := c.ScriptHandler().Handler
	rt.Pools().Drain()
	assert.ElementsMatch(t, []int{7, cloned}, eng.removedHandlers)
}
