package sprig

import (
	"fmt"
	"image"
	"testing"
	"unicode/utf8"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// newTestRuntime returns a runtime logging to the test log.
func newTestRuntime(t *testing.T, opts ...RuntimeOption) *Runtime {
	t.Helper()
	opts = append([]RuntimeOption{WithLogger(zaptest.NewLogger(t))}, opts...)
	return NewRuntime(opts...)
}

// newObservedRuntime returns a runtime whose log entries can be inspected.
func newObservedRuntime(t *testing.T, opts ...RuntimeOption) (*Runtime, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	opts = append([]RuntimeOption{WithLogger(zap.New(core))}, opts...)
	return NewRuntime(opts...), logs
}

type scheduleCall struct {
	handler int
	dt      float32
}

type callFuncCall struct {
	action  *CallFunc
	handler int
	target  Object
}

// fakeEngine records every call the runtime makes into a script engine.
type fakeEngine struct {
	typ   ScriptType
	calls []string

	removedHandlers []int
	removedObjects  []Object
	removedUserData []int
	destructed      []Object
	schedules       []scheduleCall
	callFuncs       []callFuncCall
	events          [][]any
	eventHandlers   []int
	scripts         map[string][]byte

	nextHandler   int
	err           error
	assertHandled bool
	closed        int
}

func newFakeEngine(typ ScriptType) *fakeEngine {
	return &fakeEngine{typ: typ, nextHandler: 1000, scripts: make(map[string][]byte)}
}

func (f *fakeEngine) ScriptType() ScriptType { return f.typ }

func (f *fakeEngine) RemoveScriptObject(obj Object) {
	f.calls = append(f.calls, "RemoveScriptObject")
	f.removedObjects = append(f.removedObjects, obj)
}

func (f *fakeEngine) RemoveScriptUserData(id int) {
	f.calls = append(f.calls, fmt.Sprintf("RemoveScriptUserData:%d", id))
	f.removedUserData = append(f.removedUserData, id)
}

func (f *fakeEngine) RemoveScriptHandler(handler int) {
	f.calls = append(f.calls, fmt.Sprintf("RemoveScriptHandler:%d", handler))
	f.removedHandlers = append(f.removedHandlers, handler)
}

func (f *fakeEngine) ReallocateScriptHandler(handler int) int {
	f.nextHandler++
	return f.nextHandler
}

func (f *fakeEngine) IsScriptFunctionSame(h1, h2 int) bool { return h1 == h2 }

func (f *fakeEngine) ExecuteString(code string) error { return f.err }

func (f *fakeEngine) ExecuteScriptFile(name string, code []byte) error {
	f.scripts[name] = code
	return f.err
}

func (f *fakeEngine) ExecuteGlobalFunction(name string) (int, error) { return 0, f.err }

func (f *fakeEngine) ExecuteCallFuncActionEvent(action *CallFunc, target Object) error {
	f.calls = append(f.calls, "ExecuteCallFuncActionEvent")
	f.callFuncs = append(f.callFuncs, callFuncCall{action: action, handler: action.ScriptHandler().Handler, target: target})
	return f.err
}

func (f *fakeEngine) ExecuteSchedule(fn ScriptFunction, dt float32) error {
	f.schedules = append(f.schedules, scheduleCall{handler: fn.Handler, dt: dt})
	return f.err
}

func (f *fakeEngine) ExecuteEvent(fn ScriptFunction, event string) error {
	f.events = append(f.events, []any{event})
	f.eventHandlers = append(f.eventHandlers, fn.Handler)
	return f.err
}

func (f *fakeEngine) ExecuteEventWithArgs(fn ScriptFunction, args ...any) error {
	f.events = append(f.events, args)
	f.eventHandlers = append(f.eventHandlers, fn.Handler)
	return f.err
}

func (f *fakeEngine) ExecuteObjectDestructor(obj Object) {
	f.calls = append(f.calls, "ExecuteObjectDestructor")
	f.destructed = append(f.destructed, obj)
}

func (f *fakeEngine) HandleAssert(msg string) bool { return f.assertHandled }

func (f *fakeEngine) Close() error {
	f.closed++
	return f.err
}

// fakeRenderer produces a 7x13 cell per character and reports the links and
// images it was configured with.
type fakeRenderer struct {
	effects       map[TextEffect]bool
	links         []LinkMeta
	images        []Rect
	err           error
	renders       int
	lastText      string
	lastDisplayTo int
	lastDef       FontDefinition
}

func newFakeRenderer(effects ...TextEffect) *fakeRenderer {
	r := &fakeRenderer{effects: make(map[TextEffect]bool)}
	for _, e := range effects {
		r.effects[e] = true
	}
	return r
}

func (r *fakeRenderer) RenderString(text string, def FontDefinition, displayTo int) (*TextTexture, error) {
	r.renders++
	r.lastText = text
	r.lastDisplayTo = displayTo
	r.lastDef = def
	if r.err != nil {
		return nil, r.err
	}
	n := utf8.RuneCountInString(text)
	return &TextTexture{
		Image:      image.NewRGBA(image.Rect(0, 0, n*7, 13)),
		Size:       Size{Width: float64(n * 7), Height: 13},
		RealLength: n,
		Links:      r.links,
		Images:     r.images,
	}, nil
}

func (r *fakeRenderer) Supports(effect TextEffect) bool { return r.effects[effect] }

// runOnce starts action on n and steps the action manager once.
func runOnce(rt *Runtime, n *Node, action Action) {
	n.RunAction(action)
	rt.Actions().Update(0)
}
