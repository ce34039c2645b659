package sprig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanema/gween/ease"
	"go.uber.org/zap/zapcore"
	"pgregory.net/rapid"
)

func TestMoveByLinear(t *testing.T) {
	rt := newTestRuntime(t)
	n := NewSprite(rt, "n")
	n.Retain()
	n.SetPosition(1, 1)

	n.RunAction(NewMoveBy(rt, 1, Vec2{X: 10, Y: -4}, nil))
	rt.Actions().Update(0)
	assert.InDelta(t, 1, n.X, 1e-6)

	rt.Actions().Update(0.5)
	assert.InDelta(t, 6, n.X, 1e-4)
	assert.InDelta(t, -1, n.Y, 1e-4)

	rt.Actions().Update(0.5)
	assert.InDelta(t, 11, n.X, 1e-4)
	assert.InDelta(t, -3, n.Y, 1e-4)
	assert.Equal(t, 0, n.NumberOfRunningActions())
}

func TestMoveByEasingEndsOnTarget(t *testing.T) {
	rt := newTestRuntime(t)
	n := NewSprite(rt, "n")
	n.Retain()

	n.RunAction(NewMoveBy(rt, 0.3, Vec2{X: 30}, ease.OutQuad))
	for range 5 {
		rt.Actions().Update(0.1)
	}
	assert.InDelta(t, 30, n.X, 1e-4)
}

func TestMoveByReverse(t *testing.T) {
	rt := newTestRuntime(t)
	m := NewMoveBy(rt, 2, Vec2{X: 3, Y: -1}, nil)
	r := m.Reverse().(*MoveBy)
	assert.Equal(t, Vec2{X: -3, Y: 1}, r.Delta())
	assert.Equal(t, float32(2), r.Duration())
}

func TestFadeTo(t *testing.T) {
	rt := newTestRuntime(t)
	n := NewSprite(rt, "n")
	n.Retain()

	n.RunAction(NewFadeTo(rt, 1, 0, nil))
	rt.Actions().Update(0)
	rt.Actions().Update(0.5)
	assert.InDelta(t, 0.5, n.Alpha, 1e-4)
	rt.Actions().Update(0.5)
	assert.InDelta(t, 0, n.Alpha, 1e-4)
}

func TestDelayTime(t *testing.T) {
	rt := newTestRuntime(t)
	n := NewSprite(rt, "n")
	n.Retain()

	d := NewDelayTime(rt, 1)
	n.RunAction(d)
	rt.Actions().Update(0)
	rt.Actions().Update(0.6)
	assert.Equal(t, 1, n.NumberOfRunningActions())
	assert.InDelta(t, 0.6, d.Elapsed(), 1e-6)
	rt.Actions().Update(0.6)
	assert.Equal(t, 0, n.NumberOfRunningActions())

	assert.IsType(t, &DelayTime{}, d.Reverse())
}

func TestZeroDurationIntervalFinishesOnFirstStep(t *testing.T) {
	rt := newTestRuntime(t)
	n := NewSprite(rt, "n")
	n.Retain()

	n.RunAction(NewMoveBy(rt, 0, Vec2{X: 5}, nil))
	rt.Actions().Update(0)
	assert.InDelta(t, 5, n.X, 1e-9)
	assert.Equal(t, 0, n.NumberOfRunningActions())
}

func TestSequenceRunsInOrder(t *testing.T) {
	rt := newTestRuntime(t)
	n := NewSprite(rt, "n")
	n.Retain()

	seq := NewSequence(rt,
		NewMoveBy(rt, 1, Vec2{X: 10}, nil),
		NewPlace(rt, Vec2{Y: 50}),
		NewHide(rt),
	)
	require.NotNil(t, seq)
	assert.Equal(t, float32(1), seq.Duration())

	n.RunAction(seq)
	rt.Actions().Update(0)
	assert.True(t, n.IsVisible())
	rt.Actions().Update(0.5)
	assert.InDelta(t, 5, n.X, 1e-4)
	assert.True(t, n.IsVisible())

	rt.Actions().Update(0.5)
	assert.Equal(t, Vec2{Y: 50}, n.Position())
	assert.False(t, n.IsVisible())
	assert.Equal(t, 0, n.NumberOfRunningActions())
}

func TestSequenceOfInstantsRunsInOneStep(t *testing.T) {
	rt := newTestRuntime(t)
	n := NewSprite(rt, "n")
	n.Retain()

	var order []string
	seq := NewSequence(rt,
		NewCallFunc(rt, nil, func() { order = append(order, "a") }),
		NewCallFunc(rt, nil, func() { order = append(order, "b") }),
		NewCallFunc(rt, nil, func() { order = append(order, "c") }),
	)
	runOnce(rt, n, seq)
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, 0, n.NumberOfRunningActions())
}

func TestSequenceRetainsChildren(t *testing.T) {
	rt := newTestRuntime(t)
	m := NewMoveBy(rt, 1, Vec2{}, nil)
	seq := NewSequence(rt, m)
	assert.Equal(t, uint32(2), m.RetainCount())
	assert.Len(t, seq.Actions(), 1)

	rt.Pools().Drain()
	assert.True(t, seq.IsDestroyed())
	assert.True(t, m.IsDestroyed())
}

func TestNewSequenceRejectsEmpty(t *testing.T) {
	rt, logs := newObservedRuntime(t)
	assert.Nil(t, NewSequence(rt))
	assert.Nil(t, NewSequence(rt, NewShow(rt), nil))
	assert.Equal(t, 2, logs.FilterLevelExact(zapcore.ErrorLevel).Len())

	debug := newTestRuntime(t, WithDebug(true))
	assert.Panics(t, func() { NewSequence(debug) })
}

func TestSequenceReverse(t *testing.T) {
	rt := newTestRuntime(t)
	seq := NewSequence(rt, NewShow(rt), NewDelayTime(rt, 1), NewFlipX(rt, true))

	rev, ok := seq.Reverse().(*Sequence)
	require.True(t, ok)
	children := rev.Actions()
	require.Len(t, children, 3)
	assert.IsType(t, &FlipX{}, children[0])
	assert.False(t, children[0].(*FlipX).Flip())
	assert.IsType(t, &DelayTime{}, children[1])
	assert.IsType(t, &Hide{}, children[2])
}

func TestSequenceReverseWithIrreversibleChild(t *testing.T) {
	rt, logs := newObservedRuntime(t)
	seq := NewSequence(rt, NewShow(rt), NewPlace(rt, Vec2{}))
	assert.Nil(t, seq.Reverse())
	assert.Equal(t, 1, logs.FilterMessage("sequence child is not reversible").Len())
}

func TestSequenceCloneSharesRepeatedChild(t *testing.T) {
	rt := newTestRuntime(t)
	d := NewDelayTime(rt, 1)
	seq := NewSequence(rt, d, d)
	seq.SetTag(9)
	assert.Equal(t, uint32(3), d.RetainCount())

	c := CloneAs(seq, nil)
	require.Len(t, c.Actions(), 2)
	assert.NotSame(t, d, c.Actions()[0])
	assert.Same(t, c.Actions()[0], c.Actions()[1])
	assert.Equal(t, 9, c.Tag())
	assert.Equal(t, float32(2), c.Duration())
}

func TestSequenceCloneRunsIndependently(t *testing.T) {
	rt := newTestRuntime(t)
	a := NewSprite(rt, "a")
	a.Retain()
	b := NewSprite(rt, "b")
	b.Retain()

	seq := NewSequence(rt, NewMoveBy(rt, 1, Vec2{X: 10}, nil))
	a.RunAction(seq)
	b.RunAction(Copy(seq))
	rt.Actions().Update(0)
	rt.Actions().Update(1)

	assert.InDelta(t, 10, a.X, 1e-4)
	assert.InDelta(t, 10, b.X, 1e-4)
}

// However the frame time is sliced, a MoveBy lands exactly on its end point.
func TestMoveByEndsOnDeltaProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rt := NewRuntime()
		n := NewSprite(rt, "n")
		n.Retain()
		duration := float32(rapid.Float64Range(0.05, 3).Draw(t, "duration"))
		dx := rapid.Float64Range(-100, 100).Draw(t, "dx")

		n.RunAction(NewMoveBy(rt, duration, Vec2{X: dx}, nil))
		for i := 0; n.NumberOfRunningActions() > 0; i++ {
			if i > 10000 {
				t.Fatal("action never finished")
			}
			rt.Actions().Update(float32(rapid.Float64Range(0.001, 0.5).Draw(t, "dt")))
		}
		if d := n.X - dx; d > 1e-3 || d < -1e-3 {
			t.Fatalf("x = %v, want %v", n.X, dx)
		}
	})
}
