package sprig

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilon {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertMatrix(t *testing.T, name string, got, want [6]float64) {
	t.Helper()
	for i := range got {
		if math.Abs(got[i]-want[i]) > epsilon {
			t.Errorf("%s[%d] = %v, want %v (full: %v vs %v)", name, i, got[i], want[i], got, want)
		}
	}
}

// --- computeLocalTransform ---

func TestLocalTransformIdentity(t *testing.T) {
	n := NewContainer(newTestRuntime(t), "test")
	assertMatrix(t, "identity", computeLocalTransform(n), [6]float64{1, 0, 0, 1, 0, 0})
}

func TestLocalTransformTranslation(t *testing.T) {
	n := NewContainer(newTestRuntime(t), "test")
	n.X = 10
	n.Y = 20
	assertMatrix(t, "translation", computeLocalTransform(n), [6]float64{1, 0, 0, 1, 10, 20})
}

func TestLocalTransformScale(t *testing.T) {
	n := NewContainer(newTestRuntime(t), "test")
	n.SetScale(2, 3)
	assertMatrix(t, "scale", computeLocalTransform(n), [6]float64{2, 0, 0, 3, 0, 0})
}

func TestLocalTransformRotation90(t *testing.T) {
	n := NewContainer(newTestRuntime(t), "test")
	n.SetRotation(math.Pi / 2)
	// cos(90)=0, sin(90)=1 → a=0, b=1, c=-1, d=0
	assertMatrix(t, "rot90", computeLocalTransform(n), [6]float64{0, 1, -1, 0, 0, 0})
}

func TestLocalTransformPivot(t *testing.T) {
	n := NewContainer(newTestRuntime(t), "test")
	n.SetPosition(100, 200)
	n.SetPivot(16, 16)
	// T(100,200) * T(-16,-16) = [1,0,0,1, 84, 184]
	assertMatrix(t, "pivot", computeLocalTransform(n), [6]float64{1, 0, 0, 1, 84, 184})
}

func TestLocalTransformCombined(t *testing.T) {
	n := NewContainer(newTestRuntime(t), "test")
	n.SetPosition(50, 100)
	n.SetScale(2, 2)
	n.SetRotation(math.Pi / 2)
	assertMatrix(t, "combined", computeLocalTransform(n), [6]float64{0, 2, -2, 0, 50, 100})
}

// --- multiplyAffine ---

func TestMultiplyAffineIdentity(t *testing.T) {
	m := [6]float64{2, 1, 3, 4, 5, 6}
	assertMatrix(t, "id*m", multiplyAffine(identityTransform, m), m)
	assertMatrix(t, "m*id", multiplyAffine(m, identityTransform), m)
}

func TestMultiplyAffineTranslations(t *testing.T) {
	a := [6]float64{1, 0, 0, 1, 10, 20}
	b := [6]float64{1, 0, 0, 1, 5, 3}
	assertMatrix(t, "translations", multiplyAffine(a, b), [6]float64{1, 0, 0, 1, 15, 23})
}

// --- invertAffine ---

func TestInvertAffine(t *testing.T) {
	m := [6]float64{2, 0, 0, 3, 10, 20}
	assertMatrix(t, "m*inv=id", multiplyAffine(m, invertAffine(m)), identityTransform)
}

func TestInvertAffineComplex(t *testing.T) {
	n := NewContainer(newTestRuntime(t), "test")
	n.ScaleX = 2
	n.Rotation = math.Pi / 3
	m := computeLocalTransform(n)
	assertMatrix(t, "m*inv=id", multiplyAffine(m, invertAffine(m)), identityTransform)
}

func TestInvertAffineSingularReturnsIdentity(t *testing.T) {
	m := [6]float64{0, 0, 0, 1, 10, 20}
	assertMatrix(t, "singular→identity", invertAffine(m), identityTransform)
}

// --- World transforms ---

func TestWorldTransformParentChild(t *testing.T) {
	rt := newTestRuntime(t)
	parent := NewContainer(rt, "parent")
	child := NewContainer(rt, "child")
	parent.AddChild(child)
	parent.X = 100
	child.X = 10

	assertNear(t, "parent.tx", parent.NodeToWorldTransform()[4], 100)
	assertNear(t, "child.tx", child.NodeToWorldTransform()[4], 110)
	assertNear(t, "child.local.tx", child.NodeToParentTransform()[4], 10)
}

func TestWorldTransformFollowsParentMove(t *testing.T) {
	rt := newTestRuntime(t)
	parent := NewContainer(rt, "parent")
	child := NewContainer(rt, "child")
	parent.AddChild(child)
	child.X = 10

	parent.SetPosition(200, 0)
	assertNear(t, "child.tx", child.NodeToWorldTransform()[4], 210)
}

func TestWorldToLocalRoundtrip(t *testing.T) {
	rt := newTestRuntime(t)
	parent := NewContainer(rt, "parent")
	child := NewContainer(rt, "child")
	parent.AddChild(child)

	parent.SetPosition(100, 50)
	child.SetPosition(10, 20)
	child.SetScale(2, 3)
	child.SetRotation(math.Pi / 6)

	wx, wy := 150.0, 80.0
	lx, ly := child.WorldToLocal(wx, wy)
	wx2, wy2 := child.LocalToWorld(lx, ly)
	assertNear(t, "roundtrip.x", wx2, wx)
	assertNear(t, "roundtrip.y", wy2, wy)
}

func TestLocalToWorldIdentity(t *testing.T) {
	n := NewContainer(newTestRuntime(t), "test")
	n.SetPosition(50, 100)
	wx, wy := n.LocalToWorld(0, 0)
	assertNear(t, "origin.x", wx, 50)
	assertNear(t, "origin.y", wy, 100)
	if p := n.Position(); p != (Vec2{X: 50, Y: 100}) {
		t.Errorf("Position = %v", p)
	}
}

func TestDeepHierarchy(t *testing.T) {
	rt := newTestRuntime(t)
	nodes := make([]*Node, 10)
	for i := range nodes {
		nodes[i] = NewContainer(rt, "")
		nodes[i].X = 10
		if i > 0 {
			nodes[i-1].AddChild(nodes[i])
		}
	}
	assertNear(t, "deep.tx", nodes[9].NodeToWorldTransform()[4], 100)
}

func TestWorldToLocalZeroScale(t *testing.T) {
	n := NewContainer(newTestRuntime(t), "test")
	n.SetScale(0, 0)
	lx, ly := n.WorldToLocal(100, 200)
	assertNear(t, "lx", lx, 100)
	assertNear(t, "ly", ly, 200)
}

func TestRectApplyAffineRotated(t *testing.T) {
	m := [6]float64{0, 1, -1, 0, 0, 0}
	got := Rect{X: 0, Y: 0, Width: 4, Height: 2}.applyAffine(m)
	assertNear(t, "x", got.X, -2)
	assertNear(t, "y", got.Y, 0)
	assertNear(t, "w", got.Width, 2)
	assertNear(t, "h", got.Height, 4)
}
