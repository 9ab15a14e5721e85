package canopy

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/tanema/gween/ease"
)

func TestTweenPositionReachesTarget(t *testing.T) {
	node := NewNode2D("pos")
	node.SetPosition(Vec2{10, 20})

	g := TweenPosition(node, Vec2{100, 200}, 1.0, ease.Linear)

	// Run for full duration using exact halves to avoid float32 accumulation drift.
	g.Update(0.5)
	g.Update(0.5)

	if !g.Done {
		t.Fatal("expected Done after full duration")
	}
	if p := node.Position(); math.Abs(p.X-100) > 0.5 || math.Abs(p.Y-200) > 0.5 {
		t.Errorf("Position = %v, want ~(100, 200)", p)
	}
}

func TestTweenScaleReachesTarget(t *testing.T) {
	node := NewNode2D("scale")

	g := TweenScale(node, Vec2{2, 3}, 0.5, ease.Linear)

	g.Update(0.25)
	g.Update(0.25)

	if !g.Done {
		t.Fatal("expected Done after full duration")
	}
	if s := node.Scale(); math.Abs(s.X-2) > 0.01 || math.Abs(s.Y-3) > 0.01 {
		t.Errorf("Scale = %v, want ~(2, 3)", s)
	}
}

func TestTweenRotationReachesTarget(t *testing.T) {
	node := NewNode2D("rot")

	tw := TweenRotation(node, math.Pi, 1.0, ease.Linear)

	tw.Update(0.5)
	if math.Abs(node.Rotation()-math.Pi/2) > 0.05 {
		t.Errorf("Rotation = %f, want ~%f at halfway", node.Rotation(), math.Pi/2)
	}
	tw.Update(0.5)

	if !tw.Done {
		t.Fatal("expected done after full duration")
	}
	if math.Abs(node.Rotation()-math.Pi) > 0.05 {
		t.Errorf("Rotation = %f, want ~%f", node.Rotation(), math.Pi)
	}
}

func TestTween3DReachesTarget(t *testing.T) {
	node := NewNode3D("model")

	pos := TweenPosition3D(node, mgl64.Vec3{1, 2, 3}, 1.0, ease.Linear)
	rot := TweenRotation3D(node, mgl64.Vec3{0, math.Pi / 2, 0}, 1.0, ease.Linear)
	scale := TweenScale3D(node, mgl64.Vec3{2, 2, 2}, 1.0, ease.Linear)
	for _, g := range []*TweenGroup{pos, rot, scale} {
		g.Update(0.5)
		g.Update(0.5)
		if !g.Done {
			t.Fatal("expected Done after full duration")
		}
	}

	want := composeMat4(mgl64.Vec3{1, 2, 3}, mgl64.Vec3{0, math.Pi / 2, 0}, mgl64.Vec3{2, 2, 2})
	// gween tweens in float32, so compare with an absolute tolerance.
	assertMat4(t, want, node.GlobalTransform(), "global")
}

func TestTweenGroupDoneFlagTransition(t *testing.T) {
	node := NewNode2D("done")
	g := TweenPosition(node, Vec2{50, 50}, 0.5, ease.Linear)

	if g.Done {
		t.Fatal("should not be Done at start")
	}

	// Partway through, not done.
	g.Update(0.25)
	if g.Done {
		t.Fatal("should not be Done partway through")
	}

	g.Update(0.25)
	if !g.Done {
		t.Fatal("should be Done after full duration")
	}

	// Update after done is a no-op.
	g.Update(0.1)
	if !g.Done {
		t.Fatal("should remain Done")
	}
}

func TestTweenGroupMarksDirty(t *testing.T) {
	parent := NewNode2D("parent")
	child := NewNode2D("child")
	mustAdd(t, parent, child)
	child.GlobalTransform()

	g := TweenPosition(parent, Vec2{100, 100}, 1.0, ease.Linear)
	g.Update(0.1)

	if !parent.localDirty {
		t.Fatal("expected node to be marked dirty after TweenGroup update")
	}
	if !child.globalDirty {
		t.Fatal("expected child global transform to be invalidated")
	}
}

func TestTweenGroupDestroyedNode(t *testing.T) {
	node := NewNode2D("destroyed")
	node.SetPosition(Vec2{10, 20})

	g := TweenPosition(node, Vec2{100, 200}, 1.0, ease.Linear)

	node.Destroy()

	g.Update(0.1)

	if !g.Done {
		t.Fatal("expected Done after destroyed node detected")
	}
	if node.Position() != (Vec2{10, 20}) {
		t.Errorf("Position changed to %v on destroyed node", node.Position())
	}
}

func TestTweenGroupDestroyedMidAnimation(t *testing.T) {
	node := NewNode2D("mid-destroy")

	g := TweenPosition(node, Vec2{100, 100}, 1.0, ease.Linear)

	g.Update(0.1)
	g.Update(0.1)
	if g.Done {
		t.Fatal("should not be Done yet")
	}

	node.Destroy()
	saved := node.Position()

	g.Update(0.1)
	if !g.Done {
		t.Fatal("expected Done after node destroyed mid-animation")
	}
	if node.Position() != saved {
		t.Error("node fields should not change after Destroy")
	}
}

func TestTweenEasingFunctionsProduceDifferentCurves(t *testing.T) {
	// Spot-check: linear vs OutCubic at the midpoint should differ.
	nodeL := NewNode2D("linear")
	nodeC := NewNode2D("cubic")

	gL := TweenPosition(nodeL, Vec2{100, 0}, 1.0, ease.Linear)
	gC := TweenPosition(nodeC, Vec2{100, 0}, 1.0, ease.OutCubic)

	gL.Update(0.5)
	gC.Update(0.5)

	if math.Abs(nodeL.Position().X-nodeC.Position().X) < 1.0 {
		t.Errorf("easing curves should produce different values at midpoint: linear=%f cubic=%f",
			nodeL.Position().X, nodeC.Position().X)
	}
}

func TestTweenGroupUpdateZeroAlloc(t *testing.T) {
	node := NewNode2D("alloc")
	g := TweenPosition(node, Vec2{100, 100}, 1.0, ease.Linear)

	// Warm up; first call might differ.
	g.Update(0.01)

	result := testing.AllocsPerRun(100, func() {
		g.Update(0.001)
	})
	if result > 0 {
		t.Errorf("TweenGroup.Update allocated %f times per run, want 0", result)
	}
}
