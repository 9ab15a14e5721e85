package canopy

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// buildFan returns a 2D root with width children, each the top of a chain of
// depth nodes.
func buildFan(t *testing.T, width, depth int) (*Node2D, []*Node2D) {
	t.Helper()
	root := NewNode2D("root")
	var leaves []*Node2D
	for i := 0; i < width; i++ {
		parent := root
		for d := 0; d < depth; d++ {
			n := NewNode2D("n")
			mustAdd(t, parent, n)
			parent = n
		}
		leaves = append(leaves, parent)
	}
	return root, leaves
}

func resolveAll(root *Node) {
	for n := range root.Traverse() {
		n.resolveGlobal()
	}
}

func TestSetterMarksDescendantsGlobalDirty(t *testing.T) {
	root, leaves := buildFan(t, 3, 4)
	resolveAll(&root.Node)
	for _, l := range leaves {
		if l.globalDirty || l.localDirty {
			t.Fatal("leaves should be clean after resolving")
		}
	}

	root.SetPosition(Vec2{1, 0})
	if !root.localDirty || !root.globalDirty {
		t.Error("root should be local and global dirty")
	}
	for n := range root.Traverse() {
		if n != &root.Node && n.localDirty {
			t.Errorf("%s local cache should be untouched", n.Path())
		}
		if !n.globalDirty {
			t.Errorf("%s should be global dirty", n.Path())
		}
	}
}

func TestChildSetterLeavesParentClean(t *testing.T) {
	parent := NewNode2D("parent")
	child := NewNode2D("child")
	mustAdd(t, parent, child)
	resolveAll(&parent.Node)

	child.SetRotation(1)
	if parent.globalDirty || parent.localDirty {
		t.Error("parent should stay clean when a child changes")
	}
}

func TestCleanNodeHasCleanAncestors(t *testing.T) {
	root, leaves := buildFan(t, 2, 5)
	root.SetScale(Vec2{2, 2})
	leaves[0].GlobalTransform()

	for p := &leaves[0].Node; p != nil; p = p.parent {
		if p.globalDirty {
			t.Errorf("%s should be clean after reading a descendant", p.Path())
		}
	}
	if !leaves[1].globalDirty {
		t.Error("unread branch should stay dirty")
	}
}

func TestRepeatedMutationIsPruned(t *testing.T) {
	const width, depth = 4, 50
	root, _ := buildFan(t, width, depth)
	resolveAll(&root.Node)

	start := dirtyVisits
	root.SetPosition(Vec2{1, 1})
	first := dirtyVisits - start
	if first != width*depth {
		t.Errorf("first mutation visited %d nodes, want %d", first, width*depth)
	}

	for i := 0; i < 10; i++ {
		start = dirtyVisits
		root.SetPosition(Vec2{float64(i), 0})
		if got := dirtyVisits - start; got > uint64(root.NumChildren()) {
			t.Fatalf("mutation %d visited %d nodes, want at most %d", i, got, root.NumChildren())
		}
	}
}

func TestSubtreeAlreadyDirtyStopsDescent(t *testing.T) {
	root, leaves := buildFan(t, 2, 10)
	resolveAll(&root.Node)

	// Dirty one branch from its own top; the other stays clean.
	branch := root.ChildAt(0).As2D()
	branch.SetPosition(Vec2{5, 0})

	start := dirtyVisits
	root.SetPosition(Vec2{1, 0})
	// Branch 0 stops at its top node, branch 1 is walked to the end.
	if got := dirtyVisits - start; got != 1+10 {
		t.Errorf("visited %d nodes, want 11", got)
	}
	if !leaves[1].globalDirty {
		t.Error("clean branch should now be dirty")
	}
}

func TestIncompatibleChildNotInvalidated(t *testing.T) {
	parent := NewNode2D("canvas")
	model := NewNode3D("model")
	inner := NewNode3D("inner")
	mustAdd(t, parent, model)
	mustAdd(t, model, inner)
	resolveAll(&parent.Node)

	start := dirtyVisits
	parent.SetPosition(Vec2{3, 3})
	if model.globalDirty || inner.globalDirty {
		t.Error("3D subtree under a 2D parent should stay clean")
	}
	if got := dirtyVisits - start; got != 1 {
		t.Errorf("visited %d nodes, want 1", got)
	}
}

func TestLinkInvalidatesSubtree(t *testing.T) {
	parent := NewNode2D("parent")
	parent.SetPosition(Vec2{10, 10})
	child := NewNode2D("child")
	grandchild := NewNode2D("grandchild")
	mustAdd(t, child, grandchild)
	resolveAll(&child.Node)

	mustAdd(t, parent, child)
	if !child.globalDirty || !grandchild.globalDirty {
		t.Error("attaching should invalidate the subtree's global caches")
	}
	assertVec2(t, "grandchild", grandchild.GlobalPosition(), Vec2{10, 10})
}

func TestMarkDirty(t *testing.T) {
	n := NewNode2D("n")
	n.GlobalTransform()
	n.MarkDirty()
	if !n.localDirty || !n.globalDirty {
		t.Error("MarkDirty should dirty both caches")
	}
	NewNode("plain").MarkDirty() // no-op without a transform
}

// composedGlobal2D folds local transforms, computed from the stored
// properties, down the compatible ancestor chain without reading any cache.
func composedGlobal2D(n *Node) Affine {
	var chain []*Node2D
	for c := n; ; c = c.parent {
		chain = append(chain, c.x2)
		if c.parent == nil || !compatible(c.parent, c) {
			break
		}
	}
	m := IdentityAffine
	for i := len(chain) - 1; i >= 0; i-- {
		t := chain[i]
		m = m.Mul(composeAffine(t.position, t.rotation, t.scale, t.skew, t.pivot))
	}
	return m
}

func composedGlobal3D(n *Node) mgl64.Mat4 {
	var chain []*Node3D
	for c := n; ; c = c.parent {
		chain = append(chain, c.x3)
		if c.parent == nil || !compatible(c.parent, c) {
			break
		}
	}
	m := mgl64.Ident4()
	for i := len(chain) - 1; i >= 0; i-- {
		t := chain[i]
		m = m.Mul4(composeMat4(t.position, t.rotation, t.scale))
	}
	return m
}

func checkAgainstComposed(t *testing.T, step int, n *Node) {
	t.Helper()
	var got, want []float64
	switch {
	case n.x2 != nil:
		g, w := n.x2.GlobalTransform(), composedGlobal2D(n)
		got, want = g[:], w[:]
	case n.x3 != nil:
		g, w := n.x3.GlobalTransform(), composedGlobal3D(n)
		got, want = g[:], w[:]
	default:
		return
	}
	for i := range want {
		if tol := 1e-9 * (1 + math.Abs(want[i])); math.Abs(got[i]-want[i]) > tol {
			t.Fatalf("step %d: %s global[%d] = %v, want %v", step, n.Path(), i, got[i], want[i])
		}
	}
}

func TestRandomMutationsMatchComposedGlobals(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	scene := NewScene()
	defer scene.Close()

	span := func(lo, hi float64) float64 { return lo + rng.Float64()*(hi-lo) }
	var pool []*Node
	for i := 0; i < 30; i++ {
		var n *Node
		switch i % 3 {
		case 0:
			n = &NewNode2D("n2").Node
		case 1:
			n = &NewNode3D("n3").Node
		default:
			n = NewNode("plain")
		}
		parent := scene.Root()
		if len(pool) > 0 && rng.IntN(4) > 0 {
			parent = pool[rng.IntN(len(pool))]
		}
		mustAdd(t, parent, n)
		pool = append(pool, n)
	}

	for step := 0; step < 2000; step++ {
		n := pool[rng.IntN(len(pool))]
		switch op := rng.IntN(10); {
		case op < 6 && n.x2 != nil:
			t2 := n.x2
			switch rng.IntN(4) {
			case 0:
				t2.SetPosition(Vec2{span(-10, 10), span(-10, 10)})
			case 1:
				t2.SetRotation(span(-math.Pi, math.Pi))
			case 2:
				t2.SetScale(Vec2{span(0.8, 1.25), span(0.8, 1.25)})
			default:
				t2.SetSkew(Vec2{span(-0.2, 0.2), span(-0.2, 0.2)})
			}
		case op < 6 && n.x3 != nil:
			t3 := n.x3
			switch rng.IntN(3) {
			case 0:
				t3.SetPosition(mgl64.Vec3{span(-10, 10), span(-10, 10), span(-10, 10)})
			case 1:
				t3.SetRotation(mgl64.Vec3{span(-math.Pi, math.Pi), span(-1.5, 1.5), span(-math.Pi, math.Pi)})
			default:
				t3.SetScale(mgl64.Vec3{span(0.8, 1.25), span(0.8, 1.25), span(0.8, 1.25)})
			}
		case op < 9:
			target := scene.Root()
			if rng.IntN(5) > 0 {
				target = pool[rng.IntN(len(pool))]
			}
			if !isAncestor(n, target) {
				if err := n.Reparent(target); err != nil {
					t.Fatalf("step %d: Reparent: %v", step, err)
				}
			}
		default:
			scene.Tick()
		}

		// Sample a few nodes each step so some caches stay stale across
		// several mutations, and sweep everything periodically.
		if step%50 == 49 {
			for _, m := range pool {
				checkAgainstComposed(t, step, m)
			}
			continue
		}
		for i := 0; i < 3; i++ {
			checkAgainstComposed(t, step, pool[rng.IntN(len(pool))])
		}
	}
}

func BenchmarkSetPositionDeepTree(b *testing.B) {
	root := NewNode2D("root")
	parent := root
	for i := 0; i < 1000; i++ {
		n := NewNode2D("n")
		Must(parent.AddChild(n))
		parent = n
	}
	leaf := parent
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		root.SetPosition(Vec2{float64(i), 0})
		leaf.GlobalTransform()
	}
}
