package canopy_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phanxgames/canopy"
)

func bufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestNewScene(t *testing.T) {
	scene := canopy.NewScene()
	root := scene.Root()
	require.NotNil(t, root)
	assert.Equal(t, "root", root.Name)
	assert.True(t, root.IsRooted())
	assert.Same(t, scene, root.Scene())
	assert.Nil(t, scene.Renderer())
	assert.NotNil(t, scene.Logger())
}

func TestNewSceneWithRoot(t *testing.T) {
	world := canopy.NewNode3D("world")
	child := canopy.NewNode3D("child")
	require.NoError(t, world.AddChild(child))

	scene := canopy.NewScene(canopy.WithRoot(world))
	assert.Same(t, world.AsNode(), scene.Root())
	assert.True(t, child.IsRooted())
}

func TestNewSceneWithParentedRootPanics(t *testing.T) {
	parent := canopy.NewNode("parent")
	child := canopy.NewNode("child")
	require.NoError(t, parent.AddChild(child))
	assert.Panics(t, func() { canopy.NewScene(canopy.WithRoot(child)) })
}

// onChange counts OnTransformChanged calls and optionally mutates another
// node from inside the callback.
type onChange struct {
	calls *int
	poke  *canopy.Node2D
}

func (o onChange) OnTransformChanged(*canopy.Node) {
	*o.calls++
	if o.poke != nil {
		o.poke.Translate(canopy.Vec2{X: 1})
	}
}

func TestTransformChangedHookOncePerTick(t *testing.T) {
	scene := canopy.NewScene()
	calls := 0
	n := canopy.NewNode2D("n")
	n.Behavior = onChange{calls: &calls}
	require.NoError(t, scene.Root().AddChild(n))
	scene.Tick()
	assert.Equal(t, 1, calls, "entering schedules one flush")

	n.SetPosition(canopy.Vec2{X: 1})
	n.SetRotation(1)
	n.SetScale(canopy.Vec2{X: 2, Y: 2})
	scene.Tick()
	assert.Equal(t, 2, calls)

	scene.Tick()
	assert.Equal(t, 2, calls, "no change, no hook")
}

func TestInvalidationDuringTickFlushesNextTick(t *testing.T) {
	scene := canopy.NewScene()
	calls, targetCalls := 0, 0
	target := canopy.NewNode2D("target")
	target.Behavior = onChange{calls: &targetCalls}
	src := canopy.NewNode2D("src")
	src.Behavior = onChange{calls: &calls, poke: target}
	require.NoError(t, scene.Root().AddChild(target))
	require.NoError(t, scene.Root().AddChild(src))

	stats := scene.Tick()
	assert.Equal(t, 2, stats.Flushed)
	assert.Equal(t, 1, targetCalls, "target flushed before src poked it")

	stats = scene.Tick()
	assert.Equal(t, 1, stats.Flushed)
	assert.Equal(t, 2, targetCalls)
	assert.InDelta(t, 1, target.Position().X, 1e-9)
}

func TestTickSkipsNodesThatLeft(t *testing.T) {
	scene := canopy.NewScene()
	calls := 0
	n := canopy.NewNode2D("n")
	n.Behavior = onChange{calls: &calls}
	require.NoError(t, scene.Root().AddChild(n))
	n.RemoveFromParent()

	stats := scene.Tick()
	assert.Equal(t, 0, stats.Flushed)
	assert.Equal(t, 0, calls)
}

func TestTickStatsCountsDirtyVisits(t *testing.T) {
	scene := canopy.NewScene()
	parent := canopy.NewNode2D("parent")
	for i := 0; i < 3; i++ {
		require.NoError(t, parent.AddChild(canopy.NewNode2D("c")))
	}
	require.NoError(t, scene.Root().AddChild(parent))
	scene.Tick()

	parent.SetPosition(canopy.Vec2{X: 1})
	stats := scene.Tick()
	assert.Equal(t, uint64(3), stats.DirtyVisits)
	assert.Equal(t, 4, stats.Flushed)
	assert.Equal(t, uint64(2), stats.Tick)
}

// --- Render context ---

func TestSetCamera(t *testing.T) {
	scene := canopy.NewScene()
	cam := canopy.NewNode2D("cam")

	err := scene.SetCamera(cam)
	assert.ErrorIs(t, err, canopy.ErrNotFound, "camera must be in the scene")
	assert.Nil(t, scene.Camera())

	require.NoError(t, scene.Root().AddChild(cam))
	require.NoError(t, scene.SetCamera(cam))
	assert.Same(t, cam.AsNode(), scene.Camera())
	assert.Same(t, cam.AsNode(), scene.RenderContext().Camera)

	cam.RemoveFromParent()
	assert.Nil(t, scene.Camera(), "camera that left is cleared")

	require.NoError(t, scene.SetCamera(nil))
}

func TestRenderContextView2D(t *testing.T) {
	scene := canopy.NewScene()
	assert.Equal(t, canopy.IdentityAffine, scene.RenderContext().View2D())

	cam := canopy.NewNode2D("cam")
	cam.SetPosition(canopy.Vec2{X: 100, Y: 50})
	require.NoError(t, scene.Root().AddChild(cam))
	require.NoError(t, scene.SetCamera(cam))

	view := scene.RenderContext().View2D()
	p := view.Apply(canopy.Vec2{X: 100, Y: 50})
	assert.InDelta(t, 0, p.X, 1e-9)
	assert.InDelta(t, 0, p.Y, 1e-9)
	assert.Equal(t, mgl64.Ident4(), scene.RenderContext().View3D(), "2D camera has no 3D view")
}

func TestRenderContextView3D(t *testing.T) {
	scene := canopy.NewScene()
	cam := canopy.NewNode3D("cam")
	cam.SetPosition(mgl64.Vec3{0, 0, 10})
	require.NoError(t, scene.Root().AddChild(cam))
	require.NoError(t, scene.SetCamera(cam))

	p := mgl64.TransformCoordinate(mgl64.Vec3{0, 0, 0}, scene.RenderContext().View3D())
	assert.InDeltaSlice(t, []float64{0, 0, -10}, p[:], 1e-9)
}

func TestRenderContextPerScene(t *testing.T) {
	s1 := canopy.NewScene()
	s2 := canopy.NewScene()
	c1 := canopy.NewNode2D("c1")
	require.NoError(t, s1.Root().AddChild(c1))
	require.NoError(t, s1.SetCamera(c1))

	assert.Same(t, c1.AsNode(), s1.RenderContext().Camera)
	assert.Nil(t, s2.RenderContext().Camera)
	assert.ErrorIs(t, s2.SetCamera(c1), canopy.ErrNotFound)
}

// --- Diagnostics ---

func TestHierarchyErrorLogged(t *testing.T) {
	var buf bytes.Buffer
	cfg := canopy.DefaultConfig()
	cfg.Debug = true
	scene := canopy.NewScene(canopy.WithConfig(cfg), canopy.WithLogger(bufferLogger(&buf)))
	t.Cleanup(func() { scene.SetDebugMode(false) })

	a := canopy.NewNode("a")
	require.NoError(t, scene.Root().AddChild(a))
	err := a.AddChild(scene.Root())
	require.ErrorIs(t, err, canopy.ErrInvalidHierarchy)

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "hierarchy error")
	assert.Contains(t, out, "/root/a")
	assert.Contains(t, out, "component=canopy")
}

func TestTreeDepthWarning(t *testing.T) {
	var buf bytes.Buffer
	cfg := canopy.Config{Debug: true, MaxTreeDepth: 3}
	scene := canopy.NewScene(canopy.WithConfig(cfg), canopy.WithLogger(bufferLogger(&buf)))
	t.Cleanup(func() { scene.SetDebugMode(false) })

	parent := scene.Root()
	for i := 0; i < 3; i++ {
		n := canopy.NewNode("n")
		require.NoError(t, parent.AddChild(n))
		parent = n
	}
	assert.Contains(t, buf.String(), "tree depth exceeds threshold")
}

func TestChildCountWarning(t *testing.T) {
	var buf bytes.Buffer
	cfg := canopy.Config{Debug: true, MaxChildCount: 2}
	scene := canopy.NewScene(canopy.WithConfig(cfg), canopy.WithLogger(bufferLogger(&buf)))
	t.Cleanup(func() { scene.SetDebugMode(false) })

	for i := 0; i < 3; i++ {
		require.NoError(t, scene.Root().AddChild(canopy.NewNode("n")))
	}
	assert.Contains(t, buf.String(), "child count exceeds threshold")
}

func TestNoWarningsOutsideDebug(t *testing.T) {
	var buf bytes.Buffer
	cfg := canopy.Config{MaxChildCount: 1, LogLevel: "warn"}
	scene := canopy.NewScene(canopy.WithConfig(cfg), canopy.WithLogger(
		slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))))
	for i := 0; i < 3; i++ {
		require.NoError(t, scene.Root().AddChild(canopy.NewNode("n")))
	}
	scene.Tick()
	assert.Empty(t, buf.String())
}

func TestDebugTickStatsLogged(t *testing.T) {
	var buf bytes.Buffer
	cfg := canopy.Config{Debug: true}
	scene := canopy.NewScene(canopy.WithConfig(cfg), canopy.WithLogger(bufferLogger(&buf)))
	t.Cleanup(func() { scene.SetDebugMode(false) })

	require.NoError(t, scene.Root().AddChild(canopy.NewNode2D("n")))
	scene.Tick()
	assert.Contains(t, buf.String(), "msg=tick")
	assert.Contains(t, buf.String(), "flushed=1")
}

func TestSceneRootCannotBeAdopted(t *testing.T) {
	s1, s2 := canopy.NewScene(), canopy.NewScene()
	t.Cleanup(s1.Close)
	t.Cleanup(s2.Close)

	err := s1.Root().AddChild(s2.Root())
	require.ErrorIs(t, err, canopy.ErrInvalidHierarchy)
	var he *canopy.HierarchyError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, "child is a scene root", he.Reason)

	require.ErrorIs(t, s2.Root().Reparent(s1.Root()), canopy.ErrInvalidHierarchy)
	assert.Same(t, s2, s2.Root().Scene())
	assert.Nil(t, s2.Root().Parent())
	assert.Empty(t, s1.Root().Children())
}
