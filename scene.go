package canopy

import (
	"log/slog"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Scene is the top-level object that owns the node tree, the renderer
// binding, and the per-tick transform flush queue.
type Scene struct {
	root      *Node
	renderer  Renderer
	rootProxy ProxyHandle
	logger    *slog.Logger
	config    Config
	debug     bool

	camera *Node

	// Nodes whose global transform went stale since the last Tick.
	queue []*Node
	spare []*Node

	ticks      uint64
	visitsMark uint64
}

// Option configures a Scene.
type Option func(*sceneOptions)

type sceneOptions struct {
	renderer Renderer
	logger   *slog.Logger
	config   *Config
	root     *Node
}

// WithRenderer binds the scene to a render-proxy collaborator.
func WithRenderer(r Renderer) Option {
	return func(o *sceneOptions) { o.renderer = r }
}

// WithLogger sets the logger used for diagnostics. Defaults to a text
// logger on stderr at the configured LogLevel.
func WithLogger(l *slog.Logger) Option {
	return func(o *sceneOptions) { o.logger = l }
}

// WithConfig applies debug and threshold settings.
func WithConfig(c Config) Option {
	return func(o *sceneOptions) { o.config = &c }
}

// WithRoot uses root as the scene root instead of a plain node named "root".
// root must not have a parent.
func WithRoot(root Noder) Option {
	return func(o *sceneOptions) { o.root = asNode(root) }
}

// NewScene creates a scene whose root is rooted immediately.
func NewScene(opts ...Option) *Scene {
	o := sceneOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	s := &Scene{renderer: o.renderer, config: DefaultConfig(), visitsMark: dirtyVisits}
	if o.config != nil {
		s.config = o.config.withDefaults()
	}
	logger := o.logger
	if logger == nil {
		lvl, _ := s.config.Level()
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	}
	s.logger = logger.With("component", "canopy")
	s.SetDebugMode(s.config.Debug)

	if s.renderer != nil {
		s.rootProxy = s.renderer.CreateProxy(ProxyGroup)
	}

	root := o.root
	if root == nil {
		root = NewNode("root")
	}
	if root.parent != nil {
		panic("canopy: scene root must not have a parent")
	}
	s.root = root
	root.enterTree(s)
	return s
}

// Root returns the scene's root node.
func (s *Scene) Root() *Node {
	return s.root
}

// Renderer returns the bound renderer, or nil.
func (s *Scene) Renderer() Renderer {
	return s.renderer
}

// RootProxy returns the renderer-native object every top-level proxy is
// attached under, or nil without a renderer.
func (s *Scene) RootProxy() ProxyHandle {
	return s.rootProxy
}

// Logger returns the scene's logger.
func (s *Scene) Logger() *slog.Logger {
	return s.logger
}

// SetDebugMode enables or disables debug mode. When enabled, pushes to
// disposed proxies panic, tree depth and child count warnings are logged,
// and per-tick stats are logged at debug level.
func (s *Scene) SetDebugMode(enabled bool) {
	s.debug = enabled
	globalDebug = enabled
}

// globalDebug mirrors the most recently set Scene debug flag so that node
// operations on destroyed nodes (which have no Scene) can check it. Only
// valid with a single Scene; multiple Scenes with differing debug modes will
// reflect whichever called SetDebugMode last.
var globalDebug bool

func (s *Scene) enqueue(n *Node) {
	if n.queuedIn == s {
		return
	}
	n.queuedIn = s
	s.queue = append(s.queue, n)
}

// TickStats describes one Tick.
type TickStats struct {
	Tick        uint64
	Flushed     int           // nodes whose transform was pushed and notified
	DirtyVisits uint64        // nodes examined by dirty propagation (process-wide) since the last Tick
	Duration    time.Duration // wall time spent flushing
}

// Tick flushes transform changes accumulated since the last call. Every
// queued node still in this scene has its global transform recomputed and
// pushed to its render proxy, then receives OnTransformChanged and
// SignalTransformChanged, once. Nodes invalidated by those callbacks are
// flushed on the next Tick.
func (s *Scene) Tick() TickStats {
	start := time.Now()
	s.ticks++
	stats := TickStats{Tick: s.ticks, DirtyVisits: dirtyVisits - s.visitsMark}

	pending := s.queue
	s.queue = s.spare[:0]
	for i, n := range pending {
		pending[i] = nil
		if n.queuedIn != s {
			continue
		}
		n.queuedIn = nil
		if n.destroyed || n.scene != s {
			continue
		}
		n.resolveGlobal()
		n.PushTransform()
		if h, ok := n.Behavior.(TransformChangedHook); ok {
			h.OnTransformChanged(n)
		}
		n.emit(Event{Kind: SignalTransformChanged, Node: n})
		stats.Flushed++
	}
	s.spare = pending[:0]

	stats.Duration = time.Since(start)
	s.visitsMark = dirtyVisits
	if s.debug {
		s.debugLog(stats)
	}
	return stats
}

func (n *Node) resolveGlobal() {
	switch {
	case n.x2 != nil:
		n.x2.GlobalTransform()
	case n.x3 != nil:
		n.x3.GlobalTransform()
	}
}

// Close destroys the root subtree, then disposes the root proxy.
func (s *Scene) Close() {
	if s.root != nil {
		s.root.Destroy()
	}
	if s.renderer != nil && s.rootProxy != nil {
		s.renderer.DisposeProxy(s.rootProxy)
		s.rootProxy = nil
	}
	s.queue = nil
	s.camera = nil
}

// --- Render context ---

// RenderContext carries per-pass state, such as the active camera, to
// whatever renders the scene. It replaces process-wide "current camera"
// state: each scene, and each pass, can pick its own.
type RenderContext struct {
	Scene  *Scene
	Camera *Node // nil for an identity view
}

// SetCamera makes cam the scene's active camera. cam must be in this scene;
// pass nil to clear.
func (s *Scene) SetCamera(cam Noder) error {
	c := asNode(cam)
	if c != nil && c.scene != s {
		return notFoundErr("SetCamera", s.root, c, "")
	}
	s.camera = c
	return nil
}

// Camera returns the active camera, or nil when none is set or it has left
// the scene.
func (s *Scene) Camera() *Node {
	if s.camera != nil && s.camera.scene != s {
		s.camera = nil
	}
	return s.camera
}

// RenderContext returns the context for rendering the scene now.
func (s *Scene) RenderContext() RenderContext {
	return RenderContext{Scene: s, Camera: s.Camera()}
}

// View2D returns the 2D view matrix: the inverse of the camera's global
// transform, or the identity when there is no 2D camera.
func (rc RenderContext) View2D() Affine {
	if rc.Camera == nil || rc.Camera.x2 == nil {
		return IdentityAffine
	}
	return rc.Camera.x2.GlobalTransform().Inverse()
}

// View3D returns the 3D view matrix: the inverse of the camera's global
// transform, or the identity when there is no 3D camera.
func (rc RenderContext) View3D() mgl64.Mat4 {
	if rc.Camera == nil || rc.Camera.x3 == nil {
		return mgl64.Ident4()
	}
	return rc.Camera.x3.GlobalTransform().Inv()
}
