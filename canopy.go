package canopy

// Vec2 is a 2D vector used for positions, scales, and points throughout the
// 2D API.
type Vec2 struct {
	X, Y float64
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// NodeKind selects which transform cache (if any) a Node carries.
type NodeKind uint8

const (
	KindNode    NodeKind = iota // plain tree node, no transform
	KindNode2D                  // 2D affine transform (CanvasItem family)
	KindControl                 // UI node; composes exactly like KindNode2D
	KindNode3D                  // 3D transform backed by a 4x4 matrix
)

var kindNames = [...]string{"Node", "Node2D", "Control", "Node3D"}

func (k NodeKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "NodeKind(?)"
}

// ProxyKind tells a Renderer what kind of native object to allocate for a node.
type ProxyKind uint8

const (
	ProxyNone   ProxyKind = iota // node has no visual representation
	ProxyGroup                   // empty transform group
	ProxyMesh                    // drawable geometry
	ProxySprite                  // textured quad
	ProxyLight                   // light source
	ProxyCamera                  // camera
)

var proxyKindNames = [...]string{"none", "group", "mesh", "sprite", "light", "camera"}

func (k ProxyKind) String() string {
	if int(k) < len(proxyKindNames) {
		return proxyKindNames[k]
	}
	return "proxy(?)"
}
