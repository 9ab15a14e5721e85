package canopy

// Node2D is a node with a 2D affine transform (the CanvasItem family).
//
// Every setter marks the local transform dirty and invalidates the global
// transform of all compatible descendants; the work of recomputing happens
// lazily on the next global read. Global setters back-solve the local value
// through the inverse of the parent's global transform.
//
// Global rotation, scale and skew are decomposed from the composed matrix.
// Under non-uniformly scaled, rotated ancestors the composition contains
// shear, and the decomposition is an approximation; this is inherent to 2D
// affine transforms.
type Node2D struct {
	Node

	position Vec2
	rotation float64
	scale    Vec2
	skew     Vec2
	pivot    Vec2

	local  Affine
	global Affine
}

// Control is a UI node. It composes its transform exactly like Node2D and
// adds a size, used for hit testing in local space.
type Control struct {
	Node2D

	size Vec2
}

func initNode2D(t *Node2D, name string, kind NodeKind) {
	nodeDefaults(&t.Node, name, kind)
	t.x2 = t
	t.scale = Vec2{1, 1}
	t.local = IdentityAffine
	t.global = IdentityAffine
}

// NewNode2D creates a 2D node with an identity transform.
func NewNode2D(name string) *Node2D {
	t := &Node2D{}
	initNode2D(t, name, KindNode2D)
	return t
}

// NewControl creates a UI node with an identity transform and zero size.
func NewControl(name string) *Control {
	c := &Control{}
	initNode2D(&c.Node2D, name, KindControl)
	return c
}

// --- Local properties ---

// Position returns the local position.
func (t *Node2D) Position() Vec2 { return t.position }

// Rotation returns the local rotation in radians.
func (t *Node2D) Rotation() float64 { return t.rotation }

// Scale returns the local scale.
func (t *Node2D) Scale() Vec2 { return t.scale }

// Skew returns the local skew angles in radians.
func (t *Node2D) Skew() Vec2 { return t.skew }

// Pivot returns the local pivot, the point scaled and rotated around.
func (t *Node2D) Pivot() Vec2 { return t.pivot }

// SetPosition sets the local position.
func (t *Node2D) SetPosition(p Vec2) {
	t.position = p
	markTransformDirty(&t.Node)
}

// SetRotation sets the local rotation in radians.
func (t *Node2D) SetRotation(r float64) {
	t.rotation = r
	markTransformDirty(&t.Node)
}

// SetScale sets the local scale.
func (t *Node2D) SetScale(s Vec2) {
	t.scale = s
	markTransformDirty(&t.Node)
}

// SetSkew sets the local skew angles in radians.
func (t *Node2D) SetSkew(s Vec2) {
	t.skew = s
	markTransformDirty(&t.Node)
}

// SetPivot sets the local pivot.
func (t *Node2D) SetPivot(p Vec2) {
	t.pivot = p
	markTransformDirty(&t.Node)
}

// Translate offsets the local position by d.
func (t *Node2D) Translate(d Vec2) {
	t.SetPosition(t.position.Add(d))
}

// Rotate adds r radians to the local rotation.
func (t *Node2D) Rotate(r float64) {
	t.SetRotation(t.rotation + r)
}

// LocalTransform returns the local matrix, recomputing it if stale. It never
// touches ancestors or descendants.
func (t *Node2D) LocalTransform() Affine {
	if t.localDirty {
		t.local = composeAffine(t.position, t.rotation, t.scale, t.skew, t.pivot)
		t.localDirty = false
	}
	return t.local
}

// --- Global properties ---

// GlobalTransform returns the global matrix: the parent's global matrix
// composed with the local one when the parent is a 2D node, otherwise the
// local matrix.
func (t *Node2D) GlobalTransform() Affine {
	if !t.globalDirty {
		return t.global
	}
	local := t.LocalTransform()
	if p := t.parent2D(); p != nil {
		t.global = p.GlobalTransform().Mul(local)
	} else {
		t.global = local
	}
	t.globalDirty = false
	return t.global
}

// SetGlobalTransform sets the local properties so that the global matrix
// equals m. Y skew and any shear is folded into rotation and x skew.
func (t *Node2D) SetGlobalTransform(m Affine) {
	local := t.parentGlobal().Inverse().Mul(m)
	t.setFromLocalMatrix(local)
}

// GlobalPosition returns the local position mapped into global space.
func (t *Node2D) GlobalPosition() Vec2 {
	return t.parentGlobal().Apply(t.position)
}

// SetGlobalPosition back-solves the local position from a global one.
func (t *Node2D) SetGlobalPosition(p Vec2) {
	t.SetPosition(t.parentGlobal().Inverse().Apply(p))
}

// GlobalRotation returns the rotation of the global matrix.
func (t *Node2D) GlobalRotation() float64 {
	return t.GlobalTransform().Rotation()
}

// SetGlobalRotation changes the local rotation so the global rotation becomes
// r, keeping the global scale and skew. Position is unchanged.
func (t *Node2D) SetGlobalRotation(r float64) {
	g := t.GlobalTransform()
	t.setGlobalLinear(r, g.Scale(), g.SkewX())
}

// GlobalScale returns the scale of the global matrix.
func (t *Node2D) GlobalScale() Vec2 {
	return t.GlobalTransform().Scale()
}

// SetGlobalScale changes the local scale so the global scale becomes s,
// keeping the global rotation and skew. Position is unchanged.
func (t *Node2D) SetGlobalScale(s Vec2) {
	g := t.GlobalTransform()
	t.setGlobalLinear(g.Rotation(), s, g.SkewX())
}

// ToGlobal maps a point from this node's local space to global space.
func (t *Node2D) ToGlobal(p Vec2) Vec2 {
	return t.GlobalTransform().Apply(p)
}

// ToLocal maps a global point into this node's local space.
func (t *Node2D) ToLocal(p Vec2) Vec2 {
	return t.GlobalTransform().Inverse().Apply(p)
}

// --- Helpers ---

func (t *Node2D) parent2D() *Node2D {
	if t.parent == nil {
		return nil
	}
	return t.parent.x2
}

func (t *Node2D) parentGlobal() Affine {
	if p := t.parent2D(); p != nil {
		return p.GlobalTransform()
	}
	return IdentityAffine
}

func (t *Node2D) setGlobalLinear(rotation float64, scale Vec2, skewX float64) {
	g := composeAffine(Vec2{}, rotation, scale, Vec2{X: skewX}, Vec2{})
	local := t.parentGlobal().Inverse().Mul(g)
	r, s, k := local.decomposeLinear()
	t.rotation = r
	t.scale = s
	t.skew = Vec2{X: k}
	markTransformDirty(&t.Node)
}

// setFromLocalMatrix decomposes m into local properties, keeping the pivot.
func (t *Node2D) setFromLocalMatrix(m Affine) {
	r, s, k := m.decomposeLinear()
	t.rotation = r
	t.scale = s
	t.skew = Vec2{X: k}
	// m.tx = pos - linear*pivot, so add the pivot back.
	lin := Affine{m[0], m[1], m[2], m[3], 0, 0}
	off := lin.Apply(t.pivot)
	t.position = Vec2{m[4] + off.X, m[5] + off.Y}
	markTransformDirty(&t.Node)
}

// --- Control ---

// Size returns the control's size.
func (c *Control) Size() Vec2 { return c.size }

// SetSize sets the control's size. Size does not affect the transform.
func (c *Control) SetSize(s Vec2) { c.size = s }

// HasPoint reports whether a global point falls inside the control's
// rectangle (origin at the local origin, extending by Size).
func (c *Control) HasPoint(global Vec2) bool {
	p := c.ToLocal(global)
	return p.X >= 0 && p.Y >= 0 && p.X <= c.size.X && p.Y <= c.size.Y
}
