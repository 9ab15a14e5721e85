package canopy

import "github.com/go-gl/mathgl/mgl64"

// Node3D is a node with a 3D transform. Rotation is stored as Euler angles
// in radians applied in XYZ order (R = Rx * Ry * Rz); the local matrix is
// T * R * S.
//
// Global setters decompose the target global matrix into translation,
// rotation and scale. The decomposition is exact only when the accumulated
// scale chain contains no shear, which non-uniform scale under rotation
// introduces; the result is then the closest rotation-scale split, not an
// exact inverse.
//
// The node's forward axis is -Z.
type Node3D struct {
	Node

	position mgl64.Vec3
	rotation mgl64.Vec3
	scale    mgl64.Vec3

	local  mgl64.Mat4
	global mgl64.Mat4
}

// NewNode3D creates a 3D node with an identity transform.
func NewNode3D(name string) *Node3D {
	t := &Node3D{}
	nodeDefaults(&t.Node, name, KindNode3D)
	t.x3 = t
	t.scale = mgl64.Vec3{1, 1, 1}
	t.local = mgl64.Ident4()
	t.global = mgl64.Ident4()
	return t
}

// --- Local properties ---

// Position returns the local position.
func (t *Node3D) Position() mgl64.Vec3 { return t.position }

// Rotation returns the local Euler rotation (XYZ order, radians).
func (t *Node3D) Rotation() mgl64.Vec3 { return t.rotation }

// Scale returns the local scale.
func (t *Node3D) Scale() mgl64.Vec3 { return t.scale }

// Quaternion returns the local rotation as a quaternion.
func (t *Node3D) Quaternion() mgl64.Quat {
	return mgl64.Mat4ToQuat(eulerMatrix(t.rotation))
}

// SetPosition sets the local position.
func (t *Node3D) SetPosition(p mgl64.Vec3) {
	t.position = p
	markTransformDirty(&t.Node)
}

// SetRotation sets the local Euler rotation (XYZ order, radians).
func (t *Node3D) SetRotation(r mgl64.Vec3) {
	t.rotation = r
	markTransformDirty(&t.Node)
}

// SetQuaternion sets the local rotation from a quaternion.
func (t *Node3D) SetQuaternion(q mgl64.Quat) {
	t.SetRotation(eulerFromMatrix(q.Normalize().Mat4()))
}

// SetScale sets the local scale.
func (t *Node3D) SetScale(s mgl64.Vec3) {
	t.scale = s
	markTransformDirty(&t.Node)
}

// Translate offsets the local position by d.
func (t *Node3D) Translate(d mgl64.Vec3) {
	t.SetPosition(t.position.Add(d))
}

// LocalTransform returns the local T * R * S matrix, recomputing it if
// stale. It never touches ancestors or descendants.
func (t *Node3D) LocalTransform() mgl64.Mat4 {
	if t.localDirty {
		t.local = composeMat4(t.position, t.rotation, t.scale)
		t.localDirty = false
	}
	return t.local
}

// --- Global properties ---

// GlobalTransform returns the global matrix: the parent's global matrix
// times the local one when the parent is a 3D node, otherwise the local
// matrix.
func (t *Node3D) GlobalTransform() mgl64.Mat4 {
	if !t.globalDirty {
		return t.global
	}
	local := t.LocalTransform()
	if p := t.parent3D(); p != nil {
		t.global = p.GlobalTransform().Mul4(local)
	} else {
		t.global = local
	}
	t.globalDirty = false
	return t.global
}

// SetGlobalTransform sets the local properties so the global matrix equals m
// (up to the limits of decomposition).
func (t *Node3D) SetGlobalTransform(m mgl64.Mat4) {
	t.setFromLocalMatrix(t.parentGlobal().Inv().Mul4(m))
}

// GlobalPosition returns the translation of the global matrix.
func (t *Node3D) GlobalPosition() mgl64.Vec3 {
	return t.GlobalTransform().Col(3).Vec3()
}

// SetGlobalPosition back-solves the local position from a global one.
func (t *Node3D) SetGlobalPosition(p mgl64.Vec3) {
	t.SetPosition(mgl64.TransformCoordinate(p, t.parentGlobal().Inv()))
}

// GlobalRotation returns the global rotation as Euler angles (XYZ order).
func (t *Node3D) GlobalRotation() mgl64.Vec3 {
	_, rot, _ := decomposeMat4(t.GlobalTransform())
	return eulerFromMatrix(rot)
}

// GlobalQuaternion returns the global rotation as a quaternion.
func (t *Node3D) GlobalQuaternion() mgl64.Quat {
	_, rot, _ := decomposeMat4(t.GlobalTransform())
	return mgl64.Mat4ToQuat(rot)
}

// SetGlobalRotation changes the local rotation so the global rotation
// becomes r, keeping the global position and scale.
func (t *Node3D) SetGlobalRotation(r mgl64.Vec3) {
	pos, _, scale := decomposeMat4(t.GlobalTransform())
	t.SetGlobalTransform(composeMat4(pos, r, scale))
}

// GlobalScale returns the scale of the global matrix.
func (t *Node3D) GlobalScale() mgl64.Vec3 {
	_, _, scale := decomposeMat4(t.GlobalTransform())
	return scale
}

// SetGlobalScale changes the local scale so the global scale becomes s,
// keeping the global position and rotation.
func (t *Node3D) SetGlobalScale(s mgl64.Vec3) {
	pos, rot, _ := decomposeMat4(t.GlobalTransform())
	m := mgl64.Translate3D(pos[0], pos[1], pos[2]).Mul4(rot).Mul4(mgl64.Scale3D(s[0], s[1], s[2]))
	t.SetGlobalTransform(m)
}

// ToGlobal maps a point from local space to global space.
func (t *Node3D) ToGlobal(p mgl64.Vec3) mgl64.Vec3 {
	return mgl64.TransformCoordinate(p, t.GlobalTransform())
}

// ToLocal maps a global point into local space.
func (t *Node3D) ToLocal(p mgl64.Vec3) mgl64.Vec3 {
	return mgl64.TransformCoordinate(p, t.GlobalTransform().Inv())
}

// Basis returns the global right (+X), up (+Y) and back (+Z) axes, normalized.
func (t *Node3D) Basis() (right, up, back mgl64.Vec3) {
	g := t.GlobalTransform()
	return g.Col(0).Vec3().Normalize(), g.Col(1).Vec3().Normalize(), g.Col(2).Vec3().Normalize()
}

// Forward returns the global forward direction (-Z), normalized.
func (t *Node3D) Forward() mgl64.Vec3 {
	_, _, back := t.Basis()
	return back.Mul(-1)
}

// LookAt rotates the node so its forward axis (-Z) points from its global
// position toward target, with up as the approximate up direction. The
// result is stored as local Euler angles and pushed to the render proxy
// immediately. If target coincides with the node's position, or the view
// direction is parallel to up, the rotation is left unchanged.
func (t *Node3D) LookAt(target, up mgl64.Vec3) {
	pos, _, scale := decomposeMat4(t.GlobalTransform())
	back := pos.Sub(target)
	if back.Len() < 1e-12 {
		return
	}
	back = back.Normalize()
	right := up.Cross(back)
	if right.Len() < 1e-12 {
		return
	}
	right = right.Normalize()
	newUp := back.Cross(right)

	rot := mgl64.Ident4()
	rot.SetCol(0, right.Vec4(0))
	rot.SetCol(1, newUp.Vec4(0))
	rot.SetCol(2, back.Vec4(0))

	m := mgl64.Translate3D(pos[0], pos[1], pos[2]).Mul4(rot).Mul4(mgl64.Scale3D(scale[0], scale[1], scale[2]))
	t.SetGlobalTransform(m)
	t.PushTransform()
}

// --- Helpers ---

func (t *Node3D) parent3D() *Node3D {
	if t.parent == nil {
		return nil
	}
	return t.parent.x3
}

func (t *Node3D) parentGlobal() mgl64.Mat4 {
	if p := t.parent3D(); p != nil {
		return p.GlobalTransform()
	}
	return mgl64.Ident4()
}

func (t *Node3D) setFromLocalMatrix(m mgl64.Mat4) {
	pos, rot, scale := decomposeMat4(m)
	t.position = pos
	t.rotation = eulerFromMatrix(rot)
	t.scale = scale
	markTransformDirty(&t.Node)
}
