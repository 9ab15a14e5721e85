package canopy

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// composeMat4 returns T * R * S.
func composeMat4(pos, euler, scale mgl64.Vec3) mgl64.Mat4 {
	return mgl64.Translate3D(pos[0], pos[1], pos[2]).
		Mul4(eulerMatrix(euler)).
		Mul4(mgl64.Scale3D(scale[0], scale[1], scale[2]))
}

// eulerMatrix returns Rx * Ry * Rz.
func eulerMatrix(e mgl64.Vec3) mgl64.Mat4 {
	return mgl64.HomogRotate3DX(e[0]).
		Mul4(mgl64.HomogRotate3DY(e[1])).
		Mul4(mgl64.HomogRotate3DZ(e[2]))
}

// eulerFromMatrix extracts XYZ Euler angles from a pure rotation matrix.
// Near gimbal lock (|pitch| ≈ 90°) the Z angle is pinned to zero.
func eulerFromMatrix(m mgl64.Mat4) mgl64.Vec3 {
	m13 := clamp(m.At(0, 2), -1, 1)
	y := math.Asin(m13)
	if math.Abs(m13) < 1-1e-12 {
		return mgl64.Vec3{
			math.Atan2(-m.At(1, 2), m.At(2, 2)),
			y,
			math.Atan2(-m.At(0, 1), m.At(0, 0)),
		}
	}
	return mgl64.Vec3{math.Atan2(m.At(2, 1), m.At(1, 1)), y, 0}
}

// decomposeMat4 splits m into translation, a pure rotation matrix and scale.
// A negative determinant is attributed to the X axis.
func decomposeMat4(m mgl64.Mat4) (pos mgl64.Vec3, rot mgl64.Mat4, scale mgl64.Vec3) {
	pos = m.Col(3).Vec3()
	sx := m.Col(0).Vec3().Len()
	sy := m.Col(1).Vec3().Len()
	sz := m.Col(2).Vec3().Len()
	if m.Det() < 0 {
		sx = -sx
	}
	scale = mgl64.Vec3{sx, sy, sz}

	rot = mgl64.Ident4()
	for i, s := range [3]float64{sx, sy, sz} {
		col := m.Col(i).Vec3()
		if s != 0 {
			col = col.Mul(1 / s)
		}
		rot.SetCol(i, col.Vec4(0))
	}
	return pos, rot, scale
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
