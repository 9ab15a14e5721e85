package canopy

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Affine is a 2D affine matrix stored as [a, b, c, d, tx, ty]:
//
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
type Affine [6]float64

// IdentityAffine is the identity affine matrix.
var IdentityAffine = Affine{1, 0, 0, 1, 0, 0}

// composeAffine builds a local matrix from transform properties.
//
// Composition order:
//
//	Translate(-pivot) -> Scale -> Skew -> Rotate -> Translate(pos)
//
// With zero pivot and skew this is the plain scale, rotate, translate order.
func composeAffine(pos Vec2, rotation float64, scale, skew, pivot Vec2) Affine {
	sx := scale.X
	sy := scale.Y

	sin, cos := math.Sincos(rotation)

	var tanSkewX, tanSkewY float64
	if skew.X != 0 {
		tanSkewX = math.Tan(skew.X)
	}
	if skew.Y != 0 {
		tanSkewY = math.Tan(skew.Y)
	}

	// After Scale and Skew:
	a := sx
	b := tanSkewY * sx
	c := tanSkewX * sy
	d := sy

	preTx := -pivot.X*sx - tanSkewX*pivot.Y*sy
	preTy := -tanSkewY*pivot.X*sx - pivot.Y*sy

	// After Rotate:
	ra := cos*a - sin*b
	rb := sin*a + cos*b
	rc := cos*c - sin*d
	rd := sin*c + cos*d
	rtx := cos*preTx - sin*preTy
	rty := sin*preTx + cos*preTy

	return Affine{ra, rb, rc, rd, rtx + pos.X, rty + pos.Y}
}

// Mul returns p * c: c is applied first, then p.
func (p Affine) Mul(c Affine) Affine {
	return Affine{
		p[0]*c[0] + p[2]*c[1],
		p[1]*c[0] + p[3]*c[1],
		p[0]*c[2] + p[2]*c[3],
		p[1]*c[2] + p[3]*c[3],
		p[0]*c[4] + p[2]*c[5] + p[4],
		p[1]*c[4] + p[3]*c[5] + p[5],
	}
}

// Determinant returns the determinant of the linear part.
func (m Affine) Determinant() float64 {
	return m[0]*m[3] - m[2]*m[1]
}

// Inverse returns the inverse matrix, or the identity if m is singular
// (determinant ≈ 0).
func (m Affine) Inverse() Affine {
	det := m.Determinant()
	if det > -1e-12 && det < 1e-12 {
		return IdentityAffine
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return Affine{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}
}

// Apply transforms a point.
func (m Affine) Apply(p Vec2) Vec2 {
	return Vec2{m[0]*p.X + m[2]*p.Y + m[4], m[1]*p.X + m[3]*p.Y + m[5]}
}

// ApplyVector transforms a direction, ignoring translation.
func (m Affine) ApplyVector(v Vec2) Vec2 {
	return Vec2{m[0]*v.X + m[2]*v.Y, m[1]*v.X + m[3]*v.Y}
}

// Origin returns the translation component.
func (m Affine) Origin() Vec2 { return Vec2{m[4], m[5]} }

// Rotation returns the angle of the x basis vector.
func (m Affine) Rotation() float64 {
	return math.Atan2(m[1], m[0])
}

// Scale returns the scale of the matrix. X is always non-negative; a
// reflection shows up as a negative Y.
func (m Affine) Scale() Vec2 {
	sx := math.Hypot(m[0], m[1])
	if sx == 0 {
		return Vec2{0, math.Hypot(m[2], m[3])}
	}
	return Vec2{sx, m.Determinant() / sx}
}

// SkewX returns the x skew angle left over once rotation and scale are
// factored out. Shear introduced by non-uniform scale under rotation ends up
// here; Y skew is always folded into rotation and SkewX.
func (m Affine) SkewX() float64 {
	sy := m.Scale().Y
	if sy == 0 {
		return 0
	}
	sin, cos := math.Sincos(m.Rotation())
	x := cos*m[2] + sin*m[3]
	return math.Atan(x / sy)
}

// decomposeLinear factors the linear part of m into rotation, scale and x
// skew such that composeAffine reproduces it with zero pivot and Y skew.
func (m Affine) decomposeLinear() (rotation float64, scale Vec2, skewX float64) {
	return m.Rotation(), m.Scale(), m.SkewX()
}

// Mat4 embeds the affine matrix in a 4x4 matrix acting on the XY plane.
func (m Affine) Mat4() mgl64.Mat4 {
	// mgl64 is column-major.
	return mgl64.Mat4{
		m[0], m[1], 0, 0,
		m[2], m[3], 0, 0,
		0, 0, 1, 0,
		m[4], m[5], 0, 1,
	}
}

// AffineFromMat4 extracts the XY-plane affine part of a 4x4 matrix.
func AffineFromMat4(m mgl64.Mat4) Affine {
	return Affine{m[0], m[1], m[4], m[5], m[12], m[13]}
}
