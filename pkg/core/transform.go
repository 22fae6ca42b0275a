package core

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	// ErrSingularTransform is returned when a matrix has no inverse
	ErrSingularTransform = errors.New("transform matrix is singular")
	// ErrNonRigidTransform is returned when a transform scales, shears or projects
	ErrNonRigidTransform = errors.New("transform is not rigid")
)

const rigidTolerance = 1e-6

// Transform is a 4x4 affine matrix carried together with its inverse
type Transform struct {
	m   mgl64.Mat4
	inv mgl64.Mat4
}

// IdentityTransform returns the identity transform
func IdentityTransform() Transform {
	return Transform{m: mgl64.Ident4(), inv: mgl64.Ident4()}
}

// NewTransform wraps m and computes its inverse
func NewTransform(m mgl64.Mat4) (Transform, error) {
	if math.Abs(m.Det()) < 1e-12 {
		return Transform{}, ErrSingularTransform
	}
	return Transform{m: m, inv: m.Inv()}, nil
}

// NewRigidTransform wraps m after checking it is a rotation plus translation
func NewRigidTransform(m mgl64.Mat4) (Transform, error) {
	t, err := NewTransform(m)
	if err != nil {
		return Transform{}, err
	}
	if !t.IsRigid() {
		return Transform{}, fmt.Errorf("%w: %v", ErrNonRigidTransform, m)
	}
	return t, nil
}

// Translate returns a translation by v
func Translate(v Vec3) Transform {
	return Transform{
		m:   mgl64.Translate3D(v.X, v.Y, v.Z),
		inv: mgl64.Translate3D(-v.X, -v.Y, -v.Z),
	}
}

// Rotate returns a rotation of degrees around axis
func Rotate(degrees float64, axis Vec3) Transform {
	a := axis.Normalize()
	m := mgl64.HomogRotate3D(mgl64.DegToRad(degrees), mgl64.Vec3{a.X, a.Y, a.Z})
	return Transform{m: m, inv: m.Transpose()}
}

// Scale returns a non-uniform scale
func Scale(x, y, z float64) (Transform, error) {
	return NewTransform(mgl64.Scale3D(x, y, z))
}

// LookAt returns the camera-to-world transform for a camera at eye looking at
// center. Camera space looks down -Z with +Y up.
func LookAt(eye, center, up Vec3) (Transform, error) {
	if eye.Subtract(center).LengthSquared() == 0 {
		return Transform{}, errors.New("look-at eye and center coincide")
	}
	if eye.Subtract(center).Cross(up).LengthSquared() == 0 {
		return Transform{}, errors.New("look-at up vector parallel to view direction")
	}
	view := mgl64.LookAtV(
		mgl64.Vec3{eye.X, eye.Y, eye.Z},
		mgl64.Vec3{center.X, center.Y, center.Z},
		mgl64.Vec3{up.X, up.Y, up.Z},
	)
	return Transform{m: view.Inv(), inv: view}, nil
}

// Matrix returns the forward matrix
func (t Transform) Matrix() mgl64.Mat4 {
	return t.m
}

// Inverse returns the inverse transform
func (t Transform) Inverse() Transform {
	return Transform{m: t.inv, inv: t.m}
}

// Compose returns t applied after o
func (t Transform) Compose(o Transform) Transform {
	return Transform{m: t.m.Mul4(o.m), inv: o.inv.Mul4(t.inv)}
}

// Point transforms a point
func (t Transform) Point(p Vec3) Vec3 {
	r := t.m.Mul4x1(mgl64.Vec4{p.X, p.Y, p.Z, 1})
	if r[3] != 1 && r[3] != 0 {
		return NewVec3(r[0]/r[3], r[1]/r[3], r[2]/r[3])
	}
	return NewVec3(r[0], r[1], r[2])
}

// Vector transforms a direction, ignoring translation
func (t Transform) Vector(v Vec3) Vec3 {
	r := t.m.Mul4x1(mgl64.Vec4{v.X, v.Y, v.Z, 0})
	return NewVec3(r[0], r[1], r[2])
}

// Normal transforms a surface normal by the inverse transpose
func (t Transform) Normal(n Vec3) Vec3 {
	r := t.inv.Transpose().Mul4x1(mgl64.Vec4{n.X, n.Y, n.Z, 0})
	return NewVec3(r[0], r[1], r[2])
}

// Ray transforms a ray's origin and direction. TMax is preserved, which is
// only meaningful for rigid transforms.
func (t Transform) Ray(r Ray) Ray {
	r.Origin = t.Point(r.Origin)
	r.Direction = t.Vector(r.Direction)
	return r
}

// IsIdentity reports whether the forward matrix is the identity
func (t Transform) IsIdentity() bool {
	return t.m.ApproxEqualThreshold(mgl64.Ident4(), 1e-12)
}

// IsRigid reports whether the transform preserves lengths and angles
func (t Transform) IsRigid() bool {
	for col := 0; col < 3; col++ {
		if math.Abs(t.m.At(3, col)) > rigidTolerance {
			return false
		}
	}
	if math.Abs(t.m.At(3, 3)-1) > rigidTolerance {
		return false
	}
	r := t.m.Mat3()
	return r.Mul3(r.Transpose()).ApproxEqualThreshold(mgl64.Ident3(), rigidTolerance)
}

// AxisPermutation reports, for a rigid transform whose rotation only permutes
// and flips coordinate axes, which source axis each output axis comes from.
// ok is false for any other rotation.
func (t Transform) AxisPermutation() (perm [3]int, ok bool) {
	r := t.m.Mat3()
	for row := 0; row < 3; row++ {
		found := -1
		for col := 0; col < 3; col++ {
			v := r.At(row, col)
			switch {
			case math.Abs(math.Abs(v)-1) < rigidTolerance:
				if found >= 0 {
					return perm, false
				}
				found = col
			case math.Abs(v) > rigidTolerance:
				return perm, false
			}
		}
		if found < 0 {
			return perm, false
		}
		perm[row] = found
	}
	return perm, true
}
