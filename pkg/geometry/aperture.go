package geometry

import (
	"errors"
	"fmt"

	"github.com/df07/go-portal-raytracer/pkg/core"
)

// ErrDegenerateAperture is returned for rectangles with no area
var ErrDegenerateAperture = errors.New("degenerate aperture")

// Aperture is a rectangle lying in a principal plane of its object space.
// Lo and Hi are opposite corners; the plane sits at Lo[Axis] and the
// rectangle spans [Lo, Hi] on the two remaining axes Ax0 and Ax1.
// World placement is carried by a single rigid object-to-world transform.
type Aperture struct {
	Lo, Hi        core.Vec3
	Axis          int
	Ax0, Ax1      int
	FacingForward bool

	area          float64
	objectToWorld core.Transform
	worldToObject core.Transform
	worldNormal   core.Vec3
}

// NewAperture creates an aperture whose object space is world space
func NewAperture(lo, hi core.Vec3, axis int, facingForward bool) (*Aperture, error) {
	return NewTransformedAperture(lo, hi, axis, facingForward, core.IdentityTransform())
}

// NewTransformedAperture creates an aperture placed in the world by objectToWorld,
// which must be rigid so areas and distances are preserved
func NewTransformedAperture(lo, hi core.Vec3, axis int, facingForward bool, objectToWorld core.Transform) (*Aperture, error) {
	if axis < 0 || axis > 2 {
		return nil, fmt.Errorf("%w: axis %d", ErrDegenerateAperture, axis)
	}
	if !objectToWorld.IsRigid() {
		return nil, core.ErrNonRigidTransform
	}

	a := &Aperture{
		Lo:            lo,
		Hi:            hi.WithAxis(axis, lo.Axis(axis)),
		Axis:          axis,
		Ax0:           (axis + 1) % 3,
		Ax1:           (axis + 2) % 3,
		FacingForward: facingForward,
		objectToWorld: objectToWorld,
		worldToObject: objectToWorld.Inverse(),
	}

	len0 := a.Hi.Axis(a.Ax0) - a.Lo.Axis(a.Ax0)
	len1 := a.Hi.Axis(a.Ax1) - a.Lo.Axis(a.Ax1)
	if len0 <= 0 || len1 <= 0 {
		return nil, fmt.Errorf("%w: lo %v hi %v", ErrDegenerateAperture, lo, hi)
	}
	a.area = len0 * len1
	a.worldNormal = objectToWorld.Normal(a.ObjectNormal()).Normalize()
	return a, nil
}

// Area returns the rectangle's area
func (a *Aperture) Area() float64 {
	return a.area
}

// ObjectNormal returns the unit normal in object space
func (a *Aperture) ObjectNormal() core.Vec3 {
	sign := -1.0
	if a.FacingForward {
		sign = 1.0
	}
	return core.Vec3{}.WithAxis(a.Axis, sign)
}

// Normal returns the unit world-space normal
func (a *Aperture) Normal() core.Vec3 {
	return a.worldNormal
}

// ObjectToWorld returns the placement transform
func (a *Aperture) ObjectToWorld() core.Transform {
	return a.objectToWorld
}

// WorldToObject returns the inverse placement transform
func (a *Aperture) WorldToObject() core.Transform {
	return a.worldToObject
}

// Center returns the world-space center of the rectangle
func (a *Aperture) Center() core.Vec3 {
	return a.objectToWorld.Point(a.Lo.Add(a.Hi).Multiply(0.5))
}

// Corners returns the four world-space corners in order lo, (hi0, lo1), hi, (lo0, hi1)
func (a *Aperture) Corners() [4]core.Vec3 {
	objCorners := [4]core.Vec3{
		a.Lo,
		a.Lo.WithAxis(a.Ax0, a.Hi.Axis(a.Ax0)),
		a.Hi,
		a.Lo.WithAxis(a.Ax1, a.Hi.Axis(a.Ax1)),
	}
	var out [4]core.Vec3
	for i, c := range objCorners {
		out[i] = a.objectToWorld.Point(c)
	}
	return out
}

// Bounds returns the world-space bounding box, padded so it is never flat
func (a *Aperture) Bounds() core.AABB {
	c := a.Corners()
	return core.NewAABBFromPoints(c[0], c[1], c[2], c[3]).Expand(1e-6)
}

// InFront reports whether p lies strictly on the side the normal points to
func (a *Aperture) InFront(p core.Vec3) bool {
	return p.Subtract(a.Center()).Dot(a.worldNormal) > 0
}

// Contains reports whether an object-space point on the plane lies within the rectangle
func (a *Aperture) Contains(objPoint core.Vec3) bool {
	u, v := objPoint.Axis(a.Ax0), objPoint.Axis(a.Ax1)
	return u >= a.Lo.Axis(a.Ax0) && u <= a.Hi.Axis(a.Ax0) &&
		v >= a.Lo.Axis(a.Ax1) && v <= a.Hi.Axis(a.Ax1)
}

// Intersect solves the single-axis plane equation t = (lo[ax] - o[ax]) / d[ax]
// in object space and tests the hit against the rectangle
func (a *Aperture) Intersect(ray core.Ray) (core.Interaction, bool) {
	objRay := a.worldToObject.Ray(ray)
	d := objRay.Direction.Axis(a.Axis)
	if d == 0 {
		return core.Interaction{}, false
	}

	t := (a.Lo.Axis(a.Axis) - objRay.Origin.Axis(a.Axis)) / d
	if t <= minT || t >= ray.TMax {
		return core.Interaction{}, false
	}

	objHit := objRay.At(t).WithAxis(a.Axis, a.Lo.Axis(a.Axis))
	if !a.Contains(objHit) {
		return core.Interaction{}, false
	}

	si := core.Interaction{
		Kind:        core.SurfaceInteraction,
		P:           a.objectToWorld.Point(objHit),
		Wo:          ray.Direction.Negate().Normalize(),
		T:           t,
		Time:        ray.Time,
		Wavelengths: ray.Wavelengths,
		UV:          a.objectUV(objHit),
		Area:        a.area,
	}
	si.SetFaceNormal(ray, a.worldNormal)
	return si, true
}

func (a *Aperture) objectUV(objPoint core.Vec3) core.Vec2 {
	return core.NewVec2(
		(objPoint.Axis(a.Ax0)-a.Lo.Axis(a.Ax0))/(a.Hi.Axis(a.Ax0)-a.Lo.Axis(a.Ax0)),
		(objPoint.Axis(a.Ax1)-a.Lo.Axis(a.Ax1))/(a.Hi.Axis(a.Ax1)-a.Lo.Axis(a.Ax1)),
	)
}

// UV returns the rectangle parameterization of a world-space point on the plane
func (a *Aperture) UV(p core.Vec3) core.Vec2 {
	return a.objectUV(a.worldToObject.Point(p))
}

// PointAt maps rectangle parameters in [0,1]^2 to a world-space point
func (a *Aperture) PointAt(uv core.Vec2) core.Vec3 {
	obj := a.Lo.
		WithAxis(a.Ax0, a.Lo.Axis(a.Ax0)+uv.X*(a.Hi.Axis(a.Ax0)-a.Lo.Axis(a.Ax0))).
		WithAxis(a.Ax1, a.Lo.Axis(a.Ax1)+uv.Y*(a.Hi.Axis(a.Ax1)-a.Lo.Axis(a.Ax1)))
	return a.objectToWorld.Point(obj)
}

// SampleArea picks a point uniformly over the rectangle
func (a *Aperture) SampleArea(u core.Vec2) (core.Vec3, core.Vec3, float64) {
	return a.PointAt(u), a.worldNormal, 1 / a.area
}

// SampleSolidAngle samples the rectangle by area and converts the density to
// solid angle at ref: pdf = d^2 / (|cos| * Area)
func (a *Aperture) SampleSolidAngle(ref core.Vec3, u core.Vec2) ShapeSample {
	p, n, areaPdf := a.SampleArea(u)
	wi, dist, pdf := AreaToSolidAngle(areaPdf, ref, p, n)
	return ShapeSample{Point: p, Normal: n, Direction: wi, Distance: dist, Pdf: pdf}
}

// PdfSolidAngle returns the solid angle density of sampling direction wi from ref
func (a *Aperture) PdfSolidAngle(ref, wi core.Vec3) float64 {
	return pdfByIntersection(a, ref, wi)
}
