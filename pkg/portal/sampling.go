package portal

import (
	"math"

	"github.com/df07/go-portal-raytracer/pkg/core"
	"github.com/df07/go-portal-raytracer/pkg/geometry"
)

// Sample is a direction sampled through the portal
type Sample struct {
	Wi    core.Vec3 // Unit direction from the reference point
	Point core.Vec3 // Point on the portal the direction passes through
	Pdf   float64   // Solid angle density; 0 marks a degenerate sample
}

// SamplePortal samples the portal rectangle uniformly by area and converts
// the density to solid angle at ref
func (p *Portal) SamplePortal(ref core.Vec3, u core.Vec2) Sample {
	s := p.Aperture.SampleSolidAngle(ref, u)
	return Sample{Wi: s.Direction, Point: s.Point, Pdf: s.Pdf}
}

// PdfPortal returns the density SamplePortal assigns to wi: the same
// conversion if the ray from ref along wi crosses the rectangle, else 0
func (p *Portal) PdfPortal(ref, wi core.Vec3) float64 {
	return p.Aperture.PdfSolidAngle(ref, wi)
}

// Projection is the part of the portal rectangle through which the light
// rectangle is seen from a reference point, in portal object coordinates
type Projection struct {
	Lo0, Hi0 float64
	Lo1, Hi1 float64
}

// Area returns the area of the projected region
func (pr Projection) Area() float64 {
	return (pr.Hi0 - pr.Lo0) * (pr.Hi1 - pr.Lo1)
}

// ProjectionBounds projects the light rectangle's corners through ref onto
// the portal plane and intersects the result with the portal rectangle.
// ok is false when there is no light rectangle, a projection direction is
// parallel to the portal, or the intersection is empty.
func (p *Portal) ProjectionBounds(ref core.Vec3) (Projection, bool) {
	if !p.hasLight {
		return Projection{}, false
	}
	ap := p.Aperture
	obj := ap.WorldToObject().Point(ref)
	h := obj.Axis(ap.Axis)

	denom := p.light.plane - h
	if denom == 0 || p.portal.plane == h {
		return Projection{}, false
	}
	// every light point projects with the same parameter since the planes are parallel
	t := (p.portal.plane - h) / denom
	if t <= 0 {
		return Projection{}, false
	}

	r0, r1 := obj.Axis(ap.Ax0), obj.Axis(ap.Ax1)
	a0 := r0 + t*(p.light.lo0-r0)
	b0 := r0 + t*(p.light.hi0-r0)
	a1 := r1 + t*(p.light.lo1-r1)
	b1 := r1 + t*(p.light.hi1-r1)

	pr := Projection{
		Lo0: math.Max(p.portal.lo0, math.Min(a0, b0)),
		Hi0: math.Min(p.portal.hi0, math.Max(a0, b0)),
		Lo1: math.Max(p.portal.lo1, math.Min(a1, b1)),
		Hi1: math.Min(p.portal.hi1, math.Max(a1, b1)),
	}
	if pr.Hi0 <= pr.Lo0 || pr.Hi1 <= pr.Lo1 {
		return Projection{}, false
	}
	return pr, true
}

// SampleProjection samples uniformly inside ProjectionBounds(ref) and converts
// the density to solid angle. Degenerate projections give a zero pdf.
func (p *Portal) SampleProjection(ref core.Vec3, u core.Vec2) Sample {
	pr, ok := p.ProjectionBounds(ref)
	if !ok {
		return Sample{}
	}
	ap := p.Aperture
	obj := core.Vec3{}.
		WithAxis(ap.Ax0, pr.Lo0+u.X*(pr.Hi0-pr.Lo0)).
		WithAxis(ap.Ax1, pr.Lo1+u.Y*(pr.Hi1-pr.Lo1)).
		WithAxis(ap.Axis, p.portal.plane)
	point := ap.ObjectToWorld().Point(obj)

	wi, _, pdf := geometry.AreaToSolidAngle(1/pr.Area(), ref, point, ap.Normal())
	return Sample{Wi: wi, Point: point, Pdf: pdf}
}

// PdfProjection returns the density SampleProjection assigns to wi
func (p *Portal) PdfProjection(ref, wi core.Vec3) float64 {
	pr, ok := p.ProjectionBounds(ref)
	if !ok {
		return 0
	}
	ap := p.Aperture
	o := ap.WorldToObject().Point(ref)
	d := ap.WorldToObject().Vector(wi)
	if d.Axis(ap.Axis) == 0 {
		return 0
	}
	t := (p.portal.plane - o.Axis(ap.Axis)) / d.Axis(ap.Axis)
	if t <= 0 {
		return 0
	}
	hit := o.Add(d.Multiply(t))
	u, v := hit.Axis(ap.Ax0), hit.Axis(ap.Ax1)
	if u < pr.Lo0 || u > pr.Hi0 || v < pr.Lo1 || v > pr.Hi1 {
		return 0
	}
	_, _, pdf := geometry.AreaToSolidAngle(1/pr.Area(), ref, ap.ObjectToWorld().Point(hit), ap.Normal())
	return pdf
}
