// Package portal implements axis-aligned portals: rectangular openings that
// a light is only visible through, used to importance-sample that light from
// the far side of the opening.
package portal

import (
	"errors"
	"math"

	"github.com/df07/go-portal-raytracer/pkg/core"
	"github.com/df07/go-portal-raytracer/pkg/geometry"
)

var (
	// ErrLightInFront is returned when the light is not behind the portal
	ErrLightInFront = errors.New("light is not behind the portal")
	// ErrNotParallel marks a light rectangle that is not parallel to the portal
	ErrNotParallel = errors.New("light rectangle is not axis aligned with the portal")
)

// rect is an axis-aligned rectangle in the portal's object space
type rect struct {
	lo0, hi0 float64 // extent along Ax0
	lo1, hi1 float64 // extent along Ax1
	plane    float64 // coordinate along Axis
}

func (r rect) center(p *Portal) core.Vec3 {
	return core.Vec3{}.
		WithAxis(p.Aperture.Ax0, 0.5*(r.lo0+r.hi0)).
		WithAxis(p.Aperture.Ax1, 0.5*(r.lo1+r.hi1)).
		WithAxis(p.Aperture.Axis, r.plane)
}

func (r rect) corners(p *Portal) [4]core.Vec3 {
	ap := p.Aperture
	mk := func(a, b float64) core.Vec3 {
		return core.Vec3{}.WithAxis(ap.Ax0, a).WithAxis(ap.Ax1, b).WithAxis(ap.Axis, r.plane)
	}
	return [4]core.Vec3{mk(r.lo0, r.lo1), mk(r.hi0, r.lo1), mk(r.hi0, r.hi1), mk(r.lo0, r.hi1)}
}

// frustum is the region beyond the portal from which the light rectangle is
// visible through it, bounded by four planes in portal object space
type frustum struct {
	normals [4]core.Vec3
	points  [4]core.Vec3
}

// Portal is an immutable aperture paired with the light it gates. All
// frustum, gate and projection math happens in the portal's object space.
type Portal struct {
	Aperture *geometry.Aperture

	portal   rect
	light    rect
	hasLight bool // light is a rectangle parallel to the portal
	cull     bool // frustum test enabled
	frustum  frustum
	minCos   float64
}

// New creates a portal. light may be nil when the gated emitter is not a
// rectangle (an infinite light for instance); frustum, gate and projection
// are then unavailable. A light rectangle that is not parallel to the portal
// is reported with ErrNotParallel alongside a usable portal.
func New(aperture *geometry.Aperture, light *geometry.Aperture, useFrustum bool) (*Portal, error) {
	p := &Portal{
		Aperture: aperture,
		portal: rect{
			lo0:   aperture.Lo.Axis(aperture.Ax0),
			hi0:   aperture.Hi.Axis(aperture.Ax0),
			lo1:   aperture.Lo.Axis(aperture.Ax1),
			hi1:   aperture.Hi.Axis(aperture.Ax1),
			plane: aperture.Lo.Axis(aperture.Axis),
		},
		minCos: -1,
	}
	if light == nil {
		return p, nil
	}

	if light.Center().Subtract(aperture.Center()).Dot(aperture.Normal()) >= 0 {
		return nil, ErrLightInFront
	}

	lr, ok := p.toObjectRect(light)
	if !ok {
		return p, ErrNotParallel
	}
	p.light = lr
	p.hasLight = true
	p.cull = useFrustum
	p.frustum = p.buildFrustum()
	p.minCos = p.computeMinCos()
	return p, nil
}

// NewPoint creates a portal for a point light at light. The frustum is the
// pyramid from the light through the portal rectangle; the cosine gate and
// projection sampling are unavailable.
func NewPoint(aperture *geometry.Aperture, light core.Vec3, useFrustum bool) (*Portal, error) {
	p, _ := New(aperture, nil, false)
	if light.Subtract(aperture.Center()).Dot(aperture.Normal()) >= 0 {
		return nil, ErrLightInFront
	}
	p.cull = useFrustum
	p.frustum = p.buildPointFrustum(aperture.WorldToObject().Point(light))
	return p, nil
}

// toObjectRect re-expresses a light rectangle in portal object space. It
// fails unless the light stays an axis-aligned rectangle on a plane parallel
// to the portal.
func (p *Portal) toObjectRect(light *geometry.Aperture) (rect, bool) {
	rel := p.Aperture.WorldToObject().Compose(light.ObjectToWorld())
	if _, ok := rel.AxisPermutation(); !ok {
		return rect{}, false
	}
	n := rel.Vector(light.ObjectNormal())
	if math.Abs(math.Abs(n.Axis(p.Aperture.Axis))-1) > 1e-6 {
		return rect{}, false
	}

	ap := p.Aperture
	wc := light.Corners()
	first := p.Aperture.WorldToObject().Point(wc[0])
	r := rect{
		lo0: first.Axis(ap.Ax0), hi0: first.Axis(ap.Ax0),
		lo1: first.Axis(ap.Ax1), hi1: first.Axis(ap.Ax1),
		plane: first.Axis(ap.Axis),
	}
	for _, c := range wc[1:] {
		o := p.Aperture.WorldToObject().Point(c)
		r.lo0 = math.Min(r.lo0, o.Axis(ap.Ax0))
		r.hi0 = math.Max(r.hi0, o.Axis(ap.Ax0))
		r.lo1 = math.Min(r.lo1, o.Axis(ap.Ax1))
		r.hi1 = math.Max(r.hi1, o.Axis(ap.Ax1))
	}
	return r, true
}

// buildFrustum derives each plane from one rule: it contains a portal edge
// and the light edge on the opposite side along the same axis, and its
// normal is oriented so a point beyond the portal on the line through both
// centers is inside.
func (p *Portal) buildFrustum() frustum {
	ap := p.Aperture
	pc := p.portal.center(p)
	lc := p.light.center(p)
	interior := pc.Add(pc.Subtract(lc).Multiply(0.5))

	type edge struct {
		axis, along    int
		portal, light float64
	}
	edges := [4]edge{
		{ap.Ax0, ap.Ax1, p.portal.hi0, p.light.lo0},
		{ap.Ax0, ap.Ax1, p.portal.lo0, p.light.hi0},
		{ap.Ax1, ap.Ax0, p.portal.hi1, p.light.lo1},
		{ap.Ax1, ap.Ax0, p.portal.lo1, p.light.hi1},
	}

	var f frustum
	for i, e := range edges {
		onPortal := pc.WithAxis(e.axis, e.portal)
		onLight := lc.WithAxis(e.axis, e.light)
		edgeDir := core.Vec3{}.WithAxis(e.along, 1)
		n := edgeDir.Cross(onPortal.Subtract(onLight)).Normalize()
		if onPortal.Subtract(interior).Dot(n) < 0 {
			n = n.Negate()
		}
		f.normals[i] = n
		f.points[i] = onPortal
	}
	return f
}

// buildPointFrustum is buildFrustum with the light rectangle shrunk to the
// point apex: each plane holds a portal edge and the apex.
func (p *Portal) buildPointFrustum(apex core.Vec3) frustum {
	ap := p.Aperture
	pc := p.portal.center(p)
	interior := pc.Add(pc.Subtract(apex).Multiply(0.5))

	type edge struct {
		axis, along int
		portal      float64
	}
	edges := [4]edge{
		{ap.Ax0, ap.Ax1, p.portal.hi0},
		{ap.Ax0, ap.Ax1, p.portal.lo0},
		{ap.Ax1, ap.Ax0, p.portal.hi1},
		{ap.Ax1, ap.Ax0, p.portal.lo1},
	}

	var f frustum
	for i, e := range edges {
		onPortal := pc.WithAxis(e.axis, e.portal)
		edgeDir := core.Vec3{}.WithAxis(e.along, 1)
		n := edgeDir.Cross(onPortal.Subtract(apex)).Normalize()
		if onPortal.Subtract(interior).Dot(n) < 0 {
			n = n.Negate()
		}
		f.normals[i] = n
		f.points[i] = onPortal
	}
	return f
}

// computeMinCos is the smallest cosine against the portal axis over all
// directions joining a light corner to a portal corner. Light passing through
// the portal never arrives more obliquely than this.
func (p *Portal) computeMinCos() float64 {
	axis := p.Aperture.Axis
	minCos := 1.0
	for _, lc := range p.light.corners(p) {
		for _, pc := range p.portal.corners(p) {
			d := pc.Subtract(lc)
			if l := d.Length(); l > 0 {
				minCos = math.Min(minCos, math.Abs(d.Axis(axis))/l)
			}
		}
	}
	return minCos
}

// HasLightRect reports whether the light is a parallel rectangle, which
// frustum culling, the cosine gate and projection sampling require
func (p *Portal) HasLightRect() bool {
	return p.hasLight
}

// Culling reports whether the frustum test is active
func (p *Portal) Culling() bool {
	return p.cull
}

// MinCosine returns the visibility gate threshold
func (p *Portal) MinCosine() float64 {
	return p.minCos
}

// Normal returns the portal's world-space normal, pointing away from the light
func (p *Portal) Normal() core.Vec3 {
	return p.Aperture.Normal()
}

// InFront reports whether point is on the far side of the portal from the light
func (p *Portal) InFront(point core.Vec3) bool {
	return p.Aperture.InFront(point)
}

// InFrustum reports whether the light may be visible through the portal from
// point. Points on the light's side of the portal are always inside; with
// culling disabled every point is inside.
func (p *Portal) InFrustum(point core.Vec3) bool {
	if !p.cull || !p.InFront(point) {
		return true
	}
	obj := p.Aperture.WorldToObject().Point(point)
	for i := range p.frustum.normals {
		if p.frustum.points[i].Subtract(obj).Dot(p.frustum.normals[i]) < 0 {
			return false
		}
	}
	return true
}

// PassesGate reports whether some direction from point through the portal is
// at least as steep as MinCosine. It is always true without a light rectangle.
func (p *Portal) PassesGate(point core.Vec3) bool {
	if !p.hasLight {
		return true
	}
	ap := p.Aperture
	obj := ap.WorldToObject().Point(point)
	h := math.Abs(obj.Axis(ap.Axis) - p.portal.plane)
	if h == 0 {
		return false
	}
	du := obj.Axis(ap.Ax0) - clamp(obj.Axis(ap.Ax0), p.portal.lo0, p.portal.hi0)
	dv := obj.Axis(ap.Ax1) - clamp(obj.Axis(ap.Ax1), p.portal.lo1, p.portal.hi1)
	cosMax := h / math.Sqrt(h*h+du*du+dv*dv)
	return cosMax >= p.minCos-1e-12
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
