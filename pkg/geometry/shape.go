package geometry

import (
	"github.com/df07/go-portal-raytracer/pkg/core"
)

// minT rejects hits at the ray origin
const minT = 1e-9

// ShapeSample is a point sampled on a shape as seen from a reference point
type ShapeSample struct {
	Point     core.Vec3 // Sampled point
	Normal    core.Vec3 // Surface normal at the point (outward)
	Direction core.Vec3 // Unit direction from the reference point to Point
	Distance  float64   // Distance from the reference point to Point
	Pdf       float64   // Density with respect to solid angle at the reference point; 0 for degenerate samples
}

// Shape is geometry that can be intersected and sampled
type Shape interface {
	// Intersect returns the closest hit with t in (0, ray.TMax)
	Intersect(ray core.Ray) (core.Interaction, bool)
	Bounds() core.AABB
	Area() float64
	// SampleArea picks a point uniformly by area; pdf is 1/Area
	SampleArea(u core.Vec2) (point, normal core.Vec3, pdf float64)
	// SampleSolidAngle picks a point as seen from ref with a solid angle density
	SampleSolidAngle(ref core.Vec3, u core.Vec2) ShapeSample
	// PdfSolidAngle returns the solid angle density SampleSolidAngle would assign to wi
	PdfSolidAngle(ref core.Vec3, wi core.Vec3) float64
}

// AreaToSolidAngle converts an area density to a solid angle density:
// pdf = d^2 / (|cos| * area-density^-1). Coincident points and grazing
// directions are degenerate and give 0.
func AreaToSolidAngle(areaPdf float64, ref, point, normal core.Vec3) (core.Vec3, float64, float64) {
	toPoint := point.Subtract(ref)
	distSq := toPoint.LengthSquared()
	if distSq == 0 {
		return core.Vec3{}, 0, 0
	}
	dist := toPoint.Length()
	wi := toPoint.Multiply(1 / dist)
	cos := normal.AbsDot(wi)
	if cos < 1e-8 {
		return wi, dist, 0
	}
	return wi, dist, areaPdf * distSq / cos
}

// pdfByIntersection implements PdfSolidAngle for shapes sampled by area
func pdfByIntersection(s Shape, ref, wi core.Vec3) float64 {
	hit, ok := s.Intersect(core.NewRay(ref, wi))
	if !ok {
		return 0
	}
	_, _, pdf := AreaToSolidAngle(1/s.Area(), ref, hit.P, hit.N)
	return pdf
}
