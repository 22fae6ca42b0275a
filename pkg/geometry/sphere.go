package geometry

import (
	"math"

	"github.com/df07/go-portal-raytracer/pkg/core"
)

// Sphere represents a sphere shape
type Sphere struct {
	Center core.Vec3
	Radius float64
}

// NewSphere creates a new sphere
func NewSphere(center core.Vec3, radius float64) *Sphere {
	return &Sphere{Center: center, Radius: radius}
}

// Intersect tests if a ray intersects with the sphere
func (s *Sphere) Intersect(ray core.Ray) (core.Interaction, bool) {
	// Quadratic equation coefficients: at² + 2·halfB·t + c = 0
	oc := ray.Origin.Subtract(s.Center)
	a := ray.Direction.LengthSquared()
	halfB := oc.Dot(ray.Direction)
	c := oc.LengthSquared() - s.Radius*s.Radius

	discriminant := halfB*halfB - a*c
	if discriminant < 0 || a == 0 {
		return core.Interaction{}, false
	}
	sqrtD := math.Sqrt(discriminant)

	// Try the closer intersection point first
	root := (-halfB - sqrtD) / a
	if root <= minT || root >= ray.TMax {
		root = (-halfB + sqrtD) / a
		if root <= minT || root >= ray.TMax {
			return core.Interaction{}, false
		}
	}

	p := ray.At(root)
	outward := p.Subtract(s.Center).Multiply(1.0 / s.Radius)
	si := core.Interaction{
		Kind:        core.SurfaceInteraction,
		P:           p,
		Wo:          ray.Direction.Negate().Normalize(),
		T:           root,
		Time:        ray.Time,
		Wavelengths: ray.Wavelengths,
		UV: core.NewVec2(
			(math.Atan2(-outward.Z, outward.X)+math.Pi)/(2*math.Pi),
			math.Acos(math.Max(-1, math.Min(1, -outward.Y)))/math.Pi,
		),
		Area: s.Area(),
	}
	si.SetFaceNormal(ray, outward)
	return si, true
}

// Bounds returns the axis-aligned bounding box for this sphere
func (s *Sphere) Bounds() core.AABB {
	radius := core.NewVec3(s.Radius, s.Radius, s.Radius)
	return core.NewAABB(s.Center.Subtract(radius), s.Center.Add(radius))
}

// Area returns the surface area
func (s *Sphere) Area() float64 {
	return 4 * math.Pi * s.Radius * s.Radius
}

// SampleArea picks a point uniformly over the surface
func (s *Sphere) SampleArea(u core.Vec2) (core.Vec3, core.Vec3, float64) {
	n := core.SampleOnUnitSphere(u)
	return s.Center.Add(n.Multiply(s.Radius)), n, 1 / s.Area()
}

// SampleSolidAngle samples the cone of directions subtended by the sphere.
// Reference points inside the sphere fall back to area sampling.
func (s *Sphere) SampleSolidAngle(ref core.Vec3, u core.Vec2) ShapeSample {
	toCenter := s.Center.Subtract(ref)
	distSq := toCenter.LengthSquared()
	if distSq <= s.Radius*s.Radius {
		p, n, areaPdf := s.SampleArea(u)
		wi, dist, pdf := AreaToSolidAngle(areaPdf, ref, p, n)
		return ShapeSample{Point: p, Normal: n, Direction: wi, Distance: dist, Pdf: pdf}
	}

	sinThetaMaxSq := s.Radius * s.Radius / distSq
	cosThetaMax := math.Sqrt(math.Max(0, 1-sinThetaMaxSq))
	wi := core.SampleCone(toCenter.Normalize(), cosThetaMax, u)

	hit, ok := s.Intersect(core.NewRay(ref, wi))
	if !ok {
		// grazing sample that slipped past the silhouette
		return ShapeSample{Direction: wi}
	}
	outward := hit.P.Subtract(s.Center).Multiply(1 / s.Radius)
	return ShapeSample{
		Point:     hit.P,
		Normal:    outward,
		Direction: wi,
		Distance:  hit.T,
		Pdf:       core.UniformConePDF(cosThetaMax),
	}
}

// PdfSolidAngle returns the density SampleSolidAngle assigns to wi
func (s *Sphere) PdfSolidAngle(ref, wi core.Vec3) float64 {
	toCenter := s.Center.Subtract(ref)
	distSq := toCenter.LengthSquared()
	if distSq <= s.Radius*s.Radius {
		return pdfByIntersection(s, ref, wi)
	}
	if _, ok := s.Intersect(core.NewRay(ref, wi)); !ok {
		return 0
	}
	cosThetaMax := math.Sqrt(math.Max(0, 1-s.Radius*s.Radius/distSq))
	return core.UniformConePDF(cosThetaMax)
}
