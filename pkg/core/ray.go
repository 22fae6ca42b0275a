package core

import "math"

// Ray is a half-open segment origin + t*direction for t in (0, TMax).
// Spectral paths carry their hero wavelengths along with the ray.
type Ray struct {
	Origin      Vec3
	Direction   Vec3
	TMax        float64
	Time        float64
	Wavelengths [4]float64
}

// NewRay creates an unbounded ray
func NewRay(origin, direction Vec3) Ray {
	return Ray{Origin: origin, Direction: direction, TMax: math.Inf(1)}
}

// At returns the point at parameter t along the ray
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Direction.Multiply(t))
}
