package material

import (
	"math"

	"github.com/df07/go-portal-raytracer/pkg/core"
)

// HenyeyGreenstein is the single-parameter phase function. G in (-1, 1)
// is the mean scattering cosine; positive values favour forward scattering.
type HenyeyGreenstein struct {
	G float64
}

// hg evaluates the phase function for the cosine between the propagation
// direction and the scattered direction
func hg(cos, g float64) float64 {
	denom := 1 + g*g - 2*g*cos
	return (1 - g*g) / (4 * math.Pi * denom * math.Sqrt(denom))
}

// P implements core.PhaseFunction. wo points back along the incoming ray.
func (h HenyeyGreenstein) P(wo, wi core.Vec3) float64 {
	return hg(wo.Negate().Dot(wi), h.G)
}

// Sample draws wi from the phase function and returns its density
func (h HenyeyGreenstein) Sample(wo core.Vec3, u core.Vec2) (core.Vec3, float64) {
	g := h.G
	var cos float64
	if math.Abs(g) < 1e-3 {
		cos = 1 - 2*u.X
	} else {
		sq := (1 - g*g) / (1 - g + 2*g*u.X)
		cos = (1 + g*g - sq*sq) / (2 * g)
	}
	cos = math.Max(-1, math.Min(1, cos))
	sin := math.Sqrt(math.Max(0, 1-cos*cos))
	phi := 2 * math.Pi * u.Y

	dir := wo.Negate().Normalize()
	v1, v2 := core.CoordinateSystem(dir)
	wi := v1.Multiply(sin * math.Cos(phi)).Add(v2.Multiply(sin * math.Sin(phi))).Add(dir.Multiply(cos))
	return wi, hg(cos, g)
}
