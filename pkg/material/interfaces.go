package material

import (
	"math"

	"github.com/df07/go-portal-raytracer/pkg/core"
)

// sameHemisphere reports whether wo and wi lie on the same side of n
func sameHemisphere(wo, wi, n core.Vec3) bool {
	return wo.Dot(n)*wi.Dot(n) > 0
}

// reflectVector mirrors wo about n; both point away from the surface
func reflectVector(wo, n core.Vec3) core.Vec3 {
	return n.Multiply(2 * wo.Dot(n)).Subtract(wo)
}

// refractVector bends wo through a surface with normal n on the side of wo.
// eta is etaI/etaT. Returns false on total internal reflection.
func refractVector(wo, n core.Vec3, eta float64) (core.Vec3, bool) {
	cosI := wo.Dot(n)
	sin2I := math.Max(0, 1-cosI*cosI)
	sin2T := eta * eta * sin2I
	if sin2T >= 1 {
		return core.Vec3{}, false
	}
	cosT := math.Sqrt(1 - sin2T)
	return wo.Negate().Multiply(eta).Add(n.Multiply(eta*cosI - cosT)), true
}

// FresnelDielectric returns the unpolarized reflectance at a boundary
// between media with indices etaI (incident side) and etaT
func FresnelDielectric(cosI, etaI, etaT float64) float64 {
	cosI = math.Max(-1, math.Min(1, cosI))
	if cosI < 0 {
		etaI, etaT = etaT, etaI
		cosI = -cosI
	}
	sinI := math.Sqrt(math.Max(0, 1-cosI*cosI))
	sinT := etaI / etaT * sinI
	if sinT >= 1 {
		return 1
	}
	cosT := math.Sqrt(math.Max(0, 1-sinT*sinT))
	rParl := (etaT*cosI - etaI*cosT) / (etaT*cosI + etaI*cosT)
	rPerp := (etaI*cosI - etaT*cosT) / (etaI*cosI + etaT*cosT)
	return (rParl*rParl + rPerp*rPerp) / 2
}

// setBSDF stores a single arena-backed BSDF on the interaction
func setBSDF(si *core.Interaction, arena *core.Arena, b core.BSDF) {
	bsdfs := arena.BSDFs(1)
	bsdfs[0] = b
	si.BSDFs = bsdfs
	si.WavelengthDependent = false
}
