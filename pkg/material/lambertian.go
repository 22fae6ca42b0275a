package material

import (
	"math"

	"github.com/df07/go-portal-raytracer/pkg/core"
	"github.com/df07/go-portal-raytracer/pkg/spectral"
)

// Lambertian represents a perfectly diffuse material
type Lambertian struct {
	Albedo spectral.Spectrum
}

// NewLambertian creates a new lambertian material
func NewLambertian(albedo spectral.Spectrum) *Lambertian {
	return &Lambertian{Albedo: albedo}
}

// ComputeScattering implements core.Material
func (l *Lambertian) ComputeScattering(si *core.Interaction, arena *core.Arena) {
	b := core.Alloc[LambertianBSDF](arena)
	*b = LambertianBSDF{R: l.Albedo, N: si.ShadingN}
	setBSDF(si, arena, b)
}

// LambertianBSDF reflects albedo/π into the hemisphere around N
type LambertianBSDF struct {
	R spectral.Spectrum
	N core.Vec3
}

// F implements core.BSDF
func (b *LambertianBSDF) F(wo, wi core.Vec3) spectral.Spectrum {
	if !sameHemisphere(wo, wi, b.N) {
		return spectral.Black()
	}
	return b.R.Scale(1 / math.Pi)
}

// Pdf implements core.BSDF with cosine-weighted hemisphere density
func (b *LambertianBSDF) Pdf(wo, wi core.Vec3) float64 {
	if !sameHemisphere(wo, wi, b.N) {
		return 0
	}
	return core.CosineHemispherePDF(math.Abs(wi.Dot(b.N)))
}

// Sample implements core.BSDF
func (b *LambertianBSDF) Sample(wo core.Vec3, u core.Vec2) core.BSDFSample {
	n := b.N
	if wo.Dot(n) < 0 {
		n = n.Negate()
	}
	wi := core.SampleCosineHemisphere(n, u)
	return core.BSDFSample{
		F:    b.F(wo, wi),
		Wi:   wi,
		Pdf:  b.Pdf(wo, wi),
		Type: core.BxDFReflection | core.BxDFDiffuse,
	}
}

// Type implements core.BSDF
func (b *LambertianBSDF) Type() core.BxDFType {
	return core.BxDFReflection | core.BxDFDiffuse
}

// Eta implements core.BSDF
func (b *LambertianBSDF) Eta() float64 { return 1 }
