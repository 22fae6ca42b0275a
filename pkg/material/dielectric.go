package material

import (
	"math"

	"github.com/df07/go-portal-raytracer/pkg/core"
	"github.com/df07/go-portal-raytracer/pkg/spectral"
)

// Dielectric represents a transparent material like glass that can both reflect and refract
type Dielectric struct {
	RefractiveIndex float64 // Index of refraction (e.g., 1.5 for glass)
	R, T            spectral.Spectrum
}

// NewDielectric creates a clear dielectric
func NewDielectric(refractiveIndex float64) *Dielectric {
	return &Dielectric{RefractiveIndex: refractiveIndex, R: spectral.Constant(1), T: spectral.Constant(1)}
}

// ComputeScattering implements core.Material
func (d *Dielectric) ComputeScattering(si *core.Interaction, arena *core.Arena) {
	b := core.Alloc[DielectricBSDF](arena)
	*b = DielectricBSDF{R: d.R, T: d.T, RefractiveIndex: d.RefractiveIndex, N: si.ShadingN, Entering: si.FrontFace}
	setBSDF(si, arena, b)
}

// DispersiveGlass is a dielectric whose index follows Cauchy's equation
// η(λ) = B + C/λ², fitted so that η(LambdaMin) = EtaBlue and
// η(LambdaMax) = EtaRed. Each path wavelength gets its own BSDF.
type DispersiveGlass struct {
	EtaBlue, EtaRed float64
	R, T            spectral.Spectrum

	b, c float64
}

// NewDispersiveGlass creates a clear dispersive dielectric
func NewDispersiveGlass(etaBlue, etaRed float64) *DispersiveGlass {
	l0 := spectral.LambdaMin * spectral.LambdaMin
	l1 := spectral.LambdaMax * spectral.LambdaMax
	b := (l0*etaBlue - l1*etaRed) / (l0 - l1)
	return &DispersiveGlass{
		EtaBlue: etaBlue,
		EtaRed:  etaRed,
		R:       spectral.Constant(1),
		T:       spectral.Constant(1),
		b:       b,
		c:       l0 * (etaBlue - b),
	}
}

// Eta returns the index of refraction at wavelength lambda in nm
func (d *DispersiveGlass) Eta(lambda float64) float64 {
	if lambda <= 0 {
		lambda = (spectral.LambdaMin + spectral.LambdaMax) / 2
	}
	return d.b + d.c/(lambda*lambda)
}

// ComputeScattering implements core.Material
func (d *DispersiveGlass) ComputeScattering(si *core.Interaction, arena *core.Arena) {
	bsdfs := arena.BSDFs(len(si.Wavelengths))
	for i, lambda := range si.Wavelengths {
		b := core.Alloc[DielectricBSDF](arena)
		*b = DielectricBSDF{R: d.R, T: d.T, RefractiveIndex: d.Eta(lambda), N: si.ShadingN, Entering: si.FrontFace}
		bsdfs[i] = b
	}
	si.BSDFs = bsdfs
	si.WavelengthDependent = true
}

// DielectricBSDF is a Fresnel-weighted pair of delta lobes. N faces the
// side the ray arrived from; Entering is true on the outside of the surface.
type DielectricBSDF struct {
	R, T            spectral.Spectrum
	RefractiveIndex float64
	N               core.Vec3
	Entering        bool
}

// F is zero for every explicit direction pair
func (b *DielectricBSDF) F(wo, wi core.Vec3) spectral.Spectrum { return spectral.Black() }

// Pdf is zero for every explicit direction pair
func (b *DielectricBSDF) Pdf(wo, wi core.Vec3) float64 { return 0 }

// Sample chooses reflection with probability equal to the Fresnel
// reflectance and transmission otherwise
func (b *DielectricBSDF) Sample(wo core.Vec3, u core.Vec2) core.BSDFSample {
	n, entering := b.N, b.Entering
	if wo.Dot(n) < 0 {
		n, entering = n.Negate(), !entering
	}
	etaI, etaT := 1.0, b.RefractiveIndex
	if !entering {
		etaI, etaT = etaT, etaI
	}

	fr := FresnelDielectric(wo.Dot(n), etaI, etaT)
	if u.X < fr {
		wi := reflectVector(wo, n)
		cos := math.Abs(wi.Dot(n))
		if cos == 0 {
			return core.BSDFSample{}
		}
		return core.BSDFSample{
			F:    b.R.Scale(fr / cos),
			Wi:   wi,
			Pdf:  fr,
			Type: core.BxDFReflection | core.BxDFSpecular,
		}
	}

	wi, ok := refractVector(wo, n, etaI/etaT)
	if !ok {
		return core.BSDFSample{}
	}
	cos := math.Abs(wi.Dot(n))
	if cos == 0 {
		return core.BSDFSample{}
	}
	// radiance is compressed by the squared index ratio when crossing the boundary
	ratio := etaI / etaT
	return core.BSDFSample{
		F:    b.T.Scale((1 - fr) * ratio * ratio / cos),
		Wi:   wi,
		Pdf:  1 - fr,
		Type: core.BxDFTransmission | core.BxDFSpecular,
	}
}

// Type implements core.BSDF
func (b *DielectricBSDF) Type() core.BxDFType {
	return core.BxDFReflection | core.BxDFTransmission | core.BxDFSpecular
}

// Eta returns the material's index of refraction
func (b *DielectricBSDF) Eta() float64 { return b.RefractiveIndex }
