package core

import "github.com/df07/go-portal-raytracer/pkg/spectral"

// Logger interface for raytracer logging
type Logger interface {
	Printf(format string, args ...interface{})
}

// BxDFType classifies scattering components
type BxDFType uint8

const (
	BxDFReflection BxDFType = 1 << iota
	BxDFTransmission
	BxDFDiffuse
	BxDFGlossy
	BxDFSpecular
)

// IsSpecular reports whether the specular bit is set
func (t BxDFType) IsSpecular() bool { return t&BxDFSpecular != 0 }

// IsTransmission reports whether the transmission bit is set
func (t BxDFType) IsTransmission() bool { return t&BxDFTransmission != 0 }

// BSDFSample is the result of sampling a BSDF
type BSDFSample struct {
	F    spectral.Spectrum // BSDF value for the sampled pair
	Wi   Vec3              // Sampled incident direction (world space, unit)
	Pdf  float64           // Solid angle density; for specular lobes the discrete probability
	Type BxDFType          // Component that produced the sample
}

// BSDF evaluates scattering at one surface point. Directions are world space
// unit vectors pointing away from the surface.
type BSDF interface {
	F(wo, wi Vec3) spectral.Spectrum
	Pdf(wo, wi Vec3) float64
	Sample(wo Vec3, u Vec2) BSDFSample
	// Type returns the union of all component types
	Type() BxDFType
	// Eta returns the relative index of refraction, 1 for opaque surfaces
	Eta() float64
}

// HasNonSpecular reports whether b has any component a light sample can reach
func HasNonSpecular(b BSDF) bool {
	return b.Type()&(BxDFDiffuse|BxDFGlossy) != 0
}

// Material builds the scattering functions at a surface interaction.
// It fills si.BSDFs (nil for null materials that only bound a medium) and
// may set si.BSSRDF.
type Material interface {
	ComputeScattering(si *Interaction, arena *Arena)
}

// AreaLight is the emission attached to a primitive
type AreaLight interface {
	// L returns the radiance leaving point it in direction w
	L(it *Interaction, w Vec3) spectral.Spectrum
}

// PhaseFunction describes scattering inside a participating medium
type PhaseFunction interface {
	// P evaluates the phase function; it doubles as its own sampling density
	P(wo, wi Vec3) float64
	Sample(wo Vec3, u Vec2) (wi Vec3, p float64)
}

// Medium is a participating medium a ray may travel through
type Medium interface {
	// Tr returns the transmittance along ray up to distance tMax
	Tr(ray Ray, tMax float64) spectral.Spectrum
	// Sample either samples a scattering point before tMax, returning a
	// medium interaction, or returns nil. The returned weight is the
	// throughput factor for whichever event happened.
	Sample(ray Ray, tMax float64, sampler Sampler) (spectral.Spectrum, *Interaction)
}

// BSSRDF is the subsurface transport hook. SampleExit picks a point where
// light that entered at si leaves the surface again.
type BSSRDF interface {
	SampleExit(si *Interaction, sampler Sampler, arena *Arena) (exit *Interaction, weight spectral.Spectrum, ok bool)
}
