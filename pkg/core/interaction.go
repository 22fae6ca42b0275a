package core

import (
	"math"

	"github.com/df07/go-portal-raytracer/pkg/spectral"
)

// ShadowEpsilon offsets spawned rays from the surface they leave
const ShadowEpsilon = 1e-4

// InteractionKind tags what kind of scattering event an Interaction describes
type InteractionKind uint8

const (
	SurfaceInteraction InteractionKind = iota
	MediumInteraction
)

// Interaction is a scattering event along a path: either a surface hit or a
// point sampled inside a medium. Fields that only make sense for one kind are
// left zero for the other.
type Interaction struct {
	Kind        InteractionKind
	P           Vec3       // Position
	N           Vec3       // Geometric normal, facing the side the ray arrived from; zero for media
	Wo          Vec3       // Direction back toward the previous vertex
	T           float64    // Ray parameter of the hit
	Time        float64
	Wavelengths [4]float64

	// Surface data
	ShadingN  Vec3
	UV        Vec2
	FrontFace bool
	Material  Material
	AreaLight AreaLight
	Area      float64 // Area of the hit shape, used to convert emission pdfs

	// Scattering functions, filled by Material.ComputeScattering.
	// WavelengthDependent surfaces carry one BSDF per path wavelength,
	// all others exactly one.
	BSDFs               []BSDF
	WavelengthDependent bool
	BSSRDF              BSSRDF

	// Medium data
	Phase PhaseFunction
}

// NewMediumInteraction creates a scattering event inside a medium
func NewMediumInteraction(p, wo Vec3, time float64, wavelengths [4]float64, phase PhaseFunction) *Interaction {
	return &Interaction{
		Kind:        MediumInteraction,
		P:           p,
		Wo:          wo,
		Time:        time,
		Wavelengths: wavelengths,
		Phase:       phase,
	}
}

// IsSurface reports whether this is a surface interaction
func (it *Interaction) IsSurface() bool {
	return it.Kind == SurfaceInteraction
}

// SetFaceNormal orients N and ShadingN against the incoming ray
func (it *Interaction) SetFaceNormal(ray Ray, outwardNormal Vec3) {
	it.FrontFace = ray.Direction.Dot(outwardNormal) < 0
	if it.FrontFace {
		it.N = outwardNormal
	} else {
		it.N = outwardNormal.Negate()
	}
	it.ShadingN = it.N
}

// BSDF returns the primary scattering function, or nil for null surfaces
func (it *Interaction) BSDF() BSDF {
	if len(it.BSDFs) == 0 {
		return nil
	}
	return it.BSDFs[0]
}

// BSDFFor returns the scattering function for path wavelength i
func (it *Interaction) BSDFFor(i int) BSDF {
	if it.WavelengthDependent && i < len(it.BSDFs) {
		return it.BSDFs[i]
	}
	return it.BSDF()
}

// Le returns emitted radiance leaving the interaction in direction w
func (it *Interaction) Le(w Vec3) spectral.Spectrum {
	if it.AreaLight == nil {
		return spectral.Black()
	}
	return it.AreaLight.L(it, w)
}

// offsetOrigin pushes the origin off the surface toward the side of w
func (it *Interaction) offsetOrigin(w Vec3) Vec3 {
	if it.Kind == MediumInteraction || it.N.IsZero() {
		return it.P
	}
	offset := it.N.Multiply(ShadowEpsilon)
	if w.Dot(it.N) < 0 {
		offset = offset.Negate()
	}
	return it.P.Add(offset)
}

// SpawnRay creates a ray leaving the interaction in direction d
func (it *Interaction) SpawnRay(d Vec3) Ray {
	return Ray{
		Origin:      it.offsetOrigin(d),
		Direction:   d,
		TMax:        math.Inf(1),
		Time:        it.Time,
		Wavelengths: it.Wavelengths,
	}
}

// SpawnRayTo creates a ray toward p whose TMax stops just short of p
func (it *Interaction) SpawnRayTo(p Vec3) Ray {
	origin := it.offsetOrigin(p.Subtract(it.P))
	return Ray{
		Origin:      origin,
		Direction:   p.Subtract(origin),
		TMax:        1 - ShadowEpsilon,
		Time:        it.Time,
		Wavelengths: it.Wavelengths,
	}
}

// VisibilityTester describes a shadow ray between two points
type VisibilityTester struct {
	From *Interaction
	To   Vec3
}

// Ray returns the shadow ray, bounded so it stops before To
func (v VisibilityTester) Ray() Ray {
	return v.From.SpawnRayTo(v.To)
}
