package material

import (
	"math"

	"github.com/df07/go-portal-raytracer/pkg/core"
	"github.com/df07/go-portal-raytracer/pkg/spectral"
)

// Mirror represents a perfect specular reflector
type Mirror struct {
	R spectral.Spectrum
}

// NewMirror creates a new mirror material
func NewMirror(r spectral.Spectrum) *Mirror {
	return &Mirror{R: r}
}

// ComputeScattering implements core.Material
func (m *Mirror) ComputeScattering(si *core.Interaction, arena *core.Arena) {
	b := core.Alloc[MirrorBSDF](arena)
	*b = MirrorBSDF{R: m.R, N: si.ShadingN}
	setBSDF(si, arena, b)
}

// MirrorBSDF is a delta reflection lobe
type MirrorBSDF struct {
	R spectral.Spectrum
	N core.Vec3
}

// F is zero for every explicit direction pair
func (b *MirrorBSDF) F(wo, wi core.Vec3) spectral.Spectrum { return spectral.Black() }

// Pdf is zero for every explicit direction pair
func (b *MirrorBSDF) Pdf(wo, wi core.Vec3) float64 { return 0 }

// Sample implements core.BSDF
func (b *MirrorBSDF) Sample(wo core.Vec3, u core.Vec2) core.BSDFSample {
	wi := reflectVector(wo, b.N)
	cos := math.Abs(wi.Dot(b.N))
	if cos == 0 {
		return core.BSDFSample{}
	}
	return core.BSDFSample{
		F:    b.R.Scale(1 / cos),
		Wi:   wi,
		Pdf:  1,
		Type: core.BxDFReflection | core.BxDFSpecular,
	}
}

// Type implements core.BSDF
func (b *MirrorBSDF) Type() core.BxDFType { return core.BxDFReflection | core.BxDFSpecular }

// Eta implements core.BSDF
func (b *MirrorBSDF) Eta() float64 { return 1 }
