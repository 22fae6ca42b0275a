package lights

import (
	"math"

	"github.com/df07/go-portal-raytracer/pkg/core"
	"github.com/df07/go-portal-raytracer/pkg/spectral"
)

// PointLight is an isotropic point emitter with intensity I
type PointLight struct {
	Position core.Vec3
	I        spectral.Spectrum
}

// NewPointLight creates a new point light
func NewPointLight(position core.Vec3, intensity spectral.Spectrum) *PointLight {
	return &PointLight{Position: position, I: intensity}
}

// Flags implements Light
func (l *PointLight) Flags() LightFlags { return LightDeltaPosition }

// SampleLi implements Light; the only direction is toward the light
func (l *PointLight) SampleLi(ref *core.Interaction, u core.Vec2) LightSample {
	toLight := l.Position.Subtract(ref.P)
	distSq := toLight.LengthSquared()
	if distSq == 0 {
		return LightSample{}
	}
	return LightSample{
		Li:  l.I.Scale(1 / distSq),
		Wi:  toLight.Multiply(1 / math.Sqrt(distSq)),
		Pdf: 1,
		Vis: core.VisibilityTester{From: ref, To: l.Position},
	}
}

// PdfLi implements Light
func (l *PointLight) PdfLi(ref *core.Interaction, wi core.Vec3) float64 { return 0 }

// Power implements Light
func (l *PointLight) Power() spectral.Spectrum { return l.I.Scale(4 * math.Pi) }

// Le implements Light
func (l *PointLight) Le(ray core.Ray) spectral.Spectrum { return spectral.Black() }

// Preprocess implements Light
func (l *PointLight) Preprocess(bounds core.AABB) {}
