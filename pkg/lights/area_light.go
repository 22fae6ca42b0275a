package lights

import (
	"math"

	"github.com/df07/go-portal-raytracer/pkg/core"
	"github.com/df07/go-portal-raytracer/pkg/geometry"
	"github.com/df07/go-portal-raytracer/pkg/spectral"
)

// DiffuseAreaLight emits constant radiance from the surface of a shape.
// One-sided lights emit on the side of the shape's outward normal.
type DiffuseAreaLight struct {
	Lemit    spectral.Spectrum
	Shape    geometry.Shape
	TwoSided bool
}

// NewDiffuseAreaLight creates a new diffuse area light
func NewDiffuseAreaLight(lemit spectral.Spectrum, shape geometry.Shape, twoSided bool) *DiffuseAreaLight {
	return &DiffuseAreaLight{Lemit: lemit, Shape: shape, TwoSided: twoSided}
}

// L implements core.AreaLight
func (l *DiffuseAreaLight) L(it *core.Interaction, w core.Vec3) spectral.Spectrum {
	if l.TwoSided {
		return l.Lemit
	}
	outward := it.N
	if !it.FrontFace {
		outward = outward.Negate()
	}
	if w.Dot(outward) <= 0 {
		return spectral.Black()
	}
	return l.Lemit
}

// Emitter implements AreaEmitter
func (l *DiffuseAreaLight) Emitter() core.AreaLight { return l }

// Flags implements Light
func (l *DiffuseAreaLight) Flags() LightFlags { return LightArea }

// SampleLi implements Light
func (l *DiffuseAreaLight) SampleLi(ref *core.Interaction, u core.Vec2) LightSample {
	s := l.Shape.SampleSolidAngle(ref.P, u)
	if s.Pdf == 0 {
		return LightSample{}
	}
	onLight := core.Interaction{P: s.Point, N: s.Normal, FrontFace: true}
	return LightSample{
		Li:  l.L(&onLight, s.Direction.Negate()),
		Wi:  s.Direction,
		Pdf: s.Pdf,
		Vis: core.VisibilityTester{From: ref, To: s.Point},
	}
}

// PdfLi implements Light
func (l *DiffuseAreaLight) PdfLi(ref *core.Interaction, wi core.Vec3) float64 {
	return l.Shape.PdfSolidAngle(ref.P, wi)
}

// Power implements Light
func (l *DiffuseAreaLight) Power() spectral.Spectrum {
	sides := 1.0
	if l.TwoSided {
		sides = 2
	}
	return l.Lemit.Scale(sides * l.Shape.Area() * math.Pi)
}

// Le implements Light; area lights are found by intersection instead
func (l *DiffuseAreaLight) Le(ray core.Ray) spectral.Spectrum { return spectral.Black() }

// Preprocess implements Light
func (l *DiffuseAreaLight) Preprocess(bounds core.AABB) {}
