package lights

import (
	"math"

	"github.com/df07/go-portal-raytracer/pkg/core"
	"github.com/df07/go-portal-raytracer/pkg/spectral"
)

// UniformInfiniteLight represents a uniform infinite area light (constant emission in all directions)
type UniformInfiniteLight struct {
	L spectral.Spectrum

	worldCenter core.Vec3 // Finite scene center from Preprocess
	worldRadius float64   // Finite scene radius from Preprocess
}

// NewUniformInfiniteLight creates a new uniform infinite light
func NewUniformInfiniteLight(emission spectral.Spectrum) *UniformInfiniteLight {
	return &UniformInfiniteLight{L: emission, worldRadius: 1}
}

// Flags implements Light
func (l *UniformInfiniteLight) Flags() LightFlags { return LightInfinite }

// Preprocess records the scene's bounding sphere
func (l *UniformInfiniteLight) Preprocess(bounds core.AABB) {
	l.worldCenter, l.worldRadius = bounds.BoundingSphere()
	if l.worldRadius <= 0 {
		l.worldRadius = 1
	}
}

// FarPoint returns a point in direction w from p that lies outside the scene
func (l *UniformInfiniteLight) FarPoint(p, w core.Vec3) core.Vec3 {
	reach := 2*l.worldRadius + p.Distance(l.worldCenter)
	return p.Add(w.Multiply(reach))
}

// SampleLi samples the visible hemisphere around a surface normal using
// cosine weighting, or the whole sphere inside a medium
func (l *UniformInfiniteLight) SampleLi(ref *core.Interaction, u core.Vec2) LightSample {
	var wi core.Vec3
	if ref.IsSurface() && !ref.N.IsZero() {
		wi = core.SampleCosineHemisphere(hemisphereNormal(ref), u)
	} else {
		wi = core.SampleOnUnitSphere(u)
	}
	pdf := l.PdfLi(ref, wi)
	if pdf == 0 {
		return LightSample{}
	}
	return LightSample{
		Li:  l.L,
		Wi:  wi,
		Pdf: pdf,
		Vis: core.VisibilityTester{From: ref, To: l.FarPoint(ref.P, wi)},
	}
}

// PdfLi implements Light
func (l *UniformInfiniteLight) PdfLi(ref *core.Interaction, wi core.Vec3) float64 {
	if ref.IsSurface() && !ref.N.IsZero() {
		return core.CosineHemispherePDF(wi.Dot(hemisphereNormal(ref)))
	}
	return core.UniformSpherePDF
}

// Power implements Light
func (l *UniformInfiniteLight) Power() spectral.Spectrum {
	return l.L.Scale(math.Pi * l.worldRadius * l.worldRadius)
}

// Le implements Light
func (l *UniformInfiniteLight) Le(ray core.Ray) spectral.Spectrum { return l.L }

// hemisphereNormal is the normal on the side wo arrived from
func hemisphereNormal(ref *core.Interaction) core.Vec3 {
	if ref.Wo.Dot(ref.N) < 0 {
		return ref.N.Negate()
	}
	return ref.N
}
