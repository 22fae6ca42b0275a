package lights

import (
	"github.com/df07/go-portal-raytracer/pkg/core"
	"github.com/df07/go-portal-raytracer/pkg/spectral"
)

// LightFlags describes how a light can be sampled
type LightFlags uint8

const (
	LightDeltaPosition LightFlags = 1 << iota
	LightDeltaDirection
	LightArea
	LightInfinite
)

// IsDelta reports whether BSDF sampling can never hit the light
func (f LightFlags) IsDelta() bool {
	return f&(LightDeltaPosition|LightDeltaDirection) != 0
}

// IsInfinite reports whether the light surrounds the scene
func (f LightFlags) IsInfinite() bool {
	return f&LightInfinite != 0
}

// Light interface for objects that can be sampled for direct lighting
type Light interface {
	Flags() LightFlags

	// SampleLi samples incident radiance at ref. Wi points from ref toward
	// the light; a zero Pdf or black Li marks a sample to discard.
	SampleLi(ref *core.Interaction, u core.Vec2) LightSample

	// PdfLi returns the solid angle density SampleLi assigns to wi
	PdfLi(ref *core.Interaction, wi core.Vec3) float64

	// Power returns the total emitted flux
	Power() spectral.Spectrum

	// Le returns radiance carried by a ray that escapes the scene.
	// Only infinite lights return non-black values.
	Le(ray core.Ray) spectral.Spectrum

	// Preprocess is called once with the scene bounds before rendering
	Preprocess(bounds core.AABB)
}

// LightSample contains information about a sampled direction toward a light
type LightSample struct {
	Li  spectral.Spectrum     // Incident radiance along Wi
	Wi  core.Vec3             // Unit direction from the reference point to the light
	Pdf float64               // Solid angle density; 1 for delta lights
	Vis core.VisibilityTester // Shadow ray that must be unoccluded
}

// AreaEmitter is implemented by lights whose emission is attached to scene
// geometry, so BSDF-sampled rays can find them by intersection
type AreaEmitter interface {
	Light
	Emitter() core.AreaLight
}
