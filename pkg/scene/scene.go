package scene

import (
	"github.com/df07/go-portal-raytracer/pkg/core"
	"github.com/df07/go-portal-raytracer/pkg/geometry"
	"github.com/df07/go-portal-raytracer/pkg/lights"
	"github.com/df07/go-portal-raytracer/pkg/spectral"
)

// Scene contains all the elements needed for rendering
type Scene struct {
	Primitives     []*geometry.Primitive // Objects in the scene
	Lights         []lights.Light        // Lights in the scene
	Medium         core.Medium           // Optional medium filling the scene
	Camera         CameraConfig
	SamplingConfig SamplingConfig

	bvh            *geometry.BVH
	bounds         core.AABB
	entries        []LightEntry
	infiniteLights []lights.Light
	lightIndex     map[core.AreaLight]int
	wavelengths    *spectral.Distribution
}

// CameraConfig describes a pinhole or thin lens camera
type CameraConfig struct {
	Center        core.Vec3 // Camera position
	LookAt        core.Vec3 // Point the camera looks at
	Up            core.Vec3 // Up direction
	VFov          float64   // Vertical field of view in degrees
	Aperture      float64   // Lens diameter, 0 for a pinhole
	FocusDistance float64   // 0 focuses on LookAt
}

// SamplingConfig contains rendering configuration
type SamplingConfig struct {
	Width           int // Image width
	Height          int // Image height
	SamplesPerPixel int // Number of rays per pixel
	MaxDepth        int // Maximum ray bounce depth
}

// LightEntry is a light with its capabilities resolved once at preprocess
// time, so the integrators never type-check lights per sample
type LightEntry struct {
	Light lights.Light
	Gated *lights.PortalGatedLight // non-nil for portal gated lights
	Area  core.AreaLight           // emitter attached to geometry, if any
}

// Preprocess builds the acceleration structure, preprocesses lights and
// derives the wavelength sampling distribution from the lights' power
func (s *Scene) Preprocess(logger core.Logger) error {
	s.bvh = geometry.NewBVH(s.Primitives)
	s.bounds = s.bvh.Bounds

	s.entries = make([]LightEntry, len(s.Lights))
	s.infiniteLights = s.infiniteLights[:0]
	s.lightIndex = make(map[core.AreaLight]int)
	for i, l := range s.Lights {
		l.Preprocess(s.bounds)
		entry := LightEntry{Light: l}
		if g, ok := l.(*lights.PortalGatedLight); ok {
			entry.Gated = g
		}
		if a, ok := l.(lights.AreaEmitter); ok {
			entry.Area = a.Emitter()
		}
		if entry.Area != nil {
			s.lightIndex[entry.Area] = i
		}
		if l.Flags().IsInfinite() {
			s.infiniteLights = append(s.infiniteLights, l)
		}
		s.entries[i] = entry
	}

	s.wavelengths = s.buildWavelengthDistribution(logger)
	return nil
}

// buildWavelengthDistribution samples wavelengths proportionally to the
// average emitted power, falling back to uniform when the lights are dark
func (s *Scene) buildWavelengthDistribution(logger core.Logger) *spectral.Distribution {
	uniform := spectral.NewDistribution(spectral.NumBins, spectral.LambdaMin, spectral.LambdaMax)
	if len(s.Lights) == 0 {
		return uniform
	}
	var avg spectral.Spectrum
	for _, l := range s.Lights {
		avg = avg.Add(l.Power())
	}
	avg = avg.Scale(1 / float64(len(s.Lights)))
	d, err := spectral.NewSpectrumDistribution(avg)
	if err != nil {
		logger.Printf("Warning: light power cannot drive wavelength sampling (%v), sampling uniformly\n", err)
		return uniform
	}
	return d
}

// Bounds returns the bounds of all primitives
func (s *Scene) Bounds() core.AABB { return s.bounds }

// LightEntries returns the scene lights with resolved capabilities
func (s *Scene) LightEntries() []LightEntry { return s.entries }

// InfiniteLights returns the lights that contribute to escaped rays
func (s *Scene) InfiniteLights() []lights.Light { return s.infiniteLights }

// LightIndex returns the index of the light that owns emitter
func (s *Scene) LightIndex(emitter core.AreaLight) (int, bool) {
	i, ok := s.lightIndex[emitter]
	return i, ok
}

// Wavelengths returns the distribution camera rays draw wavelengths from
func (s *Scene) Wavelengths() *spectral.Distribution { return s.wavelengths }

// Intersect finds the closest hit along ray
func (s *Scene) Intersect(ray core.Ray) (core.Interaction, bool) {
	if s.bvh == nil {
		return core.Interaction{}, false
	}
	return s.bvh.Intersect(ray)
}

// IntersectP reports whether anything blocks ray
func (s *Scene) IntersectP(ray core.Ray) bool {
	if s.bvh == nil {
		return false
	}
	return s.bvh.IntersectP(ray)
}

// Unoccluded reports whether the shadow ray of vis is clear
func (s *Scene) Unoccluded(vis core.VisibilityTester) bool {
	return !s.IntersectP(vis.Ray())
}

// Transmittance returns the fraction of light that travels along the shadow
// ray of vis. Surfaces without a material only bound media and are skipped;
// any other surface blocks the ray.
func (s *Scene) Transmittance(vis core.VisibilityTester, sampler core.Sampler) spectral.Spectrum {
	tr := spectral.Constant(1)
	ray := vis.Ray()
	for {
		hit, ok := s.Intersect(ray)
		if ok && hit.Material != nil {
			return spectral.Black()
		}
		if s.Medium != nil {
			tMax := ray.TMax
			if ok {
				tMax = hit.T
			}
			tr = tr.Mul(s.Medium.Tr(ray, tMax))
		}
		if !ok {
			return tr
		}
		ray = hit.SpawnRayTo(vis.To)
	}
}

// IntersectTr finds the closest surface with a material along ray and the
// medium transmittance up to it, passing through material-less surfaces
func (s *Scene) IntersectTr(ray core.Ray, sampler core.Sampler) (core.Interaction, bool, spectral.Spectrum) {
	tr := spectral.Constant(1)
	for {
		hit, ok := s.Intersect(ray)
		if s.Medium != nil {
			tMax := ray.TMax
			if ok {
				tMax = hit.T
			}
			tr = tr.Mul(s.Medium.Tr(ray, tMax))
		}
		if !ok {
			return core.Interaction{}, false, tr
		}
		if hit.Material != nil {
			return hit, true, tr
		}
		ray = hit.SpawnRay(ray.Direction)
	}
}
