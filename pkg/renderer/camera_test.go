package renderer

import (
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-portal-raytracer/pkg/core"
	"github.com/df07/go-portal-raytracer/pkg/scene"
	"github.com/df07/go-portal-raytracer/pkg/spectral"
)

const cameraTolerance = 1e-9

func forwardCamera(vfov, aperture float64) scene.CameraConfig {
	return scene.CameraConfig{
		Center:   core.NewVec3(0, 0, 0),
		LookAt:   core.NewVec3(0, 0, -1),
		Up:       core.NewVec3(0, 1, 0),
		VFov:     vfov,
		Aperture: aperture,
	}
}

func TestCameraGetRay_Directions(t *testing.T) {
	camera := NewCamera(forwardCamera(90, 0), 200, 100)
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(42)))

	tests := []struct {
		name   string
		px, py float64
		want   core.Vec3
	}{
		{"center", 100, 50, core.NewVec3(0, 0, -1)},
		{"top center", 100, 0, core.NewVec3(0, 1, -1).Normalize()},
		{"bottom center", 100, 100, core.NewVec3(0, -1, -1).Normalize()},
		{"right center", 200, 50, core.NewVec3(2, 0, -1).Normalize()},
		{"top left", 0, 0, core.NewVec3(-2, 1, -1).Normalize()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ray := camera.GetRay(tt.px, tt.py, sampler, nil)
			if ray.Origin.Length() > cameraTolerance {
				t.Errorf("pinhole ray origin %v, want the camera center", ray.Origin)
			}
			if ray.Direction.Subtract(tt.want).Length() > cameraTolerance {
				t.Errorf("direction %v, want %v", ray.Direction, tt.want)
			}
		})
	}
}

func TestCameraGetRay_ThinLens(t *testing.T) {
	const aperture = 0.5
	camera := NewCamera(forwardCamera(40, aperture), 64, 64)
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(42)))
	focus := core.NewVec3(0, 0, -1)

	for i := 0; i < 100; i++ {
		ray := camera.GetRay(32, 32, sampler, nil)
		if ray.Origin.Z != 0 || ray.Origin.Length() > aperture/2+cameraTolerance {
			t.Fatalf("lens sample %v outside the aperture", ray.Origin)
		}
		// Every ray through the center pixel converges on the focus point
		toFocus := focus.Subtract(ray.Origin).Normalize()
		if ray.Direction.Subtract(toFocus).Length() > 1e-6 {
			t.Fatalf("ray from %v points %v, want %v", ray.Origin, ray.Direction, toFocus)
		}
	}
}

func TestCameraGetRay_Wavelengths(t *testing.T) {
	camera := NewCamera(forwardCamera(40, 0), 8, 8)
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(42)))
	dist := spectral.NewDistribution(spectral.NumBins, spectral.LambdaMin, spectral.LambdaMax)

	for i := 0; i < 50; i++ {
		ray := camera.GetRay(4, 4, sampler, dist)
		bins := make(map[int]bool)
		for _, lambda := range ray.Wavelengths {
			if lambda < spectral.LambdaMin || lambda > spectral.LambdaMax {
				t.Fatalf("wavelength %g outside the visible range", lambda)
			}
			bins[spectral.IndexFromWavelength(lambda)] = true
		}
		// Rotated samples of a uniform distribution land in distinct bins
		if len(bins) != spectral.HeroCount {
			t.Fatalf("wavelengths %v share bins", ray.Wavelengths)
		}
	}
}

func TestNewCamera_Defaults(t *testing.T) {
	cfg := forwardCamera(0, 0)
	cfg.Up = core.Vec3{}
	camera := NewCamera(cfg, 10, 10)
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(42)))

	// Zero field of view falls back to 40 degrees, zero up to +y
	ray := camera.GetRay(5, 0, sampler, nil)
	want := math.Tan(defaultVFov * math.Pi / 360)
	if got := ray.Direction.Y / -ray.Direction.Z; math.Abs(got-want) > cameraTolerance {
		t.Errorf("half-height slope %g, want %g", got, want)
	}
}
