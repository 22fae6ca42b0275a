package scene

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-portal-raytracer/pkg/core"
	"github.com/df07/go-portal-raytracer/pkg/geometry"
	"github.com/df07/go-portal-raytracer/pkg/lights"
	"github.com/df07/go-portal-raytracer/pkg/material"
	"github.com/df07/go-portal-raytracer/pkg/spectral"
)

type testLogger struct {
	messages []string
}

func (l *testLogger) Printf(format string, args ...interface{}) {
	l.messages = append(l.messages, fmt.Sprintf(format, args...))
}

func TestBuiltinScenes(t *testing.T) {
	for _, name := range BuiltinNames() {
		t.Run(name, func(t *testing.T) {
			logger := &testLogger{}
			s, err := Builtin(name, logger)
			if err != nil {
				t.Fatal(err)
			}
			if err := s.Preprocess(logger); err != nil {
				t.Fatal(err)
			}
			if len(s.LightEntries()) == 0 {
				t.Error("scene has no lights")
			}
			if len(logger.messages) != 0 {
				t.Errorf("unexpected warnings: %q", logger.messages)
			}
			d := s.Wavelengths()
			if math.Abs(d.Cdf(d.Count())-1) > 1e-12 {
				t.Errorf("wavelength distribution not normalized: %g", d.Cdf(d.Count()))
			}
		})
	}
	if _, err := Builtin("nope", &testLogger{}); err == nil {
		t.Error("expected an error for an unknown scene")
	}
}

func TestPreprocess_ResolvesLightCapabilities(t *testing.T) {
	logger := &testLogger{}
	room, err := NewPortalRoomScene(logger)
	if err != nil {
		t.Fatal(err)
	}
	if err := room.Preprocess(logger); err != nil {
		t.Fatal(err)
	}
	entry := room.LightEntries()[0]
	if entry.Gated == nil || entry.Area == nil {
		t.Fatalf("gated area light not resolved: %+v", entry)
	}
	if i, ok := room.LightIndex(entry.Area); !ok || i != 0 {
		t.Errorf("LightIndex = %d, %v", i, ok)
	}
	if len(room.InfiniteLights()) != 0 {
		t.Error("room has no infinite lights")
	}

	// the gated emitter is what a ray leaving through the opening hits
	ray := core.NewRay(core.NewVec3(2, 1, 2), core.NewVec3(0, 1, 0))
	hit, ok := room.Intersect(ray)
	if !ok || hit.AreaLight != entry.Area {
		t.Fatalf("expected to hit the gated emitter, got %+v", hit)
	}

	sky, err := NewPortalSkyScene(logger)
	if err != nil {
		t.Fatal(err)
	}
	if err := sky.Preprocess(logger); err != nil {
		t.Fatal(err)
	}
	if len(sky.InfiniteLights()) != 1 || sky.LightEntries()[0].Area != nil {
		t.Error("gated sky should be an infinite light without an emitter")
	}
	if _, ok := sky.Intersect(core.NewRay(core.NewVec3(2, 1.5, 2), core.NewVec3(1, 0, 0))); ok {
		t.Error("ray through the window should escape")
	}
	if _, ok := sky.Intersect(core.NewRay(core.NewVec3(2, 0.5, 2), core.NewVec3(1, 0, 0))); !ok {
		t.Error("ray below the window should hit the wall")
	}
}

func TestPreprocess_DarkLightsWarn(t *testing.T) {
	rect, err := geometry.NewAperture(core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 1), 1, true)
	if err != nil {
		t.Fatal(err)
	}
	light := lights.NewDiffuseAreaLight(spectral.Black(), rect, false)
	s := &Scene{
		Primitives: []*geometry.Primitive{geometry.NewPrimitive(rect, nil, light)},
		Lights:     []lights.Light{light},
	}
	logger := &testLogger{}
	if err := s.Preprocess(logger); err != nil {
		t.Fatal(err)
	}
	if len(logger.messages) != 1 {
		t.Errorf("expected one warning, got %q", logger.messages)
	}
	if got := s.Wavelengths().Pdf(0); math.Abs(got-1.0/spectral.NumBins) > 1e-12 {
		t.Errorf("fallback should be uniform, Pdf(0) = %g", got)
	}
}

// slab returns a scene with two parallel planes at z = 1 and z = 2.
// The first has no material and only bounds the medium.
func slab(t *testing.T, medium core.Medium) *Scene {
	t.Helper()
	boundary, err := geometry.NewAperture(core.NewVec3(-5, -5, 1), core.NewVec3(5, 5, 1), 2, false)
	if err != nil {
		t.Fatal(err)
	}
	wall, err := geometry.NewAperture(core.NewVec3(-5, -5, 2), core.NewVec3(5, 5, 2), 2, false)
	if err != nil {
		t.Fatal(err)
	}
	s := &Scene{
		Primitives: []*geometry.Primitive{
			geometry.NewPrimitive(boundary, nil, nil),
			geometry.NewPrimitive(wall, material.NewLambertian(spectral.Constant(0.5)), nil),
		},
		Medium: medium,
	}
	if err := s.Preprocess(&testLogger{}); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestIntersectTr(t *testing.T) {
	const sigma = 0.5
	s := slab(t, NewHomogeneousMedium(spectral.Constant(sigma), spectral.Black(), 0))
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(42)))

	hit, ok, tr := s.IntersectTr(core.NewRay(core.Vec3{}, core.NewVec3(0, 0, 1)), sampler)
	if !ok || math.Abs(hit.P.Z-2) > 1e-9 {
		t.Fatalf("expected to pass the boundary and hit the wall, got %v %v", ok, hit.P)
	}
	if want := math.Exp(-sigma * 2); math.Abs(tr.Average()-want) > 1e-4 {
		t.Errorf("transmittance = %g, want %g", tr.Average(), want)
	}

	// shadow rays pass the boundary but not the wall
	from := &core.Interaction{Kind: core.MediumInteraction, P: core.Vec3{}}
	if got := s.Transmittance(core.VisibilityTester{From: from, To: core.NewVec3(0, 0, 1.5)}, sampler); math.Abs(got.Average()-math.Exp(-sigma*1.5)) > 1e-3 {
		t.Errorf("transmittance to z=1.5 = %g", got.Average())
	}
	if got := s.Transmittance(core.VisibilityTester{From: from, To: core.NewVec3(0, 0, 3)}, sampler); !got.IsBlack() {
		t.Errorf("wall should block the shadow ray, got %g", got.Average())
	}
	if !s.Unoccluded(core.VisibilityTester{From: from, To: core.NewVec3(0, 0, 0.5)}) {
		t.Error("nothing lies between the points")
	}
}

func TestHomogeneousMedium_Sample(t *testing.T) {
	const sigmaS, sigmaA, dist = 0.3, 0.1, 2.0
	m := NewHomogeneousMedium(spectral.Constant(sigmaA), spectral.Constant(sigmaS), 0.2)
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(42)))
	ray := core.NewRay(core.Vec3{}, core.NewVec3(0, 0, 2)) // unnormalized on purpose

	const samples = 50000
	scattered := 0
	for i := 0; i < samples; i++ {
		w, mi := m.Sample(ray, dist/2, sampler)
		if mi == nil {
			// surviving the whole segment carries weight one for a grey medium
			if math.Abs(w.Average()-1) > 1e-9 {
				t.Fatalf("transmitted weight = %g, want 1", w.Average())
			}
			continue
		}
		scattered++
		if want := sigmaS / (sigmaS + sigmaA); math.Abs(w.Average()-want) > 1e-9 {
			t.Fatalf("scattering weight = %g, want albedo %g", w.Average(), want)
		}
		if mi.P.Z < 0 || mi.P.Z > dist || mi.IsSurface() {
			t.Fatalf("bad medium interaction %+v", mi)
		}
	}
	want := 1 - math.Exp(-(sigmaS+sigmaA)*dist)
	if got := float64(scattered) / samples; math.Abs(got-want) > 0.01 {
		t.Errorf("scattering probability = %g, want %g", got, want)
	}
}
