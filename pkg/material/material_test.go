package material

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-portal-raytracer/pkg/core"
	"github.com/df07/go-portal-raytracer/pkg/spectral"
)

func surface(n core.Vec3, frontFace bool) *core.Interaction {
	return &core.Interaction{
		Kind:        core.SurfaceInteraction,
		N:           n,
		ShadingN:    n,
		FrontFace:   frontFace,
		Wavelengths: [4]float64{400, 500, 600, 700},
	}
}

func TestLambertian_PDFCalculation(t *testing.T) {
	arena := core.NewArena()
	si := surface(core.NewVec3(0, 0, 1), true)
	NewLambertian(spectral.Constant(0.8)).ComputeScattering(si, arena)

	bsdf := si.BSDF()
	if bsdf == nil || si.WavelengthDependent {
		t.Fatal("lambertian should produce a single BSDF")
	}

	random := rand.New(rand.NewSource(42))
	wo := core.NewVec3(0.3, 0, 1).Normalize()
	for i := 0; i < 100; i++ {
		s := bsdf.Sample(wo, core.NewVec2(random.Float64(), random.Float64()))
		cosTheta := s.Wi.Dot(si.N)
		if cosTheta < 0 {
			t.Fatalf("sampled direction %v below the surface", s.Wi)
		}
		expectedPDF := cosTheta / math.Pi
		if math.Abs(s.Pdf-expectedPDF) > 1e-10 {
			t.Errorf("PDF mismatch: got %f, expected %f", s.Pdf, expectedPDF)
		}
		if math.Abs(bsdf.Pdf(wo, s.Wi)-s.Pdf) > 1e-10 {
			t.Errorf("Pdf() disagrees with the sample pdf")
		}
	}

	// transmission directions carry nothing
	below := core.NewVec3(0, 0, -1)
	if !bsdf.F(wo, below).IsBlack() || bsdf.Pdf(wo, below) != 0 {
		t.Error("lambertian should not transmit")
	}
}

func TestLambertian_EnergyConservation(t *testing.T) {
	arena := core.NewArena()
	si := surface(core.NewVec3(0, 1, 0), true)
	NewLambertian(spectral.Constant(0.5)).ComputeScattering(si, arena)
	bsdf := si.BSDF()

	random := rand.New(rand.NewSource(42))
	wo := core.NewVec3(0, 1, 0)
	const samples = 20000
	sum := 0.0
	for i := 0; i < samples; i++ {
		s := bsdf.Sample(wo, core.NewVec2(random.Float64(), random.Float64()))
		if s.Pdf > 0 {
			sum += s.F.Average() * math.Abs(s.Wi.Dot(si.N)) / s.Pdf
		}
	}
	// with cosine sampling every sample weighs exactly the albedo
	if got := sum / samples; math.Abs(got-0.5) > 1e-9 {
		t.Errorf("albedo estimate = %g, want 0.5", got)
	}
}

func TestDielectric_Fresnel(t *testing.T) {
	tests := []struct {
		name       string
		cos        float64
		etaI, etaT float64
		want       float64
	}{
		{"normal incidence air to glass", 1, 1, 1.5, 0.04},
		{"normal incidence glass to air", 1, 1.5, 1, 0.04},
		{"grazing", 0, 1, 1.5, 1},
		{"total internal reflection", 0.3, 1.5, 1, 1},
		{"matched indices", 0.5, 1.3, 1.3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FresnelDielectric(tt.cos, tt.etaI, tt.etaT); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("FresnelDielectric = %g, want %g", got, tt.want)
			}
		})
	}
}

func TestDielectric_Sample(t *testing.T) {
	arena := core.NewArena()
	n := core.NewVec3(0, 1, 0)
	si := surface(n, true)
	NewDielectric(1.5).ComputeScattering(si, arena)
	bsdf := si.BSDF()

	if bsdf.Eta() != 1.5 {
		t.Errorf("Eta = %g, want 1.5", bsdf.Eta())
	}
	if !bsdf.Type().IsSpecular() || core.HasNonSpecular(bsdf) {
		t.Error("dielectric should be purely specular")
	}

	wo := core.NewVec3(1, 1, 0).Normalize()
	fr := FresnelDielectric(wo.Dot(n), 1, 1.5)

	// below the Fresnel threshold the sample reflects
	r := bsdf.Sample(wo, core.NewVec2(fr/2, 0.5))
	if r.Type.IsTransmission() || math.Abs(r.Pdf-fr) > 1e-12 {
		t.Errorf("expected reflection with pdf %g, got %+v", fr, r)
	}
	if want := core.NewVec3(-wo.X, wo.Y, 0); r.Wi.Subtract(want).Length() > 1e-9 {
		t.Errorf("reflected direction %v, want %v", r.Wi, want)
	}

	// above it the sample refracts and obeys Snell's law
	tr := bsdf.Sample(wo, core.NewVec2((1+fr)/2, 0.5))
	if !tr.Type.IsTransmission() || math.Abs(tr.Pdf-(1-fr)) > 1e-12 {
		t.Fatalf("expected transmission with pdf %g, got %+v", 1-fr, tr)
	}
	sinI := math.Sqrt(1 - wo.Y*wo.Y)
	sinT := math.Sqrt(1 - tr.Wi.Y*tr.Wi.Y)
	if tr.Wi.Y >= 0 || math.Abs(sinI-1.5*sinT) > 1e-9 {
		t.Errorf("refracted direction %v violates Snell's law", tr.Wi)
	}
	if math.Abs(tr.Wi.Length()-1) > 1e-9 {
		t.Errorf("refracted direction not unit length: %g", tr.Wi.Length())
	}
}

func TestDielectric_TotalInternalReflection(t *testing.T) {
	arena := core.NewArena()
	n := core.NewVec3(0, 1, 0)
	// leaving the glass at a grazing angle
	si := surface(n, false)
	NewDielectric(1.5).ComputeScattering(si, arena)

	wo := core.NewVec3(0.9, 0.1, 0).Normalize()
	random := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		s := si.BSDF().Sample(wo, core.NewVec2(random.Float64(), random.Float64()))
		if s.Type.IsTransmission() || s.Pdf != 1 {
			t.Fatalf("expected total internal reflection, got %+v", s)
		}
	}
}

func TestDispersiveGlass_Cauchy(t *testing.T) {
	g := NewDispersiveGlass(1.6, 1.5)

	if got := g.Eta(spectral.LambdaMin); math.Abs(got-1.6) > 1e-12 {
		t.Errorf("Eta(min) = %g, want 1.6", got)
	}
	if got := g.Eta(spectral.LambdaMax); math.Abs(got-1.5) > 1e-12 {
		t.Errorf("Eta(max) = %g, want 1.5", got)
	}
	prev := math.Inf(1)
	for lambda := spectral.LambdaMin; lambda <= spectral.LambdaMax; lambda += 10 {
		eta := g.Eta(lambda)
		if eta > prev {
			t.Fatalf("index should fall with wavelength: Eta(%g) = %g > %g", lambda, eta, prev)
		}
		prev = eta
	}
}

func TestDispersiveGlass_PerWavelengthBSDFs(t *testing.T) {
	arena := core.NewArena()
	si := surface(core.NewVec3(0, 1, 0), true)
	g := NewDispersiveGlass(1.6, 1.5)
	g.ComputeScattering(si, arena)

	if !si.WavelengthDependent {
		t.Fatal("dispersive glass should mark the interaction wavelength dependent")
	}
	if len(si.BSDFs) != len(si.Wavelengths) {
		t.Fatalf("got %d BSDFs, want %d", len(si.BSDFs), len(si.Wavelengths))
	}
	for i, lambda := range si.Wavelengths {
		if got := si.BSDFFor(i).Eta(); math.Abs(got-g.Eta(lambda)) > 1e-12 {
			t.Errorf("BSDF %d eta = %g, want %g", i, got, g.Eta(lambda))
		}
	}

	// the same incident direction bends differently per wavelength
	wo := core.NewVec3(1, 1, 0).Normalize()
	u := core.NewVec2(0.99, 0.5)
	blue := si.BSDFFor(0).Sample(wo, u)
	red := si.BSDFFor(3).Sample(wo, u)
	if !blue.Type.IsTransmission() || !red.Type.IsTransmission() {
		t.Fatal("expected both wavelengths to refract")
	}
	if math.Abs(blue.Wi.X) >= math.Abs(red.Wi.X) {
		t.Errorf("blue should bend more than red: blue %v red %v", blue.Wi, red.Wi)
	}
}

func TestMirror_Reflects(t *testing.T) {
	arena := core.NewArena()
	n := core.NewVec3(0, 0, 1)
	si := surface(n, true)
	NewMirror(spectral.Constant(0.9)).ComputeScattering(si, arena)

	wo := core.NewVec3(0.6, 0, 0.8)
	s := si.BSDF().Sample(wo, core.NewVec2(0.5, 0.5))
	if want := core.NewVec3(-0.6, 0, 0.8); s.Wi.Subtract(want).Length() > 1e-12 {
		t.Errorf("reflected direction %v, want %v", s.Wi, want)
	}
	// f*cos/pdf recovers the reflectance
	if got := s.F.Average() * s.Wi.Dot(n) / s.Pdf; math.Abs(got-0.9) > 1e-12 {
		t.Errorf("throughput = %g, want 0.9", got)
	}
}

func TestHenyeyGreenstein(t *testing.T) {
	for _, g := range []float64{-0.7, 0, 0.3, 0.85} {
		t.Run(fmt.Sprintf("g=%g", g), func(t *testing.T) {
			phase := HenyeyGreenstein{G: g}
			random := rand.New(rand.NewSource(42))
			wo := core.NewVec3(0, 0, -1) // travelling along +z

			const samples = 100000
			meanCos := 0.0
			for i := 0; i < samples; i++ {
				wi, p := phase.Sample(wo, core.NewVec2(random.Float64(), random.Float64()))
				if math.Abs(phase.P(wo, wi)-p) > 1e-9*p {
					t.Fatalf("P = %g, sample density %g", phase.P(wo, wi), p)
				}
				meanCos += wi.Z
			}
			meanCos /= samples
			if math.Abs(meanCos-g) > 0.01 {
				t.Errorf("mean cosine = %g, want %g", meanCos, g)
			}

			// integrates to one over the sphere; strongly peaked lobes are too
			// noisy for uniform sampling
			if math.Abs(g) > 0.8 {
				return
			}
			sum := 0.0
			for i := 0; i < samples; i++ {
				wi := core.SampleOnUnitSphere(core.NewVec2(random.Float64(), random.Float64()))
				sum += phase.P(wo, wi) / core.UniformSpherePDF
			}
			if got := sum / samples; math.Abs(got-1) > 0.05 {
				t.Errorf("phase integral = %g, want 1", got)
			}
		})
	}
}
