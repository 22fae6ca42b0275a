package lights

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/df07/go-portal-raytracer/pkg/core"
	"github.com/df07/go-portal-raytracer/pkg/geometry"
	"github.com/df07/go-portal-raytracer/pkg/portal"
	"github.com/df07/go-portal-raytracer/pkg/spectral"
)

type testLogger struct {
	messages []string
}

func (l *testLogger) Printf(format string, args ...interface{}) {
	l.messages = append(l.messages, fmt.Sprintf(format, args...))
}

// cornerFormFactor is the differential-area to parallel-rectangle form
// factor for a rectangle of extent x*d by y*d with a corner above the point
func cornerFormFactor(x, y float64) float64 {
	a := math.Sqrt(1 + x*x)
	b := math.Sqrt(1 + y*y)
	return (x/a*math.Atan(y/a) + y/b*math.Atan(x/b)) / (2 * math.Pi)
}

// squareIrradiance is the cosine-weighted solid angle of a centered square
// with half side 1 at distance d
func squareIrradiance(d float64) float64 {
	return math.Pi * 4 * cornerFormFactor(1/d, 1/d)
}

func aperture(t *testing.T, lo, hi core.Vec3, facingForward bool) *geometry.Aperture {
	t.Helper()
	a, err := geometry.NewAperture(lo, hi, 2, facingForward)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

// ceilingLight is a downward facing square at z = 5
func ceilingLight(t *testing.T) (*DiffuseAreaLight, *geometry.Aperture) {
	rect := aperture(t, core.NewVec3(-1, -1, 5), core.NewVec3(1, 1, 5), false)
	return NewDiffuseAreaLight(spectral.Constant(1), rect, false), rect
}

func window(t *testing.T, light *geometry.Aperture, lo0, hi0 float64) *portal.Portal {
	t.Helper()
	p, err := portal.New(aperture(t, core.NewVec3(lo0, -1, 3), core.NewVec3(hi0, 1, 3), false), light, true)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func shadingPoint(p core.Vec3) *core.Interaction {
	n := core.NewVec3(0, 0, 1)
	return &core.Interaction{Kind: core.SurfaceInteraction, P: p, N: n, ShadingN: n, Wo: n, FrontFace: true}
}

// irradiance estimates the cosine weighted incident radiance at ref,
// ignoring visibility
func irradiance(l Light, ref *core.Interaction, samples int) float64 {
	random := rand.New(rand.NewSource(42))
	sum := 0.0
	for i := 0; i < samples; i++ {
		ls := l.SampleLi(ref, core.NewVec2(random.Float64(), random.Float64()))
		if ls.Pdf == 0 || ls.Li.IsBlack() {
			continue
		}
		sum += ls.Li.Average() * math.Max(0, ls.Wi.Dot(ref.N)) / ls.Pdf
	}
	return sum / float64(samples)
}

func TestDiffuseAreaLight_Sampling(t *testing.T) {
	light, _ := ceilingLight(t)
	ref := shadingPoint(core.NewVec3(0, 0, 0))

	random := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		ls := light.SampleLi(ref, core.NewVec2(random.Float64(), random.Float64()))
		if ls.Pdf == 0 {
			t.Fatal("unexpected degenerate sample")
		}
		if got := light.PdfLi(ref, ls.Wi); math.Abs(got-ls.Pdf) > 1e-9*ls.Pdf {
			t.Fatalf("PdfLi = %g, sample pdf = %g", got, ls.Pdf)
		}
		if ls.Li.Average() != 1 {
			t.Fatalf("Li = %g, want 1", ls.Li.Average())
		}
	}

	want := squareIrradiance(5)
	if got := irradiance(light, ref, 100000); math.Abs(got-want)/want > 0.01 {
		t.Errorf("irradiance = %g, want %g", got, want)
	}
}

func TestDiffuseAreaLight_OneSided(t *testing.T) {
	light, _ := ceilingLight(t)
	above := shadingPoint(core.NewVec3(0, 0, 10))
	ls := light.SampleLi(above, core.NewVec2(0.5, 0.5))
	if !ls.Li.IsBlack() {
		t.Errorf("back side of a one-sided light should be dark, got %g", ls.Li.Average())
	}

	light.TwoSided = true
	ls = light.SampleLi(above, core.NewVec2(0.5, 0.5))
	if ls.Li.IsBlack() {
		t.Error("two-sided light should emit on its back side")
	}
	if got, want := light.Power().Average(), 2*4*math.Pi; math.Abs(got-want) > 1e-9 {
		t.Errorf("Power = %g, want %g", got, want)
	}
}

func TestPointLight_InverseSquare(t *testing.T) {
	light := NewPointLight(core.NewVec3(0, 0, 2), spectral.Constant(8))
	ls := light.SampleLi(shadingPoint(core.NewVec3(0, 0, 0)), core.NewVec2(0.3, 0.7))
	if ls.Pdf != 1 || math.Abs(ls.Li.Average()-2) > 1e-12 {
		t.Errorf("got Li %g pdf %g, want 2 and 1", ls.Li.Average(), ls.Pdf)
	}
	if !light.Flags().IsDelta() {
		t.Error("point light should be a delta light")
	}
	if light.PdfLi(shadingPoint(core.NewVec3(0, 0, 0)), ls.Wi) != 0 {
		t.Error("delta lights have no density for explicit directions")
	}
}

func TestUniformInfiniteLight(t *testing.T) {
	light := NewUniformInfiniteLight(spectral.Constant(0.5))
	light.Preprocess(core.NewAABB(core.NewVec3(-1, -1, -1), core.NewVec3(1, 1, 1)))
	ref := shadingPoint(core.NewVec3(0, 0, 0))

	random := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		ls := light.SampleLi(ref, core.NewVec2(random.Float64(), random.Float64()))
		if ls.Pdf == 0 {
			continue
		}
		if got := light.PdfLi(ref, ls.Wi); math.Abs(got-ls.Pdf) > 1e-9 {
			t.Fatalf("PdfLi = %g, sample pdf = %g", got, ls.Pdf)
		}
		if ls.Vis.To.Length() < 2 {
			t.Fatalf("shadow ray endpoint %v is inside the scene", ls.Vis.To)
		}
	}

	// a sky of radiance L gives irradiance pi*L on a surface
	if got := irradiance(light, ref, 10000); math.Abs(got-0.5*math.Pi) > 1e-9 {
		t.Errorf("irradiance = %g, want %g", got, 0.5*math.Pi)
	}
	if !light.Le(core.NewRay(core.Vec3{}, core.NewVec3(0, 1, 0))).Sub(spectral.Constant(0.5)).IsBlack() {
		t.Error("escaped rays should carry the sky radiance")
	}
}

func TestPortalGatedLight_Route(t *testing.T) {
	light, rect := ceilingLight(t)
	p := window(t, rect, -1, 1)

	tests := []struct {
		name     string
		strategy portal.Strategy
		point    core.Vec3
		want     Route
	}{
		{"light strategy", portal.StrategyLight, core.NewVec3(0, 0, 0), RouteLight},
		{"visible through the portal", portal.StrategyPortal, core.NewVec3(0, 0, 0), RoutePortal},
		{"projection", portal.StrategyProjection, core.NewVec3(0, 0, 0), RouteProjection},
		{"on the light side", portal.StrategyPortal, core.NewVec3(0, 0, 4), RouteLight},
		{"outside the frustum", portal.StrategyPortal, core.NewVec3(400, 0, -100), RouteNone},
		{"outside the frustum projection", portal.StrategyProjection, core.NewVec3(400, 0, -100), RouteNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewPortalGatedLight(light, []*portal.Portal{p}, tt.strategy, &testLogger{})
			if err != nil {
				t.Fatal(err)
			}
			if got := g.Route(tt.point); got != tt.want {
				t.Errorf("Route = %v, want %v", got, tt.want)
			}
			if tt.want == RouteNone {
				if ls := g.SampleLi(shadingPoint(tt.point), core.NewVec2(0.5, 0.5)); ls.Pdf != 0 {
					t.Errorf("culled point produced a sample with pdf %g", ls.Pdf)
				}
			}
		})
	}
}

func TestPortalGatedLight_Unbiased(t *testing.T) {
	light, rect := ceilingLight(t)
	ref := shadingPoint(core.NewVec3(0, 0, 0))
	want := squareIrradiance(5)

	tests := []struct {
		name     string
		strategy portal.Strategy
		portals  func() []*portal.Portal
	}{
		{"portal", portal.StrategyPortal, func() []*portal.Portal { return []*portal.Portal{window(t, rect, -1, 1)} }},
		{"projection", portal.StrategyProjection, func() []*portal.Portal { return []*portal.Portal{window(t, rect, -1, 1)} }},
		{"split portal", portal.StrategyPortal, func() []*portal.Portal {
			return []*portal.Portal{window(t, rect, -1, 0), window(t, rect, 0, 1)}
		}},
		{"split projection", portal.StrategyProjection, func() []*portal.Portal {
			return []*portal.Portal{window(t, rect, -1, 0), window(t, rect, 0, 1)}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewPortalGatedLight(light, tt.portals(), tt.strategy, &testLogger{})
			if err != nil {
				t.Fatal(err)
			}
			if got := irradiance(g, ref, 200000); math.Abs(got-want)/want > 0.02 {
				t.Errorf("irradiance = %g, want %g", got, want)
			}
		})
	}
}

func TestPortalGatedLight_MixturePdf(t *testing.T) {
	light, rect := ceilingLight(t)
	portals := []*portal.Portal{window(t, rect, -1, 0), window(t, rect, 0, 1)}
	for _, strategy := range []portal.Strategy{portal.StrategyPortal, portal.StrategyProjection} {
		t.Run(strategy.String(), func(t *testing.T) {
			g, err := NewPortalGatedLight(light, portals, strategy, &testLogger{})
			if err != nil {
				t.Fatal(err)
			}
			random := rand.New(rand.NewSource(42))
			for i := 0; i < 500; i++ {
				ref := shadingPoint(core.NewVec3(random.Float64()*2-1, random.Float64()*2-1, random.Float64()*2))
				ls := g.SampleLi(ref, core.NewVec2(random.Float64(), random.Float64()))
				if ls.Pdf == 0 {
					continue
				}
				if got := g.PdfLi(ref, ls.Wi); math.Abs(got-ls.Pdf) > 1e-9*ls.Pdf {
					t.Fatalf("PdfLi = %g, sample pdf = %g", got, ls.Pdf)
				}
			}
		})
	}
}

func TestPortalGatedLight_Sky(t *testing.T) {
	sky := NewUniformInfiniteLight(spectral.Constant(1))
	sky.Preprocess(core.NewAABB(core.NewVec3(-5, -5, -5), core.NewVec3(5, 5, 5)))
	p, err := portal.New(aperture(t, core.NewVec3(-1, -1, 3), core.NewVec3(1, 1, 3), false), nil, true)
	if err != nil {
		t.Fatal(err)
	}

	logger := &testLogger{}
	g, err := NewPortalGatedLight(sky, []*portal.Portal{p}, portal.StrategyProjection, logger)
	if err != nil {
		t.Fatal(err)
	}
	if g.Strategy != portal.StrategyPortal {
		t.Errorf("strategy = %v, want fallback to portal", g.Strategy)
	}
	if len(logger.messages) != 1 || !strings.Contains(logger.messages[0], "projection") {
		t.Errorf("expected one projection warning, got %q", logger.messages)
	}
	if g.Emitter() != nil {
		t.Error("gated sky has no area emitter")
	}

	// the sky seen through the window only
	ref := shadingPoint(core.NewVec3(0, 0, 0))
	want := squareIrradiance(3)
	if got := irradiance(g, ref, 100000); math.Abs(got-want)/want > 0.01 {
		t.Errorf("irradiance = %g, want %g", got, want)
	}
}

func TestPortalGatedLight_Errors(t *testing.T) {
	light, rect := ceilingLight(t)
	if _, err := NewPortalGatedLight(light, nil, portal.StrategyPortal, &testLogger{}); !errors.Is(err, ErrNoPortals) {
		t.Errorf("expected ErrNoPortals, got %v", err)
	}
	gated, err := NewPortalGatedLight(light, []*portal.Portal{window(t, rect, -1, 1)}, portal.StrategyPortal, &testLogger{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewPortalGatedLight(gated, []*portal.Portal{window(t, rect, -1, 1)}, portal.StrategyPortal, &testLogger{}); err == nil {
		t.Error("gating a gated light should fail")
	}
}

func TestPortalGatedLight_Point(t *testing.T) {
	point := NewPointLight(core.NewVec3(0, 0, 5), spectral.Constant(25))
	newPortal := func(useFrustum bool) *portal.Portal {
		p, err := portal.NewPoint(aperture(t, core.NewVec3(-1, -1, 3), core.NewVec3(1, 1, 3), false), point.Position, useFrustum)
		if err != nil {
			t.Fatal(err)
		}
		return p
	}

	logger := &testLogger{}
	g, err := NewPortalGatedLight(point, []*portal.Portal{newPortal(true)}, portal.StrategyPortal, logger)
	if err != nil {
		t.Fatal(err)
	}
	if g.Strategy != portal.StrategyLight || len(logger.messages) != 1 {
		t.Errorf("strategy %v with warnings %q, want light and one warning", g.Strategy, logger.messages)
	}
	if g.Emitter() != nil || !g.Flags().IsDelta() {
		t.Error("gated point light should stay a delta light without an area emitter")
	}

	// the frustum from the light through the window is 2 wide at z = 1
	tests := []struct {
		name  string
		p     core.Vec3
		route Route
		li    float64
	}{
		{"on axis", core.NewVec3(0, 0, 0), RouteLight, 1},
		{"inside the frustum", core.NewVec3(1.5, 0, 1), RouteLight, 25 / (1.5*1.5 + 16)},
		{"outside the frustum", core.NewVec3(2.5, 0, 1), RouteNone, 0},
		{"behind the window", core.NewVec3(10, 0, 4), RouteLight, 25 / 101.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if r := g.Route(tt.p); r != tt.route {
				t.Fatalf("Route = %v, want %v", r, tt.route)
			}
			ls := g.SampleLi(shadingPoint(tt.p), core.NewVec2(0.5, 0.5))
			if math.Abs(ls.Li.Average()-tt.li) > 1e-9 {
				t.Errorf("Li = %g, want %g", ls.Li.Average(), tt.li)
			}
			if tt.route == RouteLight && ls.Pdf != 1 {
				t.Errorf("pdf = %g, want 1", ls.Pdf)
			}
			if g.PdfLi(shadingPoint(tt.p), core.NewVec3(0, 0, 1)) != 0 {
				t.Error("delta light has no density")
			}
		})
	}

	open, err := NewPortalGatedLight(point, []*portal.Portal{newPortal(false)}, portal.StrategyLight, &testLogger{})
	if err != nil {
		t.Fatal(err)
	}
	if r := open.Route(core.NewVec3(2.5, 0, 1)); r != RouteLight {
		t.Errorf("without frustum culling Route = %v, want light", r)
	}
}

func TestLightDistribution(t *testing.T) {
	near := NewPointLight(core.NewVec3(1, 5, 5), spectral.Constant(1))
	far := NewPointLight(core.NewVec3(9, 5, 5), spectral.Constant(3))
	lights := []Light{near, far}
	bounds := core.NewAABB(core.NewVec3(0, 0, 0), core.NewVec3(10, 10, 10))

	t.Run("uniform", func(t *testing.T) {
		d := NewLightDistribution("uniform", lights, bounds, &testLogger{}).Lookup(core.NewVec3(1, 1, 1))
		if d.DiscretePDF(0) != 0.5 || d.DiscretePDF(1) != 0.5 {
			t.Errorf("uniform pmf = %g, %g", d.DiscretePDF(0), d.DiscretePDF(1))
		}
	})

	t.Run("power", func(t *testing.T) {
		d := NewLightDistribution("power", lights, bounds, &testLogger{}).Lookup(core.NewVec3(1, 1, 1))
		if math.Abs(d.DiscretePDF(1)-0.75) > 1e-9 {
			t.Errorf("power pmf = %g, want 0.75", d.DiscretePDF(1))
		}
	})

	t.Run("spatial", func(t *testing.T) {
		s := NewLightDistribution("spatial", lights, bounds, &testLogger{})
		d := s.Lookup(core.NewVec3(0.5, 5, 5))
		if d.DiscretePDF(0) <= d.DiscretePDF(1) {
			t.Errorf("nearby light should dominate: pmf %g vs %g", d.DiscretePDF(0), d.DiscretePDF(1))
		}
		if s.Lookup(core.NewVec3(0.6, 5.1, 5)) != d {
			t.Error("lookups in one voxel should share a distribution")
		}
		d = s.Lookup(core.NewVec3(9.5, 5, 5))
		if d.DiscretePDF(1) <= d.DiscretePDF(0) {
			t.Errorf("nearby light should dominate: pmf %g vs %g", d.DiscretePDF(1), d.DiscretePDF(0))
		}
	})

	t.Run("unknown", func(t *testing.T) {
		logger := &testLogger{}
		d := NewLightDistribution("nearest", lights, bounds, logger)
		if _, ok := d.(*SpatialDistribution); !ok {
			t.Errorf("expected spatial fallback, got %T", d)
		}
		if len(logger.messages) != 1 {
			t.Errorf("expected a warning, got %q", logger.messages)
		}
	})
}
