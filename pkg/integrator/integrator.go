package integrator

import (
	"fmt"
	"strings"

	"github.com/df07/go-portal-raytracer/pkg/core"
	"github.com/df07/go-portal-raytracer/pkg/lights"
	"github.com/df07/go-portal-raytracer/pkg/scene"
	"github.com/df07/go-portal-raytracer/pkg/spectral"
	"github.com/df07/go-portal-raytracer/pkg/stats"
)

// Integrator defines the interface for light transport algorithms
type Integrator interface {
	// Preprocess prepares per-scene sampling state and registers the
	// integrator's statistics on sink, which may be nil. It must be called
	// once after scene.Preprocess and before any call to Li.
	Preprocess(sc *scene.Scene, sink *stats.Sink, logger core.Logger) error

	// Li returns the radiance arriving along a camera ray. depth is the
	// recursion depth for integrators that recurse, 0 for camera rays.
	// Scratch values come from arena and statistics go to rec (nil-safe).
	Li(ray core.Ray, sc *scene.Scene, sampler core.Sampler, arena *core.Arena, rec *stats.Recorder, depth int) spectral.Spectrum
}

// Names lists the integrators New understands
var Names = []string{"path", "hwss", "direct"}

// New creates an integrator by name
func New(name string, cfg Config) (Integrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch strings.ToLower(name) {
	case "path":
		return NewPathIntegrator(cfg), nil
	case "hwss", "hero":
		return NewHeroPathIntegrator(cfg), nil
	case "direct", "directlighting":
		strategy, _ := parseLightStrategy(cfg.DirectStrategy)
		return NewDirectLightingIntegrator(cfg, strategy), nil
	default:
		return nil, fmt.Errorf("%w: unknown integrator %q", ErrInvalidConfig, name)
	}
}

// Stats holds the ids of the statistics the integrators record. A nil
// *Stats records nothing.
type Stats struct {
	PathLength   stats.HistogramID
	ZeroRadiance stats.PercentID
	LightWeight  stats.HistogramID // MIS weights of light samples
	BSDFWeight   stats.HistogramID // MIS weights of BSDF samples and emitter hits
	Routes       [4]stats.CounterID
}

// RegisterStats registers the integrator statistics on sink
func RegisterStats(sink *stats.Sink, maxDepth int) *Stats {
	if sink == nil {
		return nil
	}
	s := &Stats{
		PathLength:   sink.RegisterHistogram("Integrator/Path length", 0, float64(maxDepth+1), maxDepth+1),
		ZeroRadiance: sink.RegisterPercent("Integrator/Zero-radiance paths"),
		LightWeight:  sink.RegisterHistogram("Integrator/MIS weight (light)", 0, 1, 10),
		BSDFWeight:   sink.RegisterHistogram("Integrator/MIS weight (bsdf)", 0, 1, 10),
	}
	for r := lights.RouteNone; r <= lights.RouteProjection; r++ {
		s.Routes[r] = sink.RegisterCounter("Portal/Route " + r.String())
	}
	return s
}

func (s *Stats) route(rec *stats.Recorder, r lights.Route) {
	if s != nil {
		rec.Inc(s.Routes[r])
	}
}

func (s *Stats) lightWeight(rec *stats.Recorder, w float64) {
	if s != nil {
		rec.Observe(s.LightWeight, w)
	}
}

func (s *Stats) bsdfWeight(rec *stats.Recorder, w float64) {
	if s != nil {
		rec.Observe(s.BSDFWeight, w)
	}
}

func (s *Stats) zeroRadiance(rec *stats.Recorder, black bool) {
	if s != nil {
		rec.Percent(s.ZeroRadiance, black)
	}
}

func (s *Stats) pathLength(rec *stats.Recorder, bounces int) {
	if s != nil {
		rec.Observe(s.PathLength, float64(bounces))
	}
}

// base is the state shared by the path integrators
type base struct {
	cfg               Config
	lightDistribution lights.LightDistribution
	stats             *Stats
}

func (b *base) preprocess(sc *scene.Scene, sink *stats.Sink, logger core.Logger) error {
	if err := b.cfg.Validate(); err != nil {
		return err
	}
	b.lightDistribution = lights.NewLightDistribution(b.cfg.LightSampleStrategy, sc.Lights, sc.Bounds(), logger)
	b.stats = RegisterStats(sink, b.cfg.MaxDepth)
	if b.cfg.HandleMedia && sc.Medium == nil {
		logger.Printf("Warning: media handling requested but the scene has no medium\n")
	}
	return nil
}

func (b *base) options(sc *scene.Scene, rec *stats.Recorder) DirectOptions {
	return DirectOptions{
		HandleMedia: b.cfg.HandleMedia && sc.Medium != nil,
		Stats:       b.stats,
		Recorder:    rec,
	}
}

// lightPdf is the density with which next event estimation from ref picks
// light i and then samples direction wi
func (b *base) lightPdf(sc *scene.Scene, i int, ref *core.Interaction, wi core.Vec3) float64 {
	sel := b.lightDistribution.Lookup(ref.P).DiscretePDF(i)
	if sel == 0 {
		return 0
	}
	return sel * sc.LightEntries()[i].Light.PdfLi(ref, wi)
}

// russianRoulette terminates low-throughput paths after three bounces.
// It returns the compensated throughput and whether the path survives.
func (b *base) russianRoulette(beta spectral.Spectrum, etaScale float64, bounces int, sampler core.Sampler) (spectral.Spectrum, bool) {
	rrBeta := beta.Scale(etaScale).MaxComponent()
	if rrBeta >= b.cfg.RRThreshold || bounces <= 3 {
		return beta, true
	}
	q := max(0.05, 1-rrBeta)
	if sampler.Get1D() < q {
		return beta, false
	}
	return beta.Scale(1 / (1 - q)), true
}

// etaScaleFactor is the radiance scaling of a specular transmission through
// it: eta squared when entering the surface, its inverse when leaving
func etaScaleFactor(it *core.Interaction, bsdf core.BSDF) float64 {
	eta := bsdf.Eta()
	if it.FrontFace {
		return eta * eta
	}
	return 1 / (eta * eta)
}
