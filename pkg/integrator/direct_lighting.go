package integrator

import (
	"fmt"
	"strings"

	"github.com/df07/go-portal-raytracer/pkg/core"
	"github.com/df07/go-portal-raytracer/pkg/scene"
	"github.com/df07/go-portal-raytracer/pkg/spectral"
	"github.com/df07/go-portal-raytracer/pkg/stats"
)

// LightStrategy selects how the direct lighting integrator visits lights
type LightStrategy int

const (
	SampleAllLights LightStrategy = iota // estimate every light at every hit
	SampleOneLight                       // estimate one light drawn from the light distribution
)

// parseLightStrategy maps "all" (or empty) and "one" to a LightStrategy
func parseLightStrategy(s string) (LightStrategy, error) {
	switch strings.ToLower(s) {
	case "", "all":
		return SampleAllLights, nil
	case "one":
		return SampleOneLight, nil
	default:
		return SampleAllLights, fmt.Errorf("%w: unknown direct lighting strategy %q", ErrInvalidConfig, s)
	}
}

// DirectLightingIntegrator computes direct illumination only, following
// perfectly specular reflection and transmission up to MaxDepth
type DirectLightingIntegrator struct {
	base
	strategy     LightStrategy
	lightSamples int
}

// NewDirectLightingIntegrator creates a direct lighting integrator
func NewDirectLightingIntegrator(cfg Config, strategy LightStrategy) *DirectLightingIntegrator {
	return &DirectLightingIntegrator{base: base{cfg: cfg}, strategy: strategy, lightSamples: 1}
}

// Preprocess implements Integrator
func (d *DirectLightingIntegrator) Preprocess(sc *scene.Scene, sink *stats.Sink, logger core.Logger) error {
	return d.preprocess(sc, sink, logger)
}

// Li implements Integrator
func (d *DirectLightingIntegrator) Li(ray core.Ray, sc *scene.Scene, sampler core.Sampler, arena *core.Arena, rec *stats.Recorder, depth int) spectral.Spectrum {
	opts := d.options(sc, rec)
	L := spectral.Black()

	hit, found := sc.Intersect(ray)
	for found && hit.Material == nil {
		hit, found = sc.Intersect(hit.SpawnRay(ray.Direction))
	}
	if !found {
		for _, l := range sc.InfiniteLights() {
			L = L.Add(l.Le(ray))
		}
		return L
	}

	L = L.Add(hit.Le(ray.Direction.Negate()))
	hit.Material.ComputeScattering(&hit, arena)
	bsdf := hit.BSDF()
	if bsdf == nil {
		return L
	}

	if core.HasNonSpecular(bsdf) {
		var Ld spectral.Spectrum
		if d.strategy == SampleAllLights {
			Ld = UniformSampleAllLights(&hit, sc, sampler, d.lightSamples, opts)
		} else {
			Ld = UniformSampleOneLight(&hit, sc, sampler, d.lightDistribution.Lookup(hit.P), opts)
		}
		opts.Stats.zeroRadiance(rec, Ld.IsBlack())
		L = L.Add(Ld)
	}

	if depth+1 < d.cfg.MaxDepth {
		// Follow perfectly specular scattering
		bs := vertex{it: &hit}.sample(sampler.Get2D())
		if bs.Type.IsSpecular() && bs.Pdf > 0 && !bs.F.IsBlack() {
			Li := d.Li(hit.SpawnRay(bs.Wi), sc, sampler, arena, rec, depth+1)
			L = L.Add(bs.F.Mul(Li).Scale(1 / bs.Pdf))
		}
	}
	return L
}
