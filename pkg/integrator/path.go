package integrator

import (
	"math"

	"github.com/df07/go-portal-raytracer/pkg/core"
	"github.com/df07/go-portal-raytracer/pkg/scene"
	"github.com/df07/go-portal-raytracer/pkg/spectral"
	"github.com/df07/go-portal-raytracer/pkg/stats"
)

// PathIntegrator implements unidirectional path tracing with next event
// estimation. Emitters found by scattering samples are weighted with the
// power heuristic against the light sampling density of the vertex the
// sample left from. Wavelength dependent surfaces scatter with the BSDF of
// the first path wavelength.
type PathIntegrator struct {
	base
}

// NewPathIntegrator creates a new path tracing integrator
func NewPathIntegrator(cfg Config) *PathIntegrator {
	return &PathIntegrator{base{cfg: cfg}}
}

// Preprocess implements Integrator
func (pt *PathIntegrator) Preprocess(sc *scene.Scene, sink *stats.Sink, logger core.Logger) error {
	return pt.preprocess(sc, sink, logger)
}

// Li implements Integrator
func (pt *PathIntegrator) Li(r core.Ray, sc *scene.Scene, sampler core.Sampler, arena *core.Arena, rec *stats.Recorder, depth int) spectral.Spectrum {
	opts := pt.options(sc, rec)
	ray := r
	L := spectral.Black()
	beta := spectral.Constant(1)
	etaScale := 1.0

	// State of the previous scattering vertex, for weighting emitter hits
	var prev core.Interaction
	scatterPdf := 0.0
	specularBounce := false

	bounces := 0
	for ; ; bounces++ {
		hit, found := sc.Intersect(ray)

		// Sample a scattering point in the medium before the surface
		var mi *core.Interaction
		if opts.HandleMedia {
			tMax := math.Inf(1)
			if found {
				tMax = hit.T
			}
			var weight spectral.Spectrum
			weight, mi = sc.Medium.Sample(ray, tMax, sampler)
			beta = beta.Mul(weight)
			if beta.IsBlack() {
				break
			}
		}

		if mi == nil {
			if !found {
				// Escaped rays pick up the infinite lights
				for i, entry := range sc.LightEntries() {
					if !entry.Light.Flags().IsInfinite() {
						continue
					}
					if Le := entry.Light.Le(ray); !Le.IsBlack() {
						L = L.Add(beta.Mul(Le).Scale(pt.emissionWeight(sc, i, &prev, ray.Direction, bounces, specularBounce, scatterPdf, rec)))
					}
				}
				break
			}

			if Le := hit.Le(ray.Direction.Negate()); !Le.IsBlack() {
				weight := 1.0
				if i, ok := sc.LightIndex(hit.AreaLight); ok {
					weight = pt.emissionWeight(sc, i, &prev, ray.Direction, bounces, specularBounce, scatterPdf, rec)
				}
				L = L.Add(beta.Mul(Le).Scale(weight))
				if pt.cfg.TerminateOnEmitterHit {
					break
				}
			}
		}

		if bounces >= pt.cfg.MaxDepth {
			break
		}

		var it *core.Interaction
		if mi != nil {
			it = mi
		} else {
			// Skip over medium boundaries and null surfaces
			if hit.Material != nil {
				hit.Material.ComputeScattering(&hit, arena)
			}
			if hit.BSDF() == nil {
				ray = hit.SpawnRay(ray.Direction)
				bounces--
				continue
			}
			it = &hit
		}

		// Next event estimation, skipped for perfectly specular surfaces
		if !it.IsSurface() || core.HasNonSpecular(it.BSDF()) {
			Ld := beta.Mul(pt.sampleOneLight(it, sc, sampler, opts))
			opts.Stats.zeroRadiance(rec, Ld.IsBlack())
			L = L.Add(Ld)
		}

		// Sample the scattering function for the new path direction
		v := vertex{it: it}
		bs := v.sample(sampler.Get2D())
		if bs.F.IsBlack() || bs.Pdf == 0 {
			break
		}
		beta = beta.Mul(bs.F).Scale(1 / bs.Pdf)
		specularBounce = bs.Type.IsSpecular()
		if specularBounce && bs.Type.IsTransmission() {
			etaScale *= etaScaleFactor(it, it.BSDF())
		}
		scatterPdf = bs.Pdf
		prev = *it
		ray = it.SpawnRay(bs.Wi)

		// Continue from where light leaves a subsurface scattering surface
		if it.BSSRDF != nil && bs.Type.IsTransmission() {
			exit, weight, ok := it.BSSRDF.SampleExit(it, sampler, arena)
			if !ok || weight.IsBlack() || exit.BSDF() == nil {
				break
			}
			beta = beta.Mul(weight)
			L = L.Add(beta.Mul(pt.sampleOneLight(exit, sc, sampler, opts)))

			ev := vertex{it: exit}
			bs = ev.sample(sampler.Get2D())
			if bs.F.IsBlack() || bs.Pdf == 0 {
				break
			}
			beta = beta.Mul(bs.F).Scale(1 / bs.Pdf)
			specularBounce = bs.Type.IsSpecular()
			scatterPdf = bs.Pdf
			prev = *exit
			ray = exit.SpawnRay(bs.Wi)
		}

		if beta.IsBlack() {
			break
		}
		var survived bool
		if beta, survived = pt.russianRoulette(beta, etaScale, bounces, sampler); !survived {
			break
		}
	}

	opts.Stats.pathLength(rec, bounces)
	return L
}

// sampleOneLight picks a light from the distribution at it and returns its
// light sampled contribution
func (pt *PathIntegrator) sampleOneLight(it *core.Interaction, sc *scene.Scene, sampler core.Sampler, opts DirectOptions) spectral.Spectrum {
	entries := sc.LightEntries()
	if len(entries) == 0 {
		return spectral.Black()
	}
	idx, pmf := pt.lightDistribution.Lookup(it.P).SampleDiscrete(sampler.Get1D())
	if idx < 0 {
		return spectral.Black()
	}
	return EstimateDirectLightOnly(it, entries[idx], pmf, sc, sampler, sampler.Get2D(), opts)
}

// emissionWeight is the power heuristic weight of emission from light i
// reached by a scattering sample leaving prev. Camera rays and specular
// samples have no competing light sample.
func (pt *PathIntegrator) emissionWeight(sc *scene.Scene, i int, prev *core.Interaction, wi core.Vec3, bounces int, specularBounce bool, scatterPdf float64, rec *stats.Recorder) float64 {
	if bounces == 0 || specularBounce {
		return 1
	}
	weight := core.PowerHeuristic(1, scatterPdf, 1, pt.lightPdf(sc, i, prev, wi))
	pt.stats.bsdfWeight(rec, weight)
	return weight
}
