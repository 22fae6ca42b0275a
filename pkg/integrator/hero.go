package integrator

import (
	"math"

	"github.com/df07/go-portal-raytracer/pkg/core"
	"github.com/df07/go-portal-raytracer/pkg/scene"
	"github.com/df07/go-portal-raytracer/pkg/spectral"
	"github.com/df07/go-portal-raytracer/pkg/stats"
)

// HeroPathIntegrator is a path tracer with hero wavelength spectral
// sampling. Every camera ray carries spectral.HeroCount wavelengths. While
// a path is wavelength independent it behaves like a path tracer with the
// balance heuristic. Once it refracts through a wavelength dependent
// surface only the hero wavelength picks the direction, the others evaluate
// their own BSDFs along it, and contributions are weighted by the
// wavelength densities and the per-wavelength path densities.
type HeroPathIntegrator struct {
	base
}

// NewHeroPathIntegrator creates a hero wavelength path integrator
func NewHeroPathIntegrator(cfg Config) *HeroPathIntegrator {
	return &HeroPathIntegrator{base{cfg: cfg}}
}

// Preprocess implements Integrator
func (h *HeroPathIntegrator) Preprocess(sc *scene.Scene, sink *stats.Sink, logger core.Logger) error {
	return h.preprocess(sc, sink, logger)
}

// heroPath is the wavelength bookkeeping of one path
type heroPath struct {
	dependent   bool                        // wavelength dependent from some vertex onward
	pathPdf     [spectral.HeroCount]float64 // product of scattering densities per wavelength
	prevPathPdf [spectral.HeroCount]float64 // pathPdf excluding the last vertex
	bins        [spectral.HeroCount]int     // spectral bin of each wavelength
	wvlPdf      spectral.Spectrum           // sampling probability of the tracked bins, 1 elsewhere
}

func newHeroPath(wavelengths [spectral.HeroCount]float64, dist *spectral.Distribution) *heroPath {
	hp := &heroPath{wvlPdf: spectral.Constant(1)}
	for i, lambda := range wavelengths {
		hp.pathPdf[i] = 1
		hp.prevPathPdf[i] = 1
		hp.bins[i] = spectral.IndexFromWavelength(lambda)
		if dist != nil {
			hp.wvlPdf[hp.bins[i]] = dist.Pdf(hp.bins[i])
		}
	}
	return hp
}

// emissionWeight weighs emission reached by a scattering sample against the
// light sampling density emPdf of the vertex the sample left from.
// Throughput of a dependent path carries no density divide, so the weight
// also normalizes it.
func (hp *heroPath) emissionWeight(scatterPdf, emPdf float64) spectral.Spectrum {
	if hp.dependent {
		sum := 0.0
		for i := range hp.pathPdf {
			sum += hp.pathPdf[i] + hp.prevPathPdf[i]*emPdf
		}
		return spectral.Constant(1).Div(hp.wvlPdf.Scale(sum))
	}
	if scatterPdf+emPdf == 0 {
		return spectral.Black()
	}
	return spectral.Constant(scatterPdf / (scatterPdf + emPdf))
}

// scatter advances beta over the sampled direction bs. On dependent paths
// only the hero wavelength keeps its sampled value; the others evaluate v
// along the same direction and every density goes into pathPdf instead of
// dividing beta.
func (hp *heroPath) scatter(beta spectral.Spectrum, bs core.BSDFSample, v vertex, dependent bool) spectral.Spectrum {
	if !dependent {
		return beta.Mul(bs.F).Scale(1 / bs.Pdf)
	}
	hp.prevPathPdf = hp.pathPdf
	f := bs.F.ZeroAllBut(hp.bins[0])
	hp.pathPdf[0] *= bs.Pdf
	for i := 1; i < spectral.HeroCount; i++ {
		fi := v.f(i, bs.Wi)
		f[hp.bins[i]] += fi[hp.bins[i]]
		hp.pathPdf[i] *= v.pdf(i, bs.Wi)
	}
	return beta.Mul(f)
}

// Li implements Integrator
func (h *HeroPathIntegrator) Li(r core.Ray, sc *scene.Scene, sampler core.Sampler, arena *core.Arena, rec *stats.Recorder, depth int) spectral.Spectrum {
	opts := h.options(sc, rec)
	ray := r
	L := spectral.Black()
	beta := spectral.Constant(1)
	etaScale := 1.0
	hp := newHeroPath(ray.Wavelengths, sc.Wavelengths())

	var prev core.Interaction
	scatterPdf := 0.0
	lastSpecular := false

	// emPdf is the light sampling density of a direction leaving prev
	emPdf := func(i int, wi core.Vec3) float64 {
		if lastSpecular {
			return 0
		}
		return h.lightPdf(sc, i, &prev, wi)
	}
	addEmission := func(Le spectral.Spectrum, i int, ok bool, bounces int) {
		if bounces == 0 {
			L = L.Add(beta.Mul(Le))
			return
		}
		pdf := 0.0
		if ok {
			pdf = emPdf(i, ray.Direction)
		}
		w := hp.emissionWeight(scatterPdf, pdf)
		if !hp.dependent {
			h.stats.bsdfWeight(rec, w[0])
		}
		L = L.Add(beta.Mul(Le).Mul(w))
	}

	bounces := 0
	for ; ; bounces++ {
		hit, found := sc.Intersect(ray)

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
				for i, entry := range sc.LightEntries() {
					if !entry.Light.Flags().IsInfinite() {
						continue
					}
					if Le := entry.Light.Le(ray); !Le.IsBlack() {
						addEmission(Le, i, true, bounces)
					}
				}
				break
			}
			if Le := hit.Le(ray.Direction.Negate()); !Le.IsBlack() {
				i, ok := sc.LightIndex(hit.AreaLight)
				addEmission(Le, i, ok, bounces)
				if h.cfg.TerminateOnEmitterHit {
					break
				}
			}
		}

		if bounces >= h.cfg.MaxDepth {
			break
		}

		var it *core.Interaction
		if mi != nil {
			it = mi
		} else {
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

		if !it.IsSurface() || core.HasNonSpecular(it.BSDF()) {
			Ld := h.sampleOneLight(it, hp, sc, sampler, opts)
			Ld = beta.Mul(Ld)
			opts.Stats.zeroRadiance(rec, Ld.IsBlack())
			L = L.Add(Ld)
		}

		// The hero wavelength chooses the direction
		bs := vertex{it: it}.sample(sampler.Get2D())
		if bs.F.IsBlack() || bs.Pdf == 0 {
			break
		}
		currentDependent := it.WavelengthDependent && bs.Type.IsTransmission()
		beta = hp.scatter(beta, bs, vertex{it: it, perWavelength: currentDependent}, hp.dependent || currentDependent)
		if beta.IsBlack() {
			break
		}

		if bs.Type.IsSpecular() && bs.Type.IsTransmission() {
			etaScale *= etaScaleFactor(it, it.BSDF())
		}
		scatterPdf = bs.Pdf
		prev = *it
		ray = it.SpawnRay(bs.Wi)
		hp.dependent = hp.dependent || currentDependent
		lastSpecular = bs.Type.IsSpecular()

		// Subsurface exits scale every wavelength alike
		if it.BSSRDF != nil && bs.Type.IsTransmission() {
			exit, weight, ok := it.BSSRDF.SampleExit(it, sampler, arena)
			if !ok || weight.IsBlack() || exit.BSDF() == nil {
				break
			}
			beta = beta.Mul(weight)
			L = L.Add(beta.Mul(h.sampleOneLight(exit, hp, sc, sampler, opts)))

			bs = vertex{it: exit}.sample(sampler.Get2D())
			if bs.F.IsBlack() || bs.Pdf == 0 {
				break
			}
			beta = hp.scatter(beta, bs, vertex{it: exit}, hp.dependent)
			scatterPdf = bs.Pdf
			lastSpecular = bs.Type.IsSpecular()
			prev = *exit
			ray = exit.SpawnRay(bs.Wi)
		}

		var survived bool
		if beta, survived = h.russianRoulette(beta, etaScale, bounces, sampler); !survived {
			break
		}
	}

	opts.Stats.pathLength(rec, bounces)
	return L
}

// sampleOneLight returns the weighted light sampled contribution of one
// light drawn from the distribution at it
func (h *HeroPathIntegrator) sampleOneLight(it *core.Interaction, hp *heroPath, sc *scene.Scene, sampler core.Sampler, opts DirectOptions) spectral.Spectrum {
	entries := sc.LightEntries()
	if len(entries) == 0 {
		return spectral.Black()
	}
	idx, sel := h.lightDistribution.Lookup(it.P).SampleDiscrete(sampler.Get1D())
	if idx < 0 || sel == 0 {
		return spectral.Black()
	}
	entry := entries[idx]
	ls := lightSample(it, entry, sampler.Get2D(), opts)
	if ls.Pdf == 0 || ls.Li.IsBlack() {
		return spectral.Black()
	}
	Li := visible(ls, sc, sampler, opts)
	if Li.IsBlack() {
		return spectral.Black()
	}
	emPdf := sel * ls.Pdf
	delta := entry.Light.Flags().IsDelta()

	if hp.dependent || it.WavelengthDependent {
		v := vertex{it: it, perWavelength: it.WavelengthDependent}
		f := spectral.Black()
		sum := 0.0
		for i := range hp.bins {
			fi := v.f(i, ls.Wi)
			f[hp.bins[i]] += fi[hp.bins[i]]
			scatter := 0.0
			if !delta {
				scatter = v.pdf(i, ls.Wi)
			}
			sum += hp.pathPdf[i] * (emPdf + scatter)
		}
		if f.IsBlack() || sum == 0 {
			return spectral.Black()
		}
		// the light density cancels against the weight's numerator
		return f.Mul(Li).Div(hp.wvlPdf.Scale(sum))
	}

	v := vertex{it: it}
	f := v.f(0, ls.Wi)
	if f.IsBlack() {
		return spectral.Black()
	}
	weight := 1.0
	if !delta {
		weight = emPdf / (emPdf + v.pdf(0, ls.Wi))
		opts.Stats.lightWeight(opts.Recorder, weight)
	}
	return f.Mul(Li).Scale(weight / emPdf)
}
