package integrator

import (
	"github.com/df07/go-portal-raytracer/pkg/core"
	"github.com/df07/go-portal-raytracer/pkg/lights"
	"github.com/df07/go-portal-raytracer/pkg/scene"
	"github.com/df07/go-portal-raytracer/pkg/spectral"
	"github.com/df07/go-portal-raytracer/pkg/stats"
)

// DirectOptions configures the direct lighting estimators
type DirectOptions struct {
	HandleMedia bool            // attenuate shadow rays by the scene medium
	Stats       *Stats          // statistics ids, nil to record nothing
	Recorder    *stats.Recorder // per-worker recorder
}

// vertex evaluates the scattering function at a path vertex: the BSDF at
// surfaces, the phase function in media. With perWavelength set, path
// wavelength i uses its own BSDF on wavelength dependent surfaces.
type vertex struct {
	it            *core.Interaction
	perWavelength bool
}

func (v vertex) bsdf(i int) core.BSDF {
	if v.perWavelength {
		return v.it.BSDFFor(i)
	}
	return v.it.BSDF()
}

// f returns the scattering function times the cosine at the surface
func (v vertex) f(i int, wi core.Vec3) spectral.Spectrum {
	if !v.it.IsSurface() {
		return spectral.Constant(v.it.Phase.P(v.it.Wo, wi))
	}
	b := v.bsdf(i)
	if b == nil {
		return spectral.Black()
	}
	return b.F(v.it.Wo, wi).Scale(wi.AbsDot(v.it.ShadingN))
}

func (v vertex) pdf(i int, wi core.Vec3) float64 {
	if !v.it.IsSurface() {
		return v.it.Phase.P(v.it.Wo, wi)
	}
	b := v.bsdf(i)
	if b == nil {
		return 0
	}
	return b.Pdf(v.it.Wo, wi)
}

// sample draws a new direction with the primary scattering function.
// F already includes the cosine at the surface.
func (v vertex) sample(u core.Vec2) core.BSDFSample {
	if !v.it.IsSurface() {
		wi, p := v.it.Phase.Sample(v.it.Wo, u)
		return core.BSDFSample{F: spectral.Constant(p), Wi: wi, Pdf: p}
	}
	b := v.it.BSDF()
	if b == nil {
		return core.BSDFSample{}
	}
	bs := b.Sample(v.it.Wo, u)
	bs.F = bs.F.Scale(bs.Wi.AbsDot(v.it.ShadingN))
	return bs
}

// lightSample draws a direction toward one light, routing gated lights
// through their portals and counting the route taken
func lightSample(it *core.Interaction, entry scene.LightEntry, u core.Vec2, opts DirectOptions) lights.LightSample {
	if entry.Gated == nil {
		return entry.Light.SampleLi(it, u)
	}
	route := entry.Gated.Route(it.P)
	opts.Stats.route(opts.Recorder, route)
	return entry.Gated.SampleRoute(route, it, u)
}

// visible applies the shadow test to ls, returning the radiance that reaches
// the reference point
func visible(ls lights.LightSample, sc *scene.Scene, sampler core.Sampler, opts DirectOptions) spectral.Spectrum {
	if opts.HandleMedia {
		return ls.Li.Mul(sc.Transmittance(ls.Vis, sampler))
	}
	if !sc.Unoccluded(ls.Vis) {
		return spectral.Black()
	}
	return ls.Li
}

// EstimateDirect estimates the radiance reflected at it toward it.Wo from
// the light in entry. A light sample and a scattering sample are combined
// with the power heuristic; delta lights use the light sample alone.
func EstimateDirect(it *core.Interaction, entry scene.LightEntry, sc *scene.Scene, sampler core.Sampler, uScattering, uLight core.Vec2, opts DirectOptions) spectral.Spectrum {
	v := vertex{it: it}
	delta := entry.Light.Flags().IsDelta()
	Ld := spectral.Black()

	// Sample light with multiple importance sampling
	ls := lightSample(it, entry, uLight, opts)
	if ls.Pdf > 0 && !ls.Li.IsBlack() {
		f := v.f(0, ls.Wi)
		if !f.IsBlack() {
			if Li := visible(ls, sc, sampler, opts); !Li.IsBlack() {
				if delta {
					Ld = Ld.Add(f.Mul(Li).Scale(1 / ls.Pdf))
				} else {
					weight := core.PowerHeuristic(1, ls.Pdf, 1, v.pdf(0, ls.Wi))
					opts.Stats.lightWeight(opts.Recorder, weight)
					Ld = Ld.Add(f.Mul(Li).Scale(weight / ls.Pdf))
				}
			}
		}
	}
	if delta {
		return Ld
	}

	// Sample the scattering function with multiple importance sampling
	bs := v.sample(uScattering)
	if bs.F.IsBlack() || bs.Pdf == 0 {
		return Ld
	}
	weight := 1.0
	if !bs.Type.IsSpecular() {
		lightPdf := entry.Light.PdfLi(it, bs.Wi)
		if lightPdf == 0 {
			return Ld
		}
		weight = core.PowerHeuristic(1, bs.Pdf, 1, lightPdf)
		opts.Stats.bsdfWeight(opts.Recorder, weight)
	}

	ray := it.SpawnRay(bs.Wi)
	var hit core.Interaction
	var found bool
	tr := spectral.Constant(1)
	if opts.HandleMedia {
		hit, found, tr = sc.IntersectTr(ray, sampler)
	} else {
		hit, found = sc.Intersect(ray)
	}

	Li := spectral.Black()
	if found {
		if entry.Area != nil && hit.AreaLight == entry.Area {
			Li = hit.Le(bs.Wi.Negate())
		}
	} else {
		Li = entry.Light.Le(ray)
	}
	if Li.IsBlack() {
		return Ld
	}
	return Ld.Add(bs.F.Mul(Li).Mul(tr).Scale(weight / bs.Pdf))
}

// EstimateDirectLightOnly is the light sampling half of EstimateDirect for
// integrators that pick up emission by following their own scattering
// samples. selectPdf is the probability of having chosen this light; the
// power heuristic weighs the combined light density against the
// scattering density, matching the weight of emitter hits.
func EstimateDirectLightOnly(it *core.Interaction, entry scene.LightEntry, selectPdf float64, sc *scene.Scene, sampler core.Sampler, uLight core.Vec2, opts DirectOptions) spectral.Spectrum {
	if selectPdf == 0 {
		return spectral.Black()
	}
	ls := lightSample(it, entry, uLight, opts)
	if ls.Pdf == 0 || ls.Li.IsBlack() {
		return spectral.Black()
	}
	v := vertex{it: it}
	f := v.f(0, ls.Wi)
	if f.IsBlack() {
		return spectral.Black()
	}
	Li := visible(ls, sc, sampler, opts)
	if Li.IsBlack() {
		return spectral.Black()
	}

	pdf := selectPdf * ls.Pdf
	weight := 1.0
	if !entry.Light.Flags().IsDelta() {
		weight = core.PowerHeuristic(1, pdf, 1, v.pdf(0, ls.Wi))
		opts.Stats.lightWeight(opts.Recorder, weight)
	}
	return f.Mul(Li).Scale(weight / pdf)
}

// UniformSampleOneLight estimates direct lighting from one light drawn from
// distrib, or uniformly when distrib is nil
func UniformSampleOneLight(it *core.Interaction, sc *scene.Scene, sampler core.Sampler, distrib *core.Distribution1D, opts DirectOptions) spectral.Spectrum {
	entries := sc.LightEntries()
	if len(entries) == 0 {
		return spectral.Black()
	}
	var idx int
	var pmf float64
	if distrib != nil {
		idx, pmf = distrib.SampleDiscrete(sampler.Get1D())
		if idx < 0 || pmf == 0 {
			return spectral.Black()
		}
	} else {
		idx = min(int(sampler.Get1D()*float64(len(entries))), len(entries)-1)
		pmf = 1 / float64(len(entries))
	}
	uLight := sampler.Get2D()
	uScattering := sampler.Get2D()
	return EstimateDirect(it, entries[idx], sc, sampler, uScattering, uLight, opts).Scale(1 / pmf)
}

// UniformSampleAllLights estimates direct lighting from every light, taking
// n samples of each
func UniformSampleAllLights(it *core.Interaction, sc *scene.Scene, sampler core.Sampler, n int, opts DirectOptions) spectral.Spectrum {
	n = max(n, 1)
	L := spectral.Black()
	for _, entry := range sc.LightEntries() {
		Ld := spectral.Black()
		for k := 0; k < n; k++ {
			uLight := sampler.Get2D()
			uScattering := sampler.Get2D()
			Ld = Ld.Add(EstimateDirect(it, entry, sc, sampler, uScattering, uLight, opts))
		}
		L = L.Add(Ld.Scale(1 / float64(n)))
	}
	return L
}
