package lights

import (
	"errors"
	"fmt"

	"github.com/df07/go-portal-raytracer/pkg/core"
	"github.com/df07/go-portal-raytracer/pkg/portal"
	"github.com/df07/go-portal-raytracer/pkg/spectral"
)

// ErrNoPortals is returned when a gated light is built without portals
var ErrNoPortals = errors.New("portal gated light needs at least one portal")

// Route is the sampling technique chosen for a shading point
type Route uint8

const (
	RouteNone       Route = iota // light cannot be seen through any portal
	RouteLight                   // sample the emitter directly
	RoutePortal                  // sample the portal rectangle uniformly
	RouteProjection              // sample the light's projection onto the portal
)

func (r Route) String() string {
	switch r {
	case RouteLight:
		return "light"
	case RoutePortal:
		return "portal"
	case RouteProjection:
		return "projection"
	default:
		return "none"
	}
}

// farPointer is implemented by infinite lights that can place a shadow ray
// endpoint outside the scene
type farPointer interface {
	FarPoint(p, w core.Vec3) core.Vec3
}

// PortalGatedLight wraps a light that is only visible through one or more
// portals. Points in front of a portal sample directions through it; points
// on the light's side fall back to sampling the light itself. A gated point
// light is always sampled directly and the portals only cull it.
type PortalGatedLight struct {
	Light    Light
	Portals  []*portal.Portal
	Strategy portal.Strategy

	area  *DiffuseAreaLight // wrapped area light
	sky   farPointer        // wrapped infinite light
	point *PointLight       // wrapped point light
}

// NewPortalGatedLight gates light behind portals. Configuration problems
// that still leave a usable light are logged: projection sampling needs a
// rectangular emitter parallel to the portal and otherwise degrades to
// portal sampling.
func NewPortalGatedLight(light Light, portals []*portal.Portal, strategy portal.Strategy, logger core.Logger) (*PortalGatedLight, error) {
	if len(portals) == 0 {
		return nil, ErrNoPortals
	}
	g := &PortalGatedLight{Light: light, Portals: portals, Strategy: strategy}

	switch l := light.(type) {
	case *DiffuseAreaLight:
		g.area = l
	case *PointLight:
		g.point = l
		if strategy != portal.StrategyLight {
			logger.Printf("Warning: point lights are sampled directly, portals only cull them\n")
			g.Strategy = portal.StrategyLight
		}
		return g, nil
	case farPointer:
		if !light.Flags().IsInfinite() {
			return nil, fmt.Errorf("cannot gate %T behind a portal", light)
		}
		g.sky = l
	default:
		return nil, fmt.Errorf("cannot gate %T behind a portal", light)
	}

	if strategy == portal.StrategyProjection {
		if g.area == nil {
			logger.Printf("Warning: projection sampling needs an area emitter, using portal sampling\n")
			g.Strategy = portal.StrategyPortal
		} else {
			for i, p := range portals {
				if !p.HasLightRect() {
					logger.Printf("Warning: portal %d has no parallel light rectangle, it will use portal sampling\n", i)
				}
			}
		}
	}
	return g, nil
}

// Emitter implements AreaEmitter for gated area lights
func (g *PortalGatedLight) Emitter() core.AreaLight {
	if g.area == nil {
		return nil
	}
	return g.area
}

// Flags implements Light
func (g *PortalGatedLight) Flags() LightFlags { return g.Light.Flags() }

// Power implements Light
func (g *PortalGatedLight) Power() spectral.Spectrum { return g.Light.Power() }

// Le implements Light
func (g *PortalGatedLight) Le(ray core.Ray) spectral.Spectrum { return g.Light.Le(ray) }

// Preprocess implements Light
func (g *PortalGatedLight) Preprocess(bounds core.AABB) { g.Light.Preprocess(bounds) }

// candidate reports whether portal i can carry light to p
func (g *PortalGatedLight) candidate(i int, p core.Vec3) bool {
	pt := g.Portals[i]
	return pt.InFront(p) && pt.InFrustum(p) && pt.PassesGate(p)
}

// candidates counts the portals that can carry light to p and reports
// whether p is in front of any portal at all
func (g *PortalGatedLight) candidates(p core.Vec3) (n int, inFront bool) {
	for i, pt := range g.Portals {
		if !pt.InFront(p) {
			continue
		}
		inFront = true
		if g.candidate(i, p) {
			n++
		}
	}
	return n, inFront
}

// Route selects the sampling technique for shading point p
func (g *PortalGatedLight) Route(p core.Vec3) Route {
	if g.Strategy == portal.StrategyLight && g.point == nil {
		return RouteLight
	}
	n, inFront := g.candidates(p)
	switch {
	case !inFront:
		return RouteLight
	case n == 0:
		return RouteNone
	case g.point != nil:
		return RouteLight
	case g.Strategy == portal.StrategyProjection:
		return RouteProjection
	default:
		return RoutePortal
	}
}

// SampleLi implements Light
func (g *PortalGatedLight) SampleLi(ref *core.Interaction, u core.Vec2) LightSample {
	return g.SampleRoute(g.Route(ref.P), ref, u)
}

// PdfLi implements Light
func (g *PortalGatedLight) PdfLi(ref *core.Interaction, wi core.Vec3) float64 {
	return g.PdfRoute(g.Route(ref.P), ref, wi)
}

// SampleRoute samples incident radiance with an already chosen route.
// Through a portal one candidate is picked uniformly and the density is the
// mixture over all candidates.
func (g *PortalGatedLight) SampleRoute(route Route, ref *core.Interaction, u core.Vec2) LightSample {
	switch {
	case route == RouteLight:
		return g.Light.SampleLi(ref, u)
	case route == RouteNone, g.point != nil:
		return LightSample{}
	}

	n, _ := g.candidates(ref.P)
	if n == 0 {
		return LightSample{}
	}
	pick := min(int(u.X*float64(n)), n-1)
	u.X = u.X*float64(n) - float64(pick)

	var s portal.Sample
	for i := range g.Portals {
		if !g.candidate(i, ref.P) {
			continue
		}
		if pick == 0 {
			s = g.samplePortal(i, route, ref.P, u)
			break
		}
		pick--
	}
	if s.Pdf == 0 {
		return LightSample{}
	}

	pdf := s.Pdf
	if n > 1 {
		pdf = g.PdfRoute(route, ref, s.Wi)
	}
	ls := LightSample{Wi: s.Wi, Pdf: pdf}

	ray := ref.SpawnRay(s.Wi)
	if g.area != nil {
		hit, ok := g.area.Shape.Intersect(ray)
		if !ok {
			// the direction crosses the portal but misses the emitter
			return ls
		}
		ls.Li = g.area.L(&hit, s.Wi.Negate())
		ls.Vis = core.VisibilityTester{From: ref, To: hit.P}
		return ls
	}
	ls.Li = g.Light.Le(ray)
	ls.Vis = core.VisibilityTester{From: ref, To: g.sky.FarPoint(ref.P, s.Wi)}
	return ls
}

// PdfRoute returns the density SampleRoute assigns to wi
func (g *PortalGatedLight) PdfRoute(route Route, ref *core.Interaction, wi core.Vec3) float64 {
	switch {
	case route == RouteLight:
		return g.Light.PdfLi(ref, wi)
	case route == RouteNone, g.point != nil:
		return 0
	}
	n := 0
	sum := 0.0
	for i, pt := range g.Portals {
		if !g.candidate(i, ref.P) {
			continue
		}
		n++
		if route == RouteProjection && pt.HasLightRect() {
			sum += pt.PdfProjection(ref.P, wi)
		} else {
			sum += pt.PdfPortal(ref.P, wi)
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func (g *PortalGatedLight) samplePortal(i int, route Route, ref core.Vec3, u core.Vec2) portal.Sample {
	pt := g.Portals[i]
	if route == RouteProjection && pt.HasLightRect() {
		return pt.SampleProjection(ref, u)
	}
	return pt.SamplePortal(ref, u)
}
