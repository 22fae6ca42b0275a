package lights

import (
	"math"
	"math/rand"
	"strings"
	"sync"

	"github.com/df07/go-portal-raytracer/pkg/core"
)

// LightDistribution picks a light for next event estimation at a point
type LightDistribution interface {
	// Lookup returns the distribution over scene lights to use at p
	Lookup(p core.Vec3) *core.Distribution1D
}

// NewLightDistribution builds the named strategy: "uniform", "power" or
// "spatial". Unknown names are logged and use "spatial".
func NewLightDistribution(strategy string, lights []Light, bounds core.AABB, logger core.Logger) LightDistribution {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case "uniform":
		return &fixedDistribution{core.NewUniformDistribution1D(len(lights))}
	case "power":
		return NewPowerDistribution(lights)
	case "spatial":
	default:
		logger.Printf("Warning: unknown light sample strategy %q, using \"spatial\"\n", strategy)
	}
	return NewSpatialDistribution(lights, bounds, defaultMaxVoxels)
}

// fixedDistribution ignores the lookup point
type fixedDistribution struct {
	d *core.Distribution1D
}

func (f *fixedDistribution) Lookup(p core.Vec3) *core.Distribution1D { return f.d }

// NewPowerDistribution samples lights proportionally to their emitted power
func NewPowerDistribution(lights []Light) LightDistribution {
	weights := make([]float64, len(lights))
	for i, l := range lights {
		weights[i] = l.Power().Y()
	}
	return &fixedDistribution{core.NewDistribution1D(weights)}
}

const (
	defaultMaxVoxels = 16
	voxelSamples     = 64
)

type voxel struct {
	once sync.Once
	d    *core.Distribution1D
}

// SpatialDistribution partitions the scene bounds into voxels and samples
// lights by their estimated contribution inside each voxel. Voxels are
// filled on first use with a seed derived from their index, so concurrent
// lookups see identical distributions.
type SpatialDistribution struct {
	lights []Light
	bounds core.AABB
	res    [3]int
	voxels []voxel
}

// NewSpatialDistribution creates a spatial distribution whose longest axis
// has maxVoxels cells
func NewSpatialDistribution(lights []Light, bounds core.AABB, maxVoxels int) *SpatialDistribution {
	size := bounds.Size()
	longest := math.Max(size.X, math.Max(size.Y, size.Z))
	var res [3]int
	for i := range res {
		res[i] = 1
		if longest > 0 {
			res[i] = max(1, int(math.Round(size.Axis(i)/longest*float64(maxVoxels))))
		}
	}
	return &SpatialDistribution{
		lights: lights,
		bounds: bounds,
		res:    res,
		voxels: make([]voxel, res[0]*res[1]*res[2]),
	}
}

// Lookup implements LightDistribution
func (s *SpatialDistribution) Lookup(p core.Vec3) *core.Distribution1D {
	offset := s.bounds.Offset(p)
	var idx [3]int
	for i := range idx {
		idx[i] = min(max(int(offset.Axis(i)*float64(s.res[i])), 0), s.res[i]-1)
	}
	flat := (idx[2]*s.res[1]+idx[1])*s.res[0] + idx[0]
	v := &s.voxels[flat]
	v.once.Do(func() { v.d = s.compute(idx, int64(flat)) })
	return v.d
}

// compute estimates each light's contribution at random points in the voxel.
// Every light keeps a small floor so no light is ever unsampleable.
func (s *SpatialDistribution) compute(idx [3]int, seed int64) *core.Distribution1D {
	random := rand.New(rand.NewSource(seed))
	var lo, hi core.Vec3
	for i := range idx {
		lo = lo.WithAxis(i, float64(idx[i])/float64(s.res[i]))
		hi = hi.WithAxis(i, float64(idx[i]+1)/float64(s.res[i]))
	}
	pMin, pMax := s.bounds.Lerp(lo), s.bounds.Lerp(hi)

	contrib := make([]float64, len(s.lights))
	for n := 0; n < voxelSamples; n++ {
		p := core.NewVec3(
			pMin.X+random.Float64()*(pMax.X-pMin.X),
			pMin.Y+random.Float64()*(pMax.Y-pMin.Y),
			pMin.Z+random.Float64()*(pMax.Z-pMin.Z),
		)
		ref := &core.Interaction{Kind: core.MediumInteraction, P: p}
		u := core.NewVec2(random.Float64(), random.Float64())
		for i, l := range s.lights {
			ls := l.SampleLi(ref, u)
			if ls.Pdf > 0 {
				if y := ls.Li.Y(); y > 0 {
					contrib[i] += y / ls.Pdf
				}
			}
		}
	}

	sum := 0.0
	for _, c := range contrib {
		sum += c
	}
	floor := 1.0
	if avg := sum / float64(voxelSamples*max(1, len(contrib))); avg > 0 {
		floor = 0.001 * avg
	}
	for i := range contrib {
		contrib[i] = math.Max(contrib[i], floor)
	}
	return core.NewDistribution1D(contrib)
}
