package scene

import (
	"math"

	"github.com/df07/go-portal-raytracer/pkg/core"
	"github.com/df07/go-portal-raytracer/pkg/material"
	"github.com/df07/go-portal-raytracer/pkg/spectral"
)

// HomogeneousMedium has constant absorption and scattering everywhere
type HomogeneousMedium struct {
	SigmaA, SigmaS spectral.Spectrum
	Phase          material.HenyeyGreenstein

	sigmaT spectral.Spectrum
}

// NewHomogeneousMedium creates a medium with Henyey-Greenstein scattering
func NewHomogeneousMedium(sigmaA, sigmaS spectral.Spectrum, g float64) *HomogeneousMedium {
	return &HomogeneousMedium{
		SigmaA: sigmaA,
		SigmaS: sigmaS,
		Phase:  material.HenyeyGreenstein{G: g},
		sigmaT: sigmaA.Add(sigmaS),
	}
}

// Tr implements core.Medium with Beer's law
func (m *HomogeneousMedium) Tr(ray core.Ray, tMax float64) spectral.Spectrum {
	dist := math.Min(tMax*ray.Direction.Length(), math.MaxFloat64)
	return m.sigmaT.Scale(-dist).Exp()
}

// Sample implements core.Medium. A distance is drawn from one randomly
// chosen bin's extinction and the weight divides by the density averaged
// over all bins.
func (m *HomogeneousMedium) Sample(ray core.Ray, tMax float64, sampler core.Sampler) (spectral.Spectrum, *core.Interaction) {
	length := ray.Direction.Length()
	if length == 0 {
		return spectral.Constant(1), nil
	}
	bin := min(int(sampler.Get1D()*spectral.NumBins), spectral.NumBins-1)
	sigma := m.sigmaT[bin]

	t := tMax
	if sigma > 0 {
		dist := -math.Log(1-sampler.Get1D()) / sigma
		t = math.Min(dist/length, tMax)
	}
	sampled := t < tMax

	tr := m.sigmaT.Scale(-math.Min(t*length, math.MaxFloat64)).Exp()
	density := tr
	if sampled {
		density = m.sigmaT.Mul(tr)
	}
	pdf := density.Average()
	if pdf == 0 {
		return spectral.Black(), nil
	}

	if !sampled {
		return tr.Scale(1 / pdf), nil
	}
	wo := ray.Direction.Negate().Multiply(1 / length)
	mi := core.NewMediumInteraction(ray.At(t), wo, ray.Time, ray.Wavelengths, m.Phase)
	return tr.Mul(m.SigmaS).Scale(1 / pdf), mi
}
