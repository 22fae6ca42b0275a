package spectral

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// HeroCount is the number of wavelengths carried by a spectral path
const HeroCount = 4

// ErrZeroWeights is returned by Distribution.Set when the weights cannot be normalized
var ErrZeroWeights = errors.New("spectral distribution weights sum to zero")

// Distribution is a discrete distribution over equal-width wavelength bins,
// stored as a cumulative array c[0..n] with c[0]=0 and c[n]=1.
type Distribution struct {
	cdf       []float64
	lambdaMin float64
	lambdaMax float64
}

// NewDistribution creates a uniform distribution over n bins spanning [lambdaMin, lambdaMax]
func NewDistribution(n int, lambdaMin, lambdaMax float64) *Distribution {
	if n < 1 {
		n = 1
	}
	d := &Distribution{
		cdf:       make([]float64, n+1),
		lambdaMin: lambdaMin,
		lambdaMax: lambdaMax,
	}
	for i := 1; i <= n; i++ {
		d.cdf[i] = float64(i) / float64(n)
	}
	return d
}

// NewSpectrumDistribution creates a distribution over the Spectrum bins proportional to s.
// A spectrum with no energy yields a uniform distribution and ErrZeroWeights.
func NewSpectrumDistribution(s Spectrum) (*Distribution, error) {
	d := NewDistribution(NumBins, LambdaMin, LambdaMax)
	err := d.Set(s[:])
	return d, err
}

// Set normalizes weights into the cumulative array. The distribution is left
// unchanged when the weights are invalid or sum to zero.
func (d *Distribution) Set(weights []float64) error {
	n := d.Count()
	if len(weights) != n {
		return fmt.Errorf("expected %d weights, got %d", n, len(weights))
	}

	total := 0.0
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("invalid weight %g at bin %d", w, i)
		}
		total += w
	}
	if total == 0 {
		return ErrZeroWeights
	}

	d.cdf[0] = 0
	running := 0.0
	for i, w := range weights {
		running += w
		d.cdf[i+1] = running / total
	}
	d.cdf[n] = 1
	return nil
}

// Count returns the number of bins
func (d *Distribution) Count() int {
	return len(d.cdf) - 1
}

// Pdf returns the probability mass of bin i
func (d *Distribution) Pdf(i int) float64 {
	if i < 0 || i >= d.Count() {
		return 0
	}
	return d.cdf[i+1] - d.cdf[i]
}

// Cdf returns c[i] for i in [0, n]
func (d *Distribution) Cdf(i int) float64 {
	if i <= 0 {
		return 0
	}
	if i >= d.Count() {
		return 1
	}
	return d.cdf[i]
}

// Sample returns the bin i with c[i] <= u < c[i+1], clamped to [0, n-1].
// Bins with zero mass are never returned for u in [0, 1).
func (d *Distribution) Sample(u float64) int {
	n := d.Count()
	// first index whose cumulative value exceeds u
	k := sort.Search(len(d.cdf), func(k int) bool { return d.cdf[k] > u })
	i := k - 1
	if i < 0 {
		i = 0
	}
	if i > n-1 {
		i = n - 1
	}
	return i
}

// SampleWavelength maps u to a continuous wavelength by sampling a bin and
// interpolating within it. It returns the wavelength and its density in 1/nm.
func (d *Distribution) SampleWavelength(u float64) (float64, float64) {
	n := d.Count()
	i := d.Sample(u)
	alpha := 0.0
	if width := d.cdf[i+1] - d.cdf[i]; width > 0 {
		alpha = math.Min(math.Max((u-d.cdf[i])/width, 0), 1)
	}
	span := d.lambdaMax - d.lambdaMin
	lambda := d.lambdaMin + span*(float64(i)+alpha)/float64(n)
	return lambda, d.Pdf(i) * float64(n) / span
}

// HeroWavelengths draws HeroCount wavelengths from one uniform sample by
// rotating it in equal steps, so each wavelength is marginally distributed
// according to d.
func (d *Distribution) HeroWavelengths(u float64) [HeroCount]float64 {
	var out [HeroCount]float64
	for i := range out {
		ui := math.Mod(u+float64(i)/HeroCount, 1)
		out[i], _ = d.SampleWavelength(ui)
	}
	return out
}
