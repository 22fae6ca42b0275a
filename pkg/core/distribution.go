package core

import (
	"fmt"
	"strings"
)

// Distribution1D is a discrete distribution over a fixed set of items.
// Weights are normalized at construction; an all-zero weight set falls back
// to uniform selection.
type Distribution1D struct {
	pmf []float64
	cdf []float64
}

// NewDistribution1D creates a distribution proportional to weights.
// Negative weights are treated as zero.
func NewDistribution1D(weights []float64) *Distribution1D {
	n := len(weights)
	d := &Distribution1D{
		pmf: make([]float64, n),
		cdf: make([]float64, n+1),
	}
	if n == 0 {
		return d
	}

	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}

	for i, w := range weights {
		switch {
		case total == 0:
			d.pmf[i] = 1.0 / float64(n)
		case w > 0:
			d.pmf[i] = w / total
		}
		d.cdf[i+1] = d.cdf[i] + d.pmf[i]
	}
	d.cdf[n] = 1
	return d
}

// NewUniformDistribution1D creates a distribution with equal mass on n items
func NewUniformDistribution1D(n int) *Distribution1D {
	return NewDistribution1D(make([]float64, n))
}

// SampleDiscrete selects an item using the cumulative distribution.
// Returns the index and its probability mass, or -1 and 0 when empty.
func (d *Distribution1D) SampleDiscrete(u float64) (int, float64) {
	n := len(d.pmf)
	if n == 0 {
		return -1, 0
	}

	// largest i with cdf[i] <= u, skipping zero-mass items
	lo, hi := 0, n-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if d.cdf[mid] <= u {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	for lo > 0 && d.pmf[lo] == 0 {
		lo--
	}
	for lo < n-1 && d.pmf[lo] == 0 {
		lo++
	}
	return lo, d.pmf[lo]
}

// DiscretePDF returns the probability mass of item i
func (d *Distribution1D) DiscretePDF(i int) float64 {
	if i < 0 || i >= len(d.pmf) {
		return 0
	}
	return d.pmf[i]
}

// Count returns the number of items
func (d *Distribution1D) Count() int {
	return len(d.pmf)
}

// String returns a string representation for debugging
func (d *Distribution1D) String() string {
	if len(d.pmf) == 0 {
		return "Distribution1D{empty}"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Distribution1D{%d items:\n", len(d.pmf))
	for i, p := range d.pmf {
		fmt.Fprintf(&b, "  [%d] %.1f%%\n", i, p*100)
	}
	b.WriteString("}")
	return b.String()
}
