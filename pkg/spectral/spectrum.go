package spectral

import (
	"math"
)

const (
	// NumBins is the number of equal-width wavelength bins a Spectrum carries
	NumBins = 60
	// LambdaMin is the lower edge of the first bin in nanometers
	LambdaMin = 400.0
	// LambdaMax is the upper edge of the last bin in nanometers
	LambdaMax = 700.0
	// BinWidth is the width of one bin in nanometers
	BinWidth = (LambdaMax - LambdaMin) / NumBins
)

// Spectrum is a piecewise-constant spectral power distribution sampled
// over NumBins bins between LambdaMin and LambdaMax
type Spectrum [NumBins]float64

// Constant returns a spectrum with every bin set to v
func Constant(v float64) Spectrum {
	var s Spectrum
	for i := range s {
		s[i] = v
	}
	return s
}

// Black returns the zero spectrum
func Black() Spectrum {
	return Spectrum{}
}

// Add returns the bin-wise sum
func (s Spectrum) Add(o Spectrum) Spectrum {
	for i := range s {
		s[i] += o[i]
	}
	return s
}

// Sub returns the bin-wise difference
func (s Spectrum) Sub(o Spectrum) Spectrum {
	for i := range s {
		s[i] -= o[i]
	}
	return s
}

// Mul returns the bin-wise product
func (s Spectrum) Mul(o Spectrum) Spectrum {
	for i := range s {
		s[i] *= o[i]
	}
	return s
}

// Scale multiplies every bin by k
func (s Spectrum) Scale(k float64) Spectrum {
	for i := range s {
		s[i] *= k
	}
	return s
}

// Div returns the bin-wise quotient. Bins with a zero divisor become zero.
func (s Spectrum) Div(o Spectrum) Spectrum {
	for i := range s {
		if o[i] == 0 {
			s[i] = 0
		} else {
			s[i] /= o[i]
		}
	}
	return s
}

// IsBlack reports whether every bin is zero
func (s Spectrum) IsBlack() bool {
	for _, v := range s {
		if v != 0 {
			return false
		}
	}
	return true
}

// MaxComponent returns the largest bin value
func (s Spectrum) MaxComponent() float64 {
	m := s[0]
	for _, v := range s[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// Sum returns the sum over all bins
func (s Spectrum) Sum() float64 {
	total := 0.0
	for _, v := range s {
		total += v
	}
	return total
}

// Average returns the mean bin value
func (s Spectrum) Average() float64 {
	return s.Sum() / NumBins
}

// HasNaNs reports whether any bin is NaN
func (s Spectrum) HasNaNs() bool {
	for _, v := range s {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

// ZeroAllBut clears every bin except bin i
func (s Spectrum) ZeroAllBut(i int) Spectrum {
	var out Spectrum
	if i >= 0 && i < NumBins {
		out[i] = s[i]
	}
	return out
}

// Exp returns e raised to each bin
func (s Spectrum) Exp() Spectrum {
	for i := range s {
		s[i] = math.Exp(s[i])
	}
	return s
}

// BinCenter returns the center wavelength of bin i in nanometers
func BinCenter(i int) float64 {
	return LambdaMin + (float64(i)+0.5)*BinWidth
}

// IndexFromWavelength maps a wavelength to the bin containing it, clamped to the valid range
func IndexFromWavelength(lambda float64) int {
	i := int((lambda - LambdaMin) / BinWidth)
	if i < 0 {
		return 0
	}
	if i >= NumBins {
		return NumBins - 1
	}
	return i
}
