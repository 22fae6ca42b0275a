package spectral

import "math"

// CIE 1931 colour matching functions evaluated at bin centers using the
// multi-lobe Gaussian fit of Wyman, Sloan and Shirley (2013).
var cieX, cieY, cieZ, cieYSum = buildMatchingTables()

func piecewiseGaussian(x, mu, sigma1, sigma2 float64) float64 {
	sigma := sigma2
	if x < mu {
		sigma = sigma1
	}
	t := (x - mu) / sigma
	return math.Exp(-0.5 * t * t)
}

func buildMatchingTables() (x, y, z Spectrum, ySum float64) {
	for i := 0; i < NumBins; i++ {
		l := BinCenter(i)
		x[i] = 1.056*piecewiseGaussian(l, 599.8, 37.9, 31.0) +
			0.362*piecewiseGaussian(l, 442.0, 16.0, 26.7) -
			0.065*piecewiseGaussian(l, 501.1, 20.4, 26.2)
		y[i] = 0.821*piecewiseGaussian(l, 568.8, 46.9, 40.5) +
			0.286*piecewiseGaussian(l, 530.9, 16.3, 31.1)
		z[i] = 1.217*piecewiseGaussian(l, 437.0, 11.8, 36.0) +
			0.681*piecewiseGaussian(l, 459.0, 26.0, 13.8)
		ySum += y[i]
	}
	return x, y, z, ySum
}

// Y returns the luminance of the spectrum, normalized so Constant(1) has luminance 1
func (s Spectrum) Y() float64 {
	total := 0.0
	for i, v := range s {
		total += v * cieY[i]
	}
	return total / cieYSum
}

// ToXYZ converts the spectrum to CIE XYZ using the same normalization as Y
func (s Spectrum) ToXYZ() (x, y, z float64) {
	for i, v := range s {
		x += v * cieX[i]
		y += v * cieY[i]
		z += v * cieZ[i]
	}
	return x / cieYSum, y / cieYSum, z / cieYSum
}

// ToRGB converts the spectrum to linear sRGB primaries
func (s Spectrum) ToRGB() (r, g, b float64) {
	x, y, z := s.ToXYZ()
	r = 3.240479*x - 1.537150*y - 0.498535*z
	g = -0.969256*x + 1.875991*y + 0.041556*z
	b = 0.055648*x - 0.204043*y + 1.057311*z
	return r, g, b
}

// Band edges used when lifting RGB reflectances and emissions to spectra
const (
	blueGreenEdge = 490.0
	greenRedEdge  = 580.0
)

// FromRGB lifts an RGB triple to a spectrum of three box bands. A grey
// triple produces a constant spectrum.
func FromRGB(r, g, b float64) Spectrum {
	var s Spectrum
	for i := range s {
		l := BinCenter(i)
		switch {
		case l < blueGreenEdge:
			s[i] = b
		case l < greenRedEdge:
			s[i] = g
		default:
			s[i] = r
		}
	}
	return s
}

// Blackbody returns the normalized emission of a blackbody at temperature
// kelvin, scaled so its peak bin is 1
func Blackbody(kelvin float64) Spectrum {
	const (
		c  = 299792458.0
		h  = 6.62606957e-34
		kb = 1.3806488e-23
	)
	var s Spectrum
	if kelvin <= 0 {
		return s
	}
	for i := range s {
		l := BinCenter(i) * 1e-9
		s[i] = (2 * h * c * c) / (math.Pow(l, 5) * (math.Exp((h*c)/(l*kb*kelvin)) - 1))
	}
	if m := s.MaxComponent(); m > 0 {
		s = s.Scale(1 / m)
	}
	return s
}
