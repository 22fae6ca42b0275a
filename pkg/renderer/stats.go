package renderer

import (
	"image"
	"time"

	"github.com/df07/go-portal-raytracer/pkg/spectral"
)

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	TotalPixels    int           // Total number of pixels rendered
	TotalSamples   int           // Total number of samples taken
	AverageSamples float64       // Average samples per pixel
	InvalidSamples int           // Samples replaced with black
	ArenaPeak      int           // Most arena values live at once in any worker
	Duration       time.Duration // Wall time of the render
}

// merge folds the statistics of one tile into s
func (s *RenderStats) merge(o RenderStats) {
	s.TotalPixels += o.TotalPixels
	s.TotalSamples += o.TotalSamples
	s.InvalidSamples += o.InvalidSamples
	s.ArenaPeak = max(s.ArenaPeak, o.ArenaPeak)
}

// finalize calculates derived statistics once every tile is merged
func (s *RenderStats) finalize() {
	if s.TotalPixels > 0 {
		s.AverageSamples = float64(s.TotalSamples) / float64(s.TotalPixels)
	}
}

// PixelStats tracks the samples accumulated for a single pixel
type PixelStats struct {
	R, G, B     float64 // linear sRGB accumulators
	SampleCount int     // Number of samples taken
}

// AddSample adds a radiance sample to the pixel statistics
func (ps *PixelStats) AddSample(L spectral.Spectrum) {
	r, g, b := L.ToRGB()
	ps.R += r
	ps.G += g
	ps.B += b
	ps.SampleCount++
}

// merge adds the samples of o to ps
func (ps *PixelStats) merge(o PixelStats) {
	ps.R += o.R
	ps.G += o.G
	ps.B += o.B
	ps.SampleCount += o.SampleCount
}

// GetColor returns the current average linear color for this pixel
func (ps *PixelStats) GetColor() (r, g, b float64) {
	if ps.SampleCount == 0 {
		return 0, 0, 0
	}
	n := float64(ps.SampleCount)
	return ps.R / n, ps.G / n, ps.B / n
}

// CalculateAverageLuminance returns the mean Rec. 709 luminance of img,
// with channels read as values in [0, 1]
func CalculateAverageLuminance(img image.Image) float64 {
	bounds := img.Bounds()
	if bounds.Empty() {
		return 0
	}
	total := 0.0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			total += 0.2126*float64(r)/0xffff + 0.7152*float64(g)/0xffff + 0.0722*float64(b)/0xffff
		}
	}
	return total / float64(bounds.Dx()*bounds.Dy())
}
