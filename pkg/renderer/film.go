package renderer

import (
	"image"
	"image/color"
	"math"
	"sync"
)

// Film accumulates pixel samples for the whole image. Tiles are rendered
// into private FilmTiles and merged under a lock.
type Film struct {
	mu     sync.Mutex
	width  int
	height int
	pixels []PixelStats
}

// NewFilm creates an empty film
func NewFilm(width, height int) *Film {
	return &Film{width: width, height: height, pixels: make([]PixelStats, width*height)}
}

// Bounds returns the pixel rectangle of the film
func (f *Film) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.width, f.height)
}

// FilmTile holds the samples of one tile before they are merged
type FilmTile struct {
	Bounds image.Rectangle
	pixels []PixelStats
}

// NewFilmTile creates an empty tile covering bounds
func NewFilmTile(bounds image.Rectangle) *FilmTile {
	return &FilmTile{Bounds: bounds, pixels: make([]PixelStats, bounds.Dx()*bounds.Dy())}
}

// Pixel returns the accumulator of pixel (x, y) in film coordinates
func (t *FilmTile) Pixel(x, y int) *PixelStats {
	return &t.pixels[(y-t.Bounds.Min.Y)*t.Bounds.Dx()+(x-t.Bounds.Min.X)]
}

// MergeTile adds the samples of tile to the film. Safe for concurrent use.
func (f *Film) MergeTile(tile *FilmTile) {
	b := tile.Bounds.Intersect(f.Bounds())
	f.mu.Lock()
	defer f.mu.Unlock()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			f.pixels[y*f.width+x].merge(*tile.Pixel(x, y))
		}
	}
}

// Pixel returns the average linear RGB of pixel (x, y)
func (f *Film) Pixel(x, y int) (r, g, b float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pixels[y*f.width+x].GetColor()
}

// SampleCount returns the number of samples merged into pixel (x, y)
func (f *Film) SampleCount(x, y int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pixels[y*f.width+x].SampleCount
}

// Image returns the film as an 8-bit sRGB image
func (f *Film) Image() *image.RGBA {
	img := image.NewRGBA(f.Bounds())
	f.mu.Lock()
	defer f.mu.Unlock()
	for y := 0; y < f.height; y++ {
		for x := 0; x < f.width; x++ {
			r, g, b := f.pixels[y*f.width+x].GetColor()
			img.SetRGBA(x, y, color.RGBA{R: toByte(r), G: toByte(g), B: toByte(b), A: 255})
		}
	}
	return img
}

// toByte applies gamma correction (gamma = 2.0) and clamps to [0, 255]
func toByte(v float64) uint8 {
	v = math.Sqrt(math.Max(v, 0))
	return uint8(255 * math.Min(v, 1))
}
