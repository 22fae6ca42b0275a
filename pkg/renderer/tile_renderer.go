package renderer

import (
	"image"
	"math"

	"github.com/df07/go-portal-raytracer/pkg/core"
	"github.com/df07/go-portal-raytracer/pkg/integrator"
	"github.com/df07/go-portal-raytracer/pkg/scene"
	"github.com/df07/go-portal-raytracer/pkg/spectral"
	"github.com/df07/go-portal-raytracer/pkg/stats"
)

// minLuminance is the most negative luminance accepted from an integrator
const minLuminance = -1e-5

// Tile represents a rectangular region of the image to be rendered
type Tile struct {
	ID     int             // Unique tile identifier
	Bounds image.Rectangle // Pixel bounds (x0,y0,x1,y1)
	Seed   int64           // Seed of the tile's sampler
}

// NewTileGrid creates a grid of tiles covering bounds. Tile seeds depend
// only on the tile's grid position, so renders are reproducible for any
// number of workers.
func NewTileGrid(bounds image.Rectangle, tileSize int, seed int64) []*Tile {
	tileSize = max(tileSize, 1)
	tilesX := (bounds.Dx() + tileSize - 1) / tileSize // Ceiling division
	tilesY := (bounds.Dy() + tileSize - 1) / tileSize

	tiles := make([]*Tile, 0, tilesX*tilesY)
	for tileY := 0; tileY < tilesY; tileY++ {
		for tileX := 0; tileX < tilesX; tileX++ {
			x0 := bounds.Min.X + tileX*tileSize
			y0 := bounds.Min.Y + tileY*tileSize
			x1 := min(x0+tileSize, bounds.Max.X) // Don't exceed image bounds
			y1 := min(y0+tileSize, bounds.Max.Y)

			id := tileY*tilesX + tileX
			tiles = append(tiles, &Tile{
				ID:     id,
				Bounds: image.Rect(x0, y0, x1, y1),
				Seed:   seed + int64(id),
			})
		}
	}
	return tiles
}

// rendererStats holds the ids of the renderer's own statistics
type rendererStats struct {
	cameraRays     stats.CounterID
	invalidSamples stats.CounterID
}

func registerRendererStats(sink *stats.Sink) rendererStats {
	return rendererStats{
		cameraRays:     sink.RegisterCounter("Renderer/Camera rays"),
		invalidSamples: sink.RegisterCounter("Renderer/Invalid radiance samples"),
	}
}

// TileRenderer handles the actual rendering of individual tiles using an integrator
type TileRenderer struct {
	scene           *scene.Scene
	integrator      integrator.Integrator
	camera          *Camera
	samplesPerPixel int
	stats           rendererStats
	logger          core.Logger
}

// NewTileRenderer creates a new tile renderer with the given scene and integrator
func NewTileRenderer(sc *scene.Scene, in integrator.Integrator, camera *Camera, samplesPerPixel int, st rendererStats, logger core.Logger) *TileRenderer {
	return &TileRenderer{
		scene:           sc,
		integrator:      in,
		camera:          camera,
		samplesPerPixel: samplesPerPixel,
		stats:           st,
		logger:          logger,
	}
}

// RenderTile takes samplesPerPixel samples for every pixel of tile. The
// arena is reset after each sample; statistics go to rec.
func (tr *TileRenderer) RenderTile(tile *Tile, sampler core.Sampler, arena *core.Arena, rec *stats.Recorder) (*FilmTile, RenderStats) {
	ft := NewFilmTile(tile.Bounds)
	st := RenderStats{TotalPixels: tile.Bounds.Dx() * tile.Bounds.Dy()}
	wavelengths := tr.scene.Wavelengths()

	for y := tile.Bounds.Min.Y; y < tile.Bounds.Max.Y; y++ {
		for x := tile.Bounds.Min.X; x < tile.Bounds.Max.X; x++ {
			ps := ft.Pixel(x, y)
			for s := 0; s < tr.samplesPerPixel; s++ {
				jitter := sampler.Get2D()
				ray := tr.camera.GetRay(float64(x)+jitter.X, float64(y)+jitter.Y, sampler, wavelengths)
				rec.Inc(tr.stats.cameraRays)

				L := tr.integrator.Li(ray, tr.scene, sampler, arena, rec, 0)
				arena.Reset()

				if invalidRadiance(L) {
					tr.logger.Printf("Invalid radiance (luminance %g) for pixel (%d, %d), sample %d; treating as black\n", L.Y(), x, y, s)
					rec.Inc(tr.stats.invalidSamples)
					st.InvalidSamples++
					L = spectral.Black()
				}
				ps.AddSample(L)
				st.TotalSamples++
			}
		}
	}
	st.ArenaPeak = arena.Peak()
	return ft, st
}

// invalidRadiance reports samples that must not reach the film: NaNs,
// infinite luminance and clearly negative luminance
func invalidRadiance(L spectral.Spectrum) bool {
	if L.HasNaNs() {
		return true
	}
	y := L.Y()
	return math.IsInf(y, 0) || math.IsNaN(y) || y < minLuminance
}
