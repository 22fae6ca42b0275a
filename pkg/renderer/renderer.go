package renderer

import (
	"errors"
	"fmt"
	"image"
	"math/rand"
	"time"

	"github.com/df07/go-portal-raytracer/pkg/core"
	"github.com/df07/go-portal-raytracer/pkg/integrator"
	"github.com/df07/go-portal-raytracer/pkg/scene"
	"github.com/df07/go-portal-raytracer/pkg/stats"
)

// ErrInvalidConfig is returned by Config.Validate
var ErrInvalidConfig = errors.New("invalid render configuration")

// DefaultLogger implements core.Logger by writing to stdout
type DefaultLogger struct{}

func (dl *DefaultLogger) Printf(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// NewDefaultLogger creates a new default logger
func NewDefaultLogger() core.Logger {
	return &DefaultLogger{}
}

// Config contains configuration for a render. Zero size and sample count
// fall back to the scene's sampling config.
type Config struct {
	Width           int             // Film width in pixels
	Height          int             // Film height in pixels
	SamplesPerPixel int             // Samples taken for every pixel
	TileSize        int             // Size of each tile (64x64 recommended)
	NumWorkers      int             // Number of parallel workers (0 = use CPU count)
	Seed            int64           // Base seed of the tile samplers
	PixelBounds     image.Rectangle // Sub-rectangle to render, empty for the whole film
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		TileSize:   64,
		NumWorkers: 0, // Auto-detect CPU count
		Seed:       42,
	}
}

// withSceneDefaults fills unset sizes from the scene's sampling config
func (c Config) withSceneDefaults(sc scene.SamplingConfig) Config {
	if c.Width == 0 {
		c.Width = sc.Width
	}
	if c.Height == 0 {
		c.Height = sc.Height
	}
	if c.SamplesPerPixel == 0 {
		c.SamplesPerPixel = sc.SamplesPerPixel
	}
	if c.TileSize == 0 {
		c.TileSize = DefaultConfig().TileSize
	}
	return c
}

// Validate checks the film size, sample count and tile size
func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: film size %dx%d", ErrInvalidConfig, c.Width, c.Height)
	case c.SamplesPerPixel <= 0:
		return fmt.Errorf("%w: %d samples per pixel", ErrInvalidConfig, c.SamplesPerPixel)
	case c.TileSize <= 0:
		return fmt.Errorf("%w: tile size %d", ErrInvalidConfig, c.TileSize)
	}
	return nil
}

// Renderer renders a scene with an integrator over a tiled film
type Renderer struct {
	scene      *scene.Scene
	integrator integrator.Integrator
	sink       *stats.Sink
	stats      rendererStats
	logger     core.Logger
}

// NewRenderer creates a renderer. Statistics are registered on sink; a nil
// sink gets a private one.
func NewRenderer(sc *scene.Scene, in integrator.Integrator, sink *stats.Sink, logger core.Logger) *Renderer {
	if sink == nil {
		sink = stats.NewSink()
	}
	return &Renderer{
		scene:      sc,
		integrator: in,
		sink:       sink,
		stats:      registerRendererStats(sink),
		logger:     logger,
	}
}

// Sink returns the statistics sink the render records into
func (r *Renderer) Sink() *stats.Sink {
	return r.sink
}

// Render preprocesses the scene and integrator, then renders every tile in
// parallel and merges the tiles into a film
func (r *Renderer) Render(cfg Config) (*Film, RenderStats, error) {
	cfg = cfg.withSceneDefaults(r.scene.SamplingConfig)
	if err := cfg.Validate(); err != nil {
		return nil, RenderStats{}, err
	}
	start := time.Now()

	if err := r.scene.Preprocess(r.logger); err != nil {
		return nil, RenderStats{}, fmt.Errorf("preprocessing scene: %w", err)
	}
	if err := r.integrator.Preprocess(r.scene, r.sink, r.logger); err != nil {
		return nil, RenderStats{}, fmt.Errorf("preprocessing integrator: %w", err)
	}

	film := NewFilm(cfg.Width, cfg.Height)
	bounds := r.renderBounds(cfg.PixelBounds, film.Bounds())
	tiles := NewTileGrid(bounds, cfg.TileSize, cfg.Seed)

	camera := NewCamera(r.scene.Camera, cfg.Width, cfg.Height)
	tileRenderer := NewTileRenderer(r.scene, r.integrator, camera, cfg.SamplesPerPixel, r.stats, r.logger)
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(cfg.Seed)))
	pool := NewWorkerPool(tileRenderer, sampler, r.sink, len(tiles), cfg.NumWorkers)

	r.logger.Printf("Rendering %dx%d pixels at %d samples per pixel (%d tiles, %d workers)...\n",
		bounds.Dx(), bounds.Dy(), cfg.SamplesPerPixel, len(tiles), pool.GetNumWorkers())

	pool.Start()
	for i, tile := range tiles {
		pool.SubmitTask(TileTask{Tile: tile, TaskID: i})
	}

	var renderStats RenderStats
	var renderErr error
	for range tiles {
		result, ok := pool.GetResult()
		if !ok {
			renderErr = fmt.Errorf("worker pool closed unexpectedly")
			break
		}
		if result.Error != nil {
			if renderErr == nil {
				renderErr = result.Error
			}
			continue
		}
		film.MergeTile(result.Tile)
		renderStats.merge(result.Stats)
	}
	pool.Stop()
	if renderErr != nil {
		return nil, RenderStats{}, renderErr
	}

	renderStats.finalize()
	renderStats.Duration = time.Since(start)
	r.logger.Printf("Render completed in %v (%d samples, %d invalid)\n",
		renderStats.Duration, renderStats.TotalSamples, renderStats.InvalidSamples)
	return film, renderStats, nil
}

// renderBounds clips the requested pixel bounds to the film. A request that
// misses the film entirely renders the whole film.
func (r *Renderer) renderBounds(requested, full image.Rectangle) image.Rectangle {
	if requested == (image.Rectangle{}) {
		return full
	}
	clipped := requested.Intersect(full)
	if clipped.Empty() {
		r.logger.Printf("Warning: pixel bounds %v do not overlap the %dx%d film, rendering the whole film\n",
			requested, full.Dx(), full.Dy())
		return full
	}
	return clipped
}
