package main

import (
	"errors"
	"flag"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/df07/go-portal-raytracer/pkg/core"
	"github.com/df07/go-portal-raytracer/pkg/integrator"
	"github.com/df07/go-portal-raytracer/pkg/loaders"
	"github.com/df07/go-portal-raytracer/pkg/renderer"
	"github.com/df07/go-portal-raytracer/pkg/scene"
)

// scenesDir holds the example scene files
const scenesDir = "scenes"

// cliOptions holds the parsed command line. Zero values leave the scene's
// own settings in place.
type cliOptions struct {
	scene         string
	file          string
	integrator    string
	spp           int
	maxDepth      int
	rrThreshold   float64
	lightStrategy string
	workers       int
	tileSize      int
	width         int
	height        int
	seed          int64
	output        string
	stats         bool
	list          bool

	set map[string]bool // flags given explicitly
}

func parseFlags(args []string) (cliOptions, error) {
	var o cliOptions
	fs := flag.NewFlagSet("raytracer", flag.ContinueOnError)
	fs.StringVar(&o.scene, "scene", "cornell", "Built-in scene name or scene file name under scenes/")
	fs.StringVar(&o.file, "file", "", "Scene description file (overrides -scene)")
	fs.StringVar(&o.integrator, "integrator", "", "Integrator: "+strings.Join(integrator.Names, ", ")+" (default from the scene)")
	fs.IntVar(&o.spp, "spp", 0, "Samples per pixel (default from the scene)")
	fs.IntVar(&o.maxDepth, "maxdepth", 0, "Maximum path depth (default from the scene)")
	fs.Float64Var(&o.rrThreshold, "rrthreshold", 0, "Russian roulette throughput threshold")
	fs.StringVar(&o.lightStrategy, "lightstrategy", "", "Light sampling strategy: uniform, power or spatial")
	fs.IntVar(&o.workers, "workers", 0, "Number of parallel workers (0 = CPU count)")
	fs.IntVar(&o.tileSize, "tile", renderer.DefaultConfig().TileSize, "Tile size in pixels")
	fs.IntVar(&o.width, "width", 0, "Image width (default from the scene)")
	fs.IntVar(&o.height, "height", 0, "Image height (default from the scene)")
	fs.Int64Var(&o.seed, "seed", renderer.DefaultConfig().Seed, "Random seed")
	fs.StringVar(&o.output, "output", "", "Output PNG (default output/<scene>/render_<timestamp>.png)")
	fs.BoolVar(&o.stats, "stats", false, "Print render statistics")
	fs.BoolVar(&o.list, "list", false, "List available scenes and exit")
	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}
	if fs.NArg() > 0 {
		return cliOptions{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	o.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o, nil
}

// createScene loads the scene named by file, or else by name: a built-in
// scene first, then a scene file under scenes/, then name as a path
func createScene(name, file string, logger core.Logger) (*scene.Scene, loaders.Options, error) {
	if file != "" {
		return loaders.LoadScene(file, logger)
	}
	if name == "" {
		return nil, loaders.Options{}, errors.New("no scene given")
	}

	for _, builtin := range scene.BuiltinNames() {
		if name == builtin {
			sc, err := scene.Builtin(name, logger)
			if err != nil {
				return nil, loaders.Options{}, err
			}
			cfg := integrator.DefaultConfig()
			if sc.SamplingConfig.MaxDepth > 0 {
				cfg.MaxDepth = sc.SamplingConfig.MaxDepth
			}
			return sc, loaders.Options{Integrator: "path", Config: cfg}, nil
		}
	}

	if path, ok := findSceneFile(name); ok {
		return loaders.LoadScene(path, logger)
	}
	return nil, loaders.Options{}, fmt.Errorf("unknown scene %q (built-in: %v)", name, scene.BuiltinNames())
}

// findSceneFile resolves a scene name or path to an existing scene file
func findSceneFile(name string) (string, bool) {
	candidates := []string{filepath.Join(scenesDir, name+".pbrt")}
	if strings.HasSuffix(name, ".pbrt") {
		candidates = []string{name}
	}
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// createOutputDir names the output directory for a scene
func createOutputDir(name, file string) string {
	if file != "" {
		name = file
	}
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if base == "" || base == "." {
		base = "scene"
	}
	return filepath.Join("output", base)
}

// applyOverrides folds explicit flags into the scene's integrator options
// and builds the render configuration
func applyOverrides(o cliOptions, opts *loaders.Options) renderer.Config {
	if o.integrator != "" {
		opts.Integrator = o.integrator
	}
	if o.set["maxdepth"] {
		opts.Config.MaxDepth = o.maxDepth
	}
	if o.set["rrthreshold"] {
		opts.Config.RRThreshold = o.rrThreshold
	}
	if o.lightStrategy != "" {
		opts.Config.LightSampleStrategy = o.lightStrategy
	}

	cfg := renderer.DefaultConfig()
	cfg.Width = o.width
	cfg.Height = o.height
	cfg.SamplesPerPixel = o.spp
	cfg.NumWorkers = o.workers
	cfg.TileSize = o.tileSize
	cfg.Seed = o.seed
	cfg.PixelBounds = opts.Config.PixelBounds
	return cfg
}

func listScenes(logger core.Logger) error {
	groups, err := scene.ListAllScenes(scenesDir, logger)
	if err != nil {
		return err
	}
	for _, group := range groups {
		logger.Printf("%s:\n", group.Name)
		for _, s := range group.Scenes {
			id := s.ID
			if s.Type == "file" {
				id = s.FilePath
			}
			logger.Printf("  %-32s %s\n", id, s.Description)
		}
	}
	return nil
}

func run(args []string, logger core.Logger) error {
	o, err := parseFlags(args)
	if err != nil {
		return err
	}
	if o.list {
		return listScenes(logger)
	}

	sc, opts, err := createScene(o.scene, o.file, logger)
	if err != nil {
		return err
	}
	cfg := applyOverrides(o, &opts)

	in, err := integrator.New(opts.Integrator, opts.Config)
	if err != nil {
		return err
	}
	logger.Printf("Using %s integrator (maxdepth %d, %s light sampling)\n",
		opts.Integrator, opts.Config.MaxDepth, opts.Config.LightSampleStrategy)

	r := renderer.NewRenderer(sc, in, nil, logger)
	film, renderStats, err := r.Render(cfg)
	if err != nil {
		return err
	}
	logger.Printf("Render completed in %v: %.1f samples per pixel, %d invalid samples\n",
		renderStats.Duration, renderStats.AverageSamples, renderStats.InvalidSamples)
	if o.stats {
		r.Sink().Report(logger)
	}

	filename := o.output
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = filepath.Join(createOutputDir(o.scene, o.file), fmt.Sprintf("render_%s.png", timestamp))
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("error creating file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, film.Image()); err != nil {
		return fmt.Errorf("error saving PNG: %w", err)
	}
	logger.Printf("Render saved as %s\n", filename)
	return nil
}

func main() {
	if err := run(os.Args[1:], renderer.NewDefaultLogger()); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
