package integrator

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// ErrInvalidConfig is returned by Config.Validate
var ErrInvalidConfig = errors.New("invalid integrator configuration")

// Config holds the parameters shared by the integrators
type Config struct {
	MaxDepth              int             // Maximum number of scattering events per path
	RRThreshold           float64         // Russian roulette applies when max(beta*etaScale) drops below this
	LightSampleStrategy   string          // "uniform", "power" or "spatial"
	HandleMedia           bool            // Sample the scene medium and attenuate shadow rays
	TerminateOnEmitterHit bool            // Stop a path at the first emitter it hits
	PixelBounds           image.Rectangle // Sub-rectangle of the film to render; empty renders everything
	DirectStrategy        string          // Direct lighting only: "all" (default) or "one"
}

// DefaultConfig returns maxdepth 5, rrthreshold 1 and spatial light sampling
func DefaultConfig() Config {
	return Config{
		MaxDepth:            5,
		RRThreshold:         1,
		LightSampleStrategy: "spatial",
	}
}

// Validate reports settings no integrator can run with
func (c Config) Validate() error {
	if c.MaxDepth < 0 {
		return fmt.Errorf("%w: maxdepth %d is negative", ErrInvalidConfig, c.MaxDepth)
	}
	if c.RRThreshold < 0 || math.IsNaN(c.RRThreshold) {
		return fmt.Errorf("%w: rrthreshold %g must be non-negative", ErrInvalidConfig, c.RRThreshold)
	}
	if _, err := parseLightStrategy(c.DirectStrategy); err != nil {
		return err
	}
	return nil
}
