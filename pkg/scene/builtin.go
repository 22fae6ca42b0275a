package scene

import (
	"fmt"
	"sort"

	"github.com/df07/go-portal-raytracer/pkg/core"
	"github.com/df07/go-portal-raytracer/pkg/geometry"
	"github.com/df07/go-portal-raytracer/pkg/lights"
	"github.com/df07/go-portal-raytracer/pkg/material"
	"github.com/df07/go-portal-raytracer/pkg/spectral"
)

type builtinScene struct {
	create      func(core.Logger) (*Scene, error)
	description string
}

var builtins = map[string]builtinScene{
	"cornell":     {NewCornellScene, "Cornell box with a ceiling light"},
	"portal-room": {NewPortalRoomScene, "Closed room lit through a skylight, projection sampled"},
	"portal-sky":  {NewPortalSkyScene, "Room lit by a uniform sky through a window"},
	"prism":       {NewPrismScene, "Dispersive glass sphere under a small light"},
}

// BuiltinNames lists the scenes Builtin knows
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtin creates a built-in scene by name
func Builtin(name string, logger core.Logger) (*Scene, error) {
	b, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown scene %q (available: %v)", name, BuiltinNames())
	}
	return b.create(logger)
}

// builder accumulates primitives and lights, keeping the first error
type builder struct {
	s   *Scene
	err error
}

func newBuilder(camera CameraConfig, sampling SamplingConfig) *builder {
	return &builder{s: &Scene{Camera: camera, SamplingConfig: sampling}}
}

// rect creates an axis-aligned rectangle; see geometry.NewAperture
func (b *builder) rect(lo, hi core.Vec3, axis int, facingForward bool) *geometry.Aperture {
	a, err := geometry.NewAperture(lo, hi, axis, facingForward)
	if err != nil && b.err == nil {
		b.err = fmt.Errorf("rectangle %v-%v: %w", lo, hi, err)
	}
	return a
}

func (b *builder) add(shape geometry.Shape, mat core.Material) {
	if b.err != nil {
		return
	}
	b.s.Primitives = append(b.s.Primitives, geometry.NewPrimitive(shape, mat, nil))
}

// emitter adds a one-sided diffuse area light on shape without registering
// it as a scene light, so callers can gate it first
func (b *builder) emitter(shape geometry.Shape, l spectral.Spectrum) *lights.DiffuseAreaLight {
	if b.err != nil {
		return nil
	}
	light := lights.NewDiffuseAreaLight(l, shape, false)
	black := material.NewLambertian(spectral.Black())
	b.s.Primitives = append(b.s.Primitives, geometry.NewPrimitive(shape, black, light))
	return light
}

func (b *builder) light(l lights.Light) {
	if b.err == nil {
		b.s.Lights = append(b.s.Lights, l)
	}
}

func (b *builder) build() (*Scene, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.s, nil
}

func rgb(r, g, bl float64) spectral.Spectrum {
	return spectral.FromRGB(r, g, bl)
}
