package scene

import (
	"github.com/df07/go-portal-raytracer/pkg/core"
	"github.com/df07/go-portal-raytracer/pkg/geometry"
	"github.com/df07/go-portal-raytracer/pkg/material"
	"github.com/df07/go-portal-raytracer/pkg/spectral"
)

// NewPrismScene creates a dispersive glass sphere on a white floor under a
// small spherical light, which casts a spectrally split caustic
func NewPrismScene(logger core.Logger) (*Scene, error) {
	camera := CameraConfig{
		Center: core.NewVec3(0, 2.5, 6),
		LookAt: core.NewVec3(0, 0.8, 0),
		Up:     core.NewVec3(0, 1, 0),
		VFov:   40,
	}
	b := newBuilder(camera, SamplingConfig{Width: 200, Height: 150, SamplesPerPixel: 64, MaxDepth: 8})

	b.add(b.rect(core.NewVec3(-6, 0, -6), core.NewVec3(6, 0, 6), 1, true), material.NewLambertian(rgb(0.8, 0.8, 0.8)))
	b.add(geometry.NewSphere(core.NewVec3(0, 1, 0), 1), material.NewDispersiveGlass(1.7, 1.5))

	light := b.emitter(geometry.NewSphere(core.NewVec3(-2.5, 5, -1.5), 0.3), spectral.Constant(60))
	b.light(light)
	return b.build()
}
