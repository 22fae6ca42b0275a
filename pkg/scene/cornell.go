package scene

import (
	"github.com/df07/go-portal-raytracer/pkg/core"
	"github.com/df07/go-portal-raytracer/pkg/geometry"
	"github.com/df07/go-portal-raytracer/pkg/material"
	"github.com/df07/go-portal-raytracer/pkg/spectral"
)

// NewCornellScene creates a classic Cornell box with a ceiling light. Its
// materials are wavelength independent, so it serves as the reference for
// comparing the spectral integrators.
func NewCornellScene(logger core.Logger) (*Scene, error) {
	camera := CameraConfig{
		Center: core.NewVec3(278, 278, -800), // Position camera outside the box looking in
		LookAt: core.NewVec3(278, 278, 0),    // Look at the center of the box
		Up:     core.NewVec3(0, 1, 0),
		VFov:   40.0,
	}
	b := newBuilder(camera, SamplingConfig{Width: 256, Height: 256, SamplesPerPixel: 64, MaxDepth: 5})

	white := material.NewLambertian(rgb(0.73, 0.73, 0.73))
	red := material.NewLambertian(rgb(0.65, 0.05, 0.05))
	green := material.NewLambertian(rgb(0.12, 0.45, 0.15))

	// Cornell box dimensions (standard 555x555x555 units)
	const boxSize = 555.0

	b.add(b.rect(core.NewVec3(0, 0, 0), core.NewVec3(boxSize, 0, boxSize), 1, true), white)             // floor
	b.add(b.rect(core.NewVec3(0, boxSize, 0), core.NewVec3(boxSize, boxSize, boxSize), 1, false), white) // ceiling
	b.add(b.rect(core.NewVec3(0, 0, boxSize), core.NewVec3(boxSize, boxSize, boxSize), 2, false), white) // back wall
	b.add(b.rect(core.NewVec3(0, 0, 0), core.NewVec3(0, boxSize, boxSize), 0, true), red)                // left wall
	b.add(b.rect(core.NewVec3(boxSize, 0, 0), core.NewVec3(boxSize, boxSize, boxSize), 0, false), green) // right wall

	// Ceiling light, slightly below the ceiling and facing down
	const lightSize = 130.0
	lo := (boxSize - lightSize) / 2
	light := b.emitter(b.rect(core.NewVec3(lo, boxSize-1, lo), core.NewVec3(lo+lightSize, boxSize-1, lo+lightSize), 1, false), spectral.Constant(15))
	b.light(light)

	b.add(geometry.NewSphere(core.NewVec3(185, 82.5, 169), 82.5), material.NewMirror(rgb(0.8, 0.8, 0.9)))
	b.add(geometry.NewSphere(core.NewVec3(370, 90, 351), 90), material.NewDielectric(1.5))

	return b.build()
}
