package scene

import (
	"github.com/df07/go-portal-raytracer/pkg/core"
	"github.com/df07/go-portal-raytracer/pkg/geometry"
	"github.com/df07/go-portal-raytracer/pkg/lights"
	"github.com/df07/go-portal-raytracer/pkg/material"
	"github.com/df07/go-portal-raytracer/pkg/portal"
	"github.com/df07/go-portal-raytracer/pkg/spectral"
)

// Room dimensions shared by the portal scenes: x and z in [0, 4], y in [0, 3]
const (
	roomSize   = 4.0
	roomHeight = 3.0
)

func roomCamera() CameraConfig {
	return CameraConfig{
		Center: core.NewVec3(2, 1.4, 0.2),
		LookAt: core.NewVec3(2, 1.2, 4),
		Up:     core.NewVec3(0, 1, 0),
		VFov:   70,
	}
}

// addRoom adds floor and walls. Each side named in open is left out so the
// caller can build it with an opening.
func addRoom(b *builder, mat core.Material, openCeiling, openRight bool) {
	b.add(b.rect(core.NewVec3(0, 0, 0), core.NewVec3(roomSize, 0, roomSize), 1, true), mat)
	if !openCeiling {
		b.add(b.rect(core.NewVec3(0, roomHeight, 0), core.NewVec3(roomSize, roomHeight, roomSize), 1, false), mat)
	}
	b.add(b.rect(core.NewVec3(0, 0, 0), core.NewVec3(0, roomHeight, roomSize), 0, true), mat)
	if !openRight {
		b.add(b.rect(core.NewVec3(roomSize, 0, 0), core.NewVec3(roomSize, roomHeight, roomSize), 0, false), mat)
	}
	b.add(b.rect(core.NewVec3(0, 0, 0), core.NewVec3(roomSize, roomHeight, 0), 2, true), mat)
	b.add(b.rect(core.NewVec3(0, 0, roomSize), core.NewVec3(roomSize, roomHeight, roomSize), 2, false), mat)
}

// NewPortalRoomScene creates a closed room lit only by an area light above
// a skylight in the ceiling. The light is gated by the skylight and sampled
// through the projection of the light onto it.
func NewPortalRoomScene(logger core.Logger) (*Scene, error) {
	b := newBuilder(roomCamera(), SamplingConfig{Width: 192, Height: 144, SamplesPerPixel: 32, MaxDepth: 5})
	wall := material.NewLambertian(rgb(0.7, 0.7, 0.7))
	addRoom(b, wall, true, false)

	// Ceiling at y = 3 with a 1x1 opening in the middle. Ceiling pieces
	// use axis 1, so the in-plane axes are z then x.
	const lo, hi = 1.5, 2.5
	ceiling := func(x0, z0, x1, z1 float64) {
		b.add(b.rect(core.NewVec3(x0, roomHeight, z0), core.NewVec3(x1, roomHeight, z1), 1, false), wall)
	}
	ceiling(0, 0, lo, roomSize)
	ceiling(hi, 0, roomSize, roomSize)
	ceiling(lo, 0, hi, lo)
	ceiling(lo, hi, hi, roomSize)

	// A larger emitter one unit above the opening, facing down
	lightRect := b.rect(core.NewVec3(1.25, roomHeight+1, 1.25), core.NewVec3(2.75, roomHeight+1, 2.75), 1, false)
	emitter := b.emitter(lightRect, spectral.Constant(12))

	// The opening itself is not geometry; its normal points into the room
	opening := b.rect(core.NewVec3(lo, roomHeight, lo), core.NewVec3(hi, roomHeight, hi), 1, false)
	if b.err != nil {
		return nil, b.err
	}
	p, err := portal.New(opening, lightRect, true)
	if err != nil {
		return nil, err
	}
	gated, err := lights.NewPortalGatedLight(emitter, []*portal.Portal{p}, portal.StrategyProjection, logger)
	if err != nil {
		return nil, err
	}
	b.light(gated)

	b.add(geometry.NewSphere(core.NewVec3(1.3, 0.5, 2.6), 0.5), material.NewLambertian(rgb(0.8, 0.3, 0.2)))
	b.add(geometry.NewSphere(core.NewVec3(2.8, 0.6, 2.2), 0.6), material.NewDielectric(1.5))
	return b.build()
}

// NewPortalSkyScene creates a room whose only light is a uniform sky seen
// through a window in the right wall
func NewPortalSkyScene(logger core.Logger) (*Scene, error) {
	b := newBuilder(roomCamera(), SamplingConfig{Width: 192, Height: 144, SamplesPerPixel: 32, MaxDepth: 5})
	wall := material.NewLambertian(rgb(0.7, 0.7, 0.7))
	addRoom(b, wall, false, true)

	// Right wall at x = 4 with an opening; axis 0 has in-plane axes y then z
	const y0, y1, z0, z1 = 1.0, 2.0, 1.5, 2.5
	side := func(ya, za, yb, zb float64) {
		b.add(b.rect(core.NewVec3(roomSize, ya, za), core.NewVec3(roomSize, yb, zb), 0, false), wall)
	}
	side(0, 0, y0, roomSize)
	side(y1, 0, roomHeight, roomSize)
	side(y0, 0, y1, z0)
	side(y0, z1, y1, roomSize)

	opening := b.rect(core.NewVec3(roomSize, y0, z0), core.NewVec3(roomSize, y1, z1), 0, false)
	if b.err != nil {
		return nil, b.err
	}
	p, err := portal.New(opening, nil, true)
	if err != nil {
		return nil, err
	}
	sky := lights.NewUniformInfiniteLight(rgb(0.6, 0.75, 1.0).Scale(4))
	gated, err := lights.NewPortalGatedLight(sky, []*portal.Portal{p}, portal.StrategyPortal, logger)
	if err != nil {
		return nil, err
	}
	b.light(gated)

	b.add(geometry.NewSphere(core.NewVec3(2, 0.7, 2.5), 0.7), material.NewLambertian(rgb(0.3, 0.6, 0.3)))
	return b.build()
}
