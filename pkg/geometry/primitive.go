package geometry

import (
	"github.com/df07/go-portal-raytracer/pkg/core"
)

// Primitive binds a shape to its material and optional emission
type Primitive struct {
	Shape     Shape
	Material  core.Material  // nil marks a null surface that only bounds a medium
	AreaLight core.AreaLight // nil for non-emissive primitives
}

// NewPrimitive creates a primitive
func NewPrimitive(shape Shape, material core.Material, areaLight core.AreaLight) *Primitive {
	return &Primitive{Shape: shape, Material: material, AreaLight: areaLight}
}

// Intersect intersects the shape and attaches the primitive's material and light
func (p *Primitive) Intersect(ray core.Ray) (core.Interaction, bool) {
	si, ok := p.Shape.Intersect(ray)
	if !ok {
		return si, false
	}
	si.Material = p.Material
	si.AreaLight = p.AreaLight
	return si, true
}

// Bounds returns the shape's bounds
func (p *Primitive) Bounds() core.AABB {
	return p.Shape.Bounds()
}
