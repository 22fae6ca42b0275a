package renderer

import (
	"math"

	"github.com/df07/go-portal-raytracer/pkg/core"
	"github.com/df07/go-portal-raytracer/pkg/scene"
	"github.com/df07/go-portal-raytracer/pkg/spectral"
)

const defaultVFov = 40.0

// Camera generates rays for rendering
type Camera struct {
	origin          core.Vec3
	lowerLeftCorner core.Vec3
	horizontal      core.Vec3
	vertical        core.Vec3
	u, v            core.Vec3 // lens basis
	lensRadius      float64
	width, height   int
}

// NewCamera creates a perspective camera for a width x height film. A zero
// aperture gives a pinhole camera.
func NewCamera(config scene.CameraConfig, width, height int) *Camera {
	vfov := config.VFov
	if vfov <= 0 {
		vfov = defaultVFov
	}
	aspectRatio := float64(width) / float64(height)
	viewportHeight := 2.0 * math.Tan(vfov*math.Pi/360)
	viewportWidth := aspectRatio * viewportHeight

	up := config.Up
	if up.IsZero() {
		up = core.NewVec3(0, 1, 0)
	}
	w := config.Center.Subtract(config.LookAt).Normalize()
	u := up.Cross(w).Normalize()
	v := w.Cross(u)

	focusDistance := config.FocusDistance
	if focusDistance <= 0 {
		focusDistance = config.Center.Distance(config.LookAt)
	}

	horizontal := u.Multiply(viewportWidth * focusDistance)
	vertical := v.Multiply(viewportHeight * focusDistance)
	lowerLeftCorner := config.Center.
		Subtract(horizontal.Multiply(0.5)).
		Subtract(vertical.Multiply(0.5)).
		Subtract(w.Multiply(focusDistance))

	return &Camera{
		origin:          config.Center,
		lowerLeftCorner: lowerLeftCorner,
		horizontal:      horizontal,
		vertical:        vertical,
		u:               u,
		v:               v,
		lensRadius:      config.Aperture / 2,
		width:           width,
		height:          height,
	}
}

// GetRay generates a ray through film position (px, py), measured in pixels
// from the top left corner. The ray carries hero wavelengths drawn from
// wavelengths.
func (c *Camera) GetRay(px, py float64, sampler core.Sampler, wavelengths *spectral.Distribution) core.Ray {
	s := px / float64(c.width)
	t := 1 - py/float64(c.height)

	origin := c.origin
	if c.lensRadius > 0 {
		d := core.SamplePointInUnitDisk(sampler.Get2D())
		origin = origin.Add(c.u.Multiply(d.X * c.lensRadius)).Add(c.v.Multiply(d.Y * c.lensRadius))
	}
	direction := c.lowerLeftCorner.
		Add(c.horizontal.Multiply(s)).
		Add(c.vertical.Multiply(t)).
		Subtract(origin)

	ray := core.NewRay(origin, direction.Normalize())
	if wavelengths != nil {
		ray.Wavelengths = wavelengths.HeroWavelengths(sampler.Get1D())
	}
	return ray
}
