package loaders

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"strings"

	"github.com/df07/go-portal-raytracer/pkg/core"
	"github.com/df07/go-portal-raytracer/pkg/geometry"
	"github.com/df07/go-portal-raytracer/pkg/integrator"
	"github.com/df07/go-portal-raytracer/pkg/lights"
	"github.com/df07/go-portal-raytracer/pkg/material"
	"github.com/df07/go-portal-raytracer/pkg/portal"
	"github.com/df07/go-portal-raytracer/pkg/scene"
	"github.com/df07/go-portal-raytracer/pkg/spectral"
)

// ErrUnknownType is returned for material, shape and light types the loader does not support
var ErrUnknownType = errors.New("unknown type")

// Options carries the integrator selection read from a scene file
type Options struct {
	Integrator string            // "path", "hwss" or "direct"
	Config     integrator.Config // Settings for integrator.New
}

// graphicsState is saved by AttributeBegin and restored by AttributeEnd
type graphicsState struct {
	material  core.Material
	areaLight *Statement
	ctm       core.Transform
}

// sceneBuilder turns statements into a scene
type sceneBuilder struct {
	scene   *scene.Scene
	options Options
	logger  core.Logger

	state graphicsState
	stack []graphicsState
}

// LoadScene reads a scene file and returns the scene together with the
// integrator the file asks for
func LoadScene(path string, logger core.Logger) (*scene.Scene, Options, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, Options{}, fmt.Errorf("failed to open scene file: %w", err)
	}
	defer file.Close()

	sc, opts, err := ParseScene(file, logger)
	if err != nil {
		return nil, Options{}, fmt.Errorf("%s: %w", path, err)
	}
	return sc, opts, nil
}

// ParseScene reads a scene description from reader
func ParseScene(reader io.Reader, logger core.Logger) (*scene.Scene, Options, error) {
	b := newSceneBuilder(logger)
	if err := parse(reader, b); err != nil {
		return nil, Options{}, err
	}
	if len(b.stack) > 0 {
		return nil, Options{}, fmt.Errorf("%d unclosed AttributeBegin", len(b.stack))
	}
	if _, err := integrator.New(b.options.Integrator, b.options.Config); err != nil {
		return nil, Options{}, err
	}
	return b.scene, b.options, nil
}

func newSceneBuilder(logger core.Logger) *sceneBuilder {
	return &sceneBuilder{
		scene: &scene.Scene{
			Camera: scene.CameraConfig{
				Center: core.NewVec3(0, 0, 0),
				LookAt: core.NewVec3(0, 0, -1),
				Up:     core.NewVec3(0, 1, 0),
				VFov:   90,
			},
			SamplingConfig: scene.SamplingConfig{Width: 400, Height: 400, SamplesPerPixel: 16, MaxDepth: 5},
		},
		options: Options{Integrator: "path", Config: integrator.DefaultConfig()},
		logger:  logger,
		state:   graphicsState{material: material.NewLambertian(spectral.Constant(0.5)), ctm: core.IdentityTransform()},
	}
}

func (b *sceneBuilder) block(directive string, line int) error {
	switch directive {
	case "WorldBegin":
		b.state.ctm = core.IdentityTransform()
	case "AttributeBegin":
		b.stack = append(b.stack, b.state)
	case "AttributeEnd":
		if len(b.stack) == 0 {
			return fmt.Errorf("line %d: AttributeEnd without AttributeBegin", line)
		}
		b.state = b.stack[len(b.stack)-1]
		b.stack = b.stack[:len(b.stack)-1]
	}
	return nil
}

func (b *sceneBuilder) statement(stmt *Statement) error {
	switch stmt.Type {
	case "LookAt":
		v := stmt.Values
		b.scene.Camera.Center = core.NewVec3(v[0], v[1], v[2])
		b.scene.Camera.LookAt = core.NewVec3(v[3], v[4], v[5])
		b.scene.Camera.Up = core.NewVec3(v[6], v[7], v[8])
	case "Translate":
		v := stmt.Values
		b.state.ctm = b.state.ctm.Compose(core.Translate(core.NewVec3(v[0], v[1], v[2])))
	case "Rotate":
		v := stmt.Values
		b.state.ctm = b.state.ctm.Compose(core.Rotate(v[0], core.NewVec3(v[1], v[2], v[3])))
	case "Scale":
		v := stmt.Values
		s, err := core.Scale(v[0], v[1], v[2])
		if err != nil {
			return err
		}
		b.state.ctm = b.state.ctm.Compose(s)
	case "Camera":
		return b.camera(stmt)
	case "Film":
		b.scene.SamplingConfig.Width = stmt.Params.FindOneInt("xresolution", b.scene.SamplingConfig.Width)
		b.scene.SamplingConfig.Height = stmt.Params.FindOneInt("yresolution", b.scene.SamplingConfig.Height)
	case "Sampler":
		b.scene.SamplingConfig.SamplesPerPixel = stmt.Params.FindOneInt("pixelsamples", b.scene.SamplingConfig.SamplesPerPixel)
	case "Integrator":
		return b.integrator(stmt)
	case "Material":
		m, err := convertMaterial(stmt)
		if err != nil {
			return err
		}
		b.state.material = m
	case "MakeNamedMedium":
		return b.medium(stmt)
	case "AreaLightSource":
		if stmt.Subtype != "diffuse" && stmt.Subtype != "aaportal" {
			return fmt.Errorf("%w: area light %q", ErrUnknownType, stmt.Subtype)
		}
		b.state.areaLight = stmt
	case "Shape":
		return b.shape(stmt)
	case "LightSource":
		return b.lightSource(stmt)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownDirective, stmt.Type)
	}
	return nil
}

func (b *sceneBuilder) camera(stmt *Statement) error {
	if stmt.Subtype != "perspective" {
		return fmt.Errorf("%w: camera %q", ErrUnknownType, stmt.Subtype)
	}
	cam := &b.scene.Camera
	cam.VFov = stmt.Params.FindOneFloat("fov", cam.VFov)
	cam.Aperture = 2 * stmt.Params.FindOneFloat("lensradius", cam.Aperture/2)
	cam.FocusDistance = stmt.Params.FindOneFloat("focaldistance", cam.FocusDistance)
	return nil
}

func (b *sceneBuilder) integrator(stmt *Statement) error {
	name := strings.ToLower(stmt.Subtype)
	if name == "volpath" {
		name = "path"
	}
	b.options.Integrator = name

	ps := stmt.Params
	cfg := &b.options.Config
	cfg.MaxDepth = ps.FindOneInt("maxdepth", cfg.MaxDepth)
	cfg.RRThreshold = ps.FindOneFloat("rrthreshold", cfg.RRThreshold)
	cfg.LightSampleStrategy = ps.FindOneString("lightsamplestrategy", cfg.LightSampleStrategy)
	cfg.HandleMedia = ps.FindOneBool("handlemedia", cfg.HandleMedia)
	cfg.TerminateOnEmitterHit = ps.FindOneBool("terminateonemitterhit", cfg.TerminateOnEmitterHit)
	cfg.DirectStrategy = ps.FindOneString("strategy", cfg.DirectStrategy)
	if ps.Has("maxdepth") {
		b.scene.SamplingConfig.MaxDepth = cfg.MaxDepth
	}

	if pb, ok := ps.FindInts("pixelbounds"); ok {
		if len(pb) != 4 {
			return fmt.Errorf("pixelbounds needs 4 values, got %d", len(pb))
		}
		// x0 x1 y0 y1
		cfg.PixelBounds = image.Rect(pb[0], pb[2], pb[1], pb[3])
	}
	return nil
}

func (b *sceneBuilder) medium(stmt *Statement) error {
	ps := stmt.Params
	if t := ps.FindOneString("type", "homogeneous"); t != "homogeneous" {
		return fmt.Errorf("%w: medium %q", ErrUnknownType, t)
	}
	scale := ps.FindOneFloat("scale", 1)
	sa := ps.FindOneRGB("sigma_a", core.NewVec3(0.0011, 0.0024, 0.014)).Multiply(scale)
	ss := ps.FindOneRGB("sigma_s", core.NewVec3(2.55, 3.21, 3.77)).Multiply(scale)
	g := ps.FindOneFloat("g", 0)
	if g <= -1 || g >= 1 {
		return fmt.Errorf("medium %q: g %g must be in (-1, 1)", stmt.Subtype, g)
	}
	b.scene.Medium = scene.NewHomogeneousMedium(fromVec(sa), fromVec(ss), g)
	return nil
}

func fromVec(v core.Vec3) spectral.Spectrum {
	return spectral.FromRGB(v.X, v.Y, v.Z)
}

func convertMaterial(stmt *Statement) (core.Material, error) {
	ps := stmt.Params
	switch stmt.Subtype {
	case "diffuse", "matte":
		return material.NewLambertian(fromVec(ps.FindOneRGB("reflectance", core.NewVec3(0.5, 0.5, 0.5)))), nil
	case "dielectric", "glass":
		return material.NewDielectric(ps.FindOneFloat("eta", 1.5)), nil
	case "dispersive":
		return material.NewDispersiveGlass(ps.FindOneFloat("etablue", 1.53), ps.FindOneFloat("etared", 1.51)), nil
	case "mirror", "conductor":
		return material.NewMirror(fromVec(ps.FindOneRGB("reflectance", core.NewVec3(1, 1, 1)))), nil
	case "interface", "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: material %q", ErrUnknownType, stmt.Subtype)
	}
}

func (b *sceneBuilder) shape(stmt *Statement) error {
	if !b.state.ctm.IsRigid() {
		return core.ErrNonRigidTransform
	}

	var shape geometry.Shape
	var lightRect *geometry.Aperture
	ps := stmt.Params
	switch stmt.Subtype {
	case "sphere":
		radius := ps.FindOneFloat("radius", 1)
		if radius <= 0 {
			return fmt.Errorf("sphere radius %g must be positive", radius)
		}
		shape = geometry.NewSphere(b.state.ctm.Point(core.Vec3{}), radius)
	case "aaplane":
		a, err := geometry.NewTransformedAperture(
			ps.FindOnePoint3("lo", core.Vec3{}),
			ps.FindOnePoint3("hi", core.Vec3{}),
			ps.FindOneInt("axis", 1),
			ps.FindOneBool("facingforward", true),
			b.state.ctm)
		if err != nil {
			return err
		}
		shape, lightRect = a, a
	default:
		return fmt.Errorf("%w: shape %q", ErrUnknownType, stmt.Subtype)
	}

	if b.state.areaLight == nil {
		b.scene.Primitives = append(b.scene.Primitives, geometry.NewPrimitive(shape, b.state.material, nil))
		return nil
	}

	ls := b.state.areaLight.Params
	L := fromVec(ls.FindOneRGB("L", core.NewVec3(1, 1, 1))).Scale(ls.FindOneFloat("scale", 1))
	emitter := lights.NewDiffuseAreaLight(L, shape, ls.FindOneBool("twosided", false))
	b.scene.Primitives = append(b.scene.Primitives, geometry.NewPrimitive(shape, b.state.material, emitter))

	if b.state.areaLight.Subtype != "aaportal" {
		b.scene.Lights = append(b.scene.Lights, emitter)
		return nil
	}
	gated, err := b.gate(emitter, ls, lightRect)
	if err != nil {
		return err
	}
	b.scene.Lights = append(b.scene.Lights, gated)
	return nil
}

func (b *sceneBuilder) lightSource(stmt *Statement) error {
	ps := stmt.Params
	scale := ps.FindOneFloat("scale", 1)
	switch stmt.Subtype {
	case "point":
		from := b.state.ctm.Point(ps.FindOnePoint3("from", core.Vec3{}))
		I := fromVec(ps.FindOneRGB("I", core.NewVec3(1, 1, 1))).Scale(scale)
		light := lights.NewPointLight(from, I)
		if !ps.Has("portalData") && !ps.Has("portalZ") {
			b.scene.Lights = append(b.scene.Lights, light)
			return nil
		}
		gated, err := b.gate(light, ps, nil)
		if err != nil {
			return err
		}
		b.scene.Lights = append(b.scene.Lights, gated)
	case "infinite":
		L := fromVec(ps.FindOneRGB("L", core.NewVec3(1, 1, 1))).Scale(scale)
		b.scene.Lights = append(b.scene.Lights, lights.NewUniformInfiniteLight(L))
	case "portal":
		L := fromVec(ps.FindOneRGB("L", core.NewVec3(1, 1, 1))).Scale(scale)
		gated, err := b.gate(lights.NewUniformInfiniteLight(L), ps, nil)
		if err != nil {
			return err
		}
		b.scene.Lights = append(b.scene.Lights, gated)
	default:
		return fmt.Errorf("%w: light %q", ErrUnknownType, stmt.Subtype)
	}
	return nil
}

// gate wraps light behind the portals described by ps. lightRect is the
// emitting rectangle, nil when the light is not one. Point lights get a
// frustum from their position.
func (b *sceneBuilder) gate(light lights.Light, ps ParamSet, lightRect *geometry.Aperture) (*lights.PortalGatedLight, error) {
	strategy, err := portal.ParseStrategy(ps.FindOneString("strategy", "light"))
	if err != nil {
		b.logger.Printf("Warning: %v, sampling the light directly\n", err)
		strategy = portal.StrategyLight
	}

	specs, err := portalSpecs(ps)
	if err != nil {
		return nil, err
	}
	useFrustum := ps.FindOneBool("useFrustum", true)

	portals := make([]*portal.Portal, 0, len(specs))
	for i, spec := range specs {
		aperture, err := geometry.NewTransformedAperture(spec.Lo, spec.Hi, spec.Axis, spec.FacingForward, b.state.ctm)
		if err != nil {
			return nil, fmt.Errorf("portal %d: %w", i, err)
		}
		var p *portal.Portal
		if point, ok := light.(*lights.PointLight); ok {
			p, err = portal.NewPoint(aperture, point.Position, useFrustum)
		} else {
			p, err = portal.New(aperture, lightRect, useFrustum)
		}
		if errors.Is(err, portal.ErrNotParallel) {
			b.logger.Printf("Warning: portal %d: %v, projection and frustum tests disabled\n", i, err)
		} else if err != nil {
			return nil, fmt.Errorf("portal %d: %w", i, err)
		}
		portals = append(portals, p)
	}
	return lights.NewPortalGatedLight(light, portals, strategy, b.logger)
}

// portalSpecs reads either a portalData list or the single-portal form
// loX loY hiX hiY portalZ portalNormal, which describes a rectangle in a
// z plane. portalNormal is a normal facing +z or -z, -z when omitted; a
// bare float gives the sign only.
func portalSpecs(ps ParamSet) ([]PortalSpec, error) {
	if ps.Has("portalData") {
		return ParsePortalList(ps.FindOneString("portalData", ""))
	}
	if !ps.Has("portalZ") {
		return nil, lights.ErrNoPortals
	}
	z := ps.FindOneFloat("portalZ", 0)
	nz := ps.FindOneNormal("portalNormal", core.NewVec3(0, 0, -1)).Z
	if ps["portalNormal"].Type == "float" {
		nz = ps.FindOneFloat("portalNormal", -1)
	}
	if nz == 0 {
		return nil, fmt.Errorf("portalNormal must face +z or -z")
	}
	return []PortalSpec{{
		Lo:            core.NewVec3(ps.FindOneFloat("loX", 0), ps.FindOneFloat("loY", 0), z),
		Hi:            core.NewVec3(ps.FindOneFloat("hiX", 0), ps.FindOneFloat("hiY", 0), z),
		Axis:          2,
		FacingForward: nz > 0,
	}}, nil
}
