package loaders

import (
	"strconv"
	"strings"

	"github.com/df07/go-portal-raytracer/pkg/core"
)

// Param represents a parameter with type and value(s)
type Param struct {
	Type   string   // Parameter type (float, rgb, point3, etc.)
	Values []string // Parameter values as strings, quotes removed
}

// ParamSet holds the named parameters of one statement. The FindOne
// lookups return the default when a parameter is missing or malformed.
type ParamSet map[string]Param

func (ps ParamSet) first(name string) (string, bool) {
	p, ok := ps[name]
	if !ok || len(p.Values) == 0 {
		return "", false
	}
	return p.Values[0], true
}

func (ps ParamSet) floats(name string, n int) ([]float64, bool) {
	p, ok := ps[name]
	if !ok || len(p.Values) < n {
		return nil, false
	}
	out := make([]float64, n)
	for i := range out {
		v, err := strconv.ParseFloat(p.Values[i], 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

// Has reports whether the parameter is present
func (ps ParamSet) Has(name string) bool {
	_, ok := ps[name]
	return ok
}

// FindOneFloat extracts a float parameter
func (ps ParamSet) FindOneFloat(name string, def float64) float64 {
	if v, ok := ps.floats(name, 1); ok {
		return v[0]
	}
	return def
}

// FindOneInt extracts an integer parameter
func (ps ParamSet) FindOneInt(name string, def int) int {
	s, ok := ps.first(name)
	if !ok {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// FindInts extracts every value of an integer parameter
func (ps ParamSet) FindInts(name string) ([]int, bool) {
	p, ok := ps[name]
	if !ok {
		return nil, false
	}
	out := make([]int, len(p.Values))
	for i, s := range p.Values {
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

// FindOneString extracts a string parameter
func (ps ParamSet) FindOneString(name, def string) string {
	if s, ok := ps.first(name); ok {
		return s
	}
	return def
}

// FindOneBool extracts a bool parameter written as "true" or "false"
func (ps ParamSet) FindOneBool(name string, def bool) bool {
	s, ok := ps.first(name)
	if !ok {
		return def
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	default:
		return def
	}
}

// FindOneRGB extracts an RGB color parameter
func (ps ParamSet) FindOneRGB(name string, def core.Vec3) core.Vec3 {
	if v, ok := ps.floats(name, 3); ok {
		return core.NewVec3(v[0], v[1], v[2])
	}
	return def
}

// FindOnePoint3 extracts a point3 parameter
func (ps ParamSet) FindOnePoint3(name string, def core.Vec3) core.Vec3 {
	return ps.FindOneRGB(name, def)
}

// FindOneNormal extracts a normal parameter
func (ps ParamSet) FindOneNormal(name string, def core.Vec3) core.Vec3 {
	return ps.FindOneRGB(name, def)
}
