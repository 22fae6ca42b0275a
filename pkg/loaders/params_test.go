package loaders

import (
	"testing"

	"github.com/df07/go-portal-raytracer/pkg/core"
)

func TestParamSet_Lookups(t *testing.T) {
	ps := ParamSet{
		"radius":  {Type: "float", Values: []string{"0.5"}},
		"axis":    {Type: "integer", Values: []string{"2"}},
		"bounds":  {Type: "integer", Values: []string{"0", "4", "2", "6"}},
		"name":    {Type: "string", Values: []string{"projection"}},
		"flag":    {Type: "bool", Values: []string{"true"}},
		"color":   {Type: "rgb", Values: []string{"0.1", "0.2", "0.3"}},
		"broken":  {Type: "float", Values: []string{"abc"}},
		"short":   {Type: "rgb", Values: []string{"1", "2"}},
		"badbool": {Type: "bool", Values: []string{"yes"}},
	}

	if got := ps.FindOneFloat("radius", 1); got != 0.5 {
		t.Errorf("radius %g, want 0.5", got)
	}
	if got := ps.FindOneFloat("missing", 1); got != 1 {
		t.Errorf("missing float %g, want default 1", got)
	}
	if got := ps.FindOneFloat("broken", 3); got != 3 {
		t.Errorf("malformed float %g, want default 3", got)
	}
	if got := ps.FindOneInt("axis", 0); got != 2 {
		t.Errorf("axis %d, want 2", got)
	}
	if got, ok := ps.FindInts("bounds"); !ok || len(got) != 4 || got[3] != 6 {
		t.Errorf("bounds %v, %v", got, ok)
	}
	if got := ps.FindOneString("name", "light"); got != "projection" {
		t.Errorf("name %q", got)
	}
	if !ps.FindOneBool("flag", false) {
		t.Error("flag should be true")
	}
	if ps.FindOneBool("badbool", false) {
		t.Error("unparseable bool should use the default")
	}
	if got := ps.FindOneRGB("color", core.Vec3{}); got != core.NewVec3(0.1, 0.2, 0.3) {
		t.Errorf("color %v", got)
	}
	if got := ps.FindOneRGB("short", core.NewVec3(1, 1, 1)); got != core.NewVec3(1, 1, 1) {
		t.Errorf("short rgb %v, want the default", got)
	}
	if !ps.Has("radius") || ps.Has("missing") {
		t.Error("Has reports wrong presence")
	}
}
