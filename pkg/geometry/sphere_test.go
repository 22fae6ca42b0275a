package geometry

import (
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-portal-raytracer/pkg/core"
)

func TestSphere_Intersect(t *testing.T) {
	s := NewSphere(core.NewVec3(0, 0, -5), 1)

	tests := []struct {
		name  string
		ray   core.Ray
		hit   bool
		wantT float64
		front bool
	}{
		{"head on", core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1)), true, 4, true},
		{"miss", core.NewRay(core.NewVec3(0, 2, 0), core.NewVec3(0, 0, -1)), false, 0, false},
		{"from inside", core.NewRay(core.NewVec3(0, 0, -5), core.NewVec3(0, 0, -1)), true, 1, false},
		{"short ray", core.Ray{Origin: core.NewVec3(0, 0, 0), Direction: core.NewVec3(0, 0, -1), TMax: 3}, false, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			si, ok := s.Intersect(tt.ray)
			if ok != tt.hit {
				t.Fatalf("hit = %v, want %v", ok, tt.hit)
			}
			if !ok {
				return
			}
			if math.Abs(si.T-tt.wantT) > 1e-9 {
				t.Errorf("t = %g, want %g", si.T, tt.wantT)
			}
			if si.FrontFace != tt.front {
				t.Errorf("front face = %v, want %v", si.FrontFace, tt.front)
			}
		})
	}
}

func TestSphere_SolidAnglePdfConsistency(t *testing.T) {
	s := NewSphere(core.NewVec3(0, 3, 0), 0.5)
	ref := core.NewVec3(0, 0, 0)
	random := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		sample := s.SampleSolidAngle(ref, core.NewVec2(random.Float64(), random.Float64()))
		if sample.Pdf == 0 {
			continue
		}
		if got := s.PdfSolidAngle(ref, sample.Direction); math.Abs(got-sample.Pdf) > 1e-9 {
			t.Fatalf("PdfSolidAngle = %g, sample pdf = %g", got, sample.Pdf)
		}
		if math.Abs(sample.Point.Distance(s.Center)-s.Radius) > 1e-6 {
			t.Fatalf("sample %v not on sphere", sample.Point)
		}
	}

	// the cone pdf integrates to one over the subtended solid angle
	cosMax := math.Sqrt(1 - 0.25/9)
	if got, want := core.UniformConePDF(cosMax)*2*math.Pi*(1-cosMax), 1.0; math.Abs(got-want) > 1e-12 {
		t.Errorf("cone pdf normalization = %g", got)
	}
}
