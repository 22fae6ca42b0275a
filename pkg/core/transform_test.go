package core

import (
	"errors"
	"math"
	"testing"
)

const transformTolerance = 1e-9

func vecClose(a, b Vec3) bool {
	return a.Distance(b) < transformTolerance
}

func TestTransform_TranslateRotate(t *testing.T) {
	tr := Translate(NewVec3(1, 2, 3))
	if got := tr.Point(NewVec3(0, 0, 0)); !vecClose(got, NewVec3(1, 2, 3)) {
		t.Errorf("translated origin = %v", got)
	}
	if got := tr.Vector(NewVec3(1, 0, 0)); !vecClose(got, NewVec3(1, 0, 0)) {
		t.Errorf("translation moved a vector: %v", got)
	}

	rot := Rotate(90, NewVec3(0, 0, 1))
	if got := rot.Vector(NewVec3(1, 0, 0)); !vecClose(got, NewVec3(0, 1, 0)) {
		t.Errorf("rotated x axis = %v, want +y", got)
	}

	combined := tr.Compose(rot)
	p := NewVec3(1, 0, 0)
	if got := combined.Point(p); !vecClose(got, NewVec3(1, 3, 3)) {
		t.Errorf("composed point = %v", got)
	}
	if got := combined.Inverse().Point(combined.Point(p)); !vecClose(got, p) {
		t.Errorf("inverse round trip = %v", got)
	}
}

func TestTransform_Rigidity(t *testing.T) {
	if !Translate(NewVec3(4, 5, 6)).Compose(Rotate(33, NewVec3(1, 1, 0))).IsRigid() {
		t.Error("rotation plus translation should be rigid")
	}

	scale, err := Scale(2, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if scale.IsRigid() {
		t.Error("scale reported as rigid")
	}
	if _, err := NewRigidTransform(scale.Matrix()); !errors.Is(err, ErrNonRigidTransform) {
		t.Errorf("expected ErrNonRigidTransform, got %v", err)
	}

	if _, err := Scale(0, 1, 1); !errors.Is(err, ErrSingularTransform) {
		t.Errorf("expected ErrSingularTransform, got %v", err)
	}
}

func TestTransform_Normal(t *testing.T) {
	scale, err := Scale(2, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	// normal of the plane x + y = 0 stays perpendicular after scaling
	n := scale.Normal(NewVec3(1, 1, 0)).Normalize()
	tangent := scale.Vector(NewVec3(1, -1, 0))
	if math.Abs(n.Dot(tangent)) > transformTolerance {
		t.Errorf("transformed normal %v not perpendicular to %v", n, tangent)
	}
}

func TestTransform_AxisPermutation(t *testing.T) {
	perm, ok := Rotate(90, NewVec3(1, 0, 0)).AxisPermutation()
	if !ok {
		t.Fatal("90 degree rotation should be an axis permutation")
	}
	// rotating about x maps y to z: output y comes from input z
	if perm != [3]int{0, 2, 1} {
		t.Errorf("perm = %v", perm)
	}

	if _, ok := Rotate(30, NewVec3(0, 1, 0)).AxisPermutation(); ok {
		t.Error("30 degree rotation reported as axis permutation")
	}
	if perm, ok := IdentityTransform().AxisPermutation(); !ok || perm != [3]int{0, 1, 2} {
		t.Errorf("identity perm = %v, %v", perm, ok)
	}
}

func TestTransform_LookAt(t *testing.T) {
	cam, err := LookAt(NewVec3(0, 0, 5), NewVec3(0, 0, 0), NewVec3(0, 1, 0))
	if err != nil {
		t.Fatal(err)
	}
	if got := cam.Point(NewVec3(0, 0, 0)); !vecClose(got, NewVec3(0, 0, 5)) {
		t.Errorf("camera origin = %v", got)
	}
	// camera space -z looks toward the target
	if got := cam.Vector(NewVec3(0, 0, -1)); !vecClose(got, NewVec3(0, 0, -1)) {
		t.Errorf("view direction = %v", got)
	}

	if _, err := LookAt(NewVec3(1, 1, 1), NewVec3(1, 1, 1), NewVec3(0, 1, 0)); err == nil {
		t.Error("expected error for coincident eye and center")
	}
}
