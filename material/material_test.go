package material

import (
	"math"
	"testing"

	"github.com/lizzyfem/lizzy/geom"
)

func flatMesh(tst *testing.T) *geom.Mesh {
	coords := [][3]float64{
		{0, 0, 0},
		{1, 0, 0},
		{0, 1, 0},
		{1, 1, 0},
	}
	conn := [][3]int{{0, 1, 2}, {1, 3, 2}}
	m, err := geom.NewMesh(coords, conn, nil, map[string][]int{"domain": {0, 1}})
	if err != nil {
		tst.Fatalf("mesh: %v", err)
	}
	return m
}

func Test_material01_isotropic(tst *testing.T) {
	m := flatMesh(tst)
	s := New(m)
	if err := s.CreateMaterial("resin", 1e-10, 1e-10, 1e-10, 0.5, 1.0); err != nil {
		tst.Fatalf("create: %v", err)
	}
	if err := s.AssignMaterial("resin", "domain", nil); err != nil {
		tst.Fatalf("assign: %v", err)
	}
	if err := s.CheckComplete(); err != nil {
		tst.Fatalf("check: %v", err)
	}
	for _, t := range m.Triangles {
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				want := 0.0
				if i == j {
					want = 1e-10
				}
				if math.Abs(t.Ke[i][j]-want) > 1e-20 {
					tst.Errorf("Ke[%d][%d] = %g, want %g", i, j, t.Ke[i][j], want)
				}
			}
		}
	}
}

func Test_material02_isotropic_rosette_invariance(tst *testing.T) {
	// an isotropic material must be invariant to rosette choice (spec.md §8)
	m1 := flatMesh(tst)
	s1 := New(m1)
	if err := s1.CreateMaterial("iso", 7e-11, 7e-11, 7e-11, 0.4, 1.0); err != nil {
		tst.Fatalf("create: %v", err)
	}
	ros, err := NewRosetteFromDirection("r1", [3]float64{1, 1, 0})
	if err != nil {
		tst.Fatalf("rosette: %v", err)
	}
	if err := s1.AssignMaterial("iso", "domain", ros); err != nil {
		tst.Fatalf("assign: %v", err)
	}

	m2 := flatMesh(tst)
	s2 := New(m2)
	_ = s2.CreateMaterial("iso", 7e-11, 7e-11, 7e-11, 0.4, 1.0)
	if err := s2.AssignMaterial("iso", "domain", nil); err != nil {
		tst.Fatalf("assign: %v", err)
	}

	for e := range m1.Triangles {
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				if math.Abs(m1.Triangles[e].Ke[i][j]-m2.Triangles[e].Ke[i][j]) > 1e-20 {
					tst.Errorf("elem %d Ke[%d][%d] differs: %g != %g", e, i, j, m1.Triangles[e].Ke[i][j], m2.Triangles[e].Ke[i][j])
				}
			}
		}
	}
}

func Test_material03_duplicate_and_unknown(tst *testing.T) {
	m := flatMesh(tst)
	s := New(m)
	_ = s.CreateMaterial("resin", 1e-10, 1e-10, 1e-10, 0.5, 1.0)
	if err := s.CreateMaterial("resin", 1e-10, 1e-10, 1e-10, 0.5, 1.0); err == nil {
		tst.Errorf("expected duplicate-name rejection")
	}
	if err := s.AssignMaterial("nope", "domain", nil); err == nil {
		tst.Errorf("expected unknown-material rejection")
	}
	if err := s.AssignMaterial("resin", "nodomain", nil); err == nil {
		tst.Errorf("expected unknown-domain rejection")
	}
	if err := s.AssignMaterial("resin", "domain", nil); err != nil {
		tst.Fatalf("assign: %v", err)
	}
	if err := s.AssignMaterial("resin", "domain", nil); err == nil {
		tst.Errorf("expected already-assigned rejection")
	}
}

func Test_material04_unassigned_fails_check(tst *testing.T) {
	coords := [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {2, 0, 0}, {2, 1, 0}}
	conn := [][3]int{{0, 1, 2}, {1, 3, 4}}
	m, err := geom.NewMesh(coords, conn, nil, map[string][]int{"only0": {0}})
	if err != nil {
		tst.Fatalf("mesh: %v", err)
	}
	s := New(m)
	_ = s.CreateMaterial("resin", 1e-10, 1e-10, 1e-10, 0.5, 1.0)
	_ = s.AssignMaterial("resin", "only0", nil)
	if err := s.CheckComplete(); err == nil {
		tst.Errorf("expected unassigned material tag error")
	}
}
