package cvmesh

import (
	"math"
	"testing"

	"github.com/lizzyfem/lizzy/geom"
	"github.com/lizzyfem/lizzy/material"
)

func twoTriMesh(tst *testing.T) *geom.Mesh {
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
	s := material.New(m)
	if err := s.CreateMaterial("resin", 1e-10, 1e-10, 1e-10, 0.5, 2.0); err != nil {
		tst.Fatalf("create: %v", err)
	}
	if err := s.AssignMaterial("resin", "domain", nil); err != nil {
		tst.Fatalf("assign: %v", err)
	}
	return m
}

func Test_cvmesh01_volume_partition(tst *testing.T) {
	m := twoTriMesh(tst)
	cv, err := Build(m)
	if err != nil {
		tst.Fatalf("build: %v", err)
	}

	var total float64
	for _, v := range cv.Volume {
		total += v
	}
	var expect float64
	for _, t := range m.Triangles {
		expect += t.Area * t.Thickness * t.Porosity
	}
	if math.Abs(total-expect) > 1e-12 {
		tst.Errorf("volume partition broken: total=%g expect=%g", total, expect)
	}
}

func Test_cvmesh02_neighbor_symmetry(tst *testing.T) {
	m := twoTriMesh(tst)
	cv, err := Build(m)
	if err != nil {
		tst.Fatalf("build: %v", err)
	}
	for i := 0; i < cv.NumNodes(); i++ {
		for _, j := range cv.Neighbors(i) {
			found := false
			for _, k := range cv.Neighbors(j) {
				if k == i {
					found = true
				}
			}
			if !found {
				tst.Errorf("adjacency not symmetric: %d->%d but not %d->%d", i, j, j, i)
			}
			_, _, ok := cv.Contributions(i, j)
			if !ok {
				tst.Errorf("missing contributions for adjacent pair %d,%d", i, j)
			}
		}
	}
}

func Test_cvmesh03_contribution_antisymmetry(tst *testing.T) {
	m := twoTriMesh(tst)
	cv, err := Build(m)
	if err != nil {
		tst.Fatalf("build: %v", err)
	}
	for _, e := range cv.Edges() {
		_, vij, _ := cv.Contributions(e.I, e.J)
		_, vji, _ := cv.Contributions(e.J, e.I)
		for k := range vij {
			for d := 0; d < 3; d++ {
				if math.Abs(vij[k][d]+vji[k][d]) > 1e-14 {
					tst.Errorf("face vector not antisymmetric at edge (%d,%d) elem idx %d", e.I, e.J, k)
				}
			}
		}
	}
}
