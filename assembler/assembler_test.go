package assembler

import (
	"math"
	"testing"

	"github.com/lizzyfem/lizzy/cvmesh"
	"github.com/lizzyfem/lizzy/geom"
	"github.com/lizzyfem/lizzy/material"
	"github.com/lizzyfem/lizzy/solver"
)

func flatMesh(tst *testing.T) (*geom.Mesh, *cvmesh.CVMesh) {
	coords := [][3]float64{
		{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0},
	}
	conn := [][3]int{{0, 1, 2}, {1, 3, 2}}
	m, err := geom.NewMesh(coords, conn,
		map[string][]int{"left": {0, 2}, "right": {1, 3}},
		map[string][]int{"domain": {0, 1}})
	if err != nil {
		tst.Fatalf("mesh: %v", err)
	}
	s := material.New(m)
	if err := s.CreateMaterial("resin", 1e-10, 1e-10, 1e-10, 0.5, 1e-3); err != nil {
		tst.Fatalf("create: %v", err)
	}
	if err := s.AssignMaterial("resin", "domain", nil); err != nil {
		tst.Fatalf("assign: %v", err)
	}
	cv, err := cvmesh.Build(m)
	if err != nil {
		tst.Fatalf("cv build: %v", err)
	}
	return m, cv
}

func Test_assembler01_symmetric(tst *testing.T) {
	m, cv := flatMesh(tst)
	asm := New(m, cv, 1e-3)

	dirichlet := []Dirichlet{{Node: 0, P: 1e5}, {Node: 2, P: 1e5}, {Node: 1, P: 0}, {Node: 3, P: 0}}
	n, entries, b := asm.Assemble(dirichlet)
	if n != 4 {
		tst.Fatalf("n = %d, want 4", n)
	}
	dense := make([][]float64, n)
	for i := range dense {
		dense[i] = make([]float64, n)
	}
	for _, e := range entries {
		dense[e.I][e.J] += e.V
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if math.Abs(dense[i][j]-dense[j][i]) > 1e-12 {
				tst.Errorf("K not symmetric at (%d,%d): %g vs %g", i, j, dense[i][j], dense[j][i])
			}
		}
	}
	for _, d := range dirichlet {
		if dense[d.Node][d.Node] != 1 {
			tst.Errorf("dirichlet row %d diagonal = %g, want 1", d.Node, dense[d.Node][d.Node])
		}
		if b[d.Node] != d.P {
			tst.Errorf("dirichlet row %d rhs = %g, want %g", d.Node, b[d.Node], d.P)
		}
	}
}

func Test_assembler02_all_dirichlet_is_identity(tst *testing.T) {
	m, cv := flatMesh(tst)
	asm := New(m, cv, 1e-3)
	dirichlet := []Dirichlet{{0, 1}, {1, 2}, {2, 3}, {3, 4}}
	n, entries, b := asm.Assemble(dirichlet)
	dense := make([][]float64, n)
	for i := range dense {
		dense[i] = make([]float64, n)
	}
	for _, e := range entries {
		dense[e.I][e.J] += e.V
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			want := 0.0
			if i == j {
				want = 1
			}
			if dense[i][j] != want {
				tst.Errorf("K[%d][%d] = %g, want %g", i, j, dense[i][j], want)
			}
		}
		if b[i] != float64(i+1) {
			tst.Errorf("b[%d] = %g, want %g", i, b[i], float64(i+1))
		}
	}
}

// Test_assembler03_backends_agree feeds real Assemble output -- which
// includes mirrored (i,j)/(j,i) entries for the free-free coupling between
// nodes 1 and 3 -- through all three solver.Backend implementations and
// checks they produce the same pressures (spec.md §8's "all three backends
// agree on the fixture" property).
func Test_assembler03_backends_agree(tst *testing.T) {
	m, cv := flatMesh(tst)
	asm := New(m, cv, 1e-3)
	dirichlet := []Dirichlet{{Node: 0, P: 1e5}, {Node: 2, P: 1e5}}
	n, entries, b := asm.Assemble(dirichlet)

	var results [][]float64
	for _, kind := range []solver.Kind{solver.Dense, solver.SparseDirect, solver.Iterative} {
		bk, err := solver.New(kind)
		if err != nil {
			tst.Fatalf("%s: new: %v", kind, err)
		}
		if err := bk.Factorize(n, entries); err != nil {
			tst.Fatalf("%s: factorize: %v", kind, err)
		}
		x, err := bk.Solve(b)
		if err != nil {
			tst.Fatalf("%s: solve: %v", kind, err)
		}
		bk.Release()
		results = append(results, x)
	}

	ref := results[0]
	for k := 1; k < len(results); k++ {
		for i := 0; i < n; i++ {
			if math.Abs(results[k][i]-ref[i]) > 1e-6*math.Max(1, math.Abs(ref[i])) {
				tst.Errorf("backend %d disagrees with backend 0 at node %d: %g vs %g", k, i, results[k][i], ref[i])
			}
		}
	}
	// only nodes 0 and 2 are held (both at 1e5) and every other boundary is
	// no-flow, so the discrete solution is the uniform inlet pressure and the
	// two free nodes must end up equal.
	if math.Abs(ref[1]-ref[3]) > 1e-6 {
		tst.Errorf("expected symmetric fixture to give equal pressure at nodes 1 and 3, got %g vs %g", ref[1], ref[3])
	}
}
