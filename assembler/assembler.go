// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package assembler builds the sparse symmetric stiffness matrix K and RHS
// vector b for the pressure Poisson problem on the dual control-volume mesh,
// applying Dirichlet rows for active inlet nodes and not-yet-wet (front and
// dry) CV nodes (spec.md §4.5).
package assembler

import (
	"github.com/lizzyfem/lizzy/cvmesh"
	"github.com/lizzyfem/lizzy/geom"
	"github.com/lizzyfem/lizzy/solver"
)

// Dirichlet is one fixed-pressure degree of freedom: node i held at value p.
type Dirichlet struct {
	Node int
	P    float64
}

// LinearAssembler owns the element-wise and nodal state needed to rebuild K
// and b at every step. The sparsity pattern (cv.Neighbors) never changes
// after construction; only the entry values and the Dirichlet set do.
type LinearAssembler struct {
	mesh *geom.Mesh
	cv   *cvmesh.CVMesh
	mu   float64
}

// New builds a LinearAssembler over a frozen mesh/dual-mesh pair. mu is the
// resin viscosity in Pa.s (spec.md §3's simulation parameter).
func New(mesh *geom.Mesh, cv *cvmesh.CVMesh, mu float64) *LinearAssembler {
	return &LinearAssembler{mesh: mesh, cv: cv, mu: mu}
}

// Assemble builds the global stiffness entries and RHS for the current set
// of Dirichlet conditions. dirichlet must contain, at minimum, one entry per
// active inlet node (p = inlet pressure) and one per front CV node (p = 0),
// per spec.md §4.5; duplicate nodes are not permitted and the caller (the
// scheduler) is responsible for resolving any conflicting assignment before
// calling Assemble.
//
// The Dirichlet treatment is a symmetric row+column projection: row i is
// replaced with a unit diagonal entry and b_i = p_i, while every free row j
// has its coupling to i moved to the RHS (b_j -= K[j][i]*p_i) before the
// (j,i) and (i,j) entries are dropped. This keeps K symmetric positive
// definite for the direct/dense solvers, unlike the teacher's
// Lagrange-multiplier EssentialBcs scheme (see DESIGN.md).
func (a *LinearAssembler) Assemble(dirichlet []Dirichlet) (n int, entries []solver.Entry, b []float64) {
	n = len(a.mesh.Nodes)
	b = make([]float64, n)

	fixed := make(map[int]float64, len(dirichlet))
	for _, d := range dirichlet {
		fixed[d.Node] = d.P
	}

	// raw[i][j] accumulates the free-system stiffness contributions before
	// Dirichlet projection; built densely per-row over each node's CV
	// neighbourhood (the sparsity pattern), which is small and bounded by
	// mesh valence.
	raw := make(map[[2]int]float64)
	addRaw := func(i, j int, v float64) {
		key := [2]int{i, j}
		raw[key] += v
	}

	for ei := range a.mesh.Triangles {
		t := &a.mesh.Triangles[ei]
		grad := t.InPlaneGradient() // grad[a] = [dN_a/dξ1, dN_a/dξ2], a=0..2
		coef := t.Thickness * t.Area / a.mu
		for p := 0; p < 3; p++ {
			for q := 0; q < 3; q++ {
				// K_e[p,q] = coef * b_p^T Ktan b_q
				bp := grad[p]
				bq := grad[q]
				var v float64
				for r := 0; r < 2; r++ {
					for s := 0; s < 2; s++ {
						v += bp[r] * t.Ktan[r][s] * bq[s]
					}
				}
				addRaw(t.Verts[p], t.Verts[q], coef*v)
			}
		}
	}

	for key, v := range raw {
		i, j := key[0], key[1]
		_, iFixed := fixed[i]
		_, jFixed := fixed[j]

		switch {
		case iFixed && jFixed:
			// both endpoints fixed: contributes nothing to the free system,
			// and the diagonal identity is added once below.
		case iFixed && !jFixed:
			// dropped; raw is symmetric, so the mirrored (j,i) key moves
			// this coupling to b_j in the case below, exactly once.
		case !iFixed && jFixed:
			// column projection: moves to b_i, (i,j) entry dropped.
			pj := fixed[j]
			b[i] -= v * pj
		default:
			entries = append(entries, solver.Entry{I: i, J: j, V: v})
		}
	}

	for node, p := range fixed {
		entries = append(entries, solver.Entry{I: node, J: node, V: 1})
		b[node] = p
	}

	return n, entries, b
}
