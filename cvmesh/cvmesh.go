// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cvmesh builds the median-dual control-volume tessellation over a
// geom.Mesh: per-node volumes, the directed-pair face-vector geometry used to
// integrate Darcy fluxes, and the neighbour adjacency that doubles as the
// sparsity pattern for assembler.LinearAssembler's global stiffness matrix.
package cvmesh

import (
	"math"
	"sort"

	"github.com/cpmech/gosl/chk"

	"github.com/lizzyfem/lizzy/geom"
)

// pair is a canonical (i<j) node index pair.
type pair struct{ I, J int }

// edge holds, for one undirected node pair (I<J), the per-element face
// vectors a_{IJ}^(e) oriented from I towards J -- one entry per triangle
// that contains both I and J (usually one or two, for a manifold mesh).
type edge struct {
	I, J   int
	Elems  []int
	Vecs   [][3]float64 // a_{IJ}^(e), same indexing as Elems
}

// CVMesh is the dual mesh built once, at initialise_solver time, from a
// frozen geom.Mesh. It never changes afterwards.
type CVMesh struct {
	Mesh    *geom.Mesh
	Volume  []float64      // per-node CV volume, V_i = (1/3) sum_{e ni} A_e h_e phi_e
	edges   []edge         // canonical I<J ordering, deterministic (see Build)
	byPair  map[pair]int   // pair -> index into edges
	adjacency map[int][]int // node -> sorted neighbour node indices (== K's sparsity pattern)
}

// Build constructs the dual mesh. mesh must have every triangle carrying a
// material assignment (material.MaterialStore.CheckComplete) before this is
// called, since volumes and face vectors both depend on Thickness/Porosity.
func Build(mesh *geom.Mesh) (*CVMesh, error) {
	cv := &CVMesh{
		Mesh:      mesh,
		Volume:    make([]float64, len(mesh.Nodes)),
		byPair:    make(map[pair]int),
		adjacency: make(map[int][]int),
	}

	// deterministic element traversal order -> deterministic sparsity
	for ei := range mesh.Triangles {
		t := &mesh.Triangles[ei]
		if !t.MaterialAssigned {
			return nil, chk.Err("cvmesh: element %d has no material assignment", ei)
		}

		// CV volumes: each incident element contributes one third of its
		// (area * thickness * porosity) to each of its three nodes.
		share := t.Area * t.Thickness * t.Porosity / 3.0
		for _, v := range t.Verts {
			cv.Volume[v] += share
		}

		// three sub-edges per element, one per triangle edge, each the
		// interface between the two incident nodes' control volumes within
		// this element (spec.md §4.2).
		for k := 0; k < 3; k++ {
			a := t.Verts[k]
			b := t.Verts[(k+1)%3]
			vec := faceVector(mesh, t, a, b)
			i, j, v := a, b, vec
			if i > j {
				i, j = j, i
				v = [3]float64{-v[0], -v[1], -v[2]}
			}
			cv.addContribution(i, j, ei, v)
		}
	}

	for p := range cv.byPair {
		cv.adjacency[p.I] = append(cv.adjacency[p.I], p.J)
		cv.adjacency[p.J] = append(cv.adjacency[p.J], p.I)
	}
	for n := range cv.adjacency {
		sort.Ints(cv.adjacency[n])
	}

	sort.Slice(cv.edges, func(x, y int) bool {
		if cv.edges[x].I != cv.edges[y].I {
			return cv.edges[x].I < cv.edges[y].I
		}
		return cv.edges[x].J < cv.edges[y].J
	})
	cv.byPair = make(map[pair]int, len(cv.edges))
	for idx, e := range cv.edges {
		cv.byPair[pair{e.I, e.J}] = idx
	}

	return cv, nil
}

func (cv *CVMesh) addContribution(i, j, elem int, v [3]float64) {
	p := pair{i, j}
	idx, ok := cv.byPair[p]
	if !ok {
		idx = len(cv.edges)
		cv.edges = append(cv.edges, edge{I: i, J: j})
		cv.byPair[p] = idx
	}
	cv.edges[idx].Elems = append(cv.edges[idx].Elems, elem)
	cv.edges[idx].Vecs = append(cv.edges[idx].Vecs, v)
}

// faceVector computes a_{a->b}^(e): the in-plane normal of the sub-edge
// segment(centroid(e), midpoint(a,b)), scaled by its length and the
// element's thickness, oriented from node a's control-volume fragment
// towards node b's.
func faceVector(mesh *geom.Mesh, t *geom.Triangle, a, b int) [3]float64 {
	pa := mesh.Nodes[a].X
	pb := mesh.Nodes[b].X
	mid := [3]float64{(pa[0] + pb[0]) / 2, (pa[1] + pb[1]) / 2, (pa[2] + pb[2]) / 2}
	c := t.Centroid
	d := [3]float64{mid[0] - c[0], mid[1] - c[1], mid[2] - c[2]}
	length := vnorm(d)
	if length < 1e-300 {
		return [3]float64{0, 0, 0}
	}

	// in-plane normal to the segment: rotate d by 90 deg about the element
	// normal, then fix the sign so it points from a's side towards b's.
	n := cross(t.Normal, d)
	nlen := vnorm(n)
	if nlen < 1e-300 {
		return [3]float64{0, 0, 0}
	}
	ab := [3]float64{pb[0] - pa[0], pb[1] - pa[1], pb[2] - pa[2]}
	if dot(n, ab) < 0 {
		n = [3]float64{-n[0], -n[1], -n[2]}
	}
	scale := length * t.Thickness / nlen
	return [3]float64{n[0] * scale, n[1] * scale, n[2] * scale}
}

// Neighbors returns node i's sorted neighbour list; this is the sparsity
// pattern row for node i in the global stiffness matrix (spec.md §4.2).
func (cv *CVMesh) Neighbors(i int) []int { return cv.adjacency[i] }

// NumNodes returns the number of control volumes (== number of mesh nodes).
func (cv *CVMesh) NumNodes() int { return len(cv.Volume) }

// Contributions returns, for the directed pair i->j, the list of (element,
// face-vector) contributions a_{ij}^(e) oriented from i towards j. Returns
// nil, false if i and j are not adjacent.
func (cv *CVMesh) Contributions(i, j int) (elems []int, vecs [][3]float64, ok bool) {
	canon := pair{i, j}
	sign := 1.0
	if i > j {
		canon = pair{j, i}
		sign = -1.0
	}
	idx, found := cv.byPair[canon]
	if !found {
		return nil, nil, false
	}
	e := cv.edges[idx]
	if sign > 0 {
		return e.Elems, e.Vecs, true
	}
	flipped := make([][3]float64, len(e.Vecs))
	for k, v := range e.Vecs {
		flipped[k] = [3]float64{-v[0], -v[1], -v[2]}
	}
	return e.Elems, flipped, true
}

// Edges returns the canonical (I<J) list of adjacent node pairs, in the
// deterministic order fixed at Build time.
func (cv *CVMesh) Edges() []struct{ I, J int } {
	out := make([]struct{ I, J int }, len(cv.edges))
	for i, e := range cv.edges {
		out[i] = struct{ I, J int }{e.I, e.J}
	}
	return out
}

func dot(a, b [3]float64) float64 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }
func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}
func vnorm(a [3]float64) float64 {
	return math.Sqrt(a[0]*a[0] + a[1]*a[1] + a[2]*a[2])
}
