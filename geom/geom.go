// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package geom holds the immutable triangulated surface geometry that the
// filling engine is built on: nodes, triangles and their precomputed frames,
// normals, areas and centroids.
package geom

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
)

// Node is a mesh vertex. Immutable once the mesh is loaded.
type Node struct {
	Index int        // 0-based index into Mesh.Nodes
	X     [3]float64 // position in 3D space
}

// Triangle is a 2D triangular element embedded in 3D space. Most fields are
// derived from the node positions at load time and never change afterwards;
// MaterialName, RosetteID, Ke, Ktan, Thickness and Porosity are filled in later by
// material.MaterialStore.AssignMaterial and are immutable from that point on.
type Triangle struct {
	Index int    // 0-based index into Mesh.Triangles
	Verts [3]int // node indices, ordered as given by the mesh reader

	Normal   [3]float64 // unit outward normal n̂ = normalize(e1 x e2)
	Tangent1 [3]float64 // in-plane unit tangent t̂1 (e1 direction)
	Tangent2 [3]float64 // in-plane unit tangent t̂2 = n̂ x t̂1
	Area     float64    // A = 1/2 |e1 x e2|
	Centroid [3]float64

	// Grad[a] is the constant in-plane gradient of shape function N_a,
	// expressed in the (Tangent1, Tangent2) frame: Grad[a] = [dNa/dt1, dNa/dt2].
	// |Grad[a]| == (length of the edge opposite node a)/(2A) for a linear
	// triangle.
	Grad [3][2]float64

	// set by material.MaterialStore.AssignMaterial; zero value means unassigned.
	MaterialAssigned bool
	MaterialName     string
	RosetteID        string
	Ke               [3][3]float64 // permeability tensor in global frame
	Ktan             [2][2]float64 // Ke projected onto (Tangent1,Tangent2): Ktan[p][q] = Tangent_p . Ke . Tangent_q
	Thickness        float64
	Porosity         float64
}

// Mesh is the triangulated surface the engine consumes. It is built once by
// NewMesh from raw node coordinates and triangle connectivity (as handed over
// by the external MSH v4 reader, out of this package's scope) and is
// immutable afterwards except for the per-triangle material fields, which
// material.MaterialStore fills in before Mesh.Freeze is called.
type Mesh struct {
	Nodes     []Node
	Triangles []Triangle

	// NodeSets maps a physical-line name to the node indices it contains.
	NodeSets map[string][]int
	// ElementSets maps a physical-surface name to the triangle indices it contains.
	ElementSets map[string][]int

	frozen bool
}

// NewMesh validates and precomputes per-triangle geometry from raw input.
// coords is len(coords)==nnodes, each a [3]float64 position. conn is
// len(conn)==ntriangles, each a [3]int of 0-based node indices.
func NewMesh(coords [][3]float64, conn [][3]int, nodeSets, elementSets map[string][]int) (*Mesh, error) {
	if len(coords) < 3 {
		return nil, chk.Err("geom: mesh must have at least 3 nodes, got %d", len(coords))
	}
	if len(conn) < 1 {
		return nil, chk.Err("geom: mesh must have at least 1 triangle")
	}

	m := &Mesh{
		Nodes:       make([]Node, len(coords)),
		Triangles:   make([]Triangle, len(conn)),
		NodeSets:    nodeSets,
		ElementSets: elementSets,
	}
	for i, c := range coords {
		m.Nodes[i] = Node{Index: i, X: c}
	}

	for e, tri := range conn {
		for _, v := range tri {
			if v < 0 || v >= len(coords) {
				return nil, chk.Err("geom: triangle %d references out-of-range node %d", e, v)
			}
		}
		t := Triangle{Index: e, Verts: tri}
		if err := computeTriangleFrame(&t, m.Nodes); err != nil {
			return nil, err
		}
		m.Triangles[e] = t
	}
	return m, nil
}

// computeTriangleFrame fills normal, tangents, area, centroid and the
// constant shape-function gradients of a single triangle.
func computeTriangleFrame(t *Triangle, nodes []Node) error {
	p0 := nodes[t.Verts[0]].X
	p1 := nodes[t.Verts[1]].X
	p2 := nodes[t.Verts[2]].X

	e1 := sub(p1, p0)
	e2 := sub(p2, p0)
	cr := cross(e1, e2)
	norm := vnorm(cr)
	if norm < 1e-14 {
		return chk.Err("geom: zero-area element %d", t.Index)
	}
	area := 0.5 * norm
	n := scale(cr, 1.0/norm)

	t1 := normalize(e1)
	t2 := cross(n, t1)

	t.Normal = n
	t.Tangent1 = t1
	t.Tangent2 = t2
	t.Area = area
	t.Centroid = scale(add(add(p0, p1), p2), 1.0/3.0)

	// project the three vertices onto the (t1,t2) in-plane frame, relative
	// to the centroid, and compute the constant gradient of each linear
	// shape function the same way the teacher's shp package derives G ==
	// dSdx via dRdx = inv(dxdR): for an affine triangle this reduces to a
	// single 2x2 inversion instead of a per-integration-point loop.
	local := [3][2]float64{}
	for i, p := range [3][3]float64{p0, p1, p2} {
		d := sub(p, t.Centroid)
		local[i] = [2]float64{dot(d, t1), dot(d, t2)}
	}

	// dN_a/d(t1,t2) from the standard linear-triangle formula using signed
	// areas: b_a = (y_b - y_c)/(2A), c_a = (x_c - x_b)/(2A) with (a,b,c) a
	// cyclic permutation of (0,1,2) in the local 2D frame.
	twoA := 2.0 * area
	idx := [3][3]int{{0, 1, 2}, {1, 2, 0}, {2, 0, 1}}
	for _, p := range idx {
		a, b, c := p[0], p[1], p[2]
		t.Grad[a][0] = (local[b][1] - local[c][1]) / twoA
		t.Grad[a][1] = (local[c][0] - local[b][0]) / twoA
	}
	return nil
}

// InPlaneGradient returns the in-plane (2D, local-frame) gradient matrix b
// used by assembler.LinearAssembler, as a slice of 3 row vectors via gosl's
// la.MatAlloc convention so callers can feed it straight into la.MatTrMul3.
func (t *Triangle) InPlaneGradient() [][]float64 {
	b := la.MatAlloc(3, 2)
	for a := 0; a < 3; a++ {
		b[a][0] = t.Grad[a][0]
		b[a][1] = t.Grad[a][1]
	}
	return b
}

// Freeze marks the mesh topology as immutable; called by
// model.Model.InitialiseSolver once every triangle carries a material
// assignment and the control-volume dual has been built (cvmesh.Build).
func (m *Mesh) Freeze() { m.frozen = true }

// Frozen reports whether Freeze has been called.
func (m *Mesh) Frozen() bool { return m.frozen }

func sub(a, b [3]float64) [3]float64   { return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }
func add(a, b [3]float64) [3]float64   { return [3]float64{a[0] + b[0], a[1] + b[1], a[2] + b[2]} }
func scale(a [3]float64, s float64) [3]float64 {
	return [3]float64{a[0] * s, a[1] * s, a[2] * s}
}
func dot(a, b [3]float64) float64 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }
func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}
func vnorm(a [3]float64) float64 { return math.Sqrt(dot(a, a)) }
func normalize(a [3]float64) [3]float64 {
	n := vnorm(a)
	if n < 1e-300 {
		return a
	}
	return scale(a, 1.0/n)
}
