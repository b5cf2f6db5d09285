// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package material implements named porous materials and the rosette-driven
// rotation of their principal permeabilities into each element's global
// frame, adapting the parameter-bag idiom of the teacher's mporous and
// mconduct packages to Lizzy's simpler, non-pluggable material model.
package material

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"

	"github.com/lizzyfem/lizzy/geom"
)

// PorousMaterial is a named, homogeneous porous medium: principal
// permeabilities (k1,k2,k3) in m^2, porosity phi in (0,1), thickness h > 0
// in the caller's chosen unit (Lizzy does not convert between m and mm, see
// SPEC_FULL.md §9).
type PorousMaterial struct {
	Name      string
	K1, K2, K3 float64
	Porosity  float64
	Thickness float64
}

// RosetteKind tags the two ways a reference direction can be supplied.
type RosetteKind int

const (
	// Direction: u1 is given directly as a vector in the global frame.
	Direction RosetteKind = iota
	// TwoPoint: u1 = Q - P, P and Q given as points in the global frame.
	TwoPoint
)

// Rosette carries the per-domain orientation data that rotates a material's
// principal permeabilities into each assigned element's global frame.
// NewRosetteFromDirection and NewRosetteFromPoints are the only
// constructors; the variant is normalized to a unit direction vector at
// construction time, matching the "normalize at assignment" design note.
type Rosette struct {
	Name string
	kind RosetteKind
	u1   [3]float64 // normalized reference direction, global frame
}

// NewRosetteFromDirection builds a rosette from an explicit direction vector.
func NewRosetteFromDirection(name string, v [3]float64) (*Rosette, error) {
	u, ok := safeNormalize(v)
	if !ok {
		return nil, chk.Err("material: rosette %q direction vector has zero length", name)
	}
	return &Rosette{Name: name, kind: Direction, u1: u}, nil
}

// NewRosetteFromPoints builds a rosette from two points, u1 = q - p.
func NewRosetteFromPoints(name string, p, q [3]float64) (*Rosette, error) {
	v := [3]float64{q[0] - p[0], q[1] - p[1], q[2] - p[2]}
	u, ok := safeNormalize(v)
	if !ok {
		return nil, chk.Err("material: rosette %q two-point direction has zero length", name)
	}
	return &Rosette{Name: name, kind: TwoPoint, u1: u}, nil
}

// frame resolves (ê1, ê2, ê3) for one element, given its unit normal.
// ê3 = normal, ê1 = normalize(project(u1, plane)), ê2 = ê3 x ê1.
func (r *Rosette) frame(normal [3]float64) (e1, e2, e3 [3]float64, err error) {
	e3 = normal
	d := dot(r.u1, e3)
	proj := [3]float64{r.u1[0] - d*e3[0], r.u1[1] - d*e3[1], r.u1[2] - d*e3[2]}
	n := norm(proj)
	if n < 1e-8 {
		return e1, e2, e3, chk.Err("material: rosette %q direction is parallel to an assigned element's normal", r.Name)
	}
	e1 = [3]float64{proj[0] / n, proj[1] / n, proj[2] / n}
	e2 = crossP(e3, e1)
	return
}

// MaterialStore is the named-material database plus the per-domain
// assignment pass that writes each assigned triangle's Ke/Thickness/Porosity
// in geom.Mesh. It is mutated only before initialise_solver.
type MaterialStore struct {
	mesh       *geom.Mesh
	materials  map[string]*PorousMaterial
	assigned   map[string]bool // domain name -> already assigned
}

// New creates a MaterialStore bound to a mesh whose ElementSets define the
// named material domains.
func New(mesh *geom.Mesh) *MaterialStore {
	return &MaterialStore{
		mesh:      mesh,
		materials: make(map[string]*PorousMaterial),
		assigned:  make(map[string]bool),
	}
}

// CreateMaterial registers a new named porous material.
func (s *MaterialStore) CreateMaterial(name string, k1, k2, k3, phi, h float64) error {
	if _, exists := s.materials[name]; exists {
		return chk.Err("material: material %q already exists", name)
	}
	if phi <= 0 || phi >= 1 {
		return chk.Err("material: porosity must be in (0,1), got %g", phi)
	}
	if h <= 0 {
		return chk.Err("material: thickness must be > 0, got %g", h)
	}
	if k1 < 0 || k2 < 0 || k3 < 0 {
		return chk.Err("material: permeabilities must be non-negative")
	}
	s.materials[name] = &PorousMaterial{Name: name, K1: k1, K2: k2, K3: k3, Porosity: phi, Thickness: h}
	return nil
}

// Get returns a previously created material, or nil.
func (s *MaterialStore) Get(name string) *PorousMaterial { return s.materials[name] }

// AssignMaterial assigns materialName to every triangle tagged with
// domainName, rotating the principal permeabilities into each element's
// global frame via rosette (nil rosette means the material frame aligns
// directly with (Tangent1, Tangent2, Normal) -- valid for isotropic media or
// when no preferred direction is given).
func (s *MaterialStore) AssignMaterial(materialName, domainName string, rosette *Rosette) error {
	mat, ok := s.materials[materialName]
	if !ok {
		return chk.Err("material: unknown material %q", materialName)
	}
	if s.assigned[domainName] {
		return chk.Err("material: domain %q already has a material assignment", domainName)
	}
	idxs, ok := s.mesh.ElementSets[domainName]
	if !ok {
		return chk.Err("material: unknown domain %q", domainName)
	}

	dk := la.MatAlloc(3, 3)
	dk[0][0], dk[1][1], dk[2][2] = mat.K1, mat.K2, mat.K3

	for _, ei := range idxs {
		t := &s.mesh.Triangles[ei]

		var e1, e2, e3 [3]float64
		if rosette == nil {
			e1, e2, e3 = t.Tangent1, t.Tangent2, t.Normal
		} else {
			var err error
			e1, e2, e3, err = rosette.frame(t.Normal)
			if err != nil {
				return err
			}
		}

		// R columns are (e1,e2,e3); store Rt = transpose(R) so that
		// la.MatTrMul3(Ke, 1, Rt, dk, Rt) computes (Rt)^T * dk * Rt == R*dk*R^T,
		// reusing the teacher's congruence-transform primitive (see DESIGN.md).
		rt := la.MatAlloc(3, 3)
		rt[0] = []float64{e1[0], e1[1], e1[2]}
		rt[1] = []float64{e2[0], e2[1], e2[2]}
		rt[2] = []float64{e3[0], e3[1], e3[2]}

		ke := la.MatAlloc(3, 3)
		la.MatTrMul3(ke, 1, rt, dk, rt)

		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				t.Ke[i][j] = ke[i][j]
			}
		}

		// project onto the element's own in-plane frame for stiffness assembly
		// (spec.md §4.5): note this is t.Tangent1/2, not the rosette's e1/e2 --
		// the rosette only fixes where the principal permeabilities point, the
		// tangent frame is purely geometric and shared by every material on
		// this triangle.
		matvec := func(v [3]float64) [3]float64 {
			return [3]float64{
				ke[0][0]*v[0] + ke[0][1]*v[1] + ke[0][2]*v[2],
				ke[1][0]*v[0] + ke[1][1]*v[1] + ke[1][2]*v[2],
				ke[2][0]*v[0] + ke[2][1]*v[1] + ke[2][2]*v[2],
			}
		}
		kt1 := matvec(t.Tangent1)
		kt2 := matvec(t.Tangent2)
		t.Ktan[0][0] = dot(t.Tangent1, kt1)
		t.Ktan[0][1] = dot(t.Tangent1, kt2)
		t.Ktan[1][0] = dot(t.Tangent2, kt1)
		t.Ktan[1][1] = dot(t.Tangent2, kt2)

		t.Thickness = mat.Thickness
		t.Porosity = mat.Porosity
		t.MaterialName = materialName
		t.RosetteID = rosetteName(rosette)
		t.MaterialAssigned = true
	}

	s.assigned[domainName] = true
	return nil
}

// CheckComplete verifies every triangle in the mesh carries a material
// assignment; called by the engine at initialise_solver.
func (s *MaterialStore) CheckComplete() error {
	for _, t := range s.mesh.Triangles {
		if !t.MaterialAssigned {
			return chk.Err("material: unassigned material tag on element %d", t.Index)
		}
	}
	return nil
}

func rosetteName(r *Rosette) string {
	if r == nil {
		return ""
	}
	return r.Name
}

func dot(a, b [3]float64) float64 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }
func norm(a [3]float64) float64   { return la.VecNorm(a[:]) }
func crossP(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func safeNormalize(v [3]float64) (u [3]float64, ok bool) {
	n := norm(v)
	if n < 1e-300 {
		return u, false
	}
	return [3]float64{v[0] / n, v[1] / n, v[2] / n}, true
}
