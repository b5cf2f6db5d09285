// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package meshio declares the contract between the engine and the external
// MSH v4 ASCII mesh reader. Parsing the file format itself is out of this
// module's scope (spec.md §1); only the struct the reader hands back, and the
// interface the engine calls it through, live here.
package meshio

import "github.com/cpmech/gosl/chk"

// Mesh is what an external Reader must produce: raw node coordinates,
// triangle connectivity, and named node/element sets resolved from the MSH
// file's physical-group tags (spec.md §6).
type Mesh struct {
	Coords      [][3]float64
	Conn        [][3]int
	NodeSets    map[string][]int // physical lines
	ElementSets map[string][]int // physical surfaces
}

// Reader parses a mesh file and returns its contents, or an I/O/format error.
// model.Model.ReadMesh wraps and re-surfaces any error with call-site context,
// per spec.md §7's I/O error-handling policy.
type Reader interface {
	Read(path string) (*Mesh, error)
}

// Validate rejects anything the engine cannot consume: fewer than 3 nodes,
// no triangles, or connectivity referencing out-of-range nodes. It does not
// duplicate geom.NewMesh's zero-area check, since that requires the actual
// coordinates and is better reported with the engine's own element index.
func Validate(m *Mesh) error {
	if len(m.Coords) < 3 {
		return chk.Err("meshio: mesh has fewer than 3 nodes")
	}
	if len(m.Conn) < 1 {
		return chk.Err("meshio: mesh has no triangles")
	}
	for e, tri := range m.Conn {
		for _, v := range tri {
			if v < 0 || v >= len(m.Coords) {
				return chk.Err("meshio: triangle %d references out-of-range node %d", e, v)
			}
		}
	}
	return nil
}
