// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package results declares the contract between the engine and the external
// XDMF+HDF5 results writer. Serialising to that format is out of this
// module's scope (spec.md §1); only the field names/semantics and the Writer
// interface the engine calls it through live here.
package results

import "github.com/lizzyfem/lizzy/fill"

// Contractual per-snapshot field names, as handed to the Writer (spec.md §6).
const (
	FieldPressure    = "Pressure"    // per node, Pa
	FieldVelocity    = "Velocity"    // per element, 3-vector, m/s
	FieldFillFactor  = "FillFactor"  // per node, dimensionless
	FieldFreeSurface = "FreeSurface" // per node, 1 if front else 0
)

// CaseResult is everything save_results(sol, case_name) hands to the Writer:
// the full snapshot sequence, each snapshot already carrying the inlet and
// sensor state recorded at its own time (spec.md §3's Solution type; see
// fill.Snapshot.Inlets/Sensors).
type CaseResult struct {
	CaseName  string
	Snapshots []fill.Snapshot
}

// Writer is the external results collaborator. Write must not retain
// references into CaseResult beyond the call (spec.md §5's "snapshots are
// deep copies" guarantee only holds if consumers respect it too).
type Writer interface {
	Write(result *CaseResult) error
}
