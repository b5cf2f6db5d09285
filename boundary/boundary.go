// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package boundary implements named pressure-inlet boundary conditions.
// Mutations after solver init (open, close, change pressure) are queued and
// applied only at step boundaries by fill.FillDriver, per SPEC_FULL.md §5's
// command-queue design note.
package boundary

import (
	"github.com/cpmech/gosl/chk"

	"github.com/lizzyfem/lizzy/geom"
)

// PressureMode selects how ChangeInletPressure interprets its value argument.
type PressureMode int

const (
	Set PressureMode = iota
	Delta
)

// Inlet is a named pressure-boundary, bound to the nodes of a named
// boundary (physical line) in the mesh.
type Inlet struct {
	Name    string
	Nodes   []int
	P       float64 // current pressure, Pa
	P0      float64 // initial/last-assigned pressure, restored by Open
	IsOpen  bool
}

// command is a queued mutation applied at the next step boundary.
type command struct {
	inlet string
	kind  int // 0=open, 1=close, 2=pressure
	value float64
	mode  PressureMode
}

const (
	cmdOpen = iota
	cmdClose
	cmdPressure
)

// BoundaryStore holds all pressure inlets for one simulation.
type BoundaryStore struct {
	mesh     *geom.Mesh
	inlets   map[string]*Inlet
	order    []string // creation order, for deterministic iteration
	boundTo  map[string]string // boundary name -> inlet name, once assigned
	queue    []command
	initDone bool
}

// New creates an empty BoundaryStore bound to mesh's named node-sets.
func New(mesh *geom.Mesh) *BoundaryStore {
	return &BoundaryStore{
		mesh:    mesh,
		inlets:  make(map[string]*Inlet),
		boundTo: make(map[string]string),
	}
}

// CreateInlet registers a new named inlet at initial pressure p.
func (s *BoundaryStore) CreateInlet(name string, p float64) error {
	if _, exists := s.inlets[name]; exists {
		return chk.Err("boundary: inlet %q already exists", name)
	}
	s.inlets[name] = &Inlet{Name: name, P: p, P0: p, IsOpen: true}
	s.order = append(s.order, name)
	return nil
}

// AssignInlet resolves boundaryName to the mesh's node-set of that name and
// binds it to inlet inletName.
func (s *BoundaryStore) AssignInlet(inletName, boundaryName string) error {
	inlet, ok := s.inlets[inletName]
	if !ok {
		return chk.Err("boundary: unknown inlet %q", inletName)
	}
	if _, bound := s.boundTo[boundaryName]; bound {
		return chk.Err("boundary: boundary %q is already bound to an inlet", boundaryName)
	}
	nodes, ok := s.mesh.NodeSets[boundaryName]
	if !ok {
		return chk.Err("boundary: unknown boundary %q", boundaryName)
	}
	inlet.Nodes = append(inlet.Nodes, nodes...)
	s.boundTo[boundaryName] = inletName
	return nil
}

// MarkInitialised records that the solver has been initialised; called once
// by the engine at initialise_solver. Open/Close/ChangePressure only ever
// queue commands; CreateInlet and AssignInlet do not consult this flag and
// still change the store when called afterwards.
func (s *BoundaryStore) MarkInitialised() { s.initDone = true }

// Open queues an open command for inlet name, restoring its pressure to the
// last value assigned via ChangePressure (or creation), per spec.md §4.4.
func (s *BoundaryStore) Open(name string) error {
	if _, ok := s.inlets[name]; !ok {
		return chk.Err("boundary: unknown inlet %q", name)
	}
	s.queue = append(s.queue, command{inlet: name, kind: cmdOpen})
	return nil
}

// Close queues a close command for inlet name.
func (s *BoundaryStore) Close(name string) error {
	if _, ok := s.inlets[name]; !ok {
		return chk.Err("boundary: unknown inlet %q", name)
	}
	s.queue = append(s.queue, command{inlet: name, kind: cmdClose})
	return nil
}

// ChangePressure queues a pressure change for inlet name.
func (s *BoundaryStore) ChangePressure(name string, value float64, mode PressureMode) error {
	if _, ok := s.inlets[name]; !ok {
		return chk.Err("boundary: unknown inlet %q", name)
	}
	s.queue = append(s.queue, command{inlet: name, kind: cmdPressure, value: value, mode: mode})
	return nil
}

// ApplyQueued drains and applies all queued commands; called by
// fill.FillDriver at the top of each step, never mid-step (SPEC_FULL.md §5).
func (s *BoundaryStore) ApplyQueued() {
	for _, c := range s.queue {
		inlet := s.inlets[c.inlet]
		switch c.kind {
		case cmdOpen:
			inlet.IsOpen = true
			inlet.P = inlet.P0
		case cmdClose:
			inlet.IsOpen = false
		case cmdPressure:
			if c.mode == Set {
				inlet.P = c.value
			} else {
				inlet.P += c.value
			}
			inlet.P0 = inlet.P
		}
	}
	s.queue = s.queue[:0]
}

// OpenInlets returns the inlets currently open, in creation order.
func (s *BoundaryStore) OpenInlets() []*Inlet {
	var out []*Inlet
	for _, name := range s.order {
		if in := s.inlets[name]; in.IsOpen {
			out = append(out, in)
		}
	}
	return out
}

// AnyOpen reports whether at least one inlet is open.
func (s *BoundaryStore) AnyOpen() bool {
	for _, name := range s.order {
		if s.inlets[name].IsOpen {
			return true
		}
	}
	return false
}

// Get returns a previously created inlet, or nil.
func (s *BoundaryStore) Get(name string) *Inlet { return s.inlets[name] }

// All returns all inlets in creation order.
func (s *BoundaryStore) All() []*Inlet {
	out := make([]*Inlet, len(s.order))
	for i, name := range s.order {
		out[i] = s.inlets[name]
	}
	return out
}

// DirichletNodes returns node -> pressure for every node belonging to an
// open inlet. AssignInlet rejects binding the same boundary name twice, but
// two different boundaries that share a node may be bound to different
// inlets; such a node takes the pressure of the open inlet created last.
func (s *BoundaryStore) DirichletNodes() map[int]float64 {
	out := make(map[int]float64)
	for _, name := range s.order {
		in := s.inlets[name]
		if !in.IsOpen {
			continue
		}
		for _, n := range in.Nodes {
			out[n] = in.P
		}
	}
	return out
}
