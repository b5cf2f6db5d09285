// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package model implements the single user-facing façade (spec.md §6, §9):
// it exposes the scripting surface in call order and delegates to the narrow
// components underneath rather than hiding coupling in a god object.
package model

import (
	"log"

	"github.com/cpmech/gosl/chk"

	"github.com/lizzyfem/lizzy/boundary"
	"github.com/lizzyfem/lizzy/cvmesh"
	"github.com/lizzyfem/lizzy/fill"
	"github.com/lizzyfem/lizzy/geom"
	"github.com/lizzyfem/lizzy/material"
	"github.com/lizzyfem/lizzy/meshio"
	"github.com/lizzyfem/lizzy/results"
	"github.com/lizzyfem/lizzy/sensor"
	"github.com/lizzyfem/lizzy/solver"
)

// Model is the single object scripts drive, in the order documented in
// spec.md §6. Lightweight is an opaque passthrough flag the engine never
// interprets itself (spec.md §9's resolved Open Question).
type Model struct {
	Lightweight bool

	reader meshio.Reader
	writer results.Writer

	mesh     *geom.Mesh
	mats     *material.MaterialStore
	bounds   *boundary.BoundaryStore
	sensors  *sensor.SensorSet
	params   fill.Params
	paramsOk bool

	cv     *cvmesh.CVMesh
	driver *fill.FillDriver

	initialised bool
}

// New creates an empty Model. reader and writer are the external mesh-parser
// and results-writer collaborators (spec.md §1's out-of-scope list); either
// may be nil if the corresponding call is never made.
func New(reader meshio.Reader, writer results.Writer) *Model {
	return &Model{reader: reader, writer: writer}
}

// ReadMesh loads and validates the mesh via the external Reader, then builds
// the immutable geom.Mesh (spec.md §6 step 1).
func (m *Model) ReadMesh(path string) error {
	if m.reader == nil {
		return chk.Err("model: no mesh reader configured")
	}
	raw, err := m.reader.Read(path)
	if err != nil {
		return chk.Err("model: read_mesh(%q): %v", path, err)
	}
	if err := meshio.Validate(raw); err != nil {
		return chk.Err("model: read_mesh(%q): %v", path, err)
	}
	mesh, err := geom.NewMesh(raw.Coords, raw.Conn, raw.NodeSets, raw.ElementSets)
	if err != nil {
		return err
	}
	m.mesh = mesh
	m.mats = material.New(mesh)
	m.bounds = boundary.New(mesh)
	m.sensors = sensor.New(mesh)
	log.Printf("model: read_mesh(%q): nnodes=%d ntriangles=%d nodesets=%d elementsets=%d\n",
		path, len(mesh.Nodes), len(mesh.Triangles), len(mesh.NodeSets), len(mesh.ElementSets))
	return nil
}

// AssignSimulationParameters records mu, write-out cadence, fill tolerance and
// the sensor-triggered-end flag (spec.md §6 step 2).
func (m *Model) AssignSimulationParameters(mu, woDeltaTime, fillTolerance float64, endOnSensorTrigger bool) error {
	if mu <= 0 {
		return chk.Err("model: viscosity must be > 0, got %g", mu)
	}
	if fillTolerance <= 0 || fillTolerance >= 0.5 {
		return chk.Err("model: fill_tolerance must be in (0, 0.5), got %g", fillTolerance)
	}
	m.params = fill.Params{
		Viscosity:                  mu,
		WriteOutDeltaTime:          woDeltaTime,
		FillTolerance:              fillTolerance,
		EndStepWhenSensorTriggered: endOnSensorTrigger,
	}
	m.paramsOk = true
	return nil
}

// CreateMaterial registers a named porous material (spec.md §6 step 3).
func (m *Model) CreateMaterial(name string, k1, k2, k3, porosity, thickness float64) error {
	if m.mats == nil {
		return chk.Err("model: read_mesh must be called before create_material")
	}
	return m.mats.CreateMaterial(name, k1, k2, k3, porosity, thickness)
}

// AssignMaterial assigns a material (and optional rosette) to a named
// element domain (spec.md §6 step 3).
func (m *Model) AssignMaterial(materialName, domainName string, rosette *material.Rosette) error {
	if m.mats == nil {
		return chk.Err("model: read_mesh must be called before assign_material")
	}
	return m.mats.AssignMaterial(materialName, domainName, rosette)
}

// CreateInlet registers a named pressure inlet (spec.md §6 step 4).
func (m *Model) CreateInlet(name string, pressure float64) error {
	if m.bounds == nil {
		return chk.Err("model: read_mesh must be called before create_inlet")
	}
	return m.bounds.CreateInlet(name, pressure)
}

// AssignInlet binds an inlet to a named boundary (spec.md §6 step 4).
func (m *Model) AssignInlet(inletName, boundaryName string) error {
	if m.bounds == nil {
		return chk.Err("model: read_mesh must be called before assign_inlet")
	}
	return m.bounds.AssignInlet(inletName, boundaryName)
}

// CreateSensor registers a point probe (spec.md §6 step 5).
func (m *Model) CreateSensor(name string, position [3]float64) error {
	if m.sensors == nil {
		return chk.Err("model: read_mesh must be called before create_sensor")
	}
	return m.sensors.Create(name, position)
}

// InitialiseSolver freezes the mesh topology, builds the control-volume dual
// mesh, checks every element carries a material assignment, and acquires the
// chosen LinearSolver backend (spec.md §6 step 6, §3's lifecycle rule).
func (m *Model) InitialiseSolver(backend solver.Kind) error {
	if m.mesh == nil {
		return chk.Err("model: read_mesh must be called before initialise_solver")
	}
	if !m.paramsOk {
		return chk.Err("model: assign_simulation_parameters must be called before initialise_solver")
	}
	if err := m.mats.CheckComplete(); err != nil {
		return err
	}
	cv, err := cvmesh.Build(m.mesh)
	if err != nil {
		return err
	}
	m.mesh.Freeze()
	m.bounds.MarkInitialised()

	bk, err := solver.New(backend)
	if err != nil {
		return err
	}
	if a, ok := bk.(interface{ Available() bool }); ok && !a.Available() {
		log.Printf("model: initialise_solver: %s backend unavailable, falling back to %s\n", backend, solver.SparseDirect)
	}
	m.cv = cv
	m.driver = fill.New(m.mesh, cv, m.bounds, m.sensors, m.params, bk)
	m.initialised = true
	log.Printf("model: initialise_solver: backend=%s ncvs=%d ninlets=%d nsensors=%d\n",
		backend, m.cv.NumNodes(), len(m.bounds.All()), len(m.sensors.All()))
	return nil
}

// Solve advances the simulation until every control volume is wet, or a
// runtime/numeric failure occurs. It is solve() from spec.md §6 step 7: an
// unbounded interval is modelled as a very large one, matching
// FillDriver.SolveInterval's "at least one step, clamp to the boundary"
// contract (spec.md §9).
func (m *Model) Solve() error {
	return m.SolveTimeInterval(1e300)
}

// SolveTimeInterval advances the simulation by at most dt seconds. solve_step
// and solve_time_interval are the same operation (spec.md §9's resolved
// Open Question); this method is both.
func (m *Model) SolveTimeInterval(dt float64) error {
	if !m.initialised {
		return chk.Err("model: initialise_solver must be called before solving")
	}
	return m.driver.SolveInterval(dt)
}

// ChangeInletPressure queues an inlet pressure change, applied at the next
// step boundary (spec.md §6 step 8).
func (m *Model) ChangeInletPressure(name string, value float64, mode boundary.PressureMode) error {
	if m.bounds == nil {
		return chk.Err("model: read_mesh must be called before change_inlet_pressure")
	}
	return m.bounds.ChangePressure(name, value, mode)
}

// OpenInlet queues an inlet-open command (spec.md §6 step 8).
func (m *Model) OpenInlet(name string) error {
	if m.bounds == nil {
		return chk.Err("model: read_mesh must be called before open_inlet")
	}
	return m.bounds.Open(name)
}

// CloseInlet queues an inlet-close command (spec.md §6 step 8).
func (m *Model) CloseInlet(name string) error {
	if m.bounds == nil {
		return chk.Err("model: read_mesh must be called before close_inlet")
	}
	return m.bounds.Close(name)
}

// Sensor returns a previously created sensor for inspection.
func (m *Model) Sensor(name string) *sensor.Sensor {
	if m.sensors == nil {
		return nil
	}
	return m.sensors.Get(name)
}

// SaveResults hands the recorded snapshot sequence to the external Writer
// under case_name (spec.md §6 step 9).
func (m *Model) SaveResults(caseName string) error {
	if m.writer == nil {
		return chk.Err("model: no results writer configured")
	}
	if m.driver == nil {
		return chk.Err("model: initialise_solver must be called before save_results")
	}
	result := &results.CaseResult{
		CaseName:  caseName,
		Snapshots: m.driver.Snapshots(),
	}
	if err := m.writer.Write(result); err != nil {
		return chk.Err("model: save_results(%q): %v", caseName, err)
	}
	return nil
}

// Release frees the linear solver backend, safe on every exit path including
// after a failed model (spec.md §5).
func (m *Model) Release() {
	if m.driver != nil {
		m.driver.Release()
	}
}
