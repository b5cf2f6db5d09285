// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fill implements FillDriver, the event-driven time-stepping
// scheduler that ties LinearAssembler, LinearSolver, CVMesh and BoundaryStore
// together into the quasi-static infusion simulation (spec.md §4.8).
package fill

import (
	"log"
	"math"

	"github.com/cpmech/gosl/chk"

	"github.com/lizzyfem/lizzy/assembler"
	"github.com/lizzyfem/lizzy/boundary"
	"github.com/lizzyfem/lizzy/cvmesh"
	"github.com/lizzyfem/lizzy/geom"
	"github.com/lizzyfem/lizzy/sensor"
	"github.com/lizzyfem/lizzy/solver"
)

// CVState is the dry/front/wet classification of a control volume.
type CVState int

const (
	Dry CVState = iota
	Front
	Wet
)

// Params collects the simulation parameters fixed at
// assign_simulation_parameters time (spec.md §3).
type Params struct {
	Viscosity                 float64 // mu, Pa.s, > 0
	WriteOutDeltaTime         float64 // s; -1 means every step
	FillTolerance             float64 // epsilon_fill in (0, 0.5)
	EndStepWhenSensorTriggered bool
}

// InletState is the recorded open/closed/pressure state of one inlet at the
// time a Snapshot was taken.
type InletState struct {
	Name   string
	P      float64
	IsOpen bool
}

// SensorReading is the recorded sample of one sensor at the time a Snapshot
// was taken.
type SensorReading struct {
	Name      string
	P         float64
	V         [3]float64
	F         float64
	Triggered bool
}

// Snapshot is one immutable entry of the solution sequence (spec.md §3),
// including the inlet and sensor state at that same instant rather than
// whatever they happen to read later at save_results time.
type Snapshot struct {
	Time        float64
	Pressure    []float64
	Velocity    [][3]float64
	FillFactor  []float64
	FreeSurface []float64 // 1 for front CVs, 0 otherwise
	Inlets      []InletState
	Sensors     []SensorReading
}

// FillDriver owns the simulation clock, fill-factor vector and CV state, and
// orchestrates the assemble -> solve -> advect loop. It is built once at
// initialise_solver and is not safe for concurrent use (spec.md §5: the
// engine is single-threaded cooperative from the caller's perspective).
type FillDriver struct {
	mesh    *geom.Mesh
	cv      *cvmesh.CVMesh
	bounds  *boundary.BoundaryStore
	sensors *sensor.SensorSet
	asm     *assembler.LinearAssembler
	backend solver.Backend
	params  Params

	t     float64
	f     []float64
	state []CVState

	lastWriteOut float64
	failed       bool
	snapshots    []Snapshot
}

// New builds a FillDriver. mesh and cv must already be frozen/built; bounds
// and sensors must reflect every inlet/sensor the user will ever create
// (they are only mutated afterwards via queued commands).
func New(mesh *geom.Mesh, cv *cvmesh.CVMesh, bounds *boundary.BoundaryStore, sensors *sensor.SensorSet, params Params, backend solver.Backend) *FillDriver {
	n := len(mesh.Nodes)
	d := &FillDriver{
		mesh:    mesh,
		cv:      cv,
		bounds:  bounds,
		sensors: sensors,
		asm:     assembler.New(mesh, cv, params.Viscosity),
		backend: backend,
		params:  params,
		f:       make([]float64, n),
		state:   make([]CVState, n),
	}
	for in := range bounds.DirichletNodes() {
		d.f[in] = 1
		d.state[in] = Wet
	}
	return d
}

// Failed reports whether a prior step left the driver in a terminal error
// state; every operation besides Snapshots/Release then fails fast
// (spec.md §7's propagation policy).
func (d *FillDriver) Failed() bool { return d.failed }

// Snapshots returns the solution sequence recorded so far. The returned
// slice and its contents are not shared with the driver's internal state;
// callers may not mutate the driver through them (spec.md §5).
func (d *FillDriver) Snapshots() []Snapshot {
	out := make([]Snapshot, len(d.snapshots))
	for k, s := range d.snapshots {
		out[k] = s
		out[k].Pressure = append([]float64(nil), s.Pressure...)
		out[k].Velocity = append([][3]float64(nil), s.Velocity...)
		out[k].FillFactor = append([]float64(nil), s.FillFactor...)
		out[k].FreeSurface = append([]float64(nil), s.FreeSurface...)
		out[k].Inlets = append([]InletState(nil), s.Inlets...)
		out[k].Sensors = append([]SensorReading(nil), s.Sensors...)
	}
	return out
}

// Release frees the linear solver backend. Safe to call multiple times and
// after a failed driver (spec.md §5's resource-lifetime guarantee).
func (d *FillDriver) Release() {
	if d.backend != nil {
		d.backend.Release()
	}
}

// allWet reports whether every CV has reached the wet state.
func (d *FillDriver) allWet() bool {
	for _, s := range d.state {
		if s != Wet {
			return false
		}
	}
	return true
}

// SolveInterval advances the simulation by at most dt seconds, taking as
// many internal steps as needed. solve_step and solve_time_interval from
// spec.md §6 are both this one operation: a zero-length or single-step
// interval still takes at least one step, with the last step's dt clamped
// down to the interval boundary (spec.md §9's resolved Open Question).
func (d *FillDriver) SolveInterval(dt float64) error {
	if d.failed {
		return chk.Err("fill: driver is in a failed state")
	}
	if dt < 0 {
		return chk.Err("fill: negative interval %g", dt)
	}
	end := d.t + dt
	first := true
	for d.t < end || first {
		first = false
		if d.allWet() {
			return nil
		}
		more, err := d.step(end)
		if err != nil {
			d.failed = true
			return err
		}
		if !more {
			return nil
		}
		if d.params.EndStepWhenSensorTriggered && d.sensors != nil && d.sensors.AnyTriggered() {
			return nil
		}
	}
	return nil
}

// step performs one iteration of the 10-step algorithm of spec.md §4.8.
// intervalEnd is the caller's requested stopping time, merged into the
// event schedule at step 8. It returns more=false when every CV is already
// wet at the step-1 guard (the caller should stop looping).
func (d *FillDriver) step(intervalEnd float64) (more bool, err error) {
	d.bounds.ApplyQueued()

	// 1. guard
	if d.allWet() {
		return false, nil
	}
	if !d.bounds.AnyOpen() {
		return false, chk.Err("fill: no open inlet")
	}

	// 2. assemble + solve
	dirichlet := d.dirichletSet()
	n, entries, b := d.asm.Assemble(dirichlet)
	if err := d.backend.Factorize(n, entries); err != nil {
		return false, chk.Err("fill: singular system: %v", err)
	}
	p, err := d.backend.Solve(b)
	if err != nil {
		return false, chk.Err("fill: solve failed: %v", err)
	}

	// 3. element velocities
	velocity := d.elementVelocities(p)

	// 4-5. fluxes and fill-rate per CV
	fdot := d.fillRates(velocity)

	// 6. adaptive dt (CFL)
	dt := d.cflDt(fdot)
	if dt <= 0 {
		return false, chk.Err("fill: non-positive dt computed (%g)", dt)
	}

	// 8. event merging: clamp dt to the next write-out and the caller's
	// interval end.
	dt = d.mergeEvents(dt, intervalEnd)
	if dt <= 0 {
		return false, chk.Err("fill: negative dt after event merging (%g)", dt)
	}

	// 7. advance fill factors
	if err := d.advance(dt, fdot); err != nil {
		return false, err
	}

	// 9. sample sensors
	d.t += dt // 10. advance clock (sampled at the new time, per spec.md §5)
	if d.sensors != nil {
		d.sensors.Sample(p, d.f, velocity, d.t, d.params.FillTolerance)
	}

	if d.params.WriteOutDeltaTime < 0 || d.t-d.lastWriteOut >= d.params.WriteOutDeltaTime-1e-12 {
		d.recordSnapshot(p, velocity)
		d.lastWriteOut = d.t
	}

	log.Printf("fill: step accepted: t=%g dt=%g nfixed=%d\n", d.t, dt, len(dirichlet))

	return true, nil
}

// dirichletSet builds the Dirichlet rows from the currently-open inlets and
// every CV that is not yet wet: front CVs and dry CVs are both held at p = 0,
// which keeps dry CVs out of the active system (spec.md §4.5).
func (d *FillDriver) dirichletSet() []assembler.Dirichlet {
	var out []assembler.Dirichlet
	seen := make(map[int]bool)
	for node, p := range d.bounds.DirichletNodes() {
		out = append(out, assembler.Dirichlet{Node: node, P: p})
		seen[node] = true
	}
	for i, s := range d.state {
		if s != Wet && !seen[i] {
			out = append(out, assembler.Dirichlet{Node: i, P: 0})
		}
	}
	return out
}

// elementVelocities computes v_e = -(1/mu) K_e grad(p_e) per element
// (spec.md §4.8 step 3). grad(p_e) is built purely from in-plane gradients,
// so it has no component along the element's normal; since Ke's rotated
// frame always sets e3 equal to that same normal, v_e stays in-plane
// automatically without an explicit projection step.
func (d *FillDriver) elementVelocities(p []float64) [][3]float64 {
	out := make([][3]float64, len(d.mesh.Triangles))
	mu := d.params.Viscosity
	for ei := range d.mesh.Triangles {
		t := &d.mesh.Triangles[ei]
		grad := t.InPlaneGradient()
		var gt1, gt2 float64
		for a := 0; a < 3; a++ {
			gt1 += grad[a][0] * p[t.Verts[a]]
			gt2 += grad[a][1] * p[t.Verts[a]]
		}
		var kgt1, kgt2 float64
		for s := 0; s < 2; s++ {
			gv := [2]float64{gt1, gt2}
			kgt1 += t.Ktan[0][s] * gv[s]
			kgt2 += t.Ktan[1][s] * gv[s]
		}
		coef := -1.0 / mu
		vt1 := coef * kgt1
		vt2 := coef * kgt2
		out[ei] = [3]float64{
			vt1*t.Tangent1[0] + vt2*t.Tangent2[0],
			vt1*t.Tangent1[1] + vt2*t.Tangent2[1],
			vt1*t.Tangent1[2] + vt2*t.Tangent2[2],
		}
	}
	return out
}

// fillRates computes the fill rate fdot_i for every CV by summing upwind
// fluxes over each incident edge (spec.md §4.8 steps 4-5). Only the donor
// side of an edge -- the CV the velocity points away from -- contributes,
// and only when that donor already has resin (f>0); this is what keeps the
// scheme conservative at the moving front.
func (d *FillDriver) fillRates(velocity [][3]float64) (fdot []float64) {
	fdot = make([]float64, len(d.f))

	for _, e := range d.cv.Edges() {
		i, j := e.I, e.J
		elems, vecs, ok := d.cv.Contributions(i, j)
		if !ok {
			continue
		}
		var qij float64 // net flux i -> j, summed over incident elements
		for k, elem := range elems {
			v := velocity[elem]
			a := vecs[k]
			qij += v[0]*a[0] + v[1]*a[1] + v[2]*a[2]
		}
		qijEff, qjiEff := 0.0, 0.0
		if qij > 0 && d.f[i] > 0 {
			qijEff = qij
		} else if qij < 0 && d.f[j] > 0 {
			qjiEff = -qij
		}
		if d.cv.Volume[i] > 0 {
			fdot[i] += math.Max(0, qjiEff)/d.cv.Volume[i] - math.Max(0, qijEff)/d.cv.Volume[i]
		}
		if d.cv.Volume[j] > 0 {
			fdot[j] += math.Max(0, qijEff)/d.cv.Volume[j] - math.Max(0, qjiEff)/d.cv.Volume[j]
		}
	}
	return fdot
}

// cflDt computes the CFL-bounded adaptive step (spec.md §4.8 step 6): the
// tightest bound, over every front/dry CV with positive net inflow, of the
// time to fill that CV to f=1 at its current rate.
func (d *FillDriver) cflDt(fdot []float64) float64 {
	const alpha = 1.0
	dt := math.MaxFloat64
	found := false
	for i, s := range d.state {
		if s == Wet || fdot[i] <= 0 {
			continue
		}
		// fdot is already per unit CV volume, so (1-f)/fdot is the time to
		// fill, i.e. (1-f) V / net inflow.
		candidate := alpha * (1 - d.f[i]) / fdot[i]
		if candidate < dt {
			dt = candidate
			found = true
		}
	}
	if !found {
		return 0
	}
	return dt
}

// mergeEvents clamps dt to the next write-out time and the caller's
// requested interval end (spec.md §4.8 step 8). Queued inlet changes carry
// no time of their own: ApplyQueued applies them at the top of the next
// step, so no clamp is made for them here.
func (d *FillDriver) mergeEvents(dt, intervalEnd float64) float64 {
	if intervalEnd > d.t && d.t+dt > intervalEnd {
		dt = intervalEnd - d.t
	}
	if d.params.WriteOutDeltaTime > 0 {
		nextWriteOut := d.lastWriteOut + d.params.WriteOutDeltaTime
		if nextWriteOut > d.t && d.t+dt > nextWriteOut {
			dt = nextWriteOut - d.t
		}
	}
	return dt
}

// advance applies f <- clip(f + dt*fdot, 0, 1) to every CV that is not yet
// wet (wet CVs keep their fill factor), updates CV state transitions, and
// rejects any per-step monotonicity violation (spec.md §4.8 step 7, §7's
// runtime-invariant failure kind).
func (d *FillDriver) advance(dt float64, fdot []float64) error {
	for i := range d.f {
		if d.state[i] == Wet {
			continue
		}
		next := d.f[i] + dt*fdot[i]
		if next < d.f[i]-1e-12 {
			return chk.Err("fill: monotonicity violation at CV %d: %g -> %g", i, d.f[i], next)
		}
		if next < 0 {
			next = 0
		}
		if next > 1 {
			next = 1
		}
		d.f[i] = next
		if d.f[i] >= 1-d.params.FillTolerance {
			d.state[i] = Wet
		} else if d.f[i] > 0 {
			d.state[i] = Front
		}
	}
	return nil
}

func (d *FillDriver) recordSnapshot(p []float64, velocity [][3]float64) {
	snap := Snapshot{
		Time:        d.t,
		Pressure:    append([]float64(nil), p...),
		Velocity:    append([][3]float64(nil), velocity...),
		FillFactor:  append([]float64(nil), d.f...),
		FreeSurface: make([]float64, len(d.f)),
	}
	for i, s := range d.state {
		if s == Front {
			snap.FreeSurface[i] = 1
		}
	}
	for _, in := range d.bounds.All() {
		snap.Inlets = append(snap.Inlets, InletState{Name: in.Name, P: in.P, IsOpen: in.IsOpen})
	}
	if d.sensors != nil {
		for _, sn := range d.sensors.All() {
			snap.Sensors = append(snap.Sensors, SensorReading{
				Name: sn.Name, P: sn.P, V: sn.V, F: sn.F, Triggered: sn.Triggered,
			})
		}
	}
	d.snapshots = append(d.snapshots, snap)
}
