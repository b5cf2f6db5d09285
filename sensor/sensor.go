// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sensor implements point probes that resolve to a host triangle at
// init and interpolate pressure, velocity and fill-factor from that
// triangle's nodes at every step, latching the time at which they first see
// the resin front (spec.md §3, §4.7).
package sensor

import (
	"math"

	"github.com/cpmech/gosl/chk"

	"github.com/lizzyfem/lizzy/geom"
)

// Sensor is one point probe, located once against the frozen mesh.
type Sensor struct {
	Name     string
	Position [3]float64

	host    int        // element index of the host triangle
	weights [3]float64 // barycentric weights w.r.t. host's three vertices

	Triggered bool
	TriggerTime float64

	P float64
	V [3]float64
	F float64
}

// SensorSet owns all sensors for one simulation.
type SensorSet struct {
	mesh    *geom.Mesh
	sensors []*Sensor
	byName  map[string]int
}

// New creates an empty SensorSet.
func New(mesh *geom.Mesh) *SensorSet {
	return &SensorSet{mesh: mesh, byName: make(map[string]int)}
}

// Create registers and locates a new sensor at position p. Locating means:
// find the triangle whose plane-projected containment test holds (barycentric
// weights all within [-tol, 1+tol]); if none holds, snap to the triangle with
// the nearest centroid (spec.md §4.7).
func (s *SensorSet) Create(name string, p [3]float64) error {
	if _, exists := s.byName[name]; exists {
		return chk.Err("sensor: sensor %q already exists", name)
	}
	host, w, err := locate(s.mesh, p)
	if err != nil {
		return err
	}
	sn := &Sensor{Name: name, Position: p, host: host, weights: w}
	s.byName[name] = len(s.sensors)
	s.sensors = append(s.sensors, sn)
	return nil
}

// All returns all sensors in creation order.
func (s *SensorSet) All() []*Sensor { return s.sensors }

// Get returns a previously created sensor, or nil.
func (s *SensorSet) Get(name string) *Sensor {
	if idx, ok := s.byName[name]; ok {
		return s.sensors[idx]
	}
	return nil
}

// Sample interpolates p, v, f at every sensor from its host triangle's three
// nodes using the cached barycentric weights, and latches Triggered/
// TriggerTime the first time the interpolated fill factor crosses
// 1-fillTolerance. t is the simulation time at the end of the step being
// sampled (spec.md §4.8's "sensor trigger timestamps are the time at the end
// of the step in which the threshold was crossed").
func (s *SensorSet) Sample(p []float64, f []float64, elemVelocity [][3]float64, t, fillTolerance float64) {
	for _, sn := range s.sensors {
		tri := &s.mesh.Triangles[sn.host]
		var pv, fv float64
		for k, node := range tri.Verts {
			pv += sn.weights[k] * p[node]
			fv += sn.weights[k] * f[node]
		}
		sn.P = pv
		sn.F = fv
		sn.V = elemVelocity[sn.host]
		if !sn.Triggered && fv >= 1-fillTolerance {
			sn.Triggered = true
			sn.TriggerTime = t
		}
	}
}

// AnyTriggered reports whether at least one sensor has latched.
func (s *SensorSet) AnyTriggered() bool {
	for _, sn := range s.sensors {
		if sn.Triggered {
			return true
		}
	}
	return false
}

// locate finds the host triangle and barycentric weights for point p.
func locate(mesh *geom.Mesh, p [3]float64) (host int, w [3]float64, err error) {
	bestIdx := -1
	var bestDist float64
	for ti := range mesh.Triangles {
		t := &mesh.Triangles[ti]
		bw, ok := barycentric(mesh, t, p)
		if ok {
			return ti, bw, nil
		}
		d := distSq(p, t.Centroid)
		if bestIdx < 0 || d < bestDist {
			bestIdx, bestDist = ti, d
		}
	}
	if bestIdx < 0 {
		return 0, w, chk.Err("sensor: mesh has no triangles to host a sensor")
	}
	t := &mesh.Triangles[bestIdx]
	bw, _ := barycentric(mesh, t, p)
	return bestIdx, bw, nil
}

// barycentric computes the plane-projected barycentric weights of p w.r.t.
// triangle t, and reports whether p (projected onto the element's plane)
// lies within it (weights in [-1e-9, 1+1e-9]).
func barycentric(mesh *geom.Mesh, t *geom.Triangle, p [3]float64) (w [3]float64, inside bool) {
	v0 := mesh.Nodes[t.Verts[0]].X
	v1 := mesh.Nodes[t.Verts[1]].X
	v2 := mesh.Nodes[t.Verts[2]].X

	e1 := sub(v1, v0)
	e2 := sub(v2, v0)
	d := sub(p, v0)

	d11 := dot(e1, e1)
	d12 := dot(e1, e2)
	d22 := dot(e2, e2)
	d1p := dot(e1, d)
	d2p := dot(e2, d)

	denom := d11*d22 - d12*d12
	if math.Abs(denom) < 1e-300 {
		return w, false
	}
	v := (d22*d1p - d12*d2p) / denom
	u := (d11*d2p - d12*d1p) / denom
	w0 := 1 - u - v

	w = [3]float64{w0, u, v}
	const tol = 1e-9
	inside = w0 >= -tol && u >= -tol && v >= -tol
	return w, inside
}

func sub(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}
func dot(a, b [3]float64) float64 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }
func distSq(a, b [3]float64) float64 {
	d := sub(a, b)
	return dot(d, d)
}
