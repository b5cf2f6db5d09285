// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ana implements analytical reference solutions used to validate
// FillDriver against closed-form results (spec.md §8's concrete scenarios).
package ana

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
)

// ChannelFlow is the 1D isotropic Darcy front-advance solution for straight
// channel infusion: a constant-pressure inlet driving resin through a
// uniform isotropic medium (spec.md §8 scenario 1).
//
//    x_front(t) = sqrt(2 k p t / (mu phi))
type ChannelFlow struct {
	K   float64 // isotropic permeability, m^2
	P   float64 // inlet pressure, Pa
	Mu  float64 // viscosity, Pa.s
	Phi float64 // porosity
}

// FrontPosition returns the analytical 1D front position at time t.
func (o ChannelFlow) FrontPosition(t float64) float64 {
	return math.Sqrt(2 * o.K * o.P * t / (o.Mu * o.Phi))
}

// CheckFrontPosition asserts the simulated front position xFront at time t
// matches the analytical channel-flow solution within relative tolerance
// tol (spec.md §8 scenario 1's 5% band).
func (o ChannelFlow) CheckFrontPosition(tst *testing.T, t, xFront, tol float64) {
	want := o.FrontPosition(t)
	rel := math.Abs(xFront-want) / want
	if rel > tol {
		tst.Errorf("channel-flow front position at t=%g: got %g, want %g (rel err %g > tol %g)", t, xFront, want, rel, tol)
	}
}

// PostChangeRateRatio returns the expected ratio of the front-advance rate
// after an inlet pressure change to the rate before it, for the dynamic
// inlet scenario (spec.md §8 scenario 4): FrontPosition grows as sqrt(p t),
// so at a given elapsed time the advance rate scales with sqrt(p), and the
// expected ratio for a change from p0 to p1 is sqrt(p1/p0).
func PostChangeRateRatio(p0, p1 float64) float64 {
	return math.Sqrt(p1 / p0)
}

// CheckRateRatio asserts an observed post-change/pre-change rate ratio
// matches PostChangeRateRatio within tol.
func CheckRateRatio(tst *testing.T, p0, p1, observedRatio, tol float64) {
	want := PostChangeRateRatio(p0, p1)
	chk.Scalar(tst, "post-change rate ratio", tol, observedRatio, want)
}
