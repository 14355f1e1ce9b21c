// Copyright 2026 The Tokasim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package conservation

import (
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/plasma-core/tokasim/geom"
	"github.com/plasma-core/tokasim/profiles"
)

func sampleState(n int, neVal float32) (*profiles.CoreProfiles, *geom.Geometry) {
	g, err := geom.NewUniformCircularGeometry(n, 6.2, 2.0, 5.3)
	if err != nil {
		panic(err)
	}
	p := &profiles.CoreProfiles{Ti: make([]float32, n), Te: make([]float32, n), Ne: make([]float32, n), Psi: make([]float32, n)}
	for i := 0; i < n; i++ {
		p.Ti[i], p.Te[i], p.Ne[i] = 1000, 900, neVal
	}
	return p, g
}

func TestNewRegisteredLaws(tst *testing.T) {

	chk.PrintTitle("NewRegisteredLaws")

	for _, name := range []string{"particle", "energy", "flux"} {
		law, err := New(name)
		if err != nil {
			tst.Errorf("expected %q to be registered, got %v", name, err)
			continue
		}
		if law.Name() != name {
			tst.Errorf("expected Name()==%q, got %q", name, law.Name())
		}
	}
	if _, err := New("nonexistent"); err == nil {
		tst.Errorf("expected unregistered law name to error")
	}
}

func TestCorrectionFactorClampRange(tst *testing.T) {

	chk.PrintTitle("CorrectionFactorClampRange")

	chk.Scalar(tst, "no drift", 1e-9, float64(CorrectionFactor(100, 100)), 1.0)
	chk.Scalar(tst, "clamp high", 1e-9, float64(CorrectionFactor(10, 100)), float64(float32(1.2)))
	chk.Scalar(tst, "clamp low", 1e-9, float64(CorrectionFactor(1000, 100)), float64(float32(0.8)))
	chk.Scalar(tst, "non-positive current falls back to 1.0", 1e-9, float64(CorrectionFactor(0, 100)), 1.0)
}

func TestParticleNumberRoundTripScaling(tst *testing.T) {

	chk.PrintTitle("ParticleNumberRoundTripScaling")

	p, g := sampleState(10, 1e19)
	law := ParticleNumber{}
	n0 := law.ComputeQuantity(p, g)

	scaled := p.Clone()
	for i := range scaled.Ne {
		scaled.Ne[i] *= 1.1
	}
	n1 := law.ComputeQuantity(scaled, g)
	factor := CorrectionFactor(n1, n0)
	corrected := law.ApplyCorrection(scaled, factor)
	nCorrected := law.ComputeQuantity(corrected, g)

	ratio := float64(nCorrected / n0)
	if ratio < 0.999 || ratio > 1.001 {
		tst.Errorf("expected corrected particle number to match reference within 0.1%%, ratio=%v", ratio)
	}
}

func TestEnforcerShouldEnforceInterval(tst *testing.T) {

	chk.PrintTitle("EnforcerShouldEnforceInterval")

	p, g := sampleState(5, 1e19)
	e := NewEnforcer([]Law{ParticleNumber{}}, p, g, 100)

	if e.ShouldEnforce(0) {
		tst.Errorf("step 0 must never trigger enforcement")
	}
	if !e.ShouldEnforce(100) {
		tst.Errorf("step 100 must trigger with interval=100")
	}
	if e.ShouldEnforce(150) {
		tst.Errorf("step 150 must not trigger with interval=100")
	}
}

// TestEnforceRestoresParticleNumber is the literal end-to-end scenario:
// a drifted density profile gets corrected back within tolerance at the
// configured interval.
func TestEnforceRestoresParticleNumber(tst *testing.T) {

	chk.PrintTitle("EnforceRestoresParticleNumber")

	initial, g := sampleState(25, 1e19)
	e := NewEnforcer([]Law{ParticleNumber{}}, initial, g, 100)

	drifted := initial.Clone()
	for i := range drifted.Ne {
		drifted.Ne[i] *= 1.02 // 2% drift, above the 0.5% tolerance
	}

	corrected, results, err := e.Enforce(drifted, g, 100, 0.01)
	if err != nil {
		tst.Errorf("unexpected error: %v", err)
		return
	}
	chk.IntAssert(len(results), 1)
	if !results[0].Corrected {
		tst.Errorf("expected correction to trigger at 2%% drift")
		return
	}

	law := ParticleNumber{}
	n0 := law.ComputeQuantity(initial, g)
	nCorr := law.ComputeQuantity(corrected, g)
	residual := float64((nCorr - n0) / n0)
	if residual < 0 {
		residual = -residual
	}
	if residual >= 0.005 {
		tst.Errorf("expected corrected particle number within 0.5%% of reference, residual=%v", residual)
	}
}

func TestEnforceIsIdempotentOnCorrectedProfile(tst *testing.T) {

	chk.PrintTitle("EnforceIsIdempotentOnCorrectedProfile")

	initial, g := sampleState(10, 1e19)
	e := NewEnforcer([]Law{ParticleNumber{}}, initial, g, 10)

	drifted := initial.Clone()
	for i := range drifted.Ne {
		drifted.Ne[i] *= 1.05
	}
	once, _, err := e.Enforce(drifted, g, 10, 0)
	if err != nil {
		tst.Errorf("unexpected error: %v", err)
		return
	}
	twice, results2, err := e.Enforce(once, g, 20, 0)
	if err != nil {
		tst.Errorf("unexpected error: %v", err)
		return
	}
	if results2[0].Corrected {
		tst.Errorf("expected already-corrected profile to not trigger a second correction")
	}
	law := ParticleNumber{}
	chk.Scalar(tst, "idempotent re-enforcement", 1e-6, float64(law.ComputeQuantity(twice, g)), float64(law.ComputeQuantity(once, g)))
}

func TestEnforceSkipsInvalidProfiles(tst *testing.T) {

	chk.PrintTitle("EnforceSkipsInvalidProfiles")

	initial, g := sampleState(5, 1e19)
	e := NewEnforcer([]Law{ParticleNumber{}}, initial, g, 1)

	invalid := initial.Clone()
	invalid.Ne[0] = -1 // non-positive density makes the profile invalid

	out, results, err := e.Enforce(invalid, g, 1, 0)
	if err != nil {
		tst.Errorf("unexpected error: %v", err)
		return
	}
	if results[0].Corrected {
		tst.Errorf("expected no correction attempted against an invalid profile")
	}
	if out != invalid {
		tst.Errorf("expected invalid profiles to be returned unchanged")
	}
}
