// Copyright 2026 The Tokasim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mhd

import (
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/plasma-core/tokasim/geom"
	"github.com/plasma-core/tokasim/profiles"
)

// buildQProfileGeometry manufactures a Geometry whose SafetyFactor is a
// piecewise-linear profile crossing q=1 at rho=0.3: q(0)=0.9, q(0.3)=1.0,
// q(edge)=3.5, the literal sawtooth scenario.
func buildQProfileGeometry(n int) *geom.Geometry {
	g, err := geom.NewUniformCircularGeometry(n, 6.2, 2.0, 5.3)
	if err != nil {
		panic(err)
	}
	q := make([]float32, n)
	for i, rho := range g.RhoCell {
		switch {
		case rho <= 0.3:
			q[i] = 0.9 + (1.0-0.9)*(rho/0.3)
		default:
			q[i] = 1.0 + (3.5-1.0)*((rho-0.3)/(1-0.3))
		}
	}
	return g.WithSafetyFactor(q)
}

func TestNewRegistersSawtooth(tst *testing.T) {

	chk.PrintTitle("NewRegistersSawtooth")

	m, err := New("sawtooth", DefaultConfig())
	if err != nil {
		tst.Errorf("unexpected error: %v", err)
		return
	}
	if m.Name() != "sawtooth" {
		tst.Errorf("expected Name()==sawtooth, got %q", m.Name())
	}
	if _, err := New("elm", DefaultConfig()); err == nil {
		tst.Errorf("expected unregistered mhd model to error")
	}
}

// TestSawtoothTriggersAtQ1Crossing is the literal end-to-end scenario:
// q(0)=0.9, q(0.3)=1.0, q(edge)=3.5 must trigger a crash near rho_q1=0.3.
func TestSawtoothTriggersAtQ1Crossing(tst *testing.T) {

	chk.PrintTitle("SawtoothTriggersAtQ1Crossing")

	g := buildQProfileGeometry(20)
	s := NewSawtooth(DefaultConfig())
	info := s.Trigger(g, 1.0)

	if !info.Triggered {
		tst.Errorf("expected sawtooth to trigger at this q profile")
		return
	}
	diff := info.RhoQ1 - 0.3
	if diff < 0 {
		diff = -diff
	}
	if diff >= 0.06 {
		tst.Errorf("expected RhoQ1 close to 0.3, got %v", info.RhoQ1)
	}
}

func TestSawtoothDoesNotTriggerBelowMinCrashInterval(tst *testing.T) {

	chk.PrintTitle("SawtoothDoesNotTriggerBelowMinCrashInterval")

	g := buildQProfileGeometry(20)
	cfg := DefaultConfig()
	s := NewSawtooth(cfg)
	info := s.Trigger(g, cfg.MinCrashInterval/2)
	if info.Triggered {
		tst.Errorf("expected no trigger when dt is below MinCrashInterval")
	}
}

func TestSawtoothDoesNotTriggerWhenQEverywhereAboveOne(tst *testing.T) {

	chk.PrintTitle("SawtoothDoesNotTriggerWhenQEverywhereAboveOne")

	g, err := geom.NewUniformCircularGeometry(10, 6.2, 2.0, 5.3)
	if err != nil {
		tst.Errorf("unexpected error: %v", err)
		return
	}
	q := make([]float32, 10)
	for i := range q {
		q[i] = 1.5 // q(0) >= 1 everywhere, monotonically stable equilibrium
	}
	g = g.WithSafetyFactor(q)
	s := NewSawtooth(DefaultConfig())
	info := s.Trigger(g, 1.0)
	if info.Triggered {
		tst.Errorf("expected no trigger when q(0) >= 1")
	}
}

// TestRedistributeRaisesCentralSafetyFactor exercises the post-crash
// invariant: relaxing the inner flux gradient raises q near the axis.
func TestRedistributeRaisesCentralSafetyFactor(tst *testing.T) {

	chk.PrintTitle("RedistributeRaisesCentralSafetyFactor")

	n := 20
	g, err := geom.NewUniformCircularGeometry(n, 6.2, 2.0, 5.3)
	if err != nil {
		tst.Errorf("unexpected error: %v", err)
		return
	}

	p := &profiles.CoreProfiles{Ti: make([]float32, n), Te: make([]float32, n), Ne: make([]float32, n), Psi: make([]float32, n)}
	for i, rho := range g.RhoCell {
		p.Ti[i] = 1500 - 800*rho
		p.Te[i] = 1200 - 600*rho
		p.Ne[i] = 1e19 * (1 - 0.3*rho)
		p.Psi[i] = rho // linear flux profile -> constant gradient near axis
	}

	qBefore := geom.ComputeSafetyFactor(p.Psi, g)

	s := NewSawtooth(DefaultConfig())
	out := s.Redistribute(p, g, 0.3)
	qAfter := geom.ComputeSafetyFactor(out.Psi, g)

	if !(qAfter[1] > qBefore[1]) {
		tst.Errorf("expected near-axis q to rise after redistribution, before=%v after=%v", qBefore[1], qAfter[1])
	}
}

func TestRedistributePreservesParticleNumberInsideMixRadius(tst *testing.T) {

	chk.PrintTitle("RedistributePreservesParticleNumberInsideMixRadius")

	n := 20
	g, err := geom.NewUniformCircularGeometry(n, 6.2, 2.0, 5.3)
	if err != nil {
		tst.Errorf("unexpected error: %v", err)
		return
	}
	p := &profiles.CoreProfiles{Ti: make([]float32, n), Te: make([]float32, n), Ne: make([]float32, n), Psi: make([]float32, n)}
	for i, rho := range g.RhoCell {
		p.Ti[i] = 1500 - 800*rho
		p.Te[i] = 1200 - 600*rho
		p.Ne[i] = 1e19 * (1 - 0.3*rho)
		p.Psi[i] = rho
	}

	cfg := DefaultConfig()
	s := NewSawtooth(cfg)
	rhoQ1 := float32(0.3)
	out := s.Redistribute(p, g, rhoQ1)

	rhoMix := cfg.MixRadiusFactor * rhoQ1
	var preN, postN float32
	for i, rho := range g.RhoCell {
		if rho <= rhoMix {
			preN += p.Ne[i] * g.CellVolume[i]
			postN += out.Ne[i] * g.CellVolume[i]
		}
	}
	ratio := float64(postN / preN)
	if ratio < 0.999 || ratio > 1.001 {
		tst.Errorf("expected particle number within the mix radius to be preserved, ratio=%v", ratio)
	}
}
