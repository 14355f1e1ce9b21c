// Copyright 2026 The Tokasim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mhd

import (
	"github.com/plasma-core/tokasim/geom"
	"github.com/plasma-core/tokasim/profiles"
)

// Config holds the sawtooth tunables; defaults match spec.md §4.8.
type Config struct {
	MinCrashInterval float32 // default 0.01s (10ms)
	RhoMin           float32 // default 0.2
	ShearCrit        float32 // default 0.2
	MixRadiusFactor  float32 // default 1.5, rho_mix = factor * rho_q1
	FlatteningFactor float32 // default 1.01
	FluxScaleFactor  float32 // default 0.8
}

// DefaultConfig returns the spec.md §4.8 defaults.
func DefaultConfig() Config {
	return Config{
		MinCrashInterval: 0.01,
		RhoMin:           0.2,
		ShearCrit:        0.2,
		MixRadiusFactor:  1.5,
		FlatteningFactor: 1.01,
		FluxScaleFactor:  0.8,
	}
}

// Sawtooth implements the simplified Porcelli trigger and Kadomtsev-style
// redistribution (spec.md §4.8).
type Sawtooth struct {
	cfg Config
}

// NewSawtooth returns a Sawtooth model with cfg; zero-value fields in cfg
// fall back to DefaultConfig.
func NewSawtooth(cfg Config) *Sawtooth {
	def := DefaultConfig()
	if cfg.MinCrashInterval == 0 {
		cfg.MinCrashInterval = def.MinCrashInterval
	}
	if cfg.RhoMin == 0 {
		cfg.RhoMin = def.RhoMin
	}
	if cfg.ShearCrit == 0 {
		cfg.ShearCrit = def.ShearCrit
	}
	if cfg.MixRadiusFactor == 0 {
		cfg.MixRadiusFactor = def.MixRadiusFactor
	}
	if cfg.FlatteningFactor == 0 {
		cfg.FlatteningFactor = def.FlatteningFactor
	}
	if cfg.FluxScaleFactor == 0 {
		cfg.FluxScaleFactor = def.FluxScaleFactor
	}
	return &Sawtooth{cfg: cfg}
}

func (s *Sawtooth) Name() string { return "sawtooth" }

// Trigger runs the five ordered checks from spec.md §4.8 with early exit
// on any failure.
func (s *Sawtooth) Trigger(g *geom.Geometry, dt float32) TriggerInfo {
	if dt < s.cfg.MinCrashInterval {
		return TriggerInfo{}
	}
	q := g.SafetyFactor
	if len(q) == 0 || q[0] >= 1 {
		return TriggerInfo{}
	}
	idx := -1
	for i := 0; i < len(q)-1; i++ {
		if q[i] < 1 && q[i+1] >= 1 {
			idx = i
			break
		}
	}
	if idx < 0 {
		return TriggerInfo{}
	}
	rho0, rho1 := g.RhoCell[idx], g.RhoCell[idx+1]
	q0, q1 := q[idx], q[idx+1]
	frac := float32(0)
	if q1 != q0 {
		frac = (1 - q0) / (q1 - q0)
	}
	rhoQ1 := rho0 + frac*(rho1-rho0)

	r0, r1 := g.RCell[idx], g.RCell[idx+1]
	var dqdr float32
	if r1 != r0 {
		dqdr = (q1 - q0) / (r1 - r0)
	}
	rAtQ1 := rhoQ1 * g.A
	shearQ1 := rAtQ1 * dqdr // s = (r/q) dq/dr, q=1 at the crossing

	if rhoQ1 <= s.cfg.RhoMin {
		return TriggerInfo{RhoQ1: rhoQ1, ShearQ1: shearQ1}
	}
	if shearQ1 <= s.cfg.ShearCrit {
		return TriggerInfo{RhoQ1: rhoQ1, ShearQ1: shearQ1}
	}
	return TriggerInfo{Triggered: true, RhoQ1: rhoQ1, ShearQ1: shearQ1}
}

// MaybeTrigger implements Model: it runs the trigger, and if it fires,
// applies Redistribute.
func (s *Sawtooth) MaybeTrigger(p *profiles.CoreProfiles, g *geom.Geometry, dt float32) (*profiles.CoreProfiles, TriggerInfo, error) {
	info := s.Trigger(g, dt)
	if !info.Triggered {
		return p, info, nil
	}
	out := s.Redistribute(p, g, info.RhoQ1)
	return out, info, nil
}

// Redistribute implements the Kadomtsev-style redistribution (spec.md
// §4.8): flatten Ti/Te/ne inside rho_q1 with a linear ramp out to
// rho_mix, rescale ne to preserve particles, rescale Ti/Te to preserve
// thermal energy using the corrected ne, then relax the inner flux
// gradient so q(0) rises above 1.
func (s *Sawtooth) Redistribute(p *profiles.CoreProfiles, g *geom.Geometry, rhoQ1 float32) *profiles.CoreProfiles {
	rhoMix := s.cfg.MixRadiusFactor * rhoQ1
	out := p.Clone()

	tiAtQ1 := interpAt(g.RhoCell, p.Ti, rhoQ1)
	teAtQ1 := interpAt(g.RhoCell, p.Te, rhoQ1)
	neAtQ1 := interpAt(g.RhoCell, p.Ne, rhoQ1)

	out.Ti = flattenProfile(p.Ti, g.RhoCell, rhoQ1, rhoMix, s.cfg.FlatteningFactor*tiAtQ1)
	out.Te = flattenProfile(p.Te, g.RhoCell, rhoQ1, rhoMix, s.cfg.FlatteningFactor*teAtQ1)
	out.Ne = flattenProfile(p.Ne, g.RhoCell, rhoQ1, rhoMix, s.cfg.FlatteningFactor*neAtQ1)

	regionMask := regionWithin(g.RhoCell, rhoMix)
	preN := regionIntegral(p.Ne, g.CellVolume, regionMask)
	postN := regionIntegral(out.Ne, g.CellVolume, regionMask)
	nFactor := safeRatio(preN, postN)
	for i, in := range regionMask {
		if in {
			out.Ne[i] *= nFactor
		}
	}

	preE := regionEnergy(p.Ti, p.Te, p.Ne, g.CellVolume, regionMask)
	postE := regionEnergy(out.Ti, out.Te, out.Ne, g.CellVolume, regionMask)
	eFactor := safeRatio(preE, postE)
	for i, in := range regionMask {
		if in {
			out.Ti[i] *= eFactor
			out.Te[i] *= eFactor
		}
	}

	out.Psi = relaxInnerFlux(p.Psi, g, rhoQ1, s.cfg.FluxScaleFactor)
	return out
}

func interpAt(rho, values []float32, target float32) float32 {
	n := len(rho)
	if n == 0 {
		return 0
	}
	if target <= rho[0] {
		return values[0]
	}
	if target >= rho[n-1] {
		return values[n-1]
	}
	for i := 0; i < n-1; i++ {
		if rho[i] <= target && target <= rho[i+1] {
			frac := (target - rho[i]) / (rho[i+1] - rho[i])
			return values[i] + frac*(values[i+1]-values[i])
		}
	}
	return values[n-1]
}

func flattenProfile(values, rho []float32, rhoQ1, rhoMix, flatValue float32) []float32 {
	out := make([]float32, len(values))
	for i, r := range rho {
		switch {
		case r <= rhoQ1:
			out[i] = flatValue
		case r <= rhoMix:
			frac := (r - rhoQ1) / (rhoMix - rhoQ1)
			out[i] = (1-frac)*flatValue + frac*values[i]
		default:
			out[i] = values[i]
		}
	}
	return out
}

func regionWithin(rho []float32, rhoMix float32) []bool {
	mask := make([]bool, len(rho))
	for i, r := range rho {
		mask[i] = r <= rhoMix
	}
	return mask
}

func regionIntegral(values, cellVolume []float32, mask []bool) float32 {
	var sum float32
	for i, in := range mask {
		if in {
			sum += values[i] * cellVolume[i]
		}
	}
	return sum
}

func regionEnergy(ti, te, ne, cellVolume []float32, mask []bool) float32 {
	var sum float32
	for i, in := range mask {
		if in {
			sum += (ti[i] + te[i]) * ne[i] * cellVolume[i]
		}
	}
	return sum
}

func safeRatio(a, b float32) float32 {
	if b == 0 {
		return 1
	}
	return a / b
}

// relaxInnerFlux reduces the inner gradient of psi by
// (1-scaleFactor)*(1-rho/rhoQ1) for rho in [0, rhoQ1], then reconstructs
// psi inward from the rho_q1 boundary so the profile stays continuous
// with the (unaffected) outer region.
func relaxInnerFlux(psi []float32, g *geom.Geometry, rhoQ1, scaleFactor float32) []float32 {
	n := len(psi)
	dr := g.Dr * g.A
	grad := make([]float32, n)
	for i := 0; i < n; i++ {
		switch {
		case i == 0:
			grad[i] = (psi[1] - psi[0]) / dr
		case i == n-1:
			grad[i] = (psi[n-1] - psi[n-2]) / dr
		default:
			grad[i] = (psi[i+1] - psi[i-1]) / (2 * dr)
		}
	}

	idxQ1 := 0
	for i, r := range g.RhoCell {
		if r <= rhoQ1 {
			idxQ1 = i
		}
	}

	out := append([]float32(nil), psi...)
	for i := idxQ1; i >= 0; i-- {
		r := g.RhoCell[i]
		reduction := (1 - scaleFactor) * (1 - r/rhoQ1)
		if reduction < 0 {
			reduction = 0
		}
		gradNew := grad[i] * (1 - reduction)
		if i < idxQ1 {
			out[i] = out[i+1] - gradNew*dr
		}
	}
	return out
}
