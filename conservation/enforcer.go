// Copyright 2026 The Tokasim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package conservation

import (
	"github.com/plasma-core/tokasim/geom"
	"github.com/plasma-core/tokasim/profiles"
)

// CriticalDriftFraction is the drift level that, even after an
// enforcement attempt, constitutes a critical diagnostic (spec.md §4.7).
const CriticalDriftFraction = 0.05

// Enforcer owns an ordered list of conservation laws and the reference
// scalar each captured at t=0. Laws run in the order they were added;
// downstream laws observe the profiles already corrected by upstream
// ones (spec.md §4.7, point 3), so particle should always be added before
// energy.
type Enforcer struct {
	laws      []Law
	reference map[string]float32
	interval  int
}

// NewEnforcer captures reference quantities for every law against the
// initial profiles and geometry. interval defaults to 1000 if <= 0.
func NewEnforcer(laws []Law, initial *profiles.CoreProfiles, g *geom.Geometry, interval int) *Enforcer {
	if interval <= 0 {
		interval = 1000
	}
	ref := make(map[string]float32, len(laws))
	for _, law := range laws {
		ref[law.Name()] = law.ComputeQuantity(initial, g)
	}
	return &Enforcer{laws: laws, reference: ref, interval: interval}
}

// ShouldEnforce reports whether step triggers enforcement: step > 0 and
// step mod interval == 0.
func (e *Enforcer) ShouldEnforce(step int) bool {
	return step > 0 && step%e.interval == 0
}

// Enforce runs every law in order, correcting the profiles in place
// (functionally: each law returns a fresh CoreProfiles) when drift
// exceeds that law's tolerance. It never enforces against an invalid
// profile set (spec.md §4.7, point 4); diagnostics are returned as
// Results with Corrected=false and the profiles returned unchanged.
func (e *Enforcer) Enforce(p *profiles.CoreProfiles, g *geom.Geometry, step int, time float32) (*profiles.CoreProfiles, []Result, error) {
	if !p.IsValid() {
		var results []Result
		for _, law := range e.laws {
			results = append(results, Result{Law: law.Name(), Step: step, Time: time, Corrected: false})
		}
		return p, results, nil
	}

	current := p
	var results []Result
	for _, law := range e.laws {
		ref := e.reference[law.Name()]
		quantity := law.ComputeQuantity(current, g)
		drift := relativeDrift(quantity, ref)
		result := Result{
			Law: law.Name(), Reference: ref, Current: quantity,
			Drift: drift, Factor: 1.0, Step: step, Time: time,
		}
		if drift > law.ToleranceFraction() {
			factor := CorrectionFactor(quantity, ref)
			current = law.ApplyCorrection(current, factor)
			result.Factor = factor
			result.Corrected = true
		}
		results = append(results, result)
	}
	return current, results, nil
}

func relativeDrift(current, reference float32) float32 {
	if reference == 0 {
		return 0
	}
	d := current - reference
	if d < 0 {
		d = -d
	}
	r := reference
	if r < 0 {
		r = -r
	}
	return d / r
}
