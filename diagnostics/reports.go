// Copyright 2026 The Tokasim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package diagnostics

import (
	"github.com/plasma-core/tokasim/coeffs"
	"github.com/plasma-core/tokasim/conservation"
)

// JacobianConditioningReport is a cheap per-equation numeric-health check:
// the ratio of the largest to smallest diagonal magnitude the tridiagonal
// solve would see, approximated directly from the assembled coefficients
// rather than by re-running the elimination (spec.md's "dump the Jacobian
// for inspection" need, turned into a live summary instead of a file
// since the core has no persistence layer).
type JacobianConditioningReport struct {
	Variable         string
	MaxDiagMagnitude float32
	MinDiagMagnitude float32
	ConditionRatio   float32 // MaxDiagMagnitude / MinDiagMagnitude; 0 if undefined
}

// ComputeJacobianConditioning builds one report per evolved equation from
// the coefficients the solver is about to (or just did) solve against.
// The diagonal proxy used is transient_in/dt - source_mat, the dominant
// term of solver.solveEquation's diag[i] before face coupling is folded
// in; it is cheap exactly because it skips that coupling, trading
// precision for a number computable without running the elimination.
func ComputeJacobianConditioning(block coeffs.Block1DCoeffs, dt float32) []JacobianConditioningReport {
	return []JacobianConditioningReport{
		conditionReport("Ti", block.Ti, dt),
		conditionReport("Te", block.Te, dt),
		conditionReport("ne", block.Ne, dt),
		conditionReport("psi", block.Psi, dt),
	}
}

func conditionReport(name string, eq coeffs.EquationCoeffs, dt float32) JacobianConditioningReport {
	var maxMag, minMag float32
	first := true
	for i := range eq.TransientInCell {
		diag := eq.TransientInCell[i]/dt - eq.SourceMatCell[i]
		if diag < 0 {
			diag = -diag
		}
		if first {
			maxMag, minMag = diag, diag
			first = false
			continue
		}
		if diag > maxMag {
			maxMag = diag
		}
		if diag < minMag {
			minMag = diag
		}
	}
	report := JacobianConditioningReport{Variable: name, MaxDiagMagnitude: maxMag, MinDiagMagnitude: minMag}
	if minMag > 0 {
		report.ConditionRatio = maxMag / minMag
	}
	return report
}

// ConservationDriftReport summarizes one enforcement call's results into a
// single pass/fail-style figure, sparing callers from scanning every
// conservation.Result themselves.
type ConservationDriftReport struct {
	MaxDrift     float32
	WorstLaw     string
	AnyCorrected bool
	Critical     bool // true if MaxDrift still exceeds conservation.CriticalDriftFraction
}

// SummarizeConservationDrift reduces the per-law results the enforcer
// returns into a ConservationDriftReport.
func SummarizeConservationDrift(results []conservation.Result) ConservationDriftReport {
	var report ConservationDriftReport
	for _, r := range results {
		if r.Drift > report.MaxDrift {
			report.MaxDrift = r.Drift
			report.WorstLaw = r.Law
		}
		if r.Corrected {
			report.AnyCorrected = true
		}
	}
	report.Critical = report.MaxDrift > conservation.CriticalDriftFraction
	return report
}
