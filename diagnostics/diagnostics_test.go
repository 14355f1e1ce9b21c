// Copyright 2026 The Tokasim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package diagnostics

import (
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/plasma-core/tokasim/coeffs"
	"github.com/plasma-core/tokasim/conservation"
	"github.com/plasma-core/tokasim/geom"
	"github.com/plasma-core/tokasim/models"
	"github.com/plasma-core/tokasim/profiles"
)

func sampleGeomProfiles(n int) (*geom.Geometry, *profiles.CoreProfiles) {
	g, err := geom.NewUniformCircularGeometry(n, 6.2, 2.0, 5.3)
	if err != nil {
		panic(err)
	}
	p := &profiles.CoreProfiles{Ti: make([]float32, n), Te: make([]float32, n), Ne: make([]float32, n), Psi: make([]float32, n)}
	for i := 0; i < n; i++ {
		p.Ti[i], p.Te[i], p.Ne[i] = 10000, 9000, 1e20
	}
	return g, p
}

func TestComputePowerBalanceIntegratesAcrossVolume(tst *testing.T) {

	chk.PrintTitle("ComputePowerBalanceIntegratesAcrossVolume")

	g, p := sampleGeomProfiles(10)
	comp := &models.CompositeSourceModel{Models: []models.SourceModel{
		models.ConstantSourceModel{Name: "aux", Category: models.CategoryAuxiliary, IonHeatingMW: 1, ElecHeatingMW: 1},
	}}
	report, err := ComputePowerBalance(p, g, comp, models.DynamicParams{})
	if err != nil {
		tst.Errorf("unexpected error: %v", err)
		return
	}
	if report.TotalIonMW <= 0 {
		tst.Errorf("expected positive integrated ion power, got %v", report.TotalIonMW)
		return
	}
	// the per-unit-volume metadata figure times the total plasma volume.
	var totalVol float32
	for _, v := range g.CellVolume {
		totalVol += v
	}
	chk.Scalar(tst, "TotalIonMW == per-unit-volume figure * total volume", 1e-2, float64(report.TotalIonMW), float64(totalVol))
}

func TestComputeDerivedQuantitiesPositiveScenario(tst *testing.T) {

	chk.PrintTitle("ComputeDerivedQuantitiesPositiveScenario")

	g, p := sampleGeomProfiles(10)
	g = g.WithSafetyFactor(fillQ(len(g.SafetyFactor), 3.0))

	power := PowerBalanceReport{TotalIonMW: 10, TotalElecMW: 10, TotalAlphaMW: 2, TotalRadMW: 1}
	dq := Compute(p, g, power, 15)

	if dq.StoredEnergyMJ <= 0 {
		tst.Errorf("expected positive stored thermal energy, got %v", dq.StoredEnergyMJ)
	}
	if dq.ConfinementTimeS <= 0 {
		tst.Errorf("expected positive confinement time under net-positive heating, got %v", dq.ConfinementTimeS)
	}
	// FusionQ = alpha*5 / aux = 2*5/15 = 0.667
	chk.Scalar(tst, "FusionQ", 1e-3, float64(dq.FusionQ), 2.0*5/15)
	if dq.BetaPercent <= 0 {
		tst.Errorf("expected positive beta, got %v", dq.BetaPercent)
	}
}

func TestComputeDerivedQuantitiesZeroNetPowerYieldsZeroConfinementTime(tst *testing.T) {

	chk.PrintTitle("ComputeDerivedQuantitiesZeroNetPowerYieldsZeroConfinementTime")

	g, p := sampleGeomProfiles(5)
	power := PowerBalanceReport{} // no sources configured
	dq := Compute(p, g, power, 0)

	chk.Scalar(tst, "ConfinementTimeS is zero with no net heating", 1e-12, float64(dq.ConfinementTimeS), 0)
	chk.Scalar(tst, "FusionQ is zero with no aux power", 1e-12, float64(dq.FusionQ), 0)
}

func TestComputeJacobianConditioningReportsFourEquations(tst *testing.T) {

	chk.PrintTitle("ComputeJacobianConditioningReportsFourEquations")

	n := 8
	g, p := sampleGeomProfiles(n)
	tc := models.TransportCoefficients{ChiI: fillF(n, 1), ChiE: fillF(n, 1), D: fillF(n, 0.5), V: fillF(n, 0)}
	st := models.SourceTerms{IonHeatingMW: fillF(n, 0), ElecHeatingMW: fillF(n, 0), ParticleSrc: fillF(n, 0), CurrentSrc: fillF(n, 0)}
	block, err := coeffs.NewAssembler().Assemble(p, g, tc, st, nil)
	if err != nil {
		tst.Errorf("unexpected error: %v", err)
		return
	}

	reports := ComputeJacobianConditioning(block, 1e-3)
	chk.IntAssert(len(reports), 4)
	for _, r := range reports {
		if r.MaxDiagMagnitude < r.MinDiagMagnitude {
			tst.Errorf("%s: expected MaxDiagMagnitude >= MinDiagMagnitude, got max=%v min=%v", r.Variable, r.MaxDiagMagnitude, r.MinDiagMagnitude)
		}
	}
}

func TestSummarizeConservationDrift(tst *testing.T) {

	chk.PrintTitle("SummarizeConservationDrift")

	results := []conservation.Result{
		{Law: "particle", Drift: 0.01, Corrected: true},
		{Law: "energy", Drift: 0.08, Corrected: true},
	}
	report := SummarizeConservationDrift(results)
	chk.Scalar(tst, "MaxDrift picks the worst law", 1e-9, float64(report.MaxDrift), float64(float32(0.08)))
	if report.WorstLaw != "energy" {
		tst.Errorf("expected WorstLaw==energy, got %q", report.WorstLaw)
	}
	if !report.AnyCorrected {
		tst.Errorf("expected AnyCorrected==true")
	}
	if !report.Critical {
		tst.Errorf("expected Critical==true since 0.08 exceeds CriticalDriftFraction=0.05")
	}
}

func fillF(n int, v float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func fillQ(n int, v float32) []float32 { return fillF(n, v) }
