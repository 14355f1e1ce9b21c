// Copyright 2026 The Tokasim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package diagnostics computes derived scalar quantities from an already
// solved CoreProfiles/Geometry pair: confinement time, fusion gain,
// normalized beta, power balance, and two cheap numeric-health reports
// (Jacobian conditioning, conservation drift). Every function here is
// pure: given the same inputs it returns the same outputs, and nothing in
// this package mutates the solver's state, mirroring the ana package's
// shape of plain analytical functions over an already-solved state.
package diagnostics

import (
	"github.com/plasma-core/tokasim/conservation"
	"github.com/plasma-core/tokasim/geom"
	"github.com/plasma-core/tokasim/models"
	"github.com/plasma-core/tokasim/profiles"
)

// evToJoule converts one electronvolt to joules.
const evToJoule = 1.602176634e-19

// mu0 is the vacuum permeability [T*m/A].
const mu0 = 4 * 3.14159265358979 * 1e-7

// DerivedQuantities bundles the scalar figures of merit computed from one
// profile/geometry snapshot.
type DerivedQuantities struct {
	CentralTi, CentralTe, CentralNe float32
	VolumeAvgTi, VolumeAvgTe, VolumeAvgNe float32
	StoredEnergyMJ    float32
	ConfinementTimeS  float32 // tau_E = stored energy / net heating power
	FusionQ           float32 // fusion power / auxiliary heating power
	BetaPercent       float32 // volume-averaged plasma beta, percent
	BetaN             float32 // normalized beta, using the same simplified q(edge) this engine already computes
}

// Compute derives DerivedQuantities from the current state. power is the
// already volume-integrated power balance (see ComputePowerBalance);
// auxPowerMW is the auxiliary heating power used as FusionQ's denominator.
func Compute(p *profiles.CoreProfiles, g *geom.Geometry, power PowerBalanceReport, auxPowerMW float32) DerivedQuantities {
	totalVol := sumVolume(g.CellVolume)

	dq := DerivedQuantities{
		CentralTi: p.Ti[0],
		CentralTe: p.Te[0],
		CentralNe: p.Ne[0],
	}
	if totalVol > 0 {
		dq.VolumeAvgTi = conservation.VolumeIntegral(p.Ti, g.CellVolume) / totalVol
		dq.VolumeAvgTe = conservation.VolumeIntegral(p.Te, g.CellVolume) / totalVol
		dq.VolumeAvgNe = conservation.VolumeIntegral(p.Ne, g.CellVolume) / totalVol
	}

	dq.StoredEnergyMJ = storedThermalEnergyMJ(p, g)

	netHeatingMW := power.TotalIonMW + power.TotalElecMW + power.TotalAlphaMW - power.TotalRadMW
	if netHeatingMW > 0 {
		dq.ConfinementTimeS = dq.StoredEnergyMJ / netHeatingMW // MJ / MW == s
	}
	if auxPowerMW > 0 {
		dq.FusionQ = (power.TotalAlphaMW * 5) / auxPowerMW // D-T: alphas carry 1/5 of fusion power
	}

	dq.BetaPercent = volumeAveragedBetaPercent(dq.VolumeAvgTi, dq.VolumeAvgTe, dq.VolumeAvgNe, g.Btor)
	dq.BetaN = normalizedBeta(dq.BetaPercent, g)

	return dq
}

// storedThermalEnergyMJ integrates (3/2) ne (Ti+Te) over the plasma volume
// and converts the result from joules to megajoules.
func storedThermalEnergyMJ(p *profiles.CoreProfiles, g *geom.Geometry) float32 {
	n := p.NCells()
	density := make([]float32, n)
	for i := 0; i < n; i++ {
		density[i] = 1.5 * p.Ne[i] * (p.Ti[i] + p.Te[i]) * evToJoule
	}
	joules := conservation.VolumeIntegral(density, g.CellVolume)
	return joules / 1e6
}

// volumeAveragedBetaPercent computes the plasma beta (thermal pressure
// over magnetic pressure) as a percentage, from volume-averaged
// temperatures and density.
func volumeAveragedBetaPercent(tiAvg, teAvg, neAvg, btor float32) float32 {
	if btor == 0 {
		return 0
	}
	pressurePa := neAvg * (tiAvg + teAvg) * evToJoule
	magneticPressurePa := btor * btor / (2 * mu0)
	if magneticPressurePa == 0 {
		return 0
	}
	return 100 * pressurePa / magneticPressurePa
}

// normalizedBeta approximates betaN = beta[%] * a[m] * Btor[T] / Ip[MA],
// deriving Ip from the same simplified cylindrical safety-factor relation
// geom.ComputeSafetyFactor already uses: q_edge ~= 5*a^2*Btor/(R0*Ip), so
// Ip[MA] ~= 5*a^2*Btor/(R0*q_edge). This keeps the derived quantity
// consistent with the one current/psi model the engine already commits
// to, rather than introducing a second, unrelated current estimate.
func normalizedBeta(betaPercent float32, g *geom.Geometry) float32 {
	n := len(g.SafetyFactor)
	if n == 0 || g.R0 == 0 {
		return 0
	}
	qEdge := g.SafetyFactor[n-1]
	if qEdge == 0 {
		return 0
	}
	ipMA := 5 * g.A * g.A * g.Btor / (g.R0 * qEdge)
	if ipMA == 0 {
		return 0
	}
	return betaPercent * g.A * g.Btor / ipMA
}

func sumVolume(cellVolume []float32) float32 {
	var sum float32
	for _, v := range cellVolume {
		sum += v
	}
	return sum
}

// PowerBalanceReport is the volume-integrated power accounting across every
// configured source model, keyed by the model's own name and category.
type PowerBalanceReport struct {
	Sources                                            []SourcePowerMW
	TotalIonMW, TotalElecMW, TotalAlphaMW, TotalRadMW float32
}

// SourcePowerMW is one source model's volume-integrated contribution.
type SourcePowerMW struct {
	Name                                   string
	Category                               string
	IonMW, ElecMW, AlphaMW, RadMW          float32
}

// ComputePowerBalance integrates the per-source metadata models.
// ComponentMetadata returns against the plasma volume, turning the
// per-unit-volume figures SourceMetadata carries (models/reference.go's
// totalVolume placeholder) into real megawatt totals.
func ComputePowerBalance(p *profiles.CoreProfiles, g *geom.Geometry, sources *models.CompositeSourceModel, dp models.DynamicParams) (PowerBalanceReport, error) {
	metas, err := sources.ComponentMetadata(p, g, dp)
	if err != nil {
		return PowerBalanceReport{}, err
	}
	totalVol := sumVolume(g.CellVolume)

	var report PowerBalanceReport
	for _, m := range metas {
		sp := SourcePowerMW{
			Name:     m.Name,
			Category: m.Category.String(),
			IonMW:    m.IonPowerMW * totalVol,
			ElecMW:   m.ElecPowerMW * totalVol,
			AlphaMW:  m.AlphaPowerMW * totalVol,
			RadMW:    m.RadPowerMW * totalVol,
		}
		report.Sources = append(report.Sources, sp)
		report.TotalIonMW += sp.IonMW
		report.TotalElecMW += sp.ElecMW
		report.TotalAlphaMW += sp.AlphaMW
		report.TotalRadMW += sp.RadMW
	}
	return report, nil
}
