// Copyright 2026 The Tokasim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package models

import (
	"github.com/plasma-core/tokasim/geom"
	"github.com/plasma-core/tokasim/profiles"
)

// ConstantTransportModel serves uniform, time-independent diffusivities.
// Grounded on mdl/diffusion/m1.go's M1 model shape: a handful of constant
// coefficients connected at Init time, applied identically at every
// integration point.
type ConstantTransportModel struct {
	ChiI, ChiE, D, V float32
}

func (m ConstantTransportModel) ComputeCoefficients(p *profiles.CoreProfiles, g *geom.Geometry, dp DynamicParams) (TransportCoefficients, error) {
	n := p.NCells()
	out := TransportCoefficients{
		ChiI: fill(n, m.ChiI),
		ChiE: fill(n, m.ChiE),
		D:    fill(n, m.D),
		V:    fill(n, m.V),
	}
	return out, nil
}

// InverseDensityTransportModel implements χ ∝ 1/ne, the manufactured
// nonlinearity used by the Newton-solver scenario (spec.md §8, scenario
// 6): coefficients depend on the very state being solved for, forcing the
// Newton wrapper to iterate.
type InverseDensityTransportModel struct {
	ChiCoeff float32 // χ = ChiCoeff / ne
	D, V     float32
}

func (m InverseDensityTransportModel) ComputeCoefficients(p *profiles.CoreProfiles, g *geom.Geometry, dp DynamicParams) (TransportCoefficients, error) {
	n := p.NCells()
	ne := profiles.FloorDensity(p.Ne)
	chi := make([]float32, n)
	for i := 0; i < n; i++ {
		chi[i] = m.ChiCoeff / ne[i]
	}
	return TransportCoefficients{
		ChiI: chi,
		ChiE: chi,
		D:    fill(n, m.D),
		V:    fill(n, m.V),
	}, nil
}

func fill(n int, v float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// ConstantSourceModel serves uniform, time-independent sources tagged
// with a single SourceCategory.
type ConstantSourceModel struct {
	Name                         string
	Category                     SourceCategory
	IonHeatingMW, ElecHeatingMW  float32
	ParticleSrc, CurrentSrc      float32
}

func (m ConstantSourceModel) ComputeTermsWithMetadata(p *profiles.CoreProfiles, g *geom.Geometry, dp DynamicParams) (SourceTerms, *SourceMetadata, error) {
	n := p.NCells()
	terms := SourceTerms{
		IonHeatingMW:  fill(n, m.IonHeatingMW),
		ElecHeatingMW: fill(n, m.ElecHeatingMW),
		ParticleSrc:   fill(n, m.ParticleSrc),
		CurrentSrc:    fill(n, m.CurrentSrc),
	}
	meta := &SourceMetadata{
		Name:        m.Name,
		Category:    m.Category,
		IonPowerMW:  m.IonHeatingMW * totalVolume(n),
		ElecPowerMW: m.ElecHeatingMW * totalVolume(n),
	}
	return terms, meta, nil
}

// totalVolume is a placeholder unit multiplier kept at 1 here; real power
// totals are integrated against geometry by the diagnostics package, which
// has access to cell volumes. ComputeTermsWithMetadata's metadata is a
// per-unit-volume figure until diagnostics.ComputePowerBalance integrates it.
func totalVolume(n int) float32 { return 1 }
