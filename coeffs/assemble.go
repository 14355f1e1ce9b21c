// Copyright 2026 The Tokasim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coeffs

import (
	"github.com/plasma-core/tokasim/geom"
	"github.com/plasma-core/tokasim/models"
	"github.com/plasma-core/tokasim/profiles"
)

// MWToEVPerM3PerS converts a heating source from MW/m^3 to eV/(m^3*s):
// 1 MW/m^3 = 1/e eV/(m^3*s), e = 1.602176634e-19 C.
const MWToEVPerM3PerS float32 = 6.241509e24

// densityFloor mirrors profiles.NMin; duplicated as a local constant so
// this package's doc comments can reference the exact value inline.
const densityFloor = profiles.NMin

// Assembler builds Block1DCoeffs from transport coefficients, source
// terms, geometry and the profiles being solved. It holds no state: two
// calls with identical inputs produce identical outputs (spec.md §4.2).
type Assembler struct{}

// NewAssembler returns a stateless Assembler.
func NewAssembler() *Assembler { return &Assembler{} }

// ExchangeRate is the optional ion-electron energy exchange coefficient
// [1/s], already folded against electron density, one entry per cell. It
// is nil when no exchange model is configured. The self term lands in
// source_mat_cell (implicit in the equation's own variable); the coupling
// term lands in source_cell as an explicit contribution evaluated at the
// partner variable's current value. When the coefficient callback is
// re-evaluated every Newton iteration at the tentative state (spec.md
// §4.4), this converges to a fully implicit treatment of the exchange.
type ExchangeRate []float32

// Assemble builds the four equations' coefficients.
func (a *Assembler) Assemble(p *profiles.CoreProfiles, g *geom.Geometry, tc models.TransportCoefficients, st models.SourceTerms, exchange ExchangeRate) (Block1DCoeffs, error) {
	n := p.NCells()
	neFloored := profiles.FloorDensity(p.Ne)

	gf := GeometricFactors{
		CellVolume:    g.CellVolume,
		FaceArea:      g.FaceArea,
		G0:            g.G0,
		G1:            g.G1,
		CellDistances: cellDistances(g),
	}

	chiIFace := faceInterpolate(tc.ChiI, g.G1, g.G0)
	chiEFace := faceInterpolate(tc.ChiE, g.G1, g.G0)
	dFace := faceInterpolate(tc.D, g.G1, g.G0)
	vFace := faceConvection(tc.V, g.G1, g.G0)

	out := Block1DCoeffs{Geometry: gf}

	out.Ti = EquationCoeffs{
		TransientInCell:  neFloored,
		TransientOutCell: neFloored,
		DFace:            chiIFace,
		VFace:            vFace,
		SourceMatCell:    make([]float32, n),
		SourceCell:       convertHeating(st.IonHeatingMW),
	}
	out.Te = EquationCoeffs{
		TransientInCell:  neFloored,
		TransientOutCell: neFloored,
		DFace:            chiEFace,
		VFace:            vFace,
		SourceMatCell:    make([]float32, n),
		SourceCell:       convertHeating(st.ElecHeatingMW),
	}
	applyExchange(&out.Ti, &out.Te, p.Ti, p.Te, exchange)

	out.Ne = EquationCoeffs{
		TransientInCell:  ones(n),
		TransientOutCell: ones(n),
		DFace:            dFace,
		VFace:            vFace,
		SourceMatCell:    make([]float32, n),
		SourceCell:       append([]float32(nil), st.ParticleSrc...),
	}

	out.Psi = EquationCoeffs{
		TransientInCell:  ones(n),
		TransientOutCell: ones(n),
		DFace:            dFace, // D doubles as the resistive-diffusion proxy for ψ; see DESIGN.md
		VFace:            vFace,
		SourceMatCell:    make([]float32, n),
		SourceCell:       append([]float32(nil), st.CurrentSrc...),
	}

	if err := out.Validate(n); err != nil {
		return Block1DCoeffs{}, err
	}
	return out, nil
}

func cellDistances(g *geom.Geometry) []float32 {
	n := g.NCells()
	out := make([]float32, n-1)
	for i := 0; i < n-1; i++ {
		out[i] = g.RCell[i+1] - g.RCell[i]
	}
	return out
}

// faceInterpolate forms the harmonic mean of adjacent-cell diffusivities
// at interior faces (stable under the density floor, avoids overflow at
// realistic densities per spec.md §4.2), extrapolates the boundary faces
// from the adjacent cell, and applies the geometric weighting g1/g0.
func faceInterpolate(cellVals, g1, g0 []float32) []float32 {
	n := len(cellVals)
	face := make([]float32, n+1)
	face[0] = cellVals[0]
	face[n] = cellVals[n-1]
	for i := 1; i < n; i++ {
		a, b := cellVals[i-1], cellVals[i]
		face[i] = harmonicMean(a, b)
	}
	out := make([]float32, n+1)
	for i := range out {
		out[i] = face[i] * geometricWeight(g1[i], g0[i])
	}
	return out
}

// faceConvection interpolates the convection velocity with a simple
// average (convection is not subject to the same overflow risk diffusion
// is under the density floor) and applies the same geometric weighting.
func faceConvection(cellVals, g1, g0 []float32) []float32 {
	n := len(cellVals)
	out := make([]float32, n+1)
	out[0] = cellVals[0] * geometricWeight(g1[0], g0[0])
	out[n] = cellVals[n-1] * geometricWeight(g1[n], g0[n])
	for i := 1; i < n; i++ {
		avg := (cellVals[i-1] + cellVals[i]) / 2
		out[i] = avg * geometricWeight(g1[i], g0[i])
	}
	return out
}

func harmonicMean(a, b float32) float32 {
	if a <= 0 || b <= 0 {
		return 0
	}
	return 2 * a * b / (a + b)
}

func geometricWeight(g1, g0 float32) float32 {
	if g0 == 0 {
		return 0
	}
	return g1 / g0
}

func convertHeating(heatingMW []float32) []float32 {
	out := make([]float32, len(heatingMW))
	for i, v := range heatingMW {
		out[i] = v * MWToEVPerM3PerS
	}
	return out
}

func ones(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = 1
	}
	return out
}

func applyExchange(ti, te *EquationCoeffs, tiVal, teVal []float32, exchange ExchangeRate) {
	if exchange == nil {
		return
	}
	for i, c := range exchange {
		ti.SourceMatCell[i] -= c
		te.SourceMatCell[i] -= c
		ti.SourceCell[i] += c * teVal[i]
		te.SourceCell[i] += c * tiVal[i]
	}
}
