// Copyright 2026 The Tokasim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package coeffs assembles per-equation finite-volume coefficients from
// transport coefficients, source terms, geometry and the profiles being
// solved. It mirrors the per-integration-point residual/Jacobian
// assembly gofem's ele/diffusion element performs (AddToRhs/AddToKb),
// generalized from one diffusion equation to the coupled four-equation
// transport system and from FEM shape-function weighting to uniform
// finite-volume geometric weighting.
package coeffs

import (
	"github.com/plasma-core/tokasim/simerr"
)

// GeometricFactors is the subset of geom.Geometry every EquationCoeffs is
// assembled against; kept as its own small struct so Block1DCoeffs does
// not need to re-import the full Geometry shape.
type GeometricFactors struct {
	CellVolume    []float32 // [nCells]
	FaceArea      []float32 // [nFaces]
	G0, G1        []float32 // [nFaces]
	CellDistances []float32 // [nCells-1], distance between adjacent cell centers
}

// Validate checks the shape invariants: cell arrays have length nCells,
// face arrays nFaces, cell distances nCells-1.
func (gf GeometricFactors) Validate(nCells int) error {
	nFaces := nCells + 1
	if len(gf.CellVolume) != nCells {
		return simerr.New(simerr.InvalidConfiguration, "GeometricFactors.CellVolume has length %d, want %d", len(gf.CellVolume), nCells)
	}
	for name, arr := range map[string][]float32{"FaceArea": gf.FaceArea, "G0": gf.G0, "G1": gf.G1} {
		if len(arr) != nFaces {
			return simerr.New(simerr.InvalidConfiguration, "GeometricFactors.%s has length %d, want %d", name, len(arr), nFaces)
		}
	}
	if len(gf.CellDistances) != nCells-1 {
		return simerr.New(simerr.InvalidConfiguration, "GeometricFactors.CellDistances has length %d, want %d", len(gf.CellDistances), nCells-1)
	}
	return nil
}

// EquationCoeffs holds one evolved variable's finite-volume coefficients
// for a single implicit step.
type EquationCoeffs struct {
	TransientInCell  []float32 // [nCells] multiplies dx/dt
	TransientOutCell []float32 // [nCells] multiplies x at t (explicit side)
	DFace            []float32 // [nFaces] diffusion coefficient
	VFace            []float32 // [nFaces] convection coefficient
	SourceMatCell    []float32 // [nCells] implicit (in-matrix) source coupling
	SourceCell       []float32 // [nCells] explicit source contribution
}

// Validate checks that cell arrays have length nCells and face arrays
// nFaces.
func (e EquationCoeffs) Validate(nCells int) error {
	nFaces := nCells + 1
	cellArrs := map[string][]float32{
		"TransientInCell": e.TransientInCell, "TransientOutCell": e.TransientOutCell,
		"SourceMatCell": e.SourceMatCell, "SourceCell": e.SourceCell,
	}
	for name, arr := range cellArrs {
		if len(arr) != nCells {
			return simerr.New(simerr.InvalidConfiguration, "EquationCoeffs.%s has length %d, want %d", name, len(arr), nCells)
		}
	}
	faceArrs := map[string][]float32{"DFace": e.DFace, "VFace": e.VFace}
	for name, arr := range faceArrs {
		if len(arr) != nFaces {
			return simerr.New(simerr.InvalidConfiguration, "EquationCoeffs.%s has length %d, want %d", name, len(arr), nFaces)
		}
	}
	return nil
}

// Block1DCoeffs bundles the four equations' coefficients with the shared
// geometric factors they were assembled against.
type Block1DCoeffs struct {
	Ti, Te, Ne, Psi EquationCoeffs
	Geometry        GeometricFactors
}

// Validate checks every equation's shape invariants plus the shared
// geometric factors.
func (b Block1DCoeffs) Validate(nCells int) error {
	if err := b.Geometry.Validate(nCells); err != nil {
		return err
	}
	for name, eq := range map[string]EquationCoeffs{"Ti": b.Ti, "Te": b.Te, "Ne": b.Ne, "Psi": b.Psi} {
		if err := eq.Validate(nCells); err != nil {
			return simerr.Wrap(simerr.InvalidConfiguration, err, "equation %s failed validation", name)
		}
	}
	return nil
}
