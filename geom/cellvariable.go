// Copyright 2026 The Tokasim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package geom

import (
	"github.com/plasma-core/tokasim/profiles"
	"github.com/plasma-core/tokasim/simerr"
)

// CellVariable pairs cell-centered values for one solved variable with its
// uniform cell width and its two face constraints. Exactly one of
// (value, gradient) is set per face; violating that is a programming
// error and fails fast in New.
type CellVariable struct {
	values []float32
	dr     float32
	left   profiles.FaceConstraint
	right  profiles.FaceConstraint
}

// New builds a CellVariable, panicking on malformed input: dr must be
// positive, and values must be non-empty. The constraint kind is taken
// as-is from bc; New does not itself enforce the exactly-one-of invariant
// beyond trusting ConstraintKind, since FaceConstraint's own shape already
// makes "both" or "neither" unrepresentable.
func New(values []float32, dr float32, bc profiles.BoundaryCondition) *CellVariable {
	if dr <= 0 {
		simerrPanic("CellVariable requires dr > 0, got %v", dr)
	}
	if len(values) == 0 {
		simerrPanic("CellVariable requires at least one cell value")
	}
	return &CellVariable{
		values: append([]float32(nil), values...),
		dr:     dr,
		left:   bc.Left,
		right:  bc.Right,
	}
}

func simerrPanic(format string, args ...interface{}) {
	panic(simerr.New(simerr.InvalidConfiguration, format, args...))
}

// Values returns the cell-centered values (a copy is not made; callers
// must not mutate the result).
func (c *CellVariable) Values() []float32 { return c.values }

// NCells returns the number of cells.
func (c *CellVariable) NCells() int { return len(c.values) }

// Dr returns the uniform cell width.
func (c *CellVariable) Dr() float32 { return c.dr }

// FaceValues returns the length-nFaces array of face values: interior
// faces use the central average of the adjacent cells; boundary faces use
// the declared constraint (spec.md §4.1).
func (c *CellVariable) FaceValues() []float32 {
	n := len(c.values)
	out := make([]float32, n+1)
	for i := 1; i < n; i++ {
		out[i] = (c.values[i-1] + c.values[i]) / 2
	}
	out[0] = boundaryFaceValue(c.left, c.values[0], c.dr, true)
	out[n] = boundaryFaceValue(c.right, c.values[n-1], c.dr, false)
	return out
}

func boundaryFaceValue(fc profiles.FaceConstraint, adjacent, dr float32, isLeft bool) float32 {
	switch fc.Kind {
	case profiles.Dirichlet:
		return fc.Value
	case profiles.Neumann:
		// First-order extrapolation from the adjacent cell center, half a
		// cell width away from the boundary face.
		if isLeft {
			return adjacent - fc.Value*dr/2
		}
		return adjacent + fc.Value*dr/2
	}
	return adjacent
}

// FaceGradients returns the length-nFaces array of face gradients:
// interior faces use the first-order central difference; boundary faces
// use the declared constraint directly for Neumann, or the one-sided
// difference to the Dirichlet value for Dirichlet (spec.md §4.1).
func (c *CellVariable) FaceGradients() []float32 {
	n := len(c.values)
	out := make([]float32, n+1)
	for i := 1; i < n; i++ {
		out[i] = (c.values[i] - c.values[i-1]) / c.dr
	}
	out[0] = boundaryFaceGradient(c.left, c.values[0], c.dr, true)
	out[n] = boundaryFaceGradient(c.right, c.values[n-1], c.dr, false)
	return out
}

func boundaryFaceGradient(fc profiles.FaceConstraint, adjacent, dr float32, isLeft bool) float32 {
	switch fc.Kind {
	case profiles.Neumann:
		return fc.Value
	case profiles.Dirichlet:
		if isLeft {
			return (adjacent - fc.Value) / (dr / 2)
		}
		return (fc.Value - adjacent) / (dr / 2)
	}
	return 0
}

// CellGradients returns the length-nCells array of cell-centered
// gradients, computed as the discrete derivative of the face values:
// cell_grad[i] = (face_value[i+1] - face_value[i]) / dr.
func (c *CellVariable) CellGradients() []float32 {
	fv := c.FaceValues()
	n := len(c.values)
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = (fv[i+1] - fv[i]) / c.dr
	}
	return out
}
