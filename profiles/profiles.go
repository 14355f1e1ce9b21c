// Copyright 2026 The Tokasim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package profiles defines the plasma radial profile set that the time
// stepping engine advances: ion and electron temperature, electron density
// and poloidal flux, plus the boundary data that pins them at the mesh
// edges.
package profiles

import (
	"math"

	"github.com/plasma-core/tokasim/simerr"
)

// NMin is the electron-density floor enforced throughout the transport
// equations to avoid division by zero in the temperature equations.
const NMin float32 = 1e18

// CoreProfiles holds the four state variables on a shared radial mesh.
// All four share nCells; Ti, Te and ne must stay strictly positive, and
// every entry must be finite.
type CoreProfiles struct {
	Ti []float32 // ion temperature [eV]
	Te []float32 // electron temperature [eV]
	Ne []float32 // electron density [m^-3]
	Psi []float32 // poloidal flux [Wb]
}

// NCells returns the shared cell count, or -1 if the four arrays disagree.
func (p *CoreProfiles) NCells() int {
	n := len(p.Ti)
	if len(p.Te) != n || len(p.Ne) != n || len(p.Psi) != n {
		return -1
	}
	return n
}

// Clone returns a deep copy. The engine never mutates a CoreProfiles in
// place across step boundaries; every step produces a fresh set.
func (p *CoreProfiles) Clone() *CoreProfiles {
	q := &CoreProfiles{
		Ti:  append([]float32(nil), p.Ti...),
		Te:  append([]float32(nil), p.Te...),
		Ne:  append([]float32(nil), p.Ne...),
		Psi: append([]float32(nil), p.Psi...),
	}
	return q
}

// Validate checks the invariants from the data model: matching lengths,
// Ti/Te/ne strictly positive (ne above the floor), and finiteness.
func (p *CoreProfiles) Validate() error {
	n := p.NCells()
	if n < 0 {
		return simerr.New(simerr.InvalidConfiguration, "core profiles have mismatched lengths: Ti=%d Te=%d ne=%d psi=%d",
			len(p.Ti), len(p.Te), len(p.Ne), len(p.Psi))
	}
	for i := 0; i < n; i++ {
		if err := checkPositiveFinite("Ti", i, p.Ti[i]); err != nil {
			return err
		}
		if err := checkPositiveFinite("Te", i, p.Te[i]); err != nil {
			return err
		}
		if p.Ne[i] <= NMin || !finite32(p.Ne[i]) {
			return simerr.New(simerr.NumericInstability, "ne[%d]=%v is not above the density floor or is non-finite", i, p.Ne[i]).WithVariable("ne", p.Ne[i])
		}
		if !finite32(p.Psi[i]) {
			return simerr.New(simerr.NumericInstability, "psi[%d]=%v is non-finite", i, p.Psi[i]).WithVariable("psi", p.Psi[i])
		}
	}
	return nil
}

func checkPositiveFinite(name string, i int, v float32) error {
	if v <= 0 || !finite32(v) {
		return simerr.New(simerr.NumericInstability, "%s[%d]=%v is non-positive or non-finite", name, i, v).WithVariable(name, v)
	}
	return nil
}

func finite32(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// IsValid is a cheap boolean form of Validate, used by collaborators (e.g.
// the conservation enforcer) that must not enforce on an invalid set but
// should not treat that as fatal either.
func (p *CoreProfiles) IsValid() bool {
	return p.Validate() == nil
}

// ConstraintKind distinguishes a Dirichlet (fixed value) face from a
// Neumann (fixed gradient) face.
type ConstraintKind int

const (
	Dirichlet ConstraintKind = iota
	Neumann
)

// FaceConstraint is exactly one of (value, gradient); never both, never
// neither.
type FaceConstraint struct {
	Kind  ConstraintKind
	Value float32
}

// BoundaryCondition is the ordered (left, right) face pair for one
// variable.
type BoundaryCondition struct {
	Left  FaceConstraint
	Right FaceConstraint
}

// Validate checks that the boundary values are finite; Dirichlet density
// and temperature boundary values must additionally be positive.
func (bc BoundaryCondition) Validate(positive bool) error {
	for _, fc := range []FaceConstraint{bc.Left, bc.Right} {
		if !finite32(fc.Value) {
			return simerr.New(simerr.InvalidBoundaryConditions, "boundary value %v is non-finite", fc.Value)
		}
		if positive && fc.Kind == Dirichlet && fc.Value <= 0 {
			return simerr.New(simerr.InvalidBoundaryConditions, "Dirichlet boundary value %v must be positive", fc.Value)
		}
	}
	return nil
}

// BoundarySet carries one BoundaryCondition per evolved variable.
type BoundarySet struct {
	Ti  BoundaryCondition
	Te  BoundaryCondition
	Ne  BoundaryCondition
	Psi BoundaryCondition
}

// Validate checks every boundary condition in the set.
func (b BoundarySet) Validate() error {
	if err := b.Ti.Validate(true); err != nil {
		return err
	}
	if err := b.Te.Validate(true); err != nil {
		return err
	}
	if err := b.Ne.Validate(true); err != nil {
		return err
	}
	if err := b.Psi.Validate(false); err != nil {
		return err
	}
	return nil
}

// SerializableProfiles is the flat-array representation profiles losslessly
// round-trip through. Each slice has length exactly nCells.
type SerializableProfiles struct {
	NCells int       `json:"nCells"`
	Ti     []float32 `json:"ti"`
	Te     []float32 `json:"te"`
	Ne     []float32 `json:"ne"`
	Psi    []float32 `json:"psi"`
}

// ToSerializable flattens a CoreProfiles into its wire representation.
func (p *CoreProfiles) ToSerializable() SerializableProfiles {
	return SerializableProfiles{
		NCells: p.NCells(),
		Ti:     append([]float32(nil), p.Ti...),
		Te:     append([]float32(nil), p.Te...),
		Ne:     append([]float32(nil), p.Ne...),
		Psi:    append([]float32(nil), p.Psi...),
	}
}

// FromSerializable reconstructs a CoreProfiles from its wire representation,
// validating that every slice has length exactly NCells.
func FromSerializable(s SerializableProfiles) (*CoreProfiles, error) {
	if len(s.Ti) != s.NCells || len(s.Te) != s.NCells || len(s.Ne) != s.NCells || len(s.Psi) != s.NCells {
		return nil, simerr.New(simerr.InvalidConfiguration, "serialized profiles do not match declared nCells=%d", s.NCells)
	}
	return &CoreProfiles{
		Ti:  append([]float32(nil), s.Ti...),
		Te:  append([]float32(nil), s.Te...),
		Ne:  append([]float32(nil), s.Ne...),
		Psi: append([]float32(nil), s.Psi...),
	}, nil
}

// FloorDensity returns a copy of ne with every entry clamped to at least
// NMin, per the coefficient-assembly density floor (spec §4.2).
func FloorDensity(ne []float32) []float32 {
	out := make([]float32, len(ne))
	for i, v := range ne {
		if v < NMin {
			v = NMin
		}
		out[i] = v
	}
	return out
}
