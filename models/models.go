// Copyright 2026 The Tokasim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package models defines the narrow capability interfaces the core
// transport engine consumes: TransportModel and SourceModel. Their scalar
// physics (transport closures, fusion reactivity, bremsstrahlung, gas-puff,
// impurity radiation) is deliberately out of this core's scope per
// spec.md §1 — only the contracts live here, plus a handful of simple
// reference implementations used by tests and worked scenarios.
//
// Model instances are immutable after construction (spec.md §5): they
// carry configuration, not mutable buffers, and may be invoked
// concurrently from any scheduler.
package models

import (
	"github.com/plasma-core/tokasim/geom"
	"github.com/plasma-core/tokasim/profiles"
)

// TransportCoefficients holds the four cell arrays the coefficient
// assembler consumes: ion and electron heat diffusivity, particle
// diffusivity, and pitch/convection velocity.
type TransportCoefficients struct {
	ChiI []float32 // ion heat diffusivity [m^2/s]
	ChiE []float32 // electron heat diffusivity [m^2/s]
	D    []float32 // particle diffusivity [m^2/s]
	V    []float32 // convection velocity [m/s]
}

// SourceCategory classifies one source model's contribution for
// power-balance accounting.
type SourceCategory int

const (
	CategoryFusion SourceCategory = iota
	CategoryAuxiliary
	CategoryOhmic
	CategoryRadiation
	CategoryOther
)

func (c SourceCategory) String() string {
	switch c {
	case CategoryFusion:
		return "fusion"
	case CategoryAuxiliary:
		return "auxiliary"
	case CategoryOhmic:
		return "ohmic"
	case CategoryRadiation:
		return "radiation"
	case CategoryOther:
		return "other"
	}
	return "unknown"
}

// SourceMetadata records the power accounting for one source model's
// contribution, enabling exact power-balance diagnostics.
type SourceMetadata struct {
	Name         string
	Category     SourceCategory
	IonPowerMW   float32
	ElecPowerMW  float32
	AlphaPowerMW float32
	RadPowerMW   float32
}

// SourceTerms holds the four cell arrays the coefficient assembler
// consumes as explicit/implicit source contributions.
type SourceTerms struct {
	IonHeatingMW  []float32 // [MW/m^3]
	ElecHeatingMW []float32 // [MW/m^3]
	ParticleSrc   []float32 // [m^-3/s]
	CurrentSrc    []float32 // current source driving ψ evolution
}

// addInto accumulates s into the receiver, element-wise. Lengths must
// match; callers (CompositeSourceModel) guarantee this via the profile
// mesh they were both evaluated against.
func (t *SourceTerms) addInto(s SourceTerms) {
	for i := range t.IonHeatingMW {
		t.IonHeatingMW[i] += s.IonHeatingMW[i]
		t.ElecHeatingMW[i] += s.ElecHeatingMW[i]
		t.ParticleSrc[i] += s.ParticleSrc[i]
		t.CurrentSrc[i] += s.CurrentSrc[i]
	}
}

func zeroSourceTerms(n int) SourceTerms {
	return SourceTerms{
		IonHeatingMW:  make([]float32, n),
		ElecHeatingMW: make([]float32, n),
		ParticleSrc:   make([]float32, n),
		CurrentSrc:    make([]float32, n),
	}
}

// DynamicParams bundles the per-step knobs collaborators read: boundary
// conditions are owned by the orchestrator, but transport/source models
// commonly depend on scalar control parameters (heating power, gas-puff
// rate, pedestal location) that change over the run.
type DynamicParams struct {
	Time   float32
	Params map[string]float32
}

// Get returns a named dynamic parameter, or def if absent.
func (d DynamicParams) Get(name string, def float32) float32 {
	if v, ok := d.Params[name]; ok {
		return v
	}
	return def
}

// TransportModel computes diffusivities and convection velocity from the
// current profiles and geometry. Implementations must be pure: same
// inputs, same outputs, no hidden globals (spec.md §4.2).
type TransportModel interface {
	ComputeCoefficients(p *profiles.CoreProfiles, g *geom.Geometry, dp DynamicParams) (TransportCoefficients, error)
}

// SourceModel computes source terms and, optionally, per-model power
// accounting metadata.
type SourceModel interface {
	ComputeTermsWithMetadata(p *profiles.CoreProfiles, g *geom.Geometry, dp DynamicParams) (SourceTerms, *SourceMetadata, error)
}

// CompositeSourceModel is the concatenation variant (spec.md §9): it sums
// the terms of every child model and satisfies SourceModel itself, so the
// orchestrator never needs to distinguish "one source" from "several
// sources" at the call site. ComponentMetadata exposes the per-child
// breakdown separately, for diagnostics that want the disaggregated view.
type CompositeSourceModel struct {
	Models []SourceModel
}

// ComputeTermsWithMetadata satisfies SourceModel: it aggregates every
// child's metadata into a single "composite" entry so a
// CompositeSourceModel is itself usable anywhere a SourceModel is
// expected (including as one child of another composite).
func (c *CompositeSourceModel) ComputeTermsWithMetadata(p *profiles.CoreProfiles, g *geom.Geometry, dp DynamicParams) (SourceTerms, *SourceMetadata, error) {
	total, metas, err := c.computeAll(p, g, dp)
	if err != nil {
		return SourceTerms{}, nil, err
	}
	agg := &SourceMetadata{Name: "composite", Category: CategoryOther}
	for _, m := range metas {
		agg.IonPowerMW += m.IonPowerMW
		agg.ElecPowerMW += m.ElecPowerMW
		agg.AlphaPowerMW += m.AlphaPowerMW
		agg.RadPowerMW += m.RadPowerMW
	}
	return total, agg, nil
}

// ComponentMetadata returns every child's own metadata, un-aggregated,
// for power-balance diagnostics that want the per-source breakdown.
func (c *CompositeSourceModel) ComponentMetadata(p *profiles.CoreProfiles, g *geom.Geometry, dp DynamicParams) ([]SourceMetadata, error) {
	_, metas, err := c.computeAll(p, g, dp)
	return metas, err
}

func (c *CompositeSourceModel) computeAll(p *profiles.CoreProfiles, g *geom.Geometry, dp DynamicParams) (SourceTerms, []SourceMetadata, error) {
	n := p.NCells()
	total := zeroSourceTerms(n)
	var metas []SourceMetadata
	for _, m := range c.Models {
		terms, meta, err := m.ComputeTermsWithMetadata(p, g, dp)
		if err != nil {
			return SourceTerms{}, nil, err
		}
		total.addInto(terms)
		if meta != nil {
			metas = append(metas, *meta)
		}
	}
	return total, metas, nil
}
