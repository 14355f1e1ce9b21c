// Copyright 2026 The Tokasim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package models

import (
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/plasma-core/tokasim/geom"
	"github.com/plasma-core/tokasim/profiles"
)

func sampleGeomProfiles(n int) (*geom.Geometry, *profiles.CoreProfiles) {
	g, err := geom.NewUniformCircularGeometry(n, 6.2, 2.0, 5.3)
	if err != nil {
		panic(err)
	}
	p := &profiles.CoreProfiles{Ti: make([]float32, n), Te: make([]float32, n), Ne: make([]float32, n), Psi: make([]float32, n)}
	for i := 0; i < n; i++ {
		p.Ti[i], p.Te[i], p.Ne[i] = 1000, 900, 1e19
	}
	return g, p
}

func TestNewTransportRegistry(tst *testing.T) {

	chk.PrintTitle("NewTransportRegistry")

	m, err := NewTransport("constant", map[string]float32{"chiI": 1.5, "chiE": 2.0, "D": 0.5, "V": 0.1})
	if err != nil {
		tst.Errorf("unexpected error: %v", err)
		return
	}
	g, p := sampleGeomProfiles(5)
	tc, err := m.ComputeCoefficients(p, g, DynamicParams{})
	if err != nil {
		tst.Errorf("unexpected error: %v", err)
		return
	}
	for i, v := range tc.ChiI {
		chk.Scalar(tst, "ChiI uniform", 1e-9, float64(v), 1.5)
		_ = i
	}

	if _, err := NewTransport("nonexistent", nil); err == nil {
		tst.Errorf("expected unregistered transport model to error")
	}
}

func TestInverseDensityTransportModel(tst *testing.T) {

	chk.PrintTitle("InverseDensityTransportModel")

	g, p := sampleGeomProfiles(3)
	p.Ne = []float32{1e19, 2e19, 4e19}
	m := InverseDensityTransportModel{ChiCoeff: 2e19, D: 0, V: 0}
	tc, err := m.ComputeCoefficients(p, g, DynamicParams{})
	if err != nil {
		tst.Errorf("unexpected error: %v", err)
		return
	}
	// chi = ChiCoeff / ne, so doubling ne halves chi.
	chk.Scalar(tst, "chi[0]", 1e-6, float64(tc.ChiI[0]), 2.0)
	chk.Scalar(tst, "chi[1]", 1e-6, float64(tc.ChiI[1]), 1.0)
	chk.Scalar(tst, "chi[2]", 1e-6, float64(tc.ChiI[2]), 0.5)
}

func TestCompositeSourceModelSumsChildren(tst *testing.T) {

	chk.PrintTitle("CompositeSourceModelSumsChildren")

	g, p := sampleGeomProfiles(4)
	a := ConstantSourceModel{Name: "heating", Category: CategoryAuxiliary, IonHeatingMW: 1.0, ElecHeatingMW: 2.0}
	b := ConstantSourceModel{Name: "fusion", Category: CategoryFusion, IonHeatingMW: 0.5, ElecHeatingMW: 0.5, ParticleSrc: 1e17}
	comp := &CompositeSourceModel{Models: []SourceModel{a, b}}

	terms, meta, err := comp.ComputeTermsWithMetadata(p, g, DynamicParams{})
	if err != nil {
		tst.Errorf("unexpected error: %v", err)
		return
	}
	for i := range terms.IonHeatingMW {
		chk.Scalar(tst, "summed ion heating", 1e-6, float64(terms.IonHeatingMW[i]), 1.5)
	}
	if meta.Name != "composite" {
		tst.Errorf("expected aggregated metadata name 'composite', got %q", meta.Name)
	}

	components, err := comp.ComponentMetadata(p, g, DynamicParams{})
	if err != nil {
		tst.Errorf("unexpected error: %v", err)
		return
	}
	chk.IntAssert(len(components), 2)
}

func TestDynamicParamsGetDefault(tst *testing.T) {

	chk.PrintTitle("DynamicParamsGetDefault")

	dp := DynamicParams{Params: map[string]float32{"auxPowerMW": 5}}
	chk.Scalar(tst, "present key", 1e-9, float64(dp.Get("auxPowerMW", 0)), 5)
	chk.Scalar(tst, "absent key falls back to default", 1e-9, float64(dp.Get("missing", 42)), 42)
}
