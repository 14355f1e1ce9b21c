// Copyright 2026 The Tokasim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coeffs

import (
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/plasma-core/tokasim/geom"
	"github.com/plasma-core/tokasim/models"
	"github.com/plasma-core/tokasim/profiles"
)

func TestAssembleShapeInvariants(tst *testing.T) {

	chk.PrintTitle("AssembleShapeInvariants")

	n := 10
	g, err := geom.NewUniformCircularGeometry(n, 6.2, 2.0, 5.3)
	if err != nil {
		tst.Errorf("unexpected error: %v", err)
		return
	}
	p := &profiles.CoreProfiles{Ti: make([]float32, n), Te: make([]float32, n), Ne: make([]float32, n), Psi: make([]float32, n)}
	for i := 0; i < n; i++ {
		p.Ti[i], p.Te[i], p.Ne[i] = 1000, 900, 1e19
	}
	tc := models.TransportCoefficients{ChiI: fillF(n, 1), ChiE: fillF(n, 1.2), D: fillF(n, 0.5), V: fillF(n, 0.1)}
	st := models.SourceTerms{IonHeatingMW: fillF(n, 1), ElecHeatingMW: fillF(n, 2), ParticleSrc: fillF(n, 1e17), CurrentSrc: fillF(n, 0)}

	a := NewAssembler()
	block, err := a.Assemble(p, g, tc, st, nil)
	if err != nil {
		tst.Errorf("unexpected error: %v", err)
		return
	}
	if err := block.Validate(n); err != nil {
		tst.Errorf("expected valid Block1DCoeffs, got %v", err)
		return
	}
	chk.IntAssert(len(block.Ti.DFace), n+1)
	chk.IntAssert(len(block.Ne.SourceCell), n)
}

func TestAssembleStatelessRepeatability(tst *testing.T) {

	chk.PrintTitle("AssembleStatelessRepeatability")

	n := 6
	g, err := geom.NewUniformCircularGeometry(n, 6.2, 2.0, 5.3)
	if err != nil {
		tst.Errorf("unexpected error: %v", err)
		return
	}
	p := &profiles.CoreProfiles{Ti: fillF(n, 1000), Te: fillF(n, 900), Ne: fillF(n, 1e19), Psi: fillF(n, 0)}
	tc := models.TransportCoefficients{ChiI: fillF(n, 1), ChiE: fillF(n, 1), D: fillF(n, 1), V: fillF(n, 0)}
	st := models.SourceTerms{IonHeatingMW: fillF(n, 0), ElecHeatingMW: fillF(n, 0), ParticleSrc: fillF(n, 0), CurrentSrc: fillF(n, 0)}

	a := NewAssembler()
	b1, err := a.Assemble(p, g, tc, st, nil)
	if err != nil {
		tst.Errorf("unexpected error: %v", err)
		return
	}
	b2, err := a.Assemble(p, g, tc, st, nil)
	if err != nil {
		tst.Errorf("unexpected error: %v", err)
		return
	}
	chk.Array(tst, "DFace repeatable", 1e-12, toF64(b1.Ti.DFace), toF64(b2.Ti.DFace))
}

func TestApplyExchangeCouplesTiTe(tst *testing.T) {

	chk.PrintTitle("ApplyExchangeCouplesTiTe")

	n := 4
	g, err := geom.NewUniformCircularGeometry(n, 6.2, 2.0, 5.3)
	if err != nil {
		tst.Errorf("unexpected error: %v", err)
		return
	}
	p := &profiles.CoreProfiles{Ti: []float32{1200, 1200, 1200, 1200}, Te: []float32{800, 800, 800, 800}, Ne: fillF(n, 1e19), Psi: fillF(n, 0)}
	tc := models.TransportCoefficients{ChiI: fillF(n, 1), ChiE: fillF(n, 1), D: fillF(n, 1), V: fillF(n, 0)}
	st := models.SourceTerms{IonHeatingMW: fillF(n, 0), ElecHeatingMW: fillF(n, 0), ParticleSrc: fillF(n, 0), CurrentSrc: fillF(n, 0)}
	exchange := ExchangeRate(fillF(n, 0.5))

	a := NewAssembler()
	block, err := a.Assemble(p, g, tc, st, exchange)
	if err != nil {
		tst.Errorf("unexpected error: %v", err)
		return
	}
	// ion equation's source_mat_cell carries -rate (implicit self-term)
	for _, v := range block.Ti.SourceMatCell {
		chk.Scalar(tst, "Ti.SourceMatCell", 1e-9, float64(v), -0.5)
	}
	// ion equation's source_cell carries rate*Te (explicit coupling term)
	for _, v := range block.Ti.SourceCell {
		chk.Scalar(tst, "Ti.SourceCell exchange contribution", 1e-6, float64(v), 0.5*800)
	}
}

func fillF(n int, v float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func toF64(s []float32) []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		out[i] = float64(v)
	}
	return out
}
