// Copyright 2026 The Tokasim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package geom

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

func TestNewUniformCircularGeometry(tst *testing.T) {

	chk.PrintTitle("NewUniformCircularGeometry")

	g, err := NewUniformCircularGeometry(25, 6.2, 2.0, 5.3)
	if err != nil {
		tst.Errorf("unexpected error: %v", err)
		return
	}
	chk.IntAssert(g.NCells(), 25)
	chk.IntAssert(g.NFaces(), 26)
	if err := g.Validate(); err != nil {
		tst.Errorf("expected valid geometry, got %v", err)
		return
	}

	// face radii span [0, a]
	chk.Scalar(tst, "RFace[0]", 1e-7, float64(g.RFace[0]), 0)
	chk.Scalar(tst, "RFace[last]", 1e-6, float64(g.RFace[len(g.RFace)-1]), 2.0)

	// cell volumes increase outward (dV = 4 pi^2 R0 r dr, r grows with i)
	for i := 1; i < g.NCells(); i++ {
		if g.CellVolume[i] <= g.CellVolume[i-1] {
			tst.Errorf("expected CellVolume to increase outward, got [%d]=%v <= [%d]=%v", i, g.CellVolume[i], i-1, g.CellVolume[i-1])
			return
		}
	}
}

func TestNewUniformCircularGeometryRejectsBadInputs(tst *testing.T) {

	chk.PrintTitle("NewUniformCircularGeometryRejectsBadInputs")

	if _, err := NewUniformCircularGeometry(1, 6.2, 2.0, 5.3); err == nil {
		tst.Errorf("expected nCells=1 to be rejected as too coarse")
		return
	}
	if _, err := NewUniformCircularGeometry(10, -1, 2.0, 5.3); err == nil {
		tst.Errorf("expected negative R0 to be rejected")
		return
	}
}

func TestComputeSafetyFactorMonotoneFlux(tst *testing.T) {

	chk.PrintTitle("ComputeSafetyFactorMonotoneFlux")

	g, err := NewUniformCircularGeometry(10, 6.2, 2.0, 5.3)
	if err != nil {
		tst.Errorf("unexpected error: %v", err)
		return
	}

	psi := make([]float32, g.NCells())
	for i := range psi {
		psi[i] = float32(i) * 0.1 // monotonically increasing flux, everywhere-positive dpsi/dr
	}

	q := ComputeSafetyFactor(psi, g)
	chk.IntAssert(len(q), g.NCells())
	for i, qi := range q {
		if qi < 0 {
			tst.Errorf("q[%d]=%v must be non-negative", i, qi)
			return
		}
	}

	// q(0.3) ~ 1.0 expected in the sawtooth scenario per spec: with a
	// linearly increasing psi, q should grow outward (r^2 grows faster
	// than the now-constant dpsi/dr).
	if !(q[len(q)-1] > q[1]) {
		tst.Errorf("expected q to grow outward for linear psi, got q[1]=%v q[last]=%v", q[1], q[len(q)-1])
	}
}

func TestStaticGeometryProviderRejectsMismatchedPsi(tst *testing.T) {

	chk.PrintTitle("StaticGeometryProviderRejectsMismatchedPsi")

	base, err := NewUniformCircularGeometry(10, 6.2, 2.0, 5.3)
	if err != nil {
		tst.Errorf("unexpected error: %v", err)
		return
	}
	provider := NewStaticGeometryProvider(base)

	if _, err := provider.Geometry(0, make([]float32, 5)); err == nil {
		tst.Errorf("expected mismatched psi length to be rejected")
		return
	}

	g2, err := provider.Geometry(0, make([]float32, 10))
	if err != nil {
		tst.Errorf("unexpected error: %v", err)
		return
	}
	chk.IntAssert(g2.NCells(), 10)
}
