// Copyright 2026 The Tokasim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inp

import "github.com/plasma-core/tokasim/profiles"

// InitialProfileConfig seeds the four evolved variables with simple
// parabolic-like radial shapes: center*  (1 - (1-edge/center) * rho^2),
// the common first-cut tokamak initial-condition shape, cheap to specify
// from a handful of scalars rather than requiring a full per-cell array in
// the configuration file.
type InitialProfileConfig struct {
	TiCenter  float32 `json:"tiCenter"`
	TiEdge    float32 `json:"tiEdge"`
	TeCenter  float32 `json:"teCenter"`
	TeEdge    float32 `json:"teEdge"`
	NeCenter  float32 `json:"neCenter"`
	NeEdge    float32 `json:"neEdge"`
	PsiCenter float32 `json:"psiCenter"`
	PsiEdge   float32 `json:"psiEdge"`
}

// Build materializes the parabolic shapes onto nCells cells spaced
// uniformly in normalized rho over [0, 1], matching geom.NewUniformCircularGeometry's
// cell centers.
func (c InitialProfileConfig) Build(nCells int) *profiles.CoreProfiles {
	p := &profiles.CoreProfiles{
		Ti:  make([]float32, nCells),
		Te:  make([]float32, nCells),
		Ne:  make([]float32, nCells),
		Psi: make([]float32, nCells),
	}
	dr := float32(1) / float32(nCells)
	for i := 0; i < nCells; i++ {
		rho := (float32(i) + 0.5) * dr
		shape := 1 - rho*rho
		p.Ti[i] = c.TiEdge + (c.TiCenter-c.TiEdge)*shape
		p.Te[i] = c.TeEdge + (c.TeCenter-c.TeEdge)*shape
		p.Ne[i] = c.NeEdge + (c.NeCenter-c.NeEdge)*shape
		// psi grows monotonically outward from the axis; the shape above
		// would invert that, so psi instead uses the complementary ramp.
		p.Psi[i] = c.PsiCenter + (c.PsiEdge-c.PsiCenter)*(1-shape)
	}
	return p
}
