// Copyright 2026 The Tokasim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package geom implements the array and geometry primitives the transport
// solver assembles coefficients against: cell volumes, face areas,
// cell/face radii, the g0..g3 geometric weighting factors, the safety
// factor, and the CellVariable abstraction used to extract face values and
// gradients from a profile under Dirichlet-or-Neumann boundary data.
//
// Only uniform radial grids are supported; every dr usage below assumes a
// constant cell width (spec.md §9, REDESIGN FLAGS: non-uniform grids are a
// future concern, not implemented here).
package geom

import (
	"math"

	"github.com/cpmech/gosl/utl"

	"github.com/plasma-core/tokasim/simerr"
)

// epsQDenom floors the |dψ/dρ| denominator in the safety-factor formula so
// a flat flux profile never produces a divide-by-zero.
const epsQDenom = 1e-6

// Geometry is the immutable-per-step bundle of machine and plasma-shape
// quantities the rest of the engine assembles against. A Geometry is
// produced fresh by a GeometryProvider at every simulated time; nothing in
// the engine mutates one in place.
type Geometry struct {
	// scalars
	R0   float32 // major radius [m]
	A    float32 // minor radius [m]
	Btor float32 // toroidal field at R0 [T]
	Dr   float32 // uniform cell width in normalized rho

	// cell arrays, length nCells
	RhoCell       []float32 // normalized radial coordinate at cell centers
	RCell         []float32 // physical minor radius at cell centers [m]
	CellVolume    []float32 // [m^3]
	SafetyFactor  []float32 // q(rho), dimensionless
	Radii         []float32 // alias of RCell kept for data-model parity with spec.md §3

	// face arrays, length nCells+1
	RhoFace  []float32
	RFace    []float32
	FaceArea []float32 // [m^2]
	G0       []float32 // flux-surface geometric weight, dimensionless
	G1       []float32 // flux-surface geometric weight, dimensionless
	G2       []float32 // flux-surface geometric weight, dimensionless
	G3       []float32 // flux-surface geometric weight, dimensionless
}

// NCells returns the number of cells.
func (g *Geometry) NCells() int { return len(g.RhoCell) }

// NFaces returns the number of faces; always NCells()+1.
func (g *Geometry) NFaces() int { return len(g.RhoFace) }

// Validate checks the shape invariant nFaces = nCells+1 and that every
// array is the length its role demands.
func (g *Geometry) Validate() error {
	nc := g.NCells()
	nf := nc + 1
	lens := map[string]int{
		"RCell": len(g.RCell), "CellVolume": len(g.CellVolume),
		"SafetyFactor": len(g.SafetyFactor), "Radii": len(g.Radii),
	}
	for name, l := range lens {
		if l != nc {
			return simerr.New(simerr.InvalidConfiguration, "geometry cell array %s has length %d, want %d", name, l, nc)
		}
	}
	flens := map[string]int{
		"RhoFace": len(g.RhoFace), "RFace": len(g.RFace), "FaceArea": len(g.FaceArea),
		"G0": len(g.G0), "G1": len(g.G1), "G2": len(g.G2), "G3": len(g.G3),
	}
	for name, l := range flens {
		if l != nf {
			return simerr.New(simerr.InvalidConfiguration, "geometry face array %s has length %d, want %d", name, l, nf)
		}
	}
	return nil
}

// NewUniformCircularGeometry builds a Geometry on a uniform normalized-rho
// mesh assuming a simplified large-aspect-ratio circular cross section.
// Volumes and face areas use the cylindrical-shell approximation dV = 4π²
// R0 r dr; the g0..g3 weights reduce to their circular-cross-section limit
// (g0=1, g1=g2=g3=r/a so the diffusion/convection geometric weighting
// g1/g0 grows linearly with minor radius, matching the flux-surface
// expansion of a circular torus).
func NewUniformCircularGeometry(nCells int, r0, a, btor float32) (*Geometry, error) {
	if nCells < 2 {
		return nil, simerr.New(simerr.MeshTooCoarse, "nCells=%d is too coarse; need at least 2 cells", nCells)
	}
	if r0 <= 0 || a <= 0 {
		return nil, simerr.New(simerr.InvalidConfiguration, "R0=%v and a=%v must be positive", r0, a)
	}
	dr := float32(1.0) / float32(nCells)
	g := &Geometry{R0: r0, A: a, Btor: btor, Dr: dr}

	nFaces := nCells + 1
	rhoFace64 := utl.LinSpace(0, 1, nFaces) // normalized rho in [0, 1] at every face
	g.RhoFace = make([]float32, nFaces)
	g.RFace = make([]float32, nFaces)
	g.FaceArea = make([]float32, nFaces)
	g.G0 = make([]float32, nFaces)
	g.G1 = make([]float32, nFaces)
	g.G2 = make([]float32, nFaces)
	g.G3 = make([]float32, nFaces)
	for i := 0; i < nFaces; i++ {
		rho := float32(rhoFace64[i])
		r := rho * a
		g.RhoFace[i] = rho
		g.RFace[i] = r
		g.FaceArea[i] = 4 * math.Pi * math.Pi * r0 * r // [m^2], toroidal flux-surface area at minor radius r
		g.G0[i] = 1
		weight := rho
		if weight < 1e-6 {
			weight = 1e-6 // avoid a zero geometric weight pinning the axis face to zero diffusion
		}
		g.G1[i] = weight
		g.G2[i] = weight
		g.G3[i] = weight
	}

	g.RhoCell = make([]float32, nCells)
	g.RCell = make([]float32, nCells)
	g.Radii = make([]float32, nCells)
	g.CellVolume = make([]float32, nCells)
	g.SafetyFactor = make([]float32, nCells)
	for i := 0; i < nCells; i++ {
		rho := (g.RhoFace[i] + g.RhoFace[i+1]) / 2
		g.RhoCell[i] = rho
		g.RCell[i] = rho * a
		g.Radii[i] = g.RCell[i]
		g.CellVolume[i] = cylindricalShellVolume(r0, rho*a, dr*a)
		g.SafetyFactor[i] = 1 // overwritten once ψ is known; see ComputeSafetyFactor
	}
	return g, nil
}

func cylindricalShellVolume(r0, r, dr float32) float32 {
	return float32(4*math.Pi*math.Pi) * r0 * r * dr
}

// ComputeSafetyFactor derives q(rho) on cells from the poloidal flux profile
// using the large-aspect-ratio cylindrical approximation
//
//	q(r) = Btor * r^2 / (R0 * dψ/dr)
//
// This is the one formula in the core that is not an external collaborator
// contract: safety factor is geometry, not a pluggable physics closure
// (spec.md §3), so the core must compute it itself from whatever ψ the
// solver produced. It is a deliberately simplified proxy, consistent with
// spec.md §9's note that current/ψ handling throughout this engine is
// simplified. The near-axis value is unreliable (r^2 -> 0) so it is
// replaced by linear extrapolation from the next two cells.
func ComputeSafetyFactor(psi []float32, g *Geometry) []float32 {
	n := len(psi)
	q := make([]float32, n)
	dr := g.Dr * g.A
	for i := 0; i < n; i++ {
		var dpsidr float32
		switch {
		case n == 1:
			dpsidr = epsQDenom
		case i == 0:
			dpsidr = (psi[1] - psi[0]) / dr
		case i == n-1:
			dpsidr = (psi[n-1] - psi[n-2]) / dr
		default:
			dpsidr = (psi[i+1] - psi[i-1]) / (2 * dr)
		}
		if float32(math.Abs(float64(dpsidr))) < epsQDenom {
			if dpsidr < 0 {
				dpsidr = -epsQDenom
			} else {
				dpsidr = epsQDenom
			}
		}
		r := g.RCell[i]
		qi := (g.Btor * r * r) / (g.R0 * dpsidr)
		if qi < 0 {
			qi = -qi
		}
		q[i] = qi
	}
	if n > 2 {
		q[0] = 2*q[1] - q[2]
		if q[0] < 0 {
			q[0] = q[1]
		}
	}
	return q
}

// WithSafetyFactor returns a shallow copy of g with SafetyFactor replaced;
// used by the orchestrator after each solve to refresh q from the updated
// ψ before handing geometry to the MHD trigger.
func (g *Geometry) WithSafetyFactor(q []float32) *Geometry {
	cp := *g
	cp.SafetyFactor = q
	return &cp
}

// GeometryProvider produces a fresh Geometry at a given simulated time and
// flux profile. Geometry may be time-dependent (e.g. a ramping major
// radius in a scenario study); the common case is a fixed machine shape
// whose safety factor alone changes every step.
type GeometryProvider interface {
	Geometry(time float32, psi []float32) (*Geometry, error)
}

// StaticGeometryProvider serves a fixed machine shape, recomputing only
// the safety factor from the supplied ψ on every call.
type StaticGeometryProvider struct {
	base *Geometry
}

// NewStaticGeometryProvider wraps a fixed base Geometry.
func NewStaticGeometryProvider(base *Geometry) *StaticGeometryProvider {
	return &StaticGeometryProvider{base: base}
}

func (p *StaticGeometryProvider) Geometry(time float32, psi []float32) (*Geometry, error) {
	if len(psi) != p.base.NCells() {
		return nil, simerr.New(simerr.InvalidConfiguration, "psi has length %d, geometry expects %d cells", len(psi), p.base.NCells())
	}
	q := ComputeSafetyFactor(psi, p.base)
	return p.base.WithSafetyFactor(q), nil
}
