// Copyright 2026 The Tokasim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

import (
	"math"

	"github.com/plasma-core/tokasim/coeffs"
	"github.com/plasma-core/tokasim/geom"
	"github.com/plasma-core/tokasim/profiles"
	"github.com/plasma-core/tokasim/simerr"
)

// LinearSolver solves one implicit theta-scheme step per equation,
// independently, via a tridiagonal (Thomas) elimination. Cross-variable
// coupling is folded into each equation's SourceMatCell/SourceCell by
// coeffs.Assembler before the solve runs (spec.md §4.3); gofem's general
// sparse solver (gosl/la.LinSol) is not used here because the matrix is
// already known to be tridiagonal per equation and a hand-rolled
// elimination is both simpler and allocation-free per step.
type LinearSolver struct {
	cfg Config
}

// NewLinearSolver returns a LinearSolver with cfg (zero fields fall back
// to DefaultConfig's theta).
func NewLinearSolver(cfg Config) *LinearSolver {
	if cfg.Theta == 0 {
		cfg.Theta = DefaultConfig().Theta
	}
	return &LinearSolver{cfg: cfg}
}

func (s *LinearSolver) Name() string { return "linear" }

// Step builds Block1DCoeffs via closure once (no Newton re-evaluation),
// solves each of the four equations' tridiagonal systems, and optionally
// runs the Pereverzev-Corriveau fixed-point corrector.
func (s *LinearSolver) Step(p *profiles.CoreProfiles, g *geom.Geometry, bc profiles.BoundarySet, closure CoefficientClosure, dt, theta float32) (SolverResult, error) {
	if theta == 0 {
		theta = s.cfg.Theta
	}
	coef, err := closure(p)
	if err != nil {
		return SolverResult{}, err
	}
	next, err := solveBlock(p, coef, bc, dt, theta)
	if err != nil {
		return SolverResult{}, err
	}

	for i := 0; i < s.cfg.NCorrectorSteps; i++ {
		coef, err = closure(next)
		if err != nil {
			return SolverResult{}, err
		}
		next, err = solveBlock(p, coef, bc, dt, theta)
		if err != nil {
			return SolverResult{}, err
		}
	}

	if !next.IsValid() {
		return SolverResult{}, simerr.New(simerr.NumericInstability, "linear step produced a non-finite or non-positive profile")
	}
	return SolverResult{
		UpdatedProfiles: next,
		ResidualNorm:    0,
		Iterations:      1,
		Converged:       true,
		Metadata:        map[string]float32{"correctorSteps": float32(s.cfg.NCorrectorSteps)},
	}, nil
}

// solveBlock solves Ti, Te, ne and psi's independent tridiagonal systems
// against the shared coefficients and boundary set.
func solveBlock(p *profiles.CoreProfiles, coef coeffs.Block1DCoeffs, bc profiles.BoundarySet, dt, theta float32) (*profiles.CoreProfiles, error) {
	out := p.Clone()
	var err error
	if out.Ti, err = solveEquation(p.Ti, coef.Ti, coef.Geometry, bc.Ti, dt, theta); err != nil {
		return nil, simerr.Wrap(simerr.NumericInstability, err, "Ti equation")
	}
	if out.Te, err = solveEquation(p.Te, coef.Te, coef.Geometry, bc.Te, dt, theta); err != nil {
		return nil, simerr.Wrap(simerr.NumericInstability, err, "Te equation")
	}
	if out.Ne, err = solveEquation(p.Ne, coef.Ne, coef.Geometry, bc.Ne, dt, theta); err != nil {
		return nil, simerr.Wrap(simerr.NumericInstability, err, "ne equation")
	}
	if out.Psi, err = solveEquation(p.Psi, coef.Psi, coef.Geometry, bc.Psi, dt, theta); err != nil {
		return nil, simerr.Wrap(simerr.NumericInstability, err, "psi equation")
	}
	out.Ne = profiles.FloorDensity(out.Ne)
	return out, nil
}

// solveEquation builds and eliminates the tridiagonal operator A(x)x=b(x)
// (see buildTridiagonal) via Thomas elimination.
func solveEquation(xOld []float32, eq coeffs.EquationCoeffs, gf coeffs.GeometricFactors, bc profiles.BoundaryCondition, dt, theta float32) ([]float32, error) {
	lower, diag, upper, rhs := buildTridiagonal(xOld, eq, gf, bc, dt, theta)
	return thomas(lower, diag, upper, rhs)
}

// equationResidual evaluates R(x) = A(x)*x - b(x), the per-cell algebraic
// residual of the same tridiagonal operator buildTridiagonal assembles,
// at an arbitrary trial state x rather than at the system's own exact
// solution (spec.md §4.4 point 2). Used by the Newton solver to judge
// convergence and backtracking on the actual equation residual instead
// of on the state vector itself.
func equationResidual(xOld []float32, eq coeffs.EquationCoeffs, gf coeffs.GeometricFactors, bc profiles.BoundaryCondition, dt, theta float32, x []float32) []float32 {
	lower, diag, upper, rhs := buildTridiagonal(xOld, eq, gf, bc, dt, theta)
	n := len(x)
	res := make([]float32, n)
	for i := 0; i < n; i++ {
		res[i] = diag[i]*x[i] - rhs[i]
		if i > 0 {
			res[i] += lower[i] * x[i-1]
		}
		if i < n-1 {
			res[i] += upper[i] * x[i+1]
		}
	}
	return res
}

// buildTridiagonal assembles the implicit theta-scheme operator
//
//	M(x) = transient_in * x/dt - theta*(D+ * x - D0 * x + D- * x) - theta*source_mat*x = RHS
//
// where D+/D-/D0 are the face-diffusion-and-convection contributions
// (spec.md §4.3) and RHS carries the explicit (t=t_n) side plus the
// boundary terms from bc.
func buildTridiagonal(xOld []float32, eq coeffs.EquationCoeffs, gf coeffs.GeometricFactors, bc profiles.BoundaryCondition, dt, theta float32) (lower, diag, upper, rhs []float32) {
	n := len(xOld)
	lower = make([]float32, n)
	diag = make([]float32, n)
	upper = make([]float32, n)
	rhs = make([]float32, n)

	dist := func(i int) float32 {
		// distance associated with face i (i=0 and i=n are boundary
		// faces; both reuse the center-to-center distance of the nearest
		// interior face, which on the uniform mesh is dr).
		switch {
		case i == 0:
			return gf.CellDistances[0]
		case i == n:
			return gf.CellDistances[n-2]
		default:
			return gf.CellDistances[i-1]
		}
	}

	for i := 0; i < n; i++ {
		volOverDt := eq.TransientInCell[i] / dt
		diag[i] = volOverDt - theta*eq.SourceMatCell[i]
		rhs[i] = eq.TransientOutCell[i] * xOld[i] / dt

		// right face i+1
		dR := dist(i + 1)
		gDiffR := eq.DFace[i+1] * gf.FaceArea[i+1] / dR
		gConvR := eq.VFace[i+1] * gf.FaceArea[i+1]
		// left face i
		dL := dist(i)
		gDiffL := eq.DFace[i] * gf.FaceArea[i] / dL
		gConvL := eq.VFace[i] * gf.FaceArea[i]

		invVol := 1 / gf.CellVolume[i]

		if i < n-1 {
			coefRight := (gDiffR + 0.5*gConvR) * invVol
			diag[i] += theta * coefRight
			upper[i] = -theta * coefRight
			rhs[i] += (1 - theta) * coefRight * (xOld[i+1] - xOld[i])
		} else if bc.Right.Kind == profiles.Dirichlet {
			coefRight := (gDiffR + 0.5*gConvR) * invVol
			diag[i] += theta * coefRight
			rhs[i] += theta*coefRight*bc.Right.Value + (1-theta)*coefRight*(bc.Right.Value-xOld[i])
		} else {
			// Neumann: bc.Right.Value is the prescribed d(x)/drho at the
			// face (geom.CellVariable's convention); it enters the RHS
			// directly as a diffusive flux, no matrix contribution.
			rhs[i] += eq.DFace[n] * bc.Right.Value * gf.FaceArea[n] * invVol
		}

		if i > 0 {
			coefLeft := (gDiffL + 0.5*gConvL) * invVol
			diag[i] += theta * coefLeft
			lower[i] = -theta * coefLeft
			rhs[i] += (1 - theta) * coefLeft * (xOld[i-1] - xOld[i])
		} else if bc.Left.Kind == profiles.Dirichlet {
			coefLeft := (gDiffL + 0.5*gConvL) * invVol
			diag[i] += theta * coefLeft
			rhs[i] += theta*coefLeft*bc.Left.Value + (1-theta)*coefLeft*(bc.Left.Value-xOld[i])
		} else {
			rhs[i] += -eq.DFace[0] * bc.Left.Value * gf.FaceArea[0] * invVol
		}

		rhs[i] += eq.SourceCell[i] + (1-theta)*eq.SourceMatCell[i]*xOld[i]
	}

	return lower, diag, upper, rhs
}

// thomas is the standard tridiagonal (Thomas) elimination: forward sweep
// eliminates the sub-diagonal, back substitution recovers x. Fails with
// NumericInstability on a zero or non-finite pivot or a non-finite result.
func thomas(lower, diag, upper, rhs []float32) ([]float32, error) {
	n := len(diag)
	cPrime := make([]float32, n)
	dPrime := make([]float32, n)

	if diag[0] == 0 {
		return nil, simerr.New(simerr.NumericInstability, "zero pivot at cell 0")
	}
	cPrime[0] = upper[0] / diag[0]
	dPrime[0] = rhs[0] / diag[0]

	for i := 1; i < n; i++ {
		m := diag[i] - lower[i]*cPrime[i-1]
		if m == 0 || !finite32(m) {
			return nil, simerr.New(simerr.NumericInstability, "zero or non-finite pivot at cell %d", i)
		}
		if i < n-1 {
			cPrime[i] = upper[i] / m
		}
		dPrime[i] = (rhs[i] - lower[i]*dPrime[i-1]) / m
	}

	x := make([]float32, n)
	x[n-1] = dPrime[n-1]
	for i := n - 2; i >= 0; i-- {
		x[i] = dPrime[i] - cPrime[i]*x[i+1]
	}
	for _, v := range x {
		if !finite32(v) {
			return nil, simerr.New(simerr.NumericInstability, "non-finite solution entry")
		}
	}
	return x, nil
}

func finite32(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
