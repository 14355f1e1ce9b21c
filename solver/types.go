// Copyright 2026 The Tokasim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package solver implements one implicit step of the coupled
// four-equation transport system: a tridiagonal theta-scheme linear
// solve per equation (spec.md §4.3) and a Newton-Raphson wrapper that
// re-evaluates coefficients at the tentative state to pick up nonlinear
// and cross-variable coupling (spec.md §4.4). The Solver interface and
// registry mirror fem/solver.go's allocators map + Solver interface.
package solver

import (
	"github.com/plasma-core/tokasim/coeffs"
	"github.com/plasma-core/tokasim/geom"
	"github.com/plasma-core/tokasim/profiles"
	"github.com/plasma-core/tokasim/simerr"
)

// CoefficientClosure rebuilds Block1DCoeffs at a tentative profile state.
// The Newton solver calls this once per iteration so that
// profile-dependent transport coefficients (e.g. chi ~ 1/ne) and the
// lagged exchange terms in coeffs.ExchangeRate converge to a fully
// implicit treatment (spec.md §4.4).
type CoefficientClosure func(p *profiles.CoreProfiles) (coeffs.Block1DCoeffs, error)

// SolverResult is the contract every Solver returns (spec.md §4.3).
type SolverResult struct {
	UpdatedProfiles *profiles.CoreProfiles
	ResidualNorm    float32
	Iterations      int
	Converged       bool
	Metadata        map[string]float32
}

// Solver is one implicit step of the coupled system.
type Solver interface {
	Name() string
	Step(p *profiles.CoreProfiles, g *geom.Geometry, bc profiles.BoundarySet, closure CoefficientClosure, dt, theta float32) (SolverResult, error)
}

// Config holds tunables shared by the linear and Newton solvers; zero
// values fall back to DefaultConfig.
type Config struct {
	Theta            float32 // default 0.5 (Crank-Nicolson)
	Tol              float32 // Newton residual tolerance, default 1e-6
	TolX             float32 // Newton step tolerance, default 1e-8
	MaxIter          int     // default 20
	MinAlpha         float32 // backtracking floor, default 2^-6
	SMin             float32 // variable scaling floor, default 1e-10
	NCorrectorSteps  int     // Pereverzev-Corriveau corrector steps, default 0 (disabled)
	Verbose          bool
}

// DefaultConfig returns the spec.md §4.3/4.4 defaults.
func DefaultConfig() Config {
	return Config{
		Theta:           0.5,
		Tol:             1e-6,
		TolX:            1e-8,
		MaxIter:         20,
		MinAlpha:        1.0 / 64.0,
		SMin:            1e-10,
		NCorrectorSteps: 0,
	}
}

// Validate checks the tunables are in sane ranges.
func (c Config) Validate() error {
	if c.Theta < 0 || c.Theta > 1 {
		return simerr.New(simerr.InvalidConfiguration, "theta %v must be in [0, 1]", c.Theta)
	}
	if c.MaxIter <= 0 {
		return simerr.New(simerr.InvalidConfiguration, "maxIter %d must be positive", c.MaxIter)
	}
	if c.Tol <= 0 || c.TolX <= 0 {
		return simerr.New(simerr.InvalidConfiguration, "tol/tolX must be positive, got tol=%v tolX=%v", c.Tol, c.TolX)
	}
	return nil
}

var registry = map[string]func(Config) Solver{}

// Register adds a Solver constructor under name.
func Register(name string, allocator func(Config) Solver) {
	registry[name] = allocator
}

// New instantiates a registered Solver by name. "optimizer" is an alias
// for "newton" per spec.md §9's open-question resolution: it is
// configured but not behaviourally distinguished until separately
// specified.
func New(name string, cfg Config) (Solver, error) {
	allocator, ok := registry[name]
	if !ok {
		return nil, simerr.New(simerr.InvalidConfiguration, "solver %q is not registered", name)
	}
	return allocator(cfg), nil
}

func init() {
	Register("linear", func(cfg Config) Solver { return NewLinearSolver(cfg) })
	Register("newton", func(cfg Config) Solver { return NewNewtonSolver(cfg) })
	Register("optimizer", func(cfg Config) Solver { return NewNewtonSolver(cfg) })
}
