// Copyright 2026 The Tokasim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package timestep computes the adaptive CFL/diffusion-bounded dt and
// accumulates simulated time at double precision. Grounded on
// fem/dyncoefs.go's CalcBetas, whose "h < hmin" guard directly informs
// the TimeStepTooSmall error below.
package timestep

import (
	"github.com/plasma-core/tokasim/simerr"
)

// Config holds the adaptive-timestep tunables; defaults match spec.md §4.5.
type Config struct {
	Safety float32 // default 0.9
	DtMin  float32 // default 1e-6 s
	DtMax  float32 // default 1e-2 s
	DtInit float32 // default 1e-5 s, used for the very first step only
}

// DefaultConfig returns the spec.md §4.5 defaults.
func DefaultConfig() Config {
	return Config{Safety: 0.9, DtMin: 1e-6, DtMax: 1e-2, DtInit: 1e-5}
}

// Validate checks the clamp bounds are sane.
func (c Config) Validate() error {
	if c.DtMin <= 0 || c.DtMax <= 0 || c.DtMin > c.DtMax {
		return simerr.New(simerr.InvalidConfiguration, "invalid dt bounds: dtMin=%v dtMax=%v", c.DtMin, c.DtMax)
	}
	if c.Safety <= 0 || c.Safety > 1 {
		return simerr.New(simerr.InvalidConfiguration, "safety factor %v must be in (0, 1]", c.Safety)
	}
	if c.DtInit <= 0 {
		return simerr.New(simerr.InvalidConfiguration, "dtInit %v must be positive", c.DtInit)
	}
	return nil
}

const epsDiffusivity = 1e-12

// Calculator computes the adaptive dt from cell-centered transport
// coefficients and the uniform cell width dr.
type Calculator struct {
	cfg Config
}

// NewCalculator validates cfg and returns a Calculator.
func NewCalculator(cfg Config) (*Calculator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{cfg: cfg}, nil
}

// Next returns dt for the step following firstStep==true iff this is the
// very first step of the run, in which case Config.DtInit is returned
// unconditionally.
//
//	dt_diff = 0.5 * dr^2 / max(chiI, chiE, D, eps)
//	dt      = clamp(safety * dt_diff, dtMin, dtMax)
func (c *Calculator) Next(dr float32, chiI, chiE, d []float32, firstStep bool) (float32, error) {
	if firstStep {
		return c.cfg.DtInit, nil
	}
	maxDiff := epsDiffusivity
	for _, arr := range [][]float32{chiI, chiE, d} {
		for _, v := range arr {
			if float64(v) > maxDiff {
				maxDiff = float64(v)
			}
		}
	}
	dtDiff := 0.5 * float64(dr) * float64(dr) / maxDiff
	dt := float32(c.cfg.Safety) * float32(dtDiff)
	if dt < c.cfg.DtMin {
		dt = c.cfg.DtMin
	}
	if dt > c.cfg.DtMax {
		dt = c.cfg.DtMax
	}
	if dt < c.cfg.DtMin {
		return 0, simerr.New(simerr.TimeStepTooSmall, "computed dt=%v is below dtMin=%v", dt, c.cfg.DtMin)
	}
	return dt, nil
}

// Halve returns dt/2, used by the orchestrator's retry-on-failure policy
// (spec.md §4.5); it is an error to halve below dtMin, surfaced so the
// orchestrator can stop retrying and report ConvergenceFailure instead.
func (c *Calculator) Halve(dt float32) (float32, error) {
	half := dt / 2
	if half < c.cfg.DtMin {
		return 0, simerr.New(simerr.TimeStepTooSmall, "halved dt=%v is below dtMin=%v", half, c.cfg.DtMin)
	}
	return half, nil
}
