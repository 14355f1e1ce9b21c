// Copyright 2026 The Tokasim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package timestep

import (
	"math"

	"github.com/plasma-core/tokasim/simerr"
)

// Accumulator is the double-precision time accumulator that is the one
// deliberate exception to tokasim's otherwise float32 compute path
// (spec.md §4.6): over 20000 steps this bounds cumulative round-off at
// ~1e-12s versus ~2e-3s for naive float32 accumulation.
type Accumulator struct {
	value float64
}

// Value returns the accumulated time as float64.
func (a *Accumulator) Value() float64 { return a.value }

// Time returns the publicly exposed single-precision view of the
// accumulator.
func (a *Accumulator) Time() float32 { return float32(a.value) }

// Add accumulates dt, which must be finite and non-negative; violating
// that is a fatal programming error (spec.md §4.6), not a recoverable
// condition, so Add panics rather than returning an error.
func (a *Accumulator) Add(dt float32) {
	f := float64(dt)
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		panic(simerr.New(simerr.NumericInstability, "time accumulator received non-finite or negative dt=%v", dt))
	}
	a.value += f
}
