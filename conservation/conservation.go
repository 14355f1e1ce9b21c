// Copyright 2026 The Tokasim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package conservation implements the multi-law, interval-triggered
// projector that restores reference invariants via multiplicative profile
// rescaling (spec.md §4.7). The factory-registry shape (Register/New) is
// lifted from mdl/diffusion/model.go's allocators map + New(name).
package conservation

import (
	"math"

	"github.com/plasma-core/tokasim/geom"
	"github.com/plasma-core/tokasim/profiles"
	"github.com/plasma-core/tokasim/simerr"
)

// Law is one conservation law: a volume-integrated quantity, a
// correction factor, and the profile rescaling that applies it.
type Law interface {
	Name() string
	Description() string
	ComputeQuantity(p *profiles.CoreProfiles, g *geom.Geometry) float32
	ApplyCorrection(p *profiles.CoreProfiles, factor float32) *profiles.CoreProfiles
	// ToleranceFraction is the relative-drift threshold that triggers a
	// correction (e.g. 0.005 for particle number).
	ToleranceFraction() float32
}

var registry = map[string]func() Law{}

// Register adds a Law constructor under name.
func Register(name string, allocator func() Law) {
	registry[name] = allocator
}

// New instantiates a registered Law by name.
func New(name string) (Law, error) {
	allocator, ok := registry[name]
	if !ok {
		return nil, simerr.New(simerr.InvalidConfiguration, "conservation law %q is not registered", name)
	}
	return allocator(), nil
}

func init() {
	Register("particle", func() Law { return &ParticleNumber{} })
	Register("energy", func() Law { return &ThermalEnergy{} })
	Register("flux", func() Law { return &PoloidalFluxProxy{} })
}

// CorrectionFactor computes reference/current, clamped to [0.8, 1.2] per
// spec.md §4.7; returns 1.0 (no correction) if either input is
// non-positive or non-finite.
func CorrectionFactor(current, reference float32) float32 {
	if current <= 0 || reference <= 0 || !finite(current) || !finite(reference) {
		return 1.0
	}
	factor := reference / current
	if factor < 0.8 {
		factor = 0.8
	}
	if factor > 1.2 {
		factor = 1.2
	}
	return factor
}

func finite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Result records one law's enforcement outcome at one step.
type Result struct {
	Law       string
	Reference float32
	Current   float32
	Drift     float32
	Factor    float32
	Corrected bool
	Step      int
	Time      float32
}

// VolumeIntegral sums values[i] * cellVolume[i] over the mesh.
func VolumeIntegral(values, cellVolume []float32) float32 {
	var sum float32
	for i, v := range values {
		sum += v * cellVolume[i]
	}
	return sum
}
