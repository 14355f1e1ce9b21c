// Copyright 2026 The Tokasim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mhd implements the MHD event sub-system: a Porcelli-style
// sawtooth trigger and a Kadomtsev-style flattening-plus-conservation
// redistribution (spec.md §4.8). The factory-registry shape mirrors
// conservation.Register/New, so a future ELM or NTM model has a slot
// without the orchestrator changing.
package mhd

import (
	"github.com/plasma-core/tokasim/geom"
	"github.com/plasma-core/tokasim/profiles"
	"github.com/plasma-core/tokasim/simerr"
)

// Model is one MHD event model: given the current state and proposed dt,
// it may trigger and mutate profiles (preserving the invariants it
// claims to preserve).
type Model interface {
	Name() string
	MaybeTrigger(p *profiles.CoreProfiles, g *geom.Geometry, dt float32) (*profiles.CoreProfiles, TriggerInfo, error)
}

var registry = map[string]func(Config) Model{}

// Register adds a Model constructor under name.
func Register(name string, allocator func(Config) Model) {
	registry[name] = allocator
}

// New instantiates a registered Model by name.
func New(name string, cfg Config) (Model, error) {
	allocator, ok := registry[name]
	if !ok {
		return nil, simerr.New(simerr.InvalidConfiguration, "mhd model %q is not registered", name)
	}
	return allocator(cfg), nil
}

func init() {
	Register("sawtooth", func(cfg Config) Model { return NewSawtooth(cfg) })
}

// TriggerInfo records whether and where an MHD event fired at this step.
type TriggerInfo struct {
	Triggered bool
	RhoQ1     float32
	ShearQ1   float32
}
