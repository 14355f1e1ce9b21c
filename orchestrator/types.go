// Copyright 2026 The Tokasim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package orchestrator owns the time-stepping loop: it is the single
// mutable collaborator in the engine (spec.md §4.9), driving geometry,
// coefficient assembly, the solver, MHD events and conservation
// enforcement through one step at a time. Ownership and the
// defer/recover exit envelope are grounded on fem.Main/fem.Domain
// (fem/main.go): one struct holds every mutable piece of run state,
// and only its own methods ever touch it.
package orchestrator

import (
	"github.com/plasma-core/tokasim/conservation"
	"github.com/plasma-core/tokasim/diagnostics"
	"github.com/plasma-core/tokasim/geom"
	"github.com/plasma-core/tokasim/mhd"
	"github.com/plasma-core/tokasim/models"
	"github.com/plasma-core/tokasim/profiles"
)

// SimulationState is the mutable run state an Orchestrator advances one
// step at a time (spec.md §3).
type SimulationState struct {
	Profiles   *profiles.CoreProfiles
	Geometry   *geom.Geometry
	Step       int
	Time       float32
	LastDt     float32
	Statistics Statistics
}

// Statistics accumulates run-wide counters the progress callback and the
// final SimulationResult both report.
type Statistics struct {
	TotalIterations int
	MaxResidual     float32
	SawtoothCrashes int
	ConservationRuns int
}

// TimePoint is one sampled instant in the time series (spec.md §6); the
// Derived/Diagnostics fields are nil unless Tier 3 sampling is enabled
// for this step.
type TimePoint struct {
	Time        float32
	Profiles    profiles.SerializableProfiles
	Derived     map[string]float32
	Diagnostics map[string]float32
}

// SimulationResult is what Run returns: the final profiles, run
// statistics, and the captured time series (the initial and final states
// plus every step on which Tier 1 or Tier 2 sampling fires).
type SimulationResult struct {
	FinalProfiles *profiles.CoreProfiles
	Statistics    Statistics
	TimeSeries    []TimePoint
}

// ProgressInfo is the snapshot handed to the progress callback and
// returned by GetProgress (spec.md §6).
type ProgressInfo struct {
	CurrentTime float32
	TotalSteps  int
	LastDt      float32
	Converged   bool
	Profiles    *profiles.CoreProfiles
}

// StepReport records one step's trigger/enforcement outcomes, useful for
// tests and diagnostics that want to assert on what happened during a
// run without re-deriving it from the final state alone.
type StepReport struct {
	Step                int
	Time                float32
	Dt                  float32
	SolverIterations    int
	SolverConverged     bool
	MHDTriggers         []mhd.TriggerInfo
	ConservationResults []conservation.Result
	JacobianConditioning []diagnostics.JacobianConditioningReport
}

// ProgressCallback receives a fractional completion in [0, 1] and the
// progress snapshot, called synchronously from the orchestrator's own
// Run call (spec.md §4.9: "called from the orchestrator's own task
// context" — there is no separate goroutine to hop to).
type ProgressCallback func(fraction float32, info ProgressInfo)

// Collaborators bundles every capability the orchestrator drives through
// its narrow interfaces (spec.md §6's "model instances conforming to
// TransportModel, SourceModel, MHDModel, PDESolver, ConservationLaw").
type Collaborators struct {
	GeometryProvider geom.GeometryProvider
	Transport        models.TransportModel
	Sources          *models.CompositeSourceModel
	MHDModels        []mhd.Model
	ConservationLaws []conservation.Law
}
