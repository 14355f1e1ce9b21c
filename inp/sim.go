// Copyright 2026 The Tokasim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package inp implements the input configuration a simulation run is
// built from: static mesh and solver parameters, dynamic (time-varying)
// parameters, a named transport/source model database, time and
// sampling configuration (spec.md §6). The struct-of-JSON-tags shape and
// the comment-grouped field layout are adapted from gofem's inp.Data /
// inp.SolverData (fem/../inp/sim.go); the content is this project's own.
package inp

import (
	"encoding/json"
	"os"

	"github.com/plasma-core/tokasim/simerr"
)

// MeshConfig holds the static mesh and machine-geometry parameters.
type MeshConfig struct {
	NCells      int     `json:"nCells"`      // number of radial cells
	R0          float32 `json:"r0"`          // major radius [m]
	A           float32 `json:"a"`           // minor radius [m]
	Btor        float32 `json:"btor"`        // toroidal field at R0 [T]
	GeometryType string `json:"geometryType"` // e.g. "circular"; only "circular" is implemented
}

// EvolutionFlags selects which of the four state variables this run
// advances; a disabled variable is held fixed at its initial profile.
type EvolutionFlags struct {
	Ti  bool `json:"ti"`
	Te  bool `json:"te"`
	Ne  bool `json:"ne"`
	Psi bool `json:"psi"`
}

// SolverConfig holds the PDE-solver selection and its tunables, mirroring
// solver.Config's fields with JSON tags for config-file round-tripping.
type SolverConfig struct {
	Type            string  `json:"type"` // "linear" | "newton" | "optimizer"
	Theta           float32 `json:"theta"`
	Tol             float32 `json:"tol"`
	TolX            float32 `json:"tolX"`
	MaxIter         int     `json:"maxIter"`
	NCorrectorSteps int     `json:"nCorrectorSteps"`
	Verbose         bool    `json:"verbose"`
}

// TimeConfig holds the run's time-integration window.
type TimeConfig struct {
	Start       float32 `json:"start"`
	End         float32 `json:"end"`
	InitialDt   float32 `json:"initialDt"`
	Adaptive    bool    `json:"adaptive"`
	DtMin       float32 `json:"dtMin"`
	DtMax       float32 `json:"dtMax"`
	EnforceEveryNSteps int `json:"enforceEveryNSteps"` // conservation-enforcer interval
}

// SamplingPolicy configures the three-tier time-series sampler (spec.md
// §6/§9): Tier 1 is scalar statistics, Tier 2 is full profile snapshots,
// Tier 3 is the derived-quantity and diagnostic bundle. Each tier samples
// at its own interval; step 0 and the final step are always sampled
// regardless of interval.
type SamplingPolicy struct {
	Tier1Enabled  bool `json:"tier1Enabled"`
	Tier1Interval int  `json:"tier1Interval"`
	Tier2Enabled  bool `json:"tier2Enabled"`
	Tier2Interval int  `json:"tier2Interval"` // profile_sampling_interval
	Tier3Enabled  bool `json:"tier3Enabled"`
	Tier3Interval int  `json:"tier3Interval"`
}

// shouldSampleTier reports whether tier fires at step, honoring the
// always-sample-first-and-last rule the caller applies around this.
func (s SamplingPolicy) shouldSampleTier(enabled bool, interval int, step int) bool {
	if !enabled {
		return false
	}
	if interval <= 0 {
		return true
	}
	return step%interval == 0
}

func (s SamplingPolicy) ShouldSampleTier1(step int) bool { return s.shouldSampleTier(s.Tier1Enabled, s.Tier1Interval, step) }
func (s SamplingPolicy) ShouldSampleTier2(step int) bool { return s.shouldSampleTier(s.Tier2Enabled, s.Tier2Interval, step) }
func (s SamplingPolicy) ShouldSampleTier3(step int) bool { return s.shouldSampleTier(s.Tier3Enabled, s.Tier3Interval, step) }

// OutputConfig describes where and how run output is persisted; actual
// writers (JSON/NetCDF) are deliberately out of the core's scope
// (spec.md §1) — this struct only carries the configuration an external
// persistence collaborator would consume.
type OutputConfig struct {
	Directory string `json:"directory"`
	Format    string `json:"format"` // "json" | "netcdf"; "netcdf" is accepted but unimplemented, see DESIGN.md
}

// SimulationConfiguration is the top-level input a run is built from
// (spec.md §6).
type SimulationConfiguration struct {
	Desc       string             `json:"desc"`
	Mesh       MeshConfig         `json:"mesh"`
	Evolution  EvolutionFlags     `json:"evolution"`
	Solver     SolverConfig       `json:"solver"`
	Dynamic    DynamicParameters  `json:"dynamic"`
	Time       TimeConfig         `json:"time"`
	Sampling   SamplingPolicy     `json:"sampling"`
	Output     OutputConfig       `json:"output"`
	Transport  []ModelConfig      `json:"transport"`
	Sources    []ModelConfig      `json:"sources"`
	MHD        []ModelConfig      `json:"mhd"`
	Conservation []string         `json:"conservation"` // law names, e.g. ["particle", "energy"]
	CacheCapacity int             `json:"cacheCapacity"`
	InitialProfile InitialProfileConfig `json:"initialProfile"`
}

// Validate checks the structural invariants a run needs before
// initialize() ever touches a model (spec.md §7: InvalidConfiguration is
// fatal at init).
func (c *SimulationConfiguration) Validate() error {
	if c.Mesh.NCells < 2 {
		return simerr.New(simerr.InvalidConfiguration, "mesh.nCells=%d must be >= 2", c.Mesh.NCells)
	}
	if c.Mesh.R0 <= 0 || c.Mesh.A <= 0 {
		return simerr.New(simerr.InvalidConfiguration, "mesh.r0=%v and mesh.a=%v must be positive", c.Mesh.R0, c.Mesh.A)
	}
	switch c.Solver.Type {
	case "linear", "newton", "optimizer":
	default:
		return simerr.New(simerr.InvalidConfiguration, "solver.type %q must be one of linear|newton|optimizer", c.Solver.Type)
	}
	if c.Time.End <= c.Time.Start {
		return simerr.New(simerr.InvalidConfiguration, "time.end=%v must exceed time.start=%v", c.Time.End, c.Time.Start)
	}
	if c.Time.InitialDt <= 0 {
		return simerr.New(simerr.InvalidConfiguration, "time.initialDt=%v must be positive", c.Time.InitialDt)
	}
	return nil
}

// Load reads and parses a SimulationConfiguration from a JSON file,
// mirroring gofem's inp.ReadData file-loading convention but returning an
// error instead of calling chk.Panic.
func Load(path string) (*SimulationConfiguration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, simerr.Wrap(simerr.InvalidConfiguration, err, "reading simulation configuration %q", path)
	}
	var cfg SimulationConfiguration
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, simerr.Wrap(simerr.InvalidConfiguration, err, "parsing simulation configuration %q", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
