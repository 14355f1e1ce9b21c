// Copyright 2026 The Tokasim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inp

import (
	"github.com/cpmech/gosl/fun"
	"github.com/cpmech/gosl/fun/dbf"

	"github.com/plasma-core/tokasim/profiles"
	"github.com/plasma-core/tokasim/simerr"
)

// TimeSeriesData is one named time-varying scalar, resolved through
// gosl/fun so a control parameter can be a constant, a ramp, or any other
// fun.TimeSpace the gosl library knows how to build. Shaped after gofem's
// inp.FuncData{Name, Type, Prms}; Extra/PltExtra are dropped since plotting
// is out of scope here.
type TimeSeriesData struct {
	Name string     `json:"name"`
	Type string     `json:"type"` // "cte" | "lin" | "rmp" | ...; anything fun.New accepts
	Prms dbf.Params `json:"prms"`
}

// TimeSeriesSet is a named collection of TimeSeriesData, mirroring
// gofem's inp.FuncsData. Get resolves a fun.TimeSpace by name.
type TimeSeriesSet []*TimeSeriesData

// Get builds (or looks up) the fun.TimeSpace registered under name.
func (s TimeSeriesSet) Get(name string) (fun.TimeSpace, error) {
	for _, d := range s {
		if d.Name == name {
			f, err := fun.New(d.Type, d.Prms)
			if err != nil {
				return nil, simerr.Wrap(simerr.InvalidConfiguration, err, "building time-series %q of type %q", d.Name, d.Type)
			}
			return f, nil
		}
	}
	return nil, simerr.New(simerr.InvalidConfiguration, "time-series %q not found", name)
}

// BoundaryValueConfig names the time series driving one boundary face's
// constraint value, and whether that face is Dirichlet or Neumann.
type BoundaryValueConfig struct {
	Kind      string `json:"kind"` // "dirichlet" | "neumann"
	TimeSeries string `json:"timeSeries"`
}

func (b BoundaryValueConfig) toConstraintKind() (profiles.ConstraintKind, error) {
	switch b.Kind {
	case "dirichlet":
		return profiles.Dirichlet, nil
	case "neumann":
		return profiles.Neumann, nil
	default:
		return 0, simerr.New(simerr.InvalidConfiguration, "boundary kind %q must be dirichlet|neumann", b.Kind)
	}
}

// BoundaryConditionsConfig names, per variable, the left and right
// boundary drivers.
type BoundaryConditionsConfig struct {
	Ti  [2]BoundaryValueConfig `json:"ti"`  // [left, right]
	Te  [2]BoundaryValueConfig `json:"te"`
	Ne  [2]BoundaryValueConfig `json:"ne"`
	Psi [2]BoundaryValueConfig `json:"psi"`
}

// PedestalConfig carries the edge-pedestal control knobs a transport model
// may read from DynamicParams; the core does not interpret these itself.
type PedestalConfig struct {
	Enabled  bool    `json:"enabled"`
	RhoTop   float32 `json:"rhoTop"`
	Height   float32 `json:"height"`
	Width    float32 `json:"width"`
}

// MHDConfig carries the tunables handed to registered mhd.Model instances
// as plain name/param pairs, resolved at orchestrator-build time.
type MHDConfig struct {
	Name   string             `json:"name"`
	Params map[string]float32 `json:"params"`
}

// DynamicParameters bundles everything that can vary over the run but is
// not itself a state variable: boundary conditions, scalar control knobs
// consumed by transport/source models, the pedestal description, and MHD
// model tunables. Shaped after gofem's inp.FuncsData named-lookup
// convention, generalized to the handful of scalar knobs this domain needs.
type DynamicParameters struct {
	BoundaryConditions BoundaryConditionsConfig `json:"boundaryConditions"`
	TimeSeries         TimeSeriesSet            `json:"timeSeries"`
	ScalarParams       map[string]float32       `json:"scalarParams"` // static fallback values, overridden by TimeSeries lookups of the same name
	Pedestal           PedestalConfig           `json:"pedestal"`
}

// ResolveBoundary evaluates every configured boundary condition at time t,
// producing the concrete profiles.BoundarySet the step loop passes to the
// solver.
func (d DynamicParameters) ResolveBoundary(t float32) (profiles.BoundarySet, error) {
	var bs profiles.BoundarySet
	var err error
	if bs.Ti, err = d.resolveOneVariable(d.BoundaryConditions.Ti, t); err != nil {
		return bs, err
	}
	if bs.Te, err = d.resolveOneVariable(d.BoundaryConditions.Te, t); err != nil {
		return bs, err
	}
	if bs.Ne, err = d.resolveOneVariable(d.BoundaryConditions.Ne, t); err != nil {
		return bs, err
	}
	if bs.Psi, err = d.resolveOneVariable(d.BoundaryConditions.Psi, t); err != nil {
		return bs, err
	}
	return bs, bs.Validate()
}

func (d DynamicParameters) resolveOneVariable(cfg [2]BoundaryValueConfig, t float32) (profiles.BoundaryCondition, error) {
	left, err := d.resolveFace(cfg[0], t)
	if err != nil {
		return profiles.BoundaryCondition{}, err
	}
	right, err := d.resolveFace(cfg[1], t)
	if err != nil {
		return profiles.BoundaryCondition{}, err
	}
	return profiles.BoundaryCondition{Left: left, Right: right}, nil
}

func (d DynamicParameters) resolveFace(cfg BoundaryValueConfig, t float32) (profiles.FaceConstraint, error) {
	kind, err := cfg.toConstraintKind()
	if err != nil {
		return profiles.FaceConstraint{}, err
	}
	f, err := d.TimeSeries.Get(cfg.TimeSeries)
	if err != nil {
		return profiles.FaceConstraint{}, err
	}
	return profiles.FaceConstraint{Kind: kind, Value: float32(f.F(float64(t), nil))}, nil
}

// ResolveScalar returns the named scalar control parameter at time t: a
// matching TimeSeries entry wins over the static ScalarParams fallback.
func (d DynamicParameters) ResolveScalar(name string, t float32) (float32, bool) {
	if f, err := d.TimeSeries.Get(name); err == nil {
		return float32(f.F(float64(t), nil)), true
	}
	if v, ok := d.ScalarParams[name]; ok {
		return v, true
	}
	return 0, false
}

// ResolveAll flattens every configured scalar control parameter (static
// and time-series) to its value at time t, producing the plain map
// models.DynamicParams carries across the capability boundary. A
// TimeSeries entry shadows a ScalarParams entry of the same name.
func (d DynamicParameters) ResolveAll(t float32) map[string]float32 {
	out := make(map[string]float32, len(d.ScalarParams)+len(d.TimeSeries))
	for name, v := range d.ScalarParams {
		out[name] = v
	}
	for _, ts := range d.TimeSeries {
		if v, ok := d.ResolveScalar(ts.Name, t); ok {
			out[ts.Name] = v
		}
	}
	return out
}
