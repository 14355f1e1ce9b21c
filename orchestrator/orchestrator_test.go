// Copyright 2026 The Tokasim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package orchestrator

import (
	"testing"
	"time"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun/dbf"

	"github.com/plasma-core/tokasim/conservation"
	"github.com/plasma-core/tokasim/geom"
	"github.com/plasma-core/tokasim/inp"
	"github.com/plasma-core/tokasim/models"
	"github.com/plasma-core/tokasim/profiles"
)

func testConfig(nCells int) *inp.SimulationConfiguration {
	ts := inp.TimeSeriesSet{
		{Name: "ti", Type: "cte", Prms: dbf.Params{&dbf.P{N: "c", V: 1000}}},
		{Name: "te", Type: "cte", Prms: dbf.Params{&dbf.P{N: "c", V: 900}}},
		{Name: "ne", Type: "cte", Prms: dbf.Params{&dbf.P{N: "c", V: 1e19}}},
		{Name: "psi", Type: "cte", Prms: dbf.Params{&dbf.P{N: "c", V: 0}}},
	}
	bv := func(name string) [2]inp.BoundaryValueConfig {
		return [2]inp.BoundaryValueConfig{{Kind: "dirichlet", TimeSeries: name}, {Kind: "dirichlet", TimeSeries: name}}
	}
	return &inp.SimulationConfiguration{
		Mesh:      inp.MeshConfig{NCells: nCells, R0: 6.2, A: 2.0, Btor: 5.3, GeometryType: "circular"},
		Evolution: inp.EvolutionFlags{Ti: true, Te: true, Ne: true, Psi: true},
		Solver:    inp.SolverConfig{Type: "linear", Theta: 1.0, Tol: 1e-6, TolX: 1e-6, MaxIter: 20},
		Time:      inp.TimeConfig{Start: 0, End: 0.01, InitialDt: 1e-3, DtMin: 1e-8, DtMax: 1e-2, EnforceEveryNSteps: 0},
		Dynamic: inp.DynamicParameters{
			TimeSeries: ts,
			BoundaryConditions: inp.BoundaryConditionsConfig{
				Ti: bv("ti"), Te: bv("te"), Ne: bv("ne"), Psi: bv("psi"),
			},
		},
		Sampling:      inp.SamplingPolicy{Tier1Enabled: true, Tier1Interval: 1},
		CacheCapacity: 4,
	}
}

func testCollaborators(n int) Collaborators {
	g, err := geom.NewUniformCircularGeometry(n, 6.2, 2.0, 5.3)
	if err != nil {
		panic(err)
	}
	return Collaborators{
		GeometryProvider: geom.NewStaticGeometryProvider(g),
		Transport:        models.ConstantTransportModel{ChiI: 0, ChiE: 0, D: 0, V: 0},
		Sources:          &models.CompositeSourceModel{},
		ConservationLaws: []conservation.Law{conservation.ParticleNumber{}},
	}
}

func uniformInitial(n int) *profiles.CoreProfiles {
	p := &profiles.CoreProfiles{Ti: make([]float32, n), Te: make([]float32, n), Ne: make([]float32, n), Psi: make([]float32, n)}
	for i := 0; i < n; i++ {
		p.Ti[i], p.Te[i], p.Ne[i] = 1000, 900, 1e19
	}
	return p
}

func TestInitializeRejectsInvalidConfiguration(tst *testing.T) {

	chk.PrintTitle("InitializeRejectsInvalidConfiguration")

	o := New()
	cfg := testConfig(25)
	cfg.Mesh.NCells = 1 // invalid
	if err := o.Initialize(cfg, testCollaborators(25), uniformInitial(25)); err == nil {
		tst.Errorf("expected invalid configuration to be rejected")
	}
}

// TestRunHoldsStaticEquilibrium is an end-to-end run with zero transport
// and boundaries pinned at the initial profile: the orchestrator must
// advance time without perturbing the state.
func TestRunHoldsStaticEquilibrium(tst *testing.T) {

	chk.PrintTitle("RunHoldsStaticEquilibrium")

	n := 25
	o := New()
	cfg := testConfig(n)
	coll := testCollaborators(n)
	initial := uniformInitial(n)

	if err := o.Initialize(cfg, coll, initial); err != nil {
		tst.Errorf("unexpected error: %v", err)
		return
	}

	result, err := o.Run(cfg.Time.End, cfg.Dynamic, nil)
	if err != nil {
		tst.Errorf("unexpected error: %v", err)
		return
	}
	if result.FinalProfiles == nil {
		tst.Errorf("expected a final profile snapshot")
		return
	}
	for i := 0; i < n; i++ {
		chk.Scalar(tst, "Ti held at boundary value", 1e-2, float64(result.FinalProfiles.Ti[i]), 1000)
	}
	if len(result.TimeSeries) == 0 {
		tst.Errorf("expected at least the initial sample in the time series")
	}
}

func TestPauseBlocksRunUntilResume(tst *testing.T) {

	chk.PrintTitle("PauseBlocksRunUntilResume")

	n := 10
	o := New()
	cfg := testConfig(n)
	cfg.Time.End = 0.05
	coll := testCollaborators(n)
	initial := uniformInitial(n)
	if err := o.Initialize(cfg, coll, initial); err != nil {
		tst.Errorf("unexpected error: %v", err)
		return
	}

	o.Pause()

	done := make(chan struct{})
	go func() {
		o.Run(cfg.Time.End, cfg.Dynamic, nil)
		close(done)
	}()

	// give the run loop a chance to reach the pause point.
	deadline := time.Now().Add(2 * time.Second)
	for !o.IsPaused() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if !o.IsPaused() {
		tst.Errorf("expected orchestrator to report paused")
	}

	select {
	case <-done:
		tst.Errorf("expected Run to still be blocked while paused")
		return
	default:
	}

	o.Resume()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		tst.Errorf("expected Run to finish after Resume")
	}
}

func TestCancelStopsRunEarly(tst *testing.T) {

	chk.PrintTitle("CancelStopsRunEarly")

	n := 10
	o := New()
	cfg := testConfig(n)
	cfg.Time.End = 10.0 // would otherwise take many steps
	coll := testCollaborators(n)
	initial := uniformInitial(n)
	if err := o.Initialize(cfg, coll, initial); err != nil {
		tst.Errorf("unexpected error: %v", err)
		return
	}

	o.Cancel()
	result, err := o.Run(cfg.Time.End, cfg.Dynamic, nil)
	if err != nil {
		tst.Errorf("unexpected error: %v", err)
		return
	}
	if result.FinalProfiles.Ti[0] != initial.Ti[0] {
		tst.Errorf("expected a cancelled run to not advance past the first cancellation check")
	}
}

func TestRunReportsErrorWhenNotInitialized(tst *testing.T) {

	chk.PrintTitle("RunReportsErrorWhenNotInitialized")

	o := New()
	if _, err := o.Run(1.0, inp.DynamicParameters{}, nil); err == nil {
		tst.Errorf("expected Run before Initialize to error")
	}
}
