// Copyright 2026 The Tokasim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"os"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/plasma-core/tokasim/conservation"
	"github.com/plasma-core/tokasim/geom"
	"github.com/plasma-core/tokasim/inp"
	"github.com/plasma-core/tokasim/orchestrator"
	"github.com/plasma-core/tokasim/profiles"
)

// main drives one simulation run from a JSON configuration file, mirroring
// the teacher's main.go shape (parse args, recover/report, run) but
// without MPI: this engine is single-goroutine and cooperative, so there
// is no rank to gate error reporting on.
func main() {
	verbose := true

	defer func() {
		if r := recover(); r != nil {
			chk.Verbose = true
			io.PfRed("ERROR: %v\n", r)
			os.Exit(1)
		}
	}()

	flag.Parse()
	if len(flag.Args()) == 0 {
		chk.Panic("Please, provide a simulation configuration file. Ex.: scenario.json")
	}
	cfgPath := flag.Arg(0)

	io.PfWhite("\nTokasim -- tokamak core radial-transport engine\n\n")

	cfg, err := inp.Load(cfgPath)
	if err != nil {
		io.PfRed("ERROR loading configuration: %v\n", err)
		os.Exit(1)
	}
	verbose = cfg.Solver.Verbose

	coll, initial, err := buildCollaborators(cfg)
	if err != nil {
		io.PfRed("ERROR building simulation collaborators: %v\n", err)
		os.Exit(1)
	}

	orch := orchestrator.New()
	if err := orch.Initialize(cfg, coll, initial); err != nil {
		io.PfRed("ERROR initializing simulation: %v\n", err)
		os.Exit(1)
	}

	progress := func(fraction float32, info orchestrator.ProgressInfo) {
		if verbose {
			io.Pf("progress %.1f%% time=%v dt=%v converged=%v\n", fraction*100, info.CurrentTime, info.LastDt, info.Converged)
		}
	}

	result, err := orch.Run(cfg.Time.End, cfg.Dynamic, progress)
	if err != nil {
		io.PfRed("ERROR during run: %v\n", err)
		if result != nil {
			reportSummary(result)
		}
		os.Exit(1)
	}

	io.PfGreen("\nrun completed successfully\n")
	reportSummary(result)
}

func reportSummary(result *orchestrator.SimulationResult) {
	io.Pf("total iterations: %d\n", result.Statistics.TotalIterations)
	io.Pf("max residual:     %v\n", result.Statistics.MaxResidual)
	io.Pf("sawtooth crashes: %d\n", result.Statistics.SawtoothCrashes)
	io.Pf("conservation enforcements: %d\n", result.Statistics.ConservationRuns)
	io.Pf("time points sampled: %d\n", len(result.TimeSeries))
}

// buildCollaborators resolves every configured model into the live
// instances orchestrator.Collaborators bundles, plus the initial
// CoreProfiles the run starts from.
func buildCollaborators(cfg *inp.SimulationConfiguration) (orchestrator.Collaborators, *profiles.CoreProfiles, error) {
	var coll orchestrator.Collaborators

	baseGeom, err := geom.NewUniformCircularGeometry(cfg.Mesh.NCells, cfg.Mesh.R0, cfg.Mesh.A, cfg.Mesh.Btor)
	if err != nil {
		return coll, nil, err
	}
	coll.GeometryProvider = geom.NewStaticGeometryProvider(baseGeom)

	coll.Transport, err = inp.ResolveTransport(cfg.Transport)
	if err != nil {
		return coll, nil, err
	}
	coll.Sources, err = inp.ResolveSources(cfg.Sources)
	if err != nil {
		return coll, nil, err
	}
	coll.MHDModels, err = inp.ResolveMHD(cfg.MHD)
	if err != nil {
		return coll, nil, err
	}
	for _, name := range cfg.Conservation {
		law, err := conservation.New(name)
		if err != nil {
			return coll, nil, err
		}
		coll.ConservationLaws = append(coll.ConservationLaws, law)
	}

	initial := cfg.InitialProfile.Build(cfg.Mesh.NCells)
	return coll, initial, nil
}
