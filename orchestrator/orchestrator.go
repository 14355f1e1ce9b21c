// Copyright 2026 The Tokasim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package orchestrator

import (
	"fmt"
	"sync"
	"time"

	"github.com/cpmech/gosl/io"

	"github.com/plasma-core/tokasim/coeffs"
	"github.com/plasma-core/tokasim/conservation"
	"github.com/plasma-core/tokasim/diagnostics"
	"github.com/plasma-core/tokasim/geom"
	"github.com/plasma-core/tokasim/inp"
	"github.com/plasma-core/tokasim/models"
	"github.com/plasma-core/tokasim/profiles"
	"github.com/plasma-core/tokasim/simerr"
	"github.com/plasma-core/tokasim/solver"
	"github.com/plasma-core/tokasim/timestep"
)

const maxStepRetries = 3

// progressThrottle caps progress-callback notifications to once per
// 100ms of wall-clock time (spec.md §4.9, step 9).
const progressThrottle = 100 * time.Millisecond

// Orchestrator is the single mutable owner of one simulation run. Public
// methods are serialized by mu; Run holds the state for the duration of
// the run loop and only releases it at the cooperative suspension points
// named in spec.md §5 (pause wait, cancel check).
type Orchestrator struct {
	mu sync.Mutex

	cfg  *inp.SimulationConfiguration
	coll Collaborators

	assembler   *coeffs.Assembler
	slv         solver.Solver
	tsCalc      *timestep.Calculator
	accumulator *timestep.Accumulator
	enforcer    *conservation.Enforcer
	cache       *solver.CompilationCache

	state       SimulationState
	initialized bool

	pauseRequested  bool
	paused          bool
	cancelRequested bool
	resumeCh        chan struct{}

	lastProgress ProgressInfo
	verbose      bool
}

// New returns an uninitialized Orchestrator; Initialize must be called
// before Run.
func New() *Orchestrator {
	return &Orchestrator{resumeCh: make(chan struct{}, 1)}
}

// Initialize validates cfg, builds the solver/timestep/conservation
// collaborators it owns internally, and seeds the run state from the
// supplied initial profiles and geometry (spec.md §4.9's `initialize`).
func (o *Orchestrator) Initialize(cfg *inp.SimulationConfiguration, coll Collaborators, initial *profiles.CoreProfiles) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := initial.Validate(); err != nil {
		return err
	}

	g, err := coll.GeometryProvider.Geometry(cfg.Time.Start, initial.Psi)
	if err != nil {
		return err
	}

	solverCfg := solver.Config{
		Theta: cfg.Solver.Theta, Tol: cfg.Solver.Tol, TolX: cfg.Solver.TolX,
		MaxIter: cfg.Solver.MaxIter, NCorrectorSteps: cfg.Solver.NCorrectorSteps,
		Verbose: cfg.Solver.Verbose,
	}

	cache := solver.NewCompilationCache(cfg.CacheCapacity)
	cacheKey := fmt.Sprintf("%s|nCells=%d|theta=%v|ti=%v|te=%v|ne=%v|psi=%v",
		cfg.Solver.Type, cfg.Mesh.NCells, solverCfg.Theta,
		cfg.Evolution.Ti, cfg.Evolution.Te, cfg.Evolution.Ne, cfg.Evolution.Psi)
	var buildErr error
	cached := cache.GetOrCompile(cacheKey, func() any {
		slv, err := solver.New(cfg.Solver.Type, solverCfg)
		if err != nil {
			buildErr = err
			return nil
		}
		return slv
	})
	if buildErr != nil {
		return buildErr
	}
	slv, _ := cached.(solver.Solver)
	if slv == nil {
		return simerr.New(simerr.InvalidConfiguration, "solver %q could not be compiled", cfg.Solver.Type)
	}

	tsCalc, err := timestep.NewCalculator(timestep.Config{
		DtMin: cfg.Time.DtMin, DtMax: cfg.Time.DtMax, DtInit: cfg.Time.InitialDt,
		Safety: 0.9,
	})
	if err != nil {
		return err
	}

	enforcer := conservation.NewEnforcer(coll.ConservationLaws, initial, g, cfg.Time.EnforceEveryNSteps)

	o.cfg = cfg
	o.coll = coll
	o.assembler = coeffs.NewAssembler()
	o.slv = slv
	o.tsCalc = tsCalc
	o.accumulator = &timestep.Accumulator{}
	o.accumulator.Add(cfg.Time.Start)
	o.enforcer = enforcer
	o.cache = cache
	o.verbose = cfg.Solver.Verbose

	o.state = SimulationState{
		Profiles: initial.Clone(),
		Geometry: g,
		Step:     0,
		Time:     cfg.Time.Start,
	}
	o.initialized = true
	return nil
}

// Pause requests that Run suspend at the next step boundary. It returns
// immediately; the run does not actually stop until the cooperative
// check inside the step loop observes the request (spec.md §4.9, step
// 10; §5: "there is no forced preemption").
func (o *Orchestrator) Pause() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pauseRequested = true
}

// Resume releases a paused Run. It is a no-op if the run is not
// currently paused.
func (o *Orchestrator) Resume() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pauseRequested = false
	if o.paused {
		select {
		case o.resumeCh <- struct{}{}:
		default:
		}
	}
}

// Cancel requests that Run abort between steps, returning whatever
// partial result has accumulated so far (spec.md §5).
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cancelRequested = true
}

// IsPaused reports whether Run is currently blocked waiting for Resume.
func (o *Orchestrator) IsPaused() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.paused
}

// GetProgress returns the most recent progress snapshot, valid even
// between progress-callback invocations.
func (o *Orchestrator) GetProgress() ProgressInfo {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastProgress
}

// Run advances the simulation from the current state until simulated
// time reaches until, or the step loop is cancelled. dyn supplies the
// boundary conditions and scalar control parameters for every step;
// progressCb, if non-nil, is invoked at most once per progressThrottle
// (spec.md §4.9).
func (o *Orchestrator) Run(until float32, dyn inp.DynamicParameters, progressCb ProgressCallback) (result *SimulationResult, err error) {
	o.mu.Lock()
	if !o.initialized {
		o.mu.Unlock()
		return nil, simerr.New(simerr.NotInitialized, "Run called before Initialize")
	}
	o.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = simerr.New(simerr.NumericInstability, "orchestrator run panicked: %v", r)
		}
	}()

	var timeSeries []TimePoint
	lastProgressAt := time.Time{}

	o.mu.Lock()
	state := o.state
	o.mu.Unlock()

	totalSteps := 0
	if state.Time < until {
		dtEstimate := o.cfg.Time.InitialDt
		if dtEstimate <= 0 {
			dtEstimate = o.cfg.Time.DtMin
		}
		totalSteps = int((until - state.Time) / dtEstimate)
	}

	if state.Step == 0 {
		timeSeries = append(timeSeries, o.sample(&state, dyn))
	}

	firstStep := state.Step == 0
	for state.Time < until {
		o.mu.Lock()
		cancel := o.cancelRequested
		o.mu.Unlock()
		if cancel {
			break
		}

		report, err := o.stepOnce(&state, dyn, firstStep)
		if err != nil {
			return &SimulationResult{FinalProfiles: state.Profiles, Statistics: state.Statistics, TimeSeries: timeSeries}, err
		}
		firstStep = false

		if o.verbose {
			io.Pf("step %d time %v dt %v iterations %d\n", state.Step, state.Time, report.Dt, report.SolverIterations)
		}

		if o.cfg.Sampling.ShouldSampleTier2(state.Step) || o.cfg.Sampling.ShouldSampleTier1(state.Step) {
			timeSeries = append(timeSeries, o.sample(&state, dyn))
		}

		info := ProgressInfo{
			CurrentTime: state.Time, TotalSteps: totalSteps, LastDt: report.Dt,
			Converged: report.SolverConverged, Profiles: state.Profiles,
		}
		o.mu.Lock()
		o.lastProgress = info
		o.mu.Unlock()
		if progressCb != nil && time.Since(lastProgressAt) >= progressThrottle {
			fraction := float32(0)
			if until > o.cfg.Time.Start {
				fraction = (state.Time - o.cfg.Time.Start) / (until - o.cfg.Time.Start)
			}
			progressCb(fraction, info)
			lastProgressAt = time.Now()
		}

		o.mu.Lock()
		shouldPause := o.pauseRequested
		if shouldPause {
			o.paused = true
		}
		o.mu.Unlock()
		if shouldPause {
			<-o.resumeCh
			o.mu.Lock()
			o.paused = false
			cancelled := o.cancelRequested
			o.mu.Unlock()
			if cancelled {
				break
			}
		}
	}

	if len(timeSeries) == 0 || timeSeries[len(timeSeries)-1].Time != state.Time {
		timeSeries = append(timeSeries, o.sample(&state, dyn))
	}

	o.mu.Lock()
	o.state = state
	o.mu.Unlock()

	return &SimulationResult{
		FinalProfiles: state.Profiles,
		Statistics:    state.Statistics,
		TimeSeries:    timeSeries,
	}, nil
}

// stepOnce executes the ten-point step loop from spec.md §4.9 once,
// mutating state in place.
func (o *Orchestrator) stepOnce(state *SimulationState, dyn inp.DynamicParameters, firstStep bool) (StepReport, error) {
	report := StepReport{Step: state.Step, Time: state.Time}

	// 1. geometry_t
	g, err := o.coll.GeometryProvider.Geometry(state.Time, state.Profiles.Psi)
	if err != nil {
		return report, simerr.Wrap(simerr.NumericInstability, err, "recomputing geometry").WithStep(state.Step, state.Time)
	}
	state.Geometry = g

	bc, err := dyn.ResolveBoundary(state.Time)
	if err != nil {
		return report, err
	}

	// 2. coefficient closure
	closure := o.buildClosure(g, dyn, state.Time)

	if o.cfg.Sampling.ShouldSampleTier3(state.Step) && state.LastDt > 0 {
		if coef, cErr := closure(state.Profiles); cErr == nil {
			report.JacobianConditioning = diagnostics.ComputeJacobianConditioning(coef, state.LastDt)
		}
	}

	// 3. dt
	tc, err := o.coll.Transport.ComputeCoefficients(state.Profiles, g, dynamicParams(dyn, state.Time))
	if err != nil {
		return report, simerr.Wrap(simerr.NumericInstability, err, "computing transport coefficients").WithStep(state.Step, state.Time)
	}
	dt, err := o.tsCalc.Next(g.Dr, tc.ChiI, tc.ChiE, tc.D, firstStep)
	if err != nil {
		return report, err
	}

	// 4-5. solve, retrying with halved dt on failure
	var result solver.SolverResult
	attemptDt := dt
	var solveErr error
	for attempt := 0; attempt <= maxStepRetries; attempt++ {
		result, solveErr = o.slv.Step(state.Profiles, g, bc, closure, attemptDt, 0)
		if solveErr == nil && result.Converged {
			break
		}
		if attempt == maxStepRetries {
			if solveErr == nil {
				solveErr = simerr.New(simerr.ConvergenceFailure, "solver did not converge after %d retries", maxStepRetries).
					WithIterations(result.Iterations, result.ResidualNorm).WithStep(state.Step, state.Time)
			}
			return report, solveErr
		}
		var halveErr error
		attemptDt, halveErr = o.tsCalc.Halve(attemptDt)
		if halveErr != nil {
			return report, halveErr
		}
	}
	report.Dt = attemptDt
	report.SolverIterations = result.Iterations
	report.SolverConverged = result.Converged

	current := result.UpdatedProfiles

	// 6. MHD models, in order
	for _, m := range o.coll.MHDModels {
		updated, info, err := m.MaybeTrigger(current, g, attemptDt)
		if err != nil {
			return report, err
		}
		if info.Triggered {
			state.Statistics.SawtoothCrashes++
		}
		report.MHDTriggers = append(report.MHDTriggers, info)
		current = updated
	}

	// 7. conservation enforcer
	if o.enforcer != nil && o.enforcer.ShouldEnforce(state.Step) {
		corrected, results, err := o.enforcer.Enforce(current, g, state.Step, state.Time)
		if err != nil {
			return report, err
		}
		current = corrected
		report.ConservationResults = results
		state.Statistics.ConservationRuns++
		for _, r := range results {
			// judge the drift left after correction: a corrected law's
			// quantity scales linearly with its factor.
			postDrift := r.Drift
			if r.Corrected && r.Reference != 0 {
				d, ref := r.Current*r.Factor-r.Reference, r.Reference
				if d < 0 {
					d = -d
				}
				if ref < 0 {
					ref = -ref
				}
				postDrift = d / ref
			}
			if postDrift > conservation.CriticalDriftFraction {
				return report, simerr.New(simerr.ConservationViolation, "law %q drifted %v beyond critical threshold after correction", r.Law, postDrift).WithStep(state.Step, state.Time)
			}
		}
	}

	if err := current.Validate(); err != nil {
		return report, err
	}

	// 8. accumulate time, increment step, update statistics
	o.accumulator.Add(attemptDt)
	state.Profiles = current
	state.Time = o.accumulator.Time()
	state.LastDt = attemptDt
	state.Step++
	state.Statistics.TotalIterations += result.Iterations
	if result.ResidualNorm > state.Statistics.MaxResidual {
		state.Statistics.MaxResidual = result.ResidualNorm
	}

	return report, nil
}

// buildClosure returns the pure coefficient-assembly closure the solver
// re-evaluates every Newton iteration (spec.md §4.9, step 2).
func (o *Orchestrator) buildClosure(g *geom.Geometry, dyn inp.DynamicParameters, t float32) solver.CoefficientClosure {
	dp := dynamicParams(dyn, t)
	return func(p *profiles.CoreProfiles) (coeffs.Block1DCoeffs, error) {
		tc, err := o.coll.Transport.ComputeCoefficients(p, g, dp)
		if err != nil {
			return coeffs.Block1DCoeffs{}, err
		}
		st, _, err := o.coll.Sources.ComputeTermsWithMetadata(p, g, dp)
		if err != nil {
			return coeffs.Block1DCoeffs{}, err
		}
		exchange := buildExchange(p.NCells(), dp)
		return o.assembler.Assemble(p, g, tc, st, exchange)
	}
}

// buildExchange constructs a uniform ion-electron exchange-rate array
// from the "ionElectronExchangeRate" dynamic parameter, defaulting to no
// coupling when unset.
func buildExchange(n int, dp models.DynamicParams) coeffs.ExchangeRate {
	rate := dp.Get("ionElectronExchangeRate", 0)
	if rate == 0 {
		return nil
	}
	out := make(coeffs.ExchangeRate, n)
	for i := range out {
		out[i] = rate
	}
	return out
}

func dynamicParams(dyn inp.DynamicParameters, t float32) models.DynamicParams {
	return models.DynamicParams{Time: t, Params: dyn.ResolveAll(t)}
}

func (o *Orchestrator) sample(state *SimulationState, dyn inp.DynamicParameters) TimePoint {
	tp := TimePoint{
		Time:     state.Time,
		Profiles: state.Profiles.ToSerializable(),
	}
	if o.cfg.Sampling.ShouldSampleTier3(state.Step) {
		dp := dynamicParams(dyn, state.Time)
		power, err := diagnostics.ComputePowerBalance(state.Profiles, state.Geometry, o.coll.Sources, dp)
		if err == nil {
			dq := diagnostics.Compute(state.Profiles, state.Geometry, power, dp.Get("auxPowerMW", 0))
			tp.Derived = map[string]float32{
				"centralTi":        dq.CentralTi,
				"centralTe":        dq.CentralTe,
				"centralNe":        dq.CentralNe,
				"volumeAvgTi":      dq.VolumeAvgTi,
				"volumeAvgTe":      dq.VolumeAvgTe,
				"volumeAvgNe":      dq.VolumeAvgNe,
				"storedEnergyMJ":   dq.StoredEnergyMJ,
				"confinementTimeS": dq.ConfinementTimeS,
				"fusionQ":          dq.FusionQ,
				"betaPercent":      dq.BetaPercent,
				"betaN":            dq.BetaN,
				"netPowerMW":       power.TotalIonMW + power.TotalElecMW + power.TotalAlphaMW - power.TotalRadMW,
			}
		}
	}
	return tp
}

// State returns a copy of the current run state; primarily for tests and
// checkpoint callers.
func (o *Orchestrator) State() SimulationState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}
