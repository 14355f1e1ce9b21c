// Copyright 2026 The Tokasim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package simerr defines the error taxonomy surfaced at the boundary of the
// core transport engine. Each Kind maps to one row of the recovery-policy
// table: fatal-at-init, fatal-during-run, or diagnostic-only.
package simerr

import (
	"errors"
	"fmt"
)

// Kind identifies one row of the error taxonomy.
type Kind int

const (
	// NotInitialized: Run was called before Initialize.
	NotInitialized Kind = iota
	// InvalidConfiguration: static or dynamic parameter validation failed.
	InvalidConfiguration
	// InvalidBoundaryConditions: a boundary condition is non-positive or non-finite.
	InvalidBoundaryConditions
	// MeshTooCoarse: a numeric pre-flight bound on the mesh was violated.
	MeshTooCoarse
	// TimeStepTooSmall: a numeric pre-flight bound on dt was violated.
	TimeStepTooSmall
	// ModelInitializationFailed: a model rejected its parameters.
	ModelInitializationFailed
	// NumericInstability: a profile went non-finite after a step.
	NumericInstability
	// ConvergenceFailure: Newton failed to converge after halving retries.
	ConvergenceFailure
	// ConservationViolation: drift after enforcement is still above the critical threshold.
	ConservationViolation
	// SamplingOverflow: the sampling memory budget was exceeded.
	SamplingOverflow
)

func (k Kind) String() string {
	switch k {
	case NotInitialized:
		return "NotInitialized"
	case InvalidConfiguration:
		return "InvalidConfiguration"
	case InvalidBoundaryConditions:
		return "InvalidBoundaryConditions"
	case MeshTooCoarse:
		return "MeshTooCoarse"
	case TimeStepTooSmall:
		return "TimeStepTooSmall"
	case ModelInitializationFailed:
		return "ModelInitializationFailed"
	case NumericInstability:
		return "NumericInstability"
	case ConvergenceFailure:
		return "ConvergenceFailure"
	case ConservationViolation:
		return "ConservationViolation"
	case SamplingOverflow:
		return "SamplingOverflow"
	}
	return "Unknown"
}

// Fatal reports whether errors of this kind abort the run (as opposed to
// being surfaced as diagnostics only). ConservationViolation and
// SamplingOverflow are diagnostic-only per the propagation policy.
func (k Kind) Fatal() bool {
	switch k {
	case ConservationViolation, SamplingOverflow:
		return false
	}
	return true
}

// Error is the concrete error type returned across the core's boundary. It
// carries enough context (step, time, variable, value, iterations, residual)
// for callers to build their own diagnostics without re-deriving them.
type Error struct {
	Kind       Kind
	Step       int
	Time       float32
	Variable   string
	Value      float32
	Iterations int
	Residual   float32
	msg        string
	err        error
}

// New builds an *Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given kind that wraps an underlying error.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...), err: err}
}

// WithStep annotates the error with (step, time); used by the orchestrator
// when tagging errors surfaced from the step body.
func (e *Error) WithStep(step int, time float32) *Error {
	e.Step = step
	e.Time = time
	return e
}

// WithVariable annotates the error with the offending variable and value.
func (e *Error) WithVariable(variable string, value float32) *Error {
	e.Variable = variable
	e.Value = value
	return e
}

// WithIterations annotates a ConvergenceFailure with iteration count and residual.
func (e *Error) WithIterations(iterations int, residual float32) *Error {
	e.Iterations = iterations
	e.Residual = residual
	return e
}

func (e *Error) Error() string {
	s := fmt.Sprintf("%s: %s", e.Kind, e.msg)
	if e.Variable != "" {
		s += fmt.Sprintf(" (variable=%s value=%v)", e.Variable, e.Value)
	}
	if e.Iterations > 0 {
		s += fmt.Sprintf(" (iterations=%d residual=%v)", e.Iterations, e.Residual)
	}
	if e.Step > 0 || e.Time > 0 {
		s += fmt.Sprintf(" (step=%d time=%v)", e.Step, e.Time)
	}
	if e.err != nil {
		s += ": " + e.err.Error()
	}
	return s
}

// Unwrap exposes the wrapped error so errors.Is/errors.As work.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether err is (or wraps) a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
