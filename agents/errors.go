// Package agents orchestrates a multi-role trading decision pipeline.
//
// Analyst, researcher, trader, and risk-panel stages run as a sequential
// state machine over one shared decision state. The package owns the
// routing policy, the execution driver, reflection into per-role memory,
// and extraction of the canonical trade signal.
package agents

import (
	"errors"
	"fmt"
)

// ErrMaxStepsExceeded indicates that the pipeline reached the maximum
// allowed stage transitions without hitting the terminal stage. This
// prevents infinite loops from a routing defect.
var ErrMaxStepsExceeded = errors.New("execution exceeded maximum steps limit")

// ErrNoPriorRun indicates that reflection was requested before any run
// completed.
var ErrNoPriorRun = errors.New("no completed run to reflect on")

// ErrUpstreamTimeout indicates that a language-model call exceeded its
// per-call deadline.
var ErrUpstreamTimeout = errors.New("model call exceeded its deadline")

// ConfigError indicates an invalid or unsupported configuration. It is
// fatal: it surfaces before any run starts and is never retried.
type ConfigError struct {
	// Field names the offending configuration field.
	Field string

	// Reason explains what is wrong with it.
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// UpstreamError indicates that a language-model call failed after
// bounded retries were exhausted.
type UpstreamError struct {
	// Stage names the pipeline stage whose model call failed.
	Stage string

	// Attempts is the number of attempts made.
	Attempts int

	// Cause is the final underlying failure.
	Cause error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("model call failed at %s after %d attempts: %v", e.Stage, e.Attempts, e.Cause)
}

func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

// RunError wraps a run failure with the instrument/date context it
// occurred under.
type RunError struct {
	Instrument string
	TradeDate  string
	Cause      error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run %s/%s failed: %v", e.Instrument, e.TradeDate, e.Cause)
}

func (e *RunError) Unwrap() error {
	return e.Cause
}
