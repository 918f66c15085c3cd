// Package deploy runs the ordered release steps: dependency install, static
// collection, schema migration, superuser provisioning and initial data load.
package deploy

import (
	"context"
	"fmt"
	"io"
	"time"

	"greencart/pkg/errors"
)

// Policy decides what a step failure does to the rest of the pipeline
type Policy int

const (
	// Fatal stops the pipeline on failure
	Fatal Policy = iota
	// BestEffort prints and reports the failure, then continues
	BestEffort
)

func (p Policy) String() string {
	if p == BestEffort {
		return "best-effort"
	}
	return "fatal"
}

// Status values used in StepResult.
const (
	StatusOK        = "ok"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
	StatusContained = "contained"
	StatusPlanned   = "planned"
)

var (
	// ErrSkipped is returned (wrapped) by a step that had nothing to do
	ErrSkipped = errors.New("step skipped")

	// ErrDeployInProgress is returned when another run holds the deploy lock
	ErrDeployInProgress = errors.New("deploy already in progress")
)

// Step is one unit of the pipeline. Run writes human readable progress to out.
type Step interface {
	Name() string
	Policy() Policy
	Run(ctx context.Context, out io.Writer) error
}

// FailureFormatter lets a best-effort step choose the line printed when it fails
type FailureFormatter interface {
	FormatFailure(err error) string
}

// Skip returns an error that marks the step as skipped with reason
func Skip(reason string) error {
	return fmt.Errorf("%w: %s", ErrSkipped, reason)
}

// ExitError carries the exit code of a failed external process
type ExitError struct {
	Step string
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d: %v", e.Step, e.Code, e.Err)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode maps a pipeline error to a process exit code: 0 for nil, the
// child's code for external process failures, 1 for everything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Code > 0 {
		return exitErr.Code
	}
	return 1
}

// StepResult is the outcome of a single step
type StepResult struct {
	Name     string        `json:"name"`
	Policy   string        `json:"policy"`
	Status   string        `json:"status"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// Report is the aggregate result of a pipeline run
type Report struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Succeeded bool          `json:"succeeded"`
	DryRun    bool          `json:"dry_run"`
	Steps     []StepResult  `json:"steps"`
}

// Step returns the result recorded for name
func (r *Report) Step(name string) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return StepResult{}, false
}

// RunOptions alter a single pipeline run
type RunOptions struct {
	// Skip names steps that are reported skipped without running
	Skip []string
	// DryRun prints the plan and runs nothing
	DryRun bool
}
