package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"janus/internal/bridge"
	"janus/internal/decision"
	"janus/internal/engine"
)

// Status is the state of one step. Steps move pending -> running -> one of
// the terminal states; terminal states are never revisited.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// FailureKind separates "the test failed" from "the framework failed to set
// the test up", per failure site.
type FailureKind string

const (
	FailResolution FailureKind = "resolution" // engine binding cannot be satisfied
	FailLaunch     FailureKind = "launch"     // browser/context startup
	FailInjection  FailureKind = "injection"  // session replay into the step's context
	FailContinuity FailureKind = "continuity" // session replayed but probe says unauthenticated
	FailExtraction FailureKind = "extraction" // session snapshot after the action
	FailAction     FailureKind = "action"     // the caller-supplied step body
	FailTimeout    FailureKind = "timeout"    // per-step deadline exceeded
)

// ActionError wraps a failure raised by the caller-supplied step body, so
// operators can tell it apart from orchestrator-internal failures.
type ActionError struct {
	Err error
}

func (e *ActionError) Error() string { return fmt.Sprintf("step action: %v", e.Err) }
func (e *ActionError) Unwrap() error { return e.Err }

// StepContext is what a step body gets to work with.
type StepContext struct {
	// Browser is the live engine context owned by this step.
	Browser engine.Context
	// Session is the snapshot injected into this step, nil when the step
	// declared no session dependency.
	Session *bridge.SessionState
	// Log is scoped to the workflow run and step.
	Log *slog.Logger
}

// Action is the opaque unit of work a step executes. The orchestrator never
// interprets its content.
type Action func(ctx context.Context, sc StepContext) error

// Step is one named unit in a workflow, bound to exactly one engine.
type Step struct {
	Name string

	// Engine pins the step to a backend. Leave empty to resolve through
	// the decision engine using Metadata.
	Engine   engine.Engine
	Metadata *decision.TestMetadata

	Action Action

	// RequiresSessionFrom names an earlier step whose extracted session is
	// injected into this step's context before the action runs.
	RequiresSessionFrom string
	// TargetURL is where injection navigates to establish the origin.
	// Required when RequiresSessionFrom is set.
	TargetURL string
	// Probe optionally verifies continuity after injection; a negative
	// probe fails the step.
	Probe bridge.Probe

	// ProducesSession snapshots the step's session after a passed action
	// for use by dependent steps.
	ProducesSession bool

	// Timeout bounds the whole step (launch, injection, action, extract).
	// Zero means no per-step deadline.
	Timeout time.Duration
}

// StepResult is the immutable outcome of one step.
type StepResult struct {
	Name     string        `json:"name"`
	Engine   engine.Engine `json:"engine,omitempty"`
	Status   Status        `json:"status"`
	Kind     FailureKind   `json:"failure_kind,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`

	// SkippedAfter names the failed step this step was skipped behind.
	SkippedAfter string `json:"skipped_after,omitempty"`
	// UsedFallback is set when the step ran on the decision's fallback
	// engine because the primary engine failed to launch.
	UsedFallback bool `json:"used_fallback,omitempty"`
	// Decision is recorded when the engine was resolved rather than pinned.
	Decision *decision.Decision `json:"decision,omitempty"`
}

// Result is the immutable record of one workflow execution.
type Result struct {
	RunID    string        `json:"run_id"`
	Workflow string        `json:"workflow"`
	Status   Status        `json:"status"`
	Steps    []StepResult  `json:"steps"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
}

// FailedStep returns the result of the step that failed, if any.
func (r *Result) FailedStep() *StepResult {
	for i := range r.Steps {
		if r.Steps[i].Status == StatusFailed {
			return &r.Steps[i]
		}
	}
	return nil
}
