// Package workflow sequences named steps across the two automation engines,
// routing session state between session-producing and session-dependent
// steps and enforcing fail-fast semantics: the first failed step skips
// everything after it, because continuing a broken session chain produces
// misleading results, not merely incomplete ones.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"janus/internal/bridge"
	"janus/internal/decision"
	"janus/internal/engine"
	"janus/internal/logging"
)

// Orchestrator drives workflow executions. It is safe to share across
// concurrent runs: all per-run state lives on the stack of Run.
type Orchestrator struct {
	launchers *engine.Registry
	decider   *decision.Decider
	bridge    *bridge.Bridge
	log       *slog.Logger
}

// New wires an orchestrator from its three collaborators.
func New(launchers *engine.Registry, decider *decision.Decider, br *bridge.Bridge) *Orchestrator {
	return &Orchestrator{
		launchers: launchers,
		decider:   decider,
		bridge:    br,
		log:       logging.New("workflow"),
	}
}

// Run executes the definition's steps strictly in order and returns the
// immutable result. Run itself never fails: every failure mode is recorded
// on the step where it happened.
func (o *Orchestrator) Run(ctx context.Context, def *Definition) *Result {
	res := &Result{
		RunID:    uuid.NewString(),
		Workflow: def.Name,
		Status:   StatusPassed,
		Steps:    make([]StepResult, 0, len(def.Steps)),
		Started:  time.Now().UTC(),
	}
	log := o.log.With("workflow", def.Name, "run", res.RunID)

	// Sessions extracted by producing steps, keyed by step name. Steps run
	// strictly sequentially, so a plain map is safe and a later step always
	// observes the snapshot of any earlier terminal step.
	sessions := make(map[string]*bridge.SessionState)
	failedAt := ""

	for _, step := range def.Steps {
		if failedAt != "" {
			res.Steps = append(res.Steps, StepResult{
				Name:         step.Name,
				Status:       StatusSkipped,
				SkippedAfter: failedAt,
			})
			log.Info("step skipped", "step", step.Name, "after", failedAt)
			continue
		}

		sr := o.runStep(ctx, log, step, sessions)
		res.Steps = append(res.Steps, sr)
		if sr.Status == StatusFailed {
			failedAt = step.Name
			res.Status = StatusFailed
			log.Warn("step failed", "step", step.Name, "kind", string(sr.Kind), "error", sr.Error)
		}
	}

	res.Duration = time.Since(res.Started)
	log.Info("workflow finished", "status", string(res.Status), "steps", len(res.Steps))
	return res
}

// runStep owns the full lifecycle of one step: engine resolution, context
// launch, session injection, the action body, and session extraction. The
// step's browser context is closed on every exit path.
func (o *Orchestrator) runStep(ctx context.Context, log *slog.Logger, step Step, sessions map[string]*bridge.SessionState) StepResult {
	sr := StepResult{Name: step.Name, Status: StatusRunning}
	start := time.Now()
	defer func() { sr.Duration = time.Since(start) }()

	stepCtx := ctx
	if step.Timeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, step.Timeout)
		defer cancel()
	}

	// Engine binding: explicit pin, or a decision-engine verdict.
	eng := step.Engine
	if eng == "" {
		dec := o.decider.Decide(*step.Metadata)
		sr.Decision = &dec
		eng = dec.Engine
		log.Debug("engine resolved", "step", step.Name, "engine", string(eng), "rule", dec.MatchedRule)
	}
	sr.Engine = eng

	browser, err := o.launchers.Launch(stepCtx, eng)
	if err != nil {
		// A rule-resolved decision may carry a fallback engine for exactly
		// this case: the primary engine cannot come up.
		fb := engine.Engine("")
		if sr.Decision != nil {
			fb = sr.Decision.Fallback
		}
		if fb == "" || fb == eng {
			return o.fail(sr, stepCtx, classifyLaunch(err), err)
		}
		log.Warn("launch failed, retrying on fallback engine",
			"step", step.Name, "engine", string(eng), "fallback", string(fb), "error", err)
		browser, err = o.launchers.Launch(stepCtx, fb)
		if err != nil {
			return o.fail(sr, stepCtx, classifyLaunch(err), err)
		}
		sr.Engine = fb
		sr.UsedFallback = true
	}
	defer func() {
		if cerr := browser.Close(); cerr != nil {
			log.Warn("context close", "step", step.Name, "error", cerr)
		}
	}()

	var injected *bridge.SessionState
	if step.RequiresSessionFrom != "" {
		state := sessions[step.RequiresSessionFrom]
		if state == nil {
			// Definition validation guarantees the producer ran earlier;
			// a missing snapshot means it passed without producing one.
			return o.fail(sr, stepCtx, FailInjection,
				fmt.Errorf("no session captured from step %q", step.RequiresSessionFrom))
		}
		if err := o.bridge.Inject(stepCtx, browser, state, step.TargetURL); err != nil {
			return o.fail(sr, stepCtx, FailInjection, err)
		}
		if step.Probe != nil {
			ok, err := o.bridge.ValidateContinuity(stepCtx, browser, step.Probe)
			if err != nil {
				return o.fail(sr, stepCtx, FailContinuity, err)
			}
			if !ok {
				return o.fail(sr, stepCtx, FailContinuity,
					fmt.Errorf("continuity probe negative after injecting session from %q", step.RequiresSessionFrom))
			}
		}
		injected = state
	}

	if err := runAction(stepCtx, step, StepContext{
		Browser: browser,
		Session: injected,
		Log:     log.With("step", step.Name),
	}); err != nil {
		return o.fail(sr, stepCtx, FailAction, &ActionError{Err: err})
	}

	if step.ProducesSession {
		state, err := o.bridge.Extract(stepCtx, browser)
		if err != nil {
			return o.fail(sr, stepCtx, FailExtraction, err)
		}
		sessions[step.Name] = state
	}

	sr.Status = StatusPassed
	return sr
}

// runAction executes the step body, converting panics into errors so a
// misbehaving action cannot take down the orchestrator.
func runAction(ctx context.Context, step Step, sc StepContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action panic: %v", r)
		}
	}()
	return step.Action(ctx, sc)
}

// fail finalizes a failed step result, reclassifying any failure as a
// timeout when the step deadline is what actually expired.
func (o *Orchestrator) fail(sr StepResult, ctx context.Context, kind FailureKind, err error) StepResult {
	if ctx.Err() == context.DeadlineExceeded {
		kind = FailTimeout
	}
	sr.Status = StatusFailed
	sr.Kind = kind
	sr.Error = err.Error()
	return sr
}

func classifyLaunch(err error) FailureKind {
	var resErr *engine.ResolutionError
	if errors.As(err, &resErr) {
		return FailResolution
	}
	return FailLaunch
}
