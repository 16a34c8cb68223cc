// Package report renders decisions, the loaded matrix, and workflow results
// for the CLI. The heavier reporting surface (HTML, Allure) lives outside
// this repository; these renderers only cover operator-facing terminal
// output.
package report

import (
	"fmt"
	"time"

	"janus/internal/decision"
	"janus/internal/matrix"
	"janus/internal/workflow"
)

// Decision renders one routing verdict.
func Decision(mode Mode, meta decision.TestMetadata, dec decision.Decision) string {
	b := newTable(mode)
	b.header("Test", "Engine", "Confidence", "Source", "Rule", "Reason", "Cached")
	rule := dec.MatchedRule
	if rule == "" {
		rule = "-"
	}
	b.row(meta.TestID, string(dec.Engine), fmt.Sprintf("%d", dec.Confidence),
		string(dec.Source), rule, dec.Reason, dec.FromCache)
	return b.String()
}

// Matrix renders the rule set in evaluation order, plus profile and
// override counts in the caption row.
func Matrix(mode Mode, m *matrix.Matrix) string {
	b := newTable(mode)
	b.header("#", "Rule", "Priority", "Engine", "Confidence", "Fallback", "Reason")
	b.rightAlign(1, 3, 5)
	for i, r := range m.RulesByPriority() {
		fb := "-"
		if r.Fallback != "" {
			fb = string(r.Fallback)
		}
		b.row(i+1, r.Name, r.Priority, string(r.Engine), r.Confidence, fb, r.Reason)
	}
	return b.String()
}

// Run renders a workflow result: per-step status, timing, and failure
// provenance, then the overall verdict.
func Run(mode Mode, res *workflow.Result) string {
	b := newTable(mode)
	b.header("Step", "Engine", "Status", "Duration", "Detail")
	for _, s := range res.Steps {
		b.row(s.Name, engineCell(s), string(s.Status), roundDuration(s.Duration), detailCell(s))
	}
	return fmt.Sprintf("Workflow %s (%s): %s\n%s",
		res.Workflow, res.RunID, res.Status, b.String())
}

func engineCell(s workflow.StepResult) string {
	if s.Engine == "" {
		return "-"
	}
	if s.UsedFallback {
		return fmt.Sprintf("%s (fallback)", s.Engine)
	}
	if s.Decision != nil && s.Decision.MatchedRule != "" {
		return fmt.Sprintf("%s (rule %s)", s.Engine, s.Decision.MatchedRule)
	}
	return string(s.Engine)
}

func detailCell(s workflow.StepResult) string {
	switch s.Status {
	case workflow.StatusFailed:
		return fmt.Sprintf("[%s] %s", s.Kind, s.Error)
	case workflow.StatusSkipped:
		return fmt.Sprintf("skipped after failure of %s", s.SkippedAfter)
	default:
		return ""
	}
}

func roundDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
