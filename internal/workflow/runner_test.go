package workflow

import (
	"context"
	"errors"
	"testing"

	"janus/internal/engine"
)

func TestRunAll_OrderAndIndependence(t *testing.T) {
	f := newFixture(t)

	ok1, _ := NewDefinition("first", Step{Name: "a", Engine: engine.Modern, Action: noop})
	bad, _ := NewDefinition("second", Step{Name: "a", Engine: engine.Modern,
		Action: func(context.Context, StepContext) error { return errors.New("fails") }})
	ok2, _ := NewDefinition("third", Step{Name: "a", Engine: engine.Legacy, Action: noop})

	r := &Runner{Orch: f.orch, Limit: 2}
	results := r.RunAll(context.Background(), []*Definition{ok1, bad, ok2})

	if len(results) != 3 {
		t.Fatalf("results: %d", len(results))
	}
	if results[0].Workflow != "first" || results[1].Workflow != "second" || results[2].Workflow != "third" {
		t.Errorf("result order lost: %s %s %s",
			results[0].Workflow, results[1].Workflow, results[2].Workflow)
	}
	if results[0].Status != StatusPassed || results[2].Status != StatusPassed {
		t.Error("independent workflows affected by a sibling failure")
	}
	if results[1].Status != StatusFailed {
		t.Error("failing workflow not reported failed")
	}
}

func TestRunAll_DefaultLimit(t *testing.T) {
	f := newFixture(t)
	defs := make([]*Definition, 8)
	for i := range defs {
		def, err := NewDefinition("w"+string(rune('a'+i)),
			Step{Name: "a", Engine: engine.Modern, Action: noop})
		if err != nil {
			t.Fatal(err)
		}
		defs[i] = def
	}
	r := &Runner{Orch: f.orch}
	results := r.RunAll(context.Background(), defs)
	for _, res := range results {
		if res == nil || res.Status != StatusPassed {
			t.Fatalf("result: %+v", res)
		}
	}
}
