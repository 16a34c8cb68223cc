package workflow

import (
	"context"
	"errors"
	"testing"

	"janus/internal/decision"
	"janus/internal/engine"
)

func noop(context.Context, StepContext) error { return nil }

func TestNewDefinition_Valid(t *testing.T) {
	def, err := NewDefinition("login-then-orders",
		Step{Name: "login", Engine: engine.Legacy, Action: noop, ProducesSession: true},
		Step{Name: "orders", Engine: engine.Modern, Action: noop,
			RequiresSessionFrom: "login", TargetURL: "https://app.example.test/"},
	)
	if err != nil {
		t.Fatalf("NewDefinition: %v", err)
	}
	if len(def.Steps) != 2 {
		t.Errorf("steps: %d", len(def.Steps))
	}
}

func TestNewDefinition_UnknownSessionReference(t *testing.T) {
	_, err := NewDefinition("w",
		Step{Name: "only", Engine: engine.Modern, Action: noop,
			RequiresSessionFrom: "step_that_does_not_exist", TargetURL: "https://x/"},
	)
	var defErr *DefinitionError
	if !errors.As(err, &defErr) {
		t.Fatalf("expected DefinitionError, got %v", err)
	}
	if defErr.Step != "only" {
		t.Errorf("error step: %q", defErr.Step)
	}
}

func TestNewDefinition_ForwardSessionReference(t *testing.T) {
	_, err := NewDefinition("w",
		Step{Name: "first", Engine: engine.Modern, Action: noop,
			RequiresSessionFrom: "second", TargetURL: "https://x/"},
		Step{Name: "second", Engine: engine.Legacy, Action: noop, ProducesSession: true},
	)
	if err == nil {
		t.Fatal("forward session reference must be rejected")
	}
}

func TestNewDefinition_ReferenceToNonProducer(t *testing.T) {
	_, err := NewDefinition("w",
		Step{Name: "login", Engine: engine.Legacy, Action: noop}, // no ProducesSession
		Step{Name: "orders", Engine: engine.Modern, Action: noop,
			RequiresSessionFrom: "login", TargetURL: "https://x/"},
	)
	if err == nil {
		t.Fatal("reference to a non-producing step must be rejected")
	}
}

func TestNewDefinition_SelfReference(t *testing.T) {
	_, err := NewDefinition("w",
		Step{Name: "a", Engine: engine.Modern, Action: noop,
			RequiresSessionFrom: "a", TargetURL: "https://x/", ProducesSession: true},
	)
	if err == nil {
		t.Fatal("self reference must be rejected")
	}
}

func TestNewDefinition_DependentNeedsTargetURL(t *testing.T) {
	_, err := NewDefinition("w",
		Step{Name: "login", Engine: engine.Legacy, Action: noop, ProducesSession: true},
		Step{Name: "orders", Engine: engine.Modern, Action: noop, RequiresSessionFrom: "login"},
	)
	if err == nil {
		t.Fatal("session-dependent step without target URL must be rejected")
	}
}

func TestNewDefinition_DuplicateNames(t *testing.T) {
	_, err := NewDefinition("w",
		Step{Name: "a", Engine: engine.Modern, Action: noop},
		Step{Name: "a", Engine: engine.Legacy, Action: noop},
	)
	if err == nil {
		t.Fatal("duplicate step names must be rejected")
	}
}

func TestNewDefinition_NeedsEngineOrMetadata(t *testing.T) {
	_, err := NewDefinition("w", Step{Name: "a", Action: noop})
	if err == nil {
		t.Fatal("step without engine pin or metadata must be rejected")
	}

	_, err = NewDefinition("w",
		Step{Name: "a", Action: noop, Metadata: &decision.TestMetadata{TestID: "t"}})
	if err != nil {
		t.Fatalf("metadata-resolved step should validate: %v", err)
	}
}

func TestNewDefinition_BadEnginePin(t *testing.T) {
	_, err := NewDefinition("w", Step{Name: "a", Engine: "webdriver", Action: noop})
	if err == nil {
		t.Fatal("unknown engine pin must be rejected")
	}
}

func TestNewDefinition_Empty(t *testing.T) {
	if _, err := NewDefinition("w"); err == nil {
		t.Fatal("empty definition must be rejected")
	}
	if _, err := NewDefinition("", Step{Name: "a", Engine: engine.Modern, Action: noop}); err == nil {
		t.Fatal("unnamed workflow must be rejected")
	}
}
