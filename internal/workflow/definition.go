package workflow

import "fmt"

// DefinitionError reports an invalid workflow definition. Definitions fail
// at build time, before any engine is launched or any step runs.
type DefinitionError struct {
	Workflow string
	Step     string
	Msg      string
}

func (e *DefinitionError) Error() string {
	if e.Step == "" {
		return fmt.Sprintf("workflow %q: %s", e.Workflow, e.Msg)
	}
	return fmt.Sprintf("workflow %q, step %q: %s", e.Workflow, e.Step, e.Msg)
}

// Definition is a validated, ordered list of steps.
type Definition struct {
	Name  string
	Steps []Step
}

// NewDefinition validates the step list and returns the definition.
// Validation enforces:
//   - at least one step, unique non-empty names, non-nil actions
//   - an engine pin inside the closed engine set, or metadata to resolve one
//   - every RequiresSessionFrom names an EARLIER step with ProducesSession
//     (forward and self references are rejected, not just unknown names)
//   - session-dependent steps declare a TargetURL for injection
func NewDefinition(name string, steps ...Step) (*Definition, error) {
	if name == "" {
		return nil, &DefinitionError{Workflow: name, Msg: "missing workflow name"}
	}
	if len(steps) == 0 {
		return nil, &DefinitionError{Workflow: name, Msg: "no steps"}
	}

	producers := make(map[string]bool, len(steps))
	seen := make(map[string]bool, len(steps))
	for _, s := range steps {
		if s.Name == "" {
			return nil, &DefinitionError{Workflow: name, Msg: "step with empty name"}
		}
		if seen[s.Name] {
			return nil, &DefinitionError{Workflow: name, Step: s.Name, Msg: "duplicate step name"}
		}
		seen[s.Name] = true

		if s.Action == nil {
			return nil, &DefinitionError{Workflow: name, Step: s.Name, Msg: "missing action"}
		}
		if s.Engine != "" && !s.Engine.Valid() {
			return nil, &DefinitionError{Workflow: name, Step: s.Name,
				Msg: fmt.Sprintf("unknown engine %q", s.Engine)}
		}
		if s.Engine == "" && s.Metadata == nil {
			return nil, &DefinitionError{Workflow: name, Step: s.Name,
				Msg: "step needs an engine pin or metadata to resolve one"}
		}

		if s.RequiresSessionFrom != "" {
			if s.RequiresSessionFrom == s.Name {
				return nil, &DefinitionError{Workflow: name, Step: s.Name,
					Msg: "step cannot require a session from itself"}
			}
			if !producers[s.RequiresSessionFrom] {
				return nil, &DefinitionError{Workflow: name, Step: s.Name,
					Msg: fmt.Sprintf("requires_session_from %q does not name an earlier session-producing step", s.RequiresSessionFrom)}
			}
			if s.TargetURL == "" {
				return nil, &DefinitionError{Workflow: name, Step: s.Name,
					Msg: "session-dependent step needs a target URL for injection"}
			}
		}

		if s.ProducesSession {
			producers[s.Name] = true
		}
	}

	return &Definition{Name: name, Steps: steps}, nil
}
