package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"janus/internal/decision"
	"janus/internal/engine"
)

// Workflow documents let the CLI drive cross-engine flows from a YAML/JSON
// file. The library API takes opaque Action funcs; the document form maps a
// small set of named actions onto them.

type workflowDoc struct {
	Name  string    `json:"name" yaml:"name"`
	Steps []stepDoc `json:"steps" yaml:"steps"`
}

type stepDoc struct {
	Name                string       `json:"name" yaml:"name"`
	Engine              string       `json:"engine" yaml:"engine"`
	Metadata            *metadataDoc `json:"metadata" yaml:"metadata"`
	Action              string       `json:"action" yaml:"action"`
	URL                 string       `json:"url" yaml:"url"`
	Script              string       `json:"script" yaml:"script"`
	RequiresSessionFrom string       `json:"requires_session_from" yaml:"requires_session_from"`
	TargetURL           string       `json:"target_url" yaml:"target_url"`
	ProducesSession     bool         `json:"produces_session" yaml:"produces_session"`
	Timeout             string       `json:"timeout" yaml:"timeout"`
}

type metadataDoc struct {
	TestID              string         `json:"test_id" yaml:"test_id"`
	Module              string         `json:"module" yaml:"module"`
	Framework           string         `json:"framework" yaml:"framework"`
	AuthTypes           []string       `json:"auth_type" yaml:"auth_type"`
	IframeDepth         int            `json:"iframe_depth" yaml:"iframe_depth"`
	NetworkInterception bool           `json:"network_interception" yaml:"network_interception"`
	MobileFirst         bool           `json:"mobile_first" yaml:"mobile_first"`
	Markers             []string       `json:"markers" yaml:"markers"`
	Extra               map[string]any `json:"extra" yaml:"extra"`
}

func (d *metadataDoc) toMetadata() *decision.TestMetadata {
	return &decision.TestMetadata{
		TestID:              d.TestID,
		Module:              d.Module,
		Framework:           d.Framework,
		AuthTypes:           d.AuthTypes,
		IframeDepth:         d.IframeDepth,
		NetworkInterception: d.NetworkInterception,
		MobileFirst:         d.MobileFirst,
		Markers:             d.Markers,
		Extra:               d.Extra,
	}
}

// LoadDefinitionFromPath reads a workflow file (YAML or JSON) and returns
// the validated definition.
func LoadDefinitionFromPath(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow: %w", err)
	}
	return LoadDefinition(data, filepath.Ext(path))
}

// LoadDefinition parses a workflow document and builds the step actions
// from their named forms. Validation is the same as NewDefinition.
func LoadDefinition(data []byte, ext string) (*Definition, error) {
	ext = strings.ToLower(ext)
	if ext == ".yml" {
		ext = ".yaml"
	}

	var doc workflowDoc
	switch {
	case ext == ".json" || (ext != ".yaml" && strings.HasPrefix(strings.TrimSpace(string(data)), "{")):
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse workflow json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse workflow yaml: %w", err)
		}
	}

	steps := make([]Step, 0, len(doc.Steps))
	for _, sd := range doc.Steps {
		s := Step{
			Name:                sd.Name,
			RequiresSessionFrom: sd.RequiresSessionFrom,
			TargetURL:           sd.TargetURL,
			ProducesSession:     sd.ProducesSession,
		}
		if sd.Engine != "" {
			e, err := engine.Parse(sd.Engine)
			if err != nil {
				return nil, &DefinitionError{Workflow: doc.Name, Step: sd.Name, Msg: err.Error()}
			}
			s.Engine = e
		}
		if sd.Metadata != nil {
			s.Metadata = sd.Metadata.toMetadata()
		}
		if sd.Timeout != "" {
			d, err := time.ParseDuration(sd.Timeout)
			if err != nil {
				return nil, &DefinitionError{Workflow: doc.Name, Step: sd.Name,
					Msg: fmt.Sprintf("bad timeout %q: %v", sd.Timeout, err)}
			}
			s.Timeout = d
		}
		action, err := buildAction(doc.Name, sd)
		if err != nil {
			return nil, err
		}
		s.Action = action
		steps = append(steps, s)
	}
	return NewDefinition(doc.Name, steps...)
}

// buildAction maps a named document action onto a Step Action.
func buildAction(workflow string, sd stepDoc) (Action, error) {
	switch sd.Action {
	case "navigate":
		if sd.URL == "" {
			return nil, &DefinitionError{Workflow: workflow, Step: sd.Name, Msg: "navigate action needs a url"}
		}
		url := sd.URL
		return func(ctx context.Context, sc StepContext) error {
			return sc.Browser.Navigate(ctx, url)
		}, nil
	case "evaluate":
		if sd.Script == "" {
			return nil, &DefinitionError{Workflow: workflow, Step: sd.Name, Msg: "evaluate action needs a script"}
		}
		script := sd.Script
		return func(ctx context.Context, sc StepContext) error {
			return sc.Browser.Evaluate(ctx, script, nil)
		}, nil
	case "noop", "":
		return func(context.Context, StepContext) error { return nil }, nil
	default:
		return nil, &DefinitionError{Workflow: workflow, Step: sd.Name,
			Msg: fmt.Sprintf("unknown action %q", sd.Action)}
	}
}
