// Package mcpserve exposes the decision engine to MCP clients over stdio.
// Agents and editor integrations can resolve engines, inspect the active
// matrix, and validate candidate matrices without shelling out to the CLI.
package mcpserve

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"janus/internal/decision"
	"janus/internal/logging"
	"janus/internal/matrix"
)

// Server wraps the MCP SDK server around a live decider. The decider may be
// hot-reloaded (via decision.Watcher) while the server runs; tools always
// see the currently active matrix.
type Server struct {
	MCPServer *sdkmcp.Server

	decider *decision.Decider
	log     *slog.Logger
}

// NewServer creates a janus MCP server with routing tools registered.
func NewServer(version string, d *decision.Decider) *Server {
	s := &Server{
		MCPServer: sdkmcp.NewServer(
			&sdkmcp.Implementation{Name: "janus", Version: version},
			nil,
		),
		decider: d,
		log:     logging.New("mcp"),
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "decide_engine",
		Description: "Resolve the browser engine for one test from its metadata. Always returns a verdict.",
	}, s.handleDecideEngine)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_matrix",
		Description: "List the active decision matrix rules in evaluation order.",
	}, s.handleGetMatrix)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "validate_matrix",
		Description: "Validate a candidate decision matrix document (YAML or JSON) without activating it.",
	}, s.handleValidateMatrix)
}

// --- Tool input/output types ---

type decideEngineInput struct {
	TestID              string         `json:"test_id" jsonschema:"test identifier"`
	Module              string         `json:"module,omitempty" jsonschema:"application module under test"`
	Framework           string         `json:"framework,omitempty" jsonschema:"test framework name"`
	AuthTypes           []string       `json:"auth_type,omitempty" jsonschema:"authentication types the test exercises"`
	IframeDepth         int            `json:"iframe_depth,omitempty" jsonschema:"maximum iframe nesting depth"`
	NetworkInterception bool           `json:"network_interception,omitempty" jsonschema:"test intercepts network traffic"`
	MobileFirst         bool           `json:"mobile_first,omitempty" jsonschema:"test targets a mobile viewport"`
	Markers             []string       `json:"markers,omitempty" jsonschema:"free-form test markers"`
	Extra               map[string]any `json:"extra,omitempty" jsonschema:"additional fields rules may reference"`
}

type decideEngineOutput struct {
	Engine      string `json:"engine"`
	Confidence  int    `json:"confidence"`
	Reason      string `json:"reason"`
	MatchedRule string `json:"matched_rule,omitempty"`
	Fallback    string `json:"fallback,omitempty"`
	Source      string `json:"source"`
	FromCache   bool   `json:"from_cache"`
}

type getMatrixInput struct{}

type matrixRule struct {
	Name       string `json:"name"`
	Priority   int    `json:"priority"`
	Engine     string `json:"engine"`
	Confidence int    `json:"confidence"`
	Reason     string `json:"reason,omitempty"`
	Fallback   string `json:"fallback,omitempty"`
}

type getMatrixOutput struct {
	Rules         []matrixRule `json:"rules"`
	Profiles      int          `json:"module_profiles"`
	Overrides     int          `json:"overrides"`
	DefaultEngine string       `json:"default_engine"`
}

type validateMatrixInput struct {
	Document string `json:"document" jsonschema:"matrix document text"`
	Format   string `json:"format,omitempty" jsonschema:"document format, yaml or json (default yaml)"`
}

type validateMatrixOutput struct {
	Valid bool   `json:"valid"`
	Rules int    `json:"rules,omitempty"`
	Error string `json:"error,omitempty"`
}

// --- Tool handlers ---

func (s *Server) handleDecideEngine(_ context.Context, _ *sdkmcp.CallToolRequest, input decideEngineInput) (*sdkmcp.CallToolResult, decideEngineOutput, error) {
	meta := decision.TestMetadata{
		TestID:              input.TestID,
		Module:              input.Module,
		Framework:           input.Framework,
		AuthTypes:           input.AuthTypes,
		IframeDepth:         input.IframeDepth,
		NetworkInterception: input.NetworkInterception,
		MobileFirst:         input.MobileFirst,
		Markers:             input.Markers,
		Extra:               input.Extra,
	}
	dec := s.decider.Decide(meta)
	s.log.Info("decided", "test_id", input.TestID, "engine", dec.Engine, "source", dec.Source)

	return nil, decideEngineOutput{
		Engine:      string(dec.Engine),
		Confidence:  dec.Confidence,
		Reason:      dec.Reason,
		MatchedRule: dec.MatchedRule,
		Fallback:    string(dec.Fallback),
		Source:      string(dec.Source),
		FromCache:   dec.FromCache,
	}, nil
}

func (s *Server) handleGetMatrix(_ context.Context, _ *sdkmcp.CallToolRequest, _ getMatrixInput) (*sdkmcp.CallToolResult, getMatrixOutput, error) {
	m := s.decider.Matrix()
	rules := m.RulesByPriority()
	out := getMatrixOutput{
		Rules:         make([]matrixRule, 0, len(rules)),
		Profiles:      m.ProfileCount(),
		Overrides:     m.OverrideCount(),
		DefaultEngine: string(m.DefaultEngine()),
	}
	for _, r := range rules {
		out.Rules = append(out.Rules, matrixRule{
			Name:       r.Name,
			Priority:   r.Priority,
			Engine:     string(r.Engine),
			Confidence: r.Confidence,
			Reason:     r.Reason,
			Fallback:   string(r.Fallback),
		})
	}
	return nil, out, nil
}

func (s *Server) handleValidateMatrix(_ context.Context, _ *sdkmcp.CallToolRequest, input validateMatrixInput) (*sdkmcp.CallToolResult, validateMatrixOutput, error) {
	ext := ".yaml"
	if input.Format == "json" {
		ext = ".json"
	}
	m, err := matrix.Load([]byte(input.Document), ext)
	if err != nil {
		return nil, validateMatrixOutput{Valid: false, Error: err.Error()}, nil
	}
	return nil, validateMatrixOutput{Valid: true, Rules: len(m.RulesByPriority())}, nil
}
