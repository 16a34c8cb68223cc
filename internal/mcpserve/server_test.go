package mcpserve_test

import (
	"context"
	"encoding/json"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"janus/internal/decision"
	"janus/internal/matrix"
	"janus/internal/mcpserve"
)

const matrixDoc = `
default_engine: modern
rules:
  - name: enterprise-auth
    priority: 95
    condition:
      auth_type: [saml, oauth_redirect]
    engine: legacy
    confidence: 95
    reason: multi-domain auth redirects
module_profiles:
  billing: legacy
overrides:
  checkout/test_guest_payment: modern
`

func newTestServer(t *testing.T) *mcpserve.Server {
	t.Helper()
	m, err := matrix.Load([]byte(matrixDoc), ".yaml")
	if err != nil {
		t.Fatalf("load matrix: %v", err)
	}
	return mcpserve.NewServer("test", decision.New(m, decision.Options{}))
}

func connectInMemory(t *testing.T, ctx context.Context, srv *mcpserve.Server) *sdkmcp.ClientSession {
	t.Helper()
	t1, t2 := sdkmcp.NewInMemoryTransports()
	if _, err := srv.MCPServer.Connect(ctx, t1, nil); err != nil {
		t.Fatalf("server.Connect: %v", err)
	}
	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, t2, nil)
	if err != nil {
		t.Fatalf("client.Connect: %v", err)
	}
	return session
}

func callTool(t *testing.T, ctx context.Context, session *sdkmcp.ClientSession, name string, args map[string]any) map[string]any {
	t.Helper()
	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if res.IsError {
		for _, c := range res.Content {
			if tc, ok := c.(*sdkmcp.TextContent); ok {
				t.Fatalf("CallTool(%s) returned error: %s", name, tc.Text)
			}
		}
		t.Fatalf("CallTool(%s) returned error", name)
	}
	result := make(map[string]any)
	for _, c := range res.Content {
		if tc, ok := c.(*sdkmcp.TextContent); ok {
			if err := json.Unmarshal([]byte(tc.Text), &result); err != nil {
				t.Fatalf("parse %s result: %v", name, err)
			}
		}
	}
	return result
}

func TestServer_ToolDiscovery(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	session := connectInMemory(t, ctx, srv)

	tools, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}

	expected := map[string]bool{
		"decide_engine":   false,
		"get_matrix":      false,
		"validate_matrix": false,
	}
	for _, tool := range tools.Tools {
		if _, ok := expected[tool.Name]; ok {
			expected[tool.Name] = true
		}
	}
	for name, found := range expected {
		if !found {
			t.Errorf("expected tool %q not found", name)
		}
	}
}

func TestServer_DecideEngine(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	session := connectInMemory(t, ctx, srv)

	res := callTool(t, ctx, session, "decide_engine", map[string]any{
		"test_id":   "billing/test_sso",
		"module":    "billing",
		"auth_type": []string{"saml"},
	})
	if res["engine"] != "legacy" {
		t.Errorf("engine = %v, want legacy", res["engine"])
	}
	if res["matched_rule"] != "enterprise-auth" {
		t.Errorf("matched_rule = %v, want enterprise-auth", res["matched_rule"])
	}

	// Unknown metadata still yields a verdict via the default engine.
	res = callTool(t, ctx, session, "decide_engine", map[string]any{
		"test_id": "misc/test_unmapped",
	})
	if res["engine"] != "modern" || res["source"] != "default" {
		t.Errorf("unexpected fallback verdict: %v", res)
	}
}

func TestServer_GetMatrix(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	session := connectInMemory(t, ctx, srv)

	res := callTool(t, ctx, session, "get_matrix", nil)
	rules, ok := res["rules"].([]any)
	if !ok || len(rules) != 1 {
		t.Fatalf("rules = %v, want one rule", res["rules"])
	}
	if res["default_engine"] != "modern" {
		t.Errorf("default_engine = %v", res["default_engine"])
	}
}

func TestServer_ValidateMatrix(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	session := connectInMemory(t, ctx, srv)

	res := callTool(t, ctx, session, "validate_matrix", map[string]any{
		"document": matrixDoc,
	})
	if res["valid"] != true {
		t.Fatalf("valid matrix rejected: %v", res)
	}

	res = callTool(t, ctx, session, "validate_matrix", map[string]any{
		"document": "default_engine: telepathy\n",
	})
	if res["valid"] == true {
		t.Fatal("invalid matrix accepted")
	}
	if errText, _ := res["error"].(string); errText == "" {
		t.Error("validation error text missing")
	}
}
