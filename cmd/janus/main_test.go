package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"janus/internal/audit"
	"janus/internal/decision"
)

// execute runs the CLI in-process and returns combined output. Flag
// variables are package-level and survive across Execute calls, so they are
// reset to their registered defaults first.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	decideFlags.matrixPath = ""
	decideFlags.format = "table"
	decideFlags.asJSON = false
	decideFlags.record = false
	decideFlags.dbPath = audit.DefaultDBPath
	decideFlags.meta = metadataFlags{}
	matrixFlags.format = "table"
	historyFlags.dbPath = audit.DefaultDBPath
	historyFlags.limit = 10
	historyFlags.decisions = false

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestValidate_OK(t *testing.T) {
	out, err := execute(t, "validate", "testdata/matrix.yaml")
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	for _, want := range []string{"OK", "rules:           3", "module profiles: 2", "overrides:       1", "default engine:  modern"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestValidate_BadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "matrix.yaml")
	doc := "default_engine: modern\nrules:\n  - name: broken\n    priority: 10\n    engine: telepathy\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "validate", path)
	if err == nil {
		t.Fatalf("expected error, got:\n%s", out)
	}
	if !strings.Contains(err.Error(), "telepathy") {
		t.Errorf("error does not name the bad engine: %v", err)
	}
}

func TestDecide_JSONVerdict(t *testing.T) {
	out, err := execute(t, "decide",
		"--matrix", "testdata/matrix.yaml",
		"--test-id", "billing/test_invoice",
		"--module", "billing",
		"--auth-type", "saml",
		"--json")
	if err != nil {
		t.Fatalf("decide: %v\n%s", err, out)
	}
	var dec decision.Decision
	if err := json.Unmarshal([]byte(out), &dec); err != nil {
		t.Fatalf("parse verdict: %v\n%s", err, out)
	}
	if dec.Engine != "legacy" || dec.MatchedRule != "enterprise-auth" {
		t.Errorf("unexpected verdict: %+v", dec)
	}
}

func TestDecide_MetadataFile(t *testing.T) {
	dir := t.TempDir()
	metaPath := filepath.Join(dir, "meta.json")
	meta := `{"test_id": "storefront/test_search", "module": "storefront", "framework": "react", "network_interception": true}`
	if err := os.WriteFile(metaPath, []byte(meta), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "decide", "--matrix", "testdata/matrix.yaml", "--meta-file", metaPath, "--json")
	if err != nil {
		t.Fatalf("decide: %v\n%s", err, out)
	}
	var dec decision.Decision
	if err := json.Unmarshal([]byte(out), &dec); err != nil {
		t.Fatalf("parse verdict: %v\n%s", err, out)
	}
	if dec.MatchedRule != "react-interception" {
		t.Errorf("unexpected verdict: %+v", dec)
	}
}

func TestDecide_RequiresTestID(t *testing.T) {
	_, err := execute(t, "decide", "--matrix", "testdata/matrix.yaml")
	if err == nil || !strings.Contains(err.Error(), "test id") {
		t.Fatalf("expected missing test id error, got %v", err)
	}
}

func TestMatrix_RendersRules(t *testing.T) {
	out, err := execute(t, "matrix", "testdata/matrix.yaml")
	if err != nil {
		t.Fatalf("matrix: %v\n%s", err, out)
	}
	first := strings.Index(out, "enterprise-auth")
	second := strings.Index(out, "deep-iframes")
	if first < 0 || second < 0 || first > second {
		t.Errorf("rules missing or out of order:\n%s", out)
	}
}

func TestHistory_EmptyStore(t *testing.T) {
	db := filepath.Join(t.TempDir(), "janus.db")
	out, err := execute(t, "history", "--db", db)
	if err != nil {
		t.Fatalf("history: %v\n%s", err, out)
	}
	if !strings.Contains(out, "No runs recorded yet.") {
		t.Errorf("unexpected output:\n%s", out)
	}
}
