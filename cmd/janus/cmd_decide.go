package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"janus/internal/audit"
	"janus/internal/decision"
	"janus/internal/matrix"
	"janus/internal/report"
)

var decideFlags struct {
	matrixPath string
	format     string
	asJSON     bool
	record     bool
	dbPath     string
	meta       metadataFlags
}

var decideCmd = &cobra.Command{
	Use:   "decide",
	Short: "Resolve the engine for one test against the decision matrix",
	RunE:  runDecide,
}

func init() {
	f := decideCmd.Flags()
	f.StringVar(&decideFlags.matrixPath, "matrix", "", "Decision matrix file (YAML or JSON, required)")
	f.StringVar(&decideFlags.format, "format", "table", "Output format (table or markdown)")
	f.BoolVar(&decideFlags.asJSON, "json", false, "Emit the verdict as JSON instead of a table")
	f.BoolVar(&decideFlags.record, "record", false, "Record the verdict in the audit store")
	f.StringVar(&decideFlags.dbPath, "db", audit.DefaultDBPath, "Audit store path")

	m := &decideFlags.meta
	f.StringVar(&m.file, "meta-file", "", "JSON file with test metadata")
	f.StringVar(&m.testID, "test-id", "", "Test identifier")
	f.StringVar(&m.module, "module", "", "Application module under test")
	f.StringVar(&m.framework, "framework", "", "Test framework name")
	f.StringSliceVar(&m.authTypes, "auth-type", nil, "Authentication types the test exercises")
	f.IntVar(&m.iframeDepth, "iframe-depth", 0, "Maximum iframe nesting depth")
	f.BoolVar(&m.networkInterception, "network-interception", false, "Test intercepts network traffic")
	f.BoolVar(&m.mobileFirst, "mobile-first", false, "Test targets a mobile viewport")
	f.StringSliceVar(&m.markers, "marker", nil, "Free-form test markers")

	_ = decideCmd.MarkFlagRequired("matrix")
}

func runDecide(cmd *cobra.Command, _ []string) error {
	m, err := matrix.LoadFromPath(decideFlags.matrixPath)
	if err != nil {
		return err
	}
	meta, err := decideFlags.meta.build()
	if err != nil {
		return err
	}

	dec := decision.New(m, decision.Options{}).Decide(meta)

	if decideFlags.record {
		store, err := audit.Open(decideFlags.dbPath)
		if err != nil {
			return fmt.Errorf("open audit store: %w", err)
		}
		defer store.Close()
		if err := store.RecordDecision(meta, dec); err != nil {
			return fmt.Errorf("record decision: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if decideFlags.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(dec)
	}
	mode, err := reportMode(decideFlags.format)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, report.Decision(mode, meta, dec))
	return nil
}
