package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"janus/internal/audit"
	"janus/internal/bridge"
	"janus/internal/decision"
	"janus/internal/engine"
	"janus/internal/matrix"
	"janus/internal/report"
	"janus/internal/workflow"
)

var runFlags struct {
	matrixPath  string
	format      string
	headful     bool
	debuggerURL string
	concurrency int
	noRecord    bool
	dbPath      string
	storageKeys []string
}

var runCmd = &cobra.Command{
	Use:   "run <workflow-file>...",
	Short: "Execute one or more workflow files against real browsers",
	Long: "Executes workflow definitions step by step. Each step resolves its engine\n" +
		"through the decision matrix (unless pinned), and sessions produced by earlier\n" +
		"steps are injected into later ones across engine boundaries.",
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.matrixPath, "matrix", "", "Decision matrix file (required)")
	f.StringVar(&runFlags.format, "format", "table", "Output format (table or markdown)")
	f.BoolVar(&runFlags.headful, "headful", false, "Run the modern engine with a visible browser window")
	f.StringVar(&runFlags.debuggerURL, "legacy-debugger-url", "", "Remote debugger URL for the legacy engine, e.g. ws://grid:9222")
	f.IntVar(&runFlags.concurrency, "concurrency", 0, "Concurrent workflow limit (0 = default)")
	f.BoolVar(&runFlags.noRecord, "no-record", false, "Skip recording results in the audit store")
	f.StringVar(&runFlags.dbPath, "db", audit.DefaultDBPath, "Audit store path")
	f.StringSliceVar(&runFlags.storageKeys, "storage-key", nil, "Restrict session hand-off to these storage keys")

	_ = runCmd.MarkFlagRequired("matrix")
}

func runRun(cmd *cobra.Command, args []string) error {
	m, err := matrix.LoadFromPath(runFlags.matrixPath)
	if err != nil {
		return err
	}

	defs := make([]*workflow.Definition, 0, len(args))
	for _, path := range args {
		def, err := workflow.LoadDefinitionFromPath(path)
		if err != nil {
			return err
		}
		defs = append(defs, def)
	}

	launchers := engine.NewRegistry()
	launchers.Register(engine.Modern, &engine.ModernLauncher{Headless: !runFlags.headful})
	launchers.Register(engine.Legacy, &engine.LegacyLauncher{DebuggerURL: runFlags.debuggerURL})

	decider := decision.New(m, decision.Options{})
	br := bridge.New(bridge.Options{StorageKeys: runFlags.storageKeys})
	runner := &workflow.Runner{
		Orch:  workflow.New(launchers, decider, br),
		Limit: runFlags.concurrency,
	}

	results := runner.RunAll(cmd.Context(), defs)

	var store audit.Store
	if !runFlags.noRecord {
		store, err = audit.Open(runFlags.dbPath)
		if err != nil {
			return fmt.Errorf("open audit store: %w", err)
		}
		defer store.Close()
	}

	mode, err := reportMode(runFlags.format)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, res := range results {
		if store != nil {
			if err := store.RecordRun(res); err != nil {
				return fmt.Errorf("record run %s: %w", res.RunID, err)
			}
		}
		fmt.Fprintln(out, report.Run(mode, res))
		if res.Status != workflow.StatusPassed {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d workflows failed", failed, len(results))
	}
	return nil
}
