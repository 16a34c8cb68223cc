package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"janus/internal/audit"
)

var historyFlags struct {
	dbPath    string
	limit     int
	decisions bool
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent workflow runs and routing decisions",
	RunE:  runHistory,
}

func init() {
	f := historyCmd.Flags()
	f.StringVar(&historyFlags.dbPath, "db", audit.DefaultDBPath, "Audit store path")
	f.IntVar(&historyFlags.limit, "limit", 10, "Maximum entries to show")
	f.BoolVar(&historyFlags.decisions, "decisions", false, "Show routing decisions instead of runs")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	store, err := audit.Open(historyFlags.dbPath)
	if err != nil {
		return fmt.Errorf("open audit store: %w", err)
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	if historyFlags.decisions {
		recs, err := store.ListDecisions(historyFlags.limit)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Fprintln(out, "No decisions recorded yet.")
			return nil
		}
		for _, r := range recs {
			fmt.Fprintf(out, "%s  %-30s %-8s conf=%-3d %s", r.DecidedAt.Format("2006-01-02 15:04:05"), r.TestID, r.Engine, r.Confidence, r.Source)
			if r.Rule != "" {
				fmt.Fprintf(out, " (%s)", r.Rule)
			}
			fmt.Fprintln(out)
		}
		return nil
	}

	runs, err := store.ListRuns(historyFlags.limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet.")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(out, "%s  %-24s %-7s %s (%d steps)\n", r.Started.Format("2006-01-02 15:04:05"), r.Workflow, r.Status, r.RunID, len(r.Steps))
		for _, s := range r.Steps {
			fmt.Fprintf(out, "    %-20s %-8s %s", s.Name, s.Engine, s.Status)
			switch {
			case s.Error != "":
				fmt.Fprintf(out, "  [%s] %s", s.FailureKind, s.Error)
			case s.SkippedAfter != "":
				fmt.Fprintf(out, "  after failure of %s", s.SkippedAfter)
			}
			fmt.Fprintln(out)
		}
	}
	return nil
}
