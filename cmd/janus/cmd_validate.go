package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"janus/internal/matrix"
)

var validateCmd = &cobra.Command{
	Use:   "validate <matrix-file>",
	Short: "Validate a decision matrix file without evaluating anything",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	m, err := matrix.LoadFromPath(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: OK\n", args[0])
	fmt.Fprintf(out, "  rules:           %d\n", len(m.RulesByPriority()))
	fmt.Fprintf(out, "  module profiles: %d\n", m.ProfileCount())
	fmt.Fprintf(out, "  overrides:       %d\n", m.OverrideCount())
	fmt.Fprintf(out, "  default engine:  %s\n", m.DefaultEngine())
	return nil
}
