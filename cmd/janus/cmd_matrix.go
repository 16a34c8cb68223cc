package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"janus/internal/matrix"
	"janus/internal/report"
)

var matrixFlags struct {
	format string
}

var matrixCmd = &cobra.Command{
	Use:   "matrix <matrix-file>",
	Short: "Render the decision matrix in evaluation order",
	Args:  cobra.ExactArgs(1),
	RunE:  runMatrix,
}

func init() {
	matrixCmd.Flags().StringVar(&matrixFlags.format, "format", "table", "Output format (table or markdown)")
}

func runMatrix(cmd *cobra.Command, args []string) error {
	m, err := matrix.LoadFromPath(args[0])
	if err != nil {
		return err
	}
	mode, err := reportMode(matrixFlags.format)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), report.Matrix(mode, m))
	return nil
}
