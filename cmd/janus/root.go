package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"janus/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	logLevel  string
	logFormat string
}

var rootCmd = &cobra.Command{
	Use:   "janus",
	Short: "Engine routing and session hand-off for browser test suites",
	Long: "Janus decides which browser engine each test should run on, based on a\n" +
		"declarative decision matrix, and carries authenticated sessions across\n" +
		"engine boundaries inside multi-step workflows.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		logging.Init(logging.ParseLevel(rootFlags.logLevel), rootFlags.logFormat)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&rootFlags.logFormat, "log-format", "text", "Log format (text or json)")

	rootCmd.AddCommand(decideCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(matrixCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
