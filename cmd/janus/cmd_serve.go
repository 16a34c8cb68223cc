package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"janus/internal/decision"
	"janus/internal/logging"
	"janus/internal/matrix"
	"janus/internal/mcpserve"
)

var serveFlags struct {
	matrixPath string
	noReload   bool
}

var serveCmd = &cobra.Command{
	Use:   "serve-mcp",
	Short: "Start the MCP server over stdio",
	Long: `Starts an MCP server over stdin/stdout exposing the routing tools
(decide_engine, get_matrix, validate_matrix). The matrix file is watched and
hot-reloaded on change unless --no-reload is given.

The server monitors for parent process death. When the client disconnects or
restarts, the server self-terminates to prevent zombie processes.`,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.matrixPath, "matrix", "", "Decision matrix file (required)")
	f.BoolVar(&serveFlags.noReload, "no-reload", false, "Disable matrix hot reload")

	_ = serveCmd.MarkFlagRequired("matrix")
}

func runServe(cmd *cobra.Command, _ []string) error {
	m, err := matrix.LoadFromPath(serveFlags.matrixPath)
	if err != nil {
		return err
	}
	decider := decision.New(m, decision.Options{Metrics: decision.NewMetrics(prometheus.DefaultRegisterer)})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if !serveFlags.noReload {
		w, err := decision.NewWatcher(serveFlags.matrixPath, decider)
		if err != nil {
			return err
		}
		go w.Run(ctx)
	}

	srv := mcpserve.NewServer(version, decider)
	mcpserve.WatchParent(ctx, cancel)

	logging.New("mcp").Info("starting janus MCP server over stdio (parent watchdog active)")
	return srv.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}
