package mcpserve

import (
	"context"
	"os"
	"time"

	"janus/internal/logging"
)

// WatchParent cancels the server context when the parent process goes away.
// MCP clients that crash or restart their extension host do not always close
// stdin, so the server would otherwise linger as a zombie.
func WatchParent(ctx context.Context, cancel context.CancelFunc) {
	ppid := os.Getppid()
	log := logging.New("mcp")
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
				if os.Getppid() != ppid {
					log.Warn("parent process died, shutting down", "was_pid", ppid)
					cancel()
					return
				}
			}
		}
	}()
}
