package workflow

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Runner executes independent workflows concurrently. Steps inside each
// workflow stay strictly sequential; only whole workflows run in parallel,
// since they share nothing but the read-only matrix and the stateless
// bridge.
type Runner struct {
	Orch *Orchestrator
	// Limit bounds concurrent workflow executions; <= 0 means 4.
	Limit int
}

// RunAll executes every definition and returns results in input order.
// One workflow failing (its Result says so) never cancels the others.
func (r *Runner) RunAll(ctx context.Context, defs []*Definition) []*Result {
	limit := r.Limit
	if limit <= 0 {
		limit = 4
	}

	results := make([]*Result, len(defs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, def := range defs {
		g.Go(func() error {
			results[i] = r.Orch.Run(gctx, def)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures live in results
	return results
}
