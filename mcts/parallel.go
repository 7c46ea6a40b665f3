package mcts

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gorgonia.org/vecf32"
)

// runParallel searches Workers independent trees from the same root and sums the visits
// of the root children. Trees share nothing, so no locking is required, but the evaluator
// must be safe for concurrent use.
//
// Worker i seeds its noise with Seed+i. Counts are merged in worker order, so the result
// does not depend on which worker finishes first.
func (m *MCTS[S]) runParallel(ctx context.Context, root S) ([]float32, error) {
	if m.engine.IsTerminal(root) {
		return nil, errors.Wrap(ErrInvalidState, "cannot search from a terminal position")
	}

	start := time.Now()
	counts := make([][]float32, m.Workers)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < m.Workers; i++ {
		i := i
		g.Go(func() error {
			t, err := m.search(gctx, root, m.Seed+int64(i))
			if err != nil {
				return errors.WithMessagef(err, "worker %d", i)
			}
			counts[i] = t.VisitCounts(m.ActionSpace)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make([]float32, m.ActionSpace)
	for _, c := range counts {
		vecf32.Add(merged, c)
	}
	m.logger.Debug().
		Int("workers", m.Workers).
		Float32("visits", vecf32.Sum(merged)).
		Dur("elapsed", time.Since(start)).
		Msg("parallel search done")
	return normalize(merged)
}
