package exec

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// runLayer invokes work for every id in layer with at most maxConcurrent
// running at once, waiting for all of them before returning. This is the
// layer barrier (spec.md §5): no node in the next layer may start before
// every node in this one has finished, since the next layer's inputs
// depend on this layer's outputs.
//
// Adapted from the teacher's frontier/WaitGroup worker pool
// (graph/scheduler.go, graph/engine.go's runConcurrent) but expressed
// with golang.org/x/sync's errgroup+semaphore rather than a hand-rolled
// WaitGroup and channel, since every goroutine here is homogeneous
// (one node, one error) and errgroup already captures the first error
// and cancels the shared context for the rest.
func runLayer(ctx context.Context, maxConcurrent int, layer []string, work func(ctx context.Context, nodeID string) error) error {
	if maxConcurrent <= 0 {
		maxConcurrent = len(layer)
	}
	if maxConcurrent <= 0 {
		return nil
	}

	sem := semaphore.NewWeighted(int64(maxConcurrent))
	group, gctx := errgroup.WithContext(ctx)

	for _, id := range layer {
		id := id
		if err := sem.Acquire(gctx, 1); err != nil {
			if werr := group.Wait(); werr != nil {
				return werr
			}
			return err
		}
		group.Go(func() error {
			defer sem.Release(1)
			return work(gctx, id)
		})
	}
	return group.Wait()
}
