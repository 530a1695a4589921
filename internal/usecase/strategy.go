package usecase

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Strategy runs fn once for every slot in [0, n). fn writes its own result
// by index, so callers get rank order whatever the execution order was.
type Strategy interface {
	Each(ctx context.Context, n int, fn func(ctx context.Context, i int))
}

// Sequential processes one slot at a time: at most one encode or AI call is
// in flight.
type Sequential struct{}

func (Sequential) Each(ctx context.Context, n int, fn func(ctx context.Context, i int)) {
	for i := 0; i < n; i++ {
		fn(ctx, i)
	}
}

// Pool processes up to Limit slots concurrently.
type Pool struct {
	Limit int
}

func (p Pool) Each(ctx context.Context, n int, fn func(ctx context.Context, i int)) {
	var g errgroup.Group
	if p.Limit > 0 {
		g.SetLimit(p.Limit)
	}
	for i := 0; i < n; i++ {
		g.Go(func() error {
			fn(ctx, i)
			return nil
		})
	}
	_ = g.Wait()
}

// StrategyFor maps a concurrency setting to a strategy; 1 or less is
// sequential.
func StrategyFor(concurrency int) Strategy {
	if concurrency <= 1 {
		return Sequential{}
	}
	return Pool{Limit: concurrency}
}
