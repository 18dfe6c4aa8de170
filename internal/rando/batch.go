package rando

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/warprando/internal/warp"
)

// Batch randomizes count consecutive seeds starting at base.Seed, running at
// most workers randomizations at once. Each randomization owns its state;
// only the immutable world is shared.
//
// Precondition: count >= 0; workers >= 1.
// Postcondition: results[i] belongs to seed base.Seed+i, or the first error
// is returned.
func Batch(ctx context.Context, world *warp.World, base warp.Config, count, workers int, opts ...Option) ([]*Result, error) {
	if count < 0 {
		return nil, fmt.Errorf("batch count must be >= 0, got %d", count)
	}
	if workers < 1 {
		return nil, fmt.Errorf("batch workers must be >= 1, got %d", workers)
	}

	results := make([]*Result, count)
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for i := 0; i < count; i++ {
		cfg := base
		cfg.Seed = base.Seed + int64(i)
		group.Go(func() error {
			res, err := RandomizeWarps(groupCtx, world, cfg, opts...)
			if err != nil {
				return fmt.Errorf("seed %d: %w", cfg.Seed, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
