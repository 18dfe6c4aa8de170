// Package rando implements the warp randomization engine: the graph builder,
// the iterative pairing state machine, the retry driver, the post-generation
// validator and the remap formatter.
package rando

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/warprando/internal/rng"
	"github.com/cory-johannsen/warprando/internal/warp"
)

// Result is the outcome of a successful randomization.
type Result struct {
	// Remaps is sorted by trigger coordinate.
	Remaps []WarpRemapping
	// RequestedSeed is the seed of the first attempt; Seed is the seed of the
	// attempt that succeeded.
	RequestedSeed int64
	Seed          int64
	Attempts      int
	Root          string
	Vertices      int
	Trace         Trace
}

// RandomizeWarps randomizes the warps of world for cfg, retrying with the
// next seed whenever an attempt turns out impossible.
//
// Precondition: world must be validated and not mutated while this runs.
// Postcondition: Returns a validated Result, or ctx.Err(), an error wrapping
// ErrInvalidWorld, or ErrRetriesExhausted when WithMaxAttempts bounds the loop.
func RandomizeWarps(ctx context.Context, world *warp.World, cfg warp.Config, opts ...Option) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorld, err)
	}
	o := buildOptions(opts)
	start := time.Now()

	seed := cfg.Seed
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		attemptCfg := cfg
		attemptCfg.Seed = seed
		res, err := runAttempt(world, attemptCfg, o)
		if err == nil {
			res.RequestedSeed = cfg.Seed
			res.Attempts = n
			o.logger.Info("warps randomized",
				zap.Int64("requested_seed", cfg.Seed),
				zap.Int64("seed", seed),
				zap.Int("attempts", n),
				zap.Int("remaps", len(res.Remaps)),
				zap.Duration("elapsed", time.Since(start)),
			)
			return res, nil
		}
		if !errors.Is(err, ErrImpossibleMap) {
			return nil, err
		}
		o.logger.Info("attempt failed; retrying with next seed",
			zap.Int64("seed", seed),
			zap.Int("attempt", n),
			zap.Error(err),
		)
		if o.maxAttempts > 0 && n >= o.maxAttempts {
			return nil, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, n, err)
		}
		seed++
	}
}

// runAttempt performs one complete attempt. Every piece of mutable state is
// created here and dropped when it returns.
func runAttempt(world *warp.World, cfg warp.Config, o options) (*Result, error) {
	a, err := build(world, cfg, rng.NewSeeded(cfg.Seed), o)
	if err != nil {
		return nil, err
	}
	if err := a.run(); err != nil {
		return nil, err
	}
	remaps, err := formatRemaps(a.g, a.triggers)
	if err != nil {
		return nil, err
	}
	if err := a.validate(remaps); err != nil {
		return nil, err
	}
	return &Result{
		Remaps:   remaps,
		Seed:     cfg.Seed,
		Root:     a.root,
		Vertices: a.g.VertexCount(),
		Trace:    a.trace,
	}, nil
}
