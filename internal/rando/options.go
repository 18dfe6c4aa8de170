package rando

import (
	"go.uber.org/zap"
)

// options holds the pluggable collaborators of a randomization.
type options struct {
	logger      *zap.Logger
	selector    SourceSelector
	homeSet     HomeSetFunc
	maxAttempts int
}

// Option configures RandomizeWarps and Batch.
type Option func(*options)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSourceSelector replaces the area-spread source heuristic.
func WithSourceSelector(s SourceSelector) Option {
	return func(o *options) {
		if s != nil {
			o.selector = s
		}
	}
}

// WithHomeSet replaces the home-path precomputation.
func WithHomeSet(fn HomeSetFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.homeSet = fn
		}
	}
}

// WithMaxAttempts bounds the retry loop. n <= 0 retries forever.
func WithMaxAttempts(n int) Option {
	return func(o *options) {
		o.maxAttempts = n
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger:   zap.NewNop(),
		selector: TieredSpread{},
		homeSet:  ReachableFromRoot,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
