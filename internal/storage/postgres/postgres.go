// Package postgres archives randomizer runs in PostgreSQL using pgx v5.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cory-johannsen/warprando/internal/config"
)

// ErrArchiveDisabled is returned by Open when database.enabled is false.
var ErrArchiveDisabled = errors.New("run archive is disabled (set database.enabled)")

// Archive owns the connection pool behind the run archive.
type Archive struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// Open connects to the run archive described by cfg.
//
// Precondition: cfg.Enabled is true and cfg passed config validation.
// Postcondition: Returns a pinged Archive, ErrArchiveDisabled, or a connection error.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Archive, error) {
	if !cfg.Enabled {
		return nil, ErrArchiveDisabled
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	start := time.Now()
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging run archive at %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	logger.Debug("run archive connected",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Name),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &Archive{pool: pool, logger: logger}, nil
}

// Ping checks that the archive answers within timeout.
func (a *Archive) Ping(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return a.pool.Ping(ctx)
}

// Runs returns the repository of archived runs.
func (a *Archive) Runs() *RunRepository {
	return NewRunRepository(a.pool)
}

// DB exposes the pool for callers that run raw SQL, such as migrations in tests.
func (a *Archive) DB() *pgxpool.Pool {
	return a.pool
}

// Close releases the pool. The Archive is unusable afterwards.
func (a *Archive) Close() {
	a.pool.Close()
	a.logger.Debug("run archive closed")
}
