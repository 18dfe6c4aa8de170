// Package main applies or rolls back the run archive schema.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"github.com/cory-johannsen/warprando/internal/config"
	"github.com/cory-johannsen/warprando/internal/observability"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

// plan is a parsed migrate invocation.
type plan struct {
	configPath string
	dir        string
	down       bool
	steps      int
}

func parseArgs(args []string) (plan, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	p := plan{}
	direction := fs.String("direction", "up", "migration direction: up or down")
	fs.StringVar(&p.configPath, "config", "configs/dev.yaml", "path to configuration file")
	fs.StringVar(&p.dir, "dir", "migrations", "directory of migration files")
	fs.IntVar(&p.steps, "steps", 0, "number of steps (0 = all)")
	if err := fs.Parse(args); err != nil {
		return plan{}, err
	}
	switch *direction {
	case "up":
	case "down":
		p.down = true
	default:
		return plan{}, fmt.Errorf("invalid direction %q: must be up or down", *direction)
	}
	if p.steps < 0 {
		return plan{}, fmt.Errorf("steps must be >= 0, got %d", p.steps)
	}
	return p, nil
}

func run(args []string, out io.Writer) error {
	start := time.Now()
	p, err := parseArgs(args)
	if err != nil {
		return err
	}
	cfg, err := config.Load(p.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	if !cfg.Database.Enabled {
		logger.Warn("database.enabled is false; migrating anyway", zap.String("config", p.configPath))
	}

	m, err := migrate.New("file://"+p.dir, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	switch {
	case p.steps > 0 && p.down:
		err = m.Steps(-p.steps)
	case p.steps > 0:
		err = m.Steps(p.steps)
	case p.down:
		err = m.Down()
	default:
		err = m.Up()
	}
	noChange := errors.Is(err, migrate.ErrNoChange)
	if err != nil && !noChange {
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.Info("migration finished",
		zap.Bool("down", p.down),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
		zap.Bool("no_change", noChange),
		zap.Duration("elapsed", time.Since(start)),
	)
	fmt.Fprintf(out, "schema at version %d (dirty=%v)\n", version, dirty)
	return nil
}
