package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/warprando/internal/rando"
	"github.com/cory-johannsen/warprando/internal/warp"
)

// ErrRunNotFound is returned when a run lookup yields no results.
var ErrRunNotFound = errors.New("run not found")

// Run is one archived randomization.
type Run struct {
	ID uuid.UUID
	// RequestedSeed is the seed asked for; Seed is the seed that succeeded.
	RequestedSeed       int64
	Seed                int64
	Attempts            int
	Level               int
	ExtraDeadendRemoval bool
	InGymOrder          bool
	Root                string
	CreatedAt           time.Time
	// Remaps is only populated by Get.
	Remaps []rando.WarpRemapping
}

// NewRun builds an unsaved Run from a randomization result.
//
// Precondition: res must be non-nil.
func NewRun(res *rando.Result, cfg warp.Config) Run {
	return Run{
		RequestedSeed:       res.RequestedSeed,
		Seed:                res.Seed,
		Attempts:            res.Attempts,
		Level:               cfg.Level,
		ExtraDeadendRemoval: cfg.ExtraDeadendRemoval,
		InGymOrder:          cfg.InGymOrder,
		Root:                res.Root,
		Remaps:              res.Remaps,
	}
}

// RunRepository persists randomizer runs.
type RunRepository struct {
	db *pgxpool.Pool
}

// NewRunRepository creates a RunRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewRunRepository(db *pgxpool.Pool) *RunRepository {
	return &RunRepository{db: db}
}

// Save inserts run and its remaps in one transaction. A zero ID is replaced
// by a fresh random UUID.
//
// Postcondition: Returns the stored Run with ID and CreatedAt set.
func (r *RunRepository) Save(ctx context.Context, run Run) (Run, error) {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Run{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO runs (id, requested_seed, seed, attempts, level,
		                  extra_deadend_removal, in_gym_order, root)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		run.ID.String(), run.RequestedSeed, run.Seed, run.Attempts, run.Level,
		run.ExtraDeadendRemoval, run.InGymOrder, run.Root,
	).Scan(&run.CreatedAt)
	if err != nil {
		return Run{}, fmt.Errorf("inserting run: %w", err)
	}

	rows := make([][]any, 0, len(run.Remaps))
	for i, m := range run.Remaps {
		rows = append(rows, []any{
			run.ID, int32(i),
			int16(m.TriggerMapGroup), int16(m.TriggerMapNo), int16(m.TriggerWarpNo),
			int16(m.TargetMapGroup), int16(m.TargetMapNo), int16(m.TargetWarpNo),
		})
	}
	if len(rows) > 0 {
		_, err = tx.CopyFrom(ctx, pgx.Identifier{"run_remaps"},
			[]string{"run_id", "position",
				"trigger_group", "trigger_map", "trigger_warp",
				"target_group", "target_map", "target_warp"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return Run{}, fmt.Errorf("inserting remaps: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Run{}, fmt.Errorf("committing run: %w", err)
	}
	return run, nil
}

const runColumns = `id::text, requested_seed, seed, attempts, level,
		       extra_deadend_removal, in_gym_order, root, created_at`

func scanRun(row pgx.Row) (Run, error) {
	var run Run
	var id string
	if err := row.Scan(
		&id, &run.RequestedSeed, &run.Seed, &run.Attempts, &run.Level,
		&run.ExtraDeadendRemoval, &run.InGymOrder, &run.Root, &run.CreatedAt,
	); err != nil {
		return Run{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Run{}, fmt.Errorf("parsing run id %q: %w", id, err)
	}
	run.ID = parsed
	return run, nil
}

// Get retrieves a run and its remaps by id.
//
// Postcondition: Returns the Run with Remaps in trigger order, or ErrRunNotFound.
func (r *RunRepository) Get(ctx context.Context, id uuid.UUID) (Run, error) {
	run, err := scanRun(r.db.QueryRow(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = $1::uuid`, id.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Run{}, ErrRunNotFound
		}
		return Run{}, fmt.Errorf("querying run: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT trigger_group, trigger_map, trigger_warp,
		       target_group, target_map, target_warp
		FROM run_remaps WHERE run_id = $1::uuid ORDER BY position ASC`,
		id.String(),
	)
	if err != nil {
		return Run{}, fmt.Errorf("querying remaps: %w", err)
	}
	defer rows.Close()

	run.Remaps = make([]rando.WarpRemapping, 0)
	for rows.Next() {
		var m rando.WarpRemapping
		if err := rows.Scan(
			&m.TriggerMapGroup, &m.TriggerMapNo, &m.TriggerWarpNo,
			&m.TargetMapGroup, &m.TargetMapNo, &m.TargetWarpNo,
		); err != nil {
			return Run{}, fmt.Errorf("scanning remap row: %w", err)
		}
		run.Remaps = append(run.Remaps, m)
	}
	return run, rows.Err()
}

// FindBySeed returns every run requested with seed, newest first. Remaps are
// not loaded.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *RunRepository) FindBySeed(ctx context.Context, seed int64) ([]Run, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+runColumns+` FROM runs WHERE requested_seed = $1 ORDER BY created_at DESC, id`,
		seed,
	)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
