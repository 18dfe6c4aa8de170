package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cory-johannsen/warprando/internal/rando"
	"github.com/cory-johannsen/warprando/internal/romtable"
	"github.com/cory-johannsen/warprando/internal/storage/postgres"
)

func newGenerateCmd(a *app) *cobra.Command {
	var out string
	var archive bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Randomize one world and print its remaps",
		Long: `Randomize the warps of the configured world for one seed. Failed attempts
are retried with the next seed. The remap table is printed and can also be
written as a binary ROM table (--out) or archived in PostgreSQL (--archive).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if archive && !a.cfg.Database.Enabled {
				return fmt.Errorf("--archive: %w", postgres.ErrArchiveDisabled)
			}
			world, err := a.world()
			if err != nil {
				return err
			}
			opts, release, err := a.options()
			if err != nil {
				return err
			}
			defer release()

			warpCfg := a.cfg.Randomizer.WarpConfig()
			res, err := rando.RandomizeWarps(cmd.Context(), world, warpCfg, opts...)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "seed %d (requested %d), %d attempt(s), root %s\n",
				res.Seed, res.RequestedSeed, res.Attempts, res.Root)
			renderRemaps(w, res.Remaps)

			if out != "" {
				table, err := romtable.Encode(res.Remaps, a.cfg.Output.TableCapacity)
				if err != nil {
					return err
				}
				if err := os.WriteFile(out, table, 0o644); err != nil {
					return fmt.Errorf("writing table: %w", err)
				}
				fmt.Fprintf(w, "wrote %d remaps to %s\n", len(res.Remaps), out)
			}

			if archive {
				start := time.Now()
				archive, err := postgres.Open(cmd.Context(), a.cfg.Database, a.logger)
				if err != nil {
					return err
				}
				defer archive.Close()
				run, err := archive.Runs().Save(cmd.Context(), postgres.NewRun(res, warpCfg))
				if err != nil {
					return err
				}
				a.logger.Info("run archived",
					zap.String("run_id", run.ID.String()),
					zap.Duration("elapsed", time.Since(start)),
				)
				fmt.Fprintf(w, "archived run %s\n", run.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the binary remap table to this file")
	cmd.Flags().BoolVar(&archive, "archive", false, "store the run in the PostgreSQL archive")
	return cmd
}
