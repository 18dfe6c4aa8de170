package main

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/warprando/internal/rando"
)

func newBatchCmd(a *app) *cobra.Command {
	var count, workers int

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Randomize a range of consecutive seeds in parallel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			world, err := a.world()
			if err != nil {
				return err
			}
			opts, release, err := a.options()
			if err != nil {
				return err
			}
			defer release()

			base := a.cfg.Randomizer.WarpConfig()
			results, err := rando.Batch(cmd.Context(), world, base, count, workers, opts...)
			if err != nil {
				return err
			}
			renderBatch(cmd.OutOrStdout(), results)
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 10, "number of seeds to randomize")
	cmd.Flags().IntVarP(&workers, "workers", "w", runtime.NumCPU(), "randomizations to run at once")
	return cmd
}
