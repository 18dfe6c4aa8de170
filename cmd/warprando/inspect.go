package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/warprando/internal/romtable"
)

func newInspectCmd(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <table-file>",
		Short: "Decode a binary remap table and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading table: %w", err)
			}
			remaps, err := romtable.Decode(data)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%d of %d slots used\n", len(remaps), len(data)/romtable.RecordSize)
			renderRemaps(w, remaps)
			return nil
		},
	}
}
