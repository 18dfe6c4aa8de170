package main

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/cory-johannsen/warprando/internal/rando"
)

func renderRemaps(w io.Writer, remaps []rando.WarpRemapping) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Trigger", "Target"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})

	for _, r := range remaps {
		table.Append([]string{r.Trigger().String(), r.Target().String()})
	}
	table.SetFooter([]string{fmt.Sprintf("Total %d", len(remaps)), ""})
	table.Render()
}

func renderBatch(w io.Writer, results []*rando.Result) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Requested", "Seed", "Attempts", "Root", "Remaps"})
	table.SetBorder(false)
	table.SetCenterSeparator("")

	attempts := 0
	for _, res := range results {
		attempts += res.Attempts
		table.Append([]string{
			fmt.Sprintf("%d", res.RequestedSeed),
			fmt.Sprintf("%d", res.Seed),
			fmt.Sprintf("%d", res.Attempts),
			res.Root,
			fmt.Sprintf("%d", len(res.Remaps)),
		})
	}
	table.SetFooter([]string{fmt.Sprintf("Seeds %d", len(results)), "", fmt.Sprintf("%d", attempts), "", ""})
	table.Render()
}
