package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"srcset/internal/gc"
)

func newGCCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "gc",
		Short: "Delete cached variants whose source image is gone",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			rt.sweeper.DryRun = dryRun
			report, err := rt.sweeper.Sweep(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, report)
			}
			printReport(cmd, report, dryRun)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Report deletions without performing them")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	return cmd
}

func printReport(cmd *cobra.Command, report gc.Report, dryRun bool) {
	out := cmd.OutOrStdout()
	title := "Sweep report"
	if dryRun {
		title = "Sweep report (dry run)"
	}
	fmt.Fprintln(out, heading(out, title))

	rows := [][]string{
		{"Scanned", strconv.Itoa(report.Scanned)},
		{"Deleted", strconv.Itoa(report.Deleted)},
		{"Kept", strconv.Itoa(report.Kept)},
		{"Skipped", strconv.Itoa(report.Skipped)},
		{"Pruned dirs", strconv.Itoa(report.PrunedDirs)},
		{"Errors", strconv.Itoa(report.Errors)},
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Metric", "Count"},
		rows,
		[]columnAlignment{alignLeft, alignRight},
	))
}
