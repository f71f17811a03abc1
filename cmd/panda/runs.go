// Runs command: inspect the pipeline run journal.
package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/folimar/geopanda/internal/journal"
)

var flagRunsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded pipeline runs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := journal.Open(resolvedConfigDir)
		if err != nil {
			return fmt.Errorf("open run journal: %w", err)
		}
		defer j.Close()

		runs, err := j.List(cmd.Context(), flagRunsLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("no recorded runs")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STARTED\tPIPELINE\tSTATUS\tFETCHED\tDELETED\tFAILED")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\n",
				r.StartedAt.Format("2006-01-02 15:04:05"),
				r.Pipeline, r.Status, r.Fetched, r.Deleted, r.Failed)
		}
		return w.Flush()
	},
}

func init() {
	runsCmd.Flags().IntVar(&flagRunsLimit, "limit", 20, "maximum number of runs to list (0 = all)")
}
