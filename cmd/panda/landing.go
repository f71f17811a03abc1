// Landing commands: mirror upstream datasets into the landing zone.
package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/folimar/geopanda/internal/diffsync"
	"github.com/folimar/geopanda/internal/pipeline"
)

var (
	flagSTACURL string
	flagMetaURL string
	flagMaxAge  time.Duration
)

var landingCmd = &cobra.Command{
	Use:   "landing",
	Short: "Sync upstream datasets into the landing zone",
}

var landingSolarCmd = &cobra.Command{
	Use:   "solareignung",
	Short: "Sync the solar suitability dataset from its STAC item",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, cleanup, err := newEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		res, err := pipeline.LandingSolar(cmd.Context(), env, flagSTACURL)
		return reportSync(res, err)
	},
}

var landingAVCmd = &cobra.Command{
	Use:   "av",
	Short: "Sync the cadastral survey zips from the upstream meta.txt",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, cleanup, err := newEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		res, err := pipeline.LandingAV(cmd.Context(), env, flagMetaURL, flagMaxAge)
		return reportSync(res, err)
	},
}

func init() {
	landingSolarCmd.Flags().StringVar(&flagSTACURL, "stac-url", "", "override the upstream STAC item URL")
	landingAVCmd.Flags().StringVar(&flagMetaURL, "meta-url", "", "override the upstream meta.txt URL")
	landingAVCmd.Flags().DurationVar(&flagMaxAge, "max-age", 0, "skip the sync when the landing checkpoint is younger than this (0 = always sync)")

	landingCmd.AddCommand(landingSolarCmd)
	landingCmd.AddCommand(landingAVCmd)
}

// reportSync prints the run summary and turns per-item failures into a
// non-zero exit.
func reportSync(res diffsync.Result, err error) error {
	if err != nil {
		return err
	}
	fmt.Printf("fetched %d, deleted %d\n", res.Fetched, res.Deleted)
	if res.Failed() {
		return fmt.Errorf("sync incomplete: %d fetch and %d delete failures",
			res.FetchFailures, res.DeleteFailures)
	}
	return nil
}
