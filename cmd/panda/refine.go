// Refine commands: derive versioned outputs from the landing zone.
package main

import (
	"github.com/spf13/cobra"

	"github.com/folimar/geopanda/internal/pipeline"
)

var refineCmd = &cobra.Command{
	Use:   "refine",
	Short: "Derive refined artifacts from landed datasets",
}

var refineSolarCmd = &cobra.Command{
	Use:   "solareignung",
	Short: "Transform the landed solar dataset to FlatGeobuf",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, cleanup, err := newEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()
		return pipeline.RefineSolar(cmd.Context(), env)
	},
}

var refineGebaeudeCmd = &cobra.Command{
	Use:   "gebaeude",
	Short: "Build the nationwide buildings layer from the cadastral landing zone",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, cleanup, err := newEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()
		return pipeline.RefineGebaeude(cmd.Context(), env)
	},
}

func init() {
	refineCmd.AddCommand(refineSolarCmd)
	refineCmd.AddCommand(refineGebaeudeCmd)
}
