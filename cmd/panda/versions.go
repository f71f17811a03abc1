// Versions command: inspect the version history of an artifact.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/folimar/geopanda/internal/artifact"
	"github.com/folimar/geopanda/internal/version"
)

var versionsCmd = &cobra.Command{
	Use:   "versions <artifact-path>",
	Short: "List the stored versions of an artifact, most recent first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, _, err := newBackend(cmd.Context())
		if err != nil {
			return err
		}

		vf := artifact.NewVersionedFile(args[0], backend, version.DayScheme{})
		versions, err := vf.ListVersions(cmd.Context())
		if err != nil {
			return err
		}
		if len(versions) == 0 {
			fmt.Println("no stored versions")
			return nil
		}
		for _, v := range versions {
			fmt.Println(v)
		}
		return nil
	},
}
