// Version command for the panda CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/folimar/geopanda/pkg/geopanda"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the panda version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("panda", geopanda.Version)
	},
}
