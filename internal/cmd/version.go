package cmd

import (
	"github.com/spf13/cobra"

	"github.com/starhop/starhop/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the installer version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Version())
	},
}
