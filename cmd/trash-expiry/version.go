package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aatumaykin/trash-expiry/internal/version"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Long:  `Display the version, build time, git commit and Go version of trash-expiry.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), version.Full())
	},
}
