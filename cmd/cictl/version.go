package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// buildVersion is stamped by the release build via
// -ldflags "-X main.buildVersion=...".
var buildVersion = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the cictl version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "cictl %s\n", buildVersion)
	},
}
