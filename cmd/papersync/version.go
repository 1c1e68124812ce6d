package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version metadata, overridable at build time via -ldflags.
var (
	Version = "0.3.0"
	Build   = "dev"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("papersync version %s (%s)\n", Version, Build)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
