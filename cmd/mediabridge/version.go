package main

import (
	"fmt"

	"github.com/aretw0/mediabridge"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of mediabridge",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "mediabridge version %s\n", mediabridge.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
