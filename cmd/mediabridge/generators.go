package main

import (
	"github.com/aretw0/mediabridge/internal/cli"
	"github.com/spf13/cobra"
)

var generatorsCmd = &cobra.Command{
	Use:   "generators",
	Short: "Work with a directory of generator documents",
}

var generatorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the valid generators in a directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		if !cmd.Flags().Changed("dir") && cfg.GeneratorsDir != "" {
			dir = cfg.GeneratorsDir
		}
		_, err := cli.ListGenerators(cmd.OutOrStdout(), dir)
		return err
	},
}

func init() {
	rootCmd.AddCommand(generatorsCmd)
	generatorsCmd.AddCommand(generatorsListCmd)
	generatorsListCmd.Flags().String("dir", ".", "Directory containing generator documents")
}
