package main

import (
	"github.com/aretw0/mediabridge/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Check generator documents",
	Long:  `Parses each generator document and reports every schema or consistency error it contains.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Validate(cmd.OutOrStdout(), args)
	},
}

var describeCmd = &cobra.Command{
	Use:   "describe <file>",
	Short: "Show a generator's command, inputs and outputs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mermaid, _ := cmd.Flags().GetBool("mermaid")
		return cli.Describe(cmd.OutOrStdout(), args[0], mermaid)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().Bool("mermaid", false, "Print the data flow as a Mermaid flowchart")
}
