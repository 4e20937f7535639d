package main

import (
	"github.com/aretw0/mediabridge/internal/cli"
	"github.com/spf13/cobra"
)

var attachCmd = &cobra.Command{
	Use:   "attach <generator-file>",
	Short: "Add a controller strip for a generator to a project",
	Long: `Creates a controller strip for the generator in the project file and binds the
selected strips to its inputs by media kind, active strip first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		project, _ := cmd.Flags().GetString("project")
		name, _ := cmd.Flags().GetString("name")
		frame, _ := cmd.Flags().GetInt("frame")
		channel, _ := cmd.Flags().GetInt("channel")
		selected, _ := cmd.Flags().GetStringSlice("select")

		_, err := cli.Attach(cmd.Context(), cli.AttachOptions{
			Settings:   cfg,
			Debug:      debugFlag(cmd),
			Out:        cmd.OutOrStdout(),
			Generator:  args[0],
			Project:    project,
			Name:       name,
			FrameStart: frame,
			Channel:    channel,
			Select:     selected,
		})
		return err
	},
}

func init() {
	rootCmd.AddCommand(attachCmd)
	attachCmd.Flags().StringP("project", "p", "", "Project file (JSON)")
	attachCmd.Flags().String("name", "", "Controller strip name (defaults to the generator name)")
	attachCmd.Flags().Int("frame", 1, "Start frame of the controller strip")
	attachCmd.Flags().Int("channel", 0, "Channel of the controller strip")
	attachCmd.Flags().StringSlice("select", nil, "Strip keys to select before binding, active first")
	_ = attachCmd.MarkFlagRequired("project")
}
