package main

import (
	"fmt"

	"github.com/aretw0/mediabridge/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <generator-file>",
	Short: "Run a generator and wait for its outputs",
	Long: `Runs the generator once. With --project the outputs are written back to the
project file; --controller reruns an attached controller with its stored bindings.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		project, _ := cmd.Flags().GetString("project")
		controller, _ := cmd.Flags().GetString("controller")
		bindings, _ := cmd.Flags().GetStringArray("bind")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		quiet, _ := cmd.Flags().GetBool("quiet")

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		st, err := cli.Run(sigCtx, cli.RunOptions{
			Settings:   cfg,
			Debug:      debugFlag(cmd),
			Quiet:      quiet,
			Out:        cmd.OutOrStdout(),
			Generator:  args[0],
			Project:    project,
			Controller: controller,
			Bindings:   bindings,
			Timeout:    timeout,
		})
		if code := cli.ExitCode(st, err); code != 0 {
			if err == nil {
				err = fmt.Errorf("run ended %s", st.Phase)
			}
			return &exitError{code: code, err: err}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("project", "p", "", "Project file (JSON); omit for a one-off run")
	runCmd.Flags().String("controller", "", "Rerun this attached controller")
	runCmd.Flags().StringArrayP("bind", "b", nil, "Bind an input: name=text:…, name=file:… or name=strip:…")
	runCmd.Flags().Duration("timeout", 0, "Timeout for generators that declare none (0 uses the settings)")
	runCmd.Flags().BoolP("quiet", "q", false, "Only print warnings and errors")
}
