package main

import (
	"github.com/aretw0/mediabridge/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP control API",
	Long: `Serves run control over HTTP with Prometheus metrics on /metrics. The project is a
JSON file (--project) or a shared Redis store (--redis-addr or redis.addr in the settings).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := cfg
		project, _ := cmd.Flags().GetString("project")
		if cmd.Flags().Changed("listen") {
			s.Listen, _ = cmd.Flags().GetString("listen")
		}
		if cmd.Flags().Changed("redis-addr") {
			s.Redis.Addr, _ = cmd.Flags().GetString("redis-addr")
		}
		if cmd.Flags().Changed("generators") {
			s.GeneratorsDir, _ = cmd.Flags().GetString("generators")
		}
		quiet, _ := cmd.Flags().GetBool("quiet")

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		return cli.Serve(sigCtx, cli.ServeOptions{
			Settings: s,
			Debug:    debugFlag(cmd),
			Quiet:    quiet,
			Out:      cmd.OutOrStdout(),
			Project:  project,
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("project", "p", "", "Project file (JSON)")
	serveCmd.Flags().StringP("listen", "l", ":8080", "Address to listen on")
	serveCmd.Flags().String("redis-addr", "", "Redis address of a shared project")
	serveCmd.Flags().StringP("generators", "g", "", "Directory of generator documents")
	serveCmd.Flags().BoolP("quiet", "q", false, "Only print warnings and errors")
}
