package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/mediabridge/internal/settings"
	"github.com/spf13/cobra"
)

// cfg holds the settings loaded before any subcommand runs.
var cfg settings.Settings

var rootCmd = &cobra.Command{
	Use:   "mediabridge",
	Short: "Run generative command-line tools against a video timeline",
	Long: `mediabridge resolves timeline content into arguments for external generator
programs, supervises them, and writes their media or text back as strips.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		s, err := settings.Load(path)
		if err != nil {
			return err
		}
		cfg = s
		return nil
	},
}

// exitError carries a process exit status out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Settings file (YAML)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable verbose logging on stderr")
}

func debugFlag(cmd *cobra.Command) bool {
	debug, _ := cmd.Flags().GetBool("debug")
	return debug
}
