// Package cmd provides Cobra CLI commands for dumper.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bnema/dumper/internal/build"
	"github.com/bnema/dumper/internal/cli"
)

var (
	app       *cli.App
	buildInfo build.Info

	flagConfig   string
	flagLogLevel string
	flagJSON     bool

	rootCmd = &cobra.Command{
		Use:   "dumper",
		Short: "In-process crash handler with a minidump toolbox",
		Long: `Dumper - attach a crash handler to your process and keep the dumps in order.

The library half (pkg/crash, pkg/minidump) intercepts fatal signals and
unhandled exceptions and writes one minidump per fault. This binary is
the operator half: it inspects, watches, prunes, and self-tests the dump
directory those handlers write into.

Use 'dumper watch' to run the dump-directory daemon, or explore the
subcommands for one-shot operations like listing and showing dumps.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip initialization for commands that don't need app context
			switch cmd.Name() {
			case "help", "completion":
				return nil
			}

			var err error
			app, err = cli.NewApp(cli.Options{
				ConfigFile: flagConfig,
				LogLevel:   flagLogLevel,
				JSON:       flagJSON,
			})
			if err != nil {
				return fmt.Errorf("initialize app: %w", err)
			}
			// Set build info from main.go
			app.BuildInfo = buildInfo
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if app != nil {
				_ = app.Close()
			}
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to configuration file (default: XDG search path)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "machine-readable JSON output")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// GetApp returns the initialized app (for use by subcommands).
func GetApp() *cli.App {
	return app
}

// SetBuildInfo sets the build information (called from main.go before Execute).
func SetBuildInfo(info build.Info) {
	buildInfo = info
}
