// Package cli provides the sqlplan command-line interface.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/leapstack-labs/sqlplan/internal/cli/commands"
	"github.com/leapstack-labs/sqlplan/internal/events"
	"github.com/spf13/cobra"
)

// Version information (set at build time).
var (
	Version   = "0.4.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sqlplan",
		Short: "sqlplan - incremental SQL build planning",
		Long: `sqlplan parses a SQL transformation project into a typed manifest,
compares it against previous builds, and plans what needs rebuilding.

It resolves project and profile configuration, discovers models, seeds,
sources and their dependencies, and writes versioned manifest artifacts.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			args, logLevel, err := ResolveArgs(cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			logger := newLogger(logLevel)
			rt := &commands.Runtime{
				Args:    args,
				Logger:  logger,
				Handler: events.NewHandler(logger, args.WarnErrorAsErrors),
				Stdout:  cmd.OutOrStdout(),
			}
			cmd.SetContext(context.WithValue(cmd.Context(), commands.RuntimeKey{}, rt))
			return nil
		},
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	flags := rootCmd.PersistentFlags()
	flags.String("project-dir", "", "Project directory (default: current directory)")
	flags.String("profiles-dir", "", "Directory containing profiles.yml (default: ~/.sqlplan)")
	flags.String("profile", "", "Profile to use, overriding the project's")
	flags.StringP("target", "t", "", "Target within the profile (e.g. dev, prod)")
	flags.String("vars", "", "Variable overrides as a YAML mapping")
	flags.Int("threads", 0, "Thread count, overriding the target's")
	flags.Bool("warn-error", false, "Treat warnings as errors")
	flags.String("target-path", "", "Directory for build artifacts")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		commands.NewParseCommand(),
		commands.NewDiffCommand(),
		commands.NewPackagesCommand(),
		commands.NewValidateCommand(),
		commands.NewListCommand(),
		commands.NewVersionCommand(Version, BuildDate, GitCommit),
	)
	return rootCmd
}

// Execute runs the root command.
func Execute() int {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		slog.Error(err.Error())
		return 1
	}
	return 0
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
