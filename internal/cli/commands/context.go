// Package commands implements the sqlplan subcommands.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/leapstack-labs/sqlplan/internal/artifacts"
	"github.com/leapstack-labs/sqlplan/internal/config"
	"github.com/leapstack-labs/sqlplan/internal/events"
	"github.com/spf13/cobra"
)

// RuntimeKey stores the Runtime in the command context.
type RuntimeKey struct{}

// Runtime is the per-invocation state shared by every command.
type Runtime struct {
	Args    config.InvocationArgs
	Logger  *slog.Logger
	Handler *events.Handler
	Stdout  io.Writer
}

// runtimeFrom retrieves the Runtime prepared by the root command.
func runtimeFrom(cmd *cobra.Command) (*Runtime, error) {
	rt, ok := cmd.Context().Value(RuntimeKey{}).(*Runtime)
	if !ok {
		return nil, fmt.Errorf("invocation runtime missing from command context")
	}
	return rt, nil
}

// resolveConfig builds the full runtime configuration for commands
// that need a profile.
func (rt *Runtime) resolveConfig() (*config.RuntimeConfig, error) {
	return config.FromArgs(rt.Args)
}

// manifestPath is where the manifest artifact lives for a resolved
// configuration.
func (rt *Runtime) manifestPath(cfg *config.RuntimeConfig) string {
	targetPath := cfg.Project.TargetPath
	if rt.Args.TargetPath != "" {
		targetPath = rt.Args.TargetPath
	}
	return filepath.Join(cfg.Project.ProjectRoot, targetPath, artifacts.ManifestFileName)
}
