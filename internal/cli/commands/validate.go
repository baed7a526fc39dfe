package commands

import (
	"fmt"

	"github.com/leapstack-labs/sqlplan/internal/loader"
	"github.com/spf13/cobra"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check project and profile configuration",
		Long: `Validate resolves the full configuration, checks it against its
contract, and warns about configured resource paths that match nothing
in the project.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := runtimeFrom(cmd)
			if err != nil {
				return err
			}
			cfg, err := rt.resolveConfig()
			if err != nil {
				return err
			}

			manifest, _, err := loader.LoadAll(cfg, rt.Handler)
			if err != nil {
				return err
			}
			cfg.WarnForUnusedResourceConfigPaths(resourceFqnsByType(manifest), disabledFqns(manifest), rt.Handler)
			if err := rt.Handler.Err(); err != nil {
				return err
			}

			meta := cfg.GetMetadata()
			fmt.Fprintf(rt.Stdout, "Configuration valid: project %s (id %s) on %s, target %s\n",
				cfg.Project.Name, meta.ProjectID, meta.AdapterType, cfg.Profile.TargetName)
			return nil
		},
	}
}
