package commands

import (
	"github.com/leapstack-labs/sqlplan/internal/artifacts"
	"github.com/leapstack-labs/sqlplan/internal/loader"
	"github.com/spf13/cobra"
)

// NewParseCommand creates the parse command.
func NewParseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "parse",
		Short: "Parse the project and write the manifest artifact",
		Long: `Parse resolves the project configuration, discovers every resource in
this project and its dependency packages, links the dependency graph,
and writes a versioned manifest artifact into the target directory.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := runtimeFrom(cmd)
			if err != nil {
				return err
			}
			cfg, err := rt.resolveConfig()
			if err != nil {
				return err
			}

			manifest, g, err := loader.LoadAll(cfg, rt.Handler)
			if err != nil {
				return err
			}

			resourceFqns := resourceFqnsByType(manifest)
			cfg.WarnForUnusedResourceConfigPaths(resourceFqns, disabledFqns(manifest), rt.Handler)
			if err := rt.Handler.Err(); err != nil {
				return err
			}

			path := rt.manifestPath(cfg)
			if err := artifacts.WriteManifest(path, artifacts.NewManifestArtifact(manifest)); err != nil {
				return err
			}

			rt.Logger.Info("parsed project",
				"project", cfg.Project.Name,
				"resources", len(manifest.Nodes)+len(manifest.Sources)+len(manifest.Exposures)+len(manifest.Metrics),
				"edges", g.EdgeCount(),
				"manifest", path,
			)
			return nil
		},
	}
}
