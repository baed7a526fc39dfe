package commands

import (
	"fmt"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/sqlplan/internal/artifacts"
	"github.com/leapstack-labs/sqlplan/internal/graph"
	"github.com/leapstack-labs/sqlplan/internal/loader"
	"github.com/spf13/cobra"
)

// NewDiffCommand creates the diff command.
func NewDiffCommand() *cobra.Command {
	var statePath string

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare the project against a previous manifest",
		Long: `Diff parses the current project, reads the manifest from a previous
build, and reports which resources changed plus everything downstream
of them. Older manifest schema versions are upgraded on read.`,
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

			previous, err := artifacts.ReadManifest(filepath.Join(statePath, artifacts.ManifestFileName))
			if err != nil {
				return err
			}

			var changed []string
			for _, id := range manifest.ResourceIDs() {
				next, _ := manifest.Resource(id)
				old, _ := previous.Manifest.Resource(id)
				if !graph.SameContents(next, old, rt.Handler) {
					changed = append(changed, id)
				}
			}
			if err := rt.Handler.Err(); err != nil {
				return err
			}

			affected := g.AffectedBy(changed)
			changedSet := make(map[string]bool, len(changed))
			for _, id := range changed {
				changedSet[id] = true
			}

			t := table.NewWriter()
			t.SetOutputMirror(rt.Stdout)
			t.AppendHeader(table.Row{"Resource", "Status"})
			for _, id := range affected {
				status := "affected"
				if changedSet[id] {
					status = "changed"
				}
				t.AppendRow(table.Row{id, status})
			}
			t.Render()

			fmt.Fprintf(rt.Stdout, "%d changed, %d affected of %d resources\n",
				len(changed), len(affected), len(manifest.ResourceIDs()))
			return nil
		},
	}

	cmd.Flags().StringVar(&statePath, "state", "", "Directory containing the previous manifest.json")
	_ = cmd.MarkFlagRequired("state")
	return cmd
}
