package commands

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/sqlplan/internal/loader"
	"github.com/spf13/cobra"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the resources in the project",
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
			if err := rt.Handler.Err(); err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(rt.Stdout)
			t.AppendHeader(table.Row{"Unique ID", "Type", "Package", "Path"})
			for _, id := range manifest.ResourceIDs() {
				res, _ := manifest.Resource(id)
				ident := res.Ident()
				t.AppendRow(table.Row{id, ident.ResourceType, ident.PackageName, ident.OriginalFilePath})
			}
			t.Render()
			return nil
		},
	}
}
