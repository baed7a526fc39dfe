package commands

import (
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewPackagesCommand creates the packages command.
func NewPackagesCommand() *cobra.Command {
	var baseOnly bool

	cmd := &cobra.Command{
		Use:   "packages",
		Short: "List this project and its loaded dependency packages",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := runtimeFrom(cmd)
			if err != nil {
				return err
			}
			cfg, err := rt.resolveConfig()
			if err != nil {
				return err
			}

			deps, err := cfg.LoadDependencies(baseOnly)
			if err != nil {
				return err
			}

			names := make([]string, 0, len(deps))
			for name := range deps {
				names = append(names, name)
			}
			sort.Strings(names)

			t := table.NewWriter()
			t.SetOutputMirror(rt.Stdout)
			t.AppendHeader(table.Row{"Package", "Version", "Root"})
			for _, name := range names {
				dep := deps[name]
				t.AppendRow(table.Row{name, dep.Project.Version, dep.Project.ProjectRoot})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&baseOnly, "base-only", false, "Load only adapter built-in packages")
	return cmd
}
