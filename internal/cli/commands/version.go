package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version, buildDate, gitCommit string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := runtimeFrom(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintf(rt.Stdout, "sqlplan %s\n", version)
			fmt.Fprintf(rt.Stdout, "  build date: %s\n", buildDate)
			fmt.Fprintf(rt.Stdout, "  commit:     %s\n", gitCommit)
			fmt.Fprintf(rt.Stdout, "  go:         %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
}
