package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thiagokokada/stashtree/internal/buildinfo"
	"github.com/thiagokokada/stashtree/internal/git"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "stashtree %s\n", buildinfo.String())
			fmt.Fprintln(out, git.GitVersionSummary())
			return nil
		},
	}
}
