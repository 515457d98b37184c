package cmd

import (
	"github.com/spf13/cobra"
)

func newListCommand(opts *options) *cobra.Command {
	var branches bool
	cmd := &cobra.Command{
		Use:   "list [path]",
		Short: "List stashes with the branch that owns each one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.openService(repoArg(args, 0))
			if err != nil {
				return err
			}
			p, err := opts.printer(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if branches {
				list, err := svc.LocalBranches()
				if err != nil {
					return err
				}
				// Detached or unborn HEAD just means no branch is marked.
				current, _ := svc.CurrentBranch()
				p.Branches(list, current)
				return p.Flush()
			}
			topo, err := svc.Topology()
			if err != nil {
				return err
			}
			logTopologyErrors(topo)
			p.List(topo)
			return p.Flush()
		},
	}
	cmd.Flags().BoolVarP(&branches, "branches", "b", false, "list local branches and their tips instead")
	return cmd
}
