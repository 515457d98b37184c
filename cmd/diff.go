package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thiagokokada/stashtree/internal/stash"
)

func newDiffCommand(opts *options) *cobra.Command {
	var stat bool
	cmd := &cobra.Command{
		Use:   "diff [index] [path]",
		Short: "Print the changes recorded by one stash (default stash@{0})",
		Example: `  stashtree diff
  stashtree diff 2 ~/src/project
  stashtree diff 'stash@{1}'`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index := 0
			if len(args) > 0 {
				n, err := parseStashIndex(args[0])
				if err != nil {
					return err
				}
				index = n
			}
			svc, err := opts.openService(repoArg(args, 1))
			if err != nil {
				return err
			}
			records, err := svc.Stashes()
			if err != nil {
				return err
			}
			rec, ok := findRecord(records, index)
			if !ok {
				return fmt.Errorf("stash@{%d} not found (%d stashes)", index, len(records))
			}
			entry, err := svc.Resolve(rec)
			if err != nil {
				return err
			}
			p, err := opts.printer(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			doc, err := svc.StashDiff(entry)
			switch {
			case err != nil:
				p.Unavailable(err.Error(), 0)
			case stat:
				p.Stats(doc, 0)
			default:
				p.Diff(doc, 0)
			}
			return p.Flush()
		},
	}
	cmd.Flags().BoolVar(&stat, "stat", false, "print a summary instead of the full diff")
	return cmd
}

// parseStashIndex accepts "2" as well as "stash@{2}".
func parseStashIndex(s string) (int, error) {
	raw := strings.TrimSpace(s)
	if inner, ok := strings.CutPrefix(raw, "stash@{"); ok {
		raw, ok = strings.CutSuffix(inner, "}")
		if !ok {
			return 0, fmt.Errorf("invalid stash %q", s)
		}
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid stash %q", s)
	}
	return n, nil
}

func findRecord(records []stash.Record, index int) (stash.Record, bool) {
	for _, r := range records {
		if r.Index == index {
			return r, true
		}
	}
	return stash.Record{}, false
}
