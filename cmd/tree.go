package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/thiagokokada/stashtree/internal/git"
	"github.com/thiagokokada/stashtree/internal/render"
	"github.com/thiagokokada/stashtree/internal/stash"
	"github.com/thiagokokada/stashtree/internal/watch"
)

type treeOptions struct {
	diff  bool
	watch bool
}

func addTreeFlags(cmd *cobra.Command, tree *treeOptions) {
	cmd.Flags().BoolVarP(&tree.diff, "diff", "d", false, "show each stash's diff below it")
	cmd.Flags().BoolVarP(&tree.watch, "watch", "w", false, "redraw whenever stashes or branches change")
}

func newTreeCommand(opts *options) *cobra.Command {
	tree := &treeOptions{}
	cmd := &cobra.Command{
		Use:   "tree [path]",
		Short: "Print stashes grouped by owning branch (default command)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTree(cmd, opts, tree, repoArg(args, 0))
		},
	}
	addTreeFlags(cmd, tree)
	return cmd
}

func runTree(cmd *cobra.Command, opts *options, tree *treeOptions, repoPath string) error {
	svc, err := opts.openService(repoPath)
	if err != nil {
		return err
	}
	p, err := opts.printer(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if !tree.watch {
		return drawTree(ctx, svc, p, opts, tree)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	r := &redrawer{p: p, draw: func() error { return drawTree(ctx, svc, p, opts, tree) }}
	r.redraw()
	return watch.Run(ctx, svc.RepoPath(), watch.DefaultDelay, func() {
		slog.Debug("repository changed, redrawing", slog.Time("at", time.Now()))
		r.redraw()
	})
}

// redrawer serializes watch-mode draws and separates each one from the
// previous output.
type redrawer struct {
	mu    sync.Mutex
	drawn bool
	p     *render.Printer
	draw  func() error
}

func (r *redrawer) redraw() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.drawn {
		r.p.Separator()
	}
	r.drawn = true
	if err := r.draw(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("redraw failed", slog.Any("error", err))
	}
}

func drawTree(ctx context.Context, svc *git.Service, p *render.Printer, opts *options, tree *treeOptions) error {
	topo, err := svc.Topology()
	if err != nil {
		return err
	}
	logTopologyErrors(topo)

	var diffs map[int]git.DiffResult
	if tree.diff {
		entries := append(topo.Root.Entries(), topo.Orphans...)
		results, err := svc.StashDiffs(ctx, entries, opts.jobs)
		if err != nil {
			return err
		}
		diffs = make(map[int]git.DiffResult, len(results))
		for _, r := range results {
			diffs[r.Entry.Index] = r
		}
	}
	p.Tree(topo, diffs)
	return p.Flush()
}

func logTopologyErrors(topo *stash.Topology) {
	for _, err := range topo.Errors {
		var graphErr *stash.GraphError
		var headErr *stash.HeadError
		switch {
		case errors.As(err, &graphErr):
			slog.Warn("ancestry check failed", slog.String("stash", graphErr.Record.Ref()), slog.String("branch", graphErr.Branch), slog.Any("error", graphErr.Err))
		case errors.As(err, &headErr):
			slog.Debug("no current branch", slog.Any("error", headErr.Err))
		default:
			slog.Debug("stash skipped", slog.Any("error", err))
		}
	}
}
