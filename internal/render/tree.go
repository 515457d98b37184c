package render

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/thiagokokada/stashtree/internal/git"
	"github.com/thiagokokada/stashtree/internal/stash"
)

// Tree prints the topology as nested "branch <name>" blocks followed by the
// orphan and unavailable groups. When diffs is non-nil each stash is followed
// by its diff, keyed by stash index.
func (p *Printer) Tree(topo *stash.Topology, diffs map[int]git.DiffResult) {
	p.branchLine(0, &topo.Root)
	p.children(1, topo.Root.Refs, diffs)

	if len(topo.Orphans) > 0 {
		p.line(0, p.branch.Sprint("orphans"))
		for i := range topo.Orphans {
			p.stashEntry(1, &topo.Orphans[i], diffs)
		}
	}

	var failed []*stash.ResolutionError
	for _, err := range topo.Errors {
		var rerr *stash.ResolutionError
		if errors.As(err, &rerr) {
			failed = append(failed, rerr)
		}
	}
	if len(failed) > 0 {
		p.line(0, p.branch.Sprint("unavailable"))
		for _, rerr := range failed {
			p.line(1, p.stashRef.Sprint(rerr.Record.Ref()), ": ", rerr.Record.Message)
			p.Unavailable(rerr.Err.Error(), 2)
		}
	}
	p.line(0, p.dim.Sprint(summary(topo)))
}

func (p *Printer) children(depth int, refs []stash.Ref, diffs map[int]git.DiffResult) {
	for _, ref := range refs {
		switch {
		case ref.Stash != nil:
			p.stashEntry(depth, ref.Stash, diffs)
		case ref.Branch != nil:
			p.branchLine(depth, ref.Branch)
			p.children(depth+1, ref.Branch.Refs, diffs)
		}
	}
}

func (p *Printer) branchLine(depth int, n *stash.BranchNode) {
	parts := []string{p.branch.Sprint("branch " + n.Name)}
	if !n.Timestamp.IsZero() {
		parts = append(parts, p.dim.Sprint(" (newest base "+p.relTime(n.Timestamp)+")"))
	}
	p.line(depth, parts...)
}

func (p *Printer) stashEntry(depth int, e *stash.Entry, diffs map[int]git.DiffResult) {
	p.line(depth,
		p.stashRef.Sprint(e.Ref()), ": ", e.Message,
		p.dim.Sprintf("  [base %s, %s]", shortHash(e.Base.Hash), p.relTime(e.Base.When)),
	)
	if diffs == nil {
		return
	}
	res, ok := diffs[e.Index]
	switch {
	case !ok:
		return
	case res.Err != nil:
		p.Unavailable(unavailableReason(res.Err), depth+1)
	case len(res.Document) == 0:
		p.line(depth+1, p.dim.Sprint("(no changes)"))
	default:
		p.Diff(res.Document, depth+1)
	}
}

func unavailableReason(err error) string {
	var srcErr *git.DiffSourceError
	if errors.As(err, &srcErr) && srcErr.Err != nil {
		return srcErr.Err.Error()
	}
	return err.Error()
}

func (p *Printer) relTime(t time.Time) string {
	return humanize.RelTime(t, p.now(), "ago", "from now")
}

func summary(topo *stash.Topology) string {
	orphans := len(topo.Orphans)
	failed := len(topo.Failed())
	attributed := topo.Count() - orphans - failed
	return fmt.Sprintf("%s (%d attributed, %d orphaned, %d unavailable)",
		plural(topo.Count(), "stash", "stashes"), attributed, orphans, failed)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return strconv.Itoa(n) + " " + many
}

func shortHash(h string) string {
	if len(h) > 7 {
		return h[:7]
	}
	return h
}
