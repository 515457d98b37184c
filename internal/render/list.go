package render

import (
	"errors"
	"slices"

	"github.com/thiagokokada/stashtree/internal/stash"
)

type listRow struct {
	record stash.Record
	owner  string
}

// List prints one line per stash in stash@{N} order with the branch that
// owns it, "(orphan)" or "(unavailable)".
func (p *Printer) List(topo *stash.Topology) {
	var rows []listRow
	var walk func(n *stash.BranchNode)
	walk = func(n *stash.BranchNode) {
		for _, ref := range n.Refs {
			switch {
			case ref.Stash != nil:
				rows = append(rows, listRow{record: ref.Stash.Record, owner: p.branch.Sprint(n.Name)})
			case ref.Branch != nil:
				walk(ref.Branch)
			}
		}
	}
	walk(&topo.Root)
	for _, e := range topo.Orphans {
		rows = append(rows, listRow{record: e.Record, owner: p.dim.Sprint("(orphan)")})
	}
	for _, err := range topo.Errors {
		var rerr *stash.ResolutionError
		if errors.As(err, &rerr) {
			rows = append(rows, listRow{record: rerr.Record, owner: p.warn.Sprint("(unavailable)")})
		}
	}
	slices.SortStableFunc(rows, func(a, b listRow) int { return a.record.Index - b.record.Index })
	for _, r := range rows {
		p.line(0, p.stashRef.Sprint(r.record.Ref()), " ", r.owner, " ", r.record.Message)
	}
}

// Branches prints local branch names with their tips, marking the current
// one.
func (p *Printer) Branches(branches []stash.Branch, current string) {
	for _, b := range branches {
		marker := "  "
		if b.Name == current {
			marker = "* "
		}
		p.line(0, marker, p.branch.Sprint(b.Name), " ", p.dim.Sprint(shortHash(b.Tip)))
	}
}
