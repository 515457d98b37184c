package stash

import (
	"cmp"
	"log/slog"
	"slices"
	"strings"
	"time"
)

// Graph answers the commit-graph questions needed to attribute stashes.
type Graph interface {
	// BaseCommit resolves the first parent of a stash commit.
	BaseCommit(stashHash string) (BaseCommit, error)
	// IsAncestor reports whether candidate is reachable from tip.
	IsAncestor(candidate, tip string) (bool, error)
	LocalBranches() ([]Branch, error)
	// CurrentBranch returns the short name of the checked-out branch.
	CurrentBranch() (string, error)
}

// Build attributes each record to the first branch, in visit order, whose tip
// is or descends from the stash's base commit.
//
// Branches are visited current branch first, then by name. When a base commit
// is reachable from several tips the first one visited wins.
//
// Only a failure to list branches is returned as an error; per-stash problems
// are collected in Topology.Errors.
func Build(g Graph, records []Record) (*Topology, error) {
	branches, err := g.LocalBranches()
	if err != nil {
		return nil, &EnumerationError{What: "local branches", Err: err}
	}

	topo := &Topology{}
	current, err := g.CurrentBranch()
	current = strings.TrimSpace(current)
	if err != nil || current == "" {
		topo.Errors = append(topo.Errors, &HeadError{Err: err})
		current = ""
	}
	rootName := current
	if rootName == "" {
		rootName = DetachedRoot
	}
	order := visitOrder(branches, current)

	// slots keeps root children in encounter order so the final sort is
	// stable with respect to enumeration.
	type slot struct {
		entry  *Entry
		branch string
	}
	var slots []slot
	owned := map[string][]Entry{}

	for _, rec := range records {
		base, err := g.BaseCommit(rec.Hash)
		if err != nil {
			topo.Errors = append(topo.Errors, &ResolutionError{Record: rec, Err: err})
			continue
		}
		entry := Entry{Record: rec, Base: base}
		owner, ok := findOwner(g, order, entry, &topo.Errors)
		if !ok {
			topo.Orphans = append(topo.Orphans, entry)
			continue
		}
		slog.Debug("stash attributed",
			slog.String("stash", rec.Ref()),
			slog.String("branch", owner),
			slog.String("base", base.Hash),
		)
		if owner == current {
			slots = append(slots, slot{entry: &entry})
		} else if _, seen := owned[owner]; !seen {
			slots = append(slots, slot{branch: owner})
		}
		owned[owner] = append(owned[owner], entry)
	}

	root := BranchNode{Name: rootName}
	nodes := make(map[string]*BranchNode, len(owned))
	for name, entries := range owned {
		if name == current {
			continue
		}
		nodes[name] = newBranchNode(name, entries)
	}
	for _, s := range slots {
		if s.entry != nil {
			root.Refs = append(root.Refs, Ref{Stash: s.entry})
			continue
		}
		root.Refs = append(root.Refs, Ref{Branch: nodes[s.branch]})
	}
	slices.SortStableFunc(root.Refs, func(a, b Ref) int {
		return a.sortKey().Compare(b.sortKey())
	})
	root.Timestamp = newest(root.Refs)
	topo.Root = root
	return topo, nil
}

func newBranchNode(name string, entries []Entry) *BranchNode {
	sortEntries(entries)
	node := &BranchNode{Name: name, Refs: make([]Ref, 0, len(entries))}
	for i := range entries {
		node.Refs = append(node.Refs, Ref{Stash: &entries[i]})
	}
	node.Timestamp = newest(node.Refs)
	return node
}

// sortEntries orders by base timestamp, oldest first, keeping enumeration
// order for equal timestamps.
func sortEntries(entries []Entry) {
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return a.Base.When.Compare(b.Base.When)
	})
}

func findOwner(g Graph, order []Branch, entry Entry, errs *[]error) (string, bool) {
	for _, br := range order {
		if br.Tip == "" {
			continue
		}
		if br.Tip == entry.Base.Hash {
			return br.Name, true
		}
		ok, err := g.IsAncestor(entry.Base.Hash, br.Tip)
		if err != nil {
			*errs = append(*errs, &GraphError{Record: entry.Record, Branch: br.Name, Err: err})
			continue
		}
		if ok {
			return br.Name, true
		}
	}
	return "", false
}

// visitOrder returns branches deduplicated by name, the current branch first
// and the rest sorted by name.
func visitOrder(branches []Branch, current string) []Branch {
	seen := make(map[string]struct{}, len(branches))
	order := make([]Branch, 0, len(branches))
	for _, br := range branches {
		if br.Name == "" {
			continue
		}
		if _, ok := seen[br.Name]; ok {
			continue
		}
		seen[br.Name] = struct{}{}
		order = append(order, br)
	}
	slices.SortStableFunc(order, func(a, b Branch) int {
		if a.Name == current && b.Name != current {
			return -1
		}
		if b.Name == current && a.Name != current {
			return 1
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return order
}

func newest(refs []Ref) (ts time.Time) {
	for _, ref := range refs {
		var cand time.Time
		switch {
		case ref.Stash != nil:
			cand = ref.Stash.Base.When
		case ref.Branch != nil:
			cand = ref.Branch.Timestamp
		}
		if cand.After(ts) {
			ts = cand
		}
	}
	return ts
}
