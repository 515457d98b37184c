// Package stash attributes stash entries to the local branches they were
// taken from and arranges them into a tree.
package stash

import (
	"errors"
	"fmt"
	"time"
)

// DetachedRoot names the root node when HEAD is detached or unborn.
const DetachedRoot = "HEAD"

// Record identifies one stash entry as enumerated by the backend.
type Record struct {
	Index   int
	Message string
	Hash    string
}

// Ref returns the stash@{N} name of the record.
func (r Record) Ref() string {
	return fmt.Sprintf("stash@{%d}", r.Index)
}

// BaseCommit is the commit a stash was taken from: the first parent of the
// stash commit.
type BaseCommit struct {
	Hash string
	When time.Time
}

// Entry is a record with its resolved base commit.
type Entry struct {
	Record
	Base BaseCommit
}

// Branch is a local branch and the commit its tip points at.
type Branch struct {
	Name string
	Tip  string
}

// Ref is a child of a BranchNode. Exactly one field is set.
type Ref struct {
	Stash  *Entry
	Branch *BranchNode
}

// sortKey is a stash's own base timestamp, or for a nested branch the key of
// its first (oldest) child.
func (r Ref) sortKey() time.Time {
	switch {
	case r.Stash != nil:
		return r.Stash.Base.When
	case r.Branch != nil && len(r.Branch.Refs) > 0:
		return r.Branch.Refs[0].sortKey()
	default:
		return time.Unix(0, 0)
	}
}

type BranchNode struct {
	Name string
	// Timestamp is the newest base timestamp among the node's stashes,
	// including those of nested branches.
	Timestamp time.Time
	Refs      []Ref
}

// Walk visits every ref below n depth-first, in order.
func (n *BranchNode) Walk(fn func(depth int, ref Ref)) {
	n.walk(0, fn)
}

func (n *BranchNode) walk(depth int, fn func(int, Ref)) {
	for _, ref := range n.Refs {
		fn(depth, ref)
		if ref.Branch != nil {
			ref.Branch.walk(depth+1, fn)
		}
	}
}

// Entries returns every stash below n in tree order.
func (n *BranchNode) Entries() []Entry {
	var out []Entry
	n.Walk(func(_ int, ref Ref) {
		if ref.Stash != nil {
			out = append(out, *ref.Stash)
		}
	})
	return out
}

type Topology struct {
	Root    BranchNode
	Orphans []Entry
	// Errors holds per-item failures: *ResolutionError, *GraphError and
	// *HeadError. None of them abort the build.
	Errors []error
}

// Failed returns the records whose base commit could not be resolved.
func (t *Topology) Failed() []Record {
	var out []Record
	for _, err := range t.Errors {
		var rerr *ResolutionError
		if errors.As(err, &rerr) {
			out = append(out, rerr.Record)
		}
	}
	return out
}

// Count returns the number of stashes accounted for: attributed, orphaned or
// failed.
func (t *Topology) Count() int {
	return len(t.Root.Entries()) + len(t.Orphans) + len(t.Failed())
}
