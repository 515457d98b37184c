package backend

import (
	"errors"

	"github.com/thiagokokada/stashtree/internal/diff"
)

var (
	ErrCommitNotFound = errors.New("commit not found")
	ErrDetachedHead   = errors.New("HEAD is detached")
	ErrUnbornHead     = errors.New("HEAD points to an unborn branch")
)

// Backend abstracts read-only access to repository data.
//
// Two implementations exist: a pure-Go one built on go-git (OpenNative) and
// one that shells out to the git executable (OpenCLI). Both must tolerate
// concurrent calls.
type Backend interface {
	RepoPath() string

	// ListStashes returns stash entries most recent first (stash@{0} first).
	ListStashes() ([]Stash, error)
	// LocalBranches returns refs/heads/* sorted by name.
	LocalBranches() ([]Ref, error)
	// HeadBranch returns the short name of the checked-out branch, or
	// ErrDetachedHead / ErrUnbornHead.
	HeadBranch() (string, error)

	Commit(hash string) (*Commit, error)
	// IsAncestor reports whether candidate is reachable from tip. A commit is
	// its own ancestor.
	IsAncestor(candidate, tip string) (bool, error)

	// DiffEvents streams the changes from baseHash's tree to targetHash's tree.
	// The caller must Close the returned source.
	DiffEvents(baseHash, targetHash string) (diff.Source, error)
}

// Options tune backend behaviour. Zero values select defaults.
type Options struct {
	// ContextLines is the number of unchanged lines around each hunk; zero
	// selects DefaultContextLines.
	ContextLines int
	// CacheSize bounds the commit and ancestry caches.
	CacheSize int
}

const (
	DefaultContextLines = 3
	DefaultCacheSize    = 4096
)

func (o Options) withDefaults() Options {
	if o.ContextLines <= 0 {
		o.ContextLines = DefaultContextLines
	}
	if o.CacheSize <= 0 {
		o.CacheSize = DefaultCacheSize
	}
	return o
}
