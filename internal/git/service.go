// Package git opens a repository through a backend and answers the questions
// stashtree asks about its stashes.
package git

import (
	"fmt"
	"log/slog"

	gitbackend "github.com/thiagokokada/stashtree/internal/git/backend"
	"github.com/thiagokokada/stashtree/internal/stash"
)

// BackendKind selects how the repository is read.
type BackendKind string

const (
	BackendNative BackendKind = "native"
	BackendGitCLI BackendKind = "gitcli"
)

// ParseBackendKind validates a backend name. The empty string selects the
// native backend.
func ParseBackendKind(s string) (BackendKind, error) {
	switch BackendKind(s) {
	case "", BackendNative:
		return BackendNative, nil
	case BackendGitCLI:
		return BackendGitCLI, nil
	default:
		return "", fmt.Errorf("unknown backend %q (want %s or %s)", s, BackendNative, BackendGitCLI)
	}
}

type Service struct {
	backend gitbackend.Backend
}

// Open opens the repository containing repoPath.
func Open(repoPath string, kind BackendKind, opts gitbackend.Options) (*Service, error) {
	var (
		b   gitbackend.Backend
		err error
	)
	switch kind {
	case "", BackendNative:
		b, err = gitbackend.OpenNative(repoPath, opts)
	case BackendGitCLI:
		b, err = gitbackend.OpenCLI(repoPath, opts)
	default:
		return nil, fmt.Errorf("unknown backend %q", kind)
	}
	if err != nil {
		return nil, err
	}
	slog.Debug("repository opened",
		slog.String("path", b.RepoPath()),
		slog.String("backend", string(kind)),
	)
	return NewWithBackend(b), nil
}

func NewWithBackend(b gitbackend.Backend) *Service {
	return &Service{backend: b}
}

func (s *Service) RepoPath() string {
	if s == nil || s.backend == nil {
		return ""
	}
	return s.backend.RepoPath()
}

// Stashes enumerates stash entries, stash@{0} first.
func (s *Service) Stashes() ([]stash.Record, error) {
	list, err := s.backend.ListStashes()
	if err != nil {
		return nil, &stash.EnumerationError{What: "stashes", Err: err}
	}
	records := make([]stash.Record, 0, len(list))
	for _, st := range list {
		records = append(records, stash.Record{Index: st.Index, Message: st.Message, Hash: st.Hash})
	}
	return records, nil
}

// Topology enumerates the stashes and attributes them to local branches.
func (s *Service) Topology() (*stash.Topology, error) {
	records, err := s.Stashes()
	if err != nil {
		return nil, err
	}
	topo, err := stash.Build(s.graph(), records)
	if err != nil {
		return nil, err
	}
	slog.Debug("topology built",
		slog.Int("stashes", len(records)),
		slog.Int("orphans", len(topo.Orphans)),
		slog.Int("errors", len(topo.Errors)),
	)
	return topo, nil
}

// LocalBranches lists refs/heads/* with their tips, sorted by name.
func (s *Service) LocalBranches() ([]stash.Branch, error) {
	return s.graph().LocalBranches()
}

// CurrentBranch returns the checked-out branch, or an error wrapping
// backend.ErrDetachedHead or backend.ErrUnbornHead.
func (s *Service) CurrentBranch() (string, error) {
	return s.graph().CurrentBranch()
}

// Resolve looks up the base commit of a single record.
func (s *Service) Resolve(rec stash.Record) (stash.Entry, error) {
	base, err := s.graph().BaseCommit(rec.Hash)
	if err != nil {
		return stash.Entry{}, &stash.ResolutionError{Record: rec, Err: err}
	}
	return stash.Entry{Record: rec, Base: base}, nil
}
