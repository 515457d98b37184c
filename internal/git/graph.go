package git

import (
	"fmt"
	"time"

	gitbackend "github.com/thiagokokada/stashtree/internal/git/backend"
	"github.com/thiagokokada/stashtree/internal/stash"
)

// graph adapts a backend to the questions the topology builder asks.
type graph struct {
	backend gitbackend.Backend
}

func (s *Service) graph() graph {
	return graph{backend: s.backend}
}

func (g graph) BaseCommit(stashHash string) (stash.BaseCommit, error) {
	c, err := g.backend.Commit(stashHash)
	if err != nil {
		return stash.BaseCommit{}, err
	}
	if len(c.ParentHashes) == 0 {
		return stash.BaseCommit{}, fmt.Errorf("stash commit %s has no parent", stashHash)
	}
	base, err := g.backend.Commit(c.ParentHashes[0])
	if err != nil {
		return stash.BaseCommit{}, fmt.Errorf("base of %s: %w", stashHash, err)
	}
	return stash.BaseCommit{Hash: base.Hash, When: base.When.Truncate(time.Second)}, nil
}

func (g graph) IsAncestor(candidate, tip string) (bool, error) {
	return g.backend.IsAncestor(candidate, tip)
}

func (g graph) LocalBranches() ([]stash.Branch, error) {
	refs, err := g.backend.LocalBranches()
	if err != nil {
		return nil, err
	}
	branches := make([]stash.Branch, 0, len(refs))
	for _, ref := range refs {
		if ref.Name == "" {
			continue
		}
		branches = append(branches, stash.Branch{Name: ref.Name, Tip: ref.Hash})
	}
	return branches, nil
}

func (g graph) CurrentBranch() (string, error) {
	return g.backend.HeadBranch()
}
