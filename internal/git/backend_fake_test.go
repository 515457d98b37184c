package git

import (
	"errors"
	"sync"

	"github.com/thiagokokada/stashtree/internal/diff"
	gitbackend "github.com/thiagokokada/stashtree/internal/git/backend"
)

type fakeBackend struct {
	repoPath string

	listStashesFunc   func() ([]gitbackend.Stash, error)
	localBranchesFunc func() ([]gitbackend.Ref, error)
	headBranchFunc    func() (string, error)
	commitFunc        func(hash string) (*gitbackend.Commit, error)
	isAncestorFunc    func(candidate, tip string) (bool, error)
	diffEventsFunc    func(baseHash, targetHash string) (diff.Source, error)

	mu        sync.Mutex
	diffPairs [][2]string
}

func (f *fakeBackend) RepoPath() string { return f.repoPath }

func (f *fakeBackend) ListStashes() ([]gitbackend.Stash, error) {
	if f.listStashesFunc != nil {
		return f.listStashesFunc()
	}
	return nil, errors.New("unexpected ListStashes call")
}

func (f *fakeBackend) LocalBranches() ([]gitbackend.Ref, error) {
	if f.localBranchesFunc != nil {
		return f.localBranchesFunc()
	}
	return nil, errors.New("unexpected LocalBranches call")
}

func (f *fakeBackend) HeadBranch() (string, error) {
	if f.headBranchFunc != nil {
		return f.headBranchFunc()
	}
	return "", errors.New("unexpected HeadBranch call")
}

func (f *fakeBackend) Commit(hash string) (*gitbackend.Commit, error) {
	if f.commitFunc != nil {
		return f.commitFunc(hash)
	}
	return nil, errors.New("unexpected Commit call")
}

func (f *fakeBackend) IsAncestor(candidate, tip string) (bool, error) {
	if f.isAncestorFunc != nil {
		return f.isAncestorFunc(candidate, tip)
	}
	return false, errors.New("unexpected IsAncestor call")
}

func (f *fakeBackend) DiffEvents(baseHash, targetHash string) (diff.Source, error) {
	f.mu.Lock()
	f.diffPairs = append(f.diffPairs, [2]string{baseHash, targetHash})
	f.mu.Unlock()
	if f.diffEventsFunc != nil {
		return f.diffEventsFunc(baseHash, targetHash)
	}
	return nil, errors.New("unexpected DiffEvents call")
}
