package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"
	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/thiagokokada/stashtree/internal/diff"
)

const stashRefName = plumbing.ReferenceName("refs/stash")

// nativeBackend reads the repository through go-git. go-git repositories are
// not safe for concurrent use, so every access goes through mu.
type nativeBackend struct {
	mu   sync.Mutex
	repo *gitlib.Repository
	path string
	opts Options

	commits  *lru.Cache[string, *Commit]
	ancestry *ancestryCache
}

// OpenNative opens the repository containing repoPath.
func OpenNative(repoPath string, opts Options) (Backend, error) {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, err
	}
	// Linked worktrees keep refs and the stash reflog in the common dir.
	repo, err := gitlib.PlainOpenWithOptions(abs, &gitlib.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	root := abs
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}
	return NewNative(repo, root, opts)
}

// NewNative wraps an already opened repository.
func NewNative(repo *gitlib.Repository, repoPath string, opts Options) (Backend, error) {
	if repo == nil {
		return nil, errors.New("repository not initialized")
	}
	opts = opts.withDefaults()
	commits, err := lru.New[string, *Commit](opts.CacheSize)
	if err != nil {
		return nil, err
	}
	ancestry, err := newAncestryCache(opts.CacheSize)
	if err != nil {
		return nil, err
	}
	return &nativeBackend{
		repo:     repo,
		path:     repoPath,
		opts:     opts,
		commits:  commits,
		ancestry: ancestry,
	}, nil
}

func (n *nativeBackend) RepoPath() string {
	return n.path
}

func (n *nativeBackend) ListStashes() ([]Stash, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if storage, ok := n.repo.Storer.(*filesystem.Storage); ok {
		stashes, found, err := readStashReflog(storage.Filesystem())
		if err != nil {
			return nil, err
		}
		if found {
			return stashes, nil
		}
	}
	// Without a reflog only the newest stash is reachable.
	ref, err := n.repo.Reference(stashRefName, true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", stashRefName, err)
	}
	commit, err := n.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("read stash commit: %w", err)
	}
	return []Stash{{Index: 0, Message: summary(commit.Message), Hash: ref.Hash().String()}}, nil
}

// readStashReflog returns found=false when the reflog file does not exist.
// For a repository opened with EnableDotGitCommonDir, fs routes logs/ to the
// common git dir.
func readStashReflog(fs billy.Filesystem) ([]Stash, bool, error) {
	f, err := fs.Open(stashReflogPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("open stash reflog: %w", err)
	}
	defer f.Close()
	stashes, err := parseStashReflog(f)
	if err != nil {
		return nil, false, err
	}
	return stashes, true, nil
}

func (n *nativeBackend) LocalBranches() ([]Ref, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	iter, err := n.repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	defer iter.Close()
	var refs []Ref
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		refs = append(refs, Ref{Hash: ref.Hash().String(), Name: ref.Name().Short()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	slices.SortFunc(refs, func(a, b Ref) int { return strings.Compare(a.Name, b.Name) })
	return refs, nil
}

func (n *nativeBackend) HeadBranch() (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	head, err := n.repo.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return "", fmt.Errorf("read HEAD: %w", err)
	}
	if head.Type() != plumbing.SymbolicReference {
		return "", ErrDetachedHead
	}
	target := head.Target()
	if !target.IsBranch() {
		return "", ErrDetachedHead
	}
	if _, err := n.repo.Reference(target, true); err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", ErrUnbornHead
		}
		return "", fmt.Errorf("resolve %s: %w", target, err)
	}
	return target.Short(), nil
}

func (n *nativeBackend) Commit(hash string) (*Commit, error) {
	if c, ok := n.commits.Get(hash); ok {
		return c, nil
	}
	n.mu.Lock()
	commit, err := n.commitObject(hash)
	n.mu.Unlock()
	if err != nil {
		return nil, err
	}
	c := &Commit{
		Hash:    commit.Hash.String(),
		When:    commit.Committer.When,
		Summary: summary(commit.Message),
	}
	for _, p := range commit.ParentHashes {
		c.ParentHashes = append(c.ParentHashes, p.String())
	}
	n.commits.Add(hash, c)
	return c, nil
}

// commitObject must be called with mu held.
func (n *nativeBackend) commitObject(hash string) (*object.Commit, error) {
	if !isHexHash(hash) {
		return nil, fmt.Errorf("%w: invalid hash %q", ErrCommitNotFound, hash)
	}
	commit, err := n.repo.CommitObject(plumbing.NewHash(hash))
	if errors.Is(err, plumbing.ErrObjectNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrCommitNotFound, hash)
	}
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", hash, err)
	}
	return commit, nil
}

func (n *nativeBackend) IsAncestor(candidate, tip string) (bool, error) {
	return n.ancestry.lookup(candidate, tip, func() (bool, error) {
		if candidate == tip {
			return true, nil
		}
		n.mu.Lock()
		defer n.mu.Unlock()
		c, err := n.commitObject(candidate)
		if err != nil {
			return false, err
		}
		t, err := n.commitObject(tip)
		if err != nil {
			return false, err
		}
		ok, err := c.IsAncestor(t)
		if err != nil {
			return false, fmt.Errorf("walk history of %s: %w", tip, err)
		}
		return ok, nil
	})
}

func (n *nativeBackend) DiffEvents(baseHash, targetHash string) (diff.Source, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	baseTree, err := n.treeOf(baseHash)
	if err != nil {
		return nil, err
	}
	targetTree, err := n.treeOf(targetHash)
	if err != nil {
		return nil, err
	}
	changes, err := object.DiffTreeWithOptions(context.Background(), baseTree, targetTree, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, fmt.Errorf("diff %s..%s: %w", short(baseHash), short(targetHash), err)
	}
	slog.Debug("tree diff computed",
		slog.String("base", short(baseHash)),
		slog.String("target", short(targetHash)),
		slog.Int("changes", len(changes)),
	)
	return &treeDiffSource{backend: n, changes: changes}, nil
}

func (n *nativeBackend) treeOf(hash string) (*object.Tree, error) {
	commit, err := n.commitObject(hash)
	if err != nil {
		return nil, err
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("read tree of %s: %w", short(hash), err)
	}
	return tree, nil
}

func summary(message string) string {
	line, _, _ := strings.Cut(message, "\n")
	return strings.TrimSpace(line)
}

func short(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
