package backend

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/thiagokokada/stashtree/internal/diff"
)

// NUL separated so messages may contain anything but NUL.
const (
	stashListFormat = "%gd%x00%H%x00%gs"
	commitFormat    = "%H%x00%P%x00%ct%x00%s"
)

func (g *gitCLI) ListStashes() ([]Stash, error) {
	out, err := g.runGitCommand(
		[]string{"stash", "list", "--no-color", "--format=" + stashListFormat},
		false,
		"git stash list",
	)
	if err != nil {
		return nil, err
	}
	return parseStashList(out)
}

func parseStashList(out string) ([]Stash, error) {
	var stashes []Stash
	for _, rawLine := range strings.Split(out, "\n") {
		line := strings.TrimRight(rawLine, "\r")
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\x00", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("unexpected stash list line: %q", rawLine)
		}
		index, err := parseStashSelector(parts[0])
		if err != nil {
			return nil, err
		}
		hash := strings.TrimSpace(parts[1])
		if !isHexHash(hash) {
			return nil, fmt.Errorf("unexpected stash hash %q", hash)
		}
		stashes = append(stashes, Stash{Index: index, Message: parts[2], Hash: hash})
	}
	slices.SortStableFunc(stashes, func(a, b Stash) int { return a.Index - b.Index })
	return stashes, nil
}

// parseStashSelector turns "stash@{3}" into 3.
func parseStashSelector(s string) (int, error) {
	inner, ok := strings.CutPrefix(strings.TrimSpace(s), "stash@{")
	if ok {
		inner, ok = strings.CutSuffix(inner, "}")
	}
	if !ok {
		return 0, fmt.Errorf("unexpected stash selector %q", s)
	}
	n, err := strconv.Atoi(inner)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("unexpected stash selector %q", s)
	}
	return n, nil
}

func (g *gitCLI) LocalBranches() ([]Ref, error) {
	// show-ref exits 1 when nothing matches.
	out, err := g.runGitCommand([]string{"show-ref", "--heads"}, true, "git show-ref")
	if err != nil {
		return nil, err
	}
	branches, err := parseRefsFromShowRef(out)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(branches, func(a, b Ref) int { return strings.Compare(a.Name, b.Name) })
	return branches, nil
}

func (g *gitCLI) HeadBranch() (string, error) {
	ref, err := g.runGitCommand([]string{"symbolic-ref", "-q", "HEAD"}, true, "git symbolic-ref")
	if err != nil {
		return "", err
	}
	name, ok := strings.CutPrefix(strings.TrimSpace(ref), "refs/heads/")
	if !ok || name == "" {
		return "", ErrDetachedHead
	}
	out, err := g.runGitCommand([]string{"rev-parse", "-q", "--verify", "HEAD"}, true, "git rev-parse")
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return "", ErrUnbornHead
	}
	return name, nil
}

func (g *gitCLI) Commit(hash string) (*Commit, error) {
	if c, ok := g.commits.Get(hash); ok {
		return c, nil
	}
	if !isHexHash(hash) {
		return nil, fmt.Errorf("%w: invalid hash %q", ErrCommitNotFound, hash)
	}
	out, err := g.runGitCommand(
		[]string{"show", "-s", "--no-color", "--format=" + commitFormat, hash + "^{commit}", "--"},
		false,
		"git show",
	)
	if err != nil {
		if isUnknownObject(err) {
			return nil, fmt.Errorf("%w: %s", ErrCommitNotFound, hash)
		}
		return nil, err
	}
	c, err := parseCommitRecord(out)
	if err != nil {
		return nil, err
	}
	g.commits.Add(hash, c)
	return c, nil
}

func isUnknownObject(err error) bool {
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		return false
	}
	for _, marker := range []string{"bad object", "unknown revision", "bad revision", "not a valid object"} {
		if strings.Contains(cmdErr.Stderr, marker) {
			return true
		}
	}
	return false
}

func parseCommitRecord(out string) (*Commit, error) {
	rec := strings.TrimRight(out, "\r\n")
	parts := strings.SplitN(rec, "\x00", 4)
	if len(parts) != 4 {
		return nil, fmt.Errorf("unexpected commit record: got %d fields", len(parts))
	}
	hash := strings.TrimSpace(parts[0])
	if hash == "" {
		return nil, fmt.Errorf("missing commit hash")
	}
	secs, err := strconv.ParseInt(strings.TrimSpace(parts[2]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("commit %s: invalid committer time %q", hash, parts[2])
	}
	return &Commit{
		Hash:         hash,
		ParentHashes: strings.Fields(parts[1]),
		When:         time.Unix(secs, 0),
		Summary:      parts[3],
	}, nil
}

func (g *gitCLI) IsAncestor(candidate, tip string) (bool, error) {
	return g.ancestry.lookup(candidate, tip, func() (bool, error) {
		if candidate == tip {
			return true, nil
		}
		return g.runGitTest([]string{"merge-base", "--is-ancestor", candidate, tip}, "git merge-base")
	})
}

func (g *gitCLI) DiffEvents(baseHash, targetHash string) (diff.Source, error) {
	if !isHexHash(baseHash) || !isHexHash(targetHash) {
		return nil, fmt.Errorf("%w: invalid hash pair %q..%q", ErrCommitNotFound, baseHash, targetHash)
	}
	return startGitDiffStream(g, baseHash, targetHash)
}

// parseRefsFromShowRef keeps refs/heads/* lines and ignores anything else
// show-ref may print.
func parseRefsFromShowRef(out string) ([]Ref, error) {
	var refs []Ref
	for _, rawLine := range strings.Split(out, "\n") {
		line := strings.TrimRight(rawLine, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) != 2 {
			return nil, fmt.Errorf("unexpected show-ref output line: %q", rawLine)
		}
		hash, refName := parts[0], parts[1]
		if !isHexHash(hash) {
			return nil, fmt.Errorf("unexpected show-ref hash %q", hash)
		}
		short, ok := strings.CutPrefix(refName, "refs/heads/")
		if !ok || short == "" {
			continue
		}
		refs = append(refs, Ref{Hash: hash, Name: short})
	}
	return refs, nil
}
