package backend

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// gitCLI implements Backend by running the git executable. Each call spawns
// its own process, so it is safe for concurrent use.
type gitCLI struct {
	path string
	opts Options

	commits  *lru.Cache[string, *Commit]
	ancestry *ancestryCache
}

// CommandError describes a git invocation that exited unsuccessfully.
type CommandError struct {
	Context string
	Stderr  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %v: %s", e.Context, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%s: %v", e.Context, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// ExitCode returns the process exit code, or -1 if git did not run.
func (e *CommandError) ExitCode() int {
	var exitErr *exec.ExitError
	if errors.As(e.Err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// OpenCLI opens the repository containing repoPath using the git executable.
func OpenCLI(repoPath string, opts Options) (Backend, error) {
	if err := ensureMinGitVersion(); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, err
	}
	tmp := &gitCLI{path: abs}
	root, err := tmp.runGitCommand([]string{"rev-parse", "--show-toplevel"}, false, "git rev-parse")
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("open repository: git rev-parse returned empty root")
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
	return &gitCLI{path: root, opts: opts, commits: commits, ancestry: ancestry}, nil
}

func (g *gitCLI) RepoPath() string {
	if g == nil {
		return ""
	}
	return g.path
}

func (g *gitCLI) command(args ...string) *exec.Cmd {
	cmdArgs := append([]string{"--no-pager", "-C", g.path}, args...)
	return exec.Command("git", cmdArgs...)
}

// runGitCommand returns stdout. With allowExit1, exit status 1 without any
// stderr output counts as success; several plumbing commands use it to
// signal "nothing found".
func (g *gitCLI) runGitCommand(args []string, allowExit1 bool, context string) (string, error) {
	if g == nil || g.path == "" {
		return "", fmt.Errorf("repository root not set")
	}
	cmd := g.command(args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		cmdErr := &CommandError{Context: context, Stderr: strings.TrimSpace(stderr.String()), Err: err}
		if allowExit1 && cmdErr.ExitCode() == 1 && cmdErr.Stderr == "" {
			return stdout.String(), nil
		}
		return "", cmdErr
	}
	return stdout.String(), nil
}

// runGitTest runs a command whose answer is its exit status: 0 is true,
// 1 is false and anything else is an error.
func (g *gitCLI) runGitTest(args []string, context string) (bool, error) {
	_, err := g.runGitCommand(args, false, context)
	if err == nil {
		return true, nil
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && cmdErr.ExitCode() == 1 && cmdErr.Stderr == "" {
		return false, nil
	}
	return false, err
}
