package backend

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/thiagokokada/stashtree/internal/diff"
)

// gitDiffStream parses `git diff` output while the process is still writing
// it.
type gitDiffStream struct {
	cancel context.CancelFunc
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr bytes.Buffer
	src    diff.Source

	waitOnce sync.Once
	waitErr  error
}

func startGitDiffStream(g *gitCLI, baseHash, targetHash string) (*gitDiffStream, error) {
	if g == nil || g.path == "" {
		return nil, fmt.Errorf("repository root not set")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(
		ctx,
		"git",
		"--no-pager",
		"-C",
		g.path,
		"diff",
		"--no-color",
		"--no-ext-diff",
		"--no-textconv",
		"--find-renames",
		// User config may change prefixes; the parser expects a/ and b/.
		"--src-prefix=a/",
		"--dst-prefix=b/",
		"--unified="+strconv.Itoa(g.opts.ContextLines),
		baseHash,
		targetHash,
		"--",
	)
	var stream gitDiffStream
	stream.cancel = cancel
	stream.cmd = cmd
	cmd.Stderr = &stream.stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("git diff stdout: %w", err)
	}
	stream.stdout = stdout
	stream.src = diff.ParseUnified(bufio.NewReader(stdout))
	if err := cmd.Start(); err != nil {
		cancel()
		_ = stdout.Close()
		return nil, &CommandError{Context: "git diff start", Stderr: strings.TrimSpace(stream.stderr.String()), Err: err}
	}
	return &stream, nil
}

func (s *gitDiffStream) Next() (diff.Event, error) {
	ev, err := s.src.Next()
	if errors.Is(err, io.EOF) {
		if waitErr := s.wait(); waitErr != nil {
			return diff.Event{}, waitErr
		}
		return diff.Event{}, io.EOF
	}
	return ev, err
}

func (s *gitDiffStream) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.stdout != nil {
		_ = s.stdout.Close()
	}
	err := s.wait()
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && cmdErr.Stderr == "" {
		// Killed by the cancel above.
		return nil
	}
	return err
}

func (s *gitDiffStream) wait() error {
	s.waitOnce.Do(func() {
		s.waitErr = s.cmd.Wait()
	})
	if s.waitErr == nil {
		return nil
	}
	return &CommandError{Context: "git diff", Stderr: strings.TrimSpace(s.stderr.String()), Err: s.waitErr}
}
