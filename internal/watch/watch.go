// Package watch reports changes to a repository's refs and stash reflog.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/thiagokokada/stashtree/internal/debounce"
)

const DefaultDelay = 350 * time.Millisecond

// Run calls onChange, debounced by delay, whenever something under the
// repository's git directory that can affect stashes or branches changes. It
// blocks until ctx is done.
func Run(ctx context.Context, repoPath string, delay time.Duration, onChange func()) error {
	gitDir, err := GitDir(repoPath)
	if err != nil {
		return err
	}
	commonDir, err := CommonDir(gitDir)
	if err != nil {
		return fmt.Errorf("resolve common git dir: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	for _, path := range watchPaths(gitDir, commonDir) {
		slog.Debug("adding path to FS watcher", slog.String("path", path))
		if err := watcher.Add(path); err != nil {
			err := errors.Join(err, watcher.Close())
			return fmt.Errorf("watch %s: %w", path, err)
		}
	}
	d := debounce.New(delay, onChange)
	defer d.Stop()
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if shouldIgnoreWatchPath(ev.Name) {
				continue
			}
			slog.Debug("fsnotify event",
				slog.String("op", ev.Op.String()),
				slog.String("path", ev.Name),
			)
			if ev.Op&fsnotify.Create != 0 {
				// New ref namespaces (refs/heads/feature/) need their own watch.
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := watcher.Add(ev.Name); err != nil {
						slog.Debug("watch new directory", slog.String("path", ev.Name), slog.Any("error", err))
					}
				}
			}
			d.Trigger()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("fsnotify error", slog.Any("error", err))
		}
	}
}

// GitDir locates the git directory of the work tree at repoPath, following a
// "gitdir:" file as used by linked worktrees and submodules. A bare
// repository is its own git directory.
func GitDir(repoPath string) (string, error) {
	dotGit := filepath.Join(repoPath, ".git")
	info, err := os.Stat(dotGit)
	switch {
	case err == nil && info.IsDir():
		return dotGit, nil
	case err == nil:
		data, err := os.ReadFile(dotGit)
		if err != nil {
			return "", err
		}
		target, ok := strings.CutPrefix(strings.TrimSpace(string(data)), "gitdir:")
		if !ok {
			return "", fmt.Errorf("%s: not a gitdir file", dotGit)
		}
		target = strings.TrimSpace(target)
		if !filepath.IsAbs(target) {
			target = filepath.Join(repoPath, target)
		}
		return filepath.Clean(target), nil
	case errors.Is(err, fs.ErrNotExist):
		if _, herr := os.Stat(filepath.Join(repoPath, "HEAD")); herr == nil {
			return repoPath, nil
		}
		return "", fmt.Errorf("%s is not a git repository", repoPath)
	default:
		return "", err
	}
}

// CommonDir returns the directory holding shared refs and logs for gitDir.
// Linked worktrees point at it through a "commondir" file; any other git
// dir is its own common dir.
func CommonDir(gitDir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(gitDir, "commondir"))
	if errors.Is(err, fs.ErrNotExist) {
		return gitDir, nil
	}
	if err != nil {
		return "", err
	}
	common := strings.TrimSpace(string(data))
	if common == "" {
		return gitDir, nil
	}
	if !filepath.IsAbs(common) {
		common = filepath.Join(gitDir, common)
	}
	return filepath.Clean(common), nil
}

// watchPaths returns the git dir, the common dir when it differs, and every
// directory below the common dir's refs/ and logs/, since fsnotify does not
// recurse.
func watchPaths(gitDir, commonDir string) []string {
	paths := []string{gitDir}
	if commonDir != gitDir {
		paths = append(paths, commonDir)
	}
	for _, sub := range []string{"refs", "logs"} {
		root := filepath.Join(commonDir, sub)
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				paths = append(paths, path)
			}
			return nil
		})
	}
	return paths
}

func shouldIgnoreWatchPath(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".lock" || ext == ".ipc"
}
