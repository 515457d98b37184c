package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeGitDir(t *testing.T) (repo, gitDir string) {
	t.Helper()
	repo = t.TempDir()
	gitDir = filepath.Join(repo, ".git")
	for _, dir := range []string{"refs/heads/feature", "refs/tags", "logs/refs", "objects"} {
		require.NoError(t, os.MkdirAll(filepath.Join(gitDir, dir), 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "HEAD"), []byte("ref: refs/heads/main\n"), 0o644))
	return repo, gitDir
}

func TestGitDir(t *testing.T) {
	t.Parallel()

	repo, gitDir := makeGitDir(t)
	got, err := GitDir(repo)
	require.NoError(t, err)
	assert.Equal(t, gitDir, got)

	linked := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(linked, ".git"), []byte("gitdir: "+gitDir+"\n"), 0o644))
	got, err = GitDir(linked)
	require.NoError(t, err)
	assert.Equal(t, gitDir, got)

	got, err = GitDir(gitDir)
	require.NoError(t, err, "a bare git dir is accepted")
	assert.Equal(t, gitDir, got)

	_, err = GitDir(t.TempDir())
	assert.Error(t, err)

	bad := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(bad, ".git"), []byte("nonsense"), 0o644))
	_, err = GitDir(bad)
	assert.Error(t, err)
}

func TestWatchPaths(t *testing.T) {
	t.Parallel()

	_, gitDir := makeGitDir(t)
	got := watchPaths(gitDir, gitDir)
	want := []string{
		gitDir,
		filepath.Join(gitDir, "refs"),
		filepath.Join(gitDir, "refs", "heads"),
		filepath.Join(gitDir, "refs", "heads", "feature"),
		filepath.Join(gitDir, "refs", "tags"),
		filepath.Join(gitDir, "logs"),
		filepath.Join(gitDir, "logs", "refs"),
	}
	assert.Equal(t, want, got)
}

// linkWorktree mimics `git worktree add`: an admin dir with a commondir file
// under the main git dir, and a .git file in the new work tree.
func linkWorktree(t *testing.T, mainGitDir string) (wtDir, adminDir string) {
	t.Helper()
	wtDir = t.TempDir()
	adminDir = filepath.Join(mainGitDir, "worktrees", "wt")
	require.NoError(t, os.MkdirAll(adminDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(adminDir, "HEAD"), []byte("ref: refs/heads/side\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(adminDir, "commondir"), []byte("../..\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(wtDir, ".git"), []byte("gitdir: "+adminDir+"\n"), 0o644))
	return wtDir, adminDir
}

func TestCommonDir(t *testing.T) {
	t.Parallel()

	_, gitDir := makeGitDir(t)
	got, err := CommonDir(gitDir)
	require.NoError(t, err)
	assert.Equal(t, gitDir, got)

	_, adminDir := linkWorktree(t, gitDir)
	got, err = CommonDir(adminDir)
	require.NoError(t, err)
	assert.Equal(t, gitDir, got)

	abs := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(abs, "commondir"), []byte(gitDir+"\n"), 0o644))
	got, err = CommonDir(abs)
	require.NoError(t, err)
	assert.Equal(t, gitDir, got)
}

func TestWatchPaths_LinkedWorktree(t *testing.T) {
	t.Parallel()

	_, gitDir := makeGitDir(t)
	_, adminDir := linkWorktree(t, gitDir)
	got := watchPaths(adminDir, gitDir)
	assert.Equal(t, adminDir, got[0])
	assert.Contains(t, got, gitDir)
	assert.Contains(t, got, filepath.Join(gitDir, "refs", "heads"))
	assert.Contains(t, got, filepath.Join(gitDir, "logs", "refs"))
}

func TestShouldIgnoreWatchPath(t *testing.T) {
	t.Parallel()

	assert.True(t, shouldIgnoreWatchPath("/r/.git/index.lock"))
	assert.True(t, shouldIgnoreWatchPath("/r/.git/refs/heads/main.LOCK"))
	assert.False(t, shouldIgnoreWatchPath("/r/.git/logs/refs/stash"))
}

func TestRun_NotifiesOnStashChange(t *testing.T) {
	repo, gitDir := makeGitDir(t)
	expectNotification(t, repo, filepath.Join(gitDir, "logs", "refs", "stash"))
}

func TestRun_LinkedWorktreeNotifiesOnSharedStashChange(t *testing.T) {
	_, gitDir := makeGitDir(t)
	wtDir, _ := linkWorktree(t, gitDir)
	expectNotification(t, wtDir, filepath.Join(gitDir, "logs", "refs", "stash"))
}

// expectNotification runs the watcher on repo and keeps touching file until
// the watcher is up and reports it.
func expectNotification(t *testing.T, repo, file string) {
	t.Helper()
	changed := make(chan struct{}, 8)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, repo, 10*time.Millisecond, func() { changed <- struct{}{} })
	}()

	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
loop:
	for {
		select {
		case <-changed:
			break loop
		case <-tick.C:
			require.NoError(t, os.WriteFile(file, []byte("x\n"), 0o644))
		case <-deadline:
			cancel()
			t.Fatal("no change notification")
		}
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_NotARepository(t *testing.T) {
	t.Parallel()

	err := Run(context.Background(), t.TempDir(), time.Millisecond, func() {})
	assert.Error(t, err)
}
