package backend

import (
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	hashA = "1111111111111111111111111111111111111111"
	hashB = "2222222222222222222222222222222222222222"
	hashC = "3333333333333333333333333333333333333333"
)

func TestParseStashList(t *testing.T) {
	t.Parallel()

	in := strings.Join([]string{
		"stash@{1}\x00" + hashB + "\x00On feature: tidy up",
		"stash@{0}\x00" + hashA + "\x00WIP on main: 1234567 fix\x00odd",
		"",
	}, "\n")

	got, err := parseStashList(in)
	require.NoError(t, err)
	assert.Equal(t, []Stash{
		{Index: 0, Message: "WIP on main: 1234567 fix\x00odd", Hash: hashA},
		{Index: 1, Message: "On feature: tidy up", Hash: hashB},
	}, got)
}

func TestParseStashList_Empty(t *testing.T) {
	t.Parallel()

	got, err := parseStashList("")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseStashList_Invalid(t *testing.T) {
	t.Parallel()

	for _, in := range []string{
		"stash@{0} " + hashA,
		"stash@{x}\x00" + hashA + "\x00msg",
		"stash@{0}\x00nothex\x00msg",
	} {
		_, err := parseStashList(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestParseStashSelector(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{in: "stash@{0}", want: 0, ok: true},
		{in: " stash@{12} ", want: 12, ok: true},
		{in: "stash@{-1}", ok: false},
		{in: "stash@{1", ok: false},
		{in: "refs/stash", ok: false},
	}
	for _, tt := range tests {
		got, err := parseStashSelector(tt.in)
		if !tt.ok {
			assert.Error(t, err, "parseStashSelector(%q)", tt.in)
			continue
		}
		require.NoError(t, err, "parseStashSelector(%q)", tt.in)
		assert.Equal(t, tt.want, got, "parseStashSelector(%q)", tt.in)
	}
}

func TestParseCommitRecord(t *testing.T) {
	t.Parallel()

	rec := hashA + "\x00" + hashB + " " + hashC + "\x001704164645\x00Subject line\n"
	commit, err := parseCommitRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, hashA, commit.Hash)
	assert.Equal(t, []string{hashB, hashC}, commit.ParentHashes)
	assert.True(t, commit.When.Equal(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)), "When = %v", commit.When)
	assert.Equal(t, "Subject line", commit.Summary)
}

func TestParseCommitRecord_Root(t *testing.T) {
	t.Parallel()

	commit, err := parseCommitRecord(hashA + "\x00\x000\x00")
	require.NoError(t, err)
	assert.Empty(t, commit.ParentHashes)
	assert.Empty(t, commit.Summary)
}

func TestParseCommitRecord_Invalid(t *testing.T) {
	t.Parallel()

	_, err := parseCommitRecord("only\x00two")
	assert.Error(t, err, "short record")
	_, err = parseCommitRecord(hashA + "\x00\x00yesterday\x00s")
	assert.Error(t, err, "bad time")
}

func TestParseRefsFromShowRef(t *testing.T) {
	t.Parallel()

	in := strings.Join([]string{
		hashA + " refs/heads/main",
		hashB + " refs/heads/feature/x",
		hashA + " refs/remotes/origin/main",
		hashB + " refs/tags/v1.0",
		hashC + " refs/stash",
		"",
	}, "\n")

	got, err := parseRefsFromShowRef(in)
	require.NoError(t, err)
	assert.Equal(t, []Ref{
		{Hash: hashA, Name: "main"},
		{Hash: hashB, Name: "feature/x"},
	}, got)
}

func TestParseRefsFromShowRef_Invalid(t *testing.T) {
	t.Parallel()

	_, err := parseRefsFromShowRef("refs/heads/main\n")
	assert.Error(t, err, "missing hash")
	_, err = parseRefsFromShowRef("zzzz refs/heads/main\n")
	assert.Error(t, err, "bad hash")
}

func TestCommandError(t *testing.T) {
	t.Parallel()

	err := &CommandError{Context: "git show", Stderr: "fatal: bad object deadbeef", Err: errors.New("exit status 128")}
	assert.Equal(t, "git show: exit status 128: fatal: bad object deadbeef", err.Error())
	assert.Equal(t, -1, err.ExitCode(), "non-exit errors have no code")
	assert.True(t, isUnknownObject(err))
	assert.False(t, isUnknownObject(&CommandError{Context: "git show", Stderr: "fatal: not a git repository", Err: &exec.ExitError{}}))
}
