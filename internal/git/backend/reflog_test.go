package backend

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStashReflog(t *testing.T) {
	t.Parallel()

	zero := strings.Repeat("0", 40)
	in := strings.Join([]string{
		zero + " " + hashA + " A U Thor <a@example.com> 1700000000 +0100\tWIP on main: 1234567 first",
		hashA + " " + hashB + " A U Thor <a@example.com> 1700000100 +0100\tOn topic: second\twith tab",
		"",
		hashB + " " + hashC + " A U Thor <a@example.com> 1700000200 -0500\t",
	}, "\r\n")

	got, err := parseStashReflog(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []Stash{
		{Index: 0, Message: "", Hash: hashC},
		{Index: 1, Message: "On topic: second\twith tab", Hash: hashB},
		{Index: 2, Message: "WIP on main: 1234567 first", Hash: hashA},
	}, got)
}

func TestParseStashReflog_SkipsDroppedEntries(t *testing.T) {
	t.Parallel()

	// `git stash drop` of the last entry leaves a line pointing at the null hash.
	zero := strings.Repeat("0", 40)
	got, err := parseStashReflog(strings.NewReader(hashA + " " + zero + " T <t@e> 1 +0000\tdropped\n"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseStashReflog_Invalid(t *testing.T) {
	t.Parallel()

	for _, in := range []string{
		"garbage\n",
		hashA + " xyz T <t@e> 1 +0000\tmsg\n",
	} {
		_, err := parseStashReflog(strings.NewReader(in))
		assert.Error(t, err, "input %q", in)
	}
}

func TestParseStashReflog_ReadError(t *testing.T) {
	t.Parallel()

	_, err := parseStashReflog(failingReader{})
	assert.Error(t, err)
}

func TestReadStashReflog_Missing(t *testing.T) {
	t.Parallel()

	stashes, found, err := readStashReflog(memfs.New())
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, stashes)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("boom")
}
