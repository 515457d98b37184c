package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGitVersionOutput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want gitVersion
		ok   bool
	}{
		{name: "empty", in: "", ok: false},
		{name: "plain", in: "git version 2.44.0\n", want: gitVersion{major: 2, minor: 44, patch: 0}, ok: true},
		{name: "apple_git", in: "git version 2.39.3 (Apple Git-146)\n", want: gitVersion{major: 2, minor: 39, patch: 3}, ok: true},
		{name: "windows_suffix", in: "git version 2.39.3.windows.1\n", want: gitVersion{major: 2, minor: 39, patch: 3}, ok: true},
		{name: "no_prefix", in: "2.42.1\n", want: gitVersion{major: 2, minor: 42, patch: 1}, ok: true},
		{name: "no_patch", in: "git version 2.42\n", want: gitVersion{major: 2, minor: 42, patch: 0}, ok: true},
		{name: "major_only", in: "git version 3\n", ok: false},
		{name: "invalid", in: "git version not-a-version\n", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := parseGitVersionOutput(tt.in)
			require.Equal(t, tt.ok, ok, "got %+v", got)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestValidateGitVersionOutput(t *testing.T) {
	old := minGitVersion
	t.Cleanup(func() { minGitVersion = old })
	minGitVersion = gitVersion{major: 2, minor: 20, patch: 0}

	assert.NoError(t, validateGitVersionOutput("git version 2.20.0\n"))
	assert.Error(t, validateGitVersionOutput("git version 2.19.9\n"), "old git")
	assert.Error(t, validateGitVersionOutput("garbage"), "unparsable output")
}
