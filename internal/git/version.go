package git

import (
	"fmt"

	gitbackend "github.com/thiagokokada/stashtree/internal/git/backend"
)

// GitVersionSummary describes the git executable found in PATH, for the
// version command. The native backend does not need git at all.
func GitVersionSummary() string {
	out, err := gitbackend.GitVersion()
	if err != nil {
		return fmt.Sprintf("git: not available (%v); gitcli backend needs >= %s", err, gitbackend.MinGitVersion())
	}
	return fmt.Sprintf("%s (gitcli backend needs >= %s)", out, gitbackend.MinGitVersion())
}
