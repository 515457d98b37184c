// Package buildinfo reports what the running binary was built from.
package buildinfo

import (
	"runtime/debug"
	"strings"
)

var readBuildInfo = debug.ReadBuildInfo

// Version returns the module version or "dev" when unset.
func Version() string {
	info, ok := readBuildInfo()
	if !ok || info == nil {
		return "dev"
	}
	version := info.Main.Version
	if version == "" || version == "(devel)" {
		return "dev"
	}
	return version
}

func setting(key string) string {
	info, ok := readBuildInfo()
	if !ok || info == nil {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}

// Revision returns the short VCS revision, suffixed with "-dirty" for builds
// from a modified tree.
func Revision() string {
	rev := setting("vcs.revision")
	if rev == "" {
		return ""
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if setting("vcs.modified") == "true" {
		rev += "-dirty"
	}
	return rev
}

// String combines the version with the revision and build tags when known,
// e.g. "v0.3.0 (rev 0123456789ab, tags: netgo)".
func String() string {
	var extra []string
	if rev := Revision(); rev != "" {
		extra = append(extra, "rev "+rev)
	}
	if tags := setting("-tags"); tags != "" {
		extra = append(extra, "tags: "+tags)
	}
	if len(extra) == 0 {
		return Version()
	}
	return Version() + " (" + strings.Join(extra, ", ") + ")"
}
