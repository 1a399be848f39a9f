// Package version exposes build information set via -ldflags.
package version

import "runtime/debug"

//nolint:gochecknoglobals // Set at link time.
var (
	version = "dev"
	commit  = ""
)

// GetVersion returns the release version, falling back to the module
// version recorded in the build info.
func GetVersion() string {
	if version != "dev" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return version
}

// GetCommit returns the VCS revision, or "" when unknown.
func GetCommit() string {
	if commit != "" {
		return commit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return ""
}
