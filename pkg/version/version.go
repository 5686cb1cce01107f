// Package version derives the reported application version: an -ldflags
// override when set, otherwise the VCS revision from build info, with
// "dev" as the fallback for test and non-git builds.
package version

import "runtime/debug"

// AppName prefixes version strings in logs and the health endpoint.
const AppName = "reelforge"

// gitCommitOverride is set via -ldflags for container builds where .git
// is unavailable. Empty means no override.
var gitCommitOverride string

// GitCommit is the short (8 char) commit hash, "dev" when build info
// carries no revision.
var GitCommit = initGitCommit()

func initGitCommit() string {
	if gitCommitOverride != "" {
		if len(gitCommitOverride) > 8 {
			return gitCommitOverride[:8]
		}
		return gitCommitOverride
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev"
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			if len(s.Value) > 8 {
				return s.Value[:8]
			}
			return s.Value
		}
	}
	return "dev"
}

// Full returns "reelforge/<commit>".
func Full() string {
	return AppName + "/" + GitCommit
}
