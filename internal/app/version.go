package app

import "fmt"

// Build metadata, injected through -ldflags at release time. The
// defaults cover go-install and source builds.
var (
	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

// SetBuildInfo records the binary's build metadata. Empty values keep
// the defaults.
func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}
}

// BuildVersionString formats the metadata for the version command and
// the root --version flag, abbreviating full commit hashes.
func BuildVersionString() string {
	commit := buildCommit
	if len(commit) > 12 {
		commit = commit[:12]
	}
	return fmt.Sprintf("%s (%s) %s", buildVersion, commit, buildDate)
}
