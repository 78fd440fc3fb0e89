// Package version holds build metadata injected with -ldflags:
//
//	go build -ldflags "-X github.com/quincunx271/nickeltools/internal/version.Version=v0.1.0" ./cmd/nickeltools
package version

import "fmt"

// Version is the release of the nickeltools binary.
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the --version output.
func String() string {
	if GitCommit == "unknown" && BuildTime == "unknown" {
		return Version
	}
	return fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
