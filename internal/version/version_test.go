package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	prevVersion, prevCommit, prevTime := Version, GitCommit, BuildTime
	t.Cleanup(func() { Version, GitCommit, BuildTime = prevVersion, prevCommit, prevTime })

	Version, GitCommit, BuildTime = "v0.1.0", "unknown", "unknown"
	require.Equal(t, "v0.1.0", String())

	GitCommit, BuildTime = "abc123", "2026-10-15"
	require.Equal(t, "v0.1.0 (commit abc123, built 2026-10-15)", String())
}
