package logfields

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"Benchmark", KeyBenchmark, "kwargs", Benchmark("kwargs")},
		{"Which", KeyWhich, "nickel", Which("nickel")},
		{"Target", KeyTarget, "bench-compile", Target("bench-compile")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"File", KeyFile, "a.bench", File("a.bench")},
		{"Version", KeyVersion, "0.0.3", Version("0.0.3")},
		{"Reference", KeyReference, "nickel/0.1@u/stable", Reference("nickel/0.1@u/stable")},
		{"RunID", KeyRunID, "abc", RunID("abc")},
		{"Store", KeyStore, "sqlite", Store("sqlite")},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.attrKey, c.attr.Key)
			require.Equal(t, c.attrVal, c.attr.Value.String())
		})
	}
}

func TestNumericHelpers(t *testing.T) {
	require.Equal(t, int64(16), N(16).Value.Int64())
	require.Equal(t, int64(200), M(200).Value.Int64())
	require.InDelta(t, 1500.0, Duration(1500*time.Millisecond).Value.Float64(), 1e-9)
}

func TestErrorHelper(t *testing.T) {
	require.Equal(t, "", Error(nil).Value.String())
	require.Equal(t, "boom", Error(errors.New("boom")).Value.String())
}
