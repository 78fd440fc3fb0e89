package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBenchmark  = "benchmark"
	KeyWhich      = "which"
	KeyN          = "n"
	KeyM          = "m"
	KeyTarget     = "target"
	KeyCommand    = "command"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyVersion    = "version"
	KeyReference  = "reference"
	KeyRunID      = "run_id"
	KeyDurationMS = "duration_ms"
	KeyStore      = "store"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Benchmark(name string) slog.Attr { return slog.String(KeyBenchmark, name) }
func Which(which string) slog.Attr    { return slog.String(KeyWhich, which) }
func N(n int) slog.Attr               { return slog.Int(KeyN, n) }
func M(m int) slog.Attr               { return slog.Int(KeyM, m) }
func Target(t string) slog.Attr       { return slog.String(KeyTarget, t) }
func Command(argv []string) slog.Attr { return slog.Any(KeyCommand, argv) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Version(v string) slog.Attr      { return slog.String(KeyVersion, v) }
func Reference(r string) slog.Attr    { return slog.String(KeyReference, r) }
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Store(kind string) slog.Attr     { return slog.String(KeyStore, kind) }
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
