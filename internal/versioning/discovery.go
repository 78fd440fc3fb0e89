package versioning

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	ferrors "github.com/quincunx271/nickeltools/internal/foundation/errors"
	"github.com/quincunx271/nickeltools/internal/logfields"
)

// ScanOptions controls which directories count as published versions.
type ScanOptions struct {
	// SkipInvalid logs and ignores directories that are not semantic versions
	// instead of failing the scan.
	SkipInvalid bool
}

// Scan lists the published documentation versions under dir: every
// subdirectory except "main" and hidden ones such as ".git".
func Scan(dir string, opts ScanOptions) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, ferrors.FileSystemError("failed to read published versions").WithCause(err).
			Fatal().WithContext("path", dir).Build()
	}

	var versions []string
	for _, e := range entries {
		name := e.Name()
		if name == MainValue || strings.HasPrefix(name, ".") || !isDir(dir, e) {
			continue
		}
		if _, err := semver.StrictNewVersion(name); err != nil {
			if opts.SkipInvalid {
				slog.Warn("Skipping non-version directory", logfields.Path(name), logfields.Error(err))
				continue
			}
			return nil, ferrors.WrapError(err, ferrors.CategoryValidation, "directory is not a semantic version").
				Fatal().WithContext("directory", name).Build()
		}
		versions = append(versions, name)
	}
	return versions, nil
}

// isDir reports whether e is a directory, following symlinks.
func isDir(dir string, e os.DirEntry) bool {
	if e.Type()&os.ModeSymlink == 0 {
		return e.IsDir()
	}
	info, err := os.Stat(filepath.Join(dir, e.Name()))
	return err == nil && info.IsDir()
}

// SortDescending orders semantic versions newest first. Names that do not parse
// sort after every valid version, in reverse lexical order.
func SortDescending(versions []string) []string {
	sorted := append([]string(nil), versions...)
	parsed := make(map[string]*semver.Version, len(sorted))
	for _, v := range sorted {
		if sv, err := semver.StrictNewVersion(v); err == nil {
			parsed[v] = sv
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := parsed[sorted[i]], parsed[sorted[j]]
		switch {
		case a != nil && b != nil:
			return a.GreaterThan(b)
		case a != nil:
			return true
		case b != nil:
			return false
		default:
			return sorted[i] > sorted[j]
		}
	})
	return sorted
}

// Order builds the selector entries: main first, then a "latest" alias of the
// highest version, then every version newest first.
func Order(published []string) []Entry {
	sorted := SortDescending(published)
	entries := make([]Entry, 0, len(sorted)+2)
	entries = append(entries, Entry{Value: MainValue, Label: MainLabel})
	if len(sorted) > 0 {
		entries = append(entries, Entry{Value: sorted[0], Label: LatestLabel})
	}
	for _, v := range sorted {
		entries = append(entries, Entry{Value: v, Label: v})
	}
	return entries
}

// Latest returns the version the "latest" alias points at.
func Latest(entries []Entry) (string, bool) {
	for _, e := range entries {
		if e.Label == LatestLabel {
			return e.Value, true
		}
	}
	return "", false
}
