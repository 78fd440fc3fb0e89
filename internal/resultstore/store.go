// Package resultstore persists cumulative benchmark results.
package resultstore

import (
	"context"
	"path/filepath"

	"github.com/quincunx271/nickeltools/internal/bench"
	ferrors "github.com/quincunx271/nickeltools/internal/foundation/errors"
)

// Backend kinds accepted by Open.
const (
	KindFile   = "file"
	KindSQLite = "sqlite"
)

// Default file names inside the working directory.
const (
	DefaultFileName   = "bench.results.json"
	DefaultSQLiteName = "bench.results.db"
)

// Store defines the interface for persisting and retrieving result sets.
type Store interface {
	// Load returns every stored result set.
	Load(ctx context.Context) (bench.Results, error)

	// Put stores set under its name and configuration, keeping every other entry.
	Put(ctx context.Context, set bench.ResultSet) error

	// Close releases resources.
	Close() error
}

// Open opens the store of the given kind. An empty file selects the default
// name inside workingDir; a relative file is resolved against workingDir.
func Open(kind, workingDir, file string) (Store, error) {
	path := Path(kind, workingDir, file)
	switch kind {
	case "", KindFile:
		return NewFileStore(path), nil
	case KindSQLite:
		return NewSQLiteStore(path)
	default:
		return nil, ferrors.ConfigError("unknown result store").WithContext("store", kind).Build()
	}
}

// Path returns where Open would place the store.
func Path(kind, workingDir, file string) string {
	if kind == KindSQLite {
		return resolve(workingDir, file, DefaultSQLiteName)
	}
	return resolve(workingDir, file, DefaultFileName)
}

func resolve(workingDir, file, def string) string {
	if file == "" {
		file = def
	}
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(workingDir, file)
}
