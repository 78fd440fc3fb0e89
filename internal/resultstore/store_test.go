package resultstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quincunx271/nickeltools/internal/bench"
	ferrors "github.com/quincunx271/nickeltools/internal/foundation/errors"
)

func resultSet(name, which, runID string) bench.ResultSet {
	return bench.ResultSet{
		Name:       name,
		Which:      which,
		Results:    []bench.Sample{{M: 16, N: 1, Time: 0.25, Memory: 2048}},
		Baseline:   &bench.Sample{M: 1, Time: 0.125, Memory: 1024},
		RunID:      runID,
		RecordedAt: time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC),
	}
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	empty, err := s.Load(ctx)
	require.NoError(t, err)
	require.Zero(t, empty.Len())

	require.NoError(t, s.Put(ctx, resultSet("named_args", "nickel", "1")))
	require.NoError(t, s.Put(ctx, resultSet("named_args", "std", "2")))
	require.NoError(t, s.Put(ctx, resultSet("overloads", "nickel", "3")))
	require.NoError(t, s.Put(ctx, resultSet("named_args", "nickel", "4")))

	results, err := s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, results.Len())
	got, ok := results.Get("named_args", "nickel")
	require.True(t, ok)
	require.Equal(t, resultSet("named_args", "nickel", "4"), got)
	got, ok = results.Get("named_args", "std")
	require.True(t, ok)
	require.Equal(t, "2", got.RunID)
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(KindFile, dir, "")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	exerciseStore(t, s)
	require.FileExists(t, filepath.Join(dir, DefaultFileName))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temporary files are left behind")
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))

	_, err := NewFileStore(path).Load(context.Background())
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryStore))
}

func TestFileStoreNullDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, os.WriteFile(path, []byte("null\n"), 0o644))
	s := NewFileStore(path)

	results, err := s.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, results)
	require.Zero(t, results.Len())

	require.NoError(t, s.Put(context.Background(), resultSet("named_args", "nickel", "1")))
	results, err = s.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, results.Len())
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)
}

func TestSQLiteStorePersists(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(KindSQLite, dir, "")
	require.NoError(t, err)
	require.NoError(t, s.Put(context.Background(), resultSet("named_args", "nickel", "1")))
	require.NoError(t, s.Close())

	s, err = Open(KindSQLite, dir, filepath.Join(dir, DefaultSQLiteName))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	results, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, results.Len())
}

func TestOpenUnknownKind(t *testing.T) {
	_, err := Open("pickle", t.TempDir(), "")
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestPath(t *testing.T) {
	require.Equal(t, filepath.Join("wd", DefaultFileName), Path(KindFile, "wd", ""))
	require.Equal(t, filepath.Join("wd", "r.db"), Path(KindSQLite, "wd", "r.db"))
	require.Equal(t, "/abs/r.json", Path(KindFile, "wd", "/abs/r.json"))
}
