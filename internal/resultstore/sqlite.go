package resultstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/quincunx271/nickeltools/internal/bench"
	ferrors "github.com/quincunx271/nickeltools/internal/foundation/errors"
)

// SQLiteStore implements Store using SQLite, one row per (name, which).
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (and migrates) the database at dbPath.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, ferrors.StoreError("open sqlite database").WithCause(err).
			WithContext("path", dbPath).Build()
	}
	// A second connection to ":memory:" would see a different database.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, ferrors.StoreError("initialize schema").WithCause(err).Build()
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS result_sets (
		name TEXT NOT NULL,
		which TEXT NOT NULL,
		run_id TEXT,
		recorded_at INTEGER NOT NULL,
		payload BLOB NOT NULL,
		PRIMARY KEY (name, which)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Put implements Store.
func (s *SQLiteStore) Put(ctx context.Context, set bench.ResultSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(set)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "marshal result set").Fatal().Build()
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO result_sets (name, which, run_id, recorded_at, payload) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (name, which) DO UPDATE SET
			run_id = excluded.run_id, recorded_at = excluded.recorded_at, payload = excluded.payload`,
		set.Name, set.Which, set.RunID, set.RecordedAt.Unix(), payload,
	)
	if err != nil {
		return ferrors.StoreError("upsert result set").WithCause(err).
			WithContext("benchmark", set.Name).WithContext("which", set.Which).Build()
	}
	return nil
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context) (bench.Results, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT payload FROM result_sets ORDER BY name, which")
	if err != nil {
		return nil, ferrors.StoreError("query result sets").WithCause(err).Build()
	}
	defer func() { _ = rows.Close() }()

	results := bench.Results{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, ferrors.StoreError("scan result set").WithCause(err).Build()
		}
		var set bench.ResultSet
		if err := json.Unmarshal(payload, &set); err != nil {
			return nil, ferrors.StoreError("unmarshal result set").WithCause(err).Build()
		}
		results.Put(set)
	}
	if err := rows.Err(); err != nil {
		return nil, ferrors.StoreError("iterate result sets").WithCause(err).Build()
	}
	return results, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
