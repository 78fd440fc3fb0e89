package resultstore

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/quincunx271/nickeltools/internal/bench"
	ferrors "github.com/quincunx271/nickeltools/internal/foundation/errors"
)

// FileStore keeps all results in one JSON document, rewritten on every Put.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by path. The file is created on first Put.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load implements Store. A missing file holds no results.
func (s *FileStore) Load(context.Context) (bench.Results, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileStore) load() (bench.Results, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return bench.Results{}, nil
	}
	if err != nil {
		return nil, ferrors.StoreError("failed to read results").WithCause(err).
			WithContext("path", s.path).Build()
	}
	results := bench.Results{}
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, ferrors.StoreError("failed to decode results").WithCause(err).
			WithContext("path", s.path).Build()
	}
	if results == nil {
		// The document was a JSON null.
		results = bench.Results{}
	}
	return results, nil
}

// Put implements Store.
func (s *FileStore) Put(_ context.Context, set bench.ResultSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	results, err := s.load()
	if err != nil {
		return err
	}
	results.Put(set)
	return s.write(results)
}

// write replaces the file through a temporary sibling so readers never see a
// partial document.
func (s *FileStore) write(results bench.Results) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to encode results").Fatal().Build()
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ferrors.StoreError("failed to create results directory").WithCause(err).Build()
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return ferrors.StoreError("failed to create temporary results file").WithCause(err).Build()
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return ferrors.StoreError("failed to write results").WithCause(err).Build()
	}
	if err := tmp.Close(); err != nil {
		return ferrors.StoreError("failed to write results").WithCause(err).Build()
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return ferrors.StoreError("failed to replace results").WithCause(err).
			WithContext("path", s.path).Build()
	}
	return nil
}

// Close implements Store.
func (s *FileStore) Close() error { return nil }
