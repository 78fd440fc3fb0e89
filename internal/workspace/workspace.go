package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/quincunx271/nickeltools/internal/logfields"
)

// Manager handles workspace operations (both temporary and persistent)
type Manager struct {
	baseDir    string
	purpose    string
	dir        string
	persistent bool
}

// NewManager creates a manager for an ephemeral directory under baseDir
// (os.TempDir() when empty). purpose becomes part of the directory name.
func NewManager(baseDir, purpose string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if purpose == "" {
		purpose = "build"
	}
	return &Manager{baseDir: baseDir, purpose: purpose}
}

// NewPersistentManager uses dir as the workspace and never removes it.
func NewPersistentManager(dir string) *Manager {
	return &Manager{dir: dir, persistent: true}
}

// Create creates the workspace directory.
func (m *Manager) Create() error {
	if m.persistent {
		if err := os.MkdirAll(m.dir, 0o750); err != nil {
			return fmt.Errorf("failed to create persistent workspace directory: %w", err)
		}
		slog.Debug("Using persistent workspace", logfields.Path(m.dir))
		return nil
	}

	if err := os.MkdirAll(m.baseDir, 0o750); err != nil {
		return fmt.Errorf("failed to create workspace base directory: %w", err)
	}
	dir, err := os.MkdirTemp(m.baseDir, "nickeltools-"+m.purpose+"-*")
	if err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}
	m.dir = dir
	slog.Debug("Created workspace", logfields.Path(dir))
	return nil
}

// Path returns the workspace directory; empty before Create.
func (m *Manager) Path() string {
	return m.dir
}

// Cleanup removes an ephemeral workspace. Persistent workspaces are kept.
func (m *Manager) Cleanup() error {
	if m.dir == "" || m.persistent {
		return nil
	}
	if err := os.RemoveAll(m.dir); err != nil {
		return fmt.Errorf("failed to cleanup workspace: %w", err)
	}
	slog.Debug("Cleaned up workspace", logfields.Path(m.dir))
	m.dir = ""
	return nil
}

// Subdir creates and returns a subdirectory within the workspace.
func (m *Manager) Subdir(name string) (string, error) {
	if m.dir == "" {
		return "", fmt.Errorf("workspace not created")
	}
	sub := filepath.Join(m.dir, name)
	if err := os.MkdirAll(sub, 0o750); err != nil {
		return "", fmt.Errorf("failed to create subdirectory: %w", err)
	}
	return sub, nil
}
