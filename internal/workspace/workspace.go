package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docfs/internal/logfields"
)

// Manager handles one staging folder, ephemeral or persistent.
type Manager struct {
	baseDir    string
	dir        string
	persistent bool
	logger     *slog.Logger
}

// NewManager creates a manager for an ephemeral folder under baseDir
// (the system temp folder when empty).
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir, logger: slog.Default()}
}

// NewPersistentManager creates a manager for the fixed folder dir, which Cleanup keeps.
func NewPersistentManager(dir string) *Manager {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "docfs-stage")
	}
	return &Manager{baseDir: filepath.Dir(dir), dir: dir, persistent: true, logger: slog.Default()}
}

// WithLogger sets a custom logger.
func (m *Manager) WithLogger(logger *slog.Logger) *Manager {
	m.logger = logger
	return m
}

// Create makes the staging folder.
func (m *Manager) Create() error {
	if m.persistent {
		if err := os.MkdirAll(m.dir, 0o750); err != nil {
			return fmt.Errorf("failed to create persistent staging directory: %w", err)
		}
		m.logger.Debug("Using persistent staging directory", logfields.Path(m.dir))
		return nil
	}

	name := fmt.Sprintf("docfs-stage-%s-%s", time.Now().Format("20060102-150405"), uuid.NewString()[:8])
	dir := filepath.Join(m.baseDir, name)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	m.dir = dir
	m.logger.Debug("Created staging directory", logfields.Path(dir))
	return nil
}

// Path returns the staging folder, empty before Create in ephemeral mode.
func (m *Manager) Path() string {
	return m.dir
}

// Persistent reports whether Cleanup keeps the folder.
func (m *Manager) Persistent() bool { return m.persistent }

// Cleanup removes an ephemeral folder. Persistent folders are kept.
func (m *Manager) Cleanup() error {
	if m.dir == "" {
		return nil
	}
	if m.persistent {
		m.logger.Debug("Keeping persistent staging directory", logfields.Path(m.dir))
		return nil
	}
	if err := os.RemoveAll(m.dir); err != nil {
		return fmt.Errorf("failed to clean up staging directory: %w", err)
	}
	m.logger.Debug("Removed staging directory", logfields.Path(m.dir))
	m.dir = ""
	return nil
}

// CreateSubdir creates a folder within the staging folder.
func (m *Manager) CreateSubdir(name string) (string, error) {
	if m.dir == "" {
		return "", fmt.Errorf("staging directory not created")
	}
	subdir := filepath.Join(m.dir, name)
	if err := os.MkdirAll(subdir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create subdirectory: %w", err)
	}
	return subdir, nil
}
