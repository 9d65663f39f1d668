package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

const lockRetryDelay = 20 * time.Millisecond

// FSStore keeps one JSON document in a file.
//
//	<dir>/
//	  <name>.json       the document
//	  <name>.json.lock  advisory lock shared with other processes
//
// Saves write a uniquely named temporary file next to the document and
// rename it into place, so readers never observe a partial write.
type FSStore struct {
	path string
	lock *flock.Flock
}

// NewFSStore creates a store for the document at path. Nothing is touched on
// disk until the first Load or Save.
func NewFSStore(path string) *FSStore {
	return &FSStore{path: path, lock: flock.New(path + ".lock")}
}

// Path returns the document path.
func (s *FSStore) Path() string { return s.path }

// Load decodes the document into v under a shared lock.
func (s *FSStore) Load(ctx context.Context, v any) error {
	if _, err := os.Stat(s.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, s.path)
		}
		return fmt.Errorf("stat document: %w", err)
	}

	locked, err := s.lock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock document: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock document: %s is busy", s.path)
	}
	defer func() { _ = s.lock.Unlock() }()

	// #nosec G304 - path is derived from the project location by the caller
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, s.path)
		}
		return fmt.Errorf("read document: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal document: %w", err)
	}
	return nil
}

// Save encodes v and atomically replaces the document under an exclusive lock.
func (s *FSStore) Save(ctx context.Context, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock document: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock document: %s is busy", s.path)
	}
	defer func() { _ = s.lock.Unlock() }()

	tmp := filepath.Join(dir, "."+filepath.Base(s.path)+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace document: %w", err)
	}
	return nil
}
