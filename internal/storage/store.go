// Package storage persists small JSON documents, such as incremental build
// cache stores, so that they survive across process invocations.
package storage

import (
	"context"
	"errors"
)

// DocumentStore loads and saves one serialized document.
type DocumentStore interface {
	// Load decodes the stored document into v.
	// Returns ErrNotFound if nothing has been saved yet.
	Load(ctx context.Context, v any) error

	// Save replaces the stored document with v.
	Save(ctx context.Context, v any) error

	// Path identifies the document; for file stores it is the file path.
	Path() string
}

// ErrNotFound is returned when a store holds no document.
var ErrNotFound = errors.New("document not found")

// IsNotFound returns true if err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
