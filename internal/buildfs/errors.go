package buildfs

import (
	"errors"
	"fmt"

	ferrors "git.home.luguber.info/inful/docfs/internal/foundation/errors"
	"git.home.luguber.info/inful/docfs/internal/fspath"
)

var (
	// ErrNotFound is the cause of every "logical path cannot be resolved" error.
	ErrNotFound = errors.New("file not found")
	// ErrDisposed is the cause of every error returned after Close.
	ErrDisposed = errors.New("file layer is disposed")
	// ErrUnsupported is returned when a write is attempted without a writer.
	ErrUnsupported = errors.New("operation not supported")
	// ErrMissingManifestEntry means an output was written that the manifest never declared.
	ErrMissingManifestEntry = errors.New("no manifest entry for output")
)

// errDisposed is shared so that every method fails identically after Close.
var errDisposed = ferrors.WrapError(ErrDisposed, ferrors.CategoryDisposed, "file layer is disposed").Build()

func notFound(p fspath.LogicalPath) error {
	return ferrors.WrapError(ErrNotFound, ferrors.CategoryNotFound, fmt.Sprintf("cannot resolve %s", p)).
		WithContext("path", p.String()).
		Build()
}

func unsupported(op string) error {
	return ferrors.WrapError(ErrUnsupported, ferrors.CategoryUnsupported, fmt.Sprintf("%s requires a writer", op)).
		WithContext("op", op).
		Build()
}

func invalidPath(raw fspath.LogicalPath, err error) error {
	return ferrors.WrapError(err, ferrors.CategoryValidation, fmt.Sprintf("invalid logical path %q", raw.String())).
		WithContext("path", raw.String()).
		Build()
}

func missingEntry(p fspath.LogicalPath, cause error) error {
	return ferrors.WrapError(fmt.Errorf("%w: %w", ErrMissingManifestEntry, cause), ferrors.CategoryManifest,
		fmt.Sprintf("output %s is not declared in the manifest", p)).
		WithContext("path", p.String()).
		Build()
}

func fsError(op string, physical string, err error) error {
	return ferrors.WrapError(err, ferrors.CategoryFileSystem, op+" failed").
		WithContext("physical_path", physical).
		Build()
}
