package errors

import (
	"bytes"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

// customError is a test helper for unclassified errors
type customError struct {
	msg string
}

func (e *customError) Error() string {
	return e.msg
}

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, 0},
		{"validation", NewError(CategoryValidation, "invalid input").Build(), 2},
		{"not found", NotFoundError("missing").Build(), 3},
		{"write through read-only layer", NewError(CategoryUnsupported, "no writer").Build(), 4},
		{"disposed layer", NewError(CategoryDisposed, "closed").Build(), 4},
		{"manifest entry missing", ManifestError("no entry").Build(), 7},
		{"wrapped filesystem error", fmt.Errorf("dereference: %w", NewError(CategoryFileSystem, "copy failed").Build()), 11},
		{"classified internal", NewError(CategoryInternal, "bug").Build(), 10},
		{"unclassified error", &customError{msg: "unknown error"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil error", nil, ""},
		{"internal error hides detail", NewError(CategoryInternal, "internal issue").Build(), "Internal error occurred (use -v for details)"},
		{"config error shows message", ConfigError("bad config").Build(), "Error: bad config"},
		{"wrapped cause is shown", WrapError(&customError{msg: "permission denied"}, CategoryFileSystem, "create ~/a.md").Build(), "Error: create ~/a.md: permission denied"},
		{"unclassified error", &customError{msg: "unknown error"}, "Error: unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, adapter.FormatError(tt.err))
		})
	}

	verbose := NewCLIErrorAdapter(true, slog.Default())
	assert.Equal(t, "[internal] internal issue", verbose.FormatError(NewError(CategoryInternal, "internal issue").Build()))
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var logs, stderr bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	adapter.stderr = &stderr
	code := -1
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(nil)
	assert.Equal(t, -1, code, "nil errors do not exit")

	adapter.HandleError(ManifestError("output not declared").WithContext("path", "~/a.md").Build())
	assert.Equal(t, 7, code)
	assert.Equal(t, "Error: output not declared\n", stderr.String())
	assert.Contains(t, logs.String(), "category=manifest")
	assert.Contains(t, logs.String(), "path=~/a.md")

	logs.Reset()
	adapter.HandleError(CacheError("store unreadable").Build())
	assert.Equal(t, 11, code)
	assert.Empty(t, logs.String(), "non-fatal errors are only printed")
}
