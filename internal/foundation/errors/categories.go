package errors

import (
	"log/slog"
	"maps"
	"slices"
)

// ErrorCategory is the broad class of an error. The CLI maps it to an exit code.
type ErrorCategory string

const (
	// CategoryConfig covers the project file and command-line input.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryNotFound   ErrorCategory = "not_found"

	// CategoryUnsupported marks operations the configured layer cannot perform,
	// such as writing through a read-only layer.
	CategoryUnsupported ErrorCategory = "unsupported"
	CategoryDisposed    ErrorCategory = "disposed"

	CategoryFileSystem ErrorCategory = "filesystem"
	// CategoryManifest means outputs were declared or written inconsistently.
	CategoryManifest ErrorCategory = "manifest"
	CategoryCache    ErrorCategory = "cache"

	// CategoryInternal is reported for errors nobody classified.
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates the impact level of an error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // stops the command
	SeverityError   ErrorSeverity = "error"   // fails the current operation
	SeverityWarning ErrorSeverity = "warning" // the build goes on without the feature
	SeverityInfo    ErrorSeverity = "info"
)

// ErrorContext is structured detail attached to an error, such as the path involved.
type ErrorContext map[string]any

// Set adds or updates a context value.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	c[key] = value
	return c
}

// Get retrieves a context value.
func (c ErrorContext) Get(key string) (any, bool) {
	value, exists := c[key]
	return value, exists
}

// GetString retrieves a string context value.
func (c ErrorContext) GetString(key string) (string, bool) {
	if value, exists := c.Get(key); exists {
		if str, ok := value.(string); ok {
			return str, true
		}
	}
	return "", false
}

// Attrs returns the context as log attributes ordered by key.
func (c ErrorContext) Attrs() []slog.Attr {
	keys := slices.Sorted(maps.Keys(c))
	attrs := make([]slog.Attr, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, c[k]))
	}
	return attrs
}
