// Package errors classifies the errors docfs returns so callers can branch on
// a category instead of matching messages.
//
// A ClassifiedError carries a category, a severity, the wrapped cause and
// structured context. Sentinel causes stay reachable through errors.Is:
//
//	err := errors.WrapError(buildfs.ErrNotFound, errors.CategoryNotFound, "cannot resolve ~/a.md").
//		WithContext("path", "~/a.md").
//		Build()
//
// The CLI adapter turns categories into exit codes.
package errors
