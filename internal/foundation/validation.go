package foundation

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/docfs/internal/foundation/errors"
)

// Validator checks one value.
type Validator[T any] func(T) ValidationResult

// ValidationResult collects every failure found, not only the first.
type ValidationResult struct {
	Valid  bool
	Errors []FieldError
}

// FieldError is one failed check of one field. Code is stable for callers
// that branch on it; Message is for people.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

func (fe FieldError) Error() string {
	if fe.Field == "" {
		return fe.Message
	}
	return fmt.Sprintf("field '%s': %s", fe.Field, fe.Message)
}

func Valid() ValidationResult { return ValidationResult{Valid: true} }

func Invalid(errs ...FieldError) ValidationResult {
	return ValidationResult{Errors: errs}
}

// NewValidationError builds a FieldError without a value.
func NewValidationError(field, code, message string) FieldError {
	return FieldError{Field: field, Code: code, Message: message}
}

// Combine returns a result holding the failures of both.
func (vr ValidationResult) Combine(other ValidationResult) ValidationResult {
	if vr.Valid && other.Valid {
		return Valid()
	}
	return Invalid(append(append([]FieldError(nil), vr.Errors...), other.Errors...)...)
}

// ToError returns nil for a valid result, otherwise one validation error
// listing every failure. The failing field names are kept as context.
func (vr ValidationResult) ToError() error {
	if vr.Valid {
		return nil
	}
	messages := make([]string, len(vr.Errors))
	fields := make([]string, 0, len(vr.Errors))
	for i, fe := range vr.Errors {
		messages[i] = fe.Error()
		if fe.Field != "" {
			fields = append(fields, fe.Field)
		}
	}
	return errors.ValidationError(strings.Join(messages, "; ")).
		WithContext("fields", fields).
		Build()
}

// ValidatorChain runs validators in order and keeps every failure.
type ValidatorChain[T any] struct {
	validators []Validator[T]
}

func NewValidatorChain[T any](validators ...Validator[T]) *ValidatorChain[T] {
	return &ValidatorChain[T]{validators: validators}
}

func (vc *ValidatorChain[T]) Validate(value T) ValidationResult {
	result := Valid()
	for _, v := range vc.validators {
		result = result.Combine(v(value))
	}
	return result
}

// Field lifts a validator of one field to the struct holding it.
func Field[T, F any](get func(T) F, v Validator[F]) Validator[T] {
	return func(value T) ValidationResult { return v(get(value)) }
}

func Positive(field string) Validator[int] {
	return func(value int) ValidationResult {
		if value > 0 {
			return Valid()
		}
		return Invalid(FieldError{Field: field, Code: "positive", Message: "must be greater than zero", Value: value})
	}
}

// NotEmpty rejects blank strings.
func NotEmpty(field string) Validator[string] {
	return func(value string) ValidationResult {
		if strings.TrimSpace(value) != "" {
			return Valid()
		}
		return Invalid(NewValidationError(field, "required", "is required"))
	}
}

// OneOf accepts only the listed values.
func OneOf[T comparable](field string, allowed []T) Validator[T] {
	set := make(map[T]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	return func(value T) ValidationResult {
		if _, ok := set[value]; ok {
			return Valid()
		}
		return Invalid(FieldError{
			Field:   field,
			Code:    "one_of",
			Message: fmt.Sprintf("must be one of: %v", allowed),
			Value:   value,
		})
	}
}
