package veloxmysql

import (
	"errors"
	"fmt"
	"reflect"
)

// Standard sentinel errors.
var (
	// ErrParameterNotFound is returned when a parameter reference cannot be
	// resolved against the parameter values of the query.
	ErrParameterNotFound = errors.New("veloxmysql: parameter not found")

	// ErrNoTypeMapping is returned in strict mode when a value has no type
	// mapping and cannot be rendered as a SQL literal.
	ErrNoTypeMapping = errors.New("veloxmysql: no type mapping")

	// ErrTranslationFailed is matched by every TranslationError.
	ErrTranslationFailed = errors.New("veloxmysql: translation failed")
)

// TranslationError is returned when an expression cannot be translated to
// SQL for the configured server.
type TranslationError struct {
	Expr    string // Printed form of the offending expression
	Details string // Human readable reason
}

// Error returns the error string.
func (e *TranslationError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("veloxmysql: the expression '%s' could not be translated: %s", e.Expr, e.Details)
	}
	return fmt.Sprintf("veloxmysql: the expression '%s' could not be translated", e.Expr)
}

// Is reports whether the target error matches ErrTranslationFailed.
func (e *TranslationError) Is(err error) bool {
	return err == ErrTranslationFailed
}

// NewTranslationError returns a new TranslationError.
func NewTranslationError(expr, details string) *TranslationError {
	return &TranslationError{Expr: expr, Details: details}
}

// IsTranslationError returns true if the error is a TranslationError.
func IsTranslationError(err error) bool {
	if err == nil {
		return false
	}
	var e *TranslationError
	return errors.As(err, &e)
}

// ParameterNotFoundError is returned when a parameter name is missing from
// the parameter values.
type ParameterNotFoundError struct {
	Name string
}

// Error returns the error string.
func (e *ParameterNotFoundError) Error() string {
	return fmt.Sprintf("veloxmysql: parameter %q not found", e.Name)
}

// Is reports whether the target error matches ErrParameterNotFound.
func (e *ParameterNotFoundError) Is(err error) bool {
	return err == ErrParameterNotFound
}

// NewParameterNotFoundError returns a new ParameterNotFoundError.
func NewParameterNotFoundError(name string) *ParameterNotFoundError {
	return &ParameterNotFoundError{Name: name}
}

// IsParameterNotFound returns true if the error is a ParameterNotFoundError.
func IsParameterNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *ParameterNotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrParameterNotFound)
}

// NoTypeMappingError is returned when no type mapping exists for a Go type.
type NoTypeMappingError struct {
	Type reflect.Type
}

// Error returns the error string.
func (e *NoTypeMappingError) Error() string {
	return fmt.Sprintf("veloxmysql: no type mapping for %v", e.Type)
}

// Is reports whether the target error matches ErrNoTypeMapping.
func (e *NoTypeMappingError) Is(err error) bool {
	return err == ErrNoTypeMapping
}

// NewNoTypeMappingError returns a new NoTypeMappingError.
func NewNoTypeMappingError(t reflect.Type) *NoTypeMappingError {
	return &NoTypeMappingError{Type: t}
}

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

// Error returns the error string.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("veloxmysql: invalid %s (%v): %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("veloxmysql: invalid %s: %s", e.Field, e.Reason)
}

// NewConfigError returns a new ConfigError.
func NewConfigError(field string, value any, reason string) *ConfigError {
	return &ConfigError{Field: field, Value: value, Reason: reason}
}

// IsConfigError returns true if the error is a ConfigError.
func IsConfigError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConfigError
	return errors.As(err, &e)
}
