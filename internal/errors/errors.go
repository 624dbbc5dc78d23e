package errors

import (
	"errors"
	"fmt"
	"time"
)

// Error types for the snippet gate
type ErrorType string

const (
	// Input errors
	ErrorTypeEmptyInput   ErrorType = "empty_input"
	ErrorTypeInvalidInput ErrorType = "invalid_input"

	// File errors
	ErrorTypeFileNotFound ErrorType = "file_not_found"
	ErrorTypePermission   ErrorType = "permission"

	// Configuration errors
	ErrorTypeConfig ErrorType = "config"

	// Catalog errors
	ErrorTypeCatalog ErrorType = "catalog"
)

// Sentinels for errors.Is checks against the typed errors below.
var (
	ErrEmptyInput   = errors.New("no source text to analyze")
	ErrInvalidInput = errors.New("source text is not a valid compilation unit")
)

// EmptyInputError is returned when the source text is missing or blank.
// It is raised before any parsing is attempted.
type EmptyInputError struct {
	Type      ErrorType
	Source    string
	Timestamp time.Time
}

// NewEmptyInputError creates an empty input error. source names where the
// text came from (a file path, "stdin", a tool argument) and may be empty.
func NewEmptyInputError(source string) *EmptyInputError {
	return &EmptyInputError{
		Type:      ErrorTypeEmptyInput,
		Source:    source,
		Timestamp: time.Now(),
	}
}

// Error implements the error interface
func (e *EmptyInputError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s: %v", e.Source, ErrEmptyInput)
	}
	return ErrEmptyInput.Error()
}

// Unwrap returns the sentinel so errors.Is(err, ErrEmptyInput) holds
func (e *EmptyInputError) Unwrap() error {
	return ErrEmptyInput
}

// InvalidInputError represents source text that failed to produce a usable
// parsed unit. Line and Column are 1-based and point at the first syntax error.
type InvalidInputError struct {
	Type       ErrorType
	Source     string
	Line       int
	Column     int
	Token      string
	Underlying error
	Timestamp  time.Time
}

// NewInvalidInputError creates a new invalid input error
func NewInvalidInputError(line, column int, token string, err error) *InvalidInputError {
	return &InvalidInputError{
		Type:       ErrorTypeInvalidInput,
		Line:       line,
		Column:     column,
		Token:      token,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// WithSource adds the origin of the source text to the error
func (e *InvalidInputError) WithSource(source string) *InvalidInputError {
	e.Source = source
	return e
}

// Error implements the error interface
func (e *InvalidInputError) Error() string {
	where := fmt.Sprintf("%d:%d", e.Line, e.Column)
	if e.Source != "" {
		where = e.Source + ":" + where
	}
	cause := e.Underlying
	if cause == nil {
		cause = ErrInvalidInput
	}
	if e.Token != "" {
		return fmt.Sprintf("invalid input at %s (near token %q): %v", where, e.Token, cause)
	}
	return fmt.Sprintf("invalid input at %s: %v", where, cause)
}

// Unwrap returns the underlying error
func (e *InvalidInputError) Unwrap() []error {
	if e.Underlying == nil {
		return []error{ErrInvalidInput}
	}
	return []error{ErrInvalidInput, e.Underlying}
}

// FileError represents a file-related error
type FileError struct {
	Type       ErrorType
	Path       string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewFileError creates a new file error
func NewFileError(op, path string, err error) *FileError {
	errorType := ErrorTypeFileNotFound
	if isPermissionError(err) {
		errorType = ErrorTypePermission
	}

	return &FileError{
		Type:       errorType,
		Path:       path,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// isPermissionError checks if the error is a permission error
func isPermissionError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return errStr == "permission denied" || errStr == "access denied"
}

// Error implements the error interface
func (e *FileError) Error() string {
	return fmt.Sprintf("file %s failed for %s: %v", e.Operation, e.Path, e.Underlying)
}

// Unwrap returns the underlying error
func (e *FileError) Unwrap() error {
	return e.Underlying
}

// ConfigError represents a configuration error
type ConfigError struct {
	Type       ErrorType
	Path       string
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Type:       ErrorTypeConfig,
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// WithPath records which config file the error came from
func (e *ConfigError) WithPath(path string) *ConfigError {
	e.Path = path
	return e
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	prefix := "config error"
	if e.Path != "" {
		prefix = "config error in " + e.Path
	}
	if e.Value != "" {
		return fmt.Sprintf("%s for field %s (value %s): %v", prefix, e.Field, e.Value, e.Underlying)
	}
	return fmt.Sprintf("%s for field %s: %v", prefix, e.Field, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// CatalogError is returned when a reference catalog cannot be loaded
type CatalogError struct {
	Type       ErrorType
	Name       string
	Underlying error
	Timestamp  time.Time
}

// NewCatalogError creates a new catalog error
func NewCatalogError(name string, err error) *CatalogError {
	return &CatalogError{
		Type:       ErrorTypeCatalog,
		Name:       name,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *CatalogError) Error() string {
	return fmt.Sprintf("catalog %s: %v", e.Name, e.Underlying)
}

// Unwrap returns the underlying error
func (e *CatalogError) Unwrap() error {
	return e.Underlying
}

// MultiError represents multiple errors
type MultiError struct {
	Errors []error
}

// NewMultiError creates a new multi-error
func NewMultiError(errs []error) *MultiError {
	// Filter out nil errors
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

// Error implements the error interface
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

// Unwrap returns all errors
func (e *MultiError) Unwrap() []error {
	return e.Errors
}

// IsInputError reports whether err is an empty or invalid input error.
// Both stop an analysis before any report is produced.
func IsInputError(err error) bool {
	return errors.Is(err, ErrEmptyInput) || errors.Is(err, ErrInvalidInput)
}
