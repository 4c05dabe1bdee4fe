// Package errors defines the typed errors returned by lsr. Each carries an
// ErrorType so callers (the CLI, the MCP tools) can classify failures
// without matching on message text.
package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
)

// ErrorType classifies an error.
type ErrorType string

const (
	ErrorTypePattern ErrorType = "pattern"
	ErrorTypeReplace ErrorType = "replace"

	ErrorTypeFileNotFound ErrorType = "file_not_found"
	ErrorTypePermission   ErrorType = "permission"
	ErrorTypeEncoding     ErrorType = "encoding"
	ErrorTypeFileIO       ErrorType = "file_io"

	ErrorTypeConfig ErrorType = "config"
)

// PatternError reports an expression that cannot be turned into a usable
// regular expression. It is keyed to the expression text the user typed.
type PatternError struct {
	Type       ErrorType
	Expr       string
	MatchType  string
	Underlying error
}

func NewPatternError(expr, matchType string, err error) *PatternError {
	return &PatternError{Type: ErrorTypePattern, Expr: expr, MatchType: matchType, Underlying: err}
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid %s pattern %q: %v", e.MatchType, e.Expr, e.Underlying)
}

func (e *PatternError) Unwrap() error { return e.Underlying }

// ReplaceConflictError is returned when a file changed between the search
// that located the matches and the replacement that rewrites them.
type ReplaceConflictError struct {
	Type     ErrorType
	Path     string
	Expected uint64
	Actual   uint64
}

func NewReplaceConflictError(path string, expected, actual uint64) *ReplaceConflictError {
	return &ReplaceConflictError{Type: ErrorTypeReplace, Path: path, Expected: expected, Actual: actual}
}

func (e *ReplaceConflictError) Error() string {
	return fmt.Sprintf("replace aborted for %s: content changed since search (fingerprint %016x, now %016x)",
		e.Path, e.Expected, e.Actual)
}

// FileError is a failure to stat, read, decode or write one file.
type FileError struct {
	Type       ErrorType
	Path       string
	Operation  string
	Underlying error
}

// NewFileError classifies err from the fs sentinel it wraps. Use WithType
// for failures the sentinels do not cover, such as decoding.
func NewFileError(op, path string, err error) *FileError {
	return &FileError{Type: classifyFileError(err), Path: path, Operation: op, Underlying: err}
}

// WithType overrides the classified type.
func (e *FileError) WithType(t ErrorType) *FileError {
	e.Type = t
	return e
}

func classifyFileError(err error) ErrorType {
	switch {
	case stderrors.Is(err, fs.ErrPermission):
		return ErrorTypePermission
	case stderrors.Is(err, fs.ErrNotExist):
		return ErrorTypeFileNotFound
	default:
		return ErrorTypeFileIO
	}
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Operation, e.Path, e.Underlying)
}

func (e *FileError) Unwrap() error { return e.Underlying }

// ConfigError names the configuration field holding a bad value.
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
}

func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{Field: field, Value: value, Underlying: err}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s = %q: %v", e.Field, e.Value, e.Underlying)
}

func (e *ConfigError) Unwrap() error { return e.Underlying }

// MultiError collects the failures of a batch, such as one per file of a
// replace run.
type MultiError struct {
	Errors []error
}

// NewMultiError drops nil entries from errs.
func NewMultiError(errs []error) *MultiError {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

// ErrorOrNil returns nil when nothing was collected, so a *MultiError is
// never returned as a non-nil empty error.
func (e *MultiError) ErrorOrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

func (e *MultiError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors, first: %v", len(e.Errors), e.Errors[0])
}

func (e *MultiError) Unwrap() []error { return e.Errors }
