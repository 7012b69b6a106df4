// Package model provides the domain model of tldr: column type descriptors,
// file directives, file type detection and the error taxonomy.
package model

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every failure returned by the loading pipeline matches exactly one of them.
var (
	// ErrParse indicates that a DSL program is malformed
	ErrParse = errors.New("tldr: parse error")

	// ErrFileNotFound indicates that a declared file does not exist
	ErrFileNotFound = errors.New("tldr: file not found")

	// ErrSchemaInference indicates that the schema of a file could not be inferred
	ErrSchemaInference = errors.New("tldr: could not infer schema")

	// ErrSchemaMergeConflict indicates that a declared column type cannot replace the inferred one
	ErrSchemaMergeConflict = errors.New("tldr: could not merge schemas")

	// ErrFileRead indicates that the rows of a file could not be read against the resolved schema
	ErrFileRead = errors.New("tldr: could not read file")

	// ErrTableRegistration indicates that the query engine refused a table
	ErrTableRegistration = errors.New("tldr: could not register table")

	// ErrDuplicateColumnName is returned when a file contains duplicate column names
	ErrDuplicateColumnName = errors.New("duplicate column name")
)

// LoadError is a failure of one directive, carrying its kind and location.
type LoadError struct {
	// Op is the pipeline step that failed.
	Op string
	// Kind is one of the package error kinds.
	Kind error
	// Path is the declared file path.
	Path string
	// Table is the target table name, if known.
	Table string
	// Column is the offending column, if any.
	Column string
	// Details is a free form description.
	Details string
	// Err is the underlying cause. It may be nil.
	Err error
}

// Error implements error.
func (e *LoadError) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("%s: %s failed", e.Kind, e.Op))

	if e.Path != "" {
		parts = append(parts, "file: "+e.Path)
	}
	if e.Table != "" {
		parts = append(parts, "table: "+e.Table)
	}
	if e.Column != "" {
		parts = append(parts, "column: "+e.Column)
	}
	if e.Details != "" {
		parts = append(parts, "details: "+e.Details)
	}

	msg := strings.Join(parts, ", ")
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the kind and the cause so that errors.Is matches either.
func (e *LoadError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// ErrorContext provides context for where an error occurred
type ErrorContext struct {
	Operation string
	FilePath  string
	TableName string
	Column    string
	Details   string
}

// NewErrorContext creates a new error context
func NewErrorContext(operation, filePath string) *ErrorContext {
	return &ErrorContext{
		Operation: operation,
		FilePath:  filePath,
	}
}

// WithTable adds table context to the error
func (ec *ErrorContext) WithTable(tableName string) *ErrorContext {
	ec.TableName = tableName
	return ec
}

// WithColumn adds column context to the error
func (ec *ErrorContext) WithColumn(column string) *ErrorContext {
	ec.Column = column
	return ec
}

// WithDetails adds details to the error context
func (ec *ErrorContext) WithDetails(details string) *ErrorContext {
	ec.Details = details
	return ec
}

// Error creates a LoadError of the given kind wrapping cause.
func (ec *ErrorContext) Error(kind, cause error) *LoadError {
	return &LoadError{
		Op:      ec.Operation,
		Kind:    kind,
		Path:    ec.FilePath,
		Table:   ec.TableName,
		Column:  ec.Column,
		Details: ec.Details,
		Err:     cause,
	}
}
