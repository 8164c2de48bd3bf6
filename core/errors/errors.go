// Package errors provides standardized error types and helpers for the Kindling codebase.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the error kinds surfaced by the core engines.
var (
	// ErrNotFound indicates a row or resource was not found
	ErrNotFound = errors.New("not found")
	// ErrIO indicates a file or directory level failure
	ErrIO = errors.New("io error")
	// ErrParse indicates malformed input (JSON, XML, YAML)
	ErrParse = errors.New("parse error")
	// ErrInvalidStructure indicates well-formed input missing required fields
	ErrInvalidStructure = errors.New("invalid structure")
	// ErrDB indicates a SQL statement or transaction failure
	ErrDB = errors.New("database error")
	// ErrEncoding indicates an unrecognized text encoding
	ErrEncoding = errors.New("encoding error")
	// ErrCorrupt indicates a snapshot archive that fails to decode
	ErrCorrupt = errors.New("corrupt archive")
)

// NotFoundError represents a missing resource with context.
type NotFoundError struct {
	Resource string // Type of resource (e.g., "project", "snapshot", "chapter")
	ID       string // Identifier of the resource
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// IOError represents an I/O operation error with context.
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write", "create")
	Path      string // File/resource path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrIO
}

func (e *IOError) Is(target error) bool { return target == ErrIO }

// ParseError represents a parsing or deserialization error.
type ParseError struct {
	Format  string // Format being parsed (e.g., "Plottr JSON", "yw7 XML", "manifest")
	Path    string // File path, if applicable
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to parse %s at %s: %s", e.Format, e.Path, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrParse
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// StructureError represents well-formed input missing required fields.
type StructureError struct {
	Format  string // Format being interpreted
	Field   string // Field or element that is missing or wrong
	Message string // Human-readable error message
}

func (e *StructureError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s structure: %s: %s", e.Format, e.Field, e.Message)
	}
	return fmt.Sprintf("invalid %s structure: %s", e.Format, e.Message)
}

func (e *StructureError) Unwrap() error {
	return ErrInvalidStructure
}

// DBError represents a SQL failure with statement context.
type DBError struct {
	Operation string // Operation being performed (e.g., "insert chapter", "begin tx")
	Err       error  // Underlying error
}

func (e *DBError) Error() string {
	return fmt.Sprintf("database error during %s: %v", e.Operation, e.Err)
}

func (e *DBError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrDB
}

func (e *DBError) Is(target error) bool { return target == ErrDB }

// EncodingError represents an unrecognized or undecodable text encoding.
type EncodingError struct {
	Path    string // File path involved
	Message string // What was wrong with the encoding
}

func (e *EncodingError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("encoding error in %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("encoding error: %s", e.Message)
}

func (e *EncodingError) Unwrap() error {
	return ErrEncoding
}

// CorruptError represents a snapshot archive that cannot be decoded.
type CorruptError struct {
	Path    string // Archive path
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *CorruptError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("corrupt snapshot %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("corrupt snapshot: %s", e.Message)
}

func (e *CorruptError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrCorrupt
}

func (e *CorruptError) Is(target error) bool { return target == ErrCorrupt }

// Helper functions for creating common errors

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{Operation: operation, Path: path, Err: err}
}

// NewParse creates a ParseError
func NewParse(format, path, message string) *ParseError {
	return &ParseError{Format: format, Path: path, Message: message}
}

// NewStructure creates a StructureError
func NewStructure(format, field, message string) *StructureError {
	return &StructureError{Format: format, Field: field, Message: message}
}

// NewDB creates a DBError
func NewDB(operation string, err error) *DBError {
	return &DBError{Operation: operation, Err: err}
}

// NewEncoding creates an EncodingError
func NewEncoding(path, message string) *EncodingError {
	return &EncodingError{Path: path, Message: message}
}

// NewCorrupt creates a CorruptError
func NewCorrupt(path, message string, err error) *CorruptError {
	return &CorruptError{Path: path, Message: message, Err: err}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
