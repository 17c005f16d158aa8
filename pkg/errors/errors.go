package errors

import (
	"errors"
	"fmt"
)

// ConfigurationError is returned when a batch cannot start because its inputs are invalid.
// No slot is ever acquired for a batch that fails with this error.
type ConfigurationError struct {
	Reason string
}

func NewConfigurationError(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid batch configuration: %s", e.Reason)
}

func IsConfigurationError(err error) bool {
	var e *ConfigurationError
	return errors.As(err, &e)
}

type BatchInProgressError struct{}

func NewBatchInProgressError() *BatchInProgressError {
	return &BatchInProgressError{}
}

func (e *BatchInProgressError) Error() string {
	return "a batch is already running"
}

func IsBatchInProgressError(err error) bool {
	var e *BatchInProgressError
	return errors.As(err, &e)
}

// InvariantViolationError signals a programming error such as releasing a slot
// that is not held. Callers are expected to treat it as unrecoverable.
type InvariantViolationError struct {
	Invariant string
}

func NewInvariantViolationError(format string, args ...any) *InvariantViolationError {
	return &InvariantViolationError{Invariant: fmt.Sprintf(format, args...)}
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant violated: %s", e.Invariant)
}

func IsInvariantViolationError(err error) bool {
	var e *InvariantViolationError
	return errors.As(err, &e)
}

type UnsupportedFormatError struct {
	Path   string
	Format string
}

func NewUnsupportedFormatError(path, format string) *UnsupportedFormatError {
	return &UnsupportedFormatError{Path: path, Format: format}
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format %q for %s", e.Format, e.Path)
}

func IsUnsupportedFormatError(err error) bool {
	var e *UnsupportedFormatError
	return errors.As(err, &e)
}

type ResourceNotFoundError struct {
	Resource string
	ID       string
}

func NewResourceNotFoundError(resource, id string) *ResourceNotFoundError {
	return &ResourceNotFoundError{Resource: resource, ID: id}
}

func NewBatchNotFoundError(id string) *ResourceNotFoundError {
	return NewResourceNotFoundError("batch", id)
}

func (e *ResourceNotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

func IsResourceNotFoundError(err error) bool {
	var e *ResourceNotFoundError
	return errors.As(err, &e)
}

// MalformedSettingsError is returned by the settings parser.
type MalformedSettingsError struct {
	Path   string
	Line   int
	Reason string
}

func NewMalformedSettingsError(path string, line int, reason string) *MalformedSettingsError {
	return &MalformedSettingsError{Path: path, Line: line, Reason: reason}
}

func (e *MalformedSettingsError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed settings file %s (line %d): %s", e.Path, e.Line, e.Reason)
	}
	return fmt.Sprintf("malformed settings file %s: %s", e.Path, e.Reason)
}

func IsMalformedSettingsError(err error) bool {
	var e *MalformedSettingsError
	return errors.As(err, &e)
}
