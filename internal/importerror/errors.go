// Package importerror defines the error taxonomy of the import pipeline.
package importerror

import (
	"errors"
	"fmt"
)

// DataLost is the success marker recorded when an import attempt failed in a
// way that makes the partial progress of the file unknown.
const DataLost = "data lost"

// TransferError represents a failure of the remote file-transfer channel.
// It aborts the whole run.
type TransferError struct {
	Op   string
	Path string
	Err  error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("remote %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// ParseError represents a staged file that cannot be read as delimited text.
type ParseError struct {
	File string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("failed to parse %s at line %d: %v", e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("failed to parse %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError represents a row that failed classification or domain
// validation. Its message is the row error recorded in the outcome.
type ValidationError struct {
	ActivityID string
	Reason     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.ActivityID, e.Reason)
}

// RowError represents an unexpected failure while dispatching a row.
type RowError struct {
	ActivityID string
	Err        error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s: %v", e.ActivityID, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Invalid builds a ValidationError for the given row.
func Invalid(activityID, format string, args ...interface{}) *ValidationError {
	return &ValidationError{ActivityID: activityID, Reason: fmt.Sprintf(format, args...)}
}

// ForRow attaches the activity ID to err so it reads "<id>: <reason>".
// Errors that already carry a row context are returned unchanged.
func ForRow(activityID string, err error) error {
	if err == nil {
		return nil
	}
	var validation *ValidationError
	if errors.As(err, &validation) {
		return err
	}
	var rowErr *RowError
	if errors.As(err, &rowErr) {
		return err
	}
	return &RowError{ActivityID: activityID, Err: err}
}

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient marks err as worth retrying.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err, or anything it wraps, was marked Transient.
func IsTransient(err error) bool {
	var t *transientError
	return errors.As(err, &t)
}
