package errors

import (
	stderrors "errors"
	"fmt"
	"strconv"
)

// KWError is the structured error type for kwsearch.
type KWError struct {
	// Code is the unique error code (e.g., "ERR_201_FILE_ACCESS").
	Code string

	// Message is the human-readable error message.
	Message string

	Category Category
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable hint for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *KWError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *KWError) Unwrap() error {
	return e.Cause
}

// Is matches another KWError by code, so errors.Is works across instances.
func (e *KWError) Is(target error) bool {
	if t, ok := target.(*KWError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *KWError) WithDetail(key, value string) *KWError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *KWError) WithSuggestion(suggestion string) *KWError {
	e.Suggestion = suggestion
	return e
}

// New creates a KWError. Category and severity are derived from the code.
func New(code string, message string, cause error) *KWError {
	return &KWError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a KWError from an existing error, reusing its message.
func Wrap(code string, err error) *KWError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// FileAccessError reports a file that could not be opened, read or decoded.
func FileAccessError(path string, cause error) *KWError {
	return New(ErrCodeFileAccess, "cannot read "+path, cause).
		WithDetail("path", path)
}

// WorkerSpawnError reports a worker that could not be started.
func WorkerSpawnError(workerID int, cause error) *KWError {
	return New(ErrCodeWorkerSpawn, "failed to start worker "+strconv.Itoa(workerID), cause).
		WithDetail("worker_id", strconv.Itoa(workerID))
}

// WorkerProtocolError reports a worker whose request or response could not be exchanged.
func WorkerProtocolError(workerID int, cause error) *KWError {
	return New(ErrCodeWorkerProtocol, "worker "+strconv.Itoa(workerID)+" protocol failure", cause).
		WithDetail("worker_id", strconv.Itoa(workerID))
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *KWError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *KWError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *KWError {
	return New(ErrCodeInternal, message, cause)
}

// as finds the first KWError in err's chain.
func as(err error) (*KWError, bool) {
	var ke *KWError
	if stderrors.As(err, &ke) {
		return ke, true
	}
	return nil, false
}

// IsFileAccess reports whether err carries ERR_201_FILE_ACCESS.
func IsFileAccess(err error) bool {
	return GetCode(err) == ErrCodeFileAccess
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	ke, ok := as(err)
	return ok && ke.Severity == SeverityFatal
}

// GetCode extracts the error code, or "" if err is not a KWError.
func GetCode(err error) string {
	if ke, ok := as(err); ok {
		return ke.Code
	}
	return ""
}

// GetCategory extracts the category, or "" if err is not a KWError.
func GetCategory(err error) Category {
	if ke, ok := as(err); ok {
		return ke.Category
	}
	return ""
}
