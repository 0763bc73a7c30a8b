// Package errors provides structured error handling for kwsearch.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (file, directory)
//   - 4XX: Validation errors
//   - 5XX: Worker and internal errors
package errors

// Category classifies an error by the subsystem that raised it.
type Category string

const (
	CategoryConfig     Category = "CONFIG"
	CategoryIO         Category = "IO"
	CategoryValidation Category = "VALIDATION"
	CategoryWorker     Category = "WORKER"
	CategoryInternal   Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal aborts the current run.
	SeverityFatal Severity = "FATAL"
	// SeverityError fails the operation but the process can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning is absorbed; the run continues with degraded output.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeFileAccess        = "ERR_201_FILE_ACCESS"
	ErrCodeDirectoryNotFound = "ERR_202_DIRECTORY_NOT_FOUND"

	// Validation errors (400-499)
	ErrCodeInvalidInput    = "ERR_401_INVALID_INPUT"
	ErrCodeInvalidStrategy = "ERR_402_INVALID_STRATEGY"

	// Worker and internal errors (500-599)
	ErrCodeWorkerSpawn    = "ERR_501_WORKER_SPAWN"
	ErrCodeWorkerProtocol = "ERR_502_WORKER_PROTOCOL"
	ErrCodeInternal       = "ERR_503_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// "101" from "ERR_101_CONFIG_NOT_FOUND"
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '4':
		return CategoryValidation
	case '5':
		if code == ErrCodeInternal {
			return CategoryInternal
		}
		return CategoryWorker
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeWorkerSpawn, ErrCodeWorkerProtocol:
		return SeverityFatal
	case ErrCodeFileAccess:
		return SeverityWarning
	default:
		return SeverityError
	}
}
