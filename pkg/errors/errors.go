package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"
	ErrPermission   ErrorCode = "PERMISSION"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"
	ErrConfigValid ErrorCode = "CONFIG_INVALID"

	// Sync engine errors
	ErrSourceNotFound    ErrorCode = "SOURCE_NOT_FOUND"
	ErrMirrorToolFailed  ErrorCode = "MIRROR_TOOL_FAILED"
	ErrDirListFailed     ErrorCode = "DIR_LIST_FAILED"
	ErrSubprocessTimeout ErrorCode = "SUBPROCESS_TIMEOUT"
	ErrCopyFailed        ErrorCode = "COPY_FAILED"

	// FileSystem errors
	ErrFileNotFound ErrorCode = "FILE_NOT_FOUND"
	ErrFileAccess   ErrorCode = "FILE_ACCESS"
	ErrFileCreate   ErrorCode = "FILE_CREATE"
	ErrFileWrite    ErrorCode = "FILE_WRITE"
	ErrDirCreate    ErrorCode = "DIR_CREATE"

	// Homebrew errors
	ErrBrewNotFound ErrorCode = "BREW_NOT_FOUND"
	ErrBrewList     ErrorCode = "BREW_LIST"
	ErrBrewInstall  ErrorCode = "BREW_INSTALL"

	// Manifest errors
	ErrManifestRead  ErrorCode = "MANIFEST_READ"
	ErrManifestWrite ErrorCode = "MANIFEST_WRITE"
)

// PackratError represents a structured error with code and details
type PackratError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *PackratError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *PackratError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *PackratError) Is(target error) bool {
	var targetErr *PackratError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new PackratError with the given code and message
func New(code ErrorCode, message string) *PackratError {
	return &PackratError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new PackratError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *PackratError {
	return &PackratError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a PackratError
func Wrap(err error, code ErrorCode, message string) *PackratError {
	if err == nil {
		return nil
	}
	return &PackratError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *PackratError {
	if err == nil {
		return nil
	}
	return &PackratError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *PackratError) WithDetail(key string, value interface{}) *PackratError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var packratErr *PackratError
	if errors.As(err, &packratErr) {
		return packratErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a PackratError
func GetErrorCode(err error) ErrorCode {
	var packratErr *PackratError
	if errors.As(err, &packratErr) {
		return packratErr.Code
	}
	return ErrUnknown
}
