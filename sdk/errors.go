package texcompile

import (
	"errors"
	"fmt"
)

// ErrorCode is the machine-readable code of an APIError.
type ErrorCode string

const (
	CodeInvalidInput       ErrorCode = "INVALID_INPUT"
	CodeCompilationFailed  ErrorCode = "COMPILATION_FAILED"
	CodeCompiledWithErrors ErrorCode = "COMPILED_WITH_ERRORS"
	CodeTimeout            ErrorCode = "TIMEOUT"
	CodeNoBytesGenerated   ErrorCode = "NO_BYTES_GENERATED"
	CodeInternalError      ErrorCode = "INTERNAL_ERROR"
	CodeNotFound           ErrorCode = "NOT_FOUND"
	CodeNotReady           ErrorCode = "NOT_READY"
	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
)

// APIError is returned when the API responds with a non-success status.
// For compilation failures Message carries the engine output.
type APIError struct {
	StatusCode int
	Message    string
	Code       ErrorCode
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("texcompile: HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("texcompile: HTTP %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// IsCode reports whether err is an *APIError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var e *APIError
	return errors.As(err, &e) && e.Code == code
}
