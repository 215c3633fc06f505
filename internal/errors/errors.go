package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// AssetNotFound indicates no servable file exists for a request path
	AssetNotFound ErrorCode = "ASSET_NOT_FOUND"
	// AssetForbidden indicates the path exists but policy refuses to serve it
	AssetForbidden ErrorCode = "ASSET_FORBIDDEN"
	// AssetUnreadable indicates a file exists but could not be opened or read
	AssetUnreadable ErrorCode = "ASSET_UNREADABLE"
	// InvalidConfig indicates a configuration value was rejected
	InvalidConfig ErrorCode = "INVALID_CONFIG"
	// BackendUnavailable indicates the backend could not be reached
	BackendUnavailable ErrorCode = "BACKEND_UNAVAILABLE"
	// BackendRejected indicates the backend answered with a non-2xx status
	BackendRejected ErrorCode = "BACKEND_REJECTED"
	// EncodeFailed indicates a payload or document could not be encoded or decoded
	EncodeFailed ErrorCode = "ENCODE_FAILED"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// Error carries a stable code, a message and an optional underlying cause.
type Error struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error       // Underlying error (not exported to JSON)
}

// New creates an Error without a cause
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates an Error around an underlying cause
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// CodeOf returns the code of the first *Error in err's chain, or
// InternalError when there is none. A nil error has no code.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return InternalError
}

// Hints maps error codes to a one-line suggestion shown by the CLI
var Hints = map[ErrorCode]string{
	BackendUnavailable: "Check that the backend is running and client.backendURL points at it",
	BackendRejected:    "The backend refused the request; inspect the response body above",
	InvalidConfig:      "Run 'stripdemo config show' to inspect the effective configuration",
	AssetNotFound:      "Check server.assetDir and the requested path",
}

// GetHint returns the suggestion for an error code, or "" when there is none
func GetHint(code ErrorCode) string {
	return Hints[code]
}
