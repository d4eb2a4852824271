package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeValidation  ErrorType = "validation"
	ErrorTypeFilesystem  ErrorType = "filesystem"
	ErrorTypeUnknown     ErrorType = "unknown"
)

var (
	// ErrInvalidHost is returned when a submitted URL does not point at the configured host.
	ErrInvalidHost = stderrors.New("invalid host")

	// ErrFetchExhausted is returned when a page could not be fetched within the retry budget.
	ErrFetchExhausted = stderrors.New("fetch attempts exhausted")
)

// Error represents a typed error with optional HTTP status and cause
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error (code %d): %s: %v", e.Type, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error
func New(errorType ErrorType, message string, code int) *Error {
	return &Error{Type: errorType, Message: message, Code: code}
}

// Wrap creates a typed error around a cause
func Wrap(errorType ErrorType, message string, err error) *Error {
	return &Error{Type: errorType, Message: message, Err: err}
}

// InvalidHost builds the validation error for a URL on the wrong host
func InvalidHost(got, want string) *Error {
	return &Error{
		Type:    ErrorTypeValidation,
		Message: fmt.Sprintf("host must be %s, got %q", want, got),
		Err:     ErrInvalidHost,
	}
}

// FetchExhausted builds the terminal error returned after the last failed attempt
func FetchExhausted(attempts int, last error) error {
	return fmt.Errorf("failed to fetch album data after %d attempts: %w", attempts, stderrors.Join(ErrFetchExhausted, last))
}

// FromStatus maps an HTTP status code to a typed error, nil for 2xx
func FromStatus(statusCode int, url string) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var t ErrorType
	switch {
	case statusCode == http.StatusNotFound:
		t = ErrorTypeNotFound
	case statusCode == http.StatusTooManyRequests:
		t = ErrorTypeRateLimit
	case statusCode >= 500:
		t = ErrorTypeServerError
	default:
		t = ErrorTypeUnknown
	}

	return &Error{
		Type:    t,
		Message: fmt.Sprintf("unexpected status %d for %s", statusCode, url),
		Code:    statusCode,
	}
}

// TypeOf returns the ErrorType carried by err, or ErrorTypeUnknown
func TypeOf(err error) ErrorType {
	var typed *Error
	if stderrors.As(err, &typed) {
		return typed.Type
	}
	return ErrorTypeUnknown
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	case ErrorTypeNotFound, ErrorTypeParsing, ErrorTypeValidation, ErrorTypeFilesystem:
		return false
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429: // Too Many Requests
		return true
	case 401, 403, 404: // Client errors that won't change
		return false
	default:
		return statusCode >= 500
	}
}
