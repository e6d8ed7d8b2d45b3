package core

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the category of an exchange error.
type ErrorType int

// Error type constants categorize errors for diagnostics.
const (
	// ErrorTypeUnknown indicates an unclassified error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeTimeout indicates the request exceeded its deadline.
	ErrorTypeTimeout
	// ErrorTypeRateLimit indicates rate limit was exceeded.
	ErrorTypeRateLimit
	// ErrorTypeAuthentication indicates invalid credentials, a bad signature or a stale timestamp.
	ErrorTypeAuthentication
	// ErrorTypeBadRequest indicates invalid request parameters.
	ErrorTypeBadRequest
	// ErrorTypeNotFound indicates the requested resource does not exist.
	ErrorTypeNotFound
	// ErrorTypeServerError indicates a server-side error.
	ErrorTypeServerError
	// ErrorTypeInsufficientFunds indicates account lacks required margin or balance.
	ErrorTypeInsufficientFunds
	// ErrorTypeInvalidOrder indicates the order violates exchange rules.
	ErrorTypeInvalidOrder
)

var errorTypeNames = [...]string{
	"UNKNOWN",
	"TIMEOUT",
	"RATE_LIMIT",
	"AUTHENTICATION",
	"BAD_REQUEST",
	"NOT_FOUND",
	"SERVER_ERROR",
	"INSUFFICIENT_FUNDS",
	"INVALID_ORDER",
}

// String returns the string representation of the error type.
func (t ErrorType) String() string {
	if t < 0 || int(t) >= len(errorTypeNames) {
		return "UNKNOWN"
	}
	return errorTypeNames[t]
}

// Sentinel errors for common error conditions.
var (
	// ErrClientClosed is returned when attempting to use a closed client.
	ErrClientClosed = errors.New("client is closed")
	// ErrNoCredentials is returned when a signed call is made without an API key or secret.
	ErrNoCredentials = errors.New("no credentials configured")
	// ErrUnsupportedOperation is returned for an operation the protocol cannot build.
	ErrUnsupportedOperation = errors.New("unsupported operation")
)

// ExchangeError is the generic failure for a non-success HTTP response or a
// success body that could not be decoded. Body holds the raw response for
// diagnostics. Transport failures are never converted to an ExchangeError.
type ExchangeError struct {
	// Type categorizes the error for programmatic handling.
	Type ErrorType `json:"type"`
	// Operation is the call that failed.
	Operation string `json:"operation,omitempty"`
	// StatusCode is the HTTP status code from the response.
	StatusCode int `json:"status_code"`
	// Code is the exchange-specific error code.
	Code string `json:"code"`
	// Message is the human-readable error description.
	Message string `json:"message"`
	// Body is the raw response body.
	Body []byte `json:"body,omitempty"`
	// Exchange identifies which exchange returned this error.
	Exchange string `json:"exchange"`
	// Timestamp is when the error occurred.
	Timestamp time.Time `json:"timestamp"`
}

// Error implements the error interface for ExchangeError.
func (e *ExchangeError) Error() string {
	prefix := e.Exchange
	if e.Operation != "" {
		prefix += " " + e.Operation
	}
	if e.Code != "" {
		return fmt.Sprintf("[%s] %s (%d/%s): %s",
			prefix, e.Type, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s (%d): %s",
		prefix, e.Type, e.StatusCode, e.Message)
}

// WithCode sets the error code and returns e.
func (e *ExchangeError) WithCode(code ErrorCode) *ExchangeError {
	e.Code = string(code)
	return e
}

// WithBody attaches the raw response body and returns e.
func (e *ExchangeError) WithBody(body []byte) *ExchangeError {
	e.Body = body
	return e
}

// WithOperation records which operation failed and returns e.
func (e *ExchangeError) WithOperation(op Operation) *ExchangeError {
	e.Operation = op.String()
	return e
}

// NewExchangeError creates a new ExchangeError with the specified details.
// The timestamp is automatically set to the current time.
func NewExchangeError(exchange string, errorType ErrorType, statusCode int, message string) *ExchangeError {
	return &ExchangeError{
		Type:       errorType,
		StatusCode: statusCode,
		Message:    message,
		Exchange:   exchange,
		Timestamp:  time.Now(),
	}
}

// NewExchangeErrorWithCode creates a new ExchangeError including an exchange-specific error code.
func NewExchangeErrorWithCode(exchange string, errorType ErrorType, statusCode int, code, message string) *ExchangeError {
	return &ExchangeError{
		Type:       errorType,
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
		Exchange:   exchange,
		Timestamp:  time.Now(),
	}
}

func errorTypeOf(err error) (ErrorType, bool) {
	var e *ExchangeError
	if errors.As(err, &e) {
		return e.Type, true
	}
	return ErrorTypeUnknown, false
}

// IsRateLimitError returns true if the error is a rate limit violation.
func IsRateLimitError(err error) bool {
	t, ok := errorTypeOf(err)
	return ok && t == ErrorTypeRateLimit
}

// IsAuthenticationError returns true if the error is an authentication failure,
// including signature mismatches and timestamps outside recvWindow.
func IsAuthenticationError(err error) bool {
	t, ok := errorTypeOf(err)
	return ok && t == ErrorTypeAuthentication
}

// IsTerminalError returns true if the error will not succeed on resubmission.
func IsTerminalError(err error) bool {
	t, ok := errorTypeOf(err)
	return ok && (t == ErrorTypeInsufficientFunds ||
		t == ErrorTypeInvalidOrder ||
		t == ErrorTypeNotFound ||
		t == ErrorTypeBadRequest)
}
