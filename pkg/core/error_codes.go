package core

import "errors"

// ErrorCode represents a stable, machine-readable error identifier.
type ErrorCode string

const (
	ErrCodeRateLimit     ErrorCode = "RATE_LIMIT"
	ErrCodeAuth          ErrorCode = "AUTH_ERROR"
	ErrCodeBadRequest    ErrorCode = "BAD_REQUEST"
	ErrCodeServerError   ErrorCode = "SERVER_ERROR"
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeInvalidOrder  ErrorCode = "INVALID_ORDER"
	ErrCodeInvalidSymbol ErrorCode = "INVALID_SYMBOL"

	// Response decoding errors
	ErrCodeMalformedResponse ErrorCode = "MALFORMED_RESPONSE"
)

// CodeForType returns the code attached to errors of type t that carry no
// exchange-specific code. It returns "" for types without one.
func CodeForType(t ErrorType) ErrorCode {
	switch t {
	case ErrorTypeRateLimit:
		return ErrCodeRateLimit
	case ErrorTypeAuthentication:
		return ErrCodeAuth
	case ErrorTypeBadRequest:
		return ErrCodeBadRequest
	case ErrorTypeNotFound:
		return ErrCodeNotFound
	case ErrorTypeServerError:
		return ErrCodeServerError
	default:
		return ""
	}
}

// IsErrorCode checks if the error matches the specified error code.
func IsErrorCode(err error, code ErrorCode) bool {
	var exErr *ExchangeError
	if errors.As(err, &exErr) {
		return ErrorCode(exErr.Code) == code
	}
	return false
}
