package core

import "errors"

// ErrorCode represents a client-side error identifier.
// Business errors carry the server's own code instead.
type ErrorCode string

// Error code constants define stable identifiers for client-side failures.
const (
	// ErrCodeNetwork indicates a transport send or receive failure.
	ErrCodeNetwork ErrorCode = "NETWORK_ERROR"
	// ErrCodeTimeout indicates the response did not arrive in time.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeNotLoggedIn indicates a command was issued outside a logged-in session.
	ErrCodeNotLoggedIn ErrorCode = "NOT_LOGGED_IN"
	// ErrCodeTagMismatch indicates the echoed custom tag differs from the one sent.
	ErrCodeTagMismatch ErrorCode = "TAG_MISMATCH"
	// ErrCodeMalformedEnvelope indicates the response is not a valid envelope.
	ErrCodeMalformedEnvelope ErrorCode = "MALFORMED_ENVELOPE"
	// ErrCodeShapeMismatch indicates the payload does not match the declared result shape.
	ErrCodeShapeMismatch ErrorCode = "SHAPE_MISMATCH"

	// Configuration errors
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"

	// Session state errors
	ErrCodeNotConnected  ErrorCode = "NOT_CONNECTED"
	ErrCodeInvalidState  ErrorCode = "INVALID_STATE"
	ErrCodeSessionBroken ErrorCode = "SESSION_BROKEN"

	// Authentication errors
	ErrCodeNoCredentials ErrorCode = "NO_CREDENTIALS"
)

// IsErrorCode checks if the error matches the specified error code.
// It extracts the API error and compares its code field against the provided ErrorCode.
func IsErrorCode(err error, code ErrorCode) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return ErrorCode(apiErr.Code) == code
	}
	return false
}
