package core

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the category of a client failure.
type ErrorType int

// Error type constants categorize failures so callers can tell
// "my order was rejected" apart from "the connection is broken".
const (
	// ErrorTypeUnknown indicates an unclassified error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeNetwork indicates the transport failed to send or receive.
	ErrorTypeNetwork
	// ErrorTypeTimeout indicates the response did not arrive before the deadline.
	ErrorTypeTimeout
	// ErrorTypeNotAuthenticated indicates a command was issued outside a logged-in session.
	ErrorTypeNotAuthenticated
	// ErrorTypeProtocol indicates a malformed envelope or a correlation tag mismatch.
	ErrorTypeProtocol
	// ErrorTypeDecode indicates a successful envelope whose payload does not match the expected shape.
	ErrorTypeDecode
	// ErrorTypeBusiness indicates the server answered with status=false.
	ErrorTypeBusiness
	// ErrorTypeInvalidState indicates the session cannot perform the call in its current state.
	ErrorTypeInvalidState
)

// String returns the string representation of the error type.
func (t ErrorType) String() string {
	return [...]string{
		"UNKNOWN",
		"NETWORK",
		"TIMEOUT",
		"NOT_AUTHENTICATED",
		"PROTOCOL",
		"DECODE",
		"BUSINESS",
		"INVALID_STATE",
	}[t]
}

// Sentinel errors for common error conditions.
var (
	// ErrNotConnected is returned when the session has no open transport.
	ErrNotConnected = errors.New("transport not connected")
	// ErrNotAuthenticated is returned when a command other than login is issued before login.
	ErrNotAuthenticated = errors.New("must log in first")
	// ErrSessionBroken is returned after a timeout or desynchronization; the session must be reconnected.
	ErrSessionBroken = errors.New("session is broken, reconnect required")
	// ErrTagMismatch is returned when the echoed correlation tag differs from the one sent.
	ErrTagMismatch = errors.New("custom tag mismatch")
	// ErrNoCredentials is returned when login is attempted without credentials.
	ErrNoCredentials = errors.New("no credentials configured")
)

// APIError is the typed failure surfaced by every layer of the client.
type APIError struct {
	// Type categorizes the error for programmatic handling.
	Type ErrorType `json:"type"`
	// Command is the wire name of the command that failed, if any.
	Command string `json:"command,omitempty"`
	// Code is the server error code for business errors, or an ErrorCode otherwise.
	Code string `json:"code,omitempty"`
	// Message is the human-readable description.
	Message string `json:"message"`
	// Err is the underlying cause, if any.
	Err error `json:"-"`
	// Timestamp is when the error occurred.
	Timestamp time.Time `json:"timestamp"`
}

// Error implements the error interface for APIError.
func (e *APIError) Error() string {
	msg := e.Message
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	cmd := e.Command
	if cmd == "" {
		cmd = "xapi"
	}
	if e.Code != "" {
		return fmt.Sprintf("[%s] %s (%s): %s", cmd, e.Type, e.Code, msg)
	}
	return fmt.Sprintf("[%s] %s: %s", cmd, e.Type, msg)
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error {
	return e.Err
}

// WithCode sets the error code and returns the error for chaining.
func (e *APIError) WithCode(code ErrorCode) *APIError {
	e.Code = string(code)
	return e
}

// WithCommand sets the failing command and returns the error for chaining.
func (e *APIError) WithCommand(cmd Command) *APIError {
	e.Command = cmd.String()
	return e
}

// NewAPIError creates a new APIError. The timestamp is set to the current time.
func NewAPIError(errorType ErrorType, message string, cause error) *APIError {
	return &APIError{
		Type:      errorType,
		Message:   message,
		Err:       cause,
		Timestamp: time.Now(),
	}
}

// NewBusinessError creates the failure for a server response with status=false.
func NewBusinessError(code, description string) *APIError {
	return &APIError{
		Type:      ErrorTypeBusiness,
		Code:      code,
		Message:   description,
		Timestamp: time.Now(),
	}
}

func errorType(err error) (ErrorType, bool) {
	var e *APIError
	if errors.As(err, &e) {
		return e.Type, true
	}
	return ErrorTypeUnknown, false
}

func isType(err error, types ...ErrorType) bool {
	t, ok := errorType(err)
	if !ok {
		return false
	}
	for _, want := range types {
		if t == want {
			return true
		}
	}
	return false
}

// IsNetworkError returns true if the error is a transport failure.
func IsNetworkError(err error) bool {
	return isType(err, ErrorTypeNetwork)
}

// IsTimeoutError returns true if the error is a receive timeout.
func IsTimeoutError(err error) bool {
	return isType(err, ErrorTypeTimeout)
}

// IsTransportError returns true for network failures and timeouts.
// The session that produced it must be reconnected, not reused.
func IsTransportError(err error) bool {
	return isType(err, ErrorTypeNetwork, ErrorTypeTimeout)
}

// IsNotAuthenticatedError returns true if a command was issued before login.
func IsNotAuthenticatedError(err error) bool {
	return isType(err, ErrorTypeNotAuthenticated)
}

// IsProtocolError returns true for malformed envelopes, tag mismatches and shape mismatches.
// Protocol errors are never retryable.
func IsProtocolError(err error) bool {
	return isType(err, ErrorTypeProtocol, ErrorTypeDecode)
}

// IsDecodeError returns true if a successful payload did not match the expected shape.
func IsDecodeError(err error) bool {
	return isType(err, ErrorTypeDecode)
}

// IsBusinessError returns true if the server rejected the command.
// The caller decides whether a retry makes sense.
func IsBusinessError(err error) bool {
	return isType(err, ErrorTypeBusiness)
}
