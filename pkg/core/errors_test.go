package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorType_String(t *testing.T) {
	tests := []struct {
		name      string
		errorType ErrorType
		want      string
	}{
		{"unknown", ErrorTypeUnknown, "UNKNOWN"},
		{"network", ErrorTypeNetwork, "NETWORK"},
		{"timeout", ErrorTypeTimeout, "TIMEOUT"},
		{"not_authenticated", ErrorTypeNotAuthenticated, "NOT_AUTHENTICATED"},
		{"protocol", ErrorTypeProtocol, "PROTOCOL"},
		{"decode", ErrorTypeDecode, "DECODE"},
		{"business", ErrorTypeBusiness, "BUSINESS"},
		{"invalid_state", ErrorTypeInvalidState, "INVALID_STATE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.errorType.String())
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{
			name: "business",
			err:  NewBusinessError("BE005", "Invalid symbol").WithCommand(CmdGetSymbol),
			want: "[getSymbol] BUSINESS (BE005): Invalid symbol",
		},
		{
			name: "no_command",
			err:  NewAPIError(ErrorTypeTimeout, "no response", nil),
			want: "[xapi] TIMEOUT: no response",
		},
		{
			name: "with_cause",
			err:  NewAPIError(ErrorTypeNetwork, "send failed", errors.New("broken pipe")).WithCode(ErrCodeNetwork),
			want: "[xapi] NETWORK (NETWORK_ERROR): send failed: broken pipe",
		},
		{
			name: "cause_only",
			err:  NewAPIError(ErrorTypeDecode, "", errors.New("not an array")),
			want: "[xapi] DECODE: not an array",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestNewBusinessError(t *testing.T) {
	err := NewBusinessError("BE118", "User already logged")

	assert.Equal(t, ErrorTypeBusiness, err.Type)
	assert.Equal(t, "BE118", err.Code)
	assert.Equal(t, "User already logged", err.Message)
	assert.False(t, err.Timestamp.IsZero())
}

func TestAPIError_Unwrap(t *testing.T) {
	err := NewAPIError(ErrorTypeNetwork, "closed", ErrSessionBroken)
	wrapped := fmt.Errorf("get trades: %w", err)

	assert.ErrorIs(t, wrapped, ErrSessionBroken)
	assert.True(t, IsNetworkError(wrapped))
	assert.True(t, IsTransportError(wrapped))
}

func TestIsHelpers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"network", NewAPIError(ErrorTypeNetwork, "", nil), IsNetworkError, true},
		{"timeout", NewAPIError(ErrorTypeTimeout, "", nil), IsTimeoutError, true},
		{"timeout_is_transport", NewAPIError(ErrorTypeTimeout, "", nil), IsTransportError, true},
		{"business_not_transport", NewBusinessError("X", ""), IsTransportError, false},
		{"not_authenticated", NewAPIError(ErrorTypeNotAuthenticated, "", ErrNotAuthenticated), IsNotAuthenticatedError, true},
		{"protocol", NewAPIError(ErrorTypeProtocol, "", ErrTagMismatch), IsProtocolError, true},
		{"decode_is_protocol", NewAPIError(ErrorTypeDecode, "", nil), IsProtocolError, true},
		{"protocol_not_decode", NewAPIError(ErrorTypeProtocol, "", nil), IsDecodeError, false},
		{"business", NewBusinessError("X", ""), IsBusinessError, true},
		{"plain_error", errors.New("boom"), IsBusinessError, false},
		{"nil", nil, IsNetworkError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.check(tt.err))
		})
	}
}

func TestIsErrorCode(t *testing.T) {
	err := fmt.Errorf("login: %w", NewAPIError(ErrorTypeInvalidState, "", ErrNoCredentials).WithCode(ErrCodeNoCredentials))

	assert.True(t, IsErrorCode(err, ErrCodeNoCredentials))
	assert.False(t, IsErrorCode(err, ErrCodeTimeout))
	assert.False(t, IsErrorCode(errors.New("plain"), ErrCodeTimeout))
}
