package xapi

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/bytedance/sonic"

	"xtb/pkg/core"
)

// Payload keys of a successful response.
const (
	KeyReturnData      = "returnData"
	KeyStreamSessionID = "streamSessionId"
)

// CommandEnvelope is the outgoing message for a single command.
type CommandEnvelope struct {
	Command   core.Command `json:"command"`
	CustomTag string       `json:"customTag,omitempty"`
	// Arguments is omitted entirely when nil.
	Arguments   any  `json:"arguments,omitempty"`
	PrettyPrint bool `json:"prettyPrint"`
}

// EncodeCommand serializes a command envelope.
func EncodeCommand(cmd core.Command, tag string, args any, prettyPrint bool) ([]byte, error) {
	data, err := sonic.Marshal(CommandEnvelope{
		Command:     cmd,
		CustomTag:   tag,
		Arguments:   args,
		PrettyPrint: prettyPrint,
	})
	if err != nil {
		return nil, core.NewAPIError(core.ErrorTypeUnknown, "encode command", err).WithCommand(cmd)
	}
	return data, nil
}

// Response is a decoded response envelope.
// Exactly one of ReturnData and StreamSessionID is set on success;
// ErrorCode and one of the description keys are set on failure.
type Response struct {
	Status          *bool           `json:"status"`
	CustomTag       string          `json:"customTag"`
	ReturnData      json.RawMessage `json:"returnData"`
	StreamSessionID json.RawMessage `json:"streamSessionId"`
	ErrorCode       string          `json:"errorCode"`
	ErrorDesc       string          `json:"errorDesc"`
	ErrorDescr      string          `json:"errorDescr"`
}

// OK reports whether the server accepted the command.
func (r *Response) OK() bool {
	return r.Status != nil && *r.Status
}

// Payload returns the raw value stored under key, or nil when absent.
func (r *Response) Payload(key string) json.RawMessage {
	switch key {
	case KeyReturnData:
		return r.ReturnData
	case KeyStreamSessionID:
		return r.StreamSessionID
	}
	return nil
}

// Description returns the server's error text.
// The server uses both errorDesc and errorDescr; errorDesc wins when both are set.
func (r *Response) Description() string {
	if r.ErrorDesc != "" {
		return r.ErrorDesc
	}
	return r.ErrorDescr
}

// DecodeResponse parses a response envelope without interpreting it.
// A reply that is not a JSON object or lacks "status" is a protocol error.
func DecodeResponse(data []byte) (*Response, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, malformed("response is not a JSON object", nil)
	}
	var resp Response
	if err := sonic.Unmarshal(trimmed, &resp); err != nil {
		return nil, malformed("invalid response envelope", err)
	}
	if resp.Status == nil {
		return nil, malformed("response has no status", nil)
	}
	return &resp, nil
}

// CheckTag fails unless the echoed tag equals the tag that was sent.
func (r *Response) CheckTag(expected string) error {
	if r.CustomTag == expected {
		return nil
	}
	return core.NewAPIError(core.ErrorTypeProtocol,
		"expected customTag "+strconv.Quote(expected)+", got "+strconv.Quote(r.CustomTag),
		core.ErrTagMismatch,
	).WithCode(core.ErrCodeTagMismatch)
}

// ReadResponse decodes an envelope, verifies the correlation tag and
// classifies a failed status. The tag is checked before the status, so a
// desynchronized stream is reported as such even for failed replies.
func ReadResponse(data []byte, expectedTag string) (*Response, error) {
	resp, err := DecodeResponse(data)
	if err != nil {
		return nil, err
	}
	if err := resp.CheckTag(expectedTag); err != nil {
		return nil, err
	}
	if err := Classify(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func malformed(msg string, cause error) error {
	return core.NewAPIError(core.ErrorTypeProtocol, msg, cause).WithCode(core.ErrCodeMalformedEnvelope)
}
