package xapi

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/bytedance/sonic"

	"xtb/pkg/core"
)

// Shape is the expected form of a command's result.
type Shape int

const (
	// ShapeNone ignores the payload.
	ShapeNone Shape = iota
	// ShapeScalar expects a bare value, or an object with exactly one member.
	ShapeScalar
	// ShapeRecord expects a JSON object.
	ShapeRecord
	// ShapeList expects a JSON array.
	ShapeList
)

func (s Shape) String() string {
	if s < ShapeNone || s > ShapeList {
		return fmt.Sprintf("Shape(%d)", int(s))
	}
	return [...]string{"none", "scalar", "record", "list"}[s]
}

// Decode converts the payload stored under key into T according to shape.
// A list is decoded all-or-nothing in wire order; an object is never
// accepted where a list is expected.
func Decode[T any](resp *Response, shape Shape, key string) (T, error) {
	var out T
	if shape == ShapeNone {
		return out, nil
	}

	raw := bytes.TrimSpace(resp.Payload(key))
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return out, shapeMismatch(shape, fmt.Errorf("missing %s", key))
	}

	switch shape {
	case ShapeList:
		if raw[0] != '[' {
			return out, shapeMismatch(shape, fmt.Errorf("%s is not an array", key))
		}
	case ShapeRecord:
		if raw[0] != '{' {
			return out, shapeMismatch(shape, fmt.Errorf("%s is not an object", key))
		}
	case ShapeScalar:
		if raw[0] == '{' {
			inner, err := singleMember(raw)
			if err != nil {
				return out, shapeMismatch(shape, err)
			}
			raw = inner
		}
	default:
		return out, shapeMismatch(shape, fmt.Errorf("unknown shape %d", int(shape)))
	}

	if err := sonic.Unmarshal(raw, &out); err != nil {
		var zero T
		return zero, shapeMismatch(shape, err)
	}
	return out, nil
}

func singleMember(raw []byte) (json.RawMessage, error) {
	var members map[string]json.RawMessage
	if err := sonic.Unmarshal(raw, &members); err != nil {
		return nil, err
	}
	if len(members) != 1 {
		return nil, fmt.Errorf("scalar object has %d members, want 1", len(members))
	}
	for _, v := range members {
		return v, nil
	}
	return nil, nil
}

func shapeMismatch(shape Shape, cause error) error {
	return core.NewAPIError(core.ErrorTypeDecode, "payload does not match "+shape.String()+" result", cause).
		WithCode(core.ErrCodeShapeMismatch)
}
