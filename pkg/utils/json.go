package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

// ErrNotJSONObject indicates that a tagged value did not encode to a JSON object.
var ErrNotJSONObject = errors.New("value is not a JSON object")

// MarshalTagged encodes v as a JSON object and inserts key: tag as its first member.
// This produces the internally tagged layout used for union types.
func MarshalTagged(key, tag string, v any) ([]byte, error) {
	body, err := sonic.Marshal(v)
	if err != nil {
		return nil, err
	}

	body = bytes.TrimSpace(body)
	if len(body) < 2 || body[0] != '{' || body[len(body)-1] != '}' {
		return nil, fmt.Errorf("%w: %s", ErrNotJSONObject, body)
	}

	header, err := sonic.Marshal(map[string]string{key: tag})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(len(header) + len(body))
	buf.Write(header[:len(header)-1])

	inner := bytes.TrimSpace(body[1 : len(body)-1])
	if len(inner) > 0 {
		buf.WriteByte(',')
		buf.Write(inner)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// PeekTag reads the string member named key from a JSON object.
// An empty string is returned when the member is absent.
func PeekTag(data []byte, key string) (string, error) {
	var fields map[string]json.RawMessage
	if err := sonic.Unmarshal(data, &fields); err != nil {
		return "", err
	}

	raw, ok := fields[key]
	if !ok || string(raw) == "null" {
		return "", nil
	}

	var tag string
	if err := sonic.Unmarshal(raw, &tag); err != nil {
		return "", fmt.Errorf("tag %q is not a string: %w", key, err)
	}

	return tag, nil
}
