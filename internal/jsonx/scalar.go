// Package jsonx holds small coercions for loosely typed JSON documents
// (quiz files and learner answer payloads) where a field may arrive as a
// string, a number or null.
package jsonx

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// IsNull reports whether raw is absent or the JSON literal null.
func IsNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

// String renders a scalar as text: strings verbatim, numbers in their JSON
// spelling, booleans as true/false. Null, objects and arrays give ok=false.
func String(raw json.RawMessage) (string, bool) {
	t := bytes.TrimSpace(raw)
	if len(t) == 0 {
		return "", false
	}
	switch t[0] {
	case '"':
		var s string
		if err := json.Unmarshal(t, &s); err != nil {
			return "", false
		}
		return s, true
	case 't', 'f':
		return string(t), string(t) == "true" || string(t) == "false"
	case 'n', '{', '[':
		return "", false
	default:
		var n json.Number
		if err := json.Unmarshal(t, &n); err != nil {
			return "", false
		}
		return n.String(), true
	}
}

// Float reads a number, a numeric string or a boolean (1/0).
func Float(raw json.RawMessage) (float64, bool) {
	t := bytes.TrimSpace(raw)
	if len(t) == 0 {
		return 0, false
	}
	switch t[0] {
	case 't':
		return 1, string(t) == "true"
	case 'f':
		return 0, string(t) == "false"
	case '"':
		var s string
		if err := json.Unmarshal(t, &s); err != nil {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}
	var f float64
	if err := json.Unmarshal(t, &f); err != nil {
		return 0, false
	}
	return f, true
}

// Int truncates Float toward zero.
func Int(raw json.RawMessage) (int, bool) {
	f, ok := Float(raw)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// Object decodes raw into its members; ok is false for anything that is not
// a JSON object.
func Object(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	t := bytes.TrimSpace(raw)
	if len(t) == 0 || t[0] != '{' {
		return nil, false
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(t, &m); err != nil {
		return nil, false
	}
	return m, true
}

// Array decodes raw into its elements; ok is false for non-arrays.
func Array(raw json.RawMessage) ([]json.RawMessage, bool) {
	t := bytes.TrimSpace(raw)
	if len(t) == 0 || t[0] != '[' {
		return nil, false
	}
	var a []json.RawMessage
	if err := json.Unmarshal(t, &a); err != nil {
		return nil, false
	}
	return a, true
}

// Marshal encodes v without HTML escaping and without the trailing newline
// json.Encoder adds.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
