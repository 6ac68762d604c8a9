package payload

import (
	"encoding/json"
	"fmt"
)

// previewLimit bounds how much raw payload a DecodeError carries.
const previewLimit = 200

// DecodeError reports a payload that could not be parsed as a JSON
// object. RawPreview holds at most the first 200 bytes of the payload
// so it can be logged safely.
type DecodeError struct {
	Kind       string
	RawPreview string
	cause      error
}

func (e *DecodeError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.cause)
	}
	return e.Kind
}

func (e *DecodeError) Unwrap() error { return e.cause }

func newDecodeError(raw []byte, cause error) *DecodeError {
	preview := string(raw)
	if len(preview) > previewLimit {
		preview = preview[:previewLimit] + "..."
	}
	return &DecodeError{Kind: "json_parse_error", RawPreview: preview, cause: cause}
}

// Object is a decoded JSON object. All accessors tolerate missing keys
// and unexpected types; they never panic.
type Object map[string]any

// Decode parses raw bytes into an Object. Empty input and non-object
// JSON are decode errors, not panics.
func Decode(raw []byte) (Object, error) {
	if len(raw) == 0 {
		return nil, newDecodeError(raw, fmt.Errorf("empty payload"))
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, newDecodeError(raw, err)
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, newDecodeError(raw, fmt.Errorf("payload is not a JSON object"))
	}
	return Object(obj), nil
}

// Has reports whether key is present, regardless of its type.
func (o Object) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// Value returns the raw value for key.
func (o Object) Value(key string) (any, bool) {
	v, ok := o[key]
	return v, ok
}

// Str returns the string value for key.
func (o Object) Str(key string) (string, bool) {
	v, ok := o[key].(string)
	return v, ok
}

// Float returns the numeric value for key. JSON numbers decode as
// float64.
func (o Object) Float(key string) (float64, bool) {
	v, ok := o[key].(float64)
	return v, ok
}

// Bool returns the boolean value for key.
func (o Object) Bool(key string) (bool, bool) {
	v, ok := o[key].(bool)
	return v, ok
}

// Object returns the nested object under key.
func (o Object) Object(key string) (Object, bool) {
	v, ok := o[key].(map[string]any)
	if !ok {
		return nil, false
	}
	return Object(v), true
}

// Floats returns the value under key as a slice of numbers. Arrays
// containing any non-numeric element report absent.
func (o Object) Floats(key string) ([]float64, bool) {
	raw, ok := o[key].([]any)
	if !ok {
		return nil, false
	}
	out := make([]float64, len(raw))
	for i, v := range raw {
		f, ok := v.(float64)
		if !ok {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}
