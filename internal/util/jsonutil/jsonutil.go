package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var ErrNoJSON = errors.New("jsonutil: no JSON value in text")

var fenceRe = regexp.MustCompile("(?s)```(?:json|JSON)?[ \t]*\r?\n(.*?)\r?\n?```")

// ExtractJSON returns the JSON payload of a model reply: the body of the
// first ``` or ```json fence when there is one, otherwise the trimmed text.
func ExtractJSON(text string) string {
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}

// DecodeModelOutput extracts and decodes a model reply into v.
func DecodeModelOutput(raw []byte, v any) error {
	body := ExtractJSON(string(raw))
	if body == "" {
		return ErrNoJSON
	}
	return UnmarshalFlex([]byte(body), v)
}

// MarshalNoEscape encodes v into JSON without escaping <, > and &.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// MarshalNoEscapeIndent is MarshalNoEscape with indentation.
func MarshalNoEscapeIndent(v any, prefix, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent(prefix, indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalFlex unmarshals raw into v, retrying once after unwrapping a
// JSON document that was itself encoded as a JSON string.
func UnmarshalFlex(raw []byte, v any) error {
	err := json.Unmarshal(raw, v)
	if err == nil {
		return nil
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return err
	}
	s = ExtractJSON(s)
	if s == "" {
		return err
	}
	if err2 := json.Unmarshal([]byte(s), v); err2 != nil {
		return err
	}
	return nil
}
