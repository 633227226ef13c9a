// Package json decodes host replies.
//
// Some integrations pass their upstream's response through untouched, so
// the reply is a JSON-encoded string holding the real document rather than
// the document itself. This package accepts both forms.
package json

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// unwrap returns the document inside raw. A JSON string is decoded and its
// contents returned; anything else is returned as is.
func unwrap(raw []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty reply")
	}
	if trimmed[0] != '"' {
		return trimmed, nil
	}

	var inner string
	if err := json.Unmarshal(trimmed, &inner); err != nil {
		return nil, fmt.Errorf("failed to unwrap string reply: %w", err)
	}
	return []byte(inner), nil
}

// DecodeReply decodes a reply that is either a JSON document or a JSON
// string holding one.
func DecodeReply[T any](raw []byte) (T, error) {
	var result T
	if err := DecodeReplyInto(raw, &result); err != nil {
		return result, err
	}
	return result, nil
}

// DecodeReplyInto decodes raw into the value pointed to by result.
// This is the non-generic version for cases where generics aren't suitable.
func DecodeReplyInto(raw []byte, result any) error {
	doc, err := unwrap(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(doc, result); err != nil {
		preview := string(doc)
		if len(preview) > 100 {
			preview = preview[:100] + "..."
		}
		return fmt.Errorf("failed to unmarshal reply %q: %w", preview, err)
	}
	return nil
}

// EncodeList renders values as a JSON array string, the form list
// parameters take in requests. An empty list encodes as "".
func EncodeList(values []string) string {
	if len(values) == 0 {
		return ""
	}
	out, err := json.Marshal(values)
	if err != nil {
		return ""
	}
	return string(out)
}
