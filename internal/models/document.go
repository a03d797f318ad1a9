package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Document is a decoded JSON object whose known fields are consumed one by one;
// whatever is left over is kept as pass-through attributes.
type Document map[string]json.RawMessage

var reservedKeys = []string{"_id", "id"}

func DecodeDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("document must be a JSON object")
	}
	return doc, nil
}

// TakeString removes key from the document. JSON null counts as absent.
func (d Document) TakeString(key string) (string, bool, error) {
	raw, ok := d.take(key)
	if !ok {
		return "", false, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", true, fmt.Errorf("%s: expected string", key)
	}
	return s, true, nil
}

// TakeFloat removes key from the document. Numeric strings are accepted.
func (d Document) TakeFloat(key string) (float64, bool, error) {
	raw, ok := d.take(key)
	if !ok {
		return 0, false, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, perr := strconv.ParseFloat(s, 64); perr == nil {
			return v, true, nil
		}
	}
	return 0, true, fmt.Errorf("%s: expected number", key)
}

// Rest decodes the remaining keys, dropping reserved id keys.
func (d Document) Rest() (map[string]any, error) {
	for _, k := range reservedKeys {
		delete(d, k)
	}
	if len(d) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(d))
	for k, raw := range d {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

func (d Document) take(key string) (json.RawMessage, bool) {
	raw, ok := d[key]
	if !ok {
		return nil, false
	}
	delete(d, key)
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, false
	}
	return raw, true
}

// field is a known document field; extra attributes never shadow known fields.
type field struct {
	key string
	val any
}

func encodeDocument(extra map[string]any, known ...field) ([]byte, error) {
	out := make(map[string]any, len(extra)+len(known))
	for k, v := range extra {
		out[k] = v
	}
	for _, f := range known {
		out[f.key] = f.val
	}
	return json.Marshal(out)
}

// CloneAttributes deep-copies a decoded JSON attribute tree.
func CloneAttributes(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = cloneValue(v)
	}
	return dst
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneAttributes(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	default:
		return t
	}
}
