// Package fixmap provides an order-preserving string map used throughout the
// engine to carry FIX fields. Insertion order is significant: the codec must
// emit fields in dictionary order, and the wire format itself is order
// sensitive for the header/trailer framing fields.
package fixmap

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FieldMap is a Fieldmap: an ordered mapping from field name to text value.
// The zero value is not usable; construct with New.
type FieldMap struct {
	keys   []string
	values map[string]string
}

// New returns an empty FieldMap.
func New() *FieldMap {
	return &FieldMap{values: make(map[string]string)}
}

// Set inserts or updates a field. Updating an existing key does not change
// its position in iteration order.
func (f *FieldMap) Set(key, value string) {
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
}

// Get returns the value for key and whether it was present.
func (f *FieldMap) Get(key string) (string, bool) {
	v, ok := f.values[key]
	return v, ok
}

// GetOr returns the value for key, or def if the key is absent.
func (f *FieldMap) GetOr(key, def string) string {
	if v, ok := f.values[key]; ok {
		return v
	}
	return def
}

// Has reports whether key is present.
func (f *FieldMap) Has(key string) bool {
	_, ok := f.values[key]
	return ok
}

// Delete removes key, if present.
func (f *FieldMap) Delete(key string) {
	if _, ok := f.values[key]; !ok {
		return
	}
	delete(f.values, key)
	for i, k := range f.keys {
		if k == key {
			f.keys = append(f.keys[:i], f.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the field names in insertion order. The returned slice must
// not be mutated by callers.
func (f *FieldMap) Keys() []string {
	return f.keys
}

// Len returns the number of fields.
func (f *FieldMap) Len() int {
	return len(f.keys)
}

// Clone returns a deep copy with the same key order.
func (f *FieldMap) Clone() *FieldMap {
	c := &FieldMap{
		keys:   make([]string, len(f.keys)),
		values: make(map[string]string, len(f.values)),
	}
	copy(c.keys, f.keys)
	for k, v := range f.values {
		c.values[k] = v
	}
	return c
}

// Merge overlays other on top of f, in place. Keys already present in f keep
// their position; keys new to f are appended in other's order.
func (f *FieldMap) Merge(other *FieldMap) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		f.Set(k, other.values[k])
	}
}

// Each calls fn for every field in insertion order.
func (f *FieldMap) Each(fn func(key, value string)) {
	for _, k := range f.keys {
		fn(k, f.values[k])
	}
}

// UnmarshalJSON decodes a JSON object into the FieldMap, preserving the
// object's key order. The standard library's map[string]string target would
// lose that order, which matters here because the seed templates (§4.1) rely
// on it for wire field ordering.
func (f *FieldMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("fixmap: expected JSON object, got %v", tok)
	}

	*f = FieldMap{values: make(map[string]string)}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("fixmap: expected string key, got %v", keyTok)
		}

		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("fixmap: decoding value for %q: %w", key, err)
		}
		f.Set(key, value)
	}
	return nil
}

// MarshalJSON encodes the FieldMap as a JSON object in insertion order.
func (f *FieldMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range f.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		valJSON, err := json.Marshal(f.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		buf.Write(valJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
