package storage

import (
	"bytes"
	"encoding/json"
)

// Predicate is a minimal structural check deciding whether a stored blob is usable.
type Predicate func(raw []byte) bool

// IsArray accepts a JSON array.
func IsArray(raw []byte) bool {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return false
	}
	return items != nil
}

// IsObject accepts a JSON object.
func IsObject(raw []byte) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return false
	}
	return fields != nil
}

// HasObjectKeys returns a predicate accepting a JSON object in which every named key
// is present and itself holds an object. Other fields are not inspected.
func HasObjectKeys(keys ...string) Predicate {
	return func(raw []byte) bool {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
			return false
		}
		for _, key := range keys {
			value, ok := fields[key]
			if !ok {
				return false
			}
			trimmed := bytes.TrimSpace(value)
			if len(trimmed) == 0 || trimmed[0] != '{' {
				return false
			}
		}
		return true
	}
}
