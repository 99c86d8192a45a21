// Copyright 2016 Gareth Watts
// Licensed under an MIT license
// See the LICENSE file for details

package pkmnddb

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record holds a single row of tabular data as field name/value pairs.
// Field order is preserved so that encoded output follows the order of the
// source header.
type Record struct {
	keys   []string
	values map[string]string
}

// NewRecord creates a Record from a header and a matching row of values.
func NewRecord(header, row []string) Record {
	var r Record
	for i, k := range header {
		var v string
		if i < len(row) {
			v = row[i]
		}
		r.Set(k, v)
	}
	return r
}

// Set stores a value for the named field.  A field that is already present
// keeps its original position.
func (r *Record) Set(key, value string) {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the value of the named field and whether it was present.
func (r Record) Get(key string) (value string, ok bool) {
	value, ok = r.values[key]
	return value, ok
}

// Keys returns the field names in order.
func (r Record) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Len returns the number of fields in the record.
func (r Record) Len() int {
	return len(r.keys)
}

// Map returns a copy of the record's fields as a plain map.
func (r Record) Map() map[string]string {
	m := make(map[string]string, len(r.values))
	for k, v := range r.values {
		m[k] = v
	}
	return m
}

// MarshalJSON encodes the record as a JSON object with keys in field order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object of string values, keeping key order.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("record must be a JSON object, got %v", tok)
	}

	*r = Record{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key := tok.(string) // object keys are always strings

		tok, err = dec.Token()
		if err != nil {
			return err
		}
		val, ok := tok.(string)
		if !ok {
			return fmt.Errorf("field %q must be a string, got %T", key, tok)
		}
		r.Set(key, val)
	}

	if _, err := dec.Token(); err != nil { // closing brace
		return err
	}
	return nil
}
