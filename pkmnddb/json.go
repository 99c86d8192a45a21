// Copyright 2016 Gareth Watts
// Licensed under an MIT license
// See the LICENSE file for details

package pkmnddb

import (
	"encoding/json"
	"io"
)

const jsonIndent = "    "

// WriteJSON writes records to w as a single indented JSON array.
// An empty or nil slice is written as an empty array.
func WriteJSON(w io.Writer, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	data, err := json.MarshalIndent(records, "", jsonIndent)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ReadJSON decodes a JSON array of records previously written by WriteJSON.
func ReadJSON(r io.Reader) (records []Record, err error) {
	err = json.NewDecoder(r).Decode(&records)
	return records, err
}
