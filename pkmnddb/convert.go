// Copyright 2016 Gareth Watts
// Licensed under an MIT license
// See the LICENSE file for details

package pkmnddb

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/go-git/go-billy/v5"
)

const (
	// CSVExt is the extension of files picked up for conversion.
	CSVExt = ".csv"

	// JSONExt is the extension given to converted files.
	JSONExt = ".json"
)

// ReadCSV parses comma separated data with a header line into records,
// in file order.  Rows with a different number of fields to the header
// cause an error.
func ReadCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err == io.EOF {
		return []Record{}, nil
	} else if err != nil {
		return nil, err
	}
	header = append([]string(nil), header...)

	records := []Record{}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return records, nil
		} else if err != nil {
			return nil, err
		}
		records = append(records, NewRecord(header, row))
	}
}

// JSONPath returns the path that the converted form of csvPath is written to.
func JSONPath(csvPath string) string {
	return strings.TrimSuffix(csvPath, CSVExt) + JSONExt
}

// Converter reads CSV files from a filesystem and writes a JSON copy of
// each alongside the original.
type Converter struct {
	FS billy.Filesystem
}

// Convert parses the CSV file at csvPath, writes the records to the sibling
// JSON file, replacing any previous version, and returns the records along
// with the path written to.
func (c *Converter) Convert(csvPath string) (records []Record, jsonPath string, err error) {
	f, err := c.FS.Open(csvPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open %s for read: %w", csvPath, err)
	}
	records, err = ReadCSV(f)
	f.Close()
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse %s: %w", csvPath, err)
	}

	jsonPath = JSONPath(csvPath)
	out, err := c.FS.Create(jsonPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open %s for write: %w", jsonPath, err)
	}
	if err := WriteJSON(out, records); err != nil {
		out.Close()
		return nil, "", fmt.Errorf("failed to write %s: %w", jsonPath, err)
	}
	if err := out.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close %s: %w", jsonPath, err)
	}
	return records, jsonPath, nil
}
