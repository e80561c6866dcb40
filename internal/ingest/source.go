// Package ingest reads carrier export files into raw header/row payloads for
// resolution. Parsing here is deliberately thin: the resolver only needs the
// original header strings and string-keyed row values.
package ingest

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Payload is the raw content of one export file: the ordered original
// headers plus every row keyed by those headers.
type Payload struct {
	Headers []string
	Rows    []map[string]string
}

// Sample returns up to n rows for resolution sampling.
func (p *Payload) Sample(n int) []map[string]string {
	if n <= 0 || n >= len(p.Rows) {
		return p.Rows
	}
	return p.Rows[:n]
}

// ReadFile dispatches on file extension.
func ReadFile(path string) (*Payload, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(path)
	case ".xlsx":
		return ReadXLSX(path)
	default:
		return nil, eris.Errorf("ingest: unsupported file type %q", filepath.Ext(path))
	}
}

// rowsFromRecords zips raw record slices with the header row. Short records
// are padded with empties; extra cells beyond the headers are dropped.
func rowsFromRecords(headers []string, records [][]string) []map[string]string {
	rows := make([]map[string]string, 0, len(records))
	for _, rec := range records {
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if i < len(rec) {
				row[h] = strings.TrimSpace(rec[i])
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows
}
