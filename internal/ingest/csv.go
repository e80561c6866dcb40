package ingest

import (
	"encoding/csv"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// ReadCSV reads a CSV export. The first non-empty record is the header row.
func ReadCSV(path string) (*Payload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // carrier exports have ragged rows
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: parse %s", path)
	}

	// Skip leading blank records some TMS exports prepend.
	for len(records) > 0 && blankRecord(records[0]) {
		records = records[1:]
	}
	if len(records) == 0 {
		return nil, eris.Errorf("ingest: %s has no header row", path)
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}
	return &Payload{
		Headers: headers,
		Rows:    rowsFromRecords(headers, records[1:]),
	}, nil
}

func blankRecord(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
