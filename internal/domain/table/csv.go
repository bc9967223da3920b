package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// ReadCSV decodes a header row plus records. Ragged rows are padded or
// truncated to the header width.
func ReadCSV(name string, r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %q has no header", ErrMalformed, name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrMalformed, name, err)
	}
	if len(header) > 0 {
		header[0] = trimBOM(header[0])
	}

	t := New(name, header...)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrMalformed, name, err)
		}
		if len(rec) > len(header) {
			rec = rec[:len(header)]
		}
		t.Append(rec...)
	}
	return t, nil
}

// WriteCSV encodes the header and every row.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

func trimBOM(s string) string {
	const bom = "\ufeff"
	if len(s) >= len(bom) && s[:len(bom)] == bom {
		return s[len(bom):]
	}
	return s
}
