// Package table holds a small typed tabular dataset: a header row and string
// cells, read from and written to delimited text.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/cognicore/biomap/pkg/biomap/internalerr"
)

// Table is a header plus rows of string cells. Every row has len(Header) cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// New creates an empty table with the given header.
func New(header ...string) *Table {
	return &Table{Header: append([]string(nil), header...)}
}

// ReadCSV reads a delimited file whose first record is the header.
// Short rows are padded with empty cells; long rows are an error.
func ReadCSV(r io.Reader, delim rune) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read header: %w", internalerr.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	t := New(header...)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(t.Rows)+1, err)
		}
		if err := t.AppendRow(rec); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// WriteCSV writes the header and all rows.
func (t *Table) WriteCSV(w io.Writer, delim rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = delim
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// AppendRow adds a row, padding it to the header width.
func (t *Table) AppendRow(row []string) error {
	if len(row) > len(t.Header) {
		return fmt.Errorf("row %d has %d cells, header has %d: %w", len(t.Rows)+1, len(row), len(t.Header), internalerr.ErrInvalidInput)
	}
	cells := make([]string, len(t.Header))
	copy(cells, row)
	t.Rows = append(t.Rows, cells)
	return nil
}

// Index returns the position of a named column, or -1.
func (t *Table) Index(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Column returns the values of a named column.
func (t *Table) Column(name string) ([]string, error) {
	idx := t.Index(name)
	if idx < 0 {
		return nil, fmt.Errorf("column %q: %w", name, internalerr.ErrNotFound)
	}
	values := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[idx]
	}
	return values, nil
}

// AppendColumn adds a column at the right edge.
func (t *Table) AppendColumn(name string, values []string) error {
	if len(values) != len(t.Rows) {
		return fmt.Errorf("column %q has %d values for %d rows: %w", name, len(values), len(t.Rows), internalerr.ErrInvalidInput)
	}
	if t.Index(name) >= 0 {
		return fmt.Errorf("column %q already exists: %w", name, internalerr.ErrInvalidInput)
	}
	t.Header = append(t.Header, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], values[i])
	}
	return nil
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}
