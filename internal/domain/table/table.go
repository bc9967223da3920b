// Package table holds the in-memory tabular form shared by every stage:
// ordered named columns over string cells, with numeric accessors,
// explicit schema checks and key joins.
package table

import (
	"fmt"
	"strings"

	"github.com/okian/kabaddi/internal/domain/model"
)

// Table is an ordered set of named columns over string rows.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string

	index map[string]int
}

// New creates an empty table with the given columns.
func New(name string, columns ...string) *Table {
	t := &Table{Name: name, Columns: append([]string(nil), columns...)}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		if _, dup := t.index[c]; !dup {
			t.index[c] = i
		}
	}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Append adds a row; short rows are padded with empty cells.
func (t *Table) Append(cells ...string) {
	row := make([]string, len(t.Columns))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
}

// Has reports whether the column exists.
func (t *Table) Has(column string) bool {
	_, ok := t.index[column]
	return ok
}

// Index returns the position of column, or -1.
func (t *Table) Index(column string) int {
	if i, ok := t.index[column]; ok {
		return i
	}
	return -1
}

// Value returns the cell at row r in column, "" when the column is absent.
func (t *Table) Value(r int, column string) string {
	i := t.Index(column)
	if i < 0 || i >= len(t.Rows[r]) {
		return ""
	}
	return t.Rows[r][i]
}

// Float returns the numeric value of a cell and whether it parsed.
func (t *Table) Float(r int, column string) (float64, bool) {
	return model.ToFloat(t.Value(r, column))
}

// FloatOrZero returns the numeric value of a cell, 0 when missing or not numeric.
func (t *Table) FloatOrZero(r int, column string) float64 {
	f, _ := t.Float(r, column)
	return f
}

// Set writes a cell, adding the column when needed.
func (t *Table) Set(r int, column, value string) {
	i := t.Index(column)
	if i < 0 {
		t.AddColumn(column)
		i = len(t.Columns) - 1
	}
	t.Rows[r][i] = value
}

// AddColumn appends an empty column.
func (t *Table) AddColumn(column string) {
	t.Columns = append(t.Columns, column)
	for r := range t.Rows {
		t.Rows[r] = append(t.Rows[r], "")
	}
	t.reindex()
}

// Column returns a copy of every cell in column.
func (t *Table) Column(column string) ([]string, error) {
	i := t.Index(column)
	if i < 0 {
		return nil, fmt.Errorf("%w: %q in %q", ErrUnknownColumn, column, t.Name)
	}
	out := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		if i < len(row) {
			out[r] = row[i]
		}
	}
	return out, nil
}

// Require checks that every column is present and reports all missing ones.
func (t *Table) Require(columns ...string) error {
	var missing []string
	for _, c := range columns {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Table: t.Name, Missing: missing}
	}
	return nil
}

// Rename renames columns found in mapping; unknown keys are ignored.
func (t *Table) Rename(mapping map[string]string) {
	for i, c := range t.Columns {
		if to, ok := mapping[c]; ok {
			t.Columns[i] = to
		}
	}
	t.reindex()
}

// NormalizeHeaders trims, lower-cases and replaces spaces with underscores.
func (t *Table) NormalizeHeaders() {
	for i, c := range t.Columns {
		t.Columns[i] = NormalizeHeader(c)
	}
	t.reindex()
}

// NormalizeHeader is the header form every stage agrees on.
func NormalizeHeader(c string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(c)), " ", "_")
}

// Map rewrites every cell of column through fn.
func (t *Table) Map(column string, fn func(string) string) error {
	i := t.Index(column)
	if i < 0 {
		return fmt.Errorf("%w: %q in %q", ErrUnknownColumn, column, t.Name)
	}
	for _, row := range t.Rows {
		row[i] = fn(row[i])
	}
	return nil
}

// Select returns a new table with only the named columns, in that order.
func (t *Table) Select(name string, columns ...string) (*Table, error) {
	if err := t.Require(columns...); err != nil {
		return nil, err
	}
	out := New(name, columns...)
	idx := make([]int, len(columns))
	for i, c := range columns {
		idx[i] = t.Index(c)
	}
	for _, row := range t.Rows {
		cells := make([]string, len(columns))
		for i, j := range idx {
			cells[i] = row[j]
		}
		out.Rows = append(out.Rows, cells)
	}
	return out, nil
}

// Clone returns a deep copy under a new name.
func (t *Table) Clone(name string) *Table {
	out := New(name, t.Columns...)
	out.Rows = make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		out.Rows[r] = append([]string(nil), row...)
	}
	return out
}
