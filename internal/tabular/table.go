package tabular

import (
	"fmt"
	"strings"

	"github.com/fieldline/paydesk/internal/config"
)

// Table is the backend's columnar row encoding: every row in Data is a
// positional array whose meaning is resolved by looking up a column name
// in Headers.
type Table struct {
	Success bool       `json:"success"`
	Headers []string   `json:"headers"`
	Data    [][]string `json:"data"`
	Count   int        `json:"count"`
}

// Validate checks the table's structural invariants: Count matches the
// number of rows and every row has exactly one cell per header. A row that
// disagrees with Headers is rejected outright rather than padded with
// blanks.
func (t Table) Validate() error {
	if t.Count != len(t.Data) {
		return fmt.Errorf("%w: count is %d but table has %d rows", config.ErrTableShape, t.Count, len(t.Data))
	}
	for i, row := range t.Data {
		if len(row) != len(t.Headers) {
			return fmt.Errorf("%w: row %d has %d cells, expected %d", config.ErrTableShape, i, len(row), len(t.Headers))
		}
	}
	return nil
}

// Decoder resolves named columns against a validated table. Required
// columns are checked once at construction so per-row reads cannot fail.
type Decoder struct {
	index map[string]int
	rows  [][]string
}

// NewDecoder validates the table shape and verifies every required column
// exists. A missing required column is an error, never a silent default.
func NewDecoder(t Table, required ...string) (*Decoder, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	index := make(map[string]int, len(t.Headers))
	for i, h := range t.Headers {
		index[h] = i
	}

	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: %q not in headers %v", config.ErrMissingColumn, col, t.Headers)
		}
	}

	return &Decoder{index: index, rows: t.Data}, nil
}

// Rows returns the table's data rows.
func (d *Decoder) Rows() [][]string {
	return d.rows
}

// Value returns the cell of row under the named column, or "" when the
// column does not exist. Use NewDecoder's required list for columns that
// must be present.
func (d *Decoder) Value(row []string, column string) string {
	i, ok := d.index[column]
	if !ok {
		return ""
	}
	return row[i]
}

// RowsByColumn returns a new table containing only the rows whose cell in
// the named column equals value (after whitespace trimming on both sides).
// The column must exist.
func RowsByColumn(t Table, column, value string) (Table, error) {
	dec, err := NewDecoder(t, column)
	if err != nil {
		return Table{}, err
	}

	want := strings.TrimSpace(value)
	var matched [][]string
	for _, row := range dec.Rows() {
		if strings.TrimSpace(dec.Value(row, column)) == want {
			matched = append(matched, row)
		}
	}

	return Table{
		Success: true,
		Headers: t.Headers,
		Data:    matched,
		Count:   len(matched),
	}, nil
}
