// Package sheet defines the record store the canteen runs on: named tables of string cells
// with a header row, as found in a spreadsheet.
package sheet

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// Table names
const (
	Students   = "Students"
	Staff      = "Staff"
	Menu       = "Menu"
	Orders     = "Orders"
	Teachers   = "Teachers"
	Feedback   = "Feedback"
	UserHealth = "UserHealth"
)

var (
	ErrTableNotFound = errors.New("table not found")
	ErrRowOutOfRange = errors.New("row index out of range")
)

type (
	// Store is any backend able to hold tables: a workbook, a remote spreadsheet or a database.
	// Row indexes are 0-based and exclude the header row.
	Store interface {
		Tables(ctx context.Context) ([]string, error)
		Get(ctx context.Context, name string) (*Table, error)
		// Ensure creates the table when missing and appends the columns of `header` it lacks.
		Ensure(ctx context.Context, name string, header []string) error
		Append(ctx context.Context, name string, row []string) error
		UpdateRow(ctx context.Context, name string, index int, row []string) error
		UpdateCell(ctx context.Context, name string, index, column int, value string) error
		// Clear deletes every data row, keeping the header.
		Clear(ctx context.Context, name string) error
	}

	Table struct {
		Name   string
		Header []string
		Rows   [][]string
	}

	// Record is a row keyed by normalized column name.
	Record map[string]string
)

// Normalize makes column names comparable: "Staff ID", "staff_id" and "staffId" all match.
func Normalize(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch r {
		case ' ', '_', '-', '\t':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Column returns the index of the first header matching one of `aliases`, or -1.
func (t *Table) Column(aliases ...string) int {
	if t == nil {
		return -1
	}
	for _, alias := range aliases {
		want := Normalize(alias)
		for i, h := range t.Header {
			if Normalize(h) == want {
				return i
			}
		}
	}
	return -1
}

// HeaderFor returns the header name matching `aliases`, or the first alias when none matches.
func (t *Table) HeaderFor(aliases ...string) string {
	if col := t.Column(aliases...); col >= 0 {
		return t.Header[col]
	}
	if len(aliases) > 0 {
		return aliases[0]
	}
	return ""
}

// Cell returns the trimmed value at (row, col); short rows read as empty cells.
func (t *Table) Cell(row, col int) string {
	if t == nil || row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][col])
}

// Value returns the cell of the first column matching `aliases` in the given row.
func (t *Table) Value(row int, aliases ...string) string {
	return t.Cell(row, t.Column(aliases...))
}

// Find returns the index of the first row whose value for `aliases` equals `val`, or -1.
func (t *Table) Find(val string, aliases ...string) int {
	col := t.Column(aliases...)
	if col < 0 {
		return -1
	}
	val = strings.TrimSpace(val)
	for i := range t.Rows {
		if t.Cell(i, col) == val {
			return i
		}
	}
	return -1
}

// FindFold is Find with case-insensitive matching.
func (t *Table) FindFold(val string, aliases ...string) int {
	col := t.Column(aliases...)
	if col < 0 {
		return -1
	}
	val = strings.TrimSpace(val)
	for i := range t.Rows {
		if strings.EqualFold(t.Cell(i, col), val) {
			return i
		}
	}
	return -1
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Record returns the row at `index` keyed by normalized header.
func (t *Table) Record(index int) Record {
	rec := make(Record, len(t.Header))
	for col, h := range t.Header {
		rec[Normalize(h)] = t.Cell(index, col)
	}
	return rec
}

func (t *Table) Records() []Record {
	recs := make([]Record, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		recs = append(recs, t.Record(i))
	}
	return recs
}

// Row builds a row following the table header from values keyed by column name.
// Columns absent from the header are dropped.
func (t *Table) Row(values map[string]string) []string {
	row := make([]string, len(t.Header))
	for name, val := range values {
		if col := t.Column(name); col >= 0 {
			row[col] = val
		}
	}
	return row
}

// Get returns the first non-empty value among `aliases`.
func (r Record) Get(aliases ...string) string {
	for _, alias := range aliases {
		if val := strings.TrimSpace(r[Normalize(alias)]); val != "" {
			return val
		}
	}
	return ""
}

// Load reads a table and treats a missing one as empty.
func Load(ctx context.Context, store Store, name string) (*Table, error) {
	t, err := store.Get(ctx, name)
	if err != nil {
		if errors.Cause(err) == ErrTableNotFound {
			return &Table{Name: name}, nil
		}
		return nil, errors.Wrapf(err, "reading %s", name)
	}
	return t, nil
}
