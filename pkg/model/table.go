// pkg/model/table.go
package model

import (
	"fmt"
	"sort"
)

// Row maps a column name to a cell value. Cell values are one of
// string, float64, int64, time.Time or nil.
type Row map[string]interface{}

// Copy returns a shallow copy of the row.
func (r Row) Copy() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is an ordered collection of rows with a tracked column order.
// The column set is dynamic: upstream data defines it, stages may add
// working columns. Relative row order is preserved by every operation
// except an explicit sort.
type Table struct {
	columns []string
	rows    []Row
}

// NewTable creates an empty table with the given column order.
func NewTable(columns []string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{columns: cols}
}

// Columns returns a copy of the column order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	return len(t.rows)
}

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int {
	return len(t.columns)
}

// HasColumn reports whether the column exists.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.columns {
		if c == name {
			return true
		}
	}
	return false
}

// AddColumn registers a column at the end of the column order.
// Adding an existing column is a no-op.
func (t *Table) AddColumn(name string) {
	if !t.HasColumn(name) {
		t.columns = append(t.columns, name)
	}
}

// Append adds a row. Columns present in the row but not yet in the
// column order are registered in iteration-independent fashion by the
// caller; Append itself does not grow the column set.
func (t *Table) Append(row Row) {
	t.rows = append(t.rows, row)
}

// Row returns the row at index i. The returned map aliases table
// storage; callers that mutate it mutate the table.
func (t *Table) Row(i int) Row {
	return t.rows[i]
}

// Value returns the cell at (i, column), nil when the column is absent.
func (t *Table) Value(i int, column string) interface{} {
	return t.rows[i][column]
}

// SetValue sets the cell at (i, column). The column must already be
// registered via AddColumn for it to appear in the output order.
func (t *Table) SetValue(i int, column string, v interface{}) {
	t.rows[i][column] = v
}

// Copy returns a deep copy of the table (rows copied, cells shared).
func (t *Table) Copy() *Table {
	out := NewTable(t.columns)
	out.rows = make([]Row, 0, len(t.rows))
	for _, r := range t.rows {
		out.rows = append(out.rows, r.Copy())
	}
	return out
}

// Filter returns a new table containing the rows for which keep
// returns true, preserving relative order.
func (t *Table) Filter(keep func(Row) bool) *Table {
	out := NewTable(t.columns)
	for _, r := range t.rows {
		if keep(r) {
			out.rows = append(out.rows, r.Copy())
		}
	}
	return out
}

// Slice returns a copy of the row range [from, to).
func (t *Table) Slice(from, to int) *Table {
	if from < 0 {
		from = 0
	}
	if to > len(t.rows) {
		to = len(t.rows)
	}
	out := NewTable(t.columns)
	for _, r := range t.rows[from:to] {
		out.rows = append(out.rows, r.Copy())
	}
	return out
}

// Concat appends all rows of other, registering any new columns at the
// end of the column order.
func (t *Table) Concat(other *Table) {
	for _, c := range other.columns {
		t.AddColumn(c)
	}
	for _, r := range other.rows {
		t.rows = append(t.rows, r.Copy())
	}
}

// SortBy stably sorts rows by the string form of a column. Nil cells
// sort first.
func (t *Table) SortBy(column string) {
	sort.SliceStable(t.rows, func(i, j int) bool {
		return stringCell(t.rows[i][column]) < stringCell(t.rows[j][column])
	})
}

// Reorder rearranges the column order so target columns that exist come
// first, in target order, followed by the remaining columns in their
// original order. No column is dropped.
func (t *Table) Reorder(target []string) {
	inTarget := make(map[string]bool, len(target))
	ordered := make([]string, 0, len(t.columns))
	for _, c := range target {
		if t.HasColumn(c) {
			ordered = append(ordered, c)
			inTarget[c] = true
		}
	}
	for _, c := range t.columns {
		if !inTarget[c] {
			ordered = append(ordered, c)
		}
	}
	t.columns = ordered
}

// DropColumns removes the named columns from the order and from every
// row. Missing names are ignored.
func (t *Table) DropColumns(names ...string) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	kept := t.columns[:0]
	for _, c := range t.columns {
		if !drop[c] {
			kept = append(kept, c)
		}
	}
	t.columns = kept
	for _, r := range t.rows {
		for n := range drop {
			delete(r, n)
		}
	}
}

// IsNull reports whether a cell value counts as missing: nil, or a
// string that is empty after trimming.
func IsNull(v interface{}) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		for _, c := range s {
			if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
				return false
			}
		}
		return true
	}
	return false
}

func stringCell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}
