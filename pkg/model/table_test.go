// pkg/model/table_test.go
package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTable() *Table {
	t := NewTable([]string{"a", "b"})
	t.Append(Row{"a": "1", "b": "x"})
	t.Append(Row{"a": "2", "b": "y"})
	t.Append(Row{"a": "3", "b": "x"})
	return t
}

func TestTableCopyIsIndependent(t *testing.T) {
	orig := testTable()
	dup := orig.Copy()
	dup.SetValue(0, "a", "changed")

	assert.Equal(t, "1", orig.Value(0, "a"))
	assert.Equal(t, "changed", dup.Value(0, "a"))
}

func TestFilterPreservesOrder(t *testing.T) {
	tbl := testTable()
	kept := tbl.Filter(func(r Row) bool { return r["b"] == "x" })

	require.Equal(t, 2, kept.NumRows())
	assert.Equal(t, "1", kept.Value(0, "a"))
	assert.Equal(t, "3", kept.Value(1, "a"))
	// Source untouched.
	assert.Equal(t, 3, tbl.NumRows())
}

func TestSliceBounds(t *testing.T) {
	tbl := testTable()
	assert.Equal(t, 2, tbl.Slice(1, 3).NumRows())
	assert.Equal(t, 3, tbl.Slice(-1, 99).NumRows())
	assert.Equal(t, 0, tbl.Slice(2, 2).NumRows())
}

func TestConcatRegistersNewColumns(t *testing.T) {
	tbl := testTable()
	other := NewTable([]string{"a", "c"})
	other.Append(Row{"a": "4", "c": "new"})

	tbl.Concat(other)
	require.Equal(t, 4, tbl.NumRows())
	assert.True(t, tbl.HasColumn("c"))
	assert.Equal(t, "new", tbl.Value(3, "c"))
}

func TestSortByIsStable(t *testing.T) {
	tbl := NewTable([]string{"zone", "id"})
	tbl.Append(Row{"zone": "B", "id": "1"})
	tbl.Append(Row{"zone": "A", "id": "2"})
	tbl.Append(Row{"zone": "B", "id": "3"})
	tbl.Append(Row{"zone": nil, "id": "4"})

	tbl.SortBy("zone")

	// Nil sorts first; equal keys keep relative order.
	assert.Equal(t, "4", tbl.Value(0, "id"))
	assert.Equal(t, "2", tbl.Value(1, "id"))
	assert.Equal(t, "1", tbl.Value(2, "id"))
	assert.Equal(t, "3", tbl.Value(3, "id"))
}

func TestReorderKeepsExtras(t *testing.T) {
	tbl := NewTable([]string{"extra1", "b", "a", "extra2"})
	tbl.Reorder([]string{"a", "b", "not-present"})

	assert.Equal(t, []string{"a", "b", "extra1", "extra2"}, tbl.Columns())
}

func TestDropColumns(t *testing.T) {
	tbl := testTable()
	tbl.DropColumns("b", "missing")

	assert.Equal(t, []string{"a"}, tbl.Columns())
	assert.Nil(t, tbl.Row(0)["b"])
}

func TestIsNull(t *testing.T) {
	assert.True(t, IsNull(nil))
	assert.True(t, IsNull(""))
	assert.True(t, IsNull("   \t"))
	assert.False(t, IsNull("x"))
	assert.False(t, IsNull(0))
	assert.False(t, IsNull(0.0))
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModeModoroso, ParseMode("modoroso"))
	assert.Equal(t, ModeWAPPR, ParseMode(" WAPPR "))
	assert.Equal(t, ModeWSA, ParseMode("WSA"))
	assert.Equal(t, ModeWSA, ParseMode("anything else"))
}

func TestOutputColumnsPerMode(t *testing.T) {
	wsa := OutputColumns(ModeWSA)
	assert.Equal(t, ColContact, wsa[len(wsa)-1])
	assert.Equal(t, ColBookingDate, wsa[len(wsa)-2])

	modoroso := OutputColumns(ModeModoroso)
	assert.Equal(t, ColMitra, modoroso[len(modoroso)-1])
	assert.NotContains(t, modoroso, ColBookingDate)
}

func TestMissingColumns(t *testing.T) {
	tbl := NewTable([]string{ColOrderNo, ColWorkorder})
	missing := MissingColumns(tbl, RequiredColumns)
	assert.Contains(t, missing, ColDateCreated)
	assert.NotContains(t, missing, ColOrderNo)
}
