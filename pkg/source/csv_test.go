// pkg/source/csv_test.go
package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fulfillment-ops/order-ingress/pkg/model"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadCSV(t *testing.T) {
	path := writeCSV(t, "Workorder,Status\nWO-1,COMPLETED\nWO-2,WAPPR\n")

	tbl, err := ReadCSV(path, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{model.ColWorkorder, model.ColStatus}, tbl.Columns())
	require.Equal(t, 2, tbl.NumRows())
	assert.Equal(t, "WO-1", tbl.Value(0, model.ColWorkorder))
	assert.Equal(t, "WAPPR", tbl.Value(1, model.ColStatus))
}

func TestReadCSVShortRecords(t *testing.T) {
	path := writeCSV(t, "a,b,c\n1,2\n")

	tbl, err := ReadCSV(path, nil)
	require.NoError(t, err)
	require.Equal(t, 1, tbl.NumRows())
	assert.Equal(t, "2", tbl.Value(0, "b"))
	assert.Nil(t, tbl.Value(0, "c"))
}

func TestReadCSVEmptyFile(t *testing.T) {
	path := writeCSV(t, "")
	_, err := ReadCSV(path, nil)
	assert.Error(t, err)
}

func TestReadCSVMissingFile(t *testing.T) {
	_, err := ReadCSV("/nonexistent/orders.csv", nil)
	assert.Error(t, err)
}
