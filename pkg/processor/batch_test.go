// pkg/processor/batch_test.go
package processor

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fulfillment-ops/order-ingress/pkg/config"
	"github.com/fulfillment-ops/order-ingress/pkg/model"
)

func TestBatchMatchesSingleRun(t *testing.T) {
	tbl := model.NewTable(orderColumns())
	for i := 0; i < 25; i++ {
		tbl.Append(orderRow(fmt.Sprintf("AO%03d", i), "CREATE"))
	}
	tbl.Append(orderRow("SKIPPED", "CREATE"))

	single := wsaProcessor()
	singleResult, err := single.Process(tbl.Copy(), nil, []string{"AO003"})
	require.NoError(t, err)

	batch := NewBatchProcessor(model.ModeWSA, config.DefaultRules(), nil).WithChunkSize(7)
	batchResult, stats, chunkErrors := batch.ProcessChunks(tbl, nil, []string{"AO003"})

	assert.Empty(t, chunkErrors)
	assert.Equal(t, singleResult.NumRows(), batchResult.NumRows())
	assert.Equal(t, single.Stats().Get(model.StatFinalRows), stats.Get(model.StatFinalRows))
	assert.Equal(t, single.Stats().Get(model.StatDuplicatesRemoved), stats.Get(model.StatDuplicatesRemoved))
}

func TestBatchEmptyTable(t *testing.T) {
	tbl := model.NewTable(orderColumns())

	batch := NewBatchProcessor(model.ModeWSA, config.DefaultRules(), nil)
	result, stats, chunkErrors := batch.ProcessChunks(tbl, nil, nil)

	assert.Empty(t, chunkErrors)
	assert.Equal(t, 0, result.NumRows())
	assert.Equal(t, 0, stats.Get(model.StatFinalRows))
}

func TestChunkErrorFormatting(t *testing.T) {
	ce := ChunkError{ChunkID: "abc", ChunkIndex: 2, Rows: 7, Err: ErrNotCleaned}
	assert.Contains(t, ce.Error(), "chunk 2")
	assert.ErrorIs(t, &ce, ErrNotCleaned)
}
