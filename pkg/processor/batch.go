// pkg/processor/batch.go
package processor

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fulfillment-ops/order-ingress/pkg/config"
	"github.com/fulfillment-ops/order-ingress/pkg/model"
)

// ChunkError records a failed chunk. Chunks are independent, so one
// failure is collected here rather than aborting the batch.
type ChunkError struct {
	ChunkID    string
	ChunkIndex int
	Rows       int
	Err        error
}

// Error implements the error interface.
func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d (%s, %d rows): %v", e.ChunkIndex, e.ChunkID, e.Rows, e.Err)
}

// Unwrap returns the underlying error.
func (e *ChunkError) Unwrap() error {
	return e.Err
}

// BatchProcessor runs the pipeline over fixed-size row slices of a
// large table, one independent Processor per chunk, and concatenates
// the surviving rows. Chunks run sequentially; a failed chunk is
// recorded and skipped without affecting its siblings.
type BatchProcessor struct {
	mode       model.Mode
	rules      config.FilterRules
	chunkSize  int
	sortColumn string
	logger     *zap.Logger
}

// NewBatchProcessor creates a batch runner with the default chunk size.
func NewBatchProcessor(mode model.Mode, rules config.FilterRules, logger *zap.Logger) *BatchProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchProcessor{
		mode:      mode,
		rules:     rules,
		chunkSize: 1000,
		logger:    logger.With(zap.String("mode", string(mode))),
	}
}

// WithChunkSize sets the number of rows per chunk.
func (b *BatchProcessor) WithChunkSize(size int) *BatchProcessor {
	if size > 0 {
		b.chunkSize = size
	}
	return b
}

// WithSortColumn overrides the finalize sort key used by each chunk.
func (b *BatchProcessor) WithSortColumn(column string) *BatchProcessor {
	b.sortColumn = column
	return b
}

// ProcessChunks runs the full pipeline on each chunk of the table and
// returns the concatenated result together with any per-chunk errors.
// The combined stats sum the per-chunk counters.
func (b *BatchProcessor) ProcessChunks(t *model.Table, months []int, existingIDs []string) (*model.Table, model.ProcessingStats, []ChunkError) {
	start := time.Now()
	total := t.NumRows()
	combined := make(model.ProcessingStats)

	var result *model.Table
	var chunkErrors []ChunkError

	b.logger.Info("Starting batch processing",
		zap.Int("totalRows", total),
		zap.Int("chunkSize", b.chunkSize))

	for index, offset := 0, 0; offset < total; index, offset = index+1, offset+b.chunkSize {
		end := offset + b.chunkSize
		if end > total {
			end = total
		}
		chunk := t.Slice(offset, end)
		chunkID := uuid.New().String()

		proc := New(b.mode, b.rules, b.logger.With(zap.String("chunkID", chunkID))).
			WithSortColumn(b.sortColumn)

		processed, err := proc.Process(chunk, months, existingIDs)
		if err != nil {
			b.logger.Error("Chunk processing failed",
				zap.String("chunkID", chunkID),
				zap.Int("chunkIndex", index),
				zap.Error(err))
			chunkErrors = append(chunkErrors, ChunkError{
				ChunkID:    chunkID,
				ChunkIndex: index,
				Rows:       chunk.NumRows(),
				Err:        err,
			})
			continue
		}

		for key, value := range proc.Stats() {
			combined.Set(key, combined.Get(key)+value)
		}

		if result == nil {
			result = processed
		} else {
			result.Concat(processed)
		}
	}

	if result == nil {
		result = model.NewTable(t.Columns())
	}

	b.logger.Info("Batch processing completed",
		zap.Int("resultRows", result.NumRows()),
		zap.Int("failedChunks", len(chunkErrors)),
		zap.Duration("elapsed", time.Since(start)))

	return result, combined, chunkErrors
}
