// pkg/processor/summary.go
package processor

import (
	"fmt"

	"github.com/fulfillment-ops/order-ingress/pkg/model"
)

// SummaryReport renders the run counters as a text report.
func SummaryReport(mode model.Mode, stats model.ProcessingStats) string {
	raw := stats.Get(model.StatRawRows)
	final := stats.Get(model.StatFinalRows)

	retention := 0.0
	if raw > 0 {
		retention = float64(final) / float64(raw) * 100
	}

	return fmt.Sprintf(`
Processing Summary
==================
Mode:                %s

Row Counts
----------
Raw Rows:            %d
Cleaned Rows:        %d
Filtered Rows:       %d
Month Filtered:      %d (removed: %d)
Unique Rows:         %d
Duplicates Removed:  %d
Final Rows:          %d

Retention:           %.1f%%
`,
		mode,
		raw,
		stats.Get(model.StatCleanedRows),
		stats.Get(model.StatFilteredRows),
		stats.Get(model.StatMonthFilteredRows),
		stats.Get(model.StatMonthFilteredOut),
		stats.Get(model.StatUniqueRows),
		stats.Get(model.StatDuplicatesRemoved),
		final,
		retention,
	)
}
