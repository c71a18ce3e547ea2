// pkg/processor/verify.go
package processor

import (
	"fmt"

	"github.com/fulfillment-ops/order-ingress/pkg/model"
)

// VerifyStats checks that the recorded counters respect the pipeline's
// row-count monotonicity: stages only ever remove rows, so
// final <= unique <= filtered <= cleaned <= raw. A violation points at
// a stage that fabricated or lost rows.
func VerifyStats(stats model.ProcessingStats) error {
	chain := []struct {
		name  string
		value int
	}{
		{model.StatFinalRows, stats.Get(model.StatFinalRows)},
		{model.StatUniqueRows, stats.Get(model.StatUniqueRows)},
		{model.StatFilteredRows, stats.Get(model.StatFilteredRows)},
		{model.StatCleanedRows, stats.Get(model.StatCleanedRows)},
		{model.StatRawRows, stats.Get(model.StatRawRows)},
	}

	for i := 0; i < len(chain)-1; i++ {
		if chain[i].value > chain[i+1].value {
			return fmt.Errorf("row count verification failed: %s (%d) exceeds %s (%d)",
				chain[i].name, chain[i].value, chain[i+1].name, chain[i+1].value)
		}
	}
	return nil
}
