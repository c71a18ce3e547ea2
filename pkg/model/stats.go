// pkg/model/stats.go
package model

// ProcessingStats counter names. Each stage writes its counters exactly
// once on completion; counters are never decremented.
const (
	StatRawRows           = "raw_rows"
	StatRawColumns        = "raw_columns"
	StatCleanedRows       = "cleaned_rows"
	StatFilteredRows      = "filtered_rows"
	StatMonthFilteredRows = "month_filtered_rows"
	StatMonthFilteredOut  = "month_filtered_out"
	StatUniqueRows        = "unique_rows"
	StatDuplicatesRemoved = "duplicates_removed"
	StatFinalRows         = "final_rows"
)

// ProcessingStats accumulates per-stage row counters.
type ProcessingStats map[string]int

// Set records a counter value.
func (s ProcessingStats) Set(name string, value int) {
	s[name] = value
}

// Get returns a counter, zero when the stage has not run.
func (s ProcessingStats) Get(name string) int {
	return s[name]
}

// Copy returns an independent copy for callers that display stats while
// a pipeline owns the original.
func (s ProcessingStats) Copy() ProcessingStats {
	out := make(ProcessingStats, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
