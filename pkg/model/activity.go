// pkg/model/activity.go
package model

import "time"

// ActivityEntry is a single audit record of a pipeline run, persisted
// to the order registry's activity log.
type ActivityEntry struct {
	Mode       Mode      // rule set that produced the run
	Action     string    // e.g. "process", "quality_check"
	Rows       int       // rows affected
	Detail     string    // free-form description
	RecordedAt time.Time // set by the store when empty
}

// NewActivityEntry builds an entry stamped with the current time.
func NewActivityEntry(mode Mode, action string, rows int, detail string) ActivityEntry {
	return ActivityEntry{
		Mode:       mode,
		Action:     action,
		Rows:       rows,
		Detail:     detail,
		RecordedAt: time.Now(),
	}
}
