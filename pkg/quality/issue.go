// pkg/quality/issue.go
package quality

// Severity classifies how serious a detected issue is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Issue categories, one per check.
const (
	IssueCompleteness = "completeness"
	IssueUniqueness   = "uniqueness"
	IssueConsistency  = "consistency"
	IssueValidity     = "validity"
	IssueAccuracy     = "accuracy"
)

// ColumnAll is the column sentinel for issues spanning the whole table.
const ColumnAll = "all"

// Issue describes one detected quality condition. Issues are immutable
// once appended to a report.
type Issue struct {
	Column          string
	IssueType       string
	Severity        Severity
	Message         string
	AffectedRows    int
	AffectedIndices []int
	Suggestion      string
}

// Level buckets an overall score into a coarse quality grade.
type Level string

const (
	LevelExcellent Level = "excellent"
	LevelGood      Level = "good"
	LevelFair      Level = "fair"
	LevelPoor      Level = "poor"
	LevelCritical  Level = "critical"
)

// LevelForScore maps a 0-100 score to its quality level.
func LevelForScore(score float64) Level {
	switch {
	case score >= 90:
		return LevelExcellent
	case score >= 75:
		return LevelGood
	case score >= 60:
		return LevelFair
	case score >= 40:
		return LevelPoor
	default:
		return LevelCritical
	}
}
