// pkg/quality/report.go
package quality

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Report is the immutable result of one quality run. Two runs over the
// same table produce identical reports up to ID and CheckedAt.
type Report struct {
	ID              string
	OverallScore    float64
	QualityLevel    Level
	TotalIssues     int
	CriticalIssues  int
	WarningIssues   int
	InfoIssues      int
	Scores          map[string]float64
	Issues          []Issue
	Recommendations []string
	CheckedAt       time.Time
}

// SummaryCard condenses a report into the handful of fields a status
// display needs.
type SummaryCard struct {
	Score          float64
	Status         string
	Color          string
	TotalIssues    int
	CriticalIssues int
	QualityLevel   Level
}

// Summary builds the display card for the report.
func (r *Report) Summary() SummaryCard {
	status, color := "Needs Improvement", "#ff4b4b"
	switch {
	case r.OverallScore >= 80:
		status, color = "Excellent", "#00ff88"
	case r.OverallScore >= 60:
		status, color = "Good", "#ffaa00"
	}

	return SummaryCard{
		Score:          r.OverallScore,
		Status:         status,
		Color:          color,
		TotalIssues:    r.TotalIssues,
		CriticalIssues: r.CriticalIssues,
		QualityLevel:   r.QualityLevel,
	}
}

// DetailedReport renders the report as a plain-text document.
func (r *Report) DetailedReport() string {
	var b strings.Builder
	rule := strings.Repeat("=", 60)

	fmt.Fprintf(&b, `
%s
DATA QUALITY REPORT
%s

Overall Score: %.2f/100
Quality Level: %s
Total Issues: %d
  - Critical: %d
  - Warning: %d
  - Info: %d

%s
DETAILED SCORES
%s
`, rule, rule, r.OverallScore, strings.ToUpper(string(r.QualityLevel)),
		r.TotalIssues, r.CriticalIssues, r.WarningIssues, r.InfoIssues, rule, rule)

	metrics := make([]string, 0, len(r.Scores))
	for metric := range r.Scores {
		metrics = append(metrics, metric)
	}
	sort.Strings(metrics)
	for _, metric := range metrics {
		fmt.Fprintf(&b, "  %-15s: %.2f/100\n", capitalize(metric), r.Scores[metric])
	}

	fmt.Fprintf(&b, "\n%s\nISSUES FOUND\n%s\n", rule, rule)

	if len(r.Issues) > 0 {
		for _, issue := range r.Issues {
			fmt.Fprintf(&b, `
[%s] %s
  Column: %s
  Message: %s
  Affected Rows: %d
  Suggestion: %s
`, strings.ToUpper(string(issue.Severity)), strings.ToUpper(issue.IssueType),
				issue.Column, issue.Message, issue.AffectedRows, issue.Suggestion)
		}
	} else {
		b.WriteString("\nNo issues found! Data quality is excellent.\n")
	}

	fmt.Fprintf(&b, "\n%s\nRECOMMENDATIONS\n%s\n", rule, rule)

	if len(r.Recommendations) > 0 {
		for i, rec := range r.Recommendations {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, rec)
		}
	} else {
		b.WriteString("\nNo recommendations needed.\n")
	}

	fmt.Fprintf(&b, "\n%s\n", rule)

	return b.String()
}

func copyScores(scores map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(scores))
	for k, v := range scores {
		out[k] = v
	}
	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
