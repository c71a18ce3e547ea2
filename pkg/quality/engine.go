// pkg/quality/engine.go
package quality

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fulfillment-ops/order-ingress/pkg/config"
	"github.com/fulfillment-ops/order-ingress/pkg/model"
	"github.com/fulfillment-ops/order-ingress/pkg/normalize"
)

// Metric weights for the overall score. Metrics absent from a run are
// excluded from both sides of the weighted mean rather than scored as
// zero.
var metricWeights = map[string]float64{
	IssueCompleteness: 0.25,
	IssueUniqueness:   0.25,
	IssueConsistency:  0.20,
	IssueValidity:     0.20,
	IssueAccuracy:     0.10,
}

// ErrNoTable is returned when an Engine is constructed without input.
var ErrNoTable = errors.New("quality: no table to check")

// Engine runs the five quality checks over a snapshot of a table. The
// input is copied at construction and never mutated, so running the
// same engine twice produces reports with identical issues and scores.
type Engine struct {
	table      *model.Table
	thresholds config.QualityThresholds
	markers    []string
	logger     *zap.Logger

	issues          []Issue
	scores          map[string]float64
	recommendations []string
}

// NewEngine creates a quality engine over a copy of the table. The
// filter rules supply the order-number markers the validity check
// recognizes.
func NewEngine(t *model.Table, thresholds config.QualityThresholds, rules config.FilterRules, logger *zap.Logger) (*Engine, error) {
	if t == nil {
		return nil, ErrNoTable
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var markers []string
	markers = append(markers, rules.WSA.Patterns...)
	markers = append(markers, rules.Modoroso.Patterns...)

	return &Engine{
		table:      t.Copy(),
		thresholds: thresholds,
		markers:    markers,
		logger:     logger,
	}, nil
}

// Run executes every check in fixed order and assembles the report.
func (e *Engine) Run() *Report {
	e.logger.Info("Running all quality checks")

	e.issues = nil
	e.scores = make(map[string]float64)
	e.recommendations = nil

	e.checkCompleteness()
	e.checkUniqueness()
	e.checkConsistency()
	e.checkValidity()
	e.checkAccuracy()

	overall := e.overallScore()
	e.generateRecommendations()

	report := &Report{
		ID:              uuid.New().String(),
		OverallScore:    math.Round(overall*100) / 100,
		QualityLevel:    LevelForScore(overall),
		TotalIssues:     len(e.issues),
		CriticalIssues:  len(e.IssuesBySeverity(SeverityCritical)),
		WarningIssues:   len(e.IssuesBySeverity(SeverityWarning)),
		InfoIssues:      len(e.IssuesBySeverity(SeverityInfo)),
		Scores:          copyScores(e.scores),
		Issues:          append([]Issue(nil), e.issues...),
		Recommendations: append([]string(nil), e.recommendations...),
		CheckedAt:       time.Now(),
	}

	e.logger.Info("Quality check completed",
		zap.Float64("score", report.OverallScore),
		zap.Int("issues", report.TotalIssues))

	return report
}

// IssuesBySeverity returns the issues recorded at one severity.
func (e *Engine) IssuesBySeverity(severity Severity) []Issue {
	var out []Issue
	for _, issue := range e.issues {
		if issue.Severity == severity {
			out = append(out, issue)
		}
	}
	return out
}

// IssuesByColumn returns the issues recorded against one column.
func (e *Engine) IssuesByColumn(column string) []Issue {
	var out []Issue
	for _, issue := range e.issues {
		if issue.Column == column {
			out = append(out, issue)
		}
	}
	return out
}

// checkCompleteness scores each column by its non-null fraction and
// flags columns whose null fraction exceeds the threshold.
func (e *Engine) checkCompleteness() {
	if !e.thresholds.CheckNulls {
		return
	}

	totalRows := e.table.NumRows()
	var columnScores []float64

	for _, col := range e.table.Columns() {
		nullCount := 0
		var nullIndices []int
		for i := 0; i < totalRows; i++ {
			if model.IsNull(e.table.Value(i, col)) {
				nullCount++
				nullIndices = append(nullIndices, i)
			}
		}

		nullPct := 0.0
		if totalRows > 0 {
			nullPct = float64(nullCount) / float64(totalRows)
		}
		columnScores = append(columnScores, (1-nullPct)*100)

		if nullPct > e.thresholds.NullThreshold {
			severity := SeverityWarning
			if nullPct > 0.5 {
				severity = SeverityCritical
			}
			e.issues = append(e.issues, Issue{
				Column:          col,
				IssueType:       IssueCompleteness,
				Severity:        severity,
				Message:         fmt.Sprintf("%d null values (%.2f%%)", nullCount, nullPct*100),
				AffectedRows:    nullCount,
				AffectedIndices: nullIndices,
				Suggestion:      fmt.Sprintf("Consider filling null values in %q or removing rows with missing data", col),
			})
		}
	}

	e.scores[IssueCompleteness] = mean(columnScores, 100)
}

// checkUniqueness flags full-row duplicates above the threshold and
// scores the table by its unique fraction. A row is a duplicate when an
// earlier row renders identically across every column.
func (e *Engine) checkUniqueness() {
	if !e.thresholds.CheckDuplicates {
		return
	}

	totalRows := e.table.NumRows()
	seen := make(map[string]bool, totalRows)
	duplicateCount := 0
	var duplicateIndices []int

	for i := 0; i < totalRows; i++ {
		key := e.rowKey(i)
		if seen[key] {
			duplicateCount++
			duplicateIndices = append(duplicateIndices, i)
		} else {
			seen[key] = true
		}
	}

	duplicatePct := 0.0
	if totalRows > 0 {
		duplicatePct = float64(duplicateCount) / float64(totalRows)
	}

	if duplicatePct > e.thresholds.DuplicateThreshold {
		severity := SeverityWarning
		if duplicatePct > 0.2 {
			severity = SeverityCritical
		}
		e.issues = append(e.issues, Issue{
			Column:          ColumnAll,
			IssueType:       IssueUniqueness,
			Severity:        severity,
			Message:         fmt.Sprintf("%d duplicate rows (%.2f%%)", duplicateCount, duplicatePct*100),
			AffectedRows:    duplicateCount,
			AffectedIndices: duplicateIndices,
			Suggestion:      "Remove duplicate rows to improve data quality",
		})
	}

	e.scores[IssueUniqueness] = (1 - duplicatePct) * 100
}

// checkConsistency inspects text columns for mixed upper/lower casing
// and for values carrying leading or trailing whitespace.
func (e *Engine) checkConsistency() {
	for _, col := range e.textColumns() {
		values, indices := e.columnStrings(col)
		if len(values) == 0 {
			continue
		}

		upperCount, lowerCount := 0, 0
		for _, v := range values {
			if isUpperString(v) {
				upperCount++
			} else if isLowerString(v) {
				lowerCount++
			}
		}
		mixedCount := len(values) - upperCount - lowerCount

		if mixedCount > 0 && upperCount > 0 && lowerCount > 0 {
			e.issues = append(e.issues, Issue{
				Column:       col,
				IssueType:    IssueConsistency,
				Severity:     SeverityWarning,
				Message:      "Mixed case formatting detected",
				AffectedRows: mixedCount,
				Suggestion:   fmt.Sprintf("Standardize case formatting in %q", col),
			})
		}

		whitespaceCount := 0
		var whitespaceIndices []int
		for j, v := range values {
			if v != strings.TrimSpace(v) {
				whitespaceCount++
				whitespaceIndices = append(whitespaceIndices, indices[j])
			}
		}

		if whitespaceCount > 0 {
			e.issues = append(e.issues, Issue{
				Column:          col,
				IssueType:       IssueConsistency,
				Severity:        SeverityInfo,
				Message:         fmt.Sprintf("%d values with leading/trailing whitespace", whitespaceCount),
				AffectedRows:    whitespaceCount,
				AffectedIndices: whitespaceIndices,
				Suggestion:      fmt.Sprintf("Trim whitespace in %q", col),
			})
		}
	}

	e.scores[IssueConsistency] = penaltyScore(e.issueCount(IssueConsistency))
}

// checkValidity validates contact numbers, creation timestamps, and
// order-number marker presence.
func (e *Engine) checkValidity() {
	if e.thresholds.ValidatePhones && e.table.HasColumn(model.ColContact) {
		var invalid []int
		for i := 0; i < e.table.NumRows(); i++ {
			v := e.table.Value(i, model.ColContact)
			if model.IsNull(v) {
				continue
			}
			if !normalize.ValidatePhone(v) {
				invalid = append(invalid, i)
			}
		}
		if len(invalid) > 0 {
			e.issues = append(e.issues, Issue{
				Column:          model.ColContact,
				IssueType:       IssueValidity,
				Severity:        SeverityWarning,
				Message:         fmt.Sprintf("%d invalid phone numbers", len(invalid)),
				AffectedRows:    len(invalid),
				AffectedIndices: invalid,
				Suggestion:      "Validate and correct phone number format",
			})
		}
	}

	if e.thresholds.ValidateDates && e.table.HasColumn(model.ColDateCreated) {
		var invalid []int
		for i := 0; i < e.table.NumRows(); i++ {
			v := e.table.Value(i, model.ColDateCreated)
			if model.IsNull(v) {
				continue
			}
			if _, ok := normalize.ParseDate(v); !ok {
				invalid = append(invalid, i)
			}
		}
		if len(invalid) > 0 {
			e.issues = append(e.issues, Issue{
				Column:          model.ColDateCreated,
				IssueType:       IssueValidity,
				Severity:        SeverityWarning,
				Message:         fmt.Sprintf("%d invalid dates", len(invalid)),
				AffectedRows:    len(invalid),
				AffectedIndices: invalid,
				Suggestion:      "Validate and correct date format",
			})
		}
	}

	if e.table.HasColumn(model.ColOrderNo) && len(e.markers) > 0 {
		var invalid []int
		for i := 0; i < e.table.NumRows(); i++ {
			order := normalize.CleanString(e.table.Value(i, model.ColOrderNo), normalize.Uppercase())
			if !containsAnyMarker(order, e.markers) {
				invalid = append(invalid, i)
			}
		}
		if len(invalid) > 0 {
			e.issues = append(e.issues, Issue{
				Column:          model.ColOrderNo,
				IssueType:       IssueValidity,
				Severity:        SeverityInfo,
				Message:         fmt.Sprintf("%d orders without standard pattern", len(invalid)),
				AffectedRows:    len(invalid),
				AffectedIndices: invalid,
				Suggestion:      "Verify order number format",
			})
		}
	}

	e.scores[IssueValidity] = penaltyScore(e.issueCount(IssueValidity))
}

// checkAccuracy flags numeric columns where IQR outliers exceed 10% of
// the non-null values. Columns with fewer than ten numeric values are
// skipped.
func (e *Engine) checkAccuracy() {
	for _, col := range e.numericColumns() {
		values, indices := e.columnFloats(col)
		if len(values) < 10 {
			continue
		}

		sorted := append([]float64(nil), values...)
		sort.Float64s(sorted)
		q1 := quantile(sorted, 0.25)
		q3 := quantile(sorted, 0.75)
		iqr := q3 - q1
		lower := q1 - 1.5*iqr
		upper := q3 + 1.5*iqr

		outlierCount := 0
		var outlierIndices []int
		for j, v := range values {
			if v < lower || v > upper {
				outlierCount++
				outlierIndices = append(outlierIndices, indices[j])
			}
		}
		if outlierCount == 0 {
			continue
		}

		outlierPct := float64(outlierCount) / float64(len(values)) * 100
		if outlierPct > 10 {
			e.issues = append(e.issues, Issue{
				Column:          col,
				IssueType:       IssueAccuracy,
				Severity:        SeverityWarning,
				Message:         fmt.Sprintf("%d potential outliers (%.2f%%)", outlierCount, outlierPct),
				AffectedRows:    outlierCount,
				AffectedIndices: outlierIndices,
				Suggestion:      fmt.Sprintf("Review outliers in %q for data accuracy", col),
			})
		}
	}

	e.scores[IssueAccuracy] = penaltyScore(e.issueCount(IssueAccuracy))
}

func (e *Engine) overallScore() float64 {
	if len(e.scores) == 0 {
		return 0
	}

	totalScore, totalWeight := 0.0, 0.0
	for metric, weight := range metricWeights {
		if score, ok := e.scores[metric]; ok {
			totalScore += score * weight
			totalWeight += weight
		}
	}
	if totalWeight == 0 {
		return 0
	}
	return totalScore / totalWeight
}

func (e *Engine) generateRecommendations() {
	present := make(map[string]bool)
	for _, issue := range e.issues {
		present[issue.IssueType] = true
	}

	if present[IssueCompleteness] {
		e.recommendations = append(e.recommendations,
			"Fill missing values or consider removing rows with critical missing data")
	}
	if present[IssueUniqueness] {
		e.recommendations = append(e.recommendations,
			"Remove duplicate rows to ensure data uniqueness")
	}
	if present[IssueConsistency] {
		e.recommendations = append(e.recommendations,
			"Standardize formatting (case, whitespace) across all text columns")
	}
	if present[IssueValidity] {
		e.recommendations = append(e.recommendations,
			"Validate and correct data formats (phone numbers, dates, etc.)")
	}
	if present[IssueAccuracy] {
		e.recommendations = append(e.recommendations,
			"Review and verify outlier values for data accuracy")
	}

	if score, ok := e.scores[IssueCompleteness]; ok && score < 80 {
		e.recommendations = append(e.recommendations,
			"Focus on improving data completeness as it affects analysis quality")
	}
}

// FixCommonIssues returns a copy of the table with whitespace trimmed
// in text columns, contact numbers reduced to digits, and exact
// duplicate rows removed. The engine's own snapshot is untouched.
func (e *Engine) FixCommonIssues() *model.Table {
	t := e.table.Copy()

	for _, col := range e.textColumns() {
		for i := 0; i < t.NumRows(); i++ {
			if s, ok := t.Value(i, col).(string); ok {
				t.SetValue(i, col, strings.TrimSpace(s))
			}
		}
	}

	if t.HasColumn(model.ColContact) {
		for i := 0; i < t.NumRows(); i++ {
			v := t.Value(i, model.ColContact)
			if v == nil {
				continue
			}
			t.SetValue(i, model.ColContact, digitsOnly(fmt.Sprint(v)))
		}
	}

	seen := make(map[string]bool, t.NumRows())
	fixed := t.Filter(func(r model.Row) bool {
		key := renderRow(r, t.Columns())
		if seen[key] {
			return false
		}
		seen[key] = true
		return true
	})

	e.logger.Info("Fixed common issues",
		zap.Int("rowsBefore", e.table.NumRows()),
		zap.Int("rowsAfter", fixed.NumRows()))

	return fixed
}

// rowKey renders row i for full-row duplicate comparison.
func (e *Engine) rowKey(i int) string {
	return renderRow(e.table.Row(i), e.table.Columns())
}

func renderRow(r model.Row, columns []string) string {
	var b strings.Builder
	for _, col := range columns {
		fmt.Fprintf(&b, "%v\x1f", r[col])
	}
	return b.String()
}

// textColumns returns columns whose non-null values are all strings.
func (e *Engine) textColumns() []string {
	var out []string
	for _, col := range e.table.Columns() {
		hasString, hasOther := false, false
		for i := 0; i < e.table.NumRows(); i++ {
			v := e.table.Value(i, col)
			if v == nil {
				continue
			}
			if _, ok := v.(string); ok {
				hasString = true
			} else {
				hasOther = true
				break
			}
		}
		if hasString && !hasOther {
			out = append(out, col)
		}
	}
	return out
}

// numericColumns returns columns whose non-null values are all numeric.
func (e *Engine) numericColumns() []string {
	var out []string
	for _, col := range e.table.Columns() {
		hasNumber, hasOther := false, false
		for i := 0; i < e.table.NumRows(); i++ {
			v := e.table.Value(i, col)
			if v == nil {
				continue
			}
			if _, ok := asFloat(v); ok {
				hasNumber = true
			} else {
				hasOther = true
				break
			}
		}
		if hasNumber && !hasOther {
			out = append(out, col)
		}
	}
	return out
}

// columnStrings returns the non-null string values of a column together
// with their row indices.
func (e *Engine) columnStrings(col string) ([]string, []int) {
	var values []string
	var indices []int
	for i := 0; i < e.table.NumRows(); i++ {
		v := e.table.Value(i, col)
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			values = append(values, s)
			indices = append(indices, i)
		}
	}
	return values, indices
}

// columnFloats returns the non-null numeric values of a column together
// with their row indices.
func (e *Engine) columnFloats(col string) ([]float64, []int) {
	var values []float64
	var indices []int
	for i := 0; i < e.table.NumRows(); i++ {
		if f, ok := asFloat(e.table.Value(i, col)); ok {
			values = append(values, f)
			indices = append(indices, i)
		}
	}
	return values, indices
}

func (e *Engine) issueCount(issueType string) int {
	count := 0
	for _, issue := range e.issues {
		if issue.IssueType == issueType {
			count++
		}
	}
	return count
}

// penaltyScore deducts five points per issue, floored at zero.
func penaltyScore(issueCount int) float64 {
	score := 100 - float64(issueCount)*5
	if score < 0 {
		return 0
	}
	return score
}

func mean(values []float64, empty float64) float64 {
	if len(values) == 0 {
		return empty
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// quantile computes the q-quantile of sorted values with linear
// interpolation between the two nearest ranks.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := q * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}
	frac := pos - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func containsAnyMarker(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, strings.ToUpper(m)) {
			return true
		}
	}
	return false
}

// isUpperString mirrors the semantics of a fully-uppercase check: at
// least one cased character and no lowercase ones.
func isUpperString(s string) bool {
	hasCased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			hasCased = true
		}
	}
	return hasCased
}

// isLowerString is the lowercase counterpart of isUpperString.
func isLowerString(s string) bool {
	hasCased := false
	for _, r := range s {
		if unicode.IsUpper(r) {
			return false
		}
		if unicode.IsLower(r) {
			hasCased = true
		}
	}
	return hasCased
}
