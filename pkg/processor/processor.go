// pkg/processor/processor.go
package processor

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fulfillment-ops/order-ingress/pkg/config"
	"github.com/fulfillment-ops/order-ingress/pkg/model"
	"github.com/fulfillment-ops/order-ingress/pkg/normalize"
)

// Stage identifies how far a pipeline run has progressed. Stages are
// strictly ordered; invoking an operation before its predecessor has
// completed is a precondition violation.
type Stage int

const (
	StageNone Stage = iota
	StageLoaded
	StageCleaned
	StageFiltered
	StageDeduplicated
	StageFinalized
)

// String returns a human-readable stage name.
func (s Stage) String() string {
	switch s {
	case StageNone:
		return "none"
	case StageLoaded:
		return "loaded"
	case StageCleaned:
		return "cleaned"
	case StageFiltered:
		return "filtered"
	case StageDeduplicated:
		return "deduplicated"
	case StageFinalized:
		return "finalized"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// Precondition errors. Each names the stage that must complete first.
var (
	ErrNotLoaded    = errors.New("no data loaded: call Load first")
	ErrNotCleaned   = errors.New("data not cleaned: call CleanCommon first")
	ErrNotFiltered  = errors.New("data not filtered: call FilterByMode first")
	ErrNotProcessed = errors.New("data not deduplicated: call RemoveDuplicates first")
)

// Processor drives a single pipeline run over one table:
// Load -> CleanCommon -> FilterByMode -> FilterByMonths (optional) ->
// RemoveDuplicates -> Finalize. Each stage records its counters once on
// completion. The Processor owns its working copy of the table; the
// caller's input is never mutated.
type Processor struct {
	mode       model.Mode
	rules      config.FilterRules
	sortColumn string
	logger     *zap.Logger

	stage Stage
	table *model.Table
	final *model.Table
	stats model.ProcessingStats
}

// New creates a Processor for one pipeline run.
func New(mode model.Mode, rules config.FilterRules, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		mode:       mode,
		rules:      rules,
		sortColumn: model.ColWorkzone,
		logger:     logger.With(zap.String("mode", string(mode))),
		stats:      make(model.ProcessingStats),
	}
}

// WithSortColumn overrides the finalize sort key and returns the
// processor.
func (p *Processor) WithSortColumn(column string) *Processor {
	if column != "" {
		p.sortColumn = column
	}
	return p
}

// Mode returns the processor's rule set selector.
func (p *Processor) Mode() model.Mode {
	return p.mode
}

// KeyColumn returns the business-key column used for deduplication:
// the primary order identifier for WSA, the workorder for the others.
func (p *Processor) KeyColumn() string {
	if p.mode == model.ModeWSA {
		return model.ColOrderNo
	}
	return model.ColWorkorder
}

// Stats returns a copy of the accumulated counters.
func (p *Processor) Stats() model.ProcessingStats {
	return p.stats.Copy()
}

// Load copies the raw table into the processor and records the raw
// row/column counts.
func (p *Processor) Load(t *model.Table) *Processor {
	p.table = t.Copy()
	p.stats.Set(model.StatRawRows, p.table.NumRows())
	p.stats.Set(model.StatRawColumns, p.table.NumColumns())
	p.stage = StageLoaded

	p.logger.Info("Loaded raw data",
		zap.Int("rows", p.table.NumRows()),
		zap.Int("columns", p.table.NumColumns()))

	if missing := model.MissingColumns(p.table, []string{p.KeyColumn(), model.ColDateCreated}); len(missing) > 0 {
		p.logger.Warn("Load-bearing columns absent, dependent stages will degrade",
			zap.Strings("columns", missing))
	}

	return p
}

// CleanCommon applies the column-scoped normalizations shared by all
// modes: workorder and order-number cleaning, booking-date truncation,
// contact normalization, and creation-timestamp parsing into the
// working columns. Missing columns are skipped.
func (p *Processor) CleanCommon() error {
	if p.stage < StageLoaded {
		return ErrNotLoaded
	}

	t := p.table

	if t.HasColumn(model.ColWorkorder) {
		for i := 0; i < t.NumRows(); i++ {
			t.SetValue(i, model.ColWorkorder, normalize.CleanString(t.Value(i, model.ColWorkorder)))
		}
	}

	if t.HasColumn(model.ColBookingDate) {
		for i := 0; i < t.NumRows(); i++ {
			s := normalize.CleanString(t.Value(i, model.ColBookingDate))
			if dot := strings.IndexByte(s, '.'); dot >= 0 {
				s = s[:dot]
			}
			t.SetValue(i, model.ColBookingDate, s)
		}
	}

	if t.HasColumn(model.ColDateCreated) {
		t.AddColumn(model.ColDateCreatedParsed)
		t.AddColumn(model.ColDateCreatedDisplay)
		for i := 0; i < t.NumRows(); i++ {
			if parsed, ok := normalize.ParseDate(t.Value(i, model.ColDateCreated)); ok {
				t.SetValue(i, model.ColDateCreatedParsed, parsed)
				t.SetValue(i, model.ColDateCreatedDisplay, normalize.FormatDate(parsed, normalize.DisplayDateFormat))
			} else {
				t.SetValue(i, model.ColDateCreatedParsed, nil)
				t.SetValue(i, model.ColDateCreatedDisplay, "")
			}
		}
	}

	if t.HasColumn(model.ColContact) {
		for i := 0; i < t.NumRows(); i++ {
			t.SetValue(i, model.ColContact, normalize.NormalizePhone(t.Value(i, model.ColContact)))
		}
	}

	if t.HasColumn(model.ColOrderNo) {
		for i := 0; i < t.NumRows(); i++ {
			t.SetValue(i, model.ColOrderNo, normalize.ExtractOrderID(t.Value(i, model.ColOrderNo)))
		}
	}

	p.stats.Set(model.StatCleanedRows, t.NumRows())
	p.stage = StageCleaned

	p.logger.Info("Common cleaning completed", zap.Int("rows", t.NumRows()))
	return nil
}

// FilterByMode applies the mode's business rules.
func (p *Processor) FilterByMode() error {
	if p.stage < StageCleaned {
		return ErrNotCleaned
	}

	switch p.mode {
	case model.ModeModoroso:
		p.table = p.filterModoroso(p.table)
	case model.ModeWAPPR:
		p.table = p.filterWAPPR(p.table)
	default:
		p.table = p.filterWSA(p.table)
	}

	p.stats.Set(model.StatFilteredRows, p.table.NumRows())
	p.stage = StageFiltered

	p.logger.Info("Mode filtering completed", zap.Int("rows", p.table.NumRows()))
	return nil
}

// FilterByMonths retains rows whose parsed creation timestamp falls in
// one of the target months (1-12). An empty target set is a no-op, as
// is a table without the parsed-timestamp column; rows whose timestamp
// failed to parse are excluded.
func (p *Processor) FilterByMonths(months []int) error {
	if p.stage < StageFiltered {
		return ErrNotFiltered
	}

	if len(months) == 0 {
		p.logger.Warn("No months selected, skipping month filter")
		return nil
	}

	if !p.table.HasColumn(model.ColDateCreatedParsed) {
		p.logger.Warn("Parsed creation timestamp column not found, skipping month filter",
			zap.String("column", model.ColDateCreatedParsed))
		return nil
	}

	target := make(map[int]bool, len(months))
	names := make([]string, 0, len(months))
	for _, m := range months {
		target[m] = true
		names = append(names, normalize.MonthName(m))
	}
	p.logger.Info("Applying month filter", zap.Strings("months", names))

	before := p.table.NumRows()
	p.table = p.table.Filter(func(r model.Row) bool {
		ts, ok := r[model.ColDateCreatedParsed].(time.Time)
		return ok && target[int(ts.Month())]
	})
	after := p.table.NumRows()

	p.stats.Set(model.StatMonthFilteredRows, after)
	p.stats.Set(model.StatMonthFilteredOut, before-after)

	p.logger.Info("Month filter completed",
		zap.Int("rows", after),
		zap.Int("filteredOut", before-after))
	return nil
}

// RemoveDuplicates drops rows whose normalized business key already
// exists in the supplied identifier set. Identifiers from the external
// store and the table's key values go through the same normalization
// (trim, ".0" strip, upper case) so formatting drift on either side
// cannot break the comparison. A missing key column degrades to
// treating every row as unique.
func (p *Processor) RemoveDuplicates(existingIDs []string) error {
	if p.stage < StageFiltered {
		return ErrNotFiltered
	}

	keyColumn := p.KeyColumn()
	if !p.table.HasColumn(keyColumn) {
		p.logger.Warn("Business-key column not found, skipping duplicate removal",
			zap.String("column", keyColumn))
		p.final = p.table.Copy()
		p.stats.Set(model.StatUniqueRows, p.final.NumRows())
		p.stats.Set(model.StatDuplicatesRemoved, 0)
		p.stage = StageDeduplicated
		return nil
	}

	existing := make(map[string]bool, len(existingIDs))
	for _, id := range existingIDs {
		if cleaned := normalize.CleanString(id, normalize.Uppercase()); cleaned != "" {
			existing[cleaned] = true
		}
	}

	before := p.table.NumRows()
	p.final = p.table.Filter(func(r model.Row) bool {
		key := normalize.CleanString(r[keyColumn], normalize.Uppercase())
		return !existing[key]
	})
	after := p.final.NumRows()

	p.stats.Set(model.StatUniqueRows, after)
	p.stats.Set(model.StatDuplicatesRemoved, before-after)
	p.stage = StageDeduplicated

	p.logger.Info("Duplicate removal completed",
		zap.Int("uniqueRows", after),
		zap.Int("removed", before-after))
	return nil
}

// Finalize produces the caller-visible table: target column order for
// the mode (extra columns appended in original order), the display form
// of the creation timestamp, working columns dropped, and a stable sort
// by the configured sort key when that column exists.
func (p *Processor) Finalize() (*model.Table, error) {
	if p.stage < StageDeduplicated {
		return nil, ErrNotProcessed
	}

	t := p.final
	t.Reorder(model.OutputColumns(p.mode))

	if t.HasColumn(model.ColDateCreatedDisplay) && t.HasColumn(model.ColDateCreated) {
		for i := 0; i < t.NumRows(); i++ {
			t.SetValue(i, model.ColDateCreated, t.Value(i, model.ColDateCreatedDisplay))
		}
	}

	t.DropColumns(model.ColDateCreatedParsed, model.ColDateCreatedDisplay)

	if t.HasColumn(p.sortColumn) {
		t.SortBy(p.sortColumn)
	}

	p.stats.Set(model.StatFinalRows, t.NumRows())
	p.stage = StageFinalized

	p.logger.Info("Finalization completed", zap.Int("rows", t.NumRows()))
	return t, nil
}

// Process runs the whole pipeline in one call.
func (p *Processor) Process(t *model.Table, months []int, existingIDs []string) (*model.Table, error) {
	p.Load(t)
	if err := p.CleanCommon(); err != nil {
		return nil, err
	}
	if err := p.FilterByMode(); err != nil {
		return nil, err
	}
	if err := p.FilterByMonths(months); err != nil {
		return nil, err
	}
	if err := p.RemoveDuplicates(existingIDs); err != nil {
		return nil, err
	}
	return p.Finalize()
}
