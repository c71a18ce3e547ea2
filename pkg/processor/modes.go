// pkg/processor/modes.go
package processor

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fulfillment-ops/order-ingress/pkg/model"
	"github.com/fulfillment-ops/order-ingress/pkg/normalize"
)

// filterWSA keeps rows whose order number contains any configured WSA
// pattern and whose order type is in the configured allow-list, then
// backfills blank contact numbers from other rows sharing the same
// customer name.
func (p *Processor) filterWSA(t *model.Table) *model.Table {
	rules := p.rules.ForMode(model.ModeWSA)

	if t.HasColumn(model.ColOrderNo) {
		t = t.Filter(func(r model.Row) bool {
			return containsAnyFold(cellText(r[model.ColOrderNo]), rules.Patterns)
		})
	} else {
		p.logger.Warn("Order-number column not found, skipping pattern filter",
			zap.String("column", model.ColOrderNo))
	}

	if t.HasColumn(model.ColCRMOrderType) {
		allowed := make(map[string]bool, len(rules.CRMOrderTypes))
		for _, v := range rules.CRMOrderTypes {
			allowed[v] = true
		}
		t = t.Filter(func(r model.Row) bool {
			return allowed[cellText(r[model.ColCRMOrderType])]
		})
	}

	if t.HasColumn(model.ColContact) && t.HasColumn(model.ColCustomerName) {
		p.fillContactNumbers(t)
	}

	return t
}

// filterModoroso keeps rows whose order number contains one of the
// merge/split markers, rewrites the order type to the category derived
// from the marker, and stamps the configured partner code on every
// surviving row.
func (p *Processor) filterModoroso(t *model.Table) *model.Table {
	rules := p.rules.ForMode(model.ModeModoroso)

	if t.HasColumn(model.ColOrderNo) {
		t = t.Filter(func(r model.Row) bool {
			return containsAnyFold(cellText(r[model.ColOrderNo]), rules.Patterns)
		})
	} else {
		p.logger.Warn("Order-number column not found, skipping pattern filter",
			zap.String("column", model.ColOrderNo))
	}

	if t.HasColumn(model.ColCRMOrderType) {
		for i := 0; i < t.NumRows(); i++ {
			t.SetValue(i, model.ColCRMOrderType, detectCategory(t.Value(i, model.ColOrderNo), rules.Patterns))
		}
	}

	t.AddColumn(model.ColMitra)
	for i := 0; i < t.NumRows(); i++ {
		t.SetValue(i, model.ColMitra, rules.DefaultMitra)
	}

	return t
}

// filterWAPPR keeps rows whose order number contains any configured
// pattern and whose status, trimmed and case-normalized, is in the
// configured status set.
func (p *Processor) filterWAPPR(t *model.Table) *model.Table {
	rules := p.rules.ForMode(model.ModeWAPPR)

	if t.HasColumn(model.ColOrderNo) {
		t = t.Filter(func(r model.Row) bool {
			return containsAnyFold(cellText(r[model.ColOrderNo]), rules.Patterns)
		})
	} else {
		p.logger.Warn("Order-number column not found, skipping pattern filter",
			zap.String("column", model.ColOrderNo))
	}

	if t.HasColumn(model.ColStatus) {
		allowed := make(map[string]bool, len(rules.StatusFilter))
		for _, v := range rules.StatusFilter {
			allowed[strings.ToUpper(v)] = true
		}
		t = t.Filter(func(r model.Row) bool {
			return allowed[strings.ToUpper(strings.TrimSpace(cellText(r[model.ColStatus])))]
		})
	}

	return t
}

// fillContactNumbers builds a customer-name to contact-number lookup
// from rows that already have a contact (first occurrence wins) and
// uses it to fill rows where the contact is missing, blank, or the
// literal "nan" artifact.
func (p *Processor) fillContactNumbers(t *model.Table) {
	contacts := make(map[string]interface{})
	for i := 0; i < t.NumRows(); i++ {
		contact := t.Value(i, model.ColContact)
		if contact == nil || cellText(contact) == "" {
			continue
		}
		name := cellText(t.Value(i, model.ColCustomerName))
		if _, seen := contacts[name]; !seen {
			contacts[name] = contact
		}
	}

	filled := 0
	for i := 0; i < t.NumRows(); i++ {
		contact := t.Value(i, model.ColContact)
		text := cellText(contact)
		if contact != nil && strings.TrimSpace(text) != "" && strings.ToLower(text) != "nan" {
			continue
		}
		name := cellText(t.Value(i, model.ColCustomerName))
		if known, ok := contacts[name]; ok {
			t.SetValue(i, model.ColContact, known)
			filled++
		}
	}

	if filled > 0 {
		p.logger.Info("Backfilled contact numbers", zap.Int("rows", filled))
	}
}

// detectCategory scans the order number for the configured markers in
// checklist order and returns the first match's category (the marker
// without its leading dash). Falls back to the first marker's category
// when none match.
func detectCategory(orderNo interface{}, patterns []string) string {
	s := normalize.CleanString(orderNo, normalize.Uppercase())
	for _, pattern := range patterns {
		if strings.Contains(s, strings.ToUpper(pattern)) {
			return strings.TrimPrefix(strings.ToUpper(pattern), "-")
		}
	}
	if len(patterns) == 0 {
		return ""
	}
	return strings.TrimPrefix(strings.ToUpper(patterns[0]), "-")
}

// containsAnyFold reports whether s contains any of the patterns,
// case-insensitively.
func containsAnyFold(s string, patterns []string) bool {
	upper := strings.ToUpper(s)
	for _, pattern := range patterns {
		if strings.Contains(upper, strings.ToUpper(pattern)) {
			return true
		}
	}
	return false
}

// cellText renders a cell for comparison purposes without applying any
// cleaning.
func cellText(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
