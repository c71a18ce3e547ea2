// pkg/config/rules.go
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fulfillment-ops/order-ingress/pkg/model"
)

// ModeRules configures the filter behavior of one processing mode.
type ModeRules struct {
	// Patterns are matched as case-insensitive substrings of the
	// business-key column, OR-combined. For MODOROSO they double as
	// the category markers, in checklist order.
	Patterns []string `yaml:"patterns"`

	// CRMOrderTypes is an allow-list on the order-category column.
	CRMOrderTypes []string `yaml:"crm_order_types"`

	// StatusFilter is an allow-list on the status column.
	StatusFilter []string `yaml:"status_filter"`

	// DefaultMitra is the partner code stamped on surviving rows.
	DefaultMitra string `yaml:"default_mitra"`
}

// FilterRules holds the rule set of every mode.
type FilterRules struct {
	WSA      ModeRules `yaml:"wsa"`
	Modoroso ModeRules `yaml:"modoroso"`
	WAPPR    ModeRules `yaml:"wappr"`
}

// DefaultRules returns the built-in rule sets.
func DefaultRules() FilterRules {
	return FilterRules{
		WSA: ModeRules{
			Patterns:      []string{"AO", "PDA", "WSA"},
			CRMOrderTypes: []string{"CREATE", "MIGRATE"},
		},
		Modoroso: ModeRules{
			Patterns:     []string{"-MO", "-DO"},
			DefaultMitra: "TSEL",
		},
		WAPPR: ModeRules{
			Patterns:     []string{"AO", "PDA"},
			StatusFilter: []string{"WAPPR"},
		},
	}
}

// ForMode returns the rule set for a mode.
func (r FilterRules) ForMode(mode model.Mode) ModeRules {
	switch mode {
	case model.ModeModoroso:
		return r.Modoroso
	case model.ModeWAPPR:
		return r.WAPPR
	default:
		return r.WSA
	}
}

// Validate checks that every mode carries at least one pattern.
func (r FilterRules) Validate() error {
	for _, m := range []struct {
		name  string
		rules ModeRules
	}{
		{"wsa", r.WSA},
		{"modoroso", r.Modoroso},
		{"wappr", r.WAPPR},
	} {
		if len(m.rules.Patterns) == 0 {
			return errors.New("rule set " + m.name + " has no patterns")
		}
	}
	return nil
}

// LoadRulesFile reads a YAML rules file. Modes absent from the file
// keep their defaults.
func LoadRulesFile(path string) (FilterRules, error) {
	rules := DefaultRules()

	data, err := os.ReadFile(path)
	if err != nil {
		return rules, fmt.Errorf("failed to read rules file: %w", err)
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return rules, fmt.Errorf("failed to parse rules file: %w", err)
	}
	if err := rules.Validate(); err != nil {
		return rules, err
	}
	return rules, nil
}
