// pkg/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fulfillment-ops/order-ingress/pkg/model"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, model.ModeWSA, cfg.Mode)
	assert.Equal(t, 1000, cfg.ChunkSize)
	assert.Equal(t, model.ColWorkzone, cfg.SortColumn)
	assert.Empty(t, cfg.Months)
	assert.Nil(t, cfg.Snowflake)
	assert.Nil(t, cfg.Postgres)
	assert.InDelta(t, 0.1, cfg.Quality.NullThreshold, 0.001)
	assert.InDelta(t, 0.05, cfg.Quality.DuplicateThreshold, 0.001)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PROCESS_MODE", "modoroso")
	t.Setenv("CHUNK_SIZE", "250")
	t.Setenv("PROCESS_MONTHS", "1, 6 ,12")
	t.Setenv("QUALITY_NULL_THRESHOLD", "0.3")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, model.ModeModoroso, cfg.Mode)
	assert.Equal(t, 250, cfg.ChunkSize)
	assert.Equal(t, []int{1, 6, 12}, cfg.Months)
	assert.InDelta(t, 0.3, cfg.Quality.NullThreshold, 0.001)
}

func TestLoadConfigRejectsBadMonths(t *testing.T) {
	t.Setenv("PROCESS_MONTHS", "13")
	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("PROCESS_MONTHS", "abc")
	_, err = LoadConfig()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		ChunkSize: 100,
		Rules:     DefaultRules(),
		Quality:   DefaultQualityThresholds(),
	}
	assert.NoError(t, cfg.Validate())

	cfg.ChunkSize = 0
	assert.Error(t, cfg.Validate())

	cfg.ChunkSize = 100
	cfg.Quality.NullThreshold = 1.5
	assert.Error(t, cfg.Validate())
}

func TestDefaultRules(t *testing.T) {
	rules := DefaultRules()

	assert.Equal(t, []string{"AO", "PDA", "WSA"}, rules.WSA.Patterns)
	assert.Equal(t, []string{"CREATE", "MIGRATE"}, rules.WSA.CRMOrderTypes)
	assert.Equal(t, []string{"-MO", "-DO"}, rules.Modoroso.Patterns)
	assert.Equal(t, "TSEL", rules.Modoroso.DefaultMitra)
	assert.Equal(t, []string{"AO", "PDA"}, rules.WAPPR.Patterns)
	assert.Equal(t, []string{"WAPPR"}, rules.WAPPR.StatusFilter)
	assert.NoError(t, rules.Validate())
}

func TestForMode(t *testing.T) {
	rules := DefaultRules()
	assert.Equal(t, rules.Modoroso, rules.ForMode(model.ModeModoroso))
	assert.Equal(t, rules.WAPPR, rules.ForMode(model.ModeWAPPR))
	assert.Equal(t, rules.WSA, rules.ForMode(model.ModeWSA))
}

func TestLoadRulesFileOverridesPartially(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := []byte(`
wsa:
  patterns: ["AO", "PDA", "WSA", "NEW"]
  crm_order_types: ["CREATE"]
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	rules, err := LoadRulesFile(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"AO", "PDA", "WSA", "NEW"}, rules.WSA.Patterns)
	assert.Equal(t, []string{"CREATE"}, rules.WSA.CRMOrderTypes)
	// Modes absent from the file keep their defaults.
	assert.Equal(t, []string{"-MO", "-DO"}, rules.Modoroso.Patterns)
	assert.Equal(t, "TSEL", rules.Modoroso.DefaultMitra)
}

func TestLoadRulesFileRejectsEmptyPatterns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := []byte(`
wsa:
  patterns: []
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	_, err := LoadRulesFile(path)
	assert.Error(t, err)
}

func TestLoadRulesFileMissing(t *testing.T) {
	_, err := LoadRulesFile("/nonexistent/rules.yaml")
	assert.Error(t, err)
}
