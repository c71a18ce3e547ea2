// pkg/config/config.go
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/fulfillment-ops/order-ingress/pkg/model"
)

// Config represents the application configuration.
type Config struct {
	// Processing mode and stage settings
	Mode       model.Mode
	ChunkSize  int
	SortColumn string
	Months     []int

	// Filter rule sets (defaults, optionally overridden from a rules file)
	Rules FilterRules

	// Quality thresholds
	Quality QualityThresholds

	// External collaborators; nil when the corresponding environment is
	// not configured (the pipeline then runs without that collaborator)
	Snowflake *SnowflakeConfig
	Postgres  *PostgresConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// QualityThresholds holds the tunable limits of the quality engine.
// Threshold values are fractions in [0,1].
type QualityThresholds struct {
	NullThreshold      float64 `yaml:"null_threshold"`
	DuplicateThreshold float64 `yaml:"duplicate_threshold"`
	CheckNulls         bool    `yaml:"check_nulls"`
	CheckDuplicates    bool    `yaml:"check_duplicates"`
	ValidatePhones     bool    `yaml:"validate_phones"`
	ValidateDates      bool    `yaml:"validate_dates"`
}

// DefaultQualityThresholds returns the stock thresholds: 10% nulls and
// 5% duplicates before a column or table is flagged.
func DefaultQualityThresholds() QualityThresholds {
	return QualityThresholds{
		NullThreshold:      0.1,
		DuplicateThreshold: 0.05,
		CheckNulls:         true,
		CheckDuplicates:    true,
		ValidatePhones:     true,
		ValidateDates:      true,
	}
}

// LoadConfig loads configuration from environment variables. Database
// configurations are optional: they are loaded only when their
// respective *_USER variable is set.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Mode:       model.ParseMode(getEnv("PROCESS_MODE", "WSA")),
		ChunkSize:  getEnvAsInt("CHUNK_SIZE", 1000),
		SortColumn: getEnv("SORT_COLUMN", model.ColWorkzone),
		Rules:      DefaultRules(),
		Quality:    DefaultQualityThresholds(),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogFormat:  getEnv("LOG_FORMAT", "json"),
	}

	for _, raw := range getEnvAsStringSlice("PROCESS_MONTHS", nil) {
		month, err := strconv.Atoi(raw)
		if err != nil || month < 1 || month > 12 {
			return nil, errors.New("PROCESS_MONTHS entries must be month numbers 1-12")
		}
		cfg.Months = append(cfg.Months, month)
	}

	cfg.Quality.NullThreshold = getEnvAsFloat("QUALITY_NULL_THRESHOLD", cfg.Quality.NullThreshold)
	cfg.Quality.DuplicateThreshold = getEnvAsFloat("QUALITY_DUPLICATE_THRESHOLD", cfg.Quality.DuplicateThreshold)

	if rulesPath := getEnv("RULES_FILE", ""); rulesPath != "" {
		rules, err := LoadRulesFile(rulesPath)
		if err != nil {
			return nil, errors.New("failed to load rules file: " + err.Error())
		}
		cfg.Rules = rules
	}

	if os.Getenv("SNOWFLAKE_USER") != "" {
		snowConfig, err := LoadSnowflakeConfig()
		if err != nil {
			return nil, errors.New("failed to load Snowflake configuration: " + err.Error())
		}
		cfg.Snowflake = snowConfig
	}

	if os.Getenv("POSTGRES_USER") != "" {
		pgConfig, err := LoadPostgresConfig()
		if err != nil {
			return nil, errors.New("failed to load PostgreSQL configuration: " + err.Error())
		}
		cfg.Postgres = pgConfig
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return errors.New("chunk size must be positive")
	}
	if c.Quality.NullThreshold < 0 || c.Quality.NullThreshold > 1 {
		return errors.New("null threshold must be within [0,1]")
	}
	if c.Quality.DuplicateThreshold < 0 || c.Quality.DuplicateThreshold > 1 {
		return errors.New("duplicate threshold must be within [0,1]")
	}
	return c.Rules.Validate()
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
