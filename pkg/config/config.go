package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/ekaya-inc/relgraph/pkg/apperrors"
)

// Valid discovery modes.
const (
	ModeBasic    = "basic"
	ModeAdvanced = "advanced"
	ModeHigh     = "high"
)

// Config holds all configuration for relgraph.
// Configuration can come from a YAML file (config.yaml) or environment
// variables. Environment variables always override YAML values.
// Secrets (the datasource password) must only come from environment variables.
type Config struct {
	Env     string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version string `yaml:"-"` // Set at load time, not from config

	// Datasource is the database whose schema is analyzed.
	Datasource DatasourceConfig `yaml:"datasource"`

	// Discovery tunes the statistical inference pipeline.
	Discovery DiscoveryConfig `yaml:"discovery"`

	// Output controls where results and diagnostics are written.
	Output OutputConfig `yaml:"output"`
}

// DatasourceConfig holds connection settings for the analyzed database.
type DatasourceConfig struct {
	Type     string `yaml:"type" env:"DS_TYPE" env-default:"mysql"` // "postgres", "mysql", "sqlserver"
	Host     string `yaml:"host" env:"DS_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"DS_PORT" env-default:"3306"`
	User     string `yaml:"user" env:"DS_USER" env-default:"root"`
	Password string `yaml:"-" env:"DS_PASSWORD"` // Secret - not in YAML
	Database string `yaml:"database" env:"DS_DATABASE"`
	// Schema scopes discovery on engines that namespace tables within a
	// database. Defaults applied by the adapter (postgres: public, sqlserver: dbo).
	Schema string `yaml:"schema" env:"DS_SCHEMA" env-default:""`
}

// DiscoveryConfig holds thresholds and scope filters for inference.
// Defaults match the documented pipeline behavior; overriding them shifts
// precision against recall.
type DiscoveryConfig struct {
	// Mode selects the quality filter: "basic", "advanced" (all tiers),
	// or "high" (advanced restricted to high_quality).
	Mode string `yaml:"mode" env:"DISCOVERY_MODE" env-default:"high"`

	// CoverageThreshold is the minimum sampled inclusion rate for a
	// candidate to survive the raw statistical pass.
	CoverageThreshold float64 `yaml:"coverage_threshold" env:"DISCOVERY_COVERAGE_THRESHOLD" env-default:"0.85"`

	// MaxNullRatio rejects fk columns that are mostly null.
	MaxNullRatio float64 `yaml:"max_null_ratio" env:"DISCOVERY_MAX_NULL_RATIO" env-default:"0.5"`

	// MaxCardinalityRatio rejects pairs where the fk side has many more
	// distinct values than the pk side.
	MaxCardinalityRatio float64 `yaml:"max_cardinality_ratio" env:"DISCOVERY_MAX_CARDINALITY_RATIO" env-default:"1.2"`

	// MinNameSimilarity rejects pairs whose names share nothing unless
	// the value evidence is near-perfect.
	MinNameSimilarity float64 `yaml:"min_name_similarity" env:"DISCOVERY_MIN_NAME_SIMILARITY" env-default:"0.3"`

	// SampleSize bounds the distinct-value sample used for coverage.
	SampleSize int `yaml:"sample_size" env:"DISCOVERY_SAMPLE_SIZE" env-default:"1000"`

	// BooleanSampleSize bounds the sample used for boolean-domain detection.
	BooleanSampleSize int `yaml:"boolean_sample_size" env:"DISCOVERY_BOOLEAN_SAMPLE_SIZE" env-default:"100"`

	// Workers bounds concurrent statistics queries against the datasource.
	Workers int `yaml:"workers" env:"DISCOVERY_WORKERS" env-default:"8"`

	// Scope filters. Include lists win over exclude lists; a column entry
	// is "table.column", and a bare table name covers the whole table.
	IncludeTables  []string `yaml:"include_tables" env:"DISCOVERY_INCLUDE_TABLES" env-separator:","`
	ExcludeTables  []string `yaml:"exclude_tables" env:"DISCOVERY_EXCLUDE_TABLES" env-separator:","`
	IncludeColumns []string `yaml:"include_columns" env:"DISCOVERY_INCLUDE_COLUMNS" env-separator:","`
	ExcludeColumns []string `yaml:"exclude_columns" env:"DISCOVERY_EXCLUDE_COLUMNS" env-separator:","`
}

// OutputConfig holds result and diagnostics paths. Empty paths disable the
// corresponding artifact.
type OutputConfig struct {
	// RecordsPath receives the final relationship records as JSON.
	RecordsPath string `yaml:"records_path" env:"OUTPUT_RECORDS_PATH" env-default:"relationships.json"`

	// CypherPath receives one MERGE statement per record for graph import.
	CypherPath string `yaml:"cypher_path" env:"OUTPUT_CYPHER_PATH" env-default:""`

	// Diagnostics dumps of intermediate pipeline stages.
	CandidatesPath string `yaml:"candidates_path" env:"OUTPUT_CANDIDATES_PATH" env-default:""`
	ClustersPath   string `yaml:"clusters_path" env:"OUTPUT_CLUSTERS_PATH" env-default:""`
	ReportPath     string `yaml:"report_path" env:"OUTPUT_REPORT_PATH" env-default:""`
}

// Load reads configuration from path with environment variable overrides.
// A missing file is not an error; the environment alone then supplies the
// configuration. The version parameter is injected at build time.
func Load(path, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("read environment: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration before any datasource I/O.
// All failures wrap apperrors.ErrConfiguration.
func (c *Config) Validate() error {
	if c.Datasource.Type == "" {
		return fmt.Errorf("%w: datasource type is required", apperrors.ErrConfiguration)
	}
	if c.Datasource.Database == "" {
		return fmt.Errorf("%w: datasource database is required", apperrors.ErrConfiguration)
	}

	d := c.Discovery
	switch d.Mode {
	case ModeBasic, ModeAdvanced, ModeHigh:
	default:
		return fmt.Errorf("%w: unknown discovery mode %q", apperrors.ErrConfiguration, d.Mode)
	}
	if d.CoverageThreshold < 0 || d.CoverageThreshold > 1 {
		return fmt.Errorf("%w: coverage_threshold must be in [0,1], got %v", apperrors.ErrConfiguration, d.CoverageThreshold)
	}
	if d.MaxNullRatio < 0 || d.MaxNullRatio > 1 {
		return fmt.Errorf("%w: max_null_ratio must be in [0,1], got %v", apperrors.ErrConfiguration, d.MaxNullRatio)
	}
	if d.MaxCardinalityRatio < 0 {
		return fmt.Errorf("%w: max_cardinality_ratio must not be negative, got %v", apperrors.ErrConfiguration, d.MaxCardinalityRatio)
	}
	if d.MinNameSimilarity < 0 || d.MinNameSimilarity > 1 {
		return fmt.Errorf("%w: min_name_similarity must be in [0,1], got %v", apperrors.ErrConfiguration, d.MinNameSimilarity)
	}
	if d.SampleSize <= 0 {
		return fmt.Errorf("%w: sample_size must be positive, got %d", apperrors.ErrConfiguration, d.SampleSize)
	}
	if d.BooleanSampleSize <= 0 {
		return fmt.Errorf("%w: boolean_sample_size must be positive, got %d", apperrors.ErrConfiguration, d.BooleanSampleSize)
	}
	if d.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive, got %d", apperrors.ErrConfiguration, d.Workers)
	}

	return nil
}
