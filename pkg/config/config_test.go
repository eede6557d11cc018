package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ekaya-inc/relgraph/pkg/apperrors"
)

func validConfig() *Config {
	return &Config{
		Datasource: DatasourceConfig{
			Type:     "mysql",
			Host:     "localhost",
			Port:     3306,
			User:     "root",
			Database: "sales",
		},
		Discovery: DiscoveryConfig{
			Mode:                ModeHigh,
			CoverageThreshold:   0.85,
			MaxNullRatio:        0.5,
			MaxCardinalityRatio: 1.2,
			MinNameSimilarity:   0.3,
			SampleSize:          1000,
			BooleanSampleSize:   100,
			Workers:             8,
		},
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid config passes", func(t *testing.T) {
		if err := validConfig().Validate(); err != nil {
			t.Fatalf("Validate() = %v, want nil", err)
		}
	})

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "missing database",
			mutate: func(c *Config) { c.Datasource.Database = "" },
		},
		{
			name:   "unknown mode",
			mutate: func(c *Config) { c.Discovery.Mode = "strict" },
		},
		{
			name:   "coverage threshold above one",
			mutate: func(c *Config) { c.Discovery.CoverageThreshold = 1.5 },
		},
		{
			name:   "negative null ratio",
			mutate: func(c *Config) { c.Discovery.MaxNullRatio = -0.1 },
		},
		{
			name:   "negative cardinality ratio",
			mutate: func(c *Config) { c.Discovery.MaxCardinalityRatio = -1 },
		},
		{
			name:   "zero sample size",
			mutate: func(c *Config) { c.Discovery.SampleSize = 0 },
		},
		{
			name:   "zero workers",
			mutate: func(c *Config) { c.Discovery.Workers = 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !errors.Is(err, apperrors.ErrConfiguration) {
				t.Errorf("Validate() = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("yaml file with defaults", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		yaml := `
datasource:
  type: postgres
  host: db.internal
  port: 5432
  user: analytics
  database: sales
discovery:
  mode: advanced
  exclude_tables:
    - schema_migrations
`
		if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load(path, "test")
		if err != nil {
			t.Fatalf("Load() = %v", err)
		}

		if cfg.Datasource.Type != "postgres" {
			t.Errorf("Type = %q, want postgres", cfg.Datasource.Type)
		}
		if cfg.Discovery.Mode != ModeAdvanced {
			t.Errorf("Mode = %q, want advanced", cfg.Discovery.Mode)
		}
		// Unset fields fall back to env-defaults.
		if cfg.Discovery.CoverageThreshold != 0.85 {
			t.Errorf("CoverageThreshold = %v, want 0.85", cfg.Discovery.CoverageThreshold)
		}
		if cfg.Discovery.Workers != 8 {
			t.Errorf("Workers = %d, want 8", cfg.Discovery.Workers)
		}
		if len(cfg.Discovery.ExcludeTables) != 1 || cfg.Discovery.ExcludeTables[0] != "schema_migrations" {
			t.Errorf("ExcludeTables = %v", cfg.Discovery.ExcludeTables)
		}
		if cfg.Version != "test" {
			t.Errorf("Version = %q, want test", cfg.Version)
		}
	})

	t.Run("missing file reads environment", func(t *testing.T) {
		t.Setenv("DS_TYPE", "mysql")
		t.Setenv("DS_DATABASE", "sales")

		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), "test")
		if err != nil {
			t.Fatalf("Load() = %v", err)
		}
		if cfg.Datasource.Database != "sales" {
			t.Errorf("Database = %q, want sales", cfg.Datasource.Database)
		}
		if cfg.Discovery.Mode != ModeHigh {
			t.Errorf("Mode = %q, want high default", cfg.Discovery.Mode)
		}
	})

	t.Run("invalid yaml value fails validation", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		yaml := `
datasource:
  type: mysql
  database: sales
discovery:
  coverage_threshold: 2.0
`
		if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
			t.Fatal(err)
		}

		_, err := Load(path, "test")
		if !errors.Is(err, apperrors.ErrConfiguration) {
			t.Errorf("Load() = %v, want ErrConfiguration", err)
		}
	})
}
