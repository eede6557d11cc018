package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/relgraph/pkg/adapters/datasource"
	_ "github.com/ekaya-inc/relgraph/pkg/adapters/datasource/mssql"
	_ "github.com/ekaya-inc/relgraph/pkg/adapters/datasource/mysql"
	_ "github.com/ekaya-inc/relgraph/pkg/adapters/datasource/postgres"
	"github.com/ekaya-inc/relgraph/pkg/config"
	"github.com/ekaya-inc/relgraph/pkg/graph"
	"github.com/ekaya-inc/relgraph/pkg/logging"
	"github.com/ekaya-inc/relgraph/pkg/models"
	"github.com/ekaya-inc/relgraph/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Optional .env for local runs; secrets come from the environment.
	_ = godotenv.Load()

	var configPath string
	var mode string

	rootCmd := &cobra.Command{
		Use:     "relgraph",
		Short:   "Schema relationship discovery for relational databases",
		Version: Version,
	}

	discoverCmd := &cobra.Command{
		Use:   "discover",
		Short: "Infer implicit foreign key relationships from database statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath, Version)
			if err != nil {
				return err
			}
			if mode != "" {
				cfg.Discovery.Mode = mode
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			return run(cmd, cfg)
		},
	}

	discoverCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")
	discoverCmd.Flags().StringVarP(&mode, "mode", "m", "", "override discovery mode: basic, advanced, high")
	rootCmd.AddCommand(discoverCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, cfg *config.Config) error {
	logger, err := buildLogger(cfg.Env)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !datasource.IsRegistered(cfg.Datasource.Type) {
		return fmt.Errorf("unsupported datasource type %q, available: %s",
			cfg.Datasource.Type, strings.Join(adapterTypes(), ", "))
	}
	factory := datasource.GetSchemaDiscovererFactory(cfg.Datasource.Type)

	discoverer, err := factory(ctx, datasource.Config{
		Host:     cfg.Datasource.Host,
		Port:     cfg.Datasource.Port,
		User:     cfg.Datasource.User,
		Password: cfg.Datasource.Password,
		Database: cfg.Datasource.Database,
		Schema:   cfg.Datasource.Schema,
	}, logger)
	if err != nil {
		return fmt.Errorf("connect datasource: %s", logging.SanitizeError(err))
	}
	defer discoverer.Close() //nolint:errcheck

	svc := services.NewRelationshipDiscoveryService(discoverer, services.DiscoveryOptions{
		Mode:              cfg.Discovery.Mode,
		SampleSize:        cfg.Discovery.SampleSize,
		BooleanSampleSize: cfg.Discovery.BooleanSampleSize,
		Workers:           cfg.Discovery.Workers,
		Thresholds: services.FilterThresholds{
			MinCoverage:         cfg.Discovery.CoverageThreshold,
			MaxNullRatio:        cfg.Discovery.MaxNullRatio,
			MaxCardinalityRatio: cfg.Discovery.MaxCardinalityRatio,
			MinNameSimilarity:   cfg.Discovery.MinNameSimilarity,
		},
		Scope: services.ScopeFilter{
			IncludeTables:  cfg.Discovery.IncludeTables,
			ExcludeTables:  cfg.Discovery.ExcludeTables,
			IncludeColumns: cfg.Discovery.IncludeColumns,
			ExcludeColumns: cfg.Discovery.ExcludeColumns,
		},
	}, logger)

	result, err := svc.Discover(ctx, nil)
	if err != nil {
		return fmt.Errorf("discovery failed: %s", logging.SanitizeError(err))
	}

	var sinks graph.MultiSink
	if cfg.Output.RecordsPath != "" {
		sinks = append(sinks, &graph.JSONSink{Path: cfg.Output.RecordsPath, Logger: logger})
	}
	if cfg.Output.CypherPath != "" {
		sinks = append(sinks, &graph.CypherScriptSink{Path: cfg.Output.CypherPath, Logger: logger})
	}
	if err := sinks.Write(ctx, result.Records); err != nil {
		return fmt.Errorf("write results: %w", err)
	}

	writeDiagnostics(cfg.Output, result, logger)

	logger.Info("done",
		zap.String("run_id", result.Report.RunID.String()),
		zap.Int("records", len(result.Records)),
		zap.Bool("cancelled", result.Report.Cancelled))

	return nil
}

// adapterTypes lists registered datasource types for error messages.
func adapterTypes() []string {
	var types []string
	for _, info := range datasource.RegisteredAdapters() {
		types = append(types, info.Type)
	}
	sort.Strings(types)
	return types
}

func buildLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// writeDiagnostics dumps intermediate stages for configured paths.
// Diagnostics are best effort: failures are logged, never fatal.
func writeDiagnostics(out config.OutputConfig, result *services.DiscoveryResult, logger *zap.Logger) {
	dump := func(path string, v any) {
		if path == "" {
			return
		}
		data, err := json.MarshalIndent(v, "", "  ")
		if err == nil {
			err = os.WriteFile(path, data, 0o644)
		}
		if err != nil {
			logger.Warn("diagnostics dump failed", zap.String("path", path), zap.Error(err))
			return
		}
		logger.Debug("diagnostics written", zap.String("path", path))
	}

	dump(out.CandidatesPath, struct {
		Resolved []models.RelationshipCandidate `json:"resolved"`
		Accepted []models.RelationshipCandidate `json:"accepted"`
	}{result.Candidates, result.Accepted})
	dump(out.ClustersPath, result.Clusters)
	dump(out.ReportPath, result.Report)
}
