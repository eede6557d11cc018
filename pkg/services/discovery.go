package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/relgraph/pkg/adapters/datasource"
	"github.com/ekaya-inc/relgraph/pkg/models"
)

// DiscoveryOptions tunes a discovery run. Values come from config; the
// service does not read configuration itself.
type DiscoveryOptions struct {
	Mode              string
	SampleSize        int
	BooleanSampleSize int
	Workers           int
	Thresholds        FilterThresholds
	Scope             ScopeFilter
}

// DiscoveryResult carries the final records plus every intermediate stage
// for diagnostics, and the run report.
type DiscoveryResult struct {
	Snapshot   *SchemaSnapshot
	Candidates []models.RelationshipCandidate // resolved, pre-filter
	Accepted   []models.RelationshipCandidate
	Explicit   []models.ExplicitEdge
	Clusters   []models.Cluster
	Records    []models.RelationshipRecord
	Report     models.DiscoveryReport
}

// RelationshipDiscoveryService runs the full inference pipeline against one
// datasource.
type RelationshipDiscoveryService interface {
	// Discover runs the pipeline. explicitEdges may be nil; when it is and
	// the datasource declares FK constraints, those are used instead.
	Discover(ctx context.Context, explicitEdges []models.ExplicitEdge) (*DiscoveryResult, error)
}

type discoveryService struct {
	discoverer datasource.SchemaDiscoverer
	opts       DiscoveryOptions
	logger     *zap.Logger
}

// NewRelationshipDiscoveryService wires the pipeline stages over one
// discoverer.
func NewRelationshipDiscoveryService(discoverer datasource.SchemaDiscoverer, opts DiscoveryOptions, logger *zap.Logger) RelationshipDiscoveryService {
	return &discoveryService{
		discoverer: discoverer,
		opts:       opts,
		logger:     logger.Named("relationship-discovery"),
	}
}

func (s *discoveryService) Discover(ctx context.Context, explicitEdges []models.ExplicitEdge) (*DiscoveryResult, error) {
	started := time.Now()
	report := models.DiscoveryReport{
		RunID:     uuid.New(),
		StartedAt: started,
		Mode:      s.opts.Mode,
	}

	s.logger.Info("starting relationship discovery",
		zap.String("run_id", report.RunID.String()),
		zap.String("mode", s.opts.Mode))

	collector := NewMetadataCollector(s.discoverer, s.opts.Scope, s.logger)
	snapshot, err := collector.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect metadata: %w", err)
	}
	report.TablesAnalyzed = len(snapshot.Tables)
	report.TablesSkipped = snapshot.SkippedTables

	generator := NewCandidateGenerator(s.discoverer, s.opts.BooleanSampleSize, s.logger)
	pairs, err := generator.Generate(ctx, snapshot)
	if err != nil {
		return nil, fmt.Errorf("generate candidates: %w", err)
	}
	report.PairsTested = len(pairs)

	analyzer := NewStatisticalAnalyzer(s.discoverer, s.opts.SampleSize,
		s.opts.Thresholds.MinCoverage, s.opts.Thresholds.MaxNullRatio,
		s.opts.Workers, s.logger)
	analysis, err := analyzer.Analyze(ctx, pairs, snapshot)
	if err != nil {
		return nil, fmt.Errorf("analyze pairs: %w", err)
	}
	report.PairsDropped = analysis.DroppedPairs
	report.RawCandidates = len(analysis.Candidates)
	report.Cancelled = analysis.Cancelled

	resolved := ResolveConflicts(analysis.Candidates)
	report.ResolvedCandidates = len(resolved)

	filter := NewQualityFilter(s.opts.Mode, s.opts.Thresholds, s.logger)
	accepted, tierCounts := filter.Apply(resolved)
	report.AcceptedCandidates = len(accepted)
	report.TierCounts = tierCounts

	if len(explicitEdges) == 0 && s.discoverer.SupportsForeignKeys() {
		explicitEdges, err = s.loadExplicitEdges(ctx, snapshot)
		if err != nil {
			return nil, err
		}
	}
	report.ExplicitEdges = len(explicitEdges)

	clusters := BuildClusters(explicitEdges, accepted)
	report.Clusters = len(clusters)

	records := EmitRelationships(clusters)
	report.Records = len(records)
	report.Duration = time.Since(started)

	s.logger.Info("relationship discovery complete",
		zap.String("run_id", report.RunID.String()),
		zap.Int("accepted", report.AcceptedCandidates),
		zap.Int("clusters", report.Clusters),
		zap.Int("records", report.Records),
		zap.Bool("cancelled", report.Cancelled),
		zap.Duration("duration", report.Duration))

	return &DiscoveryResult{
		Snapshot:   snapshot,
		Candidates: resolved,
		Accepted:   accepted,
		Explicit:   explicitEdges,
		Clusters:   clusters,
		Records:    records,
		Report:     report,
	}, nil
}

// loadExplicitEdges reads declared FK constraints from the catalog,
// restricted to tables in scope. Single-column identities mean composite
// constraints contribute one edge per column pair, which is exactly what
// the cluster builder wants.
func (s *discoveryService) loadExplicitEdges(ctx context.Context, snapshot *SchemaSnapshot) ([]models.ExplicitEdge, error) {
	fks, err := s.discoverer.DiscoverForeignKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover foreign keys: %w", err)
	}

	inScope := make(map[string]struct{}, len(snapshot.Tables))
	for _, t := range snapshot.Tables {
		inScope[t] = struct{}{}
	}

	var edges []models.ExplicitEdge
	for _, fk := range fks {
		if _, ok := inScope[fk.SourceTable]; !ok {
			continue
		}
		if _, ok := inScope[fk.TargetTable]; !ok {
			continue
		}
		edges = append(edges, models.ExplicitEdge{
			FKTable:  fk.SourceTable,
			FKColumn: fk.SourceColumn,
			PKTable:  fk.TargetTable,
			PKColumn: fk.TargetColumn,
		})
	}

	s.logger.Info("explicit edges loaded from catalog",
		zap.Int("constraint_columns", len(fks)),
		zap.Int("in_scope", len(edges)))

	return edges, nil
}
