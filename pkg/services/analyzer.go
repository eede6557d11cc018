package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ekaya-inc/relgraph/pkg/adapters/datasource"
	"github.com/ekaya-inc/relgraph/pkg/apperrors"
	"github.com/ekaya-inc/relgraph/pkg/models"
)

// AnalysisResult carries measured candidates plus bookkeeping for the report.
type AnalysisResult struct {
	Candidates []models.RelationshipCandidate

	// DroppedPairs counts pairs lost to statistics query failures.
	DroppedPairs int

	// Cancelled is set when the context was cancelled mid-analysis; the
	// candidates gathered so far are still valid.
	Cancelled bool
}

// StatisticalAnalyzer measures candidate pairs against the live data and
// keeps those whose coverage and null ratio clear the raw thresholds.
type StatisticalAnalyzer interface {
	Analyze(ctx context.Context, pairs []models.CandidatePair, snapshot *SchemaSnapshot) (*AnalysisResult, error)
}

type statisticalAnalyzer struct {
	discoverer        datasource.SchemaDiscoverer
	sampleSize        int
	coverageThreshold float64
	maxNullRatio      float64
	workers           int
	logger            *zap.Logger
}

// NewStatisticalAnalyzer creates an analyzer. workers bounds concurrent
// queries against the datasource.
func NewStatisticalAnalyzer(discoverer datasource.SchemaDiscoverer, sampleSize int, coverageThreshold, maxNullRatio float64, workers int, logger *zap.Logger) StatisticalAnalyzer {
	return &statisticalAnalyzer{
		discoverer:        discoverer,
		sampleSize:        sampleSize,
		coverageThreshold: coverageThreshold,
		maxNullRatio:      maxNullRatio,
		workers:           workers,
		logger:            logger.Named("statistical-analyzer"),
	}
}

// Analyze measures pairs concurrently. A single pair's query failure drops
// that pair and the run continues; cancellation stops scheduling and
// returns the partial result with Cancelled set. Results are sorted so the
// outcome does not depend on goroutine completion order.
func (a *statisticalAnalyzer) Analyze(ctx context.Context, pairs []models.CandidatePair, snapshot *SchemaSnapshot) (*AnalysisResult, error) {
	result := &AnalysisResult{}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	for _, pair := range pairs {
		pair := pair
		if gctx.Err() != nil {
			result.Cancelled = true
			break
		}

		g.Go(func() error {
			candidate, err := a.analyzePair(gctx, pair, snapshot)
			if err != nil {
				if gctx.Err() != nil {
					// Cancellation surfaces as query errors; don't count
					// those as dropped pairs.
					return nil
				}
				a.logger.Warn("dropping pair",
					zap.String("fk", pair.FKTable+"."+pair.FKColumn),
					zap.String("pk", pair.PKTable+"."+pair.PKColumn),
					zap.Error(fmt.Errorf("%w: %v", apperrors.ErrQuery, err)))
				mu.Lock()
				result.DroppedPairs++
				mu.Unlock()
				return nil
			}
			if candidate == nil {
				return nil
			}

			mu.Lock()
			result.Candidates = append(result.Candidates, *candidate)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		result.Cancelled = true
	}

	sort.Slice(result.Candidates, func(i, j int) bool {
		ci, cj := result.Candidates[i], result.Candidates[j]
		if ci.FKTable != cj.FKTable {
			return ci.FKTable < cj.FKTable
		}
		if ci.FKColumn != cj.FKColumn {
			return ci.FKColumn < cj.FKColumn
		}
		if ci.PKTable != cj.PKTable {
			return ci.PKTable < cj.PKTable
		}
		return ci.PKColumn < cj.PKColumn
	})

	a.logger.Info("statistical analysis complete",
		zap.Int("pairs", len(pairs)),
		zap.Int("candidates", len(result.Candidates)),
		zap.Int("dropped", result.DroppedPairs),
		zap.Bool("cancelled", result.Cancelled))

	return result, nil
}

// analyzePair measures one pair. Returns (nil, nil) when the pair fails a
// raw threshold; statistics are ordered cheapest-reject first so most pairs
// never reach the full-table counts.
func (a *statisticalAnalyzer) analyzePair(ctx context.Context, pair models.CandidatePair, snapshot *SchemaSnapshot) (*models.RelationshipCandidate, error) {
	fkValues, err := a.discoverer.SampleDistinctValues(ctx, pair.FKTable, pair.FKColumn, a.sampleSize)
	if err != nil {
		return nil, fmt.Errorf("sample fk values: %w", err)
	}
	pkValues, err := a.discoverer.SampleDistinctValues(ctx, pair.PKTable, pair.PKColumn, a.sampleSize)
	if err != nil {
		return nil, fmt.Errorf("sample pk values: %w", err)
	}

	coverage := Coverage(fkValues, pkValues)
	if coverage < a.coverageThreshold {
		return nil, nil
	}

	fkStats, err := a.discoverer.ColumnStats(ctx, pair.FKTable, pair.FKColumn)
	if err != nil {
		return nil, fmt.Errorf("fk column stats: %w", err)
	}
	nullRatio := fkStats.NullRatio()
	if nullRatio > a.maxNullRatio {
		return nil, nil
	}

	pkStats, err := a.discoverer.ColumnStats(ctx, pair.PKTable, pair.PKColumn)
	if err != nil {
		return nil, fmt.Errorf("pk column stats: %w", err)
	}

	return &models.RelationshipCandidate{
		CandidatePair:    pair,
		Coverage:         coverage,
		NullRatio:        nullRatio,
		CardinalityRatio: CardinalityRatio(fkStats.DistinctCount, pkStats.DistinctCount),
		NameSimilarity:   ColumnTableSimilarity(pair.FKColumn, pair.PKTable),
		PKIsPrimary:      snapshot.IsPrimaryKey(pair.PKTable, pair.PKColumn),
	}, nil
}
