package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/relgraph/pkg/adapters/datasource"
	"github.com/ekaya-inc/relgraph/pkg/models"
)

// minTableSimilarityForBareID gates pairs whose fk column is the bare
// identifier "id": without some table-name affinity, such pairs are noise.
const minTableSimilarityForBareID = 0.3

// CandidateGenerator enumerates column pairs worth measuring.
type CandidateGenerator interface {
	Generate(ctx context.Context, snapshot *SchemaSnapshot) ([]models.CandidatePair, error)
}

type candidateGenerator struct {
	discoverer        datasource.SchemaDiscoverer
	booleanSampleSize int
	logger            *zap.Logger

	// booleanCache memoizes per-column boolean-domain probes. Generation
	// is single-threaded so a plain map suffices.
	booleanCache map[string]bool
}

// NewCandidateGenerator creates a generator. The discoverer is only used
// for the boolean-domain probe.
func NewCandidateGenerator(discoverer datasource.SchemaDiscoverer, booleanSampleSize int, logger *zap.Logger) CandidateGenerator {
	return &candidateGenerator{
		discoverer:        discoverer,
		booleanSampleSize: booleanSampleSize,
		logger:            logger.Named("candidate-generator"),
		booleanCache:      make(map[string]bool),
	}
}

// Generate walks every cross-table column pair once, in snapshot order,
// and keeps pairs that pass the cheap prefilters: same data type, no
// boolean-domain column on either side, and no bare-"id" fk column
// pointing at an unrelated table. An unordered seen-set guarantees each
// pair is tested in one orientation only.
func (g *candidateGenerator) Generate(ctx context.Context, snapshot *SchemaSnapshot) ([]models.CandidatePair, error) {
	seen := make(map[string]struct{})
	var pairs []models.CandidatePair

	for _, fkTable := range snapshot.Tables {
		for _, fkCol := range snapshot.Columns[fkTable] {
			for _, pkTable := range snapshot.Tables {
				if pkTable == fkTable {
					continue
				}
				if err := ctx.Err(); err != nil {
					return nil, err
				}

				for _, pkCol := range snapshot.Columns[pkTable] {
					key := pairKey(fkTable, fkCol.Column, pkTable, pkCol.Column)
					if _, ok := seen[key]; ok {
						continue
					}
					seen[key] = struct{}{}

					if fkCol.DataType != pkCol.DataType {
						continue
					}
					if g.shouldSkipBareID(fkCol.Column, fkTable, pkTable) {
						continue
					}
					if g.isBooleanColumn(ctx, fkTable, fkCol.Column) ||
						g.isBooleanColumn(ctx, pkTable, pkCol.Column) {
						continue
					}

					pairs = append(pairs, models.CandidatePair{
						FKTable:  fkTable,
						FKColumn: fkCol.Column,
						PKTable:  pkTable,
						PKColumn: pkCol.Column,
						FKType:   fkCol.ColumnType,
						PKType:   pkCol.ColumnType,
					})
				}
			}
		}
	}

	g.logger.Info("candidate pairs generated", zap.Int("pairs", len(pairs)))

	return pairs, nil
}

// pairKey builds an orientation-independent key for a column pair.
func pairKey(fkTable, fkColumn, pkTable, pkColumn string) string {
	a := fkTable + "." + fkColumn
	b := pkTable + "." + pkColumn
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

// shouldSkipBareID rejects fk columns literally named "id" unless the two
// table names resemble each other. Every table has an id column; without
// this gate they all pair with each other.
func (g *candidateGenerator) shouldSkipBareID(fkColumn, fkTable, pkTable string) bool {
	if !strings.EqualFold(fkColumn, "id") {
		return false
	}
	return NameSimilarity(fkTable, pkTable) < minTableSimilarityForBareID
}

// isBooleanColumn probes a column's sampled domain for boolean flags.
// A failed probe counts as not boolean; the statistics pass will surface
// the error properly if the column is truly unreadable.
func (g *candidateGenerator) isBooleanColumn(ctx context.Context, table, column string) bool {
	key := table + "." + column
	if cached, ok := g.booleanCache[key]; ok {
		return cached
	}

	values, err := g.discoverer.SampleDistinctValues(ctx, table, column, g.booleanSampleSize)
	if err != nil {
		g.logger.Debug("boolean probe failed",
			zap.String("table", table),
			zap.String("column", column),
			zap.Error(err))
		g.booleanCache[key] = false
		return false
	}

	result := IsBooleanDomain(values)
	g.booleanCache[key] = result
	return result
}
