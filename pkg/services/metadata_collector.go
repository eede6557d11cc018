package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/relgraph/pkg/adapters/datasource"
	"github.com/ekaya-inc/relgraph/pkg/apperrors"
	"github.com/ekaya-inc/relgraph/pkg/models"
)

// SchemaSnapshot is the materialized, scope-filtered view of the schema
// that the rest of the pipeline works from. Tables keeps catalog order so
// downstream stages are deterministic.
type SchemaSnapshot struct {
	Tables      []string
	Columns     map[string][]models.ColumnDescriptor
	PrimaryKeys map[string][]string

	// SkippedTables counts tables dropped because their metadata could
	// not be read.
	SkippedTables int
}

// IsPrimaryKey reports whether a column is part of its table's primary key.
func (s *SchemaSnapshot) IsPrimaryKey(table, column string) bool {
	for _, pk := range s.PrimaryKeys[table] {
		if pk == column {
			return true
		}
	}
	return false
}

// MetadataCollector builds schema snapshots from a datasource.
type MetadataCollector interface {
	Collect(ctx context.Context) (*SchemaSnapshot, error)
}

type metadataCollector struct {
	discoverer datasource.SchemaDiscoverer
	filter     ScopeFilter
	logger     *zap.Logger
}

// NewMetadataCollector creates a metadata collector over a discoverer.
func NewMetadataCollector(discoverer datasource.SchemaDiscoverer, filter ScopeFilter, logger *zap.Logger) MetadataCollector {
	return &metadataCollector{
		discoverer: discoverer,
		filter:     filter,
		logger:     logger.Named("metadata-collector"),
	}
}

// Collect lists tables, applies the scope filter, and reads columns and
// primary keys per table. A table whose metadata cannot be read is logged
// and skipped; a failure to list tables at all is fatal.
func (c *metadataCollector) Collect(ctx context.Context) (*SchemaSnapshot, error) {
	tableMeta, err := c.discoverer.DiscoverTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: discover tables: %v", apperrors.ErrConnection, err)
	}

	names := make([]string, 0, len(tableMeta))
	for _, t := range tableMeta {
		names = append(names, t.TableName)
	}
	names = c.filter.FilterTables(names)

	snapshot := &SchemaSnapshot{
		Columns:     make(map[string][]models.ColumnDescriptor, len(names)),
		PrimaryKeys: make(map[string][]string, len(names)),
	}

	for _, table := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		columns, err := c.discoverer.DiscoverColumns(ctx, table)
		if err != nil {
			c.logger.Warn("skipping table, columns unavailable",
				zap.String("table", table),
				zap.Error(fmt.Errorf("%w: %v", apperrors.ErrMetadata, err)))
			snapshot.SkippedTables++
			continue
		}

		pks, err := c.discoverer.DiscoverPrimaryKeys(ctx, table)
		if err != nil {
			c.logger.Warn("skipping table, primary keys unavailable",
				zap.String("table", table),
				zap.Error(fmt.Errorf("%w: %v", apperrors.ErrMetadata, err)))
			snapshot.SkippedTables++
			continue
		}

		descriptors := make([]models.ColumnDescriptor, 0, len(columns))
		for _, col := range columns {
			descriptors = append(descriptors, models.ColumnDescriptor{
				Table:        table,
				Column:       col.ColumnName,
				DataType:     col.DataType,
				ColumnType:   col.ColumnType,
				IsNullable:   col.IsNullable,
				IsPrimaryKey: col.IsPrimaryKey,
			})
		}
		descriptors = c.filter.FilterColumns(table, descriptors)
		if len(descriptors) == 0 {
			c.logger.Debug("table has no columns in scope", zap.String("table", table))
			continue
		}

		snapshot.Tables = append(snapshot.Tables, table)
		snapshot.Columns[table] = descriptors
		snapshot.PrimaryKeys[table] = pks
	}

	c.logger.Info("schema snapshot collected",
		zap.Int("tables", len(snapshot.Tables)),
		zap.Int("skipped", snapshot.SkippedTables))

	return snapshot, nil
}
