// Package datasource defines the adapter surface relationship discovery
// needs from a database: catalog metadata, per-column statistics, and
// sampled distinct values. Concrete adapters live in subpackages and
// register themselves via Register in their init().
package datasource

import "context"

// Config holds connection parameters common to all adapters. Each adapter
// builds its own DSN from these fields.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	// Schema scopes discovery for engines that namespace tables within a
	// database (postgres "public", sqlserver "dbo"). Ignored by MySQL.
	Schema string
}

// SchemaDiscoverer discovers schema metadata and column statistics from a
// single database. Implementations must be safe for concurrent use: the
// statistical analyzer issues ColumnStats and SampleDistinctValues calls
// from multiple goroutines.
type SchemaDiscoverer interface {
	// DiscoverTables returns all user tables in the configured scope.
	DiscoverTables(ctx context.Context) ([]TableMetadata, error)

	// DiscoverColumns returns the columns of one table in ordinal order.
	DiscoverColumns(ctx context.Context, table string) ([]ColumnMetadata, error)

	// DiscoverPrimaryKeys returns the primary key columns of one table in
	// key ordinal order. Empty when the table has no primary key.
	DiscoverPrimaryKeys(ctx context.Context, table string) ([]string, error)

	// DiscoverForeignKeys returns all declared FK constraints in the scope.
	DiscoverForeignKeys(ctx context.Context) ([]ForeignKeyMetadata, error)

	// SupportsForeignKeys reports whether the engine exposes declared FK
	// constraints at all.
	SupportsForeignKeys() bool

	// ColumnStats measures row count, null count and distinct count over
	// the full table, not a sample.
	ColumnStats(ctx context.Context, table, column string) (*ColumnStats, error)

	// SampleDistinctValues returns up to limit distinct non-null values of
	// a column, cast to text.
	SampleDistinctValues(ctx context.Context, table, column string, limit int) ([]string, error)

	// Close releases the underlying connection pool.
	Close() error
}
