package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/microsoft/go-mssqldb"
	"go.uber.org/zap"

	"github.com/ekaya-inc/relgraph/pkg/adapters/datasource"
	"github.com/ekaya-inc/relgraph/pkg/logging"
)

// DefaultSchema is used when the config does not name one.
const DefaultSchema = "dbo"

// quoteName quotes a SQL Server identifier with square brackets,
// escaping ] as ]] the way QUOTENAME does.
func quoteName(identifier string) string {
	return "[" + strings.ReplaceAll(identifier, "]", "]]") + "]"
}

// qualifiedTableName builds a fully qualified table name: [schema].[table].
func qualifiedTableName(schema, table string) string {
	return quoteName(schema) + "." + quoteName(table)
}

// buildConnectionString builds a sqlserver:// URL with escaped credentials.
func buildConnectionString(cfg datasource.Config) string {
	query := url.Values{}
	query.Add("database", cfg.Database)
	query.Add("encrypt", "false")

	return fmt.Sprintf("sqlserver://%s:%s@%s:%d?%s",
		url.QueryEscape(cfg.User),
		url.QueryEscape(cfg.Password),
		cfg.Host,
		cfg.Port,
		query.Encode(),
	)
}

// SchemaDiscoverer provides SQL Server schema discovery.
type SchemaDiscoverer struct {
	db     *sql.DB
	schema string
	logger *zap.Logger
}

// NewSchemaDiscoverer connects to SQL Server and verifies the connection.
// If logger is nil, a no-op logger is used.
func NewSchemaDiscoverer(ctx context.Context, cfg datasource.Config, logger *zap.Logger) (*SchemaDiscoverer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	connStr := buildConnectionString(cfg)
	logger.Debug("connecting to sqlserver",
		zap.String("dsn", logging.SanitizeConnectionString(connStr)))

	db, err := sql.Open("sqlserver", connStr)
	if err != nil {
		return nil, fmt.Errorf("open sqlserver connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlserver: %w", err)
	}

	schema := cfg.Schema
	if schema == "" {
		schema = DefaultSchema
	}

	return &SchemaDiscoverer{
		db:     db,
		schema: schema,
		logger: logger,
	}, nil
}

// Close releases the connection pool.
func (d *SchemaDiscoverer) Close() error {
	return d.db.Close()
}

// DiscoverTables returns all user tables in the configured schema.
func (d *SchemaDiscoverer) DiscoverTables(ctx context.Context) ([]datasource.TableMetadata, error) {
	const query = `
	SET NOCOUNT ON;
	SELECT
	    t.name AS table_name,
	    SUM(p.rows) AS row_count
	FROM sys.tables t
	INNER JOIN sys.partitions p ON t.object_id = p.object_id
	WHERE p.index_id IN (0, 1)
	  AND t.is_ms_shipped = 0
	  AND SCHEMA_NAME(t.schema_id) = @schema
	GROUP BY t.name
	ORDER BY t.name
	`

	rows, err := d.db.QueryContext(ctx, query, sql.Named("schema", d.schema))
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	var tables []datasource.TableMetadata
	for rows.Next() {
		var t datasource.TableMetadata
		if err := rows.Scan(&t.TableName, &t.RowCount); err != nil {
			return nil, fmt.Errorf("scan table row: %w", err)
		}
		tables = append(tables, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table rows: %w", err)
	}

	return tables, nil
}

// DiscoverColumns returns columns for a specific table.
func (d *SchemaDiscoverer) DiscoverColumns(ctx context.Context, table string) ([]datasource.ColumnMetadata, error) {
	const query = `
	SET NOCOUNT ON;
	SELECT
	    c.name AS column_name,
	    tp.name AS data_type,
	    CASE WHEN c.is_nullable = 1 THEN 1 ELSE 0 END AS is_nullable,
	    CASE WHEN pk.column_id IS NOT NULL THEN 1 ELSE 0 END AS is_primary_key,
	    c.column_id AS ordinal_position
	FROM sys.columns c
	INNER JOIN sys.types tp ON c.user_type_id = tp.user_type_id
	LEFT JOIN (
	    SELECT ic.object_id, ic.column_id
	    FROM sys.index_columns ic
	    INNER JOIN sys.indexes i ON ic.object_id = i.object_id AND ic.index_id = i.index_id
	    WHERE i.is_primary_key = 1
	) pk ON c.object_id = pk.object_id AND c.column_id = pk.column_id
	WHERE c.object_id = OBJECT_ID(QUOTENAME(@schema) + N'.' + QUOTENAME(@table))
	ORDER BY c.column_id
	`

	rows, err := d.db.QueryContext(ctx, query,
		sql.Named("schema", d.schema),
		sql.Named("table", table),
	)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	var columns []datasource.ColumnMetadata
	for rows.Next() {
		var col datasource.ColumnMetadata
		var isNullable, isPrimary int

		if err := rows.Scan(&col.ColumnName, &col.DataType, &isNullable, &isPrimary, &col.OrdinalPosition); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}

		col.IsNullable = isNullable == 1
		col.IsPrimaryKey = isPrimary == 1
		col.ColumnType = col.DataType

		columns = append(columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate column rows: %w", err)
	}

	return columns, nil
}

// DiscoverPrimaryKeys returns the primary key columns of a table in key order.
func (d *SchemaDiscoverer) DiscoverPrimaryKeys(ctx context.Context, table string) ([]string, error) {
	const query = `
	SET NOCOUNT ON;
	SELECT c.name
	FROM sys.index_columns ic
	INNER JOIN sys.indexes i ON ic.object_id = i.object_id AND ic.index_id = i.index_id
	INNER JOIN sys.columns c ON ic.object_id = c.object_id AND ic.column_id = c.column_id
	WHERE i.is_primary_key = 1
	  AND ic.object_id = OBJECT_ID(QUOTENAME(@schema) + N'.' + QUOTENAME(@table))
	ORDER BY ic.key_ordinal
	`

	rows, err := d.db.QueryContext(ctx, query,
		sql.Named("schema", d.schema),
		sql.Named("table", table),
	)
	if err != nil {
		return nil, fmt.Errorf("query primary keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, fmt.Errorf("scan primary key row: %w", err)
		}
		keys = append(keys, col)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate primary key rows: %w", err)
	}

	return keys, nil
}

// DiscoverForeignKeys returns all declared foreign key constraints in the schema.
func (d *SchemaDiscoverer) DiscoverForeignKeys(ctx context.Context) ([]datasource.ForeignKeyMetadata, error) {
	const query = `
	SET NOCOUNT ON;
	SELECT
	    fk.name AS constraint_name,
	    OBJECT_NAME(fk.parent_object_id) AS source_table,
	    COL_NAME(fkc.parent_object_id, fkc.parent_column_id) AS source_column,
	    OBJECT_NAME(fk.referenced_object_id) AS target_table,
	    COL_NAME(fkc.referenced_object_id, fkc.referenced_column_id) AS target_column
	FROM sys.foreign_keys fk
	INNER JOIN sys.foreign_key_columns fkc ON fk.object_id = fkc.constraint_object_id
	WHERE fk.is_ms_shipped = 0
	  AND SCHEMA_NAME(fk.schema_id) = @schema
	ORDER BY fk.name, fkc.constraint_column_id
	`

	rows, err := d.db.QueryContext(ctx, query, sql.Named("schema", d.schema))
	if err != nil {
		return nil, fmt.Errorf("query foreign keys: %w", err)
	}
	defer rows.Close()

	var fks []datasource.ForeignKeyMetadata
	for rows.Next() {
		var fk datasource.ForeignKeyMetadata
		if err := rows.Scan(&fk.ConstraintName, &fk.SourceTable, &fk.SourceColumn,
			&fk.TargetTable, &fk.TargetColumn); err != nil {
			return nil, fmt.Errorf("scan foreign key row: %w", err)
		}
		fks = append(fks, fk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate foreign key rows: %w", err)
	}

	return fks, nil
}

// SupportsForeignKeys returns true since SQL Server supports foreign keys.
func (d *SchemaDiscoverer) SupportsForeignKeys() bool {
	return true
}

// ColumnStats measures full-table counts for one column.
func (d *SchemaDiscoverer) ColumnStats(ctx context.Context, table, column string) (*datasource.ColumnStats, error) {
	quotedCol := quoteName(column)
	query := fmt.Sprintf(`
	SET NOCOUNT ON;
	SELECT
	    COUNT_BIG(*) AS total_count,
	    COUNT_BIG(%s) AS non_null_count,
	    COUNT_BIG(DISTINCT %s) AS distinct_count
	FROM %s WITH (NOLOCK)
	`, quotedCol, quotedCol, qualifiedTableName(d.schema, table))
	d.logger.Debug("column stats query", zap.String("query", logging.SanitizeQuery(query)))

	var stats datasource.ColumnStats
	var nonNull int64
	if err := d.db.QueryRowContext(ctx, query).Scan(&stats.TotalCount, &nonNull, &stats.DistinctCount); err != nil {
		return nil, fmt.Errorf("query column stats: %w", err)
	}
	stats.NullCount = stats.TotalCount - nonNull

	return &stats, nil
}

// SampleDistinctValues returns up to limit distinct non-null values cast to text.
func (d *SchemaDiscoverer) SampleDistinctValues(ctx context.Context, table, column string, limit int) ([]string, error) {
	quotedCol := quoteName(column)
	query := fmt.Sprintf(`
	SET NOCOUNT ON;
	SELECT DISTINCT TOP (@limit) CAST(%s AS NVARCHAR(MAX)) AS val
	FROM %s WITH (NOLOCK)
	WHERE %s IS NOT NULL
	ORDER BY val
	`, quotedCol, qualifiedTableName(d.schema, table), quotedCol)
	d.logger.Debug("distinct values query", zap.String("query", logging.SanitizeQuery(query)))

	rows, err := d.db.QueryContext(ctx, query, sql.Named("limit", limit))
	if err != nil {
		return nil, fmt.Errorf("query distinct values: %w", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan distinct value: %w", err)
		}
		values = append(values, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate distinct values: %w", err)
	}

	return values, nil
}
