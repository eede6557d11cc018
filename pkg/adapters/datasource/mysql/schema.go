package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	mysqldrv "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/ekaya-inc/relgraph/pkg/adapters/datasource"
	"github.com/ekaya-inc/relgraph/pkg/logging"
)

// quoteName quotes a MySQL identifier with backticks, escaping embedded ones.
func quoteName(identifier string) string {
	return "`" + strings.ReplaceAll(identifier, "`", "``") + "`"
}

// buildDSN builds a driver DSN from the shared config.
func buildDSN(cfg datasource.Config) string {
	mc := mysqldrv.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	mc.DBName = cfg.Database
	return mc.FormatDSN()
}

// SchemaDiscoverer provides MySQL schema discovery via INFORMATION_SCHEMA.
// Discovery is scoped to the configured database, so table names are unique
// without schema qualification.
type SchemaDiscoverer struct {
	db       *sql.DB
	database string
	logger   *zap.Logger
}

// NewSchemaDiscoverer connects to MySQL and verifies the connection.
// If logger is nil, a no-op logger is used.
func NewSchemaDiscoverer(ctx context.Context, cfg datasource.Config, logger *zap.Logger) (*SchemaDiscoverer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dsn := buildDSN(cfg)
	logger.Debug("connecting to mysql",
		zap.String("dsn", logging.SanitizeConnectionString(dsn)))

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	return &SchemaDiscoverer{
		db:       db,
		database: cfg.Database,
		logger:   logger,
	}, nil
}

// Close releases the connection pool.
func (d *SchemaDiscoverer) Close() error {
	return d.db.Close()
}

// DiscoverTables returns all base tables in the configured database.
func (d *SchemaDiscoverer) DiscoverTables(ctx context.Context) ([]datasource.TableMetadata, error) {
	const query = `
		SELECT TABLE_NAME, COALESCE(TABLE_ROWS, 0)
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME
	`

	rows, err := d.db.QueryContext(ctx, query, d.database)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	var tables []datasource.TableMetadata
	for rows.Next() {
		var t datasource.TableMetadata
		if err := rows.Scan(&t.TableName, &t.RowCount); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		tables = append(tables, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}

	return tables, nil
}

// DiscoverColumns returns columns for a specific table. COLUMN_TYPE carries
// the display width, which distinguishes tinyint(1) boolean flags.
func (d *SchemaDiscoverer) DiscoverColumns(ctx context.Context, table string) ([]datasource.ColumnMetadata, error) {
	const query = `
		SELECT
			COLUMN_NAME,
			DATA_TYPE,
			COLUMN_TYPE,
			IS_NULLABLE = 'YES',
			COLUMN_KEY = 'PRI',
			ORDINAL_POSITION
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION
	`

	rows, err := d.db.QueryContext(ctx, query, d.database, table)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	var columns []datasource.ColumnMetadata
	for rows.Next() {
		var c datasource.ColumnMetadata
		if err := rows.Scan(&c.ColumnName, &c.DataType, &c.ColumnType, &c.IsNullable, &c.IsPrimaryKey, &c.OrdinalPosition); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns = append(columns, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}

	return columns, nil
}

// DiscoverPrimaryKeys returns the primary key columns of a table in key order.
func (d *SchemaDiscoverer) DiscoverPrimaryKeys(ctx context.Context, table string) ([]string, error) {
	const query = `
		SELECT COLUMN_NAME
		FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? AND CONSTRAINT_NAME = 'PRIMARY'
		ORDER BY ORDINAL_POSITION
	`

	rows, err := d.db.QueryContext(ctx, query, d.database, table)
	if err != nil {
		return nil, fmt.Errorf("query primary keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, fmt.Errorf("scan primary key: %w", err)
		}
		keys = append(keys, col)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate primary keys: %w", err)
	}

	return keys, nil
}

// DiscoverForeignKeys returns all declared foreign key constraints.
func (d *SchemaDiscoverer) DiscoverForeignKeys(ctx context.Context) ([]datasource.ForeignKeyMetadata, error) {
	const query = `
		SELECT
			CONSTRAINT_NAME,
			TABLE_NAME,
			COLUMN_NAME,
			REFERENCED_TABLE_NAME,
			REFERENCED_COLUMN_NAME
		FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = ? AND REFERENCED_TABLE_NAME IS NOT NULL
		ORDER BY CONSTRAINT_NAME, ORDINAL_POSITION
	`

	rows, err := d.db.QueryContext(ctx, query, d.database)
	if err != nil {
		return nil, fmt.Errorf("query foreign keys: %w", err)
	}
	defer rows.Close()

	var fks []datasource.ForeignKeyMetadata
	for rows.Next() {
		var fk datasource.ForeignKeyMetadata
		if err := rows.Scan(&fk.ConstraintName, &fk.SourceTable, &fk.SourceColumn,
			&fk.TargetTable, &fk.TargetColumn); err != nil {
			return nil, fmt.Errorf("scan foreign key: %w", err)
		}
		fks = append(fks, fk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate foreign keys: %w", err)
	}

	return fks, nil
}

// SupportsForeignKeys returns true. MyISAM tables simply report no
// constraints, which callers treat the same as an empty catalog.
func (d *SchemaDiscoverer) SupportsForeignKeys() bool {
	return true
}

// ColumnStats measures full-table counts for one column.
func (d *SchemaDiscoverer) ColumnStats(ctx context.Context, table, column string) (*datasource.ColumnStats, error) {
	quotedCol := quoteName(column)
	query := fmt.Sprintf(`
		SELECT COUNT(*), COUNT(%s), COUNT(DISTINCT %s)
		FROM %s
	`, quotedCol, quotedCol, quoteName(table))
	d.logger.Debug("column stats query", zap.String("query", logging.SanitizeQuery(query)))

	var stats datasource.ColumnStats
	var nonNull int64
	if err := d.db.QueryRowContext(ctx, query).Scan(&stats.TotalCount, &nonNull, &stats.DistinctCount); err != nil {
		return nil, fmt.Errorf("query column stats: %w", err)
	}
	stats.NullCount = stats.TotalCount - nonNull

	return &stats, nil
}

// SampleDistinctValues returns up to limit distinct non-null values cast to
// text. ORDER BY keeps repeated samples stable across a run.
func (d *SchemaDiscoverer) SampleDistinctValues(ctx context.Context, table, column string, limit int) ([]string, error) {
	quotedCol := quoteName(column)
	query := fmt.Sprintf(`
		SELECT DISTINCT CAST(%s AS CHAR)
		FROM %s
		WHERE %s IS NOT NULL
		ORDER BY 1
		LIMIT ?
	`, quotedCol, quoteName(table), quotedCol)
	d.logger.Debug("distinct values query", zap.String("query", logging.SanitizeQuery(query)))

	rows, err := d.db.QueryContext(ctx, query, limit)
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
