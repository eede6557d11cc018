package services

import (
	"context"
	"fmt"

	"github.com/ekaya-inc/relgraph/pkg/adapters/datasource"
)

// fakeDiscoverer is an in-memory SchemaDiscoverer backed by fixture maps.
// Column values and stats are keyed "table.column". When no stats are set
// for a column, they are derived from its fixture values with zero nulls.
type fakeDiscoverer struct {
	tables      []datasource.TableMetadata
	columns     map[string][]datasource.ColumnMetadata
	primaryKeys map[string][]string
	foreignKeys []datasource.ForeignKeyMetadata
	values      map[string][]string
	stats       map[string]datasource.ColumnStats
	noFKSupport bool

	tablesErr  error
	columnsErr map[string]error
	pkErr      map[string]error
	statsErr   map[string]error
	sampleErr  map[string]error
}

func colKey(table, column string) string {
	return table + "." + column
}

func (f *fakeDiscoverer) DiscoverTables(context.Context) ([]datasource.TableMetadata, error) {
	if f.tablesErr != nil {
		return nil, f.tablesErr
	}
	return f.tables, nil
}

func (f *fakeDiscoverer) DiscoverColumns(_ context.Context, table string) ([]datasource.ColumnMetadata, error) {
	if err := f.columnsErr[table]; err != nil {
		return nil, err
	}
	return f.columns[table], nil
}

func (f *fakeDiscoverer) DiscoverPrimaryKeys(_ context.Context, table string) ([]string, error) {
	if err := f.pkErr[table]; err != nil {
		return nil, err
	}
	return f.primaryKeys[table], nil
}

func (f *fakeDiscoverer) DiscoverForeignKeys(context.Context) ([]datasource.ForeignKeyMetadata, error) {
	return f.foreignKeys, nil
}

func (f *fakeDiscoverer) SupportsForeignKeys() bool {
	return !f.noFKSupport
}

func (f *fakeDiscoverer) ColumnStats(_ context.Context, table, column string) (*datasource.ColumnStats, error) {
	key := colKey(table, column)
	if err := f.statsErr[key]; err != nil {
		return nil, err
	}
	if s, ok := f.stats[key]; ok {
		return &s, nil
	}
	vals, ok := f.values[key]
	if !ok {
		return nil, fmt.Errorf("no fixture values for %s", key)
	}
	n := int64(len(vals))
	return &datasource.ColumnStats{TotalCount: n, NullCount: 0, DistinctCount: n}, nil
}

func (f *fakeDiscoverer) SampleDistinctValues(_ context.Context, table, column string, limit int) ([]string, error) {
	key := colKey(table, column)
	if err := f.sampleErr[key]; err != nil {
		return nil, err
	}
	vals := f.values[key]
	if limit < len(vals) {
		vals = vals[:limit]
	}
	return vals, nil
}

func (f *fakeDiscoverer) Close() error { return nil }

// newCommerceFixture builds a three-table schema whose data encodes two
// real references: order_items.order_id -> orders.id (implicit only) and
// orders.customer_id -> customers.id (also a declared constraint).
func newCommerceFixture() *fakeDiscoverer {
	intCol := func(name string, pk bool, pos int) datasource.ColumnMetadata {
		return datasource.ColumnMetadata{
			ColumnName:      name,
			DataType:        "int",
			ColumnType:      "int",
			IsNullable:      !pk,
			IsPrimaryKey:    pk,
			OrdinalPosition: pos,
		}
	}

	return &fakeDiscoverer{
		tables: []datasource.TableMetadata{
			{TableName: "order_items", RowCount: 4},
			{TableName: "orders", RowCount: 3},
			{TableName: "customers", RowCount: 5},
		},
		columns: map[string][]datasource.ColumnMetadata{
			"order_items": {intCol("id", true, 1), intCol("order_id", false, 2)},
			"orders": {
				intCol("id", true, 1),
				intCol("customer_id", false, 2),
				{ColumnName: "status", DataType: "varchar", ColumnType: "varchar(20)", IsNullable: true, OrdinalPosition: 3},
			},
			"customers": {intCol("id", true, 1)},
		},
		primaryKeys: map[string][]string{
			"order_items": {"id"},
			"orders":      {"id"},
			"customers":   {"id"},
		},
		foreignKeys: []datasource.ForeignKeyMetadata{
			{
				ConstraintName: "fk_orders_customer",
				SourceTable:    "orders",
				SourceColumn:   "customer_id",
				TargetTable:    "customers",
				TargetColumn:   "id",
			},
		},
		values: map[string][]string{
			"order_items.id":       {"100", "101", "102", "103"},
			"order_items.order_id": {"10", "11"},
			"orders.id":            {"10", "11", "12"},
			"orders.customer_id":   {"1", "2", "3"},
			"orders.status":        {"new", "paid"},
			"customers.id":         {"1", "2", "3", "4", "5"},
		},
	}
}
