package services

import (
	"reflect"
	"testing"

	"github.com/ekaya-inc/relgraph/pkg/models"
)

func TestFilterTables(t *testing.T) {
	tables := []string{"orders", "customers", "audit_log"}

	tests := []struct {
		name     string
		filter   ScopeFilter
		expected []string
	}{
		{
			name:     "no lists keeps everything",
			filter:   ScopeFilter{},
			expected: []string{"orders", "customers", "audit_log"},
		},
		{
			name:     "include list narrows",
			filter:   ScopeFilter{IncludeTables: []string{"orders", "customers"}},
			expected: []string{"orders", "customers"},
		},
		{
			name:     "exclude list removes",
			filter:   ScopeFilter{ExcludeTables: []string{"audit_log"}},
			expected: []string{"orders", "customers"},
		},
		{
			name: "exclude applies after include",
			filter: ScopeFilter{
				IncludeTables: []string{"orders", "audit_log"},
				ExcludeTables: []string{"audit_log"},
			},
			expected: []string{"orders"},
		},
		{
			name:     "matching is case-insensitive",
			filter:   ScopeFilter{IncludeTables: []string{"ORDERS"}},
			expected: []string{"orders"},
		},
		{
			name:     "empty entries are ignored",
			filter:   ScopeFilter{ExcludeTables: []string{"", " ", "audit_log"}},
			expected: []string{"orders", "customers"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.FilterTables(tables)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("FilterTables() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestFilterColumns(t *testing.T) {
	columns := []models.ColumnDescriptor{
		{Table: "orders", Column: "id"},
		{Table: "orders", Column: "customer_id"},
		{Table: "orders", Column: "internal_notes"},
	}

	names := func(cols []models.ColumnDescriptor) []string {
		var out []string
		for _, c := range cols {
			out = append(out, c.Column)
		}
		return out
	}

	tests := []struct {
		name     string
		filter   ScopeFilter
		expected []string
	}{
		{
			name:     "no lists keeps everything",
			filter:   ScopeFilter{},
			expected: []string{"id", "customer_id", "internal_notes"},
		},
		{
			name:     "table.column exclude",
			filter:   ScopeFilter{ExcludeColumns: []string{"orders.internal_notes"}},
			expected: []string{"id", "customer_id"},
		},
		{
			name:     "table.column include",
			filter:   ScopeFilter{IncludeColumns: []string{"orders.id", "orders.customer_id"}},
			expected: []string{"id", "customer_id"},
		},
		{
			name:     "other table's entries do not apply",
			filter:   ScopeFilter{ExcludeColumns: []string{"customers.id"}},
			expected: []string{"id", "customer_id", "internal_notes"},
		},
		{
			name:     "bare table entry covers every column",
			filter:   ScopeFilter{ExcludeColumns: []string{"orders"}},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := names(tt.filter.FilterColumns("orders", columns))
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("FilterColumns() = %v, want %v", got, tt.expected)
			}
		})
	}
}
