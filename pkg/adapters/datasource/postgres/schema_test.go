package postgres

import (
	"strings"
	"testing"

	"github.com/ekaya-inc/relgraph/pkg/adapters/datasource"
)

func TestQualifiedTableName(t *testing.T) {
	tests := []struct {
		name     string
		schema   string
		table    string
		expected string
	}{
		{
			name:     "schema and table",
			schema:   "public",
			table:    "orders",
			expected: `"public"."orders"`,
		},
		{
			name:     "empty schema",
			schema:   "",
			table:    "orders",
			expected: `"orders"`,
		},
		{
			name:     "embedded quote escaped",
			schema:   "public",
			table:    `order"items`,
			expected: `"public"."order""items"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := qualifiedTableName(tt.schema, tt.table); got != tt.expected {
				t.Errorf("qualifiedTableName() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestBuildConnectionString(t *testing.T) {
	cfg := datasource.Config{
		Host:     "db.internal",
		Port:     5432,
		User:     "analytics",
		Password: "p@ss word",
		Database: "sales",
	}

	connStr := buildConnectionString(cfg)

	if strings.Contains(connStr, "p@ss word") {
		t.Errorf("password not escaped: %q", connStr)
	}
	if !strings.Contains(connStr, "db.internal:5432") {
		t.Errorf("connection string missing host: %q", connStr)
	}
	if !strings.Contains(connStr, "/sales?") {
		t.Errorf("connection string missing database: %q", connStr)
	}
}
