package services

import (
	"strings"

	"github.com/ekaya-inc/relgraph/pkg/models"
)

// ScopeFilter narrows discovery to a subset of tables and columns.
// Include lists are applied before exclude lists. Column entries use
// "table.column" form; a bare table name covers every column of that table.
// Empty entries are ignored so trailing commas in env lists are harmless.
type ScopeFilter struct {
	IncludeTables  []string
	ExcludeTables  []string
	IncludeColumns []string
	ExcludeColumns []string
}

// FilterTables returns the tables that survive the table-level lists.
func (f ScopeFilter) FilterTables(tables []string) []string {
	include := cleanList(f.IncludeTables)
	exclude := cleanList(f.ExcludeTables)

	filtered := tables
	if len(include) > 0 {
		filtered = nil
		for _, t := range tables {
			if containsFold(include, t) {
				filtered = append(filtered, t)
			}
		}
	}

	if len(exclude) == 0 {
		return filtered
	}

	var result []string
	for _, t := range filtered {
		if !containsFold(exclude, t) {
			result = append(result, t)
		}
	}
	return result
}

// FilterColumns returns the columns of one table that survive the
// column-level lists.
func (f ScopeFilter) FilterColumns(table string, columns []models.ColumnDescriptor) []models.ColumnDescriptor {
	include := entriesForTable(cleanList(f.IncludeColumns), table)
	exclude := entriesForTable(cleanList(f.ExcludeColumns), table)

	filtered := columns
	if len(include) > 0 {
		filtered = nil
		for _, c := range columns {
			if columnListed(include, table, c.Column) {
				filtered = append(filtered, c)
			}
		}
	}

	if len(exclude) == 0 {
		return filtered
	}

	var result []models.ColumnDescriptor
	for _, c := range filtered {
		if !columnListed(exclude, table, c.Column) {
			result = append(result, c)
		}
	}
	return result
}

// entriesForTable keeps only the list entries scoped to the given table,
// either "table.column" or the bare table name.
func entriesForTable(entries []string, table string) []string {
	var scoped []string
	for _, e := range entries {
		if strings.EqualFold(e, table) {
			scoped = append(scoped, e)
			continue
		}
		if i := strings.IndexByte(e, '.'); i > 0 && strings.EqualFold(e[:i], table) {
			scoped = append(scoped, e)
		}
	}
	return scoped
}

// columnListed reports whether a column matches any scoped entry. A bare
// table entry matches every column of the table.
func columnListed(scoped []string, table, column string) bool {
	for _, e := range scoped {
		if strings.EqualFold(e, table) {
			return true
		}
		if i := strings.IndexByte(e, '.'); i > 0 && strings.EqualFold(e[i+1:], column) {
			return true
		}
	}
	return false
}

func cleanList(entries []string) []string {
	var cleaned []string
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e != "" {
			cleaned = append(cleaned, e)
		}
	}
	return cleaned
}

func containsFold(list []string, s string) bool {
	for _, e := range list {
		if strings.EqualFold(e, s) {
			return true
		}
	}
	return false
}
