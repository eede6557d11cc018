// Package graph renders relationship records for a property-graph store
// where columns are nodes keyed by (table, name). Statements are written
// to files rather than executed, so any Cypher-speaking store can import
// them.
package graph

import (
	"fmt"
	"strings"

	"github.com/ekaya-inc/relgraph/pkg/models"
)

// escapeString escapes a value for a single-quoted Cypher string literal.
func escapeString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// MergeStatement renders one record as a MERGE between existing Column
// nodes. MERGE keeps the import idempotent: re-running a script never
// duplicates relationships.
func MergeStatement(r models.RelationshipRecord) string {
	return fmt.Sprintf(
		"MATCH (a:Column), (b:Column) WHERE a.table = '%s' AND a.name = '%s' AND b.table = '%s' AND b.name = '%s' MERGE (a)-[:%s]->(b) RETURN a,b",
		escapeString(r.SourceTable),
		escapeString(r.SourceColumn),
		escapeString(r.TargetTable),
		escapeString(r.TargetColumn),
		r.Relation,
	)
}

// Script renders all records as one newline-terminated statement list.
func Script(records []models.RelationshipRecord) string {
	var b strings.Builder
	for _, r := range records {
		b.WriteString(MergeStatement(r))
		b.WriteString(";\n")
	}
	return b.String()
}
