package services

import (
	"sort"

	"github.com/ekaya-inc/relgraph/pkg/models"
)

// ResolveConflicts keeps a single best target per fk column. A real foreign
// key points at one table, so competing candidates for the same source
// column are ranked by coverage, then name similarity, then whether the
// target is an actual primary key. Ties beyond that break on target name so
// the result is deterministic regardless of input order.
func ResolveConflicts(candidates []models.RelationshipCandidate) []models.RelationshipCandidate {
	groups := make(map[string][]models.RelationshipCandidate)
	var order []string
	for _, c := range candidates {
		key := c.FKTable + "." + c.FKColumn
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], c)
	}
	sort.Strings(order)

	resolved := make([]models.RelationshipCandidate, 0, len(order))
	for _, key := range order {
		group := groups[key]
		sort.Slice(group, func(i, j int) bool {
			return betterCandidate(group[i], group[j])
		})
		resolved = append(resolved, group[0])
	}

	return resolved
}

// betterCandidate orders a above b when a is the stronger pick.
func betterCandidate(a, b models.RelationshipCandidate) bool {
	if a.Coverage != b.Coverage {
		return a.Coverage > b.Coverage
	}
	if a.NameSimilarity != b.NameSimilarity {
		return a.NameSimilarity > b.NameSimilarity
	}
	if a.PKIsPrimary != b.PKIsPrimary {
		return a.PKIsPrimary
	}
	if a.PKTable != b.PKTable {
		return a.PKTable < b.PKTable
	}
	return a.PKColumn < b.PKColumn
}
