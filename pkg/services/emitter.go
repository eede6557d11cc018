package services

import (
	"sort"

	"github.com/ekaya-inc/relgraph/pkg/models"
)

// EmitRelationships turns clusters into pairwise records. Every unordered
// member pair of a cluster is emitted once, canonically oriented, except
// pairs within the same table, which say nothing about cross-table
// structure. A pair of two explicit members is an IS relationship; any
// inferred member weakens it to MOSTLYIS.
func EmitRelationships(clusters []models.Cluster) []models.RelationshipRecord {
	seen := make(map[string]struct{})
	var records []models.RelationshipRecord

	for _, cluster := range clusters {
		for i := 0; i < len(cluster.Members); i++ {
			for j := i + 1; j < len(cluster.Members); j++ {
				a, b := cluster.Members[i], cluster.Members[j]
				if a.Table == b.Table {
					continue
				}
				if b.ColumnIdentity.Less(a.ColumnIdentity) {
					a, b = b, a
				}

				record := models.RelationshipRecord{
					SourceTable:  a.Table,
					SourceColumn: a.Column,
					TargetTable:  b.Table,
					TargetColumn: b.Column,
					Relation:     models.RelationMostlyIS,
				}
				if a.Provenance == models.ProvenanceExplicit && b.Provenance == models.ProvenanceExplicit {
					record.Relation = models.RelationIS
				}

				if _, ok := seen[record.Key()]; ok {
					continue
				}
				seen[record.Key()] = struct{}{}
				records = append(records, record)
			}
		}
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Key() < records[j].Key()
	})

	return records
}
