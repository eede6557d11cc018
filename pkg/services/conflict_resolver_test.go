package services

import (
	"reflect"
	"testing"

	"github.com/ekaya-inc/relgraph/pkg/models"
)

func candidate(fkTable, fkColumn, pkTable, pkColumn string, coverage, similarity float64, pkIsPrimary bool) models.RelationshipCandidate {
	return models.RelationshipCandidate{
		CandidatePair: models.CandidatePair{
			FKTable:  fkTable,
			FKColumn: fkColumn,
			PKTable:  pkTable,
			PKColumn: pkColumn,
			FKType:   "int",
			PKType:   "int",
		},
		Coverage:       coverage,
		NameSimilarity: similarity,
		PKIsPrimary:    pkIsPrimary,
	}
}

func TestResolveConflictsPicksBestTarget(t *testing.T) {
	tests := []struct {
		name       string
		candidates []models.RelationshipCandidate
		wantPK     string
	}{
		{
			name: "higher coverage wins",
			candidates: []models.RelationshipCandidate{
				candidate("orders", "customer_id", "clients", "id", 0.90, 0.9, true),
				candidate("orders", "customer_id", "customers", "id", 0.99, 0.9, true),
			},
			wantPK: "customers",
		},
		{
			name: "similarity breaks coverage ties",
			candidates: []models.RelationshipCandidate{
				candidate("orders", "customer_id", "clients", "id", 0.95, 0.2, true),
				candidate("orders", "customer_id", "customers", "id", 0.95, 0.9, true),
			},
			wantPK: "customers",
		},
		{
			name: "real primary key breaks remaining ties",
			candidates: []models.RelationshipCandidate{
				candidate("orders", "customer_id", "customer_archive", "id", 0.95, 0.9, false),
				candidate("orders", "customer_id", "customers", "id", 0.95, 0.9, true),
			},
			wantPK: "customers",
		},
		{
			name: "full tie falls back to target name",
			candidates: []models.RelationshipCandidate{
				candidate("orders", "customer_id", "customers_b", "id", 0.95, 0.9, true),
				candidate("orders", "customer_id", "customers_a", "id", 0.95, 0.9, true),
			},
			wantPK: "customers_a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved := ResolveConflicts(tt.candidates)
			if len(resolved) != 1 {
				t.Fatalf("got %d candidates, want 1", len(resolved))
			}
			if resolved[0].PKTable != tt.wantPK {
				t.Errorf("winner targets %s, want %s", resolved[0].PKTable, tt.wantPK)
			}
		})
	}
}

func TestResolveConflictsKeepsIndependentGroups(t *testing.T) {
	candidates := []models.RelationshipCandidate{
		candidate("orders", "customer_id", "customers", "id", 0.99, 0.9, true),
		candidate("order_items", "order_id", "orders", "id", 0.99, 0.9, true),
	}

	resolved := ResolveConflicts(candidates)
	if len(resolved) != 2 {
		t.Fatalf("got %d candidates, want 2", len(resolved))
	}
}

func TestResolveConflictsIsDeterministic(t *testing.T) {
	forward := []models.RelationshipCandidate{
		candidate("orders", "customer_id", "clients", "id", 0.90, 0.3, true),
		candidate("orders", "customer_id", "customers", "id", 0.99, 0.9, true),
		candidate("order_items", "order_id", "orders", "id", 0.99, 0.9, true),
	}
	reversed := []models.RelationshipCandidate{forward[2], forward[1], forward[0]}

	a := ResolveConflicts(forward)
	b := ResolveConflicts(reversed)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("resolution depends on input order:\n%v\n%v", a, b)
	}
}
