package services

import (
	"context"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/ekaya-inc/relgraph/pkg/models"
)

func testOptions(mode string) DiscoveryOptions {
	return DiscoveryOptions{
		Mode:              mode,
		SampleSize:        1000,
		BooleanSampleSize: 100,
		Workers:           2,
		Thresholds: FilterThresholds{
			MinCoverage:         0.85,
			MaxNullRatio:        0.5,
			MaxCardinalityRatio: 1.2,
			MinNameSimilarity:   0.3,
		},
	}
}

func TestDiscoverEndToEnd(t *testing.T) {
	fake := newCommerceFixture()
	svc := NewRelationshipDiscoveryService(fake, testOptions("high"), zap.NewNop())

	result, err := svc.Discover(context.Background(), nil)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	if len(result.Records) != 2 {
		t.Fatalf("got %d records, want 2: %v", len(result.Records), result.Records)
	}

	// The declared constraint yields an IS pair; the inferred
	// order_items -> orders reference only reaches MOSTLYIS.
	want := []models.RelationshipRecord{
		{
			SourceTable:  "customers",
			SourceColumn: "id",
			TargetTable:  "orders",
			TargetColumn: "customer_id",
			Relation:     models.RelationIS,
		},
		{
			SourceTable:  "order_items",
			SourceColumn: "order_id",
			TargetTable:  "orders",
			TargetColumn: "id",
			Relation:     models.RelationMostlyIS,
		},
	}
	if !reflect.DeepEqual(result.Records, want) {
		t.Errorf("Records = %v, want %v", result.Records, want)
	}

	report := result.Report
	if report.TablesAnalyzed != 3 {
		t.Errorf("TablesAnalyzed = %d, want 3", report.TablesAnalyzed)
	}
	if report.PairsTested != 8 {
		t.Errorf("PairsTested = %d, want 8", report.PairsTested)
	}
	if report.RawCandidates != 2 || report.ResolvedCandidates != 2 || report.AcceptedCandidates != 2 {
		t.Errorf("candidate counts = %d/%d/%d, want 2/2/2",
			report.RawCandidates, report.ResolvedCandidates, report.AcceptedCandidates)
	}
	if report.TierCounts[models.TierHighQuality] != 2 {
		t.Errorf("TierCounts = %v, want 2 high quality", report.TierCounts)
	}
	if report.ExplicitEdges != 1 {
		t.Errorf("ExplicitEdges = %d, want 1", report.ExplicitEdges)
	}
	if report.Clusters != 2 || report.Records != 2 {
		t.Errorf("Clusters/Records = %d/%d, want 2/2", report.Clusters, report.Records)
	}
	if report.Cancelled {
		t.Error("Cancelled = true, want false")
	}
	if report.Mode != "high" {
		t.Errorf("Mode = %q, want high", report.Mode)
	}
}

func TestDiscoverUsesSuppliedExplicitEdges(t *testing.T) {
	fake := newCommerceFixture()
	svc := NewRelationshipDiscoveryService(fake, testOptions("high"), zap.NewNop())

	supplied := []models.ExplicitEdge{
		{FKTable: "order_items", FKColumn: "order_id", PKTable: "orders", PKColumn: "id"},
	}
	result, err := svc.Discover(context.Background(), supplied)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	// The catalog constraint is not read when edges are supplied, so the
	// orders -> customers pair now rests on inference alone.
	byKey := make(map[string]models.RelationType)
	for _, r := range result.Records {
		byKey[r.Key()] = r.Relation
	}
	if byKey["order_items.order_id|orders.id"] != models.RelationIS {
		t.Errorf("supplied edge pair = %v, want IS", byKey["order_items.order_id|orders.id"])
	}
	if byKey["customers.id|orders.customer_id"] != models.RelationMostlyIS {
		t.Errorf("inferred pair = %v, want MOSTLYIS", byKey["customers.id|orders.customer_id"])
	}
}

func TestDiscoverSkipsCatalogWhenUnsupported(t *testing.T) {
	fake := newCommerceFixture()
	fake.noFKSupport = true
	svc := NewRelationshipDiscoveryService(fake, testOptions("high"), zap.NewNop())

	result, err := svc.Discover(context.Background(), nil)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if result.Report.ExplicitEdges != 0 {
		t.Errorf("ExplicitEdges = %d, want 0", result.Report.ExplicitEdges)
	}
	for _, r := range result.Records {
		if r.Relation != models.RelationMostlyIS {
			t.Errorf("record %v has relation %v, want MOSTLYIS", r.Key(), r.Relation)
		}
	}
}

func TestDiscoverIsDeterministic(t *testing.T) {
	fake := newCommerceFixture()
	svc := NewRelationshipDiscoveryService(fake, testOptions("advanced"), zap.NewNop())

	first, err := svc.Discover(context.Background(), nil)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	second, err := svc.Discover(context.Background(), nil)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	if !reflect.DeepEqual(first.Records, second.Records) {
		t.Errorf("records differ across runs:\n%v\n%v", first.Records, second.Records)
	}
	if !reflect.DeepEqual(first.Clusters, second.Clusters) {
		t.Errorf("clusters differ across runs:\n%v\n%v", first.Clusters, second.Clusters)
	}
}
