package models

import (
	"time"

	"github.com/google/uuid"
)

// DiscoveryReport summarizes a discovery run for logging and diagnostics.
type DiscoveryReport struct {
	RunID     uuid.UUID     `json:"run_id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Mode      string        `json:"mode"`

	TablesAnalyzed int `json:"tables_analyzed"`
	TablesSkipped  int `json:"tables_skipped"`
	PairsTested    int `json:"pairs_tested"`
	PairsDropped   int `json:"pairs_dropped"` // statistics query failures

	RawCandidates      int `json:"raw_candidates"`
	ResolvedCandidates int `json:"resolved_candidates"`
	AcceptedCandidates int `json:"accepted_candidates"`

	TierCounts map[QualityTier]int `json:"tier_counts,omitempty"`

	ExplicitEdges int `json:"explicit_edges"`
	Clusters      int `json:"clusters"`
	Records       int `json:"records"`

	// Cancelled marks a run that was interrupted and carries partial results.
	Cancelled bool `json:"cancelled,omitempty"`
}
