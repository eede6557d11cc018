package models

import "strings"

// Quality tiers assigned by the advanced categorizer.
type QualityTier string

const (
	TierHighQuality   QualityTier = "high_quality"
	TierMediumQuality QualityTier = "medium_quality"
	TierLowQuality    QualityTier = "low_quality"
	TierSuspicious    QualityTier = "suspicious"
)

// Provenance records how a column entered a reference cluster.
type Provenance string

const (
	ProvenanceExplicit Provenance = "explicit" // declared FK constraint
	ProvenanceImplicit Provenance = "implicit" // statistically inferred
)

// RelationType labels emitted relationship records.
type RelationType string

const (
	// RelationIS connects two columns that both carry declared FK evidence.
	RelationIS RelationType = "IS"
	// RelationMostlyIS connects columns where at least one side is inferred.
	RelationMostlyIS RelationType = "MOSTLYIS"
)

// ColumnDescriptor is a column as seen by the metadata collector, scoped to
// a single database so (table, column) identifies it uniquely.
type ColumnDescriptor struct {
	Table        string `json:"table"`
	Column       string `json:"column"`
	DataType     string `json:"data_type"`
	ColumnType   string `json:"column_type,omitempty"`
	IsNullable   bool   `json:"is_nullable"`
	IsPrimaryKey bool   `json:"is_primary_key"`
}

// CandidatePair is an oriented fk-side/pk-side column pair that survived the
// cheap prefilters and is worth measuring.
type CandidatePair struct {
	FKTable  string `json:"fk_table"`
	FKColumn string `json:"fk_column"`
	PKTable  string `json:"pk_table"`
	PKColumn string `json:"pk_column"`
	// Engine-native column types (e.g. "int(11)"). Data-type equality is
	// already enforced upstream; these preserve the finer distinction.
	FKType string `json:"fk_type"`
	PKType string `json:"pk_type"`
}

// RelationshipCandidate is a candidate pair with measured statistics attached.
type RelationshipCandidate struct {
	CandidatePair

	Coverage         float64 `json:"coverage"`          // sampled inclusion rate, [0,1]
	NullRatio        float64 `json:"null_ratio"`        // fk nulls over full table
	CardinalityRatio float64 `json:"cardinality_ratio"` // distinct(fk)/distinct(pk)
	NameSimilarity   float64 `json:"name_similarity"`
	PKIsPrimary      bool    `json:"pk_is_primary"`
}

// ColumnIdentity identifies a column inside reference clusters.
type ColumnIdentity struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

// Key returns the canonical "table.column" form used for ordering and dedup.
func (c ColumnIdentity) Key() string {
	return c.Table + "." + c.Column
}

// Less orders identities by their canonical key.
func (c ColumnIdentity) Less(other ColumnIdentity) bool {
	return strings.Compare(c.Key(), other.Key()) < 0
}

// ExplicitEdge is a declared FK constraint edge supplied to the cluster
// builder, either by the caller or read from the datasource catalog.
type ExplicitEdge struct {
	FKTable  string `json:"fk_table"`
	FKColumn string `json:"fk_column"`
	PKTable  string `json:"pk_table"`
	PKColumn string `json:"pk_column"`
}

// ClusterMember is a column inside a reference cluster together with the
// strongest provenance observed for it.
type ClusterMember struct {
	ColumnIdentity
	Provenance Provenance `json:"provenance"`
}

// Cluster is a connected component of columns that reference the same
// underlying identity space.
type Cluster struct {
	Members []ClusterMember `json:"members"`
}

// RelationshipRecord is a pairwise relationship emitted from a cluster,
// canonically oriented so the lexicographically smaller endpoint is first.
type RelationshipRecord struct {
	SourceTable  string       `json:"source_table"`
	SourceColumn string       `json:"source_column"`
	TargetTable  string       `json:"target_table"`
	TargetColumn string       `json:"target_column"`
	Relation     RelationType `json:"relation"`
}

// Key returns the canonical dedup key for a record, independent of relation.
func (r RelationshipRecord) Key() string {
	return r.SourceTable + "." + r.SourceColumn + "|" + r.TargetTable + "." + r.TargetColumn
}
