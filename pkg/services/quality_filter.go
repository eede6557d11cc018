package services

import (
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/relgraph/pkg/models"
)

// FilterThresholds are the tunable limits the basic filter applies.
// Zero-value structs are never meaningful; callers pass config-backed values.
type FilterThresholds struct {
	MinCoverage         float64
	MaxNullRatio        float64
	MaxCardinalityRatio float64
	MinNameSimilarity   float64
}

// isGenericIDColumn reports whether a column name is a bare identifier
// that says nothing about what it references.
func isGenericIDColumn(name string) bool {
	return strings.EqualFold(name, "id") || strings.EqualFold(name, "key")
}

// hasTableNameRelationship checks whether a fk column plausibly names the
// pk table: matching suffixes, a stripped base name that matches or
// contains the table name, or a junction-table part that does.
func hasTableNameRelationship(fkTable, pkTable, fkColumn, pkColumn string) bool {
	fkTableLower := strings.ToLower(fkTable)
	pkTableLower := strings.ToLower(pkTable)
	fkColLower := strings.ToLower(fkColumn)
	pkColLower := strings.ToLower(pkColumn)

	if pkColLower != "" {
		// Columns that both carry a suffix must agree on it:
		// customer_id vs customer_code is not a match.
		fkSuffix := lastUnderscorePart(fkColLower)
		pkSuffix := lastUnderscorePart(pkColLower)
		if fkSuffix != "" && pkSuffix != "" && fkSuffix != pkSuffix {
			return false
		}
		if fkColLower == pkColLower {
			return true
		}
	}

	var base string
	switch {
	case strings.HasSuffix(fkColLower, "_id"):
		base = strings.TrimSuffix(fkColLower, "_id")
	case strings.HasSuffix(fkColLower, "_key"):
		base = strings.TrimSuffix(fkColLower, "_key")
	case strings.Contains(fkColLower, "_"):
		base = strings.SplitN(fkColLower, "_", 2)[0]
	default:
		base = fkColLower
	}

	if base == pkTableLower {
		return true
	}
	if strings.Contains(pkTableLower, base) || strings.Contains(base, pkTableLower) {
		return true
	}

	// Junction tables embed referenced table names in their own name.
	if strings.Contains(fkTableLower, "_") {
		for _, part := range strings.Split(fkTableLower, "_") {
			if strings.Contains(part, pkTableLower) {
				return true
			}
		}
		if strings.HasSuffix(fkColLower, "_id") {
			colBase := strings.TrimSuffix(fkColLower, "_id")
			if strings.Contains(pkTableLower, colBase) || pkTableLower == colBase {
				return true
			}
		} else if first := strings.Split(fkColLower, "_")[0]; strings.Contains(pkTableLower, first) {
			return true
		}
	}

	return false
}

// lastUnderscorePart returns the text after the last underscore, or ""
// when the name has no underscore.
func lastUnderscorePart(s string) string {
	i := strings.LastIndexByte(s, '_')
	if i < 0 {
		return ""
	}
	return s[i+1:]
}

// tablesRelated reports a substring relationship between two table names,
// including the junction-table prefix of the fk table.
func tablesRelated(fkTable, pkTable string) bool {
	fk := strings.ToLower(fkTable)
	pk := strings.ToLower(pkTable)

	if strings.Contains(fk, pk) || strings.Contains(pk, fk) {
		return true
	}

	if i := strings.LastIndexByte(fk, '_'); i > 0 {
		return strings.Contains(pk, fk[:i])
	}
	return false
}

// BasicFilter applies the threshold rules: coverage and null ratio must
// clear the limits, a cardinality blowout needs perfect coverage plus name
// evidence, dissimilar names need near-perfect coverage, and generic id-id
// pairs need related table names or perfect coverage.
func BasicFilter(candidates []models.RelationshipCandidate, t FilterThresholds) []models.RelationshipCandidate {
	var kept []models.RelationshipCandidate
	for _, c := range candidates {
		if c.Coverage < t.MinCoverage {
			continue
		}
		if c.NullRatio > t.MaxNullRatio {
			continue
		}
		if c.CardinalityRatio > t.MaxCardinalityRatio && (c.Coverage < 1.0 || c.NameSimilarity < 0.5) {
			continue
		}
		if c.NameSimilarity < t.MinNameSimilarity && c.Coverage < 0.95 {
			continue
		}
		if strings.EqualFold(c.FKColumn, "id") && strings.EqualFold(c.PKColumn, "id") {
			if !tablesRelated(c.FKTable, c.PKTable) && c.Coverage < 1.0 {
				continue
			}
		}
		kept = append(kept, c)
	}
	return kept
}

// ruleOutcome is the tri-state result of one advanced rule.
type ruleOutcome int

const (
	ruleSkip   ruleOutcome = iota // rule does not apply, try the next
	ruleAccept                    // candidate accepted
	ruleReject                    // candidate rejected outright
)

// advancedRule is one named business rule. Rules run in order; the first
// non-skip outcome decides the candidate.
type advancedRule struct {
	name     string
	evaluate func(c models.RelationshipCandidate) ruleOutcome
}

// advancedRules are evaluated in priority order. A candidate no rule
// decides is rejected.
var advancedRules = []advancedRule{
	{
		// Two generic id columns carry no name evidence, so they must
		// earn their keep on table names and near-perfect stats. This
		// rule is terminal for such pairs: failing it rejects them.
		name: "generic-id-pair",
		evaluate: func(c models.RelationshipCandidate) ruleOutcome {
			if !isGenericIDColumn(c.FKColumn) || !isGenericIDColumn(c.PKColumn) {
				return ruleSkip
			}
			if hasTableNameRelationship(c.FKTable, c.PKTable, c.FKColumn, c.PKColumn) &&
				c.Coverage >= 0.95 && c.NullRatio <= 0.1 {
				return ruleAccept
			}
			return ruleReject
		},
	},
	{
		name: "high-quality-stats",
		evaluate: func(c models.RelationshipCandidate) ruleOutcome {
			if c.Coverage >= 0.95 && c.NullRatio <= 0.1 && c.NameSimilarity >= 0.5 {
				return ruleAccept
			}
			return ruleSkip
		},
	},
	{
		name: "fk-suffix-names-table",
		evaluate: func(c models.RelationshipCandidate) ruleOutcome {
			col := strings.ToLower(c.FKColumn)
			if !strings.HasSuffix(col, "_id") && !strings.HasSuffix(col, "_key") {
				return ruleSkip
			}
			if hasTableNameRelationship(c.FKTable, c.PKTable, c.FKColumn, c.PKColumn) &&
				c.Coverage >= 0.85 && c.NullRatio <= 0.3 {
				return ruleAccept
			}
			return ruleSkip
		},
	},
	{
		name: "identical-column-names",
		evaluate: func(c models.RelationshipCandidate) ruleOutcome {
			if strings.EqualFold(c.FKColumn, c.PKColumn) &&
				c.Coverage >= 0.85 && c.NullRatio <= 0.3 {
				return ruleAccept
			}
			return ruleSkip
		},
	},
	{
		// A specific fk column pointing at a generic pk column, e.g.
		// orders.customer_id referencing customers.id.
		name: "specific-fk-generic-pk",
		evaluate: func(c models.RelationshipCandidate) ruleOutcome {
			if isGenericIDColumn(c.FKColumn) || !isGenericIDColumn(c.PKColumn) {
				return ruleSkip
			}
			if hasTableNameRelationship(c.FKTable, c.PKTable, c.FKColumn, c.PKColumn) &&
				c.Coverage >= 0.85 && c.NullRatio <= 0.3 {
				return ruleAccept
			}
			return ruleSkip
		},
	},
	{
		name: "junction-table-decomposition",
		evaluate: func(c models.RelationshipCandidate) ruleOutcome {
			fkTable := strings.ToLower(c.FKTable)
			col := strings.ToLower(c.FKColumn)
			if !strings.Contains(fkTable, "_") || !strings.HasSuffix(col, "_id") {
				return ruleSkip
			}
			base := strings.TrimSuffix(col, "_id")
			pkTable := strings.ToLower(c.PKTable)

			related := strings.Contains(base, pkTable) || strings.Contains(pkTable, base)
			if !related {
				for _, part := range strings.Split(fkTable, "_") {
					if part == base {
						related = true
						break
					}
				}
			}
			if related && c.Coverage >= 0.85 && c.NullRatio <= 0.3 {
				return ruleAccept
			}
			return ruleSkip
		},
	},
	{
		name: "strong-statistics",
		evaluate: func(c models.RelationshipCandidate) ruleOutcome {
			if c.Coverage >= 0.95 && c.NullRatio <= 0.05 && c.CardinalityRatio <= 1.0 {
				return ruleAccept
			}
			return ruleSkip
		},
	},
	{
		// Lookup-table patterns: status/state columns referencing a
		// status-ish table, or *_type columns with solid stats.
		name: "status-type-pattern",
		evaluate: func(c models.RelationshipCandidate) ruleOutcome {
			col := strings.ToLower(c.FKColumn)
			pkTable := strings.ToLower(c.PKTable)

			statusCol := strings.Contains(col, "status") || strings.Contains(col, "state")
			statusTable := strings.Contains(pkTable, "status") || strings.Contains(pkTable, "state")
			if statusCol && statusTable && c.Coverage >= 0.85 && c.NullRatio <= 0.1 {
				return ruleAccept
			}

			if strings.Contains(col, "_type") && c.Coverage >= 0.85 && c.NullRatio <= 0.1 {
				return ruleAccept
			}
			return ruleSkip
		},
	},
	{
		name: "column-name-containment",
		evaluate: func(c models.RelationshipCandidate) ruleOutcome {
			fkCol := strings.ToLower(c.FKColumn)
			pkCol := strings.ToLower(c.PKColumn)
			if !strings.Contains(fkCol, pkCol) && !strings.Contains(pkCol, fkCol) {
				return ruleSkip
			}
			if hasTableNameRelationship(c.FKTable, c.PKTable, c.FKColumn, c.PKColumn) &&
				c.Coverage >= 0.9 {
				return ruleAccept
			}
			return ruleSkip
		},
	},
}

// AdvancedFilter runs candidates through the ordered business rules and
// keeps those a rule accepts.
func AdvancedFilter(candidates []models.RelationshipCandidate) []models.RelationshipCandidate {
	var kept []models.RelationshipCandidate
	for _, c := range candidates {
		if decideAdvanced(c) {
			kept = append(kept, c)
		}
	}
	return kept
}

func decideAdvanced(c models.RelationshipCandidate) bool {
	for _, rule := range advancedRules {
		switch rule.evaluate(c) {
		case ruleAccept:
			return true
		case ruleReject:
			return false
		}
	}
	return false
}

// Categorize assigns a quality tier to a filtered candidate. Suspicious
// outranks everything: a pair of generic ids with no table relationship
// survived the filter on statistics alone and deserves scrutiny.
func Categorize(c models.RelationshipCandidate) models.QualityTier {
	genericPair := isGenericIDColumn(c.FKColumn) && isGenericIDColumn(c.PKColumn)
	tableRel := hasTableNameRelationship(c.FKTable, c.PKTable, c.FKColumn, c.PKColumn)

	if genericPair && !tableRel {
		return models.TierSuspicious
	}
	if genericPair && c.NameSimilarity < 0.3 {
		return models.TierSuspicious
	}

	if c.Coverage >= 0.95 && c.NullRatio <= 0.1 && tableRel {
		return models.TierHighQuality
	}
	if strings.EqualFold(c.FKColumn, c.PKColumn) && c.Coverage >= 0.85 && c.NullRatio <= 0.3 {
		return models.TierHighQuality
	}
	if c.Coverage >= 0.85 && c.NullRatio <= 0.15 &&
		((c.CardinalityRatio < 0.1 && c.NameSimilarity > 0.5) || c.NameSimilarity == 1.0) &&
		c.FKType == c.PKType {
		return models.TierHighQuality
	}

	return models.TierLowQuality
}

// QualityFilter applies the mode-selected filter and reports tier counts.
type QualityFilter interface {
	Apply(candidates []models.RelationshipCandidate) ([]models.RelationshipCandidate, map[models.QualityTier]int)
}

type qualityFilter struct {
	mode       string
	thresholds FilterThresholds
	logger     *zap.Logger
}

// NewQualityFilter creates a filter for the given mode: "basic" applies the
// threshold rules only, "advanced" applies the business rules and keeps all
// tiers, "high" keeps only high_quality candidates.
func NewQualityFilter(mode string, thresholds FilterThresholds, logger *zap.Logger) QualityFilter {
	return &qualityFilter{
		mode:       mode,
		thresholds: thresholds,
		logger:     logger.Named("quality-filter"),
	}
}

func (f *qualityFilter) Apply(candidates []models.RelationshipCandidate) ([]models.RelationshipCandidate, map[models.QualityTier]int) {
	if f.mode == "basic" {
		kept := BasicFilter(candidates, f.thresholds)
		f.logger.Info("basic filter applied",
			zap.Int("in", len(candidates)),
			zap.Int("kept", len(kept)))
		return kept, nil
	}

	filtered := AdvancedFilter(candidates)

	tierCounts := make(map[models.QualityTier]int)
	var kept []models.RelationshipCandidate
	for _, c := range filtered {
		tier := Categorize(c)
		tierCounts[tier]++
		if f.mode == "high" && tier != models.TierHighQuality {
			continue
		}
		kept = append(kept, c)
	}

	f.logger.Info("advanced filter applied",
		zap.String("mode", f.mode),
		zap.Int("in", len(candidates)),
		zap.Int("filtered", len(filtered)),
		zap.Int("kept", len(kept)),
		zap.Int("high_quality", tierCounts[models.TierHighQuality]),
		zap.Int("low_quality", tierCounts[models.TierLowQuality]),
		zap.Int("suspicious", tierCounts[models.TierSuspicious]))

	return kept, tierCounts
}
