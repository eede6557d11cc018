package services

import (
	"regexp"
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// keySuffixPattern matches a trailing id/key marker, with or without a
// separator: "customer_id", "customerId", "customer-key", bare "id".
var keySuffixPattern = regexp.MustCompile(`(?i)[_-]?(id|key)$`)

// BaseNameFromFKColumn strips the trailing id/key suffix from a column name.
// "customer_id" becomes "customer", bare "id" becomes "".
func BaseNameFromFKColumn(column string) string {
	return keySuffixPattern.ReplaceAllString(column, "")
}

// NameSimilarity returns a normalized edit-distance similarity in [0,1],
// case-folded. Identical strings score 1.0.
func NameSimilarity(a, b string) float64 {
	return levenshtein.RatioForStrings(
		[]rune(strings.ToLower(a)),
		[]rune(strings.ToLower(b)),
		levenshtein.DefaultOptions,
	)
}

// ColumnTableSimilarity scores how well a fk column name matches a pk table
// name after stripping the key suffix: ("customer_id", "customers") scores
// high, ("status", "customers") scores low.
func ColumnTableSimilarity(fkColumn, pkTable string) float64 {
	return NameSimilarity(BaseNameFromFKColumn(fkColumn), pkTable)
}

// Coverage returns the fraction of sampled fk values present in the sampled
// pk values, or 0 for an empty fk sample.
func Coverage(fkValues, pkValues []string) float64 {
	if len(fkValues) == 0 {
		return 0
	}

	pkSet := make(map[string]struct{}, len(pkValues))
	for _, v := range pkValues {
		pkSet[v] = struct{}{}
	}

	matched := 0
	for _, v := range fkValues {
		if _, ok := pkSet[v]; ok {
			matched++
		}
	}

	return float64(matched) / float64(len(fkValues))
}

// CardinalityRatio returns distinct(fk)/distinct(pk), or 0 when the pk side
// has no distinct values.
func CardinalityRatio(fkDistinct, pkDistinct int64) float64 {
	if pkDistinct == 0 {
		return 0
	}
	return float64(fkDistinct) / float64(pkDistinct)
}

// IsBooleanDomain reports whether a sampled value set looks like a boolean
// flag: non-empty and a subset of {"0", "1"}. Such columns pass type and
// coverage checks against every other flag column, so they are excluded
// from candidate generation.
func IsBooleanDomain(values []string) bool {
	if len(values) == 0 {
		return false
	}
	for _, v := range values {
		if v != "0" && v != "1" {
			return false
		}
	}
	return true
}
