package services

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestBaseNameFromFKColumn(t *testing.T) {
	tests := []struct {
		column   string
		expected string
	}{
		{"customer_id", "customer"},
		{"customerId", "customer"},
		{"customer-key", "customer"},
		{"ACCOUNT_KEY", "ACCOUNT"},
		{"id", ""},
		{"status", "status"},
		{"order_item_id", "order_item"},
	}

	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			if got := BaseNameFromFKColumn(tt.column); got != tt.expected {
				t.Errorf("BaseNameFromFKColumn(%q) = %q, want %q", tt.column, got, tt.expected)
			}
		})
	}
}

func TestNameSimilarity(t *testing.T) {
	if got := NameSimilarity("customer", "customer"); got != 1.0 {
		t.Errorf("identical strings = %v, want 1.0", got)
	}
	if got := NameSimilarity("Customer", "customer"); got != 1.0 {
		t.Errorf("case-folded strings = %v, want 1.0", got)
	}
	if got := NameSimilarity("abc", "xyz"); got != 0.0 {
		t.Errorf("disjoint strings = %v, want 0.0", got)
	}

	// One edit over 17 runes total.
	if got := NameSimilarity("customer", "customers"); !almostEqual(got, 16.0/17.0) {
		t.Errorf("customer/customers = %v, want %v", got, 16.0/17.0)
	}

	got := NameSimilarity("order", "orders")
	if got <= NameSimilarity("order", "customers") {
		t.Errorf("expected order/orders (%v) to outscore order/customers", got)
	}
}

func TestColumnTableSimilarity(t *testing.T) {
	high := ColumnTableSimilarity("customer_id", "customers")
	low := ColumnTableSimilarity("status", "customers")
	if high <= low {
		t.Errorf("customer_id/customers (%v) should outscore status/customers (%v)", high, low)
	}
	if high < 0.9 {
		t.Errorf("customer_id/customers = %v, want >= 0.9", high)
	}
}

func TestCoverage(t *testing.T) {
	tests := []struct {
		name     string
		fk       []string
		pk       []string
		expected float64
	}{
		{"full containment", []string{"1", "2"}, []string{"1", "2", "3"}, 1.0},
		{"partial", []string{"1", "2", "9", "8"}, []string{"1", "2", "3"}, 0.5},
		{"disjoint", []string{"7", "8"}, []string{"1", "2"}, 0.0},
		{"empty fk sample", nil, []string{"1"}, 0.0},
		{"empty pk sample", []string{"1"}, nil, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Coverage(tt.fk, tt.pk); !almostEqual(got, tt.expected) {
				t.Errorf("Coverage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCardinalityRatio(t *testing.T) {
	if got := CardinalityRatio(50, 100); !almostEqual(got, 0.5) {
		t.Errorf("CardinalityRatio(50, 100) = %v, want 0.5", got)
	}
	if got := CardinalityRatio(10, 0); got != 0 {
		t.Errorf("CardinalityRatio(10, 0) = %v, want 0", got)
	}
}

func TestIsBooleanDomain(t *testing.T) {
	tests := []struct {
		name     string
		values   []string
		expected bool
	}{
		{"zero and one", []string{"0", "1"}, true},
		{"only one", []string{"1"}, true},
		{"wider domain", []string{"0", "1", "2"}, false},
		{"text values", []string{"yes", "no"}, false},
		{"empty sample", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBooleanDomain(tt.values); got != tt.expected {
				t.Errorf("IsBooleanDomain(%v) = %v, want %v", tt.values, got, tt.expected)
			}
		})
	}
}
