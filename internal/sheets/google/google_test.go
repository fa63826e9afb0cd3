package google

import "testing"

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		name string
		base string
		year int
		want string
	}{
		{"plain base", "Ledger", 2024, "2024 Ledger"},
		{"already prefixed", "2023 Ledger", 2024, "2023 Ledger"},
		{"empty base", "", 2024, ""},
		{"whitespace trimmed", "  Ledger  ", 2024, "2024 Ledger"},
		{"short name gets prefix", "L", 2024, "2024 L"},
		{"number-ish but not a year", "12345", 2024, "2024 12345"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := yearPrefixedName(tt.base, tt.year); got != tt.want {
				t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
			}
		})
	}
}
