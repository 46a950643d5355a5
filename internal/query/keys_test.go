package query

import "testing"

func TestWildcardMatch(t *testing.T) {
	cases := []struct {
		value   string
		pattern string
		want    bool
	}{
		{"PAT001", "PAT00?", true},
		{"PAT009", "PAT00?", true},
		{"PAT010", "PAT00?", false},
		{"PAT010", "PAT0*", true},
		{"Doe^John", "Doe*", true},
		{"Doe^John", "*^John", true},
		{"Doe^John", "?oe^J*", true},
		{"Doe^John", "Smith*", false},
		{"Doe^John", "*", true},
		{"", "*", false},
		{"CT", "C?", true},
		{"CT", "C??", false},
		{"aXbXc", "a*b*c", true},
		{"aXbXc", "a*c*b", false},
	}
	for _, tc := range cases {
		// The blank value belongs to fieldMatches, not the glob itself.
		got := fieldMatches(tc.value, tc.pattern)
		if got != tc.want {
			t.Errorf("match(%q, %q) = %v, want %v", tc.value, tc.pattern, got, tc.want)
		}
	}
}
