package distance

import "testing"

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"paracetmol", "Paracetamol", 1},
		{"Dr. Ahmed", "dr. ahmed", 0},
		{"أحمد", "احمد", 0},
		{"flaw", "lawn", 2},
		{"محمد", "محمود", 1},
	}
	for _, tc := range tests {
		if got := Levenshtein(tc.a, tc.b); got != tc.want {
			t.Errorf("Levenshtein(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestLevenshtein_Metric(t *testing.T) {
	words := []string{"ahmed", "ahmad", "hamad", "paracetamol", "panadol", "", "سارة", "ساره"}
	for _, a := range words {
		for _, b := range words {
			ab, ba := Levenshtein(a, b), Levenshtein(b, a)
			if ab != ba {
				t.Errorf("not symmetric: d(%q,%q)=%d d(%q,%q)=%d", a, b, ab, b, a, ba)
			}
			for _, c := range words {
				if ac, cb := Levenshtein(a, c), Levenshtein(c, b); ab > ac+cb {
					t.Errorf("triangle inequality broken for %q %q %q", a, b, c)
				}
			}
		}
	}
}

func TestThreshold(t *testing.T) {
	tests := []struct{ n, want int }{
		{0, 3}, {3, 3}, {6, 3}, {7, 3}, {8, 4}, {10, 5}, {21, 10},
	}
	for _, tc := range tests {
		if got := Threshold(tc.n); got != tc.want {
			t.Errorf("Threshold(%d) = %d, want %d", tc.n, got, tc.want)
		}
	}
}

func TestAccept(t *testing.T) {
	if Accept(10, 0) {
		t.Error("exact match accepted as correction")
	}
	if !Accept(10, 5) {
		t.Error("distance at threshold rejected")
	}
	if Accept(10, 6) {
		t.Error("distance above threshold accepted")
	}
	if !Accept(3, 3) {
		t.Error("short query floor of 3 not applied")
	}
}

func TestEligible(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		minLen int
		want   bool
	}{
		{"too short", "ab", 0, false},
		{"default minimum", "abc", 0, true},
		{"whitespace not counted", "  ab  ", 0, false},
		{"arabic runes", "سار", 0, true},
		{"configured minimum", "abcd", 5, false},
		{"configured minimum met", "abcde", 5, true},
		{"lower configured minimum", "ab", 2, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Eligible(tc.query, tc.minLen); got != tc.want {
				t.Errorf("Eligible(%q, %d) = %v, want %v", tc.query, tc.minLen, got, tc.want)
			}
		})
	}
}
