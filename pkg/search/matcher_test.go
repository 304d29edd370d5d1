package search

import (
	"testing"
)

func TestIsPreciseMatch(t *testing.T) {
	cases := []struct {
		text     string
		query    string
		expected bool
	}{
		{"Michelin Defender LTX", "Michelin", true},
		{"Michelin Defender LTX", "fend", true},
		{"Michelin Defender LTX", "xyz", false},
		{"Michelin Defender LTX", "michelin defender ltx", true},
		{"Michelin Defender LTX", "def ltx", true},
		{"Michelin Defender LTX", "de ltx", false},
		{"Michelin Defender LTX", "end", false},
		{"Michelin Defender LTX", "ltx michelin", true},
		{"Pilot Sport A/S 4", "a/s", true},
		{"Pilot Sport A/S 4", "a/", true},
		{"Pilot Sport All-Season", "all-", true},
		{"Pilot Sport All-Season", "sport xy", false},
		{"Pilot Sport All-Season", "ot sp", true},
		{"Acme", "acm", true},
		{"Acme", "cme", false},
	}
	for _, c := range cases {
		if got := IsPreciseMatch(c.text, c.query); got != c.expected {
			t.Errorf("IsPreciseMatch(%q, %q) = %v, want %v", c.text, c.query, got, c.expected)
		}
	}
}

func TestMatchesRecordText(t *testing.T) {
	if !MatchesRecordText("Michelin", "Defender LTX", "michelin defender") {
		t.Error("Expected concatenation to match")
	}
	if !MatchesRecordText("Michelin", "Defender LTX", "ltx") {
		t.Error("Expected model word to match")
	}
	if MatchesRecordText("Michelin", "Defender LTX", "zz") {
		t.Error("Expected no match")
	}
}

func TestSimilarity(t *testing.T) {
	if Similarity("michelin", "Michelin") != 1.0 {
		t.Error("Expected equal strings to have similarity 1")
	}
	if Similarity("michelin", "miche") != 0.9 {
		t.Error("Expected substring similarity 0.9")
	}
	if got := Similarity("michelin", "michelan"); got != 1.0-1.0/8.0 {
		t.Errorf("Expected one edit similarity, got %v", got)
	}
	if Levenshtein("kitten", "sitting") != 3 {
		t.Error("Expected kitten/sitting distance 3")
	}
	if Levenshtein("", "abc") != 3 {
		t.Error("Expected distance to empty string to be its length")
	}
}
