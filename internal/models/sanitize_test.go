package models

import "testing"

// TestSanitizeNumeric verifies non-numeric characters and extra decimal
// points are stripped from raw set input.
func TestSanitizeNumeric(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"135", "135"},
		{"12.5", "12.5"},
		{"12.5.3abc", "12.53"},
		{" 95 lbs ", "95"},
		{"..", "."},
		{"", ""},
	}
	for _, c := range cases {
		if got := SanitizeNumeric(c.raw); got != c.want {
			t.Errorf("SanitizeNumeric(%q) = %q, want %q", c.raw, got, c.want)
		}
	}
}

// TestValidWeight verifies the weight ceiling and that an empty field is a
// valid cleared value.
func TestValidWeight(t *testing.T) {
	if !ValidWeight("") {
		t.Error("empty weight should be valid")
	}
	if !ValidWeight("9999") {
		t.Error("9999 should be at the limit")
	}
	if ValidWeight("10050") {
		t.Error("10050 should exceed the limit")
	}
}

// TestValidReps verifies the reps ceiling.
func TestValidReps(t *testing.T) {
	if !ValidReps("999") {
		t.Error("999 should be at the limit")
	}
	if ValidReps("1000") {
		t.Error("1000 should exceed the limit")
	}
}

// TestParseNumber verifies malformed input parses as zero so volume math
// never errors.
func TestParseNumber(t *testing.T) {
	if got := ParseNumber("12.5"); got != 12.5 {
		t.Errorf("got %v, want 12.5", got)
	}
	if got := ParseNumber("."); got != 0 {
		t.Errorf("got %v, want 0 for unparseable input", got)
	}
	if got := ParseNumber(""); got != 0 {
		t.Errorf("got %v, want 0 for empty input", got)
	}
}

// TestCapitalizeWords verifies exercise name normalization.
func TestCapitalizeWords(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"barbell row", "Barbell Row"},
		{"  incline   bench  ", "Incline Bench"},
		{"RDL", "RDL"},
		{"", ""},
	}
	for _, c := range cases {
		if got := CapitalizeWords(c.in); got != c.want {
			t.Errorf("CapitalizeWords(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
