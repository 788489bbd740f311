package models

import (
	"strconv"
	"strings"
	"unicode"
)

// Field limits for set input. Edits that would parse above the limit are
// rejected outright rather than truncated.
const (
	MaxWeight = 9999
	MaxReps   = 999
)

// SanitizeNumeric strips everything but digits and the first decimal point
// from raw input. "12.5.3abc" becomes "12.53".
func SanitizeNumeric(raw string) string {
	var b strings.Builder
	seenDot := false
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' && !seenDot:
			seenDot = true
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidWeight reports whether a sanitized weight string parses within limits.
// Empty is valid (the field may be cleared).
func ValidWeight(s string) bool {
	if s == "" {
		return true
	}
	v, err := strconv.ParseFloat(s, 64)
	return err == nil && v <= MaxWeight
}

// ValidReps reports whether a sanitized reps string parses within limits.
func ValidReps(s string) bool {
	if s == "" {
		return true
	}
	v, err := strconv.ParseFloat(s, 64)
	return err == nil && v <= MaxReps
}

// ParseNumber parses a sanitized field, treating failures as zero. Volume
// and record math never error on malformed input.
func ParseNumber(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// CapitalizeWords uppercases the first letter of each space-separated word.
// Exercise names are stored this way ("barbell row" -> "Barbell Row").
func CapitalizeWords(name string) string {
	words := strings.Fields(name)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
