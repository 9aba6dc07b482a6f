package meds

import (
	"regexp"
	"strconv"
	"strings"
)

// valueUnitBoundary finds the last digit of the leading value: a digit
// followed (optionally after one space) by a letter.
var valueUnitBoundary = regexp.MustCompile(`[0-9]\s?[a-zA-Z]`)

// SplitValueUnit splits a dose or frequency string like "325mg" or
// "10 mL q6h" at the first digit-to-letter boundary. Text with no such
// boundary comes back whole with an empty unit.
func SplitValueUnit(text string) (value, unit string) {
	loc := valueUnitBoundary.FindStringIndex(text)
	if loc == nil {
		return text, ""
	}
	return text[:loc[0]+1], text[loc[0]+1:]
}

// ParseDose reads a home-medication dose string. Caret markers embedded by
// the source system are stripped; anything still unparseable counts as a
// zero dose rather than a dropped event.
func ParseDose(text string) float64 {
	s := strings.ReplaceAll(strings.TrimSpace(text), "^", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
