package chart

import (
	"strconv"
	"strings"
)

// CoerceValue attempts to read a numeric value out of a free-text result.
// A single leading comparison operator (`<`, `>`, or `+`) is stripped before
// parsing, so results reported as "<0.3" or ">250" chart at their bound.
// A trailing `+` is stripped too: dipstick-style grades like "3+" chart at
// their numeral.
func CoerceValue(text string) (float64, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, false
	}
	switch s[0] {
	case '<', '>', '+':
		s = strings.TrimSpace(s[1:])
	}
	s = strings.TrimSpace(strings.TrimSuffix(s, "+"))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseOtherRange reads a free-text reference range. The grammar is narrow:
// an optional single leading comparison operator followed by a float.
// "<N" yields an upper bound only, ">N" a lower bound only; anything else
// leaves both bounds unknown.
func ParseOtherRange(text string) NormalRange {
	s := strings.TrimSpace(text)
	if len(s) < 2 {
		return NormalRange{}
	}
	op := s[0]
	if op != '<' && op != '>' {
		return NormalRange{}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s[1:]), 64)
	if err != nil {
		return NormalRange{}
	}
	if op == '<' {
		return NormalRange{High: &v}
	}
	return NormalRange{Low: &v}
}

// mostFrequentFloat returns the most frequent non-nil value in vals, or nil
// when every entry is nil or vals is empty. Count ties break toward the
// value seen first, so re-running over identical input is deterministic.
func mostFrequentFloat(vals []*float64) *float64 {
	counts := make(map[float64]int)
	var order []float64
	for _, v := range vals {
		if v == nil {
			continue
		}
		if _, seen := counts[*v]; !seen {
			order = append(order, *v)
		}
		counts[*v]++
	}
	var best *float64
	bestCount := 0
	for _, v := range order {
		if counts[v] > bestCount {
			vv := v
			best = &vv
			bestCount = counts[v]
		}
	}
	return best
}

// mostFrequentString returns the most frequent non-empty string in vals,
// with the same first-seen tie break as mostFrequentFloat.
func mostFrequentString(vals []string) string {
	counts := make(map[string]int)
	var order []string
	for _, v := range vals {
		if v == "" {
			continue
		}
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
	}
	best := ""
	bestCount := 0
	for _, v := range order {
		if counts[v] > bestCount {
			best = v
			bestCount = counts[v]
		}
	}
	return best
}

// MergeRanges reconciles the observed absolute range and the resolved normal
// range against a root's static defaults. The absolute range only ever
// widens: a default display bound outside the observed extent extends the
// chart, observed values outside the default extent keep it. Unknown normal
// bounds fill in from the defaults. A nil def leaves both untouched.
func MergeRanges(abs Interval, norm NormalRange, def *RangeSpec) (Interval, NormalRange) {
	if def == nil {
		return abs, norm
	}
	if abs.Min > def.DisplayMin {
		abs.Min = def.DisplayMin
	}
	if abs.Max < def.DisplayMax {
		abs.Max = def.DisplayMax
	}
	if norm.Low == nil {
		v := def.NormalMin
		norm.Low = &v
	}
	if norm.High == nil {
		v := def.NormalMax
		norm.High = &v
	}
	return abs, norm
}

// ZonesFor builds the color banding for a normal range: values below the
// lower bound chart blue, values above the upper bound red, values between
// green. With no bounds at all the whole chart is neutral black.
func ZonesFor(norm NormalRange) []Zone {
	switch {
	case norm.Low != nil && norm.High != nil:
		return []Zone{
			{Value: norm.Low, Color: ColorLow},
			{Value: norm.High, Color: ColorNormal},
			{Color: ColorHigh},
		}
	case norm.High != nil:
		return []Zone{
			{Value: norm.High, Color: ColorNormal},
			{Color: ColorHigh},
		}
	case norm.Low != nil:
		return []Zone{
			{Value: norm.Low, Color: ColorLow},
			{Color: ColorNormal},
		}
	default:
		return []Zone{{Color: ColorNeutral}}
	}
}
