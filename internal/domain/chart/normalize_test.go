package chart

import (
	"errors"
	"testing"
	"time"
)

var base = time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)

func at(offsetMillis int64) time.Time {
	return base.Add(time.Duration(offsetMillis) * time.Millisecond)
}

func numEvent(offset int64, v float64) RawEvent {
	return RawEvent{Time: at(offset), Value: Float(v)}
}

func textEvent(offset int64, text string) RawEvent {
	return RawEvent{Time: at(offset), Text: text}
}

func TestNormalize_NoData(t *testing.T) {
	_, err := Normalize(nil, at(1000), nil)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}

	// Events at or past the cutoff do not count as data.
	_, err = Normalize([]RawEvent{numEvent(500, 1.0)}, at(500), nil)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData for cutoff-excluded events, got %v", err)
	}
}

func TestNormalize_WidensAbsRangeToDefaults(t *testing.T) {
	events := []RawEvent{
		numEvent(100, 5.0),
		numEvent(200, 99.0),
		numEvent(300, 7.0),
	}
	def := &RangeSpec{DisplayMin: 0, DisplayMax: 10, NormalMin: 3, NormalMax: 8}

	s, err := Normalize(events, at(1000), def)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if s.AbsRange.Min != 0 || s.AbsRange.Max != 99 {
		t.Errorf("expected abs range [0, 99], got [%v, %v]", s.AbsRange.Min, s.AbsRange.Max)
	}
	if s.RecentValue != 7.0 {
		t.Errorf("expected recent value 7.0, got %v", s.RecentValue)
	}
	if *s.NormalRange.Low != 3 || *s.NormalRange.High != 8 {
		t.Errorf("expected normal range [3, 8] from defaults, got [%v, %v]",
			*s.NormalRange.Low, *s.NormalRange.High)
	}
}

func TestNormalize_AbsRangeNeverNarrows(t *testing.T) {
	events := []RawEvent{numEvent(100, 4.0), numEvent(200, 6.0)}
	def := &RangeSpec{DisplayMin: 0, DisplayMax: 10}

	s, err := Normalize(events, at(1000), def)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if s.AbsRange.Min != 0 || s.AbsRange.Max != 10 {
		t.Errorf("expected abs range [0, 10], got [%v, %v]", s.AbsRange.Min, s.AbsRange.Max)
	}
}

func TestNormalize_CoercesOperatorPrefixedValues(t *testing.T) {
	events := []RawEvent{
		textEvent(100, "<0.3"),
		textEvent(200, ">250"),
		textEvent(300, "+12"),
	}
	s, err := Normalize(events, at(1000), nil)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(s.Numeric) != 3 || len(s.Discrete) != 0 {
		t.Fatalf("expected 3 numeric and 0 discrete points, got %d and %d",
			len(s.Numeric), len(s.Discrete))
	}
	want := []float64{0.3, 250, 12}
	for i, w := range want {
		if s.Numeric[i].V != w {
			t.Errorf("point %d: expected %v, got %v", i, w, s.Numeric[i].V)
		}
	}
}

func TestNormalize_DiscreteCategoryIndexing(t *testing.T) {
	events := []RawEvent{
		textEvent(100, "Assist"),
		textEvent(200, "Assist"),
		textEvent(300, "Control"),
	}
	s, err := Normalize(events, at(1000), nil)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(s.Categories) != 2 || s.Categories[0] != "Assist" || s.Categories[1] != "Control" {
		t.Fatalf("expected categories [Assist Control], got %v", s.Categories)
	}
	wantIdx := []int{0, 0, 1}
	for i, w := range wantIdx {
		if s.Discrete[i].Index != w {
			t.Errorf("discrete point %d: expected index %d, got %d", i, w, s.Discrete[i].Index)
		}
	}
	if s.RecentValue != "Control" {
		t.Errorf("expected recent value Control, got %v", s.RecentValue)
	}
	if s.AbsRange.Min != 0 || s.AbsRange.Max != 2 {
		t.Errorf("expected chart extent [0, 2] over 2 categories, got [%v, %v]",
			s.AbsRange.Min, s.AbsRange.Max)
	}
}

func TestNormalize_NumericRecencyBeatsDiscrete(t *testing.T) {
	events := []RawEvent{
		numEvent(100, 2.5),
		textEvent(900, "hemolyzed"),
	}
	s, err := Normalize(events, at(1000), nil)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if s.RecentValue != 2.5 {
		t.Errorf("expected numeric recent value 2.5, got %v", s.RecentValue)
	}
}

func TestNormalize_RecencyTieBreaksLastSeen(t *testing.T) {
	events := []RawEvent{
		{Time: at(100), Value: Float(1.0), Unit: "first"},
		{Time: at(100), Value: Float(2.0), Unit: "second"},
	}
	s, err := Normalize(events, at(1000), nil)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if s.RecentValue != 2.0 || s.RecentUnit != "second" {
		t.Errorf("expected last-seen event to win the tie, got %v %q", s.RecentValue, s.RecentUnit)
	}
}

func TestNormalize_NormalRangeFromEventBounds(t *testing.T) {
	events := []RawEvent{
		{Time: at(100), Value: Float(5), RangeLow: Float(3.5), RangeHigh: Float(5.1)},
		{Time: at(200), Value: Float(6), RangeLow: Float(3.5), RangeHigh: Float(5.1)},
		{Time: at(300), Value: Float(7), RangeLow: Float(3.0), RangeHigh: Float(5.1)},
	}
	s, err := Normalize(events, at(1000), nil)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if *s.NormalRange.Low != 3.5 || *s.NormalRange.High != 5.1 {
		t.Errorf("expected normal range [3.5, 5.1], got [%v, %v]",
			*s.NormalRange.Low, *s.NormalRange.High)
	}
	if len(s.Zones) != 3 {
		t.Fatalf("expected 3 color zones, got %d", len(s.Zones))
	}
	if s.Zones[0].Color != ColorLow || s.Zones[1].Color != ColorNormal || s.Zones[2].Color != ColorHigh {
		t.Errorf("unexpected zone colors: %+v", s.Zones)
	}
}

func TestNormalize_FallsBackToOtherRange(t *testing.T) {
	events := []RawEvent{
		{Time: at(100), Value: Float(0.2), RangeOther: "<0.5"},
		{Time: at(200), Value: Float(0.4), RangeOther: "<0.5"},
	}
	s, err := Normalize(events, at(1000), nil)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if s.NormalRange.Low != nil {
		t.Errorf("expected no lower bound, got %v", *s.NormalRange.Low)
	}
	if s.NormalRange.High == nil || *s.NormalRange.High != 0.5 {
		t.Errorf("expected upper bound 0.5, got %v", s.NormalRange.High)
	}
	if len(s.Zones) != 2 || s.Zones[0].Color != ColorNormal || s.Zones[1].Color != ColorHigh {
		t.Errorf("expected green/red zoning for upper-bound-only range, got %+v", s.Zones)
	}
}

func TestNormalize_NoRangeMeansNeutralZone(t *testing.T) {
	s, err := Normalize([]RawEvent{numEvent(100, 1)}, at(1000), nil)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(s.Zones) != 1 || s.Zones[0].Color != ColorNeutral {
		t.Errorf("expected single neutral zone, got %+v", s.Zones)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	events := []RawEvent{
		{Time: at(100), Value: Float(5), Unit: "mg/dL", RangeLow: Float(3), RangeHigh: Float(7)},
		textEvent(200, "clotted"),
		numEvent(300, 6),
	}
	def := &RangeSpec{DisplayMin: 0, DisplayMax: 20, NormalMin: 3, NormalMax: 7}

	a, err := Normalize(events, at(1000), def)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	b, err := Normalize(events, at(1000), def)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(a.Numeric) != len(b.Numeric) || len(a.Discrete) != len(b.Discrete) {
		t.Fatal("repeated runs disagree on point counts")
	}
	if a.RecentValue != b.RecentValue || a.AbsRange != b.AbsRange {
		t.Error("repeated runs disagree on recency or ranges")
	}
	for i := range a.Categories {
		if a.Categories[i] != b.Categories[i] {
			t.Errorf("category %d differs between runs: %q vs %q", i, a.Categories[i], b.Categories[i])
		}
	}
}
