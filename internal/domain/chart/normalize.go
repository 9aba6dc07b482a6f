package chart

import (
	"errors"
	"math"
	"time"
)

// ErrNoData is returned by Normalize when a root code has no events before
// the cutoff at all. Callers omit the root from the case payload entirely
// rather than emitting an empty series.
var ErrNoData = errors.New("no chartable data before cutoff")

// Normalize converts one root code's raw events into a chartable Series.
//
// Events with a parseable value (directly, or coerced from text via
// CoerceValue) feed the numeric stream in source order; everything else
// feeds the discrete stream, where each distinct text gains a stable
// category index in first-seen order. The normal range is resolved from the
// events' own reference bounds (most frequent non-null low and high,
// independently), falling back to the free-text range field, and finally to
// the static defaults in def. Events at or after cutoff are ignored.
func Normalize(events []RawEvent, cutoff time.Time, def *RangeSpec) (*Series, error) {
	cut := Millis(cutoff)

	s := &Series{}
	var (
		units       []string
		lows        []*float64
		highs       []*float64
		others      []string
		absMin      = math.Inf(1)
		absMax      = math.Inf(-1)
		recentT     = int64(math.MinInt64)
		recentIsNum bool
	)
	catIndex := make(map[string]int)

	for _, ev := range events {
		t := Millis(ev.Time)
		if t >= cut {
			continue
		}

		v := ev.Value
		if v == nil {
			if coerced, ok := CoerceValue(ev.Text); ok {
				v = &coerced
			}
		}

		if v == nil {
			// Discrete observation.
			idx, seen := catIndex[ev.Text]
			if !seen {
				idx = len(s.Categories)
				catIndex[ev.Text] = idx
				s.Categories = append(s.Categories, ev.Text)
			}
			s.Discrete = append(s.Discrete, DiscretePoint{T: t, Index: idx})
			if !recentIsNum && t >= recentT {
				recentT = t
				s.RecentValue = ev.Text
				s.RecentUnit = ev.Unit
			}
			continue
		}

		s.Numeric = append(s.Numeric, Point{T: t, V: *v})
		if ev.Unit != "" {
			units = append(units, ev.Unit)
		}
		lows = append(lows, ev.RangeLow)
		highs = append(highs, ev.RangeHigh)
		others = append(others, ev.RangeOther)
		absMin = math.Min(absMin, *v)
		absMax = math.Max(absMax, *v)
		// A numeric observation always wins recency over a discrete one,
		// matching how the viewer surfaces "current" results.
		if !recentIsNum || t >= recentT {
			recentT = t
			recentIsNum = true
			s.RecentValue = *v
			s.RecentUnit = ev.Unit
		}
	}

	if !s.HasData() {
		return nil, ErrNoData
	}

	var norm NormalRange
	var abs Interval
	switch {
	case len(s.Numeric) > 0:
		abs = Interval{Min: absMin, Max: absMax}
		norm = NormalRange{Low: mostFrequentFloat(lows), High: mostFrequentFloat(highs)}
		if norm.Low == nil || norm.High == nil {
			norm = ParseOtherRange(mostFrequentString(others))
		}
	case def != nil:
		// Discrete-only series chart against the default display extent.
		abs = Interval{Min: def.DisplayMin, Max: def.DisplayMax}
	default:
		// One slot above the top category keeps the highest label off the
		// chart's upper edge.
		abs = Interval{Max: float64(len(s.Categories))}
	}

	s.AbsRange, s.NormalRange = MergeRanges(abs, norm, def)
	s.Zones = ZonesFor(s.NormalRange)
	s.Unit = mostFrequentString(units)
	if s.Unit == "" {
		s.Unit = s.RecentUnit
	}
	return s, nil
}
