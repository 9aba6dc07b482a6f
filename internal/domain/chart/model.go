package chart

import "time"

// Zone colors used by the viewer's chart renderer.
const (
	ColorLow     = "#00CCFF" // below normal range
	ColorNormal  = "#33CC33" // within normal range
	ColorHigh    = "#BF0B23" // above normal range
	ColorNeutral = "#000000" // no normal range known
)

// RawEvent is one observation for a chart series, as delivered by a raw
// record reader. Value is nil when the source row carried no parseable
// number; Text holds whatever the source reported verbatim.
type RawEvent struct {
	Time       time.Time
	Value      *float64
	Text       string
	Unit       string
	RangeLow   *float64
	RangeHigh  *float64
	RangeOther string
}

// RangeSpec holds the static per-root display and normal bounds. Display
// bounds are the default chart y-axis extent; normal bounds fill in when the
// case's own events do not carry a usable reference interval.
type RangeSpec struct {
	DisplayMin float64 `json:"display_min"`
	NormalMin  float64 `json:"normal_min"`
	NormalMax  float64 `json:"normal_max"`
	DisplayMax float64 `json:"display_max"`
}

// Point is one numeric chart sample, timestamped in epoch milliseconds.
type Point struct {
	T int64
	V float64
}

// DiscretePoint maps a timestamp to a category index into the series'
// category label list.
type DiscretePoint struct {
	T     int64
	Index int
}

// Zone is one color band of a chart. Value is the exclusive upper bound of
// the band; the final zone of a chart leaves Value nil (unbounded).
type Zone struct {
	Value *float64 `json:"value,omitempty"`
	Color string   `json:"color"`
}

// Interval is a closed [Min, Max] range.
type Interval struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// NormalRange is a reference interval with independently optional bounds.
type NormalRange struct {
	Low  *float64 `json:"low"`
	High *float64 `json:"high"`
}

// Series is the normalized, chartable output for one root code at one time
// cutoff. Field names follow the payload contract consumed by the viewer.
type Series struct {
	Numeric     []Point         `json:"numeric_points"`
	Discrete    []DiscretePoint `json:"discrete_points"`
	Categories  []string        `json:"category_labels"`
	Zones       []Zone          `json:"color_zones"`
	Unit        string          `json:"unit_text"`
	RecentValue any             `json:"recent_value"`
	RecentUnit  string          `json:"recent_unit"`
	AbsRange    Interval        `json:"abs_range"`
	NormalRange NormalRange     `json:"normal_range"`
}

// HasData reports whether the series carries at least one observation.
func (s *Series) HasData() bool {
	return len(s.Numeric) > 0 || len(s.Discrete) > 0
}

func (p Point) MarshalJSON() ([]byte, error)         { return marshalPair(p.T, p.V) }
func (p DiscretePoint) MarshalJSON() ([]byte, error) { return marshalPair(p.T, float64(p.Index)) }

func (p *Point) UnmarshalJSON(b []byte) error {
	t, v, err := unmarshalPair(b)
	if err != nil {
		return err
	}
	p.T, p.V = t, v
	return nil
}

func (p *DiscretePoint) UnmarshalJSON(b []byte) error {
	t, v, err := unmarshalPair(b)
	if err != nil {
		return err
	}
	p.T, p.Index = t, int(v)
	return nil
}

func Float(v float64) *float64 { return &v }

// Millis converts a timestamp to the epoch-millisecond representation used
// throughout the chart payloads.
func Millis(t time.Time) int64 { return t.UnixMilli() }
