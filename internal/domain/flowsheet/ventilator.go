package flowsheet

import (
	"math"
	"time"

	"github.com/semr/etl/internal/domain/chart"
	"github.com/semr/etl/internal/domain/record"
)

// DefaultVentSettings is the fixed set of ventilator settings charted as
// discrete state series.
var DefaultVentSettings = []string{"Tube Status", "Vent Status", "MODE", "Trial extubation"}

// VentSeries is the discrete state chart for one ventilator setting:
// repeated textual values deduplicate into category indices assigned in
// first-seen order, exactly as the normalizer does for discrete labs, but
// scoped per setting name.
type VentSeries struct {
	Points     []chart.DiscretePoint `json:"discrete_points"`
	Categories []string              `json:"category_labels"`
	Recent     string                `json:"recent_value"`
}

// Ventilator builds the discrete series for one setting's events.
func Ventilator(events []record.VentilatorEvent, cutoff time.Time) VentSeries {
	cut := chart.Millis(cutoff)
	s := VentSeries{}
	catIndex := make(map[string]int)
	recentT := int64(math.MinInt64)

	for _, ev := range events {
		t := chart.Millis(ev.Time)
		if t >= cut {
			continue
		}
		idx, seen := catIndex[ev.Value]
		if !seen {
			idx = len(s.Categories)
			catIndex[ev.Value] = idx
			s.Categories = append(s.Categories, ev.Value)
		}
		s.Points = append(s.Points, chart.DiscretePoint{T: t, Index: idx})
		if t >= recentT {
			recentT = t
			s.Recent = ev.Value
		}
	}
	return s
}
