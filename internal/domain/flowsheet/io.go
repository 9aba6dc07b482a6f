package flowsheet

import (
	"math"
	"sort"
	"time"

	"github.com/semr/etl/internal/domain/chart"
	"github.com/semr/etl/internal/domain/record"
)

// Intake/output channel indices. Output channels store negative volumes;
// Net is the signed per-day sum across the other six.
const (
	IOUrine = iota
	IOOtherOutput
	IOOral
	IOIntravenous
	IOBloodProducts
	IOOther
	IONet
	ioChannels
)

var ioChannelNames = [ioChannels]string{
	"Urine", "Everything Else", "Oral", "Intravenous",
	"Blood Products", "Other or unknown", "Net",
}

// IOSeries is one stacked bar series of per-day volumes.
type IOSeries struct {
	Name   string        `json:"name"`
	Stack  string        `json:"stack"`
	Points []chart.Point `json:"data"`
}

// IOPanel is the day-bucketed intake/output chart. AbsRange spans the
// per-day net totals and is nil when no day has data.
type IOPanel struct {
	Series   [ioChannels]IOSeries `json:"series"`
	AbsRange *chart.Interval      `json:"abs_range"`
}

// classifyIO maps one raw event onto its channel. Outputs split on urine
// versus everything else; intakes split on the source category code.
func classifyIO(ev record.IntakeOutputEvent) int {
	if ev.Type == "Output" {
		if ev.Name == "Urine Output" {
			return IOUrine
		}
		return IOOtherOutput
	}
	switch {
	case ev.Category == 6:
		return IOOral
	case ev.Category >= 1 && ev.Category <= 5, ev.Category >= 8 && ev.Category <= 10:
		return IOIntravenous
	case ev.Category == 7:
		return IOBloodProducts
	default:
		return IOOther
	}
}

// dayFloor reduces a timestamp to the UTC day it falls on, in epoch millis.
func dayFloor(t time.Time) int64 {
	const dayMillis = 86400000
	return (chart.Millis(t) / dayMillis) * dayMillis
}

// IntakeOutput buckets raw intake/output events by calendar day and
// channel. Volumes are rounded to two decimals per event; output-channel
// totals are negated so the stacked chart reads intake up, output down.
func IntakeOutput(events []record.IntakeOutputEvent, cutoff time.Time) *IOPanel {
	cut := chart.Millis(cutoff)
	totals := make(map[int64]*[ioChannels]float64)
	var days []int64

	for _, ev := range events {
		t := chart.Millis(ev.Time)
		if t >= cut {
			continue
		}
		day := dayFloor(ev.Time)
		tot, ok := totals[day]
		if !ok {
			tot = &[ioChannels]float64{}
			totals[day] = tot
			days = append(days, day)
		}
		tot[classifyIO(ev)] += math.Round(ev.Volume*100) / 100
	}

	// Chronological day order regardless of source order.
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	panel := &IOPanel{}
	for ch := range panel.Series {
		stack := "a"
		if ch == IONet {
			stack = "b"
		}
		panel.Series[ch] = IOSeries{Name: ioChannelNames[ch], Stack: stack}
	}

	var netMin, netMax float64
	for i, day := range days {
		tot := totals[day]
		tot[IOUrine] = -tot[IOUrine]
		tot[IOOtherOutput] = -tot[IOOtherOutput]
		net := 0.0
		for ch := 0; ch < IONet; ch++ {
			net += tot[ch]
		}
		tot[IONet] = net
		if i == 0 || net < netMin {
			netMin = net
		}
		if i == 0 || net > netMax {
			netMax = net
		}
		for ch := 0; ch < ioChannels; ch++ {
			panel.Series[ch].Points = append(panel.Series[ch].Points, chart.Point{T: day, V: tot[ch]})
		}
	}
	if len(days) > 0 {
		panel.AbsRange = &chart.Interval{Min: netMin, Max: netMax}
	}
	return panel
}
