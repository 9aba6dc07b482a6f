// Package flowsheet adapts the entity types with bespoke temporal semantics
// (blood pressure channel pairs, ventilator discrete states, day-bucketed
// intake/output) into chartable panels.
package flowsheet

import (
	"fmt"
	"math"
	"time"

	"github.com/semr/etl/internal/domain/chart"
	"github.com/semr/etl/internal/domain/record"
)

// Blood pressure channel order within a pair.
const (
	bpDiastolic = 0
	bpSystolic  = 1
)

const (
	colorDiastolic = "#FF8C00"
	colorSystolic  = "#A0522D"
)

// BPChannel is one independently tracked blood pressure series.
type BPChannel struct {
	Name   string        `json:"name"`
	Color  string        `json:"color"`
	Points []chart.Point `json:"data"`
}

// BPPair is a diastolic/systolic channel pair with a combined recent
// "systolic/diastolic" display string and the pair's observed extent.
type BPPair struct {
	Channels [2]BPChannel   `json:"channels"`
	Recent   string         `json:"recent"`
	AbsRange chart.Interval `json:"abs_range"`
}

// BPPanel covers both measurement sites.
type BPPanel struct {
	Peripheral BPPair `json:"peripheral"`
	Arterial   BPPair `json:"arterial"`
}

// BloodPressure builds the two channel pairs from their raw vital streams.
// The four inputs are peripheral diastolic, peripheral systolic, arterial
// diastolic, arterial systolic; recency is tracked per channel and then
// combined per pair.
func BloodPressure(channels [4][]record.VitalSign, cutoff time.Time) *BPPanel {
	names := [4]string{"dias", "syst", "art_dia", "art_sys"}
	colors := [4]string{colorDiastolic, colorSystolic, colorDiastolic, colorSystolic}
	cut := chart.Millis(cutoff)

	var built [4]BPChannel
	var recents [4]int
	var ranges [2]chart.Interval
	ranges[0] = chart.Interval{Min: math.Inf(1), Max: math.Inf(-1)}
	ranges[1] = chart.Interval{Min: math.Inf(1), Max: math.Inf(-1)}

	for i, events := range channels {
		ch := BPChannel{Name: names[i], Color: colors[i]}
		recentT := int64(math.MinInt64)
		pair := i / 2
		for _, ev := range events {
			t := chart.Millis(ev.Time)
			if t >= cut || ev.Value == nil {
				continue
			}
			ch.Points = append(ch.Points, chart.Point{T: t, V: *ev.Value})
			if t >= recentT {
				recentT = t
				recents[i] = int(*ev.Value)
			}
			ranges[pair].Min = math.Min(ranges[pair].Min, *ev.Value)
			ranges[pair].Max = math.Max(ranges[pair].Max, *ev.Value)
		}
		built[i] = ch
	}

	for pair := range ranges {
		if math.IsInf(ranges[pair].Min, 1) {
			ranges[pair] = chart.Interval{}
		}
	}

	return &BPPanel{
		Peripheral: BPPair{
			Channels: [2]BPChannel{built[bpDiastolic], built[bpSystolic]},
			Recent:   fmt.Sprintf("%d/%d", recents[1], recents[0]),
			AbsRange: ranges[0],
		},
		Arterial: BPPair{
			Channels: [2]BPChannel{built[2+bpDiastolic], built[2+bpSystolic]},
			Recent:   fmt.Sprintf("%d/%d", recents[3], recents[2]),
			AbsRange: ranges[1],
		},
	}
}
