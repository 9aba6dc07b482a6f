package notes

import (
	"sort"
	"strings"
	"time"

	"github.com/semr/etl/internal/domain/chart"
	"github.com/semr/etl/internal/domain/record"
)

// Reports builds one per-note-type panel from already type-filtered note
// events. Only notes strictly inside (admit, cutoff) appear, newest first.
func Reports(events []record.NoteEvent, admit, cutoff time.Time) []Entry {
	adm, cut := chart.Millis(admit), chart.Millis(cutoff)
	var kept []record.NoteEvent
	for _, ev := range events {
		t := chart.Millis(ev.Time)
		if t > adm && t < cut {
			kept = append(kept, ev)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Time.After(kept[j].Time)
	})

	entries := make([]Entry, 0, len(kept))
	for i, ev := range kept {
		date := ev.DateText
		if date == "" {
			date = ev.Time.Format(stampFormat)
		}
		entries = append(entries, Entry{
			Date:   date,
			Text:   strings.ReplaceAll(ev.Text, "\n", "<br />"),
			JSTime: chart.Millis(ev.Time),
			Type:   ev.NoteType,
			Upk:    i,
		})
	}
	return entries
}
