package notes

import (
	"sort"
	"time"

	"github.com/semr/etl/internal/domain/chart"
	"github.com/semr/etl/internal/domain/record"
)

// Procedures builds the primary-procedure panel. Procedures sharing an
// identical timestamp concatenate into one entry in encounter order instead
// of producing duplicate rows.
func Procedures(events []record.ProcedureEvent, cutoff time.Time) []Entry {
	cut := chart.Millis(cutoff)
	index := map[string]int{}
	var entries []Entry
	for _, ev := range events {
		t := chart.Millis(ev.Time)
		if t >= cut {
			continue
		}
		segment := ev.Procedure + "&nbsp;&nbsp;&nbsp;&nbsp;&nbsp;PostDx: " + ev.PostDx
		date := ev.Time.Format(stampFormat)
		if i, ok := index[date]; ok {
			entries[i].Text += "<br />" + segment
			continue
		}
		index[date] = len(entries)
		entries = append(entries, Entry{Date: date, Text: segment, JSTime: t})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].JSTime > entries[j].JSTime
	})
	for i := range entries {
		entries[i].Upk = i
	}
	return entries
}
