package notes

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/semr/etl/internal/domain/chart"
	"github.com/semr/etl/internal/domain/record"
)

// caseBoundary matches a lowercase/digit run butting straight into an
// uppercase run: the spot where the source system's report text lost its
// line break during extraction.
var caseBoundary = regexp.MustCompile(`[a-z,0-9]+[A-Z]+`)

// wrapReportText restores a line break before the final uppercase letter of
// every case-boundary run, so section headers render on their own line.
func wrapReportText(text string) string {
	return caseBoundary.ReplaceAllStringFunc(text, func(m string) string {
		return m[:len(m)-1] + "<br>" + m[len(m)-1:]
	})
}

// MicroReports builds the microbiology panel. Report bodies join to their
// culture event by accession number; reports with no matching event are
// dropped. Entries group one-per-day, newest day first, reports within a day
// ordered newest first and joined with a rule.
func MicroReports(events []record.MicroEvent, reports []record.MicroReport, cutoff time.Time) []Entry {
	cut := chart.Millis(cutoff)
	byAccession := map[string]record.MicroEvent{}
	for _, ev := range events {
		if chart.Millis(ev.Time) >= cut {
			continue
		}
		if _, ok := byAccession[ev.Accession]; !ok {
			byAccession[ev.Accession] = ev
		}
	}

	type day struct {
		date  string
		times []int64
		texts []string
	}
	dayIndex := map[string]int{}
	var days []*day

	for _, rep := range reports {
		ev, ok := byAccession[rep.Accession]
		if !ok {
			continue
		}
		t := chart.Millis(ev.Time)
		text := `<p class="thick">` + ev.EventName + "&nbsp;&nbsp;&nbsp;&nbsp;Date:&nbsp;" +
			ev.Time.Format(stampFormat) + "</p><p></p>" + wrapReportText(rep.Text)

		date := ev.Time.Format(dayFormat)
		i, ok := dayIndex[date]
		if !ok {
			i = len(days)
			dayIndex[date] = i
			days = append(days, &day{date: date})
		}
		d := days[i]
		pos := sort.Search(len(d.times), func(k int) bool { return d.times[k] <= t })
		d.times = append(d.times, 0)
		copy(d.times[pos+1:], d.times[pos:])
		d.times[pos] = t
		d.texts = append(d.texts, "")
		copy(d.texts[pos+1:], d.texts[pos:])
		d.texts[pos] = text
	}

	sort.SliceStable(days, func(i, j int) bool {
		return days[i].times[0] > days[j].times[0]
	})
	entries := make([]Entry, 0, len(days))
	for i, d := range days {
		entries = append(entries, Entry{
			Date:   d.date,
			Text:   strings.Join(d.texts, "<hr>"),
			JSTime: d.times[0],
			Upk:    i,
		})
	}
	return entries
}
