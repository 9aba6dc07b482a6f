package notes

import (
	"strings"
	"testing"
	"time"

	"github.com/semr/etl/internal/domain/record"
)

var base = time.Date(2016, 3, 10, 8, 0, 0, 0, time.UTC)

func at(offset time.Duration) time.Time { return base.Add(offset) }

func TestProcedures_SameTimestampConcatenates(t *testing.T) {
	events := []record.ProcedureEvent{
		{Time: at(0), Procedure: "Appendectomy", PostDx: "Appendicitis"},
		{Time: at(0), Procedure: "Peritoneal lavage", PostDx: "Appendicitis"},
		{Time: at(48 * time.Hour), Procedure: "Wound closure", PostDx: "Dehiscence"},
	}
	entries := Procedures(events, at(96*time.Hour))
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	// Newest first.
	if !strings.HasPrefix(entries[0].Text, "Wound closure") {
		t.Errorf("expected newest procedure first, got %q", entries[0].Text)
	}
	joined := entries[1]
	if !strings.Contains(joined.Text, "Appendectomy") ||
		!strings.Contains(joined.Text, "<br />Peritoneal lavage") {
		t.Errorf("same-timestamp procedures should join into one row, got %q", joined.Text)
	}
	if !strings.Contains(joined.Text, "PostDx: Appendicitis") {
		t.Errorf("missing post-diagnosis suffix in %q", joined.Text)
	}
	if entries[0].Upk != 0 || entries[1].Upk != 1 {
		t.Errorf("upk must follow panel order, got %d, %d", entries[0].Upk, entries[1].Upk)
	}
}

func TestProcedures_CutoffExcludes(t *testing.T) {
	events := []record.ProcedureEvent{
		{Time: at(0), Procedure: "Early", PostDx: "dx"},
		{Time: at(10 * time.Hour), Procedure: "Late", PostDx: "dx"},
	}
	entries := Procedures(events, at(10*time.Hour))
	if len(entries) != 1 || !strings.HasPrefix(entries[0].Text, "Early") {
		t.Fatalf("event at the cutoff must be excluded, got %+v", entries)
	}
}

func TestMicroReports_JoinAndDayGrouping(t *testing.T) {
	events := []record.MicroEvent{
		{Time: at(0), EventName: "Blood Culture", Accession: "A1", Source: "blood"},
		{Time: at(3 * time.Hour), EventName: "Urine Culture", Accession: "A2", Source: "urine"},
		{Time: at(26 * time.Hour), EventName: "Sputum Culture", Accession: "A3", Source: "sputum"},
	}
	reports := []record.MicroReport{
		{Accession: "A1", Text: "no growth"},
		{Accession: "A2", Text: "mixed flora"},
		{Accession: "A3", Text: "pending"},
		{Accession: "A9", Text: "orphan report"},
	}
	entries := MicroReports(events, reports, at(96*time.Hour))
	if len(entries) != 2 {
		t.Fatalf("expected one entry per day, got %d", len(entries))
	}
	if entries[0].Date != at(26*time.Hour).Format(dayFormat) {
		t.Errorf("expected newest day first, got %q", entries[0].Date)
	}
	multi := entries[1]
	if !strings.Contains(multi.Text, "<hr>") {
		t.Errorf("same-day reports should join with a rule, got %q", multi.Text)
	}
	// Within a day, reports render newest first.
	if strings.Index(multi.Text, "Urine Culture") > strings.Index(multi.Text, "Blood Culture") {
		t.Errorf("expected newer report first within the day: %q", multi.Text)
	}
	if multi.JSTime != at(3*time.Hour).UnixMilli() {
		t.Errorf("day anchor should be the newest report time, got %d", multi.JSTime)
	}
	for _, e := range entries {
		if strings.Contains(e.Text, "orphan report") {
			t.Error("report with no culture event must be dropped")
		}
	}
	if entries[0].Upk != 0 || entries[1].Upk != 1 {
		t.Errorf("upk must follow panel order, got %d, %d", entries[0].Upk, entries[1].Upk)
	}
}

func TestMicroReports_EventPastCutoffUnjoinable(t *testing.T) {
	events := []record.MicroEvent{
		{Time: at(50 * time.Hour), EventName: "Blood Culture", Accession: "A1"},
	}
	reports := []record.MicroReport{{Accession: "A1", Text: "no growth"}}
	if entries := MicroReports(events, reports, at(10*time.Hour)); len(entries) != 0 {
		t.Fatalf("culture event past cutoff must drop its reports, got %+v", entries)
	}
}

func TestWrapReportText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"no growthGram stain", "no growth<br>Gram stain"},
		{"resultGRAM STAIN", "resultGRA<br>M STAIN"},
		{"Already Broken", "Already Broken"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := wrapReportText(tt.in); got != tt.want {
			t.Errorf("wrapReportText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestReports_WindowAndOrder(t *testing.T) {
	admit := at(0)
	events := []record.NoteEvent{
		{Time: at(-time.Hour), NoteType: "Progress Note", Text: "before admit"},
		{Time: at(2 * time.Hour), NoteType: "Progress Note", DateText: "03/10/2016", Text: "line one\nline two"},
		{Time: at(5 * time.Hour), NoteType: "Progress Note", Text: "latest"},
		{Time: at(50 * time.Hour), NoteType: "Progress Note", Text: "after cutoff"},
	}
	entries := Reports(events, admit, at(24*time.Hour))
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries inside the window, got %d", len(entries))
	}
	if entries[0].Text != "latest" {
		t.Errorf("expected newest note first, got %q", entries[0].Text)
	}
	if entries[1].Text != "line one<br />line two" {
		t.Errorf("expected line-broken body, got %q", entries[1].Text)
	}
	if entries[1].Date != "03/10/2016" {
		t.Errorf("expected source date text preserved, got %q", entries[1].Date)
	}
	if entries[0].Date == "" {
		t.Error("missing date text should fall back to the formatted time")
	}
	if entries[0].Type != "Progress Note" {
		t.Errorf("unexpected type %q", entries[0].Type)
	}
}
