package flowsheet

import (
	"testing"
	"time"

	"github.com/semr/etl/internal/domain/chart"
	"github.com/semr/etl/internal/domain/record"
)

var base = time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)

func vital(offset time.Duration, v float64) record.VitalSign {
	return record.VitalSign{Time: base.Add(offset), Value: chart.Float(v)}
}

func TestBloodPressure(t *testing.T) {
	channels := [4][]record.VitalSign{
		{vital(time.Hour, 80), vital(2*time.Hour, 76)},             // peripheral diastolic
		{vital(time.Hour, 124), vital(2*time.Hour, 118)},           // peripheral systolic
		{vital(time.Hour, 60)},                                     // arterial diastolic
		{vital(time.Hour, 110), vital(30 * time.Hour, 200)},        // arterial systolic, one past cutoff
	}
	panel := BloodPressure(channels, base.Add(24*time.Hour))

	if got := panel.Peripheral.Recent; got != "118/76" {
		t.Errorf("expected peripheral recent 118/76, got %q", got)
	}
	if got := panel.Arterial.Recent; got != "110/60" {
		t.Errorf("expected arterial recent 110/60, got %q", got)
	}
	if len(panel.Arterial.Channels[1].Points) != 1 {
		t.Errorf("cutoff-excluded point leaked into arterial systolic: %+v",
			panel.Arterial.Channels[1].Points)
	}
	if panel.Peripheral.AbsRange.Min != 76 || panel.Peripheral.AbsRange.Max != 124 {
		t.Errorf("unexpected peripheral abs range: %+v", panel.Peripheral.AbsRange)
	}
	if panel.Peripheral.Channels[0].Name != "dias" || panel.Peripheral.Channels[1].Name != "syst" {
		t.Errorf("unexpected channel names: %q, %q",
			panel.Peripheral.Channels[0].Name, panel.Peripheral.Channels[1].Name)
	}
}

func TestVentilator(t *testing.T) {
	events := []record.VentilatorEvent{
		{Setting: "MODE", Time: base.Add(1 * time.Hour), Value: "Assist"},
		{Setting: "MODE", Time: base.Add(2 * time.Hour), Value: "Assist"},
		{Setting: "MODE", Time: base.Add(3 * time.Hour), Value: "Control"},
	}
	s := Ventilator(events, base.Add(24*time.Hour))

	if len(s.Categories) != 2 || s.Categories[0] != "Assist" || s.Categories[1] != "Control" {
		t.Fatalf("expected categories [Assist Control], got %v", s.Categories)
	}
	wantIdx := []int{0, 0, 1}
	for i, w := range wantIdx {
		if s.Points[i].Index != w {
			t.Errorf("point %d: expected index %d, got %d", i, w, s.Points[i].Index)
		}
	}
	if s.Recent != "Control" {
		t.Errorf("expected recent Control, got %q", s.Recent)
	}
}

func ioEvent(offset time.Duration, typ, name string, category int, volume float64) record.IntakeOutputEvent {
	return record.IntakeOutputEvent{
		Time: base.Add(offset), Type: typ, Name: name, Category: category, Volume: volume,
	}
}

func TestIntakeOutput_DayBucketsAndNet(t *testing.T) {
	events := []record.IntakeOutputEvent{
		ioEvent(8*time.Hour, "Output", "Urine Output", 0, 200),
		ioEvent(9*time.Hour, "Intake", "NS Bolus", 1, 500),
		ioEvent(26*time.Hour, "Intake", "PO Water", 6, 250),
	}
	panel := IntakeOutput(events, base.Add(72*time.Hour))

	if len(panel.Series[IONet].Points) != 2 {
		t.Fatalf("expected 2 day buckets, got %d", len(panel.Series[IONet].Points))
	}

	day1 := panel.Series[IONet].Points[0]
	if panel.Series[IOUrine].Points[0].V != -200 {
		t.Errorf("expected urine stored negative, got %v", panel.Series[IOUrine].Points[0].V)
	}
	if panel.Series[IOIntravenous].Points[0].V != 500 {
		t.Errorf("expected IV 500, got %v", panel.Series[IOIntravenous].Points[0].V)
	}
	if day1.V != 300 {
		t.Errorf("expected day 1 net 300, got %v", day1.V)
	}

	day2 := panel.Series[IONet].Points[1]
	if panel.Series[IOOral].Points[1].V != 250 || day2.V != 250 {
		t.Errorf("expected day 2 oral/net 250, got %v/%v", panel.Series[IOOral].Points[1].V, day2.V)
	}

	if panel.AbsRange == nil || panel.AbsRange.Min != 250 || panel.AbsRange.Max != 300 {
		t.Errorf("expected abs range over day nets [250, 300], got %+v", panel.AbsRange)
	}
}

func TestIntakeOutput_NetInvariant(t *testing.T) {
	events := []record.IntakeOutputEvent{
		ioEvent(time.Hour, "Output", "Urine Output", 0, 100.254),
		ioEvent(2*time.Hour, "Output", "Chest Tube", 0, 50),
		ioEvent(3*time.Hour, "Intake", "PO", 6, 75),
		ioEvent(4*time.Hour, "Intake", "NS", 3, 425),
		ioEvent(5*time.Hour, "Intake", "PRBC", 7, 300),
		ioEvent(6*time.Hour, "Intake", "Unknown", 42, 10),
	}
	panel := IntakeOutput(events, base.Add(24*time.Hour))

	sum := 0.0
	for ch := 0; ch < IONet; ch++ {
		sum += panel.Series[ch].Points[0].V
	}
	if got := panel.Series[IONet].Points[0].V; got != sum {
		t.Errorf("net %v != channel sum %v", got, sum)
	}
	// Volume rounding applies per event before accumulation.
	if got := panel.Series[IOUrine].Points[0].V; got != -100.25 {
		t.Errorf("expected urine -100.25, got %v", got)
	}
}

func TestIntakeOutput_Empty(t *testing.T) {
	panel := IntakeOutput(nil, base)
	if panel.AbsRange != nil {
		t.Errorf("expected nil abs range with no data, got %+v", panel.AbsRange)
	}
	if len(panel.Series[IONet].Points) != 0 {
		t.Errorf("expected no points, got %+v", panel.Series[IONet].Points)
	}
}

func TestClassifyIO(t *testing.T) {
	tests := []struct {
		typ      string
		name     string
		category int
		want     int
	}{
		{"Output", "Urine Output", 0, IOUrine},
		{"Output", "Emesis", 0, IOOtherOutput},
		{"Intake", "PO Water", 6, IOOral},
		{"Intake", "NS", 1, IOIntravenous},
		{"Intake", "D5W", 10, IOIntravenous},
		{"Intake", "PRBC", 7, IOBloodProducts},
		{"Intake", "Misc", 11, IOOther},
		{"Intake", "Misc", 0, IOOther},
	}
	for _, tt := range tests {
		ev := record.IntakeOutputEvent{Type: tt.typ, Name: tt.name, Category: tt.category}
		if got := classifyIO(ev); got != tt.want {
			t.Errorf("classifyIO(%s/%s/%d) = %d, want %d", tt.typ, tt.name, tt.category, got, tt.want)
		}
	}
}
