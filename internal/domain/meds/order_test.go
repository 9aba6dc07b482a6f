package meds

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

var base = time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)

func at(offset time.Duration) time.Time { return base.Add(offset) }

func TestCollector_MergesByNameAndRoute(t *testing.T) {
	c := NewCollector(zerolog.Nop())
	c.Add(at(1*time.Hour), "Aspirin", "oral", "aspirin", 81, "81mg")
	c.Add(at(2*time.Hour), "Aspirin", "oral", "aspirin", 81, "81mg")
	c.Add(at(3*time.Hour), "Tylenol", "oral", "acetaminophen", 500, "500mg")

	panel := c.Finalize(at(24 * time.Hour))
	if len(panel.Orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(panel.Orders))
	}

	aspirin := panel.Orders["0"]
	if aspirin == nil || len(aspirin.Doses) != 2 {
		t.Fatalf("expected aspirin order with 2 dose points, got %+v", aspirin)
	}
	if aspirin.FirstT != at(1*time.Hour).UnixMilli() || aspirin.LastT != at(2*time.Hour).UnixMilli() {
		t.Errorf("unexpected aspirin span [%d, %d]", aspirin.FirstT, aspirin.LastT)
	}

	tylenol := panel.Orders["1"]
	if tylenol == nil || len(tylenol.Doses) != 1 {
		t.Fatalf("expected tylenol order with 1 dose point, got %+v", tylenol)
	}
	if tylenol.FirstT != tylenol.LastT {
		t.Errorf("single-event order should have first == last, got [%d, %d]",
			tylenol.FirstT, tylenol.LastT)
	}

	if ids := panel.Routes["oral"]; len(ids) != 2 || ids[0] != 0 || ids[1] != 1 {
		t.Errorf("expected oral route to index both orders, got %v", ids)
	}
}

func TestCollector_DistinctKeysNeverShareAnOrder(t *testing.T) {
	c := NewCollector(zerolog.Nop())
	c.Add(at(time.Hour), "Metoprolol", "oral", "metoprolol", 25, "25mg")
	c.Add(at(2*time.Hour), "Metoprolol", "intravenous", "metoprolol", 5, "5mg")

	panel := c.Finalize(at(24 * time.Hour))
	if len(panel.Orders) != 2 {
		t.Fatalf("same name on different routes must stay separate, got %d orders", len(panel.Orders))
	}
}

func TestCollector_RouteMismatchWarnsWithoutSplitting(t *testing.T) {
	var buf strings.Builder
	log := zerolog.New(&buf)

	c := NewCollector(log)
	c.Add(at(time.Hour), "Heparin", "Subcutaneous", "heparin", 5000, "5000units")
	c.Add(at(2*time.Hour), "Heparin", "SUBCUTANEOUS", "heparin", 5000, "5000units")

	panel := c.Finalize(at(24 * time.Hour))
	if len(panel.Orders) != 1 {
		t.Fatalf("case-folded route must merge, got %d orders", len(panel.Orders))
	}
	if len(panel.Orders["0"].Doses) != 2 {
		t.Errorf("expected both events in the merged order, got %d", len(panel.Orders["0"].Doses))
	}
	if !strings.Contains(buf.String(), "routes differ") {
		t.Errorf("expected route mismatch warning, got log: %s", buf.String())
	}
}

func TestCollector_CutoffAppliedAfterFullPass(t *testing.T) {
	c := NewCollector(zerolog.Nop())
	// Order discovered only through an event past the cutoff.
	c.Add(at(30*time.Hour), "Vancomycin", "intravenous", "vancomycin", 1000, "1g")
	// Order with events straddling the cutoff.
	c.Add(at(1*time.Hour), "Aspirin", "oral", "aspirin", 81, "81mg")
	c.Add(at(30*time.Hour), "Aspirin", "oral", "aspirin", 81, "81mg")

	panel := c.Finalize(at(24 * time.Hour))
	if len(panel.Orders) != 1 {
		t.Fatalf("expected only the aspirin order to survive the cutoff, got %d", len(panel.Orders))
	}
	aspirin := panel.Orders["1"]
	if aspirin == nil {
		t.Fatal("aspirin order id must be stable even after exclusions")
	}
	if len(aspirin.Doses) != 1 {
		t.Errorf("dose point past cutoff leaked: %+v", aspirin.Doses)
	}
	if aspirin.LastT >= at(24*time.Hour).UnixMilli() {
		t.Errorf("last time past cutoff: %d", aspirin.LastT)
	}
}

func TestCollector_DoseRange(t *testing.T) {
	c := NewCollector(zerolog.Nop())
	c.Add(at(1*time.Hour), "Insulin", "subcutaneous", "insulin", 4, "4units")
	c.Add(at(2*time.Hour), "Insulin", "subcutaneous", "insulin", 10, "10units")
	c.Add(at(3*time.Hour), "Insulin", "subcutaneous", "insulin", 2, "2units")

	panel := c.Finalize(at(24 * time.Hour))
	ord := panel.Orders["0"]
	if ord.DoseRange.Min != 2 || ord.DoseRange.Max != 10 {
		t.Errorf("expected dose range [2, 10], got %+v", ord.DoseRange)
	}
}

func TestSplitValueUnit(t *testing.T) {
	tests := []struct {
		in    string
		value string
		unit  string
	}{
		{"325mg", "325", "mg"},
		{"10 mL", "10", " mL"},
		{"daily", "daily", ""},
		{"q6h", "q6", "h"},
		{"", "", ""},
		{"2 tabs daily", "2", " tabs daily"},
	}
	for _, tt := range tests {
		v, u := SplitValueUnit(tt.in)
		if v != tt.value || u != tt.unit {
			t.Errorf("SplitValueUnit(%q) = (%q, %q), want (%q, %q)", tt.in, v, u, tt.value, tt.unit)
		}
	}
}

func TestParseDose(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"81", 81},
		{"12.5", 12.5},
		{"100^", 100},
		{"", 0},
		{"one tablet", 0},
	}
	for _, tt := range tests {
		if got := ParseDose(tt.in); got != tt.want {
			t.Errorf("ParseDose(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
