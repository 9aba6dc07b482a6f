package caseload

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/semr/etl/internal/domain/chart"
	"github.com/semr/etl/internal/domain/flowsheet"
	"github.com/semr/etl/internal/domain/meds"
	"github.com/semr/etl/internal/domain/notes"
	"github.com/semr/etl/internal/domain/record"
	"github.com/semr/etl/internal/domain/resolve"
)

// DefaultNoteTypes is the standard set of per-type note panels.
var DefaultNoteTypes = []string{"OP", "RAD", "EKG", "PGN", "HP"}

// bpRollups are the four blood pressure vital rollups, in channel order:
// peripheral diastolic, peripheral systolic, arterial diastolic, arterial
// systolic.
var bpRollups = [4]string{
	"Diastolic BP",
	"Systolic BP",
	"Pulmonary artery diastolic",
	"Pulmonary artery systolic",
}

// Assembler builds the full payload for one case. Safe for concurrent use:
// the reader and tables it holds are themselves concurrency-safe and the
// assembler keeps no per-case state.
type Assembler struct {
	reader    record.Reader
	tables    *resolve.Tables
	noteTypes []string
	log       zerolog.Logger
}

// NewAssembler wires an assembler. A nil noteTypes slice selects
// DefaultNoteTypes.
func NewAssembler(reader record.Reader, tables *resolve.Tables, noteTypes []string, log zerolog.Logger) *Assembler {
	if noteTypes == nil {
		noteTypes = DefaultNoteTypes
	}
	return &Assembler{reader: reader, tables: tables, noteTypes: noteTypes, log: log}
}

// Assemble produces the payload for one case at one requested cutoff.
// Missing admissions are fatal; any other entity source that is unavailable
// degrades its own section to empty with a warning and assembly carries on.
func (a *Assembler) Assemble(ctx context.Context, caseID string, cutoff time.Time) (*CasePayload, error) {
	admissions, err := a.reader.Admissions(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("admissions for case %s: %w", caseID, err)
	}
	bounds, cut, err := ResolveBounds(admissions, cutoff)
	if err != nil {
		return nil, fmt.Errorf("case %s: %w", caseID, err)
	}
	admit := time.UnixMilli(bounds.MinT).UTC()

	payload := &CasePayload{
		CaseID:     caseID,
		Bounds:     bounds,
		Labs:       map[string]*chart.Series{},
		Vitals:     map[string]*chart.Series{},
		Ventilator: map[string]flowsheet.VentSeries{},
		Notes:      map[string][]notes.Entry{},
	}

	sex := "M"
	demo, err := a.reader.Demographics(ctx, caseID)
	switch {
	case err == nil:
		payload.Demographics = demo
		if demo.Sex != "" {
			sex = demo.Sex
		}
	case a.degraded(caseID, "demographics", err):
	default:
		return nil, fmt.Errorf("demographics for case %s: %w", caseID, err)
	}

	for _, group := range a.tables.Groups() {
		vitalsGroup := group.Name == "Vitals" || group.Name == "Ventilator"
		for _, root := range group.Roots {
			var series *chart.Series
			switch a.tables.Table(root) {
			case resolve.SourceVital:
				series, err = a.vitalSeries(ctx, caseID, root, sex, cut)
			case resolve.SourceVentilator:
				if err = a.ventSeries(ctx, caseID, root, cut, payload); err != nil {
					return nil, err
				}
				continue
			default:
				series, err = a.labSeries(ctx, caseID, root, cut)
			}
			if err != nil {
				return nil, err
			}
			if series == nil {
				continue
			}
			if vitalsGroup {
				payload.Vitals[root] = series
			} else {
				payload.Labs[root] = series
			}
		}
	}

	if err := a.assembleBP(ctx, caseID, cut, payload); err != nil {
		return nil, err
	}
	if err := a.assembleIO(ctx, caseID, cut, payload); err != nil {
		return nil, err
	}
	if err := a.assembleMeds(ctx, caseID, cut, payload); err != nil {
		return nil, err
	}
	if err := a.assembleFreeText(ctx, caseID, admit, cut, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// degraded reports whether err is a recoverable per-entity source failure,
// logging the warning that documents the degraded section.
func (a *Assembler) degraded(caseID, entity string, err error) bool {
	if !errors.Is(err, record.ErrSourceUnavailable) {
		return false
	}
	a.log.Warn().
		Str("case_id", caseID).
		Str("entity", entity).
		Err(err).
		Msg("source unavailable, section degraded to empty")
	return true
}

func (a *Assembler) labSeries(ctx context.Context, caseID, root string, cut time.Time) (*chart.Series, error) {
	rows, err := a.reader.LabResults(ctx, caseID, a.tables.Codes(root))
	if err != nil {
		if a.degraded(caseID, "labs:"+root, err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lab results for case %s root %s: %w", caseID, root, err)
	}
	events := make([]chart.RawEvent, 0, len(rows))
	for _, r := range rows {
		events = append(events, chart.RawEvent{
			Time:       r.Time,
			Value:      r.Value,
			Text:       r.Text,
			Unit:       r.Unit,
			RangeLow:   r.RangeLow,
			RangeHigh:  r.RangeHigh,
			RangeOther: r.RangeOther,
		})
	}
	series, err := chart.Normalize(events, cut, a.tables.Range(root))
	if errors.Is(err, chart.ErrNoData) {
		return nil, nil
	}
	if series.Unit == "" {
		series.Unit = a.tables.Unit(root)
	}
	return series, nil
}

// vitalSeries charts one pre-rolled-up clinical event stream. Normal ranges
// come from the sex-specific table, not from the events (vitals rows carry
// no reference interval), and the recent value rounds to one decimal.
func (a *Assembler) vitalSeries(ctx context.Context, caseID, root, sex string, cut time.Time) (*chart.Series, error) {
	rollup := a.tables.Name(root)
	rows, err := a.reader.VitalSigns(ctx, caseID, rollup)
	if err != nil {
		if a.degraded(caseID, "vitals:"+root, err) {
			return nil, nil
		}
		return nil, fmt.Errorf("vital signs for case %s rollup %q: %w", caseID, rollup, err)
	}
	events := make([]chart.RawEvent, 0, len(rows))
	for _, r := range rows {
		events = append(events, chart.RawEvent{
			Time:  r.Time,
			Value: r.Value,
			Text:  r.ValueText,
			Unit:  r.Unit,
		})
	}
	series, err := chart.Normalize(events, cut, a.tables.Range(root))
	if errors.Is(err, chart.ErrNoData) {
		return nil, nil
	}
	series.NormalRange = a.tables.SexNormal(sex, rollup)
	series.Zones = chart.ZonesFor(series.NormalRange)
	if v, ok := series.RecentValue.(float64); ok {
		series.RecentValue = math.Round(v*10) / 10
	}
	if series.Unit == "" {
		series.Unit = a.tables.Unit(root)
	}
	return series, nil
}

func (a *Assembler) ventSeries(ctx context.Context, caseID, root string, cut time.Time, payload *CasePayload) error {
	setting := a.tables.Name(root)
	rows, err := a.reader.VentilatorEvents(ctx, caseID, setting)
	if err != nil {
		if a.degraded(caseID, "ventilator:"+root, err) {
			return nil
		}
		return fmt.Errorf("ventilator events for case %s setting %q: %w", caseID, setting, err)
	}
	series := flowsheet.Ventilator(rows, cut)
	if len(series.Points) == 0 {
		return nil
	}
	payload.Ventilator[root] = series
	return nil
}

func (a *Assembler) assembleBP(ctx context.Context, caseID string, cut time.Time, payload *CasePayload) error {
	var channels [4][]record.VitalSign
	for i, rollup := range bpRollups {
		rows, err := a.reader.VitalSigns(ctx, caseID, rollup)
		if err != nil {
			if a.degraded(caseID, "blood_pressure:"+rollup, err) {
				continue
			}
			return fmt.Errorf("blood pressure for case %s rollup %q: %w", caseID, rollup, err)
		}
		channels[i] = rows
	}
	payload.BloodPressure = flowsheet.BloodPressure(channels, cut)
	return nil
}

func (a *Assembler) assembleIO(ctx context.Context, caseID string, cut time.Time, payload *CasePayload) error {
	rows, err := a.reader.IntakeOutput(ctx, caseID)
	if err != nil {
		if a.degraded(caseID, "intake_output", err) {
			rows = nil
		} else {
			return fmt.Errorf("intake/output for case %s: %w", caseID, err)
		}
	}
	payload.IntakeOutput = flowsheet.IntakeOutput(rows, cut)
	return nil
}

// assembleMeds merges the active-order and home-medication streams into one
// order panel. Both streams feed the same collector so a drug charted in
// both merges on its (name, route) key.
func (a *Assembler) assembleMeds(ctx context.Context, caseID string, cut time.Time, payload *CasePayload) error {
	collector := meds.NewCollector(a.log)

	active, err := a.reader.MedicationEvents(ctx, caseID)
	if err != nil && !a.degraded(caseID, "medications", err) {
		return fmt.Errorf("medication events for case %s: %w", caseID, err)
	}
	for _, ev := range active {
		collector.Add(ev.Time, ev.OrderedAs, ev.Route, ev.Catalog, ev.Dose, ev.EventTag)
	}

	home, err := a.reader.HomeMedEvents(ctx, caseID)
	if err != nil && !a.degraded(caseID, "home_medications", err) {
		return fmt.Errorf("home medication events for case %s: %w", caseID, err)
	}
	for _, ev := range home {
		collector.Add(ev.Time, ev.OrderName, ev.OrderType, ev.Generic, meds.ParseDose(ev.DoseText), ev.Frequency)
	}

	payload.Medications = collector.Finalize(cut)
	return nil
}

func (a *Assembler) assembleFreeText(ctx context.Context, caseID string, admit, cut time.Time, payload *CasePayload) error {
	procs, err := a.reader.Procedures(ctx, caseID)
	if err != nil && !a.degraded(caseID, "procedures", err) {
		return fmt.Errorf("procedures for case %s: %w", caseID, err)
	}
	payload.Procedures = notes.Procedures(procs, cut)

	microEvents, err := a.reader.MicroEvents(ctx, caseID)
	if err != nil && !a.degraded(caseID, "micro_events", err) {
		return fmt.Errorf("micro events for case %s: %w", caseID, err)
	}
	microReports, err := a.reader.MicroReports(ctx, caseID)
	if err != nil && !a.degraded(caseID, "micro_reports", err) {
		return fmt.Errorf("micro reports for case %s: %w", caseID, err)
	}
	payload.MicroReports = notes.MicroReports(microEvents, microReports, cut)

	for _, noteType := range a.noteTypes {
		rows, err := a.reader.Notes(ctx, caseID, noteType)
		if err != nil {
			if a.degraded(caseID, "notes:"+noteType, err) {
				continue
			}
			return fmt.Errorf("notes for case %s type %q: %w", caseID, noteType, err)
		}
		payload.Notes[noteType] = notes.Reports(rows, admit, cut)
	}
	return nil
}
