package record

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Fixture file names under each case directory.
const (
	fixAdmissions   = "admissions.json"
	fixDemographics = "demographics.json"
	fixLabs         = "labs.json"
	fixVitals       = "vitals.json"
	fixVentilator   = "ventilator.json"
	fixMedications  = "medications.json"
	fixHomeMeds     = "home_medications.json"
	fixIO           = "intake_output.json"
	fixProcedures   = "procedures.json"
	fixMicroEvents  = "micro_events.json"
	fixMicroReports = "micro_reports.json"
	fixNotes        = "notes.json"
)

// readerFixture replays serialized raw extracts from a directory of
// per-case JSON files. It backs offline runs and tests; the `synthea`
// subcommand produces this layout from a Synthea CSV export.
type readerFixture struct {
	dir string
}

func NewReaderFixture(dir string) Reader {
	return &readerFixture{dir: dir}
}

// loadFixture decodes one fixture file into out. A missing file or decode
// failure surfaces as ErrSourceUnavailable; assembly degrades the section.
func (r *readerFixture) loadFixture(caseID, name string, out any) error {
	path := filepath.Join(r.dir, caseID, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s: decode: %v", ErrSourceUnavailable, name, err)
	}
	return nil
}

func (r *readerFixture) Admissions(_ context.Context, caseID string) ([]Admission, error) {
	var out []Admission
	if err := r.loadFixture(caseID, fixAdmissions, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *readerFixture) Demographics(_ context.Context, caseID string) (*Demographics, error) {
	var out Demographics
	if err := r.loadFixture(caseID, fixDemographics, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *readerFixture) LabResults(_ context.Context, caseID string, codes []string) ([]LabResult, error) {
	var all []LabResult
	if err := r.loadFixture(caseID, fixLabs, &all); err != nil {
		return nil, err
	}
	want := make(map[string]bool, len(codes))
	for _, c := range codes {
		want[c] = true
	}
	var out []LabResult
	for _, l := range all {
		if want[l.Code] {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *readerFixture) VitalSigns(_ context.Context, caseID, rollup string) ([]VitalSign, error) {
	var all []VitalSign
	if err := r.loadFixture(caseID, fixVitals, &all); err != nil {
		return nil, err
	}
	var out []VitalSign
	for _, v := range all {
		if v.Rollup == rollup {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *readerFixture) VentilatorEvents(_ context.Context, caseID, setting string) ([]VentilatorEvent, error) {
	var all []VentilatorEvent
	if err := r.loadFixture(caseID, fixVentilator, &all); err != nil {
		return nil, err
	}
	var out []VentilatorEvent
	for _, v := range all {
		if v.Setting == setting {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *readerFixture) MedicationEvents(_ context.Context, caseID string) ([]MedicationEvent, error) {
	var out []MedicationEvent
	if err := r.loadFixture(caseID, fixMedications, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *readerFixture) HomeMedEvents(_ context.Context, caseID string) ([]HomeMedEvent, error) {
	var out []HomeMedEvent
	if err := r.loadFixture(caseID, fixHomeMeds, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *readerFixture) IntakeOutput(_ context.Context, caseID string) ([]IntakeOutputEvent, error) {
	var out []IntakeOutputEvent
	if err := r.loadFixture(caseID, fixIO, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *readerFixture) Procedures(_ context.Context, caseID string) ([]ProcedureEvent, error) {
	var out []ProcedureEvent
	if err := r.loadFixture(caseID, fixProcedures, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *readerFixture) MicroEvents(_ context.Context, caseID string) ([]MicroEvent, error) {
	var out []MicroEvent
	if err := r.loadFixture(caseID, fixMicroEvents, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *readerFixture) MicroReports(_ context.Context, caseID string) ([]MicroReport, error) {
	var out []MicroReport
	if err := r.loadFixture(caseID, fixMicroReports, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *readerFixture) Notes(_ context.Context, caseID, noteType string) ([]NoteEvent, error) {
	var all []NoteEvent
	if err := r.loadFixture(caseID, fixNotes, &all); err != nil {
		return nil, err
	}
	var out []NoteEvent
	for _, n := range all {
		if n.NoteType == noteType {
			out = append(out, n)
		}
	}
	return out, nil
}
