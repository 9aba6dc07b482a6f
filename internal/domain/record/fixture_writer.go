package record

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// CaseFixtures bundles one case's raw extract for serialization into the
// fixture layout read by NewReaderFixture.
type CaseFixtures struct {
	Admissions   []Admission
	Demographics *Demographics
	Labs         []LabResult
	Vitals       []VitalSign
	Ventilator   []VentilatorEvent
	Medications  []MedicationEvent
	HomeMeds     []HomeMedEvent
	IntakeOutput []IntakeOutputEvent
	Procedures   []ProcedureEvent
	MicroEvents  []MicroEvent
	MicroReports []MicroReport
	Notes        []NoteEvent
}

// WriteCaseFixtures serializes one case's fixtures under dir/caseID.
// Sections with no rows still produce a file (an empty extract is data;
// a missing file means the source was unavailable).
func WriteCaseFixtures(dir, caseID string, fx *CaseFixtures) error {
	caseDir := filepath.Join(dir, caseID)
	if err := os.MkdirAll(caseDir, 0o755); err != nil {
		return fmt.Errorf("create fixture dir: %w", err)
	}

	files := map[string]any{
		fixAdmissions:   orEmpty(fx.Admissions),
		fixLabs:         orEmpty(fx.Labs),
		fixVitals:       orEmpty(fx.Vitals),
		fixVentilator:   orEmpty(fx.Ventilator),
		fixMedications:  orEmpty(fx.Medications),
		fixHomeMeds:     orEmpty(fx.HomeMeds),
		fixIO:           orEmpty(fx.IntakeOutput),
		fixProcedures:   orEmpty(fx.Procedures),
		fixMicroEvents:  orEmpty(fx.MicroEvents),
		fixMicroReports: orEmpty(fx.MicroReports),
		fixNotes:        orEmpty(fx.Notes),
	}
	if fx.Demographics != nil {
		files[fixDemographics] = fx.Demographics
	}

	for name, v := range files {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(caseDir, name), data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

// orEmpty keeps empty sections as [] rather than null on the wire.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
