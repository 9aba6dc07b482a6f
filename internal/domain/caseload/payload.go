package caseload

import (
	"github.com/semr/etl/internal/domain/chart"
	"github.com/semr/etl/internal/domain/flowsheet"
	"github.com/semr/etl/internal/domain/meds"
	"github.com/semr/etl/internal/domain/notes"
	"github.com/semr/etl/internal/domain/record"
)

// CasePayload is everything assembled for one case at one cutoff. Series
// maps are keyed by root code; Notes is keyed by note type.
type CasePayload struct {
	CaseID        string                          `json:"case_id"`
	Demographics  *record.Demographics            `json:"demographics"`
	Bounds        CaseBounds                      `json:"global_time"`
	Labs          map[string]*chart.Series        `json:"labs"`
	Vitals        map[string]*chart.Series        `json:"vitals"`
	BloodPressure *flowsheet.BPPanel              `json:"blood_pressure"`
	Ventilator    map[string]flowsheet.VentSeries `json:"ventilator"`
	IntakeOutput  *flowsheet.IOPanel              `json:"intake_output"`
	Medications   *meds.Panel                     `json:"medications"`
	Procedures    []notes.Entry                   `json:"procedures"`
	MicroReports  []notes.Entry                   `json:"micro_reports"`
	Notes         map[string][]notes.Entry        `json:"notes"`
}

// VitalsDocument is the vitals section file: per-root series plus the
// flowsheet panels that chart alongside them.
type VitalsDocument struct {
	Series        map[string]*chart.Series        `json:"series"`
	BloodPressure *flowsheet.BPPanel              `json:"blood_pressure"`
	Ventilator    map[string]flowsheet.VentSeries `json:"ventilator"`
	IntakeOutput  *flowsheet.IOPanel              `json:"intake_output"`
}

// Sections splits the payload into its per-case output files.
func (p *CasePayload) Sections() map[string]any {
	return map[string]any{
		"demographics.json": p.Demographics,
		"global_time.json":  p.Bounds,
		"labs.json":         p.Labs,
		"vitals.json": VitalsDocument{
			Series:        p.Vitals,
			BloodPressure: p.BloodPressure,
			Ventilator:    p.Ventilator,
			IntakeOutput:  p.IntakeOutput,
		},
		"medications.json":   p.Medications,
		"procedures.json":    p.Procedures,
		"micro_reports.json": p.MicroReports,
		"notes.json":         p.Notes,
	}
}
