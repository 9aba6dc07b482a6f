package record

import (
	"context"
	"errors"
)

// ErrSourceUnavailable marks a reader failure for one entity type: a missing
// fixture file, a dropped table, a dead connection. Assembly treats the
// entity's contribution as empty and carries on.
var ErrSourceUnavailable = errors.New("raw source unavailable")

// Reader pulls raw event rows for one case. Implementations make no
// ordering guarantee; callers sort or aggregate as needed. The live
// implementation queries the clinical research database, the fixture
// implementation replays serialized extracts.
type Reader interface {
	Admissions(ctx context.Context, caseID string) ([]Admission, error)
	Demographics(ctx context.Context, caseID string) (*Demographics, error)
	LabResults(ctx context.Context, caseID string, codes []string) ([]LabResult, error)
	VitalSigns(ctx context.Context, caseID, rollup string) ([]VitalSign, error)
	VentilatorEvents(ctx context.Context, caseID, setting string) ([]VentilatorEvent, error)
	MedicationEvents(ctx context.Context, caseID string) ([]MedicationEvent, error)
	HomeMedEvents(ctx context.Context, caseID string) ([]HomeMedEvent, error)
	IntakeOutput(ctx context.Context, caseID string) ([]IntakeOutputEvent, error)
	Procedures(ctx context.Context, caseID string) ([]ProcedureEvent, error)
	MicroEvents(ctx context.Context, caseID string) ([]MicroEvent, error)
	MicroReports(ctx context.Context, caseID string) ([]MicroReport, error)
	Notes(ctx context.Context, caseID, noteType string) ([]NoteEvent, error)
}
