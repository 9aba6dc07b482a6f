package record

import "time"

// Raw source rows, one type per entity, with required and optional fields
// made explicit so malformed rows are rejected at the boundary instead of
// deep inside aggregation.

// LabResult is one lab observation row. Value is nil when the source
// reported only free text; ranges are nil when the source carried none.
type LabResult struct {
	CaseID     string     `json:"case_id"`
	Code       string     `json:"code"`
	Time       time.Time  `json:"time"`
	Value      *float64   `json:"value,omitempty"`
	Text       string     `json:"text,omitempty"`
	Unit       string     `json:"unit,omitempty"`
	RangeLow   *float64   `json:"range_low,omitempty"`
	RangeHigh  *float64   `json:"range_high,omitempty"`
	RangeOther string     `json:"range_other,omitempty"`
}

// VitalSign is one pre-rolled-up clinical event row (vitals arrive already
// merged by rollup name upstream).
type VitalSign struct {
	CaseID    string    `json:"case_id"`
	Rollup    string    `json:"rollup"`
	Time      time.Time `json:"time"`
	Value     *float64  `json:"value,omitempty"`
	Unit      string    `json:"unit,omitempty"`
	ValueText string    `json:"value_text,omitempty"`
}

// VentilatorEvent is one textual ventilator setting observation.
type VentilatorEvent struct {
	CaseID  string    `json:"case_id"`
	Setting string    `json:"setting"`
	Time    time.Time `json:"time"`
	Value   string    `json:"value"`
}

// MedicationEvent is one administration/charting row for an active order.
type MedicationEvent struct {
	CaseID    string    `json:"case_id"`
	Time      time.Time `json:"time"`
	OrderedAs string    `json:"ordered_as"`
	Catalog   string    `json:"catalog"`
	Route     string    `json:"route"`
	Dose      float64   `json:"dose"`
	EventTag  string    `json:"event_tag,omitempty"`
}

// HomeMedEvent is one home (pre-admission) medication row. DoseText keeps
// the raw dose string; home med doses are notoriously dirty.
type HomeMedEvent struct {
	CaseID    string    `json:"case_id"`
	Time      time.Time `json:"time"`
	OrderName string    `json:"order_name"`
	Generic   string    `json:"generic"`
	OrderType string    `json:"order_type"`
	DoseText  string    `json:"dose_text,omitempty"`
	Frequency string    `json:"frequency,omitempty"`
}

// IntakeOutputEvent is one fluid intake or output row.
type IntakeOutputEvent struct {
	CaseID   string    `json:"case_id"`
	Time     time.Time `json:"time"`
	Type     string    `json:"type"` // "Intake" or "Output"
	Name     string    `json:"name"`
	Category int       `json:"category"`
	Volume   float64   `json:"volume"`
	Unit     string    `json:"unit,omitempty"`
}

// ProcedureEvent is one surgical/procedure row.
type ProcedureEvent struct {
	CaseID    string    `json:"case_id"`
	Time      time.Time `json:"time"`
	Procedure string    `json:"procedure"`
	PostDx    string    `json:"post_dx,omitempty"`
	Primary   bool      `json:"primary"`
}

// MicroEvent is one microbiology culture event; reports join on Accession.
type MicroEvent struct {
	CaseID    string    `json:"case_id"`
	Time      time.Time `json:"time"`
	EventName string    `json:"event_name"`
	Accession string    `json:"accession"`
	Source    string    `json:"source,omitempty"`
}

// MicroReport is the free-text body of a microbiology report.
type MicroReport struct {
	CaseID    string `json:"case_id"`
	Accession string `json:"accession"`
	Text      string `json:"text"`
}

// NoteEvent is one free-text clinical note or note-like document.
type NoteEvent struct {
	CaseID   string    `json:"case_id"`
	Time     time.Time `json:"time"`
	NoteType string    `json:"note_type"`
	DateText string    `json:"date_text,omitempty"`
	Text     string    `json:"text"`
}

// Admission is one ICU stay interval for a case. A case may span several.
type Admission struct {
	CaseID    string    `json:"case_id"`
	Admit     time.Time `json:"admit"`
	Discharge time.Time `json:"discharge"`
	Unit      string    `json:"unit,omitempty"`
}

// Demographics is the per-case patient summary.
type Demographics struct {
	CaseID string   `json:"id"`
	Age    int      `json:"age"`
	Sex    string   `json:"sex"`
	Height *float64 `json:"height,omitempty"`
	Weight *float64 `json:"weight,omitempty"`
	BMI    *float64 `json:"bmi,omitempty"`
	Race   string   `json:"race,omitempty"`
	Name   string   `json:"name,omitempty"`
}
