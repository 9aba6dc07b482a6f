package record

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// readerPG reads raw rows from the clinical research schema. Queries filter
// by case (patient visit) id only; time filtering happens downstream so one
// run can assemble several cutoffs from the same rows.
type readerPG struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

func NewReaderPG(pool *pgxpool.Pool, log zerolog.Logger) Reader {
	return &readerPG{pool: pool, log: log}
}

func wrapSource(entity string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, entity, err)
}

// scanRows drains rows through scan. A row that fails to scan (NULL in a
// required column, bad type) costs that row only, not the entity; the skip
// count is logged per entity at the end of the pass.
func (r *readerPG) scanRows(rows pgx.Rows, entity string, scan func(rows pgx.Rows) error) error {
	defer rows.Close()
	skipped := 0
	for rows.Next() {
		if err := scan(rows); err != nil {
			skipped++
		}
	}
	if skipped > 0 {
		r.log.Warn().Str("entity", entity).Int("skipped", skipped).Msg("malformed rows skipped")
	}
	return rows.Err()
}

func (r *readerPG) Admissions(ctx context.Context, caseID string) ([]Admission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT patient_visit_id, icu_admit, icu_discharge, unit
		FROM a_icu_patients WHERE patient_visit_id = $1`, caseID)
	if err != nil {
		return nil, wrapSource("admissions", err)
	}

	var out []Admission
	err = r.scanRows(rows, "admissions", func(rows pgx.Rows) error {
		var a Admission
		if err := rows.Scan(&a.CaseID, &a.Admit, &a.Discharge, &a.Unit); err != nil {
			return err
		}
		out = append(out, a)
		return nil
	})
	return out, err
}

func (r *readerPG) Demographics(ctx context.Context, caseID string) (*Demographics, error) {
	var d Demographics
	err := r.pool.QueryRow(ctx, `
		SELECT patient_visit_id, age, sex, height, weight, bmi, race_composite
		FROM a_demographics WHERE patient_visit_id = $1`, caseID).
		Scan(&d.CaseID, &d.Age, &d.Sex, &d.Height, &d.Weight, &d.BMI, &d.Race)
	if err == pgx.ErrNoRows {
		return nil, wrapSource("demographics", err)
	}
	if err != nil {
		return nil, wrapSource("demographics", err)
	}
	return &d, nil
}

func (r *readerPG) LabResults(ctx context.Context, caseID string, codes []string) ([]LabResult, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT patient_visit_id, event_code, event_date, event_value, event_text,
		       event_unit, range_low, range_high, range_other
		FROM lab_739 WHERE patient_visit_id = $1 AND event_code = ANY($2)`, caseID, codes)
	if err != nil {
		return nil, wrapSource("labs", err)
	}

	var out []LabResult
	err = r.scanRows(rows, "labs", func(rows pgx.Rows) error {
		var l LabResult
		if err := rows.Scan(&l.CaseID, &l.Code, &l.Time, &l.Value, &l.Text,
			&l.Unit, &l.RangeLow, &l.RangeHigh, &l.RangeOther); err != nil {
			return err
		}
		out = append(out, l)
		return nil
	})
	return out, err
}

func (r *readerPG) VitalSigns(ctx context.Context, caseID, rollup string) ([]VitalSign, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT patient_visit_id, rollup_name, event_date, rollup_val, rollup_unit, rollup_val_text
		FROM a_clinical_events WHERE patient_visit_id = $1 AND rollup_name = $2`, caseID, rollup)
	if err != nil {
		return nil, wrapSource("vitals", err)
	}

	var out []VitalSign
	err = r.scanRows(rows, "vitals", func(rows pgx.Rows) error {
		var v VitalSign
		if err := rows.Scan(&v.CaseID, &v.Rollup, &v.Time, &v.Value, &v.Unit, &v.ValueText); err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	return out, err
}

func (r *readerPG) VentilatorEvents(ctx context.Context, caseID, setting string) ([]VentilatorEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT patient_visit_id, event_name, event_date, result_val
		FROM a_ventilator WHERE patient_visit_id = $1 AND event_name = $2`, caseID, setting)
	if err != nil {
		return nil, wrapSource("ventilator", err)
	}

	var out []VentilatorEvent
	err = r.scanRows(rows, "ventilator", func(rows pgx.Rows) error {
		var v VentilatorEvent
		if err := rows.Scan(&v.CaseID, &v.Setting, &v.Time, &v.Value); err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	return out, err
}

func (r *readerPG) MedicationEvents(ctx context.Context, caseID string) ([]MedicationEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT patient_visit_id, chart_date, ordered_as, catalog_disp, route, result_val, event_tag
		FROM a_medication WHERE patient_visit_id = $1`, caseID)
	if err != nil {
		return nil, wrapSource("medications", err)
	}

	var out []MedicationEvent
	err = r.scanRows(rows, "medications", func(rows pgx.Rows) error {
		var m MedicationEvent
		if err := rows.Scan(&m.CaseID, &m.Time, &m.OrderedAs, &m.Catalog, &m.Route,
			&m.Dose, &m.EventTag); err != nil {
			return err
		}
		out = append(out, m)
		return nil
	})
	return out, err
}

func (r *readerPG) HomeMedEvents(ctx context.Context, caseID string) ([]HomeMedEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT patient_visit_id, action_date, order_name, generic_name, order_type, dose, frequency
		FROM a_home_meds WHERE patient_visit_id = $1`, caseID)
	if err != nil {
		return nil, wrapSource("home medications", err)
	}

	var out []HomeMedEvent
	err = r.scanRows(rows, "home medications", func(rows pgx.Rows) error {
		var h HomeMedEvent
		if err := rows.Scan(&h.CaseID, &h.Time, &h.OrderName, &h.Generic, &h.OrderType,
			&h.DoseText, &h.Frequency); err != nil {
			return err
		}
		out = append(out, h)
		return nil
	})
	return out, err
}

func (r *readerPG) IntakeOutput(ctx context.Context, caseID string) ([]IntakeOutputEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT patient_visit_id, io_date, io_type, io_name, category, volume, unit
		FROM a_io WHERE patient_visit_id = $1`, caseID)
	if err != nil {
		return nil, wrapSource("intake/output", err)
	}

	var out []IntakeOutputEvent
	err = r.scanRows(rows, "intake/output", func(rows pgx.Rows) error {
		var e IntakeOutputEvent
		if err := rows.Scan(&e.CaseID, &e.Time, &e.Type, &e.Name, &e.Category,
			&e.Volume, &e.Unit); err != nil {
			return err
		}
		out = append(out, e)
		return nil
	})
	return out, err
}

func (r *readerPG) Procedures(ctx context.Context, caseID string) ([]ProcedureEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT patient_visit_id, event_date, procedure, post_dx, is_primary
		FROM a_surgical WHERE patient_visit_id = $1 AND is_primary`, caseID)
	if err != nil {
		return nil, wrapSource("procedures", err)
	}

	var out []ProcedureEvent
	err = r.scanRows(rows, "procedures", func(rows pgx.Rows) error {
		var p ProcedureEvent
		if err := rows.Scan(&p.CaseID, &p.Time, &p.Procedure, &p.PostDx, &p.Primary); err != nil {
			return err
		}
		out = append(out, p)
		return nil
	})
	return out, err
}

func (r *readerPG) MicroEvents(ctx context.Context, caseID string) ([]MicroEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT patient_visit_id, event_date, event_name, accession, source
		FROM a_micro WHERE patient_visit_id = $1 ORDER BY event_date DESC`, caseID)
	if err != nil {
		return nil, wrapSource("micro events", err)
	}

	var out []MicroEvent
	err = r.scanRows(rows, "micro events", func(rows pgx.Rows) error {
		var m MicroEvent
		if err := rows.Scan(&m.CaseID, &m.Time, &m.EventName, &m.Accession, &m.Source); err != nil {
			return err
		}
		out = append(out, m)
		return nil
	})
	return out, err
}

func (r *readerPG) MicroReports(ctx context.Context, caseID string) ([]MicroReport, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT patient_visit_id, accession, micro_report
		FROM a_micro_report WHERE patient_visit_id = $1`, caseID)
	if err != nil {
		return nil, wrapSource("micro reports", err)
	}

	var out []MicroReport
	err = r.scanRows(rows, "micro reports", func(rows pgx.Rows) error {
		var m MicroReport
		if err := rows.Scan(&m.CaseID, &m.Accession, &m.Text); err != nil {
			return err
		}
		out = append(out, m)
		return nil
	})
	return out, err
}

func (r *readerPG) Notes(ctx context.Context, caseID, noteType string) ([]NoteEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT patient_visit_id, note_date, note_type, date_text, note_text
		FROM a_notes WHERE patient_visit_id = $1 AND note_type = $2`, caseID, noteType)
	if err != nil {
		return nil, wrapSource("notes", err)
	}

	var out []NoteEvent
	err = r.scanRows(rows, "notes", func(rows pgx.Rows) error {
		var n NoteEvent
		if err := rows.Scan(&n.CaseID, &n.Time, &n.NoteType, &n.DateText, &n.Text); err != nil {
			return err
		}
		out = append(out, n)
		return nil
	})
	return out, err
}
