package record

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// fakeRows replays a fixed sequence of Scan outcomes.
type fakeRows struct {
	scans []func(dest ...any) error
	idx   int
}

func (f *fakeRows) Next() bool {
	f.idx++
	return f.idx <= len(f.scans)
}

func (f *fakeRows) Scan(dest ...any) error { return f.scans[f.idx-1](dest...) }

func (f *fakeRows) Close()                                       {}
func (f *fakeRows) Err() error                                   { return nil }
func (f *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (f *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (f *fakeRows) Values() ([]any, error)                       { return nil, nil }
func (f *fakeRows) RawValues() [][]byte                          { return nil }
func (f *fakeRows) Conn() *pgx.Conn                              { return nil }

func admissionRow(id string, admit time.Time) func(dest ...any) error {
	return func(dest ...any) error {
		*(dest[0].(*string)) = id
		*(dest[1].(*time.Time)) = admit
		*(dest[2].(*time.Time)) = admit.Add(48 * time.Hour)
		*(dest[3].(*string)) = "MICU"
		return nil
	}
}

func TestScanRows_SkipsMalformedRows(t *testing.T) {
	var buf bytes.Buffer
	r := &readerPG{log: zerolog.New(&buf)}

	rows := &fakeRows{scans: []func(dest ...any) error{
		admissionRow("case-1", time.UnixMilli(0)),
		func(dest ...any) error { return errors.New(`cannot scan NULL into *string`) },
		admissionRow("case-1", time.UnixMilli(1000)),
	}}

	var out []Admission
	err := r.scanRows(rows, "admissions", func(rows pgx.Rows) error {
		var a Admission
		if err := rows.Scan(&a.CaseID, &a.Admit, &a.Discharge, &a.Unit); err != nil {
			return err
		}
		out = append(out, a)
		return nil
	})
	if err != nil {
		t.Fatalf("scanRows: %v", err)
	}

	if len(out) != 2 {
		t.Fatalf("expected 2 rows kept, got %d", len(out))
	}
	if out[0].Unit != "MICU" || out[1].CaseID != "case-1" {
		t.Errorf("unexpected rows kept: %+v", out)
	}
	log := buf.String()
	if !strings.Contains(log, "malformed rows skipped") ||
		!strings.Contains(log, `"skipped":1`) ||
		!strings.Contains(log, `"entity":"admissions"`) {
		t.Errorf("expected a per-entity skip warning, got %q", log)
	}
}

func TestScanRows_NoWarningWhenClean(t *testing.T) {
	var buf bytes.Buffer
	r := &readerPG{log: zerolog.New(&buf)}

	rows := &fakeRows{scans: []func(dest ...any) error{
		admissionRow("case-2", time.UnixMilli(0)),
	}}

	var out []Admission
	err := r.scanRows(rows, "admissions", func(rows pgx.Rows) error {
		var a Admission
		if err := rows.Scan(&a.CaseID, &a.Admit, &a.Discharge, &a.Unit); err != nil {
			return err
		}
		out = append(out, a)
		return nil
	})
	if err != nil || len(out) != 1 {
		t.Fatalf("scanRows: err=%v kept=%d", err, len(out))
	}
	if buf.Len() != 0 {
		t.Errorf("expected no log output for a clean read, got %q", buf.String())
	}
}
