// Package caseload assembles the full per-case payload: demographics, case
// bounds, per-root chart series in display-group order, the flowsheet
// panels, merged medication orders and the free-text panels, all filtered to
// one time cutoff. A Runner fans independent cases out over a fixed worker
// pool and writes the results through a Store.
package caseload

import (
	"errors"
	"time"

	"github.com/semr/etl/internal/domain/chart"
	"github.com/semr/etl/internal/domain/record"
)

// ErrCaseBoundsUnresolvable means the case has no admission rows at all, so
// no display window exists. Fatal for the case: nothing downstream can be
// anchored without bounds.
var ErrCaseBoundsUnresolvable = errors.New("case bounds unresolvable")

// CaseBounds is the case's global display window in epoch milliseconds.
type CaseBounds struct {
	MinT int64 `json:"min_t"`
	MaxT int64 `json:"max_t"`
}

// ResolveBounds derives the display window from the case's admissions. The
// window opens at the earliest admit (or the cutoff, if every admit is
// later) and closes at the latest discharge clipped to the cutoff. The
// returned time is the effective cutoff every downstream filter uses: data
// charted past discharge is as wrong as data past the requested cutoff.
func ResolveBounds(admissions []record.Admission, cutoff time.Time) (CaseBounds, time.Time, error) {
	if len(admissions) == 0 {
		return CaseBounds{}, time.Time{}, ErrCaseBoundsUnresolvable
	}
	minT := cutoff
	maxT := admissions[0].Discharge
	for _, adm := range admissions {
		if adm.Admit.Before(minT) {
			minT = adm.Admit
		}
		if adm.Discharge.After(maxT) {
			maxT = adm.Discharge
		}
	}
	if maxT.After(cutoff) {
		maxT = cutoff
	}
	bounds := CaseBounds{MinT: chart.Millis(minT), MaxT: chart.Millis(maxT)}
	return bounds, maxT, nil
}
