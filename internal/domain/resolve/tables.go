// Package resolve holds the per-run resolution tables: source code to root
// code, root to display group, root to default ranges/units, and the
// sex-specific vitals normal ranges. Tables load once per run and are
// read-only afterwards, so concurrent case workers share them safely.
package resolve

import (
	"github.com/semr/etl/internal/domain/chart"
)

// SourceTable names the raw entity table that feeds a root code.
type SourceTable string

const (
	SourceLab        SourceTable = "lab"
	SourceVital      SourceTable = "vital"
	SourceVentilator SourceTable = "ventilator"
)

// DisplayGroup is a named, rank-ordered bucket of root codes.
type DisplayGroup struct {
	Name  string   `json:"name"`
	Rank  int      `json:"rank"`
	Roots []string `json:"roots"`
}

// RootDetail is the static per-root metadata.
type RootDetail struct {
	Name  string      `json:"display_name"`
	Table SourceTable `json:"source_table"`
	Unit  string      `json:"unit,omitempty"`
}

// Tables is the loaded, immutable resolution set.
type Tables struct {
	codeToRoot map[string]string
	rootCodes  map[string][]string
	groups     []DisplayGroup
	rootGroup  map[string]string
	roots      map[string]RootDetail
	ranges     map[string]chart.RangeSpec
	sexNormal  map[string]map[string]chart.NormalRange
}

// Root resolves a source-system code to its canonical root code.
func (t *Tables) Root(code string) (string, bool) {
	r, ok := t.codeToRoot[code]
	return r, ok
}

// Codes returns the source codes fanning into a root.
func (t *Tables) Codes(root string) []string {
	return t.rootCodes[root]
}

// Groups returns the display groups in ordinal rank order.
func (t *Tables) Groups() []DisplayGroup {
	return t.groups
}

// Group returns the display group a root belongs to.
func (t *Tables) Group(root string) (string, bool) {
	g, ok := t.rootGroup[root]
	return g, ok
}

// Name returns the display name for a root, falling back to the root code
// itself when no name is configured.
func (t *Tables) Name(root string) string {
	if d, ok := t.roots[root]; ok && d.Name != "" {
		return d.Name
	}
	return root
}

// Table returns the source table feeding a root; defaults to the lab table.
func (t *Tables) Table(root string) SourceTable {
	if d, ok := t.roots[root]; ok && d.Table != "" {
		return d.Table
	}
	return SourceLab
}

// Unit returns the configured default unit for a root.
func (t *Tables) Unit(root string) string {
	return t.roots[root].Unit
}

// Range returns the default display/normal range spec for a root, or nil
// when none is configured.
func (t *Tables) Range(root string) *chart.RangeSpec {
	if r, ok := t.ranges[root]; ok {
		return &r
	}
	return nil
}

// SexNormal returns the sex-specific normal range for a vitals rollup name.
// An unknown or empty sex resolves as male, matching the upstream data
// convention for missing demographics.
func (t *Tables) SexNormal(sex, rollup string) chart.NormalRange {
	ranges, ok := t.sexNormal[sex]
	if !ok {
		ranges = t.sexNormal["M"]
	}
	return ranges[rollup]
}
