// Package synthea converts a Synthea CSV export into the per-case fixture
// layout the fixture reader replays. Each kept encounter becomes one case;
// its id is the case id.
package synthea

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/semr/etl/internal/domain/record"
)

// DefaultEncounterCode is "Admission to intensive care unit (procedure)",
// the SNOMED code selecting ICU stays.
const DefaultEncounterCode = "305351004"

// Converter reads a Synthea export directory and writes case fixtures.
type Converter struct {
	dir           string
	keepCodes     map[string]bool
	maxEncounters int
	log           zerolog.Logger
	skipped       map[string]int
}

// NewConverter builds a converter over the export at dir. An empty codes
// list keeps only DefaultEncounterCode; maxEncounters <= 0 keeps all.
func NewConverter(dir string, codes []string, maxEncounters int, log zerolog.Logger) *Converter {
	if len(codes) == 0 {
		codes = []string{DefaultEncounterCode}
	}
	keep := make(map[string]bool, len(codes))
	for _, code := range codes {
		keep[code] = true
	}
	return &Converter{
		dir:           dir,
		keepCodes:     keep,
		maxEncounters: maxEncounters,
		log:           log,
		skipped:       map[string]int{},
	}
}

func (c *Converter) skip(file string) {
	c.skipped[file]++
}

// Result summarizes one conversion.
type Result struct {
	Cases   int
	Skipped map[string]int
}

type encounter struct {
	id        string
	patientID string
	start     time.Time
	end       time.Time
}

// Convert reads the export and writes one fixture directory per kept
// encounter under outDir. Rows that cannot be parsed are counted and
// reported, never fatal; only an unreadable encounters file aborts.
func (c *Converter) Convert(outDir string) (*Result, error) {
	encounters, byPatient, err := c.loadEncounters()
	if err != nil {
		return nil, err
	}

	fixtures := make(map[string]*record.CaseFixtures, len(encounters))
	for id := range encounters {
		fixtures[id] = &record.CaseFixtures{}
	}
	for id, enc := range encounters {
		fixtures[id].Admissions = []record.Admission{{
			CaseID:    id,
			Admit:     enc.start,
			Discharge: enc.end,
		}}
	}

	c.loadPatients(encounters, byPatient, fixtures)
	c.loadObservations(encounters, fixtures)
	c.loadMedications(encounters, fixtures)
	c.loadProcedures(encounters, fixtures)
	c.loadEncounterNotes(encounters, fixtures)
	c.loadPatientNotes(encounters, byPatient, fixtures)

	ids := make([]string, 0, len(fixtures))
	for id := range fixtures {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := record.WriteCaseFixtures(outDir, id, fixtures[id]); err != nil {
			return nil, fmt.Errorf("write fixtures for encounter %s: %w", id, err)
		}
	}

	for file, n := range c.skipped {
		c.log.Warn().Str("file", file).Int("rows", n).Msg("skipped malformed rows")
	}
	return &Result{Cases: len(ids), Skipped: c.skipped}, nil
}

func (c *Converter) loadEncounters() (map[string]encounter, map[string][]string, error) {
	encounters := map[string]encounter{}
	byPatient := map[string][]string{}
	err := c.eachRow("encounters.csv", func(get rowGetter) {
		if c.maxEncounters > 0 && len(encounters) >= c.maxEncounters {
			return
		}
		if !c.keepCodes[get("CODE")] {
			return
		}
		start, okStart := parseTime(get("START"))
		end, okEnd := parseTime(get("STOP"))
		id := get("Id")
		if id == "" || !okStart || !okEnd {
			c.skip("encounters.csv")
			return
		}
		patientID := get("PATIENT")
		encounters[id] = encounter{id: id, patientID: patientID, start: start, end: end}
		byPatient[patientID] = append(byPatient[patientID], id)
	})
	if err != nil {
		return nil, nil, err
	}
	return encounters, byPatient, nil
}

func (c *Converter) loadPatients(encounters map[string]encounter, byPatient map[string][]string, fixtures map[string]*record.CaseFixtures) {
	err := c.eachRow("patients.csv", func(get rowGetter) {
		encIDs := byPatient[get("Id")]
		if len(encIDs) == 0 {
			return
		}
		birth, okBirth := parseTime(get("BIRTHDATE"))
		sex := get("GENDER")
		race := get("RACE")
		name := get("FIRST") + " " + get("LAST")
		for _, encID := range encIDs {
			demo := &record.Demographics{
				CaseID: encID,
				Sex:    sex,
				Race:   race,
				Name:   name,
			}
			if okBirth {
				demo.Age = ageAt(birth, encounters[encID].start)
			}
			fixtures[encID].Demographics = demo
		}
	})
	if err != nil {
		c.log.Warn().Err(err).Msg("patients file unreadable, demographics omitted")
	}
}

func ageAt(birth, at time.Time) int {
	age := at.Year() - birth.Year()
	if at.YearDay() < birth.YearDay() {
		age--
	}
	return age
}

// loadObservations maps every observation row onto a lab result for its
// encounter. Numeric values parse into Value; everything else keeps the raw
// text, which the normalizer later coerces or charts as discrete.
func (c *Converter) loadObservations(encounters map[string]encounter, fixtures map[string]*record.CaseFixtures) {
	err := c.eachRow("observations.csv", func(get rowGetter) {
		encID := get("ENCOUNTER")
		if _, ok := encounters[encID]; !ok {
			return
		}
		t, ok := parseTime(get("DATE"))
		if !ok {
			c.skip("observations.csv")
			return
		}
		lab := record.LabResult{
			CaseID: encID,
			Code:   get("CODE"),
			Time:   t,
			Unit:   get("UNITS"),
		}
		raw := get("VALUE")
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			lab.Value = &v
		} else {
			lab.Text = raw
		}
		fx := fixtures[encID]
		fx.Labs = append(fx.Labs, lab)
	})
	if err != nil {
		c.log.Warn().Err(err).Msg("observations file unreadable, labs omitted")
	}
}

func (c *Converter) loadMedications(encounters map[string]encounter, fixtures map[string]*record.CaseFixtures) {
	err := c.eachRow("medications.csv", func(get rowGetter) {
		encID := get("ENCOUNTER")
		if _, ok := encounters[encID]; !ok {
			return
		}
		start, ok := parseTime(get("START"))
		if !ok {
			c.skip("medications.csv")
			return
		}
		dose, _ := strconv.ParseFloat(get("DISPENSES"), 64)
		fx := fixtures[encID]
		fx.Medications = append(fx.Medications, record.MedicationEvent{
			CaseID:    encID,
			Time:      start,
			OrderedAs: get("DESCRIPTION"),
			Catalog:   get("CODE"),
			Dose:      dose,
		})
	})
	if err != nil {
		c.log.Warn().Err(err).Msg("medications file unreadable, medications omitted")
	}
}

func (c *Converter) loadProcedures(encounters map[string]encounter, fixtures map[string]*record.CaseFixtures) {
	err := c.eachRow("procedures.csv", func(get rowGetter) {
		encID := get("ENCOUNTER")
		if _, ok := encounters[encID]; !ok {
			return
		}
		t, ok := parseTime(get("DATE"))
		if !ok {
			c.skip("procedures.csv")
			return
		}
		fx := fixtures[encID]
		fx.Procedures = append(fx.Procedures, record.ProcedureEvent{
			CaseID:    encID,
			Time:      t,
			Procedure: get("DESCRIPTION"),
			PostDx:    get("REASONDESCRIPTION"),
			Primary:   true,
		})
	})
	if err != nil {
		c.log.Warn().Err(err).Msg("procedures file unreadable, procedures omitted")
	}
}
