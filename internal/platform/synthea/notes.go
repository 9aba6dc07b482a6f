package synthea

import (
	"time"

	"github.com/semr/etl/internal/domain/record"
)

// Note panel types produced from the note-like Synthea files.
const (
	NoteCondition    = "CONDITION"
	NoteCarePlan     = "CAREPLAN"
	NoteImaging      = "IMAGING"
	NoteAllergy      = "ALLERGY"
	NoteImmunization = "IMMUNIZATION"
	NoteDevice       = "DEVICE"
)

// loadEncounterNotes converts the encounter-linked note-like files
// (conditions, care plans, imaging studies, immunizations) into typed note
// events.
func (c *Converter) loadEncounterNotes(encounters map[string]encounter, fixtures map[string]*record.CaseFixtures) {
	files := []struct {
		name     string
		noteType string
		timeCol  string
		textOf   func(get rowGetter) string
	}{
		{"conditions.csv", NoteCondition, "START", describeWithReason("DESCRIPTION", "")},
		{"careplans.csv", NoteCarePlan, "START", describeWithReason("DESCRIPTION", "REASONDESCRIPTION")},
		{"imaging_studies.csv", NoteImaging, "DATE", imagingText},
		{"immunizations.csv", NoteImmunization, "DATE", describeWithReason("DESCRIPTION", "")},
	}
	for _, file := range files {
		file := file
		err := c.eachRow(file.name, func(get rowGetter) {
			encID := get("ENCOUNTER")
			if _, ok := encounters[encID]; !ok {
				return
			}
			t, ok := parseTime(get(file.timeCol))
			if !ok {
				c.skip(file.name)
				return
			}
			appendNote(fixtures[encID], encID, file.noteType, t, file.textOf(get))
		})
		if err != nil {
			c.log.Warn().Err(err).Str("file", file.name).Msg("note file unreadable, panel omitted")
		}
	}
}

// loadPatientNotes converts the patient-level files (allergies, devices)
// into note events on every kept encounter of the patient. Rows with no
// usable date anchor at the encounter admit.
func (c *Converter) loadPatientNotes(encounters map[string]encounter, byPatient map[string][]string, fixtures map[string]*record.CaseFixtures) {
	files := []struct {
		name     string
		noteType string
	}{
		{"allergies.csv", NoteAllergy},
		{"devices.csv", NoteDevice},
	}
	for _, file := range files {
		file := file
		err := c.eachRow(file.name, func(get rowGetter) {
			encIDs := byPatient[get("PATIENT")]
			if len(encIDs) == 0 {
				return
			}
			t, hasTime := parseTime(get("START"))
			for _, encID := range encIDs {
				noteTime := t
				if !hasTime {
					noteTime = encounters[encID].start
				}
				appendNote(fixtures[encID], encID, file.noteType, noteTime, get("DESCRIPTION"))
			}
		})
		if err != nil {
			c.log.Warn().Err(err).Str("file", file.name).Msg("note file unreadable, panel omitted")
		}
	}
}

func appendNote(fx *record.CaseFixtures, caseID, noteType string, t time.Time, text string) {
	if text == "" {
		return
	}
	fx.Notes = append(fx.Notes, record.NoteEvent{
		CaseID:   caseID,
		Time:     t,
		NoteType: noteType,
		DateText: t.Format("01/02/2006"),
		Text:     text,
	})
}

func describeWithReason(descCol, reasonCol string) func(get rowGetter) string {
	return func(get rowGetter) string {
		text := get(descCol)
		if reasonCol != "" {
			if reason := get(reasonCol); reason != "" {
				text += "\nReason: " + reason
			}
		}
		return text
	}
}

func imagingText(get rowGetter) string {
	text := get("MODALITY_DESCRIPTION")
	if site := get("BODYSITE_DESCRIPTION"); site != "" {
		if text != "" {
			text += " - "
		}
		text += site
	}
	return text
}
