// Package notes builds the free-text display panels: primary procedures,
// microbiology reports joined to their culture events, and per-type clinical
// note reports. Every panel is an ordered list of entries the viewer renders
// verbatim, newest first.
package notes

// Entry is one rendered free-text panel row. Text is pre-formatted HTML;
// JSTime is the epoch-millisecond anchor used to place the row on the
// timeline; Upk is the row's stable position within its panel.
type Entry struct {
	Date   string `json:"date"`
	Text   string `json:"text"`
	JSTime int64  `json:"js_time"`
	Type   string `json:"type,omitempty"`
	Upk    int    `json:"upk"`
}

const (
	stampFormat = "01/02/2006 15:04:05"
	dayFormat   = "01/02/2006"
)
