package synthea

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// rowGetter reads one field of the current row by header name; unknown or
// absent columns read as empty.
type rowGetter func(col string) string

// eachRow streams a Synthea CSV, dispatching every data row through fn.
// Rows the csv parser rejects count as skipped rather than aborting the
// file; a missing file is an error the caller decides about.
func (c *Converter) eachRow(name string, fn func(get rowGetter)) error {
	f, err := os.Open(filepath.Join(c.dir, name))
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("read %s header: %w", name, err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}

	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			c.skip(name)
			continue
		}
		fn(func(col string) string {
			i, ok := idx[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return rec[i]
		})
	}
	return nil
}

// parseTime accepts the two timestamp shapes Synthea emits.
func parseTime(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
