// Package casestore persists assembled case payloads as JSON section files
// under a case-identified directory, plus the run-level case index. Writes
// are atomic at case granularity: a reader never observes a case directory
// with a mix of old and new sections.
package casestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/semr/etl/internal/domain/caseload"
)

// ErrNotFound marks a missing case directory or section file.
var ErrNotFound = errors.New("case not found")

// IndexFile is the case index written at the store root.
const IndexFile = "list_case_dicts.json"

// Store writes and reads case payloads under a root directory. Distinct
// cases may be written concurrently; the index is written once per run.
type Store struct {
	root string
	log  zerolog.Logger
}

// New opens (creating if needed) a store rooted at dir.
func New(dir string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create case store root: %w", err)
	}
	return &Store{root: dir, log: log}, nil
}

// WriteCase persists one case's section files. Sections stage into a
// temporary directory that swaps into place, replacing any previous version
// of the case wholesale.
func (s *Store) WriteCase(caseID string, sections map[string]any) error {
	tmp, err := os.MkdirTemp(s.root, ".staging-"+caseID+"-")
	if err != nil {
		return fmt.Errorf("stage case %s: %w", caseID, err)
	}
	defer os.RemoveAll(tmp)

	for name, payload := range sections {
		if err := writeJSON(filepath.Join(tmp, name), payload); err != nil {
			return fmt.Errorf("stage case %s section %s: %w", caseID, name, err)
		}
	}

	target := filepath.Join(s.root, caseID)
	backup := target + ".prev"
	if err := os.RemoveAll(backup); err != nil {
		return fmt.Errorf("clear stale backup for case %s: %w", caseID, err)
	}
	if _, err := os.Stat(target); err == nil {
		if err := os.Rename(target, backup); err != nil {
			return fmt.Errorf("retire previous case %s: %w", caseID, err)
		}
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("publish case %s: %w", caseID, err)
	}
	if err := os.RemoveAll(backup); err != nil {
		s.log.Warn().Str("case_id", caseID).Err(err).Msg("could not remove retired case directory")
	}
	s.log.Debug().Str("case_id", caseID).Int("sections", len(sections)).Msg("case written")
	return nil
}

// WriteIndex replaces the run-level case index atomically.
func (s *Store) WriteIndex(summaries []caseload.CaseSummary) error {
	if summaries == nil {
		summaries = []caseload.CaseSummary{}
	}
	tmp, err := os.CreateTemp(s.root, ".index-")
	if err != nil {
		return fmt.Errorf("stage case index: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summaries); err != nil {
		tmp.Close()
		return fmt.Errorf("encode case index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("stage case index: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.root, IndexFile)); err != nil {
		return fmt.Errorf("publish case index: %w", err)
	}
	return nil
}

// ReadSection decodes one section file of a stored case into out.
func (s *Store) ReadSection(caseID, name string, out any) error {
	data, err := os.ReadFile(filepath.Join(s.root, caseID, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("case %s section %s: %w", caseID, name, ErrNotFound)
		}
		return fmt.Errorf("read case %s section %s: %w", caseID, name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode case %s section %s: %w", caseID, name, err)
	}
	return nil
}

// ReadIndex loads the run-level case index.
func (s *Store) ReadIndex() ([]caseload.CaseSummary, error) {
	data, err := os.ReadFile(filepath.Join(s.root, IndexFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("case index: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("read case index: %w", err)
	}
	var summaries []caseload.CaseSummary
	if err := json.Unmarshal(data, &summaries); err != nil {
		return nil, fmt.Errorf("decode case index: %w", err)
	}
	return summaries, nil
}

func writeJSON(path string, payload any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
