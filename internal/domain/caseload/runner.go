package caseload

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store persists assembled payloads. Writes for distinct cases may arrive
// concurrently from different workers.
type Store interface {
	WriteCase(caseID string, sections map[string]any) error
	WriteIndex(summaries []CaseSummary) error
}

// CaseSummary is one case index row.
type CaseSummary struct {
	CaseID   string `json:"case_id"`
	RunID    string `json:"run_id"`
	MinT     int64  `json:"min_t"`
	MaxT     int64  `json:"max_t"`
	LabCount int    `json:"lab_count"`
	MedCount int    `json:"med_count"`
	Age      int    `json:"age,omitempty"`
	Sex      string `json:"sex,omitempty"`
}

// CaseJob is one case/cutoff pair of a batch run.
type CaseJob struct {
	CaseID string
	Cutoff time.Time
}

// ParseCaseTimes reads the case-times list: one "case_id,cutoff_millis" per
// line, blank lines and #-comments skipped.
func ParseCaseTimes(r io.Reader) ([]CaseJob, error) {
	var jobs []CaseJob
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		caseID, cutStr, ok := strings.Cut(line, ",")
		if !ok {
			return nil, fmt.Errorf("case times line %d: expected case_id,cutoff_millis", lineNo)
		}
		millis, err := strconv.ParseInt(strings.TrimSpace(cutStr), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("case times line %d: bad cutoff: %w", lineNo, err)
		}
		jobs = append(jobs, CaseJob{
			CaseID: strings.TrimSpace(caseID),
			Cutoff: time.UnixMilli(millis).UTC(),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read case times: %w", err)
	}
	return jobs, nil
}

// Runner processes a batch of case jobs over a fixed worker pool. Cases are
// independent, so one failed case logs and is skipped; the run continues.
type Runner struct {
	asm     *Assembler
	store   Store
	workers int
	log     zerolog.Logger
}

const defaultWorkers = 4

func NewRunner(asm *Assembler, store Store, workers int, log zerolog.Logger) *Runner {
	if workers < 1 {
		workers = defaultWorkers
	}
	return &Runner{asm: asm, store: store, workers: workers, log: log}
}

// RunResult summarizes one batch run.
type RunResult struct {
	RunID     string
	Processed int
	Failed    int
}

// Run assembles and persists every job, then writes the case index covering
// the cases that succeeded. Context cancellation stops feeding new jobs;
// in-flight cases finish and are indexed.
func (r *Runner) Run(ctx context.Context, jobs []CaseJob) (*RunResult, error) {
	runID := uuid.NewString()
	log := r.log.With().Str("run_id", runID).Logger()
	log.Info().Int("cases", len(jobs)).Int("workers", r.workers).Msg("starting batch run")

	type outcome struct {
		summary CaseSummary
		caseID  string
		err     error
	}

	jobCh := make(chan CaseJob)
	outCh := make(chan outcome)

	var wg sync.WaitGroup
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				summary, err := r.processCase(ctx, runID, job)
				outCh <- outcome{summary: summary, caseID: job.CaseID, err: err}
			}
		}()
	}

	go func() {
		defer close(jobCh)
		for _, job := range jobs {
			select {
			case jobCh <- job:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(outCh)
	}()

	result := &RunResult{RunID: runID}
	var summaries []CaseSummary
	for out := range outCh {
		if out.err != nil {
			result.Failed++
			log.Error().Str("case_id", out.caseID).Err(out.err).Msg("case failed")
			continue
		}
		result.Processed++
		summaries = append(summaries, out.summary)
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].CaseID < summaries[j].CaseID })
	if err := r.store.WriteIndex(summaries); err != nil {
		return result, fmt.Errorf("write case index: %w", err)
	}
	log.Info().Int("processed", result.Processed).Int("failed", result.Failed).Msg("batch run complete")
	return result, ctx.Err()
}

func (r *Runner) processCase(ctx context.Context, runID string, job CaseJob) (CaseSummary, error) {
	payload, err := r.asm.Assemble(ctx, job.CaseID, job.Cutoff)
	if err != nil {
		return CaseSummary{}, err
	}
	if err := r.store.WriteCase(job.CaseID, payload.Sections()); err != nil {
		return CaseSummary{}, fmt.Errorf("persist case %s: %w", job.CaseID, err)
	}
	summary := CaseSummary{
		CaseID:   job.CaseID,
		RunID:    runID,
		MinT:     payload.Bounds.MinT,
		MaxT:     payload.Bounds.MaxT,
		LabCount: len(payload.Labs),
		MedCount: len(payload.Medications.Orders),
	}
	if payload.Demographics != nil {
		summary.Age = payload.Demographics.Age
		summary.Sex = payload.Demographics.Sex
	}
	return summary, nil
}
