package site

import (
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/version"
)

// ReportFileName is written next to the output directory when reports are enabled.
const ReportFileName = "build-report.json"

// Outcome is the final state of a build.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// StageRecord is the timing and result of one stage.
type StageRecord struct {
	Name     StageName
	Duration time.Duration
	Result   metrics.ResultLabel
}

// BuildReport summarizes one build.
type BuildReport struct {
	BuildID     string
	Version     string
	Start       time.Time
	End         time.Time
	Outcome     Outcome
	Pages       int
	Hooks       []string
	Stages      []StageRecord
	FailedStage StageName
	Errors      []string
}

func newBuildReport(id string, start time.Time) *BuildReport {
	return &BuildReport{BuildID: id, Version: version.Version, Start: start}
}

func (r *BuildReport) recordStage(name StageName, d time.Duration, res metrics.ResultLabel) {
	r.Stages = append(r.Stages, StageRecord{Name: name, Duration: d, Result: res})
}

func (r *BuildReport) finish(end time.Time, err error) {
	r.End = end
	if err == nil {
		r.Outcome = OutcomeSuccess
		return
	}
	r.Outcome = OutcomeFailed
	var se *StageError
	if stdErrors.As(err, &se) {
		r.FailedStage = se.Stage
		if se.Kind == StageErrorCanceled {
			r.Outcome = OutcomeCanceled
		}
	}
	r.Errors = append(r.Errors, err.Error())
}

// Duration is the wall time of the build.
func (r *BuildReport) Duration() time.Duration { return r.End.Sub(r.Start) }

// StageDuration returns the recorded duration of a stage.
func (r *BuildReport) StageDuration(name StageName) (time.Duration, bool) {
	for _, s := range r.Stages {
		if s.Name == name {
			return s.Duration, true
		}
	}
	return 0, false
}

// Summary returns a one-line human readable description.
func (r *BuildReport) Summary() string {
	return fmt.Sprintf("build %s: outcome=%s pages=%d duration=%s",
		r.BuildID, r.Outcome, r.Pages, r.Duration().Round(time.Millisecond))
}

type reportJSON struct {
	SchemaVersion    int                `json:"schema_version"`
	BuildID          string             `json:"build_id"`
	Version          string             `json:"version"`
	Start            time.Time          `json:"start"`
	End              time.Time          `json:"end"`
	Outcome          Outcome            `json:"outcome"`
	Pages            int                `json:"pages"`
	Hooks            []string           `json:"hooks"`
	StageDurationsMS map[string]float64 `json:"stage_durations_ms"`
	StageResults     map[string]string  `json:"stage_results"`
	FailedStage      string             `json:"failed_stage,omitempty"`
	Errors           []string           `json:"errors"`
}

// MarshalJSON renders durations in milliseconds.
func (r *BuildReport) MarshalJSON() ([]byte, error) {
	out := reportJSON{
		SchemaVersion:    1,
		BuildID:          r.BuildID,
		Version:          r.Version,
		Start:            r.Start.UTC(),
		End:              r.End.UTC(),
		Outcome:          r.Outcome,
		Pages:            r.Pages,
		Hooks:            append([]string{}, r.Hooks...),
		StageDurationsMS: make(map[string]float64, len(r.Stages)),
		StageResults:     make(map[string]string, len(r.Stages)),
		FailedStage:      string(r.FailedStage),
		Errors:           append([]string{}, r.Errors...),
	}
	sort.Strings(out.Hooks)
	for _, s := range r.Stages {
		out.StageDurationsMS[string(s.Name)] = float64(s.Duration.Microseconds()) / 1000
		out.StageResults[string(s.Name)] = string(s.Result)
	}
	return json.Marshal(out)
}

// Persist writes the report atomically to dir/build-report.json.
func (r *BuildReport) Persist(dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	jb, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	path := filepath.Join(dir, ReportFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(jb, '\n'), 0o600); err != nil {
		return fmt.Errorf("write temp report json: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("atomic rename json: %w", err)
	}
	return nil
}
