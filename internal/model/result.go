package model

import (
	"encoding/json"
	"time"
)

// CrawlResult is returned by the crawl stage.
type CrawlResult struct {
	Message  string `json:"message"`
	FilePath string `json:"file_path"`
	Pages    int    `json:"pages,omitempty"`
}

// ProfileResult is returned by the profile stage.
type ProfileResult struct {
	Message    string `json:"message"`
	OutputFile string `json:"output_file"`
}

// EventsResult is returned by the event discovery stage. ParsedData is nil
// when a debug replay finds no usable cached artifact.
type EventsResult struct {
	Message    string            `json:"message"`
	OutputFile string            `json:"output_file"`
	ParsedData []json.RawMessage `json:"parsed_data"`
}

// CompaniesResult is returned by the company extraction stage.
type CompaniesResult struct {
	Message    string             `json:"message"`
	OutputFile string             `json:"output_file"`
	URLs       []string           `json:"urls,omitempty"`
	Data       *CompanyCandidates `json:"data"`
}

// PrioritizeResult is returned by the prioritization stage.
type PrioritizeResult struct {
	Message    string            `json:"message"`
	OutputFile string            `json:"output_file"`
	ParsedData []json.RawMessage `json:"parsed_data"`
	RawResult  string            `json:"raw_result"`
}

// OutreachResult is returned by the outreach stage.
type OutreachResult struct {
	Message    string `json:"message"`
	Email      string `json:"email"`
	OutputFile string `json:"output_file,omitempty"`
}

// LoadResult is returned by the persistence adapter.
type LoadResult struct {
	Message  string `json:"message"`
	Inserted int    `json:"inserted"`
	Skipped  int    `json:"skipped"`
}

// StageStatus is the outcome of one stage inside a full run.
type StageStatus string

const (
	StageStatusComplete StageStatus = "complete"
	StageStatusFailed   StageStatus = "failed"
	StageStatusSkipped  StageStatus = "skipped"
)

// StageReport records one stage of a full run.
type StageReport struct {
	Name       string      `json:"name"`
	Status     StageStatus `json:"status"`
	OutputFile string      `json:"output_file,omitempty"`
	Message    string      `json:"message,omitempty"`
	Error      string      `json:"error,omitempty"`
	Duration   int64       `json:"duration_ms"`
}

// RunReport summarises a sequential crawl-to-prioritization run.
type RunReport struct {
	RunID     string        `json:"run_id"`
	TargetURL string        `json:"target_url"`
	Stages    []StageReport `json:"stages"`
	StartedAt time.Time     `json:"started_at"`
	Duration  int64         `json:"duration_ms"`
}

// Failed reports whether any stage failed.
func (r *RunReport) Failed() bool {
	for _, s := range r.Stages {
		if s.Status == StageStatusFailed {
			return true
		}
	}
	return false
}
