// Package job models a transcription job as seen by the pipeline: its input
// locator, the output locators it produces, the RFC 7807 problem it may fail
// with, and the lifecycle calls that report progress.
package job

import (
	"context"
	"time"
)

// Locator points at a file by URL.
type Locator struct {
	URL string `json:"url"`
}

// Input is the job's input document.
type Input struct {
	InputFile Locator `json:"input_file"`
}

// Output lists the artifacts a successful job produced.
type Output struct {
	TranscriptFile Locator `json:"transcript_file"`
	CaptionFile    Locator `json:"caption_file"`
	TextFile       Locator `json:"text_file,omitempty"`
}

// Problem describes why a job failed, in RFC 7807 shape.
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
}

// Assignment is the pipeline's handle on one job. Input is read once; the
// job then ends with exactly one of Complete (after SetOutput) or Fail.
type Assignment interface {
	Input(ctx context.Context) (Input, error)
	SetOutput(ctx context.Context, out Output) error
	Complete(ctx context.Context) error
	Fail(ctx context.Context, p Problem) error
}

// Starter is implemented by assignments that record when work begins.
type Starter interface {
	Start(ctx context.Context) error
}

// Status is the lifecycle state of a stored job.
type Status string

const (
	StatusQueued    Status = "QUEUED"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Record is a stored job.
type Record struct {
	ID         string     `json:"id"`
	Status     Status     `json:"status"`
	Input      Input      `json:"input"`
	Output     *Output    `json:"output,omitempty"`
	Problem    *Problem   `json:"problem,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	if r.Output != nil {
		o := *r.Output
		c.Output = &o
	}
	if r.Problem != nil {
		p := *r.Problem
		c.Problem = &p
	}
	if r.StartedAt != nil {
		t := *r.StartedAt
		c.StartedAt = &t
	}
	if r.FinishedAt != nil {
		t := *r.FinishedAt
		c.FinishedAt = &t
	}
	return &c
}
