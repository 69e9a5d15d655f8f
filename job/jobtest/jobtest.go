// Package jobtest provides a shared conformance suite for job.Store
// implementations and a recording job.Assignment for pipeline tests.
package jobtest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/transcribe-worker/errors"
	"github.com/kbukum/transcribe-worker/job"
)

// RunStoreTests exercises the behavior every job.Store must share.
func RunStoreTests(t *testing.T, newStore func(t *testing.T) job.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		s := newStore(t)
		in := job.Input{InputFile: job.Locator{URL: "https://media.example.com/a.flac"}}
		r, err := s.Create(ctx, in)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if r.ID == "" || r.Status != job.StatusQueued || r.CreatedAt.IsZero() {
			t.Fatalf("unexpected record %+v", r)
		}
		got, err := s.Get(ctx, r.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Input != in || got.Status != job.StatusQueued {
			t.Errorf("round trip mismatch: %+v", got)
		}
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := newStore(t).Get(ctx, "does-not-exist")
		if !errors.IsCode(err, errors.ErrCodeNotFound) {
			t.Fatalf("expected NOT_FOUND, got %v", err)
		}
	})

	t.Run("update missing", func(t *testing.T) {
		err := newStore(t).Update(ctx, &job.Record{ID: "does-not-exist", Status: job.StatusRunning})
		if !errors.IsCode(err, errors.ErrCodeNotFound) {
			t.Fatalf("expected NOT_FOUND, got %v", err)
		}
	})

	t.Run("lifecycle through assignment", func(t *testing.T) {
		s := newStore(t)
		r, _ := s.Create(ctx, job.Input{InputFile: job.Locator{URL: "https://x/a.wav"}})
		a := job.NewAssignment(s, r.ID)

		in, err := a.Input(ctx)
		if err != nil || in.InputFile.URL != "https://x/a.wav" {
			t.Fatalf("Input: %+v, %v", in, err)
		}
		if err := a.Start(ctx); err != nil {
			t.Fatalf("Start: %v", err)
		}
		out := job.Output{
			TranscriptFile: job.Locator{URL: "https://out/a.json"},
			CaptionFile:    job.Locator{URL: "https://out/a.vtt"},
			TextFile:       job.Locator{URL: "https://out/a.txt"},
		}
		if err := a.SetOutput(ctx, out); err != nil {
			t.Fatalf("SetOutput: %v", err)
		}
		if err := a.Complete(ctx); err != nil {
			t.Fatalf("Complete: %v", err)
		}

		got, err := s.Get(ctx, r.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status != job.StatusCompleted || got.Output == nil || *got.Output != out {
			t.Errorf("unexpected completed record %+v", got)
		}
		if got.StartedAt == nil || got.FinishedAt == nil || got.FinishedAt.Before(*got.StartedAt) {
			t.Errorf("timestamps not recorded: %+v", got)
		}

		err = a.Fail(ctx, job.Problem{Type: "x", Title: "late"})
		if !errors.IsCode(err, errors.ErrCodeAlreadyExists) {
			t.Errorf("expected finished job to reject Fail, got %v", err)
		}
	})

	t.Run("fail records problem", func(t *testing.T) {
		s := newStore(t)
		r, _ := s.Create(ctx, job.Input{})
		p := job.Problem{Type: errors.ProblemLocatorMissingURL, Title: "missing url", Detail: "d"}
		if err := job.NewAssignment(s, r.ID).Fail(ctx, p); err != nil {
			t.Fatalf("Fail: %v", err)
		}
		got, _ := s.Get(ctx, r.ID)
		if got.Status != job.StatusFailed || got.Problem == nil || *got.Problem != p || got.Output != nil {
			t.Errorf("unexpected failed record %+v", got)
		}
	})

	t.Run("list newest first", func(t *testing.T) {
		s := newStore(t)
		var ids []string
		for i := 0; i < 3; i++ {
			r, err := s.Create(ctx, job.Input{})
			if err != nil {
				t.Fatal(err)
			}
			ids = append(ids, r.ID)
			time.Sleep(2 * time.Millisecond)
		}
		list, err := s.List(ctx, 2)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(list) != 2 || list[0].ID != ids[2] || list[1].ID != ids[1] {
			t.Errorf("unexpected order: %v", recordIDs(list))
		}
	})

	t.Run("returned records are copies", func(t *testing.T) {
		s := newStore(t)
		r, _ := s.Create(ctx, job.Input{})
		got, _ := s.Get(ctx, r.ID)
		got.Status = job.StatusFailed
		again, _ := s.Get(ctx, r.ID)
		if again.Status != job.StatusQueued {
			t.Error("mutating a returned record changed the store")
		}
	})
}

func recordIDs(rs []*job.Record) []string {
	ids := make([]string, len(rs))
	for i, r := range rs {
		ids[i] = r.ID
	}
	return ids
}

// Assignment records lifecycle calls in memory.
type Assignment struct {
	mu sync.Mutex

	In        job.Input
	InputErr  error
	OutputErr error

	Started   bool
	Output    *job.Output
	Completed bool
	Problems  []job.Problem
	Calls     []string
}

// NewAssignment returns an Assignment whose input points at url.
func NewAssignment(url string) *Assignment {
	return &Assignment{In: job.Input{InputFile: job.Locator{URL: url}}}
}

func (a *Assignment) record(call string) {
	a.Calls = append(a.Calls, call)
}

// Input implements job.Assignment.
func (a *Assignment) Input(_ context.Context) (job.Input, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.record("input")
	return a.In, a.InputErr
}

// Start implements job.Starter.
func (a *Assignment) Start(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.record("start")
	a.Started = true
	return nil
}

// SetOutput implements job.Assignment.
func (a *Assignment) SetOutput(_ context.Context, out job.Output) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.record("output")
	if a.OutputErr != nil {
		return a.OutputErr
	}
	a.Output = &out
	return nil
}

// Complete implements job.Assignment.
func (a *Assignment) Complete(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.record("complete")
	a.Completed = true
	return nil
}

// Fail implements job.Assignment.
func (a *Assignment) Fail(_ context.Context, p job.Problem) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.record("fail")
	a.Problems = append(a.Problems, p)
	return nil
}

// Snapshot returns the recorded calls.
func (a *Assignment) Snapshot() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.Calls...)
}

var (
	_ job.Assignment = (*Assignment)(nil)
	_ job.Starter    = (*Assignment)(nil)
)
