package job

import (
	"context"
	"sync"
	"time"
)

// StoredAssignment drives one stored record through its lifecycle.
type StoredAssignment struct {
	store Store
	id    string
	now   func() time.Time

	// mu serializes read-modify-write cycles on the record.
	mu sync.Mutex
}

// NewAssignment binds the record id in store to the Assignment interface.
func NewAssignment(store Store, id string) *StoredAssignment {
	return &StoredAssignment{store: store, id: id, now: time.Now}
}

// ID returns the job id.
func (a *StoredAssignment) ID() string { return a.id }

// Input implements Assignment.
func (a *StoredAssignment) Input(ctx context.Context) (Input, error) {
	r, err := a.store.Get(ctx, a.id)
	if err != nil {
		return Input{}, err
	}
	return r.Input, nil
}

// Start implements Starter.
func (a *StoredAssignment) Start(ctx context.Context) error {
	return a.update(ctx, func(r *Record, now time.Time) {
		r.Status = StatusRunning
		r.StartedAt = &now
	})
}

// SetOutput implements Assignment.
func (a *StoredAssignment) SetOutput(ctx context.Context, out Output) error {
	return a.update(ctx, func(r *Record, _ time.Time) {
		r.Output = &out
	})
}

// Complete implements Assignment.
func (a *StoredAssignment) Complete(ctx context.Context) error {
	return a.update(ctx, func(r *Record, now time.Time) {
		r.Status = StatusCompleted
		r.FinishedAt = &now
	})
}

// Fail implements Assignment.
func (a *StoredAssignment) Fail(ctx context.Context, p Problem) error {
	return a.update(ctx, func(r *Record, now time.Time) {
		r.Status = StatusFailed
		r.Problem = &p
		r.FinishedAt = &now
	})
}

func (a *StoredAssignment) update(ctx context.Context, mutate func(*Record, time.Time)) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	r, err := a.store.Get(ctx, a.id)
	if err != nil {
		return err
	}
	if r.Status.Terminal() {
		return ErrFinished(r)
	}
	mutate(r, a.now().UTC())
	return a.store.Update(ctx, r)
}

var (
	_ Assignment = (*StoredAssignment)(nil)
	_ Starter    = (*StoredAssignment)(nil)
)
