package job

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/transcribe-worker/errors"
)

// DefaultListLimit bounds List when the caller passes limit <= 0.
const DefaultListLimit = 50

// Store persists job records.
type Store interface {
	Create(ctx context.Context, in Input) (*Record, error)
	Get(ctx context.Context, id string) (*Record, error)
	// List returns the most recently created jobs first.
	List(ctx context.Context, limit int) ([]*Record, error)
	Update(ctx context.Context, r *Record) error
}

// NewRecord returns a queued record for in with a fresh id.
func NewRecord(in Input, now time.Time) *Record {
	return &Record{
		ID:        uuid.NewString(),
		Status:    StatusQueued,
		Input:     in,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ErrFinished is returned when a finished job is asked to change state.
func ErrFinished(r *Record) *errors.AppError {
	return errors.New(errors.ErrCodeAlreadyExists,
		fmt.Sprintf("job %s is already %s", r.ID, r.Status), http.StatusConflict).
		WithDetail("id", r.ID)
}

// MemoryStore is a Store backed by a map. Records are copied in and out.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record), now: time.Now}
}

// Create implements Store.
func (s *MemoryStore) Create(_ context.Context, in Input) (*Record, error) {
	r := NewRecord(in, s.now().UTC())
	s.mu.Lock()
	s.records[r.ID] = r
	s.mu.Unlock()
	return r.Clone(), nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, errors.NotFound("job", id)
	}
	return r.Clone(), nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	s.mu.RLock()
	out := make([]*Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Update implements Store.
func (s *MemoryStore) Update(_ context.Context, r *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[r.ID]; !ok {
		return errors.NotFound("job", r.ID)
	}
	c := r.Clone()
	c.UpdatedAt = s.now().UTC()
	s.records[r.ID] = c
	return nil
}

var _ Store = (*MemoryStore)(nil)
