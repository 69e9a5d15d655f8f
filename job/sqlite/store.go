// Package sqlite persists job history in SQLite through the database
// package.
package sqlite

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/kbukum/transcribe-worker/database"
	"github.com/kbukum/transcribe-worker/errors"
	"github.com/kbukum/transcribe-worker/job"
)

// row is the jobs table layout.
type row struct {
	ID         string       `gorm:"primaryKey;size:36"`
	Status     string       `gorm:"size:16;index"`
	InputURL   string       `gorm:"column:input_url"`
	Output     *job.Output  `gorm:"serializer:json"`
	Problem    *job.Problem `gorm:"serializer:json"`
	CreatedAt  time.Time    `gorm:"index"`
	UpdatedAt  time.Time
	StartedAt  *time.Time
	FinishedAt *time.Time
}

func (row) TableName() string { return "jobs" }

// Model returns the value to register for auto-migration.
func Model() interface{} { return &row{} }

func toRow(r *job.Record) *row {
	return &row{
		ID:         r.ID,
		Status:     string(r.Status),
		InputURL:   r.Input.InputFile.URL,
		Output:     r.Output,
		Problem:    r.Problem,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
}

func (x *row) record() *job.Record {
	return &job.Record{
		ID:         x.ID,
		Status:     job.Status(x.Status),
		Input:      job.Input{InputFile: job.Locator{URL: x.InputURL}},
		Output:     x.Output,
		Problem:    x.Problem,
		CreatedAt:  x.CreatedAt.UTC(),
		UpdatedAt:  x.UpdatedAt.UTC(),
		StartedAt:  utc(x.StartedAt),
		FinishedAt: utc(x.FinishedAt),
	}
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// Store is a job.Store over a GORM handle.
type Store struct {
	db *database.DB
}

// New creates a Store. The jobs table must exist; register Model() with
// the database component's auto-migration or call Migrate.
func New(db *database.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the jobs table.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(Model())
}

func (s *Store) tx(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// Create implements job.Store.
func (s *Store) Create(ctx context.Context, in job.Input) (*job.Record, error) {
	r := job.NewRecord(in, time.Now().UTC())
	if err := s.tx(ctx).Create(toRow(r)).Error; err != nil {
		return nil, database.FromDatabase(err, "job", r.ID)
	}
	return r, nil
}

// Get implements job.Store.
func (s *Store) Get(ctx context.Context, id string) (*job.Record, error) {
	var x row
	if err := s.tx(ctx).Where("id = ?", id).Take(&x).Error; err != nil {
		return nil, database.FromDatabase(err, "job", id)
	}
	return x.record(), nil
}

// List implements job.Store.
func (s *Store) List(ctx context.Context, limit int) ([]*job.Record, error) {
	if limit <= 0 {
		limit = job.DefaultListLimit
	}
	var rows []row
	if err := s.tx(ctx).Order("created_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, database.FromDatabase(err, "job", "")
	}
	out := make([]*job.Record, len(rows))
	for i := range rows {
		out[i] = rows[i].record()
	}
	return out, nil
}

// Update implements job.Store.
func (s *Store) Update(ctx context.Context, r *job.Record) error {
	x := toRow(r)
	res := s.tx(ctx).Model(&row{ID: r.ID}).Select("*").Omit("id", "created_at").Updates(x)
	if res.Error != nil {
		return database.FromDatabase(res.Error, "job", r.ID)
	}
	if res.RowsAffected == 0 {
		return errors.NotFound("job", r.ID)
	}
	return nil
}

var _ job.Store = (*Store)(nil)
