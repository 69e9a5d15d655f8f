// Package redis persists job history in Redis: one JSON value per job plus
// a sorted set ordering ids by creation time.
package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/transcribe-worker/errors"
	"github.com/kbukum/transcribe-worker/job"
	rediskv "github.com/kbukum/transcribe-worker/redis"
)

// Store is a job.Store over a Redis client.
type Store struct {
	client  *rediskv.Client
	records *rediskv.TypedStore[job.Record]
	index   string
	ttl     time.Duration
	now     func() time.Time
}

// New creates a Store. Records expire after the client's RecordTTL; their
// index entries are pruned by List.
func New(client *rediskv.Client) *Store {
	return &Store{
		client:  client,
		records: rediskv.NewTypedStore[job.Record](client, "jobs"),
		index:   client.Key("jobs-by-created"),
		ttl:     client.Config().RecordTTL,
		now:     time.Now,
	}
}

// Create implements job.Store.
func (s *Store) Create(ctx context.Context, in job.Input) (*job.Record, error) {
	r := job.NewRecord(in, s.now().UTC())
	if err := s.records.Save(ctx, r.ID, r, s.ttl); err != nil {
		return nil, errors.DatabaseError(err)
	}
	z := goredis.Z{Score: float64(r.CreatedAt.UnixMicro()), Member: r.ID}
	if err := s.client.Unwrap().ZAdd(ctx, s.index, z).Err(); err != nil {
		return nil, errors.DatabaseError(err)
	}
	return r.Clone(), nil
}

// Get implements job.Store.
func (s *Store) Get(ctx context.Context, id string) (*job.Record, error) {
	r, err := s.records.Load(ctx, id)
	if err != nil {
		return nil, errors.DatabaseError(err)
	}
	if r == nil {
		return nil, errors.NotFound("job", id)
	}
	return r, nil
}

// List implements job.Store.
func (s *Store) List(ctx context.Context, limit int) ([]*job.Record, error) {
	if limit <= 0 {
		limit = job.DefaultListLimit
	}
	rdb := s.client.Unwrap()

	out := make([]*job.Record, 0, limit)
	for start := int64(0); len(out) < limit; {
		ids, err := rdb.ZRevRange(ctx, s.index, start, start+int64(limit-len(out))-1).Result()
		if err != nil {
			return nil, errors.DatabaseError(err)
		}
		if len(ids) == 0 {
			break
		}
		start += int64(len(ids))

		var expired []interface{}
		for _, id := range ids {
			r, err := s.records.Load(ctx, id)
			if err != nil {
				return nil, errors.DatabaseError(err)
			}
			if r == nil {
				expired = append(expired, id)
				continue
			}
			out = append(out, r)
		}
		if len(expired) > 0 {
			if err := rdb.ZRem(ctx, s.index, expired...).Err(); err != nil {
				return nil, errors.DatabaseError(err)
			}
			start -= int64(len(expired))
		}
	}
	return out, nil
}

// Update implements job.Store.
func (s *Store) Update(ctx context.Context, r *job.Record) error {
	c := r.Clone()
	c.UpdatedAt = s.now().UTC()
	ok, err := s.records.Replace(ctx, c.ID, c, s.ttl)
	if err != nil {
		return errors.DatabaseError(err)
	}
	if !ok {
		return errors.NotFound("job", r.ID)
	}
	return nil
}

var _ job.Store = (*Store)(nil)
