// Package staging copies source media into the temporary Google Cloud
// Storage bucket the recognizer reads from, and removes it afterwards.
package staging

import (
	"context"
	"fmt"
	"io"
	"mime"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/transcribe-worker/errors"
	"github.com/kbukum/transcribe-worker/httpclient"
	"github.com/kbukum/transcribe-worker/logger"
	"github.com/kbukum/transcribe-worker/storage"
	"github.com/kbukum/transcribe-worker/transcription"
)

// Bucket is the staging bucket surface Stager needs. *gcs.Storage
// implements it.
type Bucket interface {
	Bucket() string
	URI(name string) string
	EnsureBucket(ctx context.Context) error
	UploadWithType(ctx context.Context, name string, r io.Reader, contentType string) error
	Delete(ctx context.Context, name string) error
}

// Fetcher opens a streaming GET of a source address. *httpclient.Client
// implements it.
type Fetcher interface {
	Open(ctx context.Context, url string) (*httpclient.StreamResponse, error)
}

// StagedObject is a source copied into the staging bucket.
type StagedObject struct {
	Bucket string
	Name   string
	URI    string
	Bytes  int64
}

// Stager moves one job's media in and out of the staging bucket.
type Stager struct {
	bucket Bucket
	fetch  Fetcher
	log    *logger.Logger
}

// New creates a Stager.
func New(bucket Bucket, fetch Fetcher, log *logger.Logger) *Stager {
	if log == nil {
		log = logger.NewNop()
	}
	return &Stager{bucket: bucket, fetch: fetch, log: log.WithComponent("staging")}
}

// EnsureBucket creates the staging bucket if it is absent.
func (s *Stager) EnsureBucket(ctx context.Context) error {
	if err := s.bucket.EnsureBucket(ctx); err != nil {
		return errors.StagingFailed("", err).WithDetail("bucket", s.bucket.Bucket())
	}
	return nil
}

// Stage streams source into the bucket under a fresh name that keeps the
// source's extension. The body is never buffered whole.
func (s *Stager) Stage(ctx context.Context, source string) (*StagedObject, error) {
	name := uuid.NewString() + transcription.Extension(source)
	start := time.Now()

	resp, err := s.fetch.Open(ctx, source)
	if err != nil {
		return nil, errors.StagingFailed(source, fmt.Errorf("fetch: %w", err))
	}
	defer resp.Close() //nolint:errcheck // body fully consumed or abandoned

	body := &countingReader{r: resp.Body}
	if err := s.bucket.UploadWithType(ctx, name, body, contentType(resp, name)); err != nil {
		return nil, errors.StagingFailed(source, fmt.Errorf("upload %s: %w", name, err))
	}

	obj := &StagedObject{
		Bucket: s.bucket.Bucket(),
		Name:   name,
		URI:    s.bucket.URI(name),
		Bytes:  body.n,
	}
	s.log.WithContext(ctx).Info("source staged", map[string]interface{}{
		"uri":                obj.URI,
		"bytes":              obj.Bytes,
		logger.FieldDuration: time.Since(start).Milliseconds(),
	})
	return obj, nil
}

// Release deletes a staged object. An object that is already gone counts
// as released.
func (s *Stager) Release(ctx context.Context, obj *StagedObject) error {
	if obj == nil {
		return nil
	}
	if err := s.bucket.Delete(ctx, obj.Name); err != nil {
		return errors.CleanupFailed(obj.URI, err)
	}
	s.log.WithContext(ctx).Debug("staged object deleted", map[string]interface{}{"uri": obj.URI})
	return nil
}

// contentType prefers a specific type announced by the source and falls
// back to the staged name's extension.
func contentType(resp *httpclient.StreamResponse, name string) string {
	if mt, _, err := mime.ParseMediaType(resp.ContentType()); err == nil {
		switch mt {
		case "", "application/octet-stream", "binary/octet-stream", "text/plain":
		default:
			return resp.ContentType()
		}
	}
	return storage.ContentType(name)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
