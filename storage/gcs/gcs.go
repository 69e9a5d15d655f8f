// Package gcs implements storage.Storage on the Google Cloud Storage JSON
// API and adds the bucket provisioning the speech service needs.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gstorage "google.golang.org/api/storage/v1"

	"github.com/kbukum/transcribe-worker/storage"
)

// Storage is a single GCS bucket.
type Storage struct {
	svc *gstorage.Service
	cfg Config
}

// New creates a bucket client that authorizes through httpClient.
func New(ctx context.Context, httpClient *http.Client, cfg Config) (*Storage, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	svc, err := gstorage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs: create service: %w", err)
	}
	return &Storage{svc: svc, cfg: cfg}, nil
}

// Bucket returns the bucket name.
func (s *Storage) Bucket() string { return s.cfg.Bucket }

// URI returns the gs:// address of an object, the form the speech API reads.
func (s *Storage) URI(name string) string {
	return "gs://" + s.cfg.Bucket + "/" + name
}

// EnsureBucket creates the bucket if it does not exist. A bucket that
// already exists, including one created concurrently, counts as success.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	_, err := s.svc.Buckets.Insert(s.cfg.ProjectID, &gstorage.Bucket{
		Name:         s.cfg.Bucket,
		Location:     s.cfg.Location,
		StorageClass: s.cfg.StorageClass,
	}).Context(ctx).Do()
	if err == nil || hasStatus(err, http.StatusConflict) {
		return nil
	}
	return fmt.Errorf("gcs: create bucket %s: %w", s.cfg.Bucket, err)
}

// Upload streams reader into the named object.
func (s *Storage) Upload(ctx context.Context, name string, reader io.Reader) error {
	return s.UploadWithType(ctx, name, reader, storage.ContentType(name))
}

// UploadWithType streams reader into the named object with an explicit
// content type. Memory use is bounded by the configured chunk size.
func (s *Storage) UploadWithType(ctx context.Context, name string, reader io.Reader, contentType string) error {
	_, err := s.svc.Objects.Insert(s.cfg.Bucket, &gstorage.Object{
		Name:        name,
		ContentType: contentType,
	}).Media(reader,
		googleapi.ContentType(contentType),
		googleapi.ChunkSize(s.cfg.ChunkSize),
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("gcs: upload %s: %w", name, err)
	}
	return nil
}

// Download returns the object's media stream.
func (s *Storage) Download(ctx context.Context, name string) (io.ReadCloser, error) {
	resp, err := s.svc.Objects.Get(s.cfg.Bucket, name).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("gcs: download %s: %w", name, err)
	}
	return resp.Body, nil
}

// Delete removes the named object. A missing object is not an error.
func (s *Storage) Delete(ctx context.Context, name string) error {
	err := s.svc.Objects.Delete(s.cfg.Bucket, name).Context(ctx).Do()
	if err == nil || hasStatus(err, http.StatusNotFound) {
		return nil
	}
	return fmt.Errorf("gcs: delete %s: %w", name, err)
}

// Exists reports whether the named object exists.
func (s *Storage) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.svc.Objects.Get(s.cfg.Bucket, name).Context(ctx).Do()
	if err == nil {
		return true, nil
	}
	if hasStatus(err, http.StatusNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("gcs: stat %s: %w", name, err)
}

// URL returns the public HTTPS URL of the object.
func (s *Storage) URL(_ context.Context, name string) (string, error) {
	return "https://storage.googleapis.com/" + s.cfg.Bucket + "/" + url.PathEscape(name), nil
}

// List returns every object whose name starts with prefix.
func (s *Storage) List(ctx context.Context, prefix string) ([]storage.FileInfo, error) {
	var files []storage.FileInfo
	err := s.svc.Objects.List(s.cfg.Bucket).Prefix(prefix).Pages(ctx, func(page *gstorage.Objects) error {
		for _, obj := range page.Items {
			fi := storage.FileInfo{
				Path:        obj.Name,
				Size:        int64(obj.Size),
				ContentType: obj.ContentType,
			}
			if ts, err := time.Parse(time.RFC3339, obj.Updated); err == nil {
				fi.LastModified = ts
			}
			files = append(files, fi)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("gcs: list %s: %w", s.cfg.Bucket, err)
	}
	return files, nil
}

func hasStatus(err error, code int) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == code
}

var _ storage.Storage = (*Storage)(nil)
