package gcs

import (
	"errors"
	"fmt"

	"google.golang.org/api/googleapi"
)

// Defaults for the staging bucket.
const (
	DefaultLocation     = "US"
	DefaultStorageClass = "STANDARD"
)

// Config describes the Google Cloud Storage bucket used for staging.
type Config struct {
	// Bucket is the staging bucket name.
	Bucket string `mapstructure:"bucket_name" json:"bucket_name" validate:"required"`

	// Location is used only when the bucket has to be created.
	Location string `mapstructure:"bucket_location" json:"bucket_location"`

	// StorageClass is used only when the bucket has to be created.
	StorageClass string `mapstructure:"storage_class" json:"storage_class"`

	// ProjectID owns the bucket. Usually taken from the service account.
	ProjectID string `mapstructure:"project_id" json:"project_id"`

	// Endpoint overrides the JSON API base URL (tests, emulators).
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`

	// ChunkSize is the resumable upload chunk size in bytes. Uploads that
	// fit in one chunk go out as a single request; 0 selects the library
	// default.
	ChunkSize int `mapstructure:"chunk_size" json:"chunk_size"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Location == "" {
		c.Location = DefaultLocation
	}
	if c.StorageClass == "" {
		c.StorageClass = DefaultStorageClass
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = googleapi.DefaultUploadChunkSize
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error
	if c.Bucket == "" {
		errs = append(errs, errors.New("gcs: bucket_name is required"))
	}
	if c.ProjectID == "" {
		errs = append(errs, errors.New("gcs: project_id is required"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("gcs: invalid config: %w", errors.Join(errs...))
	}
	return nil
}
