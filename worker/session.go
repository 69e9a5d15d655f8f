package worker

import (
	"context"
	"fmt"

	"github.com/kbukum/transcribe-worker/credentials"
	"github.com/kbukum/transcribe-worker/errors"
	"github.com/kbukum/transcribe-worker/logger"
	"github.com/kbukum/transcribe-worker/staging"
	"github.com/kbukum/transcribe-worker/storage"
	"github.com/kbukum/transcribe-worker/storage/gcs"
	"github.com/kbukum/transcribe-worker/transcription"
	"github.com/kbukum/transcribe-worker/transcription/googlespeech"
)

// Stager is the staging surface the pipeline drives.
type Stager interface {
	EnsureBucket(ctx context.Context) error
	Stage(ctx context.Context, source string) (*staging.StagedObject, error)
	Release(ctx context.Context, obj *staging.StagedObject) error
}

// Session holds the provider clients for one job, authorized with the
// credentials fetched for that job.
type Session struct {
	Stager     Stager
	Recognizer transcription.Recognizer
	// Bucket is the raw staging bucket, when the connector exposes one.
	Bucket storage.Storage
}

// Connector fetches credentials and builds a Session.
type Connector interface {
	Connect(ctx context.Context) (*Session, error)
}

// ConnectorFunc adapts a function to Connector.
type ConnectorFunc func(ctx context.Context) (*Session, error)

// Connect implements Connector.
func (f ConnectorFunc) Connect(ctx context.Context) (*Session, error) { return f(ctx) }

// GoogleConfig configures the Google-backed session.
type GoogleConfig struct {
	Bucket gcs.Config          `mapstructure:"bucket" json:"bucket"`
	Speech googlespeech.Config `mapstructure:"speech" json:"speech"`
}

// GoogleConnector builds sessions on Cloud Storage and Speech-to-Text from
// a service account loaded fresh for every job.
type GoogleConnector struct {
	source credentials.Source
	fetch  staging.Fetcher
	cfg    GoogleConfig
	log    *logger.Logger
}

// NewGoogleConnector creates a GoogleConnector.
func NewGoogleConnector(source credentials.Source, fetch staging.Fetcher, cfg GoogleConfig, log *logger.Logger) *GoogleConnector {
	if log == nil {
		log = logger.NewNop()
	}
	return &GoogleConnector{source: source, fetch: fetch, cfg: cfg, log: log}
}

// Connect implements Connector.
func (c *GoogleConnector) Connect(ctx context.Context) (*Session, error) {
	sa, err := c.source.Load(ctx)
	if err != nil {
		return nil, err
	}
	c.log.WithContext(ctx).Debug("connecting with service account", sa.LogFields())

	// The token source keeps this context for refreshes, and cleanup must
	// still authenticate after the job context is canceled.
	hc := sa.HTTPClient(context.WithoutCancel(ctx), credentials.CloudPlatformScope)

	bucketCfg := c.cfg.Bucket
	if bucketCfg.ProjectID == "" {
		bucketCfg.ProjectID = sa.ProjectID
	}
	bucket, err := gcs.New(ctx, hc, bucketCfg)
	if err != nil {
		return nil, errors.CredentialsFailed(fmt.Errorf("storage client: %w", err))
	}
	rec, err := googlespeech.New(ctx, hc, c.cfg.Speech, c.log)
	if err != nil {
		return nil, errors.CredentialsFailed(fmt.Errorf("speech client: %w", err))
	}

	return &Session{
		Stager:     staging.New(bucket, c.fetch, c.log),
		Recognizer: rec,
		Bucket:     bucket,
	}, nil
}

// OpenBucket returns the staging bucket under fresh credentials. It
// matches staging.BucketOpener.
func (c *GoogleConnector) OpenBucket(ctx context.Context) (storage.Storage, error) {
	s, err := c.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return s.Bucket, nil
}
