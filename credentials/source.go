package credentials

import (
	"context"
	"fmt"
	"os"

	"github.com/kbukum/transcribe-worker/errors"
	"github.com/kbukum/transcribe-worker/logger"
	"github.com/kbukum/transcribe-worker/storage"
)

// Source providers.
const (
	ProviderStorage = "storage"
	ProviderFile    = "file"
)

// Source yields the service account for one pipeline run.
type Source interface {
	Load(ctx context.Context) (*ServiceAccount, error)
}

// Config selects where the service account document lives.
type Config struct {
	// Provider is "storage" (the configured object store) or "file".
	Provider string `mapstructure:"provider" json:"provider" validate:"omitempty,oneof=storage file"`

	// Key is the object key of the document in the config store.
	Key string `mapstructure:"key" json:"key"`

	// Path is the local file path when Provider is "file".
	Path string `mapstructure:"path" json:"path"`

	// TokenURL overrides the OAuth2 token endpoint.
	TokenURL string `mapstructure:"token_url" json:"token_url"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderStorage
	}
	if c.Provider == ProviderStorage && c.Key == "" {
		c.Key = "google-service-credentials.json"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderStorage:
		if c.Key == "" {
			return fmt.Errorf("credentials: key is required for the storage provider")
		}
	case ProviderFile:
		if c.Path == "" {
			return fmt.Errorf("credentials: path is required for the file provider")
		}
	default:
		return fmt.Errorf("credentials: unknown provider %q", c.Provider)
	}
	return nil
}

// NewSource builds the Source described by cfg. store is only used by the
// storage provider.
func NewSource(cfg Config, store storage.Storage, log *logger.Logger) (Source, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dec := newDecoder(cfg.TokenURL, log)
	if cfg.Provider == ProviderFile {
		return &FileSource{Path: cfg.Path, decoder: dec}, nil
	}
	if store == nil {
		return nil, fmt.Errorf("credentials: storage provider needs a store")
	}
	return &StorageSource{Store: store, Key: cfg.Key, decoder: dec}, nil
}

// decoder parses a loaded document and applies source-wide overrides.
type decoder struct {
	tokenURL string
	log      *logger.Logger
}

func newDecoder(tokenURL string, log *logger.Logger) decoder {
	if log == nil {
		log = logger.NewNop()
	}
	return decoder{tokenURL: tokenURL, log: log.WithComponent("credentials")}
}

func (d decoder) decode(data []byte) (*ServiceAccount, error) {
	sa, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if d.tokenURL != "" {
		sa.TokenURI = d.tokenURL
	}
	if d.log != nil {
		d.log.Debug("service account loaded", sa.LogFields())
	}
	return sa, nil
}

// StorageSource reads the document from an object store on every Load, so
// rotated keys are picked up without a restart.
type StorageSource struct {
	Store storage.Storage
	Key   string
	decoder
}

// NewStorageSource creates a StorageSource.
func NewStorageSource(store storage.Storage, key string, log *logger.Logger) *StorageSource {
	return &StorageSource{Store: store, Key: key, decoder: newDecoder("", log)}
}

// Load implements Source.
func (s *StorageSource) Load(ctx context.Context) (*ServiceAccount, error) {
	data, err := storage.ReadAll(ctx, s.Store, s.Key, storage.DefaultReadLimit)
	if err != nil {
		return nil, errors.CredentialsFailed(fmt.Errorf("read %s: %w", s.Key, err))
	}
	return s.decode(data)
}

// FileSource reads the document from the local filesystem.
type FileSource struct {
	Path string
	decoder
}

// NewFileSource creates a FileSource.
func NewFileSource(path string, log *logger.Logger) *FileSource {
	return &FileSource{Path: path, decoder: newDecoder("", log)}
}

// Load implements Source.
func (s *FileSource) Load(_ context.Context) (*ServiceAccount, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, errors.CredentialsFailed(err)
	}
	return s.decode(data)
}
