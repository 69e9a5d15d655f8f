// Package output persists pipeline artifacts to the output store and hands
// back time-limited links to them.
package output

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kbukum/transcribe-worker/errors"
	"github.com/kbukum/transcribe-worker/logger"
	"github.com/kbukum/transcribe-worker/storage"
	"github.com/kbukum/transcribe-worker/transcription"
)

// DefaultSignedURLExpiry is how long returned links stay valid.
const DefaultSignedURLExpiry = 12 * time.Hour

// Config controls artifact naming and link lifetime.
type Config struct {
	// Prefix is prepended to every artifact key, e.g. "transcriptions/".
	Prefix string `mapstructure:"prefix" json:"prefix"`

	// SignedURLExpiry is the lifetime of returned links.
	SignedURLExpiry time.Duration `mapstructure:"signed_url_expiry" json:"signed_url_expiry"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.SignedURLExpiry <= 0 {
		c.SignedURLExpiry = DefaultSignedURLExpiry
	}
}

// Writer stores artifacts and signs links to them.
type Writer struct {
	store storage.Storage
	cfg   Config
	log   *logger.Logger
}

// NewWriter creates a Writer over store.
func NewWriter(store storage.Storage, cfg Config, log *logger.Logger) *Writer {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.NewNop()
	}
	return &Writer{store: store, cfg: cfg, log: log.WithComponent("output")}
}

// Prefix returns the configured key prefix.
func (w *Writer) Prefix() string { return w.cfg.Prefix }

// Write stores payload under key and returns a signed GET link to it.
// Strings and byte slices are stored verbatim; anything else is JSON.
func (w *Writer) Write(ctx context.Context, key string, payload any) (string, error) {
	data, err := encode(payload)
	if err != nil {
		return "", errors.WriteFailed(key, err)
	}
	if err := storage.WriteBytes(ctx, w.store, key, data); err != nil {
		return "", errors.WriteFailed(key, err)
	}

	link, err := w.link(ctx, key)
	if err != nil {
		return "", errors.WriteFailed(key, fmt.Errorf("sign: %w", err))
	}
	w.log.WithContext(ctx).Debug("artifact written", map[string]interface{}{"key": key, "bytes": len(data)})
	return link, nil
}

func (w *Writer) link(ctx context.Context, key string) (string, error) {
	if signer, ok := w.store.(storage.SignedURLProvider); ok {
		return signer.SignedURL(ctx, key, w.cfg.SignedURLExpiry)
	}
	return w.store.URL(ctx, key)
}

func encode(payload any) ([]byte, error) {
	switch v := payload.(type) {
	case string:
		return []byte(v), nil
	case json.RawMessage:
		return v, nil
	case []byte:
		return v, nil
	default:
		return json.Marshal(v)
	}
}

// ArtifactPrefix names the artifacts of one job: prefix, the UTC time to
// the second with ':' replaced by '-', a slash, and the source file name
// without its extension.
func ArtifactPrefix(prefix, address string, now time.Time) string {
	return prefix + now.UTC().Format("2006-01-02T15-04-05") + "/" + transcription.BaseName(address)
}

// Keys are the object keys of one job's artifacts.
type Keys struct {
	Transcript string
	Caption    string
	Text       string
}

// ArtifactKeys derives the artifact keys from an ArtifactPrefix result.
func ArtifactKeys(base string) Keys {
	return Keys{
		Transcript: base + ".json",
		Caption:    base + ".vtt",
		Text:       base + ".txt",
	}
}
