package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/transcribe-worker/logger"
)

// Factory creates a Storage implementation from core config and optional
// provider-specific configuration. When providerCfg is nil the provider
// reads its settings from cfg.
type Factory func(ctx context.Context, cfg Config, providerCfg any, log *logger.Logger) (Storage, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// RegisterFactory registers a storage backend factory for the given provider
// name. Backend packages call this from init.
func RegisterFactory(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// New creates a Storage implementation for cfg.Provider. The backend package
// must be imported (e.g. _ "github.com/kbukum/transcribe-worker/storage/s3")
// so its factory is registered.
func New(ctx context.Context, cfg Config, providerCfg any, log *logger.Logger) (Storage, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	factoriesMu.RLock()
	f, ok := factories[cfg.Provider]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unsupported provider %q (not registered)", cfg.Provider)
	}

	l := log.WithComponent("storage")
	l.Info("initializing storage", map[string]interface{}{"provider": cfg.Provider, "bucket": cfg.Bucket})
	return f(ctx, cfg, providerCfg, l)
}
