package storage

import (
	"context"
	"fmt"

	"github.com/kbukum/transcribe-worker/component"
	"github.com/kbukum/transcribe-worker/logger"
)

// Component wraps Storage and implements component.Component for lifecycle management.
type Component struct {
	name        string
	storage     Storage
	cfg         Config
	providerCfg any
	log         *logger.Logger
}

// NewComponent creates a storage component. name distinguishes the output
// store from the credentials store when both are registered.
func NewComponent(name string, cfg Config, providerCfg any, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{
		name:        name,
		cfg:         cfg,
		providerCfg: providerCfg,
		log:         log.WithComponent(name),
	}
}

// Storage returns the underlying Storage, or nil if not started.
func (c *Component) Storage() Storage {
	return c.storage
}

var _ component.Component = (*Component)(nil)

// Name returns the component name.
func (c *Component) Name() string { return c.name }

// Start initializes the storage backend.
func (c *Component) Start(ctx context.Context) error {
	if !c.cfg.Enabled {
		c.log.Info("storage component is disabled")
		return nil
	}

	s, err := New(ctx, c.cfg, c.providerCfg, c.log)
	if err != nil {
		return fmt.Errorf("%s start: %w", c.name, err)
	}
	c.storage = s
	return nil
}

// Stop releases the storage backend.
func (c *Component) Stop(_ context.Context) error {
	c.storage = nil
	return nil
}

// Health reports whether the backend is initialized and answers a probe.
func (c *Component) Health(ctx context.Context) component.Health {
	if !c.cfg.Enabled {
		return component.Health{Name: c.name, Status: component.StatusHealthy, Message: "disabled"}
	}
	if c.storage == nil {
		return component.Health{Name: c.name, Status: component.StatusUnhealthy, Message: "storage not initialized"}
	}
	if _, err := c.storage.Exists(ctx, ".health"); err != nil {
		return component.Health{
			Name:    c.name,
			Status:  component.StatusDegraded,
			Message: fmt.Sprintf("health probe failed: %v", err),
		}
	}
	return component.Health{Name: c.name, Status: component.StatusHealthy}
}

// Describe returns infrastructure summary info for the startup log.
func (c *Component) Describe() component.Description {
	details := fmt.Sprintf("provider=%s", c.cfg.Provider)
	switch c.cfg.Provider {
	case ProviderS3:
		details += fmt.Sprintf(" bucket=%s region=%s", c.cfg.Bucket, c.cfg.Region)
	case ProviderLocal:
		details += fmt.Sprintf(" base_path=%s", c.cfg.BasePath)
	}
	return component.Description{Name: "Storage", Type: "storage", Details: details}
}
