package staging

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/transcribe-worker/component"
	"github.com/kbukum/transcribe-worker/logger"
	"github.com/kbukum/transcribe-worker/storage"
)

// SweeperConfig controls removal of staged objects that outlived their job,
// e.g. because the process was killed mid-recognition.
type SweeperConfig struct {
	Enabled  bool          `mapstructure:"enabled" json:"enabled"`
	Interval time.Duration `mapstructure:"interval" json:"interval"`
	MaxAge   time.Duration `mapstructure:"max_age" json:"max_age"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *SweeperConfig) ApplyDefaults() {
	if c.Interval <= 0 {
		c.Interval = time.Hour
	}
	if c.MaxAge <= 0 {
		c.MaxAge = 24 * time.Hour
	}
}

// BucketOpener returns a listable handle on the staging bucket. It is
// called once per sweep so fresh credentials are used every time.
type BucketOpener func(ctx context.Context) (storage.Storage, error)

// Sweeper periodically deletes staged objects older than MaxAge.
type Sweeper struct {
	cfg  SweeperConfig
	open BucketOpener
	log  *logger.Logger
	now  func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSweeper creates a Sweeper.
func NewSweeper(cfg SweeperConfig, open BucketOpener, log *logger.Logger) *Sweeper {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.NewNop()
	}
	return &Sweeper{cfg: cfg, open: open, log: log.WithComponent("sweeper"), now: time.Now}
}

var (
	_ component.Component   = (*Sweeper)(nil)
	_ component.Describable = (*Sweeper)(nil)
)

// Name returns the component name.
func (s *Sweeper) Name() string { return "staging-sweeper" }

// Start launches the sweep loop when enabled.
func (s *Sweeper) Start(_ context.Context) error {
	if !s.cfg.Enabled {
		s.log.Info("staging sweeper is disabled")
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return fmt.Errorf("sweeper already started")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)
	return nil
}

func (s *Sweeper) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
			s.log.Error("staging sweep failed", logger.ErrorFields("sweep", err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Stop ends the sweep loop and waits for an in-progress sweep to notice.
func (s *Sweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Health reports the sweeper as healthy; a failed sweep is retried on the
// next tick.
func (s *Sweeper) Health(_ context.Context) component.Health {
	msg := ""
	if !s.cfg.Enabled {
		msg = "disabled"
	}
	return component.Health{Name: s.Name(), Status: component.StatusHealthy, Message: msg}
}

// Describe returns infrastructure summary info for the startup log.
func (s *Sweeper) Describe() component.Description {
	return component.Description{
		Name:    "Staging sweeper",
		Type:    "sweeper",
		Details: fmt.Sprintf("enabled=%t interval=%s max_age=%s", s.cfg.Enabled, s.cfg.Interval, s.cfg.MaxAge),
	}
}

// Sweep deletes every staged object last modified more than MaxAge ago and
// returns how many were removed. Individual delete failures are logged and
// skipped.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	bucket, err := s.open(ctx)
	if err != nil {
		return 0, fmt.Errorf("open staging bucket: %w", err)
	}
	objects, err := bucket.List(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("list staging bucket: %w", err)
	}

	cutoff := s.now().Add(-s.cfg.MaxAge)
	removed := 0
	for _, obj := range objects {
		if obj.LastModified.IsZero() || !obj.LastModified.Before(cutoff) {
			continue
		}
		if err := bucket.Delete(ctx, obj.Path); err != nil {
			s.log.Warn("stale staged object not deleted", map[string]interface{}{
				"object":          obj.Path,
				logger.FieldError: err.Error(),
			})
			continue
		}
		removed++
	}
	if removed > 0 {
		s.log.Info("stale staged objects deleted", map[string]interface{}{"count": removed, "scanned": len(objects)})
	}
	return removed, nil
}
