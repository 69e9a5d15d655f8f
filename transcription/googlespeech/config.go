package googlespeech

import (
	"time"
)

// Polling defaults for long-running operations.
const (
	DefaultPollInitial = 2 * time.Second
	DefaultPollMax     = 30 * time.Second
)

// Config configures the speech client.
type Config struct {
	// Endpoint overrides the API base URL (tests, regional endpoints).
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`

	// PollInitial is the first wait between operation polls.
	PollInitial time.Duration `mapstructure:"poll_initial" json:"poll_initial"`

	// PollMax caps the wait between operation polls.
	PollMax time.Duration `mapstructure:"poll_max" json:"poll_max"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.PollInitial <= 0 {
		c.PollInitial = DefaultPollInitial
	}
	if c.PollMax <= 0 {
		c.PollMax = DefaultPollMax
	}
	if c.PollMax < c.PollInitial {
		c.PollMax = c.PollInitial
	}
}
