package worker

import (
	"fmt"
	"time"
)

// Config fixes the recognition settings shared by every job.
type Config struct {
	// LanguageCode is the BCP-47 tag passed to the recognizer.
	LanguageCode string `mapstructure:"language_code" json:"language_code"`

	// AudioChannelCount is the number of channels in the source audio.
	AudioChannelCount int `mapstructure:"audio_channel_count" json:"audio_channel_count" validate:"min=0,max=8"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.LanguageCode == "" {
		c.LanguageCode = "en-US"
	}
	if c.AudioChannelCount <= 0 {
		c.AudioChannelCount = 2
	}
}

// PoolConfig bounds concurrent jobs.
type PoolConfig struct {
	// MaxConcurrent is the number of jobs processed at once.
	MaxConcurrent int `mapstructure:"max_concurrent" json:"max_concurrent"`

	// MaxWait is how long Submit waits for a free slot. Zero rejects at once.
	MaxWait time.Duration `mapstructure:"max_wait" json:"max_wait"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *PoolConfig) ApplyDefaults() {
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 4
	}
}

// Validate checks the configuration for errors.
func (c *PoolConfig) Validate() error {
	if c.MaxConcurrent > 256 {
		return fmt.Errorf("workers: max_concurrent must be at most 256, got %d", c.MaxConcurrent)
	}
	if c.MaxWait < 0 {
		return fmt.Errorf("workers: max_wait must not be negative")
	}
	return nil
}
