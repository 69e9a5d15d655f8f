package httpclient

import (
	"fmt"
	"time"

	"github.com/kbukum/transcribe-worker/resilience"
	"github.com/kbukum/transcribe-worker/security"
)

const (
	defaultHeaderTimeout = 30 * time.Second
	defaultUserAgent     = "transcribe-worker"
)

// Config configures the HTTP client.
type Config struct {
	// BaseURL is prepended to relative request URLs.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// HeaderTimeout bounds the wait for response headers. The body stream
	// itself is bounded only by the request context.
	HeaderTimeout time.Duration `yaml:"header_timeout" mapstructure:"header_timeout"`

	// UserAgent is sent on every request.
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`

	// Headers are default headers applied to all requests.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// RateLimit caps outbound requests per second. Zero disables it.
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`

	// RateBurst is the token bucket size when RateLimit is set.
	RateBurst int `yaml:"rate_burst" mapstructure:"rate_burst"`

	// TLS trusts a private CA or presents a client certificate to media hosts.
	TLS *security.TLSConfig `yaml:"tls" mapstructure:"tls"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.HeaderTimeout <= 0 {
		c.HeaderTimeout = defaultHeaderTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.HeaderTimeout <= 0 {
		return fmt.Errorf("httpclient: header_timeout must be positive")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("httpclient: rate_limit must not be negative")
	}
	if err := c.TLS.Validate(); err != nil {
		return fmt.Errorf("httpclient: %w", err)
	}
	return nil
}

// rateLimiter returns the limiter config, or nil when rate limiting is off.
func (c *Config) rateLimiter() *resilience.RateLimiterConfig {
	if c.RateLimit <= 0 {
		return nil
	}
	cfg := resilience.RateLimiterConfig{Name: "fetch", Rate: c.RateLimit, Burst: c.RateBurst}
	return &cfg
}
