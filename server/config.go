package server

import (
	"fmt"

	"github.com/kbukum/transcribe-worker/security"
)

// Config holds HTTP server configuration.
type Config struct {
	Host         string `mapstructure:"host" json:"host"`
	Port         int    `mapstructure:"port" json:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout" json:"read_timeout"`   // seconds
	WriteTimeout int    `mapstructure:"write_timeout" json:"write_timeout"` // seconds
	IdleTimeout  int    `mapstructure:"idle_timeout" json:"idle_timeout"`   // seconds
	MaxBodyBytes int64  `mapstructure:"max_body_bytes" json:"max_body_bytes"`

	Auth AuthConfig         `mapstructure:"auth" json:"auth"`
	TLS  security.TLSConfig `mapstructure:"tls" json:"-"`
}

// AuthConfig protects the job API with HS256 bearer tokens.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled" json:"enabled"`
	Secret  string `mapstructure:"secret" json:"-"`
	Issuer  string `mapstructure:"issuer" json:"issuer"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 15
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = 64 << 10
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535 (got: %d)", c.Port)
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("server.read_timeout must be non-negative (got: %d)", c.ReadTimeout)
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("server.write_timeout must be non-negative (got: %d)", c.WriteTimeout)
	}
	if c.IdleTimeout < 0 {
		return fmt.Errorf("server.idle_timeout must be non-negative (got: %d)", c.IdleTimeout)
	}
	if c.Auth.Enabled && len(c.Auth.Secret) < 16 {
		return fmt.Errorf("server.auth.secret must be at least 16 bytes when auth is enabled")
	}
	if err := c.TLS.Validate(); err != nil {
		return fmt.Errorf("server.tls: %w", err)
	}
	return nil
}
