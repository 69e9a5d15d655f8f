package main

import (
	"errors"
	"fmt"

	"github.com/kbukum/transcribe-worker/config"
	"github.com/kbukum/transcribe-worker/credentials"
	"github.com/kbukum/transcribe-worker/database"
	"github.com/kbukum/transcribe-worker/httpclient"
	"github.com/kbukum/transcribe-worker/observability"
	"github.com/kbukum/transcribe-worker/output"
	"github.com/kbukum/transcribe-worker/redis"
	"github.com/kbukum/transcribe-worker/server"
	"github.com/kbukum/transcribe-worker/staging"
	"github.com/kbukum/transcribe-worker/storage"
	"github.com/kbukum/transcribe-worker/validation"
	"github.com/kbukum/transcribe-worker/worker"
)

const serviceName = "transcribe-worker"

// Config is the full service configuration loaded from
// cmd/transcribe-worker/config.yml and the environment.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config         `mapstructure:"server"`
	Storage       storage.Config        `mapstructure:"storage"`
	Credentials   credentials.Config    `mapstructure:"credentials"`
	Google        worker.GoogleConfig   `mapstructure:"google"`
	Recognition   worker.Config         `mapstructure:"recognition"`
	Output        output.Config         `mapstructure:"output"`
	Workers       worker.PoolConfig     `mapstructure:"workers"`
	History       database.Config       `mapstructure:"history"`
	Redis         redis.Config          `mapstructure:"redis"`
	Sweeper       staging.SweeperConfig `mapstructure:"sweeper"`
	Observability observability.Config  `mapstructure:"observability"`
	Fetch         httpclient.Config     `mapstructure:"fetch"`
}

// ApplyDefaults fills every section. The output store is always on: it
// holds the artifacts and, by default, the credentials document.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Storage.Enabled = true
	c.Storage.ApplyDefaults()
	c.Credentials.ApplyDefaults()
	c.Google.Bucket.ApplyDefaults()
	c.Google.Speech.ApplyDefaults()
	c.Recognition.ApplyDefaults()
	c.Output.ApplyDefaults()
	c.Workers.ApplyDefaults()
	c.History.ApplyDefaults()
	c.Redis.ApplyDefaults()
	c.Sweeper.ApplyDefaults()
	c.Observability.ApplyDefaults()
	c.Fetch.ApplyDefaults()
}

// Validate checks each section, then the struct tags.
func (c *Config) Validate() error {
	checks := []struct {
		section string
		fn      func() error
	}{
		{"service", c.ServiceConfig.Validate},
		{"server", c.Server.Validate},
		{"storage", c.Storage.Validate},
		{"credentials", c.Credentials.Validate},
		{"workers", c.Workers.Validate},
		{"history", c.History.Validate},
		{"redis", c.Redis.Validate},
		{"fetch", c.Fetch.Validate},
	}
	if c.History.Enabled && c.Redis.Enabled {
		return errors.New("history: enable either the sqlite history or redis, not both")
	}
	for _, chk := range checks {
		if err := chk.fn(); err != nil {
			return fmt.Errorf("%s: %w", chk.section, err)
		}
	}
	return validation.Validate(c)
}
