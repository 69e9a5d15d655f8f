// Command transcribe-worker serves the job API and runs transcription jobs
// against Google Cloud Speech.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/kbukum/transcribe-worker/bootstrap"
	"github.com/kbukum/transcribe-worker/config"
	"github.com/kbukum/transcribe-worker/credentials"
	"github.com/kbukum/transcribe-worker/database"
	"github.com/kbukum/transcribe-worker/httpclient"
	"github.com/kbukum/transcribe-worker/job"
	jobredis "github.com/kbukum/transcribe-worker/job/redis"
	jobsqlite "github.com/kbukum/transcribe-worker/job/sqlite"
	"github.com/kbukum/transcribe-worker/observability"
	"github.com/kbukum/transcribe-worker/output"
	"github.com/kbukum/transcribe-worker/redis"
	"github.com/kbukum/transcribe-worker/server"
	"github.com/kbukum/transcribe-worker/server/handler"
	"github.com/kbukum/transcribe-worker/server/middleware"
	"github.com/kbukum/transcribe-worker/staging"
	"github.com/kbukum/transcribe-worker/storage"
	_ "github.com/kbukum/transcribe-worker/storage/local"
	_ "github.com/kbukum/transcribe-worker/storage/s3"
	"github.com/kbukum/transcribe-worker/version"
	"github.com/kbukum/transcribe-worker/worker"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg Config
	if err := config.LoadConfig(serviceName, &cfg); err != nil {
		return err
	}
	if cfg.Version == "" {
		cfg.Version = version.GetShortVersion()
	}

	app, err := bootstrap.NewApp(&cfg)
	if err != nil {
		return err
	}
	app.Logger.Info("Build", version.GetVersionInfo().Fields())

	obs := cfg.Observability
	obs.ServiceName, obs.ServiceVersion, obs.Environment = cfg.Name, cfg.Version, cfg.Environment
	shutdownTelemetry, err := observability.Setup(ctx, obs, app.Logger)
	if err != nil {
		return err
	}
	app.OnStop(func(ctx context.Context) error {
		flushCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return shutdownTelemetry(flushCtx)
	})

	metrics, err := observability.NewMetrics(observability.Meter())
	if err != nil {
		return err
	}

	store := storage.NewComponent("output-store", cfg.Storage, nil, app.Logger)
	if err := app.RegisterComponent(store); err != nil {
		return err
	}

	var h history
	switch {
	case cfg.Redis.Enabled:
		h.redis = redis.NewComponent(cfg.Redis, app.Logger)
		err = app.RegisterComponent(h.redis)
	case cfg.History.Enabled:
		h.sqlite = database.NewComponent(cfg.History, app.Logger).WithAutoMigrate(jobsqlite.Model())
		err = app.RegisterComponent(h.sqlite)
	}
	if err != nil {
		return err
	}

	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*Config]) error {
		return wire(a, store.Storage(), h.store(), metrics)
	})

	return app.Run(ctx)
}

// history holds whichever job history backend is configured.
type history struct {
	sqlite *database.Component
	redis  *redis.Component
}

// store returns the job store over the started backend, or an in-memory one.
func (h history) store() job.Store {
	switch {
	case h.redis != nil:
		return jobredis.New(h.redis.Client())
	case h.sqlite != nil:
		return jobsqlite.New(h.sqlite.DB())
	}
	return job.NewMemoryStore()
}

// wire builds the pipeline on top of the started infrastructure. The pool is
// registered before the server, so on shutdown the server stops taking jobs
// before in-flight ones are drained.
func wire(a *bootstrap.App[*Config], store storage.Storage, jobs job.Store, metrics *observability.Metrics) error {
	cfg, log := a.Cfg, a.Logger

	source, err := credentials.NewSource(cfg.Credentials, store, log)
	if err != nil {
		return err
	}
	fetch, err := httpclient.New(cfg.Fetch)
	if err != nil {
		return err
	}

	connector := worker.NewGoogleConnector(source, fetch, cfg.Google, log)
	writer := output.NewWriter(store, cfg.Output, log)
	w := worker.New(connector, writer, cfg.Recognition, log, worker.WithMetrics(metrics))
	pool := worker.NewPool(w, cfg.Workers, log)

	srv := server.New(cfg.Server, log)
	srv.ApplyDefaults(a.Name, a.Components.HealthAll, metrics)
	api := srv.GinEngine().Group("/v1")
	if cfg.Server.Auth.Enabled {
		api.Use(middleware.Auth(middleware.AuthConfig{
			TokenValidator: middleware.HS256Validator([]byte(cfg.Server.Auth.Secret), cfg.Server.Auth.Issuer),
		}))
	}
	handler.NewJobs(jobs, pool, log).Register(api)

	if err := a.RegisterComponent(pool); err != nil {
		return err
	}
	if err := a.RegisterComponent(staging.NewSweeper(cfg.Sweeper, connector.OpenBucket, log)); err != nil {
		return err
	}
	return a.RegisterComponent(server.NewComponent(srv))
}
