package bootstrap

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/kbukum/transcribe-worker/component"
	"github.com/kbukum/transcribe-worker/config"
	"github.com/kbukum/transcribe-worker/logger"
)

type testConfig struct {
	config.ServiceConfig `mapstructure:",squash"`
	invalid              bool
}

func (c *testConfig) Validate() error {
	if c.invalid {
		return stderrors.New("invalid")
	}
	return c.ServiceConfig.Validate()
}

// recorder collects lifecycle events across components and hooks.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type fakeComponent struct {
	name     string
	rec      *recorder
	startErr error
	status   component.HealthStatus
}

func (c *fakeComponent) Name() string { return c.name }

func (c *fakeComponent) Start(context.Context) error {
	c.rec.add("start:" + c.name)
	return c.startErr
}

func (c *fakeComponent) Stop(context.Context) error {
	c.rec.add("stop:" + c.name)
	return nil
}

func (c *fakeComponent) Health(context.Context) component.Health {
	status := c.status
	if status == "" {
		status = component.StatusHealthy
	}
	return component.Health{Name: c.name, Status: status}
}

func (c *fakeComponent) Routes() []component.Route {
	return []component.Route{{Method: "GET", Path: "/" + c.name, Handler: "fake"}}
}

func newTestApp(t *testing.T, buf *bytes.Buffer) *App[*testConfig] {
	t.Helper()
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: logger.FormatJSON}, "test", buf)
	app, err := NewApp(&testConfig{ServiceConfig: config.ServiceConfig{Name: "svc", Version: "1.2.3"}},
		WithLogger(log), WithGracefulTimeout(time.Second))
	if err != nil {
		t.Fatalf("NewApp() error: %v", err)
	}
	return app
}

func TestNewApp(t *testing.T) {
	app, err := NewApp(&testConfig{ServiceConfig: config.ServiceConfig{Name: "svc"}})
	if err != nil {
		t.Fatalf("NewApp() error: %v", err)
	}
	if app.Name != "svc" || app.Logger == nil || app.Components == nil {
		t.Errorf("unexpected app: %+v", app)
	}
	if app.Cfg.Environment != "development" {
		t.Errorf("defaults not applied: %q", app.Cfg.Environment)
	}
	if app.gracefulTimeout != DefaultGracefulTimeout {
		t.Errorf("gracefulTimeout = %v", app.gracefulTimeout)
	}
}

func TestNewAppValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  *testConfig
	}{
		{"missing name", &testConfig{}},
		{"bad environment", &testConfig{ServiceConfig: config.ServiceConfig{Name: "svc", Environment: "qa"}}},
		{"custom validation", &testConfig{ServiceConfig: config.ServiceConfig{Name: "svc"}, invalid: true}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewApp(tc.cfg); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestRunLifecycleOrder(t *testing.T) {
	var buf bytes.Buffer
	app := newTestApp(t, &buf)
	rec := &recorder{}

	for _, name := range []string{"store", "pool", "http"} {
		if err := app.RegisterComponent(&fakeComponent{name: name, rec: rec}); err != nil {
			t.Fatal(err)
		}
	}
	app.OnStart(func(context.Context) error { rec.add("onStart"); return nil })
	app.OnConfigure(func(_ context.Context, a *App[*testConfig]) error {
		rec.add("configure:" + a.Cfg.Name)
		return nil
	})
	app.OnReady(func(context.Context) error { rec.add("onReady"); return nil })
	app.OnStop(func(context.Context) error { rec.add("onStop"); return nil })

	ctx, cancel := context.WithCancel(context.Background())
	app.OnReady(func(context.Context) error { cancel(); return nil })

	if err := app.Run(ctx); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	want := []string{
		"start:store", "start:pool", "start:http",
		"onStart", "configure:svc", "onReady",
		"onStop", "stop:http", "stop:pool", "stop:store",
	}
	got := rec.list()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v\nwant %v", got, want)
	}
	if !strings.Contains(buf.String(), `"path":"/http"`) {
		t.Errorf("summary should log routes, got %s", buf.String())
	}
}

func TestRunStartFailure(t *testing.T) {
	var buf bytes.Buffer
	app := newTestApp(t, &buf)
	rec := &recorder{}
	_ = app.RegisterComponent(&fakeComponent{name: "store", rec: rec})
	_ = app.RegisterComponent(&fakeComponent{name: "http", rec: rec, startErr: stderrors.New("port in use")})

	err := app.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "port in use") {
		t.Fatalf("Run() error = %v", err)
	}
	got := strings.Join(rec.list(), ",")
	if got != "start:store,start:http,stop:store" {
		t.Errorf("events = %s", got)
	}
}

func TestConfigureFailureStopsComponents(t *testing.T) {
	var buf bytes.Buffer
	app := newTestApp(t, &buf)
	rec := &recorder{}
	_ = app.RegisterComponent(&fakeComponent{name: "store", rec: rec})
	app.OnConfigure(func(context.Context, *App[*testConfig]) error {
		return stderrors.New("no credentials")
	})

	if err := app.Run(context.Background()); err == nil {
		t.Fatal("expected configure error")
	}
	if got := strings.Join(rec.list(), ","); got != "start:store,stop:store" {
		t.Errorf("events = %s", got)
	}
}

func TestReadyCheck(t *testing.T) {
	var buf bytes.Buffer
	app := newTestApp(t, &buf)
	rec := &recorder{}
	_ = app.RegisterComponent(&fakeComponent{name: "ok", rec: rec})
	if err := app.ReadyCheck(context.Background()); err != nil {
		t.Fatalf("ReadyCheck() = %v", err)
	}

	_ = app.RegisterComponent(&fakeComponent{name: "pool", rec: rec, status: component.StatusDegraded})
	err := app.ReadyCheck(context.Background())
	if err == nil || !strings.Contains(err.Error(), "pool=degraded") {
		t.Errorf("ReadyCheck() = %v", err)
	}
	if got := app.overallHealth(context.Background()); got != component.StatusDegraded {
		t.Errorf("overallHealth() = %s", got)
	}
}

func TestRunTask(t *testing.T) {
	t.Run("returns task error after stopping", func(t *testing.T) {
		var buf bytes.Buffer
		app := newTestApp(t, &buf)
		rec := &recorder{}
		_ = app.RegisterComponent(&fakeComponent{name: "store", rec: rec})

		boom := stderrors.New("sweep failed")
		err := app.RunTask(context.Background(), func(context.Context) error {
			rec.add("task")
			return boom
		})
		if !stderrors.Is(err, boom) {
			t.Errorf("RunTask() = %v", err)
		}
		if got := strings.Join(rec.list(), ","); got != "start:store,task,stop:store" {
			t.Errorf("events = %s", got)
		}
	})

	t.Run("signal cancels task", func(t *testing.T) {
		var buf bytes.Buffer
		app := newTestApp(t, &buf)
		app.signals = make(chan os.Signal, 1)
		app.signals <- syscall.SIGTERM

		err := app.RunTask(context.Background(), func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
		if !stderrors.Is(err, context.Canceled) {
			t.Errorf("RunTask() = %v", err)
		}
	})
}

func TestWaitForSignal(t *testing.T) {
	var buf bytes.Buffer
	app := newTestApp(t, &buf)
	app.signals = make(chan os.Signal, 1)
	app.signals <- syscall.SIGINT

	if sig := app.WaitForSignal(context.Background()); sig != syscall.SIGINT {
		t.Errorf("WaitForSignal() = %v", sig)
	}
}

func TestComponentsRegisteredDuringConfigureStart(t *testing.T) {
	var buf bytes.Buffer
	app := newTestApp(t, &buf)
	rec := &recorder{}
	_ = app.RegisterComponent(&fakeComponent{name: "store", rec: rec})
	app.OnConfigure(func(_ context.Context, a *App[*testConfig]) error {
		return a.RegisterComponent(&fakeComponent{name: "pool", rec: rec})
	})

	ctx, cancel := context.WithCancel(context.Background())
	app.OnReady(func(context.Context) error { cancel(); return nil })
	if err := app.Run(ctx); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if got := strings.Join(rec.list(), ","); got != "start:store,start:pool,stop:pool,stop:store" {
		t.Errorf("events = %s", got)
	}
}
