package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/kbukum/transcribe-worker/component"
	"github.com/kbukum/transcribe-worker/logger"
)

type memStorage struct {
	data   map[string][]byte
	failOn string
}

func (m *memStorage) Upload(_ context.Context, path string, r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.data[path] = b
	return nil
}

func (m *memStorage) Download(_ context.Context, path string) (io.ReadCloser, error) {
	b, ok := m.data[path]
	if !ok {
		return nil, fmt.Errorf("not found: %s", path)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m *memStorage) Delete(_ context.Context, path string) error {
	delete(m.data, path)
	return nil
}

func (m *memStorage) Exists(_ context.Context, path string) (bool, error) {
	if m.failOn == "exists" {
		return false, fmt.Errorf("probe failed")
	}
	_, ok := m.data[path]
	return ok, nil
}

func (m *memStorage) URL(_ context.Context, path string) (string, error) {
	return "mem://" + path, nil
}

func (m *memStorage) List(_ context.Context, prefix string) ([]FileInfo, error) {
	var out []FileInfo
	for k, v := range m.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, FileInfo{Path: k, Size: int64(len(v))})
		}
	}
	return out, nil
}

func TestContentType(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"a/b/talk.json", "application/json"},
		{"a/b/talk.VTT", "text/vtt; charset=utf-8"},
		{"a/b/talk.txt", "text/plain; charset=utf-8"},
		{"0b1c.flac", "audio/flac"},
		{"0b1c.3ga", "audio/amr"},
		{"noext", "application/octet-stream"},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			if got := ContentType(tc.key); got != tc.want {
				t.Errorf("ContentType(%q) = %q, want %q", tc.key, got, tc.want)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults to local", Config{}, false},
		{"s3 needs bucket", Config{Provider: ProviderS3}, true},
		{"s3 ok", Config{Provider: ProviderS3, Bucket: "out"}, false},
		{"s3 half credentials", Config{Provider: ProviderS3, Bucket: "out", AccessKey: "id"}, true},
		{"unknown provider", Config{Provider: "supabase"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tc.cfg
			cfg.ApplyDefaults()
			if err := cfg.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestNewUnregisteredProvider(t *testing.T) {
	factoriesMu.Lock()
	saved := factories
	factories = map[string]Factory{}
	factoriesMu.Unlock()
	defer func() {
		factoriesMu.Lock()
		factories = saved
		factoriesMu.Unlock()
	}()

	_, err := New(context.Background(), Config{Provider: ProviderLocal}, nil, logger.NewNop())
	if err == nil || !strings.Contains(err.Error(), "not registered") {
		t.Fatalf("expected not registered error, got %v", err)
	}
}

func TestComponentLifecycle(t *testing.T) {
	mem := &memStorage{data: map[string][]byte{}}
	RegisterFactory(ProviderLocal, func(context.Context, Config, any, *logger.Logger) (Storage, error) {
		return mem, nil
	})

	c := NewComponent("output-store", Config{Provider: ProviderLocal, Enabled: true}, nil, logger.NewNop())
	if c.Name() != "output-store" {
		t.Errorf("unexpected name %q", c.Name())
	}
	if h := c.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy before start, got %s", h.Status)
	}

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if c.Storage() != mem {
		t.Fatal("expected started storage")
	}
	if h := c.Health(context.Background()); h.Status != component.StatusHealthy {
		t.Errorf("expected healthy, got %s (%s)", h.Status, h.Message)
	}

	mem.failOn = "exists"
	if h := c.Health(context.Background()); h.Status != component.StatusDegraded {
		t.Errorf("expected degraded when probe fails, got %s", h.Status)
	}

	if d := c.Describe(); !strings.Contains(d.Details, "provider=local") {
		t.Errorf("unexpected description %q", d.Details)
	}

	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if c.Storage() != nil {
		t.Error("expected storage to be released on stop")
	}
}

func TestComponentDisabled(t *testing.T) {
	c := NewComponent("output-store", Config{}, nil, logger.NewNop())
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if c.Storage() != nil {
		t.Error("disabled component should not create storage")
	}
	if h := c.Health(context.Background()); h.Message != "disabled" {
		t.Errorf("expected disabled health, got %+v", h)
	}
}
