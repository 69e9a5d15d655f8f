package s3

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/transcribe-worker/logger"
	"github.com/kbukum/transcribe-worker/storage"
)

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]string
	deleted []string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.TrimPrefix(r.URL.Path, "/outputs/")
	switch r.Method {
	case http.MethodHead, http.MethodGet:
		body, ok := f.objects[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodGet {
			io.WriteString(w, body)
		}
	case http.MethodDelete:
		f.deleted = append(f.deleted, key)
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestStorage(t *testing.T, h http.Handler) *Storage {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	s, err := NewStorage(context.Background(), &Config{
		Bucket:    "outputs",
		Region:    "eu-west-1",
		Endpoint:  srv.URL,
		AccessKey: "AKIDEXAMPLE",
		SecretKey: "secret",
	})
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	return s
}

func TestSignedURL(t *testing.T) {
	s := newTestStorage(t, &fakeS3{})

	raw, err := s.SignedURL(context.Background(), "transcripts/2024-05-01T10-00-00/talk.vtt", 12*time.Hour)
	if err != nil {
		t.Fatalf("SignedURL: %v", err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse signed url: %v", err)
	}
	if u.Path != "/outputs/transcripts/2024-05-01T10-00-00/talk.vtt" {
		t.Errorf("unexpected path %q", u.Path)
	}
	q := u.Query()
	if q.Get("X-Amz-Expires") != "43200" {
		t.Errorf("expected 12h expiry, got %q", q.Get("X-Amz-Expires"))
	}
	if q.Get("X-Amz-Signature") == "" {
		t.Error("expected a signature")
	}
}

func TestExistsDownloadDelete(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{"config/google.json": `{"project_id":"p"}`}}
	s := newTestStorage(t, fake)
	ctx := context.Background()

	ok, err := s.Exists(ctx, "config/google.json")
	if err != nil || !ok {
		t.Fatalf("Exists(existing) = %v, %v", ok, err)
	}
	ok, err = s.Exists(ctx, "config/missing.json")
	if err != nil || ok {
		t.Fatalf("Exists(missing) = %v, %v", ok, err)
	}

	data, err := storage.ReadAll(ctx, s, "config/google.json", 0)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != `{"project_id":"p"}` {
		t.Errorf("unexpected body %q", data)
	}

	if err := s.Delete(ctx, "config/google.json"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(fake.deleted) != 1 || fake.deleted[0] != "config/google.json" {
		t.Errorf("unexpected deletes %v", fake.deleted)
	}
}

func TestURL(t *testing.T) {
	s := newTestStorage(t, &fakeS3{})
	got, err := s.URL(context.Background(), "a/b.json")
	if err != nil {
		t.Fatalf("URL: %v", err)
	}
	if !strings.HasSuffix(got, "/outputs/a/b.json") {
		t.Errorf("unexpected url %q", got)
	}
}

func TestFactoryUsesCoreConfig(t *testing.T) {
	srv := httptest.NewServer(&fakeS3{})
	defer srv.Close()

	st, err := storage.New(context.Background(), storage.Config{
		Provider:  storage.ProviderS3,
		Bucket:    "outputs",
		Region:    "eu-west-1",
		Endpoint:  srv.URL,
		AccessKey: "AKIDEXAMPLE",
		SecretKey: "secret",
	}, nil, logger.NewNop())
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	if _, ok := st.(storage.SignedURLProvider); !ok {
		t.Error("s3 storage should provide signed URLs")
	}
}

func TestFactoryRejectsWrongProviderConfig(t *testing.T) {
	_, err := storage.New(context.Background(), storage.Config{
		Provider: storage.ProviderS3,
		Bucket:   "outputs",
	}, "not a config", logger.NewNop())
	if err == nil {
		t.Fatal("expected error for wrong provider config type")
	}
}

func TestConfigValidate(t *testing.T) {
	c := &Config{}
	c.ApplyDefaults()
	if c.Region != DefaultRegion {
		t.Errorf("expected default region, got %q", c.Region)
	}
	if err := c.Validate(); err == nil {
		t.Error("expected error for missing bucket")
	}
}
