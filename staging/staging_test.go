package staging

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/transcribe-worker/errors"
	"github.com/kbukum/transcribe-worker/httpclient"
	"github.com/kbukum/transcribe-worker/logger"
	"github.com/kbukum/transcribe-worker/storage"
	"github.com/kbukum/transcribe-worker/storage/local"
)

type fakeBucket struct {
	mu          sync.Mutex
	objects     map[string][]byte
	types       map[string]string
	ensureCalls int
	ensureErr   error
	uploadErr   error
	deleteErr   error
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: map[string][]byte{}, types: map[string]string{}}
}

func (b *fakeBucket) Bucket() string         { return "staging" }
func (b *fakeBucket) URI(name string) string { return "gs://staging/" + name }

func (b *fakeBucket) EnsureBucket(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureCalls++
	return b.ensureErr
}

func (b *fakeBucket) UploadWithType(_ context.Context, name string, r io.Reader, ct string) error {
	if b.uploadErr != nil {
		return b.uploadErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[name] = data
	b.types[name] = ct
	return nil
}

func (b *fakeBucket) Delete(_ context.Context, name string) error {
	if b.deleteErr != nil {
		return b.deleteErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, name)
	return nil
}

func mediaServer(t *testing.T, body []byte, contentType string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/missing.wav") {
			http.NotFound(w, r)
			return
		}
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newFetcher(t *testing.T, srv *httptest.Server) *httpclient.Client {
	t.Helper()
	c, err := httpclient.NewWithHTTPClient(srv.Client(), httpclient.Config{})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestStage(t *testing.T) {
	audio := bytes.Repeat([]byte("fLaC"), 4096)
	srv := mediaServer(t, audio, "application/octet-stream")
	bucket := newFakeBucket()
	s := New(bucket, newFetcher(t, srv), logger.NewNop())

	obj, err := s.Stage(context.Background(), srv.URL+"/media/Interview.FLAC?sig=abc")
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}

	if !strings.HasSuffix(obj.Name, ".FLAC") || len(obj.Name) != 36+len(".FLAC") {
		t.Errorf("unexpected staged name %q", obj.Name)
	}
	if obj.URI != "gs://staging/"+obj.Name || obj.Bucket != "staging" {
		t.Errorf("unexpected object %+v", obj)
	}
	if obj.Bytes != int64(len(audio)) {
		t.Errorf("Bytes = %d, want %d", obj.Bytes, len(audio))
	}
	if !bytes.Equal(bucket.objects[obj.Name], audio) {
		t.Error("staged content differs from source")
	}
	if ct := bucket.types[obj.Name]; ct != "audio/flac" {
		t.Errorf("content type = %q, want audio/flac from extension", ct)
	}

	second, err := s.Stage(context.Background(), srv.URL+"/media/Interview.FLAC")
	if err != nil {
		t.Fatal(err)
	}
	if second.Name == obj.Name {
		t.Error("staged names must be unique per call")
	}
}

func TestStage_KeepsSpecificSourceContentType(t *testing.T) {
	srv := mediaServer(t, []byte("OggS"), "audio/ogg; codecs=opus")
	bucket := newFakeBucket()
	obj, err := New(bucket, newFetcher(t, srv), nil).Stage(context.Background(), srv.URL+"/a.opus")
	if err != nil {
		t.Fatal(err)
	}
	if ct := bucket.types[obj.Name]; ct != "audio/ogg; codecs=opus" {
		t.Errorf("content type = %q", ct)
	}
}

func TestStage_Failures(t *testing.T) {
	srv := mediaServer(t, []byte("data"), "")

	tests := []struct {
		name   string
		source string
		bucket *fakeBucket
	}{
		{"fetch 404", srv.URL + "/missing.wav", newFakeBucket()},
		{"unreachable", "http://127.0.0.1:1/a.wav", newFakeBucket()},
		{"upload error", srv.URL + "/a.wav", &fakeBucket{objects: map[string][]byte{}, uploadErr: stderrors.New("quota")}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.bucket, newFetcher(t, srv), nil).Stage(context.Background(), tc.source)
			if !errors.IsCode(err, errors.ErrCodeStagingFailed) {
				t.Fatalf("expected STAGING_FAILED, got %v", err)
			}
			if len(tc.bucket.objects) != 0 {
				t.Error("nothing should be staged on failure")
			}
		})
	}
}

func TestEnsureBucket(t *testing.T) {
	bucket := newFakeBucket()
	s := New(bucket, nil, nil)
	if err := s.EnsureBucket(context.Background()); err != nil {
		t.Fatal(err)
	}
	bucket.ensureErr = stderrors.New("permission denied")
	if err := s.EnsureBucket(context.Background()); !errors.IsCode(err, errors.ErrCodeStagingFailed) {
		t.Fatalf("expected STAGING_FAILED, got %v", err)
	}
}

func TestRelease(t *testing.T) {
	bucket := newFakeBucket()
	bucket.objects["x.wav"] = []byte("a")
	s := New(bucket, nil, nil)

	if err := s.Release(context.Background(), &StagedObject{Name: "x.wav", URI: "gs://staging/x.wav"}); err != nil {
		t.Fatal(err)
	}
	if _, ok := bucket.objects["x.wav"]; ok {
		t.Error("object not deleted")
	}
	if err := s.Release(context.Background(), nil); err != nil {
		t.Errorf("nil object: %v", err)
	}

	bucket.deleteErr = stderrors.New("backend down")
	err := s.Release(context.Background(), &StagedObject{Name: "y.wav"})
	if !errors.IsCode(err, errors.ErrCodeCleanupFailed) {
		t.Fatalf("expected CLEANUP_FAILED, got %v", err)
	}
}

func TestSweeper_Sweep(t *testing.T) {
	dir := t.TempDir()
	store, err := local.NewStorage(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	now := time.Now()

	for name, age := range map[string]time.Duration{
		"old.flac":    48 * time.Hour,
		"older.wav":   100 * time.Hour,
		"fresh.ogg":   time.Hour,
		"just-in.amr": 0,
	} {
		if err := store.Upload(ctx, name, strings.NewReader("x")); err != nil {
			t.Fatal(err)
		}
		mtime := now.Add(-age)
		if err := os.Chtimes(filepath.Join(dir, name), mtime, mtime); err != nil {
			t.Fatal(err)
		}
	}

	sw := NewSweeper(SweeperConfig{MaxAge: 24 * time.Hour}, func(context.Context) (storage.Storage, error) {
		return store, nil
	}, nil)
	sw.now = func() time.Time { return now }

	removed, err := sw.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	for name, want := range map[string]bool{"old.flac": false, "older.wav": false, "fresh.ogg": true, "just-in.amr": true} {
		if ok, _ := store.Exists(ctx, name); ok != want {
			t.Errorf("%s exists = %v, want %v", name, ok, want)
		}
	}
}

func TestSweeper_OpenError(t *testing.T) {
	sw := NewSweeper(SweeperConfig{}, func(context.Context) (storage.Storage, error) {
		return nil, stderrors.New("no credentials")
	}, nil)
	if _, err := sw.Sweep(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestSweeper_Lifecycle(t *testing.T) {
	ctx := context.Background()
	var mu sync.Mutex
	sweeps := 0
	sw := NewSweeper(SweeperConfig{Enabled: true, Interval: 5 * time.Millisecond}, func(context.Context) (storage.Storage, error) {
		mu.Lock()
		sweeps++
		mu.Unlock()
		return nil, stderrors.New("skip")
	}, nil)

	if err := sw.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := sw.Start(ctx); err == nil {
		t.Error("second Start should fail")
	}
	time.Sleep(30 * time.Millisecond)
	if err := sw.Stop(ctx); err != nil {
		t.Fatal(err)
	}
	if err := sw.Stop(ctx); err != nil {
		t.Fatalf("second Stop: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if sweeps < 2 {
		t.Errorf("expected repeated sweeps, got %d", sweeps)
	}
}

func TestSweeper_DisabledDoesNothing(t *testing.T) {
	sw := NewSweeper(SweeperConfig{}, func(context.Context) (storage.Storage, error) {
		t.Error("disabled sweeper must not open the bucket")
		return nil, nil
	}, nil)
	if err := sw.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := sw.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}
	if h := sw.Health(context.Background()); h.Message != "disabled" {
		t.Errorf("health = %+v", h)
	}
}
