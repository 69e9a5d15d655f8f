package gcs

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

type fakeObject struct {
	contentType string
	data        []byte
}

// fakeGCS serves the subset of the JSON API the client uses.
type fakeGCS struct {
	mu          sync.Mutex
	buckets     map[string]bool
	objects     map[string]fakeObject
	insertCalls int
	failUpload  bool
}

func newFakeGCS() *fakeGCS {
	return &fakeGCS{buckets: map[string]bool{}, objects: map[string]fakeObject{}}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": code, "message": msg}})
}

func (f *fakeGCS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/storage/v1/b":
		f.insertCalls++
		var b struct {
			Name     string `json:"name"`
			Location string `json:"location"`
		}
		json.NewDecoder(r.Body).Decode(&b)
		if r.URL.Query().Get("project") != "proj-1" {
			writeError(w, http.StatusBadRequest, "missing project")
			return
		}
		if f.buckets[b.Name] {
			writeError(w, http.StatusConflict, "You already own this bucket.")
			return
		}
		f.buckets[b.Name] = true
		json.NewEncoder(w).Encode(map[string]string{"name": b.Name, "location": b.Location})

	case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/upload/storage/v1/b/staging/o"):
		if f.failUpload {
			writeError(w, http.StatusServiceUnavailable, "backend error")
			return
		}
		name, obj, err := readMultipartUpload(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		f.objects[name] = obj
		json.NewEncoder(w).Encode(map[string]any{"name": name, "bucket": "staging", "size": strconv.Itoa(len(obj.data))})

	case r.Method == http.MethodGet && r.URL.Path == "/storage/v1/b/staging/o":
		prefix := r.URL.Query().Get("prefix")
		var items []map[string]any
		for name, obj := range f.objects {
			if strings.HasPrefix(name, prefix) {
				items = append(items, map[string]any{
					"name":        name,
					"size":        strconv.Itoa(len(obj.data)),
					"contentType": obj.contentType,
					"updated":     "2024-05-01T10:00:00.000Z",
				})
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"kind": "storage#objects", "items": items})

	case strings.HasPrefix(r.URL.Path, "/storage/v1/b/staging/o/"):
		name := strings.TrimPrefix(r.URL.Path, "/storage/v1/b/staging/o/")
		obj, ok := f.objects[name]
		switch r.Method {
		case http.MethodDelete:
			if !ok {
				writeError(w, http.StatusNotFound, "No such object")
				return
			}
			delete(f.objects, name)
			w.WriteHeader(http.StatusNoContent)
		case http.MethodGet:
			if !ok {
				writeError(w, http.StatusNotFound, "No such object")
				return
			}
			if r.URL.Query().Get("alt") == "media" {
				w.Write(obj.data)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"name": name, "bucket": "staging"})
		}

	default:
		writeError(w, http.StatusNotFound, "unexpected "+r.Method+" "+r.URL.Path)
	}
}

func readMultipartUpload(r *http.Request) (string, fakeObject, error) {
	_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return "", fakeObject{}, err
	}
	mr := multipart.NewReader(r.Body, params["boundary"])

	meta, err := mr.NextPart()
	if err != nil {
		return "", fakeObject{}, err
	}
	var m struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(meta).Decode(&m); err != nil {
		return "", fakeObject{}, err
	}

	media, err := mr.NextPart()
	if err != nil {
		return "", fakeObject{}, err
	}
	data, err := io.ReadAll(media)
	if err != nil {
		return "", fakeObject{}, err
	}
	return m.Name, fakeObject{contentType: media.Header.Get("Content-Type"), data: data}, nil
}

func newTestStorage(t *testing.T, fake *fakeGCS) *Storage {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := New(context.Background(), srv.Client(), Config{
		Bucket:    "staging",
		ProjectID: "proj-1",
		Location:  "EU",
		Endpoint:  srv.URL + "/storage/v1/",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestEnsureBucketIsIdempotent(t *testing.T) {
	fake := newFakeGCS()
	s := newTestStorage(t, fake)

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.EnsureBucket(context.Background())
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("EnsureBucket: %v", err)
		}
	}
	if !fake.buckets["staging"] {
		t.Error("expected bucket to be created")
	}
	if fake.insertCalls != 5 {
		t.Errorf("expected 5 insert attempts, got %d", fake.insertCalls)
	}
}

func TestEnsureBucketPropagatesOtherErrors(t *testing.T) {
	fake := newFakeGCS()
	s := newTestStorage(t, fake)
	s.cfg.ProjectID = "other"

	if err := s.EnsureBucket(context.Background()); err == nil {
		t.Fatal("expected error for rejected bucket insert")
	}
}

func TestUploadDownloadDelete(t *testing.T) {
	fake := newFakeGCS()
	s := newTestStorage(t, fake)
	ctx := context.Background()

	body := strings.Repeat("RIFF....WAVE", 1000)
	if err := s.Upload(ctx, "0f8fad5b.wav", strings.NewReader(body)); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	obj := fake.objects["0f8fad5b.wav"]
	if string(obj.data) != body {
		t.Errorf("uploaded %d bytes, want %d", len(obj.data), len(body))
	}
	if obj.contentType != "audio/wav" {
		t.Errorf("unexpected content type %q", obj.contentType)
	}

	ok, err := s.Exists(ctx, "0f8fad5b.wav")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}

	rc, err := s.Download(ctx, "0f8fad5b.wav")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	got, _ := io.ReadAll(rc)
	rc.Close()
	if string(got) != body {
		t.Error("downloaded content mismatch")
	}

	if err := s.Delete(ctx, "0f8fad5b.wav"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "0f8fad5b.wav"); err != nil {
		t.Fatalf("Delete of missing object should succeed: %v", err)
	}
	if ok, err := s.Exists(ctx, "0f8fad5b.wav"); err != nil || ok {
		t.Errorf("Exists after delete = %v, %v", ok, err)
	}
}

func TestUploadFailure(t *testing.T) {
	fake := newFakeGCS()
	fake.failUpload = true
	s := newTestStorage(t, fake)

	if err := s.Upload(context.Background(), "a.flac", strings.NewReader("x")); err == nil {
		t.Fatal("expected upload error")
	}
}

func TestList(t *testing.T) {
	fake := newFakeGCS()
	fake.objects["a.flac"] = fakeObject{contentType: "audio/flac", data: []byte("abc")}
	fake.objects["b.wav"] = fakeObject{contentType: "audio/wav", data: []byte("d")}
	s := newTestStorage(t, fake)

	files, err := s.List(context.Background(), "a")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(files) != 1 || files[0].Path != "a.flac" || files[0].Size != 3 {
		t.Fatalf("unexpected listing %+v", files)
	}
	if files[0].LastModified.IsZero() {
		t.Error("expected updated timestamp to be parsed")
	}
}

func TestURIAndURL(t *testing.T) {
	s := newTestStorage(t, newFakeGCS())
	if got := s.URI("abc.ogg"); got != "gs://staging/abc.ogg" {
		t.Errorf("URI = %q", got)
	}
	if got, _ := s.URL(context.Background(), "abc.ogg"); got != "https://storage.googleapis.com/staging/abc.ogg" {
		t.Errorf("URL = %q", got)
	}
	if s.Bucket() != "staging" {
		t.Errorf("Bucket = %q", s.Bucket())
	}
}

func TestConfigValidate(t *testing.T) {
	c := Config{}
	c.ApplyDefaults()
	if c.Location != DefaultLocation || c.StorageClass != DefaultStorageClass || c.ChunkSize == 0 {
		t.Errorf("unexpected defaults %+v", c)
	}
	if err := c.Validate(); err == nil {
		t.Error("expected error for empty bucket and project")
	}
	if _, err := New(context.Background(), http.DefaultClient, Config{Bucket: "b"}); err == nil {
		t.Error("New should validate config")
	}
}
