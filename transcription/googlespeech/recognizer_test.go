package googlespeech

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/transcribe-worker/errors"
	"github.com/kbukum/transcribe-worker/logger"
	"github.com/kbukum/transcribe-worker/transcription"
)

const doneResponse = `{
  "@type": "type.googleapis.com/google.cloud.speech.v1.LongRunningRecognizeResponse",
  "results": [
    {"alternatives": [
       {"transcript": "Hello world.", "confidence": 0.92, "words": [
         {"word": "Hello", "startTime": "0s", "endTime": "0.400s"},
         {"word": "world.", "startTime": "0.400s", "endTime": "1.300s"}
       ]},
       {"transcript": "Yellow world", "confidence": 0.4}
     ], "channelTag": 1, "languageCode": "en-us"},
    {"alternatives": [
       {"transcript": "Bye", "confidence": 0.8, "words": [
         {"word": "Bye", "startTime": "3725.5s", "endTime": "3726s"}
       ]}
     ], "channelTag": 2}
  ]
}`

type fakeSpeech struct {
	pendingPolls int32
	polls        int32
	submits      int32
	mu           sync.Mutex
	lastRequest  map[string]any
	opError      bool
	response     string
	failPoll     bool
}

func (f *fakeSpeech) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/v1/speech:longrunningrecognize":
		atomic.AddInt32(&f.submits, 1)
		f.mu.Lock()
		json.NewDecoder(r.Body).Decode(&f.lastRequest)
		f.mu.Unlock()
		if f.pendingPolls == 0 {
			f.writeDone(w)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"name": "op-123"})

	case r.Method == http.MethodGet && r.URL.Path == "/v1/operations/op-123":
		n := atomic.AddInt32(&f.polls, 1)
		if f.failPoll {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":{"code":500,"message":"backend"}}`))
			return
		}
		if n < f.pendingPolls {
			json.NewEncoder(w).Encode(map[string]any{"name": "op-123", "done": false})
			return
		}
		f.writeDone(w)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeSpeech) writeDone(w http.ResponseWriter) {
	if f.opError {
		w.Write([]byte(`{"name":"op-123","done":true,"error":{"code":3,"message":"bad encoding"}}`))
		return
	}
	resp := f.response
	if resp == "" {
		resp = doneResponse
	}
	w.Write([]byte(`{"name":"op-123","done":true,"response":` + resp + `}`))
}

func newTestRecognizer(t *testing.T, fake *fakeSpeech) *Recognizer {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	r, err := New(context.Background(), srv.Client(), Config{
		Endpoint:    srv.URL + "/",
		PollInitial: time.Millisecond,
		PollMax:     5 * time.Millisecond,
	}, logger.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

var testConfig = transcription.RecognitionConfig{
	Encoding:                   transcription.EncodingFLAC,
	LanguageCode:               "en-US",
	AudioChannelCount:          2,
	EnableAutomaticPunctuation: true,
	EnableWordTimeOffsets:      true,
}

func TestRecognize_PollsUntilDone(t *testing.T) {
	fake := &fakeSpeech{pendingPolls: 3}
	r := newTestRecognizer(t, fake)

	result, err := r.Recognize(context.Background(), "gs://staging/abc.flac", testConfig)
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if n := atomic.LoadInt32(&fake.submits); n != 1 {
		t.Errorf("expected a single submission, got %d", n)
	}
	if n := atomic.LoadInt32(&fake.polls); n != 3 {
		t.Errorf("expected 3 polls, got %d", n)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	cfg, _ := fake.lastRequest["config"].(map[string]any)
	audio, _ := fake.lastRequest["audio"].(map[string]any)
	if audio["uri"] != "gs://staging/abc.flac" {
		t.Errorf("unexpected audio %v", audio)
	}
	if cfg["encoding"] != "FLAC" || cfg["languageCode"] != "en-US" ||
		cfg["audioChannelCount"] != "2" && cfg["audioChannelCount"] != float64(2) ||
		cfg["enableAutomaticPunctuation"] != true || cfg["enableWordTimeOffsets"] != true {
		t.Errorf("unexpected config %v", cfg)
	}

	if len(result.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(result.Segments))
	}
	words := result.Words()
	if len(words) != 3 {
		t.Fatalf("expected 3 words from top alternatives, got %d", len(words))
	}
	if words[1].Start != 400*time.Millisecond || words[1].End != 1300*time.Millisecond {
		t.Errorf("unexpected offsets %+v", words[1])
	}
	if words[2].Start != time.Hour+2*time.Minute+5500*time.Millisecond {
		t.Errorf("unexpected long offset %v", words[2].Start)
	}
	if result.Segments[1].ChannelTag != 2 || result.Segments[0].LanguageCode != "en-us" {
		t.Errorf("segment metadata lost: %+v", result.Segments)
	}
	if !strings.Contains(string(result.Raw), "LongRunningRecognizeResponse") {
		t.Error("expected raw response document to be kept")
	}
}

func TestRecognize_DoneOnSubmit(t *testing.T) {
	fake := &fakeSpeech{}
	r := newTestRecognizer(t, fake)

	if _, err := r.Recognize(context.Background(), "gs://staging/a.wav", testConfig); err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if n := atomic.LoadInt32(&fake.polls); n != 0 {
		t.Errorf("expected no polls, got %d", n)
	}
}

func TestRecognize_EmptyResponse(t *testing.T) {
	fake := &fakeSpeech{response: `{}`}
	r := newTestRecognizer(t, fake)

	result, err := r.Recognize(context.Background(), "gs://staging/a.wav", testConfig)
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if len(result.Words()) != 0 {
		t.Errorf("expected no words, got %v", result.Words())
	}
}

func TestRecognize_Failures(t *testing.T) {
	tests := []struct {
		name string
		fake *fakeSpeech
	}{
		{"operation error", &fakeSpeech{pendingPolls: 1, opError: true}},
		{"poll transport error", &fakeSpeech{pendingPolls: 2, failPoll: true}},
		{"bad offset", &fakeSpeech{response: `{"results":[{"alternatives":[{"words":[{"word":"x","startTime":"soon"}]}]}]}`}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRecognizer(t, tc.fake)
			_, err := r.Recognize(context.Background(), "gs://staging/a.wav", testConfig)
			if !errors.IsCode(err, errors.ErrCodeRecognitionFailed) {
				t.Fatalf("expected RECOGNITION_FAILED, got %v", err)
			}
			if n := atomic.LoadInt32(&tc.fake.submits); n != 1 {
				t.Errorf("submission must not be retried, got %d", n)
			}
		})
	}
}

func TestRecognize_PollFailureIsNotRetried(t *testing.T) {
	fake := &fakeSpeech{pendingPolls: 5, failPoll: true}
	r := newTestRecognizer(t, fake)

	if _, err := r.Recognize(context.Background(), "gs://staging/a.wav", testConfig); err == nil {
		t.Fatal("expected error")
	}
	if n := atomic.LoadInt32(&fake.polls); n != 1 {
		t.Errorf("expected exactly one poll before giving up, got %d", n)
	}
}

func TestRecognize_ContextCanceledWhileWaiting(t *testing.T) {
	fake := &fakeSpeech{pendingPolls: 1 << 20}
	r := newTestRecognizer(t, fake)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := r.Recognize(ctx, "gs://staging/a.wav", testConfig)
	if !errors.IsCode(err, errors.ErrCodeRecognitionFailed) {
		t.Fatalf("expected RECOGNITION_FAILED, got %v", err)
	}
}

func TestParseOffset(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", 0},
		{"0s", 0},
		{"1.300s", 1300 * time.Millisecond},
		{"12s", 12 * time.Second},
		{"0.000000001s", time.Nanosecond},
	}
	for _, tc := range tests {
		got, err := parseOffset(tc.in)
		if err != nil || got != tc.want {
			t.Errorf("parseOffset(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
	}
}

func TestConfigDefaults(t *testing.T) {
	c := Config{PollInitial: time.Minute}
	c.ApplyDefaults()
	if c.PollMax != time.Minute {
		t.Errorf("PollMax should be raised to PollInitial, got %v", c.PollMax)
	}
	c = Config{}
	c.ApplyDefaults()
	if c.PollInitial != DefaultPollInitial || c.PollMax != DefaultPollMax {
		t.Errorf("unexpected defaults %+v", c)
	}
}
