package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func newJSONLogger(buf *bytes.Buffer, level string) *Logger {
	return NewWithWriter(&Config{Level: level, Format: FormatJSON}, "test-svc", buf)
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	if idx := strings.LastIndex(line, "\n"); idx >= 0 {
		line = line[idx+1:]
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, line)
	}
	return m
}

func TestNewDefault(t *testing.T) {
	l := NewDefault("test-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "test-svc" {
		t.Errorf("expected service 'test-svc', got %q", l.service)
	}
}

func TestNewInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(&buf, "invalid-level")
	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug should be filtered at info level, got %q", buf.String())
	}
	l.Info("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected info message, got %q", buf.String())
	}
}

func TestInfoWritesFields(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(&buf, "debug")
	l.Info("staged", Fields("uri", "gs://b/o.wav", "bytes", 42))

	m := decodeLine(t, &buf)
	if m["message"] != "staged" {
		t.Errorf("unexpected message %v", m["message"])
	}
	if m["uri"] != "gs://b/o.wav" {
		t.Errorf("unexpected uri %v", m["uri"])
	}
	if m[FieldService] != "test-svc" {
		t.Errorf("expected service field, got %v", m[FieldService])
	}
}

func TestScopedLoggers(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(&buf, "info").
		WithComponent("worker").
		WithJob("job-1").
		WithError(errors.New("boom"))
	l.Error("failed")

	m := decodeLine(t, &buf)
	if m[FieldComponent] != "worker" {
		t.Errorf("expected component=worker, got %v", m[FieldComponent])
	}
	if m[FieldJobID] != "job-1" {
		t.Errorf("expected job_id=job-1, got %v", m[FieldJobID])
	}
	if m[FieldError] != "boom" {
		t.Errorf("expected error=boom, got %v", m[FieldError])
	}
	if m["level"] != "error" {
		t.Errorf("expected level=error, got %v", m["level"])
	}
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithRequestID(context.Background(), "req-9")
	ctx = ContextWithJobID(ctx, "job-9")

	newJSONLogger(&buf, "info").WithContext(ctx).Info("hello")

	m := decodeLine(t, &buf)
	if m[FieldRequestID] != "req-9" {
		t.Errorf("expected request_id, got %v", m[FieldRequestID])
	}
	if m[FieldJobID] != "job-9" {
		t.Errorf("expected job_id, got %v", m[FieldJobID])
	}
	if _, ok := m[FieldTraceID]; ok {
		t.Error("trace_id should be absent without a span")
	}
	if got := RequestIDFromContext(ctx); got != "req-9" {
		t.Errorf("RequestIDFromContext = %q", got)
	}
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	newJSONLogger(&buf, "info").WithFields(map[string]interface{}{"bucket": "staging"}).Warn("slow")
	m := decodeLine(t, &buf)
	if m["bucket"] != "staging" {
		t.Errorf("expected bucket field, got %v", m["bucket"])
	}
}

func TestNopLogger(t *testing.T) {
	l := NewNop()
	l.Info("nothing")
	l.WithComponent("x").Error("still nothing")
}

func TestFieldHelpers(t *testing.T) {
	f := Fields("a", 1, "b")
	if len(f) != 1 || f["a"] != 1 {
		t.Errorf("odd trailing key should be dropped, got %v", f)
	}

	ef := ErrorFields("stage", errors.New("x"))
	if ef[FieldOperation] != "stage" || ef[FieldError] != "x" {
		t.Errorf("unexpected error fields %v", ef)
	}

	pf := PhaseFields("recognize", 1500*time.Millisecond)
	if pf[FieldPhase] != "recognize" || pf[FieldDuration] != int64(1500) {
		t.Errorf("unexpected phase fields %v", pf)
	}
}

func TestConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		var c Config
		c.ApplyDefaults()
		if c.Level != "info" || c.Format != FormatConsole || c.Output != "stdout" || !c.Timestamp {
			t.Errorf("unexpected defaults %+v", c)
		}
		if err := c.Validate(); err != nil {
			t.Errorf("defaults should validate: %v", err)
		}
	})

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"json", Config{Level: "debug", Format: FormatJSON}, false},
		{"bad level", Config{Level: "loud", Format: FormatJSON}, true},
		{"bad format", Config{Level: "info", Format: "xml"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
