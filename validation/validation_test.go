package validation

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/kbukum/transcribe-worker/errors"
)

func TestValidatorRequired(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"John", false},
		{"", true},
		{"   ", true},
	}
	for _, tc := range tests {
		if got := New().Required("name", tc.value).HasErrors(); got != tc.wantErr {
			t.Errorf("Required(%q) hasErrors = %v, want %v", tc.value, got, tc.wantErr)
		}
	}
}

func TestValidatorAbsoluteURL(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"https", "https://bucket.s3.amazonaws.com/audio/a.wav", false},
		{"http with port", "http://localhost:9000/a.flac", false},
		{"empty", "", true},
		{"no scheme", "bucket/a.wav", true},
		{"scheme without host", "file:///tmp/a.wav", true},
		{"host-less opaque", "mailto:someone", true},
		{"garbage", "://", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := New().AbsoluteURL("input_file.url", tc.value)
			if v.HasErrors() != tc.wantErr {
				t.Errorf("AbsoluteURL(%q) errors = %v, wantErr %v", tc.value, v.Errors(), tc.wantErr)
			}
		})
	}
}

func TestValidatorUUID(t *testing.T) {
	if New().UUID("id", uuid.NewString()).HasErrors() {
		t.Error("expected valid UUID to pass")
	}
	if !New().UUID("id", "nope").HasErrors() {
		t.Error("expected invalid UUID to fail")
	}
	if !New().UUID("id", uuid.Nil.String()).HasErrors() {
		t.Error("expected nil UUID to fail")
	}
}

func TestValidatorValidate(t *testing.T) {
	if err := New().Required("a", "x").Validate(); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}

	err := New().Required("a", "").Range("workers", 0, 1, 64).Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Code != errors.ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %s", err.Code)
	}
	if !strings.Contains(err.Message, "a: is required") || !strings.Contains(err.Message, "workers: must be between 1 and 64") {
		t.Errorf("unexpected message %q", err.Message)
	}
	fields, ok := err.Details["fields"].([]FieldError)
	if !ok || len(fields) != 2 {
		t.Errorf("expected 2 field errors in details, got %v", err.Details["fields"])
	}
}

type googleSection struct {
	BucketName string `mapstructure:"bucket_name" validate:"required"`
	Channels   int    `mapstructure:"audio_channel_count" validate:"min=1,max=8"`
}

type sampleConfig struct {
	Google googleSection `mapstructure:"google"`
	Mode   string        `json:"mode" validate:"oneof=server once"`
}

func TestValidateStruct(t *testing.T) {
	ok := sampleConfig{Google: googleSection{BucketName: "b", Channels: 2}, Mode: "server"}
	if err := Validate(ok); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	bad := sampleConfig{Google: googleSection{Channels: 9}, Mode: "batch"}
	err := Validate(bad)
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{
		"google.bucket_name: is required",
		"google.audio_channel_count: must be at most 8",
		"mode: must be one of: server once",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}
	if !errors.IsCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT code, got %v", err)
	}
}

func TestToSnakeCase(t *testing.T) {
	if got := toSnakeCase("BucketName"); got != "bucket_name" {
		t.Errorf("toSnakeCase = %q", got)
	}
}
