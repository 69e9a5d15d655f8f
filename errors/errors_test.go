package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_New(t *testing.T) {
	err := New(ErrCodeNotFound, "not found", http.StatusNotFound)
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, err.HTTPStatus)
	}
	if err.Retryable {
		t.Error("NOT_FOUND should not be retryable")
	}

	if !New(ErrCodeRecognitionFailed, "boom", http.StatusBadGateway).Retryable {
		t.Error("RECOGNITION_FAILED should be retryable")
	}
}

func TestAppError_ErrorString(t *testing.T) {
	err := New(ErrCodeInternal, "oops", http.StatusInternalServerError)
	if got := err.Error(); got != "INTERNAL_ERROR: oops" {
		t.Errorf("unexpected error string %q", got)
	}

	err.WithCause(fmt.Errorf("disk full"))
	if !strings.Contains(err.Error(), "cause: disk full") {
		t.Errorf("expected cause in error string, got %q", err.Error())
	}
}

func TestAppError_Unwrap(t *testing.T) {
	sentinel := stderrors.New("sentinel")
	err := StagingFailed("https://example.com/a.wav", sentinel)
	if !stderrors.Is(err, sentinel) {
		t.Error("expected errors.Is to find the cause")
	}
	wrapped := fmt.Errorf("outer: %w", err)
	appErr, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AsAppError to unwrap")
	}
	if appErr.Code != ErrCodeStagingFailed {
		t.Errorf("expected STAGING_FAILED, got %s", appErr.Code)
	}
	if appErr.Details["source"] != "https://example.com/a.wav" {
		t.Errorf("unexpected source detail %v", appErr.Details["source"])
	}
}

func TestPipelineConstructors(t *testing.T) {
	cause := stderrors.New("cause")
	tests := []struct {
		name   string
		err    *AppError
		code   ErrorCode
		status int
	}{
		{"unsupported format", UnsupportedFormat("mp3"), ErrCodeUnsupportedFormat, http.StatusUnprocessableEntity},
		{"credentials", CredentialsFailed(cause), ErrCodeCredentialsFailed, http.StatusBadGateway},
		{"staging", StagingFailed("src", cause), ErrCodeStagingFailed, http.StatusBadGateway},
		{"recognition", RecognitionFailed(cause), ErrCodeRecognitionFailed, http.StatusBadGateway},
		{"write", WriteFailed("key", cause), ErrCodeWriteFailed, http.StatusBadGateway},
		{"cleanup", CleanupFailed("gs://b/o", cause), ErrCodeCleanupFailed, http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("expected %s, got %s", tc.code, tc.err.Code)
			}
			if tc.err.HTTPStatus != tc.status {
				t.Errorf("expected %d, got %d", tc.status, tc.err.HTTPStatus)
			}
			if !IsCode(tc.err, tc.code) {
				t.Error("IsCode should match own code")
			}
		})
	}
}

func TestUnsupportedFormat_EmptyExtension(t *testing.T) {
	err := UnsupportedFormat("")
	if err.Message != "Unsupported file format" {
		t.Errorf("unexpected message %q", err.Message)
	}
}

func TestIsCode_NonAppError(t *testing.T) {
	if IsCode(stderrors.New("plain"), ErrCodeInternal) {
		t.Error("plain error should not match any code")
	}
	if IsCode(nil, ErrCodeInternal) {
		t.Error("nil should not match any code")
	}
}

func TestProblemType(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{ErrCodeInvalidInput, "uri://mcma.ebu.ch/rfc7807/google-ai-service/locator-missing-url"},
		{ErrCodeUnsupportedFormat, "uri://mcma.ebu.ch/rfc7807/google-ai-service/unsupported-format"},
		{ErrCodeStagingFailed, ProblemStagingFailed},
		{ErrCodeRecognitionFailed, ProblemRecognitionFailed},
		{ErrCodeWriteFailed, ProblemWriteFailed},
		{ErrCodeInternal, ProblemGenericFailure},
	}

	for _, tc := range tests {
		t.Run(string(tc.code), func(t *testing.T) {
			if got := ProblemType(tc.code); got != tc.want {
				t.Errorf("ProblemType(%s) = %q, want %q", tc.code, got, tc.want)
			}
		})
	}
}

func TestToResponse(t *testing.T) {
	err := NotFound("job", "42")
	resp := err.ToResponse()
	if resp.Error.Code != ErrCodeNotFound {
		t.Errorf("expected NOT_FOUND, got %s", resp.Error.Code)
	}
	if resp.Error.Details["id"] != "42" {
		t.Errorf("expected id detail, got %v", resp.Error.Details["id"])
	}
	if resp.Error.Retryable {
		t.Error("NOT_FOUND response should not be retryable")
	}
}

func TestWithDetail_InitializesMap(t *testing.T) {
	err := &AppError{Code: ErrCodeInternal}
	err.WithDetail("k", "v")
	if err.Details["k"] != "v" {
		t.Errorf("expected detail to be set, got %v", err.Details)
	}
}
