package errors

import (
	stderrors "errors"
)

// ProblemTypePrefix is the RFC 7807 type namespace used for job failures.
const ProblemTypePrefix = "uri://mcma.ebu.ch/rfc7807/google-ai-service/"

// Problem type URIs reported through the job lifecycle.
const (
	ProblemLocatorMissingURL  = ProblemTypePrefix + "locator-missing-url"
	ProblemUnsupportedFormat  = ProblemTypePrefix + "unsupported-format"
	ProblemCredentialsFailed  = ProblemTypePrefix + "credentials-failed"
	ProblemStagingFailed      = ProblemTypePrefix + "staging-failed"
	ProblemRecognitionFailed  = ProblemTypePrefix + "recognition-failed"
	ProblemWriteFailed        = ProblemTypePrefix + "write-failed"
	ProblemServiceUnavailable = ProblemTypePrefix + "service-unavailable"
	ProblemGenericFailure     = ProblemTypePrefix + "generic-failure"
)

var problemTypes = map[ErrorCode]string{
	ErrCodeInvalidInput:       ProblemLocatorMissingURL,
	ErrCodeUnsupportedFormat:  ProblemUnsupportedFormat,
	ErrCodeCredentialsFailed:  ProblemCredentialsFailed,
	ErrCodeStagingFailed:      ProblemStagingFailed,
	ErrCodeRecognitionFailed:  ProblemRecognitionFailed,
	ErrCodeWriteFailed:        ProblemWriteFailed,
	ErrCodeServiceUnavailable: ProblemServiceUnavailable,
}

// ProblemType returns the RFC 7807 type URI for an error code.
func ProblemType(code ErrorCode) string {
	if t, ok := problemTypes[code]; ok {
		return t
	}
	return ProblemGenericFailure
}

// ErrorResponse is the JSON structure returned to API clients.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody contains the error details sent to clients.
type ErrorBody struct {
	Code      ErrorCode      `json:"code"`
	Message   string         `json:"message"`
	Retryable bool           `json:"retryable"`
	Details   map[string]any `json:"details,omitempty"`
}

// ToResponse converts an AppError to an ErrorResponse for JSON serialization.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{
		Error: ErrorBody{
			Code:      e.Code,
			Message:   e.Message,
			Retryable: e.Retryable,
			Details:   e.Details,
		},
	}
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
