package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// IsCode reports whether err is an AppError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.Code == code
}

// --- Generic constructors ---

// ServiceUnavailable creates a new AppError for a service that is temporarily unavailable.
func ServiceUnavailable(service string) *AppError {
	return &AppError{
		Code: ErrCodeServiceUnavailable, Message: fmt.Sprintf("The %s is temporarily unavailable. Please try again.", service),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"service": service},
	}
}

// NotFound creates a new AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Details: details,
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// Unauthorized creates a new AppError for unauthorized access.
func Unauthorized(reason string) *AppError {
	if reason == "" {
		reason = "Authentication required."
	}
	return &AppError{
		Code: ErrCodeUnauthorized, Message: reason,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// InvalidToken creates a new AppError for an invalid authentication token.
func InvalidToken() *AppError {
	return &AppError{
		Code: ErrCodeInvalidToken, Message: "Invalid authentication token.",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// Internal creates a new AppError for an internal server error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred. Please try again or contact support.",
		HTTPStatus: http.StatusInternalServerError, Cause: cause,
	}
}

// DatabaseError creates a new AppError for a job history store error.
func DatabaseError(cause error) *AppError {
	return &AppError{
		Code: ErrCodeDatabaseError, Message: "A database error occurred. Please try again.",
		HTTPStatus: http.StatusInternalServerError, Retryable: true, Cause: cause,
	}
}

// --- Pipeline constructors ---

// UnsupportedFormat creates a new AppError for an audio extension with no known encoding.
func UnsupportedFormat(extension string) *AppError {
	msg := "Unsupported file format"
	if extension != "" {
		msg = fmt.Sprintf("Unsupported file format: %q", extension)
	}
	return &AppError{
		Code: ErrCodeUnsupportedFormat, Message: msg,
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"extension": extension},
	}
}

// CredentialsFailed creates a new AppError for credentials that could not be obtained.
func CredentialsFailed(cause error) *AppError {
	return &AppError{
		Code: ErrCodeCredentialsFailed, Message: "Failed to obtain Google service credentials",
		HTTPStatus: http.StatusBadGateway, Cause: cause,
	}
}

// StagingFailed creates a new AppError for a failed copy into the staging bucket.
func StagingFailed(source string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeStagingFailed, Message: "Failed to stage input file",
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"source": source}, Cause: cause,
	}
}

// RecognitionFailed creates a new AppError for a failed long-running recognition.
func RecognitionFailed(cause error) *AppError {
	return &AppError{
		Code: ErrCodeRecognitionFailed, Message: "Speech recognition failed",
		HTTPStatus: http.StatusBadGateway, Retryable: true, Cause: cause,
	}
}

// WriteFailed creates a new AppError for an artifact that could not be persisted.
func WriteFailed(key string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeWriteFailed, Message: "Failed to write output artifact",
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"key": key}, Cause: cause,
	}
}

// CleanupFailed creates a new AppError for a staged object that could not be deleted.
func CleanupFailed(object string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeCleanupFailed, Message: "Failed to delete staged object",
		HTTPStatus: http.StatusInternalServerError,
		Details: map[string]any{"object": object}, Cause: cause,
	}
}
