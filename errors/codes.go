package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Availability errors (retryable)
const (
	// ErrCodeServiceUnavailable indicates the service is temporarily unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeTimeout indicates the request timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// Resource errors
const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeAlreadyExists indicates the resource already exists.
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeUnsupportedFormat indicates the audio file extension has no known encoding.
	ErrCodeUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
)

// Authentication errors
const (
	// ErrCodeUnauthorized indicates the request is unauthorized.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeInvalidToken indicates the authentication token is invalid.
	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"
)

// Pipeline errors
const (
	// ErrCodeCredentialsFailed indicates the speech provider credentials could not be loaded.
	ErrCodeCredentialsFailed ErrorCode = "CREDENTIALS_FAILED"
	// ErrCodeStagingFailed indicates the source could not be copied into the staging bucket.
	ErrCodeStagingFailed ErrorCode = "STAGING_FAILED"
	// ErrCodeRecognitionFailed indicates the long-running recognition did not produce a result.
	ErrCodeRecognitionFailed ErrorCode = "RECOGNITION_FAILED"
	// ErrCodeWriteFailed indicates an output artifact could not be persisted or signed.
	ErrCodeWriteFailed ErrorCode = "WRITE_FAILED"
	// ErrCodeCleanupFailed indicates the staged object could not be deleted. Never escalated.
	ErrCodeCleanupFailed ErrorCode = "CLEANUP_FAILED"
)

// Internal errors
const (
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeDatabaseError indicates a job history store error.
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeTimeout:            true,
	ErrCodeDatabaseError:      true,
	ErrCodeStagingFailed:      true,
	ErrCodeRecognitionFailed:  true,
	ErrCodeWriteFailed:        true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
// The worker itself never retries; the flag is advisory for API callers.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
