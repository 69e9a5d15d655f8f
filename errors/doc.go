// Package errors provides the unified error type used across the worker.
// Every failure that crosses a package boundary is an *AppError carrying a
// machine-readable code, an HTTP status for the job API and an RFC 7807
// problem type for job lifecycle reporting.
package errors
