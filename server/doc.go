// Package server provides the worker's HTTP server: Gin behind an h2c
// handler, the standard middleware stack and the operational endpoints.
//
// # Middleware
//
// Built-in middleware (server/middleware):
//
//   - Recovery: Panic recovery with structured logging
//   - RequestID: Request ID generation and propagation
//   - RequestLogger: Request logging and HTTP metrics
//   - BodySizeLimit: Request body size limits
//   - Auth: Bearer token authentication (HS256 JWT)
//
// # Endpoints
//
// Built-in endpoints (server/endpoint):
//
//   - /health: Health check aggregation over registered components
//   - /alive: Liveness probe
//   - /ready: Readiness probe
//   - /version: Build version information
//
// The job API lives in server/handler.
package server
