// Package component defines the lifecycle contract shared by the worker's
// long-lived parts: the HTTP server, the output store, the job history
// store and the staging sweeper.
//
// A Registry starts components in registration order and stops them in
// reverse, so register dependencies first.
package component
