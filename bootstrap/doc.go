// Package bootstrap runs a service's lifecycle: start registered components,
// run configure callbacks and hooks, log a startup summary, then block until
// SIGINT/SIGTERM and stop everything in reverse order.
package bootstrap
