// Package logger provides structured logging using zerolog.
//
// Loggers are created once from Config and passed to the components that
// need them. Component, job and request scope is attached with WithComponent,
// WithJob and WithContext rather than through global state.
//
//	logging:
//	  level: "info"
//	  format: "json"
package logger
