// Package version reports the worker's build information.
//
// Version, commit, branch and build time are set at compile time:
//
//	go build -ldflags "-X github.com/kbukum/transcribe-worker/version.Version=1.4.0" ./cmd/transcribe-worker
//
// Missing values fall back to the VCS stamps the Go toolchain embeds.
package version
