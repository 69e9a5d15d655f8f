// Package security builds TLS configurations from PEM files.
//
// The same TLSConfig serves both directions. For outbound media fetches,
// CAFile trusts a private CA and CertFile/KeyFile present a client
// certificate. For the job API, CertFile/KeyFile are the server pair and
// CAFile turns on client certificate verification.
//
//	cfg := security.TLSConfig{CAFile: "/etc/media/ca.pem"}
//	tlsConfig, err := cfg.Build()
package security
