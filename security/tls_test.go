package security

import (
	"crypto/tls"
	"testing"

	"github.com/kbukum/transcribe-worker/security/tlstest"
)

func TestBuild(t *testing.T) {
	certs := tlstest.GenerateTLSCerts(t)

	tests := []struct {
		name      string
		cfg       *TLSConfig
		wantNil   bool
		wantErr   bool
		wantRoots bool
		wantCerts int
	}{
		{name: "nil", cfg: nil, wantNil: true},
		{name: "zero value", cfg: &TLSConfig{}, wantNil: true},
		{name: "skip verify", cfg: &TLSConfig{SkipVerify: true}},
		{name: "private CA", cfg: &TLSConfig{CAFile: certs.CAFile}, wantRoots: true},
		{name: "mutual TLS", cfg: &TLSConfig{CAFile: certs.CAFile, CertFile: certs.CertFile, KeyFile: certs.KeyFile}, wantRoots: true, wantCerts: 1},
		{name: "missing CA file", cfg: &TLSConfig{CAFile: "/does/not/exist.pem"}, wantErr: true},
		{name: "invalid CA", cfg: &TLSConfig{CAFile: tlstest.WriteInvalidPEM(t, "ca.pem")}, wantErr: true},
		{name: "missing key pair", cfg: &TLSConfig{CertFile: "/nope.pem", KeyFile: "/nope.key"}, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.cfg.Build()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Build() error = %v, wantErr %v", err, tc.wantErr)
			}
			if tc.wantErr {
				return
			}
			if tc.wantNil {
				if got != nil {
					t.Errorf("expected nil config, got %+v", got)
				}
				return
			}
			if got.MinVersion != tls.VersionTLS12 {
				t.Errorf("MinVersion = %x", got.MinVersion)
			}
			if (got.RootCAs != nil) != tc.wantRoots {
				t.Errorf("RootCAs set = %v", got.RootCAs != nil)
			}
			if len(got.Certificates) != tc.wantCerts {
				t.Errorf("Certificates = %d, want %d", len(got.Certificates), tc.wantCerts)
			}
		})
	}
}

func TestBuildServer(t *testing.T) {
	certs := tlstest.GenerateTLSCerts(t)

	t.Run("no certificate", func(t *testing.T) {
		got, err := (&TLSConfig{CAFile: certs.CAFile}).BuildServer()
		if err != nil || got != nil {
			t.Errorf("BuildServer() = %v, %v", got, err)
		}
	})

	t.Run("server pair", func(t *testing.T) {
		got, err := (&TLSConfig{CertFile: certs.CertFile, KeyFile: certs.KeyFile}).BuildServer()
		if err != nil {
			t.Fatal(err)
		}
		if len(got.Certificates) != 1 || got.ClientAuth != tls.NoClientCert {
			t.Errorf("unexpected config %+v", got)
		}
	})

	t.Run("client verification", func(t *testing.T) {
		got, err := (&TLSConfig{CertFile: certs.CertFile, KeyFile: certs.KeyFile, CAFile: certs.CAFile}).BuildServer()
		if err != nil {
			t.Fatal(err)
		}
		if got.ClientCAs == nil || got.ClientAuth != tls.RequireAndVerifyClientCert {
			t.Errorf("client auth not required: %+v", got)
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *TLSConfig
		wantErr bool
	}{
		{"nil", nil, false},
		{"empty", &TLSConfig{}, false},
		{"pair", &TLSConfig{CertFile: "c", KeyFile: "k"}, false},
		{"cert without key", &TLSConfig{CertFile: "c"}, true},
		{"key without cert", &TLSConfig{KeyFile: "k"}, true},
		{"TLS 1.0", &TLSConfig{MinVersion: tls.VersionTLS10}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestIsEnabled(t *testing.T) {
	var nilCfg *TLSConfig
	if nilCfg.IsEnabled() || (&TLSConfig{}).IsEnabled() {
		t.Error("empty config should be disabled")
	}
	if !(&TLSConfig{ServerName: "media.internal"}).IsEnabled() {
		t.Error("server name should enable TLS")
	}
}
