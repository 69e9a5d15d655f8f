package httpclient

import (
	"testing"
	"time"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.HeaderTimeout != 30*time.Second {
		t.Errorf("expected default header timeout 30s, got %v", cfg.HeaderTimeout)
	}
	if cfg.UserAgent != "transcribe-worker" {
		t.Errorf("expected default user agent, got %q", cfg.UserAgent)
	}
}

func TestConfig_ApplyDefaults_PreservesExisting(t *testing.T) {
	cfg := Config{HeaderTimeout: 10 * time.Second, UserAgent: "custom"}
	cfg.ApplyDefaults()
	if cfg.HeaderTimeout != 10*time.Second || cfg.UserAgent != "custom" {
		t.Errorf("explicit values should be kept, got %+v", cfg)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{HeaderTimeout: time.Second}, false},
		{"negative timeout", Config{HeaderTimeout: -1}, true},
		{"negative rate", Config{HeaderTimeout: time.Second, RateLimit: -2}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestConfig_RateLimiter(t *testing.T) {
	if (&Config{}).rateLimiter() != nil {
		t.Error("zero rate should disable the limiter")
	}
	rl := (&Config{RateLimit: 5, RateBurst: 2}).rateLimiter()
	if rl == nil || rl.Rate != 5 || rl.Burst != 2 || rl.Name != "fetch" {
		t.Errorf("unexpected limiter config %+v", rl)
	}
}
