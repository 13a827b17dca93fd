package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "SCAN_TIMEOUT", "MAX_REDIRECTS", "MAX_BODY_BYTES", "USER_AGENT", "COALESCE_SCANS", "ALLOW_PRIVATE_NETWORKS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.ScanTimeout != 10*time.Second {
		t.Errorf("ScanTimeout = %v, want 10s", cfg.ScanTimeout)
	}
	if cfg.MaxRedirects != 5 {
		t.Errorf("MaxRedirects = %d, want 5", cfg.MaxRedirects)
	}
	if cfg.MaxBodyBytes != 5*1024*1024 {
		t.Errorf("MaxBodyBytes = %d, want 5MiB", cfg.MaxBodyBytes)
	}
	if !cfg.CoalesceScans {
		t.Error("CoalesceScans should default to true")
	}
	if cfg.AllowPrivateNetworks {
		t.Error("AllowPrivateNetworks should default to false")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SCAN_TIMEOUT", "2500")
	t.Setenv("MAX_REDIRECTS", "2")
	t.Setenv("MAX_BODY_BYTES", "1024")
	t.Setenv("COALESCE_SCANS", "off")
	t.Setenv("ALLOW_PRIVATE_NETWORKS", "true")
	t.Setenv("RATE_LIMIT_RPS", "0.5")

	cfg := Load()

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.ScanTimeout != 2500*time.Millisecond {
		t.Errorf("ScanTimeout = %v, want 2.5s", cfg.ScanTimeout)
	}
	if cfg.MaxRedirects != 2 || cfg.MaxBodyBytes != 1024 {
		t.Errorf("got redirects=%d body=%d", cfg.MaxRedirects, cfg.MaxBodyBytes)
	}
	if cfg.CoalesceScans {
		t.Error("COALESCE_SCANS=off should disable coalescing")
	}
	if !cfg.AllowPrivateNetworks {
		t.Error("ALLOW_PRIVATE_NETWORKS=true not applied")
	}
	if cfg.RateLimitRPS != 0.5 {
		t.Errorf("RateLimitRPS = %v, want 0.5", cfg.RateLimitRPS)
	}
}

func TestLoadIgnoresGarbage(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	t.Setenv("SCAN_TIMEOUT", "10s")

	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want default 8080", cfg.Port)
	}
	if cfg.ScanTimeout != 10*time.Second {
		t.Errorf("ScanTimeout = %v, want default", cfg.ScanTimeout)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Port = 0 }},
		{"zero timeout", func(c *Config) { c.ScanTimeout = 0 }},
		{"negative redirects", func(c *Config) { c.MaxRedirects = -1 }},
		{"zero body cap", func(c *Config) { c.MaxBodyBytes = 0 }},
		{"negative rate", func(c *Config) { c.RateLimitRPS = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Port: 8080, ScanTimeout: time.Second, MaxRedirects: 5, MaxBodyBytes: 1}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
