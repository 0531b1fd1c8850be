package config

import (
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.Production() {
		t.Errorf("expected development environment by default")
	}
	if len(cfg.Server.TrustedProxies) != 0 {
		t.Errorf("expected no trusted proxies by default, got %v", cfg.Server.TrustedProxies)
	}
	if cfg.Server.IPHashSalt == "" {
		t.Errorf("expected a generated IP hash salt")
	}
	if cfg.RateLimit.Store != "memory" {
		t.Errorf("expected memory store, got %q", cfg.RateLimit.Store)
	}
	if cfg.RateLimit.MaxRequests != 5 || cfg.RateLimit.Window != time.Hour {
		t.Errorf("expected 5 requests per hour, got %d per %s", cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
	}
	if cfg.Contact.MinFillTime != 2*time.Second || cfg.Contact.MaxFormAge != 24*time.Hour {
		t.Errorf("unexpected timing bounds: %s / %s", cfg.Contact.MinFillTime, cfg.Contact.MaxFormAge)
	}
	if cfg.Contact.SpamThreshold != 3 {
		t.Errorf("expected spam threshold 3, got %d", cfg.Contact.SpamThreshold)
	}
	if cfg.Email.Driver != "log" {
		t.Errorf("expected log email driver, got %q", cfg.Email.Driver)
	}
	if !cfg.Email.AutoReply {
		t.Errorf("expected auto-reply enabled by default")
	}
	if cfg.Admin.Enabled() {
		t.Errorf("expected admin area disabled without a password")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("APP_ENV", "production")
	t.Setenv("RATE_LIMIT_STORE", "redis")
	t.Setenv("RATE_LIMIT_MAX_REQUESTS", "10")
	t.Setenv("RATE_LIMIT_WINDOW", "30m")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("EMAIL_DRIVER", "brevo")
	t.Setenv("BREVO_API_KEY", "xkeysib-test")
	t.Setenv("EMAIL_FROM", "noreply@example.com")
	t.Setenv("CONTACT_TO_EMAIL", "me@example.com")
	t.Setenv("ADMIN_PASSWORD", "s3cret")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, ,172.16.0.1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 9000 || !cfg.Server.Production() {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if got := strings.Join(cfg.Server.TrustedProxies, "|"); got != "10.0.0.0/8|172.16.0.1" {
		t.Errorf("unexpected trusted proxies: %q", got)
	}
	if cfg.RateLimit.Store != "redis" || cfg.RateLimit.Redis.Addr != "redis:6379" {
		t.Errorf("unexpected rate limit config: %+v", cfg.RateLimit)
	}
	if cfg.RateLimit.MaxRequests != 10 || cfg.RateLimit.Window != 30*time.Minute {
		t.Errorf("unexpected quota: %d per %s", cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
	}
	if cfg.Email.Driver != "brevo" || cfg.Email.OwnerEmail != "me@example.com" {
		t.Errorf("unexpected email config: %+v", cfg.Email)
	}
	if !cfg.Admin.Enabled() {
		t.Fatalf("expected admin area enabled")
	}
	if err := bcrypt.CompareHashAndPassword(cfg.Admin.PasswordHash, []byte("s3cret")); err != nil {
		t.Errorf("admin password hash does not match: %v", err)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "bad port",
			env:     map[string]string{"PORT": "http"},
			wantErr: "PORT",
		},
		{
			name:    "zero quota",
			env:     map[string]string{"RATE_LIMIT_MAX_REQUESTS": "0"},
			wantErr: "RATE_LIMIT_MAX_REQUESTS must be positive",
		},
		{
			name:    "bad window",
			env:     map[string]string{"RATE_LIMIT_WINDOW": "hourly"},
			wantErr: "RATE_LIMIT_WINDOW",
		},
		{
			name:    "unknown store",
			env:     map[string]string{"RATE_LIMIT_STORE": "memcached"},
			wantErr: "RATE_LIMIT_STORE",
		},
		{
			name:    "unknown driver",
			env:     map[string]string{"EMAIL_DRIVER": "carrier-pigeon"},
			wantErr: "EMAIL_DRIVER",
		},
		{
			name:    "brevo without key",
			env:     map[string]string{"EMAIL_DRIVER": "brevo"},
			wantErr: "BREVO_API_KEY",
		},
		{
			name: "resend without owner",
			env: map[string]string{
				"EMAIL_DRIVER":   "resend",
				"RESEND_API_KEY": "re_test",
				"EMAIL_FROM":     "noreply@example.com",
			},
			wantErr: "CONTACT_TO_EMAIL",
		},
		{
			name: "inverted timing bounds",
			env: map[string]string{
				"CONTACT_MIN_FILL_TIME": "10s",
				"CONTACT_MAX_FORM_AGE":  "5s",
			},
			wantErr: "CONTACT_MAX_FORM_AGE",
		},
		{
			name:    "malformed password hash",
			env:     map[string]string{"ADMIN_PASSWORD_HASH": "not-bcrypt"},
			wantErr: "ADMIN_PASSWORD_HASH",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
