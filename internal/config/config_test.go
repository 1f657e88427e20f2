package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "LOG_LEVEL", "CLINIC_FALLBACK_IDS", "HOSPITAL_API_TIMEOUT", "SLOT_CACHE_TTL", "CACHE_BACKEND", "OTP_VERIFY_MODE"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "3001" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.HospitalAPITimeout != 50*time.Second {
		t.Fatalf("expected 50s api timeout, got %s", cfg.HospitalAPITimeout)
	}
	if got := cfg.ClinicFallbackIDs; len(got) != 3 || got[0] != "1" || got[2] != "3" {
		t.Fatalf("unexpected fallback ids %v", got)
	}
	if cfg.SlotCacheTTL != 2*time.Minute {
		t.Fatalf("expected 2m cache ttl, got %s", cfg.SlotCacheTTL)
	}
	if cfg.CacheBackend != "memory" {
		t.Fatalf("expected memory cache backend, got %s", cfg.CacheBackend)
	}
	if cfg.OTPVerifyMode != "server" {
		t.Fatalf("expected server otp verify mode, got %s", cfg.OTPVerifyMode)
	}
	if !cfg.ClinicProbeEnabled {
		t.Fatalf("expected clinic probing enabled by default")
	}
	if cfg.DaysWindow != 14 {
		t.Fatalf("expected 14 day window, got %d", cfg.DaysWindow)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("HOSPITAL_API_BASE_URL", "https://api.example.test")
	t.Setenv("HOSPITAL_DEFAULT_LANG", "e")
	t.Setenv("CLINIC_PROBE_ENABLED", "false")
	t.Setenv("CLINIC_FALLBACK_IDS", " 4, ,5,6 ")
	t.Setenv("CLINIC_FALLBACK_PROBE_TIMEOUT", "3s")
	t.Setenv("CACHE_BACKEND", "Redis")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test,https://b.test")
	t.Setenv("MCP_TRANSPORT", " STDIO ")
	cfg := Load()
	if cfg.Transport != TransportStdio {
		t.Fatalf("expected stdio transport, got %s", cfg.Transport)
	}
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.HospitalAPIBaseURL != "https://api.example.test" {
		t.Fatalf("expected base url override, got %s", cfg.HospitalAPIBaseURL)
	}
	if cfg.DefaultLang != "E" {
		t.Fatalf("expected upper-cased lang, got %s", cfg.DefaultLang)
	}
	if cfg.ClinicProbeEnabled {
		t.Fatalf("expected clinic probing disabled")
	}
	if got := cfg.ClinicFallbackIDs; len(got) != 3 || got[0] != "4" || got[2] != "6" {
		t.Fatalf("unexpected fallback ids %v", got)
	}
	if cfg.ClinicFallbackProbeTimeout != 3*time.Second {
		t.Fatalf("expected 3s fallback timeout, got %s", cfg.ClinicFallbackProbeTimeout)
	}
	if cfg.CacheBackend != "redis" {
		t.Fatalf("expected redis backend, got %s", cfg.CacheBackend)
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Fatalf("expected rps override, got %v", cfg.RateLimitRPS)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("expected two origins, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestInvalidValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("DAYS_WINDOW", "two weeks")
	t.Setenv("SLOT_CACHE_TTL", "soon")
	t.Setenv("REDIS_TLS", "maybe")
	cfg := Load()
	if cfg.DaysWindow != 14 {
		t.Fatalf("expected default window, got %d", cfg.DaysWindow)
	}
	if cfg.SlotCacheTTL != 2*time.Minute {
		t.Fatalf("expected default ttl, got %s", cfg.SlotCacheTTL)
	}
	if cfg.RedisTLS {
		t.Fatalf("expected redis tls default false")
	}
}
