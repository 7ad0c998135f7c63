package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("HTTP.Addr = %q, want :8080", cfg.HTTP.Addr)
	}
	if cfg.Authority.Timeout != 10*time.Second {
		t.Errorf("Authority.Timeout = %s, want 10s", cfg.Authority.Timeout)
	}
	if cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("Cache.TTL = %s, want 5m", cfg.Cache.TTL)
	}
	if cfg.Competitors.Limit != 20 {
		t.Errorf("Competitors.Limit = %d, want 20", cfg.Competitors.Limit)
	}
	if cfg.Authority.BaseURL != "" {
		t.Errorf("Authority.BaseURL = %q, want empty (disabled)", cfg.Authority.BaseURL)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("RENTPRICE_AUTHORITY_URL", "http://pricing.internal/api/v1/")
	t.Setenv("RENTPRICE_AUTHORITY_TIMEOUT", "7s")
	t.Setenv("RENTPRICE_WARMUP_CITIES", "riyadh, jeddah,,dammam ")
	t.Setenv("RENTPRICE_COMPETITOR_LIMIT", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Authority.BaseURL != "http://pricing.internal/api/v1" {
		t.Errorf("Authority.BaseURL = %q", cfg.Authority.BaseURL)
	}
	if cfg.Authority.Timeout != 7*time.Second {
		t.Errorf("Authority.Timeout = %s, want 7s", cfg.Authority.Timeout)
	}
	want := []string{"riyadh", "jeddah", "dammam"}
	if len(cfg.Warmup.Cities) != len(want) {
		t.Fatalf("Warmup.Cities = %v, want %v", cfg.Warmup.Cities, want)
	}
	for i := range want {
		if cfg.Warmup.Cities[i] != want[i] {
			t.Errorf("Warmup.Cities[%d] = %q, want %q", i, cfg.Warmup.Cities[i], want[i])
		}
	}
	// Unparseable numbers fall back to the default.
	if cfg.Competitors.Limit != 20 {
		t.Errorf("Competitors.Limit = %d, want default 20", cfg.Competitors.Limit)
	}
}

func TestLoad_RejectsNonPositiveTimeout(t *testing.T) {
	t.Setenv("RENTPRICE_AUTHORITY_TIMEOUT", "0s")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for zero authority timeout")
	}
}

func TestLoad_RejectsShortStaleRetention(t *testing.T) {
	t.Setenv("RENTPRICE_CACHE_STALE_RETENTION", "1m")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when stale retention is shorter than TTL")
	}
}
