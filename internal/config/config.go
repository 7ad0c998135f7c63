// README: Config loader with env defaults for HTTP, DB, Redis, competitor data, authority and warm-up settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type CompetitorConfig struct {
	BaseURL        string
	Limit          int
	Timeout        time.Duration
	RequestsPerSec float64
	Burst          int
}

type AuthorityConfig struct {
	// BaseURL empty disables the authoritative pricing path.
	BaseURL string
	Timeout time.Duration
}

type CacheConfig struct {
	TTL            time.Duration
	StaleRetention time.Duration
}

type WarmupConfig struct {
	Spec       string
	Cities     []string
	Categories []string
}

type Config struct {
	HTTP struct {
		Addr string
	}
	DB struct {
		DSN string
	}
	Redis struct {
		Addr string
	}
	Competitors CompetitorConfig
	Authority   AuthorityConfig
	Cache       CacheConfig
	Warmup      WarmupConfig
	PolicyFile  string
}

func Load() (Config, error) {
	var cfg Config
	cfg.HTTP.Addr = envOrDefault("RENTPRICE_HTTP_ADDR", ":8080")
	cfg.DB.DSN = envOrDefault("RENTPRICE_DB_DSN", "")
	cfg.Redis.Addr = envOrDefault("RENTPRICE_REDIS_ADDR", "")

	cfg.Competitors.BaseURL = strings.TrimRight(envOrDefault("RENTPRICE_COMPETITOR_URL", "http://localhost:8000/api/v1"), "/")
	cfg.Competitors.Limit = envOrDefaultInt("RENTPRICE_COMPETITOR_LIMIT", 20)
	cfg.Competitors.Timeout = envOrDefaultDuration("RENTPRICE_COMPETITOR_TIMEOUT", 5*time.Second)
	cfg.Competitors.RequestsPerSec = envOrDefaultFloat("RENTPRICE_COMPETITOR_RPS", 5)
	cfg.Competitors.Burst = envOrDefaultInt("RENTPRICE_COMPETITOR_BURST", 5)

	cfg.Authority.BaseURL = strings.TrimRight(envOrDefault("RENTPRICE_AUTHORITY_URL", ""), "/")
	cfg.Authority.Timeout = envOrDefaultDuration("RENTPRICE_AUTHORITY_TIMEOUT", 10*time.Second)

	cfg.Cache.TTL = envOrDefaultDuration("RENTPRICE_CACHE_TTL", 5*time.Minute)
	cfg.Cache.StaleRetention = envOrDefaultDuration("RENTPRICE_CACHE_STALE_RETENTION", time.Hour)

	cfg.Warmup.Spec = envOrDefault("RENTPRICE_WARMUP_SPEC", "@every 4m")
	cfg.Warmup.Cities = envList("RENTPRICE_WARMUP_CITIES")
	cfg.Warmup.Categories = envList("RENTPRICE_WARMUP_CATEGORIES")

	cfg.PolicyFile = envOrDefault("RENTPRICE_POLICY_FILE", "")

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Competitors.Timeout <= 0 {
		return fmt.Errorf("RENTPRICE_COMPETITOR_TIMEOUT must be positive, got %s", c.Competitors.Timeout)
	}
	if c.Authority.Timeout <= 0 {
		return fmt.Errorf("RENTPRICE_AUTHORITY_TIMEOUT must be positive, got %s", c.Authority.Timeout)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("RENTPRICE_CACHE_TTL must be positive, got %s", c.Cache.TTL)
	}
	if c.Cache.StaleRetention < c.Cache.TTL {
		return fmt.Errorf("RENTPRICE_CACHE_STALE_RETENTION (%s) must not be shorter than the cache TTL (%s)", c.Cache.StaleRetention, c.Cache.TTL)
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// envList splits a comma separated variable, dropping blanks.
func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
