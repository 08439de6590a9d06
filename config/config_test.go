package config

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jonwraymond/weatherops/cache"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Settings.DefaultCity != "London" || cfg.Settings.MaxSearchHistory != 5 {
		t.Errorf("settings = %+v", cfg.Settings)
	}
	if cfg.Cache.TTL != 10*time.Minute {
		t.Errorf("cache ttl = %v", cfg.Cache.TTL)
	}
	if !cfg.Cache.CoalesceEnabled() {
		t.Error("coalescing should default on")
	}
	if cfg.Server.AuthEnabled() {
		t.Error("auth should default off")
	}
}

func TestCacheConfig_Policy(t *testing.T) {
	off := false
	c := CacheConfig{TTL: time.Minute, MaxEntries: 7, Retention: time.Hour, Coalesce: &off}
	want := cache.Policy{TTL: time.Minute, MaxEntries: 7, Retention: time.Hour}
	if got := c.Policy(); got != want {
		t.Errorf("Policy() = %+v, want %+v", got, want)
	}
	if c.CoalesceEnabled() {
		t.Error("CoalesceEnabled() = true with coalesce: false")
	}
}

func TestCacheConfig_Keyer(t *testing.T) {
	tests := []struct {
		format string
		want   cache.Keyer
	}{
		{"", cache.NewJoinKeyer()},
		{"join", cache.NewJoinKeyer()},
		{"hash", cache.NewHashKeyer()},
	}
	for _, tt := range tests {
		got, err := CacheConfig{KeyFormat: tt.format}.Keyer()
		if err != nil {
			t.Fatalf("Keyer(%q) error = %v", tt.format, err)
		}
		if fmt.Sprintf("%T", got) != fmt.Sprintf("%T", tt.want) {
			t.Errorf("Keyer(%q) = %T, want %T", tt.format, got, tt.want)
		}
	}
	if _, err := (CacheConfig{KeyFormat: "md5"}).Keyer(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Keyer(md5) = %v, want ErrInvalidConfig", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative base url", func(c *Config) { c.Weather.BaseURL = "/data/2.5" }},
		{"ftp base url", func(c *Config) { c.Weather.BaseURL = "ftp://example.com" }},
		{"unknown units", func(c *Config) { c.Weather.Units = "kelvinish" }},
		{"empty units", func(c *Config) { c.Weather.Units = "" }},
		{"negative timeout", func(c *Config) { c.Weather.Timeout = -time.Second }},
		{"negative max entries", func(c *Config) { c.Cache.MaxEntries = -1 }},
		{"negative retention", func(c *Config) { c.Cache.Retention = -time.Second }},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"redis without url", func(c *Config) { c.Cache.Backend = "redis" }},
		{"unknown key policy", func(c *Config) { c.Cache.KeyPolicy = "some" }},
		{"unknown key format", func(c *Config) { c.Cache.KeyFormat = "md5" }},
		{"negative redis timeout", func(c *Config) { c.Cache.RedisTimeout = -time.Millisecond }},
		{"blank default city", func(c *Config) { c.Settings.DefaultCity = "  " }},
		{"zero history", func(c *Config) { c.Settings.MaxSearchHistory = 0 }},
		{"fallback lat", func(c *Config) { c.Settings.Fallback.Lat = 91 }},
		{"fallback lon", func(c *Config) { c.Settings.Fallback.Lon = -181 }},
		{"negative retries", func(c *Config) { c.Resilience.RetryAttempts = -1 }},
		{"negative rate", func(c *Config) { c.Resilience.RatePerSecond = -0.5 }},
		{"missing service name", func(c *Config) { c.Observe.ServiceName = "" }},
		{"bad log level", func(c *Config) { c.Observe.Logging.Level = "loud" }},
		{"issuer without secret", func(c *Config) { c.Server.JWTIssuer = "weatherops" }},
		{"blank api key", func(c *Config) { c.Server.APIKeys = []string{"k1", " "} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestConfig_ValidateAccepts(t *testing.T) {
	cfg := Default()
	cfg.Weather.Units = "imperial"
	cfg.Cache.Backend = "redis"
	cfg.Cache.RedisURL = "redis://localhost:6379/0"
	cfg.Cache.KeyPolicy = "all"
	cfg.Server.JWTSecret = "s3cret"
	cfg.Server.JWTIssuer = "weatherops"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if !cfg.Server.AuthEnabled() {
		t.Error("AuthEnabled() = false with a jwt secret")
	}
}
