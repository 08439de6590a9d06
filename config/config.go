package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jonwraymond/weatherops/cache"
	"github.com/jonwraymond/weatherops/fetch"
	"github.com/jonwraymond/weatherops/observe"
	"github.com/jonwraymond/weatherops/resilience"
	"github.com/jonwraymond/weatherops/weather"
)

// Defaults.
const (
	DefaultBaseURL     = "https://api.openweathermap.org/data/2.5"
	DefaultUnits       = "metric"
	DefaultLang        = "en"
	DefaultCity        = "London"
	DefaultAddr        = ":8080"
	DefaultServiceName = "weatherops"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("config: invalid")

// Config is the complete weatherops configuration.
type Config struct {
	Weather    WeatherConfig     `yaml:"weather"`
	Cache      CacheConfig       `yaml:"cache"`
	Settings   SettingsConfig    `yaml:"settings"`
	Resilience resilience.Config `yaml:"resilience"`
	Observe    observe.Config    `yaml:"observe"`
	Server     ServerConfig      `yaml:"server"`
}

// WeatherConfig describes the upstream API.
type WeatherConfig struct {
	BaseURL string `yaml:"base_url"`
	// APIKey may be a literal, ${VAR} or a secretref.
	APIKey  string        `yaml:"api_key"`
	Units   string        `yaml:"units"`
	Lang    string        `yaml:"lang"`
	Timeout time.Duration `yaml:"timeout"`
}

// CacheConfig configures the response cache.
type CacheConfig struct {
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
	Backend    string        `yaml:"backend"` // memory|redis
	RedisURL     string        `yaml:"redis_url"`
	RedisPrefix  string        `yaml:"redis_prefix"`
	RedisTimeout time.Duration `yaml:"redis_timeout"`
	Retention    time.Duration `yaml:"retention"`
	KeyPolicy    string        `yaml:"key_policy"` // identity|all
	KeyFormat    string        `yaml:"key_format"` // join|hash
	Coalesce     *bool         `yaml:"coalesce"`
}

// Keyer returns the key renderer named by KeyFormat.
func (c CacheConfig) Keyer() (cache.Keyer, error) {
	switch c.KeyFormat {
	case "", "join":
		return cache.NewJoinKeyer(), nil
	case "hash":
		return cache.NewHashKeyer(), nil
	default:
		return nil, fmt.Errorf("%w: cache.key_format %q", ErrInvalidConfig, c.KeyFormat)
	}
}

// Location is a named coordinate pair.
type Location struct {
	City string  `yaml:"city"`
	Lat  float64 `yaml:"lat"`
	Lon  float64 `yaml:"lon"`
}

// SettingsConfig holds dashboard behaviour.
type SettingsConfig struct {
	DefaultCity      string   `yaml:"default_city"`
	Fallback         Location `yaml:"fallback"`
	MaxSearchHistory int      `yaml:"max_search_history"`
	DemoFallback     bool     `yaml:"demo_fallback"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	APIKeys         []string      `yaml:"api_keys"`
	JWTSecret       string        `yaml:"jwt_secret"`
	JWTIssuer       string        `yaml:"jwt_issuer"`
	JWTAudience     string        `yaml:"jwt_audience"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// AuthEnabled reports whether API routes require credentials.
func (s ServerConfig) AuthEnabled() bool {
	return len(s.APIKeys) > 0 || s.JWTSecret != ""
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Weather: WeatherConfig{
			BaseURL: DefaultBaseURL,
			Units:   DefaultUnits,
			Lang:    DefaultLang,
			Timeout: 10 * time.Second,
		},
		Cache: CacheConfig{
			TTL:       cache.DefaultTTL,
			Backend:   "memory",
			KeyPolicy: "identity",
			KeyFormat: "join",
		},
		Settings: SettingsConfig{
			DefaultCity:      DefaultCity,
			Fallback:         Location{City: DefaultCity, Lat: 51.5074, Lon: -0.1278},
			MaxSearchHistory: weather.DefaultHistorySize,
			DemoFallback:     true,
		},
		Resilience: resilience.Config{
			RetryAttempts:   3,
			BreakerFailures: 5,
			BreakerReset:    30 * time.Second,
			RatePerSecond:   1,
			Burst:           5,
			Timeout:         10 * time.Second,
		},
		Observe: observe.Config{
			ServiceName: DefaultServiceName,
			Tracing:     observe.TracingConfig{Exporter: "none", SamplePct: 1},
			Metrics:     observe.MetricsConfig{Exporter: "none"},
			Logging:     observe.LoggingConfig{Enabled: true, Level: "info", Format: "json"},
		},
		Server: ServerConfig{
			Addr:            DefaultAddr,
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// Policy returns the cache policy described by c.
func (c CacheConfig) Policy() cache.Policy {
	return cache.Policy{TTL: c.TTL, MaxEntries: c.MaxEntries, Retention: c.Retention}
}

// CoalesceEnabled reports whether identical in-flight fetches are shared.
func (c CacheConfig) CoalesceEnabled() bool {
	return c.Coalesce == nil || *c.Coalesce
}

// Validate checks c and returns the first problem found, wrapped in
// ErrInvalidConfig.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	u, err := url.Parse(c.Weather.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid("weather.base_url %q", c.Weather.BaseURL)
	}
	if _, err := weather.ScaleForUnits(c.Weather.Units); err != nil || strings.TrimSpace(c.Weather.Units) == "" {
		return invalid("weather.units %q", c.Weather.Units)
	}
	if c.Weather.Timeout < 0 {
		return invalid("weather.timeout must not be negative")
	}

	if c.Cache.MaxEntries < 0 {
		return invalid("cache.max_entries must not be negative")
	}
	if c.Cache.Retention < 0 {
		return invalid("cache.retention must not be negative")
	}
	if c.Cache.RedisTimeout < 0 {
		return invalid("cache.redis_timeout must not be negative")
	}
	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Cache.RedisURL == "" {
			return invalid("cache.redis_url is required for the redis backend")
		}
	default:
		return invalid("cache.backend %q", c.Cache.Backend)
	}
	if _, err := fetch.ParseKeyPolicy(c.Cache.KeyPolicy); err != nil {
		return invalid("cache.key_policy %q", c.Cache.KeyPolicy)
	}
	if _, err := c.Cache.Keyer(); err != nil {
		return err
	}

	if strings.TrimSpace(c.Settings.DefaultCity) == "" {
		return invalid("settings.default_city is required")
	}
	if c.Settings.MaxSearchHistory <= 0 {
		return invalid("settings.max_search_history must be positive")
	}
	if f := c.Settings.Fallback; f.Lat < -90 || f.Lat > 90 || f.Lon < -180 || f.Lon > 180 {
		return invalid("settings.fallback coordinates %g,%g", f.Lat, f.Lon)
	}

	r := c.Resilience
	if r.RetryAttempts < 0 || r.BreakerFailures < 0 || r.RatePerSecond < 0 || r.Burst < 0 ||
		r.BreakerReset < 0 || r.Timeout < 0 {
		return invalid("resilience values must not be negative")
	}

	if err := c.Observe.Validate(); err != nil {
		return fmt.Errorf("%w: observe: %w", ErrInvalidConfig, err)
	}

	if (c.Server.JWTIssuer != "" || c.Server.JWTAudience != "") && c.Server.JWTSecret == "" {
		return invalid("server.jwt_secret is required when jwt_issuer or jwt_audience is set")
	}
	for i, k := range c.Server.APIKeys {
		if strings.TrimSpace(k) == "" {
			return invalid("server.api_keys[%d] is empty", i)
		}
	}
	return nil
}
