package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/weatherops/secret"
)

// EnvProduction disables .env loading when set as WEATHEROPS_ENV.
const EnvProduction = "production"

// Environment variables consulted after the YAML document.
const (
	EnvMode     = "WEATHEROPS_ENV"
	EnvAPIKey   = "OPENWEATHER_API_KEY"
	EnvRedisURL = "WEATHEROPS_REDIS_URL"
	EnvAddr     = "WEATHEROPS_ADDR"
)

type loadOptions struct {
	envFile  string
	registry *secret.Registry
	secrets  map[string]map[string]any
}

// Option configures Load.
type Option func(*loadOptions)

// WithEnvFile sets the dotenv file read before the YAML document. An empty
// path disables dotenv loading.
func WithEnvFile(path string) Option {
	return func(o *loadOptions) { o.envFile = path }
}

// WithSecretRegistry replaces the registry used to resolve secretref
// values. The default registry has the env and file providers.
func WithSecretRegistry(reg *secret.Registry) Option {
	return func(o *loadOptions) { o.registry = reg }
}

// WithProviderConfig passes per-provider configuration to the secret
// registry, for example {"file": {"root": "/run/secrets"}}.
func WithProviderConfig(cfg map[string]map[string]any) Option {
	return func(o *loadOptions) { o.secrets = cfg }
}

// Load builds a Config from defaults, an optional dotenv file, the YAML
// document at path (skipped when path is empty) and the environment.
func Load(ctx context.Context, path string, opts ...Option) (*Config, error) {
	o := loadOptions{envFile: ".env"}
	for _, opt := range opts {
		opt(&o)
	}

	if err := loadDotenv(o.envFile); err != nil {
		return nil, err
	}

	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := Decode(raw, &cfg); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
	}

	applyEnv(&cfg, os.LookupEnv)

	if err := resolveSecrets(ctx, &cfg, o); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Decode expands ${VAR} references in raw and decodes it over cfg. Unknown
// keys are rejected.
func Decode(raw []byte, cfg *Config) error {
	expanded, err := secret.ExpandEnvStrict(string(raw))
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func loadDotenv(path string) error {
	if path == "" || os.Getenv(EnvMode) == EnvProduction {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAPIKey); ok && v != "" {
		cfg.Weather.APIKey = v
	}
	if v, ok := lookup(EnvRedisURL); ok && v != "" {
		cfg.Cache.RedisURL = v
		cfg.Cache.Backend = "redis"
	}
	if v, ok := lookup(EnvAddr); ok && v != "" {
		cfg.Server.Addr = v
	}
}

// resolveSecrets runs after Decode has expanded the document, so only values
// carrying a reference go through the resolver.
func resolveSecrets(ctx context.Context, cfg *Config, o loadOptions) error {
	reg := o.registry
	if reg == nil {
		reg = secret.NewRegistry()
		if err := secret.RegisterBuiltins(reg); err != nil {
			return err
		}
	}
	res, err := reg.NewResolver(true, o.secrets)
	if err != nil {
		return fmt.Errorf("config: secrets: %w", err)
	}
	defer func() { _ = res.Close() }()

	fields := []secret.Field{
		{Name: "weather.api_key", Value: &cfg.Weather.APIKey},
		{Name: "cache.redis_url", Value: &cfg.Cache.RedisURL},
		{Name: "server.jwt_secret", Value: &cfg.Server.JWTSecret},
	}
	for i := range cfg.Server.APIKeys {
		fields = append(fields, secret.Field{
			Name:  fmt.Sprintf("server.api_keys[%d]", i),
			Value: &cfg.Server.APIKeys[i],
		})
	}
	if err := res.ResolveFields(ctx, fields...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
