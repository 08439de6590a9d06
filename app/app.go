// Package app wires configuration into a running weatherops instance.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonwraymond/weatherops/auth"
	"github.com/jonwraymond/weatherops/cache"
	"github.com/jonwraymond/weatherops/config"
	"github.com/jonwraymond/weatherops/fetch"
	"github.com/jonwraymond/weatherops/health"
	"github.com/jonwraymond/weatherops/observe"
	"github.com/jonwraymond/weatherops/resilience"
	"github.com/jonwraymond/weatherops/server"
	"github.com/jonwraymond/weatherops/tasks"
	"github.com/jonwraymond/weatherops/weather"
)

// ErrNoJWTSecret is returned by IssueToken when no JWT secret is configured.
var ErrNoJWTSecret = errors.New("app: server.jwt_secret is not configured")

// App owns every long-lived component.
type App struct {
	cfg      *config.Config
	observer observe.Observer
	logger   observe.Logger
	cache    cache.Cache
	service  *weather.Service
	tasks    *tasks.Store
	health   *health.Aggregator
	jwt      *auth.JWTAuthenticator
	handler  http.Handler
	closers  []func(context.Context) error
}

type options struct {
	httpClient *http.Client
	observer   observe.Observer
	now        func() time.Time
}

// Option configures New.
type Option func(*options)

// WithHTTPClient sets the client used for upstream API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithObserver replaces the observer built from cfg.Observe.
func WithObserver(obs observe.Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithClock sets the clock for snapshots, tasks and cache freshness.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New builds an App from cfg. Components created before a failure are
// closed.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (_ *App, err error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: cfg.Weather.Timeout}
	}

	a := &App{cfg: cfg, tasks: tasks.NewStore(o.now), health: health.NewAggregator()}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	a.observer = o.observer
	if a.observer == nil {
		obs, err := observe.NewObserver(ctx, cfg.Observe)
		if err != nil {
			return nil, fmt.Errorf("app: observer: %w", err)
		}
		a.observer = obs
		a.closers = append(a.closers, obs.Shutdown)
	}
	a.logger = a.observer.Logger()

	if err := a.openCache(ctx); err != nil {
		return nil, err
	}

	fetcher, err := a.newFetcher(o)
	if err != nil {
		return nil, err
	}
	client, err := weather.NewClient(fetcher)
	if err != nil {
		return nil, fmt.Errorf("app: weather client: %w", err)
	}

	scale, err := weather.ScaleForUnits(cfg.Weather.Units)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	a.service = weather.NewService(client, weather.ServiceConfig{
		DefaultCity:  cfg.Settings.DefaultCity,
		Scale:        scale,
		DemoFallback: cfg.Settings.DemoFallback,
		HistorySize:  cfg.Settings.MaxSearchHistory,
		Now:          o.now,
	},
		weather.WithExecutor(resilience.NewExecutorFromConfig(cfg.Resilience, weather.APIClassifier())),
		weather.WithServiceLogger(a.logger),
	)

	server.RegisterChecks(a.health, server.Checks{
		Weather:    a.service,
		City:       cfg.Settings.DefaultCity,
		Cache:      a.cache,
		MaxEntries: cfg.Cache.MaxEntries,
	})

	authn, err := a.newAuthenticator()
	if err != nil {
		return nil, err
	}

	deps := server.Deps{
		Weather: a.service,
		Tasks:   a.tasks,
		Health:  a.health,
		Auth:    authn,
		Logger:  a.logger,
		Now:     o.now,
	}
	if cfg.Observe.Metrics.Enabled && cfg.Observe.Metrics.Exporter == "prometheus" {
		deps.Metrics = promhttp.Handler()
	}
	if a.handler, err = server.New(deps); err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	return a, nil
}

func (a *App) openCache(ctx context.Context) error {
	policy := a.cfg.Cache.Policy()
	switch a.cfg.Cache.Backend {
	case "redis":
		rc, err := cache.DialRedis(ctx, a.cfg.Cache.RedisURL, policy,
			cache.WithRedisPrefix(a.cfg.Cache.RedisPrefix),
			cache.WithRedisTimeout(a.cfg.Cache.RedisTimeout),
		)
		if err != nil {
			return fmt.Errorf("app: redis cache: %w", err)
		}
		a.cache = rc
		a.closers = append(a.closers, func(context.Context) error { return rc.Close() })
	default:
		a.cache = cache.NewMemoryCache(policy)
	}
	return nil
}

func (a *App) newFetcher(o options) (*fetch.Client, error) {
	cfg := a.cfg
	keyPolicy, err := fetch.ParseKeyPolicy(cfg.Cache.KeyPolicy)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	keyer, err := cfg.Cache.Keyer()
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	mw, err := observe.MiddlewareFromObserver(a.observer)
	if err != nil {
		return nil, fmt.Errorf("app: telemetry: %w", err)
	}

	fopts := []fetch.Option{
		fetch.WithHTTPClient(o.httpClient),
		fetch.WithCache(a.cache),
		fetch.WithPolicy(cfg.Cache.Policy()),
		fetch.WithKeyPolicy(keyPolicy),
		fetch.WithKeyer(keyer),
		fetch.WithAPIKey(cfg.Weather.APIKey),
		fetch.WithDefaults(fetch.Params{"units": cfg.Weather.Units, "lang": cfg.Weather.Lang}),
		fetch.WithMiddleware(mw),
		fetch.WithLogger(a.logger),
		fetch.WithClock(o.now),
	}
	if !cfg.Cache.CoalesceEnabled() {
		fopts = append(fopts, fetch.WithoutCoalescing())
	}
	f, err := fetch.New(cfg.Weather.BaseURL, fopts...)
	if err != nil {
		return nil, fmt.Errorf("app: fetcher: %w", err)
	}
	return f, nil
}

// newAuthenticator returns nil when no credentials are configured.
func (a *App) newAuthenticator() (auth.Authenticator, error) {
	srv := a.cfg.Server
	var chain auth.Chain

	if srv.JWTSecret != "" {
		j, err := auth.NewJWTAuthenticator(auth.JWTConfig{
			Issuer:   srv.JWTIssuer,
			Audience: srv.JWTAudience,
		}, []byte(srv.JWTSecret))
		if err != nil {
			return nil, fmt.Errorf("app: jwt: %w", err)
		}
		a.jwt = j
		chain = append(chain, j)
	}

	if len(srv.APIKeys) > 0 {
		store := auth.NewMemoryKeyStore()
		for i, key := range srv.APIKeys {
			if err := store.AddKey(fmt.Sprintf("key-%d", i+1), "api", key); err != nil {
				return nil, fmt.Errorf("app: api key %d: %w", i+1, err)
			}
		}
		k, err := auth.NewAPIKeyAuthenticator(auth.APIKeyConfig{}, store)
		if err != nil {
			return nil, fmt.Errorf("app: api keys: %w", err)
		}
		chain = append(chain, k)
	}

	if len(chain) == 0 {
		return nil, nil
	}
	return chain, nil
}

// Handler returns the HTTP API.
func (a *App) Handler() http.Handler { return a.handler }

// Service returns the weather dashboard service.
func (a *App) Service() *weather.Service { return a.service }

// Tasks returns the task store.
func (a *App) Tasks() *tasks.Store { return a.tasks }

// Health returns the health aggregator.
func (a *App) Health() *health.Aggregator { return a.health }

// Logger returns the application logger.
func (a *App) Logger() observe.Logger { return a.logger }

// IssueToken signs a bearer token accepted by the API.
func (a *App) IssueToken(subject string, roles []string, ttl time.Duration) (string, error) {
	if a.jwt == nil {
		return "", ErrNoJWTSecret
	}
	return a.jwt.IssueToken(subject, roles, ttl)
}

// Run serves the API on cfg.Server.Addr until ctx is cancelled, then shuts
// down within cfg.Server.ShutdownTimeout.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info(ctx, "server starting", observe.Field{Key: "addr", Value: srv.Addr})
		err := srv.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	a.logger.Info(shutdownCtx, "server stopping")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("app: shutdown: %w", err)
	}
	return <-errCh
}

// Close releases the cache connection and flushes telemetry.
func (a *App) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
