package weather

import (
	"context"
	"errors"
	"time"

	"github.com/jonwraymond/weatherops/fetch"
	"github.com/jonwraymond/weatherops/observe"
	"github.com/jonwraymond/weatherops/resilience"
)

// ServiceConfig configures a Service.
type ServiceConfig struct {
	// DefaultCity is loaded when Load is given an empty city.
	DefaultCity string

	// Scale is the scale the API reports temperatures in.
	Scale Scale

	// DemoFallback serves DemoCurrent when a lookup fails for any reason
	// other than an unknown city.
	DemoFallback bool

	// HistorySize bounds the search history.
	HistorySize int

	Now func() time.Time
}

// Snapshot is everything the dashboard shows for one city.
type Snapshot struct {
	City          string         `json:"city"`
	Current       Current        `json:"current"`
	Daily         []ForecastItem `json:"daily"`
	Scale         Scale          `json:"scale"`
	Advice        string         `json:"advice"`
	WindDirection string         `json:"wind_direction"`
	Demo          bool           `json:"demo"`

	// Notice carries the user-facing message of a failure that was
	// absorbed by the demo fallback or a failed forecast.
	Notice    string    `json:"notice,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Service loads dashboard snapshots through a resilience.Executor.
type Service struct {
	client  *Client
	exec    *resilience.Executor
	history *SearchHistory
	cfg     ServiceConfig
	logger  observe.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithExecutor guards API calls with exec.
func WithExecutor(exec *resilience.Executor) ServiceOption {
	return func(s *Service) { s.exec = exec }
}

// WithServiceLogger sets the logger. The default discards output.
func WithServiceLogger(l observe.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// APIClassifier retries only transient failures and trips the breaker on
// API failures other than caller mistakes (unknown city, bad key).
func APIClassifier() resilience.Classifier {
	return resilience.Classifier{
		Retryable: fetch.IsTransient,
		Failure: func(err error) bool {
			var fe *fetch.Error
			if !errors.As(err, &fe) {
				return false
			}
			switch fe.Kind {
			case fetch.KindRateLimited, fetch.KindNetworkUnavailable, fetch.KindUnknown:
				return true
			default:
				return false
			}
		},
	}
}

// NewService creates a Service over client.
func NewService(client *Client, cfg ServiceConfig, opts ...ServiceOption) *Service {
	if cfg.DefaultCity == "" {
		cfg.DefaultCity = "London"
	}
	if cfg.Scale == "" {
		cfg.Scale = Celsius
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	s := &Service{
		client:  client,
		history: NewSearchHistory(cfg.HistorySize),
		cfg:     cfg,
		logger:  observe.NopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Client returns the underlying API client.
func (s *Service) Client() *Client { return s.client }

// History returns the search history.
func (s *Service) History() *SearchHistory { return s.history }

// Executor returns the executor guarding API calls, possibly nil.
func (s *Service) Executor() *resilience.Executor { return s.exec }

// Load returns the snapshot for city, or for the default city when city is
// blank. A successful live lookup is recorded in the history. A failed
// forecast leaves Daily empty and sets Notice.
func (s *Service) Load(ctx context.Context, city string) (Snapshot, error) {
	city = normalizeCity(city)
	if city == "" {
		city = s.cfg.DefaultCity
	}

	cur, err := resilience.Do(ctx, s.exec, func(ctx context.Context) (Current, error) {
		return s.client.CurrentByCity(ctx, city)
	})
	if err != nil {
		return s.fallback(ctx, city, err)
	}
	s.history.Add(city)
	return s.complete(ctx, city, cur), nil
}

// LoadByCoords returns the snapshot for a coordinate pair. The forecast is
// looked up by the city name the API resolves the coordinates to.
func (s *Service) LoadByCoords(ctx context.Context, lat, lon float64) (Snapshot, error) {
	cur, err := resilience.Do(ctx, s.exec, func(ctx context.Context) (Current, error) {
		return s.client.CurrentByCoords(ctx, lat, lon)
	})
	if err != nil {
		return s.fallback(ctx, "", err)
	}
	return s.complete(ctx, cur.Name, cur), nil
}

func (s *Service) complete(ctx context.Context, city string, cur Current) Snapshot {
	snap := s.snapshot(city, cur)
	if city == "" {
		return snap
	}

	fc, err := resilience.Do(ctx, s.exec, func(ctx context.Context) (Forecast, error) {
		return s.client.ForecastByCity(ctx, city)
	})
	if err != nil {
		s.logger.Warn(ctx, "forecast unavailable",
			observe.Field{Key: "city", Value: city},
			observe.Field{Key: "error", Value: err.Error()},
		)
		snap.Notice = err.Error()
		return snap
	}
	snap.Daily = DailyForecasts(fc.List, fc.Location())
	return snap
}

func (s *Service) fallback(ctx context.Context, city string, err error) (Snapshot, error) {
	if !s.cfg.DemoFallback || errors.Is(err, fetch.ErrNotFound) || errors.Is(err, ErrEmptyCity) ||
		errors.Is(err, fetch.ErrInvalidParam) || ctx.Err() != nil {
		return Snapshot{}, err
	}
	s.logger.Warn(ctx, "serving demo data",
		observe.Field{Key: "city", Value: city},
		observe.Field{Key: "error", Value: err.Error()},
	)
	demo := DemoCurrent()
	snap := s.snapshot(demo.Name, demo)
	// Demo temperatures are Celsius regardless of the configured units.
	snap.Scale = Celsius
	snap.Advice = Advice(demo, Celsius)
	snap.Demo = true
	snap.Notice = err.Error()
	return snap, nil
}

func (s *Service) snapshot(city string, cur Current) Snapshot {
	return Snapshot{
		City:          city,
		Current:       cur,
		Daily:         []ForecastItem{},
		Scale:         s.cfg.Scale,
		Advice:        Advice(cur, s.cfg.Scale),
		WindDirection: WindDirection(cur.Wind.Deg),
		FetchedAt:     s.cfg.Now(),
	}
}
