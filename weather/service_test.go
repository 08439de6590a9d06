package weather

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"
	"time"

	"github.com/jonwraymond/weatherops/fetch"
	"github.com/jonwraymond/weatherops/resilience"
)

var serviceNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, srv *owmServer, cfg ServiceConfig, opts ...ServiceOption) *Service {
	t.Helper()
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return serviceNow }
	}
	return NewService(newTestWeatherClient(t, srv), cfg, opts...)
}

// fastExecutor retries transient failures without real backoff and opens
// its breaker after two counted failures.
func fastExecutor() *resilience.Executor {
	cls := APIClassifier()
	return resilience.NewExecutor(
		resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			MaxFailures:  2,
			ResetTimeout: time.Hour,
			IsFailure:    cls.Failure,
		})),
		resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{
			MaxAttempts:  3,
			InitialDelay: time.Millisecond,
			MaxDelay:     time.Millisecond,
			RetryIf:      cls.Retryable,
		})),
	)
}

func TestService_Load(t *testing.T) {
	srv := newOWMServer(t)
	s := newTestService(t, srv, ServiceConfig{})

	snap, err := s.Load(context.Background(), " london ")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if snap.Demo || snap.Notice != "" {
		t.Errorf("Demo = %v, Notice = %q", snap.Demo, snap.Notice)
	}
	if snap.City != "london" || snap.Current.Name != "London" {
		t.Errorf("City = %q, Current.Name = %q", snap.City, snap.Current.Name)
	}
	if snap.Advice != "Don't forget your umbrella!" {
		t.Errorf("Advice = %q", snap.Advice)
	}
	if snap.WindDirection != "SW" {
		t.Errorf("WindDirection = %q", snap.WindDirection)
	}
	if len(snap.Daily) != MaxForecastDays {
		t.Errorf("len(Daily) = %d", len(snap.Daily))
	}
	if !snap.FetchedAt.Equal(serviceNow) || snap.Scale != Celsius {
		t.Errorf("FetchedAt = %v, Scale = %q", snap.FetchedAt, snap.Scale)
	}
	if got := s.History().List(); !reflect.DeepEqual(got, []string{"london"}) {
		t.Errorf("History = %v", got)
	}
}

func TestService_LoadDefaultCity(t *testing.T) {
	srv := newOWMServer(t)
	s := newTestService(t, srv, ServiceConfig{DefaultCity: "London"})

	snap, err := s.Load(context.Background(), "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if snap.City != "London" {
		t.Errorf("City = %q", snap.City)
	}
}

func TestService_NotFoundIsNeverDemo(t *testing.T) {
	srv := newOWMServer(t)
	s := newTestService(t, srv, ServiceConfig{DemoFallback: true})

	_, err := s.Load(context.Background(), "Atlantis")
	if !errors.Is(err, fetch.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if len(s.History().List()) != 0 {
		t.Error("failed lookup recorded in history")
	}
}

func TestService_DemoFallback(t *testing.T) {
	srv := newOWMServer(t)
	srv.failNext("weather", http.StatusUnauthorized)
	s := newTestService(t, srv, ServiceConfig{DemoFallback: true, Scale: Fahrenheit})

	snap, err := s.Load(context.Background(), "London")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !snap.Demo {
		t.Fatal("Demo = false")
	}
	if snap.Notice != fetch.KindUnauthorized.Message() {
		t.Errorf("Notice = %q", snap.Notice)
	}
	if snap.Scale != Celsius || snap.Advice != "Perfect weather to go outside!" {
		t.Errorf("Scale = %q, Advice = %q", snap.Scale, snap.Advice)
	}
	if len(s.History().List()) != 0 {
		t.Error("demo snapshot recorded in history")
	}
}

func TestService_FailureWithoutFallback(t *testing.T) {
	srv := newOWMServer(t)
	srv.failNext("weather", http.StatusInternalServerError)
	s := newTestService(t, srv, ServiceConfig{})

	if _, err := s.Load(context.Background(), "London"); fetch.KindOf(err) != fetch.KindUnknown || err == nil {
		t.Fatalf("err = %v, want unknown kind", err)
	}
}

func TestService_ForecastFailureKeepsCurrent(t *testing.T) {
	srv := newOWMServer(t)
	srv.failNext("forecast", http.StatusBadGateway)
	s := newTestService(t, srv, ServiceConfig{})

	snap, err := s.Load(context.Background(), "London")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if snap.Current.Name != "London" || len(snap.Daily) != 0 {
		t.Errorf("Current = %q, Daily = %d", snap.Current.Name, len(snap.Daily))
	}
	if snap.Notice != fetch.KindUnknown.Message() {
		t.Errorf("Notice = %q", snap.Notice)
	}
}

func TestService_RetriesTransientFailures(t *testing.T) {
	srv := newOWMServer(t)
	srv.failNext("weather", http.StatusTooManyRequests, http.StatusTooManyRequests)
	s := newTestService(t, srv, ServiceConfig{}, WithExecutor(fastExecutor()))

	if _, err := s.Load(context.Background(), "London"); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	// two rejected attempts, one success, one forecast
	if n := srv.hits.Load(); n != 4 {
		t.Fatalf("hits = %d, want 4", n)
	}
}

func TestService_NotFoundDoesNotTripBreaker(t *testing.T) {
	srv := newOWMServer(t)
	exec := fastExecutor()
	s := newTestService(t, srv, ServiceConfig{}, WithExecutor(exec))
	ctx := context.Background()

	for range 3 {
		if _, err := s.Load(ctx, "Atlantis"); !errors.Is(err, fetch.ErrNotFound) {
			t.Fatalf("err = %v", err)
		}
	}
	if st := exec.CircuitBreaker().State(); st != resilience.StateClosed {
		t.Fatalf("breaker state = %v, want closed", st)
	}
	// unknown cities are not retried
	if n := srv.hits.Load(); n != 3 {
		t.Fatalf("hits = %d, want 3", n)
	}
}

func TestService_OutageOpensBreaker(t *testing.T) {
	srv := newOWMServer(t)
	srv.failNext("weather", http.StatusInternalServerError, http.StatusInternalServerError, http.StatusInternalServerError)
	exec := fastExecutor()
	s := newTestService(t, srv, ServiceConfig{}, WithExecutor(exec))
	ctx := context.Background()

	for range 2 {
		if _, err := s.Load(ctx, "London"); err == nil {
			t.Fatal("expected error")
		}
	}
	_, err := s.Load(ctx, "London")
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}
	if n := srv.hits.Load(); n != 2 {
		t.Fatalf("hits = %d, want 2", n)
	}
}

func TestService_LoadByCoords(t *testing.T) {
	srv := newOWMServer(t)
	s := newTestService(t, srv, ServiceConfig{})

	snap, err := s.LoadByCoords(context.Background(), 51.5074, -0.1278)
	if err != nil {
		t.Fatalf("LoadByCoords() error = %v", err)
	}
	if snap.City != "London" || len(snap.Daily) != MaxForecastDays {
		t.Errorf("City = %q, Daily = %d", snap.City, len(snap.Daily))
	}
	if len(s.History().List()) != 0 {
		t.Error("coordinate lookup recorded in history")
	}
}

func TestService_CancelledContextSkipsDemo(t *testing.T) {
	srv := newOWMServer(t)
	s := newTestService(t, srv, ServiceConfig{DemoFallback: true})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Load(ctx, "London"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestAPIClassifier(t *testing.T) {
	cls := APIClassifier()
	tests := []struct {
		err               error
		retry, countsFail bool
	}{
		{err: fetch.ErrRateLimited, retry: true, countsFail: true},
		{err: fetch.ErrNetworkUnavailable, retry: true, countsFail: true},
		{err: fetch.ErrUnknown, retry: false, countsFail: true},
		{err: fetch.ErrNotFound, retry: false, countsFail: false},
		{err: fetch.ErrUnauthorized, retry: false, countsFail: false},
		{err: ErrEmptyCity, retry: false, countsFail: false},
	}
	for _, tt := range tests {
		if got := cls.Retryable(tt.err); got != tt.retry {
			t.Errorf("Retryable(%v) = %v", tt.err, got)
		}
		if got := cls.Failure(tt.err); got != tt.countsFail {
			t.Errorf("Failure(%v) = %v", tt.err, got)
		}
	}
}
