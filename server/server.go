package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/jonwraymond/weatherops/auth"
	"github.com/jonwraymond/weatherops/health"
	"github.com/jonwraymond/weatherops/observe"
	"github.com/jonwraymond/weatherops/tasks"
	"github.com/jonwraymond/weatherops/weather"
)

// ErrMissingWeather is returned by New when Deps has no weather service.
var ErrMissingWeather = errors.New("server: weather service is required")

// Deps are the collaborators behind the HTTP API.
type Deps struct {
	Weather *weather.Service

	// Tasks defaults to an empty in-memory store.
	Tasks *tasks.Store

	// Health mounts the probe routes when set.
	Health *health.Aggregator

	// Auth guards /api/. Nil leaves the API open.
	Auth auth.Authenticator

	// Metrics is served at /metrics when set.
	Metrics http.Handler

	Logger observe.Logger
	Now    func() time.Time
}

type server struct {
	weather *weather.Service
	tasks   *tasks.Store
	logger  observe.Logger
	now     func() time.Time
}

// New builds the HTTP handler.
func New(d Deps) (http.Handler, error) {
	if d.Weather == nil {
		return nil, ErrMissingWeather
	}
	s := &server{
		weather: d.Weather,
		tasks:   d.Tasks,
		logger:  d.Logger,
		now:     d.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.tasks == nil {
		s.tasks = tasks.NewStore(s.now)
	}
	if s.logger == nil {
		s.logger = observe.NopLogger()
	}

	api := http.NewServeMux()
	api.HandleFunc("GET /api/weather", s.handleWeather)
	api.HandleFunc("GET /api/forecast", s.handleForecast)
	api.HandleFunc("GET /api/history", s.handleHistory)
	api.HandleFunc("DELETE /api/history", s.handleClearHistory)
	api.HandleFunc("DELETE /api/cache", s.handleClearCache)

	api.HandleFunc("GET /api/tasks", s.handleListTasks)
	api.HandleFunc("POST /api/tasks", s.handleCreateTask)
	api.HandleFunc("GET /api/tasks/stats", s.handleTaskStats)
	api.HandleFunc("GET /api/tasks/export", s.handleExportTasks)
	api.HandleFunc("POST /api/tasks/import", s.handleImportTasks)
	api.HandleFunc("DELETE /api/tasks/completed", s.handleClearCompleted)
	api.HandleFunc("GET /api/tasks/{id}", s.handleGetTask)
	api.HandleFunc("PUT /api/tasks/{id}", s.handleUpdateTask)
	api.HandleFunc("DELETE /api/tasks/{id}", s.handleDeleteTask)
	api.HandleFunc("POST /api/tasks/{id}/toggle", s.handleToggleTask)

	mux := http.NewServeMux()
	mux.Handle("/api/", auth.Middleware(d.Auth)(notePrincipal(api)))
	if d.Health != nil {
		health.RegisterHandlers(mux, d.Health)
	}
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics)
	}
	return s.logRequests(mux), nil
}

type statusRecorder struct {
	http.ResponseWriter
	status    int
	principal string
}

// notePrincipal copies the authenticated principal onto the recorder so
// the request log line can carry it.
func notePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rec, ok := w.(*statusRecorder); ok {
			rec.principal = auth.PrincipalFromContext(r.Context())
		}
		next.ServeHTTP(w, r)
	})
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		fields := []observe.Field{
			{Key: "method", Value: r.Method},
			{Key: "path", Value: r.URL.Path},
			{Key: "status", Value: rec.status},
			{Key: "duration_ms", Value: float64(s.now().Sub(start).Microseconds()) / 1000},
		}
		if rec.principal != "" {
			fields = append(fields, observe.Field{Key: "principal", Value: rec.principal})
		}
		if rec.status >= http.StatusInternalServerError {
			s.logger.Warn(r.Context(), "request failed", fields...)
			return
		}
		s.logger.Debug(r.Context(), "request", fields...)
	})
}
