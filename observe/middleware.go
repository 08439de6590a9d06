package observe

import (
	"context"
	"time"
)

// FetchFunc is the request path that Middleware wraps. cacheHit reports
// whether the payload came from a fresh cache entry.
type FetchFunc func(ctx context.Context, meta RequestMeta) (payload []byte, cacheHit bool, err error)

// Middleware wraps fetches with tracing, metrics, and logging.
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe FetchFunc.
//   - Errors: errors from the wrapped function are recorded and propagated unchanged.
//   - Ownership: payloads are passed through without modification.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware. Nil components are replaced with no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = NewNoopTracer()
	}
	if metrics == nil {
		metrics = NewNoopMetrics()
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// Wrap wraps a FetchFunc with tracing, metrics, and logging.
func (m *Middleware) Wrap(fn FetchFunc) FetchFunc {
	return func(ctx context.Context, meta RequestMeta) ([]byte, bool, error) {
		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()

		payload, hit, err := fn(ctx, meta)

		duration := time.Since(start)
		m.tracer.EndSpan(span, hit, err)
		m.metrics.RecordFetch(ctx, meta, duration, hit, err)

		reqLogger := m.logger.WithRequest(meta)
		fields := []Field{
			{Key: "duration_ms", Value: float64(duration.Microseconds()) / 1000},
			{Key: "cache_hit", Value: hit},
		}

		switch {
		case err != nil:
			fields = append(fields,
				Field{Key: "error", Value: err.Error()},
				Field{Key: "error_kind", Value: ErrorKind(err)},
			)
			reqLogger.Error(ctx, "fetch failed", fields...)
		case hit:
			reqLogger.Debug(ctx, "fetch served from cache", fields...)
		default:
			fields = append(fields, Field{Key: "bytes", Value: len(payload)})
			reqLogger.Info(ctx, "fetch completed", fields...)
		}

		return payload, hit, err
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
