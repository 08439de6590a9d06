package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// RequestMeta describes one logical fetch for telemetry purposes.
type RequestMeta struct {
	Endpoint string // Registered endpoint name (required)
	Class    string // Request class used as the cache key prefix
	Path     string // Remote path relative to the base URL
	Key      string // Derived cache key
}

// SpanName returns the deterministic span name for this request.
// Format: fetch.<endpoint>
func (m RequestMeta) SpanName() string {
	return "fetch." + m.Endpoint
}

// Validate reports whether the metadata can label telemetry.
func (m RequestMeta) Validate() error {
	if m.Endpoint == "" {
		return ErrMissingEndpoint
	}
	return nil
}

func (m RequestMeta) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("fetch.endpoint", m.Endpoint),
	}
	if m.Class != "" {
		attrs = append(attrs, attribute.String("fetch.class", m.Class))
	}
	if m.Path != "" {
		attrs = append(attrs, attribute.String("fetch.path", m.Path))
	}
	return attrs
}

// Tracer wraps OpenTelemetry tracing with fetch-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a fetch.
	StartSpan(ctx context.Context, meta RequestMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording cache outcome and any error.
	EndSpan(span trace.Span, cacheHit bool, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a client span; the cache key is attached because it is
// the identity of the request, while query parameters are not (they carry
// the API key).
func (t *tracerImpl) StartSpan(ctx context.Context, meta RequestMeta) (context.Context, trace.Span) {
	attrs := meta.attributes()
	if meta.Key != "" {
		attrs = append(attrs, attribute.String("fetch.key", meta.Key))
	}
	attrs = append(attrs, attribute.Bool("fetch.error", false))

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, cacheHit bool, err error) {
	span.SetAttributes(attribute.Bool("fetch.cache_hit", cacheHit))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(
			attribute.Bool("fetch.error", true),
			attribute.String("fetch.error_kind", ErrorKind(err)),
		)
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

type noopTracer struct {
	noop trace.Tracer
}

// NewNoopTracer creates a tracer that records nothing.
func NewNoopTracer() Tracer {
	return &noopTracer{noop: tracenoop.NewTracerProvider().Tracer("noop")}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta RequestMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, _ bool, _ error) {
	span.End()
}
