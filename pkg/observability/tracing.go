// Package observability wires OpenTelemetry tracing for recycler runs.
package observability

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracingConfig configures the tracer provider
type TracingConfig struct {
	ServiceName    string
	ServiceVersion string
	SampleRate     float64
	// Writer receives exported spans; defaults to stderr
	Writer io.Writer
}

// ShutdownFunc flushes and stops a tracer provider
type ShutdownFunc func(context.Context) error

// InitTracing installs a global tracer provider exporting to cfg.Writer and
// returns a Tracer for the service.
func InitTracing(cfg TracingConfig) (*Tracer, ShutdownFunc, error) {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create resource: %w", err)
	}

	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SampleRate)),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)

	return NewTracer(tp.Tracer(cfg.ServiceName)), tp.Shutdown, nil
}

func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate <= 0:
		return sdktrace.NeverSample()
	case rate >= 1.0:
		return sdktrace.AlwaysSample()
	default:
		return sdktrace.TraceIDRatioBased(rate)
	}
}

// Tracer wraps an OpenTelemetry tracer with the helpers the CLI uses.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer wraps t. A nil t yields a tracer that records nothing.
func NewTracer(t trace.Tracer) *Tracer {
	if t == nil {
		t = noop.NewTracerProvider().Tracer("recycler")
	}
	return &Tracer{tracer: t}
}

// Trace runs fn inside a span named operation. An error from fn is recorded
// on the span and returned unchanged.
func (t *Tracer) Trace(ctx context.Context, operation string, fn func(context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, span := t.tracer.Start(ctx, operation, trace.WithAttributes(attrs...))
	defer span.End()

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// Event adds an event to the span carried by ctx, if any.
func Event(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}
