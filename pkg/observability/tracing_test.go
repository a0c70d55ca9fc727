package observability

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTraceRecordsSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	tr := NewTracer(tp.Tracer("test"))

	boom := errors.New("boom")
	require.NoError(t, tr.Trace(context.Background(), "ok", func(ctx context.Context) error {
		Event(ctx, "reserved", attribute.Int("size", 1))
		return nil
	}, attribute.String("pool", "frames")))
	err := tr.Trace(context.Background(), "fail", func(context.Context) error { return boom })
	assert.True(t, err == boom)

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "ok", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "reserved", spans[0].Events()[0].Name)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}

func TestInitTracingExportsOnShutdown(t *testing.T) {
	var buf bytes.Buffer
	tr, shutdown, err := InitTracing(TracingConfig{ServiceName: "recycler-test", SampleRate: 1, Writer: &buf})
	require.NoError(t, err)

	require.NoError(t, tr.Trace(context.Background(), "simulate", func(context.Context) error { return nil }))
	require.NoError(t, shutdown(context.Background()))

	assert.Contains(t, buf.String(), "simulate")
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.NeverSample().Description(), sampler(0).Description())
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(2).Description())
	assert.Contains(t, sampler(0.5).Description(), "TraceIDRatioBased")
}

func TestNilTracerIsNoop(t *testing.T) {
	tr := NewTracer(nil)
	called := false
	require.NoError(t, tr.Trace(context.Background(), "noop", func(context.Context) error {
		called = true
		return nil
	}))
	assert.True(t, called)
}
