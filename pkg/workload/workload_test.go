package workload

import (
	"bytes"
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zapcore"

	"github.com/ajitpratap0/recycler/pkg/config"
	"github.com/ajitpratap0/recycler/pkg/errors"
	"github.com/ajitpratap0/recycler/pkg/observability"
	"github.com/ajitpratap0/recycler/pkg/testutil"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Name = "test"
	cfg.Workload.Workers = 1
	cfg.Workload.Iterations = 500
	cfg.Workload.MaxHeld = 4
	cfg.Workload.PayloadBytes = 16
	cfg.Workload.Seed = 42
	return cfg
}

func run(t *testing.T, cfg *config.Config, opts ...Option) *Report {
	t.Helper()
	p, err := NewFramePool(cfg, testutil.TestLogger(t))
	require.NoError(t, err)

	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	rep, err := NewRunner(cfg, p, append(opts, WithLogger(testutil.TestLogger(t)))...).Run(ctx)
	require.NoError(t, err)
	return rep
}

func TestRunReturnsEveryFrame(t *testing.T) {
	cfg := testConfig()
	cfg.Workload.Workers = 4
	cfg.Pool.InitialSize = 2

	rep := run(t, cfg)
	st := rep.Stats

	assert.Equal(t, st.Reserved, st.Released)
	assert.Equal(t, st.Created, st.Free)
	assert.Equal(t, st.Reserved-(st.Created-2), st.Reused)
	assert.Zero(t, st.Rejected)
	assert.Zero(t, st.Duplicates)
	assert.Equal(t, st.Reserved, rep.Latency[opReserve].Count)
	assert.Equal(t, st.Released, rep.Latency[opRelease].Count)

	heldAtEnd := rep.Operations - int64(cfg.Workload.Workers*cfg.Workload.Iterations)
	assert.GreaterOrEqual(t, heldAtEnd, int64(0))
	assert.LessOrEqual(t, heldAtEnd, int64(cfg.Workload.Workers*cfg.Workload.MaxHeld))
	assert.LessOrEqual(t, st.Created, int64(cfg.Workload.Workers*cfg.Workload.MaxHeld+2))
}

func TestRunIsReproducibleWithOneWorker(t *testing.T) {
	a := run(t, testConfig())
	b := run(t, testConfig())

	assert.Equal(t, a.Stats, b.Stats)
	assert.Equal(t, a.Operations, b.Operations)
}

func TestRunRejectsForeignFrames(t *testing.T) {
	cfg := testConfig()
	cfg.Workload.Workers = 2
	cfg.Workload.ForeignEvery = 10

	rep := run(t, cfg)
	assert.Equal(t, int64(2*500/10), rep.ForeignRejected)
	assert.Equal(t, rep.ForeignRejected, rep.Stats.Rejected)
	assert.Equal(t, rep.Stats.Reserved, rep.Stats.Released)
}

func TestRunResets(t *testing.T) {
	cfg := testConfig()
	cfg.Workload.Workers = 3
	cfg.Workload.ResetEvery = 50
	cfg.Pool.InitialSize = 1

	rep := run(t, cfg)
	assert.Equal(t, int64(500/50), rep.Stats.Resets)
	assert.Equal(t, int64(10), rep.Latency[opReset].Count)
	assert.Equal(t, rep.Stats.Reserved, rep.Stats.Released)
}

func TestRunRespectsMaxSize(t *testing.T) {
	cfg := testConfig()
	cfg.Workload.Workers = 2
	cfg.Pool.MaxSize = 1

	rep := run(t, cfg)
	assert.LessOrEqual(t, rep.Stats.Free, int64(1))
	assert.Equal(t, rep.Stats.Reserved, rep.Stats.Released+rep.Stats.Dropped)
}

func TestRunRecordsSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := trace.NewTracerProvider(trace.WithSpanProcessor(rec))

	cfg := testConfig()
	cfg.Workload.Workers = 2
	run(t, cfg, WithTracer(observability.NewTracer(tp.Tracer("test"))))

	names := map[string]int{}
	for _, s := range rec.Ended() {
		names[s.Name()]++
	}
	assert.Equal(t, 1, names["workload.run"])
	assert.Equal(t, 2, names["workload.worker"])
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := testConfig()
	p, err := NewFramePool(cfg, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = NewRunner(cfg, p).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReportJSON(t *testing.T) {
	rep := run(t, testConfig())

	data, err := rep.JSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"identity"`)

	back, err := ParseReport(data)
	require.NoError(t, err)
	assert.Equal(t, rep.Stats, back.Stats)
	assert.Equal(t, rep.Identity, back.Identity)
	assert.Equal(t, rep.Latency, back.Latency)
}

func TestParseReportRejectsGarbage(t *testing.T) {
	_, err := ParseReport([]byte("{"))
	assert.Error(t, err)
}

func TestReportEncode(t *testing.T) {
	rep := run(t, testConfig())

	var buf bytes.Buffer
	require.NoError(t, rep.Encode(&buf))

	data, err := rep.JSON()
	require.NoError(t, err)
	assert.Equal(t, string(data)+"\n", buf.String())
}

func TestRunLogsWithRunContext(t *testing.T) {
	cfg := testConfig()
	cfg.Workload.Workers = 2
	cfg.Workload.ResetEvery = 100

	p, err := NewFramePool(cfg, nil)
	require.NoError(t, err)

	l, logs := testutil.ObservedLogger(zapcore.DebugLevel)
	_, err = NewRunner(cfg, p, WithLogger(l)).Run(context.Background())
	require.NoError(t, err)

	resets := logs.FilterMessage("pool reset").All()
	require.Len(t, resets, 5)
	for _, e := range resets {
		fields := e.ContextMap()
		assert.Equal(t, int64(0), fields["worker"])
		assert.Equal(t, "test", fields["run_id"])
		assert.Equal(t, string(p.Identity()), fields["pool"])
	}

	finished := logs.FilterMessage("workload finished").All()
	require.Len(t, finished, 1)
	assert.Equal(t, "test", finished[0].ContextMap()["run_id"])
	assert.NotContains(t, finished[0].ContextMap(), "worker")
}

func TestForeignAcceptedCarriesStack(t *testing.T) {
	err := foreignAccepted(1, 20)

	assert.ErrorIs(t, err, ErrForeignAccepted)
	var e *errors.Error
	require.True(t, stderrors.As(err, &e))
	assert.NotEmpty(t, e.Stack)
	assert.Equal(t, 20, e.Details["step"])
}
