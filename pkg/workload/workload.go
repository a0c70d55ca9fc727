// Package workload drives a shared pool with simulated callers and reports
// what happened.
//
// Each worker reserves frames, holds up to MaxHeld of them, writes into
// them and releases them in random order. Optionally it releases a frame
// from a private foreign pool every ForeignEvery steps, which must be
// refused, and worker 0 resets the shared pool every ResetEvery steps.
// Runs with the same seed and a single worker are reproducible.
package workload

import (
	"context"
	stderrors "errors"
	"math/rand/v2"
	"sync/atomic"
	"time"

	cpool "github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/recycler/pkg/config"
	"github.com/ajitpratap0/recycler/pkg/errors"
	"github.com/ajitpratap0/recycler/pkg/logger"
	"github.com/ajitpratap0/recycler/pkg/metrics"
	"github.com/ajitpratap0/recycler/pkg/observability"
	"github.com/ajitpratap0/recycler/pkg/pool"
)

const (
	opReserve = "reserve"
	opRelease = "release"
	opReset   = "reset"

	latencySamples = 10000
)

// ErrForeignAccepted is returned when the shared pool accepts a frame it
// never produced.
var ErrForeignAccepted = errors.Sentinel(errors.ErrorTypeOwnership, "foreign entry accepted")

// Runner executes one workload against a shared pool.
type Runner struct {
	cfg    *config.Config
	pool   *pool.Locked[Frame]
	logger *zap.Logger
	tracer *observability.Tracer

	latency    map[string]*metrics.LatencyTracker
	counts     map[string]*atomic.Int64
	throughput *metrics.ThroughputTracker
	foreign    atomic.Int64
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the run logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithTracer records the run and each worker as spans.
func WithTracer(t *observability.Tracer) Option {
	return func(r *Runner) { r.tracer = t }
}

// NewRunner prepares a run of cfg.Workload against p.
func NewRunner(cfg *config.Config, p *pool.Locked[Frame], opts ...Option) *Runner {
	r := &Runner{
		cfg:        cfg,
		pool:       p,
		logger:     zap.NewNop(),
		tracer:     observability.NewTracer(nil),
		latency:    make(map[string]*metrics.LatencyTracker),
		counts:     make(map[string]*atomic.Int64),
		throughput: metrics.NewThroughputTracker(cfg.Name),
	}
	for _, op := range []string{opReserve, opRelease, opReset} {
		r.latency[op] = metrics.NewLatencyTracker(latencySamples)
		r.counts[op] = new(atomic.Int64)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the workload and returns its report. The first unexpected
// error from any worker cancels the others and is returned.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	wl := r.cfg.Workload
	start := time.Now()

	ctx = context.WithValue(ctx, logger.RunIDKey, r.cfg.Name)
	ctx = context.WithValue(ctx, logger.PoolKey, string(r.pool.Identity()))

	err := r.tracer.Trace(ctx, "workload.run", func(ctx context.Context) error {
		workers := cpool.New().WithErrors().WithContext(ctx).WithCancelOnError().WithFirstError()
		for w := 0; w < wl.Workers; w++ {
			workers.Go(func(ctx context.Context) error {
				ctx = context.WithValue(ctx, logger.WorkerKey, w)
				return r.tracer.Trace(ctx, "workload.worker", func(ctx context.Context) error {
					return r.work(ctx, w)
				}, attribute.Int("worker", w))
			})
		}
		return workers.Wait()
	}, attribute.String("pool", string(r.pool.Identity())), attribute.Int("workers", wl.Workers))
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	rep := &Report{
		Name:            r.cfg.Name,
		Identity:        r.pool.Identity(),
		Policy:          r.policyName(),
		Seed:            wl.Seed,
		Workers:         wl.Workers,
		Iterations:      wl.Iterations,
		Duration:        elapsed,
		ForeignRejected: r.foreign.Load(),
		Latency:         make(map[string]Latency, len(r.latency)),
		Stats:           r.pool.Stats(),
	}
	for op, lt := range r.latency {
		n := r.counts[op].Load()
		rep.Operations += n
		rep.Latency[op] = Latency{Count: n, P50: lt.GetPercentile(50), P99: lt.GetPercentile(99)}
	}
	rep.OpsPerSec = r.throughput.GetAndReset()

	logger.FromContext(ctx, r.logger).Info("workload finished",
		zap.Duration("duration", rep.Duration),
		zap.Int64("operations", rep.Operations),
		zap.Float64("opsPerSec", rep.OpsPerSec))
	return rep, nil
}

func (r *Runner) policyName() string {
	p, err := pool.ParsePolicy(r.cfg.Pool.Policy)
	if err != nil {
		return r.cfg.Pool.Policy
	}
	return p.String()
}

func (r *Runner) work(ctx context.Context, worker int) error {
	wl := r.cfg.Workload
	log := logger.FromContext(ctx, r.logger)
	rng := rand.New(rand.NewPCG(wl.Seed, uint64(worker)))
	held := make([]*Frame, 0, wl.MaxHeld)

	var stranger *Frame
	if wl.ForeignEvery > 0 {
		foreign, err := pool.New(pool.WithNew(newFrame(wl.PayloadBytes)))
		if err != nil {
			return err
		}
		if stranger, err = foreign.Reserve(); err != nil {
			return err
		}
	}

	defer func() {
		for _, f := range held {
			_ = r.release(f)
		}
	}()

	for step := 1; step <= wl.Iterations; step++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if len(held) > 0 && (len(held) >= wl.MaxHeld || rng.IntN(2) == 0) {
			i := rng.IntN(len(held))
			f := held[i]
			held[i] = held[len(held)-1]
			held = held[:len(held)-1]
			if err := r.release(f); err != nil {
				return err
			}
		} else {
			f, err := r.reserve()
			if err != nil {
				return err
			}
			f.Seq = uint64(step)
			f.Worker = worker
			f.Payload = append(f.Payload[:0], byte(worker), byte(step))
			held = append(held, f)
		}

		if stranger != nil && step%wl.ForeignEvery == 0 {
			err := r.pool.Release(stranger)
			if err == nil {
				return foreignAccepted(worker, step)
			}
			if !stderrors.Is(err, pool.ErrNotOwned) {
				return err
			}
			r.foreign.Add(1)
		}

		if worker == 0 && wl.ResetEvery > 0 && step%wl.ResetEvery == 0 {
			if err := r.reset(); err != nil {
				return err
			}
			observability.Event(ctx, "pool.reset", attribute.Int("step", step))
			log.Debug("pool reset", zap.Int("step", step))
		}
	}
	return nil
}

// foreignAccepted reports an ownership breach with the stack of the caller.
func foreignAccepted(worker, step int) error {
	return errors.New(ErrForeignAccepted.Type, ErrForeignAccepted.Message).
		WithDetail("worker", worker).
		WithDetail("step", step)
}

func (r *Runner) reserve() (*Frame, error) {
	t := metrics.NewTimer(opReserve)
	f, err := r.pool.Reserve()
	r.observe(t)
	return f, err
}

func (r *Runner) release(f *Frame) error {
	t := metrics.NewTimer(opRelease)
	err := r.pool.Release(f)
	r.observe(t)
	return err
}

func (r *Runner) reset() error {
	t := metrics.NewTimer(opReset)
	err := r.pool.Reset()
	r.observe(t)
	return err
}

func (r *Runner) observe(t *metrics.Timer) {
	d := t.Stop()
	metrics.OperationLatency.WithLabelValues(t.Name()).Observe(float64(d.Nanoseconds()))
	r.latency[t.Name()].Record(d)
	r.counts[t.Name()].Add(1)
	r.throughput.Increment(1)
}
