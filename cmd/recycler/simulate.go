package main

import (
	"context"
	stderrors "errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/recycler/pkg/config"
	"github.com/ajitpratap0/recycler/pkg/json"
	"github.com/ajitpratap0/recycler/pkg/logger"
	"github.com/ajitpratap0/recycler/pkg/metrics"
	"github.com/ajitpratap0/recycler/pkg/observability"
	"github.com/ajitpratap0/recycler/pkg/workload"
)

// flagKeys maps simulate flags to their config keys. Every key can also be
// set through the environment as RECYCLER_<KEY> with dots as underscores,
// e.g. RECYCLER_POOL_INITIAL_SIZE.
var flagKeys = map[string]string{
	"name":          "name",
	"initial-size":  "pool.initial_size",
	"max-size":      "pool.max_size",
	"policy":        "pool.policy",
	"workers":       "workload.workers",
	"iterations":    "workload.iterations",
	"max-held":      "workload.max_held",
	"payload-bytes": "workload.payload_bytes",
	"seed":          "workload.seed",
	"foreign-every": "workload.foreign_every",
	"reset-every":   "workload.reset_every",
	"log-level":     "logging.level",
	"metrics":       "metrics.enabled",
	"metrics-addr":  "metrics.address",
	"linger":        "metrics.linger",
	"trace":         "tracing.enabled",
	"sample-rate":   "tracing.sample_rate",
}

func newSimulateCmd() *cobra.Command {
	var configFile string
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a simulated workload against a pool",
		Long: `Run concurrent workers that reserve, hold and release pool entries, then
print a JSON report. Settings come from defaults, then the config file, then
RECYCLER_* environment variables, then flags.

Example:
  recycler simulate --workers 8 --iterations 100000 --policy strict --foreign-every 100`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v, configFile)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return simulate(ctx, cmd, cfg)
		},
	}

	def := config.Default()
	f := cmd.Flags()
	f.StringVarP(&configFile, "config", "c", "", "Path to YAML configuration file")
	f.String("name", def.Name, "Run name used in logs, metrics and traces")
	f.Int("initial-size", def.Pool.InitialSize, "Entries to prepopulate")
	f.Int("max-size", def.Pool.MaxSize, "Free-list cap (0 = unbounded)")
	f.String("policy", def.Pool.Policy, "Pool policy: strict or relaxed (default: build default)")
	f.Int("workers", def.Workload.Workers, "Concurrent workers")
	f.Int("iterations", def.Workload.Iterations, "Steps per worker")
	f.Int("max-held", def.Workload.MaxHeld, "Entries a worker may hold at once")
	f.Int("payload-bytes", def.Workload.PayloadBytes, "Payload capacity of each entry")
	f.Uint64("seed", def.Workload.Seed, "Random seed")
	f.Int("foreign-every", def.Workload.ForeignEvery, "Release a foreign entry every N steps (0 disables)")
	f.Int("reset-every", def.Workload.ResetEvery, "Reset the pool every N steps of worker 0 (0 disables)")
	f.String("log-level", def.Logging.Level, "Log level (debug, info, warn, error)")
	f.Bool("metrics", def.Metrics.Enabled, "Serve Prometheus metrics")
	f.String("metrics-addr", def.Metrics.Address, "Metrics listen address")
	f.Duration("linger", def.Metrics.Linger, "Keep serving metrics this long after the run")
	f.Bool("trace", def.Tracing.Enabled, "Export OpenTelemetry spans to stderr")
	f.Float64("sample-rate", def.Tracing.SampleRate, "Trace sampling rate (0.0-1.0)")

	for flag, key := range flagKeys {
		_ = v.BindPFlag(key, f.Lookup(flag))
	}
	v.SetEnvPrefix("RECYCLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return cmd
}

// loadConfig layers the config file, environment and changed flags over
// the defaults.
func loadConfig(v *viper.Viper, configFile string) (*config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		if err := config.Load(configFile, cfg); err != nil {
			return nil, err
		}
	}

	set := func(key string, apply func(string)) {
		if v.IsSet(key) {
			apply(key)
		}
	}
	set("name", func(k string) { cfg.Name = v.GetString(k) })
	set("pool.initial_size", func(k string) { cfg.Pool.InitialSize = v.GetInt(k) })
	set("pool.max_size", func(k string) { cfg.Pool.MaxSize = v.GetInt(k) })
	set("pool.policy", func(k string) { cfg.Pool.Policy = v.GetString(k) })
	set("workload.workers", func(k string) { cfg.Workload.Workers = v.GetInt(k) })
	set("workload.iterations", func(k string) { cfg.Workload.Iterations = v.GetInt(k) })
	set("workload.max_held", func(k string) { cfg.Workload.MaxHeld = v.GetInt(k) })
	set("workload.payload_bytes", func(k string) { cfg.Workload.PayloadBytes = v.GetInt(k) })
	set("workload.seed", func(k string) { cfg.Workload.Seed = v.GetUint64(k) })
	set("workload.foreign_every", func(k string) { cfg.Workload.ForeignEvery = v.GetInt(k) })
	set("workload.reset_every", func(k string) { cfg.Workload.ResetEvery = v.GetInt(k) })
	set("logging.level", func(k string) { cfg.Logging.Level = v.GetString(k) })
	set("metrics.enabled", func(k string) { cfg.Metrics.Enabled = v.GetBool(k) })
	set("metrics.address", func(k string) { cfg.Metrics.Address = v.GetString(k) })
	set("metrics.linger", func(k string) { cfg.Metrics.Linger = v.GetDuration(k) })
	set("tracing.enabled", func(k string) { cfg.Tracing.Enabled = v.GetBool(k) })
	set("tracing.sample_rate", func(k string) { cfg.Tracing.SampleRate = v.GetFloat64(k) })

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func simulate(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	if err := logger.Init(cfg.Logging); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	base := logger.With(zap.String("component", "recycler-cli"))
	ctx = context.WithValue(ctx, logger.RunIDKey, cfg.Name)
	log := logger.FromContext(ctx, base)

	opts := []workload.Option{workload.WithLogger(base)}
	if cfg.Tracing.Enabled {
		tracer, shutdown, err := observability.InitTracing(observability.TracingConfig{
			ServiceName:    cfg.Tracing.ServiceName,
			ServiceVersion: version,
			SampleRate:     cfg.Tracing.SampleRate,
			Writer:         cmd.ErrOrStderr(),
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				log.Warn("failed to shut down tracing", zap.Error(err))
			}
		}()
		opts = append(opts, workload.WithTracer(tracer))
	}

	frames, err := workload.NewFramePool(cfg, log)
	if err != nil {
		return err
	}

	var srv *http.Server
	if cfg.Metrics.Enabled {
		collector := metrics.NewPoolCollector()
		collector.Register(cfg.Name, frames)
		collector.Register("json-buffers", json.BufferPool())

		reg := prometheus.NewRegistry()
		reg.MustRegister(collector, metrics.OperationLatency, metrics.Throughput)

		srv = serveMetrics(cfg.Metrics, reg, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	log.Info("starting simulation",
		zap.String("pool", string(frames.Identity())),
		zap.String("policy", cfg.Pool.Policy),
		zap.Int("workers", cfg.Workload.Workers),
		zap.Int("iterations", cfg.Workload.Iterations))

	report, err := workload.NewRunner(cfg, frames, opts...).Run(ctx)
	if err != nil {
		return err
	}

	if err := report.Encode(cmd.OutOrStdout()); err != nil {
		return err
	}

	if srv != nil && cfg.Metrics.Linger > 0 {
		log.Info("serving metrics until linger expires", zap.Duration("linger", cfg.Metrics.Linger))
		select {
		case <-time.After(cfg.Metrics.Linger):
		case <-ctx.Done():
		}
	}
	return nil
}

func serveMetrics(cfg config.MetricsConfig, reg *prometheus.Registry, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()
	log.Info("serving metrics", zap.String("address", cfg.Address), zap.String("path", cfg.Path))
	return srv
}
