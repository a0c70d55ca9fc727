package config

import (
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/recycler/pkg/errors"
	"github.com/ajitpratap0/recycler/pkg/logger"
	"github.com/ajitpratap0/recycler/pkg/pool"
)

// Config is the top-level configuration.
type Config struct {
	// Name labels the run in logs, metrics and traces
	Name string `yaml:"name" json:"name" mapstructure:"name"`

	// Pool configures the pool under test
	Pool PoolConfig `yaml:"pool" json:"pool" mapstructure:"pool"`

	// Workload configures the simulated callers
	Workload WorkloadConfig `yaml:"workload" json:"workload" mapstructure:"workload"`

	// Logging configures the global zap logger
	Logging logger.Config `yaml:"logging" json:"logging" mapstructure:"logging"`

	// Metrics configures the Prometheus endpoint
	Metrics MetricsConfig `yaml:"metrics" json:"metrics" mapstructure:"metrics"`

	// Tracing configures OpenTelemetry tracing
	Tracing TracingConfig `yaml:"tracing" json:"tracing" mapstructure:"tracing"`
}

// PoolConfig mirrors the pool construction options that can be expressed
// as data. Factories and hooks are code and are supplied by the caller.
type PoolConfig struct {
	// InitialSize prepopulates the free list
	InitialSize int `yaml:"initial_size" json:"initial_size" mapstructure:"initial_size"`
	// MaxSize caps the free list (0 = unbounded)
	MaxSize int `yaml:"max_size" json:"max_size" mapstructure:"max_size"`
	// Policy is "strict", "relaxed" or empty for the build default
	Policy string `yaml:"policy" json:"policy" mapstructure:"policy"`
}

// WorkloadConfig describes the simulated reserve/release traffic.
type WorkloadConfig struct {
	// Workers is the number of concurrent callers
	Workers int `yaml:"workers" json:"workers" mapstructure:"workers"`
	// Iterations is the number of steps each worker performs
	Iterations int `yaml:"iterations" json:"iterations" mapstructure:"iterations"`
	// MaxHeld bounds how many entries one worker holds at once
	MaxHeld int `yaml:"max_held" json:"max_held" mapstructure:"max_held"`
	// PayloadBytes is the capacity of each entry's buffer
	PayloadBytes int `yaml:"payload_bytes" json:"payload_bytes" mapstructure:"payload_bytes"`
	// Seed makes runs reproducible
	Seed uint64 `yaml:"seed" json:"seed" mapstructure:"seed"`
	// ForeignEvery releases a foreign entry every N steps (0 disables)
	ForeignEvery int `yaml:"foreign_every" json:"foreign_every" mapstructure:"foreign_every"`
	// ResetEvery resets the pool every N steps of worker 0 (0 disables)
	ResetEvery int `yaml:"reset_every" json:"reset_every" mapstructure:"reset_every"`
}

// MetricsConfig configures the Prometheus exporter.
type MetricsConfig struct {
	// Enabled serves metrics over HTTP
	Enabled bool `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	// Address is the listen address
	Address string `yaml:"address" json:"address" mapstructure:"address"`
	// Path is the HTTP path metrics are served on
	Path string `yaml:"path" json:"path" mapstructure:"path"`
	// Linger keeps the endpoint up after a run so it can be scraped
	Linger time.Duration `yaml:"linger" json:"linger" mapstructure:"linger"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	// Enabled installs a tracer provider
	Enabled bool `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	// ServiceName is reported as service.name
	ServiceName string `yaml:"service_name" json:"service_name" mapstructure:"service_name"`
	// SampleRate controls trace sampling (0.0-1.0)
	SampleRate float64 `yaml:"sample_rate" json:"sample_rate" mapstructure:"sample_rate"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Name: "recycler",
		Pool: PoolConfig{
			InitialSize: 0,
			MaxSize:     0,
		},
		Workload: WorkloadConfig{
			Workers:      4,
			Iterations:   10000,
			MaxHeld:      8,
			PayloadBytes: 1024,
			Seed:         1,
		},
		Logging: logger.DefaultConfig(),
		Metrics: MetricsConfig{
			Enabled: false,
			Address: ":9090",
			Path:    "/metrics",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "recycler",
			SampleRate:  1.0,
		},
	}
}

// Validate checks ranges and names. It returns the first problem found.
func (c *Config) Validate() error {
	if c.Name == "" {
		return invalid("name is required", "name", c.Name)
	}
	if err := c.Pool.Validate(); err != nil {
		return err
	}
	if c.Workload.Workers <= 0 {
		return invalid("workers must be positive", "workers", c.Workload.Workers)
	}
	if c.Workload.Iterations < 0 {
		return invalid("iterations cannot be negative", "iterations", c.Workload.Iterations)
	}
	if c.Workload.MaxHeld <= 0 {
		return invalid("max_held must be positive", "max_held", c.Workload.MaxHeld)
	}
	if c.Workload.PayloadBytes < 0 {
		return invalid("payload_bytes cannot be negative", "payload_bytes", c.Workload.PayloadBytes)
	}
	if c.Workload.ForeignEvery < 0 || c.Workload.ResetEvery < 0 {
		return invalid("foreign_every and reset_every cannot be negative", "workload", c.Workload)
	}
	if c.Metrics.Enabled && c.Metrics.Address == "" {
		return invalid("metrics address is required when metrics are enabled", "address", c.Metrics.Address)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return invalid("sample_rate must be between 0 and 1", "sample_rate", c.Tracing.SampleRate)
	}
	return nil
}

// Validate checks the pool section.
func (p *PoolConfig) Validate() error {
	if p.InitialSize < 0 {
		return invalid("initial_size cannot be negative", "initial_size", p.InitialSize)
	}
	if p.MaxSize < 0 {
		return invalid("max_size cannot be negative", "max_size", p.MaxSize)
	}
	if _, err := pool.ParsePolicy(p.Policy); err != nil {
		return errors.Wrap(err, errors.ErrorTypeValidation, "invalid policy")
	}
	return nil
}

// PoolOptions translates a PoolConfig into pool options. Caller-supplied
// options (factory, hooks) are appended after it and win on conflict.
func PoolOptions[T any](p PoolConfig, l *zap.Logger, extra ...pool.Option[T]) ([]pool.Option[T], error) {
	policy, err := pool.ParsePolicy(p.Policy)
	if err != nil {
		return nil, err
	}
	opts := []pool.Option[T]{
		pool.WithInitialSize[T](p.InitialSize),
		pool.WithMaxSize[T](p.MaxSize),
		pool.WithPolicy[T](policy),
		pool.WithLogger[T](l),
	}
	return append(opts, extra...), nil
}

func invalid(msg, field string, value interface{}) error {
	return errors.New(errors.ErrorTypeValidation, msg).WithDetail(field, value)
}
