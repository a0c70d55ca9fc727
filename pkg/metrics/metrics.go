// Package metrics exports pool statistics and workload timings to
// Prometheus.
//
// # Overview
//
// PoolCollector is a prometheus.Collector that reads pool.Stats from every
// registered pool at scrape time, so pools pay nothing per operation beyond
// their own atomic counters. OperationLatency and Throughput are package
// level instruments the workload records into directly.
//
// # Basic Usage
//
//	collector := metrics.NewPoolCollector()
//	prometheus.MustRegister(collector)
//	collector.Register("frames", framePool)
//
//	timer := metrics.NewTimer("reserve")
//	frame, err := framePool.Reserve()
//	metrics.OperationLatency.WithLabelValues("reserve").
//	    Observe(float64(timer.Stop().Nanoseconds()))
package metrics

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ajitpratap0/recycler/pkg/pool"
)

const namespace = "recycler"

// StatsSource is anything that reports pool statistics. *pool.Pool and
// *pool.Locked both satisfy it.
type StatsSource interface {
	Identity() pool.Identity
	Stats() pool.Stats
}

type namedSource struct {
	name   string
	source StatsSource
}

// PoolCollector exposes the statistics of a set of pools.
type PoolCollector struct {
	mu      sync.RWMutex
	sources map[pool.Identity]namedSource

	created    *prometheus.Desc
	reserved   *prometheus.Desc
	reused     *prometheus.Desc
	released   *prometheus.Desc
	duplicates *prometheus.Desc
	rejected   *prometheus.Desc
	dropped    *prometheus.Desc
	resets     *prometheus.Desc
	free       *prometheus.Desc
}

// NewPoolCollector creates an empty collector. Register it with a
// prometheus.Registerer, then add pools with Register.
func NewPoolCollector() *PoolCollector {
	labels := []string{"pool", "identity"}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "pool", name), help, labels, nil)
	}
	return &PoolCollector{
		sources:    make(map[pool.Identity]namedSource),
		created:    desc("entries_created_total", "Entries manufactured by the pool factory."),
		reserved:   desc("reservations_total", "Entries handed out by Reserve."),
		reused:     desc("reuses_total", "Reservations served from the free list."),
		released:   desc("releases_total", "Entries pushed back onto the free list."),
		duplicates: desc("duplicate_releases_total", "Releases of entries that were already free."),
		rejected:   desc("rejected_releases_total", "Releases that failed the ownership check."),
		dropped:    desc("dropped_releases_total", "Releases discarded because the free list was full."),
		resets:     desc("resets_total", "Reset calls."),
		free:       desc("free_entries", "Entries currently available for reservation."),
	}
}

// Register adds a pool under a human-readable name. Registering the same
// identity again replaces the name.
func (c *PoolCollector) Register(name string, s StatsSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources[s.Identity()] = namedSource{name: name, source: s}
}

// Unregister removes a pool.
func (c *PoolCollector) Unregister(id pool.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sources, id)
}

// Describe implements prometheus.Collector.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.created
	ch <- c.reserved
	ch <- c.reused
	ch <- c.released
	ch <- c.duplicates
	ch <- c.rejected
	ch <- c.dropped
	ch <- c.resets
	ch <- c.free
}

// Collect implements prometheus.Collector.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	sources := make([]namedSource, 0, len(c.sources))
	for _, s := range c.sources {
		sources = append(sources, s)
	}
	c.mu.RUnlock()

	for _, s := range sources {
		st := s.source.Stats()
		labels := []string{s.name, string(s.source.Identity())}
		counter := func(d *prometheus.Desc, v int64) {
			ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), labels...)
		}
		counter(c.created, st.Created)
		counter(c.reserved, st.Reserved)
		counter(c.reused, st.Reused)
		counter(c.released, st.Released)
		counter(c.duplicates, st.Duplicates)
		counter(c.rejected, st.Rejected)
		counter(c.dropped, st.Dropped)
		counter(c.resets, st.Resets)
		ch <- prometheus.MustNewConstMetric(c.free, prometheus.GaugeValue, float64(st.Free), labels...)
	}
}

var (
	// OperationLatency tracks pool operation latency in nanoseconds.
	// Labels: operation (reserve/release/reset)
	OperationLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_latency_nanoseconds",
			Help:      "Pool operation latency in nanoseconds",
			Buckets: []float64{
				25,    // free-list pop/push
				100,   // hook work
				1000,  // 1μs - small allocations
				10000, // 10μs - large factories
				1e5,   // 100μs - contended lock
				1e6,   // 1ms
			},
		},
		[]string{"operation"},
	)

	// Throughput tracks workload operations per second.
	// Labels: run
	Throughput = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workload_operations_per_second",
			Help:      "Workload throughput in pool operations per second",
		},
		[]string{"run"},
	)
)

// Timer provides a simple timing mechanism for measuring operation durations.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the timer label.
func (t *Timer) Name() string {
	return t.name
}

// Stop returns the elapsed duration since creation. It may be called more
// than once.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// ThroughputTracker counts operations and converts them to a rate.
// Safe for concurrent use.
type ThroughputTracker struct {
	mu        sync.Mutex
	count     int64
	lastReset time.Time
	run       string
}

// NewThroughputTracker creates a tracker that reports under the run label.
func NewThroughputTracker(run string) *ThroughputTracker {
	return &ThroughputTracker{
		lastReset: time.Now(),
		run:       run,
	}
}

// Increment adds n to the operation count.
func (t *ThroughputTracker) Increment(n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count += n
}

// GetAndReset computes operations per second since the last reset, updates
// the Throughput gauge and starts a new window.
func (t *ThroughputTracker) GetAndReset() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := time.Since(t.lastReset).Seconds()
	if elapsed == 0 {
		return 0
	}

	throughput := float64(t.count) / elapsed

	t.count = 0
	t.lastReset = time.Now()

	Throughput.WithLabelValues(t.run).Set(throughput)

	return throughput
}

// LatencyTracker keeps the most recent latencies for percentile queries.
type LatencyTracker struct {
	mu      sync.Mutex
	values  []time.Duration
	next    int
	maxSize int
}

// NewLatencyTracker creates a tracker remembering up to maxSize samples.
func NewLatencyTracker(maxSize int) *LatencyTracker {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &LatencyTracker{
		values:  make([]time.Duration, 0, maxSize),
		maxSize: maxSize,
	}
}

// Record adds a sample, overwriting the oldest once full.
func (l *LatencyTracker) Record(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.values) < l.maxSize {
		l.values = append(l.values, d)
		return
	}
	l.values[l.next] = d
	l.next = (l.next + 1) % l.maxSize
}

// GetPercentile returns the nearest-rank percentile (0-100) of the samples.
func (l *LatencyTracker) GetPercentile(p float64) time.Duration {
	l.mu.Lock()
	sorted := append([]time.Duration(nil), l.values...)
	l.mu.Unlock()

	if len(sorted) == 0 {
		return 0
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	index := int(math.Ceil(float64(len(sorted))*p/100)) - 1
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	if index < 0 {
		index = 0
	}
	return sorted[index]
}
