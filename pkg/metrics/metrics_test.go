package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/recycler/pkg/pool"
)

type frame struct {
	buf []byte
}

func fixedIdentity(id string) pool.Option[frame] {
	return pool.WithIdentity[frame](pool.IdentityFunc(func() pool.Identity { return pool.Identity(id) }))
}

func TestPoolCollectorExportsStats(t *testing.T) {
	p, err := pool.New(pool.WithInitialSize[frame](2), fixedIdentity("id-1"))
	require.NoError(t, err)

	a, err := p.Reserve()
	require.NoError(t, err)
	require.NoError(t, p.Release(a))
	require.NoError(t, p.Release(a))
	require.Error(t, p.Release(&frame{}))

	c := NewPoolCollector()
	c.Register("frames", p)

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))

	expected := `
# HELP recycler_pool_duplicate_releases_total Releases of entries that were already free.
# TYPE recycler_pool_duplicate_releases_total counter
recycler_pool_duplicate_releases_total{identity="id-1",pool="frames"} 1
# HELP recycler_pool_free_entries Entries currently available for reservation.
# TYPE recycler_pool_free_entries gauge
recycler_pool_free_entries{identity="id-1",pool="frames"} 2
# HELP recycler_pool_rejected_releases_total Releases that failed the ownership check.
# TYPE recycler_pool_rejected_releases_total counter
recycler_pool_rejected_releases_total{identity="id-1",pool="frames"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"recycler_pool_duplicate_releases_total",
		"recycler_pool_free_entries",
		"recycler_pool_rejected_releases_total",
	))

	assert.Equal(t, 9, testutil.CollectAndCount(c))
}

func TestPoolCollectorUnregister(t *testing.T) {
	l, err := pool.NewLocked(fixedIdentity("id-2"))
	require.NoError(t, err)

	c := NewPoolCollector()
	c.Register("locked", l)
	assert.Equal(t, 9, testutil.CollectAndCount(c))

	c.Unregister(l.Identity())
	assert.Equal(t, 0, testutil.CollectAndCount(c))
}

func TestLatencyTrackerPercentiles(t *testing.T) {
	lt := NewLatencyTracker(100)
	for i := 100; i >= 1; i-- {
		lt.Record(time.Duration(i) * time.Microsecond)
	}

	assert.Equal(t, 50*time.Microsecond, lt.GetPercentile(50))
	assert.Equal(t, 99*time.Microsecond, lt.GetPercentile(99))
	assert.Equal(t, 100*time.Microsecond, lt.GetPercentile(100))
	assert.Equal(t, time.Microsecond, lt.GetPercentile(0))
}

func TestLatencyTrackerNearestRank(t *testing.T) {
	lt := NewLatencyTracker(10)
	lt.Record(2 * time.Millisecond)
	lt.Record(time.Millisecond)

	assert.Equal(t, time.Millisecond, lt.GetPercentile(50))
	assert.Equal(t, 2*time.Millisecond, lt.GetPercentile(51))
	assert.Equal(t, 2*time.Millisecond, lt.GetPercentile(99))

	lt.Record(3 * time.Millisecond)
	assert.Equal(t, 2*time.Millisecond, lt.GetPercentile(50))
}

func TestLatencyTrackerOverwritesOldest(t *testing.T) {
	lt := NewLatencyTracker(2)
	lt.Record(time.Second)
	lt.Record(2 * time.Second)
	lt.Record(3 * time.Millisecond)

	assert.Equal(t, 3*time.Millisecond, lt.GetPercentile(0))
	assert.Equal(t, 2*time.Second, lt.GetPercentile(100))
	assert.Zero(t, NewLatencyTracker(4).GetPercentile(99))
}

func TestThroughputTracker(t *testing.T) {
	tr := NewThroughputTracker("test-run")
	tr.Increment(1000)
	time.Sleep(5 * time.Millisecond)

	rate := tr.GetAndReset()
	assert.Greater(t, rate, 0.0)
	assert.Equal(t, rate, testutil.ToFloat64(Throughput.WithLabelValues("test-run")))
}
