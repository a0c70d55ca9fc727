// Package recycler provides ownership-checked object pools for Go.
//
// A pool hands out entries of one type, takes them back, and refuses any
// entry it did not produce. Freed entries are reused last-in first-out, so
// the most recently released entry, still warm in cache, is handed out next.
//
// # Architecture
//
// The module is organized around one core package and the tooling that
// exercises it:
//
//   - pkg/pool: Pool[T], Locked[T], options, policies and the weak ownership
//     registry
//   - pkg/errors: typed errors shared by every package
//   - pkg/config: YAML configuration with ${VAR_NAME} substitution
//   - pkg/logger: zap-based structured logging
//   - pkg/metrics: Prometheus collector for pool statistics
//   - pkg/observability: OpenTelemetry tracing
//   - pkg/json: goccy/go-json encoding over pooled buffers
//   - pkg/workload: concurrent reserve/release simulation
//   - cmd/recycler: the CLI
//
// # Quick Start
//
//	import "github.com/ajitpratap0/recycler/pkg/pool"
//
//	frames, err := pool.New(
//	    pool.WithNew(func() *Frame { return &Frame{Buf: make([]byte, 0, 4096)} }),
//	    pool.WithOnRelease(func(f *Frame) { f.Buf = f.Buf[:0] }),
//	    pool.WithInitialSize[Frame](16),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	f, err := frames.Reserve()
//	// use f
//	if err := frames.Release(f); err != nil {
//	    // f did not come from frames
//	}
//
// # Policies
//
// Strict pools reject malformed hooks at construction and cannot be
// reconfigured afterwards. Relaxed pools ignore malformed hooks. Builds
// tagged "debug" default to strict; all others default to relaxed. Either
// can be chosen per pool with pool.WithPolicy.
//
// # Command Line
//
//	recycler config init recycler.yaml
//	recycler simulate --config recycler.yaml --workers 8 --metrics --linger 30s
//	recycler version
//
// Every simulate setting can also come from RECYCLER_* environment
// variables, for example RECYCLER_POOL_INITIAL_SIZE=64, or from a .env file.
//
// # Development
//
// Run tests and benchmarks:
//
//	go test ./...
//	go test -tags debug ./pkg/pool/...
//	go test -bench . ./pkg/pool/...
package recycler
