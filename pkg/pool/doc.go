// Package pool implements a generic object pool that recycles entries instead
// of letting them be collected and reallocated.
//
// Architecture
//
// A Pool[T] manages entries of type *T. It owns a factory, a LIFO free list
// and optional reserve/release hooks. Every entry the factory produces is
// tagged with the pool's Identity in a process-wide registry, and Release
// refuses entries carrying any other tag. The registry is keyed by weak
// pointers, so it never keeps an entry alive: once an entry is neither free
// nor referenced by a caller it is collected and its tag disappears.
//
// Usage Patterns
//
// Basic pool usage:
//
//	type Buffer struct {
//		data []byte
//	}
//
//	p, err := pool.New(
//		pool.WithNew(func() *Buffer {
//			return &Buffer{data: make([]byte, 0, 1024)}
//		}),
//		pool.WithOnRelease(func(b *Buffer) {
//			b.data = b.data[:0]
//		}),
//		pool.WithInitialSize[Buffer](16),
//	)
//	if err != nil {
//		return err
//	}
//
//	buf, err := p.Reserve()
//	if err != nil {
//		return err
//	}
//	defer p.Release(buf)
//
// Policies
//
// Strict and Relaxed differ in two ways. Strict rejects a hook option given
// as nil and seals the pool after New, so the Set* methods fail with
// ErrSealed. Relaxed ignores nil hooks and keeps the pool reconfigurable.
// Binaries built with -tags debug default to Strict, all others to Relaxed;
// WithPolicy overrides the default per pool. A nil factory is rejected under
// both policies, and the ownership check on Release always runs.
//
// Concurrency
//
// Pool is not safe for concurrent use; its operations never block and never
// synchronize. Locked adds a mutex for callers that share a pool between
// goroutines. Stats is the exception: its counters are atomics, so a metrics
// scrape can read them while the owning goroutine keeps working.
//
// Metrics
//
// Stats exposes:
//   - created: entries manufactured by the factory
//   - reserved: Reserve calls that returned an entry
//   - reused: reservations served from the free list
//   - released: entries pushed back onto the free list
//   - duplicates: releases of entries that were already free
//   - rejected: releases that failed the ownership check
//   - dropped: releases discarded because of WithMaxSize
//   - free: current free-list length
//
// The metrics package exports these to Prometheus.
package pool
