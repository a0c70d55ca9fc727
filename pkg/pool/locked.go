package pool

import "sync"

// Locked serializes access to a Pool with a mutex so several goroutines can
// share it. Hooks run while the lock is held and must not call back into the
// same Locked pool.
type Locked[T any] struct {
	mu   sync.Mutex
	pool *Pool[T]
}

// NewLocked builds a Pool with opts and wraps it.
func NewLocked[T any](opts ...Option[T]) (*Locked[T], error) {
	p, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return Lock(p), nil
}

// Lock wraps an existing pool. The caller must stop using p directly.
func Lock[T any](p *Pool[T]) *Locked[T] {
	return &Locked[T]{pool: p}
}

// Reserve is Pool.Reserve under the lock.
func (l *Locked[T]) Reserve() (*T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pool.Reserve()
}

// Release is Pool.Release under the lock.
func (l *Locked[T]) Release(entry *T) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pool.Release(entry)
}

// Reset is Pool.Reset under the lock.
func (l *Locked[T]) Reset() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pool.Reset()
}

// Size is Pool.Size under the lock.
func (l *Locked[T]) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pool.Size()
}

// Owns is Pool.Owns. The registry is safe for concurrent use, so no lock
// is needed.
func (l *Locked[T]) Owns(entry *T) bool {
	return l.pool.Owns(entry)
}

// Identity returns the wrapped pool's identity.
func (l *Locked[T]) Identity() Identity {
	return l.pool.Identity()
}

// Stats returns the wrapped pool's counters. No lock is needed.
func (l *Locked[T]) Stats() Stats {
	return l.pool.Stats()
}
