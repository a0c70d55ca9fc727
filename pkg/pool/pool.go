package pool

import (
	"sync/atomic"
	"unsafe"

	"go.uber.org/zap"
)

// Pool recycles entries of type *T. Reserve hands out the most recently
// released entry, or manufactures one when the free list is empty. Release
// accepts only entries this pool manufactured.
//
// A Pool is not safe for concurrent use. Wrap it in Locked, or serialize
// access some other way, when several goroutines share it.
type Pool[T any] struct {
	identity    Identity
	policy      Policy
	create      func() (*T, error)
	onReserve   func(*T)
	onRelease   func(*T)
	initialSize int
	maxSize     int
	sealed      bool
	logger      *zap.Logger

	// free is a LIFO stack; index mirrors its membership for the duplicate
	// release check.
	free  []*T
	index map[*T]struct{}

	stats struct {
		created    atomic.Int64
		reserved   atomic.Int64
		reused     atomic.Int64
		released   atomic.Int64
		duplicates atomic.Int64
		rejected   atomic.Int64
		dropped    atomic.Int64
		resets     atomic.Int64
		free       atomic.Int64
	}
}

// Stats is a snapshot of a pool's counters. Its fields are safe to read from
// any goroutine.
type Stats struct {
	// Created counts entries manufactured by the factory.
	Created int64 `json:"created"`
	// Reserved counts successful Reserve calls.
	Reserved int64 `json:"reserved"`
	// Reused counts reservations served from the free list.
	Reused int64 `json:"reused"`
	// Released counts entries pushed back onto the free list.
	Released int64 `json:"released"`
	// Duplicates counts releases of entries that were already free.
	Duplicates int64 `json:"duplicates"`
	// Rejected counts releases that failed the ownership check.
	Rejected int64 `json:"rejected"`
	// Dropped counts releases discarded because the free list was full.
	Dropped int64 `json:"dropped"`
	// Resets counts Reset calls.
	Resets int64 `json:"resets"`
	// Free is the free-list length at snapshot time.
	Free int64 `json:"free"`
}

// New builds a pool. With no options it manufactures new(T), starts empty
// and applies DefaultPolicy.
//
// Configuration faults are *errors.Error values of type ErrorTypeConfig that
// match the Err* sentinels. A factory error during prepopulation is returned
// unchanged.
func New[T any](opts ...Option[T]) (*Pool[T], error) {
	s := defaultSettings[T]()
	for _, opt := range opts {
		opt(&s)
	}

	if s.createSet && s.create == nil {
		return nil, fail(ErrCreateNotFunc)
	}
	if s.initialSize < 0 {
		return nil, fail(ErrInitialSize).WithDetail("initialSize", s.initialSize)
	}
	if s.maxSize < 0 {
		return nil, fail(ErrMaxSize).WithDetail("maxSize", s.maxSize)
	}
	var zero T
	if unsafe.Sizeof(zero) == 0 {
		return nil, fail(ErrZeroSize)
	}

	p := &Pool[T]{
		identity:    s.identities.Next(),
		policy:      s.policy,
		create:      s.create,
		initialSize: s.initialSize,
		maxSize:     s.maxSize,
		logger:      s.logger,
		free:        make([]*T, 0, s.initialSize),
		index:       make(map[*T]struct{}, s.initialSize),
	}

	var err error
	if s.reserveSet {
		if p.onReserve, err = checkHook(s.policy, s.onReserve, ErrOnReserveNotFunc); err != nil {
			return nil, err
		}
	}
	if s.releaseSet {
		if p.onRelease, err = checkHook(s.policy, s.onRelease, ErrOnReleaseNotFunc); err != nil {
			return nil, err
		}
	}

	p.logger = p.logger.With(zap.String("pool", string(p.identity)))

	if err := p.fill(); err != nil {
		return nil, err
	}

	p.sealed = s.policy.seal
	p.logger.Debug("pool created",
		zap.Stringer("policy", p.policy),
		zap.Int("initialSize", p.initialSize),
		zap.Int("maxSize", p.maxSize))
	return p, nil
}

// Reserve returns the most recently released entry, or a new one when the
// free list is empty. The reserve hook, if any, runs before Reserve returns.
// The only possible error is the factory's, returned unchanged.
func (p *Pool[T]) Reserve() (*T, error) {
	var entry *T
	if n := len(p.free); n > 0 {
		entry = p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
		delete(p.index, entry)
		p.stats.free.Store(int64(len(p.free)))
		p.stats.reused.Add(1)
	} else {
		var err error
		if entry, err = p.generate(); err != nil {
			return nil, err
		}
	}

	p.stats.reserved.Add(1)
	if p.onReserve != nil {
		p.onReserve(entry)
	}
	return entry, nil
}

// Release returns entry to the free list.
//
// Entries this pool did not manufacture, including nil, fail with an error
// matching ErrNotOwned and leave the pool untouched. Releasing an entry that
// is already free is a no-op: the release hook does not run again. When a max
// size is set and the free list is full the entry is dropped, also without
// running the hook.
func (p *Pool[T]) Release(entry *T) error {
	if owner, ok := ownerOf(entry); !ok || owner != p.identity {
		p.stats.rejected.Add(1)
		p.logger.Debug("release rejected", zap.String("owner", string(owner)))
		return fail(ErrNotOwned).WithDetail("pool", string(p.identity))
	}

	if _, free := p.index[entry]; free {
		p.stats.duplicates.Add(1)
		return nil
	}

	if p.maxSize > 0 && len(p.free) >= p.maxSize {
		p.stats.dropped.Add(1)
		p.logger.Debug("release dropped, free list full", zap.Int("maxSize", p.maxSize))
		return nil
	}

	if p.onRelease != nil {
		p.onRelease(entry)
	}
	p.push(entry)
	p.stats.released.Add(1)
	return nil
}

// Reset discards every free entry and, if an initial size was configured,
// manufactures that many fresh ones. Entries reserved before the reset can
// still be released afterwards. A factory error is returned unchanged; the
// entries produced before it stay free.
func (p *Pool[T]) Reset() error {
	discarded := len(p.free)
	clear(p.free)
	p.free = p.free[:0]
	clear(p.index)
	p.stats.free.Store(0)
	p.stats.resets.Add(1)

	p.logger.Debug("pool reset", zap.Int("discarded", discarded))
	return p.fill()
}

// Size is the number of entries available for reservation without calling
// the factory.
func (p *Pool[T]) Size() int {
	return len(p.free)
}

// Owns reports whether entry was manufactured by this pool. It does not
// change any state or counter.
func (p *Pool[T]) Owns(entry *T) bool {
	owner, ok := ownerOf(entry)
	return ok && owner == p.identity
}

// Identity returns the token this pool tags its entries with.
func (p *Pool[T]) Identity() Identity {
	return p.identity
}

// Policy returns the policy the pool was built with.
func (p *Pool[T]) Policy() Policy {
	return p.policy
}

// Stats returns a snapshot of the pool counters. Unlike the other methods it
// may be called from any goroutine.
func (p *Pool[T]) Stats() Stats {
	return Stats{
		Created:    p.stats.created.Load(),
		Reserved:   p.stats.reserved.Load(),
		Reused:     p.stats.reused.Load(),
		Released:   p.stats.released.Load(),
		Duplicates: p.stats.duplicates.Load(),
		Rejected:   p.stats.rejected.Load(),
		Dropped:    p.stats.dropped.Load(),
		Resets:     p.stats.resets.Load(),
		Free:       p.stats.free.Load(),
	}
}

// SetOnReserve replaces the reserve hook; nil removes it. Sealed pools
// return an error matching ErrSealed.
func (p *Pool[T]) SetOnReserve(fn func(*T)) error {
	if p.sealed {
		return fail(ErrSealed).WithDetail("setter", "SetOnReserve")
	}
	p.onReserve = fn
	return nil
}

// SetOnRelease replaces the release hook; nil removes it. Sealed pools
// return an error matching ErrSealed.
func (p *Pool[T]) SetOnRelease(fn func(*T)) error {
	if p.sealed {
		return fail(ErrSealed).WithDetail("setter", "SetOnRelease")
	}
	p.onRelease = fn
	return nil
}

// SetMaxSize changes the free-list cap. Entries already free are kept even
// if they exceed the new cap.
func (p *Pool[T]) SetMaxSize(n int) error {
	if p.sealed {
		return fail(ErrSealed).WithDetail("setter", "SetMaxSize")
	}
	if n < 0 {
		return fail(ErrMaxSize).WithDetail("maxSize", n)
	}
	p.maxSize = n
	return nil
}

// generate manufactures and tags one entry.
func (p *Pool[T]) generate() (*T, error) {
	entry, err := p.create()
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fail(ErrNilEntry)
	}
	tag(entry, p.identity)
	p.stats.created.Add(1)
	return entry, nil
}

// fill pushes initialSize new entries in creation order, so the last one
// created is the first one reserved.
func (p *Pool[T]) fill() error {
	for i := 0; i < p.initialSize; i++ {
		entry, err := p.generate()
		if err != nil {
			return err
		}
		p.push(entry)
	}
	return nil
}

func (p *Pool[T]) push(entry *T) {
	p.free = append(p.free, entry)
	p.index[entry] = struct{}{}
	p.stats.free.Store(int64(len(p.free)))
}
