package pool

import (
	"go.uber.org/zap"
)

// Option configures a Pool at construction.
type Option[T any] func(*settings[T])

// settings records which options were supplied so New can tell "not given"
// from "given as nil".
type settings[T any] struct {
	create      func() (*T, error)
	createSet   bool
	onReserve   func(*T)
	reserveSet  bool
	onRelease   func(*T)
	releaseSet  bool
	initialSize int
	maxSize     int
	policy      Policy
	identities  IdentityGenerator
	logger      *zap.Logger
}

func defaultSettings[T any]() settings[T] {
	return settings[T]{
		create:     func() (*T, error) { return new(T), nil },
		policy:     defaultPolicy,
		identities: defaultIdentities,
		logger:     zap.NewNop(),
	}
}

// WithCreate sets the factory used to manufacture entries. The default
// returns new(T). A nil fn fails construction under every policy.
func WithCreate[T any](fn func() (*T, error)) Option[T] {
	return func(s *settings[T]) {
		s.create = fn
		s.createSet = true
	}
}

// WithNew is WithCreate for factories that cannot fail.
func WithNew[T any](fn func() *T) Option[T] {
	if fn == nil {
		return WithCreate[T](nil)
	}
	return WithCreate(func() (*T, error) { return fn(), nil })
}

// WithInitialSize prepopulates the free list with n entries. Default 0.
func WithInitialSize[T any](n int) Option[T] {
	return func(s *settings[T]) { s.initialSize = n }
}

// WithMaxSize caps the free list. Releases beyond the cap drop the entry.
// Zero, the default, means unbounded.
func WithMaxSize[T any](n int) Option[T] {
	return func(s *settings[T]) { s.maxSize = n }
}

// WithOnReserve sets a hook run on every entry Reserve hands out.
func WithOnReserve[T any](fn func(*T)) Option[T] {
	return func(s *settings[T]) {
		s.onReserve = fn
		s.reserveSet = true
	}
}

// WithOnRelease sets a hook run on every entry just before it is pushed back
// onto the free list.
func WithOnRelease[T any](fn func(*T)) Option[T] {
	return func(s *settings[T]) {
		s.onRelease = fn
		s.releaseSet = true
	}
}

// WithPolicy overrides DefaultPolicy.
func WithPolicy[T any](p Policy) Option[T] {
	return func(s *settings[T]) { s.policy = p }
}

// WithIdentity injects the identity generator.
func WithIdentity[T any](g IdentityGenerator) Option[T] {
	return func(s *settings[T]) {
		if g != nil {
			s.identities = g
		}
	}
}

// WithLogger sets the logger used for debug events. Default is a no-op logger.
func WithLogger[T any](l *zap.Logger) Option[T] {
	return func(s *settings[T]) {
		if l != nil {
			s.logger = l
		}
	}
}
