package pool

import (
	"github.com/ajitpratap0/recycler/pkg/errors"
)

// Sentinels for errors.Is. Errors returned by the pool carry their own stack
// and details but match these.
var (
	// ErrNotOwned is returned by Release for entries this pool did not create.
	ErrNotOwned = errors.Sentinel(errors.ErrorTypeOwnership, "object passed is not part of this pool")
	// ErrCreateNotFunc is returned by New when WithCreate is given a nil function.
	ErrCreateNotFunc = errors.Sentinel(errors.ErrorTypeConfig, "create must be a function")
	// ErrOnReserveNotFunc is returned under the strict policy for a nil reserve hook.
	ErrOnReserveNotFunc = errors.Sentinel(errors.ErrorTypeConfig, "onReserve must be a function")
	// ErrOnReleaseNotFunc is returned under the strict policy for a nil release hook.
	ErrOnReleaseNotFunc = errors.Sentinel(errors.ErrorTypeConfig, "onRelease must be a function")
	// ErrNilEntry is returned when the factory produces a nil entry.
	ErrNilEntry = errors.Sentinel(errors.ErrorTypeConfig, "create must return a non-nil entry")
	// ErrZeroSize is returned by New for zero-sized entry types.
	ErrZeroSize = errors.Sentinel(errors.ErrorTypeConfig, "entry type must not be zero-sized")
	// ErrInitialSize is returned by New for a negative initial size.
	ErrInitialSize = errors.Sentinel(errors.ErrorTypeConfig, "initialSize must be a non-negative integer")
	// ErrMaxSize is returned for a negative max size.
	ErrMaxSize = errors.Sentinel(errors.ErrorTypeConfig, "maxSize must be a non-negative integer")
	// ErrSealed is returned by setters on a pool sealed by the strict policy.
	ErrSealed = errors.Sentinel(errors.ErrorTypeSealed, "pool is sealed")
)

func fail(sentinel *errors.Error) *errors.Error {
	return errors.New(sentinel.Type, sentinel.Message)
}
