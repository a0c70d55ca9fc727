package pool

import (
	"strings"

	"github.com/ajitpratap0/recycler/pkg/errors"
)

// Policy holds every behavior that differs between development and
// production builds. It is resolved once, at construction.
type Policy struct {
	name string
	// validateHooks turns a nil hook into a construction error instead of
	// silently ignoring it.
	validateHooks bool
	// seal rejects reconfiguration after New returns.
	seal bool
}

var (
	// Strict rejects nil hooks and seals the pool after construction.
	Strict = Policy{name: "strict", validateHooks: true, seal: true}
	// Relaxed ignores nil hooks and leaves the pool reconfigurable.
	Relaxed = Policy{name: "relaxed"}
)

// DefaultPolicy is Strict in binaries built with the debug tag and Relaxed
// otherwise.
func DefaultPolicy() Policy { return defaultPolicy }

// String returns the policy name.
func (p Policy) String() string {
	if p.name == "" {
		return Relaxed.name
	}
	return p.name
}

// Seals reports whether pools built under p reject reconfiguration.
func (p Policy) Seals() bool { return p.seal }

// ParsePolicy maps "strict" or "relaxed" to a Policy. The empty string
// selects DefaultPolicy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return defaultPolicy, nil
	case Strict.name:
		return Strict, nil
	case Relaxed.name:
		return Relaxed, nil
	default:
		return Policy{}, errors.New(errors.ErrorTypeConfig, "unknown policy").WithDetail("policy", s)
	}
}

// checkHook decides what happens to an explicitly supplied hook. It returns
// the hook to install, or an error when the policy forbids a nil one.
func checkHook[T any](p Policy, fn func(*T), sentinel *errors.Error) (func(*T), error) {
	if fn != nil {
		return fn, nil
	}
	if p.validateHooks {
		return nil, fail(sentinel)
	}
	return nil, nil
}
