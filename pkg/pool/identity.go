package pool

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Identity tags every entry a pool manufactures. Release compares the tag on
// an entry with the releasing pool's identity.
type Identity string

// IdentityGenerator produces pool identities. Tests inject deterministic ones.
type IdentityGenerator interface {
	Next() Identity
}

// IdentityFunc adapts a plain function to IdentityGenerator.
type IdentityFunc func() Identity

// Next calls f.
func (f IdentityFunc) Next() Identity { return f() }

// timeBasis is the process-wide counter component of identities. It starts
// at the package load time in seconds and grows by one per pool, so rapid
// successive constructions never share a counter value.
var timeBasis atomic.Uint64

func init() {
	timeBasis.Store(uint64(time.Now().Unix()))
}

// NewIdentity returns a counter component followed by a random UUIDv4.
func NewIdentity() Identity {
	n := timeBasis.Add(1)
	return Identity(strconv.FormatUint(n, 36) + "-" + uuid.NewString())
}

var defaultIdentities = IdentityFunc(NewIdentity)
