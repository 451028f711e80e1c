// Package memlock wraps internal/pal's Mlock/Munlock pair in a scope-guard
// resource: the lock is acquired once and released exactly once, mirroring
// the segment handle's own ownership discipline.
package memlock

import (
	"fmt"

	"github.com/marmos91/dittoshm/internal/pal"
	"github.com/marmos91/dittoshm/pkg/scopeguard"
)

// Lock is an active memory lock over a byte range. Release unpins the
// range; calling Release more than once is a no-op.
type Lock struct {
	guard *scopeguard.ScopeGuard[[]byte]
}

// New locks data in physical memory for as long as the returned Lock is
// not released. An empty slice is a programming error in the caller and
// is rejected rather than silently accepted.
func New(data []byte) (*Lock, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("memlock: cannot lock an empty range")
	}

	guard, err := scopeguard.New(data).
		OnInit(func(value *[]byte) error {
			if oerr := pal.Mlock(*value); oerr != nil {
				return oerr
			}
			return nil
		}).
		OnDrop(func(value *[]byte) {
			_ = pal.Munlock(*value)
		}).
		Create()
	if err != nil {
		return nil, err
	}

	return &Lock{guard: guard}, nil
}

// Release unpins the locked range. Safe to call more than once.
func (l *Lock) Release() {
	l.guard.Drop()
}
