// Package winuds implements the Windows Port↔UDS name directory: a
// machine-wide, lock-free table mapping a 16-bit port index to the
// Unix-domain-socket pathname it was allocated for, used to emulate UDS
// naming on a platform that has no native Unix domain sockets.
//
// The directory protocol itself (ABA dual-buffer slots, the init_check
// race) is plain Go operating on a byte slice; only how that byte slice
// is obtained is platform-specific. That split mirrors internal/pal's
// isolation of unsafe OS calls behind a small per-target surface: the
// Backing interface here plays the same role, letting the dual-buffer
// protocol be exercised by tests on any OS via an in-process double.
package winuds

// Backing supplies the raw bytes the Directory operates on, plus
// whether this call is the one that created the resource. On Windows
// this is a named file mapping shared across processes; everywhere else
// it is an in-process byte slice usable only for testing the protocol.
type Backing interface {
	// Bytes returns the full directory-sized buffer. Always the same
	// slice for the lifetime of the Backing.
	Bytes() []byte
	// IsNew reports whether this call created the backing resource, as
	// opposed to attaching to one that already existed.
	IsNew() bool
	// Close releases any OS resources held by the backing.
	Close() error
}
