//go:build !windows

package winuds

import "sync"

// On non-Windows platforms there is no real consumer of the Port↔UDS
// directory (the emulation exists only because Windows lacks Unix
// domain sockets); this backing is an in-process double that lets the
// dual-buffer protocol itself be unit-tested on any OS, per spec §9's
// PAL-isolation recommendation. Every newBacking call within the same
// process shares one buffer, mimicking how every process attaching to
// the real Windows mapping shares one set of pages.
var (
	processMu      sync.Mutex
	processBacking []byte
)

type memoryBacking struct {
	buf   []byte
	isNew bool
}

func newBacking(size int) (Backing, error) {
	processMu.Lock()
	defer processMu.Unlock()

	isNew := processBacking == nil
	if isNew {
		processBacking = make([]byte, size)
	}
	return &memoryBacking{buf: processBacking, isNew: isNew}, nil
}

func (m *memoryBacking) Bytes() []byte { return m.buf }

func (m *memoryBacking) IsNew() bool { return m.isNew }

func (m *memoryBacking) Close() error { return nil }

// resetForTest drops the shared in-process backing so the next Open
// call creates a fresh one. Used only by this package's own tests.
func resetForTest() {
	processMu.Lock()
	defer processMu.Unlock()
	processBacking = nil
}
