package winuds

import (
	"sync/atomic"
	"unsafe"

	"github.com/marmos91/dittoshm/internal/logger"
	"github.com/marmos91/dittoshm/pkg/mathutil"
	"github.com/marmos91/dittoshm/pkg/port"
)

// MaxUDSNameLen bounds the stored pathname length (spec-exact).
const MaxUDSNameLen = 108

// NumEntries is the number of addressable port slots: ports 1..65535,
// port 0 ("unspecified") has no slot.
const NumEntries = 65535

const entrySize = 8 + MaxUDSNameLen + MaxUDSNameLen // counter + two buffers
const headerSize = 8                                // init_check

// TotalSize is the byte-exact size of the backing mapping.
const TotalSize = headerSize + NumEntries*entrySize

// MappingName is the byte-exact name used for the backing OS mapping.
const MappingName = "/port_to_uds_name_map"

const (
	stateUninitialized        uint64 = 0
	stateInitializationInProgress uint64 = 0xBEBEBEBEBEBEBEBE
	stateIsInitialized        uint64 = 0xAFFEDEADBEEF
)

func init() {
	// The per-slot counter is accessed with atomic loads/stores, which on
	// every supported architecture requires 8-byte alignment. entrySize is
	// a compile-time constant, but entries are only ever addressed by
	// multiplying it by a slot index, so alignment must hold for every
	// multiple, not just entrySize itself: verifying it against its own
	// alignment catches a future constant edit that would break this.
	if mathutil.Align(uint64(entrySize), 8) != uint64(entrySize) {
		panic("winuds: entrySize must be 8-byte aligned for atomic counter access")
	}
}

// Directory is the process-attached view of the Port↔UDS table. Its
// backing storage is shared across every process attached to the same
// named mapping; Directory itself holds no private state beyond that
// buffer.
type Directory struct {
	buf     []byte
	backing Backing
}

// Open attaches to the machine-wide Port↔UDS directory, creating it if
// this is the first attach, per the init_check race in the dual-buffer
// protocol.
func Open() (*Directory, error) {
	backing, err := newBacking(TotalSize)
	if err != nil {
		return nil, err
	}

	d := &Directory{buf: backing.Bytes(), backing: backing}
	d.ensureInitialized(backing.IsNew())
	return d, nil
}

// Close releases the directory's backing resource. The directory
// itself is never individually destroyed by a process: the OS reclaims
// the named mapping once every attached process has closed it.
func (d *Directory) Close() error {
	return d.backing.Close()
}

func (d *Directory) initCheckPtr() *uint64 {
	return (*uint64)(unsafe.Pointer(&d.buf[0]))
}

// ensureInitialized runs the CAS-based single-winner initialization
// race described in spec §4.6. The source uses Relaxed ordering
// throughout; this implementation strengthens the winner's final store
// to Release and the losers' spin-load to Acquire; Go's atomic package
// issues seq-cst operations for both, which satisfies that requirement.
func (d *Directory) ensureInitialized(isNew bool) {
	ptr := d.initCheckPtr()

	if isNew {
		if atomic.CompareAndSwapUint64(ptr, stateUninitialized, stateInitializationInProgress) {
			for slot := 0; slot < NumEntries; slot++ {
				d.zeroSlot(slot)
				atomic.StoreUint64(d.counterPtr(slot), 1)
			}
			atomic.StoreUint64(ptr, stateIsInitialized)
			logger.Debug("port/uds directory initialized", logger.EntryCount(NumEntries))
			return
		}
	}

	for atomic.LoadUint64(ptr) != stateIsInitialized {
		// Busy-spin: the initializer's work is finite and local, so no
		// timeout is needed (spec §5).
	}
}

func (d *Directory) entryOffset(slot int) int {
	return headerSize + slot*entrySize
}

func (d *Directory) counterPtr(slot int) *uint64 {
	off := d.entryOffset(slot)
	return (*uint64)(unsafe.Pointer(&d.buf[off]))
}

func (d *Directory) bufferAt(slot, which int) []byte {
	off := d.entryOffset(slot) + 8 + which*MaxUDSNameLen
	return d.buf[off : off+MaxUDSNameLen]
}

func (d *Directory) zeroSlot(slot int) {
	clear(d.bufferAt(slot, 0))
	clear(d.bufferAt(slot, 1))
}

func slotForPort(p port.Port) (int, bool) {
	v := p.AsUint16()
	if v == 0 {
		return 0, false
	}
	return int(v) - 1, true
}

// Set writes name into the slot for port, following the single-producer
// dual-buffer write protocol: read the counter, write the buffer it
// does not currently point readers at, then publish by incrementing the
// counter. name longer than MaxUDSNameLen is a programming error and is
// truncated rather than rejected, matching a fixed-size C-style buffer.
func (d *Directory) Set(p port.Port, name string) bool {
	slot, ok := slotForPort(p)
	if !ok {
		return false
	}

	if len(name) > MaxUDSNameLen {
		name = name[:MaxUDSNameLen]
	}

	c := atomic.LoadUint64(d.counterPtr(slot))
	target := d.bufferAt(slot, int(c%2))
	clear(target)
	copy(target, name)
	atomic.StoreUint64(d.counterPtr(slot), c+1)

	logger.Debug("port/uds directory slot written", logger.Slot(slot), logger.Port(p.AsUint16()), logger.UDSName(name))
	return true
}

// Get reads the name stored for port, retrying if a concurrent Set was
// observed mid-read. Returns ("", false) for the unspecified port or an
// out-of-range value.
func (d *Directory) Get(p port.Port) (string, bool) {
	activeMetrics.RecordDirectoryLookup("get")
	slot, ok := slotForPort(p)
	if !ok {
		return "", false
	}
	return d.getSlot(slot), true
}

func (d *Directory) getSlot(slot int) string {
	for {
		c1 := atomic.LoadUint64(d.counterPtr(slot))
		buf := d.bufferAt(slot, int((c1-1)%2))
		copied := make([]byte, len(buf))
		copy(copied, buf)
		c2 := atomic.LoadUint64(d.counterPtr(slot))
		if c1 == c2 {
			return nameFromBuffer(copied)
		}
	}
}

func nameFromBuffer(buf []byte) string {
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i])
		}
	}
	return string(buf)
}

// GetPort performs a reverse lookup: the first slot whose stored name
// exactly equals name, or the unspecified port if none matches. This
// enforces exact-length equality, correcting the source's
// prefix-acceptance bug noted in spec §9 open question 4.
func (d *Directory) GetPort(name string) port.Port {
	activeMetrics.RecordDirectoryLookup("get_port")
	if name == "" {
		return port.Unspecified
	}
	for slot := 0; slot < NumEntries; slot++ {
		if d.getSlot(slot) == name {
			return port.New(uint16(slot + 1))
		}
	}
	return port.Unspecified
}

// Reset clears the slot for port back to empty.
func (d *Directory) Reset(p port.Port) bool {
	slot, ok := slotForPort(p)
	if !ok {
		return false
	}
	c := atomic.LoadUint64(d.counterPtr(slot))
	target := d.bufferAt(slot, int(c%2))
	clear(target)
	atomic.StoreUint64(d.counterPtr(slot), c+1)
	return true
}
