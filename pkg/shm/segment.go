package shm

import (
	"unsafe"

	"github.com/marmos91/dittoshm/internal/logger"
	"github.com/marmos91/dittoshm/internal/pal"
	"github.com/marmos91/dittoshm/pkg/memlock"
)

// Segment is a live mapping of a named shared memory object. Its
// base address is non-null for the lifetime of the handle; a Segment
// obtained successfully from Builder is always in this state.
type Segment struct {
	name   string
	fd     int
	data   []byte
	owning bool
	lock   *memlock.Lock
	closed bool
}

// Name returns the segment's name, as passed to NewBuilder.
func (s *Segment) Name() string {
	return s.name
}

// Size returns the mapping's length in bytes.
func (s *Segment) Size() uint64 {
	return uint64(len(s.data))
}

// BaseAddress returns the first mapped byte's address. Non-zero for any
// live Segment.
func (s *Segment) BaseAddress() uintptr {
	return baseAddressOf(s.data)
}

// HasOwnership reports whether Close will unlink the segment's name.
func (s *Segment) HasOwnership() bool {
	return s.owning
}

// AcquireOwnership marks this handle as responsible for unlinking the
// segment's name on Close. Idempotent: acquiring twice is the same as
// acquiring once.
func (s *Segment) AcquireOwnership() {
	s.owning = true
}

// ReleaseOwnership marks this handle as not responsible for unlinking
// the segment's name on Close. Idempotent: releasing twice is the same
// as releasing once.
func (s *Segment) ReleaseOwnership() {
	s.owning = false
}

// AsSlice returns a read-only view of the mapped region. The backing
// memory is shared with every other process holding the same segment
// open; nothing here prevents another process from mutating it
// concurrently.
func (s *Segment) AsSlice() []byte {
	return s.data
}

// AsMutSlice returns a writable view of the mapped region. Callers are
// responsible for any coordination required across processes sharing
// the segment; this package provides none.
func (s *Segment) AsMutSlice() []byte {
	return s.data
}

// lockMemory attaches a memory lock over the mapped range, keeping it
// alive for the segment's lifetime.
func (s *Segment) lockMemory() error {
	lock, err := memlock.New(s.data)
	if err != nil {
		return err
	}
	s.lock = lock
	return nil
}

// Close unmaps the segment and, if owning, unlinks its name. Mirrors
// the destruction order mandated by the lifecycle protocol: unmap
// first, then unlink. A failed munmap on an otherwise well-formed
// handle is an impossible state and is fatal; a failed unlink is logged
// and otherwise swallowed, since destructors cannot fail outward.
func (s *Segment) Close() {
	if s.closed {
		return
	}
	s.closed = true
	recordSegmentOpened(-1)

	if s.lock != nil {
		s.lock.Release()
	}

	if len(s.data) > 0 {
		if err := pal.Munmap(s.data); err != nil {
			logger.Error("munmap failed on a live segment, aborting", logger.Name(s.name), logger.Err(err))
			panic("shm: munmap failed on a well-formed segment: " + err.Error())
		}
	}

	if err := pal.Close(s.fd); err != nil {
		logger.Warn("failed to close shared memory file descriptor", logger.Name(s.name), logger.Err(err))
	}

	if s.owning {
		if oerr := pal.ShmUnlink(s.name); oerr != nil {
			if oerr.Errno == pal.ErrnoNoEnt {
				logger.Warn("shared memory already unlinked", logger.Name(s.name))
			} else {
				logger.Error("failed to unlink shared memory", logger.Name(s.name), logger.ErrorCode(oerr.Raw))
			}
		}
	}
}

func uintptrOf(p *byte) uintptr {
	return uintptr(unsafe.Pointer(p))
}

// Exists reports whether a shared memory object with the given name is
// currently reachable, probed via a read-only open with no creation
// flag.
func Exists(name string) bool {
	fd, oerr := pal.ShmOpenExisting(name, false)
	if oerr != nil {
		return false
	}
	_ = pal.Close(fd)
	return true
}

// Remove unlinks a shared memory object by name, independent of any
// live Segment handle.
func Remove(name string) error {
	oerr := pal.ShmUnlink(name)
	if oerr == nil {
		activeMetrics.RecordRemove("ok")
		return nil
	}
	switch oerr.Errno {
	case pal.ErrnoNoEnt:
		activeMetrics.RecordRemove(RemoveDoesNotExist.String())
		return NewRemoveDoesNotExistError(name)
	case pal.ErrnoAcces:
		activeMetrics.RecordRemove(RemoveInsufficientPermissions.String())
		return NewRemoveInsufficientPermissionsError(name)
	default:
		activeMetrics.RecordRemove(RemoveUnknownError.String())
		return NewRemoveUnknownError(name, oerr.Raw)
	}
}

// List enumerates all currently-live segment names visible to the
// caller. Behavior is platform-specific: see internal/pal's per-OS
// ShmList implementations.
func List() ([]string, error) {
	return pal.ShmList()
}

// SupportsPersistency reports whether a segment on this platform
// outlives the process that created it until explicitly removed. False
// on Windows, where a named file mapping disappears once its last
// handle closes.
func SupportsPersistency() bool {
	return supportsPersistency
}
