package shm

import (
	"time"

	"github.com/marmos91/dittoshm/internal/logger"
	"github.com/marmos91/dittoshm/internal/pal"
)

// Builder is the configuration phase of the two-phase shared memory
// builder. It exposes only the open operations and the transition into
// the creation phase; size, permission, zero-fill, and ownership fields
// do not exist here, so opening a segment with a size configured is not
// representable at the type level.
type Builder struct {
	name                string
	accessMode          AccessMode
	enforceBaseAddress  *uintptr
	quietWhenNotExist   bool
}

// NewBuilder starts configuring access to a shared memory segment
// identified by name. name is used verbatim; each internal/pal platform
// file derives its own OS path from it ("/" + name for shm_open on
// FreeBSD and macOS, /dev/shm/<name> on Linux, a Local\ mapping name on
// Windows).
func NewBuilder(name string) *Builder {
	return &Builder{name: name, accessMode: AccessReadOnly}
}

// AccessMode sets the protection requested when opening an existing
// segment. Creation always forces AccessReadWrite regardless of this
// setting.
func (b *Builder) AccessMode(mode AccessMode) *Builder {
	b.accessMode = mode
	return b
}

// EnforceBaseAddress requires the OS to place the mapping at exactly
// addr; a mapping placed elsewhere fails with
// UnableToMapAtEnforcedBaseAddress.
func (b *Builder) EnforceBaseAddress(addr uintptr) *Builder {
	b.enforceBaseAddress = &addr
	return b
}

// QuietWhenDoesNotExist suppresses the error log line when OpenExisting
// observes DoesNotExist, logging it at debug level instead.
// TryOpenExisting suppresses that line whether or not this is set.
func (b *Builder) QuietWhenDoesNotExist(quiet bool) *Builder {
	b.quietWhenNotExist = quiet
	return b
}

// CreationMode transitions into the creation phase, exposing Size,
// Permission, ZeroMemory, HasOwnership, and Create.
func (b *Builder) CreationMode(mode CreationMode) *CreationBuilder {
	return &CreationBuilder{
		base:         b,
		creationMode: mode,
		permission:   OwnerAll,
	}
}

// OpenExisting opens an already-existing segment, logging DoesNotExist
// as an error.
func (b *Builder) OpenExisting() (*Segment, error) {
	return b.open(false)
}

// TryOpenExisting opens an already-existing segment, treating
// DoesNotExist as routine and suppressing its error log regardless of
// QuietWhenDoesNotExist.
func (b *Builder) TryOpenExisting() (*Segment, error) {
	return b.open(true)
}

func (b *Builder) open(quiet bool) (*Segment, error) {
	start := time.Now()

	fd, oerr := pal.ShmOpenExisting(b.name, b.accessMode == AccessReadWrite)
	if oerr != nil {
		err := translateOpenErrno(b.name, oerr)
		if IsDoesNotExistError(err) && (quiet || b.quietWhenNotExist) {
			logger.Debug("shared memory does not exist", logger.Name(b.name), logger.Operation("Open"))
		} else {
			logger.Error("failed to open shared memory", logger.Name(b.name), logger.Operation("Open"), logger.Err(err))
		}
		activeMetrics.RecordOpen(errorResultLabel(err), time.Since(start).Seconds())
		return nil, err
	}

	size, oerr := pal.Fstat(fd)
	if oerr != nil {
		_ = pal.Close(fd)
		err := translateOpenErrno(b.name, oerr)
		logger.Error("failed to stat shared memory", logger.Name(b.name), logger.Err(err))
		activeMetrics.RecordOpen(errorResultLabel(err), time.Since(start).Seconds())
		return nil, err
	}

	data, oerr := pal.Mmap(fd, uint64(size), b.accessMode == AccessReadWrite)
	if oerr != nil {
		_ = pal.Close(fd)
		err := translateMmapErrno(b.name, oerr)
		logger.Error("failed to map shared memory", logger.Name(b.name), logger.Err(err))
		activeMetrics.RecordMmapFailure(errorResultLabel(err))
		activeMetrics.RecordOpen(errorResultLabel(err), time.Since(start).Seconds())
		return nil, err
	}

	if b.enforceBaseAddress != nil {
		if baseAddressOf(data) != *b.enforceBaseAddress {
			_ = pal.Munmap(data)
			_ = pal.Close(fd)
			err := NewUnableToMapAtEnforcedBaseAddressError(b.name)
			logger.Error("mapping placed at unexpected base address", logger.Name(b.name), logger.Err(err))
			activeMetrics.RecordOpen(errorResultLabel(err), time.Since(start).Seconds())
			return nil, err
		}
	}

	seg := &Segment{
		name:   b.name,
		fd:     fd,
		data:   data,
		owning: false,
	}
	recordSegmentOpened(1)
	activeMetrics.RecordOpen("ok", time.Since(start).Seconds())
	logger.Info("shared memory opened", logger.Name(b.name), logger.Size(uint64(size)), logger.Owning(false))
	return seg, nil
}

// CreationBuilder is the creation phase of the builder, reached only via
// Builder.CreationMode. It exposes the fields that make sense only when
// creating or resolving a segment.
type CreationBuilder struct {
	base         *Builder
	creationMode CreationMode
	size         uint64
	permission   Permission
	isMemoryLocked bool
	zeroMemory   bool
	owning       bool
}

// Size sets the segment size in bytes. Required on every path: a size
// of zero fails with UnsupportedSizeOfZero, and when OpenOrCreate
// resolves to an open of a pre-existing segment, a segment whose actual
// size differs fails with SizeDoesNotFit.
func (c *CreationBuilder) Size(size uint64) *CreationBuilder {
	c.size = size
	return c
}

// Permission sets the permission bits passed to shm_open on creation.
func (c *CreationBuilder) Permission(perm Permission) *CreationBuilder {
	c.permission = perm
	return c
}

// IsMemoryLocked requests that the segment's mapped range be locked in
// physical memory for as long as the handle lives.
func (c *CreationBuilder) IsMemoryLocked(locked bool) *CreationBuilder {
	c.isMemoryLocked = locked
	return c
}

// ZeroMemory requests that the mapped range be zero-filled immediately
// after creation. Ignored unless this call actually created the
// segment.
func (c *CreationBuilder) ZeroMemory(zero bool) *CreationBuilder {
	c.zeroMemory = zero
	return c
}

// HasOwnership sets whether the resulting handle unlinks the segment's
// name on Close. OpenOrCreate forces this to false when it resolves to
// an open of a pre-existing segment, regardless of what is configured
// here.
func (c *CreationBuilder) HasOwnership(owning bool) *CreationBuilder {
	c.owning = owning
	return c
}

// Create runs the create/open protocol selected by CreationMode and
// returns a live Segment on success.
func (c *CreationBuilder) Create() (seg *Segment, err error) {
	name := c.base.name
	start := time.Now()
	logger.Debug("creating shared memory", logger.Name(name), logger.CreationMode(c.creationMode.String()), logger.Size(c.size))

	defer func() {
		activeMetrics.RecordCreate(c.creationMode.String(), errorResultLabel(err), time.Since(start).Seconds())
	}()

	if c.size == 0 {
		err = NewUnsupportedSizeOfZeroError(name)
		logger.Error("refusing to create zero-length segment", logger.Name(name), logger.Err(err))
		return nil, err
	}

	fd, created, resolveErr := c.resolve(name)
	if resolveErr != nil {
		err = resolveErr
		return nil, err
	}

	owning := c.owning
	if c.creationMode == OpenOrCreate && !created {
		owning = false
	}

	mapSize := c.size
	if !created {
		statSize, oerr := pal.Fstat(fd)
		if oerr != nil {
			_ = pal.Close(fd)
			return nil, translateOpenErrno(name, oerr)
		}
		mapSize = uint64(statSize)
	}

	data, oerr := pal.Mmap(fd, mapSize, true)
	if oerr != nil {
		_ = pal.Close(fd)
		err := translateMmapErrno(name, oerr)
		logger.Error("failed to map shared memory", logger.Name(name), logger.Err(err))
		activeMetrics.RecordMmapFailure(errorResultLabel(err))
		return nil, err
	}

	if c.base.enforceBaseAddress != nil && baseAddressOf(data) != *c.base.enforceBaseAddress {
		_ = pal.Munmap(data)
		_ = pal.Close(fd)
		err := NewUnableToMapAtEnforcedBaseAddressError(name)
		logger.Error("mapping placed at unexpected base address", logger.Name(name), logger.Err(err))
		return nil, err
	}

	if !created {
		if uint64(len(data)) != c.size {
			_ = pal.Munmap(data)
			_ = pal.Close(fd)
			err := NewSizeDoesNotFitError(name)
			logger.Error("existing segment size mismatch", logger.Name(name), logger.Size(c.size), logger.Err(err))
			return nil, err
		}
	} else {
		if oerr := pal.Ftruncate(fd, int64(c.size)); oerr != nil {
			_ = pal.Munmap(data)
			_ = pal.Close(fd)
			err := NewNestedCreationError(name, UnknownCreationError, oerr)
			logger.Error("failed to size shared memory", logger.Name(name), logger.Err(err))
			return nil, err
		}
		statSize, oerr := pal.Fstat(fd)
		if oerr != nil {
			_ = pal.Munmap(data)
			_ = pal.Close(fd)
			return nil, translateOpenErrno(name, oerr)
		}
		if uint64(statSize) != c.size {
			_ = pal.Munmap(data)
			_ = pal.Close(fd)
			err := NewSizeDoesNotFitError(name)
			logger.Error("created segment size mismatch", logger.Name(name), logger.Size(c.size), logger.Err(err))
			return nil, err
		}
	}

	seg = &Segment{
		name:   name,
		fd:     fd,
		data:   data,
		owning: owning,
	}
	recordSegmentOpened(1)

	if c.isMemoryLocked {
		if lockErr := seg.lockMemory(); lockErr != nil {
			seg.Close()
			logger.Error("failed to memory-lock segment", logger.Name(name), logger.Err(lockErr))
			seg, err = nil, NewNestedCreationError(name, InsufficientMemoryToBeMemoryLocked, lockErr)
			return seg, err
		}
	}

	if created && c.zeroMemory {
		for i := range seg.data {
			seg.data[i] = 0
		}
	}

	logger.Info("shared memory created", logger.Name(name), logger.Size(c.size), logger.Owning(owning), logger.MemoryLocked(c.isMemoryLocked))
	return seg, nil
}

// resolve implements the three CreationMode protocols, returning the
// open file descriptor and whether this call is the one that created
// the object.
func (c *CreationBuilder) resolve(name string) (fd int, created bool, err error) {
	switch c.creationMode {
	case CreateExclusive:
		f, oerr := pal.ShmOpenCreate(name, uint32(c.permission), c.size)
		if oerr != nil {
			return -1, false, translateCreateErrno(name, oerr)
		}
		return f, true, nil

	case PurgeAndCreate:
		_ = pal.ShmUnlink(name)
		f, oerr := pal.ShmOpenCreate(name, uint32(c.permission), c.size)
		if oerr != nil {
			return -1, false, translateCreateErrno(name, oerr)
		}
		return f, true, nil

	case OpenOrCreate:
		f, oerr := pal.ShmOpenExisting(name, true)
		if oerr == nil {
			return f, false, nil
		}
		openErr := translateOpenErrno(name, oerr)
		if !IsDoesNotExistError(openErr) {
			return -1, false, openErr
		}
		f, oerr = pal.ShmOpenCreate(name, uint32(c.permission), c.size)
		if oerr != nil {
			return -1, false, translateCreateErrno(name, oerr)
		}
		return f, true, nil

	default:
		panic("shm: CreationMode must be set before Create")
	}
}

func baseAddressOf(data []byte) uintptr {
	if len(data) == 0 {
		return 0
	}
	return uintptrOf(&data[0])
}
