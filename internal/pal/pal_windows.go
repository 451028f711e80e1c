//go:build windows

package pal

import (
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Windows has no native POSIX shared memory; this file emulates shm_open
// and friends on top of named file-mapping objects, the same mechanism
// internal/winuds uses for its directory.

type winSegment struct {
	handle   windows.Handle
	name     string
	size     uint64
	sizeKnown bool
	base     uintptr
	view     []byte
}

var (
	mu       sync.Mutex
	byFD     = map[int]*winSegment{}
	byBase   = map[uintptr]*winSegment{}
	nextFD   = 1
)

func registerFD(seg *winSegment) int {
	mu.Lock()
	defer mu.Unlock()
	fd := nextFD
	nextFD++
	byFD[fd] = seg
	return fd
}

func lookupFD(fd int) *winSegment {
	mu.Lock()
	defer mu.Unlock()
	return byFD[fd]
}

func translateLastError(err error) (Errno, int32) {
	errno, ok := err.(windows.Errno)
	if !ok {
		return ErrnoUnknown, -1
	}
	raw := int32(errno)
	switch errno {
	case windows.ERROR_FILE_NOT_FOUND, windows.ERROR_PATH_NOT_FOUND:
		return ErrnoNoEnt, raw
	case windows.ERROR_ALREADY_EXISTS, windows.ERROR_FILE_EXISTS:
		return ErrnoExist, raw
	case windows.ERROR_ACCESS_DENIED:
		return ErrnoAcces, raw
	case windows.ERROR_INVALID_PARAMETER:
		return ErrnoInval, raw
	case windows.ERROR_TOO_MANY_OPEN_FILES:
		return ErrnoMfile, raw
	case windows.ERROR_FILENAME_EXCED_RANGE:
		return ErrnoNameTooLong, raw
	case windows.ERROR_NOT_ENOUGH_MEMORY, windows.ERROR_OUTOFMEMORY, windows.ERROR_COMMITMENT_LIMIT:
		return ErrnoNoMem, raw
	default:
		return ErrnoUnknown, raw
	}
}

func mappingName(name string) *uint16 {
	p, _ := windows.UTF16PtrFromString("Local\\" + name)
	return p
}

// ShmOpenCreate creates a named file-mapping of the given size. Unlike
// POSIX, the size must be known up front: Windows has no ftruncate
// equivalent for a file mapping object, so the configured size is
// committed here and Ftruncate becomes a validating no-op.
func ShmOpenCreate(name string, perm uint32, size uint64) (fd int, oerr *OSError) {
	sizeHigh := uint32(size >> 32)
	sizeLow := uint32(size & 0xffffffff)

	h, err := windows.CreateFileMapping(windows.InvalidHandle, nil, windows.PAGE_READWRITE, sizeHigh, sizeLow, mappingName(name))
	if err != nil {
		class, raw := translateLastError(err)
		return -1, &OSError{Errno: class, Raw: raw}
	}
	if err == nil && windows.GetLastError() == windows.ERROR_ALREADY_EXISTS {
		windows.CloseHandle(h)
		return -1, &OSError{Errno: ErrnoExist, Raw: int32(windows.ERROR_ALREADY_EXISTS)}
	}

	seg := &winSegment{handle: h, name: name, size: size, sizeKnown: true}
	return registerFD(seg), nil
}

// ShmOpenExisting opens an existing named file-mapping. Its size is not
// known until Fstat probes it.
func ShmOpenExisting(name string, writable bool) (fd int, oerr *OSError) {
	access := uint32(windows.FILE_MAP_READ)
	if writable {
		access = windows.FILE_MAP_WRITE
	}
	h, err := windows.OpenFileMapping(access, false, mappingName(name))
	if err != nil {
		class, raw := translateLastError(err)
		return -1, &OSError{Errno: class, Raw: raw}
	}
	seg := &winSegment{handle: h, name: name}
	return registerFD(seg), nil
}

// ShmUnlink is a no-op on Windows: a named file mapping has no independent
// existence once its last handle closes, so there is nothing to unlink.
// This is why SupportsPersistency reports false for the Windows emulation.
func ShmUnlink(name string) *OSError {
	return nil
}

// Close closes the file-mapping handle and forgets its fd registration.
func Close(fd int) error {
	mu.Lock()
	seg := byFD[fd]
	delete(byFD, fd)
	mu.Unlock()

	if seg == nil {
		return nil
	}
	return windows.CloseHandle(seg.handle)
}

// Ftruncate validates that size matches the size already committed at
// creation time; Windows has no way to resize a file mapping in place.
func Ftruncate(fd int, size int64) *OSError {
	seg := lookupFD(fd)
	if seg == nil {
		return &OSError{Errno: ErrnoUnknown, Raw: -1}
	}
	if seg.sizeKnown && seg.size != uint64(size) {
		return &OSError{Errno: ErrnoInval, Raw: int32(windows.ERROR_INVALID_PARAMETER)}
	}
	seg.size = uint64(size)
	seg.sizeKnown = true
	return nil
}

// Fstat reports the segment's size, probing it via a throwaway full-view
// mapping and VirtualQuery when the size was not already known (the
// open-existing path, since OpenFileMapping carries no size metadata).
func Fstat(fd int) (size int64, oerr *OSError) {
	seg := lookupFD(fd)
	if seg == nil {
		return 0, &OSError{Errno: ErrnoUnknown, Raw: -1}
	}
	if seg.sizeKnown {
		return int64(seg.size), nil
	}

	addr, err := windows.MapViewOfFile(seg.handle, windows.FILE_MAP_READ, 0, 0, 0)
	if err != nil {
		class, raw := translateLastError(err)
		return 0, &OSError{Errno: class, Raw: raw}
	}
	defer windows.UnmapViewOfFile(addr)

	var info windows.MemoryBasicInformation
	if err := windows.VirtualQuery(addr, &info, unsafe.Sizeof(info)); err != nil {
		class, raw := translateLastError(err)
		return 0, &OSError{Errno: class, Raw: raw}
	}

	seg.size = uint64(info.RegionSize)
	seg.sizeKnown = true
	return int64(seg.size), nil
}

// Mmap maps the segment's full committed region and backs it with real
// pages via VirtualAlloc(MEM_COMMIT), mirroring the allocation pattern
// used by the Port/UDS directory's own backing.
func Mmap(fd int, size uint64, writable bool) (data []byte, oerr *OSError) {
	seg := lookupFD(fd)
	if seg == nil {
		return nil, &OSError{Errno: ErrnoUnknown, Raw: -1}
	}

	access := uint32(windows.FILE_MAP_READ)
	if writable {
		access = windows.FILE_MAP_WRITE
	}

	addr, err := windows.MapViewOfFile(seg.handle, access, 0, 0, uintptr(size))
	if err != nil {
		class, raw := translateLastError(err)
		return nil, &OSError{Errno: class, Raw: raw}
	}

	protect := uint32(windows.PAGE_READONLY)
	if writable {
		protect = windows.PAGE_READWRITE
	}
	if _, err := windows.VirtualAlloc(addr, uintptr(size), windows.MEM_COMMIT, protect); err != nil {
		windows.UnmapViewOfFile(addr)
		class, raw := translateLastError(err)
		return nil, &OSError{Errno: class, Raw: raw}
	}

	view := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)

	seg.base = addr
	seg.view = view

	mu.Lock()
	byBase[addr] = seg
	mu.Unlock()

	return view, nil
}

// Munmap unmaps a previously mapped view, looked up by its base address
// since Windows has no fd-keyed unmap primitive.
func Munmap(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	addr := uintptr(unsafe.Pointer(&data[0]))

	mu.Lock()
	seg := byBase[addr]
	delete(byBase, addr)
	mu.Unlock()

	if seg == nil {
		return nil
	}
	return windows.UnmapViewOfFile(addr)
}

// Mlock pins the mapped range with VirtualLock.
func Mlock(data []byte) *OSError {
	if len(data) == 0 {
		return nil
	}
	addr := uintptr(unsafe.Pointer(&data[0]))
	if err := windows.VirtualLock(addr, uintptr(len(data))); err != nil {
		class, raw := translateLastError(err)
		return &OSError{Errno: class, Raw: raw}
	}
	return nil
}

// Munlock releases a range previously pinned by Mlock.
func Munlock(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	addr := uintptr(unsafe.Pointer(&data[0]))
	return windows.VirtualUnlock(addr, uintptr(len(data)))
}

// ShmList is empty on Windows: names live only inside the per-process
// handle table of whoever has the mapping open, and are not globally
// enumerable through this API.
func ShmList() ([]string, error) {
	return nil, nil
}
