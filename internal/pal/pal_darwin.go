//go:build darwin

package pal

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// macOS implements POSIX shared memory as a BSD-derived system call pair,
// same shape as FreeBSD's shm_open/shm_unlink but under different trap
// numbers on the XNU syscall table.
const (
	sysShmOpen   = 266
	sysShmUnlink = 267
)

func shmOpenRaw(path string, flags int, mode uint32) (int, error) {
	p, err := unix.BytePtrFromString(path)
	if err != nil {
		return -1, err
	}
	fd, _, errno := unix.Syscall(sysShmOpen, uintptr(unsafe.Pointer(p)), uintptr(flags), uintptr(mode))
	if errno != 0 {
		return -1, errno
	}
	return int(fd), nil
}

func shmUnlinkRaw(path string) error {
	p, err := unix.BytePtrFromString(path)
	if err != nil {
		return err
	}
	_, _, errno := unix.Syscall(sysShmUnlink, uintptr(unsafe.Pointer(p)), 0, 0)
	if errno != 0 {
		return errno
	}
	return nil
}

func shmPath(name string) string {
	return "/" + name
}

func translateErrno(err error) (Errno, int32) {
	errno, ok := err.(unix.Errno)
	if !ok {
		return ErrnoUnknown, -1
	}
	raw := int32(errno)
	switch errno {
	case unix.ENOENT:
		return ErrnoNoEnt, raw
	case unix.EEXIST:
		return ErrnoExist, raw
	case unix.EACCES:
		return ErrnoAcces, raw
	case unix.EINVAL:
		return ErrnoInval, raw
	case unix.EMFILE:
		return ErrnoMfile, raw
	case unix.ENFILE:
		return ErrnoNfile, raw
	case unix.ENAMETOOLONG:
		return ErrnoNameTooLong, raw
	case unix.EAGAIN:
		return ErrnoAgain, raw
	case unix.ENOMEM:
		return ErrnoNoMem, raw
	default:
		return ErrnoUnknown, raw
	}
}

// ShmOpenCreate creates a new shared memory object exclusively. size is
// ignored on this platform: the object starts at length 0 and is grown
// with Ftruncate, matching real POSIX shm_open semantics.
func ShmOpenCreate(name string, perm uint32, size uint64) (fd int, oerr *OSError) {
	f, err := shmOpenRaw(shmPath(name), unix.O_CREAT|unix.O_EXCL|unix.O_RDWR, perm)
	if err != nil {
		class, raw := translateErrno(err)
		return -1, &OSError{Errno: class, Raw: raw}
	}
	return f, nil
}

// ShmOpenExisting opens an existing shared memory object.
func ShmOpenExisting(name string, writable bool) (fd int, oerr *OSError) {
	flags := unix.O_RDONLY
	if writable {
		flags = unix.O_RDWR
	}
	f, err := shmOpenRaw(shmPath(name), flags, 0)
	if err != nil {
		class, raw := translateErrno(err)
		return -1, &OSError{Errno: class, Raw: raw}
	}
	return f, nil
}

// ShmUnlink removes a shared memory object's name.
func ShmUnlink(name string) *OSError {
	if err := shmUnlinkRaw(shmPath(name)); err != nil {
		class, raw := translateErrno(err)
		return &OSError{Errno: class, Raw: raw}
	}
	return nil
}

// Close closes a raw file descriptor obtained from ShmOpen*.
func Close(fd int) error {
	return unix.Close(fd)
}

// Ftruncate resizes the open file descriptor to size bytes.
func Ftruncate(fd int, size int64) *OSError {
	if err := unix.Ftruncate(fd, size); err != nil {
		class, raw := translateErrno(err)
		return &OSError{Errno: class, Raw: raw}
	}
	return nil
}

// Fstat returns the current size of the open file descriptor.
func Fstat(fd int) (size int64, oerr *OSError) {
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		class, raw := translateErrno(err)
		return 0, &OSError{Errno: class, Raw: raw}
	}
	return st.Size, nil
}

// Mmap maps the full file descriptor MAP_SHARED.
func Mmap(fd int, size uint64, writable bool) (data []byte, oerr *OSError) {
	prot := unix.PROT_READ
	if writable {
		prot |= unix.PROT_WRITE
	}
	b, err := unix.Mmap(fd, 0, int(size), prot, unix.MAP_SHARED)
	if err != nil {
		class, raw := translateErrno(err)
		return nil, &OSError{Errno: class, Raw: raw}
	}
	return b, nil
}

// Munmap unmaps a region previously returned by Mmap.
func Munmap(data []byte) error {
	return unix.Munmap(data)
}

// Mlock pins the given range in physical memory.
func Mlock(data []byte) *OSError {
	if err := unix.Mlock(data); err != nil {
		class, raw := translateErrno(err)
		return &OSError{Errno: class, Raw: raw}
	}
	return nil
}

// Munlock releases a range previously pinned by Mlock.
func Munlock(data []byte) error {
	return unix.Munlock(data)
}

// ShmList is unsupported on macOS: there is no enumerable directory or
// sysctl MIB exposing live POSIX shared memory segments, matching the
// original implementation's behavior on this platform.
func ShmList() ([]string, error) {
	return nil, nil
}
