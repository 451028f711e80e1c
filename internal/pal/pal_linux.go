//go:build linux

package pal

import (
	"bytes"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Offsets into the kernel's variable-length getdents64 record, used to
// read just the Reclen field and locate the name without requiring a
// full fixed-size unix.Dirent (256-byte Name array included) to fit in
// the remaining buffer: real records are only as long as their name,
// not sizeof(Dirent).
var (
	direntReclenOffset = int(unsafe.Offsetof(unix.Dirent{}.Reclen))
	direntReclenEnd    = direntReclenOffset + 2 // sizeof(uint16)
	direntNameOffset   = int(unsafe.Offsetof(unix.Dirent{}.Name))
)

// shmDir is where glibc's shm_open implementation itself places POSIX
// shared memory objects: a tmpfs mount, conventionally /dev/shm. This
// package talks to that tmpfs directly rather than linking libc, mirroring
// what shm_open does under the hood on Linux.
const shmDir = "/dev/shm/"

func shmPath(name string) string {
	return shmDir + name
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
	f, err := unix.Open(shmPath(name), unix.O_CREAT|unix.O_EXCL|unix.O_RDWR|unix.O_CLOEXEC, perm)
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
	f, err := unix.Open(shmPath(name), flags|unix.O_CLOEXEC, 0)
	if err != nil {
		class, raw := translateErrno(err)
		return -1, &OSError{Errno: class, Raw: raw}
	}
	return f, nil
}

// ShmUnlink removes a shared memory object's name.
func ShmUnlink(name string) *OSError {
	if err := unix.Unlink(shmPath(name)); err != nil {
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

// Mmap maps the full file descriptor MAP_SHARED, with PROT_READ or
// PROT_READ|PROT_WRITE depending on writable.
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

// ShmList enumerates every entry in /dev/shm, including "." and "..": the
// original implementation this is ported from does not filter them, and
// filtering is left to a higher layer by design. unix.ParseDirent skips
// "." and ".." itself, so entries are extracted by hand here instead.
func ShmList() ([]string, error) {
	fd, err := unix.Open(shmDir, unix.O_RDONLY|unix.O_DIRECTORY, 0)
	if err != nil {
		return nil, nil
	}
	defer unix.Close(fd)

	var names []string
	buf := make([]byte, 4096)
	for {
		n, err := unix.ReadDirent(fd, buf)
		if err != nil || n <= 0 {
			break
		}
		names = append(names, parseDirentNames(buf[:n])...)
	}
	return names, nil
}

// parseDirentNames walks a raw getdents64 buffer, returning every d_name
// byte-for-byte, "." and ".." included. Each record is read by its own
// Reclen, not by the size of unix.Dirent: getdents64 packs records
// back-to-back sized to the actual name length, so the last record in a
// buffer essentially never has 256 bytes of Name array left to spare
// before the buffer ends.
func parseDirentNames(buf []byte) []string {
	var names []string
	offset := 0
	for offset < len(buf) {
		if offset+direntReclenEnd > len(buf) {
			break
		}
		reclen := int(*(*uint16)(unsafe.Pointer(&buf[offset+direntReclenOffset])))
		if reclen == 0 || offset+reclen > len(buf) {
			break
		}

		nameStart := offset + direntNameOffset
		if nameStart > offset+reclen {
			break
		}
		nameBytes := buf[nameStart : offset+reclen]
		if idx := bytes.IndexByte(nameBytes, 0); idx >= 0 {
			nameBytes = nameBytes[:idx]
		}
		names = append(names, string(nameBytes))

		offset += reclen
	}
	return names
}
