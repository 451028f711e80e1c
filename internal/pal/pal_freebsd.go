//go:build freebsd

package pal

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// FreeBSD implements POSIX shared memory as a genuine kernel object (not a
// tmpfs file, unlike Linux), reached through the classic shm_open/shm_unlink
// system call pair. golang.org/x/sys/unix does not generate wrappers for
// these two syscalls, so they are invoked here by trap number, the same
// way the original C/Rust bindings reach them through libc.
const (
	sysShmOpen   = 482
	sysShmUnlink = 483
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

// kinfoFileAlign approximates the alignment step used to walk the
// kern.ipc.posix_shm_list sysctl's variable-length kinfo_file records:
// each record's declared kf_structsize, rounded up to the record's own
// alignment requirement.
const kinfoFileAlign = 8

// ShmList enumerates live POSIX shared memory objects via the
// kern.ipc.posix_shm_list sysctl MIB, matching the two-phase
// length-probe-then-fetch protocol used by the original implementation:
// resolve the MIB once, query the required buffer length, allocate with
// 4/3 slack to tolerate a racing list growth, then query again to fill it.
func ShmList() ([]string, error) {
	mib, err := sysctlNameToMIB("kern.ipc.posix_shm_list")
	if err != nil {
		return nil, nil
	}

	length, err := sysctlLen(mib)
	if err != nil || length == 0 {
		return nil, nil
	}
	length = length * 4 / 3

	buf := make([]byte, length)
	n, err := sysctlFill(mib, buf)
	if err != nil {
		return nil, nil
	}
	buf = buf[:n]

	return walkKinfoFiles(buf), nil
}

// sysctlNameToMIB resolves a dotted sysctl name ("kern.ipc.posix_shm_list")
// to its numeric MIB via the sysctlnametomib(3) convention: calling the
// generic sysctl(2) trap against the well-known {0, 3} "name2mib" node.
func sysctlNameToMIB(name string) ([]int32, error) {
	namePtr, err := unix.BytePtrFromString(name)
	if err != nil {
		return nil, err
	}

	// name2mib takes and returns the MIB length in bytes, not elements.
	mib := make([]int32, 3)
	miblen := uint64(len(mib)) * uint64(unsafe.Sizeof(mib[0]))

	nameMIB := []int32{0, 3} // CTL_SYSCTL, CTL_SYSCTL_NAME2MIB
	_, _, errno := unix.Syscall6(
		unix.SYS___SYSCTL,
		uintptr(unsafe.Pointer(&nameMIB[0])),
		uintptr(len(nameMIB)),
		uintptr(unsafe.Pointer(&mib[0])),
		uintptr(unsafe.Pointer(&miblen)),
		uintptr(unsafe.Pointer(namePtr)),
		uintptr(len(name)+1),
	)
	if errno != 0 {
		return nil, errno
	}
	return mib[:miblen/uint64(unsafe.Sizeof(mib[0]))], nil
}

// sysctlLen queries the required buffer length for mib without fetching
// any data, by passing a nil oldp.
func sysctlLen(mib []int32) (int, error) {
	var length uint64
	_, _, errno := unix.Syscall6(
		unix.SYS___SYSCTL,
		uintptr(unsafe.Pointer(&mib[0])),
		uintptr(len(mib)),
		0,
		uintptr(unsafe.Pointer(&length)),
		0, 0,
	)
	if errno != 0 {
		return 0, errno
	}
	return int(length), nil
}

// sysctlFill fetches mib's current value into buf, returning the number
// of bytes actually written.
func sysctlFill(mib []int32, buf []byte) (int, error) {
	length := uint64(len(buf))
	_, _, errno := unix.Syscall6(
		unix.SYS___SYSCTL,
		uintptr(unsafe.Pointer(&mib[0])),
		uintptr(len(mib)),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(unsafe.Pointer(&length)),
		0, 0,
	)
	if errno != 0 {
		return 0, errno
	}
	return int(length), nil
}

// kinfoFileRecord mirrors the leading fields of FreeBSD's struct
// kinfo_file (sys/user.h) that this walk needs: the self-describing
// record size, and the NUL-terminated path living at a fixed trailing
// offset. The full struct carries many more fields (socket addresses,
// vnode type, ...) this PAL has no use for.
const (
	kfPathOffset = 96
	kfPathMax    = 1024
)

// walkKinfoFiles walks a buffer of variable-length kinfo_file records,
// extracting kf_path (minus its leading '/') into bounded 256-byte names.
// Termination is kf_structsize == 0 or an empty kf_path, exactly as the
// original implementation does.
func walkKinfoFiles(buf []byte) []string {
	var names []string
	offset := 0
	for offset < len(buf) {
		if offset+4 > len(buf) {
			break
		}
		structSize := int(buf[offset]) | int(buf[offset+1])<<8 | int(buf[offset+2])<<16 | int(buf[offset+3])<<24
		if structSize == 0 {
			break
		}
		if offset+structSize > len(buf) {
			break
		}

		pathStart := offset + kfPathOffset
		if pathStart < len(buf) {
			end := pathStart
			limit := pathStart + kfPathMax
			if limit > len(buf) {
				limit = len(buf)
			}
			for end < limit && buf[end] != 0 {
				end++
			}
			path := buf[pathStart:end]
			if len(path) > 0 {
				if path[0] == '/' {
					path = path[1:]
				}
				name := string(path)
				if len(name) > 256 {
					name = name[:256]
				}
				names = append(names, name)
			} else {
				break
			}
		}

		offset += align(structSize, kinfoFileAlign)
	}
	return names
}

func align(value, alignment int) int {
	if alignment == 0 {
		return value
	}
	remainder := value % alignment
	if remainder == 0 {
		return value
	}
	return value + (alignment - remainder)
}
