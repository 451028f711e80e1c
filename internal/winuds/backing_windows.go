//go:build windows

package winuds

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// windowsBacking is the real, cross-process backing: a named file
// mapping of exactly TotalSize bytes, matching the mapping name and
// layout spec §4.6 and §6 require byte-for-byte.
type windowsBacking struct {
	handle windows.Handle
	addr   uintptr
	buf    []byte
	isNew  bool
}

func mappingNamePtr() *uint16 {
	p, _ := windows.UTF16PtrFromString(MappingName)
	return p
}

func newBacking(size int) (Backing, error) {
	sizeHigh := uint32(uint64(size) >> 32)
	sizeLow := uint32(uint64(size) & 0xffffffff)

	h, err := windows.CreateFileMapping(windows.InvalidHandle, nil, windows.PAGE_READWRITE, sizeHigh, sizeLow, mappingNamePtr())
	if err != nil {
		return nil, fmt.Errorf("winuds: CreateFileMapping: %w", err)
	}
	isNew := windows.GetLastError() != windows.ERROR_ALREADY_EXISTS

	addr, err := windows.MapViewOfFile(h, windows.FILE_MAP_WRITE, 0, 0, uintptr(size))
	if err != nil {
		windows.CloseHandle(h)
		return nil, fmt.Errorf("winuds: MapViewOfFile: %w", err)
	}

	if _, err := windows.VirtualAlloc(addr, uintptr(size), windows.MEM_COMMIT, windows.PAGE_READWRITE); err != nil {
		windows.UnmapViewOfFile(addr)
		windows.CloseHandle(h)
		return nil, fmt.Errorf("winuds: VirtualAlloc: %w", err)
	}

	buf := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)

	return &windowsBacking{handle: h, addr: addr, buf: buf, isNew: isNew}, nil
}

func (w *windowsBacking) Bytes() []byte { return w.buf }

func (w *windowsBacking) IsNew() bool { return w.isNew }

func (w *windowsBacking) Close() error {
	windows.UnmapViewOfFile(w.addr)
	return windows.CloseHandle(w.handle)
}
