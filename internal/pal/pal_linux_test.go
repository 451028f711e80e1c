//go:build linux

package pal

import (
	"fmt"
	"os"
	"testing"
)

func TestShmOpenCreateAndUnlink(t *testing.T) {
	name := fmt.Sprintf("dittoshm-pal-test-%d", os.Getpid())

	fd, oerr := ShmOpenCreate(name, 0o700, 4096)
	if oerr != nil {
		t.Fatalf("ShmOpenCreate() error = %v", oerr)
	}

	if oerr := Ftruncate(fd, 4096); oerr != nil {
		t.Fatalf("Ftruncate() error = %v", oerr)
	}

	size, oerr := Fstat(fd)
	if oerr != nil {
		t.Fatalf("Fstat() error = %v", oerr)
	}
	if size != 4096 {
		t.Fatalf("Fstat() size = %d, want 4096", size)
	}

	data, oerr := Mmap(fd, 4096, true)
	if oerr != nil {
		t.Fatalf("Mmap() error = %v", oerr)
	}
	data[0] = 0x42
	if err := Munmap(data); err != nil {
		t.Fatalf("Munmap() error = %v", err)
	}

	if err := Close(fd); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if oerr := ShmUnlink(name); oerr != nil {
		t.Fatalf("ShmUnlink() error = %v", oerr)
	}

	if oerr := ShmUnlink(name); oerr == nil || oerr.Errno != ErrnoNoEnt {
		t.Fatalf("second ShmUnlink() error = %v, want ErrnoNoEnt", oerr)
	}
}

func TestShmOpenCreateExclRejectsDuplicate(t *testing.T) {
	name := fmt.Sprintf("dittoshm-pal-test-excl-%d", os.Getpid())

	fd, oerr := ShmOpenCreate(name, 0o700, 4096)
	if oerr != nil {
		t.Fatalf("ShmOpenCreate() error = %v", oerr)
	}
	defer ShmUnlink(name)
	defer Close(fd)

	_, oerr = ShmOpenCreate(name, 0o700, 4096)
	if oerr == nil || oerr.Errno != ErrnoExist {
		t.Fatalf("second ShmOpenCreate() error = %v, want ErrnoExist", oerr)
	}
}

func TestShmListContainsCreatedName(t *testing.T) {
	name := fmt.Sprintf("dittoshm-pal-test-list-%d", os.Getpid())

	fd, oerr := ShmOpenCreate(name, 0o700, 4096)
	if oerr != nil {
		t.Fatalf("ShmOpenCreate() error = %v", oerr)
	}
	defer ShmUnlink(name)
	defer Close(fd)

	names, err := ShmList()
	if err != nil {
		t.Fatalf("ShmList() error = %v", err)
	}

	found := false
	for _, n := range names {
		if n == name {
			found = true
		}
	}
	if !found {
		t.Fatalf("ShmList() = %v, want it to contain %q", names, name)
	}
}
