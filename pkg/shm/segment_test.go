package shm

import "testing"

func TestExistsAndRemove(t *testing.T) {
	name := uniqueName(t)

	if Exists(name) {
		t.Fatalf("Exists() = true before creation, want false")
	}

	seg, err := NewBuilder(name).CreationMode(CreateExclusive).Size(4096).Create()
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if !Exists(name) {
		t.Fatalf("Exists() = false after creation, want true")
	}

	seg.Close()

	if !Exists(name) {
		t.Fatalf("Exists() = false after non-owning Close, want true (segment should still be linked)")
	}

	if err := Remove(name); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	if Exists(name) {
		t.Fatalf("Exists() = true after Remove, want false")
	}

	if err := Remove(name); !IsRemoveDoesNotExistError(err) {
		t.Fatalf("second Remove() error = %v, want DoesNotExist", err)
	}
}

func TestListIncludesCreatedSegment(t *testing.T) {
	if !SupportsPersistency() {
		t.Skip("platform does not expose a real shm_list")
	}

	name := uniqueName(t)

	seg, err := NewBuilder(name).CreationMode(CreateExclusive).Size(4096).HasOwnership(true).Create()
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer seg.Close()

	names, err := List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	found := false
	for _, n := range names {
		if n == name {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("List() = %v, want it to contain %q", names, name)
	}
}

func TestMemoryLockedSegment(t *testing.T) {
	name := uniqueName(t)

	seg, err := NewBuilder(name).
		CreationMode(CreateExclusive).
		Size(4096).
		IsMemoryLocked(true).
		HasOwnership(true).
		Create()
	if err != nil {
		t.Skipf("memory lock unavailable in this environment: %v", err)
	}
	defer seg.Close()

	if seg.Size() != 4096 {
		t.Fatalf("Size() = %d, want 4096", seg.Size())
	}
}

func TestOwnershipTransferIsIdempotent(t *testing.T) {
	name := uniqueName(t)

	seg, err := NewBuilder(name).CreationMode(CreateExclusive).Size(4096).HasOwnership(true).Create()
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer Remove(name)
	defer seg.Close()

	seg.ReleaseOwnership()
	seg.ReleaseOwnership()
	if seg.HasOwnership() {
		t.Fatalf("HasOwnership() = true after ReleaseOwnership twice, want false")
	}

	seg.AcquireOwnership()
	seg.AcquireOwnership()
	if !seg.HasOwnership() {
		t.Fatalf("HasOwnership() = false after AcquireOwnership twice, want true")
	}
}
