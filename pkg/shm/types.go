package shm

// AccessMode controls the protection requested for the mapping.
type AccessMode int

const (
	// AccessReadOnly maps the segment PROT_READ only.
	AccessReadOnly AccessMode = iota
	// AccessReadWrite maps the segment PROT_READ|PROT_WRITE. This is forced
	// for every creation path regardless of the caller's configured value.
	AccessReadWrite
)

func (m AccessMode) String() string {
	if m == AccessReadWrite {
		return "ReadWrite"
	}
	return "ReadOnly"
}

// CreationMode selects how Create resolves a name that may already exist.
type CreationMode int

const (
	// CreateExclusive fails with AlreadyExist if the name is already in use.
	CreateExclusive CreationMode = iota + 1
	// PurgeAndCreate unlinks any existing segment with the name first,
	// ignoring the unlink's own failure, then creates exclusively.
	PurgeAndCreate
	// OpenOrCreate opens the segment if it exists (forcing owning=false)
	// or creates it exclusively if it does not.
	OpenOrCreate
)

func (m CreationMode) String() string {
	switch m {
	case CreateExclusive:
		return "CreateExclusive"
	case PurgeAndCreate:
		return "PurgeAndCreate"
	case OpenOrCreate:
		return "OpenOrCreate"
	default:
		return "Unknown"
	}
}

// Permission is a Unix-style permission bitmask passed to shm_open on
// creation. It has no effect on Windows, where ACLs are stubbed out.
type Permission uint32

// OwnerAll grants read, write, and execute to the owning user only,
// matching the original implementation's default.
const OwnerAll Permission = 0o700
