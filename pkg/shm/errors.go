package shm

import "fmt"

// CreationErrorCode enumerates the closed set of failure kinds a create or
// open call can return.
type CreationErrorCode int

const (
	SizeDoesNotFit CreationErrorCode = iota + 1
	InsufficientMemory
	InsufficientMemoryToBeMemoryLocked
	UnsupportedSizeOfZero
	InsufficientPermissions
	MappedRegionLimitReached
	PerProcessFileHandleLimitReached
	SystemWideFileHandleLimitReached
	NameTooLong
	InvalidName
	AlreadyExist
	DoesNotExist
	UnableToMapAtEnforcedBaseAddress
	UnknownCreationError
)

func (c CreationErrorCode) String() string {
	switch c {
	case SizeDoesNotFit:
		return "SizeDoesNotFit"
	case InsufficientMemory:
		return "InsufficientMemory"
	case InsufficientMemoryToBeMemoryLocked:
		return "InsufficientMemoryToBeMemoryLocked"
	case UnsupportedSizeOfZero:
		return "UnsupportedSizeOfZero"
	case InsufficientPermissions:
		return "InsufficientPermissions"
	case MappedRegionLimitReached:
		return "MappedRegionLimitReached"
	case PerProcessFileHandleLimitReached:
		return "PerProcessFileHandleLimitReached"
	case SystemWideFileHandleLimitReached:
		return "SystemWideFileHandleLimitReached"
	case NameTooLong:
		return "NameTooLong"
	case InvalidName:
		return "InvalidName"
	case AlreadyExist:
		return "AlreadyExist"
	case DoesNotExist:
		return "DoesNotExist"
	case UnableToMapAtEnforcedBaseAddress:
		return "UnableToMapAtEnforcedBaseAddress"
	case UnknownCreationError:
		return "UnknownError"
	default:
		return "UnknownError"
	}
}

// CreationError is returned by Create and Open. UnknownErrno carries the
// raw OS error number when Code is UnknownCreationError.
type CreationError struct {
	Code        CreationErrorCode
	Name        string
	UnknownErrno int32
	Cause       error
}

func (e *CreationError) Error() string {
	if e.Code == UnknownCreationError {
		return fmt.Sprintf("shared memory %q: %s (errno %d)", e.Name, e.Code, e.UnknownErrno)
	}
	if e.Cause != nil {
		return fmt.Sprintf("shared memory %q: %s: %v", e.Name, e.Code, e.Cause)
	}
	return fmt.Sprintf("shared memory %q: %s", e.Name, e.Code)
}

func (e *CreationError) Unwrap() error {
	return e.Cause
}

func newCreationError(name string, code CreationErrorCode) *CreationError {
	return &CreationError{Code: code, Name: name}
}

// NewUnknownCreationError wraps a raw, untranslated OS error number.
func NewUnknownCreationError(name string, errno int32) *CreationError {
	return &CreationError{Code: UnknownCreationError, Name: name, UnknownErrno: errno}
}

// NewSizeDoesNotFitError reports a size mismatch between the configured
// size and what was observed on an existing segment.
func NewSizeDoesNotFitError(name string) *CreationError {
	return newCreationError(name, SizeDoesNotFit)
}

// NewAlreadyExistError reports EEXIST from an exclusive create.
func NewAlreadyExistError(name string) *CreationError {
	return newCreationError(name, AlreadyExist)
}

// NewDoesNotExistError reports ENOENT from an open.
func NewDoesNotExistError(name string) *CreationError {
	return newCreationError(name, DoesNotExist)
}

// NewInsufficientPermissionsError reports EACCES.
func NewInsufficientPermissionsError(name string) *CreationError {
	return newCreationError(name, InsufficientPermissions)
}

// NewInvalidNameError reports EINVAL from shm_open/shm_create.
func NewInvalidNameError(name string) *CreationError {
	return newCreationError(name, InvalidName)
}

// NewNameTooLongError reports ENAMETOOLONG.
func NewNameTooLongError(name string) *CreationError {
	return newCreationError(name, NameTooLong)
}

// NewPerProcessFileHandleLimitReachedError reports EMFILE.
func NewPerProcessFileHandleLimitReachedError(name string) *CreationError {
	return newCreationError(name, PerProcessFileHandleLimitReached)
}

// NewSystemWideFileHandleLimitReachedError reports ENFILE.
func NewSystemWideFileHandleLimitReachedError(name string) *CreationError {
	return newCreationError(name, SystemWideFileHandleLimitReached)
}

// NewUnsupportedSizeOfZeroError reports an attempt to map a zero-length segment.
func NewUnsupportedSizeOfZeroError(name string) *CreationError {
	return newCreationError(name, UnsupportedSizeOfZero)
}

// NewMappedRegionLimitReachedError reports EMFILE from mmap itself.
func NewMappedRegionLimitReachedError(name string) *CreationError {
	return newCreationError(name, MappedRegionLimitReached)
}

// NewInsufficientMemoryError builds an InsufficientMemory error. No path
// in this package returns it: ENOMEM from the OS translates to
// UnknownError, and zero-fill is a plain loop that does not recover from
// a SIGBUS/SIGSEGV.
func NewInsufficientMemoryError(name string) *CreationError {
	return newCreationError(name, InsufficientMemory)
}

// NewInsufficientMemoryToBeMemoryLockedError reports EAGAIN from mmap when
// a prior mlockall forces all mappings to be locked.
func NewInsufficientMemoryToBeMemoryLockedError(name string) *CreationError {
	return newCreationError(name, InsufficientMemoryToBeMemoryLocked)
}

// NewUnableToMapAtEnforcedBaseAddressError reports that the OS placed the
// mapping somewhere other than the caller's enforced base address.
func NewUnableToMapAtEnforcedBaseAddressError(name string) *CreationError {
	return newCreationError(name, UnableToMapAtEnforcedBaseAddress)
}

// NewNestedCreationError folds an error from a nested subsystem (truncate,
// stat, memory lock) into a SizeDoesNotFit/InsufficientMemory-style outer
// error, preserving the cause for inspection via errors.Unwrap.
func NewNestedCreationError(name string, code CreationErrorCode, cause error) *CreationError {
	return &CreationError{Code: code, Name: name, Cause: cause}
}

// IsDoesNotExistError reports whether err is a CreationError with code DoesNotExist.
func IsDoesNotExistError(err error) bool {
	var ce *CreationError
	return asCreationError(err, &ce) && ce.Code == DoesNotExist
}

// IsAlreadyExistError reports whether err is a CreationError with code AlreadyExist.
func IsAlreadyExistError(err error) bool {
	var ce *CreationError
	return asCreationError(err, &ce) && ce.Code == AlreadyExist
}

func asCreationError(err error, target **CreationError) bool {
	ce, ok := err.(*CreationError)
	if !ok {
		return false
	}
	*target = ce
	return true
}

// RemoveErrorCode enumerates the closed set of failure kinds Remove can return.
type RemoveErrorCode int

const (
	RemoveInsufficientPermissions RemoveErrorCode = iota + 1
	RemoveDoesNotExist
	RemoveUnknownError
)

func (c RemoveErrorCode) String() string {
	switch c {
	case RemoveInsufficientPermissions:
		return "InsufficientPermissions"
	case RemoveDoesNotExist:
		return "DoesNotExist"
	default:
		return "UnknownError"
	}
}

// RemoveError is returned by Remove.
type RemoveError struct {
	Code         RemoveErrorCode
	Name         string
	UnknownErrno int32
}

func (e *RemoveError) Error() string {
	if e.Code == RemoveUnknownError {
		return fmt.Sprintf("remove shared memory %q: %s (errno %d)", e.Name, e.Code, e.UnknownErrno)
	}
	return fmt.Sprintf("remove shared memory %q: %s", e.Name, e.Code)
}

// NewRemoveInsufficientPermissionsError reports EACCES from shm_unlink.
func NewRemoveInsufficientPermissionsError(name string) *RemoveError {
	return &RemoveError{Code: RemoveInsufficientPermissions, Name: name}
}

// NewRemoveDoesNotExistError reports ENOENT from shm_unlink.
func NewRemoveDoesNotExistError(name string) *RemoveError {
	return &RemoveError{Code: RemoveDoesNotExist, Name: name}
}

// NewRemoveUnknownError wraps a raw, untranslated OS error number.
func NewRemoveUnknownError(name string, errno int32) *RemoveError {
	return &RemoveError{Code: RemoveUnknownError, Name: name, UnknownErrno: errno}
}

// IsRemoveDoesNotExistError reports whether err is a RemoveError with code DoesNotExist.
func IsRemoveDoesNotExistError(err error) bool {
	re, ok := err.(*RemoveError)
	return ok && re.Code == RemoveDoesNotExist
}
