package shm

import "github.com/marmos91/dittoshm/internal/pal"

// translateOpenErrno maps a PAL error from shm_open(no-create)/fstat
// into the taxonomy used by the open protocol (spec §4.2 step 3).
func translateOpenErrno(name string, oerr *pal.OSError) error {
	switch oerr.Errno {
	case pal.ErrnoNoEnt:
		return NewDoesNotExistError(name)
	case pal.ErrnoAcces:
		return NewInsufficientPermissionsError(name)
	case pal.ErrnoInval:
		return NewInvalidNameError(name)
	case pal.ErrnoMfile:
		return NewPerProcessFileHandleLimitReachedError(name)
	case pal.ErrnoNfile:
		return NewSystemWideFileHandleLimitReachedError(name)
	case pal.ErrnoNameTooLong:
		return NewNameTooLongError(name)
	default:
		return NewUnknownCreationError(name, oerr.Raw)
	}
}

// translateCreateErrno maps a PAL error from shm_open(O_CREAT|O_EXCL).
func translateCreateErrno(name string, oerr *pal.OSError) error {
	switch oerr.Errno {
	case pal.ErrnoExist:
		return NewAlreadyExistError(name)
	case pal.ErrnoAcces:
		return NewInsufficientPermissionsError(name)
	case pal.ErrnoInval:
		return NewInvalidNameError(name)
	case pal.ErrnoMfile:
		return NewPerProcessFileHandleLimitReachedError(name)
	case pal.ErrnoNfile:
		return NewSystemWideFileHandleLimitReachedError(name)
	case pal.ErrnoNameTooLong:
		return NewNameTooLongError(name)
	default:
		return NewUnknownCreationError(name, oerr.Raw)
	}
}

// translateMmapErrno maps a PAL error from mmap per spec §4.3.
func translateMmapErrno(name string, oerr *pal.OSError) error {
	switch oerr.Errno {
	case pal.ErrnoAgain:
		return NewInsufficientMemoryToBeMemoryLockedError(name)
	case pal.ErrnoInval:
		return NewUnsupportedSizeOfZeroError(name)
	case pal.ErrnoMfile:
		return NewMappedRegionLimitReachedError(name)
	default:
		return NewUnknownCreationError(name, oerr.Raw)
	}
}
