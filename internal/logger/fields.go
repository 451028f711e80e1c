package logger

import (
	"log/slog"
)

// Standard field keys for structured logging across the shared memory
// lifecycle engine, the platform abstraction layer, and the Windows
// Port/UDS directory.
const (
	// Tracing
	KeyTraceID = "trace_id"

	// Operation metadata
	KeyOperation  = "operation"
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyErrorCode  = "error_code"

	// Segment identity
	KeyName           = "name"
	KeySize           = "size"
	KeyAccessMode     = "access_mode"
	KeyCreationMode   = "creation_mode"
	KeyOwning         = "owning"
	KeyBaseAddress    = "base_address"
	KeyMemoryLocked   = "memory_locked"
	KeyZeroMemory     = "zero_memory"
	KeyPermission     = "permission"
	KeyFileDescriptor = "fd"

	// Enumeration
	KeyEntryCount = "entry_count"

	// Port/UDS directory
	KeyPort    = "port"
	KeyUDSName = "uds_name"
	KeySlot    = "slot"
	KeyABA     = "aba_counter"
)

// TraceID returns a slog.Attr for the caller-supplied trace ID.
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// Operation returns a slog.Attr for the lifecycle operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// DurationMs returns a slog.Attr for duration in milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error, or a zero Attr if err is nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a numeric error code (errno / Win32 code).
func ErrorCode(code int32) slog.Attr {
	return slog.Int64(KeyErrorCode, int64(code))
}

// Name returns a slog.Attr for a shared memory object name.
func Name(name string) slog.Attr {
	return slog.String(KeyName, name)
}

// Size returns a slog.Attr for a segment size in bytes.
func Size(size uint64) slog.Attr {
	return slog.Uint64(KeySize, size)
}

// AccessMode returns a slog.Attr for the access mode of a mapping.
func AccessMode(mode string) slog.Attr {
	return slog.String(KeyAccessMode, mode)
}

// CreationMode returns a slog.Attr for the creation mode used to open a segment.
func CreationMode(mode string) slog.Attr {
	return slog.String(KeyCreationMode, mode)
}

// Owning returns a slog.Attr indicating whether the handle owns the segment.
func Owning(owning bool) slog.Attr {
	return slog.Bool(KeyOwning, owning)
}

// BaseAddress returns a slog.Attr for a mapped base address.
func BaseAddress(addr uintptr) slog.Attr {
	return slog.String(KeyBaseAddress, formatAddress(addr))
}

// MemoryLocked returns a slog.Attr indicating whether the segment is mlocked.
func MemoryLocked(locked bool) slog.Attr {
	return slog.Bool(KeyMemoryLocked, locked)
}

// ZeroMemory returns a slog.Attr indicating whether the segment was zero-filled.
func ZeroMemory(zero bool) slog.Attr {
	return slog.Bool(KeyZeroMemory, zero)
}

// Permission returns a slog.Attr for a Unix-style permission bitmask.
func Permission(mode uint32) slog.Attr {
	return slog.String(KeyPermission, formatOctal(mode))
}

// EntryCount returns a slog.Attr for the number of entries returned by List.
func EntryCount(n int) slog.Attr {
	return slog.Int(KeyEntryCount, n)
}

// Port returns a slog.Attr for a 16-bit port number.
func Port(p uint16) slog.Attr {
	return slog.Int(KeyPort, int(p))
}

// UDSName returns a slog.Attr for a Unix domain socket name.
func UDSName(name string) slog.Attr {
	return slog.String(KeyUDSName, name)
}

// Slot returns a slog.Attr for a directory slot index.
func Slot(i int) slog.Attr {
	return slog.Int(KeySlot, i)
}

// ABACounter returns a slog.Attr for an ABA generation counter.
func ABACounter(v uint64) slog.Attr {
	return slog.Uint64(KeyABA, v)
}

func formatAddress(addr uintptr) string {
	const hexDigits = "0123456789abcdef"
	if addr == 0 {
		return "0x0"
	}
	buf := make([]byte, 0, 18)
	buf = append(buf, '0', 'x')
	started := false
	for shift := 60; shift >= 0; shift -= 4 {
		nibble := (addr >> uint(shift)) & 0xf
		if nibble != 0 {
			started = true
		}
		if started {
			buf = append(buf, hexDigits[nibble])
		}
	}
	if !started {
		buf = append(buf, '0')
	}
	return string(buf)
}

func formatOctal(mode uint32) string {
	if mode == 0 {
		return "0"
	}
	var digits [16]byte
	i := len(digits)
	for mode > 0 {
		i--
		digits[i] = byte('0' + mode%8)
		mode /= 8
	}
	return string(digits[i:])
}
