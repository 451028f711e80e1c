// Package port provides a typed 16-bit network port with the
// classification bands (system, registered, dynamic) used when keying
// the Windows Port/UDS name directory.
package port

// Port is a 16-bit port number with IANA-range classification helpers.
type Port uint16

// Unspecified is the zero port, used to mean "no port assigned".
const Unspecified Port = 0

const (
	systemRangeEnd     = 1023
	registeredRangeEnd = 49151
)

// New constructs a Port from a raw uint16.
func New(value uint16) Port {
	return Port(value)
}

// AsUint16 returns the port's raw numeric value.
func (p Port) AsUint16() uint16 {
	return uint16(p)
}

// IsUnspecified reports whether the port is the zero/unspecified port.
func (p Port) IsUnspecified() bool {
	return p == Unspecified
}

// IsSystem reports whether the port lies in the well-known system range
// (1-1023 inclusive).
func (p Port) IsSystem() bool {
	return p >= 1 && p <= systemRangeEnd
}

// IsRegistered reports whether the port lies in the registered range
// (1024-49151 inclusive).
func (p Port) IsRegistered() bool {
	return p > systemRangeEnd && p <= registeredRangeEnd
}

// IsDynamic reports whether the port lies in the dynamic/private range
// (49152-65535 inclusive).
func (p Port) IsDynamic() bool {
	return p > registeredRangeEnd
}
