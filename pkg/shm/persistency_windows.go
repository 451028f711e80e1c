//go:build windows

package shm

// Windows has no persistent POSIX shared memory: a named file mapping
// is destroyed once its last handle closes, regardless of ownership.
const supportsPersistency = false
