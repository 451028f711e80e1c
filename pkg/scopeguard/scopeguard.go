// Package scopeguard provides a paired init/drop resource wrapper: a value
// produced by an init callback, released by a drop callback when the
// guard goes out of use. The drop callback only ever runs if init
// succeeded, mirroring a constructor/destructor pair without a language
// destructor.
package scopeguard

// ScopeGuard holds a value produced by an init callback and releases it
// via a drop callback on Drop. The zero value is not usable; construct
// with Builder.
type ScopeGuard[T any] struct {
	value   T
	onDrop  func(*T)
	dropped bool
}

// Builder configures a ScopeGuard before it is created.
type Builder[T any] struct {
	initial T
	onInit  func(*T) error
	onDrop  func(*T)
}

// New starts building a ScopeGuard around the given initial value.
func New[T any](initial T) *Builder[T] {
	return &Builder[T]{initial: initial}
}

// OnInit registers a callback invoked once during Create, with a pointer
// to the guard's held value so it can mutate it in place. If it returns
// an error, Create fails and OnDrop is never invoked.
func (b *Builder[T]) OnInit(f func(value *T) error) *Builder[T] {
	b.onInit = f
	return b
}

// OnDrop registers a callback invoked once when the guard is dropped.
func (b *Builder[T]) OnDrop(f func(value *T)) *Builder[T] {
	b.onDrop = f
	return b
}

// Create runs the init callback, if any, and returns the guard on
// success. On failure it returns the init callback's error verbatim and
// does not call the drop callback.
func (b *Builder[T]) Create() (*ScopeGuard[T], error) {
	guard := &ScopeGuard[T]{value: b.initial, onDrop: b.onDrop}

	if b.onInit != nil {
		if err := b.onInit(&guard.value); err != nil {
			return nil, err
		}
	}

	return guard, nil
}

// Get returns the guard's held value.
func (g *ScopeGuard[T]) Get() T {
	return g.value
}

// GetMut returns a pointer to the guard's held value so callers can
// mutate it in place before Drop observes it.
func (g *ScopeGuard[T]) GetMut() *T {
	return &g.value
}

// Drop runs the drop callback exactly once. Subsequent calls are no-ops.
func (g *ScopeGuard[T]) Drop() {
	if g.dropped {
		return
	}
	g.dropped = true
	if g.onDrop != nil {
		g.onDrop(&g.value)
	}
}
