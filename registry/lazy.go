package registry

import (
	"fmt"
	"sync"
)

// Lazy wraps a registration that is resolved on first access rather than
// at construction time — useful for breaking a resolution cycle at the
// Go-type level (two singletons that hold a reference to each other) by
// having one side hold a Lazy[T] instead of a T.
type Lazy[T any] struct {
	reg  *Registry
	key  string
	once sync.Once
	args []any

	value T
	err   error
}

// NewLazy builds a Lazy bound to key, deferring resolution until Get is
// first called.
func NewLazy[T any](reg *Registry, key string, args ...any) *Lazy[T] {
	return &Lazy[T]{reg: reg, key: key, args: args}
}

// Get resolves key and type-asserts it to T. Resolution happens at most
// once; subsequent calls return the cached result, including a cached
// error.
func (l *Lazy[T]) Get() (T, error) {
	l.once.Do(func() {
		l.value, l.err = ResolveAs[T](l.reg, l.key, l.args...)
	})
	return l.value, l.err
}

// MustGet resolves and asserts, panicking on failure. Restricted to
// startup-time wiring, never to request-handling code.
func (l *Lazy[T]) MustGet() T {
	v, err := l.Get()
	if err != nil {
		panic(fmt.Sprintf("registry: lazy resolve %q failed: %v", l.key, err))
	}
	return v
}

// Provider wraps a factory-backed key that produces a fresh instance on
// every call, for the spec's non-singleton ("transient") registrations
// where callers want a new value each time rather than holding one Lazy
// result.
type Provider[T any] struct {
	reg *Registry
	key string
}

// NewProvider builds a Provider bound to key.
func NewProvider[T any](reg *Registry, key string) *Provider[T] {
	return &Provider[T]{reg: reg, key: key}
}

// Provide resolves key again, returning a fresh instance for a
// non-singleton factory registration (a singleton registration returns
// its one cached instance, as Resolve always does).
func (p *Provider[T]) Provide(args ...any) (T, error) {
	return ResolveAs[T](p.reg, p.key, args...)
}
