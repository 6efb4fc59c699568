package registry

import "fmt"

// ResolveAs resolves key and type-asserts it to T, the idiomatic
// strongly-typed counterpart the spec asks implementers to layer on top
// of the string-keyed map (§9 "Dynamic lookup by string key").
func ResolveAs[T any](r *Registry, key string, args ...any) (T, error) {
	var zero T

	v, err := r.Resolve(key, args...)
	if err != nil {
		return zero, err
	}

	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("registry: key %q: expected %T, got %T", key, zero, v)
	}
	return typed, nil
}

// MustResolveAs resolves and asserts, panicking on failure. Restricted to
// startup-time wiring, never to request-handling code.
func MustResolveAs[T any](r *Registry, key string, args ...any) T {
	v, err := ResolveAs[T](r, key, args...)
	if err != nil {
		panic(fmt.Sprintf("registry: must-resolve %q failed: %v", key, err))
	}
	return v
}

// ResolveByTagAs resolves every member of tag and asserts each to T,
// skipping silently over members that don't assert (tags are a looser
// grouping mechanism than types, e.g. the "Module" tag spans many
// concrete module types that only share a marker interface).
func ResolveByTagAs[T any](r *Registry, tag string) ([]T, error) {
	members, err := r.ResolveByTag(tag)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(members))
	for _, m := range members {
		if typed, ok := m.(T); ok {
			out = append(out, typed)
		}
	}
	return out, nil
}
