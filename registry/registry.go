// Package registry implements the framework's service container: a
// typed registry of singletons, per-call factories, and scalars, with
// tag-based multi-resolution and resolution-cycle detection.
package registry

import (
	"fmt"
	"reflect"
	"sync"
)

// Registry is the process-wide service container (spec §4.1, C1).
type Registry struct {
	mu            sync.RWMutex
	registrations map[string]*registration
	instances     map[string]any // cached singleton instances
	hooks         []Hook
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		registrations: make(map[string]*registration),
		instances:     make(map[string]any),
	}
}

// Register accepts a factory func(*Registry, ...any) (any, error), a
// pre-built instance, or a scalar value, and dispatches to the matching
// kind the way the spec's single register() operation does: factories are
// detected by reflect.Func; nil, strings, bools and numbers are scalars
// (and fail without WithKey); everything else is an instance.
func (r *Registry) Register(value any, opts ...Option) (string, error) {
	o := mergeOptions(opts)

	switch v := value.(type) {
	case Factory:
		return r.registerFactory(v, o)
	case func(*Registry, ...any) (any, error):
		return r.registerFactory(Factory(v), o)
	}

	rv := reflect.ValueOf(value)
	if rv.IsValid() && rv.Kind() == reflect.Func {
		return r.registerReflectedFactory(rv, o)
	}

	if isScalarKind(rv) {
		return r.registerScalar(value, o)
	}

	return r.registerInstance(value, o)
}

// RegisterFactory registers a constructor explicitly.
func (r *Registry) RegisterFactory(factory Factory, opts ...Option) (string, error) {
	return r.registerFactory(factory, mergeOptions(opts))
}

// RegisterInstance registers an already-built value explicitly.
func (r *Registry) RegisterInstance(instance any, opts ...Option) (string, error) {
	return r.registerInstance(instance, mergeOptions(opts))
}

// RegisterScalar registers a primitive/config-like value; key is required.
func (r *Registry) RegisterScalar(key string, value any, opts ...Option) (string, error) {
	o := mergeOptions(opts)
	o.key = key
	return r.registerScalar(value, o)
}

func (r *Registry) registerFactory(factory Factory, o *options) (string, error) {
	if factory == nil {
		return "", ErrInvalidRegistration("factory cannot be nil")
	}

	key := o.key
	if key == "" {
		key = typeNameOf(reflect.TypeOf(factory))
	}

	singleton := false
	if o.singleton != nil {
		singleton = *o.singleton
	}

	if o.phase != nil && !singleton {
		return "", ErrInvalidRegistration("phase requires singleton=true")
	}

	reg := &registration{
		key:       key,
		kind:      KindFactory,
		factory:   factory,
		singleton: singleton,
		tags:      tagSet(o.tags),
	}
	if o.phase != nil {
		reg.phase = *o.phase
		reg.hasPhase = true
	} else {
		reg.phase = DefaultPhase
	}

	r.store(key, reg, nil)
	return key, nil
}

// registerReflectedFactory wraps an arbitrary constructor function
// (the decorator-free equivalent of the source's "value is a
// constructor-like" case) as a Factory, passing Resolve's extra args
// positionally into the function's parameters.
func (r *Registry) registerReflectedFactory(fn reflect.Value, o *options) (string, error) {
	fnType := fn.Type()
	if fnType.NumOut() == 0 || fnType.NumOut() > 2 {
		return "", ErrInvalidRegistration("factory function must return (T) or (T, error)")
	}

	wrapped := Factory(func(_ *Registry, args ...any) (any, error) {
		in := make([]reflect.Value, 0, len(args))
		for _, a := range args {
			in = append(in, reflect.ValueOf(a))
		}
		out := fn.Call(in)
		if len(out) == 2 && !out[1].IsNil() {
			return nil, out[1].Interface().(error)
		}
		return out[0].Interface(), nil
	})

	key := o.key
	if key == "" {
		key = typeNameOf(fnType.Out(0))
	}

	singleton := false
	if o.singleton != nil {
		singleton = *o.singleton
	}
	if o.phase != nil && !singleton {
		return "", ErrInvalidRegistration("phase requires singleton=true")
	}

	reg := &registration{
		key:       key,
		kind:      KindFactory,
		factory:   wrapped,
		singleton: singleton,
		tags:      tagSet(o.tags),
	}
	if o.phase != nil {
		reg.phase = *o.phase
		reg.hasPhase = true
	} else {
		reg.phase = DefaultPhase
	}

	r.store(key, reg, nil)
	return key, nil
}

func (r *Registry) registerInstance(instance any, o *options) (string, error) {
	key := o.key
	if key == "" {
		key = typeNameOf(reflect.TypeOf(instance))
	}
	if key == "" {
		return "", ErrInvalidRegistration("could not derive key from instance type; supply WithKey")
	}

	reg := &registration{
		key:       key,
		kind:      KindInstance,
		value:     instance,
		singleton: true,
		tags:      tagSet(o.tags),
	}
	if o.phase != nil {
		reg.phase = *o.phase
		reg.hasPhase = true
	} else {
		reg.phase = DefaultPhase
	}

	r.store(key, reg, instance)
	return key, nil
}

func (r *Registry) registerScalar(value any, o *options) (string, error) {
	if o.key == "" {
		return "", ErrInvalidRegistration("scalar registration requires an explicit key")
	}
	if o.phase != nil {
		return "", ErrInvalidRegistration("scalars cannot participate in the lifecycle")
	}

	reg := &registration{
		key:       o.key,
		kind:      KindScalar,
		value:     value,
		singleton: true,
		phase:     DefaultPhase,
		tags:      tagSet(o.tags),
	}

	r.store(o.key, reg, value)
	return o.key, nil
}

func (r *Registry) store(key string, reg *registration, cached any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registrations[key] = reg
	if cached != nil {
		r.instances[key] = cached
	} else {
		delete(r.instances, key)
	}
}

// Resolve returns the value registered under key, building and caching it
// if necessary. args are forwarded to a factory's constructor call.
func (r *Registry) Resolve(key string, args ...any) (any, error) {
	return r.resolve(key, newChain(), args...)
}

// resolutionChain tracks the keys currently under construction for a
// single top-level Resolve call. It is never shared across goroutines or
// across separate Resolve invocations, so concurrent resolutions of
// disjoint keys cannot false-trigger CircularDependency.
type chain struct {
	seen map[string]bool
	path []string
}

func newChain() *chain {
	return &chain{seen: make(map[string]bool)}
}

func (c *chain) push(key string) (*chain, error) {
	if c.seen[key] {
		path := append(append([]string{}, c.path...), key)
		return nil, ErrCircularDependency(path)
	}
	next := &chain{
		seen: make(map[string]bool, len(c.seen)+1),
		path: append(append([]string{}, c.path...), key),
	}
	for k := range c.seen {
		next.seen[k] = true
	}
	next.seen[key] = true
	return next, nil
}

func (r *Registry) resolve(key string, c *chain, args ...any) (any, error) {
	// Fast path: lock-free-ish read of an already-cached singleton.
	r.mu.RLock()
	if instance, ok := r.instances[key]; ok {
		r.mu.RUnlock()
		return instance, nil
	}
	reg, ok := r.registrations[key]
	r.mu.RUnlock()

	if !ok {
		return nil, ErrNotRegistered(key)
	}

	switch reg.kind {
	case KindInstance, KindScalar:
		// Already cached at registration time; a miss here means Reset
		// raced with this call — treat as not registered.
		return nil, ErrNotRegistered(key)
	}

	next, err := c.push(key)
	if err != nil {
		return nil, err
	}

	instance, err := reg.factory(r, args...)
	if err != nil {
		return nil, err
	}

	if reg.singleton {
		r.mu.Lock()
		// Double-check: another goroutine may have built it meanwhile.
		if existing, ok := r.instances[key]; ok {
			instance = existing
		} else {
			r.instances[key] = instance
		}
		r.mu.Unlock()
	}

	_ = next // chain is consumed purely for its cycle-detection side effect
	return instance, nil
}

// ResolveByTag resolves every registration carrying tag, in unspecified
// order. A resolution failure for any one member fails the whole call.
func (r *Registry) ResolveByTag(tag string) ([]any, error) {
	r.mu.RLock()
	var keys []string
	for key, reg := range r.registrations {
		if reg.hasTag(tag) {
			keys = append(keys, key)
		}
	}
	r.mu.RUnlock()

	results := make([]any, 0, len(keys))
	for _, key := range keys {
		v, err := r.Resolve(key)
		if err != nil {
			return nil, fmt.Errorf("resolving tagged member %q: %w", key, err)
		}
		results = append(results, v)
	}
	return results, nil
}

// Has reports whether key has a registration.
func (r *Registry) Has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.registrations[key]
	return ok
}

// Reset clears all registrations and cached instances without running
// any teardown hooks; use LifecycleCoordinator.Teardown first if hooks
// must run.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registrations = make(map[string]*registration)
	r.instances = make(map[string]any)
}

// PhasedKey names a singleton registration participating in the
// lifecycle, for consumption by the LifecycleCoordinator.
type PhasedKey struct {
	Key   string
	Phase int
}

// PhasedKeys returns every singleton registration that declared a phase,
// in unspecified order (the coordinator groups and sorts them).
func (r *Registry) PhasedKeys() []PhasedKey {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []PhasedKey
	for key, reg := range r.registrations {
		if reg.hasPhase {
			out = append(out, PhasedKey{Key: key, Phase: reg.phase})
		}
	}
	return out
}

func tagSet(tags []string) map[string]struct{} {
	if len(tags) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return set
}

func typeNameOf(t reflect.Type) string {
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

func isScalarKind(rv reflect.Value) bool {
	if !rv.IsValid() {
		return true
	}
	switch rv.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
