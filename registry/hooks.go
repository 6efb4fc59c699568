package registry

import "context"

// Hook observes Resolve calls, for cross-cutting concerns like logging and
// metrics that want visibility into the container without every component
// having to report them individually.
type Hook interface {
	// BeforeResolve runs before a key is resolved. Returning an error
	// aborts the resolution with that error.
	BeforeResolve(ctx context.Context, key string) error
	// AfterResolve runs after resolution, successful or not.
	AfterResolve(ctx context.Context, key string, err error)
}

// Use appends h to the Registry's hook chain. Hooks run in registration
// order for BeforeResolve, and in the same order for AfterResolve.
func (r *Registry) Use(h Hook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, h)
}

// ResolveContext behaves like Resolve but runs the hook chain around it,
// carrying ctx through to each hook.
func (r *Registry) ResolveContext(ctx context.Context, key string, args ...any) (any, error) {
	r.mu.RLock()
	hooks := append([]Hook(nil), r.hooks...)
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := h.BeforeResolve(ctx, key); err != nil {
			return nil, err
		}
	}

	v, err := r.Resolve(key, args...)

	for _, h := range hooks {
		h.AfterResolve(ctx, key, err)
	}
	return v, err
}

// FuncHook adapts plain functions to Hook; a nil field is a no-op.
type FuncHook struct {
	Before func(ctx context.Context, key string) error
	After  func(ctx context.Context, key string, err error)
}

func (f FuncHook) BeforeResolve(ctx context.Context, key string) error {
	if f.Before == nil {
		return nil
	}
	return f.Before(ctx, key)
}

func (f FuncHook) AfterResolve(ctx context.Context, key string, err error) {
	if f.After != nil {
		f.After(ctx, key, err)
	}
}
