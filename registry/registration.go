package registry

// Kind distinguishes how a registration's value is turned into an instance.
type Kind int

const (
	// KindFactory builds a fresh value by calling Factory.
	KindFactory Kind = iota
	// KindInstance wraps an already-built value, cached immediately.
	KindInstance
	// KindScalar wraps a primitive/config-like value, cached immediately.
	KindScalar
)

func (k Kind) String() string {
	switch k {
	case KindFactory:
		return "factory"
	case KindInstance:
		return "instance"
	case KindScalar:
		return "scalar"
	default:
		return "unknown"
	}
}

// Factory builds an instance, given the registry it was resolved from and
// whatever extra arguments were passed to Resolve.
type Factory func(r *Registry, args ...any) (any, error)

// DefaultPhase is used when no explicit phase is supplied.
const DefaultPhase = 100

// Setupable is implemented by singletons that want LifecycleCoordinator
// to run setup work on startup. Absence of this interface makes a
// phased component's setup a no-op.
type Setupable interface {
	Setup(ctx Context) error
}

// Teardownable is implemented by singletons that want LifecycleCoordinator
// to run cleanup work on shutdown. Absence makes teardown a no-op.
type Teardownable interface {
	Teardown(ctx Context) error
}

// Context is the minimal context.Context-like surface the lifecycle hooks
// receive; it is satisfied by context.Context.
type Context interface {
	Done() <-chan struct{}
	Err() error
}

// registration is the internal wrapper the spec calls "Registration".
type registration struct {
	key       string
	kind      Kind
	factory   Factory
	value     any // pre-built instance or scalar value
	singleton bool
	phase     int
	hasPhase  bool
	tags      map[string]struct{}
}

func (reg *registration) hasTag(tag string) bool {
	_, ok := reg.tags[tag]
	return ok
}

// Option configures a single call to Register.
type Option func(*options)

type options struct {
	key       string
	singleton *bool
	tags      []string
	phase     *int
}

// WithKey overrides the key derived from the value's type name.
func WithKey(key string) Option {
	return func(o *options) { o.key = key }
}

// WithSingleton forces singleton semantics (or disables them explicitly).
func WithSingleton(singleton bool) Option {
	return func(o *options) { o.singleton = &singleton }
}

// WithTags adds the registration to one or more tag sets, resolvable via
// ResolveByTag.
func WithTags(tags ...string) Option {
	return func(o *options) { o.tags = append(o.tags, tags...) }
}

// WithPhase marks the registration as lifecycle-managed at the given phase.
// Phase implies singleton=true; registering a non-singleton with a phase
// fails with InvalidRegistration.
func WithPhase(phase int) Option {
	return func(o *options) { o.phase = &phase }
}

func mergeOptions(opts []Option) *options {
	o := &options{}
	for _, apply := range opts {
		apply(o)
	}
	return o
}
