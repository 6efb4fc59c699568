package registry

// Info is a snapshot of one registration's metadata, for introspection
// tooling (diagnostics endpoints, admin CLIs) that needs more than
// Resolve's typed value.
type Info struct {
	Key       string
	Kind      Kind
	Singleton bool
	Phase     int
	HasPhase  bool
	Tags      []string
	Resolved  bool // true if a singleton instance is already cached
}

// Inspect returns a snapshot of key's registration, or ok=false if
// nothing is registered under it.
func (r *Registry) Inspect(key string) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.registrations[key]
	if !ok {
		return Info{}, false
	}
	_, resolved := r.instances[key]

	return Info{
		Key:       reg.key,
		Kind:      reg.kind,
		Singleton: reg.singleton,
		Phase:     reg.phase,
		HasPhase:  reg.hasPhase,
		Tags:      tagList(reg.tags),
		Resolved:  resolved,
	}, true
}

// Query describes the filter criteria for Registry.Query. A zero-valued
// field matches everything along that dimension.
type Query struct {
	Tag       string // only registrations carrying this tag
	Kind      *Kind
	Singleton *bool
	Resolved  *bool
}

// Query returns a snapshot of every registration matching q, in
// unspecified order.
func (r *Registry) Query(q Query) []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Info
	for key, reg := range r.registrations {
		if q.Tag != "" && !reg.hasTag(q.Tag) {
			continue
		}
		if q.Kind != nil && reg.kind != *q.Kind {
			continue
		}
		if q.Singleton != nil && reg.singleton != *q.Singleton {
			continue
		}
		_, resolved := r.instances[key]
		if q.Resolved != nil && resolved != *q.Resolved {
			continue
		}
		out = append(out, Info{
			Key:       reg.key,
			Kind:      reg.kind,
			Singleton: reg.singleton,
			Phase:     reg.phase,
			HasPhase:  reg.hasPhase,
			Tags:      tagList(reg.tags),
			Resolved:  resolved,
		})
	}
	return out
}

func tagList(tags map[string]struct{}) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for t := range tags {
		out = append(out, t)
	}
	return out
}
