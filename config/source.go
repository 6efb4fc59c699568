// Package config implements the layered YAML configuration source (spec
// SPEC_FULL.md §4.7, C7): a base config.yaml overlaid by an optional
// per-environment config.<env>.yaml, with process-env overrides on top,
// re-registering resolved namespaces into the Registry as scalars.
package config

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/basecore/basecore/registry"
	"gopkg.in/yaml.v3"
)

// Source is the process-wide configuration façade (ConfigSource, spec
// SPEC_FULL.md §3).
type Source struct {
	env    string
	dir    string
	merged map[string]any

	reg *registry.Registry

	mu    sync.Mutex
	cache map[string]map[string]any
}

// Load reads <dir>/config.yaml (required) and <dir>/config.<env>.yaml
// (optional), merges them in that precedence order, and returns a Source
// ready to resolve namespaces. reg may be nil if namespace re-registration
// is not needed (e.g. in tests).
func Load(dir, env string, reg *registry.Registry) (*Source, error) {
	basePath := filepath.Join(dir, "config.yaml")
	base, err := readYAMLFile(basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound(basePath, err)
		}
		return nil, ErrInvalidConfig("<base>", err)
	}

	overlayPath := filepath.Join(dir, "config."+env+".yaml")
	overlay, err := readYAMLFile(overlayPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, ErrInvalidConfig("<overlay:"+env+">", err)
		}
		overlay = map[string]any{}
	}

	return &Source{
		env:    env,
		dir:    dir,
		merged: deepMerge(base, overlay),
		reg:    reg,
		cache:  make(map[string]map[string]any),
	}, nil
}

func readYAMLFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

// Env returns the environment this Source was built for.
func (s *Source) Env() string { return s.env }

// Namespace deep-merges and returns the name subtree, applying process-env
// overrides, caching the result, and re-registering it into the Registry
// as scalar "Config.{name}" the first time it is requested.
func (s *Source) Namespace(name string) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.cache[name]; ok {
		return cached, nil
	}

	sub, _ := s.merged[name].(map[string]any)
	if sub == nil {
		sub = map[string]any{}
	}
	resolved := applyEnvOverrides(name, sub)

	s.cache[name] = resolved
	if s.reg != nil {
		if _, err := s.reg.RegisterScalar("Config."+name, resolved); err != nil {
			return nil, ErrInvalidConfig(name, err)
		}
	}
	return resolved, nil
}

// Typed unmarshals namespace name into T via a YAML round-trip (spec.md
// §6.1's get_config for typed consumers).
func Typed[T any](s *Source, name string) (T, error) {
	var zero T

	ns, err := s.Namespace(name)
	if err != nil {
		return zero, err
	}

	raw, err := yaml.Marshal(ns)
	if err != nil {
		return zero, ErrInvalidConfig(name, err)
	}

	var out T
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return zero, ErrInvalidConfig(name, err)
	}
	return out, nil
}
