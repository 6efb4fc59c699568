package registry

import (
	"fmt"
	"strings"

	"github.com/basecore/basecore/internal/ferr"
)

const (
	// CodeInvalidRegistration indicates a malformed registration call.
	CodeInvalidRegistration = "INVALID_REGISTRATION"

	// CodeNotRegistered indicates resolution of a key with no registration.
	CodeNotRegistered = "NOT_REGISTERED"

	// CodeCircularDependency indicates a key was re-entered during its own construction.
	CodeCircularDependency = "CIRCULAR_DEPENDENCY"
)

// ErrInvalidRegistration reports why register() rejected a registration.
func ErrInvalidRegistration(reason string) *ferr.Error {
	return ferr.New(CodeInvalidRegistration, reason, nil)
}

// ErrNotRegistered reports that key has no registration.
func ErrNotRegistered(key string) *ferr.Error {
	return ferr.New(CodeNotRegistered, fmt.Sprintf("no registration for key %q", key), nil).
		WithContext("key", key)
}

// ErrCircularDependency reports the full re-entrancy path.
func ErrCircularDependency(path []string) *ferr.Error {
	return ferr.New(
		CodeCircularDependency,
		fmt.Sprintf("circular dependency: %s", strings.Join(path, " -> ")),
		nil,
	).WithContext("path", path)
}
