package config

import (
	"fmt"

	"github.com/basecore/basecore/internal/ferr"
)

const (
	// CodeConfigNotFound indicates the base config.yaml is missing.
	CodeConfigNotFound = "CONFIG_NOT_FOUND"
	// CodeInvalidConfig indicates a namespace failed to parse or unmarshal.
	CodeInvalidConfig = "INVALID_CONFIG"
)

// ErrConfigNotFound reports a missing base config file (fatal at startup).
func ErrConfigNotFound(path string, cause error) *ferr.Error {
	return ferr.New(CodeConfigNotFound, fmt.Sprintf("base config file %q not found", path), cause).
		WithContext("path", path)
}

// ErrInvalidConfig reports a namespace that could not be parsed or typed.
func ErrInvalidConfig(namespace string, cause error) *ferr.Error {
	return ferr.New(CodeInvalidConfig, fmt.Sprintf("config namespace %q is invalid", namespace), cause).
		WithContext("namespace", namespace)
}
