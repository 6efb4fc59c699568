package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DevelopmentBuildsLogger(t *testing.T) {
	log, err := New(EnvDevelopment, "basecore")
	require.NoError(t, err)
	require.NotNil(t, log)
	log.Infow("startup", "phase", 1)
}

func TestNew_ProductionBuildsLogger(t *testing.T) {
	log, err := New(EnvProduction, "basecore")
	require.NoError(t, err)
	require.NotNil(t, log)
}

func TestForModule_NamespacesLogger(t *testing.T) {
	base, err := New(EnvDevelopment, "basecore")
	require.NoError(t, err)
	child := ForModule(base, "Cache")
	assert.NotNil(t, child)
}

func TestForContext_AttachesContextID(t *testing.T) {
	base, err := New(EnvDevelopment, "basecore")
	require.NoError(t, err)
	child := ForContext(base, "abc-123")
	assert.NotNil(t, child)
	child.Infow("action done")
}

// scoper is a scoping interface declared apart from RootLogger. A
// RootLogger must satisfy it structurally, through its ForContext method
// returning Logger.
type scoper interface {
	ForContext(contextID string) Logger
}

func TestRootLogger_SatisfiesForeignScopingInterface(t *testing.T) {
	base, err := New(EnvDevelopment, "basecore")
	require.NoError(t, err)

	s, ok := base.(scoper)
	require.True(t, ok, "RootLogger must satisfy any two-method scoping interface structurally")

	child := s.ForContext("req-1")
	assert.NotNil(t, child)
	child.Infow("scoped")
}
