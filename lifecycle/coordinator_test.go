package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/basecore/basecore/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingComponent struct {
	mu        sync.Mutex
	name      string
	setupErr  error
	teardnErr error
	started   bool
	stopped   bool
	onSetup   func(name string)
}

func (c *recordingComponent) Setup(ctx registry.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setupErr != nil {
		return c.setupErr
	}
	if c.onSetup != nil {
		c.onSetup(c.name)
	}
	c.started = true
	return nil
}

func (c *recordingComponent) Teardown(ctx registry.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.teardnErr != nil {
		return c.teardnErr
	}
	c.stopped = true
	return nil
}

func TestStartup_RunsAscendingAndCallsSetup(t *testing.T) {
	r := registry.New()
	var order []string
	var mu sync.Mutex

	record := func(name string) {
		mu.Lock()
		order = append(order, name)
		mu.Unlock()
	}

	early := &recordingComponent{name: "early", onSetup: record}
	late := &recordingComponent{name: "late", onSetup: record}

	_, err := r.Register(early, registry.WithKey("early"), registry.WithSingleton(true), registry.WithPhase(10))
	require.NoError(t, err)
	_, err = r.Register(late, registry.WithKey("late"), registry.WithSingleton(true), registry.WithPhase(20))
	require.NoError(t, err)

	coord := New(r, nil)
	err = coord.Startup(context.Background())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"early", "late"}, order)

	assert.True(t, early.started)
	assert.True(t, late.started)
}

func TestStartup_AbortsOnFirstPhaseFailure(t *testing.T) {
	r := registry.New()
	failing := &recordingComponent{setupErr: errors.New("boom")}
	never := &recordingComponent{}

	_, err := r.Register(failing, registry.WithKey("failing"), registry.WithSingleton(true), registry.WithPhase(10))
	require.NoError(t, err)
	_, err = r.Register(never, registry.WithKey("never"), registry.WithSingleton(true), registry.WithPhase(20))
	require.NoError(t, err)

	coord := New(r, nil)
	err = coord.Startup(context.Background())
	require.Error(t, err)
	assert.False(t, never.started)
}

func TestTeardown_ContinuesAfterFailureAndResetsRegistry(t *testing.T) {
	r := registry.New()
	failing := &recordingComponent{teardnErr: errors.New("cleanup failed")}
	ok := &recordingComponent{}

	_, err := r.Register(failing, registry.WithKey("failing"), registry.WithSingleton(true), registry.WithPhase(10))
	require.NoError(t, err)
	_, err = r.Register(ok, registry.WithKey("ok"), registry.WithSingleton(true), registry.WithPhase(20))
	require.NoError(t, err)

	coord := New(r, nil)
	require.NoError(t, coord.Startup(context.Background()))

	err = coord.Teardown(context.Background())
	require.Error(t, err)
	assert.True(t, ok.stopped)
	assert.False(t, r.Has("failing"))
}

func TestCoordinator_NoopWhenNoLifecycleMethods(t *testing.T) {
	r := registry.New()
	type plain struct{}
	_, err := r.Register(&plain{}, registry.WithKey("plain"), registry.WithSingleton(true), registry.WithPhase(10))
	require.NoError(t, err)

	coord := New(r, nil)
	require.NoError(t, coord.Startup(context.Background()))
	require.NoError(t, coord.Teardown(context.Background()))
}
