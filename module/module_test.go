package module

import (
	"context"
	"errors"
	"testing"

	"github.com/basecore/basecore/action"
	"github.com/basecore/basecore/bus"
	"github.com/basecore/basecore/registry"
	"github.com/basecore/basecore/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testModule struct {
	*Base
	warmed bool
}

func newTestModule(b *bus.Bus, actions *action.Registry) *testModule {
	tm := &testModule{Base: NewBase("Cache", b, actions, nil)}
	_ = tm.Init("warm", 60, nil, func(ctx *runtime.Context) error {
		tm.warmed = true
		return nil
	})
	return tm
}

func TestModule_InitActionRunsThroughFullContext(t *testing.T) {
	b := bus.New(nil)
	actions := action.New()
	tm := newTestModule(b, actions)

	c := runtime.NewInit(b, actions, nil)
	err := c.Run(context.Background())

	require.NoError(t, err)
	assert.True(t, tm.warmed)
	assert.Equal(t, runtime.StateDone, c.State())
}

func TestModule_RegisterSelf_TagsAsModule(t *testing.T) {
	b := bus.New(nil)
	actions := action.New()
	reg := registry.New()

	tm := newTestModule(b, actions)
	key, err := tm.RegisterSelf(reg, tm, 100)
	require.NoError(t, err)
	assert.Equal(t, "Cache", key)

	members, err := reg.ResolveByTag("Module")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Same(t, tm, members[0])
}

func TestModule_RegisterSelf_RejectsFrameworkPhase(t *testing.T) {
	b := bus.New(nil)
	actions := action.New()
	reg := registry.New()

	tm := newTestModule(b, actions)
	_, err := tm.RegisterSelf(reg, tm, 10)
	require.Error(t, err)
}

func TestModule_ActionErrorPropagatesToContext(t *testing.T) {
	b := bus.New(nil)
	actions := action.New()

	m := NewBase("Broken", b, actions, nil)
	require.NoError(t, m.Init("fail", 60, nil, func(ctx *runtime.Context) error {
		return errors.New("boom")
	}))

	c := runtime.NewInit(b, actions, nil)
	err := c.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, runtime.StateError, c.State())
}

func TestModule_PanicBecomesActionError(t *testing.T) {
	b := bus.New(nil)
	actions := action.New()

	m := NewBase("Panicky", b, actions, nil)
	require.NoError(t, m.Init("fail", 60, nil, func(ctx *runtime.Context) error {
		panic("kaboom")
	}))

	c := runtime.NewInit(b, actions, nil)
	err := c.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ACTION_FAILED")
}

func TestModule_SkipsWhenDependencyFailed(t *testing.T) {
	b := bus.New(nil)
	actions := action.New()

	var secondInvoked bool
	m := NewBase("Chain", b, actions, nil)
	require.NoError(t, m.Init("first", 60, nil, func(ctx *runtime.Context) error {
		return errors.New("first failed")
	}))
	require.NoError(t, m.Init("second", 100, []string{"first"}, func(ctx *runtime.Context) error {
		secondInvoked = true
		return nil
	}))

	c := runtime.NewInit(b, actions, nil)
	err := c.Run(context.Background())
	require.Error(t, err)
	assert.False(t, secondInvoked)
}

func TestModule_RequestDefaultsToWildcardPath(t *testing.T) {
	b := bus.New(nil)
	actions := action.New()

	m := NewBase("Catchall", b, actions, nil)
	require.NoError(t, m.Request("", "handle", 100, nil, func(ctx *runtime.Context) error {
		return nil
	}))

	plan := actions.ActionsFor("/request/:requestId/*")
	require.Len(t, plan, 1)
	assert.Equal(t, "handle", plan[0].ActionName)
}
