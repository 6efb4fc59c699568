package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLazy_ResolvesOnceAndCaches(t *testing.T) {
	r := New()
	calls := 0
	_, err := r.RegisterFactory(func(r *Registry, args ...any) (any, error) {
		calls++
		return &widget{N: calls}, nil
	}, WithKey("widget"), WithSingleton(true))
	require.NoError(t, err)

	lazy := NewLazy[*widget](r, "widget")
	a, err := lazy.Get()
	require.NoError(t, err)
	b, err := lazy.Get()
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, 1, calls)
}

func TestLazy_MustGetPanicsOnMissingKey(t *testing.T) {
	r := New()
	lazy := NewLazy[*widget](r, "missing")
	assert.Panics(t, func() { lazy.MustGet() })
}

func TestProvider_ProvideReturnsFreshInstancesForNonSingleton(t *testing.T) {
	r := New()
	_, err := r.RegisterFactory(func(r *Registry, args ...any) (any, error) {
		return &widget{}, nil
	}, WithKey("widget"))
	require.NoError(t, err)

	p := NewProvider[*widget](r, "widget")
	a, err := p.Provide()
	require.NoError(t, err)
	b, err := p.Provide()
	require.NoError(t, err)
	assert.NotSame(t, a, b)
}
