package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveContext_RunsHooksInOrder(t *testing.T) {
	r := New()
	_, err := r.Register(&widget{N: 1}, WithKey("widget"))
	require.NoError(t, err)

	var events []string
	r.Use(FuncHook{
		Before: func(ctx context.Context, key string) error {
			events = append(events, "before:"+key)
			return nil
		},
		After: func(ctx context.Context, key string, err error) {
			events = append(events, "after:"+key)
		},
	})

	_, err = r.ResolveContext(context.Background(), "widget")
	require.NoError(t, err)
	assert.Equal(t, []string{"before:widget", "after:widget"}, events)
}

func TestResolveContext_BeforeHookErrorAbortsResolution(t *testing.T) {
	r := New()
	_, err := r.Register(&widget{N: 1}, WithKey("widget"))
	require.NoError(t, err)

	boom := assertErr{}
	r.Use(FuncHook{Before: func(ctx context.Context, key string) error { return boom }})

	_, err = r.ResolveContext(context.Background(), "widget")
	assert.Equal(t, boom, err)
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
