package runtime

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/basecore/basecore/action"
	"github.com/basecore/basecore/bus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResponder struct {
	status   int
	err      error
	success  bool
	finished *Context
}

func (f *fakeResponder) WriteStatus(status int, err error) {
	f.status = status
	f.err = err
}

func (f *fakeResponder) WriteSuccess(ctx *Context) {
	f.success = true
	f.finished = ctx
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusFor(ErrNoHandlers("/x")))
	assert.Equal(t, http.StatusRequestTimeout, StatusFor(ErrTimeout("/x")))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(ErrUnresolvedDependency("A/x", "B/y")))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(ErrPhaseParadox("A/x", 100, "B/y", 200)))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(ErrActionFailed("A/x", nil)))
}

func TestNewHTTP_WritesSuccessResponse(t *testing.T) {
	b := bus.New(nil)
	actions := action.New()
	registerHandler(b, actions, "/request/:requestId/get/ping", &action.Action{ModuleName: "Ping", ActionName: "reply", Phase: 100}, func(c *Context) error {
		return nil
	})

	resp := &fakeResponder{}
	c := NewHTTP(b, actions, nil, 5*time.Second, "/request/:requestId/get/ping", map[string]string{"requestId": "abc"}, resp)
	err := c.Run(context.Background())

	require.NoError(t, err)
	assert.True(t, resp.success)
	assert.Same(t, c, resp.finished)
}

func TestNewHTTP_WritesNotFoundResponse(t *testing.T) {
	b := bus.New(nil)
	actions := action.New()

	resp := &fakeResponder{}
	c := NewHTTP(b, actions, nil, 5*time.Second, "/request/:requestId/get/missing", nil, resp)
	err := c.Run(context.Background())

	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, resp.status)
	assert.False(t, resp.success)
}
