package runtime

import (
	"net/http"
	"time"

	"github.com/basecore/basecore/action"
	"github.com/basecore/basecore/bus"
	"github.com/basecore/basecore/internal/ferr"
)

// Responder is implemented by the httpx collaborator so runtime never
// imports an HTTP framework directly: it only needs to write a status
// code and body once the Context reaches a terminal state.
type Responder interface {
	WriteStatus(status int, err error)
	WriteSuccess(ctx *Context)
}

// StatusFor maps a terminal Context error to the HTTP status the router
// writes (spec §4.8/§7): NoHandlers -> 404, UnresolvedDependency and
// PhaseParadox and ActionFailed -> 500, Timeout -> 408.
func StatusFor(err error) int {
	switch ferr.Code(err) {
	case CodeNoHandlers:
		return http.StatusNotFound
	case CodeTimeout:
		return http.StatusRequestTimeout
	case CodeUnresolvedDependency, CodePhaseParadox, CodeActionFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// NewHTTP builds the Context for one inbound request. trigger is the
// literal "/request/:requestId{METHOD}{path}" topic the router resolved
// against its route table — NOT interpolated with the real request id,
// since ActionRegistry.ActionsFor matches trigger topics by exact string
// equality (spec §3/§4.4). The real request id travels in params (read
// back with Param("requestId")); the per-action completion topics use this
// Context's own ID, a separate UUID generated by New.
func NewHTTP(b *bus.Bus, actions *action.Registry, log Logger, timeout time.Duration, trigger string, params map[string]string, resp Responder) *Context {
	c := New(KindHTTP, trigger, b, actions, log, timeout, params)
	c.OnFinish(func(ctx *Context) {
		if resp == nil {
			return
		}
		if ctx.State() == StateError {
			resp.WriteStatus(StatusFor(ctx.Failure()), ctx.Failure())
			return
		}
		resp.WriteSuccess(ctx)
	})
	return c
}
