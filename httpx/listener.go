// Package httpx implements the HTTP collaborator (spec SPEC_FULL.md §4.8,
// C8): a Listener built on echo/v4 that turns inbound requests into
// trigger-topic strings, drives a runtime.Context per request, and maps
// its terminal state to an HTTP response.
package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/basecore/basecore/action"
	"github.com/basecore/basecore/bus"
	"github.com/basecore/basecore/registry"
	"github.com/basecore/basecore/runtime"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Logger is the minimal structured-logging surface the listener needs.
type Logger interface {
	Errorw(msg string, keysAndValues ...any)
	Infow(msg string, keysAndValues ...any)
}

type noopLogger struct{}

func (noopLogger) Errorw(string, ...any) {}
func (noopLogger) Infow(string, ...any)  {}

// Listener owns the underlying echo.Echo server and the Router table. Its
// Setup/Teardown methods satisfy registry.Setupable/Teardownable;
// cmd/basecored does not register the Listener in the Registry and calls
// them directly, Setup after the init context has completed.
type Listener struct {
	Addr    string
	Timeout time.Duration

	echo    *echo.Echo
	router  *Router
	bus     *bus.Bus
	actions *action.Registry
	log     Logger
}

// NewListener builds a Listener bound to addr, dispatching every request
// that matches router through the scheduler.
func NewListener(addr string, timeout time.Duration, router *Router, b *bus.Bus, actions *action.Registry, log Logger) *Listener {
	if log == nil {
		log = noopLogger{}
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	l := &Listener{Addr: addr, Timeout: timeout, echo: e, router: router, bus: b, actions: actions, log: log}
	e.Any("/*", l.handle)
	return l
}

// Setup implements registry.Setupable: it starts accepting connections in
// the background and returns immediately.
func (l *Listener) Setup(ctx registry.Context) error {
	go func() {
		if err := l.echo.Start(l.Addr); err != nil && err != http.ErrServerClosed {
			l.log.Errorw("http listener stopped", "error", err)
		}
	}()
	return nil
}

// Teardown implements registry.Teardownable: it gracefully shuts the
// server down.
func (l *Listener) Teardown(ctx registry.Context) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return l.echo.Shutdown(shutdownCtx)
}

func (l *Listener) handle(ec echo.Context) error {
	suffix, pathParams, ok := l.router.Match(ec.Request().Method, ec.Request().URL.Path)
	if !ok {
		return ec.JSON(http.StatusNotFound, map[string]string{"error": "no route matches this request"})
	}

	requestID := uuid.NewString()
	trigger := "/request/:requestId" + suffix

	params := map[string]string{"requestId": requestID}
	for k, v := range pathParams {
		params[k] = v
	}

	req := NewRequest(ec)
	resp := NewResponse(ec)

	httpCtx := runtime.NewHTTP(l.bus, l.actions, l.log, l.Timeout, trigger, params, resp)
	httpCtx.Set("request", req)
	httpCtx.Set("response", resp)

	// The Context's OnFinish hook (wired by runtime.NewHTTP) already wrote
	// the response via resp; returning the scheduler error to echo would
	// make it attempt a second write on an already-committed response.
	if err := httpCtx.Run(ec.Request().Context()); err != nil {
		l.log.Errorw("request failed", "trigger", trigger, "error", err)
	}
	return nil
}
