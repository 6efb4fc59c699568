package httpx

import (
	"io"

	"github.com/labstack/echo/v4"
)

// Request wraps the underlying HTTP library's per-request context with
// the accessor surface spec.md §6.2 names (HttpRequest).
type Request struct {
	ec echo.Context
}

// NewRequest wraps an echo.Context as a Request.
func NewRequest(ec echo.Context) *Request { return &Request{ec: ec} }

// Method returns the HTTP method, e.g. "GET".
func (r *Request) Method() string { return r.ec.Request().Method }

// Path returns the request's URL path.
func (r *Request) Path() string { return r.ec.Request().URL.Path }

// Header returns a single header value.
func (r *Request) Header(name string) string { return r.ec.Request().Header.Get(name) }

// Cookie returns a named cookie's value, or "" if absent.
func (r *Request) Cookie(name string) string {
	c, err := r.ec.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// Param returns a path parameter bound by echo's own route match. Listener
// registers a single "/*" echo route, so only "*" is bound here; the
// parameters Router binds are carried on the runtime.Context (Param).
func (r *Request) Param(name string) string { return r.ec.Param(name) }

// Query returns a URL query parameter.
func (r *Request) Query(name string) string { return r.ec.QueryParam(name) }

// Body reads and returns the raw request body.
func (r *Request) Body() ([]byte, error) { return io.ReadAll(r.ec.Request().Body) }

// Bind unmarshals the request body into dst using echo's content-type-
// aware binder.
func (r *Request) Bind(dst any) error { return r.ec.Bind(dst) }
