package httpx

import (
	"github.com/basecore/basecore/runtime"
	"github.com/labstack/echo/v4"
)

// Response wraps the underlying HTTP library's response writer with the
// send/html/json/text/redirect surface spec.md §6.2 names (HttpResponse).
// It also implements runtime.Responder so a Context can write directly to
// it once it reaches a terminal state.
type Response struct {
	ec   echo.Context
	sent bool
}

// NewResponse wraps an echo.Context as a Response.
func NewResponse(ec echo.Context) *Response { return &Response{ec: ec} }

// Sent reports whether a response has already been written.
func (r *Response) Sent() bool { return r.sent }

// Send writes status with a raw byte body.
func (r *Response) Send(status int, body []byte) error {
	r.sent = true
	return r.ec.Blob(status, echo.MIMEOctetStream, body)
}

// JSON writes status with v encoded as JSON.
func (r *Response) JSON(status int, v any) error {
	r.sent = true
	return r.ec.JSON(status, v)
}

// HTML writes status with a raw HTML body.
func (r *Response) HTML(status int, html string) error {
	r.sent = true
	return r.ec.HTML(status, html)
}

// Text writes status with a plain-text body.
func (r *Response) Text(status int, body string) error {
	r.sent = true
	return r.ec.String(status, body)
}

// Redirect writes an HTTP redirect to url.
func (r *Response) Redirect(status int, url string) error {
	r.sent = true
	return r.ec.Redirect(status, url)
}

// WriteStatus implements runtime.Responder for a terminal error state: it
// writes err's message as a JSON error body under status, unless a
// handler already sent a response itself.
func (r *Response) WriteStatus(status int, err error) {
	if r.sent {
		return
	}
	_ = r.JSON(status, map[string]string{"error": err.Error()})
}

// WriteSuccess implements runtime.Responder for a terminal done state. If
// no action already wrote a response body (spec.md's `send`/`json`/etc.),
// this writes a bare 204 so the request never hangs without a reply.
func (r *Response) WriteSuccess(ctx *runtime.Context) {
	_ = ctx
	if r.sent {
		return
	}
	_ = r.ec.NoContent(204)
}
