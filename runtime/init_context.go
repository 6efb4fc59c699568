package runtime

import (
	"github.com/basecore/basecore/action"
	"github.com/basecore/basecore/bus"
)

// NewInit builds the single Context that drives process startup: every
// action declared under the "/init" trigger, across every phase, with no
// overall timeout (spec.md: "Init context: no timeout").
func NewInit(b *bus.Bus, actions *action.Registry, log Logger) *Context {
	c := New(KindInit, "/init", b, actions, log, 0, nil)
	c.OnFinish(func(ctx *Context) {
		if ctx.State() == StateError {
			ctx.log.Errorw("startup failed", "error", ctx.Failure())
			return
		}
		ctx.log.Infow("startup complete", "actions", len(ctx.ActionLog()))
	})
	return c
}
