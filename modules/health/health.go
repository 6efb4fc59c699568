// Package health is the Health example module (spec SPEC_FULL.md §4.10,
// C10): its init action builds a checklist by resolving every
// "Module"-tagged singleton, and its request action runs each check and
// reports the aggregate result as JSON.
package health

import (
	"net/http"
	"sync"

	"github.com/basecore/basecore/action"
	"github.com/basecore/basecore/bus"
	"github.com/basecore/basecore/httpx"
	"github.com/basecore/basecore/module"
	"github.com/basecore/basecore/registry"
	"github.com/basecore/basecore/runtime"
)

// Health reports the health of every registered module.
type Health struct {
	*module.Base
	reg *registry.Registry

	mu      sync.RWMutex
	members []any
}

// New builds and declares the Health module's actions.
func New(b *bus.Bus, actions *action.Registry, reg *registry.Registry, log module.Logger) *Health {
	h := &Health{Base: module.NewBase("Health", b, actions, log), reg: reg}
	_ = h.Init("register", 110, nil, h.register)
	_ = h.Request("/get/healthz", "report", 100, nil, h.report)
	return h
}

// register resolves every "Module"-tagged singleton. It does not express
// "depends on every other module's init actions" as a dependency list
// (spec SPEC_FULL.md §4.10); by phase 110 every module has already run
// its own init actions and is resolvable by tag.
func (h *Health) register(ctx *runtime.Context) error {
	members, err := h.reg.ResolveByTag("Module")
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.members = members
	h.mu.Unlock()
	return nil
}

// report runs each registered module's HealthCheck (if it implements
// module.Checkable) and returns the aggregate as JSON.
func (h *Health) report(ctx *runtime.Context) error {
	resp := ctx.MustGet("response").(*httpx.Response)

	h.mu.RLock()
	members := h.members
	h.mu.RUnlock()

	checks := make(map[string]string, len(members))
	healthy := true
	for _, m := range members {
		name := "unknown"
		if n, ok := m.(module.Named); ok {
			name = n.ModuleName()
		}

		if c, ok := m.(module.Checkable); ok {
			if err := c.HealthCheck(); err != nil {
				checks[name] = err.Error()
				healthy = false
				continue
			}
		}
		checks[name] = "ok"
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	return resp.JSON(status, map[string]any{"healthy": healthy, "checks": checks})
}
