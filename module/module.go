// Package module implements the Module base (spec §4.6, C6): the host a
// concrete module embeds to declare init- and request-phase actions. It
// wires each declared action into the ActionRegistry and subscribes on
// the Bus to run the per-action execution protocol (spec §4.5) whenever
// the scheduler fires that action.
package module

import (
	"context"
	"fmt"

	"github.com/basecore/basecore/action"
	"github.com/basecore/basecore/bus"
	"github.com/basecore/basecore/registry"
	"github.com/basecore/basecore/runtime"
)

// Logger is the minimal structured-logging surface modules need.
type Logger interface {
	Errorw(msg string, keysAndValues ...any)
	Infow(msg string, keysAndValues ...any)
}

type noopLogger struct{}

func (noopLogger) Errorw(string, ...any) {}
func (noopLogger) Infow(string, ...any)  {}

// ActionFunc is the body a module supplies for one declared action.
type ActionFunc func(ctx *runtime.Context) error

// Base is embedded by every concrete module. It is not itself registered
// in the Registry — call RegisterSelf with the concrete module value so
// tag-based resolution (ResolveByTag("Module")) returns the real type.
type Base struct {
	Name string

	bus     *bus.Bus
	actions *action.Registry
	log     Logger
}

// NewBase creates the action-hosting facilities for a module named name.
func NewBase(name string, b *bus.Bus, actions *action.Registry, log Logger) *Base {
	if log == nil {
		log = noopLogger{}
	}
	return &Base{Name: name, bus: b, actions: actions, log: log}
}

// ModuleName returns the module's registered name. Embedding Base
// promotes this method, so any module satisfies Named without extra
// boilerplate — used by the Health module to label its checklist.
func (m *Base) ModuleName() string { return m.Name }

// Named is implemented by every module via the embedded Base.
type Named interface {
	ModuleName() string
}

// Checkable is optionally implemented by a module that wants to
// participate in Health's "/healthz" report (spec SPEC_FULL.md §4.10).
type Checkable interface {
	HealthCheck() error
}

// RegisterSelf registers the concrete module (self) as a "Module"-tagged
// singleton at phase (spec §4.6: "registered as a singleton with a tag
// Module and a default phase (> 50)"). Call once, after declaring actions.
func (m *Base) RegisterSelf(reg *registry.Registry, self any, phase int) (string, error) {
	if phase <= action.MinUserPhase {
		return "", fmt.Errorf("module %s: phase %d is reserved for framework-internal components (must be > %d)", m.Name, phase, action.MinUserPhase)
	}
	return reg.RegisterInstance(self,
		registry.WithKey(m.Name),
		registry.WithTags("Module"),
		registry.WithPhase(phase),
	)
}

// Init declares an @init action: it runs as part of the "/init" trigger's
// plan (spec §4.6). deps may be bare action names (resolved against this
// module) or "OtherModule/action" references.
func (m *Base) Init(actionName string, phase int, deps []string, fn ActionFunc) error {
	return m.declare("/init", actionName, phase, deps, fn)
}

// Request declares an @request(path) action. An empty path defaults to
// "/*" (spec §4.6: "{path ?? /*}"). Triggers are compared by exact string
// (action.Registry.ActionsFor), so such an action runs only for the
// literal trigger "/request/:requestId/*"; it is not a fallback for other
// methods or paths.
func (m *Base) Request(path, actionName string, phase int, deps []string, fn ActionFunc) error {
	if path == "" {
		path = "/*"
	}
	trigger := "/request/:requestId" + path
	return m.declare(trigger, actionName, phase, deps, fn)
}

func (m *Base) declare(trigger, actionName string, phase int, deps []string, fn ActionFunc) error {
	act := &action.Action{
		ModuleName: m.Name,
		ActionName: actionName,
		Phase:      phase,
		DependsOn:  deps,
	}
	if err := m.actions.Register(trigger, act); err != nil {
		return err
	}

	resolved := make([]string, len(deps))
	for i, dep := range deps {
		resolved[i] = act.ResolveDependency(dep)
	}

	execTopic := fmt.Sprintf("/context/execute/%s/%s", m.Name, actionName)
	_, err := m.bus.Subscribe(execTopic, m.executeHandler(actionName, resolved, fn), false)
	return err
}

// executeHandler implements the five-step per-action execution protocol
// (spec §4.5, "Per-action execution (triggered by /context/execute/…)").
func (m *Base) executeHandler(actionName string, resolvedDeps []string, fn ActionFunc) bus.Handler {
	return func(_ context.Context, evt bus.Event) error {
		ctx, ok := evt.Payload["context"].(*runtime.Context)
		if !ok {
			return fmt.Errorf("module %s: execute event for %s missing *runtime.Context payload", m.Name, actionName)
		}

		if ctx.Terminal() {
			return nil
		}
		if err := ctx.WaitFor(resolvedDeps); err != nil {
			// A dependency failed, or the context ended first: this
			// action never ran and must not itself emit done/error.
			return nil
		}
		if ctx.Terminal() {
			return nil
		}

		if err := m.invoke(fn, ctx); err != nil {
			ctx.ActionError(m.Name, actionName, err)
			return nil
		}
		ctx.ActionDone(m.Name, actionName)
		return nil
	}
}

// invoke runs fn, converting a panic into an error so it reaches
// ActionError instead of being swallowed anonymously at the bus boundary.
func (m *Base) invoke(fn ActionFunc, ctx *runtime.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}
