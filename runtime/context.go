// Package runtime implements the Context/action scheduler: the state
// machine that, given a trigger topic, assembles the set of matching
// actions, validates their phase/dependency graph, runs phases
// sequentially with intra-phase parallelism, and propagates
// success/failure (spec §4.5, C5).
package runtime

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/basecore/basecore/action"
	"github.com/basecore/basecore/bus"
	"github.com/google/uuid"
)

// Logger is the minimal structured-logging surface the scheduler needs.
type Logger interface {
	Errorw(msg string, keysAndValues ...any)
	Infow(msg string, keysAndValues ...any)
}

type noopLogger struct{}

func (noopLogger) Errorw(string, ...any) {}
func (noopLogger) Infow(string, ...any)  {}

// Kind distinguishes the two concrete Context flavors the spec names.
type Kind string

const (
	// KindInit is the trigger "/init"; no timeout.
	KindInit Kind = "init"
	// KindHTTP is a per-request trigger; bounded by an overall timeout.
	KindHTTP Kind = "http"
)

// Context is one orchestrated run for a single trigger topic.
type Context struct {
	ID        string
	Kind      Kind
	Trigger   string
	CreatedAt time.Time

	bus     *bus.Bus
	actions *action.Registry
	log     Logger

	timeout time.Duration // 0 = none (init contexts)
	params  map[string]string

	mu        sync.Mutex
	cond      *sync.Cond
	state     State
	failure   error
	actionLog map[string]bool
	errored   map[string]error
	phaseMap  map[int][]string
	data      map[string]any

	finishOnce sync.Once
	onFinish   func(*Context)

	ownedSubs []*bus.Subscription
}

// New builds a Context for trigger, bound to bus and actions. timeout=0
// means no deadline (spec.md: "Init context: no timeout"). params carries
// the values bound by the router/dispatcher when it matched the
// concrete request to trigger's canonical pattern (empty for /init).
func New(kind Kind, trigger string, b *bus.Bus, actions *action.Registry, log Logger, timeout time.Duration, params map[string]string) *Context {
	if log == nil {
		log = noopLogger{}
	}
	if params == nil {
		params = map[string]string{}
	}
	c := &Context{
		ID:        uuid.NewString(),
		Kind:      kind,
		Trigger:   trigger,
		CreatedAt: time.Now(),
		bus:       b,
		actions:   actions,
		log:       log,
		timeout:   timeout,
		params:    params,
		state:     StatePending,
		actionLog: make(map[string]bool),
		errored:   make(map[string]error),
		phaseMap:  make(map[int][]string),
		data:      make(map[string]any),
	}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// OnFinish registers the kind-specific terminal hook (e.g. writing an
// HTTP response, or logging a startup failure). It runs exactly once,
// after the context reaches Done or Error.
func (c *Context) OnFinish(fn func(*Context)) {
	c.onFinish = fn
}

// State returns the current state.
func (c *Context) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Failure returns the error that moved the context to StateError, if any.
func (c *Context) Failure() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failure
}

// Terminal reports whether the context has reached Done or Error.
func (c *Context) Terminal() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.terminal()
}

// Param returns a value bound by the router/dispatcher match, e.g. "requestId".
func (c *Context) Param(name string) string {
	return c.params[name]
}

// Set stores a value in the context's scratch data map.
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
}

// Get retrieves a value from the context's scratch data map.
func (c *Context) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok
}

// MustGet retrieves a value set by an earlier action (or by the context's
// kind-specific constructor, e.g. the HTTP request/response objects) and
// panics if it was never set. Action bodies run under module.Base's
// panic recovery, so a missing scratch value surfaces as an ActionError
// rather than crashing the process.
func (c *Context) MustGet(key string) any {
	v, ok := c.Get(key)
	if !ok {
		panic(fmt.Sprintf("runtime: no value set for scratch key %q", key))
	}
	return v
}

// ActionLog returns a snapshot of the fully-qualified action ids that
// have completed successfully so far.
func (c *Context) ActionLog() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.actionLog))
	for fqid := range c.actionLog {
		out = append(out, fqid)
	}
	return out
}

// start transitions pending -> running; no-op if already terminal.
func (c *Context) start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StatePending {
		c.state = StateRunning
	}
}

// markDone transitions pending|running -> done; no-op if already error.
func (c *Context) markDone() {
	c.mu.Lock()
	if !c.state.terminal() {
		c.state = StateDone
	}
	c.mu.Unlock()
	c.cond.Broadcast()
	c.finish()
}

// markError transitions pending|running -> error; no-op if already done.
// Terminal stickiness means a context that reached StateDone first keeps
// that outcome even if a stray completion arrives afterward.
func (c *Context) markError(err error) {
	c.mu.Lock()
	if c.state != StateDone {
		c.state = StateError
		if c.failure == nil {
			c.failure = err
		}
	}
	c.mu.Unlock()
	c.cond.Broadcast()
	c.finish()
}

func (c *Context) finish() {
	c.finishOnce.Do(func() {
		c.dispose()
		if c.onFinish != nil {
			c.onFinish(c)
		}
	})
}

// dispose cancels any completion subscriptions left outstanding by a
// phase that never got an answer from one of its actions (e.g. an
// action skipped because a sibling already ended the context). This is
// the Context.dispose() the design notes call for to avoid the Bus
// holding a weak back-reference to a dead Context forever.
func (c *Context) dispose() {
	c.mu.Lock()
	subs := c.ownedSubs
	c.ownedSubs = nil
	c.mu.Unlock()

	for _, sub := range subs {
		c.bus.UnsubscribeHandle(sub)
	}
}

// WaitFor blocks until every fqid in deps has completed successfully, or
// returns an error immediately if any of them has failed, or if the
// context itself has reached a terminal state. An empty deps list
// resolves immediately (spec §4.5 boundary behavior).
func (c *Context) WaitFor(deps []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for {
		allDone := true
		for _, dep := range deps {
			if err, failed := c.errored[dep]; failed {
				return fmt.Errorf("dependency %s failed: %w", dep, err)
			}
			if !c.actionLog[dep] {
				allDone = false
			}
		}
		if allDone {
			return nil
		}
		if c.state.terminal() {
			// Context ended (e.g. timeout, or a sibling's unrelated
			// failure tore down the whole plan) before our deps all
			// reported in.
			return fmt.Errorf("context ended before dependencies resolved: %w", c.failureLocked())
		}
		c.cond.Wait()
	}
}

func (c *Context) failureLocked() error {
	if c.failure != nil {
		return c.failure
	}
	return fmt.Errorf("context reached terminal state %s", c.state)
}

// ActionDone records a successful action completion and emits the
// per-action "done" event that the orchestrator's phase-wait is
// listening for. A context already in a terminal state ignores further
// completions (terminal-state stickiness, spec §4.5 step 3 of the
// per-action execution protocol).
func (c *Context) ActionDone(moduleName, actionName string) {
	fqid := moduleName + "/" + actionName

	c.mu.Lock()
	if c.state.terminal() {
		c.mu.Unlock()
		return
	}
	c.actionLog[fqid] = true
	c.mu.Unlock()
	c.cond.Broadcast()

	c.bus.Publish(context.Background(), c.doneTopic(moduleName, actionName), map[string]any{"context": c})
}

// ActionError records a failed action, moves the context to StateError
// at once, and emits the per-action "error" event. Run sees that state
// when the current phase returns and aborts the remaining phases (spec
// §4.5 step 3: "After each phase, if the context's state is error, abort
// remaining phases").
func (c *Context) ActionError(moduleName, actionName string, cause error) {
	fqid := moduleName + "/" + actionName
	wrapped := ErrActionFailed(fqid, cause)

	c.mu.Lock()
	if c.state.terminal() {
		c.mu.Unlock()
		return
	}
	c.state = StateError
	c.errored[fqid] = wrapped
	if c.failure == nil {
		c.failure = wrapped
	}
	c.mu.Unlock()
	c.cond.Broadcast()
	c.log.Errorw("action failed", "action", fqid, "error", cause)

	c.bus.Publish(context.Background(), c.errorTopic(moduleName, actionName), map[string]any{"context": c})
}

func (c *Context) executeTopic(moduleName, actionName string) string {
	return fmt.Sprintf("/context/execute/%s/%s", moduleName, actionName)
}

func (c *Context) doneTopic(moduleName, actionName string) string {
	return fmt.Sprintf("%s/%s/%s/%s/done", c.Trigger, c.ID, moduleName, actionName)
}

func (c *Context) errorTopic(moduleName, actionName string) string {
	return fmt.Sprintf("%s/%s/%s/%s/error", c.Trigger, c.ID, moduleName, actionName)
}

// Run plans, validates, and executes every action matching c.Trigger,
// returning the resulting error (nil on success). It is safe to call
// exactly once per Context.
func (c *Context) Run(parent context.Context) error {
	c.start()

	plan := c.actions.ActionsFor(c.Trigger)
	if len(plan) == 0 {
		err := ErrNoHandlers(c.Trigger)
		c.markError(err)
		return err
	}

	actionToPhase, byFQID, err := c.validate(plan)
	if err != nil {
		c.markError(err)
		return err
	}
	for phase, fqids := range groupByPhase(actionToPhase) {
		c.phaseMap[phase] = fqids
	}

	runCtx := parent
	var cancel context.CancelFunc
	if c.timeout > 0 {
		runCtx, cancel = context.WithTimeout(parent, c.timeout)
		defer cancel()
	}

	for _, phase := range sortedPhases(c.phaseMap) {
		fqids := c.phaseMap[phase]
		actsInPhase := make([]*action.Action, 0, len(fqids))
		for _, fqid := range fqids {
			actsInPhase = append(actsInPhase, byFQID[fqid])
		}

		if err := c.runPhase(runCtx, actsInPhase); err != nil {
			c.markError(err)
			return err
		}
		if c.State() == StateError {
			// An action's own body failed mid-phase: ActionError already
			// set the terminal state and recorded the failure; finish()
			// still needs to run exactly once so kind-specific terminal
			// hooks (e.g. writing the HTTP response) fire.
			c.finish()
			return c.Failure()
		}
	}

	c.markDone()
	return nil
}

// validate builds the phase map and checks every dependency is present
// in the plan and scheduled no later than its dependent (spec §4.5 step 2).
func (c *Context) validate(plan []*action.Action) (map[string]int, map[string]*action.Action, error) {
	actionToPhase := make(map[string]int, len(plan))
	byFQID := make(map[string]*action.Action, len(plan))
	for _, act := range plan {
		actionToPhase[act.FQID()] = act.Phase
		byFQID[act.FQID()] = act
	}

	for _, act := range plan {
		for _, dep := range act.DependsOn {
			resolved := act.ResolveDependency(dep)
			depPhase, ok := actionToPhase[resolved]
			if !ok {
				return nil, nil, ErrUnresolvedDependency(act.FQID(), resolved)
			}
			if depPhase > act.Phase {
				return nil, nil, ErrPhaseParadox(act.FQID(), act.Phase, resolved, depPhase)
			}
		}
	}

	return actionToPhase, byFQID, nil
}

// runPhase launches every action in the phase concurrently and blocks
// until each has reported done or error via the bus.
func (c *Context) runPhase(ctx context.Context, acts []*action.Action) error {
	var wg sync.WaitGroup
	wg.Add(len(acts))

	for _, act := range acts {
		act := act
		doneTopic := c.doneTopic(act.ModuleName, act.ActionName)
		errTopic := c.errorTopic(act.ModuleName, act.ActionName)

		var once sync.Once
		signal := func() { once.Do(wg.Done) }

		doneSub, _ := c.bus.Subscribe(doneTopic, func(context.Context, bus.Event) error {
			signal()
			return nil
		}, true)
		errSub, _ := c.bus.Subscribe(errTopic, func(context.Context, bus.Event) error {
			signal()
			return nil
		}, true)
		c.mu.Lock()
		c.ownedSubs = append(c.ownedSubs, doneSub, errSub)
		c.mu.Unlock()
	}

	for _, act := range acts {
		act := act
		payload := map[string]any{"context": c}
		for k, v := range c.params {
			payload[k] = v
		}
		go c.bus.Publish(ctx, c.executeTopic(act.ModuleName, act.ActionName), payload)
	}

	waitCh := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		return nil
	case <-c.waitTerminalChan():
		// A sibling action in this phase already drove the context to
		// its terminal state (e.g. another action errored); the actions
		// still pending will see that on their next WaitFor/terminal
		// check and skip themselves, so there is nothing left to await.
		return nil
	case <-ctx.Done():
		if c.Kind == KindHTTP {
			return ErrTimeout(c.Trigger)
		}
		<-waitCh
		return nil
	}
}

// waitTerminalChan returns a channel closed once the context reaches a
// terminal state. Used by runPhase to stop waiting on a phase's
// WaitGroup when an unrelated action elsewhere in the phase has already
// ended the whole run.
func (c *Context) waitTerminalChan() <-chan struct{} {
	ch := make(chan struct{})
	go func() {
		c.mu.Lock()
		for !c.state.terminal() {
			c.cond.Wait()
		}
		c.mu.Unlock()
		close(ch)
	}()
	return ch
}

func groupByPhase(actionToPhase map[string]int) map[int][]string {
	out := make(map[int][]string)
	for fqid, phase := range actionToPhase {
		out[phase] = append(out[phase], fqid)
	}
	return out
}

func sortedPhases(phaseMap map[int][]string) []int {
	out := make([]int, 0, len(phaseMap))
	for phase := range phaseMap {
		out = append(out, phase)
	}
	sort.Ints(out)
	return out
}
