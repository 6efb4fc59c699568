// Package action implements the ActionRegistry: the static, process-wide
// table mapping trigger-topic patterns to the declared Actions that run
// when that trigger fires (spec §4.4, C4).
package action

import (
	"fmt"
	"strings"
	"sync"

	"github.com/basecore/basecore/internal/ferr"
)

// MinUserPhase is the highest phase reserved for framework-internal
// components; a non-framework action must declare a phase above it
// (spec §3, Action descriptor invariants).
const MinUserPhase = 50

// DefaultPhase is used when a declaration omits phase.
const DefaultPhase = 100

const (
	// CodeDuplicateAction indicates {Module, Action} was registered twice.
	CodeDuplicateAction = "DUPLICATE_ACTION"
	// CodeInvalidPhase indicates phase <= MinUserPhase for a user action.
	CodeInvalidPhase = "INVALID_PHASE"
)

// Action is one declared unit of work (spec §3, Action descriptor).
type Action struct {
	ModuleName string
	ActionName string
	Phase      int
	DependsOn  []string // "ActionName" (same module) or "ModuleName/ActionName"
}

// FQID is the fully-qualified action id, "{ModuleName}/{ActionName}".
func (a *Action) FQID() string {
	return a.ModuleName + "/" + a.ActionName
}

// ResolveDependency qualifies a dependency entry against the declaring
// module: a bare "ActionName" resolves to this module; an entry already
// containing "/" is used as-is.
func (a *Action) ResolveDependency(dep string) string {
	if strings.Contains(dep, "/") {
		return dep
	}
	return a.ModuleName + "/" + dep
}

// Registry is the process-wide trigger-topic-pattern -> []Action table.
type Registry struct {
	mu       sync.RWMutex
	byTopic  map[string][]*Action
	declared map[string]bool // "{Module}/{Action}" already registered anywhere
}

// New creates an empty action Registry.
func New() *Registry {
	return &Registry{
		byTopic:  make(map[string][]*Action),
		declared: make(map[string]bool),
	}
}

// Register declares act under the given literal trigger topic pattern.
// Duplicate {ModuleName, ActionName} pairs are rejected regardless of
// which topic they'd be declared under (spec §3: "action names are
// unique within a module"). Register accepts only user actions (phase >
// MinUserPhase); framework-internal actions with phases <= MinUserPhase
// go through RegisterFrameworkAction.
func (r *Registry) Register(topic string, act *Action) error {
	return r.register(topic, act, false)
}

// RegisterFrameworkAction is identical to Register but permits phases at
// or below MinUserPhase, for the framework's own internal actions.
func (r *Registry) RegisterFrameworkAction(topic string, act *Action) error {
	return r.register(topic, act, true)
}

func (r *Registry) register(topic string, act *Action, framework bool) error {
	if act.Phase == 0 {
		act.Phase = DefaultPhase
	}
	if !framework && act.Phase <= MinUserPhase {
		return ferr.New(
			CodeInvalidPhase,
			fmt.Sprintf("action %s: phase %d is reserved for framework-internal components (must be > %d)", act.FQID(), act.Phase, MinUserPhase),
			nil,
		).WithContext("action", act.FQID()).WithContext("phase", act.Phase)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	fqid := act.FQID()
	if r.declared[fqid] {
		return ferr.New(
			CodeDuplicateAction,
			fmt.Sprintf("action %s already registered", fqid),
			nil,
		).WithContext("action", fqid)
	}

	r.declared[fqid] = true
	r.byTopic[topic] = append(r.byTopic[topic], act)
	return nil
}

// ActionsFor returns every action declared under a trigger topic pattern
// equal to (not merely matching) topic.
func (r *Registry) ActionsFor(topic string) []*Action {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src := r.byTopic[topic]
	out := make([]*Action, len(src))
	copy(out, src)
	return out
}

// Reset clears every declaration; used by tests between cases.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byTopic = make(map[string][]*Action)
	r.declared = make(map[string]bool)
}
