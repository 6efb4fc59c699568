package runtime

import (
	"fmt"

	"github.com/basecore/basecore/internal/ferr"
)

const (
	// CodeNoHandlers indicates no actions are declared for a trigger topic.
	CodeNoHandlers = "NO_HANDLERS"
	// CodeUnresolvedDependency indicates a dependency isn't present in the plan.
	CodeUnresolvedDependency = "UNRESOLVED_DEPENDENCY"
	// CodePhaseParadox indicates a dependency lives in a strictly later phase.
	CodePhaseParadox = "PHASE_PARADOX"
	// CodeActionFailed indicates an action's body returned an error or panicked.
	CodeActionFailed = "ACTION_FAILED"
	// CodeTimeout indicates an HTTP context exceeded its overall deadline.
	CodeTimeout = "TIMEOUT"
)

// ErrNoHandlers reports that no action matched the trigger topic.
func ErrNoHandlers(topic string) *ferr.Error {
	return ferr.New(CodeNoHandlers, fmt.Sprintf("no actions declared for trigger %q", topic), nil).
		WithContext("topic", topic)
}

// ErrUnresolvedDependency reports a dependency absent from the plan.
func ErrUnresolvedDependency(action, dep string) *ferr.Error {
	return ferr.New(
		CodeUnresolvedDependency,
		fmt.Sprintf("action %s depends on %s, which is not in the plan", action, dep),
		nil,
	).WithContext("action", action).WithContext("dependency", dep)
}

// ErrPhaseParadox reports a dependency scheduled strictly after its dependent.
func ErrPhaseParadox(action string, actionPhase int, dep string, depPhase int) *ferr.Error {
	return ferr.New(
		CodePhaseParadox,
		fmt.Sprintf("action %s (phase %d) depends on %s (phase %d), which runs later", action, actionPhase, dep, depPhase),
		nil,
	).WithContext("action", action).WithContext("dependency", dep)
}

// ErrActionFailed wraps the error returned/recovered from an action body.
func ErrActionFailed(fqid string, cause error) *ferr.Error {
	return ferr.New(CodeActionFailed, fmt.Sprintf("action %s failed", fqid), cause).
		WithContext("action", fqid)
}

// ErrTimeout reports that an HTTP context's overall deadline elapsed.
func ErrTimeout(topic string) *ferr.Error {
	return ferr.New(CodeTimeout, fmt.Sprintf("context for trigger %q timed out", topic), nil).
		WithContext("topic", topic)
}
