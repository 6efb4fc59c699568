// Package lifecycle implements ordered startup and teardown of
// phase-tagged singletons (spec §4.2, C2).
package lifecycle

import (
	"context"
	"sort"
	"sync"

	"github.com/basecore/basecore/registry"
	"go.uber.org/multierr"
)

// Logger is the minimal structured-logging surface the coordinator needs;
// *zap.SugaredLogger satisfies it directly.
type Logger interface {
	Errorw(msg string, keysAndValues ...any)
}

type noopLogger struct{}

func (noopLogger) Errorw(string, ...any) {}

// Coordinator runs setup phases ascending and teardown phases descending
// over every singleton the Registry has marked with a phase.
type Coordinator struct {
	registry *registry.Registry
	log      Logger
}

// New creates a Coordinator bound to r. If log is nil, teardown failures
// are swallowed instead of logged (still non-fatal either way).
func New(r *registry.Registry, log Logger) *Coordinator {
	if log == nil {
		log = noopLogger{}
	}
	return &Coordinator{registry: r, log: log}
}

// Startup resolves and sets up every phased singleton, phase ascending,
// all keys within a phase concurrently. The first setup failure in a
// phase aborts startup; components that already completed setup in
// earlier phases (or earlier in the same phase) are left running —
// Teardown is expected to release them.
func (c *Coordinator) Startup(ctx context.Context) error {
	phases := groupByPhase(c.registry.PhasedKeys())

	for _, phase := range sortedPhases(phases) {
		if err := c.runPhase(ctx, phases[phase], c.setupOne); err != nil {
			return err
		}
	}
	return nil
}

// Teardown releases every phased singleton, phase descending, all keys
// within a phase concurrently. Singletons that were never resolved are
// skipped. Individual teardown failures are logged and aggregated but
// never stop the walk; the registry is reset once every phase has been
// processed.
func (c *Coordinator) Teardown(ctx context.Context) error {
	phases := groupByPhase(c.registry.PhasedKeys())
	order := sortedPhases(phases)
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}

	var all error
	for _, phase := range order {
		err := c.runPhase(ctx, phases[phase], c.teardownOne)
		if err != nil {
			all = multierr.Append(all, err)
			c.log.Errorw("phase teardown reported errors", "phase", phase, "error", err)
		}
	}

	c.registry.Reset()
	return all
}

func (c *Coordinator) setupOne(ctx context.Context, key string) error {
	instance, err := c.registry.ResolveContext(ctx, key)
	if err != nil {
		return err
	}
	if s, ok := instance.(registry.Setupable); ok {
		return s.Setup(ctx)
	}
	return nil
}

func (c *Coordinator) teardownOne(ctx context.Context, key string) error {
	if info, ok := c.registry.Inspect(key); !ok || !info.Resolved {
		// Never resolved (or already reset) — spec §9 chooses to skip these.
		return nil
	}
	instance, err := c.registry.ResolveContext(ctx, key)
	if err != nil {
		return nil
	}
	if td, ok := instance.(registry.Teardownable); ok {
		return td.Teardown(ctx)
	}
	return nil
}

// runPhase runs fn over every key in keys concurrently and waits for all
// of them to finish (matching the spec's "await all their setup()
// calls"), then returns every non-nil error combined via multierr, or
// nil if all succeeded.
func (c *Coordinator) runPhase(ctx context.Context, keys []string, fn func(context.Context, string) error) error {
	var wg sync.WaitGroup
	errsCh := make(chan error, len(keys))

	for _, key := range keys {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			errsCh <- fn(ctx, key)
		}(key)
	}
	wg.Wait()
	close(errsCh)

	var combined error
	for err := range errsCh {
		if err != nil {
			combined = multierr.Append(combined, err)
		}
	}
	return combined
}

func groupByPhase(keys []registry.PhasedKey) map[int][]string {
	out := make(map[int][]string)
	for _, pk := range keys {
		out[pk.Phase] = append(out[pk.Phase], pk.Key)
	}
	return out
}

func sortedPhases(phases map[int][]string) []int {
	out := make([]int, 0, len(phases))
	for phase := range phases {
		out = append(out, phase)
	}
	sort.Ints(out)
	return out
}
