package executor

import (
	"context"
	"fmt"
	"sync"

	"github.com/mooselang/moose/ir"
	"github.com/mooselang/moose/kernel"
	"github.com/mooselang/moose/types"
)

// Executor runs the subset of a computation's operations bound to one
// party, dispatching each through a kernel.Registry. It does not sort
// operations into a topological order first: each operation's
// goroutine blocks on its own input futures, so execution order is
// whatever the futures happen to resolve in (spec.md §4.5, §9's
// explicitly-undetermined local-ordering Open Question).
//
// An operation scheduled for a party is assumed to depend only on
// operations also scheduled for that party: NetworkMaterializationPass
// rewrites every placement-crossing edge into an explicit host.Send /
// host.Receive pair before a computation reaches the executor, so this
// invariant holds for any computation that went through the standard
// pipeline.
type Executor struct {
	Registry *kernel.Registry

	// Trace, if set, is called with an operation's name immediately
	// before its kernel runs. It exists purely so a caller can recover
	// a reproducible debug trace; it never influences scheduling
	// (spec.md §9).
	Trace func(opName string)

	// Logf, if set, receives a one-line message per operation dispatch.
	Logf func(format string, args ...any)
}

// New returns an Executor dispatching through registry.
func New(registry *kernel.Registry) *Executor {
	return &Executor{Registry: registry}
}

func (e *Executor) logf(format string, args ...any) {
	if e.Logf != nil {
		e.Logf(format, args...)
	}
}

// Run executes every operation of comp whose placement resolves to a
// set of hosts including sess.Party, one goroutine per operation,
// until every such operation has run or one has failed. It sets
// sess.Resolve to comp.Placement so replicated-dialect kernels can
// look up placements by name. The first kernel error observed is
// returned; ctx is cancelled as soon as it occurs so goroutines
// blocked on a sibling's future are released rather than left to hang
// (spec.md §4.5, §7's fail-fast requirement).
func (e *Executor) Run(ctx context.Context, comp *ir.Computation, sess *kernel.Session) error {
	sess.Resolve = comp.Placement

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var mu sync.Mutex
	futures := make(map[string]*Future)
	futureFor := func(name string) *Future {
		mu.Lock()
		defer mu.Unlock()
		f, ok := futures[name]
		if !ok {
			f = NewFuture()
			futures[name] = f
		}
		return f
	}

	var errOnce sync.Once
	var firstErr error
	fail := func(err error) {
		errOnce.Do(func() { firstErr = err })
		cancel()
	}

	var wg sync.WaitGroup
	for _, op := range comp.Operations {
		placement := comp.Placement(op.Placement())
		if placement == nil {
			return fmt.Errorf("executor: operation %q references unknown placement %q", op.Name(), op.Placement())
		}
		if !hostsInclude(placement, sess.Party) {
			continue
		}

		op := op
		future := futureFor(op.Name())
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := e.runOne(ctx, sess, op, futureFor)
			future.Set(out, err)
			if err != nil {
				fail(err)
			}
		}()
	}

	wg.Wait()
	return firstErr
}

func (e *Executor) runOne(ctx context.Context, sess *kernel.Session, op ir.Op, futureFor func(string) *Future) (any, error) {
	slots := op.Inputs()
	inputs := make(map[string]any, len(slots))
	for _, slot := range slots {
		v, err := futureFor(slot.Producer).Get(ctx)
		if err != nil {
			return nil, fmt.Errorf("executor: %s: waiting on %q: %w", op.Name(), slot.Producer, err)
		}
		inputs[slot.Label] = v
	}

	k, err := e.Registry.Lookup(op.Kind())
	if err != nil {
		return nil, err
	}

	if e.Trace != nil {
		e.Trace(op.Name())
	}
	e.logf("executor: %s running %s (%s) on %s", sess.Party, op.Name(), op.Kind(), op.Placement())

	return k(ctx, sess, op, inputs)
}

func hostsInclude(p types.Placement, party string) bool {
	for _, h := range types.Hosts(p) {
		if h == party {
			return true
		}
	}
	return false
}
