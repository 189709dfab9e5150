package runtime

import (
	"context"
	"sync"

	"github.com/mooselang/moose/ir"
	"github.com/mooselang/moose/wire"
)

// Orchestrator encodes a computation once and fans RunComputation out
// to every party concurrently, grounded on the teacher's
// plan/exec.go Node.subexec: one goroutine per child collected into a
// shared error slice behind a sync.WaitGroup. subexec concatenates
// every child's error (appenderrs); Evaluate instead keeps only the
// first, matching spec.md §7's FIRST_EXCEPTION join semantics and
// cancelling the shared context so the remaining parties' in-flight
// RunComputation calls can unwind early.
type Orchestrator struct {
	// Logf, if set, receives a one-line message per party dispatched.
	Logf func(format string, args ...any)
}

func (o *Orchestrator) logf(format string, args ...any) {
	if o.Logf != nil {
		o.Logf(format, args...)
	}
}

// Evaluate runs comp under sessionID across parties, returning the
// first error any party's RunComputation call reports, or nil once
// every party has returned successfully.
func (o *Orchestrator) Evaluate(ctx context.Context, comp *ir.Computation, sessionID uint32, parties []PartyClient) error {
	session := NewSession(sessionID)
	o.logf("runtime: session %d (trace %s) started at %s", session.ID, session.TraceID, session.StartedAt)

	raw, err := wire.EncodeComputation(comp)
	if err != nil {
		return err
	}
	framed := wire.CompressComputation(raw)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	errs := make([]error, len(parties))
	wg.Add(len(parties))
	for i, p := range parties {
		i, p := i, p
		go func() {
			defer wg.Done()
			o.logf("runtime: dispatching session %d to %s", sessionID, p.Party())
			errs[i] = p.RunComputation(ctx, RunComputationRequest{
				ComputationBytes: framed,
				Role:             p.Party(),
				SessionID:        sessionID,
			})
			if errs[i] != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = errs[i]
				}
				mu.Unlock()
				cancel()
			}
		}()
	}
	wg.Wait()
	return firstErr
}
