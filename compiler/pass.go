// Package compiler runs the ordered lowering pipeline over an
// ir.Computation: a fixed list of passes, each seeing the graph the
// previous one produced (spec.md §4.2). It is grounded on the
// teacher's plan/pir/optimize.go, which applies a fixed ordered
// sequence of named rewrites (simplify, aggelim, aggfilter, ...) to a
// query plan tree rather than looping rewrites to a fixpoint.
package compiler

import "github.com/mooselang/moose/ir"

// Pass rewrites a computation, either in place or by returning a
// revised copy; it must not mutate its input in a way visible to the
// caller if it returns a different *ir.Computation.
type Pass func(c *ir.Computation, ctx *ir.Context) (*ir.Computation, error)

// Compiler runs an ordered list of passes. Every pass boundary is
// validated (spec.md §3: invariants are checked at pass boundaries,
// never mid-pass); a failing pass aborts the pipeline with no partial
// lowering emitted (spec.md §7).
type Compiler struct {
	Passes []Pass
}

// New returns a Compiler running passes in the given order.
func New(passes ...Pass) *Compiler {
	return &Compiler{Passes: passes}
}

// Run executes every pass in order against a single ir.Context shared
// across the whole pipeline, as spec.md §4.1 requires for fresh_name
// monotonicity.
func (co *Compiler) Run(c *ir.Computation) (*ir.Computation, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	ctx := ir.NewContext()
	cur := c
	for _, p := range co.Passes {
		next, err := p(cur, ctx)
		if err != nil {
			return nil, err
		}
		if err := next.Validate(); err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}
