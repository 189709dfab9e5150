package compiler

import "github.com/mooselang/moose/ir"

// TargetFunc reports whether op belongs to the set a SubgraphReplace
// pass rewrites — typically "all ops of dialect D on placement P."
type TargetFunc func(op ir.Op) bool

// ProcessFunc implements one op variant's rewrite (the dispatch
// table's "process_<Variant>" in spec.md §4.2). inputs maps each of
// op's slot labels to the name, in out, of its already-resolved
// producer. ProcessFunc may register extra helper operations into out
// itself (e.g. a Mul rewrite adding SampleKey/DeriveSeed nodes); it
// must not add the op it returns — SubgraphReplace names and adds it.
type ProcessFunc func(op ir.Op, inputs map[string]string, out *ir.Computation, ctx *ir.Context) (ir.Op, error)

// BoundaryFunc builds a single conversion op for a boundary-in or
// boundary-out edge (spec.md §4.2 steps 2 and 4): producer is the
// already-resolved op on the source side of the edge (in out's
// namespace), and destination is the placement name of the op on the
// other side. It must not set a name or add the op to a computation —
// SubgraphReplace fresh-names and adds it, then caches the result.
type BoundaryFunc func(producer ir.Op, destination string, out *ir.Computation, ctx *ir.Context) (ir.Op, error)

// SubgraphReplace is the workhorse pass described in spec.md §4.2:
// given a target predicate and a per-variant dispatch table, it
// rewrites every target operation, inserting boundary-in/boundary-out
// conversions at the edges between the target set and the rest of the
// graph, memoized so that N uses of the same boundary-crossing value
// produce exactly one conversion node.
//
// Grounded on plan/decode.go's empty(name string) Op dispatch table
// (Kind()-keyed construction) generalized from decoding to rewriting.
type SubgraphReplace struct {
	Target   TargetFunc
	Dispatch map[string]ProcessFunc
	Incoming BoundaryFunc
	Outgoing BoundaryFunc
}

type incomingKey struct {
	source      string
	destination string
}

// Run applies the rewrite to in, returning a new computation. Target
// operations keep their original name (spec.md §3: "names are unique
// and stable across passes"); only newly inserted boundary and helper
// operations are given fresh names via ctx.
func (sr *SubgraphReplace) Run(in *ir.Computation, ctx *ir.Context) (*ir.Computation, error) {
	order, err := in.TopologicalSort()
	if err != nil {
		return nil, err
	}

	out := ir.New()
	for name, p := range in.Placements {
		if err := out.AddPlacement(p); err != nil {
			return nil, err
		}
		_ = name
	}

	incoming := make(map[incomingKey]string)
	outgoing := make(map[incomingKey]string)

	for _, name := range order {
		op := in.Operation(name)
		if !sr.Target(op) {
			if err := sr.copyNonTarget(in, out, op, outgoing, ctx); err != nil {
				return nil, err
			}
			continue
		}
		if err := sr.rewriteTarget(in, out, op, incoming, ctx); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (sr *SubgraphReplace) copyNonTarget(in, out *ir.Computation, op ir.Op, outgoing map[incomingKey]string, ctx *ir.Context) error {
	clone := op.Clone()
	newSlots := make([]ir.Slot, len(op.Inputs()))
	for i, slot := range op.Inputs() {
		producer := in.Operation(slot.Producer)
		if !sr.Target(producer) {
			newSlots[i] = slot
			continue
		}
		key := incomingKey{source: slot.Producer}
		boundaryName, ok := outgoing[key]
		if !ok {
			rewritten := out.Operation(slot.Producer)
			boundary, err := sr.Outgoing(rewritten, op.Placement(), out, ctx)
			if err != nil {
				return err
			}
			boundary.SetName(ctx.FreshName(boundary.Kind()))
			boundary.SetInputs([]ir.Slot{{Label: "value", Producer: slot.Producer}})
			if err := out.AddOperation(boundary); err != nil {
				return err
			}
			boundaryName = boundary.Name()
			outgoing[key] = boundaryName
		}
		newSlots[i] = ir.Slot{Label: slot.Label, Producer: boundaryName}
	}
	clone.SetInputs(newSlots)
	return out.AddOperation(clone)
}

func (sr *SubgraphReplace) rewriteTarget(in, out *ir.Computation, op ir.Op, incoming map[incomingKey]string, ctx *ir.Context) error {
	inputs := make(map[string]string, len(op.Inputs()))
	for _, slot := range op.Inputs() {
		producer := in.Operation(slot.Producer)
		if sr.Target(producer) {
			inputs[slot.Label] = slot.Producer
			continue
		}
		key := incomingKey{source: slot.Producer, destination: op.Placement()}
		boundaryName, ok := incoming[key]
		if !ok {
			boundary, err := sr.Incoming(out.Operation(slot.Producer), op.Placement(), out, ctx)
			// boundary is a fresh conversion op landing at op.Placement(),
			// consuming slot.Producer's value from the non-target side.
			if err != nil {
				return err
			}
			boundary.SetName(ctx.FreshName(boundary.Kind()))
			boundary.SetInputs([]ir.Slot{{Label: "value", Producer: slot.Producer}})
			if err := out.AddOperation(boundary); err != nil {
				return err
			}
			boundaryName = boundary.Name()
			incoming[key] = boundaryName
		}
		inputs[slot.Label] = boundaryName
	}

	dispatch, ok := sr.Dispatch[op.Kind()]
	if !ok {
		return &ir.UnknownOperationType{TypeName: op.Kind()}
	}
	newOp, err := dispatch(op, inputs, out, ctx)
	if err != nil {
		return err
	}
	newOp.SetName(op.Name())
	return out.AddOperation(newOp)
}
