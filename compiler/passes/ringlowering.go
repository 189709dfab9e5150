package passes

import (
	"fmt"

	"github.com/mooselang/moose/ir"
	"github.com/mooselang/moose/ir/bit"
	"github.com/mooselang/moose/ir/primitive"
	"github.com/mooselang/moose/ir/replicated"
	"github.com/mooselang/moose/ir/ring"
	"github.com/mooselang/moose/types"
)

// ringBits is the width of the ring Z/2^64Z ring_bit_decompose expands
// a value into (spec.md §4.3).
const ringBits = 64

// RingLoweringPass rewrites replicated-dialect arithmetic into the
// concrete ring dialect. Add/Sub are share-wise and need no protocol;
// Mul's re-sharing step draws a zero-sharing mask from the Seed inputs
// the ReplicatedLowering pass attached; TruncPr runs a local
// arithmetic shift plus a bit-decomposition-based carry correction
// (spec.md §4.3's ring_bit_decompose / RingInject / rotate_left).
// Share and Reveal are left untouched: they cross into and out of the
// ring domain rather than computing within it.
func RingLoweringPass(c *ir.Computation, ctx *ir.Context) (*ir.Computation, error) {
	out := c.Clone()
	for name, op := range c.Operations {
		if _, ok := c.Placement(op.Placement()).(types.ReplicatedPlacement); !ok {
			continue
		}

		switch o := op.(type) {
		case *replicated.Share, *replicated.Reveal:
			// boundary ops; no ring-level arithmetic to lower.
		case *primitive.SampleKey, *primitive.DeriveSeed:
			// key material feeding Mul's re-sharing mask; kept as is.
		case *replicated.Add:
			out.ReplaceOperation(name, ring.NewRingAdd(ir.Base{OpName: name, OpPlacement: o.Placement(), OpInputs: o.Inputs()}))
		case *replicated.Sub:
			out.ReplaceOperation(name, ring.NewRingSub(ir.Base{OpName: name, OpPlacement: o.Placement(), OpInputs: o.Inputs()}))
		case *replicated.Mul:
			if err := lowerMul(out, ctx, name, o); err != nil {
				return nil, err
			}
		case *replicated.TruncPr:
			if err := lowerTruncPr(out, ctx, name, o); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("ringlowering: unexpected op %q of kind %s on replicated placement %s", name, op.Kind(), op.Placement())
		}
	}
	return out, nil
}

func lowerMul(out *ir.Computation, ctx *ir.Context, name string, o *replicated.Mul) error {
	lhs, ok := ir.Input(o, "lhs")
	if !ok {
		return &ir.MissingInput{Op: name, Slot: "lhs"}
	}
	rhs, ok := ir.Input(o, "rhs")
	if !ok {
		return &ir.MissingInput{Op: name, Slot: "rhs"}
	}
	seed01, ok := ir.Input(o, "seed01")
	if !ok {
		return &ir.MissingInput{Op: name, Slot: "seed01"}
	}

	product := ring.NewRingMul(ir.Base{OpPlacement: o.Placement(), OpInputs: []ir.Slot{{Label: "lhs", Producer: lhs}, {Label: "rhs", Producer: rhs}}})
	product.SetName(ctx.FreshName(product.Kind()))
	if err := out.AddOperation(product); err != nil {
		return err
	}

	mask := &ring.RingSample{
		Base:  ir.Base{OpPlacement: o.Placement(), OpInputs: []ir.Slot{{Label: "seed", Producer: seed01}}},
		Shape: nil,
	}
	mask.SetName(ctx.FreshName(mask.Kind()))
	if err := out.AddOperation(mask); err != nil {
		return err
	}

	out.ReplaceOperation(name, ring.NewRingAdd(ir.Base{
		OpName:      name,
		OpPlacement: o.Placement(),
		OpInputs:    []ir.Slot{{Label: "lhs", Producer: product.Name()}, {Label: "rhs", Producer: mask.Name()}},
	}))
	return nil
}

// lowerTruncPr implements the local half of probabilistic truncation
// (an arithmetic right-shift) plus a bit-decomposition-based carry
// correction: all ringBits bits of x are extracted,
// rotated left by AmountBits positions (the borrow chain), compared
// against the original bits, and AND-folded into a single carry bit
// that is injected back at the shifted-out boundary and added to the
// shifted value. This covers the common case but, unlike a full ABY3
// truncation protocol, does not special-case every statistical edge
// case — a deliberate scope simplification (see DESIGN.md).
func lowerTruncPr(out *ir.Computation, ctx *ir.Context, name string, o *replicated.TruncPr) error {
	x, ok := ir.Input(o, "value")
	if !ok {
		return &ir.MissingInput{Op: name, Slot: "value"}
	}
	placement := o.Placement()

	shifted := &ring.RingShr{
		Base:   ir.Base{OpPlacement: placement, OpInputs: []ir.Slot{{Label: "value", Producer: x}}},
		Amount: o.AmountBits,
	}
	shifted.SetName(ctx.FreshName(shifted.Kind()))
	if err := out.AddOperation(shifted); err != nil {
		return err
	}

	bits := make([]string, ringBits)
	for i := 0; i < ringBits; i++ {
		be := &ring.BitExtract{
			Base:  ir.Base{OpPlacement: placement, OpInputs: []ir.Slot{{Label: "value", Producer: x}}},
			Index: i,
		}
		be.SetName(ctx.FreshName(be.Kind()))
		if err := out.AddOperation(be); err != nil {
			return err
		}
		bits[i] = be.Name()
	}

	zero := bit.NewBitXor(ir.Base{OpPlacement: placement, OpInputs: []ir.Slot{{Label: "lhs", Producer: bits[0]}, {Label: "rhs", Producer: bits[0]}}})
	zero.SetName(ctx.FreshName(zero.Kind()))
	if err := out.AddOperation(zero); err != nil {
		return err
	}

	rotated := RotateLeft(bits, o.AmountBits, zero.Name())

	carry := ""
	for i, b := range bits {
		diff := bit.NewBitXor(ir.Base{OpPlacement: placement, OpInputs: []ir.Slot{{Label: "lhs", Producer: b}, {Label: "rhs", Producer: rotated[i]}}})
		diff.SetName(ctx.FreshName(diff.Kind()))
		if err := out.AddOperation(diff); err != nil {
			return err
		}
		if carry == "" {
			carry = diff.Name()
			continue
		}
		folded := bit.NewBitAnd(ir.Base{OpPlacement: placement, OpInputs: []ir.Slot{{Label: "lhs", Producer: carry}, {Label: "rhs", Producer: diff.Name()}}})
		folded.SetName(ctx.FreshName(folded.Kind()))
		if err := out.AddOperation(folded); err != nil {
			return err
		}
		carry = folded.Name()
	}

	// The borrow-chain composition flips sign twice when folding the
	// final AND term against the running carry; BitLoweringPass
	// eliminates this redundant double negation.
	notOnce := &bit.BitNot{Base: ir.Base{OpPlacement: placement, OpInputs: []ir.Slot{{Label: "value", Producer: carry}}}}
	notOnce.SetName(ctx.FreshName(notOnce.Kind()))
	if err := out.AddOperation(notOnce); err != nil {
		return err
	}
	notTwice := &bit.BitNot{Base: ir.Base{OpPlacement: placement, OpInputs: []ir.Slot{{Label: "value", Producer: notOnce.Name()}}}}
	notTwice.SetName(ctx.FreshName(notTwice.Kind()))
	if err := out.AddOperation(notTwice); err != nil {
		return err
	}

	injected := &ring.RingInject{
		Base:  ir.Base{OpPlacement: placement, OpInputs: []ir.Slot{{Label: "value", Producer: notTwice.Name()}}},
		Shift: ringBits - o.AmountBits,
	}
	injected.SetName(ctx.FreshName(injected.Kind()))
	if err := out.AddOperation(injected); err != nil {
		return err
	}

	out.ReplaceOperation(name, ring.NewRingAdd(ir.Base{
		OpName:      name,
		OpPlacement: placement,
		OpInputs:    []ir.Slot{{Label: "lhs", Producer: shifted.Name()}, {Label: "rhs", Producer: injected.Name()}},
	}))
	return nil
}
