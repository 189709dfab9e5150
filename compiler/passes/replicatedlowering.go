package passes

import (
	"fmt"

	"github.com/mooselang/moose/ir"
	"github.com/mooselang/moose/ir/fixedpoint"
	"github.com/mooselang/moose/ir/primitive"
	"github.com/mooselang/moose/ir/replicated"
	"github.com/mooselang/moose/types"
)

// ReplicatedLoweringPass rewrites fixedpoint-dialect ops running on a
// ReplicatedPlacement into replicated-dialect ops over 2-out-of-3
// shares (spec.md §4.3). Because the prior ReplicatedEncoding pass
// already placed every boundary-crossing Encode/Decode exactly where
// the arithmetic needs it, this pass is a direct per-op rewrite — it
// does not need compiler.SubgraphReplace's boundary-insertion
// machinery, only a Kind-keyed substitution in place:
//
//   - Encode  -> Share   (a plaintext value becomes a replicated secret)
//   - Decode  -> Reveal  (shares are reconstructed, visible to every
//     player of the replicated placement; any further hop to a single
//     host is left to NetworkMaterializationPass)
//   - Add/Sub -> Add/Sub (share-wise, no communication)
//   - Mul     -> Mul, plus a fresh SampleKey/DeriveSeed pair per
//     neighbor link ("seed01", "seed12") feeding the re-sharing step
//   - TruncPr -> TruncPr (share-wise local truncation; spec.md leaves
//     the boundary-case fixup to the kernel, not the IR)
func ReplicatedLoweringPass(c *ir.Computation, ctx *ir.Context) (*ir.Computation, error) {
	out := c.Clone()
	for name, op := range c.Operations {
		if _, ok := c.Placement(op.Placement()).(types.ReplicatedPlacement); !ok {
			continue
		}

		switch o := op.(type) {
		case *fixedpoint.Encode:
			out.ReplaceOperation(name, &replicated.Share{
				Base:   ir.Base{OpName: name, OpPlacement: o.Placement(), OpInputs: o.Inputs()},
				Output: types.ReplicatedRing{},
			})
		case *fixedpoint.Decode:
			out.ReplaceOperation(name, &replicated.Reveal{
				Base:               ir.Base{OpName: name, OpPlacement: o.Placement(), OpInputs: o.Inputs()},
				RecipientPlacement: o.Placement(),
				Precision:          o.Precision,
				Output:             o.Output,
			})
		case *fixedpoint.Add:
			out.ReplaceOperation(name, replicated.NewAdd(ir.Base{OpName: name, OpPlacement: o.Placement(), OpInputs: o.Inputs()}, types.ReplicatedRing{}))
		case *fixedpoint.Sub:
			out.ReplaceOperation(name, replicated.NewSub(ir.Base{OpName: name, OpPlacement: o.Placement(), OpInputs: o.Inputs()}, types.ReplicatedRing{}))
		case *fixedpoint.Mul:
			seed01, err := materializeSeed(out, ctx, name, o.Placement(), "01")
			if err != nil {
				return nil, err
			}
			seed12, err := materializeSeed(out, ctx, name, o.Placement(), "12")
			if err != nil {
				return nil, err
			}
			inputs := append(append([]ir.Slot(nil), o.Inputs()...), ir.Slot{Label: "seed01", Producer: seed01}, ir.Slot{Label: "seed12", Producer: seed12})
			out.ReplaceOperation(name, replicated.NewMul(ir.Base{OpName: name, OpPlacement: o.Placement(), OpInputs: inputs}, types.ReplicatedRing{}))
		case *fixedpoint.Dot:
			seed01, err := materializeSeed(out, ctx, name, o.Placement(), "01")
			if err != nil {
				return nil, err
			}
			seed12, err := materializeSeed(out, ctx, name, o.Placement(), "12")
			if err != nil {
				return nil, err
			}
			inputs := append(append([]ir.Slot(nil), o.Inputs()...), ir.Slot{Label: "seed01", Producer: seed01}, ir.Slot{Label: "seed12", Producer: seed12})
			out.ReplaceOperation(name, replicated.NewMul(ir.Base{OpName: name, OpPlacement: o.Placement(), OpInputs: inputs}, types.ReplicatedRing{}))
		case *fixedpoint.TruncPr:
			out.ReplaceOperation(name, &replicated.TruncPr{
				Base:       ir.Base{OpName: name, OpPlacement: o.Placement(), OpInputs: o.Inputs()},
				AmountBits: o.AmountBits,
				Output:     types.ReplicatedRing{},
			})
		default:
			return nil, fmt.Errorf("replicatedlowering: unexpected op %q of kind %s on replicated placement %s", name, op.Kind(), op.Placement())
		}
	}
	return out, nil
}

// materializeSeed inserts a SampleKey/DeriveSeed chain feeding a Mul's
// re-sharing randomness and returns the seed op's name. label
// distinguishes the two neighbor links a Mul consumes ("01", "12").
func materializeSeed(out *ir.Computation, ctx *ir.Context, mulName, placement, label string) (string, error) {
	key := &primitive.SampleKey{Base: ir.Base{OpPlacement: placement}}
	key.SetName(ctx.FreshName("primitive.SampleKeyOperation"))
	if err := out.AddOperation(key); err != nil {
		return "", err
	}

	seed := &primitive.DeriveSeed{
		Base:  ir.Base{OpPlacement: placement, OpInputs: []ir.Slot{{Label: "key", Producer: key.Name()}}},
		Nonce: []byte(mulName + "/" + label),
	}
	seed.SetName(ctx.FreshName("primitive.DeriveSeedOperation"))
	if err := out.AddOperation(seed); err != nil {
		return "", err
	}
	return seed.Name(), nil
}
