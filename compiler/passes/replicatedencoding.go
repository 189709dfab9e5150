package passes

import (
	"fmt"

	"github.com/mooselang/moose/compiler"
	"github.com/mooselang/moose/ir"
	"github.com/mooselang/moose/ir/fixedpoint"
	"github.com/mooselang/moose/ir/standard"
	"github.com/mooselang/moose/types"
)

// ReplicatedEncodingPass lowers standard-dialect arithmetic running on
// a ReplicatedPlacement into fixedpoint-dialect arithmetic: operands
// crossing onto the replicated placement are lifted with
// fixedpoint.Encode, operands crossing back off it are lowered with
// fixedpoint.Decode, and each op's output precision follows the
// additive/multiplicative rule of spec.md §4.3 / §8 property 4.
//
// defaultPrecision is the fractional bit width used when lifting a
// float-dtype Tensor; an integer-dtype Tensor is always lifted at
// IntegerPrecision regardless of defaultPrecision, matching
// original_source/moose/compiler/replicated/encoding_pass.py. When
// insertTrunc is true, every multiplicative op additionally emits a
// TruncPr bringing its doubled precision back down to the precision of
// its (equal-precision) operands, per the canonical pipeline; the
// deprecated pipeline runs with insertTrunc false and lets precision
// grow unchecked.
func ReplicatedEncodingPass(defaultPrecision int, insertTrunc bool) compiler.Pass {
	return func(c *ir.Computation, ctx *ir.Context) (*ir.Computation, error) {
		sr := &compiler.SubgraphReplace{
			Target:   isReplicatedArithmetic(c),
			Incoming: encodeBoundary(defaultPrecision),
			Outgoing: decodeBoundary,
			Dispatch: map[string]compiler.ProcessFunc{
				(&standard.Add{}).Kind(): additiveDispatch(func(b ir.Base, p int, o types.ValueType) ir.Op { return fixedpoint.NewAdd(b, p, o) }),
				(&standard.Sub{}).Kind(): additiveDispatch(func(b ir.Base, p int, o types.ValueType) ir.Op { return fixedpoint.NewSub(b, p, o) }),
				(&standard.Mul{}).Kind(): multiplicativeDispatch(insertTrunc, func(b ir.Base, p int, o types.ValueType) ir.Op { return fixedpoint.NewMul(b, p, o) }),
				(&standard.Dot{}).Kind(): multiplicativeDispatch(insertTrunc, func(b ir.Base, p int, o types.ValueType) ir.Op { return fixedpoint.NewDot(b, p, o) }),
			},
		}
		return sr.Run(c, ctx)
	}
}

// isReplicatedArithmetic reports whether op is standard.Add/Sub/Mul/Dot
// bound to a ReplicatedPlacement in c — the only ops this pass targets
// (spec.md §4.3: arithmetic on a Host placement is left untouched).
func isReplicatedArithmetic(c *ir.Computation) compiler.TargetFunc {
	return func(op ir.Op) bool {
		switch op.(type) {
		case *standard.Add, *standard.Sub, *standard.Mul, *standard.Dot:
		default:
			return false
		}
		_, ok := c.Placement(op.Placement()).(types.ReplicatedPlacement)
		return ok
	}
}

// precisionOf returns the fixed-point precision a fixedpoint op's
// output type carries, or -1 if outType is not an EncodedTensor.
func precisionOf(outType types.ValueType) int {
	enc, ok := outType.(types.EncodedTensor)
	if !ok {
		return -1
	}
	return enc.Precision
}

func encodeBoundary(defaultPrecision int) compiler.BoundaryFunc {
	return func(producer ir.Op, destination string, out *ir.Computation, ctx *ir.Context) (ir.Op, error) {
		tensor, ok := producer.OutputType().(types.Tensor)
		if !ok {
			return nil, fmt.Errorf("replicatedencoding: boundary-in producer %q has non-Tensor output type %s", producer.Name(), producer.OutputType())
		}
		precision := defaultPrecision
		if tensor.DType.IsInteger() || tensor.DType.IsFixed() {
			precision = IntegerPrecision
		}
		output := types.EncodedTensor{DType: tensor.DType, Precision: precision}
		return &fixedpoint.Encode{
			Base:      ir.Base{OpPlacement: destination},
			Precision: precision,
			Output:    output,
		}, nil
	}
}

// decodeBoundary emits a Decode landing on the producer's own
// placement (the replicated side): dividing out the fixed-point scale
// is a local, share-wise operation requiring no communication, so it
// happens before the value ever crosses to destination. The actual
// cross-placement hop is materialized later by NetworkMaterializationPass
// (spec.md §8 scenario S1).
func decodeBoundary(producer ir.Op, destination string, out *ir.Computation, ctx *ir.Context) (ir.Op, error) {
	enc, ok := producer.OutputType().(types.EncodedTensor)
	if !ok {
		return nil, fmt.Errorf("replicatedencoding: boundary-out producer %q has non-EncodedTensor output type %s", producer.Name(), producer.OutputType())
	}
	return &fixedpoint.Decode{
		Base:      ir.Base{OpPlacement: producer.Placement()},
		Precision: enc.Precision,
		Output:    types.Tensor{DType: enc.DType},
	}, nil
}

// additiveDispatch builds a ProcessFunc for Add/Sub: both operands must
// share (dtype, precision), and the output carries that same precision
// unchanged (spec.md §4.3).
func additiveDispatch(build func(ir.Base, int, types.ValueType) ir.Op) compiler.ProcessFunc {
	return func(op ir.Op, inputs map[string]string, out *ir.Computation, ctx *ir.Context) (ir.Op, error) {
		lhsProducer, ok := inputs["lhs"]
		if !ok {
			return nil, &ir.MissingInput{Op: op.Name(), Slot: "lhs"}
		}
		rhsProducer, ok := inputs["rhs"]
		if !ok {
			return nil, &ir.MissingInput{Op: op.Name(), Slot: "rhs"}
		}
		lhs := out.Operation(lhsProducer)
		rhs := out.Operation(rhsProducer)
		lp, rp := precisionOf(lhs.OutputType()), precisionOf(rhs.OutputType())
		if lp < 0 || rp < 0 {
			return nil, fmt.Errorf("replicatedencoding: %s: operands are not fixed-point encoded", op.Name())
		}
		enc := lhs.OutputType().(types.EncodedTensor)
		renc := rhs.OutputType().(types.EncodedTensor)
		if !enc.DType.Equal(renc.DType) {
			return nil, &ir.TypeMismatch{Op: op.Name(), Slot: "rhs", Expected: enc.DType.String(), Actual: renc.DType.String()}
		}
		if lp != rp {
			return nil, fmt.Errorf("replicatedencoding: %s: additive op requires matching precisions, got %d and %d", op.Name(), lp, rp)
		}
		base := ir.Base{
			OpPlacement: op.Placement(),
			OpInputs:    []ir.Slot{{Label: "lhs", Producer: lhsProducer}, {Label: "rhs", Producer: rhsProducer}},
		}
		return build(base, lp, enc), nil
	}
}

// multiplicativeDispatch builds a ProcessFunc for Mul/Dot: output
// precision is the sum of the operand precisions. When insertTrunc is
// set, the ProcessFunc itself adds the "raw" product to out under a
// fresh name and returns a TruncPr consuming it, so the op
// SubgraphReplace finally adds under op.Name() is the truncated result
// (spec.md §8 property 4).
func multiplicativeDispatch(insertTrunc bool, build func(ir.Base, int, types.ValueType) ir.Op) compiler.ProcessFunc {
	return func(op ir.Op, inputs map[string]string, out *ir.Computation, ctx *ir.Context) (ir.Op, error) {
		lhs := out.Operation(inputs["lhs"])
		rhs := out.Operation(inputs["rhs"])
		lp, rp := precisionOf(lhs.OutputType()), precisionOf(rhs.OutputType())
		if lp < 0 || rp < 0 {
			return nil, fmt.Errorf("replicatedencoding: %s: operands are not fixed-point encoded", op.Name())
		}
		lenc := lhs.OutputType().(types.EncodedTensor)
		renc := rhs.OutputType().(types.EncodedTensor)
		if !lenc.DType.Equal(renc.DType) {
			return nil, &ir.TypeMismatch{Op: op.Name(), Slot: "rhs", Expected: lenc.DType.String(), Actual: renc.DType.String()}
		}
		sumPrecision := lp + rp
		rawOutput := types.EncodedTensor{DType: lenc.DType, Precision: sumPrecision}
		base := ir.Base{
			OpPlacement: op.Placement(),
			OpInputs:    []ir.Slot{{Label: "lhs", Producer: inputs["lhs"]}, {Label: "rhs", Producer: inputs["rhs"]}},
		}
		raw := build(base, sumPrecision, rawOutput)

		if !insertTrunc {
			return raw, nil
		}

		if lp != rp {
			return nil, fmt.Errorf("replicatedencoding: %s: truncating multiplicative op requires equal input precisions, got %d and %d", op.Name(), lp, rp)
		}
		raw.SetName(ctx.FreshName(raw.Kind()))
		if err := out.AddOperation(raw); err != nil {
			return nil, err
		}
		truncOutput := types.EncodedTensor{DType: lenc.DType, Precision: lp}
		trunc := &fixedpoint.TruncPr{
			Base:       ir.Base{OpPlacement: op.Placement(), OpInputs: []ir.Slot{{Label: "value", Producer: raw.Name()}}},
			AmountBits: rp,
			Output:     truncOutput,
		}
		return trunc, nil
	}
}
