package passes

import (
	"fmt"

	"github.com/mooselang/moose/ir"
	"github.com/mooselang/moose/ir/fixedpoint"
	"github.com/mooselang/moose/ir/standard"
	"github.com/mooselang/moose/types"
)

// HostEncodingPass rewrites explicit standard.Cast operations on Host
// placements between a float/integer dtype and a fixed(i,f) dtype
// into fixedpoint.Encode or fixedpoint.Decode. A Cast between two
// fixed-point encodings with identical parameters is a no-op and is
// elided; any other combination is an error (spec.md §4.3).
func HostEncodingPass(c *ir.Computation, ctx *ir.Context) (*ir.Computation, error) {
	out := c.Clone()
	for name, op := range c.Operations {
		cast, ok := op.(*standard.Cast)
		if !ok {
			continue
		}
		if _, ok := c.Placement(op.Placement()).(types.HostPlacement); !ok {
			continue
		}
		producerName, _ := ir.Input(op, "value")
		producer := c.Operation(producerName)
		if producer == nil {
			return nil, &ir.MissingInput{Op: name, Slot: "value"}
		}

		newOp, elide, err := rewriteCast(name, op.Placement(), producerName, producer.OutputType(), cast.Output)
		if err != nil {
			return nil, err
		}
		if elide {
			rewireConsumersTo(out, c.Consumers(name), name, producerName)
			out.RemoveOperation(name)
			continue
		}
		out.ReplaceOperation(name, newOp)
	}
	return out, nil
}

// rewriteCast decides what, if anything, replaces a single Cast. elide
// is true when the cast was a no-op fixed-to-identical-fixed cast.
func rewriteCast(name, placement, producerName string, inType, outType types.ValueType) (newOp ir.Op, elide bool, err error) {
	base := ir.Base{OpName: name, OpPlacement: placement, OpInputs: []ir.Slot{{Label: "value", Producer: producerName}}}

	inTensor, inIsTensor := inType.(types.Tensor)
	outEnc, outIsEnc := outType.(types.EncodedTensor)
	if inIsTensor && outIsEnc {
		return &fixedpoint.Encode{Base: base, Precision: outEnc.Precision, Output: outEnc}, false, nil
	}

	inEnc, inIsEnc := inType.(types.EncodedTensor)
	outTensor, outIsTensor := outType.(types.Tensor)
	if inIsEnc && outIsTensor {
		return &fixedpoint.Decode{Base: base, Precision: inEnc.Precision, Output: outTensor}, false, nil
	}

	if inIsEnc && outIsEnc {
		if inEnc.DType.Equal(outEnc.DType) && inEnc.Precision == outEnc.Precision {
			return nil, true, nil
		}
		return nil, false, fmt.Errorf("hostencoding: cast %q between differing fixed-point encodings %s and %s is not allowed", name, inEnc, outEnc)
	}

	return nil, false, fmt.Errorf("hostencoding: cast %q has unsupported type combination %s -> %s", name, inType, outType)
}

func rewireConsumersTo(out *ir.Computation, consumers []string, oldProducer, newProducer string) {
	for _, consumerName := range consumers {
		consumer := out.Operation(consumerName)
		if consumer == nil {
			continue
		}
		slots := consumer.Inputs()
		newSlots := make([]ir.Slot, len(slots))
		for i, s := range slots {
			if s.Producer == oldProducer {
				newSlots[i] = ir.Slot{Label: s.Label, Producer: newProducer}
			} else {
				newSlots[i] = s
			}
		}
		consumer.SetInputs(newSlots)
	}
}
