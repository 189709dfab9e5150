package kernel

import (
	"context"
	"fmt"

	"github.com/mooselang/moose/ir"
	"github.com/mooselang/moose/ir/bit"
	"github.com/mooselang/moose/value"
)

// RegisterBit installs kernels for the bit dialect: elementwise boolean
// arithmetic over Bit tensors.
func RegisterBit(r *Registry) {
	r.Register((&bit.BitXor{}).Kind(), bitElementwise(func(a, b uint8) uint8 { return a ^ b }))
	r.Register((&bit.BitAnd{}).Kind(), bitElementwise(func(a, b uint8) uint8 { return a & b }))
	r.Register((&bit.BitNot{}).Kind(), bitNotKernel)
}

func bitElementwise(f func(a, b uint8) uint8) Kernel {
	return func(ctx context.Context, sess *Session, op ir.Op, inputs map[string]any) (any, error) {
		lhs, ok := inputs["lhs"].(value.Bit)
		if !ok {
			return nil, fmt.Errorf("kernel: %s: lhs is not a Bit", op.Name())
		}
		rhs, ok := inputs["rhs"].(value.Bit)
		if !ok {
			return nil, fmt.Errorf("kernel: %s: rhs is not a Bit", op.Name())
		}
		if len(lhs.Data) != len(rhs.Data) {
			return nil, fmt.Errorf("kernel: %s: bit shape mismatch %v vs %v", op.Name(), lhs.Shape, rhs.Shape)
		}
		out := make([]uint8, len(lhs.Data))
		for i := range out {
			out[i] = f(lhs.Data[i], rhs.Data[i]) & 1
		}
		return value.Bit{Shape: lhs.Shape, Data: out}, nil
	}
}

func bitNotKernel(ctx context.Context, sess *Session, op ir.Op, inputs map[string]any) (any, error) {
	in, ok := inputs["value"].(value.Bit)
	if !ok {
		return nil, fmt.Errorf("kernel: %s: bitnot input is not a Bit", op.Name())
	}
	out := make([]uint8, len(in.Data))
	for i, v := range in.Data {
		out[i] = (^v) & 1
	}
	return value.Bit{Shape: in.Shape, Data: out}, nil
}
