package kernel

import (
	"context"
	"fmt"

	"github.com/mooselang/moose/ir"
	"github.com/mooselang/moose/ir/ring"
	"github.com/mooselang/moose/value"
)

// RegisterRing installs kernels for the ring dialect: plain Z/2^64Z
// tensor arithmetic, computed with ordinary Go uint64 wraparound.
func RegisterRing(r *Registry) {
	r.Register((&ring.RingAdd{}).Kind(), ringElementwise(func(a, b uint64) uint64 { return a + b }))
	r.Register((&ring.RingSub{}).Kind(), ringElementwise(func(a, b uint64) uint64 { return a - b }))
	r.Register((&ring.RingMul{}).Kind(), ringElementwise(func(a, b uint64) uint64 { return a * b }))
	r.Register((&ring.RingDot{}).Kind(), ringDotKernel)
	r.Register((&ring.RingSample{}).Kind(), ringSampleKernel)
	r.Register((&ring.RingShl{}).Kind(), ringShiftKernel(func(v uint64, n int) uint64 { return v << uint(n) }))
	r.Register((&ring.RingShr{}).Kind(), ringShiftKernel(func(v uint64, n int) uint64 { return uint64(int64(v) >> uint(n)) }))
	r.Register((&ring.BitExtract{}).Kind(), bitExtractKernel)
	r.Register((&ring.RingInject{}).Kind(), ringInjectKernel)
}

func ringElementwise(f func(a, b uint64) uint64) Kernel {
	return func(ctx context.Context, sess *Session, op ir.Op, inputs map[string]any) (any, error) {
		lhs, ok := inputs["lhs"].(value.Ring)
		if !ok {
			return nil, fmt.Errorf("kernel: %s: lhs is not a Ring", op.Name())
		}
		rhs, ok := inputs["rhs"].(value.Ring)
		if !ok {
			return nil, fmt.Errorf("kernel: %s: rhs is not a Ring", op.Name())
		}
		if len(lhs.Data) != len(rhs.Data) {
			return nil, fmt.Errorf("kernel: %s: ring shape mismatch %v vs %v", op.Name(), lhs.Shape, rhs.Shape)
		}
		out := make([]uint64, len(lhs.Data))
		for i := range out {
			out[i] = f(lhs.Data[i], rhs.Data[i])
		}
		return value.Ring{Shape: lhs.Shape, Data: out}, nil
	}
}

func ringDotKernel(ctx context.Context, sess *Session, op ir.Op, inputs map[string]any) (any, error) {
	lhs, ok := inputs["lhs"].(value.Ring)
	if !ok {
		return nil, fmt.Errorf("kernel: %s: lhs is not a Ring", op.Name())
	}
	rhs, ok := inputs["rhs"].(value.Ring)
	if !ok {
		return nil, fmt.Errorf("kernel: %s: rhs is not a Ring", op.Name())
	}
	var sum uint64
	for i := range lhs.Data {
		sum += lhs.Data[i] * rhs.Data[i]
	}
	return value.Ring{Shape: []int{}, Data: []uint64{sum}}, nil
}

func ringSampleKernel(ctx context.Context, sess *Session, op ir.Op, inputs map[string]any) (any, error) {
	s := op.(*ring.RingSample)
	seed, ok := inputs["seed"].(value.Seed)
	if !ok {
		return nil, fmt.Errorf("kernel: %s: seed input is not a Seed", op.Name())
	}
	n := 1
	for _, d := range s.Shape {
		n *= d
	}
	if n == 0 {
		n = 1
	}
	return value.Ring{Shape: s.Shape, Data: expandSeed(seed, n)}, nil
}

func ringShiftKernel(f func(v uint64, n int) uint64) Kernel {
	return func(ctx context.Context, sess *Session, op ir.Op, inputs map[string]any) (any, error) {
		amount := shiftAmount(op)
		in, ok := inputs["value"].(value.Ring)
		if !ok {
			return nil, fmt.Errorf("kernel: %s: shift input is not a Ring", op.Name())
		}
		out := make([]uint64, len(in.Data))
		for i, v := range in.Data {
			out[i] = f(v, amount)
		}
		return value.Ring{Shape: in.Shape, Data: out}, nil
	}
}

func shiftAmount(op ir.Op) int {
	switch o := op.(type) {
	case *ring.RingShl:
		return o.Amount
	case *ring.RingShr:
		return o.Amount
	}
	return 0
}

func bitExtractKernel(ctx context.Context, sess *Session, op ir.Op, inputs map[string]any) (any, error) {
	b := op.(*ring.BitExtract)
	in, ok := inputs["value"].(value.Ring)
	if !ok {
		return nil, fmt.Errorf("kernel: %s: bit-extract input is not a Ring", op.Name())
	}
	out := make([]uint8, len(in.Data))
	for i, v := range in.Data {
		out[i] = uint8((v >> uint(b.Index)) & 1)
	}
	return value.Bit{Shape: in.Shape, Data: out}, nil
}

func ringInjectKernel(ctx context.Context, sess *Session, op ir.Op, inputs map[string]any) (any, error) {
	r := op.(*ring.RingInject)
	in, ok := inputs["value"].(value.Bit)
	if !ok {
		return nil, fmt.Errorf("kernel: %s: ring-inject input is not a Bit", op.Name())
	}
	out := make([]uint64, len(in.Data))
	for i, v := range in.Data {
		out[i] = uint64(v&1) << uint(r.Shift)
	}
	return value.Ring{Shape: in.Shape, Data: out}, nil
}
