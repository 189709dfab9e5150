package kernel

import (
	"context"
	"fmt"
	"math"

	"github.com/mooselang/moose/ir"
	"github.com/mooselang/moose/ir/standard"
	"github.com/mooselang/moose/types"
	"github.com/mooselang/moose/value"
)

// RegisterStandard installs kernels for the plaintext standard
// dialect, which a fully lowered computation still runs on Host or
// Mirrored placements alongside the host-dialect ops and fixedpoint
// Encode/Decode (spec.md §4.3).
func RegisterStandard(r *Registry) {
	r.Register((&standard.Constant{}).Kind(), constantKernel)
	r.Register((&standard.Add{}).Kind(), elementwise(func(a, b float64) float64 { return a + b }))
	r.Register((&standard.Sub{}).Kind(), elementwise(func(a, b float64) float64 { return a - b }))
	r.Register((&standard.Mul{}).Kind(), elementwise(func(a, b float64) float64 { return a * b }))
	r.Register((&standard.Dot{}).Kind(), dotKernel)
	r.Register((&standard.Cast{}).Kind(), castKernel)
	r.Register((&standard.Output{}).Kind(), identityKernel("value"))
}

func constantKernel(ctx context.Context, sess *Session, op ir.Op, inputs map[string]any) (any, error) {
	c := op.(*standard.Constant)
	tensor, ok := c.Output.(types.Tensor)
	if !ok {
		return nil, fmt.Errorf("kernel: standard.Constant %q has non-Tensor output type %s", op.Name(), c.Output)
	}
	switch v := c.Value.(type) {
	case []float64:
		return value.Tensor{Shape: []int{len(v)}, Data: append([]float64(nil), v...)}, nil
	case float64:
		return value.Tensor{Shape: []int{}, Data: []float64{v}}, nil
	case int64:
		return value.Tensor{Shape: []int{}, Data: []float64{float64(v)}}, nil
	default:
		return nil, fmt.Errorf("kernel: standard.Constant %q has unsupported literal type %T for %s", op.Name(), c.Value, tensor)
	}
}

func elementwise(f func(a, b float64) float64) Kernel {
	return func(ctx context.Context, sess *Session, op ir.Op, inputs map[string]any) (any, error) {
		lhs, ok := inputs["lhs"].(value.Tensor)
		if !ok {
			return nil, fmt.Errorf("kernel: %s: lhs is not a Tensor (%T)", op.Name(), inputs["lhs"])
		}
		rhs, ok := inputs["rhs"].(value.Tensor)
		if !ok {
			return nil, fmt.Errorf("kernel: %s: rhs is not a Tensor (%T)", op.Name(), inputs["rhs"])
		}
		return broadcastBinary(lhs, rhs, f)
	}
}

// broadcastBinary applies f elementwise, broadcasting a scalar operand
// (an empty or single-element shape) against the other.
func broadcastBinary(lhs, rhs value.Tensor, f func(a, b float64) float64) (value.Tensor, error) {
	switch {
	case len(lhs.Data) == len(rhs.Data):
		out := make([]float64, len(lhs.Data))
		for i := range out {
			out[i] = f(lhs.Data[i], rhs.Data[i])
		}
		return value.Tensor{Shape: lhs.Shape, Data: out}, nil
	case len(lhs.Data) == 1:
		out := make([]float64, len(rhs.Data))
		for i := range out {
			out[i] = f(lhs.Data[0], rhs.Data[i])
		}
		return value.Tensor{Shape: rhs.Shape, Data: out}, nil
	case len(rhs.Data) == 1:
		out := make([]float64, len(lhs.Data))
		for i := range out {
			out[i] = f(lhs.Data[i], rhs.Data[0])
		}
		return value.Tensor{Shape: lhs.Shape, Data: out}, nil
	default:
		return value.Tensor{}, fmt.Errorf("kernel: shape mismatch %v vs %v", lhs.Shape, rhs.Shape)
	}
}

func dotKernel(ctx context.Context, sess *Session, op ir.Op, inputs map[string]any) (any, error) {
	lhs, ok := inputs["lhs"].(value.Tensor)
	if !ok {
		return nil, fmt.Errorf("kernel: %s: lhs is not a Tensor", op.Name())
	}
	rhs, ok := inputs["rhs"].(value.Tensor)
	if !ok {
		return nil, fmt.Errorf("kernel: %s: rhs is not a Tensor", op.Name())
	}
	if len(lhs.Data) != len(rhs.Data) {
		return nil, fmt.Errorf("kernel: %s: dot requires equal-length operands, got %d and %d", op.Name(), len(lhs.Data), len(rhs.Data))
	}
	var sum float64
	for i := range lhs.Data {
		sum += lhs.Data[i] * rhs.Data[i]
	}
	return value.Tensor{Shape: []int{}, Data: []float64{sum}}, nil
}

func castKernel(ctx context.Context, sess *Session, op ir.Op, inputs map[string]any) (any, error) {
	c := op.(*standard.Cast)
	in, ok := inputs["value"].(value.Tensor)
	if !ok {
		return nil, fmt.Errorf("kernel: %s: cast input is not a Tensor", op.Name())
	}
	out, ok := c.Output.(types.Tensor)
	if !ok {
		return nil, fmt.Errorf("kernel: %s: cast between non-Tensor types belongs to the fixedpoint dialect, not this kernel", op.Name())
	}
	data := append([]float64(nil), in.Data...)
	if out.DType.IsInteger() || out.DType.IsFixed() {
		for i, v := range data {
			data[i] = math.Round(v)
		}
	}
	return value.Tensor{Shape: in.Shape, Data: data}, nil
}

func identityKernel(slot string) Kernel {
	return func(ctx context.Context, sess *Session, op ir.Op, inputs map[string]any) (any, error) {
		v, ok := inputs[slot]
		if !ok {
			return nil, &ir.MissingInput{Op: op.Name(), Slot: slot}
		}
		return v, nil
	}
}
