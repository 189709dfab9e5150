package kernel

import (
	"context"
	"fmt"
	"math"

	"github.com/mooselang/moose/ir"
	"github.com/mooselang/moose/ir/fixedpoint"
	"github.com/mooselang/moose/value"
)

// RegisterFixedpoint installs kernels for the fixed-point dialect.
// After the full pipeline has run, Add/Sub/Mul/Dot/TruncPr only ever
// appear transiently on a replicated placement, where
// ReplicatedLoweringPass/RingLoweringPass immediately rewrite them away
// — but Encode/Decode on a Host placement (emitted by HostEncodingPass
// for a float<->fixed Cast) survive into the executed graph, so this
// dialect still needs a live registry entry (spec.md §4.3).
func RegisterFixedpoint(r *Registry) {
	r.Register((&fixedpoint.Encode{}).Kind(), encodeKernel)
	r.Register((&fixedpoint.Decode{}).Kind(), decodeKernel)
	r.Register((&fixedpoint.Add{}).Kind(), fixedElementwise(func(a, b float64) float64 { return a + b }))
	r.Register((&fixedpoint.Sub{}).Kind(), fixedElementwise(func(a, b float64) float64 { return a - b }))
	r.Register((&fixedpoint.Mul{}).Kind(), fixedElementwise(func(a, b float64) float64 { return a * b }))
	r.Register((&fixedpoint.Dot{}).Kind(), fixedDotKernel)
	r.Register((&fixedpoint.TruncPr{}).Kind(), truncPrKernel)
}

func scaleOf(precision int) float64 { return math.Pow(2, float64(precision)) }

func encodeKernel(ctx context.Context, sess *Session, op ir.Op, inputs map[string]any) (any, error) {
	e := op.(*fixedpoint.Encode)
	in, ok := inputs["value"].(value.Tensor)
	if !ok {
		return nil, fmt.Errorf("kernel: %s: encode input is not a Tensor", op.Name())
	}
	scale := scaleOf(e.Precision)
	data := make([]float64, len(in.Data))
	for i, v := range in.Data {
		data[i] = math.Round(v * scale)
	}
	return value.Tensor{Shape: in.Shape, Data: data}, nil
}

func decodeKernel(ctx context.Context, sess *Session, op ir.Op, inputs map[string]any) (any, error) {
	d := op.(*fixedpoint.Decode)
	in, ok := inputs["value"].(value.Tensor)
	if !ok {
		return nil, fmt.Errorf("kernel: %s: decode input is not a Tensor", op.Name())
	}
	scale := scaleOf(d.Precision)
	data := make([]float64, len(in.Data))
	for i, v := range in.Data {
		data[i] = v / scale
	}
	return value.Tensor{Shape: in.Shape, Data: data}, nil
}

func fixedElementwise(f func(a, b float64) float64) Kernel {
	return func(ctx context.Context, sess *Session, op ir.Op, inputs map[string]any) (any, error) {
		lhs, ok := inputs["lhs"].(value.Tensor)
		if !ok {
			return nil, fmt.Errorf("kernel: %s: lhs is not a Tensor", op.Name())
		}
		rhs, ok := inputs["rhs"].(value.Tensor)
		if !ok {
			return nil, fmt.Errorf("kernel: %s: rhs is not a Tensor", op.Name())
		}
		return broadcastBinary(lhs, rhs, f)
	}
}

func fixedDotKernel(ctx context.Context, sess *Session, op ir.Op, inputs map[string]any) (any, error) {
	lhs, ok := inputs["lhs"].(value.Tensor)
	if !ok {
		return nil, fmt.Errorf("kernel: %s: lhs is not a Tensor", op.Name())
	}
	rhs, ok := inputs["rhs"].(value.Tensor)
	if !ok {
		return nil, fmt.Errorf("kernel: %s: rhs is not a Tensor", op.Name())
	}
	if len(lhs.Data) != len(rhs.Data) {
		return nil, fmt.Errorf("kernel: %s: dot requires equal-length operands", op.Name())
	}
	var sum float64
	for i := range lhs.Data {
		sum += lhs.Data[i] * rhs.Data[i]
	}
	return value.Tensor{Shape: []int{}, Data: []float64{sum}}, nil
}

func truncPrKernel(ctx context.Context, sess *Session, op ir.Op, inputs map[string]any) (any, error) {
	t := op.(*fixedpoint.TruncPr)
	in, ok := inputs["value"].(value.Tensor)
	if !ok {
		return nil, fmt.Errorf("kernel: %s: truncpr input is not a Tensor", op.Name())
	}
	scale := scaleOf(t.AmountBits)
	data := make([]float64, len(in.Data))
	for i, v := range in.Data {
		data[i] = math.Round(v / scale)
	}
	return value.Tensor{Shape: in.Shape, Data: data}, nil
}
