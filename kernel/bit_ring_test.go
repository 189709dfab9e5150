package kernel

import (
	"context"
	"testing"

	"github.com/mooselang/moose/ir"
	"github.com/mooselang/moose/ir/bit"
	"github.com/mooselang/moose/ir/fixedpoint"
	"github.com/mooselang/moose/ir/ring"
	"github.com/mooselang/moose/types"
	"github.com/mooselang/moose/value"
)

func TestBitXorAndNot(t *testing.T) {
	r := DefaultRegistry()
	xorK, _ := r.Lookup((&bit.BitXor{}).Kind())
	andK, _ := r.Lookup((&bit.BitAnd{}).Kind())
	notK, _ := r.Lookup((&bit.BitNot{}).Kind())
	sess := testSession()

	lhs := value.Bit{Shape: []int{4}, Data: []uint8{0, 0, 1, 1}}
	rhs := value.Bit{Shape: []int{4}, Data: []uint8{0, 1, 0, 1}}

	xorOp := bit.NewBitXor(ir.Base{OpName: "x1", OpPlacement: "alice"})
	xorOut, err := xorK(context.Background(), sess, xorOp, map[string]any{"lhs": lhs, "rhs": rhs})
	if err != nil {
		t.Fatal(err)
	}
	if got := xorOut.(value.Bit).Data; got[0] != 0 || got[1] != 1 || got[2] != 1 || got[3] != 0 {
		t.Fatalf("xor got %v", got)
	}

	andOp := bit.NewBitAnd(ir.Base{OpName: "a1", OpPlacement: "alice"})
	andOut, err := andK(context.Background(), sess, andOp, map[string]any{"lhs": lhs, "rhs": rhs})
	if err != nil {
		t.Fatal(err)
	}
	if got := andOut.(value.Bit).Data; got[0] != 0 || got[1] != 0 || got[2] != 0 || got[3] != 1 {
		t.Fatalf("and got %v", got)
	}

	notOp := &bit.BitNot{Base: ir.Base{OpName: "n1", OpPlacement: "alice"}}
	notOut, err := notK(context.Background(), sess, notOp, map[string]any{"value": lhs})
	if err != nil {
		t.Fatal(err)
	}
	if got := notOut.(value.Bit).Data; got[0] != 1 || got[1] != 1 || got[2] != 0 || got[3] != 0 {
		t.Fatalf("not got %v", got)
	}
}

func TestRingShiftAndBitDecomposition(t *testing.T) {
	r := DefaultRegistry()
	shl, _ := r.Lookup((&ring.RingShl{}).Kind())
	shr, _ := r.Lookup((&ring.RingShr{}).Kind())
	extract, _ := r.Lookup((&ring.BitExtract{}).Kind())
	inject, _ := r.Lookup((&ring.RingInject{}).Kind())
	sess := testSession()

	in := value.Ring{Shape: []int{1}, Data: []uint64{6}} // 0b110

	shlOp := &ring.RingShl{Base: ir.Base{OpName: "shl1", OpPlacement: "alice"}, Amount: 2}
	shlOut, err := shl(context.Background(), sess, shlOp, map[string]any{"value": in})
	if err != nil {
		t.Fatal(err)
	}
	if got := shlOut.(value.Ring).Data[0]; got != 24 {
		t.Fatalf("shl got %d, want 24", got)
	}

	shrOp := &ring.RingShr{Base: ir.Base{OpName: "shr1", OpPlacement: "alice"}, Amount: 1}
	shrOut, err := shr(context.Background(), sess, shrOp, map[string]any{"value": in})
	if err != nil {
		t.Fatal(err)
	}
	if got := shrOut.(value.Ring).Data[0]; got != 3 {
		t.Fatalf("shr got %d, want 3", got)
	}

	extractOp := &ring.BitExtract{Base: ir.Base{OpName: "ex1", OpPlacement: "alice"}, Index: 1}
	extractOut, err := extract(context.Background(), sess, extractOp, map[string]any{"value": in})
	if err != nil {
		t.Fatal(err)
	}
	if got := extractOut.(value.Bit).Data[0]; got != 1 {
		t.Fatalf("bit 1 of 6 should be 1, got %d", got)
	}

	injectOp := &ring.RingInject{Base: ir.Base{OpName: "inj1", OpPlacement: "alice"}, Shift: 3}
	injectOut, err := inject(context.Background(), sess, injectOp, map[string]any{"value": value.Bit{Shape: []int{1}, Data: []uint8{1}}})
	if err != nil {
		t.Fatal(err)
	}
	if got := injectOut.(value.Ring).Data[0]; got != 8 {
		t.Fatalf("inject got %d, want 8", got)
	}
}

func TestFixedpointDotAndTruncPr(t *testing.T) {
	r := DefaultRegistry()
	dot, _ := r.Lookup((&fixedpoint.Dot{}).Kind())
	truncPr, _ := r.Lookup((&fixedpoint.TruncPr{}).Kind())
	sess := testSession()

	dotOp := fixedpoint.NewDot(ir.Base{OpName: "dot1", OpPlacement: "alice"}, 32, types.EncodedTensor{DType: types.Float64, Precision: 32})
	lhs := value.Tensor{Shape: []int{2}, Data: []float64{1 << 16, 2 << 16}}
	rhs := value.Tensor{Shape: []int{2}, Data: []float64{3 << 16, 4 << 16}}
	out, err := dot(context.Background(), sess, dotOp, map[string]any{"lhs": lhs, "rhs": rhs})
	if err != nil {
		t.Fatal(err)
	}
	got := out.(value.Tensor).Data[0]
	want := float64((1<<16)*(3<<16) + (2<<16)*(4<<16))
	if got != want {
		t.Fatalf("dot got %v, want %v", got, want)
	}

	truncOp := &fixedpoint.TruncPr{Base: ir.Base{OpName: "tr1", OpPlacement: "alice"}, AmountBits: 16, Output: types.EncodedTensor{DType: types.Float64, Precision: 16}}
	truncOut, err := truncPr(context.Background(), sess, truncOp, map[string]any{"value": value.Tensor{Shape: []int{1}, Data: []float64{float64(3 << 32)}}})
	if err != nil {
		t.Fatal(err)
	}
	if gotT := truncOut.(value.Tensor).Data[0]; gotT != float64(3<<16) {
		t.Fatalf("truncPr got %v, want %v", gotT, float64(3<<16))
	}
}
