package passes

import (
	"errors"
	"testing"

	"github.com/mooselang/moose/ir"
	"github.com/mooselang/moose/ir/standard"
	"github.com/mooselang/moose/types"
)

func additiveMismatchComputation(t *testing.T) *ir.Computation {
	t.Helper()
	comp := ir.New()
	if err := comp.AddPlacement(types.HostPlacement{PlacementName: "alice"}); err != nil {
		t.Fatal(err)
	}
	if err := comp.AddPlacement(types.ReplicatedPlacement{
		PlacementName: "rep",
		Players:       [3]string{"alice", "bob", "carol"},
	}); err != nil {
		t.Fatal(err)
	}

	lhs := &standard.Constant{
		Base:   ir.Base{OpName: "lhs", OpPlacement: "alice"},
		Value:  1.0,
		Output: types.Tensor{DType: types.Float64},
	}
	rhs := &standard.Constant{
		Base:   ir.Base{OpName: "rhs", OpPlacement: "alice"},
		Value:  int64(1),
		Output: types.Tensor{DType: types.Int64},
	}
	add := standard.NewAdd(ir.Base{
		OpName:      "add",
		OpPlacement: "rep",
		OpInputs:    []ir.Slot{{Label: "lhs", Producer: "lhs"}, {Label: "rhs", Producer: "rhs"}},
	}, types.Tensor{DType: types.Float64})

	for _, op := range []ir.Op{lhs, rhs, add} {
		if err := comp.AddOperation(op); err != nil {
			t.Fatal(err)
		}
	}
	return comp
}

// TestReplicatedEncodingPassRejectsDtypeMismatch exercises spec.md
// §4.3's "additive ops require matching (dtype, precision)" rule: a
// float64 lhs added to an int64 rhs must be rejected, not silently
// encoded under the lhs's dtype.
func TestReplicatedEncodingPassRejectsDtypeMismatch(t *testing.T) {
	comp := additiveMismatchComputation(t)
	pass := ReplicatedEncodingPass(DefaultPrecision, true)
	_, err := pass(comp, ir.NewContext())
	if err == nil {
		t.Fatal("expected a dtype mismatch error, got nil")
	}
	var mismatch *ir.TypeMismatch
	if !errors.As(err, &mismatch) {
		t.Fatalf("got %v (%T), want *ir.TypeMismatch", err, err)
	}
}

func TestReplicatedEncodingPassAcceptsMatchingDtype(t *testing.T) {
	comp := ir.New()
	if err := comp.AddPlacement(types.HostPlacement{PlacementName: "alice"}); err != nil {
		t.Fatal(err)
	}
	if err := comp.AddPlacement(types.ReplicatedPlacement{
		PlacementName: "rep",
		Players:       [3]string{"alice", "bob", "carol"},
	}); err != nil {
		t.Fatal(err)
	}
	lhs := &standard.Constant{Base: ir.Base{OpName: "lhs", OpPlacement: "alice"}, Value: 1.0, Output: types.Tensor{DType: types.Float64}}
	rhs := &standard.Constant{Base: ir.Base{OpName: "rhs", OpPlacement: "alice"}, Value: 2.0, Output: types.Tensor{DType: types.Float64}}
	add := standard.NewAdd(ir.Base{
		OpName:      "add",
		OpPlacement: "rep",
		OpInputs:    []ir.Slot{{Label: "lhs", Producer: "lhs"}, {Label: "rhs", Producer: "rhs"}},
	}, types.Tensor{DType: types.Float64})
	for _, op := range []ir.Op{lhs, rhs, add} {
		if err := comp.AddOperation(op); err != nil {
			t.Fatal(err)
		}
	}

	pass := ReplicatedEncodingPass(DefaultPrecision, true)
	if _, err := pass(comp, ir.NewContext()); err != nil {
		t.Fatalf("unexpected error for matching-dtype operands: %v", err)
	}
}
