package wire

import (
	"testing"

	"github.com/SnellerInc/sneller/ion"
	"github.com/mooselang/moose/ir"
	"github.com/mooselang/moose/ir/host"
	"github.com/mooselang/moose/ir/standard"
	"github.com/mooselang/moose/types"
)

func sampleComputation(t *testing.T) *ir.Computation {
	t.Helper()
	c := ir.New()
	if err := c.AddPlacement(types.HostPlacement{PlacementName: "alice"}); err != nil {
		t.Fatal(err)
	}
	if err := c.AddPlacement(types.ReplicatedPlacement{
		PlacementName: "rep",
		Players:       [3]string{"alice", "bob", "carole"},
	}); err != nil {
		t.Fatal(err)
	}
	x := &standard.Constant{
		Base:   ir.Base{OpName: "x", OpPlacement: "alice"},
		Value:  float64(2),
		Output: types.Tensor{DType: types.Float64},
	}
	if err := c.AddOperation(x); err != nil {
		t.Fatal(err)
	}
	y := &host.Load{
		Base:   ir.Base{OpName: "y", OpPlacement: "alice"},
		Key:    "weights",
		Output: types.Tensor{DType: types.Float64},
	}
	if err := c.AddOperation(y); err != nil {
		t.Fatal(err)
	}
	sum := standard.NewAdd(
		ir.Base{OpName: "sum", OpPlacement: "alice", OpInputs: []ir.Slot{
			{Label: "lhs", Producer: "x"},
			{Label: "rhs", Producer: "y"},
		}},
		types.Tensor{DType: types.Float64},
	)
	if err := c.AddOperation(sum); err != nil {
		t.Fatal(err)
	}
	out := &standard.Output{
		Base:   ir.Base{OpName: "out", OpPlacement: "alice", OpInputs: []ir.Slot{{Label: "value", Producer: "sum"}}},
		Output: types.Tensor{DType: types.Float64},
	}
	if err := c.AddOperation(out); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestEncodeDecodeComputationRoundTrip(t *testing.T) {
	want := sampleComputation(t)
	raw, err := EncodeComputation(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeComputation(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(got.Operations) != len(want.Operations) {
		t.Fatalf("operation count: got %d, want %d", len(got.Operations), len(want.Operations))
	}
	if len(got.Placements) != len(want.Placements) {
		t.Fatalf("placement count: got %d, want %d", len(got.Placements), len(want.Placements))
	}

	wantSum := want.Operation("sum")
	gotSum := got.Operation("sum")
	if gotSum == nil {
		t.Fatal("missing \"sum\" operation after round trip")
	}
	if gotSum.Kind() != wantSum.Kind() {
		t.Errorf("sum.Kind() = %q, want %q", gotSum.Kind(), wantSum.Kind())
	}
	if gotSum.Placement() != wantSum.Placement() {
		t.Errorf("sum.Placement() = %q, want %q", gotSum.Placement(), wantSum.Placement())
	}
	if !types.Satisfies(wantSum.OutputType(), gotSum.OutputType()) {
		t.Errorf("sum.OutputType() = %v, want %v", gotSum.OutputType(), wantSum.OutputType())
	}
	gotInputs := gotSum.Inputs()
	wantInputs := wantSum.Inputs()
	if len(gotInputs) != len(wantInputs) {
		t.Fatalf("sum inputs: got %d, want %d", len(gotInputs), len(wantInputs))
	}
	for i := range wantInputs {
		if gotInputs[i] != wantInputs[i] {
			t.Errorf("sum input[%d] = %+v, want %+v", i, gotInputs[i], wantInputs[i])
		}
	}

	x, ok := got.Operation("x").(*standard.Constant)
	if !ok {
		t.Fatalf("x decoded as %T, want *standard.Constant", got.Operation("x"))
	}
	if f, ok := x.Value.(float64); !ok || f != 2 {
		t.Errorf("x.Value = %#v, want float64(2)", x.Value)
	}

	rep, ok := got.Placement("rep").(types.ReplicatedPlacement)
	if !ok {
		t.Fatalf("rep decoded as %T, want types.ReplicatedPlacement", got.Placement("rep"))
	}
	if rep.Players != [3]string{"alice", "bob", "carole"} {
		t.Errorf("rep.Players = %v, want [alice bob carole]", rep.Players)
	}

	if err := got.Validate(); err != nil {
		t.Errorf("decoded computation failed validation: %v", err)
	}
}

func TestEncodeComputationDeterministic(t *testing.T) {
	c := sampleComputation(t)
	a, err := EncodeComputation(c)
	if err != nil {
		t.Fatal(err)
	}
	b, err := EncodeComputation(c)
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Error("EncodeComputation is not deterministic across repeated calls on the same computation")
	}
}

func TestDecodeComputationUnknownOperationType(t *testing.T) {
	c := ir.New()
	if err := c.AddPlacement(types.HostPlacement{PlacementName: "alice"}); err != nil {
		t.Fatal(err)
	}
	raw, err := EncodeComputation(c)
	if err != nil {
		t.Fatal(err)
	}
	// The placement-only computation must decode; then DecodeOp is fed a
	// record whose "type" discriminator is not registered.
	if _, err := DecodeComputation(raw); err != nil {
		t.Fatalf("decode of placement-only computation: %v", err)
	}

	var body, framed ion.Buffer
	var st ion.Symtab
	body.BeginStruct(-1)
	body.BeginField(st.Intern("type"))
	body.WriteString("bogus.UnknownOperation")
	body.BeginField(st.Intern("name"))
	body.WriteString("z")
	body.BeginField(st.Intern("placement"))
	body.WriteString("alice")
	body.BeginField(st.Intern("inputs"))
	encodeSlots(&body, &st, nil)
	body.BeginField(st.Intern("output_type"))
	encodeValueType(&body, &st, types.Unit{})
	body.EndStruct()
	st.Marshal(&framed, true)
	framed.UnsafeAppend(body.Bytes())
	var st2 ion.Symtab
	rest, err := st2.Unmarshal(framed.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	d, _, err := ion.ReadDatum(&st2, rest)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeOp(d); err == nil {
		t.Fatal("expected an error for an unregistered operation type")
	} else if _, ok := err.(*ir.UnknownOperationType); !ok {
		t.Fatalf("expected *ir.UnknownOperationType, got %T: %v", err, err)
	}
}

func TestCompressComputationRoundTrip(t *testing.T) {
	c := sampleComputation(t)
	raw, err := EncodeComputation(c)
	if err != nil {
		t.Fatal(err)
	}
	framed := CompressComputation(raw)
	back, err := DecompressComputation(framed)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if string(back) != string(raw) {
		t.Error("decompressed payload does not match original encoding")
	}

	big := make([]byte, compressThreshold*4)
	for i := range big {
		big[i] = byte(i)
	}
	framedBig := CompressComputation(big)
	if framedBig[0] != 1 {
		t.Errorf("expected large payload to be compressed, flag = %d", framedBig[0])
	}
	backBig, err := DecompressComputation(framedBig)
	if err != nil {
		t.Fatalf("decompress large: %v", err)
	}
	if string(backBig) != string(big) {
		t.Error("decompressed large payload does not match original")
	}
}
