package runtime_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/mooselang/moose/channel"
	"github.com/mooselang/moose/ir"
	"github.com/mooselang/moose/ir/host"
	"github.com/mooselang/moose/ir/standard"
	"github.com/mooselang/moose/runtime"
	"github.com/mooselang/moose/types"
	"github.com/mooselang/moose/value"
	"github.com/mooselang/moose/wire"
)

// TestHTTPPartyRunComputationRoundTrip drives a PartyServer behind an
// httptest.Server through HTTPParty, exercising the same wire framing
// and role/session validation cmd/mooseparty serves in production.
func TestHTTPPartyRunComputationRoundTrip(t *testing.T) {
	comp := ir.New()
	if err := comp.AddPlacement(types.HostPlacement{PlacementName: "alice"}); err != nil {
		t.Fatal(err)
	}
	float := types.Tensor{DType: types.Float64}
	constOp := &standard.Constant{Base: ir.Base{OpName: "a_const", OpPlacement: "alice"}, Value: 7.0, Output: float}
	save := &host.Save{
		Base: ir.Base{
			OpName:      "a_save",
			OpPlacement: "alice",
			OpInputs:    []ir.Slot{{Label: "value", Producer: "a_const"}},
		},
		Key: "result",
	}
	for _, op := range []ir.Op{constOp, save} {
		if err := comp.AddOperation(op); err != nil {
			t.Fatal(err)
		}
	}

	encoded, err := wire.EncodeComputation(comp)
	if err != nil {
		t.Fatal(err)
	}
	framed := wire.CompressComputation(encoded)

	store := newMemoryStorage()
	server := &runtime.PartyServer{Name: "alice", Channel: channel.NewMemory(), Storage: store}
	srv := httptest.NewServer(server)
	defer srv.Close()

	client := &runtime.HTTPParty{Name: "alice", Addr: srv.URL}
	req := runtime.RunComputationRequest{ComputationBytes: framed, Role: "alice", SessionID: 1}
	if err := client.RunComputation(context.Background(), req); err != nil {
		t.Fatal(err)
	}

	raw, err := store.Load(context.Background(), "result")
	if err != nil {
		t.Fatal(err)
	}
	v, err := value.Unmarshal(raw)
	if err != nil {
		t.Fatal(err)
	}
	if got := v.(value.Tensor).Data[0]; got != 7 {
		t.Fatalf("got %v, want 7", got)
	}
}

func TestHTTPPartyRunComputationRoleMismatch(t *testing.T) {
	server := &runtime.PartyServer{Name: "alice", Channel: channel.NewMemory(), Storage: newMemoryStorage()}
	srv := httptest.NewServer(server)
	defer srv.Close()

	client := &runtime.HTTPParty{Name: "bob", Addr: srv.URL}
	req := runtime.RunComputationRequest{ComputationBytes: []byte{}, Role: "bob", SessionID: 1}
	if err := client.RunComputation(context.Background(), req); err == nil {
		t.Fatal("expected a role-mismatch error")
	}
}
