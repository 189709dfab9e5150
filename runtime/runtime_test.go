package runtime_test

import (
	"context"
	"sync"
	"testing"

	"github.com/mooselang/moose/channel"
	"github.com/mooselang/moose/ir"
	"github.com/mooselang/moose/ir/host"
	"github.com/mooselang/moose/ir/standard"
	"github.com/mooselang/moose/runtime"
	"github.com/mooselang/moose/types"
	"github.com/mooselang/moose/value"
)

type memoryStorage struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryStorage() *memoryStorage { return &memoryStorage{data: make(map[string][]byte)} }

func (s *memoryStorage) Load(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return nil, &notFound{key}
	}
	return v, nil
}

type notFound struct{ key string }

func (e *notFound) Error() string { return "not found: " + e.key }

func (s *memoryStorage) Save(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

// twoHostComputation builds a computation with a Send from alice to
// bob followed by an Add on bob, to exercise cross-placement wiring
// through LocalParty's shared channel.Manager.
func twoHostComputation(t *testing.T) *ir.Computation {
	t.Helper()
	comp := ir.New()
	if err := comp.AddPlacement(types.HostPlacement{PlacementName: "alice"}); err != nil {
		t.Fatal(err)
	}
	if err := comp.AddPlacement(types.HostPlacement{PlacementName: "bob"}); err != nil {
		t.Fatal(err)
	}
	float := types.Tensor{DType: types.Float64}

	aliceConst := &standard.Constant{Base: ir.Base{OpName: "a_const", OpPlacement: "alice"}, Value: 4.0, Output: float}
	send := &host.Send{
		Base: ir.Base{
			OpName:      "a_send",
			OpPlacement: "alice",
			OpInputs:    []ir.Slot{{Label: "value", Producer: "a_const"}},
		},
		Sender:        "alice",
		Receiver:      "bob",
		RendezvousKey: "x",
	}
	recv := &host.Receive{
		Base:          ir.Base{OpName: "b_recv", OpPlacement: "bob"},
		Sender:        "alice",
		Receiver:      "bob",
		RendezvousKey: "x",
		Output:        float,
	}
	bobConst := &standard.Constant{Base: ir.Base{OpName: "b_const", OpPlacement: "bob"}, Value: 1.0, Output: float}
	add := standard.NewAdd(ir.Base{
		OpName:      "b_add",
		OpPlacement: "bob",
		OpInputs:    []ir.Slot{{Label: "lhs", Producer: "b_recv"}, {Label: "rhs", Producer: "b_const"}},
	}, float)
	save := &host.Save{
		Base: ir.Base{
			OpName:      "b_save",
			OpPlacement: "bob",
			OpInputs:    []ir.Slot{{Label: "value", Producer: "b_add"}},
		},
		Key: "result",
	}

	for _, op := range []ir.Op{aliceConst, send, recv, bobConst, add, save} {
		if err := comp.AddOperation(op); err != nil {
			t.Fatal(err)
		}
	}
	return comp
}

func TestOrchestratorEvaluateTwoParties(t *testing.T) {
	comp := twoHostComputation(t)
	mem := channel.NewMemory()
	bobStorage := newMemoryStorage()

	alice := &runtime.LocalParty{Name: "alice", Channel: mem, Storage: newMemoryStorage()}
	bob := &runtime.LocalParty{Name: "bob", Channel: mem, Storage: bobStorage}

	orch := &runtime.Orchestrator{}
	if err := orch.Evaluate(context.Background(), comp, 1, []runtime.PartyClient{alice, bob}); err != nil {
		t.Fatal(err)
	}

	raw, err := bobStorage.Load(context.Background(), "result")
	if err != nil {
		t.Fatal(err)
	}
	v, err := value.Unmarshal(raw)
	if err != nil {
		t.Fatal(err)
	}
	if got := v.(value.Tensor).Data[0]; got != 5 {
		t.Fatalf("got %v, want 5", got)
	}
}

func TestOrchestratorEvaluatePropagatesPartyError(t *testing.T) {
	comp := ir.New()
	if err := comp.AddPlacement(types.HostPlacement{PlacementName: "alice"}); err != nil {
		t.Fatal(err)
	}
	bad := &standard.Constant{Base: ir.Base{OpName: "bad", OpPlacement: "alice"}, Value: "not-a-number", Output: types.Tensor{DType: types.Float64}}
	if err := comp.AddOperation(bad); err != nil {
		t.Fatal(err)
	}

	alice := &runtime.LocalParty{Name: "alice", Channel: channel.NewMemory(), Storage: newMemoryStorage()}
	orch := &runtime.Orchestrator{}
	if err := orch.Evaluate(context.Background(), comp, 1, []runtime.PartyClient{alice}); err == nil {
		t.Fatal("expected an error to propagate from the failing party")
	}
}
