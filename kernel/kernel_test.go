package kernel

import (
	"context"
	"sync"
	"testing"

	"github.com/mooselang/moose/channel"
	"github.com/mooselang/moose/ir"
	"github.com/mooselang/moose/ir/fixedpoint"
	"github.com/mooselang/moose/ir/host"
	"github.com/mooselang/moose/ir/primitive"
	"github.com/mooselang/moose/ir/ring"
	"github.com/mooselang/moose/ir/standard"
	"github.com/mooselang/moose/types"
	"github.com/mooselang/moose/value"
)

// memoryAdapter satisfies kernel.ChannelManager on top of channel.Memory,
// which keys on a single channel.Key struct rather than the flattened
// arguments RegisterHost's Send/Receive kernels pass.
type memoryAdapter struct {
	m *channel.Memory
}

func (a memoryAdapter) Send(ctx context.Context, session uint32, sender, receiver, rendezvousKey string, value []byte) error {
	return a.m.Send(ctx, channel.Key{Session: session, Sender: sender, Receiver: receiver, RendezvousKey: rendezvousKey}, value)
}

func (a memoryAdapter) Receive(ctx context.Context, session uint32, sender, receiver, rendezvousKey string) ([]byte, error) {
	return a.m.Receive(ctx, channel.Key{Session: session, Sender: sender, Receiver: receiver, RendezvousKey: rendezvousKey})
}

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
		return nil, &StorageMiss{Key: key}
	}
	return v, nil
}

func (s *memoryStorage) Save(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func testSession() *Session {
	return &Session{
		ID:      1,
		Party:   "alice",
		Channel: memoryAdapter{m: channel.NewMemory()},
		Storage: newMemoryStorage(),
	}
}

func TestRegistryLookupMissing(t *testing.T) {
	r := NewRegistry()
	_, err := r.Lookup("nonexistent.Kind")
	if _, ok := err.(*KernelNotFound); !ok {
		t.Fatalf("expected *KernelNotFound, got %v", err)
	}
}

func TestRegistryDuplicateRegistrationPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	r := NewRegistry()
	noop := func(ctx context.Context, sess *Session, op ir.Op, inputs map[string]any) (any, error) { return nil, nil }
	r.Register("x", noop)
	r.Register("x", noop)
}

func TestStandardAddKernel(t *testing.T) {
	r := DefaultRegistry()
	k, err := r.Lookup((&standard.Add{}).Kind())
	if err != nil {
		t.Fatal(err)
	}
	op := standard.NewAdd(ir.Base{OpName: "add1", OpPlacement: "alice"}, types.Tensor{DType: types.Float64})
	inputs := map[string]any{
		"lhs": value.Tensor{Shape: []int{2}, Data: []float64{1, 2}},
		"rhs": value.Tensor{Shape: []int{2}, Data: []float64{3, 4}},
	}
	out, err := k(context.Background(), testSession(), op, inputs)
	if err != nil {
		t.Fatal(err)
	}
	got := out.(value.Tensor)
	if got.Data[0] != 4 || got.Data[1] != 6 {
		t.Fatalf("got %v, want [4 6]", got.Data)
	}
}

func TestFixedpointEncodeDecodeRoundTrip(t *testing.T) {
	r := DefaultRegistry()
	encode, err := r.Lookup((&fixedpoint.Encode{}).Kind())
	if err != nil {
		t.Fatal(err)
	}
	decode, err := r.Lookup((&fixedpoint.Decode{}).Kind())
	if err != nil {
		t.Fatal(err)
	}
	encOp := &fixedpoint.Encode{Base: ir.Base{OpName: "e1", OpPlacement: "alice"}, Precision: 16, Output: types.EncodedTensor{DType: types.Float64, Precision: 16}}
	enc, err := encode(context.Background(), testSession(), encOp, map[string]any{"value": value.Tensor{Shape: []int{1}, Data: []float64{1.5}}})
	if err != nil {
		t.Fatal(err)
	}
	decOp := &fixedpoint.Decode{Base: ir.Base{OpName: "d1", OpPlacement: "alice"}, Precision: 16, Output: types.Tensor{DType: types.Float64}}
	dec, err := decode(context.Background(), testSession(), decOp, map[string]any{"value": enc})
	if err != nil {
		t.Fatal(err)
	}
	got := dec.(value.Tensor).Data[0]
	if got != 1.5 {
		t.Fatalf("got %v, want 1.5", got)
	}
}

func TestHostLoadSaveRoundTrip(t *testing.T) {
	r := DefaultRegistry()
	save, err := r.Lookup((&host.Save{}).Kind())
	if err != nil {
		t.Fatal(err)
	}
	load, err := r.Lookup((&host.Load{}).Kind())
	if err != nil {
		t.Fatal(err)
	}
	sess := testSession()
	saveOp := &host.Save{Base: ir.Base{OpName: "s1", OpPlacement: "alice"}, Key: "x"}
	if _, err := save(context.Background(), sess, saveOp, map[string]any{"value": value.Tensor{Shape: []int{1}, Data: []float64{42}}}); err != nil {
		t.Fatal(err)
	}
	loadOp := &host.Load{Base: ir.Base{OpName: "l1", OpPlacement: "alice"}, Key: "x", Output: types.Tensor{DType: types.Float64}}
	got, err := load(context.Background(), sess, loadOp, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.(value.Tensor).Data[0] != 42 {
		t.Fatalf("got %v, want 42", got)
	}
}

func TestHostLoadMissingKey(t *testing.T) {
	r := DefaultRegistry()
	load, _ := r.Lookup((&host.Load{}).Kind())
	loadOp := &host.Load{Base: ir.Base{OpName: "l1", OpPlacement: "alice"}, Key: "missing", Output: types.Tensor{DType: types.Float64}}
	_, err := load(context.Background(), testSession(), loadOp, nil)
	if _, ok := err.(*StorageMiss); !ok {
		t.Fatalf("expected *StorageMiss, got %v", err)
	}
}

func TestDeriveSeedIsDeterministic(t *testing.T) {
	r := DefaultRegistry()
	sampleKey, _ := r.Lookup((&primitive.SampleKey{}).Kind())
	deriveSeed, _ := r.Lookup((&primitive.DeriveSeed{}).Kind())

	sess := testSession()
	keyOp := &primitive.SampleKey{Base: ir.Base{OpName: "k1", OpPlacement: "alice"}}
	key, err := sampleKey(context.Background(), sess, keyOp, nil)
	if err != nil {
		t.Fatal(err)
	}

	seedOp := &primitive.DeriveSeed{Base: ir.Base{OpName: "s1", OpPlacement: "alice"}, Nonce: []byte("mul1/01")}
	s1, err := deriveSeed(context.Background(), sess, seedOp, map[string]any{"key": key})
	if err != nil {
		t.Fatal(err)
	}
	s2, err := deriveSeed(context.Background(), sess, seedOp, map[string]any{"key": key})
	if err != nil {
		t.Fatal(err)
	}
	if string(s1.(value.Seed)) != string(s2.(value.Seed)) {
		t.Fatalf("derive-seed is not deterministic for the same key and nonce")
	}

	otherNonce := &primitive.DeriveSeed{Base: ir.Base{OpName: "s2", OpPlacement: "alice"}, Nonce: []byte("mul1/12")}
	s3, err := deriveSeed(context.Background(), sess, otherNonce, map[string]any{"key": key})
	if err != nil {
		t.Fatal(err)
	}
	if string(s1.(value.Seed)) == string(s3.(value.Seed)) {
		t.Fatal("derive-seed produced the same output for different nonces")
	}
}

func TestRingAddWraps(t *testing.T) {
	r := DefaultRegistry()
	k, _ := r.Lookup((&ring.RingAdd{}).Kind())
	op := ring.NewRingAdd(ir.Base{OpName: "r1", OpPlacement: "alice"})
	inputs := map[string]any{
		"lhs": value.Ring{Shape: []int{1}, Data: []uint64{^uint64(0)}},
		"rhs": value.Ring{Shape: []int{1}, Data: []uint64{1}},
	}
	out, err := k(context.Background(), testSession(), op, inputs)
	if err != nil {
		t.Fatal(err)
	}
	if out.(value.Ring).Data[0] != 0 {
		t.Fatalf("expected wraparound to 0, got %d", out.(value.Ring).Data[0])
	}
}

func TestSendReceiveRoundTrip(t *testing.T) {
	r := DefaultRegistry()
	send, _ := r.Lookup((&host.Send{}).Kind())
	receive, _ := r.Lookup((&host.Receive{}).Kind())

	mem := channel.NewMemory()
	senderSess := &Session{ID: 1, Party: "alice", Channel: memoryAdapter{m: mem}, Storage: newMemoryStorage()}
	receiverSess := &Session{ID: 1, Party: "bob", Channel: memoryAdapter{m: mem}, Storage: newMemoryStorage()}

	sendOp := &host.Send{Base: ir.Base{OpName: "snd1", OpPlacement: "alice"}, Sender: "alice", Receiver: "bob", RendezvousKey: "r1"}
	if _, err := send(context.Background(), senderSess, sendOp, map[string]any{"value": value.Tensor{Shape: []int{1}, Data: []float64{7}}}); err != nil {
		t.Fatal(err)
	}

	recvOp := &host.Receive{Base: ir.Base{OpName: "rcv1", OpPlacement: "bob"}, Sender: "alice", Receiver: "bob", RendezvousKey: "r1", Output: types.Tensor{DType: types.Float64}}
	got, err := receive(context.Background(), receiverSess, recvOp, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.(value.Tensor).Data[0] != 7 {
		t.Fatalf("got %v, want 7", got)
	}
}
