// Package kernel implements the per-operation-variant execution
// logic the executor dispatches to: strict kernels that await all
// their inputs and compute synchronously, and channel kernels that
// talk to a channel.Manager (spec.md §4.4).
package kernel

import (
	"context"
	"fmt"

	"github.com/mooselang/moose/ir"
	"github.com/mooselang/moose/types"
)

// Session carries everything a kernel needs beyond the operation
// itself: the session id, this party's identity, the channel manager,
// the storage backend Load/Save read and write, and a placement
// resolver the replicated-dialect kernels use to find their fellow
// players (spec.md §4.3).
type Session struct {
	ID      uint32
	Party   string
	Channel ChannelManager
	Storage Storage
	Resolve func(placementName string) types.Placement
}

// replicatedPlacement resolves name and requires it to be a
// ReplicatedPlacement, returning this session's index within it.
func (s *Session) replicatedPlacement(name string) (types.ReplicatedPlacement, int, error) {
	p, ok := s.Resolve(name).(types.ReplicatedPlacement)
	if !ok {
		return types.ReplicatedPlacement{}, -1, fmt.Errorf("kernel: placement %q is not replicated", name)
	}
	idx := p.PlayerIndex(s.Party)
	if idx < 0 {
		return types.ReplicatedPlacement{}, -1, fmt.Errorf("kernel: party %q is not a player of %q", s.Party, name)
	}
	return p, idx, nil
}

// ChannelManager is the subset of channel.Manager a kernel needs;
// declared locally to keep this package independent of channel's
// concrete types.
type ChannelManager interface {
	Send(ctx context.Context, session uint32, sender, receiver, rendezvousKey string, value []byte) error
	Receive(ctx context.Context, session uint32, sender, receiver, rendezvousKey string) ([]byte, error)
}

// Storage is the party-local key/value collaborator Load/Save read and
// write (spec.md §6).
type Storage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
}

// StorageMiss is returned by a Storage implementation when key is not
// present.
type StorageMiss struct {
	Key string
}

func (e *StorageMiss) Error() string { return fmt.Sprintf("kernel: storage miss: %q", e.Key) }

// ForeignProcessFailure wraps a non-zero exit from a RunProgram kernel.
type ForeignProcessFailure struct {
	Path     string
	ExitCode int
	Stderr   string
}

func (e *ForeignProcessFailure) Error() string {
	return fmt.Sprintf("kernel: %s exited %d: %s", e.Path, e.ExitCode, e.Stderr)
}

// KernelNotFound is returned by Registry.Lookup for an operation Kind
// with no registered kernel.
type KernelNotFound struct {
	OpType string
}

func (e *KernelNotFound) Error() string { return fmt.Sprintf("kernel: no kernel registered for %q", e.OpType) }

// Kernel computes one operation's output given its already-resolved
// input values, keyed by slot label. Strict kernels never see an
// unresolved input — the executor awaits every input future first.
type Kernel func(ctx context.Context, sess *Session, op ir.Op, inputs map[string]any) (any, error)

// Registry dispatches by operation Kind() to a registered Kernel
// (spec.md §4.4: "each operation variant has exactly one kernel").
// Grounded on compiler.SubgraphReplace's Kind()-keyed dispatch map, applied
// here to execution instead of rewriting.
type Registry struct {
	kernels map[string]Kernel
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{kernels: make(map[string]Kernel)}
}

// Register binds kind to k. It panics on a duplicate registration —
// that is a programming error, not a runtime condition.
func (r *Registry) Register(kind string, k Kernel) {
	if _, exists := r.kernels[kind]; exists {
		panic(fmt.Sprintf("kernel: duplicate registration for %q", kind))
	}
	r.kernels[kind] = k
}

// Lookup returns the kernel registered for kind, or KernelNotFound.
func (r *Registry) Lookup(kind string) (Kernel, error) {
	k, ok := r.kernels[kind]
	if !ok {
		return nil, &KernelNotFound{OpType: kind}
	}
	return k, nil
}
