package runtime

import (
	"context"

	"github.com/mooselang/moose/channel"
	"github.com/mooselang/moose/executor"
	"github.com/mooselang/moose/kernel"
	"github.com/mooselang/moose/wire"
)

// channelAdapter satisfies kernel.ChannelManager on top of a
// channel.Manager, which keys on a single channel.Key struct rather
// than the flattened arguments kernel's Send/Receive kernels pass.
type channelAdapter struct {
	m channel.Manager
}

func (a channelAdapter) Send(ctx context.Context, session uint32, sender, receiver, rendezvousKey string, value []byte) error {
	return a.m.Send(ctx, channel.Key{Session: session, Sender: sender, Receiver: receiver, RendezvousKey: rendezvousKey}, value)
}

func (a channelAdapter) Receive(ctx context.Context, session uint32, sender, receiver, rendezvousKey string) ([]byte, error) {
	return a.m.Receive(ctx, channel.Key{Session: session, Sender: sender, Receiver: receiver, RendezvousKey: rendezvousKey})
}

// Storage is the subset of storage.Store a party needs; declared
// locally so this package does not have to import storage just to
// name a field type.
type Storage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
}

// LocalParty runs a RunComputation request in-process: it decodes the
// computation and drives it through an executor.Executor directly,
// with no network hop. It is what cmd/moosec's local multi-party
// simulation mode and every in-process test in this module use, one
// instance per simulated party, all sharing a single channel.Memory.
type LocalParty struct {
	Name     string
	Registry *kernel.Registry
	Channel  channel.Manager
	Storage  Storage
	Logf     func(format string, args ...any)
}

func (p *LocalParty) Party() string { return p.Name }

func (p *LocalParty) RunComputation(ctx context.Context, req RunComputationRequest) error {
	raw, err := wire.DecompressComputation(req.ComputationBytes)
	if err != nil {
		return err
	}
	comp, err := wire.DecodeComputation(raw)
	if err != nil {
		return err
	}

	registry := p.Registry
	if registry == nil {
		registry = kernel.DefaultRegistry()
	}

	sess := &kernel.Session{
		ID:      req.SessionID,
		Party:   p.Name,
		Channel: channelAdapter{m: p.Channel},
		Storage: p.Storage,
	}

	ex := executor.New(registry)
	ex.Logf = p.Logf
	return ex.Run(ctx, comp, sess)
}
