package passes

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/mooselang/moose/ir"
	"github.com/mooselang/moose/ir/host"
	"github.com/mooselang/moose/types"
)

// NetworkMaterializationPass runs last: every edge whose producer and
// consumer resolve to different host placements is replaced with a
// host.Send on the producer side and a host.Receive on the consumer
// side, sharing a fresh rendezvous key unique to that edge (spec.md
// §4.3, §8 scenario S5).
//
// A composite placement (Replicated, Mirrored, Mpspdz) is represented,
// for this pass's purposes, by the first host in its player list: full
// per-player fan-out of Share/Reveal's internal redistribution is a
// kernel-level concern (the Share/Reveal kernels themselves talk to
// every player), not a plain dataflow edge this pass needs to split.
func NetworkMaterializationPass(c *ir.Computation, ctx *ir.Context) (*ir.Computation, error) {
	out := c.Clone()
	type edgeKey struct {
		producer     string
		consumerHost string
	}
	receivers := make(map[edgeKey]string)

	for name, op := range c.Operations {
		consumerHost, err := representativeHost(c, op.Placement())
		if err != nil {
			return nil, err
		}

		newSlots := make([]ir.Slot, len(op.Inputs()))
		changed := false
		for i, slot := range op.Inputs() {
			producer := c.Operation(slot.Producer)
			producerHost, err := representativeHost(c, producer.Placement())
			if err != nil {
				return nil, err
			}
			if producerHost == consumerHost {
				newSlots[i] = slot
				continue
			}

			key := edgeKey{producer: slot.Producer, consumerHost: consumerHost}
			receiverName, ok := receivers[key]
			if !ok {
				rendezvousKey := uuid.New().String()

				send := &host.Send{
					Base:          ir.Base{OpPlacement: producerHost, OpInputs: []ir.Slot{{Label: "value", Producer: slot.Producer}}},
					Sender:        producerHost,
					Receiver:      consumerHost,
					RendezvousKey: rendezvousKey,
				}
				send.SetName(ctx.FreshName(send.Kind()))
				if err := out.AddOperation(send); err != nil {
					return nil, err
				}

				recv := &host.Receive{
					Base:          ir.Base{OpPlacement: consumerHost},
					Sender:        producerHost,
					Receiver:      consumerHost,
					RendezvousKey: rendezvousKey,
					Output:        producer.OutputType(),
				}
				recv.SetName(ctx.FreshName(recv.Kind()))
				if err := out.AddOperation(recv); err != nil {
					return nil, err
				}

				receiverName = recv.Name()
				receivers[key] = receiverName
			}
			newSlots[i] = ir.Slot{Label: slot.Label, Producer: receiverName}
			changed = true
		}
		if changed {
			clone := out.Operation(name)
			clone.SetInputs(newSlots)
		}
	}
	return out, nil
}

// representativeHost resolves a placement name to the single host
// name this pass treats an op as physically running on: itself, for a
// HostPlacement, or its first player, for a composite placement.
func representativeHost(c *ir.Computation, placementName string) (string, error) {
	p := c.Placement(placementName)
	if p == nil {
		return "", fmt.Errorf("networkmaterialization: unknown placement %q", placementName)
	}
	if _, ok := p.(types.HostPlacement); ok {
		return placementName, nil
	}
	hosts := types.Hosts(p)
	if len(hosts) == 0 {
		return "", fmt.Errorf("networkmaterialization: placement %q has no constituent hosts", placementName)
	}
	return hosts[0], nil
}
