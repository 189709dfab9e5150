// Package runtime orchestrates a lowered computation across the
// parties named by its placements: Orchestrator fans RunComputation
// out to every party and joins on the first failure, PartyClient is
// the abstract per-party RPC, and LocalParty/HTTPParty are its two
// transports (spec.md §4.5 end, §6, §7).
package runtime

import (
	"context"
)

// RunComputationRequest is what an Orchestrator hands each party: the
// wire-encoded, compressed computation every party receives identically,
// plus the session id and the role (party name) the recipient is
// expected to play.
type RunComputationRequest struct {
	ComputationBytes []byte
	Role             string
	SessionID        uint32
}

// PartyClient is the abstract per-party executor RPC (spec.md §6):
// RunComputation{ComputationBytes, Role, SessionID} -> error.
type PartyClient interface {
	Party() string
	RunComputation(ctx context.Context, req RunComputationRequest) error
}
