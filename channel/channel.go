// Package channel implements the rendezvous abstraction parties use to
// exchange values during a session: send(value, session, sender,
// receiver, rendezvous_key) and receive(session, sender, receiver,
// rendezvous_key) -> value, with at most one of each per tuple and
// unbounded, cancellable wait on the receiving side (spec.md §4.6).
package channel

import (
	"context"
	"fmt"

	"github.com/SnellerInc/sneller/date"
)

// Key identifies one logical edge crossing between two parties within
// a single session.
type Key struct {
	Session       uint32
	Sender        string
	Receiver      string
	RendezvousKey string
}

func (k Key) String() string {
	return fmt.Sprintf("session=%d %s->%s/%s", k.Session, k.Sender, k.Receiver, k.RendezvousKey)
}

// Manager is the interface the host.Send/host.Receive kernels talk to.
// Implementations must allow Send to return immediately (buffering the
// value until a matching Receive arrives) and must let Receive block,
// respecting ctx cancellation, until a value is posted.
type Manager interface {
	Send(ctx context.Context, key Key, value []byte) error
	Receive(ctx context.Context, key Key) ([]byte, error)

	// EndSession releases every value still pending for session,
	// whether or not it was ever collected (spec.md §5's
	// resource-discipline requirement). A Receive already blocked on
	// the session is released by its own ctx, not by this call.
	EndSession(session uint32)
}

// RendezvousTimeout is returned when a Receive is cancelled by its
// context before a matching Send arrived. Observed records when the
// timeout was detected, the same ion-datum-compatible date.Time the
// teacher's own timestamped records use, so a caller logging this
// error can correlate it against other dated diagnostics without a
// conversion step.
type RendezvousTimeout struct {
	Key      Key
	Observed date.Time
}

func (e *RendezvousTimeout) Error() string {
	return fmt.Sprintf("channel: rendezvous timed out at %s: %s", e.Observed, e.Key)
}

// DuplicateSend is returned when a second Send targets a Key that
// already has a pending or delivered value (spec.md §4.6: "at most one
// sender ... per tuple").
type DuplicateSend struct {
	Key Key
}

func (e *DuplicateSend) Error() string {
	return fmt.Sprintf("channel: duplicate send: %s", e.Key)
}
