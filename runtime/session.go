package runtime

import (
	"github.com/google/uuid"

	"github.com/SnellerInc/sneller/date"
)

// Session is an orchestrator-side record of one evaluation: the
// spec's own 32-bit session id plus a uuid trace id and a start
// timestamp for logging/debugging, mirroring how tenant/tenant.go
// pairs a short tenant-visible id with an internal uuid.UUID for
// correlating logs across a request's lifetime.
type Session struct {
	ID        uint32
	TraceID   uuid.UUID
	StartedAt date.Time
}

// NewSession returns a Session for id, stamped with the current time.
func NewSession(id uint32) Session {
	return Session{ID: id, TraceID: uuid.New(), StartedAt: date.Now()}
}
