package channel

import (
	"context"
	"sync"

	"github.com/SnellerInc/sneller/date"
	"golang.org/x/exp/slices"
)

// slot is the single-assignment future backing one Key: exactly one
// Send fulfils it, any number of Receive calls observe the same value.
// Grounded on the teacher's dcache mapping lifecycle (tenant/dcache/cache.go):
// a mutex-guarded map plus a condition-style wait, scaled down to a
// one-shot value instead of a refcounted file mapping.
type slot struct {
	ready chan struct{}
	once  sync.Once
	value []byte
}

func newSlot() *slot {
	return &slot{ready: make(chan struct{})}
}

func (s *slot) fulfil(value []byte) bool {
	filled := false
	s.once.Do(func() {
		s.value = value
		close(s.ready)
		filled = true
	})
	return filled
}

// Memory is the in-process Manager: all parties run in one program
// (tests, the local runtime), and rendezvous is a shared map of
// futures keyed by the full (session, sender, receiver, rendezvous_key)
// tuple.
type Memory struct {
	mu    sync.Mutex
	slots map[Key]*slot
}

// NewMemory returns an empty in-memory channel manager.
func NewMemory() *Memory {
	return &Memory{slots: make(map[Key]*slot)}
}

func (m *Memory) slotFor(key Key) *slot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slots == nil {
		m.slots = make(map[Key]*slot)
	}
	s, ok := m.slots[key]
	if !ok {
		s = newSlot()
		m.slots[key] = s
	}
	return s
}

// Send posts value for key. A second Send for the same key is an error
// (spec.md §4.6): only the first is retained.
func (m *Memory) Send(ctx context.Context, key Key, value []byte) error {
	s := m.slotFor(key)
	if !s.fulfil(value) {
		return &DuplicateSend{Key: key}
	}
	return nil
}

// Receive blocks until key's value is posted or ctx is cancelled.
// EndSession does not wake a Receive that is already waiting.
func (m *Memory) Receive(ctx context.Context, key Key) ([]byte, error) {
	s := m.slotFor(key)
	select {
	case <-s.ready:
		return s.value, nil
	case <-ctx.Done():
		return nil, &RendezvousTimeout{Key: key, Observed: date.Now()}
	}
}

// pendingKeysLocked returns the keys belonging to session in a
// deterministic order. Callers must hold m.mu.
func (m *Memory) pendingKeysLocked(session uint32) []Key {
	var keys []Key
	for key := range m.slots {
		if key.Session == session {
			keys = append(keys, key)
		}
	}
	slices.SortFunc(keys, func(a, b Key) bool {
		if a.Sender != b.Sender {
			return a.Sender < b.Sender
		}
		if a.Receiver != b.Receiver {
			return a.Receiver < b.Receiver
		}
		return a.RendezvousKey < b.RendezvousKey
	})
	return keys
}

// PendingKeys returns, in a deterministic order, the keys belonging to
// session that have not yet been reclaimed by EndSession. It exists
// for diagnostics and tests that want to assert on exactly what a
// session left behind before tearing it down.
func (m *Memory) PendingKeys(session uint32) []Key {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pendingKeysLocked(session)
}

// EndSession drops every slot belonging to session; waiters already
// blocked in Receive are released by their ctx, not by this call
// (spec.md §5: cancellation is the session runner's responsibility,
// not the channel manager's).
func (m *Memory) EndSession(session uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range m.pendingKeysLocked(session) {
		delete(m.slots, key)
	}
}
