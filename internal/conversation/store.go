// Session storage. The Store interface exists so the in-memory map can be
// swapped for a durable or distributed backing store without touching the
// Manager's logic.
package conversation

import (
	"sync"
	"time"
)

// Session is the mutable state of one identity's active dialog.
type Session struct {
	// Flow is the active dialog; never FlowNone for a stored session.
	Flow Flow
	// Step is the ordinal position within the flow's step sequence.
	Step int
	// Data maps field names to the values collected so far.
	Data map[string]string
	// UpdatedAt is bumped on every successful input; stale sessions past the
	// store's TTL are treated as absent.
	UpdatedAt time.Time
}

// Store persists conversation sessions keyed by identity.
//
// Implementations must be safe for concurrent use. Get returning false means
// the identity has no live session.
type Store interface {
	Get(id int64) (*Session, bool)
	Put(id int64, s *Session)
	Delete(id int64)
}

// MemoryStore is the default in-process Store: a mutex-guarded map with an
// optional idle TTL. Sessions whose last input is older than the TTL are
// dropped lazily on the next lookup, which implements the implicit dialog
// timeout without a background sweeper.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore returns an empty MemoryStore. A ttl of zero disables the
// idle timeout.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[int64]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns the identity's live session, expiring it first when stale.
func (m *MemoryStore) Get(id int64) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	if m.ttl > 0 && m.now().Sub(s.UpdatedAt) > m.ttl {
		delete(m.sessions, id)
		return nil, false
	}
	return s, true
}

// Put stores (or replaces) the identity's session.
func (m *MemoryStore) Put(id int64, s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = s
}

// Delete removes the identity's session. Idempotent.
func (m *MemoryStore) Delete(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Len reports the number of live sessions (expired ones included until their
// next lookup). Used by tests and the admin surface.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
