// The Manager advances sessions deterministically: one input either fails to
// parse (session unchanged, same prompt re-issued), advances to the next
// step, completes the flow (session destroyed, collected fields returned),
// or cancels. Inputs for the same identity are serialized; distinct
// identities proceed concurrently.
package conversation

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// OutcomeKind classifies the result of submitting one input.
type OutcomeKind int

// Submit outcomes.
const (
	// OutcomeNoSession: the identity has no active flow; the caller should
	// treat the input as a bare command.
	OutcomeNoSession OutcomeKind = iota
	// OutcomeAdvance: input accepted, Prompt asks for the next step.
	OutcomeAdvance
	// OutcomeComplete: the flow finished; Fields holds every collected value
	// and the session is gone.
	OutcomeComplete
	// OutcomeFail: input rejected; Reason explains why, Prompt repeats the
	// current step, and the session is untouched.
	OutcomeFail
	// OutcomeCancelled: the user typed the cancel keyword mid-dialog.
	OutcomeCancelled
)

// Outcome is the result of Manager.Submit.
type Outcome struct {
	Kind   OutcomeKind
	Flow   Flow
	Prompt string
	Reason string
	Fields map[string]string
}

// Manager owns all conversation sessions and advances them one input at a
// time. Safe for concurrent use.
type Manager struct {
	store Store
	log   zerolog.Logger
	now   func() time.Time

	// mu guards locks; each identity gets its own mutex so inputs for one
	// identity are processed to completion before the next is accepted,
	// while other identities are unaffected.
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewManager builds a Manager over the given session store.
func NewManager(store Store, log zerolog.Logger) *Manager {
	return &Manager{
		store: store,
		log:   log,
		now:   time.Now,
		locks: make(map[int64]*sync.Mutex),
	}
}

// lockFor returns the identity's serialization mutex, creating it on first
// use. Entries are never reclaimed: the map holds one mutex per identity ever
// seen, unlike sessions, which the store expires. Eviction would have to
// prove no goroutine still holds or awaits the mutex; the per-entry cost is a
// pointer plus a mutex, bounded by the user population.
func (m *Manager) lockFor(id int64) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	return l
}

// StartFlow begins a dialog for the identity at step zero and returns the
// first prompt. Any prior session is silently replaced; the discarded flow is
// logged for diagnosis but the user is not warned.
func (m *Manager) StartFlow(id int64, flow Flow) (string, bool) {
	steps := flow.Steps()
	if len(steps) == 0 {
		return "", false
	}

	l := m.lockFor(id)
	l.Lock()
	defer l.Unlock()

	if old, ok := m.store.Get(id); ok {
		m.log.Debug().
			Int64("identity", id).
			Stringer("old_flow", old.Flow).
			Stringer("new_flow", flow).
			Msg("replacing active session")
	}
	m.store.Put(id, &Session{
		Flow:      flow,
		Step:      0,
		Data:      make(map[string]string, len(steps)),
		UpdatedAt: m.now(),
	})
	return steps[0].Prompt, true
}

// Submit feeds one raw input to the identity's active session.
func (m *Manager) Submit(id int64, raw string) Outcome {
	l := m.lockFor(id)
	l.Lock()
	defer l.Unlock()

	s, ok := m.store.Get(id)
	if !ok {
		return Outcome{Kind: OutcomeNoSession}
	}

	if isCancel(raw) {
		m.store.Delete(id)
		return Outcome{Kind: OutcomeCancelled, Flow: s.Flow}
	}

	steps := s.Flow.Steps()
	step := steps[s.Step]

	val, err := parseStep(step, raw)
	if err != nil {
		// Parse errors are never fatal to the flow: same step, retry.
		return Outcome{
			Kind:   OutcomeFail,
			Flow:   s.Flow,
			Reason: err.Error(),
			Prompt: step.Prompt,
		}
	}

	s.Data[step.Field] = val
	s.Step++
	s.UpdatedAt = m.now()

	if s.Step >= len(steps) {
		m.store.Delete(id)
		m.log.Debug().
			Int64("identity", id).
			Stringer("flow", s.Flow).
			Msg("flow complete")
		return Outcome{Kind: OutcomeComplete, Flow: s.Flow, Fields: s.Data}
	}

	m.store.Put(id, s)
	return Outcome{
		Kind:   OutcomeAdvance,
		Flow:   s.Flow,
		Prompt: steps[s.Step].Prompt,
	}
}

// Cancel destroys the identity's session unconditionally. Idempotent when no
// session exists.
func (m *Manager) Cancel(id int64) {
	l := m.lockFor(id)
	l.Lock()
	defer l.Unlock()
	m.store.Delete(id)
}

// Active returns the identity's current flow, or FlowNone.
func (m *Manager) Active(id int64) Flow {
	if s, ok := m.store.Get(id); ok {
		return s.Flow
	}
	return FlowNone
}
