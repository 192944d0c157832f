// Package scan owns one scan's lifecycle from raw decode to a committed
// record or a terminal rejection, and the per-device session façade that
// drives it.
package scan

import (
	"sync"

	"scangate/internal/attendance/models"
	"scangate/pkg/platform/sentinel"
)

// State is a node in the scan confirmation lifecycle.
type State string

const (
	StateIdle       State = "idle"
	StateDecoding   State = "decoding"
	StateResolved   State = "resolved"
	StateConfirming State = "confirming"
	StateCommitted  State = "committed"
	StateFailed     State = "failed"
	StateRejected   State = "rejected"
	StateCancelled  State = "cancelled"
)

// Terminal reports whether the state ends the machine's life.
func (s State) Terminal() bool {
	switch s {
	case StateCommitted, StateFailed, StateRejected, StateCancelled:
		return true
	}
	return false
}

// Machine drives one scan attempt through:
//
//	Idle → Decoding → Resolved → { Confirming → Committed | Failed }
//	                           | Rejected
//	                           | Cancelled
//
// A machine is single-use: once it reaches any terminal state it must not be
// reused for another scan; the session constructs a fresh instance per
// attempt. This avoids the stale-state bugs that come from reusing one
// mutable confirmation dialog across scans.
//
// Transition guarantees: a write is only ever attempted from Confirming,
// which is reachable only from Resolved with an actionable outcome.
type Machine struct {
	mu      sync.Mutex
	state   State
	attempt models.ScanAttempt
	outcome *models.ResolutionOutcome
	record  *models.AttendanceRecord
	err     error
}

// NewMachine builds an idle machine owning the given attempt.
func NewMachine(attempt models.ScanAttempt) *Machine {
	return &Machine{state: StateIdle, attempt: attempt}
}

// Snapshot is a consistent read of the machine for rendering.
type Snapshot struct {
	State   State
	Attempt models.ScanAttempt
	Outcome *models.ResolutionOutcome
	Record  *models.AttendanceRecord
	Err     error
}

// Snapshot returns the current state and payloads.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Machine) snapshotLocked() Snapshot {
	return Snapshot{
		State:   m.state,
		Attempt: m.attempt,
		Outcome: m.outcome,
		Record:  m.record,
		Err:     m.err,
	}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Begin moves Idle → Decoding when the raw payload arrives.
func (m *Machine) Begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateIdle {
		return sentinel.ErrInvalidState
	}
	m.state = StateDecoding
	return nil
}

// ResolveSucceeded moves Decoding → Resolved for actionable outcomes and
// Decoding → Rejected for everything else: when no write is ever valid there
// is nothing to confirm, so the machine terminates immediately carrying the
// outcome. The returned snapshot is taken inside the transition, so observers
// handed it can never see a later state.
func (m *Machine) ResolveSucceeded(outcome models.ResolutionOutcome) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateDecoding {
		return m.snapshotLocked(), sentinel.ErrInvalidState
	}
	m.outcome = &outcome
	if outcome.Actionable() {
		m.state = StateResolved
	} else {
		m.state = StateRejected
	}
	return m.snapshotLocked(), nil
}

// ResolveFailed moves Decoding → Failed on infrastructure errors. The caller
// may retry with a fresh machine and the same payload.
func (m *Machine) ResolveFailed(err error) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateDecoding {
		return m.snapshotLocked(), sentinel.ErrInvalidState
	}
	m.state = StateFailed
	m.err = err
	return m.snapshotLocked(), nil
}

// BeginConfirm moves Resolved → Confirming. Only an actionable resolution can
// be confirmed; anywhere else is a caller error.
func (m *Machine) BeginConfirm() (models.ResolutionOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateResolved || m.outcome == nil || !m.outcome.Actionable() {
		return models.ResolutionOutcome{}, sentinel.ErrInvalidState
	}
	m.state = StateConfirming
	return *m.outcome, nil
}

// CommitSucceeded moves Confirming → Committed with the written record.
func (m *Machine) CommitSucceeded(record models.AttendanceRecord) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateConfirming {
		return m.snapshotLocked(), sentinel.ErrInvalidState
	}
	m.state = StateCommitted
	m.record = &record
	return m.snapshotLocked(), nil
}

// CommitFailed moves Confirming → Failed.
func (m *Machine) CommitFailed(err error) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateConfirming {
		return m.snapshotLocked(), sentinel.ErrInvalidState
	}
	m.state = StateFailed
	m.err = err
	return m.snapshotLocked(), nil
}

// Cancel moves Resolved → Cancelled. While Confirming, the write is already
// in flight, so the request is absorbed as a no-op rather than leaving
// storage ambiguous; the returned snapshot then still shows Confirming. In
// any other state cancel is a no-op signalling a caller error.
func (m *Machine) Cancel() (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case StateResolved:
		m.state = StateCancelled
		return m.snapshotLocked(), nil
	case StateConfirming:
		return m.snapshotLocked(), nil
	default:
		return m.snapshotLocked(), sentinel.ErrInvalidState
	}
}
