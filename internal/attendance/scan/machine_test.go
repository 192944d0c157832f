package scan

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"scangate/internal/attendance/models"
	id "scangate/pkg/domain"
	"scangate/pkg/platform/sentinel"
)

type MachineSuite struct {
	suite.Suite
}

func TestMachineSuite(t *testing.T) {
	suite.Run(t, new(MachineSuite))
}

func (s *MachineSuite) newAttempt() models.ScanAttempt {
	return models.ScanAttempt{
		ID:         uuid.NewString(),
		RawPayload: "2023-00117",
		Timestamp:  time.Date(2026, 1, 12, 7, 45, 0, 0, time.UTC),
		DeviceID:   id.DeviceID("gate-1"),
	}
}

func (s *MachineSuite) actionable() models.ResolutionOutcome {
	return models.ResolutionOutcome{
		Kind:    models.OutcomeReadyToRecord,
		Student: &models.Student{ID: id.NewStudentID(), SchoolID: "2023-00117"},
		Entry:   id.EntryTimeIn,
	}
}

func (s *MachineSuite) TestHappyPathToCommitted() {
	m := NewMachine(s.newAttempt())
	s.Equal(StateIdle, m.State())

	s.Require().NoError(m.Begin())
	s.Equal(StateDecoding, m.State())

	resolved, err := m.ResolveSucceeded(s.actionable())
	s.Require().NoError(err)
	s.Equal(StateResolved, resolved.State)

	outcome, err := m.BeginConfirm()
	s.Require().NoError(err)
	s.Equal(models.OutcomeReadyToRecord, outcome.Kind)
	s.Equal(StateConfirming, m.State())

	rec := models.AttendanceRecord{ID: uuid.New()}
	committed, err := m.CommitSucceeded(rec)
	s.Require().NoError(err)
	s.Equal(StateCommitted, committed.State)

	snap := m.Snapshot()
	s.Equal(StateCommitted, snap.State)
	s.Require().NotNil(snap.Record)
	s.Equal(rec.ID, snap.Record.ID)
	s.True(snap.State.Terminal())
}

func (s *MachineSuite) TestNonActionableOutcomeRejectsImmediately() {
	for _, kind := range []models.OutcomeKind{
		models.OutcomeStudentNotFound,
		models.OutcomeOutsideWindow,
		models.OutcomeAlreadyComplete,
		models.OutcomeAlreadyTimedIn,
	} {
		s.Run(string(kind), func() {
			m := NewMachine(s.newAttempt())
			s.Require().NoError(m.Begin())

			snap, err := m.ResolveSucceeded(models.ResolutionOutcome{Kind: kind})
			s.Require().NoError(err)
			s.Equal(StateRejected, snap.State)

			_, err = m.BeginConfirm()
			s.ErrorIs(err, sentinel.ErrInvalidState)
		})
	}
}

func (s *MachineSuite) TestResolveFailure() {
	m := NewMachine(s.newAttempt())
	s.Require().NoError(m.Begin())

	cause := errors.New("directory down")
	failed, err := m.ResolveFailed(cause)
	s.Require().NoError(err)
	s.Equal(StateFailed, failed.State)

	snap := m.Snapshot()
	s.Equal(StateFailed, snap.State)
	s.ErrorIs(snap.Err, cause)
}

func (s *MachineSuite) TestCommitFailure() {
	m := NewMachine(s.newAttempt())
	s.Require().NoError(m.Begin())
	_, err := m.ResolveSucceeded(s.actionable())
	s.Require().NoError(err)
	_, err = m.BeginConfirm()
	s.Require().NoError(err)

	cause := errors.New("write timed out")
	failed, err := m.CommitFailed(cause)
	s.Require().NoError(err)
	s.Equal(StateFailed, failed.State)
	s.Equal(StateFailed, m.State())
}

func (s *MachineSuite) TestCancelFromResolved() {
	m := NewMachine(s.newAttempt())
	s.Require().NoError(m.Begin())
	_, err := m.ResolveSucceeded(s.actionable())
	s.Require().NoError(err)

	snap, err := m.Cancel()
	s.Require().NoError(err)
	s.Equal(StateCancelled, snap.State)
	s.Equal(StateCancelled, m.State())
}

func (s *MachineSuite) TestCancelDuringConfirmIsAbsorbed() {
	m := NewMachine(s.newAttempt())
	s.Require().NoError(m.Begin())
	_, err := m.ResolveSucceeded(s.actionable())
	s.Require().NoError(err)
	_, err = m.BeginConfirm()
	s.Require().NoError(err)

	snap, err := m.Cancel()
	s.Require().NoError(err)
	s.Equal(StateConfirming, snap.State)
	s.Equal(StateConfirming, m.State())

	_, err = m.CommitSucceeded(models.AttendanceRecord{ID: uuid.New()})
	s.Require().NoError(err)
	s.Equal(StateCommitted, m.State())
}

func (s *MachineSuite) TestCancelElsewhereIsCallerError() {
	m := NewMachine(s.newAttempt())

	snap, err := m.Cancel()
	s.ErrorIs(err, sentinel.ErrInvalidState)
	s.Equal(StateIdle, snap.State)
	s.Equal(StateIdle, m.State())
}

func (s *MachineSuite) TestTerminalMachineRejectsReuse() {
	m := NewMachine(s.newAttempt())
	s.Require().NoError(m.Begin())
	_, err := m.ResolveSucceeded(s.actionable())
	s.Require().NoError(err)
	snap, err := m.Cancel()
	s.Require().NoError(err)
	s.Require().Equal(StateCancelled, snap.State)

	s.ErrorIs(m.Begin(), sentinel.ErrInvalidState)
	_, err = m.ResolveSucceeded(s.actionable())
	s.ErrorIs(err, sentinel.ErrInvalidState)
	_, err = m.BeginConfirm()
	s.ErrorIs(err, sentinel.ErrInvalidState)
	_, err = m.CommitSucceeded(models.AttendanceRecord{})
	s.ErrorIs(err, sentinel.ErrInvalidState)
}

func (s *MachineSuite) TestDoubleConfirmRejected() {
	m := NewMachine(s.newAttempt())
	s.Require().NoError(m.Begin())
	_, err := m.ResolveSucceeded(s.actionable())
	s.Require().NoError(err)
	_, err = m.BeginConfirm()
	s.Require().NoError(err)

	_, err = m.BeginConfirm()
	s.ErrorIs(err, sentinel.ErrInvalidState)
}

// A snapshot returned by a transition describes that transition even after
// the machine has moved on, so observers handed one can never render a later
// state.
func (s *MachineSuite) TestTransitionSnapshotOutlivesLaterTransitions() {
	m := NewMachine(s.newAttempt())
	s.Require().NoError(m.Begin())

	resolved, err := m.ResolveSucceeded(s.actionable())
	s.Require().NoError(err)

	_, err = m.BeginConfirm()
	s.Require().NoError(err)
	committed, err := m.CommitSucceeded(models.AttendanceRecord{ID: uuid.New()})
	s.Require().NoError(err)

	s.Equal(StateResolved, resolved.State)
	s.Nil(resolved.Record)
	s.Equal(StateCommitted, committed.State)
	s.NotNil(committed.Record)
}
