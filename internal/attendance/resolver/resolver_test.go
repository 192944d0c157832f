package resolver_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"scangate/internal/attendance/models"
	"scangate/internal/attendance/resolver"
	"scangate/internal/attendance/schedule"
	recordstore "scangate/internal/attendance/store/record"
	studentstore "scangate/internal/attendance/store/student"
	id "scangate/pkg/domain"
	dErrors "scangate/pkg/domain-errors"
)

type ResolverSuite struct {
	suite.Suite
	ctx       context.Context
	loc       *time.Location
	directory *studentstore.InMemoryDirectory
	records   *recordstore.InMemoryStore
	resolver  *resolver.Resolver
	student   models.Student
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) SetupSubTest() {
	s.SetupTest()
}

func (s *ResolverSuite) SetupTest() {
	s.ctx = context.Background()

	loc, err := time.LoadLocation("Asia/Manila")
	s.Require().NoError(err)
	s.loc = loc

	s.directory = studentstore.NewInMemoryDirectory()
	s.records = recordstore.NewInMemoryStore()
	s.resolver = resolver.New(s.directory, s.records, schedule.NewPolicy(loc))

	s.student = models.Student{
		ID:          id.NewStudentID(),
		SchoolID:    "2023-00117",
		DisplayName: "Amara Reyes",
	}
	s.directory.Add(s.student)
}

func (s *ResolverSuite) at(hhmmss string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04:05", "2026-03-09 "+hhmmss, s.loc)
	s.Require().NoError(err)
	return t
}

func (s *ResolverSuite) seedRecord(timeIn, timeOut string) models.AttendanceRecord {
	day := id.DayOf(s.at("08:00:00"))
	var rec models.AttendanceRecord
	var err error
	if timeIn != "" {
		rec, err = s.records.Insert(s.ctx, s.student.ID, day, id.EntryTimeIn, s.at(timeIn))
		s.Require().NoError(err)
	}
	if timeOut != "" {
		if timeIn == "" {
			rec, err = s.records.Insert(s.ctx, s.student.ID, day, id.EntryTimeOut, s.at(timeOut))
		} else {
			rec, err = s.records.SetIfAbsent(s.ctx, s.student.ID, day, id.EntryTimeOut, s.at(timeOut))
		}
		s.Require().NoError(err)
	}
	return rec
}

func (s *ResolverSuite) TestPayloadValidation() {
	s.Run("blank payload is an input error, not an unknown student", func() {
		for _, raw := range []string{"", "   ", "\t\n"} {
			outcome, err := s.resolver.Resolve(s.ctx, raw, s.at("08:00:00"))
			s.Require().NoError(err)
			s.Equal(models.OutcomeStudentNotFound, outcome.Kind)
			s.True(outcome.InputError)
		}
	})

	s.Run("payload is trimmed before lookup", func() {
		outcome, err := s.resolver.Resolve(s.ctx, "  2023-00117  ", s.at("08:00:00"))
		s.Require().NoError(err)
		s.Equal(models.OutcomeReadyToRecord, outcome.Kind)
		s.Equal(s.student.ID, outcome.Student.ID)
	})
}

func (s *ResolverSuite) TestStudentNotFound() {
	outcome, err := s.resolver.Resolve(s.ctx, "ZZZZ", s.at("08:00:00"))
	s.Require().NoError(err)
	s.Equal(models.OutcomeStudentNotFound, outcome.Kind)
	s.False(outcome.InputError)
}

func (s *ResolverSuite) TestOutsideWindow() {
	s.Run("one second before time-in opens", func() {
		outcome, err := s.resolver.Resolve(s.ctx, s.student.SchoolID, s.at("06:59:59"))
		s.Require().NoError(err)
		s.Equal(models.OutcomeOutsideWindow, outcome.Kind)
		s.Equal(s.student.ID, outcome.Student.ID)
	})

	s.Run("window check precedes record lookup", func() {
		// No record exists, and none is read: outside the windows the
		// outcome carries no record either way.
		outcome, err := s.resolver.Resolve(s.ctx, s.student.SchoolID, s.at("12:00:00"))
		s.Require().NoError(err)
		s.Equal(models.OutcomeOutsideWindow, outcome.Kind)
		s.Nil(outcome.Record)
	})
}

func (s *ResolverSuite) TestNoRecordYet() {
	s.Run("time-in window yields ready to record time-in", func() {
		outcome, err := s.resolver.Resolve(s.ctx, s.student.SchoolID, s.at("07:00:00"))
		s.Require().NoError(err)
		s.Equal(models.OutcomeReadyToRecord, outcome.Kind)
		s.Equal(id.EntryTimeIn, outcome.Entry)
		s.Nil(outcome.Record)
	})

	s.Run("time-out window yields ready to record bare time-out", func() {
		outcome, err := s.resolver.Resolve(s.ctx, s.student.SchoolID, s.at("14:00:00"))
		s.Require().NoError(err)
		s.Equal(models.OutcomeReadyToRecord, outcome.Kind)
		s.Equal(id.EntryTimeOut, outcome.Entry)
	})
}

func (s *ResolverSuite) TestTimedInOnly() {
	s.Run("rescan during time-in window is rejected", func() {
		rec := s.seedRecord("07:10:00", "")
		outcome, err := s.resolver.Resolve(s.ctx, s.student.SchoolID, s.at("09:00:00"))
		s.Require().NoError(err)
		s.Equal(models.OutcomeAlreadyTimedIn, outcome.Kind)
		s.Require().NotNil(outcome.Record)
		s.Equal(rec.TimeIn, outcome.Record.TimeIn)
	})

	s.Run("scan during time-out window is ready to record time-out", func() {
		s.seedRecord("07:10:00", "")
		outcome, err := s.resolver.Resolve(s.ctx, s.student.SchoolID, s.at("14:00:00"))
		s.Require().NoError(err)
		s.Equal(models.OutcomeReadyToRecord, outcome.Kind)
		s.Equal(id.EntryTimeOut, outcome.Entry)
		s.NotNil(outcome.Record)
	})
}

func (s *ResolverSuite) TestCompleteRecord() {
	s.seedRecord("07:10:00", "16:05:00")

	for _, at := range []string{"08:00:00", "14:00:00"} {
		outcome, err := s.resolver.Resolve(s.ctx, s.student.SchoolID, s.at(at))
		s.Require().NoError(err)
		s.Equal(models.OutcomeAlreadyComplete, outcome.Kind, "at %s", at)
		s.NotNil(outcome.Record)
	}
}

func (s *ResolverSuite) TestBareTimeOutRecord() {
	s.Run("time-out window has nothing left to write", func() {
		s.seedRecord("", "13:30:00")
		outcome, err := s.resolver.Resolve(s.ctx, s.student.SchoolID, s.at("15:00:00"))
		s.Require().NoError(err)
		s.Equal(models.OutcomeAlreadyComplete, outcome.Kind)
	})
}

func (s *ResolverSuite) TestInfrastructureFailure() {
	s.directory.FailWith(context.DeadlineExceeded)

	_, err := s.resolver.Resolve(s.ctx, s.student.SchoolID, s.at("08:00:00"))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
}

func TestResolver_StoreUnavailable(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Manila")
	require.NoError(t, err)

	directory := studentstore.NewInMemoryDirectory()
	student := models.Student{ID: id.NewStudentID(), SchoolID: "2023-00117"}
	directory.Add(student)

	records := recordstore.NewInMemoryStore()
	records.FailWith(connRefused{})

	r := resolver.New(directory, records, schedule.NewPolicy(loc))
	now, err := time.ParseInLocation("2006-01-02 15:04:05", "2026-03-09 08:00:00", loc)
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), student.SchoolID, now)
	require.Error(t, err)
	require.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}

type connRefused struct{}

func (connRefused) Error() string { return "connection refused" }
