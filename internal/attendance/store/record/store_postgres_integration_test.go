//go:build integration

package record_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	recordstore "scangate/internal/attendance/store/record"
	id "scangate/pkg/domain"
	"scangate/pkg/platform/sentinel"
	"scangate/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *recordstore.PostgresStore
	manila   *time.Location

	studentID id.StudentID
	day       id.Day
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	var err error
	s.manila, err = time.LoadLocation("Asia/Manila")
	s.Require().NoError(err)

	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = recordstore.NewPostgres(s.postgres.DB, s.manila)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "attendance_records", "students"))

	s.studentID = id.NewStudentID()
	s.day = id.Day{Year: 2026, Month: time.January, DayOfMonth: 12}

	_, err := s.postgres.DB.ExecContext(ctx,
		`INSERT INTO students (id, school_id, display_name) VALUES ($1, $2, $3)`,
		s.studentID.String(), "2023-00117", "Amara Reyes",
	)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) punchTime(hour, minute int) time.Time {
	return time.Date(2026, 1, 12, hour, minute, 0, 0, s.manila)
}

func (s *PostgresStoreSuite) TestInsertAndFind() {
	ctx := context.Background()
	at := s.punchTime(7, 45)

	created, err := s.store.Insert(ctx, s.studentID, s.day, id.EntryTimeIn, at)
	s.Require().NoError(err)
	s.Equal(s.day, created.Date)
	s.Require().NotNil(created.TimeIn)
	s.True(created.TimeIn.Equal(at))
	s.Nil(created.TimeOut)

	found, err := s.store.FindForDay(ctx, s.studentID, s.day)
	s.Require().NoError(err)
	s.Equal(created.ID, found.ID)
	s.Equal(s.day, found.Date)
}

func (s *PostgresStoreSuite) TestFindForDayMissing() {
	_, err := s.store.FindForDay(context.Background(), s.studentID, s.day)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDuplicateInsertConflicts() {
	ctx := context.Background()

	_, err := s.store.Insert(ctx, s.studentID, s.day, id.EntryTimeIn, s.punchTime(7, 45))
	s.Require().NoError(err)

	_, err = s.store.Insert(ctx, s.studentID, s.day, id.EntryTimeOut, s.punchTime(14, 0))
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestSetIfAbsentCompletesRecord() {
	ctx := context.Background()

	_, err := s.store.Insert(ctx, s.studentID, s.day, id.EntryTimeIn, s.punchTime(7, 45))
	s.Require().NoError(err)

	updated, err := s.store.SetIfAbsent(ctx, s.studentID, s.day, id.EntryTimeOut, s.punchTime(14, 0))
	s.Require().NoError(err)
	s.NotNil(updated.TimeIn)
	s.NotNil(updated.TimeOut)
}

func (s *PostgresStoreSuite) TestSetIfAbsentNeverOverwrites() {
	ctx := context.Background()
	first := s.punchTime(7, 45)

	_, err := s.store.Insert(ctx, s.studentID, s.day, id.EntryTimeIn, first)
	s.Require().NoError(err)

	_, err = s.store.SetIfAbsent(ctx, s.studentID, s.day, id.EntryTimeIn, s.punchTime(8, 10))
	s.ErrorIs(err, sentinel.ErrAlreadyRecorded)

	found, err := s.store.FindForDay(ctx, s.studentID, s.day)
	s.Require().NoError(err)
	s.True(found.TimeIn.Equal(first), "existing punch must survive the rejected write")
}

func (s *PostgresStoreSuite) TestSetIfAbsentMissingRecord() {
	_, err := s.store.SetIfAbsent(context.Background(), s.studentID, s.day, id.EntryTimeOut, s.punchTime(14, 0))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestBareTimeOutInsert() {
	ctx := context.Background()

	created, err := s.store.Insert(ctx, s.studentID, s.day, id.EntryTimeOut, s.punchTime(14, 0))
	s.Require().NoError(err)
	s.Nil(created.TimeIn)
	s.NotNil(created.TimeOut)
}

// TestConcurrentInsert verifies the UNIQUE constraint arbitrates a
// multi-device race: exactly one insert wins, every loser sees a conflict.
func (s *PostgresStoreSuite) TestConcurrentInsert() {
	ctx := context.Background()
	const goroutines = 16

	var wg sync.WaitGroup
	var wins, conflicts atomic.Int32

	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Insert(ctx, s.studentID, s.day, id.EntryTimeIn, s.punchTime(7, 45))
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())
}
