package record

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "scangate/pkg/domain"
	"scangate/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
	sid   id.StudentID
	day   id.Day
	at    time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupSubTest() {
	s.SetupTest()
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
	s.sid = id.NewStudentID()

	loc, err := time.LoadLocation("Asia/Manila")
	s.Require().NoError(err)
	s.at = time.Date(2026, time.March, 9, 7, 12, 0, 0, loc)
	s.day = id.DayOf(s.at)
}

func (s *InMemoryStoreSuite) TestFindForDay() {
	s.Run("missing record returns not found", func() {
		_, err := s.store.FindForDay(s.ctx, s.sid, s.day)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("inserted record is found on its day only", func() {
		_, err := s.store.Insert(s.ctx, s.sid, s.day, id.EntryTimeIn, s.at)
		s.Require().NoError(err)

		rec, err := s.store.FindForDay(s.ctx, s.sid, s.day)
		s.Require().NoError(err)
		s.Require().NotNil(rec.TimeIn)
		s.Equal(s.at, *rec.TimeIn)
		s.Nil(rec.TimeOut)

		nextDay := id.DayOf(s.at.Add(24 * time.Hour))
		_, err = s.store.FindForDay(s.ctx, s.sid, nextDay)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestInsert() {
	s.Run("second insert for same day conflicts", func() {
		_, err := s.store.Insert(s.ctx, s.sid, s.day, id.EntryTimeIn, s.at)
		s.Require().NoError(err)

		_, err = s.store.Insert(s.ctx, s.sid, s.day, id.EntryTimeOut, s.at)
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("bare time-out insert is allowed", func() {
		sid := id.NewStudentID()
		rec, err := s.store.Insert(s.ctx, sid, s.day, id.EntryTimeOut, s.at)
		s.Require().NoError(err)
		s.Nil(rec.TimeIn)
		s.NotNil(rec.TimeOut)
	})
}

func (s *InMemoryStoreSuite) TestSetIfAbsent() {
	s.Run("missing record returns not found", func() {
		_, err := s.store.SetIfAbsent(s.ctx, s.sid, s.day, id.EntryTimeOut, s.at)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("fills only the empty field", func() {
		_, err := s.store.Insert(s.ctx, s.sid, s.day, id.EntryTimeIn, s.at)
		s.Require().NoError(err)

		out := s.at.Add(7 * time.Hour)
		rec, err := s.store.SetIfAbsent(s.ctx, s.sid, s.day, id.EntryTimeOut, out)
		s.Require().NoError(err)
		s.Require().NotNil(rec.TimeOut)
		s.Equal(out, *rec.TimeOut)
		s.Equal(s.at, *rec.TimeIn)
	})

	s.Run("populated field is never overwritten", func() {
		_, err := s.store.Insert(s.ctx, s.sid, s.day, id.EntryTimeIn, s.at)
		s.Require().NoError(err)

		_, err = s.store.SetIfAbsent(s.ctx, s.sid, s.day, id.EntryTimeIn, s.at.Add(time.Minute))
		s.Require().ErrorIs(err, sentinel.ErrAlreadyRecorded)

		rec, err := s.store.FindForDay(s.ctx, s.sid, s.day)
		s.Require().NoError(err)
		s.Equal(s.at, *rec.TimeIn)
	})
}

// Concurrent inserts for the same (student, day) must produce exactly one
// winner; everyone else sees the conflict.
func (s *InMemoryStoreSuite) TestConcurrentInsert() {
	const goroutines = 32

	var wg sync.WaitGroup
	conflicts := make(chan error, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Insert(s.ctx, s.sid, s.day, id.EntryTimeIn, s.at)
			conflicts <- err
		}()
	}
	wg.Wait()
	close(conflicts)

	var wins, losses int
	for err := range conflicts {
		if err == nil {
			wins++
		} else {
			s.Require().ErrorIs(err, sentinel.ErrConflict)
			losses++
		}
	}
	s.Equal(1, wins)
	s.Equal(goroutines-1, losses)
}
