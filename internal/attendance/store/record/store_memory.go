// Package record persists attendance records. The store owns the
// (student, date) uniqueness constraint that arbitrates concurrent scans of
// the same student across devices.
package record

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"scangate/internal/attendance/models"
	id "scangate/pkg/domain"
	"scangate/pkg/platform/sentinel"
)

// InMemoryStore keeps records in a map. It mirrors the postgres store's
// semantics exactly, including the conflict behavior the recorder depends on,
// so unit tests exercise the real write paths.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]models.AttendanceRecord
	failErr error
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]models.AttendanceRecord)}
}

// FailWith makes every subsequent call return err. Test knob for the
// infrastructure failure paths.
func (s *InMemoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

func key(studentID id.StudentID, day id.Day) string {
	return studentID.String() + "|" + day.String()
}

func (s *InMemoryStore) FindForDay(_ context.Context, studentID id.StudentID, day id.Day) (models.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failErr != nil {
		return models.AttendanceRecord{}, s.failErr
	}
	if rec, ok := s.records[key(studentID, day)]; ok {
		return rec, nil
	}
	return models.AttendanceRecord{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) Insert(_ context.Context, studentID id.StudentID, day id.Day, kind id.EntryKind, at time.Time) (models.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return models.AttendanceRecord{}, s.failErr
	}

	k := key(studentID, day)
	if _, ok := s.records[k]; ok {
		return models.AttendanceRecord{}, sentinel.ErrConflict
	}

	rec := models.AttendanceRecord{
		ID:        uuid.New(),
		StudentID: studentID,
		Date:      day,
		CreatedAt: at,
		UpdatedAt: at,
	}
	setField(&rec, kind, at)
	s.records[k] = rec
	return rec, nil
}

func (s *InMemoryStore) SetIfAbsent(_ context.Context, studentID id.StudentID, day id.Day, kind id.EntryKind, at time.Time) (models.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return models.AttendanceRecord{}, s.failErr
	}

	k := key(studentID, day)
	rec, ok := s.records[k]
	if !ok {
		return models.AttendanceRecord{}, sentinel.ErrNotFound
	}
	if rec.Has(kind) {
		return models.AttendanceRecord{}, sentinel.ErrAlreadyRecorded
	}

	setField(&rec, kind, at)
	rec.UpdatedAt = at
	s.records[k] = rec
	return rec, nil
}

func setField(rec *models.AttendanceRecord, kind id.EntryKind, at time.Time) {
	t := at
	switch kind {
	case id.EntryTimeIn:
		rec.TimeIn = &t
	case id.EntryTimeOut:
		rec.TimeOut = &t
	}
}
