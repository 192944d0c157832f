// Package student provides read-only directory lookups for resolving scanned
// payloads to students. The directory is owned by the portal's enrollment
// system; this subsystem never writes it.
package student

import (
	"context"
	"sync"

	"scangate/internal/attendance/models"
	id "scangate/pkg/domain"
	"scangate/pkg/platform/sentinel"
)

// InMemoryDirectory keeps students in maps keyed by school ID and internal ID.
// It intentionally favors clarity over performance.
type InMemoryDirectory struct {
	mu         sync.RWMutex
	bySchoolID map[string]models.Student
	byID       map[id.StudentID]models.Student
	failErr    error
}

func NewInMemoryDirectory() *InMemoryDirectory {
	return &InMemoryDirectory{
		bySchoolID: make(map[string]models.Student),
		byID:       make(map[id.StudentID]models.Student),
	}
}

// Add registers a student. Used by seeds and tests.
func (d *InMemoryDirectory) Add(student models.Student) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bySchoolID[student.SchoolID] = student
	d.byID[student.ID] = student
}

// FailWith makes every subsequent lookup return err. Test knob for the
// infrastructure failure paths.
func (d *InMemoryDirectory) FailWith(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failErr = err
}

// LookupByPayload matches the payload as a school ID first, then as an
// internal UUID.
func (d *InMemoryDirectory) LookupByPayload(_ context.Context, payload string) (models.Student, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.failErr != nil {
		return models.Student{}, d.failErr
	}

	if student, ok := d.bySchoolID[payload]; ok {
		return student, nil
	}
	if studentID, err := id.ParseStudentID(payload); err == nil {
		if student, ok := d.byID[studentID]; ok {
			return student, nil
		}
	}
	return models.Student{}, sentinel.ErrNotFound
}
