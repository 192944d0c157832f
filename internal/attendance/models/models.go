// Package models holds the attendance domain types shared by the resolver,
// the scan state machine, the recorder, and the stores.
package models

import (
	"time"

	"github.com/google/uuid"

	id "scangate/pkg/domain"
)

// Student is read-only to this subsystem; the directory owns it. SchoolID is
// what gets printed on the QR card, ID is our internal key.
type Student struct {
	ID          id.StudentID
	SchoolID    string
	DisplayName string
}

// AttendanceRecord is the one-per-(student, day) row this engine writes.
//
// Invariants:
//   - at most one record per (StudentID, Date), enforced by the store
//   - TimeOut set implies TimeIn set, except for the bare time-out rows the
//     portal has always allowed (see resolver decision table)
//   - a record is written at most twice per day: once for TimeIn, once for
//     TimeOut; neither field is ever overwritten
type AttendanceRecord struct {
	ID        uuid.UUID
	StudentID id.StudentID
	Date      id.Day
	TimeIn    *time.Time
	TimeOut   *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Complete reports whether both punches are on record.
func (r AttendanceRecord) Complete() bool {
	return r.TimeIn != nil && r.TimeOut != nil
}

// Has reports whether the field for the given entry kind is populated.
func (r AttendanceRecord) Has(kind id.EntryKind) bool {
	switch kind {
	case id.EntryTimeIn:
		return r.TimeIn != nil
	case id.EntryTimeOut:
		return r.TimeOut != nil
	}
	return false
}

// OutcomeKind tags a ResolutionOutcome variant.
type OutcomeKind string

const (
	// OutcomeStudentNotFound covers both unknown payloads and empty/blank
	// payloads; InputError distinguishes the latter.
	OutcomeStudentNotFound OutcomeKind = "student_not_found"
	// OutcomeOutsideWindow means capture is closed at the scan time.
	OutcomeOutsideWindow OutcomeKind = "outside_window"
	// OutcomeAlreadyComplete means both punches exist; nothing to write.
	OutcomeAlreadyComplete OutcomeKind = "already_complete"
	// OutcomeAlreadyTimedIn means a time-in exists and the scan landed in the
	// time-in window; re-punching is rejected.
	OutcomeAlreadyTimedIn OutcomeKind = "already_timed_in"
	// OutcomeReadyToRecord means a write is valid; Kind says which field.
	OutcomeReadyToRecord OutcomeKind = "ready_to_record"
)

// ResolutionOutcome is the classification of one scan against the time-window
// policy and the student's existing record. It is data, not an error: every
// variant is an expected, user-facing condition.
type ResolutionOutcome struct {
	Kind OutcomeKind
	// InputError is true for StudentNotFound outcomes caused by an empty or
	// blank payload rather than an unknown student.
	InputError bool
	// Student is set for every outcome past directory lookup.
	Student *Student
	// Record carries today's record when one exists.
	Record *AttendanceRecord
	// Entry is the field a ReadyToRecord outcome would write.
	Entry id.EntryKind
}

// Actionable reports whether the outcome permits a write.
func (o ResolutionOutcome) Actionable() bool {
	return o.Kind == OutcomeReadyToRecord
}

// ScanAttempt is the ephemeral state of one scan-confirm-or-cancel cycle. It
// is owned exclusively by the state machine instance handling it and is never
// persisted.
type ScanAttempt struct {
	ID         string
	RawPayload string
	Timestamp  time.Time
	DeviceID   id.DeviceID
	Outcome    *ResolutionOutcome
	Err        error
}
