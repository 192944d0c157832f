// Package ports defines the collaborator interfaces the scan engine consumes.
// Stores, directories, and audit sinks are external to the engine; everything
// here is satisfied by memory implementations in tests.
package ports

//go:generate mockgen -source=ports.go -destination=../mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"scangate/internal/attendance/models"
	id "scangate/pkg/domain"
)

// StudentDirectory resolves a raw scanned payload to a student. Payloads are
// matched as school IDs first, internal UUIDs second.
// Returns sentinel.ErrNotFound (possibly wrapped) when no student matches.
type StudentDirectory interface {
	LookupByPayload(ctx context.Context, payload string) (models.Student, error)
}

// AttendanceStore is the record store boundary. The store enforces the
// (student, date) uniqueness constraint that arbitrates cross-device races.
type AttendanceStore interface {
	// FindForDay returns the student's record for the given day, or
	// sentinel.ErrNotFound when none exists.
	FindForDay(ctx context.Context, studentID id.StudentID, day id.Day) (models.AttendanceRecord, error)

	// Insert creates the day's record with exactly one punch field set.
	// Returns sentinel.ErrConflict when a record for (studentID, day) already
	// exists.
	Insert(ctx context.Context, studentID id.StudentID, day id.Day, kind id.EntryKind, at time.Time) (models.AttendanceRecord, error)

	// SetIfAbsent populates the given punch field on an existing record only
	// if it is currently null. Returns sentinel.ErrAlreadyRecorded when the
	// field is already populated and sentinel.ErrNotFound when no record
	// exists for (studentID, day).
	SetIfAbsent(ctx context.Context, studentID id.StudentID, day id.Day, kind id.EntryKind, at time.Time) (models.AttendanceRecord, error)
}

// AuditPublisher receives scan lifecycle events. Implementations must not
// block the scan path; fire-and-forget semantics are expected.
type AuditPublisher interface {
	Emit(ctx context.Context, event AuditEvent)
}

// AuditEvent is the minimal scan event shape the engine emits. The audit
// module adapts it onto its own envelope. Station, ClientIP and UserAgent
// come from the request context the middleware stamped; they identify which
// gate and which kiosk build produced the scan when records are disputed.
type AuditEvent struct {
	Action    string
	Timestamp time.Time
	DeviceID  id.DeviceID
	StudentID id.StudentID
	Outcome   string
	Detail    string
	RequestID string
	Station   string
	ClientIP  string
	UserAgent string
}
