// Package domain holds the shared domain primitives: typed identifiers and
// small value types parsed at trust boundaries so invalid values cannot travel
// deeper into the system.
package domain

import (
	"github.com/google/uuid"

	dErrors "scangate/pkg/domain-errors"
)

// StudentID identifies a student row in the directory.
// Invariant: a valid, non-nil UUID. Construct via ParseStudentID at trust
// boundaries; direct casting bypasses validation.
type StudentID uuid.UUID

// ParseStudentID constructs a StudentID from external input.
func ParseStudentID(s string) (StudentID, error) {
	u, err := parseUUID(s, "student_id")
	return StudentID(u), err
}

func (id StudentID) String() string {
	return uuid.UUID(id).String()
}

func (id StudentID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

// NewStudentID generates a fresh StudentID. Used by seeds and tests.
func NewStudentID() StudentID {
	return StudentID(uuid.New())
}

// DeviceID identifies a scanning station. Unlike StudentID it is an opaque
// string because device identifiers are provisioned by operators, not minted
// by us.
type DeviceID string

// ParseDeviceID validates an externally supplied device identifier.
func ParseDeviceID(s string) (DeviceID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "device_id cannot be empty")
	}
	return DeviceID(s), nil
}

func (id DeviceID) String() string {
	return string(id)
}

func (id DeviceID) IsNil() bool {
	return id == ""
}

func parseUUID(s, field string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" cannot be the nil UUID")
	}
	return u, nil
}
