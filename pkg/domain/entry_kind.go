package domain

import dErrors "scangate/pkg/domain-errors"

// EntryKind is the attendance field a scan writes: the morning time-in or the
// afternoon time-out.
//
// Usage: construct via ParseEntryKind at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type EntryKind string

const (
	EntryTimeIn  EntryKind = "time_in"
	EntryTimeOut EntryKind = "time_out"
)

// validEntryKinds is the single source of truth for valid entry kinds.
var validEntryKinds = map[EntryKind]bool{
	EntryTimeIn:  true,
	EntryTimeOut: true,
}

// ParseEntryKind constructs an EntryKind from external input.
func ParseEntryKind(s string) (EntryKind, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "entry kind cannot be empty")
	}
	k := EntryKind(s)
	if !k.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid entry kind")
	}
	return k, nil
}

// IsValid checks if the entry kind is one of the supported enum values.
func (k EntryKind) IsValid() bool {
	return validEntryKinds[k]
}

// String returns the string representation of the entry kind.
func (k EntryKind) String() string {
	return string(k)
}
