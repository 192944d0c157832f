// Package audit records scan lifecycle events for the attendance trail. The
// trail answers "who scanned what, when, on which gate" during disputes, so
// events carry correlation IDs but never raw QR payloads.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event is one audit trail entry. Keep it transport-agnostic so memory and
// Kafka sinks can fan out. Identifier fields are plain strings so the JSON
// shape on the wire stays stable regardless of how the domain types evolve.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	DeviceID  string    `json:"device_id"`
	StudentID string    `json:"student_id,omitempty"`
	Outcome   string    `json:"outcome,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Station   string    `json:"station,omitempty"`
	ClientIP  string    `json:"client_ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
}

// Store is an append-only audit sink.
type Store interface {
	Append(ctx context.Context, event Event) error
}
