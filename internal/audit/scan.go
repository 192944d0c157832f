package audit

import (
	"context"

	"github.com/google/uuid"

	"scangate/internal/attendance/ports"
)

// ScanEvents adapts the scan engine's fire-and-forget event boundary onto
// the publisher. Emit failures are swallowed after logging inside the
// publisher path; the scan engine never waits on the audit trail.
type ScanEvents struct {
	pub *Publisher
}

func NewScanEvents(pub *Publisher) *ScanEvents {
	return &ScanEvents{pub: pub}
}

func (s *ScanEvents) Emit(ctx context.Context, event ports.AuditEvent) {
	e := Event{
		ID:        uuid.New(),
		Action:    event.Action,
		Timestamp: event.Timestamp,
		DeviceID:  event.DeviceID.String(),
		Outcome:   event.Outcome,
		Detail:    event.Detail,
		RequestID: event.RequestID,
		Station:   event.Station,
		ClientIP:  event.ClientIP,
		UserAgent: event.UserAgent,
	}
	if !event.StudentID.IsNil() {
		e.StudentID = event.StudentID.String()
	}
	_ = s.pub.Emit(ctx, e)
}
