package handler

import (
	"time"

	"scangate/internal/attendance/models"
	"scangate/internal/attendance/scan"
	dErrors "scangate/pkg/domain-errors"
)

// ScanAcceptedResponse is the HTTP response for POST /v1/scan.
type ScanAcceptedResponse struct {
	AttemptID string `json:"attempt_id"`
	State     string `json:"state"`
}

// ScanStateResponse is the HTTP response for GET /v1/scan and the terminal
// responses of confirm. Exactly one of Outcome, Record, Error is populated
// past the State field, depending on where the scan lifecycle stands.
type ScanStateResponse struct {
	AttemptID string           `json:"attempt_id"`
	State     string           `json:"state"`
	Outcome   *OutcomeResponse `json:"outcome,omitempty"`
	Record    *RecordResponse  `json:"record,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// OutcomeResponse is the resolution portion of a scan state.
type OutcomeResponse struct {
	Kind       string           `json:"kind"`
	InputError bool             `json:"input_error,omitempty"`
	Entry      string           `json:"entry,omitempty"`
	Student    *StudentResponse `json:"student,omitempty"`
}

// StudentResponse identifies the matched student for the confirmation
// dialog.
type StudentResponse struct {
	ID          string `json:"id"`
	SchoolID    string `json:"school_id"`
	DisplayName string `json:"display_name"`
}

// RecordResponse is the attendance record shape returned to devices.
type RecordResponse struct {
	ID        string           `json:"id"`
	StudentID string           `json:"student_id"`
	Date      string           `json:"date"`
	TimeIn    *time.Time       `json:"time_in"`
	TimeOut   *time.Time       `json:"time_out"`
	Student   *StudentResponse `json:"student,omitempty"`
}

// FromSnapshot converts a scan snapshot to its HTTP shape.
func FromSnapshot(snap scan.Snapshot) ScanStateResponse {
	resp := ScanStateResponse{
		AttemptID: snap.Attempt.ID,
		State:     string(snap.State),
	}
	if snap.Outcome != nil {
		resp.Outcome = fromOutcome(*snap.Outcome)
	}
	if snap.Record != nil {
		record := FromRecord(*snap.Record)
		resp.Record = &record
	}
	if snap.Err != nil {
		resp.Error = string(dErrors.CodeOf(snap.Err))
	}
	return resp
}

func fromOutcome(outcome models.ResolutionOutcome) *OutcomeResponse {
	resp := &OutcomeResponse{
		Kind:       string(outcome.Kind),
		InputError: outcome.InputError,
	}
	if outcome.Kind == models.OutcomeReadyToRecord {
		resp.Entry = outcome.Entry.String()
	}
	if outcome.Student != nil {
		resp.Student = &StudentResponse{
			ID:          outcome.Student.ID.String(),
			SchoolID:    outcome.Student.SchoolID,
			DisplayName: outcome.Student.DisplayName,
		}
	}
	return resp
}

// FromRecord converts a domain record to its HTTP shape.
func FromRecord(record models.AttendanceRecord) RecordResponse {
	return RecordResponse{
		ID:        record.ID.String(),
		StudentID: record.StudentID.String(),
		Date:      record.Date.String(),
		TimeIn:    record.TimeIn,
		TimeOut:   record.TimeOut,
	}
}
