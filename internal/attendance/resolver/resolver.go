// Package resolver classifies an incoming scan against the time-window policy
// and the student's existing attendance state. The decision table here is the
// single source of truth for duplicate and edge handling; no other component
// re-implements it.
package resolver

import (
	"context"
	"errors"
	"strings"
	"time"

	"scangate/internal/attendance/models"
	"scangate/internal/attendance/ports"
	"scangate/internal/attendance/schedule"
	id "scangate/pkg/domain"
	dErrors "scangate/pkg/domain-errors"
	"scangate/pkg/platform/sentinel"
)

// Resolver computes the resolution outcome for one decoded scan payload.
type Resolver struct {
	directory ports.StudentDirectory
	records   ports.AttendanceStore
	policy    *schedule.Policy
}

func New(directory ports.StudentDirectory, records ports.AttendanceStore, policy *schedule.Policy) *Resolver {
	return &Resolver{
		directory: directory,
		records:   records,
		policy:    policy,
	}
}

// Resolve classifies one scan. Classification results are data; the returned
// error is reserved for infrastructure failures (directory or store
// unreachable, deadline exceeded), which abort resolution so the caller can
// retry the same payload.
//
// Rule priority (fail-fast):
//  1. Payload validation - blank scans never reach the directory
//  2. Student lookup - unknown payloads are user-facing, not errors
//  3. Window check - capture closed means no record reads are needed
//  4. Decision table over (today's record x window)
func (r *Resolver) Resolve(ctx context.Context, rawPayload string, now time.Time) (models.ResolutionOutcome, error) {
	// Rule 1: payload validation.
	payload := strings.TrimSpace(rawPayload)
	if payload == "" {
		return models.ResolutionOutcome{
			Kind:       models.OutcomeStudentNotFound,
			InputError: true,
		}, nil
	}

	// Rule 2: directory lookup.
	student, err := r.directory.LookupByPayload(ctx, payload)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.ResolutionOutcome{Kind: models.OutcomeStudentNotFound}, nil
		}
		return models.ResolutionOutcome{}, infra(err, "student lookup failed")
	}

	// Rule 3: window check.
	class := r.policy.Classify(now)
	if !class.CanCapture {
		return models.ResolutionOutcome{
			Kind:    models.OutcomeOutsideWindow,
			Student: &student,
		}, nil
	}

	// Rule 4: decision table over (today's record x window).
	day := id.DayOf(now.In(r.policy.Location()))
	record, err := r.records.FindForDay(ctx, student.ID, day)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return r.resolveFresh(student, class), nil
		}
		return models.ResolutionOutcome{}, infra(err, "record lookup failed")
	}
	return r.resolveExisting(student, record, class), nil
}

// resolveFresh handles the no-record row of the decision table. A time-out
// with no prior time-in is recorded rather than rejected: the portal has
// always allowed the bare time-out row, and rejecting it here would silently
// drop attendance data.
func (r *Resolver) resolveFresh(student models.Student, class schedule.Classification) models.ResolutionOutcome {
	entry := id.EntryTimeIn
	if class.Window == schedule.WindowTimeOut {
		entry = id.EntryTimeOut
	}
	return models.ResolutionOutcome{
		Kind:    models.OutcomeReadyToRecord,
		Student: &student,
		Entry:   entry,
	}
}

// resolveExisting handles the rows where today's record already exists.
func (r *Resolver) resolveExisting(student models.Student, record models.AttendanceRecord, class schedule.Classification) models.ResolutionOutcome {
	// Both punches on record: nothing left to write, whatever the window.
	if record.Complete() {
		return models.ResolutionOutcome{
			Kind:    models.OutcomeAlreadyComplete,
			Student: &student,
			Record:  &record,
		}
	}

	switch class.Window {
	case schedule.WindowTimeIn:
		if record.TimeIn != nil {
			// Re-punching time-in inside the time-in window is rejected.
			return models.ResolutionOutcome{
				Kind:    models.OutcomeAlreadyTimedIn,
				Student: &student,
				Record:  &record,
			}
		}
		// Only a bare time-out row exists; the morning punch is still
		// writable.
		return models.ResolutionOutcome{
			Kind:    models.OutcomeReadyToRecord,
			Student: &student,
			Record:  &record,
			Entry:   id.EntryTimeIn,
		}

	case schedule.WindowTimeOut:
		if record.TimeOut != nil {
			// Time-out already set but time-in missing: the only writable
			// field in this window is taken.
			return models.ResolutionOutcome{
				Kind:    models.OutcomeAlreadyComplete,
				Student: &student,
				Record:  &record,
			}
		}
		return models.ResolutionOutcome{
			Kind:    models.OutcomeReadyToRecord,
			Student: &student,
			Record:  &record,
			Entry:   id.EntryTimeOut,
		}
	}

	// Unreachable while Resolve gates on CanCapture first.
	return models.ResolutionOutcome{
		Kind:    models.OutcomeOutsideWindow,
		Student: &student,
		Record:  &record,
	}
}

func infra(err error, msg string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg)
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, msg)
}
