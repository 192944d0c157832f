// Package recorder performs the idempotent attendance write. Two devices (or
// a double-tap) can scan the same student inside one window; the store's
// uniqueness constraint plus the set-if-absent fallback here guarantee that
// at most one time-in and one time-out per day ever get written, regardless
// of write ordering, without a distributed lock.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"scangate/internal/attendance/metrics"
	"scangate/internal/attendance/models"
	"scangate/internal/attendance/ports"
	id "scangate/pkg/domain"
	dErrors "scangate/pkg/domain-errors"
	"scangate/pkg/platform/sentinel"
)

type Recorder struct {
	store   ports.AttendanceStore
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Recorder)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Recorder) {
		r.metrics = m
	}
}

func New(store ports.AttendanceStore, opts ...Option) (*Recorder, error) {
	if store == nil {
		return nil, fmt.Errorf("attendance store is required")
	}

	rec := &Recorder{store: store}
	for _, opt := range opts {
		opt(rec)
	}
	return rec, nil
}

// Record writes one punch field. The "no existing record" precondition
// observed during resolution may no longer hold at write time; the fallback
// absorbs that staleness:
//
//  1. attempt an insert of a fresh record with the field set
//  2. on a uniqueness conflict, set the field only if it is still null
//  3. if the field is already populated, fail with CodeConflict so the
//     caller can say "someone already recorded this" instead of reporting a
//     false success
func (r *Recorder) Record(ctx context.Context, studentID id.StudentID, day id.Day, kind id.EntryKind, at time.Time) (models.AttendanceRecord, error) {
	start := time.Now()

	rec, err := r.store.Insert(ctx, studentID, day, kind, at)
	if err == nil {
		r.metrics.ObserveCommit(kind.String(), time.Since(start))
		return rec, nil
	}
	if !errors.Is(err, sentinel.ErrConflict) {
		return models.AttendanceRecord{}, r.writeFailure(ctx, err)
	}

	// Lost the insert race; another device created today's record between
	// resolution and now.
	r.metrics.IncWriteConflict()
	if r.logger != nil {
		r.logger.InfoContext(ctx, "attendance insert conflicted, falling back to field update",
			"student_id", studentID,
			"date", day,
			"kind", kind,
		)
	}

	rec, err = r.store.SetIfAbsent(ctx, studentID, day, kind, at)
	if err == nil {
		r.metrics.ObserveCommit(kind.String(), time.Since(start))
		return rec, nil
	}
	if errors.Is(err, sentinel.ErrAlreadyRecorded) {
		return models.AttendanceRecord{}, dErrors.Wrap(err, dErrors.CodeConflict, "attendance already recorded")
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		// Records are never deleted by this subsystem, so a vanished record
		// after a conflict points at the store itself.
		return models.AttendanceRecord{}, dErrors.Wrap(err, dErrors.CodeInternal, "record disappeared during fallback")
	}
	return models.AttendanceRecord{}, r.writeFailure(ctx, err)
}

func (r *Recorder) writeFailure(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "attendance write timed out")
	}
	if r.logger != nil {
		r.logger.ErrorContext(ctx, "attendance write failed", "error", err)
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, "attendance write failed")
}
