package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"scangate/internal/attendance/metrics"
	"scangate/internal/attendance/models"
	"scangate/internal/attendance/ports"
	"scangate/internal/attendance/recorder"
	"scangate/internal/attendance/resolver"
	"scangate/internal/attendance/schedule"
	"scangate/pkg/clock"
	id "scangate/pkg/domain"
	dErrors "scangate/pkg/domain-errors"
	"scangate/pkg/platform/sentinel"
	"scangate/pkg/requestcontext"
)

// Audit actions emitted on scan lifecycle transitions.
const (
	ActionScanResolved  = "scan_resolved"
	ActionScanRejected  = "scan_rejected"
	ActionScanCommitted = "scan_committed"
	ActionScanCancelled = "scan_cancelled"
	ActionScanFailed    = "scan_failed"
)

const (
	defaultResolveTimeout = 3 * time.Second
	defaultWriteTimeout   = 5 * time.Second
)

// Events are optional lifecycle callbacks, invoked once per transition with a
// snapshot taken at that transition. Callbacks run outside the session lock;
// handlers use them to push state to the scanner UI.
type Events struct {
	OnResolved  func(Snapshot)
	OnRejected  func(Snapshot)
	OnCommitted func(Snapshot)
	OnCancelled func(Snapshot)
	OnFailed    func(Snapshot)
}

// Session is the per-device scan façade. It enforces single-flight per
// device: one scan must reach a terminal state before the next is accepted,
// so one gate never interleaves two students' confirmation dialogs.
//
// Resolution runs asynchronously after SubmitScan returns; Confirm and
// Cancel act on the machine the last submit created.
type Session struct {
	deviceID id.DeviceID
	resolver *resolver.Resolver
	recorder *recorder.Recorder
	policy   *schedule.Policy

	clk     clock.Clock
	audit   ports.AuditPublisher
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	events  Events

	resolveTimeout time.Duration
	writeTimeout   time.Duration

	mu      sync.Mutex
	machine *Machine
}

type SessionOption func(*Session)

func WithClock(clk clock.Clock) SessionOption {
	return func(s *Session) {
		s.clk = clk
	}
}

func WithAudit(publisher ports.AuditPublisher) SessionOption {
	return func(s *Session) {
		s.audit = publisher
	}
}

func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) SessionOption {
	return func(s *Session) {
		s.metrics = m
	}
}

func WithEvents(events Events) SessionOption {
	return func(s *Session) {
		s.events = events
	}
}

func WithTimeouts(resolve, write time.Duration) SessionOption {
	return func(s *Session) {
		s.resolveTimeout = resolve
		s.writeTimeout = write
	}
}

func NewSession(deviceID id.DeviceID, res *resolver.Resolver, rec *recorder.Recorder, policy *schedule.Policy, opts ...SessionOption) (*Session, error) {
	if res == nil {
		return nil, fmt.Errorf("resolver is required")
	}
	if rec == nil {
		return nil, fmt.Errorf("recorder is required")
	}
	if policy == nil {
		return nil, fmt.Errorf("schedule policy is required")
	}

	s := &Session{
		deviceID:       deviceID,
		resolver:       res,
		recorder:       rec,
		policy:         policy,
		clk:            clock.System{},
		tracer:         otel.Tracer("scangate/attendance/scan"),
		resolveTimeout: defaultResolveTimeout,
		writeTimeout:   defaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SubmitScan accepts a raw payload and starts resolution. It returns the
// attempt immediately; the caller learns the outcome through Events or by
// polling Snapshot. A second submit while the previous scan is still live is
// refused with CodeBusy rather than queued, matching what a kiosk operator
// expects: finish or dismiss the dialog on screen first.
func (s *Session) SubmitScan(ctx context.Context, rawPayload string) (models.ScanAttempt, error) {
	attempt := models.ScanAttempt{
		ID:         uuid.NewString(),
		RawPayload: rawPayload,
		Timestamp:  s.clk.Now(),
		DeviceID:   s.deviceID,
	}

	machine := NewMachine(attempt)

	s.mu.Lock()
	if s.machine != nil && !s.machine.State().Terminal() {
		s.mu.Unlock()
		return models.ScanAttempt{}, dErrors.New(dErrors.CodeBusy, "a scan is already in progress on this device")
	}
	if err := machine.Begin(); err != nil {
		s.mu.Unlock()
		return models.ScanAttempt{}, dErrors.Wrap(err, dErrors.CodeInternal, "scan could not start")
	}
	s.machine = machine
	s.mu.Unlock()

	// Resolution outlives the submit request on purpose: the kiosk gets its
	// 202 back while lookups run, then renders the outcome event.
	requestID := requestcontext.RequestID(ctx)
	go s.resolve(context.WithoutCancel(ctx), machine, requestID)

	return attempt, nil
}

func (s *Session) resolve(ctx context.Context, machine *Machine, requestID string) {
	ctx, cancel := context.WithTimeout(ctx, s.resolveTimeout)
	defer cancel()

	attempt := machine.Snapshot().Attempt

	ctx, span := s.tracer.Start(ctx, "scan.resolve", trace.WithAttributes(
		attribute.String("scan.attempt_id", attempt.ID),
		attribute.String("scan.device_id", attempt.DeviceID.String()),
	))
	defer span.End()

	start := time.Now()
	outcome, err := s.resolver.Resolve(ctx, attempt.RawPayload, attempt.Timestamp)
	if err != nil {
		span.RecordError(err)
		snap, ferr := machine.ResolveFailed(err)
		if ferr != nil {
			if s.logger != nil {
				s.logger.ErrorContext(ctx, "scan resolution raced machine state", "error", ferr, "attempt_id", attempt.ID)
			}
			return
		}
		s.emit(ctx, ActionScanFailed, attempt, nil, err.Error(), requestID)
		s.notify(s.events.OnFailed, snap)
		return
	}

	snap, serr := machine.ResolveSucceeded(outcome)
	if serr != nil {
		// Machine already left Decoding; drop the outcome.
		return
	}

	span.SetAttributes(attribute.String("scan.outcome", string(outcome.Kind)))
	s.metrics.ObserveResolve(string(outcome.Kind), time.Since(start))

	if s.logger != nil {
		s.logger.InfoContext(ctx, "scan resolved",
			"attempt_id", attempt.ID,
			"device_id", attempt.DeviceID,
			"outcome", outcome.Kind,
		)
	}

	if snap.State == StateRejected {
		s.emit(ctx, ActionScanRejected, attempt, &outcome, "", requestID)
		s.notify(s.events.OnRejected, snap)
		return
	}
	s.emit(ctx, ActionScanResolved, attempt, &outcome, "", requestID)
	s.notify(s.events.OnResolved, snap)
}

// Confirm commits the write the resolved scan proposed. It is synchronous:
// the caller blocks until the record is durable or the write fails. Outside
// the Resolved state there is nothing to confirm and the call is refused
// with CodeConflict.
func (s *Session) Confirm(ctx context.Context) (models.AttendanceRecord, error) {
	s.mu.Lock()
	machine := s.machine
	s.mu.Unlock()
	if machine == nil {
		return models.AttendanceRecord{}, dErrors.New(dErrors.CodeConflict, "no scan awaiting confirmation")
	}

	outcome, err := machine.BeginConfirm()
	if err != nil {
		return models.AttendanceRecord{}, dErrors.Wrap(err, dErrors.CodeConflict, "no scan awaiting confirmation")
	}

	attempt := machine.Snapshot().Attempt
	requestID := requestcontext.RequestID(ctx)

	ctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()

	ctx, span := s.tracer.Start(ctx, "scan.commit", trace.WithAttributes(
		attribute.String("scan.attempt_id", attempt.ID),
		attribute.String("scan.entry", outcome.Entry.String()),
	))
	defer span.End()

	// The punch is stamped with the scan time, not the confirm time; window
	// validity was judged against the scan time and the stored punch must
	// agree with it.
	local := attempt.Timestamp.In(s.policy.Location())
	record, err := s.recorder.Record(ctx, outcome.Student.ID, id.DayOf(local), outcome.Entry, attempt.Timestamp)
	if err != nil {
		span.RecordError(err)
		snap, ferr := machine.CommitFailed(err)
		if ferr != nil {
			if s.logger != nil {
				s.logger.ErrorContext(ctx, "scan commit raced machine state", "error", ferr, "attempt_id", attempt.ID)
			}
			return models.AttendanceRecord{}, err
		}
		s.emit(ctx, ActionScanFailed, attempt, &outcome, err.Error(), requestID)
		s.notify(s.events.OnFailed, snap)
		return models.AttendanceRecord{}, err
	}

	snap, err := machine.CommitSucceeded(record)
	if err != nil {
		return models.AttendanceRecord{}, dErrors.Wrap(err, dErrors.CodeInternal, "scan commit raced machine state")
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "attendance committed",
			"attempt_id", attempt.ID,
			"student_id", outcome.Student.ID,
			"entry", outcome.Entry,
		)
		if outcome.Entry == id.EntryTimeOut && record.TimeIn == nil {
			// Allowed, but staff review these: the student left without a
			// morning punch.
			s.logger.WarnContext(ctx, "time out recorded without a time in",
				"student_id", outcome.Student.ID,
				"date", record.Date,
			)
		}
	}
	s.emit(ctx, ActionScanCommitted, attempt, &outcome, "", requestID)
	s.notify(s.events.OnCommitted, snap)
	return record, nil
}

// Cancel dismisses a resolved scan without writing. A cancel that lands
// while the write is in flight is absorbed; one that lands with no live scan
// is a caller error.
func (s *Session) Cancel(ctx context.Context) error {
	s.mu.Lock()
	machine := s.machine
	s.mu.Unlock()
	if machine == nil {
		return dErrors.New(dErrors.CodeConflict, "no scan to cancel")
	}

	snap, err := machine.Cancel()
	if err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return dErrors.Wrap(err, dErrors.CodeConflict, "no scan to cancel")
		}
		return err
	}
	if snap.State != StateCancelled {
		// Absorbed: the write is in flight and will settle on its own.
		return nil
	}

	s.emit(ctx, ActionScanCancelled, snap.Attempt, snap.Outcome, "", requestcontext.RequestID(ctx))
	s.notify(s.events.OnCancelled, snap)
	return nil
}

// Snapshot returns the last submitted scan's state, or false when this
// session has not seen a scan yet.
func (s *Session) Snapshot() (Snapshot, bool) {
	s.mu.Lock()
	machine := s.machine
	s.mu.Unlock()
	if machine == nil {
		return Snapshot{}, false
	}
	return machine.Snapshot(), true
}

func (s *Session) emit(ctx context.Context, action string, attempt models.ScanAttempt, outcome *models.ResolutionOutcome, detail, requestID string) {
	if s.audit == nil {
		return
	}
	event := ports.AuditEvent{
		Action:    action,
		Timestamp: s.clk.Now(),
		DeviceID:  attempt.DeviceID,
		Detail:    detail,
		RequestID: requestID,
		Station:   requestcontext.Station(ctx),
		ClientIP:  requestcontext.ClientIP(ctx),
		UserAgent: requestcontext.UserAgent(ctx),
	}
	if outcome != nil {
		event.Outcome = string(outcome.Kind)
		if outcome.Student != nil {
			event.StudentID = outcome.Student.ID
		}
	}
	s.audit.Emit(ctx, event)
}

func (s *Session) notify(fn func(Snapshot), snap Snapshot) {
	if fn == nil {
		return
	}
	fn(snap)
}
