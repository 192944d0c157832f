// Package handler exposes the scan lifecycle and attendance lookups over
// HTTP for gate devices.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"scangate/internal/attendance/models"
	"scangate/internal/attendance/ports"
	"scangate/internal/attendance/scan"
	"scangate/internal/attendance/schedule"
	"scangate/pkg/clock"
	id "scangate/pkg/domain"
	dErrors "scangate/pkg/domain-errors"
	"scangate/pkg/platform/httputil"
	"scangate/pkg/platform/sentinel"
	"scangate/pkg/requestcontext"
)

// Handler wires scan endpoints to per-device sessions.
type Handler struct {
	sessions *scan.Manager
	records  ports.AttendanceStore
	students ports.StudentDirectory
	policy   *schedule.Policy
	clk      clock.Clock
	logger   *slog.Logger
}

func New(sessions *scan.Manager, records ports.AttendanceStore, students ports.StudentDirectory, policy *schedule.Policy, clk clock.Clock, logger *slog.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		records:  records,
		students: students,
		policy:   policy,
		clk:      clk,
		logger:   logger,
	}
}

// Register mounts scan endpoints on the router. The deviceauth middleware
// must run before these routes; every handler requires a device identity.
func (h *Handler) Register(r chi.Router) {
	r.Post("/scan", h.HandleSubmitScan)
	r.Get("/scan", h.HandleScanState)
	r.Post("/scan/confirm", h.HandleConfirm)
	r.Post("/scan/cancel", h.HandleCancel)
	r.Get("/attendance/{studentID}/today", h.HandleTodayRecord)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*scan.Session, id.DeviceID, bool) {
	deviceID := requestcontext.DeviceID(r.Context())
	if deviceID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "device authentication required"))
		return nil, "", false
	}
	session, err := h.sessions.Session(deviceID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "session setup failed",
			"device_id", deviceID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "session setup failed"))
		return nil, "", false
	}
	return session, deviceID, true
}

func (h *Handler) requestNow(ctx context.Context) time.Time {
	if t, ok := requestcontext.Time(ctx); ok {
		return t
	}
	return h.clk.Now()
}

// HandleSubmitScan handles POST /v1/scan requests. Resolution is
// asynchronous: the device gets a 202 and either polls GET /v1/scan or
// renders the pushed event.
func (h *Handler) HandleSubmitScan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	session, deviceID, ok := h.session(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[ScanRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	attempt, err := session.SubmitScan(ctx, req.Payload)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "scan accepted",
		"request_id", requestID,
		"device_id", deviceID,
		"attempt_id", attempt.ID,
	)

	httputil.WriteJSON(w, http.StatusAccepted, ScanAcceptedResponse{
		AttemptID: attempt.ID,
		State:     string(scan.StateDecoding),
	})
}

// HandleScanState handles GET /v1/scan requests.
func (h *Handler) HandleScanState(w http.ResponseWriter, r *http.Request) {
	session, _, ok := h.session(w, r)
	if !ok {
		return
	}

	snap, ok := session.Snapshot()
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no scan submitted on this device"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSnapshot(snap))
}

// HandleConfirm handles POST /v1/scan/confirm requests. Blocks until the
// record is durable or the write fails.
func (h *Handler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	session, deviceID, ok := h.session(w, r)
	if !ok {
		return
	}

	record, err := session.Confirm(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "scan confirm failed",
			"request_id", requestID,
			"device_id", deviceID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "scan confirmed",
		"request_id", requestID,
		"device_id", deviceID,
		"student_id", record.StudentID,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, FromRecord(record))
}

// HandleCancel handles POST /v1/scan/cancel requests.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	session, _, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := session.Cancel(r.Context()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleTodayRecord handles GET /v1/attendance/{studentID}/today requests,
// letting a kiosk show a student their punches for the current day.
func (h *Handler) HandleTodayRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, _, ok := h.session(w, r); !ok {
		return
	}

	studentID, err := id.ParseStudentID(chi.URLParam(r, "studentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	// "Today" means the request-scoped time the requesttime middleware
	// stamped, in the institution's zone; the injected clock covers direct
	// library callers.
	today := id.DayOf(h.requestNow(ctx).In(h.policy.Location()))

	// The record and the student detail live in different stores; fetch them
	// in parallel.
	var (
		record  models.AttendanceRecord
		student models.Student
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		record, err = h.records.FindForDay(gctx, studentID, today)
		return err
	})
	g.Go(func() error {
		found, err := h.students.LookupByPayload(gctx, studentID.String())
		if err != nil {
			// A record can outlive enrollment; render it without the name.
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil
			}
			return err
		}
		student = found
		return nil
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeNotFound, "no attendance recorded today"))
			return
		}
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "attendance lookup failed"))
		return
	}

	resp := FromRecord(record)
	if !student.ID.IsNil() {
		resp.Student = &StudentResponse{
			ID:          student.ID.String(),
			SchoolID:    student.SchoolID,
			DisplayName: student.DisplayName,
		}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
