// internal/app/features/attendance/handler.go
package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	uierrors "github.com/kesherteam/kesher/internal/app/features/errors"
	"github.com/kesherteam/kesher/internal/app/live"
	"github.com/kesherteam/kesher/internal/app/system/auth"
	"github.com/kesherteam/kesher/internal/app/system/inputval"
	"github.com/kesherteam/kesher/internal/app/system/normalize"
	"github.com/kesherteam/kesher/internal/app/system/sse"
	"github.com/kesherteam/kesher/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type Handler struct {
	Coll   *live.Collection
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(coll *live.Collection, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Coll: coll, ErrLog: errLog, Log: logger}
}

type attendanceInput struct {
	AppointmentID string `json:"appointmentId" label:"appointment" validate:"required,max=100"`
	VolunteerID   string `json:"volunteerId" label:"volunteer" validate:"required,max=100"`
	Status        string `json:"status" label:"status" validate:"required,oneof=present absent late"`
}

type attendancePatch struct {
	Status *string `json:"status" label:"status" validate:"omitempty,oneof=present absent late"`
}

// scope picks the equality predicate from the query string. Appointment
// scoping wins when both are supplied.
func scope(r *http.Request) (field, value string) {
	if v := r.URL.Query().Get("appointment_id"); v != "" {
		return "appointment_id", v
	}
	return "volunteer_id", r.URL.Query().Get("volunteer_id")
}

// HandleList serves GET /api/attendance, optionally scoped by
// ?appointment_id= or ?volunteer_id=.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	field, value := scope(r)
	var (
		records []live.Record
		err     error
	)
	if value == "" {
		records, err = h.Coll.List(ctx)
	} else {
		records, err = h.Coll.ListWhere(ctx, field, value)
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list attendance", err, "A server error occurred.")
		return
	}
	uierrors.JSON(w, http.StatusOK, records)
}

// HandleCreate serves POST /api/attendance. The confirming manager is taken
// from the request context, never from the payload.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in attendanceInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode attendance body", err, "Invalid request body.")
		return
	}
	in.Status = normalize.Status(in.Status)
	if err := inputval.Struct(in); err != nil {
		uierrors.Respond(w, http.StatusBadRequest, err.Error())
		return
	}

	confirmedBy := ""
	if u, ok := auth.CurrentUser(r); ok {
		confirmedBy = u.Username
	}
	rec := live.Record{
		"appointment_id": in.AppointmentID,
		"volunteer_id":   in.VolunteerID,
		"status":         in.Status,
		"confirmed_by":   confirmedBy,
		"confirmed_at":   time.Now().UTC().Format(time.RFC3339),
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	mut := h.Coll.NewMutator()
	defer mut.Close()
	id, err := mut.Add(ctx, rec)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create attendance record", err, "A server error occurred.")
		return
	}

	h.Log.Info("attendance confirmed",
		zap.String("attendance_id", id),
		zap.String("appointment_id", in.AppointmentID),
		zap.String("volunteer_id", in.VolunteerID),
		zap.String("status", in.Status))
	uierrors.JSON(w, http.StatusCreated, map[string]string{"id": id})
}

// HandlePatch serves PATCH /api/attendance/{id} to correct a status.
func (h *Handler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var in attendancePatch
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode attendance patch", err, "Invalid request body.")
		return
	}
	if in.Status != nil {
		s := normalize.Status(*in.Status)
		in.Status = &s
	}
	if err := inputval.Struct(in); err != nil {
		uierrors.Respond(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.Status == nil {
		uierrors.Respond(w, http.StatusBadRequest, "No fields to update.")
		return
	}

	confirmedBy := ""
	if u, ok := auth.CurrentUser(r); ok {
		confirmedBy = u.Username
	}
	fields := live.Record{
		"status":       *in.Status,
		"confirmed_by": confirmedBy,
		"confirmed_at": time.Now().UTC().Format(time.RFC3339),
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	mut := h.Coll.NewMutator()
	defer mut.Close()
	if err := mut.Update(ctx, id, fields); err != nil {
		if errors.Is(err, live.ErrNotFound) {
			uierrors.NotFound(w, "Attendance record not found.")
			return
		}
		h.ErrLog.LogServerError(w, r, "update attendance record", err, "A server error occurred.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete serves DELETE /api/attendance/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	mut := h.Coll.NewMutator()
	defer mut.Close()
	if err := mut.Delete(ctx, id); err != nil {
		if errors.Is(err, live.ErrNotFound) {
			uierrors.NotFound(w, "Attendance record not found.")
			return
		}
		h.ErrLog.LogServerError(w, r, "delete attendance record", err, "A server error occurred.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleStream serves GET /api/attendance/stream. The stream is always
// scoped; without an appointment_id or volunteer_id value the subscription
// short-circuits to a single empty, non-loading snapshot.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	field, value := scope(r)
	sub := h.Coll.SubscribeWhere(r.Context(), field, value)
	sse.ServeSnapshots(w, r, sub, h.Log)
}
