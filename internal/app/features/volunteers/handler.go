// internal/app/features/volunteers/handler.go
package volunteers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	uierrors "github.com/kesherteam/kesher/internal/app/features/errors"
	"github.com/kesherteam/kesher/internal/app/live"
	"github.com/kesherteam/kesher/internal/app/system/inputval"
	"github.com/kesherteam/kesher/internal/app/system/normalize"
	"github.com/kesherteam/kesher/internal/app/system/sse"
	"github.com/kesherteam/kesher/internal/app/system/timeouts"
	"github.com/kesherteam/kesher/internal/domain/models"
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

type volunteerInput struct {
	FullName       string              `json:"fullName" label:"full name" validate:"required,personname"`
	Phone          string              `json:"phone" label:"phone" validate:"omitempty,max=30"`
	Email          string              `json:"email" label:"email" validate:"omitempty,email"`
	Skills         []string            `json:"skills" label:"skills" validate:"omitempty,dive,max=50"`
	Hobbies        []string            `json:"hobbies" label:"hobbies" validate:"omitempty,dive,max=50"`
	Languages      []string            `json:"languages" label:"languages" validate:"omitempty,dive,max=30"`
	AvailableSlots map[string][]string `json:"availableSlots" label:"available slots" validate:"omitempty,dive,dive,timeslot"`
}

type volunteerPatch struct {
	FullName       *string              `json:"fullName" label:"full name" validate:"omitempty,personname"`
	Phone          *string              `json:"phone" label:"phone" validate:"omitempty,max=30"`
	Email          *string              `json:"email" label:"email" validate:"omitempty,email"`
	Skills         *[]string            `json:"skills" label:"skills" validate:"omitempty,dive,max=50"`
	Hobbies        *[]string            `json:"hobbies" label:"hobbies" validate:"omitempty,dive,max=50"`
	Languages      *[]string            `json:"languages" label:"languages" validate:"omitempty,dive,max=30"`
	AvailableSlots *map[string][]string `json:"availableSlots" label:"available slots" validate:"omitempty,dive,dive,timeslot"`
	PresentCount   *int                 `json:"presentCount" label:"present count" validate:"omitempty,min=0"`
	AbsentCount    *int                 `json:"absentCount" label:"absent count" validate:"omitempty,min=0"`
	LateCount      *int                 `json:"lateCount" label:"late count" validate:"omitempty,min=0"`
	TotalSessions  *int                 `json:"totalSessions" label:"total sessions" validate:"omitempty,min=0"`
	TotalHours     *float64             `json:"totalHours" label:"total hours" validate:"omitempty,min=0"`
	IsActive       *bool                `json:"isActive"`
}

// trimSlots canonicalizes slot strings in place before validation, so
// " 09:00" and "09:00" read as the same submission.
func trimSlots(m map[string][]string) {
	for _, slots := range m {
		for i, s := range slots {
			slots[i] = normalize.Slot(s)
		}
	}
}

// HandleList serves GET /api/volunteers.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	records, err := h.Coll.List(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list volunteers", err, "A server error occurred.")
		return
	}
	uierrors.JSON(w, http.StatusOK, records)
}

// HandleCreate serves POST /api/volunteers.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in volunteerInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode volunteer body", err, "Invalid request body.")
		return
	}
	trimSlots(in.AvailableSlots)
	if err := inputval.Struct(in); err != nil {
		uierrors.Respond(w, http.StatusBadRequest, err.Error())
		return
	}

	fullName := normalize.Name(in.FullName)
	rec := live.Record{
		"full_name":           fullName,
		"full_name_ci":        text.Fold(fullName),
		"phone":               normalize.Name(in.Phone),
		"email":               normalize.Email(in.Email),
		"skills":              normalize.StringList(in.Skills),
		"hobbies":             normalize.StringList(in.Hobbies),
		"languages":           normalize.StringList(in.Languages),
		"available_slots":     models.Availability(in.AvailableSlots).Normalize(),
		"appointment_history": []any{},
		"present_count":       0,
		"absent_count":        0,
		"late_count":          0,
		"total_sessions":      0,
		"total_hours":         0.0,
		"is_active":           true,
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	mut := h.Coll.NewMutator()
	defer mut.Close()
	id, err := mut.Add(ctx, rec)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create volunteer", err, "A server error occurred.")
		return
	}

	h.Log.Info("volunteer created", zap.String("volunteer_id", id))
	uierrors.JSON(w, http.StatusCreated, map[string]string{"id": id})
}

// HandlePatch serves PATCH /api/volunteers/{id}. Only supplied fields change;
// attendance counters are adjusted the same way as profile fields.
func (h *Handler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var in volunteerPatch
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode volunteer patch", err, "Invalid request body.")
		return
	}
	if in.AvailableSlots != nil {
		trimSlots(*in.AvailableSlots)
	}
	if err := inputval.Struct(in); err != nil {
		uierrors.Respond(w, http.StatusBadRequest, err.Error())
		return
	}

	fields := live.Record{}
	if in.FullName != nil {
		name := normalize.Name(*in.FullName)
		fields["full_name"] = name
		fields["full_name_ci"] = text.Fold(name)
	}
	if in.Phone != nil {
		fields["phone"] = normalize.Name(*in.Phone)
	}
	if in.Email != nil {
		fields["email"] = normalize.Email(*in.Email)
	}
	if in.Skills != nil {
		fields["skills"] = normalize.StringList(*in.Skills)
	}
	if in.Hobbies != nil {
		fields["hobbies"] = normalize.StringList(*in.Hobbies)
	}
	if in.Languages != nil {
		fields["languages"] = normalize.StringList(*in.Languages)
	}
	if in.AvailableSlots != nil {
		fields["available_slots"] = models.Availability(*in.AvailableSlots).Normalize()
	}
	if in.PresentCount != nil {
		fields["present_count"] = *in.PresentCount
	}
	if in.AbsentCount != nil {
		fields["absent_count"] = *in.AbsentCount
	}
	if in.LateCount != nil {
		fields["late_count"] = *in.LateCount
	}
	if in.TotalSessions != nil {
		fields["total_sessions"] = *in.TotalSessions
	}
	if in.TotalHours != nil {
		fields["total_hours"] = *in.TotalHours
	}
	if in.IsActive != nil {
		fields["is_active"] = *in.IsActive
	}
	if len(fields) == 0 {
		uierrors.Respond(w, http.StatusBadRequest, "No fields to update.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	mut := h.Coll.NewMutator()
	defer mut.Close()
	if err := mut.Update(ctx, id, fields); err != nil {
		if errors.Is(err, live.ErrNotFound) {
			uierrors.NotFound(w, "Volunteer not found.")
			return
		}
		h.ErrLog.LogServerError(w, r, "update volunteer", err, "A server error occurred.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete serves DELETE /api/volunteers/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	mut := h.Coll.NewMutator()
	defer mut.Close()
	if err := mut.Delete(ctx, id); err != nil {
		if errors.Is(err, live.ErrNotFound) {
			uierrors.NotFound(w, "Volunteer not found.")
			return
		}
		h.ErrLog.LogServerError(w, r, "delete volunteer", err, "A server error occurred.")
		return
	}

	h.Log.Info("volunteer deleted", zap.String("volunteer_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// HandleStream serves GET /api/volunteers/stream as server-sent snapshots.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	sub := h.Coll.Subscribe(r.Context())
	sse.ServeSnapshots(w, r, sub, h.Log)
}
