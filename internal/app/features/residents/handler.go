// internal/app/features/residents/handler.go
package residents

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	uierrors "github.com/kesherteam/kesher/internal/app/features/errors"
	"github.com/kesherteam/kesher/internal/app/live"
	"github.com/kesherteam/kesher/internal/app/system/htmlsanitize"
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

type residentInput struct {
	FullName       string              `json:"fullName" label:"full name" validate:"required,personname"`
	Gender         string              `json:"gender" label:"gender" validate:"omitempty,oneof=female male other"`
	BirthDate      string              `json:"birthDate" label:"birth date" validate:"omitempty,datetime=2006-01-02"`
	Room           string              `json:"room" label:"room" validate:"omitempty,max=20"`
	Languages      []string            `json:"languages" label:"languages" validate:"omitempty,dive,max=30"`
	Hobbies        []string            `json:"hobbies" label:"hobbies" validate:"omitempty,dive,max=50"`
	AvailableSlots map[string][]string `json:"availableSlots" label:"available slots" validate:"omitempty,dive,dive,timeslot"`
	Notes          string              `json:"notes" label:"notes" validate:"omitempty,max=2000"`
}

// residentPatch carries only the fields the client supplied; nil means
// "leave untouched", which the mutator's partial merge honors.
type residentPatch struct {
	FullName       *string              `json:"fullName" label:"full name" validate:"omitempty,personname"`
	Gender         *string              `json:"gender" label:"gender" validate:"omitempty,oneof=female male other"`
	BirthDate      *string              `json:"birthDate" label:"birth date" validate:"omitempty,datetime=2006-01-02"`
	Room           *string              `json:"room" label:"room" validate:"omitempty,max=20"`
	Languages      *[]string            `json:"languages" label:"languages" validate:"omitempty,dive,max=30"`
	Hobbies        *[]string            `json:"hobbies" label:"hobbies" validate:"omitempty,dive,max=50"`
	AvailableSlots *map[string][]string `json:"availableSlots" label:"available slots" validate:"omitempty,dive,dive,timeslot"`
	IsActive       *bool                `json:"isActive"`
	Notes          *string              `json:"notes" label:"notes" validate:"omitempty,max=2000"`
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

// HandleList serves GET /api/residents.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	records, err := h.Coll.List(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list residents", err, "A server error occurred.")
		return
	}
	uierrors.JSON(w, http.StatusOK, records)
}

// HandleCreate serves POST /api/residents.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in residentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode resident body", err, "Invalid request body.")
		return
	}
	trimSlots(in.AvailableSlots)
	if err := inputval.Struct(in); err != nil {
		uierrors.Respond(w, http.StatusBadRequest, err.Error())
		return
	}

	fullName := normalize.Name(in.FullName)
	rec := live.Record{
		"full_name":       fullName,
		"full_name_ci":    text.Fold(fullName),
		"gender":          in.Gender,
		"birth_date":      in.BirthDate,
		"room":            normalize.Name(in.Room),
		"languages":       normalize.StringList(in.Languages),
		"hobbies":         normalize.StringList(in.Hobbies),
		"available_slots": models.Availability(in.AvailableSlots).Normalize(),
		"matched_history": []any{},
		"is_active":       true,
		"notes":           htmlsanitize.Notes(in.Notes),
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	mut := h.Coll.NewMutator()
	defer mut.Close()
	id, err := mut.Add(ctx, rec)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create resident", err, "A server error occurred.")
		return
	}

	h.Log.Info("resident created", zap.String("resident_id", id))
	uierrors.JSON(w, http.StatusCreated, map[string]string{"id": id})
}

// HandlePatch serves PATCH /api/residents/{id}. Only supplied fields change.
func (h *Handler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var in residentPatch
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode resident patch", err, "Invalid request body.")
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
	if in.Gender != nil {
		fields["gender"] = *in.Gender
	}
	if in.BirthDate != nil {
		fields["birth_date"] = *in.BirthDate
	}
	if in.Room != nil {
		fields["room"] = normalize.Name(*in.Room)
	}
	if in.Languages != nil {
		fields["languages"] = normalize.StringList(*in.Languages)
	}
	if in.Hobbies != nil {
		fields["hobbies"] = normalize.StringList(*in.Hobbies)
	}
	if in.AvailableSlots != nil {
		fields["available_slots"] = models.Availability(*in.AvailableSlots).Normalize()
	}
	if in.IsActive != nil {
		fields["is_active"] = *in.IsActive
	}
	if in.Notes != nil {
		fields["notes"] = htmlsanitize.Notes(*in.Notes)
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
			uierrors.NotFound(w, "Resident not found.")
			return
		}
		h.ErrLog.LogServerError(w, r, "update resident", err, "A server error occurred.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete serves DELETE /api/residents/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	mut := h.Coll.NewMutator()
	defer mut.Close()
	if err := mut.Delete(ctx, id); err != nil {
		if errors.Is(err, live.ErrNotFound) {
			uierrors.NotFound(w, "Resident not found.")
			return
		}
		h.ErrLog.LogServerError(w, r, "delete resident", err, "A server error occurred.")
		return
	}

	h.Log.Info("resident deleted", zap.String("resident_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// HandleStream serves GET /api/residents/stream as server-sent snapshots.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	sub := h.Coll.Subscribe(r.Context())
	sse.ServeSnapshots(w, r, sub, h.Log)
}
