// internal/app/features/matchingrules/handler.go
package matchingrules

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	uierrors "github.com/kesherteam/kesher/internal/app/features/errors"
	"github.com/kesherteam/kesher/internal/app/live"
	"github.com/kesherteam/kesher/internal/app/system/inputval"
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

// DefaultRuleRecords converts the fixed rule set into seedable records.
func DefaultRuleRecords() []live.Record {
	defaults := make([]live.Record, 0, len(models.DefaultMatchingRules))
	for _, rule := range models.DefaultMatchingRules {
		defaults = append(defaults, live.Record{
			"id":      rule.ID,
			"label":   rule.Label,
			"weight":  rule.Weight,
			"enabled": rule.Enabled,
		})
	}
	return defaults
}

// The rule set is fixed; only its tuning fields are editable.
type rulePatch struct {
	Label   *string  `json:"label" label:"label" validate:"omitempty,min=1,max=100"`
	Weight  *float64 `json:"weight" label:"weight" validate:"omitempty,min=0,max=100"`
	Enabled *bool    `json:"enabled"`
}

// HandleList serves GET /api/matching-rules, seeding the default rule set
// when the collection is still empty.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	records, err := h.Coll.EnsureSeeded(ctx, DefaultRuleRecords())
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list matching rules", err, "A server error occurred.")
		return
	}
	uierrors.JSON(w, http.StatusOK, records)
}

// HandlePatch serves PATCH /api/matching-rules/{id}.
func (h *Handler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var in rulePatch
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode rule patch", err, "Invalid request body.")
		return
	}
	if err := inputval.Struct(in); err != nil {
		uierrors.Respond(w, http.StatusBadRequest, err.Error())
		return
	}

	fields := live.Record{}
	if in.Label != nil {
		fields["label"] = *in.Label
	}
	if in.Weight != nil {
		fields["weight"] = *in.Weight
	}
	if in.Enabled != nil {
		fields["enabled"] = *in.Enabled
	}
	if len(fields) == 0 {
		uierrors.Respond(w, http.StatusBadRequest, "No fields to update.")
		return
	}
	fields["updated_at"] = time.Now().UTC().Format(time.RFC3339)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	mut := h.Coll.NewMutator()
	defer mut.Close()
	if err := mut.Update(ctx, id, fields); err != nil {
		if errors.Is(err, live.ErrNotFound) {
			uierrors.NotFound(w, "Matching rule not found.")
			return
		}
		h.ErrLog.LogServerError(w, r, "update matching rule", err, "A server error occurred.")
		return
	}

	h.Log.Info("matching rule updated", zap.String("rule_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// HandleStream serves GET /api/matching-rules/stream; the first subscriber
// against an empty collection seeds the defaults.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	sub := h.Coll.SubscribeSeeded(r.Context(), DefaultRuleRecords())
	sse.ServeSnapshots(w, r, sub, h.Log)
}
