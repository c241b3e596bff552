// internal/app/features/accounts/handler.go
package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	uierrors "github.com/kesherteam/kesher/internal/app/features/errors"
	tokenstore "github.com/kesherteam/kesher/internal/app/store/tokens"
	userstore "github.com/kesherteam/kesher/internal/app/store/users"
	"github.com/kesherteam/kesher/internal/app/system/auth"
	"github.com/kesherteam/kesher/internal/app/system/inputval"
	"github.com/kesherteam/kesher/internal/app/system/timeouts"
	"github.com/kesherteam/kesher/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler manages sign-in accounts. Every route is manager-only.
type Handler struct {
	Users  *userstore.Store
	Tokens *tokenstore.Store
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(users *userstore.Store, tokens *tokenstore.Store, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Users: users, Tokens: tokens, ErrLog: errLog, Log: logger}
}

type accountInput struct {
	Username string `json:"username" label:"username" validate:"required,username"`
	Password string `json:"password" label:"password" validate:"required,min=8,max=128"`
	FullName string `json:"fullName" label:"full name" validate:"required,personname"`
	Role     string `json:"role" label:"role" validate:"required,oneof=manager volunteer"`
	IsActive *bool  `json:"isActive"`
}

type accountPatch struct {
	FullName *string `json:"fullName" label:"full name" validate:"omitempty,personname"`
	Role     *string `json:"role" label:"role" validate:"omitempty,oneof=manager volunteer"`
	IsActive *bool   `json:"isActive"`
	Password *string `json:"password" label:"password" validate:"omitempty,min=8,max=128"`
}

// HandleList serves GET /api/accounts. Password hashes never serialize
// (json:"-" on the model).
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list accounts", err, "A server error occurred.")
		return
	}
	if users == nil {
		users = []models.User{}
	}
	uierrors.JSON(w, http.StatusOK, users)
}

// HandleCreate serves POST /api/accounts.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in accountInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode account body", err, "Invalid request body.")
		return
	}
	if err := inputval.Struct(in); err != nil {
		uierrors.Respond(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "hash password", err, "A server error occurred.")
		return
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, err := h.Users.Create(ctx, models.User{
		Username:     in.Username,
		PasswordHash: hash,
		FullName:     in.FullName,
		Role:         in.Role,
		IsActive:     active,
	})
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateUsername) {
			uierrors.Conflict(w, err.Error())
			return
		}
		h.ErrLog.LogServerError(w, r, "create account", err, "A server error occurred.")
		return
	}

	h.Log.Info("account created",
		zap.String("user_id", user.ID.Hex()),
		zap.String("username", user.Username),
		zap.String("role", user.Role))
	uierrors.JSON(w, http.StatusCreated, user)
}

// HandlePatch serves PATCH /api/accounts/{id}. Unsupplied fields keep their
// stored values; a supplied password is re-hashed.
func (h *Handler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.NotFound(w, "Account not found.")
		return
	}

	var in accountPatch
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode account patch", err, "Invalid request body.")
		return
	}
	if err := inputval.Struct(in); err != nil {
		uierrors.Respond(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.FullName == nil && in.Role == nil && in.IsActive == nil && in.Password == nil {
		uierrors.Respond(w, http.StatusBadRequest, "No fields to update.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	current, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			uierrors.NotFound(w, "Account not found.")
			return
		}
		h.ErrLog.LogServerError(w, r, "load account", err, "A server error occurred.")
		return
	}

	upd := userstore.Update{
		FullName: current.FullName,
		Role:     current.Role,
		IsActive: current.IsActive,
	}
	if in.FullName != nil {
		upd.FullName = *in.FullName
	}
	if in.Role != nil {
		upd.Role = *in.Role
	}
	if in.IsActive != nil {
		upd.IsActive = *in.IsActive
	}
	if err := h.Users.UpdateAccount(ctx, id, upd); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			uierrors.NotFound(w, "Account not found.")
			return
		}
		h.ErrLog.LogServerError(w, r, "update account", err, "A server error occurred.")
		return
	}

	if in.Password != nil {
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "hash password", err, "A server error occurred.")
			return
		}
		if err := h.Users.UpdatePasswordHash(ctx, id, hash); err != nil {
			h.ErrLog.LogServerError(w, r, "update password", err, "A server error occurred.")
			return
		}
	}

	// Disabling an account ends its open sessions.
	if in.IsActive != nil && !*in.IsActive {
		if _, err := h.Tokens.DeleteByUser(ctx, id); err != nil {
			h.Log.Warn("revoke tokens for disabled account",
				zap.String("user_id", id.Hex()), zap.Error(err))
		}
	}

	h.Log.Info("account updated", zap.String("user_id", id.Hex()))
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete serves DELETE /api/accounts/{id}, revoking the account's
// tokens along with it.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.NotFound(w, "Account not found.")
		return
	}

	if u, ok := auth.CurrentUser(r); ok && u.ID == id.Hex() {
		uierrors.Respond(w, http.StatusBadRequest, "You cannot delete your own account.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	deleted, err := h.Users.Delete(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete account", err, "A server error occurred.")
		return
	}
	if deleted == 0 {
		uierrors.NotFound(w, "Account not found.")
		return
	}
	if _, err := h.Tokens.DeleteByUser(ctx, id); err != nil {
		h.Log.Warn("revoke tokens for deleted account",
			zap.String("user_id", id.Hex()), zap.Error(err))
	}

	h.Log.Info("account deleted", zap.String("user_id", id.Hex()))
	w.WriteHeader(http.StatusNoContent)
}
